package testutil

import (
	"strings"
	"sync"
)

// StatusRecorder collects status callback invocations.
type StatusRecorder struct {
	mu      sync.Mutex
	entries []StatusEntry
}

// StatusEntry is one recorded status message.
type StatusEntry struct {
	Message string
	IsError bool
}

// Record is the callback to hand to a controller.
func (r *StatusRecorder) Record(message string, isError bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, StatusEntry{Message: message, IsError: isError})
}

// Entries returns a snapshot of all recorded statuses.
func (r *StatusRecorder) Entries() []StatusEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]StatusEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Messages returns only the message strings.
func (r *StatusRecorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Message
	}
	return out
}

// Contains reports whether any recorded message contains substr.
func (r *StatusRecorder) Contains(substr string) bool {
	for _, m := range r.Messages() {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

// LastError returns the most recent error status, or an empty entry.
func (r *StatusRecorder) LastError() StatusEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].IsError {
			return r.entries[i]
		}
	}
	return StatusEntry{}
}

// IntRecorder collects int callback invocations, such as highlight indices.
type IntRecorder struct {
	mu     sync.Mutex
	values []int
}

// Record is the callback to hand to a controller.
func (r *IntRecorder) Record(v int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

// Values returns a snapshot of all recorded values.
func (r *IntRecorder) Values() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.values))
	copy(out, r.values)
	return out
}

// StringRecorder collects string callback invocations, such as image URLs.
type StringRecorder struct {
	mu     sync.Mutex
	values []string
}

// Record is the callback to hand to a controller.
func (r *StringRecorder) Record(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

// Values returns a snapshot of all recorded values.
func (r *StringRecorder) Values() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.values))
	copy(out, r.values)
	return out
}

// Last returns the most recent value, or "".
func (r *StringRecorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.values) == 0 {
		return ""
	}
	return r.values[len(r.values)-1]
}
