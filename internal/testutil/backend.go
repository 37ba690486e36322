// Package testutil provides a fake flashcard backend and callback recorders
// shared by the package tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Backend is a fake flashcard backend served over httptest. Each endpoint
// can be overridden per test; unset endpoints answer with sensible defaults.
// It records every request path so tests can assert on traffic.
type Backend struct {
	t  *testing.T
	mu sync.Mutex

	Server *httptest.Server

	Categories []string
	DeckFiles  map[string][]string // category -> file names
	Decks      map[string]string   // "category/deck" -> raw JSON payload

	// Handlers override individual endpoints, keyed by path
	// (e.g. "/api/generate-image").
	Handlers map[string]http.HandlerFunc

	requests []string
}

// NewBackend starts a fake backend. It is shut down automatically when the
// test ends.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{
		t:          t,
		Categories: []string{"nouns", "verbs"},
		DeckFiles:  map[string][]string{"nouns": {"animals.json"}},
		Decks:      map[string]string{},
		Handlers:   map[string]http.HandlerFunc{},
	}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the backend base URL.
func (b *Backend) URL() string { return b.Server.URL }

// Requests returns the paths of all requests seen so far.
func (b *Backend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.requests))
	copy(out, b.requests)
	return out
}

// RequestCount returns how many requests hit a given path.
func (b *Backend) RequestCount(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, p := range b.requests {
		if p == path {
			n++
		}
	}
	return n
}

// Handle overrides the handler for a path.
func (b *Backend) Handle(path string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Handlers[path] = h
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.requests = append(b.requests, r.URL.Path)
	h, ok := b.Handlers[r.URL.Path]
	b.mu.Unlock()
	if ok {
		h(w, r)
		return
	}

	switch r.URL.Path {
	case "/api/categories":
		writeJSON(w, map[string]any{"success": true, "categories": b.Categories})
	case "/api/available-flashcards-files":
		files := b.DeckFiles[r.URL.Query().Get("category")]
		if files == nil {
			files = []string{}
		}
		writeJSON(w, map[string]any{"success": true, "files": files})
	case "/api/flashcards-data":
		key := r.URL.Query().Get("category") + "/" + r.URL.Query().Get("deck")
		payload, ok := b.Decks[key]
		if !ok {
			WriteDetail(w, http.StatusNotFound, fmt.Sprintf("deck %s not found", key))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, payload)
	case "/api/update-status", "/api/reset-all":
		writeJSON(w, map[string]any{"success": true})
	case "/api/synthesize-speech":
		writeJSON(w, map[string]any{"audio_url": "/media/audio/speech.mp3"})
	case "/api/generate-image":
		writeJSON(w, map[string]any{"path": "/media/images/generated.png"})
	case "/api/delete-image":
		writeJSON(w, map[string]any{"success": true})
	case "/api/upload-image":
		writeJSON(w, map[string]any{"path": "/media/images/uploaded.png"})
	case "/api/phonics-data":
		writeJSON(w, []map[string]any{})
	default:
		WriteDetail(w, http.StatusNotFound, "unknown endpoint "+r.URL.Path)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// WriteDetail answers with the backend's error shape: a status code and a
// JSON body carrying a "detail" field.
func WriteDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

// FailNTimes builds a handler that answers with a 500 for the first n
// requests and then delegates to ok.
func FailNTimes(n int, ok http.HandlerFunc) http.HandlerFunc {
	var mu sync.Mutex
	count := 0
	return func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		count++
		failing := count <= n
		mu.Unlock()
		if failing {
			WriteDetail(w, http.StatusInternalServerError, "transient failure")
			return
		}
		ok(w, r)
	}
}

// JSONHandler builds a handler answering 200 with a fixed JSON value.
func JSONHandler(v any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, v)
	}
}
