package batch

import (
	"fmt"
	"os"
	"strings"
)

// Entry represents one line from a batch file: a text to speak with an
// optional tone prefix.
type Entry struct {
	Text string
	Tone string
}

// ReadFile reads texts from a file, one per line. Supported formats:
// - Plain text: "el gato duerme" (spoken as-is)
// - With tone: "Cheerfully: el gato duerme" (tone before the first colon)
// Blank lines and lines starting with '#' are skipped.
func ReadFile(filename string) ([]Entry, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	var entries []Entry
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if idx := strings.Index(line, ":"); idx > 0 {
			tone := strings.TrimSpace(line[:idx])
			text := strings.TrimSpace(line[idx+1:])
			// A tone is a short instruction like "Slowly" or "Cheerfully".
			// Anything long, or with no text after the colon, is treated as
			// plain text to avoid mangling sentences that contain colons.
			if text != "" && len(tone) <= 20 && !strings.ContainsAny(tone, ".!?") {
				entries = append(entries, Entry{Text: text, Tone: tone})
				continue
			}
		}
		entries = append(entries, Entry{Text: line})
	}

	return entries, nil
}
