package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/example/flashvoz/internal/card"
)

// Options configures a deck export.
type Options struct {
	OutputPath     string // Output CSV file path
	IncludeHeaders bool   // Include CSV headers
	LearnedOnly    bool   // Export only cards marked as learned
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() *Options {
	return &Options{
		OutputPath:     "deck_export.csv",
		IncludeHeaders: true,
	}
}

// WriteCSV exports a deck's cards to a CSV file, one row per definition.
// Cards with no definitions are written as a single row with empty
// definition columns.
func WriteCSV(cards []*card.Card, options *Options) error {
	if options == nil {
		options = DefaultOptions()
	}

	file, err := os.Create(options.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if options.IncludeHeaders {
		headers := []string{"Word", "Phonetic", "Definition", "Meaning", "Example", "Translated Example", "Learned"}
		if err := writer.Write(headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for _, c := range cards {
		if c == nil {
			continue
		}
		if options.LearnedOnly && !c.Learned {
			continue
		}
		if len(c.Definitions) == 0 {
			record := []string{c.Name, c.Phonetic, "", "", "", "", strconv.FormatBool(c.Learned)}
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("failed to write card %q: %w", c.Name, err)
			}
			continue
		}
		for i, def := range c.Definitions {
			record := []string{
				c.Name,
				c.Phonetic,
				strconv.Itoa(i + 1),
				def.Meaning,
				def.UsageExample,
				def.TranslatedExample,
				strconv.FormatBool(c.Learned),
			}
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("failed to write card %q: %w", c.Name, err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// SuggestFilename builds a safe export filename from category and deck names.
func SuggestFilename(category, deck string) string {
	clean := func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		var b strings.Builder
		for _, r := range s {
			switch {
			case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
				b.WriteRune(r)
			default:
				b.WriteRune('_')
			}
		}
		return b.String()
	}
	return fmt.Sprintf("%s_%s_export.csv", clean(category), clean(deck))
}
