package audio

import (
	"fmt"
	"strings"
	"unicode"
)

// maxTextLength caps text sent to direct synthesis; the backend enforces its
// own limit in normal mode.
const maxTextLength = 600

// ValidateText checks that a text snippet is sensible to synthesize.
func ValidateText(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return fmt.Errorf("text is empty")
	}
	if len(trimmed) > maxTextLength {
		return fmt.Errorf("text too long: %d characters (max %d)", len(trimmed), maxTextLength)
	}
	for _, r := range trimmed {
		if unicode.IsLetter(r) {
			return nil
		}
	}
	return fmt.Errorf("text contains no letters")
}
