package audio

import (
	"strings"
	"testing"
)

func TestValidateText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"simple phrase", "el gato duerme", false},
		{"accented text", "mañana será otro día", false},
		{"empty", "", true},
		{"whitespace only", "   \t\n", true},
		{"digits only", "12345", true},
		{"punctuation only", "¡¿?!", true},
		{"mixed with letters", "¡hola! 123", false},
		{"too long", strings.Repeat("palabra ", 100), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateText(tt.text)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateText(%q) error = %v, wantErr %v", tt.text, err, tt.wantErr)
			}
		})
	}
}
