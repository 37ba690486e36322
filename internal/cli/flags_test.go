package cli

import (
	"reflect"
	"testing"
)

func TestNewFlags(t *testing.T) {
	flags := NewFlags()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"APIURL", flags.APIURL, "http://127.0.0.1:8000"},
		{"LogLevel", flags.LogLevel, "info"},
		{"OpenAIModel", flags.OpenAIModel, "gpt-4o-mini-tts"},
		{"OpenAIVoice", flags.OpenAIVoice, "alloy"},
		{"OpenAISpeed", flags.OpenAISpeed, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !reflect.DeepEqual(tt.got, tt.expected) {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}

	boolTests := []struct {
		name  string
		value bool
	}{
		{"NoAutoPlay", flags.NoAutoPlay},
		{"ListCategories", flags.ListCategories},
		{"ListDecks", flags.ListDecks},
		{"DirectTTS", flags.DirectTTS},
	}
	for _, tt := range boolTests {
		if tt.value {
			t.Errorf("%s should default to false", tt.name)
		}
	}

	stringTests := []struct {
		name  string
		value string
	}{
		{"Category", flags.Category},
		{"Deck", flags.Deck},
		{"Tone", flags.Tone},
		{"BatchFile", flags.BatchFile},
		{"StateDir", flags.StateDir},
		{"ExportCSV", flags.ExportCSV},
	}
	for _, tt := range stringTests {
		if tt.value != "" {
			t.Errorf("%s should default to empty, got %q", tt.name, tt.value)
		}
	}
}
