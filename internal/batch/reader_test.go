package batch

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestReadFile(t *testing.T) {
	tests := []struct {
		name        string
		fileContent string
		want        []Entry
	}{
		{
			name:        "empty file",
			fileContent: "",
			want:        nil,
		},
		{
			name:        "only whitespace",
			fileContent: "   \n\t\r\n   ",
			want:        nil,
		},
		{
			name: "plain texts",
			fileContent: `el gato duerme
la casa es grande`,
			want: []Entry{
				{Text: "el gato duerme"},
				{Text: "la casa es grande"},
			},
		},
		{
			name: "tone prefixes",
			fileContent: `Slowly: el gato duerme
Cheerfully: buenos dias`,
			want: []Entry{
				{Text: "el gato duerme", Tone: "Slowly"},
				{Text: "buenos dias", Tone: "Cheerfully"},
			},
		},
		{
			name: "comments and blanks skipped",
			fileContent: `# practice phrases

el gato duerme

# more
la casa`,
			want: []Entry{
				{Text: "el gato duerme"},
				{Text: "la casa"},
			},
		},
		{
			name:        "sentence containing a colon stays plain",
			fileContent: `Dijo claramente lo siguiente: me voy manana`,
			want: []Entry{
				{Text: "Dijo claramente lo siguiente: me voy manana"},
			},
		},
		{
			name:        "colon with nothing after stays plain",
			fileContent: `hola:`,
			want: []Entry{
				{Text: "hola:"},
			},
		},
		{
			name:        "windows line endings",
			fileContent: "el gato\r\nla casa\r\n",
			want: []Entry{
				{Text: "el gato"},
				{Text: "la casa"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "batch.txt")
			if err := os.WriteFile(path, []byte(tt.fileContent), 0644); err != nil {
				t.Fatalf("writing test file: %v", err)
			}

			got, err := ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ReadFile() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
