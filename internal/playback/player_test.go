package playback

import (
	"strings"
	"testing"
)

func TestPlaybackCommandOverride(t *testing.T) {
	cmd, err := playbackCommand("my-player", "/tmp/audio.mp3")
	if err != nil {
		t.Fatalf("playbackCommand() error = %v", err)
	}
	if !strings.HasSuffix(cmd.Path, "my-player") && cmd.Args[0] != "my-player" {
		t.Errorf("override not used: %v", cmd.Args)
	}
	if cmd.Args[len(cmd.Args)-1] != "/tmp/audio.mp3" {
		t.Errorf("file argument missing: %v", cmd.Args)
	}
}

func TestProbeDurationMissingFile(t *testing.T) {
	// Must degrade to 0, never error, whatever tools are installed.
	if d := probeDuration("/nonexistent/audio.mp3"); d != 0 {
		t.Errorf("probeDuration() = %v, want 0 for missing file", d)
	}
}
