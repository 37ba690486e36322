package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/example/flashvoz/internal"
	"github.com/example/flashvoz/internal/api"
	"github.com/example/flashvoz/internal/logger"
)

// DirectSynthesizer produces speech audio locally instead of asking the
// backend. It satisfies the same interface the playback controller uses for
// the backend client, so the rest of the app does not care which mode is
// active. The request's voice and model fields are ignored; the configured
// provider decides those.
type DirectSynthesizer struct {
	provider Provider
	dir      string
	log      *logger.Logger
}

// NewDirectSynthesizer wraps a provider. Audio files are written to dir,
// or the system temp directory when dir is empty.
func NewDirectSynthesizer(provider Provider, dir string) *DirectSynthesizer {
	if dir == "" {
		dir = os.TempDir()
	}
	return &DirectSynthesizer{
		provider: provider,
		dir:      dir,
		log:      logger.Default().WithPrefix("audio"),
	}
}

// SynthesizeSpeech generates audio for req.Text and returns the path of the
// resulting file.
func (d *DirectSynthesizer) SynthesizeSpeech(ctx context.Context, req api.SpeechRequest) (string, error) {
	// Tone instructions are a backend feature; local providers speak the
	// text as-is so the audio matches the highlighted words.
	text := req.Text
	if err := ValidateText(text); err != nil {
		return "", err
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating audio directory: %w", err)
	}

	ext := "mp3"
	if _, ok := d.provider.(*ESpeakProvider); ok {
		ext = "wav"
	}
	outputFile := filepath.Join(d.dir, fmt.Sprintf("speech_%s.%s", internal.TempFileID(text), ext))

	d.log.Debug("synthesizing locally via %s: %q", d.provider.Name(), req.Text)
	if err := d.provider.Synthesize(ctx, text, outputFile); err != nil {
		return "", fmt.Errorf("direct synthesis failed: %w", err)
	}
	return outputFile, nil
}
