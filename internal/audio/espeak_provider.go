package audio

import (
	"context"
	"fmt"
	"os/exec"
)

// ESpeakProvider implements Provider on top of the espeak-ng command line
// tool. No API key, no network; quality is robotic but it always works.
type ESpeakProvider struct {
	config *Config
	binary string
}

// NewESpeakProvider creates an espeak-based provider.
func NewESpeakProvider(config *Config) Provider {
	binary := "espeak-ng"
	if _, err := exec.LookPath(binary); err != nil {
		binary = "espeak"
	}
	return &ESpeakProvider{config: config, binary: binary}
}

// Synthesize generates audio using espeak. Output is always WAV regardless
// of the configured format; espeak cannot encode MP3.
func (p *ESpeakProvider) Synthesize(ctx context.Context, text string, outputFile string) error {
	if err := ValidateText(text); err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, p.binary, "-v", "es", "-w", outputFile, text)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("espeak failed: %w (%s)", err, string(out))
	}
	return nil
}

// Name returns the provider name.
func (p *ESpeakProvider) Name() string {
	return "espeak"
}

// IsAvailable checks that the espeak binary is installed.
func (p *ESpeakProvider) IsAvailable() error {
	if _, err := exec.LookPath(p.binary); err != nil {
		return fmt.Errorf("espeak not found in PATH")
	}
	return nil
}
