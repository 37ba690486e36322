package playback

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/example/flashvoz/internal/logger"
)

const progressInterval = 100 * time.Millisecond

// ExecPlayer plays audio by shelling out to a platform audio command
// (mpg123, ffplay, afplay, ...). Remote locations are downloaded to a temp
// file first. Progress events carry wall-clock elapsed time; the duration is
// probed with ffprobe and reported as 0 when that is unavailable, in which
// case highlight progression is skipped by the controller.
type ExecPlayer struct {
	// Command overrides the platform player lookup, e.g. "mpg123".
	Command string

	httpClient *http.Client
	log        *logger.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	stopped bool
	cleanup func()
}

// NewExecPlayer creates an ExecPlayer.
func NewExecPlayer() *ExecPlayer {
	return &ExecPlayer{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		log:        logger.Default().WithPrefix("player"),
	}
}

// Play starts playback of the given location (http(s) URL or local file
// path) and drives the event callbacks until the process exits.
func (p *ExecPlayer) Play(ctx context.Context, location string, events Events) error {
	file := location
	cleanup := func() {}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		local, err := p.download(ctx, location)
		if err != nil {
			return err
		}
		file = local
		cleanup = func() { os.Remove(local) }
	}

	duration := probeDuration(file)

	cmd, err := playbackCommand(p.Command, file)
	if err != nil {
		cleanup()
		return err
	}
	if err := cmd.Start(); err != nil {
		cleanup()
		return fmt.Errorf("failed to start audio player: %w", err)
	}

	p.mu.Lock()
	p.cmd = cmd
	p.stopped = false
	p.cleanup = cleanup
	p.mu.Unlock()

	go p.supervise(cmd, duration, events)
	return nil
}

// supervise emits progress ticks while the player process runs and fires
// OnEnd on natural completion. A Stop'ed process ends without OnEnd.
func (p *ExecPlayer) supervise(cmd *exec.Cmd, duration float64, events Events) {
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	start := time.Now()
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if events.OnProgress != nil {
				events.OnProgress(time.Since(start).Seconds(), duration)
			}
		case err := <-done:
			p.mu.Lock()
			stopped := p.stopped
			if p.cmd == cmd {
				p.cmd = nil
			}
			cleanup := p.cleanup
			p.cleanup = nil
			p.mu.Unlock()

			if cleanup != nil {
				cleanup()
			}
			if !stopped {
				if err != nil {
					p.log.Warn("audio player exited: %v", err)
				}
				if events.OnEnd != nil {
					events.OnEnd()
				}
			}
			return
		}
	}
}

// Stop kills any current playback process and releases its audio resource.
func (p *ExecPlayer) Stop() {
	p.mu.Lock()
	cmd := p.cmd
	p.stopped = true
	p.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		cmd.Process.Kill()
	}
}

// download fetches a remote audio URL into a temp file.
func (p *ExecPlayer) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create download request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("audio download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("audio download failed with status %d", resp.StatusCode)
	}

	f, err := os.CreateTemp("", "flashvoz_audio_*.mp3")
	if err != nil {
		return "", fmt.Errorf("failed to create temp audio file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write audio file: %w", err)
	}
	return f.Name(), nil
}

// probeDuration asks ffprobe for the audio duration in seconds, returning 0
// when ffprobe is missing or fails.
func probeDuration(file string) float64 {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return 0
	}
	out, err := exec.Command("ffprobe", "-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1", file).Output()
	if err != nil {
		return 0
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0
	}
	return d
}

// playbackCommand builds the platform audio player command for a file.
func playbackCommand(override, file string) (*exec.Cmd, error) {
	if override != "" {
		return exec.Command(override, file), nil
	}

	switch runtime.GOOS {
	case "darwin":
		return exec.Command("afplay", file), nil
	case "linux":
		// mpg123 first since it handles MP3 files best.
		if _, err := exec.LookPath("mpg123"); err == nil {
			return exec.Command("mpg123", "-q", file), nil
		}
		if _, err := exec.LookPath("ffplay"); err == nil {
			return exec.Command("ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", file), nil
		}
		if _, err := exec.LookPath("play"); err == nil {
			return exec.Command("play", "-q", file), nil
		}
		if _, err := exec.LookPath("paplay"); err == nil {
			return exec.Command("paplay", file), nil
		}
		if _, err := exec.LookPath("aplay"); err == nil {
			return exec.Command("aplay", "-q", file), nil
		}
		return nil, fmt.Errorf("no audio player found. Install mpg123, ffplay, sox, paplay, or aplay")
	case "windows":
		return exec.Command("cmd", "/c", "start", "/min", file), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}
