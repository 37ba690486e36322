package playback

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/example/flashvoz/internal/api"
	"github.com/example/flashvoz/internal/logger"
)

const (
	// MaxAttempts bounds how often a failed synthesis request is retried.
	MaxAttempts = 3
	// RetryDelay separates consecutive synthesis attempts.
	RetryDelay = 5 * time.Second
	// SyncOffset biases the highlight forward to compensate for the lag
	// between audio onset and the visual cue. Tunable, not content-derived.
	SyncOffset = 0.15
	// ModelName is the TTS model requested from the backend.
	ModelName = "gemini-2.5-pro-tts"
	// PhonicsDeck is the reserved deck identifier whose utterances have no
	// owning card; each example string is its own synthesis unit.
	PhonicsDeck = "phonics"
)

// VoicePool holds the voices one is picked from at random on every Speak
// call. Intentional variety, not a stable per-card assignment.
var VoicePool = []string{"Aoede", "Zephyr", "Charon", "Callirrhoe", "Iapetus", "Achernar", "Gacrux"}

// Status is a user-visible playback status message.
type Status struct {
	Text    string
	IsError bool
}

// StatusFunc receives status messages. Never called concurrently with itself.
type StatusFunc func(Status)

// HighlightFunc receives the active utterance text and the index of the word
// to highlight, -1 meaning none.
type HighlightFunc func(text string, wordIndex int)

// Synthesizer obtains a playable audio location for a speech request.
// *api.Client implements it.
type Synthesizer interface {
	SynthesizeSpeech(ctx context.Context, req api.SpeechRequest) (string, error)
}

// Events carries the callbacks a Player drives during playback. Position and
// duration are in seconds; duration may be 0 or NaN when unknown.
type Events struct {
	OnProgress func(position, duration float64)
	OnEnd      func()
}

// Player plays one audio location at a time. Play starts playback
// asynchronously and returns once it is underway; Stop tears down any
// current playback and releases its resources.
type Player interface {
	Play(ctx context.Context, location string, events Events) error
	Stop()
}

// SpeakContext identifies the card context an utterance belongs to.
type SpeakContext struct {
	Category string
	Deck     string
	Tone     string
	Subject  string
}

// Controller turns text snippets into synthesized speech with word-level
// highlight progression. It enforces single-flight semantics: at most one
// utterance plays at a time, and a new Speak call tears the previous session
// down before its own request goes out.
type Controller struct {
	synth       Synthesizer
	player      Player
	onStatus    StatusFunc
	onHighlight HighlightFunc
	log         *logger.Logger

	// test seams
	sleep     func(ctx context.Context, d time.Duration) error
	pickVoice func() string

	mu         sync.Mutex
	generation uint64
	session    *session
	generating bool
	playing    bool
}

// session is the ephemeral state of one synthesis-and-playback cycle.
type session struct {
	text        string
	words       []string
	highlighted int
	gen         uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithStatusFunc sets the status message sink.
func WithStatusFunc(fn StatusFunc) Option {
	return func(c *Controller) { c.onStatus = fn }
}

// WithHighlightFunc sets the word highlight sink.
func WithHighlightFunc(fn HighlightFunc) Option {
	return func(c *Controller) { c.onHighlight = fn }
}

// WithRetrySleep overrides how the controller waits between attempts.
func WithRetrySleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Controller) { c.sleep = fn }
}

// WithVoicePicker overrides the random voice selection.
func WithVoicePicker(fn func() string) Option {
	return func(c *Controller) { c.pickVoice = fn }
}

// NewController creates a playback controller on top of a synthesizer and a
// player.
func NewController(synth Synthesizer, player Player, opts ...Option) *Controller {
	c := &Controller{
		synth:  synth,
		player: player,
		log:    logger.Default().WithPrefix("playback"),
		sleep: func(ctx context.Context, d time.Duration) error {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
				return nil
			}
		},
		pickVoice: func() string {
			return VoicePool[rand.Intn(len(VoicePool))]
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Speak synthesizes and plays the given text. It blocks until playback has
// started or every retry attempt is exhausted; highlight progression and the
// completion status arrive asynchronously through the configured callbacks.
// Failures never surface as an error: they end as a terminal status message
// with all transient playback state cleared. Empty text or a missing
// category makes the call a no-op.
func (c *Controller) Speak(ctx context.Context, text string, sc SpeakContext) {
	if text == "" || sc.Category == "" {
		return
	}

	subject := sc.Subject
	if sc.Deck == PhonicsDeck {
		subject = text
	}

	c.mu.Lock()
	// Tear down any prior session before the new request begins. Callers
	// must not assume the previous audio resource stays valid past here.
	c.player.Stop()
	c.generation++
	gen := c.generation
	c.session = &session{
		text:        text,
		words:       strings.Fields(text),
		highlighted: -1,
		gen:         gen,
	}
	c.generating = true
	c.playing = true
	c.mu.Unlock()

	c.publishHighlight(text, -1)

	req := api.SpeechRequest{
		Category:  sc.Category,
		Deck:      sc.Deck,
		Text:      text,
		VoiceName: c.pickVoice(),
		ModelName: ModelName,
		Tone:      normalizeTone(sc.Tone),
		VerbName:  subject,
	}

	location, err := c.synthesizeWithRetry(ctx, gen, req)
	c.setGenerating(false)
	if err != nil {
		c.failSession(gen, err)
		return
	}
	if c.stale(gen) {
		// A newer Speak call superseded this one mid-flight.
		return
	}

	events := Events{
		OnProgress: func(position, duration float64) {
			c.onTick(gen, position, duration)
		},
		OnEnd: func() {
			c.onEnd(gen)
		},
	}
	if err := c.player.Play(ctx, location, events); err != nil {
		c.failSession(gen, err)
		return
	}
	c.status("Playing...", false)
}

// synthesizeWithRetry drives the bounded retry loop around the synthesis
// request. Only the last attempt's error is returned; intermediate failures
// become retry status messages.
func (c *Controller) synthesizeWithRetry(ctx context.Context, gen uint64, req api.SpeechRequest) (string, error) {
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if c.stale(gen) {
			return "", context.Canceled
		}
		c.status(fmt.Sprintf("Generating audio... (%d/%d)", attempt, MaxAttempts), false)

		location, err := c.synth.SynthesizeSpeech(ctx, req)
		if err == nil {
			return location, nil
		}
		c.log.Warn("synthesis attempt %d/%d failed: %v", attempt, MaxAttempts, err)
		if attempt == MaxAttempts {
			return "", err
		}
		c.status(fmt.Sprintf("Retrying audio... (%d/%d)", attempt, MaxAttempts), true)
		if err := c.sleep(ctx, RetryDelay); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("could not generate audio")
}

// onTick recomputes the highlighted word from the playback position. Called
// on every player progress event; publishes only when the index changed.
func (c *Controller) onTick(gen uint64, position, duration float64) {
	c.mu.Lock()
	if c.session == nil || c.session.gen != gen {
		c.mu.Unlock()
		return
	}
	idx := HighlightIndex(position, duration, len(c.session.words))
	if idx < 0 || idx == c.session.highlighted {
		c.mu.Unlock()
		return
	}
	c.session.highlighted = idx
	text := c.session.text
	c.mu.Unlock()

	c.publishHighlight(text, idx)
}

// onEnd handles natural playback completion.
func (c *Controller) onEnd(gen uint64) {
	c.mu.Lock()
	if c.session == nil || c.session.gen != gen {
		c.mu.Unlock()
		return
	}
	text := c.session.text
	c.session = nil
	c.playing = false
	c.mu.Unlock()

	c.publishHighlight(text, -1)
	c.status("Audio finished.", false)
}

// failSession reports a terminal failure and clears all transient state.
func (c *Controller) failSession(gen uint64, err error) {
	c.mu.Lock()
	if c.session == nil || c.session.gen != gen {
		c.mu.Unlock()
		return
	}
	text := c.session.text
	c.session = nil
	c.playing = false
	c.generating = false
	c.mu.Unlock()

	c.publishHighlight(text, -1)
	c.status(fmt.Sprintf("Error: %s", api.Reason(err)), true)
}

// Stop tears down the current session, if any.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.generation++
	text := ""
	if c.session != nil {
		text = c.session.text
	}
	c.session = nil
	c.playing = false
	c.generating = false
	c.mu.Unlock()

	c.player.Stop()
	if text != "" {
		c.publishHighlight(text, -1)
	}
}

// IsPlaying reports whether an utterance is currently live.
func (c *Controller) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// IsGenerating reports whether a synthesis request is in flight.
func (c *Controller) IsGenerating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generating
}

// ActiveText returns the text of the live utterance, or "".
func (c *Controller) ActiveText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.text
}

func (c *Controller) stale(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation != gen
}

func (c *Controller) setGenerating(v bool) {
	c.mu.Lock()
	c.generating = v
	c.mu.Unlock()
}

func (c *Controller) status(text string, isError bool) {
	if c.onStatus != nil {
		c.onStatus(Status{Text: text, IsError: isError})
	}
}

func (c *Controller) publishHighlight(text string, idx int) {
	if c.onHighlight != nil {
		c.onHighlight(text, idx)
	}
}

// HighlightIndex maps a playback position to the word index to highlight for
// an utterance of wordCount whitespace-separated words. Returns -1 when the
// duration is unknown or non-finite, meaning: keep the previous highlight.
func HighlightIndex(position, duration float64, wordCount int) int {
	if wordCount <= 0 || duration <= 0 || math.IsInf(duration, 0) || math.IsNaN(duration) {
		return -1
	}
	timePerWord := duration / float64(wordCount)
	idx := int(math.Floor((position + SyncOffset) / timePerWord))
	if idx < 0 {
		idx = 0
	}
	if idx > wordCount-1 {
		idx = wordCount - 1
	}
	return idx
}

// normalizeTone trims whitespace and a trailing colon off a tone label, so
// "Formal: " and "Formal" send the same value.
func normalizeTone(tone string) string {
	return strings.TrimSuffix(strings.TrimSpace(tone), ":")
}
