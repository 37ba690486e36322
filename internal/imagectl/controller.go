package imagectl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/example/flashvoz/internal"
	"github.com/example/flashvoz/internal/api"
	"github.com/example/flashvoz/internal/card"
	"github.com/example/flashvoz/internal/logger"
)

const (
	// MaxAttempts bounds automatic generation retries per definition slot.
	// Generation calls an expensive external resource; without a ceiling a
	// systematically failing prompt would retry forever.
	MaxAttempts = 3
	// RetryDelay separates automatic generation retries.
	RetryDelay = 5 * time.Second
)

// promptTemplate builds the generation prompt from card name, meaning and
// usage example.
const promptTemplate = `Generate a single, clear, educational illustration for the word "%s" meaning "%s". Context: "%s". Style: Photorealistic, bright, daylight. No text or labels.`

// SlotState is the lifecycle state of one definition's image slot.
type SlotState int

const (
	Unresolved SlotState = iota
	Loading
	Displayed
	Failed
)

func (s SlotState) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Loading:
		return "loading"
	case Displayed:
		return "displayed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Status is a user-visible image lifecycle status message.
type Status struct {
	Text    string
	IsError bool
}

// StatusFunc receives status messages.
type StatusFunc func(Status)

// ImageFunc receives the authoritative display URL for the active slot; ""
// means no image.
type ImageFunc func(url string)

// PathUpdateFunc propagates a persisted image path change back to the owning
// collection, keyed by (cardID, defIndex). A nil path records deletion.
type PathUpdateFunc func(cardID int, path *string, defIndex int)

// Backend is the subset of the API client the controller needs.
type Backend interface {
	GenerateImage(ctx context.Context, req api.ImageRequest) (string, error)
	DeleteImage(ctx context.Context, category, deck string, index, defIndex int) error
	UploadImage(ctx context.Context, r io.Reader, filename, category, deck string, cardIndex, defIndex int) (string, error)
	AbsoluteURL(path string) string
}

// Preloader probes whether an image URL actually loads. Used to detect
// broken or stale persisted paths before falling back to generation.
type Preloader interface {
	Preload(ctx context.Context, url string) error
}

// Controller resolves, generates, uploads and deletes the illustrative image
// of the active (card, def index) pair. Per-slot attempt counters bound
// automatic retries; per-slot request generations discard stale async
// completions; pending retry timers are cancelled on card change.
type Controller struct {
	backend      Backend
	preloader    Preloader
	onStatus     StatusFunc
	onImage      ImageFunc
	onPathUpdate PathUpdateFunc
	log          *logger.Logger

	retryDelay time.Duration
	now        func() time.Time

	mu       sync.Mutex
	category string
	deck     string
	card     *card.Card
	curDef   int
	curURL   string
	loading  bool
	attempts map[int]int
	states   map[int]SlotState
	gens     map[int]uint64
	retries  map[int]*time.Timer
}

// Option configures a Controller.
type Option func(*Controller)

// WithStatusFunc sets the status message sink.
func WithStatusFunc(fn StatusFunc) Option {
	return func(c *Controller) { c.onStatus = fn }
}

// WithImageFunc sets the display URL sink.
func WithImageFunc(fn ImageFunc) Option {
	return func(c *Controller) { c.onImage = fn }
}

// WithPathUpdateFunc sets the persisted-path propagation callback.
func WithPathUpdateFunc(fn PathUpdateFunc) Option {
	return func(c *Controller) { c.onPathUpdate = fn }
}

// WithRetryDelay overrides the automatic retry delay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Controller) { c.retryDelay = d }
}

// WithClock overrides the cache-busting clock.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController creates an image lifecycle controller.
func NewController(backend Backend, preloader Preloader, opts ...Option) *Controller {
	c := &Controller{
		backend:    backend,
		preloader:  preloader,
		log:        logger.Default().WithPrefix("imagectl"),
		retryDelay: RetryDelay,
		now:        time.Now,
		attempts:   make(map[int]int),
		states:     make(map[int]SlotState),
		gens:       make(map[int]uint64),
		retries:    make(map[int]*time.Timer),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetCard switches the controller to a new active card, resetting all
// per-slot state and cancelling every pending retry timer so a deferred
// retry can never fire against a stale slot.
func (c *Controller) SetCard(category, deck string, crd *card.Card) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for def, t := range c.retries {
		t.Stop()
		delete(c.retries, def)
	}
	for def := range c.gens {
		c.gens[def]++
	}

	c.category = category
	c.deck = deck
	c.card = crd
	c.curDef = 0
	c.curURL = ""
	c.loading = false
	c.attempts = make(map[int]int)
	c.states = make(map[int]SlotState)
}

// DisplayForIndex switches to a different definition's image slot: clears
// the current URL, marks loading, then resolves the slot (preload of the
// persisted path, falling back to generation). Blocks until the slot is
// displayed, failed, or a retry has been scheduled.
func (c *Controller) DisplayForIndex(ctx context.Context, defIndex int) {
	c.mu.Lock()
	def := c.card.Definition(defIndex)
	if def == nil {
		c.mu.Unlock()
		return
	}
	if t, ok := c.retries[defIndex]; ok {
		t.Stop()
		delete(c.retries, defIndex)
	}
	c.gens[defIndex]++
	gen := c.gens[defIndex]
	c.curDef = defIndex
	c.curURL = ""
	c.loading = true
	c.states[defIndex] = Loading
	imagePath := def.ImagePath
	c.mu.Unlock()

	c.publishImage("")

	if imagePath != nil {
		url := internal.CacheBust(*imagePath, c.now())
		if err := c.preloader.Preload(ctx, c.backend.AbsoluteURL(url)); err == nil {
			c.mu.Lock()
			if c.gens[defIndex] != gen {
				c.mu.Unlock()
				return
			}
			c.curURL = c.backend.AbsoluteURL(url)
			c.loading = false
			c.states[defIndex] = Displayed
			cur := c.curURL
			c.mu.Unlock()
			c.publishImage(cur)
			return
		}
		c.log.Warn("stored image for def %d failed to load, generating a new one", defIndex)
	}

	c.generate(ctx, defIndex, gen)
}

// Generate requests (re)generation for a definition slot, honoring the
// attempt ceiling. Exposed for the explicit "regenerate" user action, which
// goes through a fresh generation number.
func (c *Controller) Generate(ctx context.Context, defIndex int) {
	c.mu.Lock()
	if c.card == nil || c.card.Definition(defIndex) == nil {
		c.mu.Unlock()
		return
	}
	if t, ok := c.retries[defIndex]; ok {
		t.Stop()
		delete(c.retries, defIndex)
	}
	c.gens[defIndex]++
	gen := c.gens[defIndex]
	c.curDef = defIndex
	c.mu.Unlock()

	c.generate(ctx, defIndex, gen)
}

// generate is one generation attempt for a slot. Failures either schedule a
// delayed retry (attempts remaining, error not terminal) or end the slot in
// Failed. Completions whose generation number is stale are discarded.
func (c *Controller) generate(ctx context.Context, defIndex int, gen uint64) {
	c.mu.Lock()
	if c.card == nil || c.category == "" {
		c.mu.Unlock()
		return
	}
	def := c.card.Definition(defIndex)
	if def == nil {
		c.mu.Unlock()
		return
	}
	if c.gens[defIndex] != gen {
		c.mu.Unlock()
		return
	}
	if c.attempts[defIndex] >= MaxAttempts {
		c.loading = false
		c.states[defIndex] = Failed
		c.mu.Unlock()
		c.status(fmt.Sprintf("All attempts failed for image def %d", defIndex+1), true)
		return
	}
	c.attempts[defIndex]++
	c.loading = true
	c.states[defIndex] = Loading
	req := api.ImageRequest{
		Category:        c.category,
		Deck:            c.deck,
		Index:           c.card.ID,
		DefIndex:        defIndex,
		Prompt:          fmt.Sprintf(promptTemplate, c.card.Name, def.Meaning, def.UsageExample),
		ForceGeneration: c.card.ForceGeneration,
	}
	cardID := c.card.ID
	exhausted := c.attempts[defIndex] >= MaxAttempts
	c.mu.Unlock()

	c.status(fmt.Sprintf("Loading image (Def %d)...", defIndex+1), false)

	path, err := c.backend.GenerateImage(ctx, req)
	if err != nil {
		c.handleGenerateError(ctx, defIndex, gen, err, exhausted)
		return
	}

	c.mu.Lock()
	if c.gens[defIndex] != gen {
		c.mu.Unlock()
		return
	}
	c.states[defIndex] = Displayed
	// The persisted path is recorded either way, but only the active slot
	// owns the display.
	active := c.curDef == defIndex
	cur := ""
	if active {
		c.curURL = c.backend.AbsoluteURL(internal.CacheBust(path, c.now()))
		c.loading = false
		cur = c.curURL
	}
	c.mu.Unlock()

	c.pathUpdate(cardID, &path, defIndex)
	if active {
		c.publishImage(cur)
		c.status(fmt.Sprintf("Image (Def %d) ready!", defIndex+1), false)
	}
}

func (c *Controller) handleGenerateError(ctx context.Context, defIndex int, gen uint64, err error, exhausted bool) {
	c.mu.Lock()
	if c.gens[defIndex] != gen {
		c.mu.Unlock()
		return
	}

	if errors.Is(err, api.ErrGenerationDisabled) {
		// Terminal by decree of the backend; not an error condition.
		c.loading = false
		c.states[defIndex] = Failed
		c.mu.Unlock()
		c.status(err.Error(), false)
		return
	}

	if exhausted {
		c.loading = false
		c.states[defIndex] = Failed
		c.mu.Unlock()
		c.status(fmt.Sprintf("Failed to load image: %s", api.Reason(err)), true)
		return
	}

	c.states[defIndex] = Failed
	c.retries[defIndex] = time.AfterFunc(c.retryDelay, func() {
		c.mu.Lock()
		delete(c.retries, defIndex)
		c.mu.Unlock()
		c.generate(context.WithoutCancel(ctx), defIndex, gen)
	})
	c.mu.Unlock()
	c.log.Warn("image generation for def %d failed, retrying in %v: %v", defIndex, c.retryDelay, err)
}

// DeleteCurrent removes the active slot's image. Requires an image either
// displayed or mid-load; otherwise it issues no network call and reports an
// informational message. Delete is never auto-retried.
func (c *Controller) DeleteCurrent(ctx context.Context) {
	c.mu.Lock()
	if c.card == nil || c.card.Definition(c.curDef) == nil || c.category == "" || c.deck == "" {
		c.mu.Unlock()
		c.status("Cannot delete image: incomplete card data", true)
		return
	}
	if c.curURL == "" && !c.loading {
		c.mu.Unlock()
		c.status("No image to delete", false)
		return
	}
	defIndex := c.curDef
	cardID := c.card.ID
	category, deck := c.category, c.deck
	c.gens[defIndex]++
	c.loading = true
	c.mu.Unlock()

	c.status("Deleting image...", false)

	err := c.backend.DeleteImage(ctx, category, deck, cardID, defIndex)

	c.mu.Lock()
	c.loading = false
	if err != nil {
		c.mu.Unlock()
		c.status(fmt.Sprintf("Error: %s", api.Reason(err)), true)
		return
	}
	c.curURL = ""
	c.states[defIndex] = Unresolved
	c.mu.Unlock()

	c.pathUpdate(cardID, nil, defIndex)
	c.publishImage("")
	c.status("Image deleted.", false)
}

// Upload sends a user-chosen image for the active slot. Not auto-retried; a
// failed upload requires explicit user re-action.
func (c *Controller) Upload(ctx context.Context, r io.Reader, filename string) {
	c.mu.Lock()
	if r == nil || c.card == nil || c.category == "" || c.deck == "" {
		c.mu.Unlock()
		c.status("Cannot upload image: incomplete card data", true)
		return
	}
	defIndex := c.curDef
	cardID := c.card.ID
	category, deck := c.category, c.deck
	c.gens[defIndex]++
	c.curURL = ""
	c.loading = true
	c.states[defIndex] = Loading
	c.mu.Unlock()

	c.publishImage("")
	c.status("Uploading image...", false)

	path, err := c.backend.UploadImage(ctx, r, filename, category, deck, cardID, defIndex)

	c.mu.Lock()
	c.loading = false
	if err != nil {
		c.curURL = ""
		c.states[defIndex] = Failed
		c.mu.Unlock()
		c.publishImage("")
		c.status(fmt.Sprintf("Upload failed: %s", api.Reason(err)), true)
		return
	}
	c.curURL = c.backend.AbsoluteURL(internal.CacheBust(path, c.now()))
	c.states[defIndex] = Displayed
	cur := c.curURL
	c.mu.Unlock()

	c.pathUpdate(cardID, &path, defIndex)
	c.publishImage(cur)
	c.status("Image uploaded and saved.", false)
}

// CurrentURL returns the authoritative display URL of the active slot.
func (c *Controller) CurrentURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.curURL
}

// CurrentDefIndex returns the active definition slot.
func (c *Controller) CurrentDefIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.curDef
}

// IsLoading reports whether the active slot is mid-load.
func (c *Controller) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// State returns the lifecycle state of a definition slot.
func (c *Controller) State(defIndex int) SlotState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[defIndex]
}

// Attempts returns the attempt count of a definition slot.
func (c *Controller) Attempts(defIndex int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts[defIndex]
}

func (c *Controller) status(text string, isError bool) {
	if c.onStatus != nil {
		c.onStatus(Status{Text: text, IsError: isError})
	}
}

func (c *Controller) publishImage(url string) {
	if c.onImage != nil {
		c.onImage(url)
	}
}

func (c *Controller) pathUpdate(cardID int, path *string, defIndex int) {
	if c.onPathUpdate != nil {
		c.onPathUpdate(cardID, path, defIndex)
	}
}
