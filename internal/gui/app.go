package gui

import (
	"context"
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	fynetooltip "github.com/dweymouth/fyne-tooltip"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"

	"github.com/example/flashvoz/internal"
	"github.com/example/flashvoz/internal/api"
	"github.com/example/flashvoz/internal/card"
	"github.com/example/flashvoz/internal/imagectl"
	"github.com/example/flashvoz/internal/logger"
	"github.com/example/flashvoz/internal/phonics"
	"github.com/example/flashvoz/internal/playback"
	"github.com/example/flashvoz/internal/prefs"
)

// Application represents the main GUI application
type Application struct {
	// Fyne components
	app    fyne.App
	window fyne.Window

	// Domain components
	client   *api.Client
	cards    *card.Collection
	speech   *playback.Controller
	images   *imagectl.Controller
	store    *prefs.Store
	phonics  *phonics.Fetcher
	autoPlay bool
	tone     string

	// UI elements
	categorySelect *widget.Select
	deckSelect     *widget.Select
	cardView       *CardView
	imageDisplay   *ImageDisplay
	statusLabel    *widget.Label
	imageStatus    *widget.Label
	logViewer      *LogViewer

	// Navigation buttons
	prevBtn    *ttwidget.Button
	nextBtn    *ttwidget.Button
	flipBtn    *ttwidget.Button
	speakBtn   *ttwidget.Button
	learnedBtn *ttwidget.Button

	// Image action buttons
	regenImageBtn  *ttwidget.Button
	deleteImageBtn *ttwidget.Button
	uploadImageBtn *ttwidget.Button

	// State management
	category    string
	deck        string
	defIndex    int
	showingBack bool

	log *logger.Logger

	// Background processing
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// Config holds GUI application configuration
type Config struct {
	APIURL      string
	Category    string
	Deck        string
	Tone        string
	AutoPlay    bool
	StateDir    string
	AudioPlayer string

	// Synthesizer overrides the backend synthesizer, used for direct mode.
	Synthesizer playback.Synthesizer
}

// New creates a new GUI application
func New(config *Config) *Application {
	ctx, cancel := context.WithCancel(context.Background())

	myApp := app.NewWithID("com.github.example.flashvoz")

	client := api.New(config.APIURL)

	a := &Application{
		app:      myApp,
		client:   client,
		cards:    card.NewCollection(),
		phonics:  phonics.NewFetcher(client),
		autoPlay: config.AutoPlay,
		tone:     config.Tone,
		category: config.Category,
		deck:     config.Deck,
		log:      logger.Default().WithPrefix("gui"),
		ctx:      ctx,
		cancel:   cancel,
	}

	synth := playback.Synthesizer(client)
	if config.Synthesizer != nil {
		synth = config.Synthesizer
	}
	player := playback.NewExecPlayer()
	player.Command = config.AudioPlayer
	a.speech = playback.NewController(synth, player,
		playback.WithStatusFunc(a.onSpeechStatus),
		playback.WithHighlightFunc(a.onHighlight),
	)

	a.images = imagectl.NewController(client, imagectl.NewHTTPPreloader(),
		imagectl.WithStatusFunc(a.onImageStatus),
		imagectl.WithImageFunc(a.onImageURL),
		imagectl.WithPathUpdateFunc(a.onImagePathUpdate),
	)

	statePath := config.StateDir
	if statePath == "" {
		if p, err := prefs.DefaultPath(); err == nil {
			statePath = p
		}
	} else {
		statePath = statePath + "/prefs.db"
	}
	if statePath != "" {
		store, err := prefs.Open(statePath)
		if err != nil {
			a.log.Warn("preferences unavailable: %v", err)
		} else {
			a.store = store
		}
	}

	a.setupUI()

	return a
}

// setupUI creates the main user interface
func (a *Application) setupUI() {
	a.window = a.app.NewWindow(fmt.Sprintf("flashvoz v%s - Spanish Flashcards", internal.Version))
	a.window.Resize(fyne.NewSize(900, 720))

	selectors := a.buildSelectors()
	toolbar := a.buildToolbar()

	a.cardView = NewCardView(a.onDefinitionChanged, a.onExampleTapped)
	a.imageDisplay = NewImageDisplay()

	cardSection := container.NewHSplit(a.cardView, a.imageDisplay)
	cardSection.SetOffset(0.55)

	a.statusLabel = widget.NewLabel("Ready")
	a.imageStatus = widget.NewLabel("")

	a.logViewer = NewLogViewer()
	a.logViewer.StartCapture()

	statusSection := container.NewVBox(
		container.NewHBox(a.statusLabel, widget.NewSeparator(), a.imageStatus),
		widget.NewSeparator(),
		a.logViewer,
	)

	content := container.NewBorder(
		container.NewVBox(
			selectors,
			toolbar,
			widget.NewSeparator(),
		),
		statusSection,
		nil, nil,
		cardSection,
	)

	a.window.SetContent(fynetooltip.AddWindowToolTipLayer(content, a.window.Canvas()))
	a.setupTooltips()
	a.setupKeyboardShortcuts()

	a.window.SetOnClosed(func() {
		a.speech.Stop()
		a.cancel()
		a.wg.Wait()
		a.logViewer.StopCapture()
		if a.store != nil {
			a.store.Close()
		}
	})
}

// Run starts the GUI application
func (a *Application) Run() {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.loadCategories()
	}()
	a.window.ShowAndRun()
}

// loadCategories fetches the category list and restores the last selection.
func (a *Application) loadCategories() {
	categories, err := a.client.Categories(a.ctx)
	if err != nil {
		a.setStatus(fmt.Sprintf("Failed to load categories: %s", api.Reason(err)), true)
		return
	}

	selected := a.category
	if selected == "" && a.store != nil {
		saved, ok := a.store.LastCategory()
		selected = prefs.PickCategory(saved, ok, categories)
	}
	if selected == "" && len(categories) > 0 {
		selected = categories[0]
	}

	fyne.Do(func() {
		a.categorySelect.Options = categories
		a.categorySelect.Refresh()
		if selected != "" {
			// Fires the selection callback, which loads the decks.
			a.categorySelect.SetSelected(selected)
		}
	})
}

// loadDecks fetches the deck list of a category and restores the last deck.
func (a *Application) loadDecks(category string) {
	decks, err := a.client.DeckNames(a.ctx, category)
	if err != nil {
		a.setStatus(fmt.Sprintf("Failed to load decks: %s", api.Reason(err)), true)
		return
	}

	selected := a.deck
	a.deck = "" // the CLI override applies only to the first load
	if selected == "" && a.store != nil {
		saved, ok := a.store.LastDeck(category)
		selected = prefs.PickDeck(saved, ok, decks)
	}
	if selected == "" && len(decks) > 0 {
		selected = decks[0]
	}

	fyne.Do(func() {
		a.deckSelect.Options = decks
		a.deckSelect.Refresh()
		if selected != "" {
			a.deckSelect.SetSelected(selected)
		} else {
			a.cards.Clear()
			a.showCurrentCard()
		}
	})
}

// loadDeck fetches a deck's cards and shows the first unlearned card.
func (a *Application) loadDeck(category, deck string) {
	a.setStatus(fmt.Sprintf("Loading deck %q...", deck), false)

	data, err := a.client.DeckData(a.ctx, category, deck)
	if err != nil {
		a.setStatus(fmt.Sprintf("Failed to load deck: %s", api.Reason(err)), true)
		return
	}
	cards, err := card.DecodeDeck(data)
	if err != nil {
		a.setStatus(fmt.Sprintf("Deck %q is malformed: %v", deck, err), true)
		return
	}

	a.cards.Load(cards)
	a.setStatus(fmt.Sprintf("Loaded %d cards (%d to learn)", a.cards.Len(), a.cards.UnlearnedLen()), false)

	if a.store != nil {
		a.store.SetLastCategory(category)
		a.store.SetLastDeck(category, deck)
	}

	fyne.Do(a.showCurrentCard)
}

// showCurrentCard renders the card under the cursor. Must run on the UI
// thread.
func (a *Application) showCurrentCard() {
	crd := a.cards.Current()

	a.mu.Lock()
	a.defIndex = 0
	a.showingBack = false
	category, deck := a.category, a.deckSelected()
	a.mu.Unlock()

	a.images.SetCard(category, deck, crd)
	a.cardView.SetCard(crd)
	a.imageDisplay.Clear()

	if crd == nil {
		if a.cards.Len() > 0 {
			a.setStatusUI("All cards learned. Reset the deck to start over.", false)
		}
		a.updateButtons()
		return
	}
	a.updateButtons()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.images.DisplayForIndex(a.ctx, 0)
	}()

	if a.autoPlay {
		a.speakCurrent()
	}
}

// speakCurrent speaks the text of the current card side.
func (a *Application) speakCurrent() {
	crd := a.cards.Current()
	if crd == nil {
		return
	}

	a.mu.Lock()
	text := a.cardView.SpeakableText()
	category, deck := a.category, a.deckSelected()
	tone := a.tone
	a.mu.Unlock()

	a.speak(text, playback.SpeakContext{
		Category: category,
		Deck:     deck,
		Tone:     tone,
		Subject:  crd.Name,
	})
}

// speak runs a playback session in the background.
func (a *Application) speak(text string, sc playback.SpeakContext) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.speech.Speak(a.ctx, text, sc)
	}()
}

// deckSelected returns the name of the currently selected deck.
func (a *Application) deckSelected() string {
	if a.deckSelect == nil {
		return ""
	}
	return a.deckSelect.Selected
}

// onDefinitionChanged is called by the card view when the visible definition
// changes on the back side.
func (a *Application) onDefinitionChanged(defIndex int) {
	a.mu.Lock()
	a.defIndex = defIndex
	a.mu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.images.DisplayForIndex(a.ctx, defIndex)
	}()
}

// onExampleTapped speaks a tapped example sentence.
func (a *Application) onExampleTapped(text string) {
	crd := a.cards.Current()
	if crd == nil {
		return
	}
	a.mu.Lock()
	category, deck := a.category, a.deckSelected()
	tone := a.tone
	a.mu.Unlock()

	a.speak(text, playback.SpeakContext{
		Category: category,
		Deck:     deck,
		Tone:     tone,
		Subject:  crd.Name,
	})
}

// Callbacks from the playback controller. They arrive on controller
// goroutines and must hop onto the UI thread.

func (a *Application) onSpeechStatus(s playback.Status) {
	fyne.Do(func() {
		a.statusLabel.SetText(s.Text)
		if s.IsError {
			a.log.Warn("playback: %s", s.Text)
		}
	})
}

func (a *Application) onHighlight(text string, wordIndex int) {
	fyne.Do(func() {
		a.cardView.Highlight(text, wordIndex)
	})
}

// Callbacks from the image controller.

func (a *Application) onImageStatus(s imagectl.Status) {
	fyne.Do(func() {
		a.imageStatus.SetText(s.Text)
		if s.IsError {
			a.log.Warn("image: %s", s.Text)
		}
	})
}

func (a *Application) onImageURL(url string) {
	fyne.Do(func() {
		a.imageDisplay.SetURL(url)
	})
}

func (a *Application) onImagePathUpdate(cardID int, path *string, defIndex int) {
	a.cards.UpdateImagePath(cardID, path, defIndex)
}

// setStatus updates the main status label from any goroutine.
func (a *Application) setStatus(text string, isError bool) {
	if isError {
		a.log.Warn("%s", text)
	}
	fyne.Do(func() {
		a.statusLabel.SetText(text)
	})
}

// setStatusUI is setStatus for callers already on the UI thread.
func (a *Application) setStatusUI(text string, isError bool) {
	if isError {
		a.log.Warn("%s", text)
	}
	a.statusLabel.SetText(text)
}

// confirmError shows an error dialog for failures the user must notice.
func (a *Application) confirmError(err error) {
	fyne.Do(func() {
		dialog.ShowError(err, a.window)
	})
}
