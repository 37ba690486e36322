package gui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/example/flashvoz/internal/card"
)

// CardView renders the front or back of the current flashcard. The front
// shows the headword and its phonetic transcription; the back pages through
// the card's definitions one at a time. Example sentences start masked and
// are revealed by tapping; a play button speaks them. During playback the
// active utterance is re-rendered with the currently spoken word emphasized.
type CardView struct {
	widget.BaseWidget

	container *fyne.Container

	nameText     *widget.RichText
	phoneticText *widget.Label
	backBox      *fyne.Container
	defCounter   *widget.Label
	prevDefBtn   *widget.Button
	nextDefBtn   *widget.Button

	onDefChanged func(defIndex int)
	onExample    func(text string)

	card        *card.Card
	defIndex    int
	showingBack bool

	// active utterance highlight
	activeText  string
	activeWord  int
	exampleRows map[string]*widget.RichText

	// hiddenExamples masks example sentences per definition until tapped,
	// so the learner can try recalling the sentence from audio first.
	hiddenExamples map[int]bool
}

// NewCardView creates a card view. onDefChanged fires when the visible
// definition changes; onExample fires when an example sentence is tapped.
func NewCardView(onDefChanged func(int), onExample func(string)) *CardView {
	v := &CardView{
		onDefChanged:   onDefChanged,
		onExample:      onExample,
		activeWord:     -1,
		exampleRows:    map[string]*widget.RichText{},
		hiddenExamples: map[int]bool{},
	}

	v.nameText = widget.NewRichText()
	v.phoneticText = widget.NewLabel("")
	v.phoneticText.Alignment = fyne.TextAlignCenter
	v.phoneticText.TextStyle = fyne.TextStyle{Italic: true}

	v.defCounter = widget.NewLabel("")
	v.prevDefBtn = widget.NewButtonWithIcon("", theme.NavigateBackIcon(), func() { v.stepDefinition(-1) })
	v.nextDefBtn = widget.NewButtonWithIcon("", theme.NavigateNextIcon(), func() { v.stepDefinition(1) })

	v.backBox = container.NewVBox()

	v.container = container.NewVBox()
	v.ExtendBaseWidget(v)
	v.render()
	return v
}

// CreateRenderer implements fyne.Widget
func (v *CardView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewScroll(v.container))
}

// SetCard switches to a new card, showing its front with every example
// masked again.
func (v *CardView) SetCard(c *card.Card) {
	v.card = c
	v.defIndex = 0
	v.showingBack = false
	v.activeText = ""
	v.activeWord = -1
	v.hiddenExamples = map[int]bool{}
	if c != nil {
		for i := range c.Definitions {
			v.hiddenExamples[i] = true
		}
	}
	v.render()
}

// Flip toggles between front and back.
func (v *CardView) Flip() {
	if v.card == nil {
		return
	}
	v.showingBack = !v.showingBack
	v.render()
}

// ShowingBack reports whether the back side is visible.
func (v *CardView) ShowingBack() bool { return v.showingBack }

// DefIndex returns the index of the visible definition.
func (v *CardView) DefIndex() int { return v.defIndex }

// SpeakableText returns the text playback should speak for the visible side:
// the headword on the front, the usage example on the back.
func (v *CardView) SpeakableText() string {
	if v.card == nil {
		return ""
	}
	if !v.showingBack {
		return v.card.Name
	}
	if def := v.card.Definition(v.defIndex); def != nil && def.UsageExample != "" {
		return def.UsageExample
	}
	return v.card.Name
}

// Highlight re-renders the given utterance with the word at wordIndex
// emphasized, -1 clearing any emphasis.
func (v *CardView) Highlight(text string, wordIndex int) {
	v.activeText = text
	v.activeWord = wordIndex
	if v.card != nil && text == v.card.Name {
		v.renderName()
		return
	}
	if row, ok := v.exampleRows[text]; ok {
		setHighlightedText(row, text, wordIndex)
	}
}

func (v *CardView) stepDefinition(delta int) {
	if v.card == nil || len(v.card.Definitions) == 0 {
		return
	}
	n := len(v.card.Definitions)
	v.defIndex = (v.defIndex + delta + n) % n
	v.render()
	if v.onDefChanged != nil {
		v.onDefChanged(v.defIndex)
	}
}

func (v *CardView) render() {
	v.container.Objects = nil
	v.exampleRows = map[string]*widget.RichText{}

	if v.card == nil {
		empty := widget.NewLabel("No cards to study")
		empty.Alignment = fyne.TextAlignCenter
		v.container.Add(empty)
		v.container.Refresh()
		return
	}

	v.renderName()
	v.phoneticText.SetText(v.card.Phonetic)
	v.container.Add(v.nameText)
	v.container.Add(v.phoneticText)

	if v.showingBack {
		v.renderBack()
	} else {
		hint := widget.NewLabel("Press space or tap Flip to reveal")
		hint.Alignment = fyne.TextAlignCenter
		v.container.Add(hint)
	}
	v.container.Refresh()
}

func (v *CardView) renderName() {
	word := -1
	if v.card != nil && v.activeText == v.card.Name {
		word = v.activeWord
	}
	setHighlightedText(v.nameText, v.card.Name, word)
}

func (v *CardView) renderBack() {
	def := v.card.Definition(v.defIndex)
	if def == nil {
		v.container.Add(widget.NewLabel("This card has no definitions."))
		return
	}

	v.defCounter.SetText(fmt.Sprintf("Definition %d of %d", v.defIndex+1, len(v.card.Definitions)))
	nav := container.NewHBox(v.prevDefBtn, v.defCounter, v.nextDefBtn)
	v.container.Add(container.NewCenter(nav))

	meaning := widget.NewLabel(def.Meaning)
	meaning.Wrapping = fyne.TextWrapWord
	meaning.TextStyle = fyne.TextStyle{Bold: true}
	v.container.Add(meaning)

	if def.UsageExample != "" {
		v.container.Add(v.exampleRow(def.UsageExample))
		if def.TranslatedExample != "" {
			tr := widget.NewLabel(def.TranslatedExample)
			tr.Wrapping = fyne.TextWrapWord
			tr.TextStyle = fyne.TextStyle{Italic: true}
			v.container.Add(tr)
		}
	}
	if def.AlternativeExample != "" {
		v.container.Add(v.exampleRow(def.AlternativeExample))
	}
	if def.PronunciationGuide != "" && !v.hiddenExamples[v.defIndex] {
		guide := widget.NewLabel("Pronunciation: " + def.PronunciationGuide)
		guide.Wrapping = fyne.TextWrapWord
		v.container.Add(guide)
	}
}

// exampleRow builds an example sentence with a speak button. While the
// definition's examples are masked, the words show as bullets and tapping
// the text reveals them; tapping again masks them. The speak button works
// either way.
func (v *CardView) exampleRow(text string) fyne.CanvasObject {
	speak := widget.NewButtonWithIcon("", theme.MediaPlayIcon(), func() {
		if v.onExample != nil {
			v.onExample(text)
		}
	})

	def := v.defIndex
	if v.hiddenExamples[def] {
		masked := widget.NewLabel(maskWords(text))
		masked.Wrapping = fyne.TextWrapWord
		return container.NewBorder(nil, nil, nil, speak,
			newTappableText(masked, func() { v.toggleExample(def) }))
	}

	rich := widget.NewRichText()
	word := -1
	if text == v.activeText {
		word = v.activeWord
	}
	setHighlightedText(rich, text, word)
	v.exampleRows[text] = rich
	return container.NewBorder(nil, nil, nil, speak,
		newTappableText(rich, func() { v.toggleExample(def) }))
}

func (v *CardView) toggleExample(defIndex int) {
	v.hiddenExamples[defIndex] = !v.hiddenExamples[defIndex]
	v.render()
}

// maskWords replaces each word with bullets of the same length, keeping the
// sentence shape readable without giving the words away.
func maskWords(text string) string {
	words := strings.Fields(text)
	masked := make([]string, len(words))
	for i, w := range words {
		masked[i] = strings.Repeat("•", utf8.RuneCountInString(w))
	}
	return strings.Join(masked, " ")
}

// tappableText wraps a canvas object so taps on it can be handled.
type tappableText struct {
	widget.BaseWidget

	content  fyne.CanvasObject
	onTapped func()
}

func newTappableText(content fyne.CanvasObject, onTapped func()) *tappableText {
	t := &tappableText{content: content, onTapped: onTapped}
	t.ExtendBaseWidget(t)
	return t
}

func (t *tappableText) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(t.content)
}

func (t *tappableText) Tapped(*fyne.PointEvent) {
	if t.onTapped != nil {
		t.onTapped()
	}
}

// setHighlightedText fills a RichText with the utterance, emphasizing the
// word at wordIndex.
func setHighlightedText(rich *widget.RichText, text string, wordIndex int) {
	words := strings.Fields(text)
	segments := make([]widget.RichTextSegment, 0, len(words))
	for i, w := range words {
		seg := &widget.TextSegment{Text: w}
		if i == wordIndex {
			seg.Style = widget.RichTextStyle{TextStyle: fyne.TextStyle{Bold: true}, ColorName: theme.ColorNamePrimary, Inline: true}
		} else {
			seg.Style = widget.RichTextStyle{Inline: true}
		}
		segments = append(segments, seg)
		if i < len(words)-1 {
			segments = append(segments, &widget.TextSegment{Text: " ", Style: widget.RichTextStyle{Inline: true}})
		}
	}
	rich.Segments = segments
	rich.Wrapping = fyne.TextWrapWord
	rich.Refresh()
}
