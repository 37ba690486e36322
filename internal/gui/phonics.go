package gui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/example/flashvoz/internal/api"
	"github.com/example/flashvoz/internal/playback"
)

// onShowPhonics opens the phonics reference window. Rules are fetched once
// and cached; each example word is speakable on its own.
func (a *Application) onShowPhonics() {
	win := a.app.NewWindow("Phonics reference")
	win.Resize(fyne.NewSize(640, 560))

	loading := widget.NewLabel("Loading phonics rules...")
	win.SetContent(container.NewCenter(loading))
	win.Show()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		rules, err := a.phonics.Rules(a.ctx)
		fyne.Do(func() {
			if err != nil {
				win.SetContent(container.NewCenter(
					widget.NewLabel(fmt.Sprintf("Failed to load phonics rules: %s", api.Reason(err)))))
				return
			}
			win.SetContent(a.buildPhonicsList(rules))
		})
	}()
}

func (a *Application) buildPhonicsList(rules []api.PhonicsRule) fyne.CanvasObject {
	box := container.NewVBox()
	for _, rule := range rules {
		title := widget.NewLabel(fmt.Sprintf("%s — sounds like %q", rule.Rule, rule.SoundsLike))
		title.TextStyle = fyne.TextStyle{Bold: true}
		title.Wrapping = fyne.TextWrapWord
		box.Add(title)

		row := container.NewHBox()
		for i, example := range rule.Examples {
			label := example
			if i < len(rule.IPA) && rule.IPA[i] != "" {
				label = fmt.Sprintf("%s %s", example, rule.IPA[i])
			}
			text := example
			row.Add(widget.NewButtonWithIcon(label, theme.MediaPlayIcon(), func() {
				a.speakPhonicsExample(text)
			}))
		}
		box.Add(container.NewHScroll(row))
		box.Add(widget.NewSeparator())
	}
	if len(rules) == 0 {
		box.Add(widget.NewLabel("No phonics rules available."))
	}
	return container.NewVScroll(box)
}

// speakPhonicsExample speaks a single phonics example. The phonics deck has
// no owning card, the example text is its own subject.
func (a *Application) speakPhonicsExample(text string) {
	a.mu.Lock()
	category := a.category
	tone := a.tone
	a.mu.Unlock()
	if category == "" {
		return
	}

	a.speak(strings.TrimSpace(text), playback.SpeakContext{
		Category: category,
		Deck:     playback.PhonicsDeck,
		Tone:     tone,
	})
}
