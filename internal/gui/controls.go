package gui

import (
	"fmt"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"

	"github.com/example/flashvoz/internal/api"
	"github.com/example/flashvoz/internal/export"
)

// buildSelectors creates the category and deck dropdowns.
func (a *Application) buildSelectors() fyne.CanvasObject {
	a.categorySelect = widget.NewSelect(nil, func(category string) {
		a.mu.Lock()
		changed := a.category != category
		a.category = category
		a.mu.Unlock()
		if !changed && a.deckSelect.Selected != "" {
			return
		}
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.loadDecks(category)
		}()
	})
	a.categorySelect.PlaceHolder = "Category..."

	a.deckSelect = widget.NewSelect(nil, func(deck string) {
		if deck == "" {
			return
		}
		a.mu.Lock()
		category := a.category
		a.mu.Unlock()
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.loadDeck(category, deck)
		}()
	})
	a.deckSelect.PlaceHolder = "Deck..."

	return container.NewGridWithColumns(2, a.categorySelect, a.deckSelect)
}

// buildToolbar creates the navigation and action buttons.
func (a *Application) buildToolbar() fyne.CanvasObject {
	a.prevBtn = ttwidget.NewButtonWithIcon("", theme.NavigateBackIcon(), a.onPrev)
	a.nextBtn = ttwidget.NewButtonWithIcon("", theme.NavigateNextIcon(), a.onNext)
	a.flipBtn = ttwidget.NewButtonWithIcon("", theme.ViewRefreshIcon(), a.onFlip)
	a.speakBtn = ttwidget.NewButtonWithIcon("", theme.MediaPlayIcon(), a.onSpeak)
	a.learnedBtn = ttwidget.NewButtonWithIcon("", theme.ConfirmIcon(), a.onMarkLearned)

	a.regenImageBtn = ttwidget.NewButtonWithIcon("", theme.MediaReplayIcon(), a.onRegenerateImage)
	a.deleteImageBtn = ttwidget.NewButtonWithIcon("", theme.DeleteIcon(), a.onDeleteImage)
	a.deleteImageBtn.Importance = widget.DangerImportance
	a.uploadImageBtn = ttwidget.NewButtonWithIcon("", theme.UploadIcon(), a.onUploadImage)

	resetBtn := ttwidget.NewButtonWithIcon("", theme.ViewRestoreIcon(), a.onResetAll)
	resetBtn.SetToolTip("Reset learned status of all cards")
	exportBtn := ttwidget.NewButtonWithIcon("", theme.DocumentSaveIcon(), a.onExportCSV)
	exportBtn.SetToolTip("Export deck to CSV")
	phonicsBtn := ttwidget.NewButtonWithIcon("", theme.ListIcon(), a.onShowPhonics)
	phonicsBtn.SetToolTip("Phonics reference")

	return container.NewHBox(
		a.prevBtn,
		a.nextBtn,
		widget.NewSeparator(),
		a.flipBtn,
		a.speakBtn,
		a.learnedBtn,
		widget.NewSeparator(),
		a.regenImageBtn,
		a.uploadImageBtn,
		a.deleteImageBtn,
		widget.NewSeparator(),
		resetBtn,
		exportBtn,
		phonicsBtn,
	)
}

func (a *Application) setupTooltips() {
	a.prevBtn.SetToolTip("Previous card (left arrow)")
	a.nextBtn.SetToolTip("Next card (right arrow)")
	a.flipBtn.SetToolTip("Flip card (space)")
	a.speakBtn.SetToolTip("Speak (s)")
	a.learnedBtn.SetToolTip("Mark learned (l)")
	a.regenImageBtn.SetToolTip("Regenerate image (r)")
	a.deleteImageBtn.SetToolTip("Delete image")
	a.uploadImageBtn.SetToolTip("Upload image")
}

func (a *Application) setupKeyboardShortcuts() {
	a.window.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyLeft:
			a.onPrev()
		case fyne.KeyRight:
			a.onNext()
		case fyne.KeySpace:
			a.onFlip()
		case fyne.KeyS:
			a.onSpeak()
		case fyne.KeyL:
			a.onMarkLearned()
		case fyne.KeyR:
			a.onRegenerateImage()
		}
	})
}

// updateButtons enables the card actions only when a card is visible.
func (a *Application) updateButtons() {
	hasCard := a.cards.Current() != nil
	buttons := []*ttwidget.Button{
		a.flipBtn, a.speakBtn, a.learnedBtn,
		a.regenImageBtn, a.deleteImageBtn, a.uploadImageBtn,
	}
	for _, b := range buttons {
		if hasCard {
			b.Enable()
		} else {
			b.Disable()
		}
	}
}

func (a *Application) onNext() {
	if a.cards.Next() == nil {
		return
	}
	a.showCurrentCard()
}

func (a *Application) onPrev() {
	if a.cards.Prev() == nil {
		return
	}
	a.showCurrentCard()
}

func (a *Application) onFlip() {
	a.cardView.Flip()
	a.mu.Lock()
	a.showingBack = a.cardView.ShowingBack()
	a.mu.Unlock()
	if a.autoPlay {
		a.speakCurrent()
	}
}

func (a *Application) onSpeak() {
	a.speakCurrent()
}

// onMarkLearned flags the current card learned on the backend and advances.
func (a *Application) onMarkLearned() {
	crd := a.cards.Current()
	if crd == nil {
		return
	}
	a.mu.Lock()
	category, deck := a.category, a.deckSelected()
	a.mu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.client.UpdateStatus(a.ctx, category, deck, crd.ID, true); err != nil {
			a.setStatus(fmt.Sprintf("Failed to mark %q learned: %s", crd.Name, api.Reason(err)), true)
			return
		}
		a.cards.MarkLearned(crd.ID)
		a.setStatus(fmt.Sprintf("%q learned. %d to go.", crd.Name, a.cards.UnlearnedLen()), false)
		fyne.Do(a.showCurrentCard)
	}()
}

func (a *Application) onRegenerateImage() {
	if a.cards.Current() == nil {
		return
	}
	a.mu.Lock()
	defIndex := a.defIndex
	a.mu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.images.Generate(a.ctx, defIndex)
	}()
}

func (a *Application) onDeleteImage() {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.images.DeleteCurrent(a.ctx)
	}()
}

// onUploadImage lets the user pick a local image for the current slot.
func (a *Application) onUploadImage() {
	if a.cards.Current() == nil {
		return
	}
	fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		name := filepath.Base(reader.URI().Path())
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			defer reader.Close()
			a.images.Upload(a.ctx, reader, name)
		}()
	}, a.window)
	fileDialog.Show()
}

// onResetAll clears the learned flags of the whole deck. Destructive, so it
// requires typing RESET to confirm.
func (a *Application) onResetAll() {
	a.mu.Lock()
	category, deck := a.category, a.deckSelected()
	a.mu.Unlock()
	if deck == "" {
		return
	}

	entry := widget.NewEntry()
	entry.SetPlaceHolder("RESET")
	content := container.NewVBox(
		widget.NewLabel(fmt.Sprintf("This clears the learned status of every card in %q.", deck)),
		widget.NewLabel("Type RESET to confirm:"),
		entry,
	)
	confirm := dialog.NewCustomConfirm("Reset deck", "Reset", "Cancel", content, func(ok bool) {
		if !ok || entry.Text != "RESET" {
			if ok {
				a.setStatusUI("Reset cancelled: confirmation text did not match.", false)
			}
			return
		}
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.client.ResetAll(a.ctx, category, deck); err != nil {
				a.setStatus(fmt.Sprintf("Reset failed: %s", api.Reason(err)), true)
				return
			}
			a.setStatus("Deck reset.", false)
			a.loadDeck(category, deck)
		}()
	}, a.window)
	confirm.Show()
}

// onExportCSV writes the loaded deck to a CSV file picked by the user.
func (a *Application) onExportCSV() {
	cards := a.cards.Cards()
	if len(cards) == 0 {
		dialog.ShowInformation("No cards", "Load a deck before exporting.", a.window)
		return
	}
	a.mu.Lock()
	category, deck := a.category, a.deckSelected()
	a.mu.Unlock()

	saveDialog := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()
		// export writes the file itself; the picker only supplies the path.
		os.Remove(path)

		opts := &export.Options{OutputPath: path, IncludeHeaders: true}
		if err := export.WriteCSV(cards, opts); err != nil {
			a.confirmError(fmt.Errorf("export failed: %w", err))
			return
		}
		a.setStatusUI(fmt.Sprintf("Exported %d cards to %s", len(cards), filepath.Base(path)), false)
	}, a.window)
	saveDialog.SetFileName(export.SuggestFilename(category, deck))
	saveDialog.Show()
}
