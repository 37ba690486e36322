package card

import "sync"

// Collection owns the cards of the currently loaded deck: the full list plus
// the unlearned-only view the presentation layer pages through. Both views
// share the same *Card values, so an image path update is visible in both.
type Collection struct {
	mu       sync.RWMutex
	master   []*Card
	filtered []*Card
	current  int
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{}
}

// Load replaces the collection contents with a freshly fetched deck and
// resets the cursor.
func (col *Collection) Load(cards []*Card) {
	col.mu.Lock()
	defer col.mu.Unlock()
	col.master = cards
	col.rebuildFiltered()
	col.current = 0
}

// Clear drops all cards, used when the category or deck changes.
func (col *Collection) Clear() {
	col.Load(nil)
}

func (col *Collection) rebuildFiltered() {
	col.filtered = col.filtered[:0]
	for _, c := range col.master {
		if !c.Learned {
			col.filtered = append(col.filtered, c)
		}
	}
}

// Len returns the total number of cards in the deck.
func (col *Collection) Len() int {
	col.mu.RLock()
	defer col.mu.RUnlock()
	return len(col.master)
}

// UnlearnedLen returns the number of cards not yet marked learned.
func (col *Collection) UnlearnedLen() int {
	col.mu.RLock()
	defer col.mu.RUnlock()
	return len(col.filtered)
}

// Current returns the card under the cursor in the unlearned view, or nil
// when the view is empty.
func (col *Collection) Current() *Card {
	col.mu.RLock()
	defer col.mu.RUnlock()
	if len(col.filtered) == 0 {
		return nil
	}
	return col.filtered[col.current]
}

// CurrentIndex returns the cursor position within the unlearned view.
func (col *Collection) CurrentIndex() int {
	col.mu.RLock()
	defer col.mu.RUnlock()
	return col.current
}

// Next advances the cursor with wraparound and returns the new current card.
func (col *Collection) Next() *Card {
	col.mu.Lock()
	defer col.mu.Unlock()
	if len(col.filtered) == 0 {
		return nil
	}
	col.current = (col.current + 1) % len(col.filtered)
	return col.filtered[col.current]
}

// Prev moves the cursor back with wraparound and returns the new current card.
func (col *Collection) Prev() *Card {
	col.mu.Lock()
	defer col.mu.Unlock()
	if len(col.filtered) == 0 {
		return nil
	}
	col.current = (col.current - 1 + len(col.filtered)) % len(col.filtered)
	return col.filtered[col.current]
}

// MarkLearned flags the card with the given ID as learned, removes it from
// the unlearned view and clamps the cursor so it stays on a valid card.
// Unknown IDs are ignored.
func (col *Collection) MarkLearned(cardID int) {
	col.mu.Lock()
	defer col.mu.Unlock()
	for _, c := range col.master {
		if c.ID == cardID {
			c.Learned = true
			break
		}
	}
	col.rebuildFiltered()
	if len(col.filtered) == 0 {
		col.current = 0
	} else if col.current >= len(col.filtered) {
		col.current = len(col.filtered) - 1
	}
}

// UpdateImagePath propagates a new persisted image path into the definition
// slot addressed by (cardID, defIndex). A nil path records image deletion.
// Unknown card IDs and out-of-range definition indexes are ignored; the join
// key is always the def index, never the definition content.
func (col *Collection) UpdateImagePath(cardID int, path *string, defIndex int) {
	col.mu.Lock()
	defer col.mu.Unlock()
	for _, c := range col.master {
		if c.ID != cardID {
			continue
		}
		if defIndex < 0 || defIndex >= len(c.Definitions) {
			return
		}
		c.Definitions[defIndex].ImagePath = path
		return
	}
}

// Cards returns a snapshot of the full deck, for export and status display.
func (col *Collection) Cards() []*Card {
	col.mu.RLock()
	defer col.mu.RUnlock()
	out := make([]*Card, len(col.master))
	copy(out, col.master)
	return out
}
