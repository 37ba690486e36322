package card

import "testing"

func deck(names ...string) []*Card {
	cards := make([]*Card, len(names))
	for i, n := range names {
		cards[i] = &Card{
			ID:          i,
			Name:        n,
			Definitions: []Definition{{Meaning: "meaning of " + n}},
		}
	}
	return cards
}

func TestCollectionNavigationWrapsAround(t *testing.T) {
	col := NewCollection()
	col.Load(deck("a", "b", "c"))

	if got := col.Current().Name; got != "a" {
		t.Fatalf("initial card = %q", got)
	}
	if got := col.Next().Name; got != "b" {
		t.Errorf("Next = %q, want b", got)
	}
	col.Next()
	if got := col.Next().Name; got != "a" {
		t.Errorf("Next past end = %q, want wraparound to a", got)
	}
	if got := col.Prev().Name; got != "c" {
		t.Errorf("Prev from start = %q, want wraparound to c", got)
	}
}

func TestCollectionEmpty(t *testing.T) {
	col := NewCollection()

	if col.Current() != nil || col.Next() != nil || col.Prev() != nil {
		t.Error("empty collection must return nil cards")
	}

	col.Load(deck("a"))
	col.Clear()
	if col.Len() != 0 || col.Current() != nil {
		t.Error("Clear did not empty the collection")
	}
}

func TestCollectionFiltersLearned(t *testing.T) {
	cards := deck("a", "b", "c")
	cards[1].Learned = true
	col := NewCollection()
	col.Load(cards)

	if col.Len() != 3 {
		t.Errorf("Len = %d, want 3", col.Len())
	}
	if col.UnlearnedLen() != 2 {
		t.Errorf("UnlearnedLen = %d, want 2", col.UnlearnedLen())
	}
	if got := col.Next().Name; got != "c" {
		t.Errorf("Next skipped to %q, want c", got)
	}
}

func TestMarkLearnedClampsCursor(t *testing.T) {
	col := NewCollection()
	col.Load(deck("a", "b", "c"))
	col.Next()
	col.Next() // cursor on "c"

	col.MarkLearned(2)
	if got := col.Current().Name; got != "b" {
		t.Errorf("cursor after learning last card = %q, want clamp to b", got)
	}

	col.MarkLearned(0)
	col.MarkLearned(1)
	if col.Current() != nil {
		t.Error("all learned, Current must be nil")
	}
	if col.UnlearnedLen() != 0 {
		t.Errorf("UnlearnedLen = %d, want 0", col.UnlearnedLen())
	}

	// Unknown ID is a no-op.
	col.MarkLearned(99)
}

func TestUpdateImagePath(t *testing.T) {
	col := NewCollection()
	col.Load(deck("a", "b"))

	path := "/media/images/a.png"
	col.UpdateImagePath(0, &path, 0)
	if got := col.Cards()[0].Definitions[0].ImagePath; got == nil || *got != path {
		t.Errorf("ImagePath = %v, want %q", got, path)
	}

	// The update must be visible through the unlearned view too, the views
	// share card values.
	if got := col.Current().Definitions[0].ImagePath; got == nil || *got != path {
		t.Error("update not visible through filtered view")
	}

	col.UpdateImagePath(0, nil, 0)
	if col.Cards()[0].Definitions[0].ImagePath != nil {
		t.Error("nil path must record deletion")
	}

	// Unknown card and out-of-range def index are no-ops.
	col.UpdateImagePath(42, &path, 0)
	col.UpdateImagePath(1, &path, 5)
	if col.Cards()[1].Definitions[0].ImagePath != nil {
		t.Error("out-of-range def index modified a slot")
	}
}
