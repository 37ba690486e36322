// Package card holds the flashcard data model and the in-memory deck
// collection the presentation layer renders from.
package card

import "encoding/json"

// Definition is one sense of a card's headword. Its identity is its ordinal
// position within the card's definition list (the "def index"), which is the
// addressing key for all image operations.
type Definition struct {
	Meaning            string  `json:"meaning"`
	UsageExample       string  `json:"usage_example"`
	AlternativeExample string  `json:"alternative_example,omitempty"`
	TranslatedExample  string  `json:"usage_example_es,omitempty"`
	PronunciationGuide string  `json:"pronunciation_guide_es,omitempty"`
	ImagePath          *string `json:"imagePath,omitempty"`
}

// Card is a single flashcard within a deck. ID is the card's index in the
// deck as fetched, unique within that deck.
type Card struct {
	ID              int          `json:"id"`
	Name            string       `json:"name"`
	Phonetic        string       `json:"phonetic"`
	Definitions     []Definition `json:"definitions"`
	Learned         bool         `json:"learned"`
	ForceGeneration bool         `json:"force_generation"`
}

// rawCard mirrors the backend payload before normalization.
type rawCard struct {
	Name            string       `json:"name"`
	Phonetic        string       `json:"phonetic"`
	IPAUS           string       `json:"ipa_us"`
	Definitions     []Definition `json:"definitions"`
	Learned         *bool        `json:"learned"`
	ForceGeneration *bool        `json:"force_generation"`
}

// DecodeDeck parses a deck payload from the backend. The backend may return
// either a single card object or an array of them; a single object is wrapped
// into a one-element deck. Cards are assigned their deck index as ID and
// missing fields get their defaults (phonetic falls back to ipa_us, then
// "N/A"; learned and force_generation default to false).
func DecodeDeck(data []byte) ([]*Card, error) {
	var raws []rawCard
	if err := json.Unmarshal(data, &raws); err != nil {
		var single rawCard
		if err2 := json.Unmarshal(data, &single); err2 != nil {
			return nil, err
		}
		raws = []rawCard{single}
	}

	cards := make([]*Card, 0, len(raws))
	for i, raw := range raws {
		c := &Card{
			ID:          i,
			Name:        raw.Name,
			Phonetic:    raw.Phonetic,
			Definitions: raw.Definitions,
		}
		if c.Phonetic == "" {
			c.Phonetic = raw.IPAUS
		}
		if c.Phonetic == "" {
			c.Phonetic = "N/A"
		}
		if c.Definitions == nil {
			c.Definitions = []Definition{}
		}
		if raw.Learned != nil {
			c.Learned = *raw.Learned
		}
		if raw.ForceGeneration != nil {
			c.ForceGeneration = *raw.ForceGeneration
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// Definition returns the definition at the given index, or nil when the index
// is out of range.
func (c *Card) Definition(defIndex int) *Definition {
	if c == nil || defIndex < 0 || defIndex >= len(c.Definitions) {
		return nil
	}
	return &c.Definitions[defIndex]
}
