package card

import (
	"testing"
)

func TestDecodeDeck(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantCards int
		wantErr   bool
		check     func(t *testing.T, cards []*Card)
	}{
		{
			name:      "array of cards",
			payload:   `[{"name":"gato","phonetic":"/gato/"},{"name":"perro"}]`,
			wantCards: 2,
			check: func(t *testing.T, cards []*Card) {
				if cards[0].ID != 0 || cards[1].ID != 1 {
					t.Errorf("IDs = %d,%d, want deck indexes", cards[0].ID, cards[1].ID)
				}
			},
		},
		{
			name:      "single object is wrapped",
			payload:   `{"name":"gato","definitions":[{"meaning":"cat"}]}`,
			wantCards: 1,
			check: func(t *testing.T, cards []*Card) {
				if cards[0].Name != "gato" || len(cards[0].Definitions) != 1 {
					t.Errorf("wrapped card = %+v", cards[0])
				}
			},
		},
		{
			name:      "phonetic falls back to ipa_us",
			payload:   `[{"name":"sol","ipa_us":"/sol/"}]`,
			wantCards: 1,
			check: func(t *testing.T, cards []*Card) {
				if cards[0].Phonetic != "/sol/" {
					t.Errorf("phonetic = %q, want ipa_us fallback", cards[0].Phonetic)
				}
			},
		},
		{
			name:      "missing phonetic defaults",
			payload:   `[{"name":"sol"}]`,
			wantCards: 1,
			check: func(t *testing.T, cards []*Card) {
				if cards[0].Phonetic != "N/A" {
					t.Errorf("phonetic = %q, want N/A", cards[0].Phonetic)
				}
				if cards[0].Definitions == nil {
					t.Error("definitions must never be nil")
				}
			},
		},
		{
			name:      "learned and force flags",
			payload:   `[{"name":"a","learned":true,"force_generation":true},{"name":"b"}]`,
			wantCards: 2,
			check: func(t *testing.T, cards []*Card) {
				if !cards[0].Learned || !cards[0].ForceGeneration {
					t.Errorf("flags not decoded: %+v", cards[0])
				}
				if cards[1].Learned || cards[1].ForceGeneration {
					t.Errorf("missing flags must default to false: %+v", cards[1])
				}
			},
		},
		{
			name:    "garbage payload",
			payload: `not json`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cards, err := DecodeDeck([]byte(tt.payload))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeDeck() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if len(cards) != tt.wantCards {
				t.Fatalf("got %d cards, want %d", len(cards), tt.wantCards)
			}
			if tt.check != nil {
				tt.check(t, cards)
			}
		})
	}
}

func TestCardDefinition(t *testing.T) {
	c := &Card{Definitions: []Definition{{Meaning: "one"}, {Meaning: "two"}}}

	if got := c.Definition(1); got == nil || got.Meaning != "two" {
		t.Errorf("Definition(1) = %v", got)
	}
	if c.Definition(-1) != nil || c.Definition(2) != nil {
		t.Error("out-of-range index must return nil")
	}
	var nilCard *Card
	if nilCard.Definition(0) != nil {
		t.Error("nil card must return nil")
	}
}
