package testutil

import (
	"encoding/json"
	"testing"
)

// DeckJSON builds a raw deck payload from card maps. Tests pass maps so they
// can include or omit fields freely, the way real deck files vary.
func DeckJSON(t *testing.T, cards ...map[string]any) string {
	t.Helper()
	data, err := json.Marshal(cards)
	if err != nil {
		t.Fatalf("failed to marshal deck: %v", err)
	}
	return string(data)
}

// SimpleCard builds a card map with one definition, enough for most tests.
func SimpleCard(name, meaning string) map[string]any {
	return map[string]any{
		"name":     name,
		"phonetic": "/" + name + "/",
		"definitions": []map[string]any{
			{
				"meaning":       meaning,
				"usage_example": "Example with " + name + ".",
			},
		},
	}
}
