package decode

import (
	"encoding/json"
	"testing"
)

type framePayload struct {
	GroupID int64  `json:"group_id"`
	Note    string `json:"note"`
}

func TestMapFromJSONNumbers(t *testing.T) {
	var m map[string]any
	if err := json.Unmarshal([]byte(`{"group_id":42,"note":"hi"}`), &m); err != nil {
		t.Fatal(err)
	}
	got, err := Map[framePayload](m)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if got.GroupID != 42 || got.Note != "hi" {
		t.Fatalf("Map = %+v", got)
	}
}

func TestMapWeakString(t *testing.T) {
	got, err := Map[framePayload](map[string]any{"group_id": "42"})
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if got.GroupID != 42 {
		t.Fatalf("GroupID = %d, want 42", got.GroupID)
	}
}

func TestMapRejectsFractional(t *testing.T) {
	if _, err := Map[framePayload](map[string]any{"group_id": 1.5}); err == nil {
		t.Fatal("Map accepted a fractional value for an int field")
	}
}

func TestMapNil(t *testing.T) {
	if _, err := Map[framePayload](nil); err == nil {
		t.Fatal("Map accepted a nil map")
	}
}
