package queue

import (
	"encoding/json"
	"testing"
)

type samplePayload struct {
	Disease string `json:"disease"`
	Cases   int    `json:"cases"`
}

func TestParsePayloadConcrete(t *testing.T) {
	in := &samplePayload{Disease: "Malaria", Cases: 12}
	got, err := ParsePayload[samplePayload](in)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != in {
		t.Fatalf("pointer payload should pass through")
	}

	byValue, err := ParsePayload[samplePayload](*in)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if byValue.Disease != "Malaria" || byValue.Cases != 12 {
		t.Fatalf("value payload mismatch: %+v", byValue)
	}
}

func TestParsePayloadFromMap(t *testing.T) {
	in := map[string]interface{}{"disease": "Cholera", "cases": float64(7)}
	got, err := ParsePayload[samplePayload](in)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Disease != "Cholera" || got.Cases != 7 {
		t.Fatalf("map payload mismatch: %+v", got)
	}
}

func TestParsePayloadFromRawJSON(t *testing.T) {
	raw := json.RawMessage(`{"disease":"Dengue","cases":3}`)
	got, err := ParsePayload[samplePayload](raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Disease != "Dengue" || got.Cases != 3 {
		t.Fatalf("raw payload mismatch: %+v", got)
	}
}

func TestParsePayloadRejectsUnknownType(t *testing.T) {
	if _, err := ParsePayload[samplePayload](42); err == nil {
		t.Fatalf("expected type error")
	}
}
