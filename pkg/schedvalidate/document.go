package schedvalidate

import (
	"encoding/json"
	"fmt"
)

// JSONSchemaID is the URL a compiled schema is registered under.
// JSONSchema's output does not carry an $id of its own.
const JSONSchemaID = "https://github.com/pgaskin/finitecap/calendar-input.schema.json"

// document mirrors the calendar-input document shape. Times and dates stay
// raw strings so they can be checked after decoding; optional exception
// fields are pointers so a missing field is distinguishable from a zero
// value. A JSON type mismatch (e.g. a non-boolean is_working) makes
// decoding fail.
type document struct {
	ID       string            `json:"id"`
	Calendar *calendarDocument `json:"calendar"`
}

type calendarDocument struct {
	Rules      map[string][][2]string      `json:"rules"`
	Exceptions map[string][]exceptionEntry `json:"exceptions"`
}

type exceptionEntry struct {
	IsWorking *bool   `json:"is_working"`
	Start     *string `json:"start"`
	End       *string `json:"end"`
}

func parseDocument(doc []byte) (*document, error) {
	var d document
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, fmt.Errorf("schedvalidate: decode: %w", err)
	}
	return &d, nil
}
