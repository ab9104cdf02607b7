package parsers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// JSONParser parses variables from a JSON array.
type JSONParser struct{}

// Parse reads JSON from the reader and returns parsed variables.
func (p *JSONParser) Parse(r io.Reader) ([]RawVariable, error) {
	var vars []RawVariable

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&vars); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	// Set line numbers (array index + 1, 1-indexed)
	for i := range vars {
		vars[i].LineNum = i + 1
	}

	return vars, nil
}

// UnmarshalJSON accepts value as either a string or a bare number, keeping
// numbers in their literal form so no precision is lost.
func (v *RawVariable) UnmarshalJSON(data []byte) error {
	type alias RawVariable
	aux := struct {
		*alias
		Value json.RawMessage `json:"value"`
	}{alias: (*alias)(v)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	raw := bytes.TrimSpace(aux.Value)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		v.Value = ""
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &v.Value); err != nil {
			return fmt.Errorf("value: %w", err)
		}
	default:
		v.Value = string(raw)
	}
	return nil
}
