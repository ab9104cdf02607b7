// Package parsers provides parsers for importing variables from various formats.
package parsers

import (
	"io"
	"path/filepath"
	"strings"
)

// RawVariable is a variable value parsed from an external source before validation.
// Name, Type and Unit are only needed when the key does not exist yet.
type RawVariable struct {
	Key           string `json:"key"`
	Name          string `json:"name,omitempty"`
	Type          string `json:"type,omitempty"`
	Unit          string `json:"unit,omitempty"`
	Value         string `json:"value"`
	EffectiveFrom string `json:"effective_from,omitempty"`
	Reason        string `json:"reason,omitempty"`
	LineNum       int    `json:"-"` // Line number in source file (set by parser)
}

// Parser defines the interface for parsing variables from various formats.
type Parser interface {
	Parse(r io.Reader) ([]RawVariable, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	return ForFormat(strings.TrimPrefix(filepath.Ext(filename), "."))
}
