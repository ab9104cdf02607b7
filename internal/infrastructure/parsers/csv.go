package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVParser parses variables from CSV format.
type CSVParser struct{}

// Parse reads CSV from the reader and returns parsed variables.
// Required columns: key, value. Optional: name, type, unit, effective_from, reason.
func (p *CSVParser) Parse(r io.Reader) ([]RawVariable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	colIndex, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	return p.readRecords(reader, colIndex)
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	requiredCols := []string{"key", "value"}
	for _, col := range requiredCols {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	return colIndex, nil
}

// readRecords reads all data rows and converts them to RawVariables.
func (p *CSVParser) readRecords(reader *csv.Reader, colIndex map[string]int) ([]RawVariable, error) {
	var vars []RawVariable
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		vars = append(vars, RawVariable{
			Key:           getColumn(record, colIndex, "key"),
			Name:          getColumn(record, colIndex, "name"),
			Type:          getColumn(record, colIndex, "type"),
			Unit:          getColumn(record, colIndex, "unit"),
			Value:         getColumn(record, colIndex, "value"),
			EffectiveFrom: getColumn(record, colIndex, "effective_from"),
			Reason:        getColumn(record, colIndex, "reason"),
			LineNum:       lineNum,
		})
	}

	return vars, nil
}

// getColumn safely retrieves a column value from a record.
func getColumn(record []string, colIndex map[string]int, col string) string {
	if idx, ok := colIndex[col]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}
