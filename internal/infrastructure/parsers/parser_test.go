package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONParser_Parse_ValidInput(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []RawVariable
	}{
		{
			name:  "string value",
			input: `[{"key": "tva_standard", "value": "19"}]`,
			expected: []RawVariable{
				{Key: "tva_standard", Value: "19", LineNum: 1},
			},
		},
		{
			name:  "numeric value keeps literal",
			input: `[{"key": "salary_minim_brut", "value": 3700.50}]`,
			expected: []RawVariable{
				{Key: "salary_minim_brut", Value: "3700.50", LineNum: 1},
			},
		},
		{
			name:  "null value",
			input: `[{"key": "x", "value": null}]`,
			expected: []RawVariable{
				{Key: "x", LineNum: 1},
			},
		},
		{
			name:     "empty array",
			input:    "[]",
			expected: []RawVariable{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := &JSONParser{}
			result, err := parser.Parse(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestJSONParser_Parse_AllFields(t *testing.T) {
	input := `[
		{"key": "tva_standard", "value": "19"},
		{
			"key": "salary_minim_brut",
			"name": "Salariul minim brut",
			"type": "numeric",
			"unit": "RON",
			"value": 3700,
			"effective_from": "2025-01-01",
			"reason": "HG 1506/2024"
		}
	]`

	parser := &JSONParser{}
	result, err := parser.Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result, 2)

	v := result[1]
	assert.Equal(t, "salary_minim_brut", v.Key)
	assert.Equal(t, "Salariul minim brut", v.Name)
	assert.Equal(t, "numeric", v.Type)
	assert.Equal(t, "RON", v.Unit)
	assert.Equal(t, "3700", v.Value)
	assert.Equal(t, "2025-01-01", v.EffectiveFrom)
	assert.Equal(t, "HG 1506/2024", v.Reason)
	assert.Equal(t, 2, v.LineNum)
}

func TestJSONParser_Parse_InvalidInput(t *testing.T) {
	parser := &JSONParser{}
	_, err := parser.Parse(strings.NewReader("not json"))
	require.Error(t, err)
}

func TestCSVParser_Parse_ValidInput(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []RawVariable
	}{
		{
			name:  "required columns only",
			input: "key,value\ntva_standard,19\n",
			expected: []RawVariable{
				{Key: "tva_standard", Value: "19", LineNum: 2},
			},
		},
		{
			name:     "empty CSV (header only)",
			input:    "key,value\n",
			expected: nil,
		},
		{
			name:  "columns in different order with spaces",
			input: "Value, Key\n19, tva_standard\n",
			expected: []RawVariable{
				{Key: "tva_standard", Value: "19", LineNum: 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := &CSVParser{}
			result, err := parser.Parse(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestCSVParser_Parse_AllColumns(t *testing.T) {
	input := "key,name,type,unit,value,effective_from,reason\n" +
		"salary_minim_brut,Salariul minim brut,numeric,RON,3700,2025-01-01,HG 1506/2024\n"

	parser := &CSVParser{}
	result, err := parser.Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result, 1)

	v := result[0]
	assert.Equal(t, "salary_minim_brut", v.Key)
	assert.Equal(t, "Salariul minim brut", v.Name)
	assert.Equal(t, "numeric", v.Type)
	assert.Equal(t, "RON", v.Unit)
	assert.Equal(t, "3700", v.Value)
	assert.Equal(t, "2025-01-01", v.EffectiveFrom)
	assert.Equal(t, "HG 1506/2024", v.Reason)
}

func TestCSVParser_Parse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		errMsg string
	}{
		{
			name:   "missing required column",
			input:  "key,name\ntva_standard,TVA\n",
			errMsg: "missing required column: value",
		},
		{
			name:   "ragged row",
			input:  "key,value\ntva_standard,19,extra\n",
			errMsg: "line 2",
		},
		{
			name:   "empty input",
			input:  "",
			errMsg: "reading CSV header",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := &CSVParser{}
			_, err := parser.Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestForFormat(t *testing.T) {
	assert.IsType(t, &JSONParser{}, ForFormat("json"))
	assert.IsType(t, &CSVParser{}, ForFormat("CSV"))
	assert.Nil(t, ForFormat("unknown"))
}

func TestForFile(t *testing.T) {
	assert.IsType(t, &JSONParser{}, ForFile("variables.json"))
	assert.IsType(t, &CSVParser{}, ForFile("data.CSV"))
	assert.Nil(t, ForFile("file.txt"))
	assert.Nil(t, ForFile("noextension"))
}
