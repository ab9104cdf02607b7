package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCriticality_Severity(t *testing.T) {
	tests := []struct {
		criticality Criticality
		expected    int
	}{
		{CriticalityCritical, 4},
		{CriticalityHigh, 3},
		{CriticalityMedium, 2},
		{CriticalityLow, 1},
		{Criticality("urgent"), 0},
		{Criticality(""), 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.criticality), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.criticality.Severity())
			assert.Equal(t, tt.expected > 0, tt.criticality.IsValid())
		})
	}
}

func TestParseCriticality(t *testing.T) {
	c, err := ParseCriticality(" High ")
	require.NoError(t, err)
	assert.Equal(t, CriticalityHigh, c)

	_, err = ParseCriticality("urgent")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDefaultPointsReferenceSeededVariables(t *testing.T) {
	keys := make(map[string]bool, len(DefaultVariables))
	for _, v := range DefaultVariables {
		require.True(t, IsValidKey(v.Key), v.Key)
		require.NotEmpty(t, v.Values, v.Key)
		keys[v.Key] = true
	}

	for _, p := range DefaultPoints {
		assert.True(t, p.Criticality.IsValid(), p.DataPointName)
		if p.VariableKey != "" {
			assert.True(t, keys[p.VariableKey], "unknown variable %s", p.VariableKey)
		}
	}
}
