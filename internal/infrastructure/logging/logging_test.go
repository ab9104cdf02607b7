package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		mode  Mode
		debug bool
		info  bool
	}{
		{ModeProduction, false, true},
		{ModeDevelopment, true, true},
		{ModeQuiet, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			logger, err := New(tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.debug, logger.Core().Enabled(zapcore.DebugLevel))
			assert.Equal(t, tt.info, logger.Core().Enabled(zapcore.InfoLevel))
		})
	}
}

func TestCLIMode(t *testing.T) {
	assert.Equal(t, ModeDevelopment, CLIMode(true))
	assert.Equal(t, ModeQuiet, CLIMode(false))
}
