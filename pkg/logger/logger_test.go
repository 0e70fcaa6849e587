package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boorufetch/pkg/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"fatal", zerolog.FatalLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"INFO", zerolog.InfoLevel, false},
		{"loud", zerolog.InfoLevel, true},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		level, err := parseLogLevel(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.expected, level, tt.input)
	}
}

func TestNewRejectsInvalidLevel(t *testing.T) {
	_, err := New(&config.LoggingConfig{Level: "shouting"})
	assert.Error(t, err)
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	base, err := New(&config.LoggingConfig{Level: "info"})
	require.NoError(t, err)

	child := base.WithField("tag", "cat_ears")
	grandchild := child.WithFields(map[string]interface{}{"page": 2})

	baseImpl := base.(*zerologLogger)
	childImpl := child.(*zerologLogger)
	grandImpl := grandchild.(*zerologLogger)

	assert.Empty(t, baseImpl.fields)
	assert.Len(t, childImpl.fields, 1)
	assert.Len(t, grandImpl.fields, 2)
}

func TestWithErrorNil(t *testing.T) {
	base, err := New(&config.LoggingConfig{Level: "info"})
	require.NoError(t, err)

	assert.Same(t, base, base.WithError(nil))
}

func TestInitializeAndGetLogger(t *testing.T) {
	require.NoError(t, Initialize(&config.LoggingConfig{Level: "debug"}))
	assert.NotNil(t, GetLogger())
}
