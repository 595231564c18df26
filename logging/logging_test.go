package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"off", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseLevel(tt.input), "ParseLevel(%q)", tt.input)
	}
}

func TestNewSessionIDIsULID(t *testing.T) {
	id := NewSessionID()
	_, err := ulid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, NewSessionID())
}

func TestForSessionAddsField(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	logger := ForSession(&base, "01TEST")
	logger.Info().Msg("hello")

	assert.Contains(t, buf.String(), `"session":"01TEST"`)
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Equal(t, Default(), FromContext(context.Background()))

	l := zerolog.Nop()
	ctx := WithLogger(context.Background(), &l)
	assert.Equal(t, &l, FromContext(ctx))
}
