package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_WritesFieldsAndLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core))
	ctx := context.Background()

	log.With("request_id", "r1").Info(ctx, "request finished", "status", 200)
	log.Error(ctx, "refresh failed")

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, "request finished", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "r1", fields["request_id"])
	assert.EqualValues(t, 200, fields["status"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}

func TestNewZapLogger_InvalidLevelDefaultsToInfo(t *testing.T) {
	l, err := NewZapLogger("nonsense")
	require.NoError(t, err)
	require.NotNil(t, l)
	l.Debug(context.Background(), "dropped")
}
