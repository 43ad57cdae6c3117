package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)

	_, err = New(Options{Format: "xml"})
	assert.Error(t, err)

	for _, format := range []string{"", "console", "JSON"} {
		l, err := New(Options{Level: "warn", Format: format})
		require.NoError(t, err, format)
		assert.NotNil(t, l)
	}
}

func TestWithFieldsAndErrorFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core)).WithFields(Fields{"component": "pitch_tracker"})

	l.Debug("frame", Fields{"index": 3})
	l.Error(errors.New("boom"), "failed", Fields{"source": "a.wav"})

	entries := logs.All()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "pitch_tracker", first["component"])
	assert.EqualValues(t, 3, first["index"])

	second := entries[1].ContextMap()
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "boom", second["error"])
	assert.Equal(t, "a.wav", second["source"])
}

func TestDefaultAndOrDefault(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	prev := Default()
	t.Cleanup(func() { SetDefault(prev) })

	SetDefault(FromZap(zap.New(core)))
	SetDefault(nil)

	OrDefault(nil).Info("via default")
	WithFields(Fields{"k": "v"}).Info("scoped")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "v", logs.All()[1].ContextMap()["k"])

	own := NewNop()
	assert.Same(t, own, OrDefault(own))
}
