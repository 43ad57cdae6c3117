package analyzers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowGenerator_Hann(t *testing.T) {
	wg := NewWindowGenerator()

	w, err := wg.Hann(5)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.5, 1, 0.5, 0}, w, 1e-12)

	again, err := wg.Hann(5)
	require.NoError(t, err)
	assert.Same(t, &w[0], &again[0], "windows should be cached")

	single, err := wg.Hann(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, single)
}

func TestWindowGenerator_Errors(t *testing.T) {
	wg := NewWindowGenerator()

	_, err := wg.Hann(0)
	assert.Error(t, err)

	_, err = wg.Hann(-4)
	assert.Error(t, err)
}
