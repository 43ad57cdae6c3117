package render

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/prosody-analyzer/pkg/prosody"
)

func testDistributions(t *testing.T) []prosody.Distribution {
	t.Helper()
	dists, err := prosody.Report(prosody.ZScores{
		prosody.AvgBand1:        -0.8,
		prosody.IntensityMean:   1.2,
		prosody.PercentUnvoiced: 5.5, // off the curve
		prosody.AvgDurPause:     0,
	})
	require.NoError(t, err)
	return dists
}

func TestPNG_Grid(t *testing.T) {
	data, err := PNG(testDistributions(t), prosody.Female, Options{})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	// 14x10 inches at the default 96 dpi
	assert.Equal(t, 1344, img.Bounds().Dx())
	assert.Equal(t, 960, img.Bounds().Dy())
}

func TestPNG_SingleFeature(t *testing.T) {
	dists := testDistributions(t)[:1]

	data, err := PNG(dists, prosody.Male, Options{})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 672, img.Bounds().Dx())
	assert.Equal(t, 480, img.Bounds().Dy())
}

func TestPNG_Empty(t *testing.T) {
	_, err := PNG(nil, prosody.Male, Options{})
	assert.Error(t, err)
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dist.png")
	require.NoError(t, Save(path, testDistributions(t)[1:2], prosody.Male, Options{}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestLabelAndColor(t *testing.T) {
	assert.Equal(t, "F1 Bandwidth (Hz)", Label(prosody.AvgBand1))
	assert.Equal(t, "meanPitch", Label(prosody.MeanPitch))
	assert.Equal(t, uint8(0x4E), Color(prosody.IntensityMean).R)
	assert.Equal(t, fallbackColor, Color(prosody.MeanPitch))
}
