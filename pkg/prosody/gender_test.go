package prosody

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	assert.Equal(t, Male, Classify(0))
	assert.Equal(t, Male, Classify(174.99))
	assert.Equal(t, Female, Classify(175.0))
	assert.Equal(t, Female, Classify(220))

	assert.Equal(t, Male, ClassifyWithThreshold(180, 190))
}

func TestBaselines_For(t *testing.T) {
	b := DefaultBaselines()
	assert.Equal(t, 130.1932, b.For(Male)[MeanPitch].Mean)
	assert.Equal(t, 218.5149, b.For(Female)[MeanPitch].Mean)
	assert.NoError(t, b.Validate())

	b.Female[AvgBand1] = BaselineStat{Mean: 1, Std: -1}
	assert.Error(t, b.Validate())
}
