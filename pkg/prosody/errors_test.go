package prosody

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesCode(t *testing.T) {
	err := NewError(ErrCodeDecoding, "talk.mp4", "failed to transcode input", errFake)

	assert.True(t, errors.Is(err, ErrDecode))
	assert.False(t, errors.Is(err, ErrAnalysis))
	assert.True(t, errors.Is(err, errFake), "cause should be reachable")

	wrapped := fmt.Errorf("batch item 3: %w", err)
	assert.True(t, errors.Is(wrapped, ErrDecode))

	var perr *Error
	assert.True(t, errors.As(wrapped, &perr))
	assert.Equal(t, "talk.mp4", perr.Source)
}

func TestError_Message(t *testing.T) {
	err := NewError(ErrCodeAnalysis, "buffer", "pitch tracking failed", errFake)
	assert.Equal(t, "pitch tracking failed (buffer): fake failure", err.Error())

	assert.Equal(t, "analysis not performed", ErrNotAnalyzed.Error())
}
