package prosody

import (
	"fmt"

	"github.com/RyanBlaney/prosody-analyzer/pkg/audio"
)

// SourceBuffer is the Source reported for in-memory input.
const SourceBuffer = "buffer"

// Input is either a media file path or an in-memory sample buffer.
type Input struct {
	Path       string
	Samples    []float64
	SampleRate int // buffer rate, 0 means 16000
}

// FromFile returns an Input for a media file.
func FromFile(path string) Input {
	return Input{Path: path}
}

// FromSamples returns an Input for samples at sampleRate.
func FromSamples(samples []float64, sampleRate int) Input {
	if samples == nil {
		samples = []float64{}
	}
	return Input{Samples: samples, SampleRate: sampleRate}
}

// IsFile reports whether the input names a file.
func (in Input) IsFile() bool {
	return in.Path != ""
}

// Source describes the input for logs and sessions.
func (in Input) Source() string {
	if in.IsFile() {
		return in.Path
	}
	return SourceBuffer
}

// Validate rejects inputs that are neither a path nor a buffer.
func (in Input) Validate() error {
	switch {
	case in.Path != "" && in.Samples != nil:
		return NewError(ErrCodeUnsupportedInput, in.Path, "input has both a path and samples", nil)
	case in.Path == "" && in.Samples == nil:
		return NewError(ErrCodeUnsupportedInput, "", "input has neither a path nor samples", nil)
	case in.Samples != nil && in.SampleRate < 0:
		return NewError(ErrCodeUnsupportedInput, SourceBuffer,
			fmt.Sprintf("invalid sample rate %d", in.SampleRate), nil)
	}
	return nil
}

func (in Input) sampleRate() int {
	if in.SampleRate == 0 {
		return audio.DefaultSampleRate
	}
	return in.SampleRate
}
