package prosody

import (
	"github.com/RyanBlaney/prosody-analyzer/internal/logging"
	"github.com/RyanBlaney/prosody-analyzer/pkg/audio"
	"github.com/RyanBlaney/prosody-analyzer/pkg/audio/analyzers"
)

// PitchTracker produces an F0 contour. NaN marks unvoiced frames.
type PitchTracker interface {
	TrackPitch(sig *audio.Signal, p analyzers.PitchParams) (*analyzers.PitchTrack, error)
}

// IntensityTracker produces an intensity contour in dB.
type IntensityTracker interface {
	TrackIntensity(sig *audio.Signal, p analyzers.IntensityParams) (*analyzers.IntensityTrack, error)
}

// FormantTracker produces per-frame formants.
type FormantTracker interface {
	TrackFormants(sig *audio.Signal, p analyzers.FormantParams) (*analyzers.FormantTrack, error)
}

// VoiceActivitySegmenter splits a signal into silent and sounding intervals.
type VoiceActivitySegmenter interface {
	DetectSilences(sig *audio.Signal, p analyzers.SilenceParams) (*analyzers.IntervalTier, error)
}

// Collaborators bundles the four signal analyses the extractor depends on.
type Collaborators struct {
	Pitch     PitchTracker
	Intensity IntensityTracker
	Formant   FormantTracker
	Segmenter VoiceActivitySegmenter
}

// DefaultCollaborators returns the built-in analyzers.
func DefaultCollaborators(logger logging.Logger) Collaborators {
	return Collaborators{
		Pitch:     analyzers.NewYinPitchTracker(logger),
		Intensity: analyzers.NewIntensityAnalyzer(logger),
		Formant:   analyzers.NewBurgFormantTracker(logger),
		Segmenter: analyzers.NewSilenceDetector(logger),
	}
}

var (
	_ PitchTracker           = (*analyzers.YinPitchTracker)(nil)
	_ IntensityTracker       = (*analyzers.IntensityAnalyzer)(nil)
	_ FormantTracker         = (*analyzers.BurgFormantTracker)(nil)
	_ VoiceActivitySegmenter = (*analyzers.SilenceDetector)(nil)
)
