package audio

const (
	// DefaultSampleRate is the rate every analysis runs at.
	DefaultSampleRate = 16000

	// DefaultTargetPeak is the peak amplitude signals are scaled to before
	// analysis (about -1 dBFS).
	DefaultTargetPeak = 0.89125
)

// LoadConfig controls how decoded PCM is turned into a Signal. Multichannel
// audio is always averaged down to mono.
type LoadConfig struct {
	// ExpectedSampleRate rejects decoded audio at any other rate when non-zero.
	ExpectedSampleRate int `json:"expected_sample_rate"`
}

// DefaultLoadConfig returns the settings used for transcoder output.
func DefaultLoadConfig() LoadConfig {
	return LoadConfig{
		ExpectedSampleRate: DefaultSampleRate,
	}
}
