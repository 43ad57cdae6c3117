package configs

import (
	"fmt"
	"strings"
	"time"

	"gonum.org/v1/plot/vg"

	"github.com/RyanBlaney/prosody-analyzer/internal/logging"
	"github.com/RyanBlaney/prosody-analyzer/pkg/audio/analyzers"
	"github.com/RyanBlaney/prosody-analyzer/pkg/prosody"
	"github.com/RyanBlaney/prosody-analyzer/pkg/prosody/render"
)

// LoggingOptions returns the logger settings. Verbose forces debug.
func (c *Config) LoggingOptions() logging.Options {
	level := c.LogLevel
	if c.Verbose {
		level = "debug"
	}
	return logging.Options{Level: level, Format: c.LogFormat}
}

// PreprocessOptions returns the normalization settings.
func (c *Config) PreprocessOptions() prosody.PreprocessOptions {
	return prosody.PreprocessOptions{
		TempDir:    c.Audio.TempDir,
		TargetPeak: c.Audio.TargetPeak,
	}
}

// ExtractorConfig converts the analysis section.
func (c *Config) ExtractorConfig() prosody.ExtractorConfig {
	a := c.Analysis
	return prosody.ExtractorConfig{
		Pitch: analyzers.PitchParams{
			TimeStep:         a.Pitch.TimeStep,
			Floor:            a.Pitch.Floor,
			Ceiling:          a.Pitch.Ceiling,
			VoicingThreshold: a.Pitch.VoicingThreshold,
			SilenceThreshold: a.Pitch.SilenceThreshold,
		},
		Intensity: analyzers.IntensityParams{
			MinPitch:     a.Intensity.MinPitch,
			TimeStep:     a.Intensity.TimeStep,
			SubtractMean: a.Intensity.SubtractMean,
		},
		Formant: analyzers.FormantParams{
			TimeStep:     a.Formant.TimeStep,
			MaxFormants:  a.Formant.MaxFormants,
			MaxFormantHz: a.Formant.MaxFormantHz,
			WindowLength: a.Formant.WindowLength,
			PreEmphasis:  a.Formant.PreEmphasis,
		},
		Silence: analyzers.SilenceParams{
			MinPitch:            a.Silence.MinPitch,
			TimeStep:            a.Silence.TimeStep,
			ThresholdDB:         a.Silence.ThresholdDB,
			MinSilentDuration:   a.Silence.MinSilentDuration,
			MinSoundingDuration: a.Silence.MinSoundingDuration,
			SilentLabel:         a.Silence.SilentLabel,
			SoundingLabel:       a.Silence.SoundingLabel,
		},
		BandwidthStep: a.BandwidthStep,
	}
}

// Baselines converts the configured baselines. Feature names are matched
// case-insensitively because viper lower-cases map keys.
func (c *Config) Baselines() (prosody.Baselines, error) {
	out := prosody.Baselines{Male: prosody.Baseline{}, Female: prosody.Baseline{}}
	for gender, stats := range c.Scoring.Baselines {
		var target prosody.Baseline
		switch strings.ToLower(gender) {
		case "male":
			target = out.Male
		case "female":
			target = out.Female
		default:
			return prosody.Baselines{}, fmt.Errorf("unknown baseline gender %q", gender)
		}
		for name, stat := range stats {
			f, err := prosody.ParseFeatureName(name)
			if err != nil {
				return prosody.Baselines{}, fmt.Errorf("baseline %s: %w", gender, err)
			}
			target[f] = stat
		}
	}
	if err := out.Validate(); err != nil {
		return prosody.Baselines{}, err
	}
	return out, nil
}

// Model builds the scoring model.
func (c *Config) Model() (prosody.Model, error) {
	pw, err := prosody.ParsePauseWeighting(c.Scoring.PauseWeighting)
	if err != nil {
		return prosody.Model{}, err
	}
	baselines, err := c.Baselines()
	if err != nil {
		return prosody.Model{}, err
	}
	return prosody.Model{
		Baselines:       baselines,
		Weights:         prosody.DefaultWeightVectors(pw),
		GenderThreshold: c.Scoring.GenderThreshold,
	}, nil
}

// ReportFeatures parses the reported feature list.
func (c *Config) ReportFeatures() ([]prosody.FeatureName, error) {
	out := make([]prosody.FeatureName, 0, len(c.Output.Features))
	for _, name := range c.Output.Features {
		f, err := prosody.ParseFeatureName(name)
		if err != nil {
			return nil, err
		}
		if !f.IsScored() {
			return nil, fmt.Errorf("feature %q cannot be reported", name)
		}
		out = append(out, f)
	}
	return out, nil
}

// RenderOptions returns the plot size.
func (c *Config) RenderOptions() render.Options {
	return render.Options{
		Width:  vg.Length(c.Output.PlotWidth) * vg.Inch,
		Height: vg.Length(c.Output.PlotHeight) * vg.Inch,
	}
}

// TranscoderTimeout returns the per-file decoder bound.
func (c *Config) TranscoderTimeout() time.Duration {
	return c.Transcoder.Timeout
}
