package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/prosody-analyzer/pkg/prosody"
)

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose      bool   `mapstructure:"verbose"`
	LogLevel     string `mapstructure:"log_level"`
	LogFormat    string `mapstructure:"log_format"`
	OutputFormat string `mapstructure:"output_format"`
	ConfigDir    string `mapstructure:"config_dir"`
	DataDir      string `mapstructure:"data_dir"`

	// Input loading and normalization
	Audio AudioConfig `mapstructure:"audio"`

	// External media decoder
	Transcoder TranscoderConfig `mapstructure:"transcoder"`

	// Signal analysis parameters
	Analysis AnalysisConfig `mapstructure:"analysis"`

	// Baselines, weights and classification
	Scoring ScoringConfig `mapstructure:"scoring"`

	// Output configuration
	Output OutputConfig `mapstructure:"output"`

	// Multi-file runs
	Batch BatchConfig `mapstructure:"batch"`

	// HTTP service
	Server ServerConfig `mapstructure:"server"`

	// Analysis history
	Store StoreConfig `mapstructure:"store"`
}

// AudioConfig contains input normalization settings
type AudioConfig struct {
	SampleRate int     `mapstructure:"sample_rate"` // default rate of sample buffers
	TargetPeak float64 `mapstructure:"target_peak"`
	TempDir    string  `mapstructure:"temp_dir"`
}

// TranscoderConfig contains ffmpeg settings
type TranscoderConfig struct {
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AnalysisConfig groups the parameters of the four signal analyzers
type AnalysisConfig struct {
	Pitch         PitchConfig     `mapstructure:"pitch"`
	Intensity     IntensityConfig `mapstructure:"intensity"`
	Formant       FormantConfig   `mapstructure:"formant"`
	Silence       SilenceConfig   `mapstructure:"silence"`
	BandwidthStep float64         `mapstructure:"bandwidth_step"`
}

// PitchConfig contains pitch tracking settings
type PitchConfig struct {
	TimeStep         float64 `mapstructure:"time_step"`
	Floor            float64 `mapstructure:"floor"`
	Ceiling          float64 `mapstructure:"ceiling"`
	VoicingThreshold float64 `mapstructure:"voicing_threshold"`
	SilenceThreshold float64 `mapstructure:"silence_threshold"`
}

// IntensityConfig contains intensity tracking settings
type IntensityConfig struct {
	MinPitch     float64 `mapstructure:"min_pitch"`
	TimeStep     float64 `mapstructure:"time_step"`
	SubtractMean bool    `mapstructure:"subtract_mean"`
}

// FormantConfig contains formant tracking settings
type FormantConfig struct {
	TimeStep     float64 `mapstructure:"time_step"`
	MaxFormants  int     `mapstructure:"max_formants"`
	MaxFormantHz float64 `mapstructure:"max_formant_hz"`
	WindowLength float64 `mapstructure:"window_length"`
	PreEmphasis  float64 `mapstructure:"pre_emphasis"`
}

// SilenceConfig contains pause detection settings
type SilenceConfig struct {
	MinPitch            float64 `mapstructure:"min_pitch"`
	TimeStep            float64 `mapstructure:"time_step"`
	ThresholdDB         float64 `mapstructure:"threshold_db"`
	MinSilentDuration   float64 `mapstructure:"min_silent_duration"`
	MinSoundingDuration float64 `mapstructure:"min_sounding_duration"`
	SilentLabel         string  `mapstructure:"silent_label"`
	SoundingLabel       string  `mapstructure:"sounding_label"`
}

// ScoringConfig contains the scoring model. Baselines are keyed by gender
// ("male", "female") and feature name.
type ScoringConfig struct {
	PauseWeighting  string                                     `mapstructure:"pause_weighting"`
	GenderThreshold float64                                    `mapstructure:"gender_threshold"`
	Baselines       map[string]map[string]prosody.BaselineStat `mapstructure:"baselines"`
}

// OutputConfig contains output formatting settings
type OutputConfig struct {
	Precision  int      `mapstructure:"precision"`
	Colors     bool     `mapstructure:"colors"`
	Features   []string `mapstructure:"features"`    // reported features
	PlotWidth  float64  `mapstructure:"plot_width"`  // inches, 0 = automatic
	PlotHeight float64  `mapstructure:"plot_height"` // inches, 0 = automatic
}

// BatchConfig contains multi-file settings
type BatchConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// ServerConfig contains HTTP service settings
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
}

// StoreConfig contains analysis history settings
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"` // SQLite database file
}

// LoadConfig decodes the configuration held by v.
func LoadConfig(v *viper.Viper) (*Config, error) {
	config := &Config{}

	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(config, hooks); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return config, nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	switch strings.ToLower(config.OutputFormat) {
	case "json", "yaml", "csv", "table":
	default:
		return fmt.Errorf("unsupported output format %q", config.OutputFormat)
	}

	if config.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio sample rate must be positive")
	}

	if config.Audio.TargetPeak <= 0 || config.Audio.TargetPeak > 1 {
		return fmt.Errorf("target peak must be in (0, 1]")
	}

	if config.Transcoder.Timeout < 0 {
		return fmt.Errorf("transcoder timeout cannot be negative")
	}

	if config.Analysis.Pitch.Floor <= 0 || config.Analysis.Pitch.Ceiling <= config.Analysis.Pitch.Floor {
		return fmt.Errorf("pitch range must satisfy 0 < floor < ceiling")
	}

	if v := config.Analysis.Pitch.VoicingThreshold; v <= 0 || v >= 1 {
		return fmt.Errorf("pitch voicing threshold must be in (0, 1)")
	}

	if config.Analysis.Pitch.TimeStep <= 0 || config.Analysis.Formant.TimeStep <= 0 || config.Analysis.BandwidthStep <= 0 {
		return fmt.Errorf("analysis time steps must be positive")
	}

	if config.Analysis.Formant.MaxFormants < 1 {
		return fmt.Errorf("at least one formant is required")
	}

	if config.Analysis.Silence.SilentLabel == "" || config.Analysis.Silence.SilentLabel == config.Analysis.Silence.SoundingLabel {
		return fmt.Errorf("silence labels must be distinct and non-empty")
	}

	if _, err := prosody.ParsePauseWeighting(config.Scoring.PauseWeighting); err != nil {
		return err
	}

	if config.Scoring.GenderThreshold <= 0 {
		return fmt.Errorf("gender threshold must be positive")
	}

	if _, err := config.Baselines(); err != nil {
		return err
	}

	if _, err := config.ReportFeatures(); err != nil {
		return err
	}

	if config.Output.Precision < 0 {
		return fmt.Errorf("output precision cannot be negative")
	}

	if config.Batch.Concurrency < 1 {
		return fmt.Errorf("batch concurrency must be at least 1")
	}

	if config.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server upload limit must be positive")
	}

	return nil
}
