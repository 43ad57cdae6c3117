package configs

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/RyanBlaney/prosody-analyzer/pkg/audio"
	"github.com/RyanBlaney/prosody-analyzer/pkg/audio/analyzers"
	"github.com/RyanBlaney/prosody-analyzer/pkg/prosody"
)

// AppName names the config and data directories.
const AppName = "prosody-analyzer"

// SetDefaults sets default configuration values for all components. Keys
// that already hold a value in any viper source are left alone.
func SetDefaults(v *viper.Viper) {
	def := GetDefaultConfig()

	// Application defaults
	if !v.IsSet("log_level") {
		v.SetDefault("log_level", def.LogLevel)
	}
	if !v.IsSet("log_format") {
		v.SetDefault("log_format", def.LogFormat)
	}
	if !v.IsSet("output_format") {
		v.SetDefault("output_format", def.OutputFormat)
	}
	if !v.IsSet("config_dir") {
		v.SetDefault("config_dir", def.ConfigDir)
	}
	if !v.IsSet("data_dir") {
		v.SetDefault("data_dir", def.DataDir)
	}

	// Audio defaults
	if !v.IsSet("audio.sample_rate") {
		v.SetDefault("audio.sample_rate", def.Audio.SampleRate)
	}
	if !v.IsSet("audio.target_peak") {
		v.SetDefault("audio.target_peak", def.Audio.TargetPeak)
	}
	if !v.IsSet("audio.temp_dir") {
		v.SetDefault("audio.temp_dir", def.Audio.TempDir)
	}

	// Transcoder defaults
	if !v.IsSet("transcoder.path") {
		v.SetDefault("transcoder.path", def.Transcoder.Path)
	}
	if !v.IsSet("transcoder.timeout") {
		v.SetDefault("transcoder.timeout", def.Transcoder.Timeout)
	}

	setAnalysisDefaults(v, def.Analysis)
	setScoringDefaults(v, def.Scoring)

	// Output defaults
	if !v.IsSet("output.precision") {
		v.SetDefault("output.precision", def.Output.Precision)
	}
	if !v.IsSet("output.colors") {
		v.SetDefault("output.colors", def.Output.Colors)
	}
	if !v.IsSet("output.features") {
		v.SetDefault("output.features", def.Output.Features)
	}
	if !v.IsSet("output.plot_width") {
		v.SetDefault("output.plot_width", def.Output.PlotWidth)
	}
	if !v.IsSet("output.plot_height") {
		v.SetDefault("output.plot_height", def.Output.PlotHeight)
	}

	// Batch defaults
	if !v.IsSet("batch.concurrency") {
		v.SetDefault("batch.concurrency", def.Batch.Concurrency)
	}

	// Server defaults
	if !v.IsSet("server.address") {
		v.SetDefault("server.address", def.Server.Address)
	}
	if !v.IsSet("server.read_timeout") {
		v.SetDefault("server.read_timeout", def.Server.ReadTimeout)
	}
	if !v.IsSet("server.write_timeout") {
		v.SetDefault("server.write_timeout", def.Server.WriteTimeout)
	}
	if !v.IsSet("server.shutdown_timeout") {
		v.SetDefault("server.shutdown_timeout", def.Server.ShutdownTimeout)
	}
	if !v.IsSet("server.max_upload_bytes") {
		v.SetDefault("server.max_upload_bytes", def.Server.MaxUploadBytes)
	}

	// Store defaults
	if !v.IsSet("store.enabled") {
		v.SetDefault("store.enabled", def.Store.Enabled)
	}
	if !v.IsSet("store.path") {
		v.SetDefault("store.path", def.Store.Path)
	}
}

func setAnalysisDefaults(v *viper.Viper, a AnalysisConfig) {
	defaults := map[string]any{
		"analysis.pitch.time_step":               a.Pitch.TimeStep,
		"analysis.pitch.floor":                   a.Pitch.Floor,
		"analysis.pitch.ceiling":                 a.Pitch.Ceiling,
		"analysis.pitch.voicing_threshold":       a.Pitch.VoicingThreshold,
		"analysis.pitch.silence_threshold":       a.Pitch.SilenceThreshold,
		"analysis.intensity.min_pitch":           a.Intensity.MinPitch,
		"analysis.intensity.time_step":           a.Intensity.TimeStep,
		"analysis.intensity.subtract_mean":       a.Intensity.SubtractMean,
		"analysis.formant.time_step":             a.Formant.TimeStep,
		"analysis.formant.max_formants":          a.Formant.MaxFormants,
		"analysis.formant.max_formant_hz":        a.Formant.MaxFormantHz,
		"analysis.formant.window_length":         a.Formant.WindowLength,
		"analysis.formant.pre_emphasis":          a.Formant.PreEmphasis,
		"analysis.silence.min_pitch":             a.Silence.MinPitch,
		"analysis.silence.time_step":             a.Silence.TimeStep,
		"analysis.silence.threshold_db":          a.Silence.ThresholdDB,
		"analysis.silence.min_silent_duration":   a.Silence.MinSilentDuration,
		"analysis.silence.min_sounding_duration": a.Silence.MinSoundingDuration,
		"analysis.silence.silent_label":          a.Silence.SilentLabel,
		"analysis.silence.sounding_label":        a.Silence.SoundingLabel,
		"analysis.bandwidth_step":                a.BandwidthStep,
	}
	for key, value := range defaults {
		if !v.IsSet(key) {
			v.SetDefault(key, value)
		}
	}
}

// setScoringDefaults seeds every baseline statistic individually so a config
// file may override a single mean or std.
func setScoringDefaults(v *viper.Viper, s ScoringConfig) {
	if !v.IsSet("scoring.pause_weighting") {
		v.SetDefault("scoring.pause_weighting", s.PauseWeighting)
	}
	if !v.IsSet("scoring.gender_threshold") {
		v.SetDefault("scoring.gender_threshold", s.GenderThreshold)
	}
	for gender, stats := range s.Baselines {
		for feature, stat := range stats {
			key := "scoring.baselines." + gender + "." + strings.ToLower(feature)
			if !v.IsSet(key + ".mean") {
				v.SetDefault(key+".mean", stat.Mean)
			}
			if !v.IsSet(key + ".std") {
				v.SetDefault(key+".std", stat.Std)
			}
		}
	}
}

// GetDefaultConfig returns a configuration with all default values
func GetDefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".local", "share", AppName)

	return &Config{
		// Application settings defaults
		Verbose:      false,
		LogLevel:     "info",
		LogFormat:    "console",
		OutputFormat: "table",
		ConfigDir:    filepath.Join(home, ".config", AppName),
		DataDir:      dataDir,

		Audio:      GetDefaultAudioConfig(),
		Transcoder: GetDefaultTranscoderConfig(),
		Analysis:   GetDefaultAnalysisConfig(),
		Scoring:    GetDefaultScoringConfig(),
		Output:     GetDefaultOutputConfig(),
		Batch:      BatchConfig{Concurrency: 4},
		Server:     GetDefaultServerConfig(),
		Store: StoreConfig{
			Enabled: false,
			Path:    filepath.Join(dataDir, "analyses.db"),
		},
	}
}

// GetDefaultAudioConfig returns default input normalization settings
func GetDefaultAudioConfig() AudioConfig {
	return AudioConfig{
		SampleRate: 16000,
		TargetPeak: audio.DefaultTargetPeak,
		TempDir:    os.TempDir(),
	}
}

// GetDefaultTranscoderConfig returns default ffmpeg settings
func GetDefaultTranscoderConfig() TranscoderConfig {
	return TranscoderConfig{
		Path:    "ffmpeg",
		Timeout: 2 * time.Minute,
	}
}

// GetDefaultAnalysisConfig returns the analyzer parameters used for the
// reference baselines.
func GetDefaultAnalysisConfig() AnalysisConfig {
	pitch := analyzers.DefaultPitchParams()
	intensity := analyzers.DefaultIntensityParams()
	formant := analyzers.DefaultFormantParams()
	silence := analyzers.DefaultSilenceParams()

	return AnalysisConfig{
		Pitch: PitchConfig{
			TimeStep:         pitch.TimeStep,
			Floor:            pitch.Floor,
			Ceiling:          pitch.Ceiling,
			VoicingThreshold: pitch.VoicingThreshold,
			SilenceThreshold: pitch.SilenceThreshold,
		},
		Intensity: IntensityConfig{
			MinPitch:     intensity.MinPitch,
			TimeStep:     intensity.TimeStep,
			SubtractMean: intensity.SubtractMean,
		},
		Formant: FormantConfig{
			TimeStep:     formant.TimeStep,
			MaxFormants:  formant.MaxFormants,
			MaxFormantHz: formant.MaxFormantHz,
			WindowLength: formant.WindowLength,
			PreEmphasis:  formant.PreEmphasis,
		},
		Silence: SilenceConfig{
			MinPitch:            silence.MinPitch,
			TimeStep:            silence.TimeStep,
			ThresholdDB:         silence.ThresholdDB,
			MinSilentDuration:   silence.MinSilentDuration,
			MinSoundingDuration: silence.MinSoundingDuration,
			SilentLabel:         silence.SilentLabel,
			SoundingLabel:       silence.SoundingLabel,
		},
		BandwidthStep: prosody.DefaultExtractorConfig().BandwidthStep,
	}
}

// GetDefaultScoringConfig returns the built-in baselines with pause
// weighting disabled.
func GetDefaultScoringConfig() ScoringConfig {
	base := prosody.DefaultBaselines()
	toMap := func(b prosody.Baseline) map[string]prosody.BaselineStat {
		out := make(map[string]prosody.BaselineStat, len(b))
		for f, stat := range b {
			out[string(f)] = stat
		}
		return out
	}

	return ScoringConfig{
		PauseWeighting:  string(prosody.PauseWeightingDisabled),
		GenderThreshold: prosody.DefaultGenderThreshold,
		Baselines: map[string]map[string]prosody.BaselineStat{
			"male":   toMap(base.Male),
			"female": toMap(base.Female),
		},
	}
}

// GetDefaultOutputConfig returns default output settings
func GetDefaultOutputConfig() OutputConfig {
	features := make([]string, 0, len(prosody.ScoredFeatures))
	for _, f := range prosody.ScoredFeatures {
		features = append(features, string(f))
	}
	return OutputConfig{
		Precision: 4,
		Colors:    true,
		Features:  features,
	}
}

// GetDefaultServerConfig returns default HTTP service settings
func GetDefaultServerConfig() ServerConfig {
	return ServerConfig{
		Address:         ":8080",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    2 * time.Minute,
		ShutdownTimeout: 10 * time.Second,
		MaxUploadBytes:  50 << 20,
	}
}

// GetDefaultOutputConfigForFormat returns output configuration optimized for specific format
func GetDefaultOutputConfigForFormat(format string) OutputConfig {
	config := GetDefaultOutputConfig()

	switch format {
	case "json", "yaml":
		config.Colors = false
		config.Precision = 6
	case "table":
		config.Colors = true
		config.Precision = 2
	}

	return config
}

// FineAnalysisConfig halves the frame steps of the pitch and formant
// trackers for short recordings.
func FineAnalysisConfig() AnalysisConfig {
	config := GetDefaultAnalysisConfig()
	config.Pitch.TimeStep = 0.01
	config.Formant.TimeStep = 0.01
	config.BandwidthStep = 0.005
	return config
}
