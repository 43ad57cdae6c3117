package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/prosody-analyzer/pkg/prosody"
)

// configTestCmd represents the config test command
var configTestCmd = &cobra.Command{
	Use:   "config-test",
	Short: "Test and display all configuration values",
	Long: `Test configuration loading and display all values to verify proper parsing.

This command loads the configuration, validates it and displays every value
in a structured format, including the resolved scoring model.

Examples:
  # Test with default config file
  prosody-analyzer config-test

  # Test with specific config file
  prosody-analyzer --config /path/to/config.yaml config-test`,
	Args: cobra.NoArgs,
	RunE: runConfigTest,
}

func init() {
	rootCmd.AddCommand(configTestCmd)
}

func runConfigTest(cmd *cobra.Command, args []string) error {
	config, _, err := loadAppConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setColors(config.Output.Colors)

	fmt.Println("PROSODY ANALYZER CONFIGURATION TEST")
	fmt.Println(strings.Repeat("=", 80))

	printSection("APPLICATION SETTINGS")
	printKeyValue("Verbose", fmt.Sprintf("%t", config.Verbose))
	printKeyValue("Log Level", config.LogLevel)
	printKeyValue("Log Format", config.LogFormat)
	printKeyValue("Output Format", config.OutputFormat)
	printKeyValue("Config Directory", config.ConfigDir)
	printKeyValue("Data Directory", config.DataDir)

	printSection("AUDIO CONFIGURATION")
	printKeyValue("Buffer Sample Rate", fmt.Sprintf("%d Hz", config.Audio.SampleRate))
	printKeyValue("Target Peak", fmt.Sprintf("%.5f", config.Audio.TargetPeak))
	printKeyValue("Temp Directory", config.Audio.TempDir)

	printSection("TRANSCODER CONFIGURATION")
	printKeyValue("Path", config.Transcoder.Path)
	printKeyValue("Timeout", config.Transcoder.Timeout.String())

	a := config.Analysis
	printSection("ANALYSIS CONFIGURATION")

	printSubsection("Pitch")
	printKeyValue("  Time Step", fmt.Sprintf("%g s", a.Pitch.TimeStep))
	printKeyValue("  Range", fmt.Sprintf("%g - %g Hz", a.Pitch.Floor, a.Pitch.Ceiling))
	printKeyValue("  Voicing Threshold", fmt.Sprintf("%g", a.Pitch.VoicingThreshold))
	printKeyValue("  Silence Threshold", fmt.Sprintf("%g", a.Pitch.SilenceThreshold))

	printSubsection("Intensity")
	printKeyValue("  Min Pitch", fmt.Sprintf("%g Hz", a.Intensity.MinPitch))
	printKeyValue("  Time Step", fmt.Sprintf("%g s", a.Intensity.TimeStep))
	printKeyValue("  Subtract Mean", fmt.Sprintf("%t", a.Intensity.SubtractMean))

	printSubsection("Formant")
	printKeyValue("  Time Step", fmt.Sprintf("%g s", a.Formant.TimeStep))
	printKeyValue("  Max Formants", fmt.Sprintf("%d", a.Formant.MaxFormants))
	printKeyValue("  Max Formant", fmt.Sprintf("%g Hz", a.Formant.MaxFormantHz))
	printKeyValue("  Window Length", fmt.Sprintf("%g s", a.Formant.WindowLength))
	printKeyValue("  Pre-emphasis From", fmt.Sprintf("%g Hz", a.Formant.PreEmphasis))
	printKeyValue("  Bandwidth Step", fmt.Sprintf("%g s", a.BandwidthStep))

	printSubsection("Silence")
	printKeyValue("  Min Pitch", fmt.Sprintf("%g Hz", a.Silence.MinPitch))
	printKeyValue("  Time Step", fmt.Sprintf("%g s", a.Silence.TimeStep))
	printKeyValue("  Threshold", fmt.Sprintf("%g dB", a.Silence.ThresholdDB))
	printKeyValue("  Min Silent Duration", fmt.Sprintf("%g s", a.Silence.MinSilentDuration))
	printKeyValue("  Min Sounding Duration", fmt.Sprintf("%g s", a.Silence.MinSoundingDuration))
	printKeyValue("  Labels", fmt.Sprintf("%q / %q", a.Silence.SilentLabel, a.Silence.SoundingLabel))

	printSection("SCORING CONFIGURATION")
	printKeyValue("Pause Weighting", config.Scoring.PauseWeighting)
	printKeyValue("Gender Threshold", fmt.Sprintf("%g Hz", config.Scoring.GenderThreshold))

	model, err := config.Model()
	if err != nil {
		return fmt.Errorf("failed to resolve scoring model: %w", err)
	}
	for _, gender := range []string{"male", "female"} {
		printSubsection("Baselines " + strings.ToUpper(gender))
		stats := config.Scoring.Baselines[gender]
		names := make([]string, 0, len(stats))
		for name := range stats {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			s := stats[name]
			printKeyValue("  "+name, fmt.Sprintf("mean %g, std %g", s.Mean, s.Std))
		}
	}

	printSubsection("Weights")
	for _, vector := range model.Weights {
		printKeyValue("  "+vector.Name, "")
		for _, feature := range prosody.ScoredFeatures {
			printKeyValue("    "+feature.String(), fmt.Sprintf("%+.3f", vector.Weights[feature]))
		}
	}

	printSection("OUTPUT CONFIGURATION")
	printKeyValue("Precision", fmt.Sprintf("%d", config.Output.Precision))
	printKeyValue("Colors", fmt.Sprintf("%t", config.Output.Colors))
	printKeyValue("Features", fmt.Sprintf("(%d) %v", len(config.Output.Features), config.Output.Features))
	printKeyValue("Plot Size", fmt.Sprintf("%g x %g in", config.Output.PlotWidth, config.Output.PlotHeight))

	printSection("BATCH CONFIGURATION")
	printKeyValue("Concurrency", fmt.Sprintf("%d", config.Batch.Concurrency))

	printSection("SERVER CONFIGURATION")
	printKeyValue("Address", config.Server.Address)
	printKeyValue("Read Timeout", config.Server.ReadTimeout.String())
	printKeyValue("Write Timeout", config.Server.WriteTimeout.String())
	printKeyValue("Shutdown Timeout", config.Server.ShutdownTimeout.String())
	printKeyValue("Max Upload", fmt.Sprintf("%d bytes", config.Server.MaxUploadBytes))

	printSection("STORE CONFIGURATION")
	printKeyValue("Enabled", fmt.Sprintf("%t", config.Store.Enabled))
	printKeyValue("Path", config.Store.Path)

	fmt.Println()
	fmt.Println(ColorGreen + strings.Repeat("-", 80))
	fmt.Println("CONFIGURATION TEST COMPLETED SUCCESSFULLY")
	fmt.Printf("Config file: %s\n", getConfigFilePath())
	fmt.Println(strings.Repeat("=", 80) + ColorReset)

	return nil
}

func getConfigFilePath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return "(none, built-in defaults)"
}
