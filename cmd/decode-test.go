package cmd

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/prosody-analyzer/configs"
	"github.com/RyanBlaney/prosody-analyzer/pkg/audio"
	"github.com/RyanBlaney/prosody-analyzer/pkg/audio/transcode"
	"github.com/RyanBlaney/prosody-analyzer/pkg/prosody"
)

var (
	decodeTimeout      time.Duration
	decodeWriteWAV     string
	decodeValidateOnly bool
)

var decodeCmd = &cobra.Command{
	Use:   "decode-test [file]",
	Short: "Test the transcoder and input normalization",
	Long: `Run one input through transcoding and peak normalization without
analyzing it, and report what the analyzers would receive.

This command checks:
- ffmpeg availability and the arguments used for conversion
- Decoding of the file to mono 16 kHz PCM
- Peak normalization (duration, peak and RMS before and after)

Examples:
  # Only check that ffmpeg can be found
  prosody-analyzer decode-test --validate-only

  # Decode a recording and keep the normalized signal
  prosody-analyzer decode-test interview.m4a --write-wav normalized.wav`,
	Args: func(cmd *cobra.Command, args []string) error {
		if decodeValidateOnly {
			return nil
		}
		if len(args) != 1 {
			return fmt.Errorf("requires exactly one file path")
		}
		return nil
	},
	RunE: runDecodeTest,
}

func init() {
	rootCmd.AddCommand(decodeCmd)

	decodeCmd.Flags().DurationVar(&decodeTimeout, "timeout", 2*time.Minute,
		"operation timeout")
	decodeCmd.Flags().StringVar(&decodeWriteWAV, "write-wav", "",
		"write the normalized signal to this WAV file")
	decodeCmd.Flags().BoolVar(&decodeValidateOnly, "validate-only", false,
		"only validate transcoder availability")
}

func runDecodeTest(cmd *cobra.Command, args []string) error {
	subject := "ffmpeg"
	if len(args) > 0 {
		subject = args[0]
	}

	config, logger, err := loadAppConfig()
	if err != nil {
		return err
	}
	setColors(config.Output.Colors)

	printHeader("Decode Test", subject)

	ctx, cancel := context.WithTimeout(context.Background(), decodeTimeout)
	defer cancel()

	timer := NewPerformanceTimer()

	// Step 1: Transcoder availability
	timer.StartEvent("transcoder_validation")
	printStep(1, "Transcoder Validation")
	ffmpeg := transcode.NewFFmpeg(config.Transcoder.Path, config.TranscoderTimeout(), logger)
	resolved, err := exec.LookPath(ffmpeg.Path)
	if err != nil {
		printError("ffmpeg not found at %q: %v", ffmpeg.Path, err)
		return fmt.Errorf("transcoder unavailable: %w", err)
	}
	printSuccess("ffmpeg found: %s", resolved)
	printInfo("Timeout: %v", config.Transcoder.Timeout)
	if config.Verbose {
		printInfo("Arguments: %v", ffmpeg.Args("<input>", "<output.wav>"))
	}
	timer.EndEvent("transcoder_validation")
	fmt.Println()

	if decodeValidateOnly {
		printResult("Transcoder", true)
		return nil
	}

	// Step 2: Transcode and normalize
	timer.StartEvent("decoding")
	printStep(2, "Transcoding and Normalization")
	pre := prosody.NewPreprocessor(ffmpeg, config.PreprocessOptions(), logger)
	sig, err := pre.Normalize(ctx, prosody.FromFile(args[0]))
	if err != nil {
		printError("%v", err)
		return err
	}
	timer.EndEvent("decoding")
	printSuccess("Decoded in %v", timer.GetDuration("decoding"))
	fmt.Println()

	// Step 3: Signal summary
	printStep(3, "Normalized Signal")
	displaySignal(sig, config)
	fmt.Println()

	if decodeWriteWAV != "" {
		if err := audio.WriteWAV(decodeWriteWAV, sig); err != nil {
			printError("Failed to write %s: %v", decodeWriteWAV, err)
			return err
		}
		printSuccess("Normalized signal written to %s", decodeWriteWAV)
		fmt.Println()
	}

	if config.Verbose {
		printSectionHeader("Performance Summary")
		displayPerformanceSummary(timer)
		fmt.Println()
	}

	printSectionHeader("Test Summary")
	printResult("Transcoder", true)
	printResult("Decoding", true)
	printResult("Normalization", math.Abs(sig.Peak()-config.Audio.TargetPeak) < 1e-6 || sig.Peak() == 0)
	fmt.Printf("\n%sTotal Test Duration: %v%s\n", ColorBold, timer.GetTotalDuration(), ColorReset)

	return nil
}

func displaySignal(sig *audio.Signal, config *configs.Config) {
	printInfo("Sample Rate: %d Hz", sig.SampleRate)
	printInfo("Samples: %d", sig.Len())
	printInfo("Duration: %.3f s", sig.Duration())
	printInfo("Peak: %.5f (target %.5f)", sig.Peak(), config.Audio.TargetPeak)

	rms := sig.RMS()
	if rms > 0 {
		printInfo("RMS: %.5f (%.1f dBFS)", rms, 20*math.Log10(rms))
	} else {
		printWarning("Signal is silent")
	}
}
