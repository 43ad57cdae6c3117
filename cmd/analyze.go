package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/prosody-analyzer/internal/app"
)

var (
	analyzeOutputFile     string
	analyzeManifest       string
	analyzePlot           string
	analyzeFeatures       []string
	analyzePauseWeighting string
	analyzeConcurrency    int
	analyzeQuiet          bool
	analyzeSave           bool
	analyzeExampleOut     string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file...]",
	Short: "Extract, score and report prosodic features of recordings",
	Long: `Analyze one or more speech recordings.

Every input is transcoded to mono 16 kHz, peak normalized and measured. The
report lists the classified gender, the raw features, the composite scores
and the percentile of each reported feature on its baseline distribution.

A failed input is reported with its error and does not stop the batch; the
command fails only when every input failed.

Examples:
  # Analyze a single recording
  prosody-analyzer analyze interview.mp3

  # Analyze a batch described by a manifest, four at a time, as JSON
  prosody-analyzer analyze --manifest batch.yaml --concurrency 4 -o json

  # Write a distribution plot and keep the results in the history store
  prosody-analyzer analyze --plot dist.png --save candidate.wav

  # Score with the legacy pause weighting
  prosody-analyzer analyze --pause-weighting legacy candidate.wav

  # Write an example manifest
  prosody-analyzer analyze --generate-manifest batch.yaml`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeOutputFile, "output-file", "f", "",
		"write the report to a file instead of stdout")
	analyzeCmd.Flags().StringVarP(&analyzeManifest, "manifest", "m", "",
		"YAML or JSON file listing inputs")
	analyzeCmd.Flags().StringVar(&analyzePlot, "plot", "",
		"write a PNG distribution plot (one per input, numbered, for batches)")
	analyzeCmd.Flags().StringSliceVar(&analyzeFeatures, "features", nil,
		"features to report (comma-separated, default all scored features)")
	analyzeCmd.Flags().StringVar(&analyzePauseWeighting, "pause-weighting", "",
		"pause weighting in composite scores (disabled, legacy)")
	analyzeCmd.Flags().IntVarP(&analyzeConcurrency, "concurrency", "c", 0,
		"maximum concurrent analyses (default from config)")
	analyzeCmd.Flags().BoolVarP(&analyzeQuiet, "quiet", "q", false,
		"suppress progress output")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false,
		"store the sessions in the history database")
	analyzeCmd.Flags().StringVar(&analyzeExampleOut, "generate-manifest", "",
		"write an example manifest to the given path and exit")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzeExampleOut != "" {
		if err := app.GenerateExampleManifest(analyzeExampleOut); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Example manifest written to %s\n", analyzeExampleOut)
		return nil
	}
	if len(args) == 0 && analyzeManifest == "" {
		return fmt.Errorf("requires at least one file or --manifest")
	}

	config, logger, err := loadAppConfig()
	if err != nil {
		return err
	}

	appCtx := &app.Context{
		ManifestFile:   analyzeManifest,
		OutputFile:     analyzeOutputFile,
		OutputFormat:   config.OutputFormat,
		PlotFile:       analyzePlot,
		Features:       analyzeFeatures,
		PauseWeighting: analyzePauseWeighting,
		Concurrency:    analyzeConcurrency,
		Verbose:        config.Verbose,
		Quiet:          analyzeQuiet,
		Save:           analyzeSave,
		Logger:         logger,
		Config:         config,
	}

	analyzer, err := app.NewApp(appCtx)
	if err != nil {
		return err
	}
	defer analyzer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return analyzer.Run(ctx, args)
}
