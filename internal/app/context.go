package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sourcegraph/conc/iter"

	"github.com/RyanBlaney/prosody-analyzer/configs"
	"github.com/RyanBlaney/prosody-analyzer/internal/logging"
	"github.com/RyanBlaney/prosody-analyzer/internal/output"
	"github.com/RyanBlaney/prosody-analyzer/internal/store"
	"github.com/RyanBlaney/prosody-analyzer/pkg/audio/transcode"
	"github.com/RyanBlaney/prosody-analyzer/pkg/prosody"
	"github.com/RyanBlaney/prosody-analyzer/pkg/prosody/render"
)

// Context holds the application context and configuration
type Context struct {
	// CLI arguments
	ManifestFile   string // batch manifest (optional)
	OutputFile     string
	OutputFormat   string
	PlotFile       string
	Features       []string
	PauseWeighting string
	Concurrency    int
	Verbose        bool
	Quiet          bool
	Save           bool // persist sessions in the store

	// Runtime context
	Logger     logging.Logger
	Config     *configs.Config
	Transcoder transcode.Transcoder // nil selects ffmpeg
	Stdout     io.Writer            // nil selects os.Stdout
}

// App handles the analysis application lifecycle
type App struct {
	ctx      *Context
	config   *configs.Config
	pipeline *prosody.Pipeline
	features []prosody.FeatureName
	store    *store.Store
	logger   logging.Logger
}

// NewApp creates a new analysis application from ctx. ctx.Config must hold
// the loaded configuration; CLI arguments override it.
func NewApp(ctx *Context) (*App, error) {
	if ctx.Config == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	config := mergeConfig(ctx.Config, ctx)
	if err := configs.ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	ctx.Config = config

	logger := logging.OrDefault(ctx.Logger)
	ctx.Logger = logger

	pipeline, err := BuildPipeline(config, ctx.Transcoder, logger)
	if err != nil {
		return nil, err
	}

	features, err := config.ReportFeatures()
	if err != nil {
		return nil, err
	}

	app := &App{
		ctx:      ctx,
		config:   config,
		pipeline: pipeline,
		features: features,
		logger:   logger.WithFields(logging.Fields{"component": "app"}),
	}

	if ctx.Save || config.Store.Enabled {
		app.store, err = store.Open(config.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open session store: %w", err)
		}
	}

	app.logger.Debug("Analysis application initialized", logging.Fields{
		"output_format":   config.OutputFormat,
		"pause_weighting": config.Scoring.PauseWeighting,
		"concurrency":     config.Batch.Concurrency,
		"store_enabled":   app.store != nil,
	})

	return app, nil
}

// mergeConfig applies the CLI overrides to a copy of base.
func mergeConfig(base *configs.Config, ctx *Context) *configs.Config {
	merged := *base
	if ctx.OutputFormat != "" {
		merged.OutputFormat = ctx.OutputFormat
	}
	if len(ctx.Features) > 0 {
		merged.Output.Features = ctx.Features
	}
	if ctx.PauseWeighting != "" {
		merged.Scoring.PauseWeighting = ctx.PauseWeighting
	}
	if ctx.Concurrency > 0 {
		merged.Batch.Concurrency = ctx.Concurrency
	}
	if ctx.Verbose {
		merged.Verbose = true
	}
	return &merged
}

// Pipeline returns the pipeline built from the configuration.
func (app *App) Pipeline() *prosody.Pipeline {
	return app.pipeline
}

// Close releases the session store.
func (app *App) Close() error {
	if app.store == nil {
		return nil
	}
	return app.store.Close()
}

// Run analyzes the given files and the manifest entries, then writes the
// report. It fails only when every input failed.
func (app *App) Run(ctx context.Context, paths []string) error {
	if app.ctx.ManifestFile != "" {
		manifest, err := LoadManifest(app.ctx.ManifestFile)
		if err != nil {
			return fmt.Errorf("failed to load manifest: %w", err)
		}
		paths = append(paths, manifest.Paths()...)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no input files given")
	}

	inputs := make([]prosody.Input, len(paths))
	for i, p := range paths {
		inputs[i] = prosody.FromFile(p)
	}

	report := app.AnalyzeAll(ctx, inputs)

	if app.ctx.PlotFile != "" {
		if err := app.writePlots(report); err != nil {
			return fmt.Errorf("failed to write plots: %w", err)
		}
	}

	if err := app.outputResults(report); err != nil {
		return fmt.Errorf("failed to output results: %w", err)
	}
	if app.ctx.OutputFile != "" && !app.ctx.Quiet {
		fmt.Fprintf(os.Stderr, "Results written to %s (%d succeeded, %d failed)\n",
			app.ctx.OutputFile, report.Succeeded, report.Failed)
	}

	if report.Succeeded == 0 {
		return fmt.Errorf("all %d analyses failed", report.Failed)
	}
	return nil
}

// AnalyzeAll runs the pipeline over inputs with bounded concurrency. Results
// keep input order.
func (app *App) AnalyzeAll(ctx context.Context, inputs []prosody.Input) *Report {
	start := time.Now()

	mapper := iter.Mapper[prosody.Input, Result]{MaxGoroutines: app.config.Batch.Concurrency}
	results := mapper.Map(inputs, func(in *prosody.Input) Result {
		return app.analyzeOne(ctx, *in)
	})

	report := &Report{
		GeneratedAt: time.Now().UTC(),
		Results:     results,
		precision:   app.config.Output.Precision,
	}
	for _, r := range results {
		if r.Error != "" {
			report.Failed++
		} else {
			report.Succeeded++
		}
	}

	app.logger.Info("Batch analysis completed", logging.Fields{
		"inputs":    len(inputs),
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
		"elapsed":   time.Since(start).String(),
	})
	return report
}

func (app *App) analyzeOne(ctx context.Context, in prosody.Input) Result {
	start := time.Now()
	result := Result{Source: in.Source()}

	session, err := app.pipeline.Analyze(ctx, in)
	result.ElapsedMs = time.Since(start).Milliseconds()
	if err != nil {
		app.logger.Error(err, "Analysis failed", logging.Fields{"source": in.Source()})
		result.fail(err)
		return result
	}

	dists, err := session.Report(app.features...)
	if err != nil {
		result.fail(err)
		return result
	}

	summary := session.Summary()
	result.ID = session.ID
	result.Summary = &summary
	result.Distributions = dists
	result.session = session

	if app.store != nil {
		if err := app.store.Save(ctx, session); err != nil {
			// the analysis itself succeeded
			app.logger.Error(err, "Failed to store session", logging.Fields{"session_id": session.ID})
		}
	}
	return result
}

// writePlots renders one PNG per successful result. With several results the
// plot path gets the result index appended to its base name.
func (app *App) writePlots(report *Report) error {
	ok := make([]Result, 0, len(report.Results))
	for _, r := range report.Results {
		if r.session != nil {
			ok = append(ok, r)
		}
	}

	ext := filepath.Ext(app.ctx.PlotFile)
	base := strings.TrimSuffix(app.ctx.PlotFile, ext)
	if err := os.MkdirAll(filepath.Dir(app.ctx.PlotFile), 0755); err != nil {
		return fmt.Errorf("failed to create plot directory: %w", err)
	}

	for i, r := range ok {
		path := app.ctx.PlotFile
		if len(ok) > 1 {
			path = fmt.Sprintf("%s-%d%s", base, i+1, ext)
		}
		if err := render.Save(path, r.Distributions, r.session.Gender, app.config.RenderOptions()); err != nil {
			return err
		}
		app.logger.Debug("Plot written", logging.Fields{"source": r.Source, "plot_file": path})
	}
	return nil
}

// outputResults formats the report and writes it to the output file or stdout
func (app *App) outputResults(report *Report) error {
	formatter, err := output.NewFormatter(app.config.OutputFormat)
	if err != nil {
		return err
	}

	formattedData, err := formatter.Format(report, true)
	if err != nil {
		return fmt.Errorf("failed to format output data: %w", err)
	}

	// Write to file or stdout
	if app.ctx.OutputFile != "" {
		return app.writeToFile(formattedData)
	}

	out := app.ctx.Stdout
	if out == nil {
		out = os.Stdout
	}
	_, err = out.Write(formattedData)
	return err
}

// writeToFile writes data to the specified output file
func (app *App) writeToFile(data []byte) error {
	// Ensure directory exists
	dir := filepath.Dir(app.ctx.OutputFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Write file
	if err := os.WriteFile(app.ctx.OutputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	app.logger.Debug("Results written to file", logging.Fields{
		"output_file": app.ctx.OutputFile,
		"size_bytes":  len(data),
	})

	return nil
}
