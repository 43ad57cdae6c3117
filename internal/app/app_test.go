package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/prosody-analyzer/configs"
	"github.com/RyanBlaney/prosody-analyzer/internal/logging"
	"github.com/RyanBlaney/prosody-analyzer/internal/store"
	"github.com/RyanBlaney/prosody-analyzer/pkg/audio"
	"github.com/RyanBlaney/prosody-analyzer/pkg/prosody"
)

// toneTranscoder writes a 130 Hz tone for every input except those whose
// name contains "bad".
type toneTranscoder struct {
	mu    sync.Mutex
	calls []string
}

func (f *toneTranscoder) Transcode(_ context.Context, in, out string) error {
	f.mu.Lock()
	f.calls = append(f.calls, in)
	f.mu.Unlock()

	if strings.Contains(in, "bad") {
		return errors.New("unsupported codec")
	}

	const rate = 16000
	samples := make([]float64, 2*rate)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*130*float64(i)/rate)
	}
	sig, err := audio.NewSignal(samples, rate)
	if err != nil {
		return err
	}
	return audio.WriteWAV(out, sig)
}

func testContext(t *testing.T, format string) (*Context, *bytes.Buffer) {
	t.Helper()

	config := configs.GetDefaultConfig()
	config.Audio.TempDir = t.TempDir()
	config.Store.Path = filepath.Join(t.TempDir(), "analyses.db")

	var out bytes.Buffer
	return &Context{
		OutputFormat: format,
		Logger:       logging.NewNop(),
		Config:       config,
		Transcoder:   &toneTranscoder{},
		Stdout:       &out,
	}, &out
}

func TestNewAppRequiresValidConfig(t *testing.T) {
	_, err := NewApp(&Context{})
	assert.Error(t, err)

	ctx, _ := testContext(t, "xml")
	_, err = NewApp(ctx)
	assert.ErrorContains(t, err, "output format")

	ctx, _ = testContext(t, "json")
	ctx.Features = []string{"meanPitch"}
	_, err = NewApp(ctx)
	assert.ErrorContains(t, err, "cannot be reported")
}

func TestMergeConfigDoesNotMutateBase(t *testing.T) {
	base := configs.GetDefaultConfig()
	merged := mergeConfig(base, &Context{
		OutputFormat:   "yaml",
		Features:       []string{"avgBand1"},
		PauseWeighting: "legacy",
		Concurrency:    2,
	})

	assert.Equal(t, "yaml", merged.OutputFormat)
	assert.Equal(t, []string{"avgBand1"}, merged.Output.Features)
	assert.Equal(t, "legacy", merged.Scoring.PauseWeighting)
	assert.Equal(t, 2, merged.Batch.Concurrency)

	assert.Equal(t, "table", base.OutputFormat)
	assert.Len(t, base.Output.Features, 4)
}

func TestRunWritesJSONReportInInputOrder(t *testing.T) {
	ctx, out := testContext(t, "json")
	ctx.Concurrency = 2

	app, err := NewApp(ctx)
	require.NoError(t, err)
	defer app.Close()

	require.NoError(t, app.Run(context.Background(), []string{"first.mp3", "bad.mp3", "third.mp3"}))

	var report struct {
		Succeeded int `json:"succeeded"`
		Failed    int `json:"failed"`
		Results   []struct {
			Source  string `json:"source"`
			Summary *struct {
				Gender    string  `json:"gender"`
				MeanPitch float64 `json:"meanPitch"`
			} `json:"summary"`
			Distributions []prosody.Distribution `json:"distributions"`
			ErrorCode     string                 `json:"errorCode"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))

	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Results, 3)

	assert.Equal(t, "first.mp3", report.Results[0].Source)
	require.NotNil(t, report.Results[0].Summary)
	assert.Equal(t, "Male", report.Results[0].Summary.Gender)
	assert.InDelta(t, 130, report.Results[0].Summary.MeanPitch, 2)
	assert.Len(t, report.Results[0].Distributions, 4)

	assert.Equal(t, "bad.mp3", report.Results[1].Source)
	assert.Nil(t, report.Results[1].Summary)
	assert.Equal(t, prosody.ErrCodeDecoding, report.Results[1].ErrorCode)

	assert.Equal(t, "third.mp3", report.Results[2].Source)
}

func TestRunFailsWhenEveryInputFails(t *testing.T) {
	ctx, out := testContext(t, "json")
	app, err := NewApp(ctx)
	require.NoError(t, err)

	err = app.Run(context.Background(), []string{"bad-1.mp3", "bad-2.mp3"})
	assert.ErrorContains(t, err, "all 2 analyses failed")
	assert.NotEmpty(t, out.String(), "report is still written")
}

func TestRunRequiresInputs(t *testing.T) {
	ctx, _ := testContext(t, "json")
	app, err := NewApp(ctx)
	require.NoError(t, err)

	assert.ErrorContains(t, app.Run(context.Background(), nil), "no input files")
}

func TestRunTableToFile(t *testing.T) {
	ctx, out := testContext(t, "table")
	ctx.OutputFile = filepath.Join(t.TempDir(), "reports", "run.txt")

	app, err := NewApp(ctx)
	require.NoError(t, err)
	require.NoError(t, app.Run(context.Background(), []string{"a.wav"}))

	assert.Empty(t, out.String())
	data, err := os.ReadFile(ctx.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Mean Pitch")
	assert.Contains(t, string(data), "a.wav")
	assert.Contains(t, string(data), "Male")
}

func TestRunManifestAndPlots(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "batch.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte("inputs:\n  - path: one.wav\n  - path: two.wav\n"), 0644))

	ctx, _ := testContext(t, "json")
	ctx.ManifestFile = manifest
	ctx.PlotFile = filepath.Join(dir, "plots", "dist.png")

	app, err := NewApp(ctx)
	require.NoError(t, err)
	require.NoError(t, app.Run(context.Background(), nil))

	tr := ctx.Transcoder.(*toneTranscoder)
	assert.ElementsMatch(t, []string{filepath.Join(dir, "one.wav"), filepath.Join(dir, "two.wav")}, tr.calls)

	for _, name := range []string{"dist-1.png", "dist-2.png"} {
		info, err := os.Stat(filepath.Join(dir, "plots", name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size())
	}
}

func TestRunSavesSessions(t *testing.T) {
	ctx, _ := testContext(t, "json")
	ctx.Save = true

	app, err := NewApp(ctx)
	require.NoError(t, err)
	require.NoError(t, app.Run(context.Background(), []string{"a.wav", "bad.wav"}))
	require.NoError(t, app.Close())

	s, err := store.Open(ctx.Config.Store.Path)
	require.NoError(t, err)
	defer s.Close()

	records, err := s.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a.wav", records[0].Source)
}

func TestReportRowsUsePrecision(t *testing.T) {
	report := &Report{
		precision: 2,
		Results: []Result{
			{
				Source: "a.wav",
				Summary: &prosody.Summary{
					Gender:    prosody.Female,
					MeanPitch: 210.456,
					Scores:    prosody.ScoreResult{prosody.ScoreOverall: 0.1234},
				},
			},
			{Source: "b.wav", Error: "decoding failed"},
		},
	}

	rows := report.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "210.46", rows[0][2])
	assert.Equal(t, "0.12", rows[0][7])
	assert.Equal(t, "0.00", rows[0][8])
	assert.Equal(t, "decoding failed", rows[1][len(rows[1])-1])
	assert.Len(t, rows[1], len(report.Columns()))
}
