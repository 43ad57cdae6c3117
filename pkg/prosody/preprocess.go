package prosody

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/RyanBlaney/prosody-analyzer/internal/logging"
	"github.com/RyanBlaney/prosody-analyzer/pkg/audio"
	"github.com/RyanBlaney/prosody-analyzer/pkg/audio/transcode"
)

// PreprocessOptions configures the Preprocessor.
type PreprocessOptions struct {
	TempDir    string  // where transcoded files are written; "" uses os.TempDir
	TargetPeak float64 // 0 uses audio.DefaultTargetPeak
}

// Preprocessor turns an Input into a peak-normalized mono signal.
type Preprocessor struct {
	transcoder transcode.Transcoder
	opts       PreprocessOptions
	logger     logging.Logger
}

// NewPreprocessor creates a preprocessor. The transcoder is only used for
// file input and may be nil when only buffers are analyzed.
func NewPreprocessor(t transcode.Transcoder, opts PreprocessOptions, logger logging.Logger) *Preprocessor {
	if opts.TargetPeak <= 0 {
		opts.TargetPeak = audio.DefaultTargetPeak
	}
	return &Preprocessor{
		transcoder: t,
		opts:       opts,
		logger: logging.OrDefault(logger).WithFields(logging.Fields{
			"component": "preprocessor",
		}),
	}
}

// Normalize loads the input and scales it to the target peak.
func (p *Preprocessor) Normalize(ctx context.Context, in Input) (*audio.Signal, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var (
		sig *audio.Signal
		err error
	)
	if in.IsFile() {
		sig, err = p.loadFile(ctx, in.Path)
	} else {
		sig, err = audio.NewSignal(in.Samples, in.sampleRate())
		if err != nil {
			err = NewError(ErrCodeUnsupportedInput, SourceBuffer, "invalid sample buffer", err)
		}
	}
	if err != nil {
		return nil, err
	}

	peak := sig.Peak()
	normalized := sig.ScalePeak(p.opts.TargetPeak)
	p.logger.Debug("Signal normalized", logging.Fields{
		"source":      in.Source(),
		"sample_rate": sig.SampleRate,
		"duration":    sig.Duration(),
		"peak_before": peak,
		"peak_after":  normalized.Peak(),
	})
	return normalized, nil
}

// loadFile transcodes path into a uniquely named WAV file, loads it and
// removes the file on every return path.
func (p *Preprocessor) loadFile(ctx context.Context, path string) (*audio.Signal, error) {
	if p.transcoder == nil {
		return nil, NewError(ErrCodeDecoding, path, "no transcoder configured", nil)
	}

	dir := p.opts.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	tmp := filepath.Join(dir, fmt.Sprintf("prosody-%s.wav", uuid.NewString()))
	defer func() {
		if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
			p.logger.Warn("Failed to remove temporary file", logging.Fields{
				"path":  tmp,
				"error": err.Error(),
			})
		}
	}()

	if err := p.transcoder.Transcode(ctx, path, tmp); err != nil {
		return nil, NewError(ErrCodeDecoding, path, "failed to transcode input", err)
	}

	sig, err := audio.LoadWAV(tmp, audio.DefaultLoadConfig())
	if err != nil {
		return nil, NewError(ErrCodeDecoding, path, "failed to load transcoded audio", err)
	}
	return sig, nil
}
