// Package transcode converts arbitrary media files into the mono PCM WAV
// stream the analyzers consume.
package transcode

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/prosody-analyzer/internal/logging"
	"github.com/RyanBlaney/prosody-analyzer/pkg/audio"
)

// Transcoder writes a mono PCM WAV rendition of in to out.
type Transcoder interface {
	Transcode(ctx context.Context, in, out string) error
}

// Error codes
const (
	ErrCodeMissingDecoder = "MISSING_DECODER"
	ErrCodeFailed         = "TRANSCODE_FAILED"
	ErrCodeTimeout        = "TIMEOUT"
	ErrCodeCanceled       = "CANCELED"
)

// Error describes a failed transcoder run.
type Error struct {
	Code   string `json:"code"`
	Input  string `json:"input"`
	Output string `json:"output,omitempty"` // decoder diagnostics
	Cause  error  `json:"-"`
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("transcode %s: %s", e.Input, strings.ToLower(strings.ReplaceAll(e.Code, "_", " ")))
	if e.Output != "" {
		msg += ": " + e.Output
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// FFmpeg runs the ffmpeg binary as a subprocess.
type FFmpeg struct {
	Path       string        // binary, looked up in PATH when not absolute
	SampleRate int           // output rate
	Timeout    time.Duration // 0 disables the per-run bound
	logger     logging.Logger
}

// NewFFmpeg creates an ffmpeg transcoder producing 16 kHz output.
func NewFFmpeg(path string, timeout time.Duration, logger logging.Logger) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{
		Path:       path,
		SampleRate: audio.DefaultSampleRate,
		Timeout:    timeout,
		logger: logging.OrDefault(logger).WithFields(logging.Fields{
			"component": "ffmpeg_transcoder",
		}),
	}
}

// Args returns the ffmpeg argument list for a conversion.
func (f *FFmpeg) Args(in, out string) []string {
	rate := f.SampleRate
	if rate <= 0 {
		rate = audio.DefaultSampleRate
	}
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", in,
		"-vn",      // drop video
		"-ac", "1", // mono
		"-ar", strconv.Itoa(rate),
		"-acodec", "pcm_s16le",
		"-f", "wav",
		out,
	}
}

// Transcode runs ffmpeg and waits for it to finish.
func (f *FFmpeg) Transcode(ctx context.Context, in, out string) error {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	logger := logging.OrDefault(f.logger)
	start := time.Now()
	cmd := exec.CommandContext(ctx, f.Path, f.Args(in, out)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		terr := &Error{
			Code:   ErrCodeFailed,
			Input:  in,
			Output: strings.TrimSpace(string(output)),
			Cause:  err,
		}
		switch {
		case errors.Is(err, exec.ErrNotFound):
			terr.Code = ErrCodeMissingDecoder
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			terr.Code = ErrCodeTimeout
			terr.Cause = ctx.Err()
		case ctx.Err() != nil:
			terr.Code = ErrCodeCanceled
			terr.Cause = ctx.Err()
		}
		logger.Error(err, "ffmpeg failed", logging.Fields{
			"input": in,
			"code":  terr.Code,
		})
		return terr
	}

	logger.Debug("ffmpeg completed", logging.Fields{
		"input":    in,
		"output":   out,
		"duration": time.Since(start).String(),
	})
	return nil
}
