package audio

import (
	"fmt"
	"io"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// LoadWAV reads a PCM WAV file into a Signal.
func LoadWAV(path string, cfg LoadConfig) (*Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}
	defer f.Close()

	return DecodeWAV(f, cfg)
}

// DecodeWAV decodes a PCM WAV stream. Integer samples are scaled to [-1, 1]
// using the source bit depth and channels are averaged into one.
func DecodeWAV(r io.ReadSeeker, cfg LoadConfig) (*Signal, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV stream")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read PCM data: %w", err)
	}
	if buf == nil || buf.Format == nil {
		return nil, fmt.Errorf("WAV stream has no format information")
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		return nil, fmt.Errorf("WAV stream reports %d channels", channels)
	}
	sampleRate := buf.Format.SampleRate
	if cfg.ExpectedSampleRate > 0 && sampleRate != cfg.ExpectedSampleRate {
		return nil, fmt.Errorf("unexpected sample rate %d, want %d", sampleRate, cfg.ExpectedSampleRate)
	}

	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = int(dec.BitDepth)
	}
	if depth <= 0 || depth > 32 {
		return nil, fmt.Errorf("unsupported bit depth %d", depth)
	}

	toFloat := func(v int) float64 {
		if depth == 8 {
			// 8-bit WAV is unsigned
			return (float64(v) - 128) / 128
		}
		return float64(v) / math.Exp2(float64(depth-1))
	}

	if channels == 1 {
		samples := make([]float64, len(buf.Data))
		for i, v := range buf.Data {
			samples[i] = toFloat(v)
		}
		return &Signal{Samples: samples, SampleRate: sampleRate}, nil
	}

	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += toFloat(buf.Data[i*channels+c])
		}
		samples[i] = sum / float64(channels)
	}

	return &Signal{Samples: samples, SampleRate: sampleRate}, nil
}

// WriteWAV stores the signal as 16-bit mono PCM. Samples are clipped to
// [-1, 1].
func WriteWAV(path string, sig *Signal) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create WAV file: %w", err)
	}

	enc := wav.NewEncoder(f, sig.SampleRate, 16, 1, 1)
	data := make([]int, len(sig.Samples))
	for i, v := range sig.Samples {
		v = math.Max(-1, math.Min(1, v))
		data[i] = int(math.Round(v * 32767))
	}

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sig.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("failed to write PCM data: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("failed to finalize WAV file: %w", err)
	}
	return f.Close()
}
