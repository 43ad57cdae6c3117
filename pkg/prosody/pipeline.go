package prosody

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/RyanBlaney/prosody-analyzer/internal/logging"
)

// Model is the immutable scoring configuration shared by all analyses.
type Model struct {
	Baselines       Baselines      `json:"baselines"`
	Weights         []WeightVector `json:"weights"`
	GenderThreshold float64        `json:"gender_threshold"`
}

// DefaultModel returns the built-in baselines and weights with the given
// pause weighting.
func DefaultModel(pw PauseWeighting) Model {
	return Model{
		Baselines:       DefaultBaselines(),
		Weights:         DefaultWeightVectors(pw),
		GenderThreshold: DefaultGenderThreshold,
	}
}

// Validate checks the model is usable.
func (m Model) Validate() error {
	if err := m.Baselines.Validate(); err != nil {
		return err
	}
	if len(m.Weights) == 0 {
		return fmt.Errorf("at least one weight vector is required")
	}
	seen := make(map[string]bool, len(m.Weights))
	for _, w := range m.Weights {
		if w.Name == "" {
			return fmt.Errorf("weight vector without a name")
		}
		if seen[w.Name] {
			return fmt.Errorf("duplicate weight vector %q", w.Name)
		}
		seen[w.Name] = true
	}
	if m.GenderThreshold <= 0 {
		return fmt.Errorf("gender threshold must be positive")
	}
	return nil
}

// Session is the complete result of one analysis.
type Session struct {
	ID         string      `json:"id"`
	Source     string      `json:"source"`
	Gender     Gender      `json:"gender"`
	Features   FeatureSet  `json:"features"`
	ZScores    ZScores     `json:"zScores"`
	Scores     ScoreResult `json:"scores"`
	Duration   float64     `json:"duration"` // seconds of audio analyzed
	AnalyzedAt time.Time   `json:"analyzedAt"`
}

// Report returns the distribution positions of the requested features.
func (s *Session) Report(features ...FeatureName) ([]Distribution, error) {
	if s == nil {
		return nil, ErrNotAnalyzed
	}
	return Report(s.ZScores, features...)
}

// Summary is the presentation form of a session.
type Summary struct {
	Gender          Gender      `json:"gender" yaml:"gender"`
	MeanPitch       float64     `json:"meanPitch" yaml:"meanPitch"`
	AvgBand1        float64     `json:"avgBand1" yaml:"avgBand1"`
	IntensityMean   float64     `json:"intensityMean" yaml:"intensityMean"`
	PercentUnvoiced float64     `json:"percentUnvoiced" yaml:"percentUnvoiced"`
	AvgDurPause     float64     `json:"avgDurPause" yaml:"avgDurPause"`
	Scores          ScoreResult `json:"scores" yaml:"scores"`
}

// Summary returns the session with mean pitch rounded to two decimals.
func (s *Session) Summary() Summary {
	return Summary{
		Gender:          s.Gender,
		MeanPitch:       roundTo(s.Features.MeanPitch, 2),
		AvgBand1:        s.Features.AvgBand1,
		IntensityMean:   s.Features.IntensityMean,
		PercentUnvoiced: s.Features.PercentUnvoiced,
		AvgDurPause:     s.Features.AvgDurPause,
		Scores:          s.Scores,
	}
}

// Pipeline runs preprocess, extract, classify, standardize and score.
type Pipeline struct {
	preprocessor *Preprocessor
	extractor    *Extractor
	model        Model
	logger       logging.Logger
}

// NewPipeline wires the stages together.
func NewPipeline(pre *Preprocessor, ext *Extractor, model Model, logger logging.Logger) (*Pipeline, error) {
	if pre == nil || ext == nil {
		return nil, fmt.Errorf("preprocessor and extractor are required")
	}
	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring model: %w", err)
	}
	return &Pipeline{
		preprocessor: pre,
		extractor:    ext,
		model:        model,
		logger: logging.OrDefault(logger).WithFields(logging.Fields{
			"component": "pipeline",
		}),
	}, nil
}

// Model returns the scoring model in use.
func (p *Pipeline) Model() Model {
	return p.model
}

// Analyze runs the whole pipeline on in. The returned session is fully
// populated, or nil with an error.
func (p *Pipeline) Analyze(ctx context.Context, in Input) (*Session, error) {
	start := time.Now()

	sig, err := p.preprocessor.Normalize(ctx, in)
	if err != nil {
		return nil, err
	}

	features, err := p.extractor.Extract(sig)
	if err != nil {
		var perr *Error
		if errors.As(err, &perr) {
			return nil, NewError(perr.Code, in.Source(), perr.Message, perr.Cause)
		}
		return nil, NewError(ErrCodeAnalysis, in.Source(), "feature extraction failed", err)
	}

	session := p.Assess(features)
	session.Source = in.Source()
	session.Duration = sig.Duration()

	p.logger.Info("Analysis completed", logging.Fields{
		"session_id": session.ID,
		"source":     session.Source,
		"gender":     session.Gender,
		"scores":     session.Scores,
		"elapsed":    time.Since(start).String(),
	})
	return session, nil
}

// Assess classifies and scores an already extracted feature set.
func (p *Pipeline) Assess(features FeatureSet) *Session {
	gender := ClassifyWithThreshold(features.MeanPitch, p.model.GenderThreshold)
	z := Standardize(features.Values(), p.model.Baselines.For(gender))

	return &Session{
		ID:         uuid.NewString(),
		Gender:     gender,
		Features:   features,
		ZScores:    z,
		Scores:     Score(z, p.model.Weights),
		AnalyzedAt: time.Now().UTC(),
	}
}
