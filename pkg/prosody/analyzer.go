package prosody

import (
	"context"
	"sync"

	"github.com/RyanBlaney/prosody-analyzer/internal/logging"
)

// Analyzer keeps the most recent successful session of a Pipeline. A failed
// run leaves no session behind.
type Analyzer struct {
	pipeline *Pipeline
	logger   logging.Logger

	mu      sync.RWMutex
	session *Session
	lastErr error
}

// NewAnalyzer wraps a pipeline.
func NewAnalyzer(p *Pipeline, logger logging.Logger) *Analyzer {
	return &Analyzer{
		pipeline: p,
		logger: logging.OrDefault(logger).WithFields(logging.Fields{
			"component": "analyzer",
		}),
	}
}

// Analyze runs the pipeline and reports whether it succeeded. The previous
// session is discarded before the run starts.
func (a *Analyzer) Analyze(ctx context.Context, in Input) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.session = nil
	a.lastErr = nil

	session, err := a.pipeline.Analyze(ctx, in)
	if err != nil {
		a.lastErr = err
		a.logger.Error(err, "Analysis failed", logging.Fields{
			"source": in.Source(),
		})
		return false
	}
	a.session = session
	return true
}

// Err returns the error of the last failed Analyze call.
func (a *Analyzer) Err() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastErr
}

// Session returns the current session.
func (a *Analyzer) Session() (*Session, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session, a.session != nil
}

// Gender returns the classified gender of the current session.
func (a *Analyzer) Gender() (Gender, bool) {
	s, ok := a.Session()
	if !ok {
		return "", false
	}
	return s.Gender, true
}

// Features returns the raw features of the current session.
func (a *Analyzer) Features() (FeatureSet, bool) {
	s, ok := a.Session()
	if !ok {
		return FeatureSet{}, false
	}
	return s.Features, true
}

// MeanPitch returns the mean pitch rounded to two decimals.
func (a *Analyzer) MeanPitch() (float64, bool) {
	s, ok := a.Session()
	if !ok {
		return 0, false
	}
	return s.Summary().MeanPitch, true
}

// Scores returns the composite scores of the current session.
func (a *Analyzer) Scores() (ScoreResult, bool) {
	s, ok := a.Session()
	if !ok {
		return nil, false
	}
	return s.Scores, true
}

// Report returns distribution positions for the current session, or
// ErrNotAnalyzed when there is none.
func (a *Analyzer) Report(features ...FeatureName) ([]Distribution, error) {
	s, ok := a.Session()
	if !ok {
		a.logger.Warn("Report requested before a successful analysis")
		return nil, ErrNotAnalyzed
	}
	return s.Report(features...)
}
