package app

import (
	"errors"
	"strconv"
	"time"

	"github.com/RyanBlaney/prosody-analyzer/pkg/prosody"
)

// Result is the outcome of analyzing one input.
type Result struct {
	Source        string                 `json:"source"`
	ID            string                 `json:"id,omitempty"`
	Summary       *prosody.Summary       `json:"summary,omitempty"`
	Distributions []prosody.Distribution `json:"distributions,omitempty"`
	Error         string                 `json:"error,omitempty"`
	ErrorCode     string                 `json:"errorCode,omitempty"`
	ElapsedMs     int64                  `json:"elapsedMs"`

	session *prosody.Session
}

func (r *Result) fail(err error) {
	r.Error = err.Error()
	var perr *prosody.Error
	if errors.As(err, &perr) {
		r.ErrorCode = perr.Code
	}
}

// Report is the output of a batch run.
type Report struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Succeeded   int       `json:"succeeded"`
	Failed      int       `json:"failed"`
	Results     []Result  `json:"results"`

	precision int
}

var reportColumns = []string{
	"source", "gender", "mean_pitch", "avg_band1", "intensity_mean",
	"percent_unvoiced", "avg_dur_pause", "overall", "recommended_hiring", "error",
}

// Columns implements output.Tabular.
func (r *Report) Columns() []string {
	return reportColumns
}

// Rows implements output.Tabular: one row per input.
func (r *Report) Rows() [][]string {
	format := func(v float64) string {
		return strconv.FormatFloat(v, 'f', r.precision, 64)
	}

	rows := make([][]string, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Summary == nil {
			row := make([]string, len(reportColumns))
			row[0] = res.Source
			row[len(row)-1] = res.Error
			rows = append(rows, row)
			continue
		}
		s := res.Summary
		rows = append(rows, []string{
			res.Source,
			string(s.Gender),
			format(s.MeanPitch),
			format(s.AvgBand1),
			format(s.IntensityMean),
			format(s.PercentUnvoiced),
			format(s.AvgDurPause),
			format(s.Scores[prosody.ScoreOverall]),
			format(s.Scores[prosody.ScoreRecommendedHiring]),
			"",
		})
	}
	return rows
}
