package lookup

import (
	"github.com/mchmarny/varsig/pkg/classify"
	"github.com/mchmarny/varsig/pkg/variant"
)

// Source records which path produced a Result.
type Source string

const (
	SourceIdentifier Source = "rsid"
	SourceCoordinate Source = "coordinate"
	SourceDefault    Source = "default"
	SourceError      Source = "error"
)

const (
	// ScoreUnconfirmed is reported when no candidate gave a conclusive verdict.
	ScoreUnconfirmed = 0.2
	// ScoreFailed is reported when the lookup failed outright.
	ScoreFailed = 0.0
)

// Result is the outcome of classifying one mutation.
type Result struct {
	Verdict      classify.Verdict `json:"verdict" yaml:"verdict"`
	Score        float64          `json:"score" yaml:"score"`
	Source       Source           `json:"source" yaml:"source"`
	CandidateID  string           `json:"candidate_id,omitempty" yaml:"candidateId,omitempty"`
	Accession    string           `json:"accession,omitempty" yaml:"accession,omitempty"`
	Significance string           `json:"significance,omitempty" yaml:"significance,omitempty"`
	Err          error            `json:"-" yaml:"-"`
}

// Failed reports whether the lookup ended on an error rather than on evidence.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Pathogenic maps the result onto the tri-state output value. An unconfirmed
// result is false while a failed one is nil; the two are told apart by Score.
func (r Result) Pathogenic() *bool {
	switch r.Verdict {
	case classify.Pathogenic:
		return variant.Bool(true)
	case classify.Benign:
		return variant.Bool(false)
	case classify.Uncertain:
		return nil
	}
	if r.Failed() {
		return nil
	}
	return variant.Bool(false)
}

// Row builds the output row for m.
func (r Result) Row(m variant.Mutation) variant.ResultRow {
	row := variant.NewResultRow(m)
	row.Pathogenic = r.Pathogenic()
	row.Score = r.Score
	row.Verdict = r.Verdict.String()
	row.Source = string(r.Source)
	row.Accession = r.Accession
	row.Significance = r.Significance
	if r.Err != nil {
		row.Error = r.Err.Error()
	}
	return row
}

func unconfirmed() Result {
	return Result{Verdict: classify.Unknown, Score: ScoreUnconfirmed, Source: SourceDefault}
}

func failed(err error) Result {
	return Result{Verdict: classify.Unknown, Score: ScoreFailed, Source: SourceError, Err: err}
}
