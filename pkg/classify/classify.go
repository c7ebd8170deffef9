package classify

import (
	"strings"

	"github.com/mchmarny/varsig/pkg/registry"
)

const (
	termPathogenic = "pathogenic"
	termBenign     = "benign"
	termUncertain  = "uncertain"
	termConflict   = "conflict"
)

// Extract reads the clinical-significance string from a record. The
// clinical_significance field wins; germline_classification is consulted only
// when the first yields nothing usable.
func Extract(rec *registry.Record) (string, bool) {
	if rec == nil {
		return "", false
	}
	if s, ok := rec.ClinicalSignificance.Text(); ok {
		return s, true
	}
	return rec.GermlineClassification.Text()
}

// Interpret maps a significance string to a verdict. The second return value
// is false when the string is inconclusive.
//
// Checks run in order and the first match wins. "benign" anywhere beats
// "pathogenic", so "Conflicting interpretations of pathogenicity; Benign" is Benign.
func Interpret(sig string) (Classification, bool) {
	s := strings.ToLower(sig)

	switch {
	case strings.Contains(s, termPathogenic) && !strings.Contains(s, termBenign):
		return Classification{Verdict: Pathogenic, Score: ScorePathogenic, Significance: sig}, true
	case strings.Contains(s, termBenign):
		return Classification{Verdict: Benign, Score: ScoreBenign, Significance: sig}, true
	case strings.Contains(s, termUncertain) || strings.Contains(s, termConflict):
		return Classification{Verdict: Uncertain, Score: ScoreUncertain, Significance: sig}, true
	default:
		return Classification{Significance: sig}, false
	}
}

// Record classifies a registry record.
func Record(rec *registry.Record) (Classification, bool) {
	sig, ok := Extract(rec)
	if !ok {
		return Classification{}, false
	}
	return Interpret(sig)
}
