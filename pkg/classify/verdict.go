package classify

import "strings"

// Verdict is the clinical call derived from a significance string.
type Verdict int

const (
	Unknown Verdict = iota
	Pathogenic
	Benign
	Uncertain
)

var verdictNames = map[Verdict]string{
	Unknown:    "unknown",
	Pathogenic: "pathogenic",
	Benign:     "benign",
	Uncertain:  "uncertain",
}

func (v Verdict) String() string {
	if s, ok := verdictNames[v]; ok {
		return s
	}
	return verdictNames[Unknown]
}

// ParseVerdict is the inverse of String. Unrecognized names are Unknown.
func ParseVerdict(s string) Verdict {
	s = strings.ToLower(strings.TrimSpace(s))
	for v, name := range verdictNames {
		if name == s {
			return v
		}
	}
	return Unknown
}

// Scores attached to each conclusive verdict.
const (
	ScorePathogenic = 0.9
	ScoreBenign     = 0.1
	ScoreUncertain  = 0.5
)

// Classification is a conclusive verdict and its confidence.
type Classification struct {
	Verdict      Verdict
	Score        float64
	Significance string
}

// Pathogenic maps the verdict onto the tri-state output value.
func (c Classification) Pathogenic() *bool {
	switch c.Verdict {
	case Pathogenic:
		v := true
		return &v
	case Benign:
		v := false
		return &v
	default:
		return nil
	}
}
