package table

import (
	"fmt"
	"io"

	"github.com/mchmarny/varsig/pkg/variant"
)

// Summary counts outcomes of a run. Benign counts every false verdict,
// including unconfirmed ones; Uncertain counts every missing verdict,
// including failed lookups.
type Summary struct {
	Total      int `json:"total" yaml:"total"`
	Pathogenic int `json:"pathogenic" yaml:"pathogenic"`
	Benign     int `json:"benign" yaml:"benign"`
	Uncertain  int `json:"uncertain" yaml:"uncertain"`
	Failed     int `json:"failed" yaml:"failed"`
}

// Summarize counts rows by verdict.
func Summarize(rows []variant.ResultRow) Summary {
	s := Summary{Total: len(rows)}
	for _, r := range rows {
		switch {
		case r.Pathogenic == nil:
			s.Uncertain++
		case *r.Pathogenic:
			s.Pathogenic++
		default:
			s.Benign++
		}
		if r.Error != "" {
			s.Failed++
		}
	}
	return s
}

// Print writes the summary lines shown after the result table.
func (s Summary) Print(w io.Writer) error {
	_, err := fmt.Fprintf(w, "\nPathogenic: %d\nBenign: %d\nUncertain: %d\n", s.Pathogenic, s.Benign, s.Uncertain)
	return err
}
