package variant

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	rsidPrefix       = "rs"
	chromosomePrefix = "chr"
	missingValue     = "nan"
)

// Mutation is a single point mutation as supplied by the input table.
type Mutation struct {
	Gene       string `json:"gene" yaml:"gene"`
	Chromosome string `json:"chromosome" yaml:"chromosome"`
	Position   int    `json:"position" yaml:"position"`
	Ref        string `json:"ref" yaml:"ref"`
	Alt        string `json:"alt" yaml:"alt"`
	RSID       string `json:"rsid,omitempty" yaml:"rsid,omitempty"`
}

// HasRSID reports whether the mutation carries a usable reference-SNP identifier.
// Empty values and the spreadsheet "nan" placeholder do not count.
func (m Mutation) HasRSID() bool {
	v := strings.TrimSpace(m.RSID)
	if v == "" || strings.EqualFold(v, missingValue) {
		return false
	}
	return NormalizeRSID(v) != ""
}

// DisplayRSID returns the identifier as given, or empty when it is not usable.
func (m Mutation) DisplayRSID() string {
	if !m.HasRSID() {
		return ""
	}
	return strings.TrimSpace(m.RSID)
}

// IdentifierTerm is the registry search term for the mutation's rsid.
func (m Mutation) IdentifierTerm() string {
	return fmt.Sprintf("%s%s[RS]", rsidPrefix, NormalizeRSID(m.RSID))
}

// CoordinateTerm is the registry search term for the mutation's gene and GRCh37 position.
func (m Mutation) CoordinateTerm() string {
	return fmt.Sprintf("%s[gene] AND %s[chr] AND %d[chrpos37]",
		strings.TrimSpace(m.Gene), NormalizeChromosome(m.Chromosome), m.Position)
}

// PositionLabel renders the position as chr{chromosome}:{position}.
func (m Mutation) PositionLabel() string {
	return fmt.Sprintf("%s%s:%d", chromosomePrefix, NormalizeChromosome(m.Chromosome), m.Position)
}

// MutationLabel renders the allele change as {ref}→{alt}.
func (m Mutation) MutationLabel() string {
	return fmt.Sprintf("%s→%s", strings.TrimSpace(m.Ref), strings.TrimSpace(m.Alt))
}

func (m Mutation) String() string {
	return fmt.Sprintf("%s %s %s", m.Gene, m.PositionLabel(), m.MutationLabel())
}

// NormalizeRSID strips a leading "rs" prefix (any case) so that "rs123" and "123" match.
func NormalizeRSID(s string) string {
	return trimPrefixFold(strings.TrimSpace(s), rsidPrefix)
}

// NormalizeChromosome strips a leading "chr" prefix (any case) so that "chr7" and "7" match.
func NormalizeChromosome(s string) string {
	return trimPrefixFold(strings.TrimSpace(s), chromosomePrefix)
}

// ParsePosition parses a genomic position. Whole-number floats ("123.0") are
// accepted since spreadsheet exports often write integers that way.
func ParsePosition(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("position is empty")
	}

	if p, err := strconv.Atoi(s); err == nil {
		return p, validPosition(p)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("invalid position: %q", s)
	}
	return int(f), validPosition(int(f))
}

func validPosition(p int) error {
	if p < 0 {
		return fmt.Errorf("position must be positive: %d", p)
	}
	return nil
}

func trimPrefixFold(s, prefix string) string {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):]
	}
	return s
}
