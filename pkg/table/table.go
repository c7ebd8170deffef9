package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/mchmarny/varsig/pkg/variant"
)

const (
	colGene       = "gene"
	colChromosome = "chromosome"
	colPosition   = "position"
	colRef        = "ref"
	colAlt        = "alt"
	colRSID       = "rsid"

	valueTrue  = "True"
	valueFalse = "False"
)

var (
	requiredColumns = []string{colGene, colChromosome, colPosition, colRef, colAlt}

	outputColumns  = []string{"gene", "position", "mutation", "rsid", "pathogenic", "score"}
	verboseColumns = []string{"verdict", "source", "accession", "significance", "error"}

	// ErrMissingColumn is returned when the input header lacks a required column.
	ErrMissingColumn = errors.New("missing required column")
)

// ReadMutations parses a CSV mutation list. The header names columns in any
// order and case; rsid is optional.
func ReadMutations(r io.Reader) ([]variant.Mutation, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("input is empty")
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}

	get := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	list := make([]variant.Mutation, 0)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}
		if isBlank(rec) {
			continue
		}

		pos, err := variant.ParsePosition(get(rec, colPosition))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		list = append(list, variant.Mutation{
			Gene:       get(rec, colGene),
			Chromosome: get(rec, colChromosome),
			Position:   pos,
			Ref:        get(rec, colRef),
			Alt:        get(rec, colAlt),
			RSID:       get(rec, colRSID),
		})
	}

	return list, nil
}

// WriteResults writes rows as CSV. Verbose adds the evidence columns.
func WriteResults(w io.Writer, rows []variant.ResultRow, verbose bool) error {
	cw := csv.NewWriter(w)

	header := outputColumns
	if verbose {
		header = append(append([]string{}, outputColumns...), verboseColumns...)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, r := range rows {
		rec := []string{r.Gene, r.Position, r.Mutation, r.RSID, FormatPathogenic(r.Pathogenic), FormatScore(r.Score)}
		if verbose {
			rec = append(rec, r.Verdict, r.Source, r.Accession, r.Significance, r.Error)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing results: %w", err)
	}
	return nil
}

// PrintTable writes rows as an aligned text table.
func PrintTable(w io.Writer, rows []variant.ResultRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(outputColumns, "\t"))
	for _, r := range rows {
		p := FormatPathogenic(r.Pathogenic)
		if p == "" {
			p = "None"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.Gene, r.Position, r.Mutation, r.RSID, p, FormatScore(r.Score))
	}
	return tw.Flush()
}

// FormatPathogenic renders the tri-state value as True, False or empty.
func FormatPathogenic(v *bool) string {
	if v == nil {
		return ""
	}
	if *v {
		return valueTrue
	}
	return valueFalse
}

// ParsePathogenic is the inverse of FormatPathogenic.
func ParsePathogenic(s string) *bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return variant.Bool(true)
	case "false":
		return variant.Bool(false)
	default:
		return nil
	}
}

// FormatScore renders a score with the shortest exact representation.
func FormatScore(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
