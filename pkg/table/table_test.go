package table

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mchmarny/varsig/pkg/variant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testInput = `gene,chromosome,position,ref,alt,rsid
BRCA1,17,41245466,G,A,rs80357906
TP53,chr17,7577120.0,C,T,
APOE,19,45411941,T,C,nan
`

func TestReadMutations(t *testing.T) {
	list, err := ReadMutations(strings.NewReader(testInput))
	require.NoError(t, err)

	want := []variant.Mutation{
		{Gene: "BRCA1", Chromosome: "17", Position: 41245466, Ref: "G", Alt: "A", RSID: "rs80357906"},
		{Gene: "TP53", Chromosome: "chr17", Position: 7577120, Ref: "C", Alt: "T"},
		{Gene: "APOE", Chromosome: "19", Position: 45411941, Ref: "T", Alt: "C", RSID: "nan"},
	}
	if diff := cmp.Diff(want, list); diff != "" {
		t.Errorf("ReadMutations() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadMutations_ColumnOrderAndCase(t *testing.T) {
	in := "\ufeffRef,Alt,Position,Chromosome,Gene\nA,T,140453136,7,BRAF\n\n"
	list, err := ReadMutations(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "BRAF", list[0].Gene)
	assert.Equal(t, 140453136, list[0].Position)
	assert.Empty(t, list[0].RSID)
}

func TestReadMutations_Errors(t *testing.T) {
	_, err := ReadMutations(strings.NewReader(""))
	assert.Error(t, err)

	_, err = ReadMutations(strings.NewReader("gene,chromosome,ref,alt\nBRAF,7,A,T\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = ReadMutations(strings.NewReader("gene,chromosome,position,ref,alt\nBRAF,7,abc,A,T\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func testRows() []variant.ResultRow {
	return []variant.ResultRow{
		{Gene: "BRCA1", Position: "chr17:41245466", Mutation: "G→A", RSID: "rs80357906", Pathogenic: variant.Bool(true), Score: 0.9, Verdict: "pathogenic", Source: "rsid", Accession: "VCV000017661", Significance: "Pathogenic"},
		{Gene: "TP53", Position: "chr17:7577120", Mutation: "C→T", Pathogenic: nil, Score: 0, Verdict: "unknown", Source: "error", Error: "timeout"},
		{Gene: "APOE", Position: "chr19:45411941", Mutation: "T→C", Pathogenic: variant.Bool(false), Score: 0.2, Verdict: "unknown", Source: "default"},
		{Gene: "MTHFR", Position: "chr1:11856378", Mutation: "G→A", Pathogenic: nil, Score: 0.5, Verdict: "uncertain", Source: "coordinate", Significance: "Conflicting classifications of pathogenicity"},
	}
}

func TestWriteResults(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, testRows(), false))

	want := `gene,position,mutation,rsid,pathogenic,score
BRCA1,chr17:41245466,G→A,rs80357906,True,0.9
TP53,chr17:7577120,C→T,,,0.0
APOE,chr19:45411941,T→C,,False,0.2
MTHFR,chr1:11856378,G→A,,,0.5
`
	assert.Equal(t, want, buf.String())
}

func TestWriteResults_Verbose(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, testRows(), true))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "gene,position,mutation,rsid,pathogenic,score,verdict,source,accession,significance,error", lines[0])
	assert.Contains(t, lines[1], "VCV000017661")
	assert.True(t, strings.HasSuffix(lines[2], ",timeout"))
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, testRows()))
	out := buf.String()
	assert.Contains(t, out, "pathogenic")
	assert.Contains(t, out, "None")
	assert.Contains(t, out, "True")
}

func TestSummarize(t *testing.T) {
	s := Summarize(testRows())
	assert.Equal(t, Summary{Total: 4, Pathogenic: 1, Benign: 1, Uncertain: 2, Failed: 1}, s)

	var buf bytes.Buffer
	require.NoError(t, s.Print(&buf))
	assert.Equal(t, "\nPathogenic: 1\nBenign: 1\nUncertain: 2\n", buf.String())
}

func TestPathogenicRoundTrip(t *testing.T) {
	for _, v := range []*bool{variant.Bool(true), variant.Bool(false), nil} {
		assert.Equal(t, v, ParsePathogenic(FormatPathogenic(v)))
	}
}

func TestFormatScore(t *testing.T) {
	assert.Equal(t, "0.0", FormatScore(0))
	assert.Equal(t, "0.9", FormatScore(0.9))
	assert.Equal(t, "1.0", FormatScore(1))
}
