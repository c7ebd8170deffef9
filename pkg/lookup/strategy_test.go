package lookup

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mchmarny/varsig/pkg/classify"
	"github.com/mchmarny/varsig/pkg/registry"
	"github.com/mchmarny/varsig/pkg/variant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeRegistry struct {
	mu         sync.Mutex
	ids        map[string][]string
	searchErr  map[string]error
	records    map[string]*registry.Record
	summaryErr map[string]error
	err        error

	searches  []string
	retMaxes  []int
	summaries []string
}

func (f *fakeRegistry) Search(_ context.Context, term string, retMax int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, term)
	f.retMaxes = append(f.retMaxes, retMax)
	if f.err != nil {
		return nil, f.err
	}
	if err := f.searchErr[term]; err != nil {
		return nil, err
	}
	return f.ids[term], nil
}

func (f *fakeRegistry) Summary(_ context.Context, id string) (*registry.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries = append(f.summaries, id)
	if f.err != nil {
		return nil, f.err
	}
	if err := f.summaryErr[id]; err != nil {
		return nil, err
	}
	rec, ok := f.records[id]
	if !ok {
		return nil, registry.ErrNoRecord
	}
	return rec, nil
}

type countingDelay struct {
	calls int
}

func (d *countingDelay) Wait(ctx context.Context) error {
	d.calls++
	return ctx.Err()
}

func clinical(s string) *registry.Record {
	return &registry.Record{Accession: "VCV" + s, ClinicalSignificance: registry.NewSignificance(s)}
}

func germline(s string) *registry.Record {
	return &registry.Record{Accession: "VCV" + s, GermlineClassification: registry.NewSignificance(s)}
}

func networkErr() error {
	return &registry.Error{Kind: registry.KindNetwork, Op: "search", Err: context.DeadlineExceeded}
}

var braf = variant.Mutation{
	Gene:       "BRAF",
	Chromosome: "chr7",
	Position:   140453136,
	Ref:        "A",
	Alt:        "T",
	RSID:       "rs113488022",
}

const (
	brafIdentifierTerm = "rs113488022[RS]"
	brafCoordinateTerm = "BRAF[gene] AND 7[chr] AND 140453136[chrpos37]"
)

func newTestStrategy(r Registry) *Strategy {
	s := NewStrategy(r)
	s.RequestDelay = NoDelay
	return s
}

func TestClassify_IdentifierPathogenic(t *testing.T) {
	reg := &fakeRegistry{
		ids: map[string][]string{brafIdentifierTerm: {"1", "2"}},
		records: map[string]*registry.Record{
			"1": {Title: "no significance"},
			"2": germline("Pathogenic"),
		},
	}

	res := newTestStrategy(reg).Classify(context.Background(), braf)

	assert.Equal(t, classify.Pathogenic, res.Verdict)
	assert.InDelta(t, 0.9, res.Score, 1e-9)
	assert.Equal(t, SourceIdentifier, res.Source)
	assert.Equal(t, "2", res.CandidateID)
	require.NotNil(t, res.Pathogenic())
	assert.True(t, *res.Pathogenic())
	assert.Equal(t, []string{brafIdentifierTerm}, reg.searches)
	assert.Equal(t, []int{0}, reg.retMaxes)
	assert.Equal(t, []string{"1", "2"}, reg.summaries)
}

func TestClassify_StopsAtFirstConclusive(t *testing.T) {
	reg := &fakeRegistry{
		ids: map[string][]string{brafIdentifierTerm: {"1", "2", "3"}},
		records: map[string]*registry.Record{
			"1": clinical("Likely benign"),
			"2": clinical("Pathogenic"),
		},
	}

	res := newTestStrategy(reg).Classify(context.Background(), braf)

	assert.Equal(t, classify.Benign, res.Verdict)
	assert.InDelta(t, 0.1, res.Score, 1e-9)
	require.NotNil(t, res.Pathogenic())
	assert.False(t, *res.Pathogenic())
	assert.Equal(t, []string{"1"}, reg.summaries)
}

func TestClassify_FallsBackToCoordinates(t *testing.T) {
	reg := &fakeRegistry{
		ids: map[string][]string{brafCoordinateTerm: {"9"}},
		records: map[string]*registry.Record{
			"9": clinical("Uncertain significance"),
		},
	}

	res := newTestStrategy(reg).Classify(context.Background(), braf)

	assert.Equal(t, classify.Uncertain, res.Verdict)
	assert.InDelta(t, 0.5, res.Score, 1e-9)
	assert.Nil(t, res.Pathogenic())
	assert.False(t, res.Failed())
	assert.Equal(t, SourceCoordinate, res.Source)
	assert.Equal(t, []string{brafIdentifierTerm, brafCoordinateTerm}, reg.searches)
	assert.Equal(t, []int{0, CoordinateRetMaxDefault}, reg.retMaxes)
}

func TestClassify_IdentifierInconclusiveFallsBack(t *testing.T) {
	reg := &fakeRegistry{
		ids: map[string][]string{
			brafIdentifierTerm: {"1"},
			brafCoordinateTerm: {"2"},
		},
		records: map[string]*registry.Record{
			"1": clinical("not provided"),
			"2": clinical("Pathogenic"),
		},
	}

	res := newTestStrategy(reg).Classify(context.Background(), braf)
	assert.Equal(t, classify.Pathogenic, res.Verdict)
	assert.Equal(t, SourceCoordinate, res.Source)
	assert.Equal(t, []string{"1", "2"}, reg.summaries)
}

func TestClassify_IdentifierStatusFallsBack(t *testing.T) {
	reg := &fakeRegistry{
		searchErr: map[string]error{
			brafIdentifierTerm: &registry.Error{Kind: registry.KindStatus, Op: "search", Err: errors.New("503")},
		},
		ids:     map[string][]string{brafCoordinateTerm: {"2"}},
		records: map[string]*registry.Record{"2": clinical("Benign")},
	}

	res := newTestStrategy(reg).Classify(context.Background(), braf)
	assert.Equal(t, classify.Benign, res.Verdict)
	assert.Equal(t, SourceCoordinate, res.Source)
}

func TestClassify_AtMostThreeCandidates(t *testing.T) {
	reg := &fakeRegistry{
		ids: map[string][]string{
			brafIdentifierTerm: {"1", "2", "3", "4", "5"},
			brafCoordinateTerm: {"6", "7", "8", "9"},
		},
		records: map[string]*registry.Record{
			"4": clinical("Pathogenic"),
			"9": clinical("Pathogenic"),
		},
	}

	res := newTestStrategy(reg).Classify(context.Background(), braf)

	assert.Equal(t, classify.Unknown, res.Verdict)
	assert.InDelta(t, ScoreUnconfirmed, res.Score, 1e-9)
	assert.Equal(t, []string{"1", "2", "3", "6", "7", "8"}, reg.summaries)
}

func TestClassify_NoUsableSignificance(t *testing.T) {
	reg := &fakeRegistry{
		ids: map[string][]string{
			brafIdentifierTerm: {"1"},
			brafCoordinateTerm: {"2"},
		},
		records: map[string]*registry.Record{
			"1": {Title: "one"},
			"2": clinical(""),
		},
	}

	res := newTestStrategy(reg).Classify(context.Background(), braf)

	assert.Equal(t, SourceDefault, res.Source)
	assert.InDelta(t, 0.2, res.Score, 1e-9)
	require.NotNil(t, res.Pathogenic())
	assert.False(t, *res.Pathogenic())
	assert.False(t, res.Failed())
}

func TestClassify_EmptyCandidateLists(t *testing.T) {
	reg := &fakeRegistry{}

	res := newTestStrategy(reg).Classify(context.Background(), braf)

	assert.Equal(t, SourceDefault, res.Source)
	assert.InDelta(t, 0.2, res.Score, 1e-9)
	require.NotNil(t, res.Pathogenic())
	assert.False(t, *res.Pathogenic())
	assert.Len(t, reg.searches, 2)
	assert.Empty(t, reg.summaries)
}

func TestClassify_NetworkFailure(t *testing.T) {
	reg := &fakeRegistry{err: networkErr()}

	res := newTestStrategy(reg).Classify(context.Background(), braf)

	assert.Equal(t, SourceError, res.Source)
	assert.InDelta(t, 0.0, res.Score, 1e-9)
	assert.Nil(t, res.Pathogenic())
	assert.True(t, res.Failed())
	assert.ErrorIs(t, res.Err, registry.ErrNetwork)
	// fail-closed: no coordinate search after the identifier search failed
	assert.Equal(t, []string{brafIdentifierTerm}, reg.searches)
}

func TestClassify_MalformedSummaryStopsLookup(t *testing.T) {
	reg := &fakeRegistry{
		ids: map[string][]string{brafIdentifierTerm: {"1", "2"}},
		summaryErr: map[string]error{
			"1": &registry.Error{Kind: registry.KindMalformed, Op: "summary", Err: errors.New("bad json")},
		},
		records: map[string]*registry.Record{"2": clinical("Pathogenic")},
	}

	res := newTestStrategy(reg).Classify(context.Background(), braf)

	assert.True(t, res.Failed())
	assert.InDelta(t, 0.0, res.Score, 1e-9)
	assert.Equal(t, []string{"1"}, reg.summaries)
	assert.Len(t, reg.searches, 1)
}

func TestClassify_SummaryStatusSkipsCandidate(t *testing.T) {
	reg := &fakeRegistry{
		ids: map[string][]string{brafIdentifierTerm: {"1", "2"}},
		summaryErr: map[string]error{
			"1": &registry.Error{Kind: registry.KindStatus, Op: "summary", Err: errors.New("500")},
		},
		records: map[string]*registry.Record{"2": clinical("Pathogenic")},
	}

	res := newTestStrategy(reg).Classify(context.Background(), braf)
	assert.Equal(t, classify.Pathogenic, res.Verdict)
	assert.Equal(t, "2", res.CandidateID)
}

func TestClassify_MissingRSIDSkipsIdentifierSearch(t *testing.T) {
	for _, rsid := range []string{"", "nan", "NaN", "  "} {
		t.Run(rsid, func(t *testing.T) {
			reg := &fakeRegistry{}
			m := braf
			m.RSID = rsid

			newTestStrategy(reg).Classify(context.Background(), m)
			assert.Equal(t, []string{brafCoordinateTerm}, reg.searches)
		})
	}
}

func TestClassify_RSIDPrefixNormalized(t *testing.T) {
	with := &fakeRegistry{}
	without := &fakeRegistry{}
	m := braf
	m.RSID = "113488022"

	newTestStrategy(with).Classify(context.Background(), braf)
	newTestStrategy(without).Classify(context.Background(), m)
	assert.Equal(t, with.searches, without.searches)
}

func TestClassify_Idempotent(t *testing.T) {
	reg := &fakeRegistry{
		ids:     map[string][]string{brafIdentifierTerm: {"1"}},
		records: map[string]*registry.Record{"1": clinical("Likely pathogenic")},
	}
	s := newTestStrategy(reg)

	first := s.Classify(context.Background(), braf)
	second := s.Classify(context.Background(), braf)
	assert.Equal(t, first, second)
}

func TestClassify_RequestDelays(t *testing.T) {
	reg := &fakeRegistry{
		ids: map[string][]string{
			brafIdentifierTerm: {"1", "2"},
			brafCoordinateTerm: {"3"},
		},
	}
	d := &countingDelay{}
	s := NewStrategy(reg)
	s.RequestDelay = d

	s.Classify(context.Background(), braf)

	// two summaries, the coordinate search and its single summary
	assert.Equal(t, 4, d.calls)
}

func TestClassify_CancelledContext(t *testing.T) {
	reg := &fakeRegistry{ids: map[string][]string{brafIdentifierTerm: {"1"}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newTestStrategy(reg).Classify(ctx, braf)
	assert.True(t, res.Failed())
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Empty(t, reg.summaries)
}

func TestClassify_NoRegistry(t *testing.T) {
	res := (&Strategy{}).Classify(context.Background(), braf)
	assert.True(t, res.Failed())
	assert.Nil(t, res.Pathogenic())
}

func TestClassify_ResultInvariant(t *testing.T) {
	registries := []*fakeRegistry{
		{},
		{err: networkErr()},
		{ids: map[string][]string{brafIdentifierTerm: {"1"}}, records: map[string]*registry.Record{"1": clinical("Pathogenic")}},
		{ids: map[string][]string{brafCoordinateTerm: {"1"}}, records: map[string]*registry.Record{"1": clinical("conflicting")}},
	}

	for _, reg := range registries {
		res := newTestStrategy(reg).Classify(context.Background(), braf)
		assert.GreaterOrEqual(t, res.Score, 0.0)
		assert.LessOrEqual(t, res.Score, 1.0)
	}
}
