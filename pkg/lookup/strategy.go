package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mchmarny/varsig/pkg/classify"
	"github.com/mchmarny/varsig/pkg/registry"
	"github.com/mchmarny/varsig/pkg/variant"
)

const (
	MaxCandidatesDefault    = 3
	CoordinateRetMaxDefault = 10
)

var (
	// ErrNoEvidence means a search returned no candidates.
	ErrNoEvidence = errors.New("no candidates found")
	// ErrInconclusive means no candidate carried a recognizable significance.
	ErrInconclusive = errors.New("no conclusive candidate")
)

// Registry is the subset of the registry client the strategy needs.
type Registry interface {
	Search(ctx context.Context, term string, retMax int) ([]string, error)
	Summary(ctx context.Context, id string) (*registry.Record, error)
}

// Classifier classifies one mutation. It never fails; failures are folded into the Result.
type Classifier interface {
	Classify(ctx context.Context, m variant.Mutation) Result
}

// Strategy looks a mutation up by rsid first and by coordinates second.
type Strategy struct {
	Registry Registry
	// RequestDelay precedes every summary fetch and the coordinate search.
	RequestDelay Delay
	// MaxCandidates bounds how many ids of one search are fetched.
	MaxCandidates int
	// CoordinateRetMax is the page size requested by the coordinate search.
	CoordinateRetMax int
}

// NewStrategy returns a Strategy with the default limits and request delay.
func NewStrategy(r Registry) *Strategy {
	return &Strategy{
		Registry:         r,
		RequestDelay:     FixedDelay(RequestDelayDefault),
		MaxCandidates:    MaxCandidatesDefault,
		CoordinateRetMax: CoordinateRetMaxDefault,
	}
}

// Classify returns the verdict for m. It does not return errors: a lookup
// without evidence yields the unconfirmed result and any failure yields the
// failed result.
func (s *Strategy) Classify(ctx context.Context, m variant.Mutation) Result {
	if s.Registry == nil {
		return failed(errors.New("registry is required"))
	}

	res, err := s.lookup(ctx, m)
	if err != nil {
		return resolve(m, err)
	}

	slog.Debug("classified",
		"mutation", m.String(),
		"source", res.Source,
		"candidate", res.CandidateID,
		"verdict", res.Verdict.String(),
	)
	return res
}

// resolve maps each lookup error kind onto its result.
func resolve(m variant.Mutation, err error) Result {
	switch {
	case errors.Is(err, ErrNoEvidence), errors.Is(err, ErrInconclusive):
		slog.Debug("no conclusive evidence", "mutation", m.String(), "reason", err)
		return unconfirmed()
	case errors.Is(err, registry.ErrNetwork), errors.Is(err, registry.ErrMalformed),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		slog.Warn("lookup failed", "mutation", m.String(), "error", err)
		return failed(err)
	default:
		slog.Warn("lookup failed with unexpected error", "mutation", m.String(), "error", err)
		return failed(err)
	}
}

func (s *Strategy) lookup(ctx context.Context, m variant.Mutation) (Result, error) {
	if m.HasRSID() {
		res, err := s.search(ctx, m.IdentifierTerm(), 0, SourceIdentifier)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, ErrNoEvidence) && !errors.Is(err, ErrInconclusive) {
			return Result{}, err
		}
		slog.Debug("rsid lookup inconclusive, trying coordinates", "rsid", m.RSID, "reason", err)
	}

	if err := wait(ctx, s.RequestDelay); err != nil {
		return Result{}, err
	}

	return s.search(ctx, m.CoordinateTerm(), s.CoordinateRetMax, SourceCoordinate)
}

func (s *Strategy) search(ctx context.Context, term string, retMax int, src Source) (Result, error) {
	ids, err := s.Registry.Search(ctx, term, retMax)
	if err != nil {
		if errors.Is(err, registry.ErrStatus) {
			return Result{}, fmt.Errorf("%w: %s: %w", ErrNoEvidence, term, err)
		}
		return Result{}, fmt.Errorf("searching %s: %w", term, err)
	}

	if len(ids) == 0 {
		return Result{}, fmt.Errorf("%w: %s", ErrNoEvidence, term)
	}

	return s.candidates(ctx, ids, src)
}

func (s *Strategy) candidates(ctx context.Context, ids []string, src Source) (Result, error) {
	limit := s.MaxCandidates
	if limit <= 0 {
		limit = MaxCandidatesDefault
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}

	for _, id := range ids {
		if err := wait(ctx, s.RequestDelay); err != nil {
			return Result{}, err
		}

		rec, err := s.Registry.Summary(ctx, id)
		if err != nil {
			if errors.Is(err, registry.ErrNoRecord) || errors.Is(err, registry.ErrStatus) {
				slog.Debug("skipping candidate", "id", id, "reason", err)
				continue
			}
			return Result{}, fmt.Errorf("fetching summary %s: %w", id, err)
		}

		c, ok := classify.Record(rec)
		if !ok {
			slog.Debug("candidate inconclusive", "id", id, "significance", c.Significance)
			continue
		}

		return Result{
			Verdict:      c.Verdict,
			Score:        c.Score,
			Source:       src,
			CandidateID:  id,
			Accession:    rec.Accession,
			Significance: c.Significance,
		}, nil
	}

	return Result{}, ErrInconclusive
}
