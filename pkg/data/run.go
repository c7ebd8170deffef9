package data

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mchmarny/varsig/pkg/table"
	"github.com/mchmarny/varsig/pkg/variant"
)

const (
	timeFormat = "2006-01-02T15:04:05Z"

	RunListLimitDefault = 20

	insertRunSQL = `INSERT INTO run (
			id, input, output, started_at, duration_ms, total, pathogenic, benign, uncertain, failed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	insertResultSQL = `INSERT INTO result (
			run_id, seq, gene, position, mutation, rsid, pathogenic, score,
			verdict, source, accession, significance, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectRunColumns = `id, input, output, started_at, duration_ms, total, pathogenic, benign, uncertain, failed`

	selectRunsSQL = `SELECT ` + selectRunColumns + ` FROM run ORDER BY started_at DESC, id LIMIT ?`

	selectRunSQL = `SELECT ` + selectRunColumns + ` FROM run WHERE id = ?`

	selectResultsSQL = `SELECT gene, position, mutation, rsid, pathogenic, score,
			verdict, source, accession, significance, error
		FROM result
		WHERE run_id = ?
		ORDER BY seq
	`

	deleteResultsSQL = `DELETE FROM result`
	deleteRunsSQL    = `DELETE FROM run`
)

// Run is one recorded batch classification.
type Run struct {
	ID         string    `json:"id" yaml:"id"`
	Input      string    `json:"input,omitempty" yaml:"input,omitempty"`
	Output     string    `json:"output,omitempty" yaml:"output,omitempty"`
	StartedAt  time.Time `json:"started_at" yaml:"startedAt"`
	Duration   string    `json:"duration" yaml:"duration"`
	Total      int       `json:"total" yaml:"total"`
	Pathogenic int       `json:"pathogenic" yaml:"pathogenic"`
	Benign     int       `json:"benign" yaml:"benign"`
	Uncertain  int       `json:"uncertain" yaml:"uncertain"`
	Failed     int       `json:"failed" yaml:"failed"`

	durationMS int64
}

// NewRun starts a run record with a fresh id.
func NewRun(input, output string) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Input:     input,
		Output:    output,
		StartedAt: time.Now().UTC(),
	}
}

// Finish sets the duration from the start time.
func (r *Run) Finish() {
	r.durationMS = time.Since(r.StartedAt).Milliseconds()
	r.Duration = (time.Duration(r.durationMS) * time.Millisecond).String()
}

// SetSummary copies the outcome counts of the run.
func (r *Run) SetSummary(s table.Summary) {
	r.Total = s.Total
	r.Pathogenic = s.Pathogenic
	r.Benign = s.Benign
	r.Uncertain = s.Uncertain
	r.Failed = s.Failed
}

// SaveRun stores the run and its rows in one transaction.
func SaveRun(db *sql.DB, run *Run, rows []variant.ResultRow) error {
	if db == nil {
		return errDBNotInitialized
	}
	if run == nil || run.ID == "" {
		return errors.New("run with id is required")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("error starting run tx: %w", err)
	}

	if _, err := tx.Exec(insertRunSQL, run.ID, run.Input, run.Output, run.StartedAt.UTC().Format(timeFormat),
		run.durationMS, run.Total, run.Pathogenic, run.Benign, run.Uncertain, run.Failed); err != nil {
		rollbackTransaction(tx)
		return fmt.Errorf("error inserting run %s: %w", run.ID, err)
	}

	stmt, err := tx.Prepare(insertResultSQL)
	if err != nil {
		rollbackTransaction(tx)
		return fmt.Errorf("error preparing result insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range rows {
		if _, err := stmt.Exec(run.ID, i, r.Gene, r.Position, r.Mutation, r.RSID, pathogenicValue(r.Pathogenic),
			r.Score, r.Verdict, r.Source, r.Accession, r.Significance, r.Error); err != nil {
			rollbackTransaction(tx)
			return fmt.Errorf("error inserting result %d of run %s: %w", i, run.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing run tx: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func ListRuns(db *sql.DB, limit int) ([]*Run, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if limit <= 0 {
		limit = RunListLimitDefault
	}

	rows, err := db.Query(selectRunsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying runs: %w", err)
	}
	defer rows.Close()

	list := make([]*Run, 0)
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return list, nil
}

// GetRun returns one run or ErrNotFound.
func GetRun(db *sql.DB, id string) (*Run, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	r, err := scanRun(db.QueryRow(selectRunSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return r, nil
}

// GetRunResults returns the rows of a run in input order.
func GetRunResults(db *sql.DB, id string) ([]variant.ResultRow, error) {
	if _, err := GetRun(db, id); err != nil {
		return nil, err
	}

	rows, err := db.Query(selectResultsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("error querying results of run %s: %w", id, err)
	}
	defer rows.Close()

	list := make([]variant.ResultRow, 0)
	for rows.Next() {
		var r variant.ResultRow
		var p sql.NullBool
		if err := rows.Scan(&r.Gene, &r.Position, &r.Mutation, &r.RSID, &p, &r.Score,
			&r.Verdict, &r.Source, &r.Accession, &r.Significance, &r.Error); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		if p.Valid {
			r.Pathogenic = variant.Bool(p.Bool)
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}
	return list, nil
}

// DeleteRuns removes all recorded runs and their results.
func DeleteRuns(db *sql.DB) (int64, error) {
	if db == nil {
		return 0, errDBNotInitialized
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("error starting delete tx: %w", err)
	}
	if _, err := tx.Exec(deleteResultsSQL); err != nil {
		rollbackTransaction(tx)
		return 0, fmt.Errorf("error deleting results: %w", err)
	}
	res, err := tx.Exec(deleteRunsSQL)
	if err != nil {
		rollbackTransaction(tx)
		return 0, fmt.Errorf("error deleting runs: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing delete tx: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	r := &Run{}
	var started string
	if err := s.Scan(&r.ID, &r.Input, &r.Output, &started, &r.durationMS,
		&r.Total, &r.Pathogenic, &r.Benign, &r.Uncertain, &r.Failed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run row: %w", err)
	}

	t, err := time.Parse(timeFormat, started)
	if err != nil {
		return nil, fmt.Errorf("invalid run start time %q: %w", started, err)
	}
	r.StartedAt = t
	r.Duration = (time.Duration(r.durationMS) * time.Millisecond).String()
	return r, nil
}

func pathogenicValue(v *bool) any {
	if v == nil {
		return nil
	}
	return *v
}
