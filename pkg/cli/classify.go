package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/mchmarny/varsig/pkg/config"
	"github.com/mchmarny/varsig/pkg/data"
	"github.com/mchmarny/varsig/pkg/lookup"
	"github.com/mchmarny/varsig/pkg/registry"
	"github.com/mchmarny/varsig/pkg/table"
	"github.com/mchmarny/varsig/pkg/variant"
	"github.com/urfave/cli/v3"
)

const (
	inputFileDefault  = "mutations.csv"
	outputFileDefault = "pathogenicity_results.csv"
)

var (
	inputFlag = &cli.StringFlag{
		Name:    "input",
		Aliases: []string{"i"},
		Usage:   "CSV file with gene, chromosome, position, ref, alt and rsid columns",
		Value:   inputFileDefault,
	}

	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "CSV file the annotated results are written to",
		Value:   outputFileDefault,
	}

	verboseFlag = &cli.BoolFlag{
		Name:  "verbose",
		Usage: "Add verdict, source, accession, significance and error columns to the output",
	}

	noSaveFlag = &cli.BoolFlag{
		Name:  "no-save",
		Usage: "Do not record the run in the local history",
	}

	classifyCmd = &cli.Command{
		Name:            "classify",
		HideHelpCommand: true,
		Usage:           "Classify every mutation in the input table",
		Flags: []cli.Flag{
			inputFlag,
			outputFlag,
			verboseFlag,
			noSaveFlag,
		},
		Action: cmdClassify,
	}
)

type classifyReport struct {
	Run     *data.Run           `json:"run" yaml:"run"`
	Summary table.Summary       `json:"summary" yaml:"summary"`
	Results []variant.ResultRow `json:"results" yaml:"results"`
}

func cmdClassify(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(ctx)
	in := cmd.String(inputFlag.Name)
	out := cmd.String(outputFlag.Name)

	list, err := readMutations(in)
	if err != nil {
		return err
	}
	slog.Info("classifying mutations", "count", len(list), "input", in)

	run := data.NewRun(in, out)
	batch := newBatch(cfg.Config, getAPIKey(cfg.HomeDir))

	rows, runErr := batch.Run(ctx, list, func(i int, m variant.Mutation, r lookup.Result) {
		slog.Info("classified",
			"progress", fmt.Sprintf("%d/%d", i+1, len(list)),
			"mutation", m.String(),
			"verdict", r.Verdict.String(),
			"score", table.FormatScore(r.Score),
		)
	})

	// partial results are still written when the batch was interrupted
	if err := writeResults(out, rows, cmd.Bool(verboseFlag.Name)); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("classifying %s: %w", in, runErr)
	}

	summary := table.Summarize(rows)
	run.SetSummary(summary)
	run.Finish()

	if !cmd.Bool(noSaveFlag.Name) {
		saveRun(cfg, run, rows)
	}

	if cfg.Format != formatTable {
		return encode(cfg, &classifyReport{Run: run, Summary: summary, Results: rows})
	}

	if err := table.PrintTable(cfg.Out, rows); err != nil {
		return fmt.Errorf("printing results: %w", err)
	}
	return summary.Print(cfg.Out)
}

func readMutations(path string) ([]variant.Mutation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input %s: %w", path, err)
	}
	defer f.Close()

	list, err := table.ReadMutations(f)
	if err != nil {
		return nil, fmt.Errorf("reading input %s: %w", path, err)
	}
	return list, nil
}

func writeResults(path string, rows []variant.ResultRow, verbose bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output %s: %w", path, err)
	}

	if err := table.WriteResults(f, rows, verbose); err != nil {
		f.Close()
		return fmt.Errorf("writing output %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output %s: %w", path, err)
	}
	slog.Debug("results written", "path", path, "rows", len(rows))
	return nil
}

// saveRun records the run; a history failure does not fail the classification.
func saveRun(cfg *appConfig, run *data.Run, rows []variant.ResultRow) {
	db, err := cfg.DB()
	if err == nil {
		err = data.SaveRun(db, run, rows)
	}
	if err != nil {
		slog.Error("failed to save run", "id", run.ID, "error", err)
		return
	}
	slog.Debug("run saved", "id", run.ID, "path", cfg.DBPath)
}

func newStrategy(c *config.Config, apiKey string) *lookup.Strategy {
	if c == nil {
		c = config.Default()
	}

	client := registry.NewClient(registry.Options{
		BaseURL:  c.Registry.BaseURL,
		Database: c.Registry.Database,
		Timeout:  c.Registry.Timeout,
		APIKey:   apiKey,
		Tool:     c.Registry.Tool,
		Email:    c.Registry.Email,
	})

	s := lookup.NewStrategy(client)
	s.RequestDelay = lookup.FixedDelay(c.Lookup.RequestDelay)
	s.MaxCandidates = c.Lookup.MaxCandidates
	s.CoordinateRetMax = c.Lookup.CoordinateRetMax
	return s
}

func newBatch(c *config.Config, apiKey string) *lookup.Batch {
	if c == nil {
		c = config.Default()
	}
	return &lookup.Batch{
		Classifier:    newStrategy(c, apiKey),
		MutationDelay: lookup.FixedDelay(c.Lookup.MutationDelay),
	}
}

var errInvalidMutation = errors.New("invalid mutation")

// validateMutation checks the fields a single lookup needs.
func validateMutation(m variant.Mutation) error {
	switch {
	case m.Gene == "":
		return fmt.Errorf("%w: gene is required", errInvalidMutation)
	case m.Chromosome == "":
		return fmt.Errorf("%w: chromosome is required", errInvalidMutation)
	case m.Position < 0:
		return fmt.Errorf("%w: position must not be negative: %d", errInvalidMutation, m.Position)
	case m.Ref == "" || m.Alt == "":
		return fmt.Errorf("%w: ref and alt are required", errInvalidMutation)
	}
	return nil
}
