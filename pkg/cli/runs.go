package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mchmarny/varsig/pkg/data"
	"github.com/mchmarny/varsig/pkg/table"
	"github.com/urfave/cli/v3"
)

var (
	limitFlag = &cli.IntFlag{
		Name:  "limit",
		Usage: "Maximum number of runs to list",
		Value: data.RunListLimitDefault,
	}

	runIDFlag = &cli.StringFlag{
		Name:     "id",
		Usage:    "Run id",
		Required: true,
	}

	yesFlag = &cli.BoolFlag{
		Name:  "yes",
		Usage: "Skip the confirmation prompt",
	}

	runsCmd = &cli.Command{
		Name:            "runs",
		HideHelpCommand: true,
		Usage:           "List recorded classification runs",
		Flags:           []cli.Flag{limitFlag},
		Action:          cmdListRuns,
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the results of one run",
				Flags:  []cli.Flag{runIDFlag},
				Action: cmdShowRun,
			},
			{
				Name:   "reset",
				Usage:  "Delete all recorded runs",
				Flags:  []cli.Flag{yesFlag},
				Action: cmdReset,
			},
		},
	}
)

func cmdListRuns(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(ctx)
	db, err := cfg.DB()
	if err != nil {
		return err
	}

	list, err := data.ListRuns(db, int(cmd.Int(limitFlag.Name)))
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}

	if cfg.Format != formatTable {
		return encode(cfg, list)
	}
	return printRuns(cfg.Out, list)
}

func cmdShowRun(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(ctx)
	db, err := cfg.DB()
	if err != nil {
		return err
	}

	id := cmd.String(runIDFlag.Name)
	run, err := data.GetRun(db, id)
	if err != nil {
		return fmt.Errorf("getting run: %w", err)
	}
	rows, err := data.GetRunResults(db, id)
	if err != nil {
		return fmt.Errorf("getting run results: %w", err)
	}

	if cfg.Format != formatTable {
		return encode(cfg, &classifyReport{Run: run, Summary: table.Summarize(rows), Results: rows})
	}

	if err := printRuns(cfg.Out, []*data.Run{run}); err != nil {
		return err
	}
	fmt.Fprintln(cfg.Out)
	if err := table.PrintTable(cfg.Out, rows); err != nil {
		return fmt.Errorf("printing results: %w", err)
	}
	return table.Summarize(rows).Print(cfg.Out)
}

func cmdReset(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(ctx)

	if !cmd.Bool(yesFlag.Name) {
		fmt.Fprintf(cfg.Out, "This will permanently delete all runs in %s\n", cfg.DBPath)
		fmt.Fprint(cfg.Out, "Are you sure? [y/N]: ")

		in := cmd.Root().Reader
		if in == nil {
			in = os.Stdin
		}
		answer, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("reading input: %w", err)
		}
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Fprintln(cfg.Out, "Aborted.")
			return nil
		}
	}

	db, err := cfg.DB()
	if err != nil {
		return err
	}
	n, err := data.DeleteRuns(db)
	if err != nil {
		return fmt.Errorf("deleting runs: %w", err)
	}

	slog.Info("runs deleted", "count", n, "path", cfg.DBPath)
	fmt.Fprintln(cfg.Out, "Reset complete.")
	return nil
}

func printRuns(w io.Writer, list []*data.Run) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tDURATION\tTOTAL\tPATHOGENIC\tBENIGN\tUNCERTAIN\tFAILED\tINPUT")
	for _, r := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Duration,
			r.Total, r.Pathogenic, r.Benign, r.Uncertain, r.Failed, r.Input)
	}
	return tw.Flush()
}
