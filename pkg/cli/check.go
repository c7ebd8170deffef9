package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/mchmarny/varsig/pkg/table"
	"github.com/mchmarny/varsig/pkg/variant"
	"github.com/urfave/cli/v3"
)

var (
	geneFlag = &cli.StringFlag{
		Name:     "gene",
		Usage:    "Gene symbol (e.g. BRCA1)",
		Required: true,
	}

	chromFlag = &cli.StringFlag{
		Name:     "chrom",
		Usage:    "Chromosome, with or without the chr prefix",
		Required: true,
	}

	posFlag = &cli.IntFlag{
		Name:     "pos",
		Usage:    "GRCh37 position",
		Required: true,
	}

	refFlag = &cli.StringFlag{
		Name:     "ref",
		Usage:    "Reference allele",
		Required: true,
	}

	altFlag = &cli.StringFlag{
		Name:     "alt",
		Usage:    "Alternate allele",
		Required: true,
	}

	rsidFlag = &cli.StringFlag{
		Name:  "rsid",
		Usage: "Reference SNP identifier (optional, e.g. rs80357906)",
	}

	checkCmd = &cli.Command{
		Name:            "check",
		HideHelpCommand: true,
		Usage:           "Classify a single mutation",
		Flags: []cli.Flag{
			geneFlag,
			chromFlag,
			posFlag,
			refFlag,
			altFlag,
			rsidFlag,
		},
		Action: cmdCheck,
	}
)

func cmdCheck(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(ctx)

	m := variant.Mutation{
		Gene:       strings.TrimSpace(cmd.String(geneFlag.Name)),
		Chromosome: strings.TrimSpace(cmd.String(chromFlag.Name)),
		Position:   int(cmd.Int(posFlag.Name)),
		Ref:        strings.TrimSpace(cmd.String(refFlag.Name)),
		Alt:        strings.TrimSpace(cmd.String(altFlag.Name)),
		RSID:       strings.TrimSpace(cmd.String(rsidFlag.Name)),
	}
	if err := validateMutation(m); err != nil {
		return err
	}

	row := newStrategy(cfg.Config, getAPIKey(cfg.HomeDir)).Classify(ctx, m).Row(m)

	if cfg.Format != formatTable {
		return encode(cfg, row)
	}
	if err := table.PrintTable(cfg.Out, []variant.ResultRow{row}); err != nil {
		return fmt.Errorf("printing result: %w", err)
	}
	return nil
}
