package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mchmarny/varsig/pkg/config"
	"github.com/mchmarny/varsig/pkg/data"
	"github.com/mchmarny/varsig/pkg/logging"
	vnet "github.com/mchmarny/varsig/pkg/net"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	appName = "varsig"

	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""

	debugFlag = &cli.BoolFlag{
		Name:    "debug",
		Usage:   "Prints verbose logs (optional, default: false)",
		Sources: cli.EnvVars("VARSIG_DEBUG"),
	}

	configFlag = &cli.StringFlag{
		Name:    "config",
		Usage:   "Path to the YAML config file (default: ~/.varsig/config.yaml)",
		Sources: cli.EnvVars("VARSIG_CONFIG"),
	}

	dbFilePathFlag = &cli.StringFlag{
		Name:    "db",
		Usage:   "Path to the Sqlite run history file (default: ~/.varsig/data.db)",
		Sources: cli.EnvVars("VARSIG_DB"),
	}

	formatFlag = &cli.StringFlag{
		Name:  "format",
		Usage: fmt.Sprintf("Output format [%s]", strings.Join([]string{formatTable, formatJSON, formatYAML}, ", ")),
		Value: formatTable,
	}
)

type appConfigKey struct{}

type appConfig struct {
	HomeDir string
	DBPath  string
	Debug   bool
	Format  string
	Config  *config.Config
	Out     io.Writer

	dbOnce sync.Once
	db     *sql.DB
	dbErr  error
}

// DB opens the run history store on first use.
func (a *appConfig) DB() (*sql.DB, error) {
	a.dbOnce.Do(func() {
		if err := data.Init(a.DBPath); err != nil {
			a.dbErr = fmt.Errorf("initializing database: %w", err)
			return
		}
		a.db, a.dbErr = data.GetDB(a.DBPath)
	})
	return a.db, a.dbErr
}

func (a *appConfig) Close() {
	if a.db != nil {
		a.db.Close()
	}
}

func getConfig(ctx context.Context) *appConfig {
	if cfg, ok := ctx.Value(appConfigKey{}).(*appConfig); ok {
		return cfg
	}
	return &appConfig{Config: config.Default(), Format: formatTable, Out: os.Stdout}
}

// Execute creates and runs the CLI application.
func Execute() {
	initLogging(false)
	vnet.UserAgent = fmt.Sprintf("%s/%s", appName, version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		stop()
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:                  appName,
		Version:               fmt.Sprintf("%s (%s - %s)", version, commit, date),
		Usage:                 "Classify point mutations as pathogenic, benign or uncertain using ClinVar",
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Flags: []cli.Flag{
			debugFlag,
			configFlag,
			dbFilePathFlag,
			formatFlag,
		},
		Commands: []*cli.Command{
			classifyCmd,
			checkCmd,
			authCmd,
			runsCmd,
			serverCmd,
		},
		Before: before,
		After: func(ctx context.Context, _ *cli.Command) error {
			getConfig(ctx).Close()
			return nil
		},
	}
}

func before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	debug := cmd.Bool(debugFlag.Name)
	initLogging(debug)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("error loading .env file", "error", err)
	}

	format := strings.ToLower(cmd.String(formatFlag.Name))
	switch format {
	case formatTable, formatJSON:
	case formatYAML, "yml":
		format = formatYAML
	default:
		return ctx, fmt.Errorf("unsupported format: %s", format)
	}

	home := getHomeDir()

	cfgPath := cmd.String(configFlag.Name)
	var cfg *config.Config
	var err error
	if cfgPath == "" {
		cfg, err = config.ReadOrCreate(home)
	} else {
		cfg, err = config.Read(cfgPath)
	}
	if err != nil {
		return ctx, fmt.Errorf("loading config: %w", err)
	}

	dbPath := cmd.String(dbFilePathFlag.Name)
	if dbPath == "" {
		dbPath = filepath.Join(home, data.DataFileName)
	}

	out := cmd.Root().Writer
	if out == nil {
		out = os.Stdout
	}

	return context.WithValue(ctx, appConfigKey{}, &appConfig{
		HomeDir: home,
		DBPath:  dbPath,
		Debug:   debug,
		Format:  format,
		Config:  cfg,
		Out:     out,
	}), nil
}

func initLogging(debug bool) {
	level := "info"
	if debug {
		level = "debug"
	}
	logging.SetDefaultCLILogger(level)
}

func getHomeDir() string {
	dir, created, err := config.GetOrCreateHomeDir(appName)
	if err != nil {
		slog.Debug("error getting home dir, using current dir instead", "error", err)
		return "."
	}
	if created {
		slog.Debug("created home dir", "path", dir)
	}
	return dir
}

func encode(cfg *appConfig, v any) error {
	if cfg.Format == formatYAML {
		e := yaml.NewEncoder(cfg.Out)
		defer e.Close()
		return e.Encode(v)
	}
	e := json.NewEncoder(cfg.Out)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
