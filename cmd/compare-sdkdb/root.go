package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Jeverett3000/tapi/internal/config"
	"github.com/Jeverett3000/tapi/internal/logger"
	"github.com/Jeverett3000/tapi/internal/snapshot"
	"github.com/Jeverett3000/tapi/internal/storage"
	"github.com/Jeverett3000/tapi/sdkdb"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	exitOK       = 0
	exitMismatch = 1
	exitError    = 2
)

// errMismatch signals a completed comparison that found divergences
var errMismatch = errors.New("snapshots differ")

// Execute runs the command against the process arguments, returning the exit
// status
func Execute() int {
	return run(os.Args[1:], os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, errMismatch) {
			return exitMismatch
		}

		// We default to console format, this is a CLI tool
		l, logErr := logger.New(&logger.Config{Level: "debug", Format: "console"})
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Fprintln(stderr, err)
		}
		return exitError
	}
	return exitOK
}

type options struct {
	jsonOutput bool
	showStats  bool
	strict     bool
	exitZero   bool
	keyPath    string
	nameField  string
	color      string
	format     string
	logLevel   string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "compare-sdkdb <base-file> <sdkdb-file>",
		Short: "Compare an SDKDB against a baseline",
		Long: `Compares a candidate SDK database against a baseline and reports the first
divergence found in every library. Entries are matched by install name, keys
and entries only present in the candidate are ignored.

Snapshots are JSON files (or .yaml/.yml), or s3://bucket/object locations.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(".")
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			opts.apply(cmd, cfg)
			return runCompare(cmd.Context(), cfg, opts, args[0], args[1], stdout, stderr)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.jsonOutput, "json", false, "Print mismatches as JSON instead of diagnostic lines")
	flags.BoolVar(&opts.showStats, "stats", false, "Print a summary of the comparison to stderr")
	flags.BoolVar(&opts.strict, "strict", false, "Fail a target when any of its entries mismatch")
	flags.BoolVar(&opts.exitZero, "exit-zero", false, "Exit 0 even when the snapshots differ")
	flags.StringVar(&opts.keyPath, "key-path", "", "Dotted path of the entry install name (default binaryInfo.installName)")
	flags.StringVar(&opts.nameField, "name-field", "", "Field used to label list elements in paths (default name)")
	flags.StringVar(&opts.color, "color", "", "Colorize output: auto, always or never")
	flags.StringVar(&opts.format, "format", "", "Snapshot format: auto, json or yaml")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")

	return cmd
}

// apply overrides configuration with any flags set on the command line
func (o *options) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("strict") {
		cfg.Compare.Strict = o.strict
	}
	if flags.Changed("exit-zero") {
		cfg.Compare.ExitZero = o.exitZero
	}
	if flags.Changed("key-path") {
		cfg.Compare.KeyPath = o.keyPath
	}
	if flags.Changed("name-field") {
		cfg.Compare.NameField = o.nameField
	}
	if flags.Changed("color") {
		cfg.Compare.Color = o.color
	}
	if flags.Changed("format") {
		cfg.Compare.Format = o.format
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
}

// jsonReport is the --json output document
type jsonReport struct {
	Baseline   string           `json:"baseline"`
	Candidate  string           `json:"candidate"`
	Equal      bool             `json:"equal"`
	Mismatches sdkdb.Mismatches `json:"mismatches"`
	Stats      *sdkdb.Stats     `json:"stats"`
}

func runCompare(ctx context.Context, cfg *config.Config, opts *options, basePath, sdkdbPath string, stdout, stderr io.Writer) error {
	startTime := time.Now()
	if ctx == nil {
		ctx = context.Background()
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logg.Sync()

	keyPath := cfg.Compare.KeyPathFields()
	if len(keyPath) == 0 {
		return fmt.Errorf("key path must not be empty")
	}
	format, err := snapshot.ParseFormat(cfg.Compare.Format)
	if err != nil {
		return err
	}

	loader := &snapshot.Loader{Format: format, Logger: logg}
	if storage.IsObjectURL(basePath) || storage.IsObjectURL(sdkdbPath) {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to create storage client: %w", err)
		}
		loader.Storage = client
	}

	baseline, err := loadDatabase(ctx, loader, basePath)
	if err != nil {
		return err
	}
	candidate, err := loadDatabase(ctx, loader, sdkdbPath)
	if err != nil {
		return err
	}

	var (
		stats   = &sdkdb.Stats{}
		collect *sdkdb.CollectReporter
		rep     sdkdb.Reporter
	)
	if opts.jsonOutput {
		collect = &sdkdb.CollectReporter{}
		rep = collect
	} else {
		rep = &sdkdb.TextReporter{W: stdout, Color: useColor(cfg.Compare.Color, stdout)}
	}

	c := sdkdb.New(
		sdkdb.OptionReporter(rep),
		sdkdb.OptionSetStats(stats),
		sdkdb.OptionLogger(logg),
		sdkdb.OptionKeyPath(keyPath...),
		sdkdb.OptionNameField(cfg.Compare.NameField),
		sdkdb.OptionStrict(cfg.Compare.Strict),
	)

	equal, err := c.CompareDatabase(baseline, candidate)
	if err != nil {
		return fmt.Errorf("comparison aborted: %w", err)
	}

	if opts.jsonOutput {
		report := jsonReport{
			Baseline:   basePath,
			Candidate:  sdkdbPath,
			Equal:      equal && !stats.Failed(),
			Mismatches: collect.Mismatches(),
			Stats:      stats,
		}
		if report.Mismatches == nil {
			report.Mismatches = sdkdb.Mismatches{}
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	if opts.showStats {
		if useColor(cfg.Compare.Color, stderr) {
			fmt.Fprint(stderr, sdkdb.FormatPrettyStatsColor(stats))
		} else {
			fmt.Fprint(stderr, sdkdb.FormatPrettyStats(stats))
		}
	}

	failed := !equal || stats.Failed()
	logg.Info("Comparison finished",
		zap.Bool("equal", !failed),
		zap.Int("targets", stats.Targets),
		zap.Int("entries", stats.Entries),
		zap.Int("mismatched", stats.Mismatched),
		zap.Int("missing", stats.Missing),
		zap.Duration("execution_time", time.Since(startTime)),
	)

	if failed && !cfg.Compare.ExitZero {
		return errMismatch
	}
	return nil
}

func loadDatabase(ctx context.Context, loader *snapshot.Loader, location string) (map[string]interface{}, error) {
	v, err := loader.Load(ctx, location)
	if err != nil {
		return nil, err
	}
	db, err := sdkdb.AsDatabase(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}
	return db, nil
}

// useColor resolves a color setting for a writer, auto colors terminals only
func useColor(setting string, w io.Writer) bool {
	switch setting {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
