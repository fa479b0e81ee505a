package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"conform/internal/baseline"
	"conform/internal/config"
	"conform/internal/drift"
	"conform/internal/exitcodes"
	"conform/internal/harness"
	"conform/internal/launcher"
	"conform/internal/report"
	"conform/internal/suite"
)

// RunOptions holds flags of the root (run) command.
type RunOptions struct {
	SaveReference bool
	Compare       bool
	FailOnDrift   bool
	JSON          bool
	ReportFile    string
	CI            bool
}

// jsonOutput is printed with --json.
type jsonOutput struct {
	Run   report.JSONReport `json:"run"`
	Drift *drift.Report     `json:"drift,omitempty"`
}

// resolveConfig layers defaults, the config file, the environment and
// explicitly set flags, in that order.
func resolveConfig(cmd *cobra.Command, opts *RootOptions) (*config.Config, error) {
	path, required := opts.ConfigPath, true
	if path == "" {
		path, required = config.DefaultFile, false
	}
	cfg, err := config.Load(path, required)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(opts.environ)

	flags := cmd.Flags()
	if flags.Changed("interpreter") {
		cfg.Interpreter = opts.Interpreter
	}
	if flags.Changed("tests") {
		cfg.TestsDir = opts.TestsDir
	}
	if flags.Changed("ext") {
		cfg.Extension = opts.Extension
	}
	if flags.Changed("reference") {
		cfg.Reference = opts.Reference
	}
	if flags.Changed("timeout") {
		cfg.RawTimeout = opts.Timeout
	}
	cfg.Extension = strings.TrimPrefix(cfg.Extension, ".")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// discover lists declarations, printing the naming report on violation.
// With jsonOut the report goes to stderr so stdout stays valid JSON.
func discover(opts *RootOptions, cfg *config.Config, jsonOut bool) ([]suite.Declaration, error) {
	decls, err := suite.Discover(cfg.TestsDir, cfg.Extension)
	if err != nil {
		var nerr *suite.NamingError
		if errors.As(err, &nerr) {
			w := opts.stdout
			if jsonOut {
				w = opts.stderr
			}
			fmt.Fprint(w, suite.FormatNamingError(nerr))
			return nil, withCode(exitcodes.ConfigErr, nil)
		}
		return nil, withCode(exitcodes.ConfigErr, err)
	}
	return decls, nil
}

func runSuite(cmd *cobra.Command, opts *RootOptions, runOpts *RunOptions) error {
	logger := newLogger(opts.stderr, opts.Verbose)

	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return withCode(exitcodes.ConfigErr, err)
	}
	timeout, _ := cfg.Timeout()
	ciMode := runOpts.CI || config.EnvBool(opts.environ, config.EnvCI) || config.EnvBool(opts.environ, "CI")

	// Configuration errors abort before any test runs.
	decls, err := discover(opts, cfg, runOpts.JSON)
	if err != nil {
		return err
	}
	if err := launcher.CheckInterpreter(cfg.Interpreter); err != nil {
		return withCode(exitcodes.ConfigErr, err)
	}

	var obs harness.Observer
	if !runOpts.JSON {
		fmt.Fprintf(opts.stdout, "Found %d test files\n", len(decls))
		fmt.Fprintln(opts.stdout, strings.Repeat("=", 60))
		obs = report.NewProgress(opts.stdout)
	}

	runner := &launcher.Runner{
		Interpreter: cfg.Interpreter,
		Timeout:     timeout,
		MaxOutput:   cfg.MaxOutput,
		Log:         logger.New("component", "launcher"),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	rec, err := harness.New(runner, logger, obs).Run(ctx, decls)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return withCode(exitcodes.Interrupted, err)
		}
		return withCode(exitcodes.TestFailure, err)
	}

	summary := rec.Summarize()
	codes := []int{rec.ExitCode()}

	if !runOpts.JSON {
		fmt.Fprintln(opts.stdout, strings.Repeat("=", 60))
		if err := report.WriteSummary(opts.stdout, summary); err != nil {
			return withCode(exitcodes.TestFailure, err)
		}
		if ciMode {
			fmt.Fprint(opts.stdout, report.FormatCI(summary))
		}
	}

	runReport := report.NewJSONReport(rec)
	if runOpts.ReportFile != "" {
		if err := runReport.WriteToFile(runOpts.ReportFile); err != nil {
			logger.Error("Failed to write report file", "path", runOpts.ReportFile, "err", err)
			codes = append(codes, exitcodes.TestFailure)
		}
	}

	store := baseline.NewStore(cfg.Reference)

	// Compare before saving so --compare --save-reference diffs against
	// the previous reference rather than the one just written.
	var driftReport *drift.Report
	if runOpts.Compare {
		r, code := compareWithReference(opts, runOpts, store, rec, ciMode)
		driftReport = r
		codes = append(codes, code)
	}

	if runOpts.SaveReference {
		if err := store.Save(baseline.FromRecord(rec, cfg.InterpreterVersion)); err != nil {
			fmt.Fprintln(opts.stderr, "Error:", err)
			codes = append(codes, exitcodes.BaselineErr)
		} else if !runOpts.JSON {
			fmt.Fprintf(opts.stdout, "Reference saved to %s\n", cfg.Reference)
		}
	}

	if runOpts.JSON {
		enc := json.NewEncoder(opts.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(jsonOutput{Run: runReport, Drift: driftReport}); err != nil {
			return withCode(exitcodes.TestFailure, err)
		}
	}

	return withCode(exitcodes.Worst(codes...), nil)
}

// compareWithReference loads the reference and prints the drift report. A
// missing reference is not an error; a corrupt one fails only the compare.
func compareWithReference(opts *RootOptions, runOpts *RunOptions, store *baseline.Store, rec harness.Record, ciMode bool) (*drift.Report, int) {
	snap, found, err := store.Load()
	if err != nil {
		fmt.Fprintln(opts.stderr, "Error:", err)
		return nil, exitcodes.BaselineErr
	}
	if !found {
		if !runOpts.JSON {
			fmt.Fprintln(opts.stdout, "No reference file found. Run with --save-reference first.")
		}
		return nil, exitcodes.Success
	}

	r := drift.Compare(rec, snap)
	if !runOpts.JSON {
		fmt.Fprint(opts.stdout, drift.FormatCLI(r))
		if ciMode {
			fmt.Fprint(opts.stdout, drift.FormatCI(r))
		}
	}
	if r.HasChanges && runOpts.FailOnDrift {
		return &r, exitcodes.Drift
	}
	return &r, exitcodes.Success
}
