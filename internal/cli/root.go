// Package cli wires configuration, discovery, the harness and reporting
// into the conform command.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/log"
	"github.com/spf13/cobra"

	"conform/internal/config"
	"conform/internal/exitcodes"
)

// Version is the conform release.
const Version = "0.3.0"

// RootOptions holds flags shared by every command.
type RootOptions struct {
	ConfigPath  string
	Interpreter string
	TestsDir    string
	Extension   string
	Reference   string
	Timeout     string
	Verbose     bool

	environ []string
	stdout  io.Writer
	stderr  io.Writer
}

// exitError carries a specific exit code out of a RunE.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// withCode attaches an exit code to err. A nil err with a non-zero code
// still stops the command with that code.
func withCode(code int, err error) error {
	if code == exitcodes.Success && err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// NewRootCommand creates the conform command tree. The root command runs
// the suite; subcommands inspect it without running anything.
func NewRootCommand(environ []string, stdout, stderr io.Writer) *cobra.Command {
	opts := &RootOptions{environ: environ, stdout: stdout, stderr: stderr}
	runOpts := &RunOptions{}

	cmd := &cobra.Command{
		Use:           "conform",
		Short:         "Conformance test runner for script interpreters",
		Long:          "Runs every test script against an interpreter, classifies each run by its _pass/_fail/_timeout name, and compares results with a saved reference.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(cmd, opts, runOpts)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.ConfigPath, "config", "", "config file (default "+config.DefaultFile+" if present)")
	pf.StringVar(&opts.Interpreter, "interpreter", "", "path to the interpreter under test")
	pf.StringVar(&opts.TestsDir, "tests", "", "directory containing test scripts")
	pf.StringVar(&opts.Extension, "ext", "", "test script extension")
	pf.StringVar(&opts.Reference, "reference", "", "reference file path")
	pf.StringVar(&opts.Timeout, "timeout", "", "per-test wall-clock budget (e.g. 500ms)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging")

	f := cmd.Flags()
	f.BoolVar(&runOpts.SaveReference, "save-reference", false, "save results as the new reference")
	f.BoolVar(&runOpts.Compare, "compare", false, "compare results with the saved reference")
	f.BoolVar(&runOpts.FailOnDrift, "fail-on-drift", false, "exit non-zero when --compare finds changes")
	f.BoolVar(&runOpts.JSON, "json", false, "print results as JSON")
	f.StringVar(&runOpts.ReportFile, "report-file", "", "also write the JSON report to this path")
	f.BoolVar(&runOpts.CI, "ci", false, "emit GitHub Actions annotations")

	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// Execute runs the command line and returns the process exit code.
func Execute(args, environ []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand(environ, stdout, stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	if err == nil {
		return exitcodes.Success
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(stderr, "Error:", ee.err)
		}
		return ee.code
	}
	// cobra usage errors: unknown flag, unexpected argument.
	fmt.Fprintln(stderr, "Error:", err)
	return exitcodes.ConfigErr
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
			return nil
		},
	}
}

// newLogger builds the terminal logger on stderr.
func newLogger(w io.Writer, verbose bool) log.Logger {
	level := log.LevelInfo
	if verbose {
		level = log.LevelDebug
	}
	return log.NewLogger(log.NewTerminalHandlerWithLevel(w, level, false))
}
