package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/ansel1/spectang/config"
	"github.com/ansel1/spectang/engine"
	"github.com/ansel1/spectang/output"
	"github.com/ansel1/spectang/output/format"
	"github.com/ansel1/spectang/reporter"
	"github.com/ansel1/spectang/results"
	"github.com/ansel1/spectang/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// Exit codes
const (
	exitOK       = 0 // every case passed
	exitFailures = 1 // a case or package failed
	exitUsage    = 2 // bad flags or config
	exitInput    = 3 // input could not be read or copied
	exitRender   = 4 // some output could not be rendered
)

// exitError carries the exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageError(msg string, args ...any) error {
	return &exitError{code: exitUsage, err: fmt.Errorf(msg, args...)}
}

func inputError(err error) error {
	return &exitError{code: exitInput, err: err}
}

type options struct {
	infile     string
	outfile    string
	jsonfile   string
	configPath string
	notty      bool
	replay     bool
	rate       float64
	failures   bool
	message    bool
	noColor    bool
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// execute runs the command and returns the process exit code.
func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, nil)))

	code := exitOK
	cmd := newRootCmd(stdin, stdout, &code)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "%s %v\n", color.RedString("Error:"), err)
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		return exitUsage
	}
	return code
}

func newRootCmd(stdin io.Reader, stdout io.Writer, code *int) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "spectang",
		Short: "Spec-style reporter for go test -json output",
		Long: `spectang reads the output of "go test -json" and prints every suite and
case as an indented tree, followed by a summary of passed, failed and
ignored cases.

Examples:
  go test -json ./... | spectang
  spectang -f run.json
  spectang -f run.json --replay --rate 0.5`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := run(cmd, opts, stdin, stdout)
			*code = c
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.infile, "file", "f", "", "Read from file instead of stdin")
	flags.StringVar(&opts.outfile, "outfile", "", "Save all input to the specified file")
	flags.StringVar(&opts.jsonfile, "jsonfile", "", "Save JSON events to the specified file")
	flags.BoolVar(&opts.notty, "notty", false, "Don't use the live status line, print plain text")
	flags.BoolVar(&opts.replay, "replay", false, "Replay events with timing from the original run (requires -f)")
	flags.Float64Var(&opts.rate, "rate", 1.0, "Replay rate multiplier (0=instant, 1=original speed, 0.5=2x speed)")
	flags.BoolVar(&opts.failures, "failures", true, "List every failure after the summary")
	flags.BoolVar(&opts.message, "message", false, "Show failure messages instead of full output")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	flags.StringVar(&opts.configPath, "config", "", "Path to config file (default "+config.DefaultFilename+" when present)")

	return cmd
}

// applyConfig fills every option not set on the command line from cfg.
func applyConfig(cmd *cobra.Command, cfg *config.Config, opts *options) {
	flags := cmd.Flags()
	if !flags.Changed("failures") {
		opts.failures = cfg.GetFailures()
	}
	if !flags.Changed("message") {
		opts.message = cfg.GetMessage()
	}
	if !flags.Changed("no-color") {
		opts.noColor = cfg.GetNoColor()
	}
	if !flags.Changed("notty") {
		opts.notty = cfg.GetNoTTY()
	}
	if !flags.Changed("rate") {
		opts.rate = cfg.GetRate()
	}
	if !flags.Changed("outfile") && cfg.OutFile != "" {
		opts.outfile = cfg.OutFile
	}
	if !flags.Changed("jsonfile") && cfg.JSONFile != "" {
		opts.jsonfile = cfg.JSONFile
	}
}

func run(cmd *cobra.Command, opts *options, stdin io.Reader, stdout io.Writer) (int, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return exitUsage, &exitError{code: exitUsage, err: err}
	}
	applyConfig(cmd, cfg, opts)

	// Validate flag combinations
	if opts.replay && opts.infile == "" {
		return exitUsage, usageError("--replay requires -f <filename>")
	}
	if opts.rate < 0 {
		return exitUsage, usageError("--rate must be >= 0")
	}

	// Setup input source (file or stdin)
	input := stdin
	if opts.infile != "" {
		f, err := os.Open(opts.infile)
		if err != nil {
			return exitInput, inputError(fmt.Errorf("opening input file: %w", err))
		}
		defer f.Close()
		input = f

		if opts.replay {
			rr, err := engine.NewReplayReader(f, opts.rate)
			if err != nil {
				return exitInput, inputError(fmt.Errorf("creating replay reader: %w", err))
			}
			input = rr
		}
	}

	var engineOpts []engine.Option
	if opts.outfile != "" {
		f, err := os.Create(opts.outfile)
		if err != nil {
			return exitInput, inputError(fmt.Errorf("creating output file: %w", err))
		}
		defer f.Close()
		engineOpts = append(engineOpts, engine.WithRawOutput(f))
	}
	if opts.jsonfile != "" {
		f, err := os.Create(opts.jsonfile)
		if err != nil {
			return exitInput, inputError(fmt.Errorf("creating JSON file: %w", err))
		}
		defer f.Close()
		engineOpts = append(engineOpts, engine.WithJSONOutput(f))
	}

	var palette output.Palette = output.Plain{}
	if !opts.noColor {
		palette = format.NewPalette(lipgloss.NewRenderer(stdout))
	}

	var renderErrors atomic.Int64
	reporterOpts := []reporter.Option{
		reporter.WithPalette(palette),
		reporter.WithFailureListing(opts.failures),
		reporter.WithErrorHandler(func(err error) {
			renderErrors.Add(1)
			slog.Error("spectang: dropped output", "err", err)
		}),
	}
	if opts.message {
		reporterOpts = append(reporterOpts, reporter.WithFailureDetail(reporter.DetailMessage))
	}

	collector := results.NewCollector()
	events := collector.Subscribe()

	// Skip the TUI if:
	// 1. --notty is set, OR
	// 2. -f is used without --replay, OR
	// 3. stdout is not a terminal
	skipTUI := opts.notty || (opts.infile != "" && !opts.replay) || !isTerminal(stdout)

	var rep *reporter.Reporter
	if skipTUI {
		rep = reporter.New(append(reporterOpts, reporter.WithLogger(output.NewLogger(stdout)))...)
		go collector.ProcessEvents(engine.NewEngine(engineOpts...).Stream(input))
		rep.ProcessEvents(events)
	} else {
		var rate float64
		if opts.replay {
			rate = opts.rate
		}
		m := tui.NewModel(palette, rate)
		p := tea.NewProgram(m, tea.WithOutput(stdout))
		rep = reporter.New(append(reporterOpts, reporter.WithLogger(tui.Logger(p)))...)

		statusEvents := collector.Subscribe()
		go collector.ProcessEvents(engine.NewEngine(engineOpts...).Stream(input))
		go func() {
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				for evt := range statusEvents {
					p.Send(tui.EventMsg(evt))
				}
			}()
			rep.ProcessEvents(events)
			wg.Wait()
			// Printed lines are queued ahead of DoneMsg, so the program
			// flushes them before it quits.
			p.Send(tui.DoneMsg{})
		}()

		final, err := p.Run()
		if err != nil {
			return exitInput, inputError(fmt.Errorf("running TUI: %w", err))
		}
		if fm, ok := final.(*tui.Model); ok && fm.Interrupted {
			return exitFailures, errors.New("interrupted")
		}
	}
	rep.Wait()

	return exitCode(rep.Summary(), collector, renderErrors.Load())
}

// exitCode decides the outcome of a completed run. Input errors win over
// render errors, which win over test failures.
func exitCode(summary *results.Summary, collector *results.Collector, renderErrors int64) (int, error) {
	if err := collector.Err(); err != nil {
		return exitInput, inputError(err)
	}
	if renderErrors > 0 {
		return exitRender, &exitError{code: exitRender, err: fmt.Errorf("%d event(s) could not be rendered", renderErrors)}
	}
	if summary != nil && len(summary.Failed) > 0 {
		return exitFailures, nil
	}
	if len(collector.FailedPackages()) > 0 {
		return exitFailures, nil
	}
	return exitOK, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
