// Package cmd implements the command-line driver: flag parsing, wiring the
// engine against a trace, and printing the report. Trace-file ingestion is
// out of scope (§1), so the only trace this driver can analyze today is the
// synthetic one built in demo.go; a future driver wires a real reader in
// behind the same model.Trace interface without touching this package.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ftahirops/waitscope/config"
	"github.com/ftahirops/waitscope/engine"
	"github.com/ftahirops/waitscope/report"
)

// Version is set at build time via ldflags.
var Version = "0.1.0"

func printUsage() {
	fmt.Fprintf(os.Stderr, `waitscope v%s — post-mortem wait-state pattern analyzer

Usage:
  waitscope [OPTIONS]

Options:
  -demo NAME          Analyze a built-in synthetic trace scenario instead of
                       reading one (see -list-demos)
  -list-demos         List the available synthetic trace scenarios and exit
  -no-async           Disable the asynchronous replay assumption (serialize
                       peer exchange per location)
  -no-critical-path   Skip the critical-path walk
  -no-statistics      Skip the statistics collector (forced back on if
                       -delay-analysis is set)
  -delay-analysis     Enable short/long-term delay-cost attribution
  -archive DIR        Directory for the persistent time-map cache (no
                       statistics side-file is written)
  -progress           Show a live sweep-progress screen instead of printing
                       straight to stdout
  -version            Print version and exit

Examples:
  waitscope -list-demos
  waitscope -demo late-sender
  waitscope -demo barrier-wait -delay-analysis
  waitscope -demo critical-path -progress
`, Version)
}

// Run parses flags, builds the configured engine, analyzes the selected
// trace, and prints the report. Non-zero process exit codes are signaled by
// returning an ExitCodeError rather than calling os.Exit directly, so
// callers embedding Run (tests, a future daemon wrapper) keep control of the
// process.
func Run() error {
	userCfg := config.Load()

	var (
		demoName       string
		listDemos      bool
		noAsync        bool
		noCriticalPath bool
		noStatistics   bool
		delayAnalysis  bool
		archiveDir     string
		progress       bool
		showVersion    bool
	)

	flag.StringVar(&demoName, "demo", "", "Synthetic trace scenario to analyze")
	flag.BoolVar(&listDemos, "list-demos", false, "List available synthetic trace scenarios and exit")
	flag.BoolVar(&noAsync, "no-async", !userCfg.EnableAsynchronous, "Disable the asynchronous replay assumption")
	flag.BoolVar(&noCriticalPath, "no-critical-path", !userCfg.EnableCriticalPath, "Skip the critical-path walk")
	flag.BoolVar(&noStatistics, "no-statistics", !userCfg.EnableStatistics, "Skip the statistics collector")
	flag.BoolVar(&delayAnalysis, "delay-analysis", userCfg.EnableDelayAnalysis, "Enable delay-cost attribution")
	flag.StringVar(&archiveDir, "archive", userCfg.ArchiveDirectory, "Directory for the persistent time-map cache")
	flag.BoolVar(&progress, "progress", false, "Show a live sweep-progress screen")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")

	flag.Usage = printUsage
	flag.Parse()

	if showVersion {
		fmt.Printf("waitscope v%s\n", Version)
		return nil
	}

	if listDemos {
		for _, name := range DemoNames() {
			fmt.Println(name)
		}
		return nil
	}

	if demoName == "" {
		printUsage()
		return ExitCodeError{Code: 2}
	}

	trace, err := BuildDemo(demoName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitCodeError{Code: 2}
	}

	opts := engine.Options{
		EnableAsynchronous:  !noAsync,
		EnableStatistics:    !noStatistics,
		EnableCriticalPath:  !noCriticalPath,
		EnableDelayAnalysis: delayAnalysis,
		ArchiveDirectory:    archiveDir,
	}
	eng := engine.NewEngine(opts, nil)
	defer func() { _ = eng.Close() }()

	ctx := context.Background()
	if progress {
		return runProgress(ctx, eng, trace)
	}
	return runDirect(ctx, eng, trace, os.Stdout)
}

func runDirect(ctx context.Context, eng *engine.Engine, trace *tracePayload, w io.Writer) error {
	start := time.Now()
	result, err := eng.Run(ctx, trace.Trace)
	if err != nil {
		return fmt.Errorf("waitscope: analysis failed: %w", err)
	}
	defer func() { _ = result.Telemetry.Shutdown(ctx) }()

	cube := engine.CubeFromPatterns(result.Dispatcher.Patterns())
	namer := report.CallpathNamer(trace.Trace.Defs.Callpaths)

	report.Table(w, cube, namer)
	fmt.Fprintln(w)
	if result.Statistics != nil {
		report.StatisticsTable(w, result.Statistics, engine.StatisticsTags(), namer)
		fmt.Fprintln(w)
	}
	report.Errors(w, result.Errors)
	report.Summary(w, cube, trace.Trace.Makespan())
	if len(result.HotPatterns) > 0 {
		fmt.Fprintf(w, "watchdog: newly hot patterns: %v\n", result.HotPatterns)
	}
	fmt.Fprintf(w, "run %s completed in %s\n", result.RunID, time.Since(start).Round(time.Microsecond))
	return nil
}

// runProgress drives the same analysis behind a minimal bubbletea screen
// that shows a running message until the whole run finishes, then prints
// the same tables, diagnostics and summary runDirect does (without the
// watchdog and run-id lines).
func runProgress(ctx context.Context, eng *engine.Engine, trace *tracePayload) error {
	m := newProgressModel(ctx, eng, trace)
	p := tea.NewProgram(m)
	final, err := p.Run()
	if err != nil {
		return err
	}
	pm := final.(progressModel)
	if pm.err != nil {
		return pm.err
	}
	if pm.result == nil {
		return fmt.Errorf("waitscope: run produced no result")
	}
	defer func() { _ = pm.result.Telemetry.Shutdown(ctx) }()

	cube := engine.CubeFromPatterns(pm.result.Dispatcher.Patterns())
	namer := report.CallpathNamer(trace.Trace.Defs.Callpaths)
	report.Table(os.Stdout, cube, namer)
	fmt.Println()
	if pm.result.Statistics != nil {
		report.StatisticsTable(os.Stdout, pm.result.Statistics, engine.StatisticsTags(), namer)
		fmt.Println()
	}
	report.Errors(os.Stdout, pm.result.Errors)
	report.Summary(os.Stdout, cube, trace.Trace.Makespan())
	return nil
}

// ExitCodeError signals a non-zero exit code without calling os.Exit
// directly, so the caller in main.go keeps control over process teardown.
type ExitCodeError struct{ Code int }

func (e ExitCodeError) Error() string { return fmt.Sprintf("exit %d", e.Code) }
