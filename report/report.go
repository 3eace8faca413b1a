// Package report renders the pattern-detection engine's output — the
// severity cube and the statistics collector's per-kind summary — as
// aligned tables for the CLI driver (§6 "Outbound to the report writer").
// Constructing and serializing a trace.stat archive side-file is the
// report writer's job; this package only renders what the driver prints
// to the terminal.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/ftahirops/waitscope/engine"
	"github.com/ftahirops/waitscope/model"
)

// clockViolationThreshold is the fraction of a pattern's total severity
// above which a row is highlighted as a likely clock-violation artifact
// rather than a genuine wait state, purely a rendering cue.
const clockViolationThreshold = 0.5

// Table renders cube as a markdown table: one row per (pattern, call path)
// pair with non-zero severity, sorted by descending severity within each
// pattern. callpathName resolves a callpath id to a display label; pass
// nil to fall back to the bare id.
func Table(w io.Writer, cube engine.SeverityCube, callpathName func(id int) string) {
	if callpathName == nil {
		callpathName = func(id int) string { return fmt.Sprintf("cp#%d", id) }
	}

	patternIDs := make([]string, 0, len(cube))
	for id := range cube {
		patternIDs = append(patternIDs, id)
	}
	sort.Strings(patternIDs)

	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header([]string{"Pattern", "Call Path", "Severity (s)"})

	for _, id := range patternIDs {
		entries := cube[id]
		callpaths := make([]int, 0, len(entries))
		for cp := range entries {
			callpaths = append(callpaths, cp)
		}
		sort.Slice(callpaths, func(i, j int) bool { return entries[callpaths[i]] > entries[callpaths[j]] })
		for _, cp := range callpaths {
			v := entries[cp]
			row := []string{id, callpathName(cp), fmt.Sprintf("%.6f", v)}
			table.Append(row)
		}
	}
	table.Render()
}

// highlight wraps s in red if it is a fatal/clock-violation row, or green
// for an all-clear summary line, matching the teacher pack's terminal
// color convention (fatih/color, auto-detecting TTY support).
func highlight(s string, severe bool) string {
	if severe {
		return color.New(color.FgRed, color.Bold).Sprint(s)
	}
	return color.New(color.FgGreen).Sprint(s)
}

// Errors renders the non-fatal diagnostics collected during a run,
// highlighting clock-violation and missing-peer-datum lines in red (§7).
func Errors(w io.Writer, errs []error) {
	if len(errs) == 0 {
		fmt.Fprintln(w, highlight("no diagnostics", false))
		return
	}
	for _, e := range errs {
		fmt.Fprintln(w, highlight(e.Error(), true))
	}
}

// StatisticsTable renders one pattern kind's quantile/top-K summary as a
// markdown table (§6 "For statistics, an additional per-kind record").
func StatisticsTable(w io.Writer, stats *engine.StatisticsPattern, tags []engine.Tag, callpathName func(id int) string) {
	if callpathName == nil {
		callpathName = func(id int) string { return fmt.Sprintf("cp#%d", id) }
	}
	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header([]string{"Tag", "Call Path", "Location", "Severity (s)"})
	for _, tag := range tags {
		for _, inst := range stats.TopK(tag) {
			row := []string{
				string(tag),
				callpathName(inst.Callpath.ID),
				locationLabel(inst.Location),
				fmt.Sprintf("%.6f", inst.Severity),
			}
			table.Append(row)
		}
	}
	table.Render()
}

// CallpathNamer builds a callpathName function from a CallpathTable,
// rendering each call path as its region name (or "root" for the synthetic
// program root).
func CallpathNamer(table *model.CallpathTable) func(id int) string {
	return func(id int) string {
		cp := table.Get(id)
		if cp == nil {
			return fmt.Sprintf("cp#%d", id)
		}
		if cp.Region == nil || cp.Region.Name == "" {
			return "root"
		}
		return cp.Region.Name
	}
}

func locationLabel(loc model.LocationID) string {
	var b strings.Builder
	fmt.Fprintf(&b, "rank %d", loc.Rank)
	if loc.Thread != 0 {
		fmt.Fprintf(&b, "/thread %d", loc.Thread)
	}
	return b.String()
}

// Summary prints a one-line overall verdict: total severity across every
// pattern and whether any row crosses the clock-violation highlight
// threshold relative to the trace makespan.
func Summary(w io.Writer, cube engine.SeverityCube, makespan float64) {
	var total float64
	for _, entries := range cube {
		for _, v := range entries {
			total += v
		}
	}
	severe := makespan > 0 && total/makespan > clockViolationThreshold
	fmt.Fprintf(w, "%s\n", highlight(fmt.Sprintf("total wait-state severity: %.6fs (makespan %.6fs)", total, makespan), severe))
}
