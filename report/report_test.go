package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ftahirops/waitscope/engine"
	"github.com/ftahirops/waitscope/model"
)

func TestTableRendersSortedBySeverity(t *testing.T) {
	cube := engine.SeverityCube{
		"PAT_MPI_LATESENDER": {1: 0.5, 2: 2.0},
	}
	var buf bytes.Buffer
	Table(&buf, cube, nil)

	out := buf.String()
	hi := strings.Index(out, "2.000000")
	lo := strings.Index(out, "0.500000")
	if hi == -1 || lo == -1 {
		t.Fatalf("Table output missing expected severities:\n%s", out)
	}
	if hi > lo {
		t.Errorf("Table should list the larger severity (cp#2) before the smaller (cp#1):\n%s", out)
	}
}

func TestTableFallsBackToBareID(t *testing.T) {
	cube := engine.SeverityCube{"PAT_X": {7: 1.0}}
	var buf bytes.Buffer
	Table(&buf, cube, nil)
	if !strings.Contains(buf.String(), "cp#7") {
		t.Errorf("Table with nil namer should render cp#7, got:\n%s", buf.String())
	}
}

func TestErrorsReportsNoDiagnosticsWhenEmpty(t *testing.T) {
	var buf bytes.Buffer
	Errors(&buf, nil)
	if !strings.Contains(buf.String(), "no diagnostics") {
		t.Errorf("Errors(nil) = %q, want it to mention \"no diagnostics\"", buf.String())
	}
}

func TestCallpathNamerFallsBackToRootForEmptyRegion(t *testing.T) {
	defs := model.NewDefinitions()
	root := defs.Callpaths.Add(1, nil, nil)
	named := CallpathNamer(defs.Callpaths)
	if got := named(root.ID); got != "root" {
		t.Errorf("CallpathNamer for a nil-region call path = %q, want \"root\"", got)
	}
}

func TestSummaryFlagsHighSeverityAgainstMakespan(t *testing.T) {
	cube := engine.SeverityCube{"PAT_X": {1: 9.0}}
	var buf bytes.Buffer
	Summary(&buf, cube, 10.0)
	if !strings.Contains(buf.String(), "total wait-state severity: 9.000000s") {
		t.Errorf("Summary output = %q", buf.String())
	}
}
