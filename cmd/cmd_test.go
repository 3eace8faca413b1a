package cmd

import "testing"

func TestExitCodeError_ImplementsError(t *testing.T) {
	var err error = ExitCodeError{Code: 2}

	if err == nil {
		t.Fatal("ExitCodeError should not be nil when assigned to error interface")
	}
	if err.Error() != "exit 2" {
		t.Errorf("ExitCodeError{Code:2}.Error() = %q; want %q", err.Error(), "exit 2")
	}
}

func TestExitCodeError_CodePreserved(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{0, "exit 0"},
		{1, "exit 1"},
		{2, "exit 2"},
		{127, "exit 127"},
	}

	for _, tt := range tests {
		e := ExitCodeError{Code: tt.code}
		if e.Code != tt.code {
			t.Errorf("ExitCodeError.Code = %d; want %d", e.Code, tt.code)
		}
		if e.Error() != tt.want {
			t.Errorf("ExitCodeError{Code:%d}.Error() = %q; want %q", tt.code, e.Error(), tt.want)
		}
	}
}

func TestExitCodeError_TypeAssertion(t *testing.T) {
	var err error = ExitCodeError{Code: 42}

	ece, ok := err.(ExitCodeError)
	if !ok {
		t.Fatal("type assertion to ExitCodeError should succeed")
	}
	if ece.Code != 42 {
		t.Errorf("asserted ExitCodeError.Code = %d; want 42", ece.Code)
	}
}

func TestDemoNamesIncludesEveryBuiltScenario(t *testing.T) {
	names := DemoNames()
	want := map[string]bool{
		"late-sender":        false,
		"wrong-order-sender": false,
		"barrier-wait":       false,
		"critical-path":      false,
		"omp-fork-imbalance": false,
		"collective-delay":   false,
	}
	for _, n := range names {
		if _, ok := want[n]; ok {
			want[n] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("DemoNames() missing %q", name)
		}
	}
}

func TestBuildDemoUnknownNameErrors(t *testing.T) {
	if _, err := BuildDemo("not-a-real-demo"); err == nil {
		t.Error("BuildDemo with an unknown name should return an error")
	}
}
