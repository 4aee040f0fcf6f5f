package settings

import (
	"testing"
)

func TestNewCliParams(t *testing.T) {
	got := NewCliParams()
	want := Run{Output: "table", ExitOnError: true}
	if *got != want {
		t.Errorf("NewCliParams() = %+v, want %+v", *got, want)
	}
}

func TestRunSource(t *testing.T) {
	tests := []struct {
		name string
		run  *Run
		want string
	}{
		{name: "nil", run: nil, want: "<stdin>"},
		{name: "stdin", run: &Run{Input: Input{FromStdin: true, Path: "ignored.yaml"}}, want: "<stdin>"},
		{name: "no_path", run: &Run{}, want: "<stdin>"},
		{name: "file", run: &Run{Input: Input{Path: "fleet.yaml"}}, want: "fleet.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.run.Source(); got != tt.want {
				t.Errorf("Source() = %q, want %q", got, tt.want)
			}
		})
	}
}
