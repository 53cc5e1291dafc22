package progress

import (
	"bytes"
	"testing"
)

func TestCIReporterOutput(t *testing.T) {
	var buf bytes.Buffer
	r := &CIReporter{Task: "Exporting transcripts", Out: &buf}

	r.Start(2)
	r.Update(1, "s-1.md")
	r.Update(2, "s-2.md")
	r.Finish()

	want := "Exporting transcripts: 2 item(s)\n[1/2] s-1.md\n[2/2] s-2.md\nExporting transcripts: done\n"
	if buf.String() != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, buf.String())
	}
}

func TestNewReporterPicksCIInCI(t *testing.T) {
	t.Setenv("CI", "true")
	if _, ok := NewReporter("x").(*CIReporter); !ok {
		t.Error("expected a CI reporter when CI is set")
	}
}

func TestNewReporterPicksTerminal(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("GITHUB_ACTIONS", "")
	r, ok := NewReporter("x").(*TerminalReporter)
	if !ok {
		t.Fatal("expected a terminal reporter outside CI")
	}

	r.Update(1, "before start is ignored")
	r.Finish()
}
