package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunCheck(t *testing.T) {
	code, out, errOut := runCLI(t, "INT", "BIGINT")
	if code != exitOK {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "INT -> BIGINT") || !strings.Contains(out, "implicit: true") {
		t.Errorf("unexpected output:\n%s", out)
	}

	code, out, _ = runCLI(t, "-json", "BIGINT", "INT")
	if code != exitOK {
		t.Fatalf("exit %d", code)
	}
	var got checkOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if got.Implicit || !got.Explicit || got.Rule != "root-table" {
		t.Errorf("unexpected decision: %+v", got)
	}

	if code, _, _ := runCLI(t, "INT"); code != exitUsage {
		t.Errorf("one argument: exit %d, want %d", code, exitUsage)
	}
	if code, _, _ := runCLI(t, "INT", "NOPE"); code != exitUsage {
		t.Errorf("bad type: exit %d, want %d", code, exitUsage)
	}
}

func TestRunMatrix(t *testing.T) {
	code, out, errOut := runCLI(t, "matrix", "-json", "INT", "BIGINT", "BOOLEAN")
	if code != exitOK {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	var got struct {
		Types  []string   `json:"types"`
		Matrix [][]string `json:"matrix"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatal(err)
	}
	want := [][]string{
		{"I", "I", "E"},
		{"E", "I", "E"},
		{"E", "E", "I"},
	}
	for i := range want {
		for j := range want[i] {
			if got.Matrix[i][j] != want[i][j] {
				t.Errorf("%s -> %s = %s, want %s", got.Types[i], got.Types[j], got.Matrix[i][j], want[i][j])
			}
		}
	}

	code, out, _ = runCLI(t, "matrix", "DATE", "TIMESTAMP(3)")
	if code != exitOK || !strings.Contains(out, "TIMESTAMP(3)") {
		t.Errorf("table output: exit %d\n%s", code, out)
	}
}

func TestRunCommon(t *testing.T) {
	code, out, _ := runCLI(t, "common", "INT", "SMALLINT", "BIGINT")
	if code != exitOK || strings.TrimSpace(out) != "BIGINT" {
		t.Errorf("common = %q (exit %d), want BIGINT", out, code)
	}
	if code, _, _ := runCLI(t, "common", "INT", "BOOLEAN"); code != exitError {
		t.Errorf("no common type: exit %d", code)
	}
}

func TestRunSnapshot(t *testing.T) {
	dir := t.TempDir()

	code, out, errOut := runCLI(t, "snapshot", "export", "-data-dir", dir, "-key", "snap.bin")
	if code != exitOK {
		t.Fatalf("export exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "exported snap.bin: 0 types") {
		t.Errorf("unexpected export output: %s", out)
	}

	other := t.TempDir()
	code, _, errOut = runCLI(t, "snapshot", "import", "-data-dir", other, "-key", "snap.bin")
	if code != exitError || !strings.Contains(errOut, "not found") {
		t.Errorf("import from another data dir should not find the snapshot: exit %d %s", code, errOut)
	}

	code, out, errOut = runCLI(t, "snapshot", "import", "-data-dir", dir, "-key", "snap.bin")
	if code != exitOK || !strings.Contains(out, "imported snap.bin") {
		t.Errorf("import into empty catalog: exit %d %s %s", code, out, errOut)
	}

	if code, _, _ := runCLI(t, "snapshot", "restore"); code != exitUsage {
		t.Errorf("unknown action: exit %d", code)
	}
}
