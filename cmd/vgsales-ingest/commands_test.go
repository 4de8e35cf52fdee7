package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDryRunReportsStats(t *testing.T) {
	p := filepath.Join(t.TempDir(), "sales.csv")
	csv := "Name,Platform,Genre,Year,Global_Sales\nA,PS2,Action,2005,1.5\nB,PS2,Action,N/A,2\n"
	if err := os.WriteFile(p, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"load", "--csv", p, "--dry-run"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if !strings.Contains(out.String(), "rows=2 kept=1 invalid_year=1") {
		t.Fatalf("unexpected report: %q", out.String())
	}
}

func TestLoadMissingFile(t *testing.T) {
	rootCmd.SetArgs([]string{"load", "--csv", filepath.Join(t.TempDir(), "missing.csv"), "--dry-run"})
	if err := rootCmd.Execute(); err == nil {
		t.Fatalf("expected error for a missing csv")
	}
}
