package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderStatusLineAlignsLabels(t *testing.T) {
	line := renderStatusLine("Running", statusOK, "pid 42", false)
	if !strings.Contains(line, "Running:") {
		t.Fatalf("label missing: %q", line)
	}
	if !strings.Contains(line, "[OK] pid 42") {
		t.Fatalf("status text missing: %q", line)
	}
	if strings.Contains(line, ansiGreen) {
		t.Fatalf("unexpected color codes: %q", line)
	}
}

func TestRenderStatusLineColorizes(t *testing.T) {
	line := renderStatusLine("Failed", statusError, "3", true)
	if !strings.HasPrefix(line, ansiRed) || !strings.HasSuffix(line, ansiReset) {
		t.Fatalf("expected red wrapping: %q", line)
	}
}

func TestShouldColorizeRejectsBuffers(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("plain buffers must not be colorized")
	}
}

func TestRenderSectionHeaderRuleMatchesWidth(t *testing.T) {
	lines := renderSectionHeader("Cycles", false)
	if len(lines) != 2 {
		t.Fatalf("expected header and rule, got %v", lines)
	}
	if len(lines[0]) != len(lines[1]) {
		t.Fatalf("rule width mismatch: %q vs %q", lines[0], lines[1])
	}
}

func TestRenderTableFillsShortRows(t *testing.T) {
	out := renderTable(
		[]string{"A", "B"},
		[][]string{{"only-a"}},
		nil,
	)
	if !strings.Contains(out, "only-a") {
		t.Fatalf("row content missing: %q", out)
	}
}
