package main

import (
	"bytes"
	"errors"
	"io/fs"
	"strings"
	"syscall"
	"testing"
)

func TestTruncateKeepsShortStrings(t *testing.T) {
	if got := truncate("short title", 40); got != "short title" {
		t.Fatalf("truncate returned %q", got)
	}
}

func TestTruncateShortensLongStrings(t *testing.T) {
	got := truncate(strings.Repeat("a", 60), 40)
	if len(got) > 40 {
		t.Fatalf("truncated string is %d chars", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}
}

func TestRenderStatsTableIncludesTotal(t *testing.T) {
	out := renderStatsTable(map[string]int{"pending": 2, "failed": 1})
	if !strings.Contains(out, "pending") || !strings.Contains(out, "failed") {
		t.Fatalf("missing status rows in:\n%s", out)
	}
	if !strings.Contains(out, "total") || !strings.Contains(out, "3") {
		t.Fatalf("missing total row in:\n%s", out)
	}
}

func TestRenderStatusLineWithoutTerminal(t *testing.T) {
	var buf bytes.Buffer
	renderStatusLine(&buf, "Running", "yes", statusOK)
	got := buf.String()
	if strings.Contains(got, "\x1b[") {
		t.Fatalf("expected no ANSI codes for non-terminal writer, got %q", got)
	}
	if !strings.Contains(got, "Running:") || !strings.Contains(got, "yes") {
		t.Fatalf("unexpected status line %q", got)
	}
}

func TestStatusKindFor(t *testing.T) {
	if got := statusKindFor("chunked"); got != statusOK {
		t.Fatalf("chunked kind = %v", got)
	}
	if got := statusKindFor("failed"); got != statusBad {
		t.Fatalf("failed kind = %v", got)
	}
	if got := statusKindFor("pending"); got != statusNeutral {
		t.Fatalf("pending kind = %v", got)
	}
}

func TestIsHTMLFile(t *testing.T) {
	if !isHTMLFile("story.HTML") {
		t.Fatal("expected .HTML to count as HTML")
	}
	if isHTMLFile("story.txt") {
		t.Fatal("expected .txt to count as plain text")
	}
}

func TestWrapDialErrorMissingSocket(t *testing.T) {
	err := wrapDialError("/tmp/storyfeedd.sock", fs.ErrNotExist)
	if !strings.Contains(err.Error(), "storyfeed start") {
		t.Fatalf("expected start hint, got %q", err)
	}
}

func TestWrapDialErrorRefusedConnection(t *testing.T) {
	err := wrapDialError("/tmp/storyfeedd.sock", syscall.ECONNREFUSED)
	if !strings.Contains(err.Error(), "stale") {
		t.Fatalf("expected stale socket hint, got %q", err)
	}
}

func TestWrapDialErrorOther(t *testing.T) {
	cause := errors.New("boom")
	err := wrapDialError("/tmp/storyfeedd.sock", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %q", err)
	}
}
