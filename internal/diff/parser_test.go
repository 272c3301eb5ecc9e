package diff_test

import (
	"testing"

	"github.com/patchlens/patchlens/internal/diff"
)

// equalIntPtr compares two *int values for equality (test helper).
func equalIntPtr(a, b *int) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

func TestParse_SingleHunk(t *testing.T) {
	patch := "@@ -1,2 +1,3 @@\n line1\n+line2\n line3"

	hunks := diff.Parse(patch)
	if len(hunks) != 1 {
		t.Fatalf("expected 1 hunk, got %d", len(hunks))
	}

	hunk := hunks[0]
	if hunk.OldStart != 1 || hunk.OldLines != 2 {
		t.Errorf("expected old range 1,2, got %d,%d", hunk.OldStart, hunk.OldLines)
	}
	if hunk.NewStart != 1 || hunk.NewLines != 3 {
		t.Errorf("expected new range 1,3, got %d,%d", hunk.NewStart, hunk.NewLines)
	}
	if len(hunk.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(hunk.Lines))
	}

	want := []struct {
		lineType diff.LineType
		content  string
		oldLine  *int
		newLine  *int
	}{
		{diff.LineContext, "line1", diff.IntPtr(1), diff.IntPtr(1)},
		{diff.LineAddition, "line2", nil, diff.IntPtr(2)},
		{diff.LineContext, "line3", diff.IntPtr(2), diff.IntPtr(3)},
	}

	for i, w := range want {
		got := hunk.Lines[i]
		if got.Type != w.lineType {
			t.Errorf("line %d: expected type %v, got %v", i, w.lineType, got.Type)
		}
		if got.Content != w.content {
			t.Errorf("line %d: expected content %q, got %q", i, w.content, got.Content)
		}
		if !equalIntPtr(got.OldLine, w.oldLine) {
			t.Errorf("line %d: old line mismatch", i)
		}
		if !equalIntPtr(got.NewLine, w.newLine) {
			t.Errorf("line %d: new line mismatch", i)
		}
	}
}

func TestParse_MultipleHunks(t *testing.T) {
	patch := `@@ -10,2 +10,3 @@ func first() {
 context
+added
@@ -20,2 +21,3 @@ func second() {
 context
+added
`

	hunks := diff.Parse(patch)
	if len(hunks) != 2 {
		t.Fatalf("expected 2 hunks, got %d", len(hunks))
	}

	if hunks[0].NewStart != 10 {
		t.Errorf("hunk 0: expected NewStart=10, got %d", hunks[0].NewStart)
	}
	if hunks[1].NewStart != 21 {
		t.Errorf("hunk 1: expected NewStart=21, got %d", hunks[1].NewStart)
	}

	second := hunks[1]
	if len(second.Lines) != 2 {
		t.Fatalf("hunk 1: expected 2 lines, got %d", len(second.Lines))
	}
	if !equalIntPtr(second.Lines[0].OldLine, diff.IntPtr(20)) || !equalIntPtr(second.Lines[0].NewLine, diff.IntPtr(21)) {
		t.Errorf("hunk 1 context: expected old=20 new=21, got old=%v new=%v", second.Lines[0].OldLine, second.Lines[0].NewLine)
	}
	if !equalIntPtr(second.Lines[1].NewLine, diff.IntPtr(22)) {
		t.Errorf("hunk 1 addition: expected new=22, got %v", second.Lines[1].NewLine)
	}
}

func TestParse_EmptyPatch(t *testing.T) {
	if hunks := diff.Parse(""); len(hunks) != 0 {
		t.Errorf("expected no hunks for empty patch, got %d", len(hunks))
	}
}

func TestParse_FileHeadersIgnored(t *testing.T) {
	patch := `diff --git a/main.go b/main.go
index 83db48f..bf3a7da 100644
--- a/main.go
+++ b/main.go
@@ -1,3 +1,4 @@
 package main
+
 import "fmt"

`

	hunks := diff.Parse(patch)
	if len(hunks) != 1 {
		t.Fatalf("expected 1 hunk, got %d", len(hunks))
	}
	if len(hunks[0].Lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(hunks[0].Lines))
	}
	if hunks[0].Lines[0].Content != "package main" {
		t.Errorf("expected first line content %q, got %q", "package main", hunks[0].Lines[0].Content)
	}
	if hunks[0].Lines[1].Type != diff.LineAddition || hunks[0].Lines[1].Content != "" {
		t.Errorf("expected empty addition line, got type=%v content=%q", hunks[0].Lines[1].Type, hunks[0].Lines[1].Content)
	}
}

func TestParse_OmittedCountsDefaultToOne(t *testing.T) {
	patch := "@@ -3 +7 @@\n-old\n+new"

	hunks := diff.Parse(patch)
	if len(hunks) != 1 {
		t.Fatalf("expected 1 hunk, got %d", len(hunks))
	}

	hunk := hunks[0]
	if hunk.OldStart != 3 || hunk.OldLines != 1 {
		t.Errorf("expected old range 3,1, got %d,%d", hunk.OldStart, hunk.OldLines)
	}
	if hunk.NewStart != 7 || hunk.NewLines != 1 {
		t.Errorf("expected new range 7,1, got %d,%d", hunk.NewStart, hunk.NewLines)
	}
	if !equalIntPtr(hunk.Lines[0].OldLine, diff.IntPtr(3)) {
		t.Errorf("deletion: expected old=3, got %v", hunk.Lines[0].OldLine)
	}
	if !equalIntPtr(hunk.Lines[1].NewLine, diff.IntPtr(7)) {
		t.Errorf("addition: expected new=7, got %v", hunk.Lines[1].NewLine)
	}
}

func TestParse_NewFile(t *testing.T) {
	patch := `@@ -0,0 +1,3 @@
+line one
+line two
+line three
`

	hunks := diff.Parse(patch)
	if len(hunks) != 1 {
		t.Fatalf("expected 1 hunk, got %d", len(hunks))
	}

	hunk := hunks[0]
	if hunk.OldStart != 0 || hunk.OldLines != 0 {
		t.Errorf("expected old range 0,0, got %d,%d", hunk.OldStart, hunk.OldLines)
	}
	for i, line := range hunk.Lines {
		if line.Type != diff.LineAddition {
			t.Errorf("line %d: expected addition, got %v", i, line.Type)
		}
		if !equalIntPtr(line.NewLine, diff.IntPtr(i+1)) {
			t.Errorf("line %d: expected new=%d, got %v", i, i+1, line.NewLine)
		}
		if line.OldLine != nil {
			t.Errorf("line %d: expected nil old line", i)
		}
	}
}

func TestParse_DeletedFile(t *testing.T) {
	patch := "@@ -1,3 +0,0 @@\n-a\n-b\n-c"

	hunks := diff.Parse(patch)
	if len(hunks) != 1 {
		t.Fatalf("expected 1 hunk, got %d", len(hunks))
	}
	for i, line := range hunks[0].Lines {
		if line.Type != diff.LineDeletion {
			t.Errorf("line %d: expected deletion, got %v", i, line.Type)
		}
		if !equalIntPtr(line.OldLine, diff.IntPtr(i+1)) {
			t.Errorf("line %d: expected old=%d, got %v", i, i+1, line.OldLine)
		}
		if line.NewLine != nil {
			t.Errorf("line %d: expected nil new line", i)
		}
	}
}

func TestParse_MalformedHeaderDropped(t *testing.T) {
	patch := `@@ -1,2 +1,2 @@
 keep
@@ not a header @@
 rest
`

	hunks := diff.Parse(patch)
	if len(hunks) != 1 {
		t.Fatalf("expected 1 hunk, got %d", len(hunks))
	}
	if len(hunks[0].Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(hunks[0].Lines))
	}
	if !equalIntPtr(hunks[0].Lines[1].OldLine, diff.IntPtr(2)) || !equalIntPtr(hunks[0].Lines[1].NewLine, diff.IntPtr(2)) {
		t.Errorf("counters disturbed by malformed header: old=%v new=%v", hunks[0].Lines[1].OldLine, hunks[0].Lines[1].NewLine)
	}
}

func TestParse_MalformedHeaderVariants(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"non-numeric start", "@@ -a,2 +1,2 @@"},
		{"missing new range", "@@ -1,2 @@"},
		{"missing closing marker", "@@ -1,2 +1,2"},
		{"signed count", "@@ -1,+2 +1,2 @@"},
		{"empty count", "@@ -1, +1,2 @@"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if hunks := diff.Parse(tt.header + "\n context"); len(hunks) != 0 {
				t.Errorf("expected malformed header to open no hunk, got %d", len(hunks))
			}
		})
	}
}

func TestParse_UnrecognizedLinesDropped(t *testing.T) {
	// A bare empty line inside a hunk carries no prefix and is dropped
	// without disturbing the counters.
	patch := "@@ -1,2 +1,2 @@\n one\n\n two"

	hunks := diff.Parse(patch)
	if len(hunks) != 1 {
		t.Fatalf("expected 1 hunk, got %d", len(hunks))
	}
	if len(hunks[0].Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(hunks[0].Lines))
	}
	if !equalIntPtr(hunks[0].Lines[1].OldLine, diff.IntPtr(2)) {
		t.Errorf("expected second context at old=2, got %v", hunks[0].Lines[1].OldLine)
	}
}

func TestParse_NoNewlineMarkerIgnored(t *testing.T) {
	patch := "@@ -1 +1 @@\n-old\n\\ No newline at end of file\n+new"

	hunks := diff.Parse(patch)
	if len(hunks) != 1 {
		t.Fatalf("expected 1 hunk, got %d", len(hunks))
	}
	if len(hunks[0].Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(hunks[0].Lines))
	}
}

func TestParse_TripleDashInsideHunkSkipped(t *testing.T) {
	// "---" is always the file-header marker, never a deletion, matching
	// the provider convention the parser follows.
	patch := "@@ -1,2 +1,1 @@\n---x\n context"

	hunks := diff.Parse(patch)
	if len(hunks) != 1 {
		t.Fatalf("expected 1 hunk, got %d", len(hunks))
	}
	if len(hunks[0].Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(hunks[0].Lines))
	}
	if hunks[0].Lines[0].Type != diff.LineContext {
		t.Errorf("expected context line, got %v", hunks[0].Lines[0].Type)
	}
}

func TestParse_ContentBeforeFirstHunkIgnored(t *testing.T) {
	patch := "some preamble text\n@@ -1 +1 @@\n+x"

	hunks := diff.Parse(patch)
	if len(hunks) != 1 {
		t.Fatalf("expected 1 hunk, got %d", len(hunks))
	}
	if len(hunks[0].Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(hunks[0].Lines))
	}
}

func TestParse_CounterRoundTrip(t *testing.T) {
	// For well-formed hunks the header counts match the tagged lines:
	// delete|context == OldLines and add|context == NewLines.
	patches := map[string]string{
		"worked example": "@@ -1,2 +1,3 @@\n line1\n+line2\n line3",
		"mixed hunks": `@@ -10,5 +10,6 @@
 l10
 l11
-old12
+new12
 l13
+l14
 l15
@@ -30,2 +31,2 @@
 a
 b
`,
		"new file":     "@@ -0,0 +1,2 @@\n+a\n+b",
		"deleted file": "@@ -1,2 +0,0 @@\n-a\n-b",
	}

	for name, patch := range patches {
		t.Run(name, func(t *testing.T) {
			for i, hunk := range diff.Parse(patch) {
				oldSide := 0
				newSide := 0
				for _, line := range hunk.Lines {
					if line.Type != diff.LineAddition {
						oldSide++
					}
					if line.Type != diff.LineDeletion {
						newSide++
					}
				}
				if oldSide != hunk.OldLines {
					t.Errorf("hunk %d: old side %d != header count %d", i, oldSide, hunk.OldLines)
				}
				if newSide != hunk.NewLines {
					t.Errorf("hunk %d: new side %d != header count %d", i, newSide, hunk.NewLines)
				}
			}
		})
	}
}
