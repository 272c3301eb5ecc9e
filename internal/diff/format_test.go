package diff_test

import (
	"strings"
	"testing"

	"github.com/patchlens/patchlens/internal/diff"
)

func TestFormatForAnalysis_WorkedExample(t *testing.T) {
	patch := "@@ -1,2 +1,3 @@\n line1\n+line2\n line3"

	got := diff.FormatForAnalysis(patch, "cmd/app/main.go")

	want := strings.Join([]string{
		"File: cmd/app/main.go",
		"Changes: +1 -0",
		"",
		"--- Changed Section (starting at line 1) ---",
		"     1 | line1",
		"+    2 | line2",
		"     3 | line3",
		"",
	}, "\n")

	if got != want {
		t.Errorf("unexpected output:\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

func TestFormatForAnalysis_DeletionShowsOldNumber(t *testing.T) {
	patch := "@@ -5,2 +5,1 @@\n keep\n-gone"

	got := diff.FormatForAnalysis(patch, "pkg/store/store.go")

	want := strings.Join([]string{
		"File: pkg/store/store.go",
		"Changes: +0 -1",
		"",
		"--- Changed Section (starting at line 5) ---",
		"     5 | keep",
		"-    6 | gone",
		"",
	}, "\n")

	if got != want {
		t.Errorf("unexpected output:\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

func TestFormatForAnalysis_MultipleSections(t *testing.T) {
	patch := `@@ -1,2 +1,3 @@
 a
+b
 c
@@ -10,2 +11,2 @@
 d
-e
+f
`

	got := diff.FormatForAnalysis(patch, "x.go")

	if !strings.Contains(got, "--- Changed Section (starting at line 1) ---") {
		t.Error("missing first section label")
	}
	if !strings.Contains(got, "--- Changed Section (starting at line 11) ---") {
		t.Error("missing second section label")
	}
	if !strings.Contains(got, "Changes: +2 -1") {
		t.Errorf("unexpected change counts in:\n%s", got)
	}
}

func TestFormatForAnalysis_NoChanges(t *testing.T) {
	tests := []struct {
		name  string
		patch string
	}{
		{"empty patch", ""},
		{"pure context", "@@ -1,2 +1,2 @@\n a\n b"},
		{"headers only", "--- a/x.go\n+++ b/x.go"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := diff.FormatForAnalysis(tt.patch, "x.go"); got != "" {
				t.Errorf("expected empty output, got:\n%s", got)
			}
		})
	}
}
