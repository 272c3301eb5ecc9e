package diff

import (
	"fmt"
	"strings"
)

// defaultContextLines is the context window passed through to extraction
// when formatting; whole-hunk sections are not trimmed further.
const defaultContextLines = 3

// FormatForAnalysis renders the patch's modified sections as bounded text
// for a human or model reviewer: a file header, a change-count line, then
// each section labeled with its starting line and listed with prefixed,
// right-aligned line numbers. Deletions show the old-file number;
// additions and context show the new-file number.
//
// The result is a one-way presentation artifact and is never parsed back.
// It is empty when the patch contains no changed sections.
func FormatForAnalysis(patch, filePath string) string {
	changes := ExtractChanges(patch, true, defaultContextLines)
	if len(changes.ModifiedSections) == 0 {
		return ""
	}

	out := []string{
		fmt.Sprintf("File: %s", filePath),
		fmt.Sprintf("Changes: +%d -%d", changes.TotalAdditions, changes.TotalDeletions),
		"",
	}

	for _, section := range changes.ModifiedSections {
		out = append(out, fmt.Sprintf("--- Changed Section (starting at line %d) ---", section.StartLine))

		for _, line := range section.Lines {
			var prefix string
			var num int
			switch line.Type {
			case LineAddition:
				prefix = "+ "
				num = *line.NewLine
			case LineDeletion:
				prefix = "- "
				num = *line.OldLine
			default:
				prefix = "  "
				num = *line.NewLine
			}
			out = append(out, fmt.Sprintf("%s%4d | %s", prefix, num, line.Content))
		}

		out = append(out, "")
	}

	return strings.Join(out, "\n")
}
