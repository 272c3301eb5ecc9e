package diff

// ModifiedSection is a reviewer-facing view over one hunk: the region's
// starting line in the new file and the lines worth showing.
type ModifiedSection struct {
	StartLine int
	Lines     []Line
}

// ChangeSummary aggregates the parsed changes of one file's patch.
type ChangeSummary struct {
	Hunks            []Hunk
	AddedLines       []Line
	DeletedLines     []Line
	ModifiedSections []ModifiedSection
	TotalAdditions   int
	TotalDeletions   int
}

// ExtractChanges parses the patch and derives its change summary: added and
// deleted lines across hunks in order, and one modified section per hunk
// that contains at least one change. Pure-context hunks yield no section.
//
// When includeContext is true a section carries the hunk's full line
// sequence; the diff's own context window already bounds it, so
// contextLines performs no further trimming there (it exists for symmetry
// with Hunk.ContextForLine). When false, only addition and deletion lines
// are kept.
//
// A zero-value summary (no hunks, zero counts) means nothing to review,
// not an error. contextLines must not be negative; that is a caller defect.
func ExtractChanges(patch string, includeContext bool, contextLines int) ChangeSummary {
	if contextLines < 0 {
		panic("diff: negative contextLines")
	}

	hunks := Parse(patch)
	summary := ChangeSummary{Hunks: hunks}

	for _, hunk := range hunks {
		added := hunk.AddedLines()
		deleted := hunk.DeletedLines()

		summary.AddedLines = append(summary.AddedLines, added...)
		summary.DeletedLines = append(summary.DeletedLines, deleted...)

		if len(added) == 0 && len(deleted) == 0 {
			continue
		}

		lines := hunk.Lines
		if !includeContext {
			lines = hunk.ModifiedLines()
		}
		summary.ModifiedSections = append(summary.ModifiedSections, ModifiedSection{
			StartLine: hunk.NewStart,
			Lines:     lines,
		})
	}

	summary.TotalAdditions = len(summary.AddedLines)
	summary.TotalDeletions = len(summary.DeletedLines)

	return summary
}
