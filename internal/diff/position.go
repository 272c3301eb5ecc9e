package diff

// PositionOf resolves a new-file line number to its 0-based position in the
// raw diff text, the counting convention hosting services use to anchor
// inline comments: every hunk header and every +/-/space content line
// occupies one position, while +++/--- file headers and \ markers do not.
//
// Only addition and context lines can match the target; a deleted line has
// no new-file number. It returns nil when the target never appears in any
// hunk, which is a normal outcome for lines outside the diff.
//
// New-file numbers are monotonic across the hunks of a well-formed patch,
// so at most one line can match; this is assumed from diff construction,
// not re-validated, and the first match in hunk order wins.
func PositionOf(patch string, targetNewLine int) *int {
	if targetNewLine <= 0 {
		return nil
	}

	for _, hunk := range Parse(patch) {
		for _, line := range hunk.Lines {
			if line.Type == LineDeletion {
				continue
			}
			if line.NewLine != nil && *line.NewLine == targetNewLine {
				return IntPtr(line.Position)
			}
		}
	}

	return nil
}
