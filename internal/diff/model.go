package diff

// LineType represents the type of a line in a diff.
type LineType int

const (
	// LineContext represents an unchanged context line (starts with ' ').
	LineContext LineType = iota
	// LineAddition represents an added line (starts with '+').
	LineAddition
	// LineDeletion represents a deleted line (starts with '-').
	LineDeletion
)

// String returns the prefix character conventionally used for the line type.
func (t LineType) String() string {
	switch t {
	case LineAddition:
		return "+"
	case LineDeletion:
		return "-"
	default:
		return " "
	}
}

// Line represents a single line inside a diff hunk.
//
// OldLine is set for deletions and context, NewLine for additions and
// context; the counterpart is nil. Position is the line's 0-based diff
// position, recorded while parsing.
type Line struct {
	Type     LineType
	Content  string // line content without the prefix character
	OldLine  *int
	NewLine  *int
	Position int
}

// Hunk represents one @@ region of a unified diff.
type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Lines    []Line
}

// AddedLines returns the hunk's addition lines in order.
func (h Hunk) AddedLines() []Line {
	var lines []Line
	for _, line := range h.Lines {
		if line.Type == LineAddition {
			lines = append(lines, line)
		}
	}
	return lines
}

// DeletedLines returns the hunk's deletion lines in order.
func (h Hunk) DeletedLines() []Line {
	var lines []Line
	for _, line := range h.Lines {
		if line.Type == LineDeletion {
			lines = append(lines, line)
		}
	}
	return lines
}

// ModifiedLines returns the hunk's addition and deletion lines in order,
// omitting context.
func (h Hunk) ModifiedLines() []Line {
	var lines []Line
	for _, line := range h.Lines {
		if line.Type != LineContext {
			lines = append(lines, line)
		}
	}
	return lines
}

// HasChanges reports whether the hunk contains at least one addition or
// deletion. Pure-context hunks occur in malformed or synthetic patches.
func (h Hunk) HasChanges() bool {
	for _, line := range h.Lines {
		if line.Type != LineContext {
			return true
		}
	}
	return false
}

// ContextForLine returns the window of hunk lines centered on the line
// whose new-file number equals newLine, spanning contextLines lines on
// each side (clamped to the hunk). It returns nil when the line does not
// appear in the hunk as an addition or context line.
//
// contextLines must not be negative; that is a caller defect.
func (h Hunk) ContextForLine(newLine, contextLines int) []Line {
	if contextLines < 0 {
		panic("diff: negative contextLines")
	}

	target := -1
	for i, line := range h.Lines {
		if line.NewLine != nil && *line.NewLine == newLine {
			target = i
			break
		}
	}
	if target < 0 {
		return nil
	}

	start := target - contextLines
	if start < 0 {
		start = 0
	}
	end := target + contextLines + 1
	if end > len(h.Lines) {
		end = len(h.Lines)
	}
	return h.Lines[start:end]
}

// IntPtr returns a pointer to the given int value.
// Exported for use in tests across packages.
func IntPtr(n int) *int {
	return &n
}
