package diff

import (
	"strconv"
	"strings"
)

// Parse parses unified diff text for a single file into an ordered list of
// hunks. It accepts raw provider patches including file-level headers.
//
// Parsing never fails: an empty patch yields no hunks, and malformed lines
// degrade gracefully. Lines before the first hunk header are file-level
// headers and are ignored; inside a hunk, any line that matches none of the
// recognized prefixes (+, -, leading space, \) is silently dropped, since
// upstream patch sources vary in fidelity.
func Parse(patch string) []Hunk {
	if patch == "" {
		return nil
	}

	var hunks []Hunk
	var current *Hunk
	oldLine := 0
	newLine := 0
	position := 0

	for _, raw := range strings.Split(patch, "\n") {
		if strings.HasPrefix(raw, "@@") {
			if hunk, ok := parseHunkHeader(raw); ok {
				if current != nil {
					hunks = append(hunks, *current)
				}
				current = &hunk
				oldLine = hunk.OldStart
				newLine = hunk.NewStart
				position++
				continue
			}
			// Malformed header: falls through and is dropped below.
		}

		// File headers do not occupy a diff position.
		if strings.HasPrefix(raw, "+++") || strings.HasPrefix(raw, "---") {
			continue
		}

		if current == nil {
			continue
		}

		switch {
		case strings.HasPrefix(raw, "\\"):
			// "\ No newline at end of file" marker, structural only.
		case strings.HasPrefix(raw, "+"):
			current.Lines = append(current.Lines, Line{
				Type:     LineAddition,
				Content:  raw[1:],
				NewLine:  IntPtr(newLine),
				Position: position,
			})
			newLine++
			position++
		case strings.HasPrefix(raw, "-"):
			current.Lines = append(current.Lines, Line{
				Type:     LineDeletion,
				Content:  raw[1:],
				OldLine:  IntPtr(oldLine),
				Position: position,
			})
			oldLine++
			position++
		case strings.HasPrefix(raw, " "):
			current.Lines = append(current.Lines, Line{
				Type:     LineContext,
				Content:  raw[1:],
				OldLine:  IntPtr(oldLine),
				NewLine:  IntPtr(newLine),
				Position: position,
			})
			oldLine++
			newLine++
			position++
		default:
			// Unrecognized line inside a hunk: dropped.
		}
	}

	if current != nil {
		hunks = append(hunks, *current)
	}

	return hunks
}

// parseHunkHeader matches the header grammar "@@ -start[,count] +start[,count] @@"
// and returns the typed ranges. Missing counts default to 1. The trailing
// section heading git appends after the closing @@ is ignored.
func parseHunkHeader(line string) (Hunk, bool) {
	body, ok := strings.CutPrefix(line, "@@ -")
	if !ok {
		return Hunk{}, false
	}

	end := strings.Index(body, " @@")
	if end < 0 {
		return Hunk{}, false
	}
	body = body[:end]

	oldPart, newPart, ok := strings.Cut(body, " +")
	if !ok {
		return Hunk{}, false
	}

	oldStart, oldLines, ok := parseRange(oldPart)
	if !ok {
		return Hunk{}, false
	}
	newStart, newLines, ok := parseRange(newPart)
	if !ok {
		return Hunk{}, false
	}

	return Hunk{
		OldStart: oldStart,
		OldLines: oldLines,
		NewStart: newStart,
		NewLines: newLines,
	}, true
}

// parseRange parses "start,count" or "start"; count defaults to 1.
func parseRange(s string) (start, count int, ok bool) {
	count = 1
	value := s
	if idx := strings.Index(s, ","); idx >= 0 {
		value = s[:idx]
		count, ok = parseNatural(s[idx+1:])
		if !ok {
			return 0, 0, false
		}
	}
	start, ok = parseNatural(value)
	if !ok {
		return 0, 0, false
	}
	return start, count, true
}

// parseNatural parses an unsigned decimal integer with no sign or spaces,
// matching the \d+ components of the header grammar.
func parseNatural(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
