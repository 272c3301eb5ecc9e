// Package diff interprets unified diff text for a single file: it parses
// patches into hunks with old/new line-number bookkeeping, extracts the
// changed regions relevant to review, renders them in a bounded textual
// form for analysis, and resolves new-file line numbers to diff positions
// for inline comment placement.
//
// Position is the 0-based counter hosting services use to anchor inline
// comments: every hunk header and every content line of the raw diff
// occupies one position, while the +++/--- file headers and \ markers do
// not. The first @@ header sits at position 0, so the first line below it
// is position 1.
//
// All functions are pure and stateless; they are safe for concurrent use.
package diff
