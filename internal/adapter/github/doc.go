// Package github adapts the GitHub API to the review ports. It fetches
// pull request metadata and changed files, and posts summary and inline
// review comments. Inline comments are anchored by diff position, which
// is resolved locally from each file's patch.
package github
