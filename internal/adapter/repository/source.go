// Package repository adapts a local git repository to the review change
// source port. Changes are computed between two refs with go-git, or against
// the working tree via the git CLI when uncommitted changes are included.
package repository

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	formatdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/patchlens/patchlens/internal/domain"
)

const providerName = "local"

// Source reads change requests from a git repository on disk.
type Source struct {
	repoDir            string
	baseRef            string
	headRef            string
	includeUncommitted bool
}

// NewSource creates a change source for the repository at repoDir, diffing
// baseRef against headRef. An empty repoDir means the current directory and
// an empty headRef means HEAD. When includeUncommitted is set, changed files
// are read from the working tree instead of the headRef commit.
func NewSource(repoDir, baseRef, headRef string, includeUncommitted bool) *Source {
	if repoDir == "" {
		repoDir = "."
	}
	if headRef == "" {
		headRef = "HEAD"
	}
	return &Source{
		repoDir:            repoDir,
		baseRef:            baseRef,
		headRef:            headRef,
		includeUncommitted: includeUncommitted,
	}
}

// GetChangeRequest describes the local diff as a synthetic change request.
// The title and author come from the head commit.
func (s *Source) GetChangeRequest(ctx context.Context) (domain.ChangeRequest, error) {
	repo, err := s.open()
	if err != nil {
		return domain.ChangeRequest{}, err
	}

	baseCommit, err := resolveCommit(repo, s.baseRef)
	if err != nil {
		return domain.ChangeRequest{}, err
	}
	headCommit, err := resolveCommit(repo, s.headRef)
	if err != nil {
		return domain.ChangeRequest{}, err
	}

	abs, err := filepath.Abs(s.repoDir)
	if err != nil {
		abs = s.repoDir
	}

	return domain.ChangeRequest{
		Provider:   providerName,
		Repository: filepath.Base(abs),
		Title:      firstLine(headCommit.Message),
		Author:     headCommit.Author.Name,
		SourceRef:  s.headRef,
		TargetRef:  s.baseRef,
		BaseSHA:    baseCommit.Hash.String(),
		HeadSHA:    headCommit.Hash.String(),
	}, nil
}

// ListChangedFiles returns the per-file unified diffs between the base and
// head refs. Binary files are reported with an empty patch.
func (s *Source) ListChangedFiles(ctx context.Context) ([]domain.FileChange, error) {
	if s.includeUncommitted {
		return s.workingTreeChanges(ctx)
	}

	repo, err := s.open()
	if err != nil {
		return nil, err
	}

	baseCommit, err := resolveCommit(repo, s.baseRef)
	if err != nil {
		return nil, err
	}
	headCommit, err := resolveCommit(repo, s.headRef)
	if err != nil {
		return nil, err
	}

	baseTree, err := baseCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("read tree for %s: %w", s.baseRef, err)
	}
	headTree, err := headCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("read tree for %s: %w", s.headRef, err)
	}

	// DefaultDiffTreeOptions enables rename detection, which the plain
	// commit patch does not do.
	changes, err := object.DiffTreeWithOptions(ctx, baseTree, headTree, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("diff %s..%s: %w", s.baseRef, s.headRef, err)
	}
	patch, err := changes.PatchContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("diff %s..%s: %w", s.baseRef, s.headRef, err)
	}

	filePatches := patch.FilePatches()
	files := make([]domain.FileChange, 0, len(filePatches))
	for _, fp := range filePatches {
		path, oldPath, status := diffPathAndStatus(fp)
		if path == "" {
			continue
		}

		var text string
		if !fp.IsBinary() {
			text, err = encodeFilePatch(fp)
			if err != nil {
				return nil, fmt.Errorf("encode patch for %s: %w", path, err)
			}
		}

		files = append(files, domain.FileChange{
			Path:    path,
			OldPath: oldPath,
			Status:  status,
			Patch:   text,
		})
	}
	return files, nil
}

// workingTreeChanges diffs the working tree against the base ref using the
// git CLI, which sees staged, unstaged, and untracked files alike.
func (s *Source) workingTreeChanges(ctx context.Context) ([]domain.FileChange, error) {
	statusOut, err := runGitCommand(ctx, s.repoDir, "status", "--porcelain")
	if err != nil {
		return nil, err
	}

	var files []domain.FileChange
	for _, entry := range strings.Split(statusOut, "\n") {
		if len(entry) < 4 {
			continue
		}
		statusChar := selectStatusChar(entry[0], entry[1])
		path, oldPath := ExtractPathAndOldPath(entry[3:])

		// Untracked files are not in the base ref, so this yields an
		// empty patch for them.
		patchOut, err := runGitCommand(ctx, s.repoDir, "diff", s.baseRef, "--", path)
		if err != nil {
			return nil, err
		}
		if IsBinaryPatch(patchOut) {
			patchOut = ""
		}

		files = append(files, domain.FileChange{
			Path:    path,
			OldPath: oldPath,
			Status:  MapGitStatus(statusChar),
			Patch:   patchOut,
		})
	}
	return files, nil
}

func (s *Source) open() (*goGit.Repository, error) {
	repo, err := goGit.PlainOpenWithOptions(s.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", s.repoDir, err)
	}
	return repo, nil
}

// resolveCommit resolves a ref to a commit, trying the name as given, then as
// a local branch, then as a remote-tracking branch on origin.
func resolveCommit(repo *goGit.Repository, ref string) (*object.Commit, error) {
	candidates := []string{ref, "refs/heads/" + ref, "refs/remotes/origin/" + ref}
	var lastErr error
	for _, candidate := range candidates {
		hash, err := repo.ResolveRevision(plumbing.Revision(candidate))
		if err == nil {
			return repo.CommitObject(*hash)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("resolve ref %q: %w", ref, lastErr)
}

// diffPathAndStatus derives the file path, previous path, and change status
// from a file patch's from/to pair.
func diffPathAndStatus(fp formatdiff.FilePatch) (path, oldPath, status string) {
	from, to := fp.Files()
	switch {
	case from == nil && to == nil:
		return "", "", domain.FileStatusModified
	case from == nil:
		return to.Path(), "", domain.FileStatusAdded
	case to == nil:
		return from.Path(), "", domain.FileStatusDeleted
	case from.Path() != to.Path():
		return to.Path(), from.Path(), domain.FileStatusRenamed
	default:
		return to.Path(), "", domain.FileStatusModified
	}
}

// encodeFilePatch renders a single file patch as unified diff text.
func encodeFilePatch(fp formatdiff.FilePatch) (string, error) {
	var buf bytes.Buffer
	encoder := formatdiff.NewUnifiedEncoder(&buf, formatdiff.DefaultContextLines)
	if err := encoder.Encode(singlePatch{fp: fp}); err != nil {
		return "", fmt.Errorf("encode file patch: %w", err)
	}
	return buf.String(), nil
}

// singlePatch wraps one file patch so it can be fed to the unified encoder,
// which operates on whole patches.
type singlePatch struct {
	fp formatdiff.FilePatch
}

func (s singlePatch) FilePatches() []formatdiff.FilePatch {
	return []formatdiff.FilePatch{s.fp}
}

func (s singlePatch) Message() string { return "" }

// IsBinaryPatch reports whether patch text is a binary file placeholder
// rather than a unified diff. Only marker lines count, so a patch whose
// content merely mentions binary files is not misclassified.
func IsBinaryPatch(patch string) bool {
	for _, line := range strings.Split(patch, "\n") {
		if strings.HasPrefix(line, "Binary files ") || strings.HasPrefix(line, "GIT binary patch") {
			return true
		}
	}
	return false
}

// ExtractPathAndOldPath splits a porcelain status path, which is
// "old -> new" for renames and a bare path otherwise.
func ExtractPathAndOldPath(entry string) (path, oldPath string) {
	if old, renamed, ok := strings.Cut(entry, " -> "); ok {
		return renamed, old
	}
	return entry, ""
}

// MapGitStatus maps a porcelain status character to a file change status.
// Untracked files count as added.
func MapGitStatus(status byte) string {
	switch status {
	case 'A', '?':
		return domain.FileStatusAdded
	case 'D':
		return domain.FileStatusDeleted
	case 'R':
		return domain.FileStatusRenamed
	default:
		return domain.FileStatusModified
	}
}

// selectStatusChar picks the effective status from a porcelain entry,
// preferring the worktree column over the index column.
func selectStatusChar(index, worktree byte) byte {
	if worktree == ' ' {
		return index
	}
	return worktree
}

func firstLine(message string) string {
	line, _, _ := strings.Cut(message, "\n")
	return strings.TrimSpace(line)
}

func runGitCommand(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("git %s: %s: %w", strings.Join(args, " "), msg, err)
		}
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return stdout.String(), nil
}
