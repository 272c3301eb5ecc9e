package github

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"

	"github.com/patchlens/patchlens/internal/diff"
	"github.com/patchlens/patchlens/internal/domain"
)

const providerName = "github"

// Client handles GitHub API interactions using go-github. It implements
// both the change source and comment poster ports.
type Client struct {
	gh     *github.Client
	owner  string
	repo   string
	number int

	mu    sync.Mutex
	files []domain.FileChange
}

// NewClient creates a GitHub client for one pull request. The token should
// be a personal access token or GITHUB_TOKEN from Actions; an empty token
// falls back to unauthenticated access.
func NewClient(token, owner, repo string, number int) *Client {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	return &Client{
		gh:     github.NewClient(httpClient),
		owner:  owner,
		repo:   repo,
		number: number,
	}
}

// SetBaseURL sets a custom API base URL (for testing or GitHub Enterprise).
func (c *Client) SetBaseURL(raw string) error {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	c.gh.BaseURL = parsed
	return nil
}

// GetChangeRequest fetches pull request metadata.
func (c *Client) GetChangeRequest(ctx context.Context) (domain.ChangeRequest, error) {
	pr, _, err := c.gh.PullRequests.Get(ctx, c.owner, c.repo, c.number)
	if err != nil {
		return domain.ChangeRequest{}, fmt.Errorf("failed to get pull request: %w", err)
	}

	return domain.ChangeRequest{
		Provider:   providerName,
		Repository: fmt.Sprintf("%s/%s", c.owner, c.repo),
		Number:     c.number,
		Title:      pr.GetTitle(),
		Author:     pr.GetUser().GetLogin(),
		SourceRef:  pr.GetHead().GetRef(),
		TargetRef:  pr.GetBase().GetRef(),
		BaseSHA:    pr.GetBase().GetSHA(),
		HeadSHA:    pr.GetHead().GetSHA(),
		WebURL:     pr.GetHTMLURL(),
	}, nil
}

// ListChangedFiles fetches every changed file with its patch, following
// pagination. The result is cached for later position lookups.
func (c *Client) ListChangedFiles(ctx context.Context) ([]domain.FileChange, error) {
	opts := &github.ListOptions{PerPage: 100}

	var all []domain.FileChange
	for {
		files, resp, err := c.gh.PullRequests.ListFiles(ctx, c.owner, c.repo, c.number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list changed files: %w", err)
		}

		for _, f := range files {
			all = append(all, domain.FileChange{
				Path:    f.GetFilename(),
				OldPath: f.GetPreviousFilename(),
				Status:  mapFileStatus(f.GetStatus()),
				Patch:   f.GetPatch(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	c.mu.Lock()
	c.files = all
	c.mu.Unlock()

	return all, nil
}

// PostSummaryComment posts the report summary as an issue comment.
func (c *Client) PostSummaryComment(ctx context.Context, change domain.ChangeRequest, body string) error {
	comment := &github.IssueComment{Body: github.String(body)}
	_, _, err := c.gh.Issues.CreateComment(ctx, c.owner, c.repo, c.number, comment)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// PostInlineComment posts a review comment anchored to a new-file line.
// The line is translated to a diff position from the file's patch; lines
// outside the diff cannot carry comments and are skipped with a warning.
func (c *Client) PostInlineComment(ctx context.Context, change domain.ChangeRequest, path string, line int, body string) error {
	patch, err := c.patchFor(ctx, path)
	if err != nil {
		return err
	}

	position := diff.PositionOf(patch, line)
	if position == nil {
		log.Printf("warning: line %d of %s is not part of the diff, skipping inline comment", line, path)
		return nil
	}

	comment := &github.PullRequestComment{
		Body:     github.String(body),
		CommitID: github.String(change.HeadSHA),
		Path:     github.String(path),
		Position: github.Int(*position),
	}

	_, _, err = c.gh.PullRequests.CreateComment(ctx, c.owner, c.repo, c.number, comment)
	if err != nil {
		return fmt.Errorf("failed to create review comment: %w", err)
	}
	return nil
}

// patchFor returns the cached patch for path, fetching the file list if
// it has not been loaded yet.
func (c *Client) patchFor(ctx context.Context, path string) (string, error) {
	c.mu.Lock()
	files := c.files
	c.mu.Unlock()

	if files == nil {
		var err error
		files, err = c.ListChangedFiles(ctx)
		if err != nil {
			return "", err
		}
	}

	for _, f := range files {
		if f.Path == path {
			return f.Patch, nil
		}
	}
	return "", fmt.Errorf("file %s not found in pull request", path)
}

func mapFileStatus(status string) string {
	switch status {
	case "added", "copied":
		return domain.FileStatusAdded
	case "removed":
		return domain.FileStatusDeleted
	case "renamed":
		return domain.FileStatusRenamed
	default:
		return domain.FileStatusModified
	}
}
