package gitlab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	llmhttp "github.com/patchlens/patchlens/internal/adapter/llm/http"
	"github.com/patchlens/patchlens/internal/domain"
)

const (
	defaultBaseURL        = "https://gitlab.com"
	defaultTimeout        = 30 * time.Second
	defaultMaxRetries     = 3
	defaultInitialBackoff = 2 * time.Second
)

// Client is an HTTP client for the GitLab Merge Requests API, scoped to a
// single merge request. It implements both the change source and comment
// poster ports.
type Client struct {
	token      string
	baseURL    string
	project    string
	mrIID      int
	httpClient *http.Client
	retryConf  llmhttp.RetryConfig

	mu      sync.Mutex
	changes *apiChanges
}

// NewClient creates a GitLab API client for one merge request. The project
// is an ID or a full path like "group/project". An empty baseURL targets
// gitlab.com; self-hosted instances pass their own URL.
func NewClient(baseURL, token, project string, mrIID int) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		token:      token,
		baseURL:    strings.TrimRight(baseURL, "/"),
		project:    project,
		mrIID:      mrIID,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryConf: llmhttp.RetryConfig{
			MaxRetries:     defaultMaxRetries,
			InitialBackoff: defaultInitialBackoff,
			MaxBackoff:     32 * time.Second,
			Multiplier:     2.0,
		},
	}
}

// SetBaseURL sets a custom base URL (for testing).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = strings.TrimRight(url, "/")
}

// SetTimeout sets the HTTP timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// SetMaxRetries sets the maximum number of retry attempts.
func (c *Client) SetMaxRetries(maxRetries int) {
	c.retryConf.MaxRetries = maxRetries
}

// SetInitialBackoff sets the initial backoff duration for retries.
func (c *Client) SetInitialBackoff(backoff time.Duration) {
	c.retryConf.InitialBackoff = backoff
}

// GetChangeRequest fetches merge request metadata.
func (c *Client) GetChangeRequest(ctx context.Context) (domain.ChangeRequest, error) {
	resp, err := c.do(ctx, http.MethodGet, c.mrURL(""), nil)
	if err != nil {
		return domain.ChangeRequest{}, err
	}
	defer resp.Body.Close()

	var mr apiMergeRequest
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return domain.ChangeRequest{}, fmt.Errorf("failed to parse response: %w", err)
	}

	author := mr.Author.Name
	if author == "" {
		author = mr.Author.Username
	}

	return domain.ChangeRequest{
		Provider:   providerName,
		Repository: c.project,
		Number:     mr.IID,
		Title:      mr.Title,
		Author:     author,
		SourceRef:  mr.SourceBranch,
		TargetRef:  mr.TargetBranch,
		BaseSHA:    mr.DiffRefs.BaseSHA,
		StartSHA:   mr.DiffRefs.StartSHA,
		HeadSHA:    mr.DiffRefs.HeadSHA,
		WebURL:     mr.WebURL,
	}, nil
}

// ListChangedFiles fetches every changed file with its unified diff.
func (c *Client) ListChangedFiles(ctx context.Context) ([]domain.FileChange, error) {
	changes, err := c.fetchChanges(ctx)
	if err != nil {
		return nil, err
	}

	files := make([]domain.FileChange, 0, len(changes.Changes))
	for _, change := range changes.Changes {
		path := change.NewPath
		if path == "" {
			path = change.OldPath
		}
		files = append(files, domain.FileChange{
			Path:    path,
			OldPath: change.OldPath,
			Status:  mapChangeStatus(change),
			Patch:   change.Diff,
		})
	}

	return files, nil
}

// PostSummaryComment posts the report summary as a merge request note.
func (c *Client) PostSummaryComment(ctx context.Context, change domain.ChangeRequest, body string) error {
	payload, err := json.Marshal(noteRequest{Body: body})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, c.mrURL("notes"), payload)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	resp.Body.Close()
	return nil
}

// PostInlineComment posts a diff discussion anchored to a changed line.
// New and modified files anchor on the new line number; deleted files
// anchor on the old side.
func (c *Client) PostInlineComment(ctx context.Context, change domain.ChangeRequest, path string, line int, body string) error {
	changes, err := c.fetchChanges(ctx)
	if err != nil {
		return err
	}

	target, ok := findChange(changes.Changes, path)
	if !ok {
		return fmt.Errorf("file %s not found in merge request", path)
	}

	position := apiPosition{
		BaseSHA:      changes.DiffRefs.BaseSHA,
		StartSHA:     changes.DiffRefs.StartSHA,
		HeadSHA:      changes.DiffRefs.HeadSHA,
		PositionType: "text",
		NewPath:      target.NewPath,
		OldPath:      target.OldPath,
	}
	if target.DeletedFile {
		position.OldLine = line
	} else {
		position.NewLine = line
	}

	payload, err := json.Marshal(discussionRequest{Body: body, Position: position})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, c.mrURL("discussions"), payload)
	if err != nil {
		return fmt.Errorf("failed to create discussion: %w", err)
	}
	resp.Body.Close()
	return nil
}

// fetchChanges loads the merge request changes once and caches them for
// discussion position lookups.
func (c *Client) fetchChanges(ctx context.Context) (*apiChanges, error) {
	c.mu.Lock()
	cached := c.changes
	c.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	resp, err := c.do(ctx, http.MethodGet, c.mrURL("changes"), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var changes apiChanges
	if err := json.NewDecoder(resp.Body).Decode(&changes); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	c.mu.Lock()
	c.changes = &changes
	c.mu.Unlock()

	return &changes, nil
}

// do executes one API request with retry. The request is rebuilt on every
// attempt so the body can be re-sent.
func (c *Client) do(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var resp *http.Response
	err := llmhttp.RetryWithBackoff(ctx, func(ctx context.Context) error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, reqErr := http.NewRequestWithContext(ctx, method, url, reader)
		if reqErr != nil {
			return &llmhttp.Error{
				Type:      llmhttp.ErrTypeUnknown,
				Message:   reqErr.Error(),
				Retryable: false,
				Provider:  providerName,
			}
		}

		req.Header.Set("PRIVATE-TOKEN", c.token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		var callErr error
		resp, callErr = c.httpClient.Do(req)
		if callErr != nil {
			return &llmhttp.Error{
				Type:      llmhttp.ErrTypeTimeout,
				Message:   callErr.Error(),
				Retryable: true,
				Provider:  providerName,
			}
		}

		if resp.StatusCode >= 400 {
			bodyBytes, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				return &llmhttp.Error{
					Type:       llmhttp.ErrTypeUnknown,
					Message:    fmt.Sprintf("HTTP %d (failed to read response: %v)", resp.StatusCode, readErr),
					StatusCode: resp.StatusCode,
					Retryable:  resp.StatusCode >= 500,
					Provider:   providerName,
				}
			}
			return MapHTTPError(resp.StatusCode, bodyBytes)
		}

		return nil
	}, c.retryConf)

	if err != nil {
		return nil, err
	}
	return resp, nil
}

// mrURL builds the API URL for this merge request, with an optional
// sub-resource suffix like "changes" or "notes".
func (c *Client) mrURL(suffix string) string {
	u := fmt.Sprintf("%s/api/v4/projects/%s/merge_requests/%d",
		c.baseURL, url.PathEscape(c.project), c.mrIID)
	if suffix != "" {
		u += "/" + suffix
	}
	return u
}

func findChange(changes []apiChange, path string) (apiChange, bool) {
	for _, change := range changes {
		if change.NewPath == path || change.OldPath == path {
			return change, true
		}
	}
	return apiChange{}, false
}

func mapChangeStatus(change apiChange) string {
	switch {
	case change.NewFile:
		return domain.FileStatusAdded
	case change.DeletedFile:
		return domain.FileStatusDeleted
	case change.RenamedFile:
		return domain.FileStatusRenamed
	default:
		return domain.FileStatusModified
	}
}
