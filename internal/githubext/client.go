// Package githubext wraps the GitHub API client used as the external
// issue tracker. It owns the bounded retry-with-backoff policy and
// client-side rate limiting for every call the reconciliation engine
// makes, and converts transport failures into sanitized FetchErrors.
package githubext

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/go-github/v72/github"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/lodestar-hq/lodestar/internal/types"
)

// FetchError is a sanitized external-call failure. Code is stable and
// machine-readable; Message never contains credential material, raw
// server bodies, or stack traces.
type FetchError struct {
	Code    string
	Message string
	err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.err
}

// Fetch failure codes
const (
	CodeNotFound    = "not_found"
	CodeAuthDenied  = "auth_denied"
	CodeRateLimited = "rate_limited"
	CodeServerError = "server_error"
	CodeHTTPError   = "http_error"
	CodeNetwork     = "network"
	CodeCanceled    = "canceled"
)

// ProjectStatusFunc supplies the optional project-board status for an
// issue. Project fields live behind a separate API surface, so the
// lookup is a pluggable collaborator; a nil func means no project
// signal is available.
type ProjectStatusFunc func(ctx context.Context, ref types.ExternalIssueRef) (string, error)

// Config holds external client configuration
type Config struct {
	// Token is the API token. Empty means unauthenticated.
	Token string
	// BaseURL overrides the API endpoint (tests, GitHub Enterprise).
	BaseURL string
	// RequestsPerSecond caps the client-side request rate.
	RequestsPerSecond float64
	// Burst is the rate limiter burst size.
	Burst int
	// MaxTries bounds retries per call, including the first attempt.
	MaxTries uint
	// ProjectStatus optionally resolves the project-board status field.
	ProjectStatus ProjectStatusFunc
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		RequestsPerSecond: 2,
		Burst:             4,
		MaxTries:          4,
	}
}

// Client is the authenticated external-tracker client.
type Client struct {
	gh            *github.Client
	limiter       *rate.Limiter
	maxTries      uint
	projectStatus ProjectStatusFunc
	log           *zap.Logger
}

// New creates an external tracker client.
func New(cfg *Config, log *zap.Logger) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}

	gh := github.NewClient(nil)
	if cfg.Token != "" {
		gh = gh.WithAuthToken(cfg.Token)
	}
	if cfg.BaseURL != "" {
		var err error
		gh, err = gh.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to set API base URL: %w", err)
		}
	}

	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		burst = cfg.Burst
		if burst <= 0 {
			burst = 1
		}
	}

	maxTries := cfg.MaxTries
	if maxTries == 0 {
		maxTries = DefaultConfig().MaxTries
	}

	return &Client{
		gh:            gh,
		limiter:       rate.NewLimiter(limit, burst),
		maxTries:      maxTries,
		projectStatus: cfg.ProjectStatus,
		log:           log,
	}, nil
}

// GetIssue fetches one external issue with state, labels, timestamps
// and the optional project status field.
func (c *Client) GetIssue(ctx context.Context, ref types.ExternalIssueRef) (*types.RawExternalIssue, error) {
	issue, err := retry(ctx, c, func() (*github.Issue, error) {
		iss, _, err := c.gh.Issues.Get(ctx, ref.Owner, ref.Repo, ref.Number)
		return iss, err
	})
	if err != nil {
		return nil, sanitize(err)
	}

	raw := &types.RawExternalIssue{
		Ref:       ref,
		State:     types.IssueState(issue.GetState()),
		Title:     issue.GetTitle(),
		Body:      issue.GetBody(),
		Labels:    labelNames(issue.Labels),
		UpdatedAt: issue.GetUpdatedAt().Time,
		URL:       issue.GetHTMLURL(),
	}
	if issue.ClosedAt != nil {
		closed := issue.ClosedAt.Time
		raw.ClosedAt = &closed
	}

	if c.projectStatus != nil {
		ps, err := c.projectStatus(ctx, ref)
		if err != nil {
			// Project status is an optional signal; a lookup failure
			// degrades to "no project signal" rather than failing the
			// whole fetch.
			c.log.Debug("project status lookup failed",
				zap.String("issue", ref.String()),
				zap.Error(err))
		} else {
			raw.ProjectStatus = ps
		}
	}

	return raw, nil
}

// SearchIssues runs a scoped search over the external tracker and
// returns lightweight issue snapshots. Pull requests are excluded.
// Results are requested sorted by update time so pagination is stable.
func (c *Client) SearchIssues(ctx context.Context, query string) ([]types.DiscoveredIssue, error) {
	issues, err := c.searchAll(ctx, issueQuery(query))
	if err != nil {
		return nil, sanitize(err)
	}

	out := make([]types.DiscoveredIssue, 0, len(issues))
	for _, iss := range issues {
		if iss.IsPullRequest() {
			continue
		}
		out = append(out, types.DiscoveredIssue{
			Repo:      repoFromURL(iss.GetRepositoryURL()),
			Number:    iss.GetNumber(),
			Title:     iss.GetTitle(),
			State:     types.IssueState(iss.GetState()),
			URL:       iss.GetHTMLURL(),
			UpdatedAt: iss.GetUpdatedAt().Time,
		})
	}
	return out, nil
}

// SearchCandidates implements canonical.Searcher: one repository-scoped
// search restricted to issues, returning match candidates.
func (c *Client) SearchCandidates(ctx context.Context, owner, repo, query string) ([]types.IssueCandidate, error) {
	scoped := fmt.Sprintf("repo:%s/%s %s", owner, repo, issueQuery(query))
	issues, err := c.searchAll(ctx, scoped)
	if err != nil {
		return nil, sanitize(err)
	}

	out := make([]types.IssueCandidate, 0, len(issues))
	for _, iss := range issues {
		if iss.IsPullRequest() {
			continue
		}
		out = append(out, types.IssueCandidate{
			Number: iss.GetNumber(),
			Title:  iss.GetTitle(),
			Body:   iss.GetBody(),
			URL:    iss.GetHTMLURL(),
		})
	}
	return out, nil
}

// CreateIssue creates a new external issue. Callers are expected to
// have embedded canonical-id markers via the canonical package so the
// issue is resolvable later.
func (c *Client) CreateIssue(ctx context.Context, owner, repo, title, body string, labels []string) (*types.ExternalIssueRef, string, error) {
	req := &github.IssueRequest{
		Title: github.Ptr(title),
		Body:  github.Ptr(body),
	}
	if len(labels) > 0 {
		req.Labels = &labels
	}

	issue, err := retry(ctx, c, func() (*github.Issue, error) {
		iss, _, err := c.gh.Issues.Create(ctx, owner, repo, req)
		return iss, err
	})
	if err != nil {
		return nil, "", sanitize(err)
	}

	ref := &types.ExternalIssueRef{Owner: owner, Repo: repo, Number: issue.GetNumber()}
	return ref, issue.GetHTMLURL(), nil
}

// searchAll pages through every search result for the query.
func (c *Client) searchAll(ctx context.Context, query string) ([]*github.Issue, error) {
	opts := &github.SearchOptions{
		Sort:        "updated",
		Order:       "desc",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var all []*github.Issue
	for {
		type page struct {
			issues []*github.Issue
			next   int
		}
		p, err := retry(ctx, c, func() (page, error) {
			result, resp, err := c.gh.Search.Issues(ctx, query, opts)
			if err != nil {
				return page{}, err
			}
			return page{issues: result.Issues, next: resp.NextPage}, nil
		})
		if err != nil {
			return nil, err
		}

		all = append(all, p.issues...)
		if p.next == 0 {
			return all, nil
		}
		opts.Page = p.next
	}
}

// retry runs one API operation under the client rate limiter with
// bounded exponential backoff. Client errors other than rate limits
// are permanent and fail immediately.
func retry[T any](ctx context.Context, c *Client, op func() (T, error)) (T, error) {
	attempt := func() (T, error) {
		var zero T
		if err := c.limiter.Wait(ctx); err != nil {
			return zero, backoff.Permanent(err)
		}
		v, err := op()
		if err != nil {
			return zero, classifyRetry(err)
		}
		return v, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 15 * time.Second

	return backoff.Retry(ctx, attempt,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(c.maxTries))
}

// classifyRetry decides whether an API error is worth retrying.
func classifyRetry(err error) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		delay := time.Until(rateErr.Rate.Reset.Time)
		if delay > 0 {
			return backoff.RetryAfter(int(delay.Seconds()) + 1)
		}
		return err
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		if abuseErr.RetryAfter != nil {
			return backoff.RetryAfter(int(abuseErr.RetryAfter.Seconds()) + 1)
		}
		return err
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		code := ghErr.Response.StatusCode
		// Client errors won't heal on retry.
		if code >= 400 && code < 500 && code != http.StatusTooManyRequests {
			return backoff.Permanent(err)
		}
	}

	return err
}

// sanitize converts any API failure into a FetchError with a stable
// code and a message safe to persist.
func sanitize(err error) error {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}

	code := CodeNetwork
	message := "request failed before a response was received"

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	var ghErr *github.ErrorResponse

	switch {
	case errors.As(err, &rateErr), errors.As(err, &abuseErr):
		code = CodeRateLimited
		message = "external tracker rate limit exceeded"
	case errors.As(err, &ghErr) && ghErr.Response != nil:
		status := ghErr.Response.StatusCode
		message = fmt.Sprintf("external tracker returned HTTP %d", status)
		switch {
		case status == http.StatusNotFound:
			code = CodeNotFound
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			code = CodeAuthDenied
		case status >= 500:
			code = CodeServerError
		default:
			code = CodeHTTPError
		}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code = CodeCanceled
		message = "request canceled or timed out"
	}

	return &FetchError{Code: code, Message: message, err: err}
}

// issueQuery forces the issue-only qualifier so pull requests never
// enter the candidate set.
func issueQuery(query string) string {
	if strings.Contains(query, "is:issue") {
		return query
	}
	return strings.TrimSpace(query + " is:issue")
}

// repoFromURL extracts "owner/repo" from an API repository URL like
// "https://api.github.com/repos/owner/repo".
func repoFromURL(url string) string {
	const marker = "/repos/"
	idx := strings.Index(url, marker)
	if idx < 0 {
		return url
	}
	return url[idx+len(marker):]
}

func labelNames(labels []*github.Label) []string {
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		names = append(names, l.GetName())
	}
	return names
}
