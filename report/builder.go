// Package report builds the ranked web-framework table from repository API data.
package report

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"sort"
	"strings"
	"time"
	"webframeworks/logger"
	"webframeworks/models"

	"github.com/cenkalti/backoff/v4"
	gh "github.com/google/go-github/v82/github"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Report errors
var (
	ErrMissingField = errors.New("missing required field")
	ErrNoRows       = errors.New("no repository could be fetched")
)

const (
	defaultConcurrency   = 8
	defaultRetryInterval = 500 * time.Millisecond
)

// Fetcher performs one authenticated GET and decodes the JSON body into v.
type Fetcher interface {
	GetJSON(ctx context.Context, url string, v any) error
}

// Options tunes a Builder.
type Options struct {
	APIURL        string
	Concurrency   int
	MaxRetries    int
	RetryInterval time.Duration
}

// Builder runs the per-repository fetch chains and renders the result.
type Builder struct {
	fetcher       Fetcher
	apiURL        string
	concurrency   int
	maxRetries    int
	retryInterval time.Duration
	now           func() time.Time
}

// NewBuilder creates a Builder. Zero-valued options fall back to defaults.
func NewBuilder(fetcher Fetcher, opts Options) *Builder {
	if opts.Concurrency < 1 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = defaultRetryInterval
	}
	return &Builder{
		fetcher:       fetcher,
		apiURL:        strings.TrimSuffix(opts.APIURL, "/"),
		concurrency:   opts.Concurrency,
		maxRetries:    opts.MaxRetries,
		retryInterval: opts.RetryInterval,
		now:           time.Now,
	}
}

// Build collects every repository and renders the document for language.
// When no repository succeeds the returned document holds an empty table and
// the error is ErrNoRows.
func (b *Builder) Build(ctx context.Context, language string, repos []models.RepositoryIdentifier) (string, error) {
	entries, err := b.Collect(ctx, repos)
	if err != nil && !errors.Is(err, ErrNoRows) {
		return "", err
	}
	doc := Render(models.Report{Language: language, Rows: Rows(entries)}, b.now())
	return doc, err
}

// Collect runs one fetch chain per repository with at most Concurrency chains in
// flight. Failed chains are logged and dropped. The result is ranked by stars,
// highest first; equal counts come out in reverse input order.
func (b *Builder) Collect(ctx context.Context, repos []models.RepositoryIdentifier) ([]models.Entry, error) {
	logger.Info("Building report",
		zap.Int("repositories", len(repos)),
		zap.Int("concurrency", b.concurrency))

	// one slot per input so producers never share a write target
	slots := make([]*models.Entry, len(repos))

	var g errgroup.Group
	g.SetLimit(b.concurrency)
	for i, repo := range repos {
		g.Go(func() error {
			entry, err := b.fetchChain(ctx, repo)
			if err != nil {
				logger.WithRepository(repo.String()).Warn("Dropping repository from report", zap.Error(err))
				return nil
			}
			slots[i] = &entry
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("report build interrupted: %w", err)
	}

	entries := make([]models.Entry, 0, len(repos))
	for _, entry := range slots {
		if entry != nil {
			entries = append(entries, *entry)
		}
	}
	rankByStars(entries)

	logger.Info("Collected repositories",
		zap.Int("succeeded", len(entries)),
		zap.Int("dropped", len(repos)-len(entries)))

	if len(entries) == 0 {
		return entries, ErrNoRows
	}
	return entries, nil
}

// rankByStars sorts ascending and then reverses, so ties keep the reverse of
// their incoming order.
func rankByStars(entries []models.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Repository.Stars < entries[j].Repository.Stars
	})
	slices.Reverse(entries)
}

// fetchChain fetches metadata and then the latest commit on the default branch.
func (b *Builder) fetchChain(ctx context.Context, repo models.RepositoryIdentifier) (models.Entry, error) {
	repoURL := b.apiURL + "/repos/" + repo.String()

	payload, err := fetchPayload[gh.Repository](ctx, b, repoURL)
	if err != nil {
		return models.Entry{}, fmt.Errorf("metadata: %w", err)
	}
	meta, err := metadataFromPayload(payload)
	if err != nil {
		return models.Entry{}, fmt.Errorf("metadata: %w", err)
	}

	commitURL := repoURL + "/commits/" + url.PathEscape(meta.DefaultBranch)
	commitPayload, err := fetchPayload[gh.RepositoryCommit](ctx, b, commitURL)
	if err != nil {
		return models.Entry{}, fmt.Errorf("commit: %w", err)
	}
	commit, err := commitFromPayload(commitPayload)
	if err != nil {
		return models.Entry{}, fmt.Errorf("commit: %w", err)
	}

	logger.WithRepository(repo.String()).Debug("Fetched repository",
		zap.Int("stars", meta.Stars),
		zap.String("default_branch", meta.DefaultBranch),
		zap.Time("last_commit", commit.Date))

	return models.Entry{Repository: meta, Commit: commit}, nil
}

// fetchPayload wraps one fetch in the builder's retry policy. MaxRetries of 0
// means a single attempt. Every attempt decodes into a fresh T, and only a
// fully successful decode is returned.
func fetchPayload[T any](ctx context.Context, b *Builder, rawURL string) (*T, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = b.retryInterval

	var result *T
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		payload := new(T)
		if err := b.fetcher.GetJSON(ctx, rawURL, payload); err != nil {
			if !retryable(err) {
				return backoff.Permanent(err)
			}
			if attempt <= b.maxRetries {
				logger.Debug("Retrying fetch", zap.String("url", rawURL), zap.Int("attempt", attempt), zap.Error(err))
			}
			return err
		}
		result = payload
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(b.maxRetries)), ctx))
	if err != nil {
		return nil, err
	}
	return result, nil
}

// retryable reports whether a failed fetch may succeed on another attempt.
// Client errors are final, except 403 and 429 which the API uses for rate limits.
func retryable(err error) bool {
	var apiErr *gh.ErrorResponse
	if !errors.As(err, &apiErr) || apiErr.Response == nil {
		return true
	}
	switch status := apiErr.Response.StatusCode; {
	case status == http.StatusForbidden, status == http.StatusTooManyRequests:
		return true
	case status >= 400 && status < 500:
		return false
	default:
		return true
	}
}

func metadataFromPayload(repo *gh.Repository) (models.RepositoryMetadata, error) {
	switch {
	case repo.FullName == nil:
		return models.RepositoryMetadata{}, fmt.Errorf("%w: full_name", ErrMissingField)
	case repo.HTMLURL == nil:
		return models.RepositoryMetadata{}, fmt.Errorf("%w: html_url", ErrMissingField)
	case repo.GetDefaultBranch() == "":
		return models.RepositoryMetadata{}, fmt.Errorf("%w: default_branch", ErrMissingField)
	}

	meta := models.RepositoryMetadata{
		FullName:      repo.GetFullName(),
		HTMLURL:       repo.GetHTMLURL(),
		Stars:         repo.GetStargazersCount(),
		Forks:         repo.GetForksCount(),
		OpenIssues:    repo.GetOpenIssuesCount(),
		Archived:      repo.GetArchived(),
		Description:   repo.Description,
		DefaultBranch: repo.GetDefaultBranch(),
	}
	if license := repo.GetLicense(); license != nil && license.Name != nil {
		name := license.GetName()
		meta.License = &name
	}
	return meta, nil
}

func commitFromPayload(commit *gh.RepositoryCommit) (models.CommitInfo, error) {
	committer := commit.GetCommit().GetCommitter()
	if committer == nil || committer.Date == nil || committer.Date.IsZero() {
		return models.CommitInfo{}, fmt.Errorf("%w: commit.committer.date", ErrMissingField)
	}
	return models.CommitInfo{Date: committer.Date.Time}, nil
}
