package digest

import (
	"context"
	"sync"
	"time"

	"github.com/gimlet-io/coverage-digest/pkg/model"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxPullRequests = 5
	DefaultLookback        = 7 * 24 * time.Hour
)

// CoverageFetcher returns the coverage percentage of a project,
// or nil if it could not be fetched
type CoverageFetcher interface {
	Coverage(ctx context.Context, projectKey string) *float64
}

// PullRequestFetcher returns the open pull requests of a repository
// created at or after since, newest first. It returns an empty list on failure.
type PullRequestFetcher interface {
	PullRequests(ctx context.Context, owner string, repo string, since time.Time) []model.PullRequestSummary
}

type Composer struct {
	Header     string
	Projects   []model.Project
	Thresholds Thresholds
	Coverage   CoverageFetcher

	PullRequests    PullRequestFetcher
	Owner           string
	Repo            string
	Lookback        time.Duration
	MaxPullRequests int
	ShowOmitted     bool

	// Timeout bounds every upstream call. Zero means unbounded.
	Timeout time.Duration
	Clock   clockwork.Clock
	Metrics *Metrics
}

// Compose fetches coverage for every project and the outstanding pull requests,
// then assembles the digest. Upstream failures never abort the composition.
func (c *Composer) Compose(ctx context.Context) *Digest {
	defer c.Metrics.timer("compose").ObserveDuration()

	readings := make([]model.CoverageReading, len(c.Projects))
	var pullRequests []model.PullRequestSummary
	var pullRequestsFailed bool

	var wg sync.WaitGroup
	for i, project := range c.Projects {
		wg.Add(1)
		go func(i int, project model.Project) {
			defer wg.Done()
			readings[i] = c.coverage(ctx, project)
		}(i, project)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		pullRequests, pullRequestsFailed = c.pullRequests(ctx)
	}()
	wg.Wait()

	d := &Digest{
		Header:      c.Header,
		Coverage:    make([]CoverageLine, 0, len(readings)),
		ShowOmitted: c.ShowOmitted,
	}
	for _, r := range readings {
		c.Metrics.observeCoverage(r)
		d.Coverage = append(d.Coverage, CoverageLine{
			CoverageReading: r,
			Symbol:          c.Thresholds.Classify(r.Percent),
		})
	}

	c.Metrics.observePullRequests(len(pullRequests), pullRequestsFailed)
	limit := c.MaxPullRequests
	if limit <= 0 {
		limit = DefaultMaxPullRequests
	}
	if len(pullRequests) > limit {
		d.Omitted = len(pullRequests) - limit
		logrus.Debugf("dropping %d pull requests from the digest", d.Omitted)
		pullRequests = pullRequests[:limit]
	}
	d.PullRequests = pullRequests

	return d
}

func (c *Composer) coverage(ctx context.Context, project model.Project) model.CoverageReading {
	reading := model.CoverageReading{Project: project}
	if c.Coverage == nil {
		return reading
	}

	percent, ok := bounded(ctx, c.Timeout, "coverage of "+project.Key, func(ctx context.Context) *float64 {
		return c.Coverage.Coverage(ctx, project.Key)
	})
	if ok {
		reading.Percent = percent
	}
	return reading
}

func (c *Composer) pullRequests(ctx context.Context) (pullRequests []model.PullRequestSummary, failed bool) {
	if c.PullRequests == nil || c.Owner == "" || c.Repo == "" {
		logrus.Debug("no repository configured, skipping pull requests")
		return nil, false
	}

	clock := c.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	lookback := c.Lookback
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	since := clock.Now().Add(-lookback)

	pullRequests, ok := bounded(ctx, c.Timeout, "pull requests of "+c.Owner+"/"+c.Repo, func(ctx context.Context) []model.PullRequestSummary {
		return c.PullRequests.PullRequests(ctx, c.Owner, c.Repo, since)
	})
	return pullRequests, !ok
}

// bounded runs fn under the timeout. A timed out or panicking call
// is logged and reported as not ok.
func bounded[T any](ctx context.Context, timeout time.Duration, name string, fn func(context.Context) T) (T, bool) {
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	done := make(chan T, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logrus.Errorf("fetching %s panicked: %v", name, r)
				close(done)
			}
		}()
		done <- fn(ctx)
	}()

	var zero T
	select {
	case result, ok := <-done:
		return result, ok
	case <-ctx.Done():
		logrus.Warnf("fetching %s: %s", name, ctx.Err())
		return zero, false
	}
}
