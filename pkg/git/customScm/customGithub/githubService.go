package customGithub

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/gimlet-io/coverage-digest/pkg/model"
	"github.com/google/go-github/v37/github"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const perPage = 50

type GithubClient struct {
	Token string
	// BaseURL is the API root of a Github Enterprise install, eg.: https://github.mycompany.com/api/v3/
	BaseURL string
	// Failures counts failed listings, except those cut short by the caller's context
	Failures prometheus.Counter
}

// PullRequests lists the open pull requests of the repo created at or after since,
// newest first. Errors are logged and yield an empty list.
func (c *GithubClient) PullRequests(ctx context.Context, owner string, repo string, since time.Time) []model.PullRequestSummary {
	pullRequests, err := c.pullRequests(ctx, owner, repo, since)
	if err != nil {
		logrus.Warnf("cannot list pull requests of %s/%s: %s", owner, repo, err)
		if c.Failures != nil && ctx.Err() == nil {
			c.Failures.Inc()
		}
		return []model.PullRequestSummary{}
	}
	return pullRequests
}

func (c *GithubClient) pullRequests(ctx context.Context, owner string, repo string, since time.Time) ([]model.PullRequestSummary, error) {
	client, err := c.client()
	if err != nil {
		return nil, err
	}

	opts := &github.PullRequestListOptions{
		State:       "open",
		Sort:        "created",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	pullRequests := []model.PullRequestSummary{}
	for {
		prs, resp, err := client.PullRequests.List(ctx, owner, repo, opts)
		if err != nil {
			return nil, err
		}

		for _, pr := range prs {
			if pr.GetCreatedAt().Before(since) {
				// sorted by creation, everything after this is older
				return pullRequests, nil
			}
			pullRequests = append(pullRequests, translatePullRequest(pr))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return pullRequests, nil
}

func (c *GithubClient) client() (*github.Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.Token})
	tc := oauth2.NewClient(context.Background(), ts)
	client := github.NewClient(tc)

	if c.BaseURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(c.BaseURL, "/") + "/")
		if err != nil {
			return nil, err
		}
		client.BaseURL = baseURL
	}

	return client, nil
}

func translatePullRequest(pr *github.PullRequest) model.PullRequestSummary {
	return model.PullRequestSummary{
		URL:       pr.GetHTMLURL(),
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		Author:    pr.GetUser().GetLogin(),
		CreatedAt: pr.GetCreatedAt(),
	}
}
