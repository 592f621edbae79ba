package customGitlab

import (
	"context"
	"time"

	"github.com/gimlet-io/coverage-digest/pkg/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/xanzy/go-gitlab"
)

const perPage = 50

type GitlabClient struct {
	Token string
	// BaseURL of a self-hosted Gitlab, defaults to gitlab.com
	BaseURL string
	// Failures counts failed listings, except those cut short by the caller's context
	Failures prometheus.Counter
}

// PullRequests lists the opened merge requests of the owner/repo project
// created at or after since, newest first. Errors are logged and yield an empty list.
func (c *GitlabClient) PullRequests(ctx context.Context, owner string, repo string, since time.Time) []model.PullRequestSummary {
	mergeRequests, err := c.mergeRequests(ctx, owner+"/"+repo, since)
	if err != nil {
		logrus.Warnf("cannot list merge requests of %s/%s: %s", owner, repo, err)
		if c.Failures != nil && ctx.Err() == nil {
			c.Failures.Inc()
		}
		return []model.PullRequestSummary{}
	}
	return mergeRequests
}

func (c *GitlabClient) mergeRequests(ctx context.Context, project string, since time.Time) ([]model.PullRequestSummary, error) {
	options := []gitlab.ClientOptionFunc{gitlab.WithoutRetries()}
	if c.BaseURL != "" {
		options = append(options, gitlab.WithBaseURL(c.BaseURL))
	}
	git, err := gitlab.NewClient(c.Token, options...)
	if err != nil {
		return nil, err
	}

	opts := &gitlab.ListProjectMergeRequestsOptions{
		ListOptions:  gitlab.ListOptions{PerPage: perPage},
		State:        gitlab.Ptr("opened"),
		OrderBy:      gitlab.Ptr("created_at"),
		Sort:         gitlab.Ptr("desc"),
		CreatedAfter: &since,
	}

	mergeRequests := []model.PullRequestSummary{}
	for {
		mrs, resp, err := git.MergeRequests.ListProjectMergeRequests(project, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, err
		}

		for _, mr := range mrs {
			if mr.CreatedAt != nil && mr.CreatedAt.Before(since) {
				continue
			}
			mergeRequests = append(mergeRequests, translateMergeRequest(mr))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return mergeRequests, nil
}

func translateMergeRequest(mr *gitlab.MergeRequest) model.PullRequestSummary {
	summary := model.PullRequestSummary{
		URL:    mr.WebURL,
		Number: mr.IID,
		Title:  mr.Title,
	}
	if mr.Author != nil {
		summary.Author = mr.Author.Username
	}
	if mr.CreatedAt != nil {
		summary.CreatedAt = *mr.CreatedAt
	}
	return summary
}
