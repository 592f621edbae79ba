package customScm

import (
	"context"
	"time"

	"github.com/gimlet-io/coverage-digest/cmd/digest/config"
	"github.com/gimlet-io/coverage-digest/pkg/git/customScm/customGithub"
	"github.com/gimlet-io/coverage-digest/pkg/git/customScm/customGitlab"
	"github.com/gimlet-io/coverage-digest/pkg/model"
	"github.com/prometheus/client_golang/prometheus"
)

type CustomGitService interface {
	PullRequests(ctx context.Context, owner string, repo string, since time.Time) []model.PullRequestSummary
}

// NewGitService returns the pull request source of the configured provider.
// failures may be nil.
func NewGitService(config *config.Config, failures prometheus.Counter) CustomGitService {
	var gitSvc CustomGitService

	if config.IsGithub() {
		gitSvc = &customGithub.GithubClient{
			Token:    config.Github.Token,
			BaseURL:  config.Github.URL,
			Failures: failures,
		}
	} else if config.IsGitlab() {
		gitSvc = &customGitlab.GitlabClient{
			Token:    config.Gitlab.Token,
			BaseURL:  config.Gitlab.URL,
			Failures: failures,
		}
	}
	return gitSvc
}
