package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gimlet-io/coverage-digest/pkg/digest"
	"github.com/gimlet-io/coverage-digest/pkg/model"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

const defaultHeader = "Yo! Check it out, we got the code coverage for the Integrations Team's projects here:"

// Environ returns the settings from the environment.
func Environ() (*Config, error) {
	cfg := Config{}
	err := envconfig.Process("", &cfg)
	defaults(&cfg)

	return &cfg, err
}

func defaults(c *Config) {
	if c.Notifications.Provider == "" {
		c.Notifications.Provider = "slack"
	}
	if c.Notifications.Provider == "slack" && c.Notifications.DefaultChannel == "" {
		c.Notifications.DefaultChannel = "#slackbot-test"
	}
	if c.Sonar.URL == "" {
		c.Sonar.URL = "https://sonarcloud.io"
	}
	if c.Header == "" {
		c.Header = defaultHeader
	}
	if c.ScmProvider == "" {
		c.ScmProvider = "github"
	}
	if c.PullRequests.LookbackDays == 0 {
		c.PullRequests.LookbackDays = 7
	}
	if c.PullRequests.Max == 0 {
		c.PullRequests.Max = digest.DefaultMaxPullRequests
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = 30 * time.Second
	}
	if c.Metrics.Job == "" {
		c.Metrics.Job = "coverage_digest"
	}
}

// String returns the configuration in string format.
func (c *Config) String() string {
	out, _ := yaml.Marshal(c)
	return string(out)
}

type Config struct {
	Logging       Logging
	Notifications Notifications
	Sonar         Sonar
	Github        Github
	Gitlab        Gitlab
	PullRequests  PullRequests
	Metrics       Metrics

	Projects   ProjectList `envconfig:"PROJECT_LIST"`
	Thresholds Thresholds  `envconfig:"COVERAGE_THRESHOLDS" default:"35,60,80"`
	Header     string      `envconfig:"DIGEST_HEADER"`

	ScmProvider string `envconfig:"SCM_PROVIDER"`
	RepoOwner   string `envconfig:"REPO_OWNER"`
	RepoName    string `envconfig:"REPO_NAME"`

	FetchTimeout time.Duration `envconfig:"FETCH_TIMEOUT"`
}

// Logging provides the logging configuration.
type Logging struct {
	Debug bool `envconfig:"DEBUG"`
	Trace bool `envconfig:"TRACE"`
}

type Notifications struct {
	Provider       string `envconfig:"NOTIFICATIONS_PROVIDER"`
	Token          string `envconfig:"NOTIFICATIONS_TOKEN" yaml:"-"`
	DefaultChannel string `envconfig:"NOTIFICATIONS_DEFAULT_CHANNEL"`
	// APIURL overrides the Slack Web API root
	APIURL string `envconfig:"NOTIFICATIONS_API_URL"`
}

type Sonar struct {
	Token string `envconfig:"SONARCLOUD_TOKEN" yaml:"-"`
	URL   string `envconfig:"SONARCLOUD_URL"`
}

type Github struct {
	Token string `envconfig:"GITHUB_TOKEN" yaml:"-"`
	// Github Enterprise API root
	URL string `envconfig:"GITHUB_URL"`
}

type Gitlab struct {
	Token string `envconfig:"GITLAB_TOKEN" yaml:"-"`
	URL   string `envconfig:"GITLAB_URL"`
}

type PullRequests struct {
	LookbackDays int  `envconfig:"PULL_REQUESTS_LOOKBACK_DAYS"`
	Max          int  `envconfig:"PULL_REQUESTS_MAX"`
	ShowOmitted  bool `envconfig:"PULL_REQUESTS_SHOW_OMITTED"`
}

type Metrics struct {
	PushgatewayURL string `envconfig:"PUSHGATEWAY_URL"`
	Job            string `envconfig:"PUSHGATEWAY_JOB"`
}

func (c *Config) IsGithub() bool {
	return c.ScmProvider == "github"
}

func (c *Config) IsGitlab() bool {
	return c.ScmProvider == "gitlab"
}

func (c *Config) Lookback() time.Duration {
	return time.Duration(c.PullRequests.LookbackDays) * 24 * time.Hour
}

// Validate checks the settings needed for a run.
// The chat token is only required when the digest is published.
func (c *Config) Validate(publish bool) error {
	if len(c.Projects) == 0 {
		return fmt.Errorf("please provide the PROJECT_LIST variable")
	}
	if err := digest.Thresholds(c.Thresholds).Validate(); err != nil {
		return fmt.Errorf("invalid COVERAGE_THRESHOLDS: %s", err)
	}
	if c.Notifications.Provider != "slack" && c.Notifications.Provider != "discord" {
		return fmt.Errorf("unknown NOTIFICATIONS_PROVIDER %q, use slack or discord", c.Notifications.Provider)
	}
	if c.Notifications.Provider == "discord" && c.Notifications.DefaultChannel == "" {
		return fmt.Errorf("please provide the NOTIFICATIONS_DEFAULT_CHANNEL variable, the Discord channel ID to post to")
	}
	if publish && c.Notifications.Token == "" {
		return fmt.Errorf("please provide the NOTIFICATIONS_TOKEN variable")
	}
	if !c.IsGithub() && !c.IsGitlab() {
		return fmt.Errorf("unknown SCM_PROVIDER %q, use github or gitlab", c.ScmProvider)
	}
	if c.PullRequests.LookbackDays < 0 || c.PullRequests.Max < 0 {
		return fmt.Errorf("PULL_REQUESTS_LOOKBACK_DAYS and PULL_REQUESTS_MAX must not be negative")
	}

	return nil
}

// ProjectList is a comma separated list of key:Display Name pairs.
// A bare key is displayed as is.
type ProjectList []model.Project

func (p *ProjectList) Decode(value string) error {
	projects := ProjectList{}
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		key, name, found := strings.Cut(entry, ":")
		key = strings.TrimSpace(key)
		name = strings.TrimSpace(name)
		if key == "" {
			return fmt.Errorf("missing project key in %q", entry)
		}
		if !found || name == "" {
			name = key
		}

		projects = append(projects, model.Project{Key: key, Name: name})
	}

	*p = projects
	return nil
}

// Thresholds is the T1,T2,T3 triplet where the Warning, Tada and Fire bands start
type Thresholds digest.Thresholds

func (t *Thresholds) Decode(value string) error {
	parts := strings.Split(value, ",")
	if len(parts) != 3 {
		return fmt.Errorf("expected three comma separated thresholds, got %q", value)
	}

	bounds := make([]float64, 3)
	for i, part := range parts {
		bound, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return fmt.Errorf("cannot parse threshold %q: %s", part, err)
		}
		bounds[i] = bound
	}

	*t = Thresholds{Warning: bounds[0], Tada: bounds[1], Fire: bounds[2]}
	return nil
}
