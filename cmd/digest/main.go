package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path"
	"runtime"

	"github.com/enescakir/emoji"
	"github.com/fatih/color"
	"github.com/gimlet-io/coverage-digest/cmd/digest/config"
	"github.com/gimlet-io/coverage-digest/pkg/digest"
	"github.com/gimlet-io/coverage-digest/pkg/git/customScm"
	"github.com/gimlet-io/coverage-digest/pkg/notifications"
	"github.com/gimlet-io/coverage-digest/pkg/sonar"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "coverage-digest",
		Usage: "posts code coverage and outstanding pull requests to a chat channel",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "print the digest instead of publishing it",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "dotenv file to load settings from",
				Value: ".env",
			},
		},
		Action: run,
	}
	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", emoji.CrossMark, err.Error())
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	err := godotenv.Load(c.String("env-file"))
	if err != nil {
		log.Warnf("could not load %s file, relying on env vars", c.String("env-file"))
	}

	config, err := config.Environ()
	if err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	initLogger(config)
	if log.IsLevelEnabled(log.TraceLevel) {
		log.Traceln(config.String())
	}

	dryRun := c.Bool("dry-run")
	err = config.Validate(!dryRun)
	if err != nil {
		return err
	}

	metrics := digest.NewMetrics()
	composer := &digest.Composer{
		Header:     config.Header,
		Projects:   config.Projects,
		Thresholds: digest.Thresholds(config.Thresholds),
		Coverage: sonar.NewClient(
			config.Sonar.URL,
			config.Sonar.Token,
			&http.Client{Timeout: config.FetchTimeout},
		),
		PullRequests:    customScm.NewGitService(config, metrics.PullRequestFailures()),
		Owner:           config.RepoOwner,
		Repo:            config.RepoName,
		Lookback:        config.Lookback(),
		MaxPullRequests: config.PullRequests.Max,
		ShowOmitted:     config.PullRequests.ShowOmitted,
		Timeout:         config.FetchTimeout,
		Clock:           clockwork.NewRealClock(),
		Metrics:         metrics,
	}

	ctx := c.Context
	d := composer.Compose(ctx)

	if dryRun {
		printDigest(d, config.Notifications.Provider)
	} else {
		err = publish(ctx, config, d)
	}

	pushMetrics(config, metrics)
	return err
}

func publish(ctx context.Context, config *config.Config, d *digest.Digest) error {
	manager := notifications.NewManager()
	switch config.Notifications.Provider {
	case "discord":
		manager.AddProvider(&notifications.DiscordProvider{
			Token:     config.Notifications.Token,
			ChannelID: config.Notifications.DefaultChannel,
		})
	default:
		manager.AddProvider(&notifications.SlackProvider{
			Token:          config.Notifications.Token,
			DefaultChannel: config.Notifications.DefaultChannel,
			APIURL:         config.Notifications.APIURL,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, config.FetchTimeout)
	defer cancel()

	err := manager.Publish(ctx, notifications.Digest(d, ""))
	if err != nil {
		return errors.Wrap(err, "cannot publish digest")
	}
	return nil
}

func printDigest(d *digest.Digest, provider string) {
	format := digest.SlackLinks
	if provider == "discord" {
		format = digest.DiscordLinks
	}

	color.New(color.FgCyan, color.Bold).Println("Digest (dry run, not published)")
	fmt.Println(d.Text(format))
}

func pushMetrics(config *config.Config, metrics *digest.Metrics) {
	if config.Metrics.PushgatewayURL == "" {
		return
	}

	err := metrics.Push(config.Metrics.PushgatewayURL, config.Metrics.Job)
	if err != nil {
		log.Warnf("cannot push metrics: %s", err)
	}
}

// helper function configures the logging.
func initLogger(c *config.Config) {
	log.SetReportCaller(true)

	customFormatter := &log.TextFormatter{
		CallerPrettyfier: func(f *runtime.Frame) (string, string) {
			filename := path.Base(f.File)
			return "", fmt.Sprintf("[%s:%d]", filename, f.Line)
		},
	}
	customFormatter.FullTimestamp = true
	log.SetFormatter(customFormatter)

	if c.Logging.Debug {
		log.SetLevel(log.DebugLevel)
	}
	if c.Logging.Trace {
		log.SetLevel(log.TraceLevel)
	}
}
