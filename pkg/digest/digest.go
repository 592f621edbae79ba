package digest

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gimlet-io/coverage-digest/pkg/model"
)

const (
	pullRequestsIntro = "Outstanding pull requests:"
	noPullRequests    = "No outstanding pull requests."
	bullet            = "• "

	slackPullRequestLinkFormat   = "<%s|#%d> %s (%s)"
	discordPullRequestLinkFormat = "[#%d](%s) %s (%s)"
)

// LinkFormat renders a pull request line in the markup of a chat provider
type LinkFormat func(pr model.PullRequestSummary) string

func SlackLinks(pr model.PullRequestSummary) string {
	return fmt.Sprintf(slackPullRequestLinkFormat, pr.URL, pr.Number, pr.Title, pr.Author)
}

func DiscordLinks(pr model.PullRequestSummary) string {
	return fmt.Sprintf(discordPullRequestLinkFormat, pr.Number, pr.URL, pr.Title, pr.Author)
}

type CoverageLine struct {
	model.CoverageReading
	Symbol Symbol
}

func (l CoverageLine) String() string {
	return fmt.Sprintf("%s: %s%% %s", l.Project.Name, formatPercent(l.Percent), l.Symbol)
}

// Digest is the composed message of one run
type Digest struct {
	Header       string
	Coverage     []CoverageLine
	PullRequests []model.PullRequestSummary
	// Omitted is the number of pull requests dropped by truncation
	Omitted     int
	ShowOmitted bool
}

func (d *Digest) Lines(format LinkFormat) []string {
	if format == nil {
		format = SlackLinks
	}

	lines := []string{}
	if d.Header != "" {
		lines = append(lines, d.Header, "")
	}

	for _, c := range d.Coverage {
		lines = append(lines, c.String())
	}

	lines = append(lines, "", pullRequestsIntro)
	if len(d.PullRequests) == 0 {
		return append(lines, noPullRequests)
	}

	for _, pr := range d.PullRequests {
		lines = append(lines, bullet+format(pr))
	}
	if d.ShowOmitted && d.Omitted > 0 {
		lines = append(lines, fmt.Sprintf("…and %d more", d.Omitted))
	}

	return lines
}

func (d *Digest) Text(format LinkFormat) string {
	return strings.Join(d.Lines(format), "\n")
}

// formatPercent renders whole numbers with a trailing .0, missing readings as empty string
func formatPercent(percent *float64) string {
	if percent == nil || math.IsNaN(*percent) {
		return ""
	}

	s := strconv.FormatFloat(*percent, 'f', -1, 64)
	if !strings.Contains(s, ".") && !math.IsInf(*percent, 0) {
		s += ".0"
	}
	return s
}
