package notifications

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/gimlet-io/coverage-digest/pkg/digest"
)

const (
	// Discord caps embed titles and descriptions at these many characters
	discordTitleLimit       = 256
	discordDescriptionLimit = 4096
	discordColor            = 3447003
)

type digestMessage struct {
	digest  *digest.Digest
	channel string
}

func Digest(d *digest.Digest, channel string) Message {
	return &digestMessage{
		digest:  d,
		channel: channel,
	}
}

func (dm *digestMessage) AsSlackMessage() (*slackMessage, error) {
	return &slackMessage{
		Text: dm.digest.Text(digest.SlackLinks),
	}, nil
}

func (dm *digestMessage) AsDiscordMessage() (*discordMessage, error) {
	lines := dm.digest.Lines(digest.DiscordLinks)

	title := ""
	if dm.digest.Header != "" {
		// header and the blank line after it
		title = lines[0]
		lines = lines[2:]
	}

	return &discordMessage{
		Embed: &discordgo.MessageEmbed{
			Type:        discordgo.EmbedTypeRich,
			Title:       truncate(title, discordTitleLimit),
			Description: truncate(strings.Join(lines, "\n"), discordDescriptionLimit),
			Color:       discordColor,
		},
	}, nil
}

func truncate(s string, limit int) string {
	if runes := []rune(s); len(runes) > limit {
		return string(runes[:limit-1]) + "…"
	}
	return s
}

func (dm *digestMessage) CustomChannel() string {
	return dm.channel
}
