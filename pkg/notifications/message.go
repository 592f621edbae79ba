package notifications

type Message interface {
	AsSlackMessage() (*slackMessage, error)
	AsDiscordMessage() (*discordMessage, error)
	CustomChannel() string
}
