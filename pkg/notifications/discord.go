package notifications

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

type DiscordProvider struct {
	Token     string
	ChannelID string
}

type discordMessage struct {
	Text  string                  `json:"text"`
	Embed *discordgo.MessageEmbed `json:"embed"`
}

func (s *DiscordProvider) name() string {
	return "discord"
}

func (s *DiscordProvider) send(ctx context.Context, msg Message) error {
	discordBot, err := discordgo.New("Bot " + s.Token)
	if err != nil {
		return fmt.Errorf("error creating Discord session, %s", err)
	}

	discordMessage, err := msg.AsDiscordMessage()
	if err != nil {
		return fmt.Errorf("cannot create discord message: %s", err)
	}

	if discordMessage == nil {
		return nil
	}

	channel := s.ChannelID
	if msg.CustomChannel() != "" {
		channel = msg.CustomChannel()
	}

	return s.post(ctx, discordBot, channel, discordMessage)
}

func (s *DiscordProvider) post(ctx context.Context, d *discordgo.Session, channel string, msg *discordMessage) error {
	data := &discordgo.MessageSend{
		Content: msg.Text,
	}
	if msg.Embed != nil {
		data.Embeds = []*discordgo.MessageEmbed{msg.Embed}
	}

	_, err := d.ChannelMessageSendComplex(channel, data, discordgo.WithContext(ctx))

	return err
}
