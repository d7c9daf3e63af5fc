// Package discord posts moderation embeds to a Discord log channel.
package discord

import (
	"errors"
	"log/slog"

	"github.com/adagearchive/moderation/pkg/log"
	"github.com/bwmarrin/discordgo"
)

var (
	ErrDiscordCreate  = errors.New("failed to create discord session")
	ErrDiscordMessage = errors.New("failed to send discord message")
)

// Sender delivers an embed to a channel.
type Sender interface {
	SendPayload(channelID string, payload *discordgo.MessageEmbed) error
}

// Bot is a REST only session. The gateway connection is never opened since nothing is read back.
type Bot struct {
	session *discordgo.Session
}

func New(token string) (*Bot, error) {
	session, errNewSession := discordgo.New("Bot " + token)
	if errNewSession != nil {
		return nil, errors.Join(errNewSession, ErrDiscordCreate)
	}

	session.UserAgent = "moderation (https://github.com/adagearchive/moderation)"

	return &Bot{session: session}, nil
}

func (b *Bot) SendPayload(channelID string, payload *discordgo.MessageEmbed) error {
	if _, errSend := b.session.ChannelMessageSendEmbed(channelID, payload); errSend != nil {
		return errors.Join(errSend, ErrDiscordMessage)
	}

	return nil
}

func (b *Bot) Close() error {
	if err := b.session.Close(); err != nil {
		slog.Debug("Failed to close discord session", log.ErrAttr(err))
	}

	return nil
}
