package modlog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/adagearchive/moderation/internal/discord"
	"github.com/adagearchive/moderation/pkg/log"
	"github.com/bwmarrin/discordgo"
)

// Appender is anything that records audit entries.
type Appender interface {
	Append(ctx context.Context, entry Entry) error
}

// Mirror writes to the wrapped log and then posts a copy to a discord channel. Only the primary
// write can fail the append.
type Mirror struct {
	next      Appender
	sender    discord.Sender
	channelID string
}

func NewMirror(next Appender, sender discord.Sender, channelID string) Mirror {
	return Mirror{next: next, sender: sender, channelID: channelID}
}

func (m Mirror) Append(ctx context.Context, entry Entry) error {
	if err := m.next.Append(ctx, entry); err != nil {
		return err
	}

	if errSend := m.sender.SendPayload(m.channelID, newEntryEmbed(entry)); errSend != nil {
		slog.Warn("Failed to mirror moderation log entry", log.ErrAttr(errSend), slog.String("action", string(entry.Action)))
	}

	return nil
}

func newEntryEmbed(entry Entry) *discordgo.MessageEmbed {
	colour := discord.ColourInfo

	switch entry.Action {
	case ChallengeAccepted, AppealRejected:
		colour = discord.ColourWarn
	case AppealAccepted:
		colour = discord.ColourSuccess
	case ChallengeRejected:
	}

	msgEmbed := discord.NewEmbed(string(entry.Action), entry.Reason)
	msgEmbed.Embed().
		SetColor(colour).
		AddField("Target", entry.Target.String()).
		AddField("Moderator", fmt.Sprintf("%d", entry.ModeratorID))

	return msgEmbed.Message()
}
