package telegram

import (
	"chatdraft/backend/internal/draft"
	"chatdraft/backend/internal/metrics"
	"chatdraft/backend/internal/models"
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Sender is the part of *tgbotapi.BotAPI the mirror needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Mirror is a draft.PublishSink that publishes through next and then copies
// the message into the Telegram chat configured for its channel. Mirroring
// failures are logged and never fail the publish.
type Mirror struct {
	next     draft.PublishSink
	bot      Sender
	chats    map[string]int64
	linkBase string
	log      zerolog.Logger
}

// NewMirror wraps next. chats maps channel IDs to Telegram chat IDs; user and
// channel mentions link to linkBase, or are rendered bold when it is empty.
func NewMirror(next draft.PublishSink, bot Sender, chats map[string]int64, linkBase string, logger zerolog.Logger) *Mirror {
	return &Mirror{
		next:     next,
		bot:      bot,
		chats:    chats,
		linkBase: strings.TrimRight(linkBase, "/"),
		log:      logger.With().Str("component", "telegram_mirror").Logger(),
	}
}

func (m *Mirror) Publish(ctx context.Context, req draft.PublishRequest) (int64, error) {
	timetoken, err := m.next.Publish(ctx, req)
	if err != nil {
		return 0, err
	}

	chatID, ok := m.chats[req.ChannelID]
	if !ok {
		return timetoken, nil
	}
	msg := BuildMessage(chatID, req.Elements, req.Attachments, m.linkBase)
	if _, err := m.bot.Send(msg); err != nil {
		metrics.MirrorFailures.Inc()
		m.log.Error().Err(err).
			Str("channel_id", req.ChannelID).
			Int64("chat_id", chatID).
			Int64("timetoken", timetoken).
			Msg("failed to mirror message to telegram")
	}
	return timetoken, nil
}

// BuildMessage renders elements as a Telegram message. Links become
// entities whose offsets and lengths are counted in UTF-16 code units, as
// the Bot API requires. Attachments with a URL are appended as lines.
func BuildMessage(chatID int64, elements []models.MessageElement, attachments []models.Attachment, linkBase string) tgbotapi.MessageConfig {
	var (
		text     strings.Builder
		entities []tgbotapi.MessageEntity
		offset   int
	)
	for _, e := range elements {
		n := draft.Length(e.Text)
		if e.Target != nil && n > 0 {
			entities = append(entities, entityFor(*e.Target, offset, n, linkBase))
		}
		text.WriteString(e.Text)
		offset += n
	}
	for _, a := range attachments {
		if a.URL == "" {
			continue
		}
		line := "\n" + a.Name
		text.WriteString(line)
		offset += draft.Length(line)
		entities = append(entities, tgbotapi.MessageEntity{Type: "text_link", Offset: offset - draft.Length(a.Name), Length: draft.Length(a.Name), URL: a.URL})
	}

	msg := tgbotapi.NewMessage(chatID, text.String())
	msg.Entities = entities
	return msg
}

func entityFor(target models.MentionTarget, offset, length int, linkBase string) tgbotapi.MessageEntity {
	entity := tgbotapi.MessageEntity{Type: "text_link", Offset: offset, Length: length}
	switch target.Type {
	case models.TargetURL:
		entity.URL = target.Value
		if !strings.Contains(target.Value, "://") {
			entity.URL = "https://" + target.Value
		}
		return entity
	case models.TargetUser:
		entity.URL = linkBase + "/users/" + target.Value
	case models.TargetChannel:
		entity.URL = linkBase + "/channels/" + target.Value
	}
	if linkBase == "" {
		return tgbotapi.MessageEntity{Type: "bold", Offset: offset, Length: length}
	}
	return entity
}
