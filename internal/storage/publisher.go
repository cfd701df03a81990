package storage

import (
	"chatdraft/backend/internal/draft"
	"chatdraft/backend/internal/metrics"
	"chatdraft/backend/internal/models"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Publisher is the draft.PublishSink backed by PostgreSQL history, the Redis
// message cache and Redis Pub/Sub.
type Publisher struct {
	store Storage
	log   zerolog.Logger
	now   func() time.Time

	mu   sync.Mutex
	last int64
}

func NewPublisher(store Storage, logger zerolog.Logger) *Publisher {
	return &Publisher{
		store: store,
		log:   logger.With().Str("component", "publisher").Logger(),
		now:   time.Now,
	}
}

// Timetoken returns the publish time in 100ns units since the Unix epoch.
// Tokens handed out by one Publisher are strictly increasing.
func (p *Publisher) Timetoken() int64 {
	tt := p.now().UnixNano() / 100
	p.mu.Lock()
	defer p.mu.Unlock()
	if tt <= p.last {
		tt = p.last + 1
	}
	p.last = tt
	return tt
}

// Publish stores the message as requested by req.Options and broadcasts it.
func (p *Publisher) Publish(ctx context.Context, req draft.PublishRequest) (int64, error) {
	if req.ChannelID == "" {
		return 0, fmt.Errorf("publish: empty channel id")
	}
	msg := models.PublishedMessage{
		Timetoken:   p.Timetoken(),
		ChannelID:   req.ChannelID,
		SenderID:    req.SenderID,
		Text:        req.Text,
		Elements:    req.Elements,
		Annotations: req.Annotations,
		Attachments: req.Attachments,
		Quoted:      req.Quoted,
		Meta:        req.Options.Meta,
	}

	method := "none"
	if req.Options.StoreInHistory {
		method = string(req.Options.Storage)
		if method == "" {
			method = string(models.StorageDatabase)
		}
		if err := p.persist(ctx, msg, req.Options); err != nil {
			metrics.PublishFailures.Inc()
			return 0, err
		}
	}

	if err := p.store.PublishMessage(ctx, msg); err != nil {
		metrics.PublishFailures.Inc()
		p.log.Error().Err(err).Str("channel_id", msg.ChannelID).Msg("failed to broadcast message")
		if req.Options.StoreInHistory {
			p.unpersist(ctx, msg, req.Options)
		}
		return 0, fmt.Errorf("broadcast message: %w", err)
	}

	metrics.MessagesPublished.WithLabelValues(method).Inc()
	p.log.Debug().
		Str("channel_id", msg.ChannelID).
		Int64("timetoken", msg.Timetoken).
		Str("storage", method).
		Msg("message published")
	return msg.Timetoken, nil
}

func (p *Publisher) persist(ctx context.Context, msg models.PublishedMessage, opts models.PublishOptions) error {
	switch opts.Storage {
	case models.StorageDatabase, "":
		row, err := toRow(msg)
		if err != nil {
			return err
		}
		if err := p.store.SaveMessage(row); err != nil {
			return fmt.Errorf("save message: %w", err)
		}
	case models.StorageCache:
		if err := p.store.CacheMessage(ctx, msg, opts.TTL); err != nil {
			p.log.Error().Err(err).Str("channel_id", msg.ChannelID).Msg("failed to cache message")
			return fmt.Errorf("cache message: %w", err)
		}
	default:
		return fmt.Errorf("unknown storage method %q", opts.Storage)
	}
	return nil
}

// unpersist removes a message whose broadcast failed, so a resend of the same
// draft leaves a single copy in history.
func (p *Publisher) unpersist(ctx context.Context, msg models.PublishedMessage, opts models.PublishOptions) {
	var err error
	switch opts.Storage {
	case models.StorageDatabase, "":
		err = p.store.DeleteMessage(msg.ChannelID, msg.Timetoken)
	case models.StorageCache:
		err = p.store.UncacheMessage(ctx, msg.ChannelID, msg.Timetoken)
	}
	if err != nil {
		p.log.Error().Err(err).
			Str("channel_id", msg.ChannelID).
			Int64("timetoken", msg.Timetoken).
			Msg("failed to remove unbroadcast message")
	}
}

func toRow(msg models.PublishedMessage) (*models.Message, error) {
	annotations, err := draft.EncodeAnnotations(msg.Annotations)
	if err != nil {
		return nil, err
	}
	row := &models.Message{
		Timetoken:   msg.Timetoken,
		ChannelID:   msg.ChannelID,
		SenderID:    msg.SenderID,
		Text:        msg.Text,
		Annotations: annotations,
	}
	if len(msg.Attachments) > 0 {
		b, err := json.Marshal(msg.Attachments)
		if err != nil {
			return nil, fmt.Errorf("encode attachments: %w", err)
		}
		row.Attachments = string(b)
	}
	if msg.Quoted != nil {
		tt := msg.Quoted.Timetoken
		row.QuotedTimetoken = &tt
	}
	return row, nil
}
