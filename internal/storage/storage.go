package storage

import (
	"chatdraft/backend/internal/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

type Storage interface {
	SaveUser(user *models.User) error
	SaveChannel(channel *models.Channel) error
	JoinChannel(channelID, userID string) error

	SearchUsers(ctx context.Context, query string, scope models.UserScope, limit int) ([]models.User, error)
	SearchChannels(ctx context.Context, query string, limit int) ([]models.Channel, error)

	SaveMessage(msg *models.Message) error
	DeleteMessage(channelID string, timetoken int64) error
	GetMessage(channelID string, timetoken int64) (*models.Message, error)
	GetUnreadMessagesCount(channelID, userID string) (*int64, error)
	MarkRead(channelID, userID string, timetoken int64) error

	PublishMessage(ctx context.Context, msg models.PublishedMessage) error
	CacheMessage(ctx context.Context, msg models.PublishedMessage, ttl time.Duration) error
	UncacheMessage(ctx context.Context, channelID string, timetoken int64) error
	GetCachedMessage(ctx context.Context, channelID string, timetoken int64) (*models.PublishedMessage, error)

	SetTyping(ctx context.Context, signal models.TypingSignal, ttl time.Duration) error
}

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context

	log zerolog.Logger
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client, logger zerolog.Logger) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
		log:   logger.With().Str("component", "storage").Logger(),
	}
}

// Migrate creates or updates every table the server uses.
func (s *Service) Migrate() error {
	return s.DB.AutoMigrate(
		&models.User{},
		&models.Channel{},
		&models.Membership{},
		&models.Message{},
	)
}

// Redis key builders.

// ChannelKey is the pub/sub channel a channel's messages are published on.
func ChannelKey(channelID string) string { return "channel:" + channelID }

// TypingKey is the pub/sub channel for typing signals of a channel.
func TypingKey(channelID string) string { return "channel:" + channelID + ":typing" }

func messagesKey(channelID string) string { return "channel:" + channelID + ":messages" }

func typingStateKey(channelID, userID string) string {
	return "typing:" + channelID + ":" + userID
}

// SaveUser upserts a directory user.
func (s *Service) SaveUser(user *models.User) error {
	return s.DB.Save(user).Error
}

// SaveChannel upserts a channel.
func (s *Service) SaveChannel(channel *models.Channel) error {
	return s.DB.Save(channel).Error
}

// JoinChannel adds the user to the channel members and creates its
// membership row. Joining twice is a no-op.
func (s *Service) JoinChannel(channelID, userID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Channel{}).
			Where("id = ?", channelID).
			Where("NOT (? = ANY(COALESCE(member_ids, '{}')))", userID).
			Update("member_ids", gorm.Expr("array_append(COALESCE(member_ids, '{}'), ?)", userID))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Channel{}).Where("id = ?", channelID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return fmt.Errorf("channel %s: %w", channelID, ErrNotFound)
			}
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Membership{ChannelID: channelID, UserID: userID}).Error
	})
}

// SearchUsers returns users whose name or one of whose aliases contains
// query, case-insensitively. With a channel scope only members of that
// channel are returned.
func (s *Service) SearchUsers(ctx context.Context, query string, scope models.UserScope, limit int) ([]models.User, error) {
	pattern := likePattern(query)
	q := s.DB.WithContext(ctx).
		Where("name ILIKE ? OR EXISTS (SELECT 1 FROM unnest(aliases) AS alias WHERE alias ILIKE ?)", pattern, pattern)

	if scope.Kind == models.ScopeChannel {
		var channel models.Channel
		err := s.DB.WithContext(ctx).Select("member_ids").Where("id = ?", scope.ChannelID).First(&channel).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []models.User{}, nil
		}
		if err != nil {
			return nil, err
		}
		q = q.Where("id = ANY(?)", pq.Array([]string(channel.MemberIDs)))
	}

	var users []models.User
	if err := q.Order("name asc").Limit(limit).Find(&users).Error; err != nil {
		s.log.Error().Err(err).Str("query", query).Msg("failed to search users")
		return nil, err
	}
	return users, nil
}

// SearchChannels returns channels whose name contains query.
func (s *Service) SearchChannels(ctx context.Context, query string, limit int) ([]models.Channel, error) {
	var channels []models.Channel
	err := s.DB.WithContext(ctx).
		Where("name ILIKE ?", likePattern(query)).
		Order("name asc").
		Limit(limit).
		Find(&channels).Error
	if err != nil {
		s.log.Error().Err(err).Str("query", query).Msg("failed to search channels")
		return nil, err
	}
	return channels, nil
}

// SaveMessage stores a published message in the history table.
func (s *Service) SaveMessage(msg *models.Message) error {
	if err := s.DB.Create(msg).Error; err != nil {
		s.log.Error().Err(err).Str("channel_id", msg.ChannelID).Msg("failed to save message")
		return err
	}
	return nil
}

// DeleteMessage removes a stored message from the history table.
func (s *Service) DeleteMessage(channelID string, timetoken int64) error {
	err := s.DB.Where("channel_id = ? AND timetoken = ?", channelID, timetoken).Delete(&models.Message{}).Error
	if err != nil {
		s.log.Error().Err(err).Str("channel_id", channelID).Int64("timetoken", timetoken).Msg("failed to delete message")
	}
	return err
}

// GetMessage loads a stored message by its channel and timetoken.
func (s *Service) GetMessage(channelID string, timetoken int64) (*models.Message, error) {
	var msg models.Message
	err := s.DB.Where("channel_id = ? AND timetoken = ?", channelID, timetoken).First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetUnreadMessagesCount counts the stored messages newer than the user's
// last read timetoken. It returns nil when the user never marked anything
// as read in the channel.
func (s *Service) GetUnreadMessagesCount(channelID, userID string) (*int64, error) {
	var membership models.Membership
	err := s.DB.Where("channel_id = ? AND user_id = ?", channelID, userID).First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if membership.LastReadTimetoken == nil {
		return nil, nil
	}

	var count int64
	err = s.DB.Model(&models.Message{}).
		Where("channel_id = ? AND timetoken > ?", channelID, *membership.LastReadTimetoken).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	return &count, nil
}

// MarkRead records timetoken as the last message the user has read.
func (s *Service) MarkRead(channelID, userID string, timetoken int64) error {
	membership := models.Membership{ChannelID: channelID, UserID: userID, LastReadTimetoken: &timetoken}
	return s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "channel_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_read_timetoken"}),
	}).Create(&membership).Error
}

// PublishMessage publishes the message on the channel's Redis Pub/Sub topic.
func (s *Service) PublishMessage(ctx context.Context, msg models.PublishedMessage) error {
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.Redis.Publish(ctx, ChannelKey(msg.ChannelID), msgBytes).Err()
}

// CacheMessage keeps the message in the channel's sorted set, scored by
// timetoken. The whole set expires ttl after the latest message.
func (s *Service) CacheMessage(ctx context.Context, msg models.PublishedMessage, ttl time.Duration) error {
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	key := messagesKey(msg.ChannelID)
	pipe := s.Redis.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(msg.Timetoken), Member: msgBytes})
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// UncacheMessage drops the message with timetoken from the channel's cache.
func (s *Service) UncacheMessage(ctx context.Context, channelID string, timetoken int64) error {
	score := strconv.FormatInt(timetoken, 10)
	return s.Redis.ZRemRangeByScore(ctx, messagesKey(channelID), score, score).Err()
}

// GetCachedMessage looks a message up in the channel's cache.
func (s *Service) GetCachedMessage(ctx context.Context, channelID string, timetoken int64) (*models.PublishedMessage, error) {
	score := strconv.FormatInt(timetoken, 10)
	members, err := s.Redis.ZRangeByScore(ctx, messagesKey(channelID), &redis.ZRangeBy{Min: score, Max: score}).Result()
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		var msg models.PublishedMessage
		if err := json.Unmarshal([]byte(m), &msg); err != nil {
			s.log.Warn().Err(err).Str("channel_id", channelID).Msg("skipping malformed cached message")
			continue
		}
		if msg.Timetoken == timetoken {
			return &msg, nil
		}
	}
	return nil, ErrNotFound
}

// SetTyping stores the typing state with a ttl and publishes the signal.
// A stopped signal clears the state.
func (s *Service) SetTyping(ctx context.Context, signal models.TypingSignal, ttl time.Duration) error {
	key := typingStateKey(signal.ChannelID, signal.UserID)
	var err error
	if signal.Typing {
		err = s.Redis.Set(ctx, key, "1", ttl).Err()
	} else {
		err = s.Redis.Del(ctx, key).Err()
	}
	if err != nil {
		return err
	}
	payload, err := json.Marshal(signal)
	if err != nil {
		return err
	}
	return s.Redis.Publish(ctx, TypingKey(signal.ChannelID), payload).Err()
}

// likePattern turns a user query into a "contains" ILIKE pattern.
func likePattern(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(query) + "%"
}
