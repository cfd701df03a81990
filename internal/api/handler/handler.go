package handler

import (
	"chatdraft/backend/internal/chathub"
	"chatdraft/backend/internal/draft"
	"chatdraft/backend/internal/models"
	"chatdraft/backend/internal/storage"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

var errMentionNotFound = errors.New("no mention starts at offset")

// MessageStore is the storage the message and unread endpoints read.
type MessageStore interface {
	GetMessage(channelID string, timetoken int64) (*models.Message, error)
	GetCachedMessage(ctx context.Context, channelID string, timetoken int64) (*models.PublishedMessage, error)
	GetUnreadMessagesCount(channelID, userID string) (*int64, error)
	MarkRead(channelID, userID string, timetoken int64) error
}

// Handler serves the draft and channel HTTP API.
type Handler struct {
	Hub   *chathub.ManagerService
	Store MessageStore
	// SuggestionWait bounds how long GET suggestions waits for a lookup.
	SuggestionWait time.Duration

	log zerolog.Logger
}

func NewHandler(hub *chathub.ManagerService, store MessageStore, suggestionWait time.Duration, logger zerolog.Logger) *Handler {
	return &Handler{
		Hub:            hub,
		Store:          store,
		SuggestionWait: suggestionWait,
		log:            logger.With().Str("component", "http").Logger(),
	}
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	drafts := r.Group("/drafts")
	drafts.POST("", h.CreateDraft)
	drafts.GET("/:id", h.GetDraft)
	drafts.DELETE("/:id", h.DeleteDraft)
	drafts.POST("/:id/insert", h.InsertText)
	drafts.POST("/:id/remove", h.RemoveText)
	drafts.PUT("/:id/text", h.UpdateText)
	drafts.POST("/:id/mentions", h.AddMention)
	drafts.DELETE("/:id/mentions/:offset", h.RemoveMention)
	drafts.GET("/:id/suggestions", h.GetSuggestions)
	drafts.POST("/:id/suggestions/accept", h.AcceptSuggestion)
	drafts.POST("/:id/quote", h.SetQuote)
	drafts.DELETE("/:id/quote", h.ClearQuote)
	drafts.POST("/:id/attachments", h.AddAttachment)
	drafts.DELETE("/:id/attachments/:name", h.RemoveAttachment)
	drafts.POST("/:id/send", h.Send)
	drafts.GET("/:id/ws", h.ServeWebSocket)

	channels := r.Group("/channels")
	channels.GET("/:id/messages/:timetoken/elements", h.GetMessageElements)
	channels.GET("/:id/unread", h.GetUnreadCount)
	channels.POST("/:id/read", h.MarkRead)
}

// draftState is the JSON view of a draft session.
type draftState struct {
	ID          string                  `json:"id"`
	ChannelID   string                  `json:"channel_id"`
	UserID      string                  `json:"user_id"`
	Text        string                  `json:"text"`
	Annotations []models.Annotation     `json:"annotations"`
	Elements    []models.MessageElement `json:"elements"`
	Quoted      *models.QuotedMessage   `json:"quoted,omitempty"`
	Attachments []models.Attachment     `json:"attachments"`
}

func stateOf(s *chathub.Session, d *draft.MessageDraft) draftState {
	return draftState{
		ID:          s.ID,
		ChannelID:   s.ChannelID,
		UserID:      s.UserID,
		Text:        d.Text(),
		Annotations: d.Annotations(),
		Elements:    d.Elements(),
		Quoted:      d.QuotedMessage(),
		Attachments: d.Attachments(),
	}
}

type changeResponse struct {
	Cursor      int                 `json:"cursor"`
	Invalidated []models.Annotation `json:"invalidated"`
}

// session resolves the :id parameter, answering 404 when it is unknown.
func (h *Handler) session(c *gin.Context) (*chathub.Session, bool) {
	s, ok := h.Hub.GetSession(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "draft not found"})
		return nil, false
	}
	return s, true
}

// mutate applies fn to the session draft and answers with the change and
// the new draft state.
func (h *Handler) mutate(c *gin.Context, op string, fn func(d *draft.MessageDraft) (draft.Change, error)) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var state draftState
	ch, err := s.Mutate(op, func(d *draft.MessageDraft) (draft.Change, error) {
		ch, err := fn(d)
		if err == nil {
			state = stateOf(s, d)
		}
		return ch, err
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	invalidated := ch.Invalidated
	if invalidated == nil {
		invalidated = []models.Annotation{}
	}
	c.JSON(http.StatusOK, gin.H{
		"change": changeResponse{Cursor: ch.Cursor, Invalidated: invalidated},
		"draft":  state,
	})
}

// view runs fn on the session draft and answers with the draft state.
func (h *Handler) view(c *gin.Context, fn func(d *draft.MessageDraft)) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var state draftState
	err := s.View(func(d *draft.MessageDraft) {
		fn(d)
		state = stateOf(s, d)
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, chathub.ErrSessionClosed),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, errMentionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, draft.ErrRange),
		errors.Is(err, models.ErrInvalidTarget),
		errors.Is(err, draft.ErrEmptyDraft):
		status = http.StatusBadRequest
	case errors.Is(err, draft.ErrStaleSuggestion),
		errors.Is(err, draft.ErrOverlapConflict):
		status = http.StatusConflict
	case errors.Is(err, draft.ErrPublishFailure):
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}
