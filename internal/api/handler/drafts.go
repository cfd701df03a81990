package handler

import (
	"chatdraft/backend/internal/draft"
	"chatdraft/backend/internal/models"
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type createDraftRequest struct {
	ChannelID string `json:"channel_id" binding:"required"`
	UserID    string `json:"user_id" binding:"required"`
}

// CreateDraft opens a new draft session.
func (h *Handler) CreateDraft(c *gin.Context) {
	var req createDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s := h.Hub.CreateSession(req.ChannelID, req.UserID)
	var state draftState
	if err := s.View(func(d *draft.MessageDraft) { state = stateOf(s, d) }); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, state)
}

func (h *Handler) GetDraft(c *gin.Context) {
	h.view(c, func(*draft.MessageDraft) {})
}

// DeleteDraft abandons the draft.
func (h *Handler) DeleteDraft(c *gin.Context) {
	if !h.Hub.CloseSession(c.Param("id"), 0) {
		c.JSON(http.StatusNotFound, gin.H{"error": "draft not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

type insertRequest struct {
	Offset int    `json:"offset"`
	Text   string `json:"text"`
}

func (h *Handler) InsertText(c *gin.Context) {
	var req insertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.mutate(c, "insert", func(d *draft.MessageDraft) (draft.Change, error) {
		return d.InsertText(req.Offset, req.Text)
	})
}

type removeRequest struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
}

func (h *Handler) RemoveText(c *gin.Context) {
	var req removeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.mutate(c, "remove", func(d *draft.MessageDraft) (draft.Change, error) {
		return d.RemoveText(req.Offset, req.Length)
	})
}

type updateRequest struct {
	Text string `json:"text"`
}

// UpdateText replaces the whole draft text.
func (h *Handler) UpdateText(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.mutate(c, "update", func(d *draft.MessageDraft) (draft.Change, error) {
		return d.Update(req.Text), nil
	})
}

type mentionRequest struct {
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	Target string `json:"target" binding:"required"`
}

func (h *Handler) AddMention(c *gin.Context) {
	var req mentionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	target, err := models.ParseTarget(req.Target)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.mutate(c, "add_mention", func(d *draft.MessageDraft) (draft.Change, error) {
		return d.AddMention(req.Offset, req.Length, target)
	})
}

func (h *Handler) RemoveMention(c *gin.Context) {
	offset, err := strconv.Atoi(c.Param("offset"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be an integer"})
		return
	}
	h.mutate(c, "remove_mention", func(d *draft.MessageDraft) (draft.Change, error) {
		if !d.RemoveMention(offset) {
			return draft.Change{}, errMentionNotFound
		}
		return draft.Change{Cursor: offset}, nil
	})
}

// GetSuggestions waits up to SuggestionWait for the latest lookup. A lookup
// still running, or superseded meanwhile, is reported as pending.
func (h *Handler) GetSuggestions(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	fut, err := s.Suggestions()
	if err != nil {
		h.writeError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.SuggestionWait)
	defer cancel()
	suggestions, err := fut.Await(ctx)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, draft.ErrSuggestionCanceled) {
		c.JSON(http.StatusOK, gin.H{"suggestions": []models.Suggestion{}, "pending": true})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	if raw := c.Query("position"); raw != "" {
		position, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "position must be an integer"})
			return
		}
		suggestions = draft.FilterSuggestionsForCursor(suggestions, position)
	}
	if suggestions == nil {
		suggestions = []models.Suggestion{}
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions, "pending": false})
}

type acceptRequest struct {
	Suggestion  models.Suggestion `json:"suggestion"`
	DisplayText string            `json:"display_text"`
}

func (h *Handler) AcceptSuggestion(c *gin.Context) {
	var req acceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}
	if req.Suggestion.ReplaceFrom == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "suggestion is required"})
		return
	}
	h.mutate(c, "accept_suggestion", func(d *draft.MessageDraft) (draft.Change, error) {
		return d.InsertSuggestedMention(req.Suggestion, req.DisplayText)
	})
}

func (h *Handler) SetQuote(c *gin.Context) {
	var req models.QuotedMessage
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ChannelID == "" || req.Timetoken == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel_id and timetoken are required"})
		return
	}
	h.view(c, func(d *draft.MessageDraft) { d.SetQuotedMessage(&req) })
}

func (h *Handler) ClearQuote(c *gin.Context) {
	h.view(c, func(d *draft.MessageDraft) { d.SetQuotedMessage(nil) })
}

func (h *Handler) AddAttachment(c *gin.Context) {
	var req models.Attachment
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	h.view(c, func(d *draft.MessageDraft) { d.AddAttachment(req) })
}

func (h *Handler) RemoveAttachment(c *gin.Context) {
	name := c.Param("name")
	h.view(c, func(d *draft.MessageDraft) { d.RemoveAttachment(name) })
}

type sendRequest struct {
	StoreInHistory *bool                `json:"store_in_history"`
	Storage        models.StorageMethod `json:"storage"`
	TTLSeconds     int                  `json:"ttl_seconds"`
	Meta           map[string]string    `json:"meta"`
}

func (r sendRequest) options() models.PublishOptions {
	opts := models.DefaultPublishOptions()
	if r.StoreInHistory != nil {
		opts.StoreInHistory = *r.StoreInHistory
	}
	if r.Storage != "" {
		opts.Storage = r.Storage
	}
	opts.TTL = time.Duration(r.TTLSeconds) * time.Second
	opts.Meta = r.Meta
	return opts
}

// Send publishes the draft. A sent draft's session is closed; a failed send
// keeps the session so the client may retry.
func (h *Handler) Send(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req sendRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.Storage != "" && req.Storage != models.StorageDatabase && req.Storage != models.StorageCache {
		c.JSON(http.StatusBadRequest, gin.H{"error": "storage must be database or cache"})
		return
	}

	timetoken, err := s.Send(c.Request.Context(), req.options())
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.Hub.CloseSession(s.ID, timetoken)
	c.JSON(http.StatusOK, gin.H{"timetoken": timetoken})
}

// bindError answers 400 for malformed bodies. Target decoding errors keep
// their own message.
func (h *Handler) bindError(c *gin.Context, err error) {
	if errors.Is(err, models.ErrInvalidTarget) {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
