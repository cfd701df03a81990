package draft

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"chatdraft/backend/internal/models"
)

const (
	defaultMinQueryLength = 3
	defaultTypingTimeout  = 5 * time.Second
	typingSignalTimeout   = 5 * time.Second
	typingQueueSize       = 16
)

// PublishSink sends a finished draft and returns its timetoken.
type PublishSink interface {
	Publish(ctx context.Context, req PublishRequest) (int64, error)
}

// TypingSignaler tells the other channel members that the author is typing.
type TypingSignaler interface {
	StartTyping(ctx context.Context, channelID, userID string) error
	StopTyping(ctx context.Context, channelID, userID string) error
}

// PublishRequest is everything the sink needs to publish a draft.
type PublishRequest struct {
	ChannelID   string
	SenderID    string
	Text        string
	Elements    []models.MessageElement
	Annotations []models.Annotation
	Attachments []models.Attachment
	Quoted      *models.QuotedMessage
	Options     models.PublishOptions
}

// Options configure a MessageDraft.
type Options struct {
	ChannelID string
	UserID    string

	// TypingIndicatorTriggered makes edits emit typing signals.
	TypingIndicatorTriggered bool
	// TypingTimeout is how long a typing signal stays valid on the receiving
	// side. Signals are re-sent at most once per TypingTimeout-1s.
	TypingTimeout time.Duration

	UserSuggestionScope models.SuggestionScope
	Limits              SuggestionLimits
	// MinQueryLength is the number of characters required after a
	// trigger before a lookup is issued.
	MinQueryLength int

	Source SuggestionSource
	Sink   PublishSink
	Typing TypingSignaler

	Logger zerolog.Logger
	// Now is the clock; time.Now when nil.
	Now func() time.Time
}

// MessageDraft is the draft facade: a text with annotations, the pending
// suggestion lookup, quoted message and attachments.
type MessageDraft struct {
	opts      Options
	processor *MutationProcessor
	resolver  *SuggestionResolver
	notifier  ChangeNotifier
	log       zerolog.Logger

	quoted      *models.QuotedMessage
	attachments []models.Attachment

	typingCh     chan bool
	typingSentAt time.Time
}

// New creates an empty draft for opts.ChannelID.
func New(opts Options) *MessageDraft {
	if opts.Limits.Users <= 0 && opts.Limits.Channels <= 0 {
		opts.Limits = DefaultSuggestionLimits()
	}
	if opts.MinQueryLength <= 0 {
		opts.MinQueryLength = defaultMinQueryLength
	}
	if opts.TypingTimeout <= 0 {
		opts.TypingTimeout = defaultTypingTimeout
	}
	if opts.UserSuggestionScope == "" {
		opts.UserSuggestionScope = models.ScopeChannel
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	scope := models.UserScope{Kind: opts.UserSuggestionScope}
	if scope.Kind == models.ScopeChannel {
		scope.ChannelID = opts.ChannelID
	}

	d := &MessageDraft{
		opts:      opts,
		processor: NewMutationProcessor(),
		resolver:  NewSuggestionResolver(opts.Source, scope, opts.Limits, opts.MinQueryLength),
		log:       opts.Logger.With().Str("channel_id", opts.ChannelID).Str("user_id", opts.UserID).Logger(),
	}
	if opts.TypingIndicatorTriggered && opts.Typing != nil {
		d.typingCh = make(chan bool, typingQueueSize)
		go d.typingLoop(d.typingCh)
	}
	return d
}

func (d *MessageDraft) ChannelID() string { return d.opts.ChannelID }
func (d *MessageDraft) UserID() string    { return d.opts.UserID }

// Text returns the current text.
func (d *MessageDraft) Text() string { return d.processor.Text().String() }

// Annotations returns the current annotations in offset order.
func (d *MessageDraft) Annotations() []models.Annotation { return d.processor.Annotations().All() }

// Elements serializes the current draft.
func (d *MessageDraft) Elements() []models.MessageElement {
	return ToElements(d.Text(), d.Annotations())
}

// CurrentSuggestions returns the future of the latest lookup, resolved empty
// before the first edit.
func (d *MessageDraft) CurrentSuggestions() *SuggestionFuture {
	if f := d.resolver.Current(); f != nil {
		return f
	}
	return Resolved([]models.Suggestion{})
}

// InsertText inserts text at offset.
func (d *MessageDraft) InsertText(offset int, text string) (Change, error) {
	ch, err := d.processor.InsertText(offset, text)
	if err != nil {
		return ch, err
	}
	d.changed(ch)
	return ch, nil
}

// RemoveText deletes length units starting at offset.
func (d *MessageDraft) RemoveText(offset, length int) (Change, error) {
	ch, err := d.processor.RemoveText(offset, length)
	if err != nil {
		return ch, err
	}
	d.changed(ch)
	return ch, nil
}

// Update replaces the whole text, keeping annotations outside the changed
// segment. Setting the same text changes nothing and notifies nobody.
func (d *MessageDraft) Update(text string) Change {
	ch := d.processor.SetFullText(text)
	if ch.TextChanged {
		d.changed(ch)
	}
	return ch
}

// AddMention annotates [offset, offset+length) with target.
func (d *MessageDraft) AddMention(offset, length int, target models.MentionTarget) (Change, error) {
	ch, err := d.processor.AddMention(offset, length, target)
	if err != nil {
		return ch, err
	}
	d.changed(ch)
	return ch, nil
}

// RemoveMention removes the annotation starting at offset. It reports
// whether one was found; nothing is notified otherwise.
func (d *MessageDraft) RemoveMention(offset int) bool {
	ch, ok := d.processor.RemoveMention(offset)
	if ok {
		d.changed(ch)
	}
	return ok
}

// InsertSuggestedMention accepts a suggestion, replacing its token with
// displayText (or the suggestion's ReplaceWith) and annotating it.
func (d *MessageDraft) InsertSuggestedMention(s models.Suggestion, displayText string) (Change, error) {
	ch, err := d.processor.InsertSuggestedMention(s, displayText)
	if err != nil {
		return ch, err
	}
	d.changed(ch)
	return ch, nil
}

// SetQuotedMessage sets or clears (nil) the quoted message.
func (d *MessageDraft) SetQuotedMessage(q *models.QuotedMessage) { d.quoted = q }

// QuotedMessage returns the quoted message, if any.
func (d *MessageDraft) QuotedMessage() *models.QuotedMessage { return d.quoted }

// AddAttachment queues a file to be sent with the draft.
func (d *MessageDraft) AddAttachment(a models.Attachment) {
	d.attachments = append(d.attachments, a)
}

// RemoveAttachment drops every attachment named name.
func (d *MessageDraft) RemoveAttachment(name string) bool {
	kept := d.attachments[:0]
	for _, a := range d.attachments {
		if a.Name != name {
			kept = append(kept, a)
		}
	}
	removed := len(kept) != len(d.attachments)
	d.attachments = kept
	return removed
}

// Attachments returns a copy of the queued attachments.
func (d *MessageDraft) Attachments() []models.Attachment {
	out := make([]models.Attachment, len(d.attachments))
	copy(out, d.attachments)
	return out
}

// AddChangeListener registers fn for change events.
func (d *MessageDraft) AddChangeListener(fn ChangeListener) ListenerHandle {
	return d.notifier.Add(fn)
}

// RemoveChangeListener unregisters a listener. Safe to call from any goroutine.
func (d *MessageDraft) RemoveChangeListener(h ListenerHandle) bool {
	return d.notifier.Remove(h)
}

// Send publishes the draft. On failure the draft is unchanged and the error
// is a *PublishError, so the caller may send again.
func (d *MessageDraft) Send(ctx context.Context, opts models.PublishOptions) (int64, error) {
	if d.opts.Sink == nil {
		return 0, &PublishError{Err: errors.New("no publish sink configured")}
	}
	text := d.Text()
	if text == "" && len(d.attachments) == 0 {
		return 0, ErrEmptyDraft
	}
	annotations := d.Annotations()
	req := PublishRequest{
		ChannelID:   d.opts.ChannelID,
		SenderID:    d.opts.UserID,
		Text:        text,
		Elements:    ToElements(text, annotations),
		Annotations: annotations,
		Attachments: d.Attachments(),
		Quoted:      d.quoted,
		Options:     opts,
	}
	timetoken, err := d.opts.Sink.Publish(ctx, req)
	if err != nil {
		return 0, &PublishError{Err: err}
	}
	d.signalTyping(false)
	return timetoken, nil
}

// Close cancels the pending lookup and stops typing signals. The draft must
// not be mutated afterwards.
func (d *MessageDraft) Close() {
	d.resolver.Cancel()
	if d.typingCh != nil {
		close(d.typingCh)
		d.typingCh = nil
	}
}

func (d *MessageDraft) changed(ch Change) {
	fut := d.resolver.Resolve(d.processor.Text(), d.processor.Annotations(), ch.Cursor)
	if ch.TextChanged {
		d.signalTyping(d.processor.Text().Len() > 0)
	}
	d.notifier.Notify(ChangeEvent{Elements: d.Elements(), Suggestions: fut})
}

func (d *MessageDraft) signalTyping(typing bool) {
	if d.typingCh == nil {
		return
	}
	now := d.opts.Now()
	if typing {
		if !d.typingSentAt.IsZero() && now.Sub(d.typingSentAt) < d.opts.TypingTimeout-time.Second {
			return
		}
		d.typingSentAt = now
	} else {
		if d.typingSentAt.IsZero() {
			return
		}
		d.typingSentAt = time.Time{}
	}
	select {
	case d.typingCh <- typing:
	default:
		d.log.Warn().Bool("typing", typing).Msg("typing signal queue full, dropping signal")
	}
}

func (d *MessageDraft) typingLoop(ch <-chan bool) {
	for typing := range ch {
		ctx, cancel := context.WithTimeout(context.Background(), typingSignalTimeout)
		var err error
		if typing {
			err = d.opts.Typing.StartTyping(ctx, d.opts.ChannelID, d.opts.UserID)
		} else {
			err = d.opts.Typing.StopTyping(ctx, d.opts.ChannelID, d.opts.UserID)
		}
		cancel()
		if err != nil {
			d.log.Error().Err(err).Bool("typing", typing).Msg("failed to send typing signal")
		}
	}
}
