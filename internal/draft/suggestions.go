package draft

import (
	"context"
	"fmt"
	"sync/atomic"

	"chatdraft/backend/internal/models"
)

// SuggestionSource looks up mention candidates. Implementations must return
// promptly once ctx is canceled.
type SuggestionSource interface {
	ResolveUserCandidates(ctx context.Context, query string, scope models.UserScope, limit int) ([]models.User, error)
	ResolveChannelCandidates(ctx context.Context, query string, limit int) ([]models.Channel, error)
}

// SuggestionLimits caps how many candidates of each kind are returned.
type SuggestionLimits struct {
	Users    int
	Channels int
}

// DefaultSuggestionLimits returns ten users and ten channels.
func DefaultSuggestionLimits() SuggestionLimits {
	return SuggestionLimits{Users: 10, Channels: 10}
}

// SuggestionResolver turns the token around the cursor into a future list of
// suggestions. Each Resolve call supersedes the previous one: its future is
// canceled and a generation counter keeps late results from being delivered.
type SuggestionResolver struct {
	source   SuggestionSource
	scope    models.UserScope
	limits   SuggestionLimits
	minQuery int

	generation atomic.Uint64
	current    *SuggestionFuture
}

// NewSuggestionResolver creates a resolver. A nil source only yields URL
// suggestions.
func NewSuggestionResolver(source SuggestionSource, scope models.UserScope, limits SuggestionLimits, minQuery int) *SuggestionResolver {
	return &SuggestionResolver{source: source, scope: scope, limits: limits, minQuery: minQuery}
}

// Current returns the future from the latest Resolve call, or nil.
func (r *SuggestionResolver) Current() *SuggestionFuture { return r.current }

// Resolve cancels the previous lookup and starts a new one for the token
// touching cursor. Tokens overlapping an annotation produce no suggestions.
func (r *SuggestionResolver) Resolve(text *TextBuffer, annotations *AnnotationSet, cursor int) *SuggestionFuture {
	gen := r.generation.Add(1)
	r.Cancel()

	tok, ok := TokenAt(text, cursor, r.minQuery)
	if !ok || annotations.Overlapping(tok.Start, tok.Length) {
		r.current = Resolved([]models.Suggestion{})
		return r.current
	}

	if tok.Kind == TokenURL {
		r.current = Resolved([]models.Suggestion{{
			Offset:      tok.Start,
			ReplaceFrom: tok.Text,
			ReplaceWith: tok.Text,
			Target:      models.URLTarget(tok.Text),
		}})
		return r.current
	}

	if r.source == nil {
		r.current = Resolved([]models.Suggestion{})
		return r.current
	}

	ctx, cancel := context.WithCancel(context.Background())
	fut := newFuture[[]models.Suggestion](cancel)
	r.current = fut
	go func() {
		defer cancel()
		suggestions, err := r.lookup(ctx, tok)
		if r.generation.Load() != gen || ctx.Err() != nil {
			fut.complete(nil, ErrSuggestionCanceled)
			return
		}
		fut.complete(suggestions, err)
	}()
	return fut
}

// Cancel aborts the pending lookup, if any.
func (r *SuggestionResolver) Cancel() {
	if r.current != nil {
		r.current.Cancel()
	}
}

func (r *SuggestionResolver) lookup(ctx context.Context, tok Token) ([]models.Suggestion, error) {
	switch tok.Kind {
	case TokenUser:
		users, err := r.source.ResolveUserCandidates(ctx, tok.Query, r.scope, r.limits.Users)
		if err != nil {
			return nil, fmt.Errorf("resolve user suggestions for %q: %w", tok.Query, err)
		}
		out := make([]models.Suggestion, 0, min(len(users), r.limits.Users))
		for _, u := range users {
			if len(out) == r.limits.Users {
				break
			}
			name := u.Name
			if name == "" {
				name = u.ID
			}
			out = append(out, models.Suggestion{
				Offset: tok.Start, ReplaceFrom: tok.Text, ReplaceWith: name, Target: models.UserTarget(u.ID),
			})
		}
		return out, nil
	case TokenChannel:
		channels, err := r.source.ResolveChannelCandidates(ctx, tok.Query, r.limits.Channels)
		if err != nil {
			return nil, fmt.Errorf("resolve channel suggestions for %q: %w", tok.Query, err)
		}
		out := make([]models.Suggestion, 0, min(len(channels), r.limits.Channels))
		for _, c := range channels {
			if len(out) == r.limits.Channels {
				break
			}
			name := c.Name
			if name == "" {
				name = c.ID
			}
			out = append(out, models.Suggestion{
				Offset: tok.Start, ReplaceFrom: tok.Text, ReplaceWith: name, Target: models.ChannelTarget(c.ID),
			})
		}
		return out, nil
	}
	return []models.Suggestion{}, nil
}

// FilterSuggestionsForCursor keeps the suggestions whose token contains position.
func FilterSuggestionsForCursor(suggestions []models.Suggestion, position int) []models.Suggestion {
	out := make([]models.Suggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if s.Offset <= position && position <= s.Offset+Length(s.ReplaceFrom) {
			out = append(out, s)
		}
	}
	return out
}
