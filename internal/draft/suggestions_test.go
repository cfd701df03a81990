package draft_test

import (
	"chatdraft/backend/internal/draft"
	"chatdraft/backend/internal/models"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var channelScope = models.UserScope{Kind: models.ScopeChannel, ChannelID: "c1"}

func await(t *testing.T, f *draft.SuggestionFuture) ([]models.Suggestion, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return f.Await(ctx)
}

func TestTokenAt(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		cursor int
		kind   draft.TokenKind
		token  string
		query  string
		found  bool
	}{
		{name: "user at end", text: "This is a @mar", cursor: 14, kind: draft.TokenUser, token: "@mar", query: "mar", found: true},
		{name: "cursor inside token", text: "hey @marian you", cursor: 6, kind: draft.TokenUser, token: "@marian", query: "marian", found: true},
		{name: "channel", text: "join #gen", cursor: 9, kind: draft.TokenChannel, token: "#gen", query: "gen", found: true},
		{name: "url", text: "see https://example.com", cursor: 23, kind: draft.TokenURL, token: "https://example.com", found: true},
		{name: "www url", text: "www.example.org", cursor: 3, kind: draft.TokenURL, token: "www.example.org", found: true},
		{name: "query too short", text: "@ma", cursor: 3},
		{name: "plain word", text: "hello world", cursor: 5},
		{name: "cursor on space", text: "a  b", cursor: 2},
		{name: "trigger in the middle of a word", text: "mail@host", cursor: 9},
		{name: "cursor out of range", text: "@marian", cursor: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, ok := draft.TokenAt(draft.NewTextBuffer(tt.text), tt.cursor, 3)

			assert.Equal(t, tt.found, ok)
			if !tt.found {
				return
			}
			assert.Equal(t, tt.kind, tok.Kind)
			assert.Equal(t, tt.token, tok.Text)
			assert.Equal(t, tt.query, tok.Query)
		})
	}
}

func TestResolveUserSuggestions(t *testing.T) {
	source := new(MockSource)
	source.On("ResolveUserCandidates", "mar", channelScope, 5).
		Return([]models.User{{ID: "u1", Name: "Marian Salazar"}, {ID: "u2"}}, nil).Once()
	r := draft.NewSuggestionResolver(source, channelScope, draft.SuggestionLimits{Users: 5, Channels: 5}, 3)

	got, err := await(t, r.Resolve(draft.NewTextBuffer("This is a @mar"), &draft.AnnotationSet{}, 14))

	require.NoError(t, err)
	assert.Equal(t, []models.Suggestion{
		{Offset: 10, ReplaceFrom: "@mar", ReplaceWith: "Marian Salazar", Target: models.UserTarget("u1")},
		{Offset: 10, ReplaceFrom: "@mar", ReplaceWith: "u2", Target: models.UserTarget("u2")},
	}, got)
	source.AssertExpectations(t)
}

func TestResolveChannelSuggestionsRespectsLimit(t *testing.T) {
	source := new(MockSource)
	source.On("ResolveChannelCandidates", "gen", 1).
		Return([]models.Channel{{ID: "c1", Name: "general"}, {ID: "c2", Name: "generic"}}, nil)
	r := draft.NewSuggestionResolver(source, channelScope, draft.SuggestionLimits{Users: 5, Channels: 1}, 3)

	got, err := await(t, r.Resolve(draft.NewTextBuffer("join #gen"), &draft.AnnotationSet{}, 9))

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.ChannelTarget("c1"), got[0].Target)
	assert.Equal(t, "general", got[0].ReplaceWith)
}

func TestResolveURLIsImmediate(t *testing.T) {
	r := draft.NewSuggestionResolver(nil, channelScope, draft.DefaultSuggestionLimits(), 3)

	fut := r.Resolve(draft.NewTextBuffer("see https://example.com"), &draft.AnnotationSet{}, 23)

	select {
	case <-fut.Done():
	default:
		t.Fatal("URL suggestions should resolve without a lookup")
	}
	got, err := await(t, fut)
	require.NoError(t, err)
	assert.Equal(t, []models.Suggestion{{
		Offset: 4, ReplaceFrom: "https://example.com", ReplaceWith: "https://example.com", Target: models.URLTarget("https://example.com"),
	}}, got)
}

func TestResolveWithoutTokenReturnsEmpty(t *testing.T) {
	source := new(MockSource)
	r := draft.NewSuggestionResolver(source, channelScope, draft.DefaultSuggestionLimits(), 3)

	got, err := await(t, r.Resolve(draft.NewTextBuffer("hello world"), &draft.AnnotationSet{}, 5))

	require.NoError(t, err)
	assert.Empty(t, got)
	source.AssertNotCalled(t, "ResolveUserCandidates", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveSkipsAnnotatedToken(t *testing.T) {
	source := new(MockSource)
	r := draft.NewSuggestionResolver(source, channelScope, draft.DefaultSuggestionLimits(), 3)
	set, err := draft.NewAnnotationSet(ann(3, 7, models.UserTarget("u1")))
	require.NoError(t, err)

	got, err := await(t, r.Resolve(draft.NewTextBuffer("Hi @Marian"), set, 10))

	require.NoError(t, err)
	assert.Empty(t, got)
	source.AssertNotCalled(t, "ResolveUserCandidates", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveReportsLookupErrors(t *testing.T) {
	boom := errors.New("directory unavailable")
	source := new(MockSource)
	source.On("ResolveUserCandidates", "mar", channelScope, 10).Return(nil, boom)
	r := draft.NewSuggestionResolver(source, channelScope, draft.DefaultSuggestionLimits(), 3)

	_, err := await(t, r.Resolve(draft.NewTextBuffer("@mar"), &draft.AnnotationSet{}, 4))

	assert.ErrorIs(t, err, boom)
}

func TestNewResolveCancelsPendingLookup(t *testing.T) {
	source := newBlockingSource(models.User{ID: "u1", Name: "Marian"})
	r := draft.NewSuggestionResolver(source, channelScope, draft.DefaultSuggestionLimits(), 3)

	first := r.Resolve(draft.NewTextBuffer("@mar"), &draft.AnnotationSet{}, 4)
	second := r.Resolve(draft.NewTextBuffer("@mari"), &draft.AnnotationSet{}, 5)
	close(source.release)

	_, err := await(t, first)
	assert.ErrorIs(t, err, draft.ErrSuggestionCanceled, "a superseded lookup must never deliver results")

	got, err := await(t, second)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "@mari", got[0].ReplaceFrom)
	assert.Same(t, second, r.Current())
}

func TestFilterSuggestionsForCursor(t *testing.T) {
	suggestions := []models.Suggestion{
		{Offset: 0, ReplaceFrom: "@ab", Target: models.UserTarget("u1")},
		{Offset: 10, ReplaceFrom: "#cd", Target: models.ChannelTarget("c1")},
	}

	assert.Equal(t, suggestions[:1], draft.FilterSuggestionsForCursor(suggestions, 2))
	assert.Equal(t, suggestions[:1], draft.FilterSuggestionsForCursor(suggestions, 3), "token end is inclusive")
	assert.Equal(t, suggestions[1:], draft.FilterSuggestionsForCursor(suggestions, 11))
	assert.Empty(t, draft.FilterSuggestionsForCursor(suggestions, 7))
}
