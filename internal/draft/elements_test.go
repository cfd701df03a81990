package draft_test

import (
	"chatdraft/backend/internal/draft"
	"chatdraft/backend/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToElements(t *testing.T) {
	got := draft.ToElements(sample, []models.Annotation{general, marian})

	assert.Equal(t, []models.MessageElement{
		models.PlainText("Hi "),
		models.Link("@Marian", models.UserTarget("u1")),
		models.PlainText(" and "),
		models.Link("#general", models.ChannelTarget("c1")),
	}, got)
}

func TestToElements_EdgeCases(t *testing.T) {
	assert.Empty(t, draft.ToElements("", nil))
	assert.Equal(t, []models.MessageElement{models.PlainText("plain")}, draft.ToElements("plain", nil))

	link := models.URLTarget("https://example.com")
	assert.Equal(t,
		[]models.MessageElement{models.Link("ab", link), models.Link("cd", models.UserTarget("u1"))},
		draft.ToElements("abcd", []models.Annotation{ann(0, 2, link), ann(2, 2, models.UserTarget("u1"))}),
		"adjacent links produce no empty text between them")

	assert.Equal(t,
		[]models.MessageElement{models.Link("ab", link), models.PlainText("cd")},
		draft.ToElements("abcd", []models.Annotation{ann(0, 2, link), ann(1, 2, link), ann(3, 9, link)}),
		"overlapping and out of range annotations are skipped")
}

func TestElementsRoundTrip(t *testing.T) {
	elements := []models.MessageElement{
		models.PlainText("🎉 "),
		models.Link("Marian", models.UserTarget("u1")),
		models.PlainText(" see "),
		models.Link("https://example.com/ä", models.URLTarget("https://example.com/%C3%A4")),
		models.Link("#general", models.ChannelTarget("c1")),
		models.PlainText("!"),
	}

	text, annotations := draft.FromElements(elements)

	assert.Equal(t, "🎉 Marian see https://example.com/ä#general!", text)
	assert.Equal(t, ann(3, 6, models.UserTarget("u1")), annotations[0])
	assert.Equal(t, elements, draft.ToElements(text, annotations))

	text2, annotations2 := draft.FromElements(draft.ToElements(text, annotations))
	assert.Equal(t, text, text2)
	assert.Equal(t, annotations, annotations2)
}

func TestParseStoredMessage(t *testing.T) {
	raw, err := draft.EncodeAnnotations([]models.Annotation{marian, general})
	require.NoError(t, err)

	elements, err := draft.ParseStoredMessage(sample, raw)

	require.NoError(t, err)
	assert.Equal(t, draft.ToElements(sample, []models.Annotation{marian, general}), elements)

	none, err := draft.EncodeAnnotations(nil)
	require.NoError(t, err)
	elements, err = draft.ParseStoredMessage("plain", none)
	require.NoError(t, err)
	assert.Equal(t, []models.MessageElement{models.PlainText("plain")}, elements)

	_, err = draft.ParseStoredMessage("x", "{not json")
	assert.Error(t, err)
}
