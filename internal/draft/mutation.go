package draft

import (
	"fmt"

	"chatdraft/backend/internal/models"
)

// Change describes the effect of one successful mutation.
type Change struct {
	// Cursor is the position right after the edit, used to find the token
	// being typed.
	Cursor int
	// Invalidated lists annotations removed because the edit touched them.
	Invalidated []models.Annotation
	// Shifted counts annotations whose start offset moved.
	Shifted int
	// TextChanged is false for annotation-only mutations and no-op edits.
	TextChanged bool
}

func (c *Change) merge(o Change) {
	c.Cursor = o.Cursor
	c.Invalidated = append(c.Invalidated, o.Invalidated...)
	c.Shifted += o.Shifted
	c.TextChanged = c.TextChanged || o.TextChanged
}

// MutationProcessor applies edits to a TextBuffer and keeps its AnnotationSet
// consistent. Every operation validates its inputs before touching state, so
// a failed call changes nothing.
type MutationProcessor struct {
	text        *TextBuffer
	annotations *AnnotationSet
}

// NewMutationProcessor creates a processor over an empty draft.
func NewMutationProcessor() *MutationProcessor {
	return &MutationProcessor{text: NewTextBuffer(""), annotations: &AnnotationSet{}}
}

func (p *MutationProcessor) Text() *TextBuffer           { return p.text }
func (p *MutationProcessor) Annotations() *AnnotationSet { return p.annotations }

// InsertText inserts text at offset. Annotations at or after offset move
// right; an annotation with offset strictly inside it is invalidated.
func (p *MutationProcessor) InsertText(offset int, text string) (Change, error) {
	if offset < 0 || offset > p.text.Len() {
		return Change{}, rangeError("insert offset %d outside text with length %d", offset, p.text.Len())
	}
	n := Length(text)
	if n == 0 {
		return Change{Cursor: offset}, nil
	}
	ch := Change{Cursor: offset + n, TextChanged: true}
	ch.Invalidated = p.annotations.InvalidateContaining(offset)
	ch.Shifted = p.annotations.Shift(offset, n)
	if _, err := p.text.Replace(offset, 0, text); err != nil {
		panic(err) // offset was validated above
	}
	return ch, nil
}

// RemoveText deletes [offset, offset+length). Any annotation sharing a code
// unit with the range is invalidated, later ones move left.
func (p *MutationProcessor) RemoveText(offset, length int) (Change, error) {
	if err := p.text.CheckRange(offset, length); err != nil {
		return Change{}, err
	}
	if length == 0 {
		return Change{Cursor: offset}, nil
	}
	ch := Change{Cursor: offset, TextChanged: true}
	ch.Invalidated = p.annotations.InvalidateIntersecting(offset, length)
	ch.Shifted = p.annotations.Shift(offset+length, -length)
	if _, err := p.text.Replace(offset, length, ""); err != nil {
		panic(err)
	}
	return ch, nil
}

// AddMention annotates [offset, offset+length) with target, replacing any
// annotation it overlaps. The text is not changed.
func (p *MutationProcessor) AddMention(offset, length int, target models.MentionTarget) (Change, error) {
	if length <= 0 {
		return Change{}, rangeError("mention length %d must be positive", length)
	}
	if err := p.text.CheckRange(offset, length); err != nil {
		return Change{}, err
	}
	if err := target.Validate(); err != nil {
		return Change{}, err
	}
	ch := Change{Cursor: offset + length}
	ch.Invalidated = p.annotations.InvalidateIntersecting(offset, length)
	if err := p.annotations.Insert(models.Annotation{Start: offset, Length: length, Target: target}); err != nil {
		panic(err) // conflicts were removed above
	}
	return ch, nil
}

// RemoveMention removes the annotation starting at offset, if there is one.
func (p *MutationProcessor) RemoveMention(offset int) (Change, bool) {
	a, ok := p.annotations.Remove(offset)
	if !ok {
		return Change{}, false
	}
	return Change{Cursor: a.End()}, true
}

// InsertSuggestedMention replaces the suggestion token with displayText and
// annotates the result. When displayText is empty the suggestion's
// ReplaceWith is used. If the token no longer matches the text the draft is
// left untouched and ErrStaleSuggestion is returned.
func (p *MutationProcessor) InsertSuggestedMention(s models.Suggestion, displayText string) (Change, error) {
	if displayText == "" {
		displayText = s.ReplaceWith
	}
	if Length(displayText) == 0 {
		return Change{}, rangeError("suggestion for %q has no display text", s.ReplaceFrom)
	}
	if err := s.Target.Validate(); err != nil {
		return Change{}, err
	}
	fromLen := Length(s.ReplaceFrom)
	current, err := p.text.Slice(s.Offset, s.Offset+fromLen)
	if err != nil || current != s.ReplaceFrom {
		return Change{}, fmt.Errorf("%w: expected %q at offset %d", ErrStaleSuggestion, s.ReplaceFrom, s.Offset)
	}

	var ch Change
	if fromLen > 0 {
		removed, err := p.RemoveText(s.Offset, fromLen)
		if err != nil {
			panic(err)
		}
		ch.merge(removed)
	}
	inserted, err := p.InsertText(s.Offset, displayText)
	if err != nil {
		panic(err)
	}
	ch.merge(inserted)
	added, err := p.AddMention(s.Offset, Length(displayText), s.Target)
	if err != nil {
		panic(err)
	}
	ch.Invalidated = append(ch.Invalidated, added.Invalidated...)
	return ch, nil
}

// SetFullText replaces the whole text with newText as one minimal edit, so
// annotations outside the changed segment survive.
func (p *MutationProcessor) SetFullText(newText string) Change {
	edit := p.text.Diff(newText)
	if edit.IsNoop() {
		return Change{Cursor: edit.Start}
	}
	// Diff only produces ranges inside the current text.
	var ch Change
	if edit.Length > 0 {
		removed, err := p.RemoveText(edit.Start, edit.Length)
		if err != nil {
			panic(err)
		}
		ch.merge(removed)
	}
	inserted, err := p.InsertText(edit.Start, edit.Text)
	if err != nil {
		panic(err)
	}
	ch.merge(inserted)
	return ch
}
