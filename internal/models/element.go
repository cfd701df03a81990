package models

import (
	"encoding/json"
	"fmt"
)

const (
	elementText = "text"
	elementLink = "link"
)

// MessageElement is one span of a serialized message body: PlainText(text)
// when Target is nil, Link(text, target) otherwise.
type MessageElement struct {
	Text   string
	Target *MentionTarget
}

// PlainText builds a plain text element.
func PlainText(text string) MessageElement {
	return MessageElement{Text: text}
}

// Link builds a link element.
func Link(text string, target MentionTarget) MessageElement {
	return MessageElement{Text: text, Target: &target}
}

// IsLink reports whether the element carries a target.
func (e MessageElement) IsLink() bool { return e.Target != nil }

type wireElement struct {
	Type   string         `json:"type"`
	Text   string         `json:"text"`
	Target *MentionTarget `json:"target,omitempty"`
}

func (e MessageElement) MarshalJSON() ([]byte, error) {
	w := wireElement{Type: elementText, Text: e.Text}
	if e.Target != nil {
		w.Type = elementLink
		w.Target = e.Target
	}
	return json.Marshal(w)
}

func (e *MessageElement) UnmarshalJSON(b []byte) error {
	var w wireElement
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	switch w.Type {
	case elementText:
		*e = PlainText(w.Text)
	case elementLink:
		if w.Target == nil {
			return fmt.Errorf("%w: link element without target", ErrInvalidTarget)
		}
		*e = Link(w.Text, *w.Target)
	default:
		return fmt.Errorf("unknown message element type %q", w.Type)
	}
	return nil
}
