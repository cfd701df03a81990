package models

import (
	"errors"
	"fmt"
	"strings"
)

// TargetType identifies what a rich span in a message points to.
type TargetType string

const (
	TargetUser    TargetType = "user"
	TargetChannel TargetType = "channel"
	TargetURL     TargetType = "url"
)

// ErrInvalidTarget is returned when a serialized target cannot be parsed.
var ErrInvalidTarget = errors.New("invalid mention target")

// MentionTarget is the tagged union User(id) | Channel(id) | Url(value).
// For users and channels Value holds the ID, for links it holds the URL.
type MentionTarget struct {
	Type  TargetType
	Value string
}

func UserTarget(id string) MentionTarget    { return MentionTarget{Type: TargetUser, Value: id} }
func ChannelTarget(id string) MentionTarget { return MentionTarget{Type: TargetChannel, Value: id} }
func URLTarget(value string) MentionTarget  { return MentionTarget{Type: TargetURL, Value: value} }

func (t MentionTarget) IsZero() bool   { return t.Type == "" && t.Value == "" }
func (t MentionTarget) String() string { return string(t.Type) + ":" + t.Value }

func (t MentionTarget) MarshalText() ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return []byte(t.String()), nil
}

// UnmarshalText parses the `user:<id>` | `channel:<id>` | `url:<value>` form.
func (t *MentionTarget) UnmarshalText(b []byte) error {
	parsed, err := ParseTarget(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Validate checks that the target has a known type and a non-empty value.
func (t MentionTarget) Validate() error {
	switch t.Type {
	case TargetUser, TargetChannel, TargetURL:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTarget, t.Type)
	}
	if t.Value == "" {
		return fmt.Errorf("%w: empty %s value", ErrInvalidTarget, t.Type)
	}
	return nil
}

// ParseTarget parses a discriminated target string.
func ParseTarget(s string) (MentionTarget, error) {
	kind, value, ok := strings.Cut(s, ":")
	if !ok {
		return MentionTarget{}, fmt.Errorf("%w: %q has no type prefix", ErrInvalidTarget, s)
	}
	t := MentionTarget{Type: TargetType(kind), Value: value}
	if err := t.Validate(); err != nil {
		return MentionTarget{}, err
	}
	return t, nil
}

// Annotation is one rich span of draft text. Start and Length are measured in
// UTF-16 code units.
type Annotation struct {
	Start  int           `json:"start"`
	Length int           `json:"length"`
	Target MentionTarget `json:"target"`
}

// End returns the exclusive end offset of the span.
func (a Annotation) End() int { return a.Start + a.Length }

// Overlaps reports whether the span shares at least one code unit with
// [start, start+length).
func (a Annotation) Overlaps(start, length int) bool {
	return a.Start < start+length && start < a.End()
}

// Contains reports whether offset lies strictly inside the span.
func (a Annotation) Contains(offset int) bool {
	return a.Start < offset && offset < a.End()
}

// Suggestion is a candidate resolution for an in-progress mention token.
type Suggestion struct {
	// Offset is where the triggering token starts.
	Offset int `json:"offset"`
	// ReplaceFrom is the literal token currently in the text, e.g. "@mar".
	ReplaceFrom string `json:"replace_from"`
	// ReplaceWith is the resolved display value, e.g. "Marian Salazar".
	ReplaceWith string        `json:"replace_with"`
	Target      MentionTarget `json:"target"`
}

// SuggestionScope selects which users are offered as mention suggestions.
type SuggestionScope string

const (
	ScopeGlobal  SuggestionScope = "global"
	ScopeChannel SuggestionScope = "channel"
)

// UserScope narrows a user lookup. ChannelID is only used with ScopeChannel.
type UserScope struct {
	Kind      SuggestionScope
	ChannelID string
}
