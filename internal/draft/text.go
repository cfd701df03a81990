package draft

import "unicode/utf16"

// TextBuffer holds the draft text as UTF-16 code units so offsets match the
// clients that edit it.
type TextBuffer struct {
	units []uint16
}

// NewTextBuffer creates a buffer holding s.
func NewTextBuffer(s string) *TextBuffer {
	return &TextBuffer{units: encode(s)}
}

// Len returns the length in code units.
func (b *TextBuffer) Len() int { return len(b.units) }

func (b *TextBuffer) String() string { return decode(b.units) }

// Slice returns the text in [start, end).
func (b *TextBuffer) Slice(start, end int) (string, error) {
	if start < 0 || end < start || end > len(b.units) {
		return "", rangeError("slice [%d, %d) of text with length %d", start, end, len(b.units))
	}
	return decode(b.units[start:end]), nil
}

// CheckRange validates [start, start+length) against the current text.
func (b *TextBuffer) CheckRange(start, length int) error {
	if start < 0 || length < 0 || start+length > len(b.units) {
		return rangeError("range [%d, %d) of text with length %d", start, start+length, len(b.units))
	}
	return nil
}

// Replace swaps [start, start+length) for newText and returns the length delta.
func (b *TextBuffer) Replace(start, length int, newText string) (int, error) {
	if err := b.CheckRange(start, length); err != nil {
		return 0, err
	}
	ins := encode(newText)
	out := make([]uint16, 0, len(b.units)-length+len(ins))
	out = append(out, b.units[:start]...)
	out = append(out, ins...)
	out = append(out, b.units[start+length:]...)
	b.units = out
	return len(ins) - length, nil
}

// Edit is a single replace operation: Length units at Start become Text.
type Edit struct {
	Start  int
	Length int
	Text   string
}

// IsNoop reports whether applying the edit changes nothing.
func (e Edit) IsNoop() bool { return e.Length == 0 && e.Text == "" }

// Diff computes the smallest single edit turning the buffer into newText by
// stripping the common prefix and suffix. Boundaries never split a surrogate
// pair.
func (b *TextBuffer) Diff(newText string) Edit {
	old, next := b.units, encode(newText)
	limit := min(len(old), len(next))

	prefix := 0
	for prefix < limit && old[prefix] == next[prefix] {
		prefix++
	}
	if prefix > 0 && prefix < limit && isHighSurrogate(old[prefix-1]) {
		prefix--
	}

	suffix := 0
	for suffix < limit-prefix && old[len(old)-1-suffix] == next[len(next)-1-suffix] {
		suffix++
	}
	if suffix > 0 && isLowSurrogate(next[len(next)-suffix]) && len(next)-suffix > prefix {
		suffix--
	}

	return Edit{
		Start:  prefix,
		Length: len(old) - prefix - suffix,
		Text:   decode(next[prefix : len(next)-suffix]),
	}
}

// Length returns the UTF-16 length of s.
func Length(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

func encode(s string) []uint16 { return utf16.Encode([]rune(s)) }
func decode(u []uint16) string { return string(utf16.Decode(u)) }

func isHighSurrogate(u uint16) bool { return u >= 0xD800 && u <= 0xDBFF }
func isLowSurrogate(u uint16) bool  { return u >= 0xDC00 && u <= 0xDFFF }
