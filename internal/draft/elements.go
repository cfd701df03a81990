package draft

import (
	"encoding/json"
	"fmt"
	"sort"

	"chatdraft/backend/internal/models"
)

// ToElements flattens text and its annotations into plain text and link
// elements in offset order. Annotations that fall outside the text or
// overlap an earlier one are skipped, so the result is always well formed.
func ToElements(text string, annotations []models.Annotation) []models.MessageElement {
	units := encode(text)
	sorted := make([]models.Annotation, len(annotations))
	copy(sorted, annotations)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	elements := make([]models.MessageElement, 0, 2*len(sorted)+1)
	pos := 0
	for _, a := range sorted {
		if a.Length <= 0 || a.Start < pos || a.End() > len(units) {
			continue
		}
		if a.Start > pos {
			elements = append(elements, models.PlainText(decode(units[pos:a.Start])))
		}
		elements = append(elements, models.Link(decode(units[a.Start:a.End()]), a.Target))
		pos = a.End()
	}
	if pos < len(units) {
		elements = append(elements, models.PlainText(decode(units[pos:])))
	}
	return elements
}

// FromElements is the inverse of ToElements: it concatenates element texts
// and records an annotation for every link.
func FromElements(elements []models.MessageElement) (string, []models.Annotation) {
	var (
		units       []uint16
		annotations []models.Annotation
	)
	for _, e := range elements {
		u := encode(e.Text)
		if e.Target != nil && len(u) > 0 {
			annotations = append(annotations, models.Annotation{Start: len(units), Length: len(u), Target: *e.Target})
		}
		units = append(units, u...)
	}
	return decode(units), annotations
}

// EncodeAnnotations serializes annotations for message metadata.
func EncodeAnnotations(annotations []models.Annotation) (string, error) {
	if len(annotations) == 0 {
		return "", nil
	}
	b, err := json.Marshal(annotations)
	if err != nil {
		return "", fmt.Errorf("encode annotations: %w", err)
	}
	return string(b), nil
}

// ParseStoredMessage rebuilds the elements of a received message from its
// text and the annotations saved in its metadata.
func ParseStoredMessage(text, rawAnnotations string) ([]models.MessageElement, error) {
	var annotations []models.Annotation
	if rawAnnotations != "" {
		if err := json.Unmarshal([]byte(rawAnnotations), &annotations); err != nil {
			return nil, fmt.Errorf("decode annotations: %w", err)
		}
	}
	return ToElements(text, annotations), nil
}
