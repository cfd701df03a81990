package draft

import (
	"fmt"
	"sort"

	"chatdraft/backend/internal/models"
)

// AnnotationSet keeps non-overlapping annotations ordered by start offset.
type AnnotationSet struct {
	items []models.Annotation
}

// NewAnnotationSet builds a set from annotations, failing on overlaps.
func NewAnnotationSet(annotations ...models.Annotation) (*AnnotationSet, error) {
	s := &AnnotationSet{}
	for _, a := range annotations {
		if err := s.Insert(a); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *AnnotationSet) Len() int { return len(s.items) }

// All returns a copy of the annotations in start order.
func (s *AnnotationSet) All() []models.Annotation {
	out := make([]models.Annotation, len(s.items))
	copy(out, s.items)
	return out
}

// Insert adds a, failing with ErrOverlapConflict when it overlaps an existing
// annotation.
func (s *AnnotationSet) Insert(a models.Annotation) error {
	i := sort.Search(len(s.items), func(i int) bool { return s.items[i].Start >= a.Start })
	if i > 0 && s.items[i-1].Overlaps(a.Start, a.Length) {
		return fmt.Errorf("%w: %+v and %+v", ErrOverlapConflict, s.items[i-1], a)
	}
	if i < len(s.items) && s.items[i].Overlaps(a.Start, a.Length) {
		return fmt.Errorf("%w: %+v and %+v", ErrOverlapConflict, s.items[i], a)
	}
	s.items = append(s.items, models.Annotation{})
	copy(s.items[i+1:], s.items[i:])
	s.items[i] = a
	return nil
}

// Find returns the annotation starting exactly at offset.
func (s *AnnotationSet) Find(offset int) (models.Annotation, bool) {
	i := sort.Search(len(s.items), func(i int) bool { return s.items[i].Start >= offset })
	if i < len(s.items) && s.items[i].Start == offset {
		return s.items[i], true
	}
	return models.Annotation{}, false
}

// Remove deletes the annotation starting exactly at offset.
func (s *AnnotationSet) Remove(offset int) (models.Annotation, bool) {
	a, ok := s.Find(offset)
	if !ok {
		return a, false
	}
	s.removeWhere(func(x models.Annotation) bool { return x.Start == offset })
	return a, true
}

// Shift adds delta to the start of every annotation at or after fromOffset
// and returns how many moved.
func (s *AnnotationSet) Shift(fromOffset, delta int) int {
	if delta == 0 {
		return 0
	}
	n := 0
	for i := range s.items {
		if s.items[i].Start >= fromOffset {
			s.items[i].Start += delta
			n++
		}
	}
	return n
}

// InvalidateIntersecting removes every annotation sharing at least one code
// unit with [start, start+length) and returns the removed annotations.
func (s *AnnotationSet) InvalidateIntersecting(start, length int) []models.Annotation {
	return s.removeWhere(func(a models.Annotation) bool { return a.Overlaps(start, length) })
}

// InvalidateContaining removes every annotation with offset strictly inside it.
func (s *AnnotationSet) InvalidateContaining(offset int) []models.Annotation {
	return s.removeWhere(func(a models.Annotation) bool { return a.Contains(offset) })
}

// Overlapping reports whether any annotation intersects [start, start+length).
func (s *AnnotationSet) Overlapping(start, length int) bool {
	for _, a := range s.items {
		if a.Overlaps(start, length) {
			return true
		}
	}
	return false
}

func (s *AnnotationSet) removeWhere(match func(models.Annotation) bool) []models.Annotation {
	var removed []models.Annotation
	kept := s.items[:0]
	for _, a := range s.items {
		if match(a) {
			removed = append(removed, a)
			continue
		}
		kept = append(kept, a)
	}
	s.items = kept
	return removed
}
