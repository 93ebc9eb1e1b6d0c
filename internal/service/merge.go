package service

import (
	"propsearch/internal/model"
)

// candidateSet is an insertion-ordered map of candidates keyed by property
// id. A spatial row replaces a mention row for the same property, and the
// closer of two spatial rows wins; the first insertion fixes the position.
type candidateSet struct {
	order   []int64
	items   map[int64]*model.RankedProperty
	spatial map[int64]bool
}

func newCandidateSet(capacity int) *candidateSet {
	return &candidateSet{
		order:   make([]int64, 0, capacity),
		items:   make(map[int64]*model.RankedProperty, capacity),
		spatial: make(map[int64]bool, capacity),
	}
}

func (s *candidateSet) addSpatial(p model.RankedProperty) {
	current, ok := s.items[p.ID]
	if !ok {
		s.order = append(s.order, p.ID)
		s.items[p.ID] = &p
		s.spatial[p.ID] = true
		return
	}
	if s.spatial[p.ID] && !closer(p.Distance, current.Distance) {
		return
	}
	reasons := current.MatchedReasons
	*current = p
	current.MatchedReasons = reasons
	s.spatial[p.ID] = true
}

// addMention keeps any existing row for the same property
func (s *candidateSet) addMention(p model.Property, reason string) {
	if _, ok := s.items[p.ID]; ok {
		return
	}
	s.order = append(s.order, p.ID)
	s.items[p.ID] = &model.RankedProperty{Property: p, MatchedReasons: []string{reason}}
}

func (s *candidateSet) isSpatial(id int64) bool {
	return s.spatial[id]
}

func (s *candidateSet) len() int {
	return len(s.order)
}

// list returns the candidates in insertion order
func (s *candidateSet) list() []*model.RankedProperty {
	out := make([]*model.RankedProperty, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}

func closer(a, b *float64) bool {
	if a == nil {
		return false
	}
	return b == nil || *a < *b
}
