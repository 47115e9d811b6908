package gossip

import "container/list"

// seenSet is a bounded set of packet ids ordered by insertion, giving O(1)
// membership and O(1) oldest-eviction once it overflows capacity. Unlike
// pkg/dedup's Set it carries no TTL: a seen id only ever leaves by being
// the oldest once the set is full.
type seenSet struct {
	capacity int
	order    *list.List // front = oldest
	index    map[string]*list.Element
}

func newSeenSet(capacity int) *seenSet {
	return &seenSet{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[string]*list.Element, capacity),
	}
}

// insert adds id if not already present, evicting the oldest entry if the
// set is over capacity afterward. Reports whether id was newly inserted.
func (s *seenSet) insert(id string) bool {
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = s.order.PushBack(id)
	if s.order.Len() > s.capacity {
		front := s.order.Front()
		s.order.Remove(front)
		delete(s.index, front.Value.(string))
	}
	return true
}

func (s *seenSet) has(id string) bool {
	_, ok := s.index[id]
	return ok
}

func (s *seenSet) len() int {
	return s.order.Len()
}

// difference returns up to limit ids held in s but absent from peerHas, in
// insertion (oldest-first) order.
func (s *seenSet) difference(peerHas map[string]struct{}, limit int) []string {
	out := make([]string, 0, limit)
	for el := s.order.Front(); el != nil && len(out) < limit; el = el.Next() {
		id := el.Value.(string)
		if _, has := peerHas[id]; !has {
			out = append(out, id)
		}
	}
	return out
}
