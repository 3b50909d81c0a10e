package models

// identifiable is implemented by entity pointers that can be members of an entitySet.
type identifiable interface {
	comparable
	entityID() int64
}

// entitySet holds distinct entities. Two members are the same entity when
// they are the same pointer or share a non-zero ID. The zero value is an
// empty, ready to use set.
type entitySet[T identifiable] struct {
	items []T
}

func (s *entitySet[T]) indexOf(v T) int {
	id := v.entityID()
	for i, item := range s.items {
		if item == v || (id != 0 && item.entityID() == id) {
			return i
		}
	}
	return -1
}

func (s *entitySet[T]) add(v T) bool {
	if s.indexOf(v) >= 0 {
		return false
	}
	s.items = append(s.items, v)
	return true
}

func (s *entitySet[T]) remove(v T) bool {
	i := s.indexOf(v)
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return true
}

func (s *entitySet[T]) contains(v T) bool {
	return s.indexOf(v) >= 0
}

// values returns a copy of the members, so callers cannot mutate the set.
func (s *entitySet[T]) values() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

func (s *entitySet[T]) len() int {
	return len(s.items)
}
