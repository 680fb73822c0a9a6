package core

// OrderedSet is an insertion-ordered set of strings. Membership is a map
// lookup; iteration order is the order values were first added.
type OrderedSet struct {
	index map[string]struct{}
	items []string
}

// NewOrderedSet returns an empty set, optionally seeded with values.
func NewOrderedSet(values ...string) *OrderedSet {
	s := &OrderedSet{index: make(map[string]struct{}, len(values))}
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add appends v unless it is already present. Reports whether v was added.
func (s *OrderedSet) Add(v string) bool {
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = struct{}{}
	s.items = append(s.items, v)
	return true
}

// Contains reports whether v has been added.
func (s *OrderedSet) Contains(v string) bool {
	_, ok := s.index[v]
	return ok
}

// Len returns the number of distinct values.
func (s *OrderedSet) Len() int {
	return len(s.items)
}

// Values returns a copy of the values in first-added order.
func (s *OrderedSet) Values() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}
