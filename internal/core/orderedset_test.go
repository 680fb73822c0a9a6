package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderedSet(t *testing.T) {
	s := NewOrderedSet("b", "a", "b")
	assert.Equal(t, 2, s.Len())

	assert.True(t, s.Add("c"))
	assert.False(t, s.Add("a"))
	assert.True(t, s.Contains("a"))
	assert.False(t, s.Contains("z"))
	assert.Equal(t, []string{"b", "a", "c"}, s.Values())

	vals := s.Values()
	vals[0] = "mutated"
	assert.Equal(t, "b", s.Values()[0], "Values must return a copy")
}

func TestOrderedSet_EmptyStringIsAValue(t *testing.T) {
	s := NewOrderedSet()
	assert.True(t, s.Add(""))
	assert.False(t, s.Add(""))
	assert.Equal(t, []string{""}, s.Values())
}
