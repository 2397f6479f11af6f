package sets

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSet(t *testing.T) {
	s := New("b", "a")
	s.Add("c")
	require.True(t, s.Has("a"))
	require.False(t, s.Has("z"))

	c := s.Clone()
	s.Delete("a")
	require.False(t, s.Has("a"))
	require.True(t, c.Has("a"), "clone must be independent")

	require.Equal(t, []string{"a", "b", "c"}, Sorted(c))
	require.Empty(t, Sorted(New[string]()))
}
