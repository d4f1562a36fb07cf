package source_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcc-lang/rcc/internal/source"
)

func TestStackEnterExit(t *testing.T) {
	s := source.NewStack()

	id, err := s.Enter("a.c", []byte("ab\ncd"))
	require.NoError(t, err)
	assert.Equal(t, 0, id)

	assert.Equal(t, 'a', rune(s.Byte()))
	s.Next()
	assert.Equal(t, 'b', rune(s.Byte()))
	s.Next()
	assert.Equal(t, '\n', rune(s.Byte()))
	s.Next()

	f := s.Current()
	assert.Equal(t, 2, f.Line)
	assert.Equal(t, 1, f.Col)

	require.NoError(t, s.EnterSlice(id, 0, 2))
	assert.Equal(t, 'a', rune(s.Byte()))
	require.NoError(t, s.Exit())

	assert.Equal(t, 'c', rune(s.Byte()))

	require.NoError(t, s.Exit())
	require.Error(t, s.Exit())
}

func TestStackSnapshotPos(t *testing.T) {
	s := source.NewStack()
	_, err := s.Enter("a.c", []byte("  x"))
	require.NoError(t, err)
	s.Next()
	s.Next()
	s.SnapshotPos()
	s.Next()

	pos := s.PrevPos()
	assert.Equal(t, 1, pos.Line)
	assert.Equal(t, 3, pos.Col)
	assert.Equal(t, "a.c:1:3", s.PosString(pos))
}

func TestStackMaxDepth(t *testing.T) {
	s := source.NewStack()
	id, err := s.Enter("root.c", []byte("x"))
	require.NoError(t, err)
	for i := 0; i < source.MaxDepth-1; i++ {
		require.NoError(t, s.EnterSlice(id, 0, 1))
	}
	_, err = s.Enter("too-deep.c", nil)
	assert.Error(t, err)
}
