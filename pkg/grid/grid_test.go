package grid

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGridSize(t *testing.T) {
	_, err := New[int](MaxSide+1, 10)
	require.True(t, errors.Is(err, ErrGridTooLarge))
	_, err = New[int](10, 0)
	require.True(t, errors.Is(err, ErrGridEmpty))

	g, err := New[int](MaxSide, MaxSide)
	require.NoError(t, err)
	require.Equal(t, MaxSide*MaxSide, len(g.Cells))
}

func TestGridAccess(t *testing.T) {
	g := MustNew[int](4, 3)
	g.Set(2, 3, 7)
	require.Equal(t, 7, g.At(2, 3))
	require.Equal(t, 7, g.Cells[g.Index(2, 3)])

	// Out of range access is harmless
	g.Set(3, 0, 9)
	g.Set(0, -1, 9)
	require.Equal(t, 0, g.At(3, 0))
	require.Nil(t, g.Ptr(-1, 0))
	require.Equal(t, 1, g.Count(func(v int) bool { return v != 0 }))

	c := g.Clone()
	g.Reset()
	require.Equal(t, 7, c.At(2, 3))
	require.Equal(t, 0, g.At(2, 3))
	g.CopyFrom(c)
	require.Equal(t, 7, g.At(2, 3))

	require.True(t, g.IsBorder(0, 1))
	require.True(t, g.IsBorder(1, 3))
	require.False(t, g.IsBorder(1, 1))
}

func TestRect(t *testing.T) {
	a := PointRect(2, 3)
	require.Equal(t, 1, a.Area())
	a = a.Expand(4, 1)
	require.Equal(t, Rect{2, 1, 4, 3}, a)
	require.Equal(t, 9, a.Area())

	b := Rect{4, 3, 6, 6}
	require.True(t, a.Intersects(b))
	require.Equal(t, Rect{4, 3, 4, 3}, a.Intersection(b))
	require.Equal(t, Rect{2, 1, 6, 6}, a.Union(b))
	require.False(t, a.Intersects(b.Offset(1, 0)))
	require.Equal(t, 0, a.Intersection(b.Offset(1, 0)).Area())

	require.Equal(t, Rect{8, 4, 19, 15}, Rect{2, 1, 4, 3}.Scale(4, 4))
}

func TestVec(t *testing.T) {
	require.InDelta(t, 5, Vec{3, 4}.Len(), 1e-6)
	require.InDelta(t, 1, VecF{3, 4}.Normalized().Len(), 1e-6)
	require.Equal(t, VecF{}, VecF{}.Normalized())
	require.Equal(t, Vec{2, -3}, VecF{1.6, -2.6}.Round())
}
