package quad

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	t.Run("nil tree", func(t *testing.T) {
		out := NewGray(2, 2)
		out.Fill(9)
		Render(out, nil)
		require.Equal(t, [][]int{{9, 9}, {9, 9}}, out.Rows())
	})

	t.Run("leaf fills its region only", func(t *testing.T) {
		out := NewGray(4, 4)
		Render(out, &Node{X: 2, Y: 0, Width: 2, Gray: 5})
		require.Equal(t, [][]int{
			{0, 0, 5, 5},
			{0, 0, 5, 5},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
		}, out.Rows())
	})

	t.Run("single sample leaf", func(t *testing.T) {
		out := NewGray(2, 2)
		Render(out, &Node{X: 0, Y: 1, Width: 1, Gray: 3})
		require.Equal(t, [][]int{{0, 0}, {3, 0}}, out.Rows())
	})

	t.Run("children in their quadrants", func(t *testing.T) {
		root := &Node{Width: 2}
		for i, v := range []int{1, 2, 3, 4} {
			x, y := root.childOrigin(i)
			root.Children[i] = &Node{X: x, Y: y, Width: 1, Gray: v}
		}

		out := NewGray(2, 2)
		Render(out, root)
		require.Equal(t, [][]int{{1, 2}, {3, 4}}, out.Rows())
	})

	t.Run("round trip approximates the source", func(t *testing.T) {
		g := makeTestImage(32)
		root, err := Build(g, 10, 16, 0, 0, 32)
		require.NoError(t, err)

		out := NewGray(32, 32)
		Render(out, root)
		for y := 0; y < 32; y++ {
			for x := 0; x < 32; x++ {
				d := out.At(x, y) - g.At(x, y)
				if d < 0 {
					d = -d
				}
				require.LessOrEqual(t, d, 16, "sample (%d,%d)", x, y)
			}
		}
	})

	t.Run("destination larger than the tree", func(t *testing.T) {
		out := NewGray(4, 4)
		out.Fill(1)
		Render(out, &Node{X: 1, Y: 1, Width: 2, Gray: 8})
		require.Equal(t, [][]int{
			{1, 1, 1, 1},
			{1, 8, 8, 1},
			{1, 8, 8, 1},
			{1, 1, 1, 1},
		}, out.Rows())
	})
}

func TestRenderOutline(t *testing.T) {
	g := mustRows(t, [][]int{
		{10, 10, 20, 20},
		{10, 10, 20, 20},
		{30, 30, 40, 40},
		{30, 30, 40, 40},
	})
	root, err := Build(g, 4, 0, 0, 0, 4)
	require.NoError(t, err)

	out := NewGray(4, 4)
	Render(out, root)
	RenderOutline(out, root, 0)
	require.Equal(t, [][]int{
		{0, 0, 0, 0},
		{0, 10, 0, 20},
		{0, 0, 0, 0},
		{0, 30, 0, 40},
	}, out.Rows())
}
