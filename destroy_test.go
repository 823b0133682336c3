package quad

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestDestroy(t *testing.T) {
	t.Run("nil tree", func(t *testing.T) {
		require.NotPanics(t, func() { Destroy(nil) })
	})

	t.Run("every node released once", func(t *testing.T) {
		a := newCountingAllocator()
		b := Builder{MaxDepth: 8, Threshold: 5, Allocator: a}

		root, err := b.BuildBuffer(makeTestImage(32))
		require.NoError(t, err)
		nodes := Collect(root).Nodes
		require.Len(t, a.allocs, nodes)

		b.Destroy(root)
		a.requireAllReleasedOnce(t)
	})

	t.Run("children before parent", func(t *testing.T) {
		var order []*Node
		root := &Node{Width: 2}
		for i := range root.Children {
			x, y := root.childOrigin(i)
			root.Children[i] = &Node{X: x, Y: y, Width: 1}
		}
		children := root.Children

		destroy(releaseFunc(func(n *Node) { order = append(order, n) }), root)

		require.Len(t, order, 5)
		require.Equal(t, children[:], order[:4])
		require.Same(t, root, order[4])
	})

	t.Run("heap tree is cleared", func(t *testing.T) {
		root, err := Build(makeTestImage(16), 4, 0, 0, 0, 16)
		require.NoError(t, err)
		require.False(t, root.IsLeaf())

		before := testutil.ToFloat64(nodesReleased)
		nodes := Collect(root).Nodes
		Destroy(root)

		require.True(t, root.IsLeaf())
		require.Zero(t, root.Width)
		require.Equal(t, before+float64(nodes), testutil.ToFloat64(nodesReleased))
	})

	t.Run("pool tree needs the builder", func(t *testing.T) {
		p := NewPool(0)
		b := Builder{MaxDepth: 4, Allocator: p}
		root, err := b.BuildBuffer(makeTestImage(8))
		require.NoError(t, err)
		live := p.Live()
		require.Equal(t, Collect(root).Nodes, live)

		Destroy(root)
		require.Equal(t, live, p.Live())
		require.Zero(t, p.Released())
	})

	t.Run("double release through a pool panics", func(t *testing.T) {
		p := NewPool(0)
		b := Builder{MaxDepth: 2, Allocator: p}
		root, err := b.BuildBuffer(makeTestImage(4))
		require.NoError(t, err)

		b.Destroy(root)
		require.Panics(t, func() { b.Destroy(root) })
	})
}

// releaseFunc is an Allocator that only observes releases.
type releaseFunc func(*Node)

func (f releaseFunc) Alloc() (*Node, error) { return new(Node), nil }
func (f releaseFunc) Release(n *Node)       { f(n) }
