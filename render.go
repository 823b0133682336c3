package quad

// Render paints every leaf of the tree into dst. A nil tree leaves dst
// untouched. Regions are not checked against dst's size.
func Render(dst Buffer, n *Node) {
	if n == nil {
		return
	}

	if !n.IsLeaf() {
		for _, c := range n.Children {
			Render(dst, c)
		}
		return
	}

	if n.Width == 1 {
		dst.Set(n.X, n.Y, n.Gray)
		return
	}
	for y := n.Y; y < n.Y+n.Width; y++ {
		for x := n.X; x < n.X+n.Width; x++ {
			dst.Set(x, y, n.Gray)
		}
	}
}

// RenderOutline draws the top and left edge of every leaf with v, which
// makes the decomposition visible on top of a Render result.
func RenderOutline(dst Buffer, n *Node, v int) {
	Walk(n, func(n *Node, _ int) bool {
		if !n.IsLeaf() {
			return true
		}
		for i := 0; i < n.Width; i++ {
			dst.Set(n.X+i, n.Y, v)
			dst.Set(n.X, n.Y+i, v)
		}
		return false
	})
}
