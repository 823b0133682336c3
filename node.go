package quad

// Child slot indexes. Children always come in this order.
const (
	NW = iota // (x, y)
	NE        // (x+w/2, y)
	SW        // (x, y+w/2)
	SE        // (x+w/2, y+w/2)
)

// Node is one square region of the image.
//
// A node is a leaf iff all four Children are nil, and internal iff all
// four are set. Gray is only meaningful on leaves.
type Node struct {
	X, Y     int
	Width    int
	Gray     int
	Children [4]*Node
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool {
	return n.Children[NW] == nil &&
		n.Children[NE] == nil &&
		n.Children[SW] == nil &&
		n.Children[SE] == nil
}

// childOrigin returns the top-left corner of child slot i.
func (n *Node) childOrigin(i int) (int, int) {
	half := n.Width / 2
	switch i {
	case NE:
		return n.X + half, n.Y
	case SW:
		return n.X, n.Y + half
	case SE:
		return n.X + half, n.Y + half
	default:
		return n.X, n.Y
	}
}

// Walk visits n and its descendants depth-first, parents before children.
// depth is 0 for n. Returning false from fn skips the node's children.
func Walk(n *Node, fn func(n *Node, depth int) bool) {
	walk(n, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int) bool) {
	if n == nil {
		return
	}
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		walk(c, depth+1, fn)
	}
}

// Stats summarises the shape of a tree.
type Stats struct {
	Nodes    int     `json:"nodes"`
	Leaves   int     `json:"leaves"`
	Internal int     `json:"internal"`
	Depth    int     `json:"depth"`
	Pixels   int     `json:"pixels"`
	Ratio    float64 `json:"ratio"`
}

// Collect computes Stats for the tree rooted at n. Ratio is pixels per
// leaf.
func Collect(n *Node) Stats {
	var s Stats
	Walk(n, func(n *Node, depth int) bool {
		s.Nodes++
		if depth > s.Depth {
			s.Depth = depth
		}
		if n.IsLeaf() {
			s.Leaves++
			s.Pixels += n.Width * n.Width
		} else {
			s.Internal++
		}
		return true
	})
	if s.Leaves > 0 {
		s.Ratio = float64(s.Pixels) / float64(s.Leaves)
	}
	return s
}
