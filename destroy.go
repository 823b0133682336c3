package quad

// Destroy releases every node of a heap-built tree, children before their
// parent. Destroying nil is a no-op. The tree must not be used afterwards.
//
// Trees built by a Builder with its own Allocator must be released with
// Builder.Destroy. Destroy never returns nodes to that allocator, so a Pool
// keeps counting them as live.
func Destroy(n *Node) {
	destroy(heapAllocator{}, n)
}

// destroy also accepts a partially built node, whose unset child slots are
// skipped.
func destroy(a Allocator, n *Node) {
	if n == nil {
		return
	}
	for _, c := range n.Children {
		destroy(a, c)
	}
	a.Release(n)
	nodesReleased.Inc()
}
