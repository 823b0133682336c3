// Package quad compresses grayscale images with a region quadtree.
//
// A square region is split into four quadrants until its intensity spread
// (max - min) is within a threshold or the depth budget runs out. Each
// terminal region becomes a leaf holding the region's rounded average, and
// rendering the tree paints those averages back into a buffer.
//
// Typical use:
//
//	b := quad.Builder{MaxDepth: 8, Threshold: 12}
//	root, err := b.BuildBuffer(img)
//	if err != nil {
//		return err
//	}
//	defer b.Destroy(root)
//	quad.Render(out, root)
//
// Nothing in this package is safe for concurrent use except Pool and the
// package metrics.
package quad

// Error types reported through errors.Type.
const (
	ErrTypeInvalidWidth = "quad_invalid_width"
	ErrTypeInvalidParam = "quad_invalid_param"
	ErrTypeOutOfBounds  = "quad_out_of_bounds"
	ErrTypeNodeBudget   = "quad_node_budget"
)

func isPowerOfTwo(w int) bool {
	return w > 0 && w&(w-1) == 0
}
