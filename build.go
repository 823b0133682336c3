package quad

import (
	"reflect"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// Builder builds quadtrees from buffers.
type Builder struct {
	// MaxDepth is the number of subdivision levels allowed below the root.
	MaxDepth int

	// Threshold is the largest spread a region may have and still become a
	// leaf.
	Threshold int

	// Allocator provides nodes. Nil means plain heap allocation.
	Allocator Allocator
}

// Build builds the quadtree of the w×w region of buf whose top-left corner
// is (x, y), using heap-allocated nodes.
func Build(buf Buffer, maxDepth, threshold, x, y, w int) (*Node, error) {
	b := Builder{
		MaxDepth:  maxDepth,
		Threshold: threshold,
	}
	return b.Build(buf, x, y, w)
}

// Build builds the quadtree of the w×w region at (x, y). w must be a power
// of two and the region must lie inside buf.
//
// On error no node stays allocated: whatever was built before the failure
// is released through the builder's allocator.
func (b *Builder) Build(buf Buffer, x, y, w int) (*Node, error) {
	start := time.Now()

	if err := b.validate(buf, x, y, w); err != nil {
		observeBuild(start, err)
		return nil, err
	}

	root, err := b.build(buf, b.MaxDepth, x, y, w)
	observeBuild(start, err)
	return root, err
}

// BuildBuffer builds the quadtree of the whole buffer, which must be square
// with a power-of-two side.
func (b *Builder) BuildBuffer(buf Buffer) (*Node, error) {
	if buf.Width() != buf.Height() {
		err := errors.New("buffer is not square").
			WithType(ErrTypeInvalidWidth).
			WithTag("width", buf.Width()).
			WithTag("height", buf.Height())
		observeBuild(time.Now(), err)
		return nil, err
	}
	return b.Build(buf, 0, 0, buf.Width())
}

// Destroy releases every node of the tree through the builder's allocator.
func (b *Builder) Destroy(n *Node) {
	destroy(b.allocator(), n)
}

func (b *Builder) validate(buf Buffer, x, y, w int) error {
	switch {
	case b.MaxDepth < 0:
		return errors.New("max depth must not be negative").
			WithType(ErrTypeInvalidParam).
			WithTag("max_depth", b.MaxDepth)

	case b.Threshold < 0:
		return errors.New("threshold must not be negative").
			WithType(ErrTypeInvalidParam).
			WithTag("threshold", b.Threshold)

	case !isPowerOfTwo(w):
		return errors.New("region width is not a power of two").
			WithType(ErrTypeInvalidWidth).
			WithTag("width", w)

	case x < 0 || y < 0 || x+w > buf.Width() || y+w > buf.Height():
		return errors.New("region is outside the buffer").
			WithType(ErrTypeOutOfBounds).
			WithTag("x", x).
			WithTag("y", y).
			WithTag("width", w).
			WithTag("buffer_width", buf.Width()).
			WithTag("buffer_height", buf.Height())

	default:
		return nil
	}
}

func (b *Builder) build(buf Buffer, depth, x, y, w int) (*Node, error) {
	split := depth > 0 && w > 1 && Spread(buf, x, y, w) > b.Threshold

	a := b.allocator()
	n, err := a.Alloc()
	if err != nil {
		typ := definedType(err)
		if typ == "" {
			typ = ErrTypeNodeBudget
		}
		return nil, errors.New("allocating quadtree node failed").
			WithType(typ).
			WithTag("x", x).
			WithTag("y", y).
			WithTag("width", w).
			Wrap(err)
	}
	nodesAllocated.Inc()
	n.X, n.Y, n.Width = x, y, w

	if !split {
		n.Gray = Average(buf, x, y, w)
		leavesBuilt.Inc()
		return n, nil
	}

	for i := range n.Children {
		cx, cy := n.childOrigin(i)
		c, err := b.build(buf, depth-1, cx, cy, w/2)
		if err != nil {
			destroy(a, n)
			return nil, err
		}
		n.Children[i] = c
	}
	return n, nil
}

// definedType returns the type attached to err with WithType, or "" when
// errors.Type would only report a Go type name.
func definedType(err error) string {
	typ := errors.Type(err)
	for e := err; e != nil; e = errors.Unwrap(e) {
		if typ == reflect.TypeOf(e).String() {
			return ""
		}
	}
	return typ
}

func (b *Builder) allocator() Allocator {
	if b.Allocator == nil {
		return heapAllocator{}
	}
	return b.Allocator
}
