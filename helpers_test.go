package quad

import (
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
)

var errTestAlloc = errors.New("out of test nodes")

func mustRows(t testing.TB, rows [][]int) *Gray {
	t.Helper()
	g, err := GrayFromRows(rows)
	require.NoError(t, err)
	return g
}

// makeTestImage returns a size×size buffer with a few flat regions and a
// noisy corner.
func makeTestImage(size int) *Gray {
	g := NewGray(size, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			switch {
			case x < size/2 && y < size/2:
				g.Set(x, y, 40)
			case x >= size/2 && y < size/2:
				g.Set(x, y, 200)
			case x < size/2:
				g.Set(x, y, (x*8+y*4)%256)
			default:
				g.Set(x, y, ((x*17)^(y*31))&0xff)
			}
		}
	}
	return g
}

// countingAllocator records how many times every node was allocated and
// released.
type countingAllocator struct {
	allocs   map[*Node]int
	releases map[*Node]int
	failAt   int
	failErr  error
}

func newCountingAllocator() *countingAllocator {
	return &countingAllocator{
		allocs:   make(map[*Node]int),
		releases: make(map[*Node]int),
	}
}

func (a *countingAllocator) Alloc() (*Node, error) {
	if a.failAt > 0 && len(a.allocs) >= a.failAt {
		if a.failErr != nil {
			return nil, a.failErr
		}
		return nil, errTestAlloc
	}
	n := new(Node)
	a.allocs[n]++
	return n, nil
}

func (a *countingAllocator) Release(n *Node) {
	a.releases[n]++
	*n = Node{}
}

func (a *countingAllocator) requireAllReleasedOnce(t *testing.T) {
	t.Helper()
	require.Len(t, a.releases, len(a.allocs))
	for n, c := range a.allocs {
		require.Equal(t, 1, c)
		require.Equal(t, 1, a.releases[n], "node %p", n)
	}
}
