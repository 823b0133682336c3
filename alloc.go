package quad

import (
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// Allocator hands out nodes to a Builder and takes them back when a tree is
// destroyed or a build is rolled back.
type Allocator interface {
	Alloc() (*Node, error)
	Release(n *Node)
}

// heapAllocator leaves reclamation to the garbage collector. Release only
// clears the node so a destroyed subtree is no longer reachable from it.
type heapAllocator struct{}

func (heapAllocator) Alloc() (*Node, error) {
	return new(Node), nil
}

func (heapAllocator) Release(n *Node) {
	*n = Node{}
}

// Pool is an Allocator that recycles nodes and tracks which ones are live.
//
// A positive Limit caps the number of live nodes; Alloc fails with an
// ErrTypeNodeBudget error once it is reached. Releasing a node the pool
// does not consider live panics, which catches double releases.
//
// Pool is safe for concurrent use.
type Pool struct {
	Limit int

	mu        sync.Mutex
	live      map[*Node]struct{}
	free      []*Node
	allocated int
	released  int
}

// NewPool returns a pool capped at limit live nodes. A limit <= 0 means no
// cap.
func NewPool(limit int) *Pool {
	return &Pool{Limit: limit}
}

func (p *Pool) Alloc() (*Node, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Limit > 0 && len(p.live) >= p.Limit {
		return nil, errors.New("node budget exhausted").
			WithType(ErrTypeNodeBudget).
			WithTag("limit", p.Limit)
	}
	if p.live == nil {
		p.live = make(map[*Node]struct{})
	}

	var n *Node
	if last := len(p.free) - 1; last >= 0 {
		n = p.free[last]
		p.free = p.free[:last]
	} else {
		n = new(Node)
	}

	p.live[n] = struct{}{}
	p.allocated++
	return n, nil
}

func (p *Pool) Release(n *Node) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.live[n]; !ok {
		panic("quad: release of a node that is not live in this pool")
	}
	delete(p.live, n)
	*n = Node{}
	p.free = append(p.free, n)
	p.released++
}

// Live returns the number of nodes handed out and not yet released.
func (p *Pool) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}

// Allocated returns the total number of successful Alloc calls.
func (p *Pool) Allocated() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allocated
}

// Released returns the total number of Release calls.
func (p *Pool) Released() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.released
}
