package tree

import (
	"encoding/binary"
	"fmt"
	"iter"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/mihai-snyk/typedgp/pkg/typedgp/errdefs"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/lang"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/types"
)

// Tree wraps a fully built root node. Dimensions and hash are computed on
// first use and never change afterwards.
type Tree struct {
	root *Node

	dimsOnce sync.Once
	dims     []int

	hashOnce sync.Once
	hash     uint64
}

// New freezes the node graph under root and wraps it. root must be detached
// and every argument slot below it must be filled.
func New(root *Node) (*Tree, error) {
	if root == nil {
		return nil, fmt.Errorf("tree needs a root: %w", errdefs.ErrInvalidArgument)
	}
	if root.parent != nil {
		return nil, fmt.Errorf("root %s is attached to %s: %w", root.operator, root.parent.operator, errdefs.ErrPreconditionViolation)
	}

	stack := []*Node{root}
	var seen []*Node
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !n.Filled() {
			return nil, fmt.Errorf("node %s at depth %d has empty argument slots: %w", n.operator, n.depth, errdefs.ErrPreconditionViolation)
		}
		seen = append(seen, n)
		stack = append(stack, n.children...)
	}
	for _, n := range seen {
		n.frozen = true
	}
	return &Tree{root: root}, nil
}

// MustNew is like New but panics on error.
func MustNew(root *Node) *Tree {
	t, err := New(root)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Tree) Root() *Node { return t.root }
func (t *Tree) Dtype() types.Type { return t.root.Dtype() }

// All iterates the tree in post-order, the default order.
func (t *Tree) All() iter.Seq[*Node] {
	return t.PostOrder()
}

// PostOrder yields every child subtree in position order, then the node.
func (t *Tree) PostOrder() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		type frame struct {
			node *Node
			next int
		}
		stack := []frame{{node: t.root}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next < len(top.node.children) {
				child := top.node.children[top.next]
				top.next++
				stack = append(stack, frame{node: child})
				continue
			}
			stack = stack[:len(stack)-1]
			if !yield(top.node) {
				return
			}
		}
	}
}

// PreOrder yields the node, then every child subtree in position order.
func (t *Tree) PreOrder() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		stack := []*Node{t.root}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(n) {
				return
			}
			for i := len(n.children) - 1; i >= 0; i-- {
				stack = append(stack, n.children[i])
			}
		}
	}
}

// BreadthFirst yields the nodes level by level, in position order within a
// level.
func (t *Tree) BreadthFirst() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		queue := []*Node{t.root}
		for len(queue) > 0 {
			n := queue[0]
			queue = queue[1:]
			if !yield(n) {
				return
			}
			queue = append(queue, n.children...)
		}
	}
}

// Dimensions returns the number of nodes at each depth, indexed by depth.
func (t *Tree) Dimensions() []int {
	t.dimsOnce.Do(func() {
		for n := range t.BreadthFirst() {
			for len(t.dims) <= n.depth {
				t.dims = append(t.dims, 0)
			}
			t.dims[n.depth]++
		}
	})
	return append([]int(nil), t.dims...)
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	total := 0
	for _, c := range t.Dimensions() {
		total += c
	}
	return total
}

// Depth returns the number of levels, one more than the deepest node depth.
func (t *Tree) Depth() int {
	t.Dimensions()
	return len(t.dims)
}

// Hash combines the node hashes in post-order.
func (t *Tree) Hash() uint64 {
	t.hashOnce.Do(func() {
		d := xxhash.New()
		var buf [8]byte
		for n := range t.PostOrder() {
			binary.LittleEndian.PutUint64(buf[:], n.Hash())
			d.Write(buf[:])
		}
		t.hash = d.Sum64()
	})
	return t.hash
}

// Equal reports whether both trees have the same length and pairwise equal
// nodes in post-order.
func (t *Tree) Equal(other *Tree) bool {
	if other == nil {
		return false
	}
	if t == other {
		return true
	}
	if t.Len() != other.Len() {
		return false
	}
	next, stop := iter.Pull(other.PostOrder())
	defer stop()
	for n := range t.PostOrder() {
		m, ok := next()
		if !ok || !n.Equal(m) {
			return false
		}
	}
	return true
}

// At returns the i-th node in pre-order.
func (t *Tree) At(i int) (*Node, error) {
	if i >= 0 {
		k := 0
		for n := range t.PreOrder() {
			if k == i {
				return n, nil
			}
			k++
		}
	}
	return nil, fmt.Errorf("tree of %d nodes has no index %d: %w", t.Len(), i, errdefs.ErrIndexOutOfRange)
}

// AtDepth returns the i-th node, in breadth-first order, among the nodes at
// the given depth.
func (t *Tree) AtDepth(depth, i int) (*Node, error) {
	dims := t.Dimensions()
	if depth < 0 || depth >= len(dims) || i < 0 || i >= dims[depth] {
		return nil, fmt.Errorf("tree has no node %d at depth %d: %w", i, depth, errdefs.ErrIndexOutOfRange)
	}
	k := 0
	for n := range t.BreadthFirst() {
		if n.depth != depth {
			continue
		}
		if k == i {
			return n, nil
		}
		k++
	}
	return nil, fmt.Errorf("tree has no node %d at depth %d: %w", i, depth, errdefs.ErrIndexOutOfRange)
}

// Owns reports whether n is one of the nodes of t.
func (t *Tree) Owns(n *Node) bool {
	if n == nil {
		return false
	}
	for n.parent != nil {
		n = n.parent
	}
	return n == t.root
}

// Clone returns a structurally equal tree sharing no nodes with t.
func (t *Tree) Clone() *Tree {
	return &Tree{root: copySubtree(t.root, nil, nil)}
}

// Subtree returns a copy of the subtree rooted at n as a standalone tree,
// with depths rebased to zero.
func (t *Tree) Subtree(n *Node) (*Tree, error) {
	if !t.Owns(n) {
		return nil, fmt.Errorf("node %s is not part of the tree: %w", n, errdefs.ErrInvalidArgument)
	}
	return &Tree{root: copySubtree(n, nil, nil)}, nil
}

// Replace returns a new tree in which the subtree rooted at target is
// replaced by a copy of the subtree rooted at replacement. The replacement
// must be resolvable to the type required at target's position, which is the
// root's own dtype when target is the root. t is left untouched.
func (t *Tree) Replace(target, replacement *Node) (*Tree, error) {
	if replacement == nil {
		return nil, fmt.Errorf("replacement is nil: %w", errdefs.ErrInvalidArgument)
	}
	if !t.Owns(target) {
		return nil, fmt.Errorf("node %s is not part of the tree: %w", target, errdefs.ErrInvalidArgument)
	}
	required, err := RequiredType(target)
	if err != nil {
		return nil, err
	}
	ok, err := required.Contains(replacement.Dtype())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s at depth %d requires %s, got %s: %w",
			target, target.depth, required, replacement.Dtype(), errdefs.ErrInvalidArgument)
	}
	for n := range (&Tree{root: replacement}).PreOrder() {
		if !n.Filled() {
			return nil, fmt.Errorf("replacement %s has empty argument slots: %w", replacement, errdefs.ErrPreconditionViolation)
		}
	}

	swap := map[*Node]*Node{target: replacement}
	return &Tree{root: copySubtree(t.root, swap, nil)}, nil
}

// Substitute returns a new tree in which target's operator is replaced by op
// while target's children are kept. op must have the same arity, be
// resolvable to the type required at target's position, and accept every
// existing child at its position. t is left untouched.
func (t *Tree) Substitute(target *Node, op *lang.Operator) (*Tree, error) {
	if op == nil {
		return nil, fmt.Errorf("substitute operator is nil: %w", errdefs.ErrInvalidArgument)
	}
	if !t.Owns(target) {
		return nil, fmt.Errorf("node %s is not part of the tree: %w", target, errdefs.ErrInvalidArgument)
	}
	if op.Arity() != target.Arity() {
		return nil, fmt.Errorf("cannot substitute %s with %s: %w", target.operator.SignatureString(), op.SignatureString(), errdefs.ErrInvalidArgument)
	}
	required, err := RequiredType(target)
	if err != nil {
		return nil, err
	}
	if ok, err := required.Contains(op.Dtype()); err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("%s at depth %d requires %s, got %s: %w",
			target, target.depth, required, op.Dtype(), errdefs.ErrInvalidArgument)
	}
	for i, c := range target.children {
		slot, err := op.Slot(i)
		if err != nil {
			return nil, err
		}
		if ok, err := slot.Contains(c.Dtype()); err != nil {
			return nil, err
		} else if !ok {
			return nil, fmt.Errorf("%s position %d requires %s, got %s: %w", op, i, slot, c.Dtype(), errdefs.ErrInvalidArgument)
		}
	}

	rename := map[*Node]*lang.Operator{target: op}
	return &Tree{root: copySubtree(t.root, nil, rename)}, nil
}

// RequiredType returns the type that any node occupying n's place must be
// resolvable to: the parent's signature type at n's position, or n's own
// dtype for a root.
func RequiredType(n *Node) (types.Type, error) {
	if n.parent == nil {
		return n.Dtype(), nil
	}
	return n.parent.Slot(n.position)
}

// String renders the tree as a nested call expression, e.g. add(x, 1).
func (t *Tree) String() string {
	var stack []string
	for n := range t.PostOrder() {
		if n.IsTerminal() {
			stack = append(stack, n.operator.String())
			continue
		}
		args := stack[len(stack)-n.Arity():]
		s := n.operator.String() + "(" + strings.Join(args, ", ") + ")"
		stack = append(stack[:len(stack)-n.Arity()], s)
	}
	return stack[0]
}

// copySubtree deep-copies the subtree rooted at src into a frozen node graph
// rooted at depth zero. A node found in swap is copied from its replacement
// instead, once. A node found in rename keeps its children but takes the
// mapped operator.
func copySubtree(src *Node, swap map[*Node]*Node, rename map[*Node]*lang.Operator) *Node {
	type frame struct {
		src    *Node
		parent *Node
		pos    int
	}
	var root *Node
	stack := []frame{{src: src}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		s := f.src
		if r, ok := swap[s]; ok {
			delete(swap, s)
			s = r
		}
		op := s.operator
		if r, ok := rename[s]; ok {
			op = r
		}
		n := &Node{
			operator: op,
			children: make([]*Node, len(s.children)),
			frozen:   true,
		}
		if f.parent == nil {
			root = n
		} else {
			n.parent = f.parent
			n.position = f.pos
			n.depth = f.parent.depth + 1
			f.parent.children[f.pos] = n
		}
		for i, c := range s.children {
			if c != nil {
				stack = append(stack, frame{src: c, parent: n, pos: i})
			}
		}
	}
	return root
}
