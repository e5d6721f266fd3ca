// Package tree implements typed expression trees. Nodes are built top-down
// with AddChild, which enforces the operator signatures, and are frozen once
// wrapped in a Tree. A Tree is immutable and safe for concurrent readers.
package tree

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/mihai-snyk/typedgp/pkg/typedgp/errdefs"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/lang"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/types"
)

// Node is a single vertex of an expression tree. The child at signature
// position i is stored at children[i]; a nil entry is an unfilled slot.
type Node struct {
	operator *lang.Operator
	children []*Node
	parent   *Node
	position int
	depth    int
	frozen   bool
}

// NewNode returns a detached node with every argument slot empty.
func NewNode(operator *lang.Operator) (*Node, error) {
	if operator == nil {
		return nil, fmt.Errorf("node needs an operator: %w", errdefs.ErrInvalidArgument)
	}
	return &Node{
		operator: operator,
		children: make([]*Node, operator.Arity()),
	}, nil
}

// MustNode is like NewNode but panics on error.
func MustNode(operator *lang.Operator) *Node {
	n, err := NewNode(operator)
	if err != nil {
		panic(err)
	}
	return n
}

// AddChild attaches child at the given argument position. The child's
// dtype must be contained by the operator's signature type at position, the
// slot must be empty and child must not already have a parent.
func (n *Node) AddChild(child *Node, position int) error {
	if child == nil {
		return fmt.Errorf("cannot attach a nil child to %s: %w", n.operator, errdefs.ErrInvalidArgument)
	}
	if n.frozen {
		return fmt.Errorf("node %s belongs to a tree: %w", n.operator, errdefs.ErrPreconditionViolation)
	}
	slot, err := n.operator.Slot(position)
	if err != nil {
		return err
	}
	ok, err := slot.Contains(child.Dtype())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s position %d requires %s, got %s: %w",
			n.operator, position, slot, child.Dtype(), errdefs.ErrInvalidArgument)
	}
	if n.children[position] != nil {
		return fmt.Errorf("%s position %d is already filled: %w", n.operator, position, errdefs.ErrPreconditionViolation)
	}
	if child.frozen {
		return fmt.Errorf("%s belongs to a tree: %w", child.operator, errdefs.ErrPreconditionViolation)
	}
	if child.parent != nil {
		return fmt.Errorf("%s is already attached to %s: %w", child.operator, child.parent.operator, errdefs.ErrPreconditionViolation)
	}
	for a := n; a != nil; a = a.parent {
		if a == child {
			return fmt.Errorf("attaching %s under itself: %w", child.operator, errdefs.ErrPreconditionViolation)
		}
	}

	n.children[position] = child
	child.parent = n
	child.position = position
	child.rebase(n.depth + 1)
	return nil
}

// rebase sets the depth of n to depth and shifts its subtree accordingly.
func (n *Node) rebase(depth int) {
	n.depth = depth
	queue := []*Node{n}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, c := range cur.children {
			if c != nil {
				c.depth = cur.depth + 1
				queue = append(queue, c)
			}
		}
	}
}

func (n *Node) Operator() *lang.Operator { return n.operator }
func (n *Node) Dtype() types.Type { return n.operator.Dtype() }
func (n *Node) Arity() int { return n.operator.Arity() }
func (n *Node) IsTerminal() bool { return n.operator.IsTerminal() }
func (n *Node) Depth() int { return n.depth }
func (n *Node) Parent() *Node { return n.parent }

// Position is the argument position n occupies in its parent, 0 for a root.
func (n *Node) Position() int { return n.position }

// Left returns the child at position 0, or nil.
func (n *Node) Left() *Node {
	if len(n.children) == 0 {
		return nil
	}
	return n.children[0]
}

// Right returns the children at positions >= 1 in reverse position order,
// or nil when the arity is at most one.
func (n *Node) Right() []*Node {
	if len(n.children) <= 1 {
		return nil
	}
	right := make([]*Node, 0, len(n.children)-1)
	for i := len(n.children) - 1; i >= 1; i-- {
		right = append(right, n.children[i])
	}
	return right
}

// Children returns the children in position order. Unfilled slots are nil.
func (n *Node) Children() []*Node {
	return append([]*Node(nil), n.children...)
}

// Child returns the child at position.
func (n *Node) Child(position int) (*Node, error) {
	if position < 0 || position >= len(n.children) {
		return nil, fmt.Errorf("%s has no position %d: %w", n.operator, position, errdefs.ErrIndexOutOfRange)
	}
	return n.children[position], nil
}

// Filled reports whether every argument slot of n holds a child.
func (n *Node) Filled() bool {
	for _, c := range n.children {
		if c == nil {
			return false
		}
	}
	return true
}

// Slot returns the type a child at position must be resolvable to.
func (n *Node) Slot(position int) (types.Type, error) {
	return n.operator.Slot(position)
}

// Equal compares nodes by operator, depth and position. Children are not
// compared.
func (n *Node) Equal(other *Node) bool {
	return other != nil &&
		n.depth == other.depth &&
		n.position == other.position &&
		n.operator.Equal(other.operator)
}

func (n *Node) Hash() uint64 {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:], n.operator.Hash())
	binary.LittleEndian.PutUint64(buf[8:], uint64(n.depth))
	binary.LittleEndian.PutUint64(buf[16:], uint64(n.position))
	return xxhash.Sum64(buf[:])
}

func (n *Node) String() string {
	return n.operator.String()
}
