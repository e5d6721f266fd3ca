package algorithms

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/mihai-snyk/typedgp/pkg/typedgp/errdefs"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/framework"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/lang"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/tree"
)

// MutateSubtree replaces a random subtree of s with a freshly generated one.
// The site is chosen by drawing a uniform depth, then a uniform node at that
// depth. The new subtree must be resolvable to the type required at the site,
// and is built with full or grow (fair coin) to a uniform depth that keeps
// the result within maxDepth levels where possible.
func MutateSubtree(ctx context.Context, s *framework.Solution, maxDepth int, basis, terminal *lang.OperatorTable, rng Rand) (*framework.Solution, error) {
	logger := klog.FromContext(ctx)
	if s == nil {
		return nil, fmt.Errorf("nothing to mutate: %w", errdefs.ErrInvalidArgument)
	}
	g, err := newGenerator(basis, terminal, rng)
	if err != nil {
		return nil, err
	}

	t := s.Tree()
	dims := t.Dimensions()
	depth := rng.IntN(len(dims))
	target, err := t.AtDepth(depth, rng.IntN(dims[depth]))
	if err != nil {
		return nil, err
	}
	required, err := tree.RequiredType(target)
	if err != nil {
		return nil, err
	}

	budget := maxDepth - depth
	if budget < 1 {
		budget = 1
	}
	sub, err := g.build(1+rng.IntN(budget), required, !coin(rng))
	if err != nil {
		return nil, err
	}
	mutated, err := t.Replace(target, sub.Root())
	if err != nil {
		return nil, err
	}
	logger.V(5).Info("Mutated subtree", "depth", depth, "old", target, "new", sub)
	return s.WithTree(mutated), nil
}

// MutateInteriorNode replaces the operator of a random interior node with a
// different basis operator of the same arity that fits the node's position
// and accepts its children. Only nodes with at least one such alternative are
// considered; when there are none, an equal copy of s is returned.
func MutateInteriorNode(ctx context.Context, s *framework.Solution, basis *lang.OperatorTable, rng Rand) (*framework.Solution, error) {
	return mutatePoint(ctx, s, basis, rng, false)
}

// MutateLeafNode replaces the operator of a random leaf with a different
// terminal operator that fits the leaf's position. When no leaf has an
// alternative, an equal copy of s is returned.
func MutateLeafNode(ctx context.Context, s *framework.Solution, terminal *lang.OperatorTable, rng Rand) (*framework.Solution, error) {
	return mutatePoint(ctx, s, terminal, rng, true)
}

type site struct {
	node         *tree.Node
	alternatives []*lang.Operator
}

func mutatePoint(ctx context.Context, s *framework.Solution, operators *lang.OperatorTable, rng Rand, leaves bool) (*framework.Solution, error) {
	logger := klog.FromContext(ctx)
	if s == nil || operators == nil || rng == nil {
		return nil, fmt.Errorf("solution, operators and random source are required: %w", errdefs.ErrInvalidArgument)
	}

	t := s.Tree()
	var sites []site
	for n := range t.PreOrder() {
		if n.IsTerminal() != leaves {
			continue
		}
		alternatives, err := alternativesFor(n, operators)
		if err != nil {
			return nil, err
		}
		if len(alternatives) > 0 {
			sites = append(sites, site{node: n, alternatives: alternatives})
		}
	}
	if len(sites) == 0 {
		logger.V(5).Info("No eligible mutation site", "tree", t, "leaves", leaves)
		return s.WithTree(t.Clone()), nil
	}

	chosen := sites[rng.IntN(len(sites))]
	op := chosen.alternatives[rng.IntN(len(chosen.alternatives))]
	mutated, err := t.Substitute(chosen.node, op)
	if err != nil {
		return nil, err
	}
	logger.V(5).Info("Mutated node", "old", chosen.node, "new", op, "depth", chosen.node.Depth())
	return s.WithTree(mutated), nil
}

// alternativesFor lists the operators that could take n's place without
// touching its children.
func alternativesFor(n *tree.Node, operators *lang.OperatorTable) ([]*lang.Operator, error) {
	required, err := tree.RequiredType(n)
	if err != nil {
		return nil, err
	}
	candidates, err := operators.Get(required)
	if errdefs.IsKeyNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	children := n.Children()
	var out []*lang.Operator
	for _, o := range candidates.Slice() {
		if o.Equal(n.Operator()) || o.Arity() != n.Arity() {
			continue
		}
		fits := true
		for i, c := range children {
			slot, _ := o.Slot(i)
			if ok, err := slot.Contains(c.Dtype()); err != nil {
				return nil, err
			} else if !ok {
				fits = false
				break
			}
		}
		if fits {
			out = append(out, o)
		}
	}
	return out, nil
}

// CrossoverSubtree swaps a random pair of subtrees between a and b. A pair
// qualifies when each subtree is resolvable to the type required at the
// other's position. When no pair qualifies, equal copies of both parents are
// returned.
func CrossoverSubtree(ctx context.Context, a, b *framework.Solution, rng Rand) (*framework.Solution, *framework.Solution, error) {
	logger := klog.FromContext(ctx)
	if a == nil || b == nil || rng == nil {
		return nil, nil, fmt.Errorf("two parents and a random source are required: %w", errdefs.ErrInvalidArgument)
	}

	type pair struct{ x, y *tree.Node }
	var pairs []pair
	for x := range a.Tree().PreOrder() {
		rx, err := tree.RequiredType(x)
		if err != nil {
			return nil, nil, err
		}
		for y := range b.Tree().PreOrder() {
			ry, err := tree.RequiredType(y)
			if err != nil {
				return nil, nil, err
			}
			okX, err := rx.Contains(y.Dtype())
			if err != nil {
				return nil, nil, err
			}
			okY, err := ry.Contains(x.Dtype())
			if err != nil {
				return nil, nil, err
			}
			if okX && okY {
				pairs = append(pairs, pair{x, y})
			}
		}
	}
	if len(pairs) == 0 {
		logger.V(5).Info("No compatible crossover points", "a", a, "b", b)
		return a.WithTree(a.Tree().Clone()), b.WithTree(b.Tree().Clone()), nil
	}

	p := pairs[rng.IntN(len(pairs))]
	childA, err := a.Tree().Replace(p.x, p.y)
	if err != nil {
		return nil, nil, err
	}
	childB, err := b.Tree().Replace(p.y, p.x)
	if err != nil {
		return nil, nil, err
	}
	logger.V(5).Info("Crossed over", "a", p.x, "b", p.y)
	return a.WithTree(childA), b.WithTree(childB), nil
}
