// Package algorithms builds and varies typed trees: full, grow and ramped
// half-and-half initialization, subtree and point mutation, subtree
// crossover and Pareto tournament selection. Randomness is always injected.
package algorithms

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"
	"k8s.io/utils/lru"

	"github.com/mihai-snyk/typedgp/pkg/typedgp/errdefs"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/framework"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/lang"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/tree"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/types"
)

// Rand is the source of randomness used by every algorithm. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	// IntN returns a uniform value in [0, n). It may panic if n <= 0.
	IntN(n int) int
}

func choose(rng Rand, s *lang.OperatorSet) *lang.Operator {
	return s.At(rng.IntN(s.Len()))
}

func coin(rng Rand) bool {
	return rng.IntN(2) == 0
}

// generator holds the operator pools of one generation run. all is the union
// of basis and terminal, built once and used by grow.
type generator struct {
	basis    *lang.OperatorTable
	terminal *lang.OperatorTable
	all      *lang.OperatorTable
	rng      Rand
}

type poolKey struct {
	basis, terminal *lang.OperatorTable
}

// unions holds the basis+terminal table of recent (basis, terminal) pairs.
var unions = lru.New(64)

func union(basis, terminal *lang.OperatorTable) *lang.OperatorTable {
	k := poolKey{basis: basis, terminal: terminal}
	if v, ok := unions.Get(k); ok {
		return v.(*lang.OperatorTable)
	}
	all := basis.Union(terminal)
	unions.Add(k, all)
	return all
}

func newGenerator(basis, terminal *lang.OperatorTable, rng Rand) (*generator, error) {
	if basis == nil || terminal == nil {
		return nil, fmt.Errorf("basis and terminal operators are required: %w", errdefs.ErrInvalidArgument)
	}
	if rng == nil {
		return nil, fmt.Errorf("a random source is required: %w", errdefs.ErrInvalidArgument)
	}
	for _, o := range terminal.Operators() {
		if !o.IsTerminal() {
			return nil, fmt.Errorf("terminal operators must take no arguments, got %s: %w", o.SignatureString(), errdefs.ErrInvalidArgument)
		}
	}
	return &generator{
		basis:    basis,
		terminal: terminal,
		all:      union(basis, terminal),
		rng:      rng,
	}, nil
}

// pool returns the operators allowed at depth for a tree of maxDepth levels.
func (g *generator) pool(depth, maxDepth int, grow bool) *lang.OperatorTable {
	switch {
	case depth >= maxDepth-1:
		return g.terminal
	case grow:
		return g.all
	default:
		return g.basis
	}
}

func (g *generator) pick(dtype types.Type, depth, maxDepth int, grow bool) (*lang.Operator, error) {
	candidates, err := g.pool(depth, maxDepth, grow).Get(dtype)
	if err != nil {
		return nil, fmt.Errorf("operator set does not satisfy closure for type %s at depth %d: %w", dtype, depth, err)
	}
	return choose(g.rng, candidates), nil
}

// build generates a tree level by level, breadth first.
func (g *generator) build(maxDepth int, dtype types.Type, grow bool) (*tree.Tree, error) {
	if maxDepth < 1 {
		return nil, fmt.Errorf("max depth must be at least 1, got %d: %w", maxDepth, errdefs.ErrInvalidArgument)
	}
	if err := types.Validate(dtype); err != nil {
		return nil, err
	}

	op, err := g.pick(dtype, 0, maxDepth, grow)
	if err != nil {
		return nil, err
	}
	root := tree.MustNode(op)

	level := []*tree.Node{root}
	for depth := 0; len(level) > 0; depth++ {
		var next []*tree.Node
		for _, parent := range level {
			for pos, slot := range parent.Operator().Signature() {
				op, err := g.pick(slot, depth+1, maxDepth, grow)
				if err != nil {
					return nil, err
				}
				child := tree.MustNode(op)
				if err := parent.AddChild(child, pos); err != nil {
					return nil, err
				}
				if !child.IsTerminal() {
					next = append(next, child)
				}
			}
		}
		level = next
	}
	return tree.New(root)
}

// FullTree generates a tree of maxDepth levels whose leaves all sit at depth
// maxDepth-1. Interior nodes are drawn from basis and leaves from terminal.
func FullTree(maxDepth int, basis, terminal *lang.OperatorTable, dtype types.Type, rng Rand) (*tree.Tree, error) {
	g, err := newGenerator(basis, terminal, rng)
	if err != nil {
		return nil, err
	}
	return g.build(maxDepth, dtype, false)
}

// GrowTree generates a tree of at most maxDepth levels. Above the last level
// every node is drawn from basis and terminal together, so branches may end
// early.
func GrowTree(maxDepth int, basis, terminal *lang.OperatorTable, dtype types.Type, rng Rand) (*tree.Tree, error) {
	g, err := newGenerator(basis, terminal, rng)
	if err != nil {
		return nil, err
	}
	return g.build(maxDepth, dtype, true)
}

// Full is FullTree wrapped into a solution scored by objectives.
func Full(maxDepth int, basis, terminal *lang.OperatorTable, dtype types.Type, objectives []framework.Objective, rng Rand) (*framework.Solution, error) {
	t, err := FullTree(maxDepth, basis, terminal, dtype, rng)
	if err != nil {
		return nil, err
	}
	return framework.NewSolution(t, objectives)
}

// Grow is GrowTree wrapped into a solution scored by objectives.
func Grow(maxDepth int, basis, terminal *lang.OperatorTable, dtype types.Type, objectives []framework.Objective, rng Rand) (*framework.Solution, error) {
	t, err := GrowTree(maxDepth, basis, terminal, dtype, rng)
	if err != nil {
		return nil, err
	}
	return framework.NewSolution(t, objectives)
}

// RampedHalfAndHalf spreads populationSize individuals over the depths
// 1..maxDepth and builds each one with full or grow on a fair coin flip.
// Structurally equal trees are kept once, so the population may be smaller
// than requested.
func RampedHalfAndHalf(ctx context.Context, maxDepth, populationSize int, basis, terminal *lang.OperatorTable, dtype types.Type, objectives []framework.Objective, rng Rand) (*framework.Population, error) {
	logger := klog.FromContext(ctx)
	if maxDepth < 1 {
		return nil, fmt.Errorf("max depth must be at least 1, got %d: %w", maxDepth, errdefs.ErrInvalidArgument)
	}
	if populationSize < 1 {
		return nil, fmt.Errorf("population size must be at least 1, got %d: %w", populationSize, errdefs.ErrInvalidArgument)
	}
	g, err := newGenerator(basis, terminal, rng)
	if err != nil {
		return nil, err
	}

	counts := randomDepthCounts(maxDepth, populationSize, rng)
	population := framework.NewPopulation(populationSize)
	for depth := 1; depth <= maxDepth; depth++ {
		for i := 0; i < counts[depth]; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			t, err := g.build(depth, dtype, !coin(rng))
			if err != nil {
				return nil, err
			}
			s, err := framework.NewSolution(t, objectives)
			if err != nil {
				return nil, err
			}
			population.Add(s)
		}
		logger.V(5).Info(fmt.Sprintf("generated %d individuals of depth %d", counts[depth], depth))
	}

	logger.V(2).Info("Generated population", "requested", populationSize, "unique", population.Len(), "maxDepth", maxDepth)
	return population, nil
}

// randomDepthCounts draws a uniform depth in [1, maxDepth] total times and
// returns the histogram. Every depth is present as a key, possibly with a
// zero count.
func randomDepthCounts(maxDepth, total int, rng Rand) map[int]int {
	counts := make(map[int]int, maxDepth)
	for depth := 1; depth <= maxDepth; depth++ {
		counts[depth] = 0
	}
	for i := 0; i < total; i++ {
		counts[1+rng.IntN(maxDepth)]++
	}
	return counts
}
