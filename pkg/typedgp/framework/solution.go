package framework

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/mihai-snyk/typedgp/pkg/typedgp/errdefs"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/tree"
)

// Solution is a candidate tree together with the objectives it is scored by.
// Its fitness is computed once and then cached; a Solution is safe for
// concurrent use.
type Solution struct {
	tree       *tree.Tree
	objectives []Objective

	mu      sync.Mutex
	fitness ObjectiveSpacePoint
}

func NewSolution(t *tree.Tree, objectives []Objective) (*Solution, error) {
	if t == nil {
		return nil, fmt.Errorf("solution needs a tree: %w", errdefs.ErrInvalidArgument)
	}
	for i, o := range objectives {
		if o.Func == nil {
			return nil, fmt.Errorf("objective %d (%s) has no function: %w", i, o.Name, errdefs.ErrInvalidArgument)
		}
	}
	return &Solution{
		tree:       t,
		objectives: append([]Objective(nil), objectives...),
	}, nil
}

func (s *Solution) Tree() *tree.Tree { return s.tree }

func (s *Solution) Objectives() []Objective {
	return append([]Objective(nil), s.objectives...)
}

// WithTree returns a new, unevaluated solution for t scored by the same
// objectives.
func (s *Solution) WithTree(t *tree.Tree) *Solution {
	return &Solution{tree: t, objectives: s.objectives}
}

// EvaluateOption configures Evaluate.
type EvaluateOption func(*evaluateOptions)

type evaluateOptions struct {
	concurrency int
}

// WithConcurrency bounds the number of objectives evaluated at once. Values
// below one mean no limit.
func WithConcurrency(n int) EvaluateOption {
	return func(o *evaluateOptions) {
		o.concurrency = n
	}
}

// Evaluate returns the weighted objective values of the solution, computing
// them on the first successful call. A failed evaluation is not cached.
func (s *Solution) Evaluate(ctx context.Context, opts ...EvaluateOption) (ObjectiveSpacePoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fitness != nil {
		return append(ObjectiveSpacePoint(nil), s.fitness...), nil
	}

	o := evaluateOptions{concurrency: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.concurrency < 1 {
		o.concurrency = -1
	}

	logger := klog.FromContext(ctx)
	fitness := make(ObjectiveSpacePoint, len(s.objectives))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, obj := range s.objectives {
		g.Go(func() error {
			v, err := obj.Func(gctx, s.tree)
			if err != nil {
				return fmt.Errorf("objective %s: %w", obj.Name, err)
			}
			fitness[i] = obj.Weight * v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.V(5).Info("Evaluated solution", "tree", s.tree, "fitness", fitness)

	s.fitness = fitness
	return append(ObjectiveSpacePoint(nil), fitness...), nil
}

// Fitness returns the cached fitness, if the solution was evaluated.
func (s *Solution) Fitness() (ObjectiveSpacePoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fitness == nil {
		return nil, false
	}
	return append(ObjectiveSpacePoint(nil), s.fitness...), true
}

// Dominates evaluates both solutions and reports whether s Pareto-dominates
// other.
func (s *Solution) Dominates(ctx context.Context, other *Solution) (bool, error) {
	a, err := s.Evaluate(ctx)
	if err != nil {
		return false, err
	}
	b, err := other.Evaluate(ctx)
	if err != nil {
		return false, err
	}
	return Dominates(a, b), nil
}

// Equal compares the trees of both solutions.
func (s *Solution) Equal(other *Solution) bool {
	return other != nil && s.tree.Equal(other.tree)
}

func (s *Solution) Hash() uint64 {
	return s.tree.Hash()
}

func (s *Solution) String() string {
	return s.tree.String()
}
