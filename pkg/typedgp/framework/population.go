package framework

import (
	"context"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// Population is an insertion-ordered set of solutions, deduplicated by tree
// equality. It is not safe for concurrent mutation.
type Population struct {
	members []*Solution
	byHash  map[uint64][]int
}

func NewPopulation(capacity int) *Population {
	return &Population{
		members: make([]*Solution, 0, capacity),
		byHash:  make(map[uint64][]int, capacity),
	}
}

// Add inserts s unless an equal solution is already present, and reports
// whether it was inserted.
func (p *Population) Add(s *Solution) bool {
	if s == nil || p.Contains(s) {
		return false
	}
	h := s.Hash()
	p.byHash[h] = append(p.byHash[h], len(p.members))
	p.members = append(p.members, s)
	return true
}

func (p *Population) Contains(s *Solution) bool {
	if s == nil {
		return false
	}
	for _, i := range p.byHash[s.Hash()] {
		if p.members[i].Equal(s) {
			return true
		}
	}
	return false
}

func (p *Population) Len() int {
	return len(p.members)
}

// Solutions returns the members in insertion order.
func (p *Population) Solutions() []*Solution {
	return append([]*Solution(nil), p.members...)
}

// Evaluate evaluates every member with at most concurrency solutions in
// flight, and returns their fitness in insertion order. Values below one mean
// no limit.
func (p *Population) Evaluate(ctx context.Context, concurrency int) ([]ObjectiveSpacePoint, error) {
	logger := klog.FromContext(ctx)
	if concurrency < 1 {
		concurrency = -1
	}

	points := make([]ObjectiveSpacePoint, len(p.members))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, s := range p.members {
		g.Go(func() error {
			point, err := s.Evaluate(gctx)
			if err != nil {
				return err
			}
			points[i] = point
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.V(2).Info("Evaluated population", "size", len(points))
	return points, nil
}

// Fronts evaluates the population and ranks it into Pareto fronts.
func (p *Population) Fronts(ctx context.Context, concurrency int) ([][]*Solution, error) {
	points, err := p.Evaluate(ctx, concurrency)
	if err != nil {
		return nil, err
	}
	var fronts [][]*Solution
	for _, front := range NonDominatedSort(points) {
		solutions := make([]*Solution, len(front))
		for i, idx := range front {
			solutions[i] = p.members[idx]
		}
		fronts = append(fronts, solutions)
	}
	return fronts, nil
}
