package algorithms

import (
	"context"
	"fmt"

	"github.com/mihai-snyk/typedgp/pkg/typedgp/errdefs"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/framework"
)

// TournamentSelect returns whichever of a and b Pareto-dominates the other,
// or a fair random pick between them when neither does. Both are evaluated
// if they were not already.
func TournamentSelect(ctx context.Context, a, b *framework.Solution, rng Rand) (*framework.Solution, error) {
	if a == nil || b == nil || rng == nil {
		return nil, fmt.Errorf("two contestants and a random source are required: %w", errdefs.ErrInvalidArgument)
	}
	if ok, err := a.Dominates(ctx, b); err != nil {
		return nil, err
	} else if ok {
		return a, nil
	}
	if ok, err := b.Dominates(ctx, a); err != nil {
		return nil, err
	} else if ok {
		return b, nil
	}
	if coin(rng) {
		return a, nil
	}
	return b, nil
}

// BinaryTournament draws two contestants uniformly, with replacement, from
// population and returns the TournamentSelect winner.
func BinaryTournament(ctx context.Context, population []*framework.Solution, rng Rand) (*framework.Solution, error) {
	if len(population) == 0 {
		return nil, fmt.Errorf("cannot select from an empty population: %w", errdefs.ErrInvalidArgument)
	}
	if rng == nil {
		return nil, fmt.Errorf("a random source is required: %w", errdefs.ErrInvalidArgument)
	}
	a := population[rng.IntN(len(population))]
	b := population[rng.IntN(len(population))]
	return TournamentSelect(ctx, a, b, rng)
}
