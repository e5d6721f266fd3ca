package algorithms

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mihai-snyk/typedgp/pkg/typedgp/errdefs"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/framework"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/lang"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/tree"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/types"
)

var (
	intT  = types.New("Int")
	boolT = types.New("Bool")

	opAdd = lang.MustOperator(lang.MustSymbol("add", intT), intT, intT)
	opMul = lang.MustOperator(lang.MustSymbol("mul", intT), intT, intT)
	opNeg = lang.MustOperator(lang.MustSymbol("neg", intT), intT)
	opIf  = lang.MustOperator(lang.MustSymbol("if", intT), boolT, intT, intT)
	opLt  = lang.MustOperator(lang.MustSymbol("lt", boolT), intT, intT)
	opNot = lang.MustOperator(lang.MustSymbol("not", boolT), boolT)
	opX   = lang.MustOperator(lang.MustSymbol("x", intT))
	opOne = lang.MustOperator(lang.MustSymbol("one", intT))
	opT   = lang.MustOperator(lang.MustSymbol("true", boolT))

	basis    = lang.NewOperatorTable(opAdd, opMul, opNeg, opIf, opLt, opNot)
	terminal = lang.NewOperatorTable(opX, opOne, opT)
)

// sequence replays values modulo n, cycling when exhausted.
type sequence struct {
	values []int
	i      int
}

func (s *sequence) IntN(n int) int {
	v := s.values[s.i%len(s.values)] % n
	s.i++
	return v
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func sizeObjective() framework.Objective {
	return framework.Objective{
		Name:   "size",
		Func:   func(_ context.Context, t *tree.Tree) (float64, error) { return float64(t.Len()), nil },
		Weight: -1,
	}
}

func build(t *testing.T, op *lang.Operator, children ...*tree.Node) *tree.Node {
	t.Helper()
	n := tree.MustNode(op)
	for i, c := range children {
		require.NoError(t, n.AddChild(c, i))
	}
	return n
}

func leaf(op *lang.Operator) *tree.Node {
	return tree.MustNode(op)
}

func solution(t *testing.T, root *tree.Node) *framework.Solution {
	t.Helper()
	s, err := framework.NewSolution(tree.MustNew(root), []framework.Objective{sizeObjective()})
	require.NoError(t, err)
	return s
}

func assertWellTyped(t *testing.T, tr *tree.Tree, dtype types.Type) {
	t.Helper()
	ok, err := dtype.Contains(tr.Dtype())
	require.NoError(t, err)
	assert.True(t, ok, "root %s is not a %s", tr.Dtype(), dtype)
	for n := range tr.PreOrder() {
		assert.True(t, n.Filled(), "%s has empty slots", n)
		if n.Parent() == nil {
			continue
		}
		required, err := tree.RequiredType(n)
		require.NoError(t, err)
		ok, err := required.Contains(n.Dtype())
		require.NoError(t, err)
		assert.True(t, ok, "%s at depth %d does not fit %s", n, n.Depth(), required)
	}
}

func leafDepths(tr *tree.Tree) []int {
	var depths []int
	for n := range tr.PostOrder() {
		if n.IsTerminal() {
			depths = append(depths, n.Depth())
		}
	}
	return depths
}

func TestFullTreeOfDepthOneIsATerminal(t *testing.T) {
	b := lang.NewOperatorTable(opAdd)
	term := lang.NewOperatorTable(opX)
	for seed := uint64(0); seed < 20; seed++ {
		tr, err := FullTree(1, b, term, intT, seeded(seed))
		require.NoError(t, err)
		assert.Equal(t, 1, tr.Len())
		assert.True(t, tr.Root().Operator().Equal(opX))
	}
}

func TestFullTreeDepthUniformity(t *testing.T) {
	for maxDepth := 1; maxDepth <= 5; maxDepth++ {
		for seed := uint64(0); seed < 10; seed++ {
			tr, err := FullTree(maxDepth, basis, terminal, intT, seeded(seed))
			require.NoError(t, err)
			assertWellTyped(t, tr, intT)
			assert.Equal(t, maxDepth, tr.Depth())
			for _, d := range leafDepths(tr) {
				assert.Equal(t, maxDepth-1, d)
			}
		}
	}
}

func TestGrowTreeDepthBound(t *testing.T) {
	sawShallow := false
	for maxDepth := 1; maxDepth <= 5; maxDepth++ {
		for seed := uint64(0); seed < 20; seed++ {
			tr, err := GrowTree(maxDepth, basis, terminal, intT, seeded(seed))
			require.NoError(t, err)
			assertWellTyped(t, tr, intT)
			assert.LessOrEqual(t, tr.Depth(), maxDepth)
			for _, d := range leafDepths(tr) {
				assert.LessOrEqual(t, d, maxDepth-1)
				if d < maxDepth-1 {
					sawShallow = true
				}
			}
		}
	}
	assert.True(t, sawShallow, "grow never ended a branch early")
}

func TestGenerationIsReproducible(t *testing.T) {
	a, err := GrowTree(5, basis, terminal, intT, seeded(7))
	require.NoError(t, err)
	b, err := GrowTree(5, basis, terminal, intT, seeded(7))
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.String(), b.String())
}

func TestGenerationErrors(t *testing.T) {
	_, err := FullTree(0, basis, terminal, intT, seeded(1))
	assert.True(t, errdefs.IsInvalidArgument(err))
	_, err = FullTree(2, nil, terminal, intT, seeded(1))
	assert.True(t, errdefs.IsInvalidArgument(err))
	_, err = FullTree(2, basis, terminal, intT, nil)
	assert.True(t, errdefs.IsInvalidArgument(err))
	_, err = FullTree(2, basis, terminal, nil, seeded(1))
	assert.True(t, errdefs.IsInvalidArgument(err))

	// No terminal produces an Int.
	_, err = FullTree(2, basis, lang.NewOperatorTable(opT), intT, seeded(1))
	assert.True(t, errdefs.IsKeyNotFound(err))
	_, err = FullTree(3, lang.NewOperatorTable(opNot), terminal, intT, seeded(1))
	assert.True(t, errdefs.IsKeyNotFound(err))
}

func TestFullAndGrowSolutions(t *testing.T) {
	objectives := []framework.Objective{sizeObjective()}
	s, err := Full(3, basis, terminal, intT, objectives, seeded(3))
	require.NoError(t, err)
	fitness, err := s.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, framework.ObjectiveSpacePoint{-float64(s.Tree().Len())}, fitness)

	s, err = Grow(3, basis, terminal, intT, objectives, seeded(3))
	require.NoError(t, err)
	assert.LessOrEqual(t, s.Tree().Depth(), 3)
}

func TestRandomDepthCounts(t *testing.T) {
	counts := randomDepthCounts(5, 3, seeded(1))
	assert.Len(t, counts, 5)
	total := 0
	for depth := 1; depth <= 5; depth++ {
		c, ok := counts[depth]
		assert.True(t, ok, "depth %d missing", depth)
		total += c
	}
	assert.Equal(t, 3, total)

	counts = randomDepthCounts(3, 300, seeded(2))
	for depth := 1; depth <= 3; depth++ {
		assert.Greater(t, counts[depth], 50)
	}
}

func TestRampedHalfAndHalf(t *testing.T) {
	ctx := context.Background()
	objectives := []framework.Objective{sizeObjective()}

	pop, err := RampedHalfAndHalf(ctx, 4, 50, basis, terminal, intT, objectives, seeded(11))
	require.NoError(t, err)
	assert.LessOrEqual(t, pop.Len(), 50)
	assert.Greater(t, pop.Len(), 1)

	solutions := pop.Solutions()
	for i, s := range solutions {
		assertWellTyped(t, s.Tree(), intT)
		assert.LessOrEqual(t, s.Tree().Depth(), 4)
		for _, other := range solutions[i+1:] {
			assert.False(t, s.Equal(other), "duplicate %s", s)
		}
	}

	again, err := RampedHalfAndHalf(ctx, 4, 50, basis, terminal, intT, objectives, seeded(11))
	require.NoError(t, err)
	require.Equal(t, pop.Len(), again.Len())
	for i, s := range again.Solutions() {
		assert.True(t, s.Equal(solutions[i]))
	}

	_, err = RampedHalfAndHalf(ctx, 0, 50, basis, terminal, intT, objectives, seeded(11))
	assert.True(t, errdefs.IsInvalidArgument(err))
	_, err = RampedHalfAndHalf(ctx, 3, 0, basis, terminal, intT, objectives, seeded(11))
	assert.True(t, errdefs.IsInvalidArgument(err))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = RampedHalfAndHalf(cancelled, 3, 10, basis, terminal, intT, objectives, seeded(11))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMutateSubtree(t *testing.T) {
	ctx := context.Background()
	for seed := uint64(0); seed < 30; seed++ {
		rng := seeded(seed)
		s, err := Full(3, basis, terminal, intT, []framework.Objective{sizeObjective()}, rng)
		require.NoError(t, err)
		before := s.Tree().String()

		m, err := MutateSubtree(ctx, s, 4, basis, terminal, rng)
		require.NoError(t, err)
		assertWellTyped(t, m.Tree(), intT)
		assert.LessOrEqual(t, m.Tree().Depth(), 4)
		assert.Equal(t, before, s.Tree().String(), "the parent is untouched")
		_, evaluated := m.Fitness()
		assert.False(t, evaluated)
	}
}

func TestMutateInteriorNode(t *testing.T) {
	ctx := context.Background()
	s := solution(t, build(t, opAdd, leaf(opX), leaf(opOne)))

	m, err := MutateInteriorNode(ctx, s, lang.NewOperatorTable(opAdd, opMul), seeded(1))
	require.NoError(t, err)
	assert.Equal(t, "mul(x, one)", m.Tree().String())
	assert.Equal(t, "add(x, one)", s.Tree().String())

	// neg has the wrong arity and lt the wrong type, so nothing can replace add.
	m, err = MutateInteriorNode(ctx, s, lang.NewOperatorTable(opAdd, opNeg, opLt), seeded(1))
	require.NoError(t, err)
	assert.True(t, m.Equal(s))
	assert.NotSame(t, s.Tree(), m.Tree())

	// No other basis operator takes three arguments, so only add can change.
	cond := solution(t, build(t, opIf, leaf(opT), build(t, opAdd, leaf(opX), leaf(opX)), leaf(opOne)))
	for seed := uint64(0); seed < 10; seed++ {
		m, err := MutateInteriorNode(ctx, cond, basis, seeded(seed))
		require.NoError(t, err)
		assertWellTyped(t, m.Tree(), intT)
		assert.Equal(t, "if(true, mul(x, x), one)", m.Tree().String())
	}
}

func TestMutateLeafNode(t *testing.T) {
	ctx := context.Background()
	s := solution(t, build(t, opAdd, leaf(opX), leaf(opX)))

	m, err := MutateLeafNode(ctx, s, terminal, &sequence{values: []int{1, 0}})
	require.NoError(t, err)
	assert.Equal(t, "add(x, one)", m.Tree().String())

	// The Bool slot only admits true, which is already there.
	cond := solution(t, build(t, opNot, leaf(opT)))
	m, err = MutateLeafNode(ctx, cond, terminal, seeded(1))
	require.NoError(t, err)
	assert.True(t, m.Equal(cond))

	_, err = MutateLeafNode(ctx, nil, terminal, seeded(1))
	assert.True(t, errdefs.IsInvalidArgument(err))
}

func TestCrossoverSubtree(t *testing.T) {
	ctx := context.Background()
	for seed := uint64(0); seed < 30; seed++ {
		rng := seeded(seed)
		a, err := Grow(4, basis, terminal, intT, []framework.Objective{sizeObjective()}, rng)
		require.NoError(t, err)
		b, err := Grow(4, basis, terminal, intT, []framework.Objective{sizeObjective()}, rng)
		require.NoError(t, err)
		beforeA, beforeB := a.Tree().String(), b.Tree().String()

		childA, childB, err := CrossoverSubtree(ctx, a, b, rng)
		require.NoError(t, err)
		assertWellTyped(t, childA.Tree(), intT)
		assertWellTyped(t, childB.Tree(), intT)
		assert.Equal(t, a.Tree().Len()+b.Tree().Len(), childA.Tree().Len()+childB.Tree().Len())
		assert.Equal(t, beforeA, a.Tree().String())
		assert.Equal(t, beforeB, b.Tree().String())
	}
}

func TestCrossoverWithoutCompatiblePoints(t *testing.T) {
	a := solution(t, build(t, opNeg, leaf(opX)))
	b := solution(t, build(t, opNot, leaf(opT)))

	childA, childB, err := CrossoverSubtree(context.Background(), a, b, seeded(1))
	require.NoError(t, err)
	assert.True(t, childA.Equal(a))
	assert.True(t, childB.Equal(b))
	assert.NotSame(t, a.Tree(), childA.Tree())
}

func TestCrossoverSwapsChosenPair(t *testing.T) {
	a := solution(t, build(t, opAdd, leaf(opX), leaf(opOne)))
	b := solution(t, build(t, opNeg, leaf(opX)))

	// Pairs are enumerated in pre-order of a, then pre-order of b:
	// (add,neg) (add,x) (x,neg) (x,x) (one,neg) (one,x). Pick (one, neg).
	childA, childB, err := CrossoverSubtree(context.Background(), a, b, &sequence{values: []int{4}})
	require.NoError(t, err)
	assert.Equal(t, "add(x, neg(x))", childA.Tree().String())
	assert.Equal(t, "one", childB.Tree().String())
}

func TestTournamentSelect(t *testing.T) {
	ctx := context.Background()
	small := solution(t, leaf(opX))
	large := solution(t, build(t, opNeg, leaf(opX)))
	twin := solution(t, leaf(opOne))

	got, err := TournamentSelect(ctx, small, large, seeded(1))
	require.NoError(t, err)
	assert.Same(t, small, got)
	got, err = TournamentSelect(ctx, large, small, seeded(1))
	require.NoError(t, err)
	assert.Same(t, small, got)

	got, err = TournamentSelect(ctx, small, twin, &sequence{values: []int{0}})
	require.NoError(t, err)
	assert.Same(t, small, got)
	got, err = TournamentSelect(ctx, small, twin, &sequence{values: []int{1}})
	require.NoError(t, err)
	assert.Same(t, twin, got)

	seen := map[*framework.Solution]int{}
	rng := seeded(5)
	for i := 0; i < 200; i++ {
		got, err := TournamentSelect(ctx, small, twin, rng)
		require.NoError(t, err)
		seen[got]++
	}
	assert.Greater(t, seen[small], 60)
	assert.Greater(t, seen[twin], 60)

	_, err = TournamentSelect(ctx, nil, twin, rng)
	assert.True(t, errdefs.IsInvalidArgument(err))
}

func TestBinaryTournament(t *testing.T) {
	ctx := context.Background()
	small := solution(t, leaf(opX))
	large := solution(t, build(t, opNeg, leaf(opX)))

	got, err := BinaryTournament(ctx, []*framework.Solution{small, large}, &sequence{values: []int{1, 0}})
	require.NoError(t, err)
	assert.Same(t, small, got)

	_, err = BinaryTournament(ctx, nil, seeded(1))
	assert.True(t, errdefs.IsInvalidArgument(err))
}

func TestTerminalPoolMustHoldTerminals(t *testing.T) {
	mixed := lang.NewOperatorTable(opX, opNeg)
	s := solution(t, build(t, opNeg, leaf(opX)))

	_, err := FullTree(2, lang.NewOperatorTable(opNeg), lang.NewOperatorTable(opNeg), intT, seeded(1))
	assert.True(t, errdefs.IsInvalidArgument(err))
	_, err = GrowTree(3, basis, mixed, intT, seeded(1))
	assert.True(t, errdefs.IsInvalidArgument(err))
	_, err = MutateSubtree(context.Background(), s, 3, basis, mixed, seeded(1))
	assert.True(t, errdefs.IsInvalidArgument(err))
	_, err = RampedHalfAndHalf(context.Background(), 3, 10, basis, mixed, intT, nil, seeded(1))
	assert.True(t, errdefs.IsInvalidArgument(err))
}

func TestGeneratorsShareOperatorUnion(t *testing.T) {
	a, err := newGenerator(basis, terminal, seeded(1))
	require.NoError(t, err)
	b, err := newGenerator(basis, terminal, seeded(2))
	require.NoError(t, err)
	assert.Same(t, a.all, b.all)
	assert.Equal(t, basis.Len()+terminal.Len(), a.all.Len())

	other, err := newGenerator(basis, lang.NewOperatorTable(opX), seeded(1))
	require.NoError(t, err)
	assert.NotSame(t, a.all, other.all)
}

func TestBinaryTournamentWithoutRandomSource(t *testing.T) {
	s := solution(t, leaf(opX))
	_, err := BinaryTournament(context.Background(), []*framework.Solution{s}, nil)
	assert.True(t, errdefs.IsInvalidArgument(err))
}
