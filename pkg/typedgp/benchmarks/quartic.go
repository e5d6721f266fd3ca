package benchmarks

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/mihai-snyk/typedgp/pkg/typedgp/errdefs"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/framework"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/lang"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/tree"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/types"
)

const (
	Name = "Quartic"
)

// Float is the only type of the Quartic problem.
var Float = types.New("Float")

// Quartic is Koza's symbolic regression benchmark: find f(x) = x^4 + x^3 +
// x^2 + x from samples in [-1, 1], using +, -, * and protected division over
// the terminals x and 1.
// https://doi.org/10.7551/mitpress/1090.001.0001 (Genetic Programming, ch. 7.3)
type Quartic struct {
	samples []float64
	targets []float64

	basis    *lang.OperatorTable
	terminal *lang.OperatorTable
}

// quarticOps evaluates an operator given its arguments in position order.
var quarticOps = map[string]func(x float64, args []float64) float64{
	"add": func(_ float64, a []float64) float64 { return a[0] + a[1] },
	"sub": func(_ float64, a []float64) float64 { return a[0] - a[1] },
	"mul": func(_ float64, a []float64) float64 { return a[0] * a[1] },
	"div": func(_ float64, a []float64) float64 {
		if a[1] == 0 {
			return 1
		}
		return a[0] / a[1]
	},
	"x":   func(x float64, _ []float64) float64 { return x },
	"1.0": func(float64, []float64) float64 { return 1 },
}

func NewQuartic(numSamples int) *Quartic {
	if numSamples < 2 {
		numSamples = 2
	}
	samples := floats.Span(make([]float64, numSamples), -1, 1)
	targets := make([]float64, numSamples)
	for i, x := range samples {
		targets[i] = quartic(x)
	}

	binary := func(name string) *lang.Operator {
		return lang.MustOperator(lang.MustSymbol(name, Float), Float, Float)
	}
	return &Quartic{
		samples: samples,
		targets: targets,
		basis: lang.NewOperatorTable(
			binary("add"), binary("sub"), binary("mul"), binary("div"),
		),
		terminal: lang.NewOperatorTable(
			lang.MustOperator(lang.MustSymbol("x", Float)),
			lang.MustOperator(lang.MustSymbol("1.0", Float)),
		),
	}
}

func quartic(x float64) float64 {
	return x*x*x*x + x*x*x + x*x + x
}

func (p *Quartic) Name() string {
	return Name
}

func (p *Quartic) Dtype() types.Type {
	return Float
}

func (p *Quartic) BasisOperators() *lang.OperatorTable {
	return p.basis
}

func (p *Quartic) TerminalOperators() *lang.OperatorTable {
	return p.terminal
}

// Objectives minimizes both the mean squared error and the tree size.
func (p *Quartic) Objectives() []framework.Objective {
	return []framework.Objective{
		{Name: "mse", Func: p.mse, Weight: -1},
		{Name: "size", Func: size, Weight: -1},
	}
}

// The true front of a GP problem is not known.
func (p *Quartic) TrueParetoFront(int) []framework.ObjectiveSpacePoint {
	return nil
}

// Samples returns the x values the error is measured on.
func (p *Quartic) Samples() []float64 {
	return append([]float64(nil), p.samples...)
}

func (p *Quartic) mse(ctx context.Context, t *tree.Tree) (float64, error) {
	diff := make([]float64, len(p.samples))
	for i, x := range p.samples {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		y, err := Eval(t, x)
		if err != nil {
			return 0, err
		}
		diff[i] = y
	}
	floats.Sub(diff, p.targets)
	floats.Mul(diff, diff)
	mse := stat.Mean(diff, nil)
	if math.IsNaN(mse) || math.IsInf(mse, 0) {
		return math.MaxFloat64, nil
	}
	return mse, nil
}

func size(_ context.Context, t *tree.Tree) (float64, error) {
	return float64(t.Len()), nil
}

// Eval interprets t at x with a post-order value stack.
func Eval(t *tree.Tree, x float64) (float64, error) {
	var stack []float64
	for n := range t.PostOrder() {
		name := n.Operator().Symbol().Name()
		f, ok := quarticOps[name]
		if !ok {
			return 0, fmt.Errorf("%s has no %s implementation: %w", n.Operator().SignatureString(), Name, errdefs.ErrInvalidArgument)
		}
		arity := n.Arity()
		v := f(x, stack[len(stack)-arity:])
		stack = append(stack[:len(stack)-arity], v)
	}
	return stack[0], nil
}
