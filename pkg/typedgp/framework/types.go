package framework

import (
	"context"

	"github.com/mihai-snyk/typedgp/pkg/typedgp/lang"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/tree"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/types"
)

// ObjectiveFunc scores a tree. Implementations must not retain or modify t.
type ObjectiveFunc func(ctx context.Context, t *tree.Tree) (float64, error)

// Objective pairs an objective function with the weight its raw value is
// multiplied by. Fitness is always maximized, so objectives which should be
// minimized carry a negative weight.
type Objective struct {
	Name   string
	Func   ObjectiveFunc
	Weight float64
}

// ObjectiveSpacePoint represents an N-dimensional point in the objective space.
// As an example, for a problem with 2 objectives f1 and f2, a point in the
// objective space could be [w1*f1(t), w2*f2(t)], for the tree t.
type ObjectiveSpacePoint []float64

// Problem describes the contract a specific typed GP problem needs to implement.
type Problem interface {
	Name() string

	// Dtype is the type every candidate tree must evaluate to.
	Dtype() types.Type
	// BasisOperators are the operators with arity > 0.
	BasisOperators() *lang.OperatorTable
	// TerminalOperators are the arity-0 operators.
	TerminalOperators() *lang.OperatorTable

	Objectives() []Objective

	// TrueParetoFront is optional due to the difficulty of finding the true front
	// in most GP problems. When there isn't a way to find the true front,
	// just return nil.
	TrueParetoFront(int) []ObjectiveSpacePoint
}
