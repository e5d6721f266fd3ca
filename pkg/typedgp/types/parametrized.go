package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/mihai-snyk/typedgp/pkg/typedgp/errdefs"
)

// Variance controls how a type parameter is matched during containment.
type Variance int

const (
	// Invariant parameters only match an equal parameter type.
	Invariant Variance = iota
	// Covariant parameters match when the candidate's parameter type
	// contains this parameter's type (producer positions).
	Covariant
	// Contravariant parameters match when this parameter's type contains the
	// candidate's parameter type (consumer positions).
	Contravariant
)

func (v Variance) String() string {
	switch v {
	case Invariant:
		return "invariant"
	case Covariant:
		return "covariant"
	case Contravariant:
		return "contravariant"
	default:
		return "Variance(" + strconv.Itoa(int(v)) + ")"
	}
}

// ParseVariance is the inverse of Variance.String.
func ParseVariance(s string) (Variance, error) {
	switch s {
	case "", "invariant":
		return Invariant, nil
	case "covariant":
		return Covariant, nil
	case "contravariant":
		return Contravariant, nil
	}
	return Invariant, fmt.Errorf("unknown variance %q: %w", s, errdefs.ErrInvalidArgument)
}

// Parameter is a type argument of a Parametrized type.
type Parameter struct {
	Dtype    Type
	Variance Variance
}

// Contains reports whether candidate satisfies this parameter, according to
// the parameter's own variance.
func (p Parameter) Contains(candidate Parameter) (bool, error) {
	if err := checkType(p.Dtype); err != nil {
		return false, err
	}
	if err := checkType(candidate.Dtype); err != nil {
		return false, err
	}
	return parameterContains(p, candidate), nil
}

// Equal compares parameters by type and variance.
func (p Parameter) Equal(other Parameter) bool {
	return p.Variance == other.Variance && Equal(p.Dtype, other.Dtype)
}

func (p Parameter) key() string {
	return p.Variance.String() + ":" + p.Dtype.Key()
}

func parameterContains(p, candidate Parameter) bool {
	switch p.Variance {
	case Covariant:
		return contains(candidate.Dtype, p.Dtype)
	case Contravariant:
		return contains(p.Dtype, candidate.Dtype)
	default:
		return p.Dtype.Key() == candidate.Dtype.Key()
	}
}

// Parametrized is a generic instantiation of a base type, e.g.
// Collection<Number>.
type Parametrized struct {
	name   string
	meta   string
	base   Type
	params []Parameter
	key    string
	hash   uint64
}

var _ Type = &Parametrized{}

// NewParametrized builds a parametrized type. At least one parameter is
// required; parameter order is significant.
func NewParametrized(name string, base Type, params []Parameter, opts ...Option) (*Parametrized, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("parametrized type %q needs at least one parameter: %w", name, errdefs.ErrPreconditionViolation)
	}
	if isNil(base) {
		return nil, fmt.Errorf("base type of %q is nil: %w", name, errdefs.ErrInvalidArgument)
	}
	for i, p := range params {
		if isNil(p.Dtype) {
			return nil, fmt.Errorf("parameter %d of %q is nil: %w", i, name, errdefs.ErrInvalidArgument)
		}
		if p.Variance < Invariant || p.Variance > Contravariant {
			return nil, fmt.Errorf("parameter %d of %q has %s: %w", i, name, p.Variance, errdefs.ErrInvalidArgument)
		}
	}

	o := buildOptions(opts)
	t := &Parametrized{
		name:   name,
		meta:   o.meta,
		base:   base,
		params: append([]Parameter(nil), params...),
	}
	t.key = parametrizedKey(t)
	t.hash = xxhash.Sum64String(t.key)
	return t, nil
}

// Of builds a parametrized type whose parameters are contravariant, so that
// Collection<Number> contains Collection<Float> whenever Number contains
// Float.
func Of(name string, base Type, args ...Type) (*Parametrized, error) {
	params := make([]Parameter, len(args))
	for i, a := range args {
		params[i] = Parameter{Dtype: a, Variance: Contravariant}
	}
	return NewParametrized(name, base, params)
}

// MustOf is like Of but panics on error.
func MustOf(name string, base Type, args ...Type) *Parametrized {
	t, err := Of(name, base, args...)
	if err != nil {
		panic(err)
	}
	return t
}

// MustParametrized is like NewParametrized but panics on error.
func MustParametrized(name string, base Type, params []Parameter, opts ...Option) *Parametrized {
	t, err := NewParametrized(name, base, params, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Parametrized) Name() string { return t.name }
func (t *Parametrized) Meta() string { return t.meta }
func (t *Parametrized) Key() string { return t.key }
func (t *Parametrized) Hash() uint64 { return t.hash }
func (t *Parametrized) Base() Type { return t.base }
func (t *Parametrized) isType() {}

// Parameters returns a copy of the type parameters in declaration order.
func (t *Parametrized) Parameters() []Parameter {
	return append([]Parameter(nil), t.params...)
}

func (t *Parametrized) String() string {
	return t.name
}

// Contains reports whether t can be resolved to candidate. A parametrized
// type never contains a Named type. It contains another parametrized type
// when they are equal, or when its base contains the candidate's base and
// every parameter pair matches according to this type's variances.
func (t *Parametrized) Contains(candidate Type) (bool, error) {
	if err := checkType(candidate); err != nil {
		return false, err
	}
	return contains(t, candidate), nil
}

func parametrizedKey(t *Parametrized) string {
	var b strings.Builder
	b.WriteString("P(")
	b.WriteString(strconv.Quote(t.name))
	b.WriteByte(';')
	b.WriteString(strconv.Quote(t.meta))
	b.WriteByte(';')
	b.WriteString(t.base.Key())
	b.WriteString(";[")
	for i, p := range t.params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.key())
	}
	b.WriteString("])")
	return b.String()
}
