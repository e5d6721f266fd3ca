package lang

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/mihai-snyk/typedgp/pkg/typedgp/errdefs"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/types"
)

// Operator is an abstraction over a function (or datum) in the host
// environment which takes arguments conforming to its signature and returns a
// value of its symbol's dtype. An operator with an empty signature is a
// terminal operator, otherwise it is a basis operator.
type Operator struct {
	symbol    *Symbol
	signature []types.Type
	key       string
	hash      uint64
}

func NewOperator(symbol *Symbol, signature ...types.Type) (*Operator, error) {
	if symbol == nil {
		return nil, fmt.Errorf("operator needs a symbol: %w", errdefs.ErrInvalidArgument)
	}
	for i, t := range signature {
		if err := types.Validate(t); err != nil {
			return nil, fmt.Errorf("signature position %d of %s: %w", i, symbol.Name(), err)
		}
	}

	o := &Operator{
		symbol:    symbol,
		signature: append([]types.Type(nil), signature...),
	}

	var b strings.Builder
	b.WriteString("O(")
	b.WriteString(symbol.Key())
	b.WriteString(";[")
	for i, t := range o.signature {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t.Key())
	}
	b.WriteString("];")
	b.WriteString(symbol.Dtype().Key())
	b.WriteString(")")
	o.key = b.String()
	o.hash = xxhash.Sum64String(o.key)
	return o, nil
}

// MustOperator is like NewOperator but panics on error.
func MustOperator(symbol *Symbol, signature ...types.Type) *Operator {
	o, err := NewOperator(symbol, signature...)
	if err != nil {
		panic(err)
	}
	return o
}

func (o *Operator) Symbol() *Symbol { return o.symbol }
func (o *Operator) Dtype() types.Type { return o.symbol.Dtype() }
func (o *Operator) Arity() int { return len(o.signature) }
func (o *Operator) IsTerminal() bool { return len(o.signature) == 0 }
func (o *Operator) Key() string { return o.key }
func (o *Operator) Hash() uint64 { return o.hash }
func (o *Operator) String() string { return o.symbol.Name() }

// Signature returns a copy of the argument types.
func (o *Operator) Signature() []types.Type {
	return append([]types.Type(nil), o.signature...)
}

// Slot returns the type required at the given argument position.
func (o *Operator) Slot(position int) (types.Type, error) {
	if position < 0 || position >= len(o.signature) {
		return nil, fmt.Errorf("%s has no argument position %d: %w", o.SignatureString(), position, errdefs.ErrIndexOutOfRange)
	}
	return o.signature[position], nil
}

func (o *Operator) Equal(other *Operator) bool {
	return other != nil && o.key == other.key
}

// SignatureString renders the operator as name(T0, T1) -> U.
func (o *Operator) SignatureString() string {
	names := make([]string, len(o.signature))
	for i, t := range o.signature {
		names[i] = t.String()
	}
	return fmt.Sprintf("%s(%s) -> %s", o.symbol.Name(), strings.Join(names, ", "), o.Dtype())
}

// Call symbolically applies the operator. With neither target nor args it
// returns the operator's Symbol. With both it returns a *Call binding the
// result to target; args must match the signature position by position.
// Passing exactly one of the two is an error.
func (o *Operator) Call(target *Symbol, args []Value) (Value, error) {
	switch {
	case target == nil && args == nil:
		return o.symbol, nil
	case target != nil && args != nil:
		if len(args) != len(o.signature) {
			return nil, fmt.Errorf("%s takes %d arguments, got %d: %w", o.SignatureString(), len(o.signature), len(args), errdefs.ErrInvalidArgument)
		}
		for i, a := range args {
			if a == nil {
				return nil, fmt.Errorf("argument %d of %s is nil: %w", i, o, errdefs.ErrInvalidArgument)
			}
			ok, err := o.signature[i].Contains(a.Dtype())
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, fmt.Errorf("argument %d of %s has type %s: %w", i, o.SignatureString(), a.Dtype(), errdefs.ErrInvalidArgument)
			}
		}
		return &Call{target: target, operator: o, args: append([]Value(nil), args...)}, nil
	default:
		return nil, fmt.Errorf("%s must be called with both a target and args, or neither: %w", o, errdefs.ErrInvalidArgument)
	}
}

// Call is an abstract function invocation in the host environment: the
// result of applying an operator to argument handles, bound to a target.
type Call struct {
	target   *Symbol
	operator *Operator
	args     []Value
}

var _ Value = &Call{}

func (c *Call) Target() *Symbol { return c.target }
func (c *Call) Operator() *Operator { return c.operator }
func (c *Call) Symbol() *Symbol { return c.operator.Symbol() }
func (c *Call) Dtype() types.Type { return c.operator.Dtype() }
func (c *Call) isValue() {}

// Args returns a copy of the argument handles.
func (c *Call) Args() []Value {
	return append([]Value(nil), c.args...)
}

func (c *Call) Key() string {
	var b strings.Builder
	b.WriteString("C(")
	b.WriteString(c.target.Key())
	b.WriteByte(';')
	b.WriteString(c.operator.Key())
	b.WriteString(";[")
	for i, a := range c.args {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(a.Key())
	}
	b.WriteString("])")
	return b.String()
}

func (c *Call) Hash() uint64 {
	return xxhash.Sum64String(c.Key())
}

func (c *Call) Equal(other *Call) bool {
	return other != nil && c.Key() == other.Key()
}

// String renders the call as target = name(arg0, arg1).
func (c *Call) String() string {
	args := make([]string, len(c.args))
	for i, a := range c.args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s = %s(%s)", c.target, c.operator, strings.Join(args, ", "))
}
