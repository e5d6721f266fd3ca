// Package lang models bindings in a host execution environment: symbols,
// the operators that produce them, abstract calls, and the type-indexed
// operator table used to pick operators for a typed tree slot.
package lang

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/mihai-snyk/typedgp/pkg/typedgp/types"
)

// Value is an argument handle: either a *Symbol or a *Call.
type Value interface {
	Dtype() types.Type
	Key() string
	String() string

	isValue()
}

// Symbol names some data in the host environment.
type Symbol struct {
	name  string
	dtype types.Type
	key   string
	hash  uint64
}

var _ Value = &Symbol{}

func NewSymbol(name string, dtype types.Type) (*Symbol, error) {
	if err := types.Validate(dtype); err != nil {
		return nil, fmt.Errorf("symbol %q: %w", name, err)
	}
	s := &Symbol{name: name, dtype: dtype}
	s.key = "S(" + strconv.Quote(name) + ";" + dtype.Key() + ")"
	s.hash = xxhash.Sum64String(s.key)
	return s, nil
}

// MustSymbol is like NewSymbol but panics on error.
func MustSymbol(name string, dtype types.Type) *Symbol {
	s, err := NewSymbol(name, dtype)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Symbol) Name() string { return s.name }
func (s *Symbol) Dtype() types.Type { return s.dtype }
func (s *Symbol) Key() string { return s.key }
func (s *Symbol) Hash() uint64 { return s.hash }
func (s *Symbol) String() string { return s.name }
func (s *Symbol) Equal(other *Symbol) bool { return other != nil && s.key == other.key }
func (s *Symbol) isValue() {}
