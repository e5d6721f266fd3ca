// Package types implements the structural type lattice used to constrain
// typed expression trees.
//
// There are two kinds of types:
//
//  1. Named -- a type identified by its name and metadata. A Named type with
//     subtypes is a generic (union-like) type which can be resolved to any of
//     its alternatives.
//  2. Parametrized -- a generic instantiation such as Collection<Number>.
//
// We say type A contains type B when a value of type B can be substituted
// wherever a value of type A is expected. Given
//
//	number := types.MustGeneric("Number", []types.Type{types.New("Int"), types.New("Float")})
//	collection := types.MustGeneric("Collection", []types.Type{types.New("List"), types.New("Set")})
//	numbers := types.MustOf("Collection<Number>", collection, number)
//	floats := types.MustOf("Collection<Float>", collection, types.New("Float"))
//
// numbers contains floats, and collection contains both of them.
//
// Types are immutable and safe to share between goroutines. Because a type
// can only be built from types that already exist, subtype graphs are always
// acyclic.
package types

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/mihai-snyk/typedgp/pkg/typedgp/errdefs"
)

// Type is a node of the type lattice. The interface is sealed: the only
// implementations are *Named and *Parametrized.
type Type interface {
	// Name is the display name of the type.
	Name() string
	// Meta is opaque metadata attached to the type. It takes part in
	// equality.
	Meta() string
	// Key is the canonical structural identity of the type. Two types are
	// equal iff their keys are equal.
	Key() string
	// Hash is a structural hash derived from Key.
	Hash() uint64
	// Contains reports whether a value of type candidate can be used where
	// this type is expected.
	Contains(candidate Type) (bool, error)
	String() string

	isType()
}

// Option configures optional attributes of a type.
type Option func(*options)

type options struct {
	meta string
}

// WithMeta attaches opaque metadata to a type.
func WithMeta(meta string) Option {
	return func(o *options) {
		o.meta = meta
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Named is a plain type, or a generic type when it has subtypes.
type Named struct {
	name     string
	meta     string
	subtypes []Type
	key      string
	hash     uint64
}

var _ Type = &Named{}

// New returns a leaf type.
func New(name string, opts ...Option) *Named {
	o := buildOptions(opts)
	t := &Named{name: name, meta: o.meta}
	t.key = namedKey(t.name, t.meta, nil)
	t.hash = xxhash.Sum64String(t.key)
	return t
}

// NewGeneric returns a type which can be resolved to any of subtypes.
// Duplicate subtypes are collapsed; their order is irrelevant.
func NewGeneric(name string, subtypes []Type, opts ...Option) (*Named, error) {
	o := buildOptions(opts)

	seen := sets.New[string]()
	unique := make([]Type, 0, len(subtypes))
	for i, s := range subtypes {
		if isNil(s) {
			return nil, fmt.Errorf("subtype %d of %q is nil: %w", i, name, errdefs.ErrInvalidArgument)
		}
		if seen.Has(s.Key()) {
			continue
		}
		seen.Insert(s.Key())
		unique = append(unique, s)
	}
	sort.Slice(unique, func(i, j int) bool {
		return unique[i].Key() < unique[j].Key()
	})

	t := &Named{name: name, meta: o.meta, subtypes: unique}
	t.key = namedKey(t.name, t.meta, t.subtypes)
	t.hash = xxhash.Sum64String(t.key)
	return t, nil
}

// MustGeneric is like NewGeneric but panics on error. It is meant for static
// type declarations.
func MustGeneric(name string, subtypes []Type, opts ...Option) *Named {
	t, err := NewGeneric(name, subtypes, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Named) Name() string { return t.name }
func (t *Named) Meta() string { return t.meta }
func (t *Named) Key() string { return t.key }
func (t *Named) Hash() uint64 { return t.hash }
func (t *Named) isType() {}

// Subtypes returns the alternatives of a generic type, ordered by key.
func (t *Named) Subtypes() []Type {
	out := make([]Type, len(t.subtypes))
	copy(out, t.subtypes)
	return out
}

// IsLeaf reports whether the type has no subtypes.
func (t *Named) IsLeaf() bool {
	return len(t.subtypes) == 0
}

func (t *Named) String() string {
	if t.IsLeaf() {
		return t.name
	}
	names := make([]string, len(t.subtypes))
	for i, s := range t.subtypes {
		names[i] = s.String()
	}
	return t.name + "{" + strings.Join(names, "|") + "}"
}

// Contains reports whether t can be resolved to candidate. It is true when
// candidate equals t, when one of t's subtypes contains candidate, or when
// every subtype of candidate is contained by t. A parametrized candidate is
// contained when its base type is.
func (t *Named) Contains(candidate Type) (bool, error) {
	if err := checkType(candidate); err != nil {
		return false, err
	}
	return contains(t, candidate), nil
}

// Equal reports whether a and b are structurally equal. Nil types are only
// equal to each other.
func Equal(a, b Type) bool {
	if isNil(a) || isNil(b) {
		return isNil(a) && isNil(b)
	}
	return a.Key() == b.Key()
}

// Contains is a convenience wrapper for slot.Contains(candidate).
func Contains(slot, candidate Type) (bool, error) {
	if err := checkType(slot); err != nil {
		return false, err
	}
	return slot.Contains(candidate)
}

// Validate returns an InvalidArgument error unless t is a non-nil Named or
// Parametrized type.
func Validate(t Type) error {
	return checkType(t)
}

func checkType(t Type) error {
	if isNil(t) {
		return fmt.Errorf("type must be a Named or Parametrized type, got %#v: %w", t, errdefs.ErrInvalidArgument)
	}
	return nil
}

func isNil(t Type) bool {
	switch v := t.(type) {
	case nil:
		return true
	case *Named:
		return v == nil
	case *Parametrized:
		return v == nil
	default:
		return true
	}
}

func namedKey(name, meta string, subtypes []Type) string {
	var b strings.Builder
	b.WriteString("T(")
	b.WriteString(strconv.Quote(name))
	b.WriteByte(';')
	b.WriteString(strconv.Quote(meta))
	b.WriteString(";{")
	for i, s := range subtypes {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s.Key())
	}
	b.WriteString("})")
	return b.String()
}
