package lang

import (
	"fmt"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/mihai-snyk/typedgp/pkg/typedgp/errdefs"
	"github.com/mihai-snyk/typedgp/pkg/typedgp/types"
)

// OperatorTable holds a fixed set of operators and maps a requested type to
// the operators whose return type it contains. This is more or less
// Montana's types possibility table (Montana 1995).
//
// The resolution cache is filled lazily and entries are never replaced, so
// an OperatorTable is safe for concurrent use by multiple goroutines.
type OperatorTable struct {
	operators *OperatorSet

	// resolved maps a type key to the *OperatorSet resolved for it.
	resolved *cache.Cache
	flight   singleflight.Group
}

// NewOperatorTable builds a table over operators and eagerly resolves the
// return type of every member.
func NewOperatorTable(operators ...*Operator) *OperatorTable {
	t := &OperatorTable{
		operators: NewOperatorSet(operators...),
		resolved:  cache.New(cache.NoExpiration, 0),
	}
	for _, o := range t.operators.sorted {
		if _, found := t.resolved.Get(o.Dtype().Key()); found {
			continue
		}
		t.resolved.Set(o.Dtype().Key(), t.resolve(o.Dtype()), cache.NoExpiration)
	}
	return t
}

// resolve scans the table for operators whose dtype is contained by dtype.
// dtype must already be validated.
func (t *OperatorTable) resolve(dtype types.Type) *OperatorSet {
	var matched []*Operator
	for _, o := range t.operators.sorted {
		// Both types are valid so Contains cannot fail.
		if ok, _ := dtype.Contains(o.Dtype()); ok {
			matched = append(matched, o)
		}
	}
	return NewOperatorSet(matched...)
}

func (t *OperatorTable) lookup(dtype types.Type) (*OperatorSet, error) {
	if err := types.Validate(dtype); err != nil {
		return nil, fmt.Errorf("operator table lookup: %w", err)
	}

	key := dtype.Key()
	if v, found := t.resolved.Get(key); found {
		return v.(*OperatorSet), nil
	}

	v, _, _ := t.flight.Do(key, func() (interface{}, error) {
		if v, found := t.resolved.Get(key); found {
			return v, nil
		}
		s := t.resolve(dtype)
		// Add refuses to overwrite, which keeps earlier entries stable.
		if err := t.resolved.Add(key, s, cache.NoExpiration); err != nil {
			if v, found := t.resolved.Get(key); found {
				return v, nil
			}
		}
		return s, nil
	})
	return v.(*OperatorSet), nil
}

// Get returns the operators whose return type can be used where dtype is
// required.
func (t *OperatorTable) Get(dtype types.Type) (*OperatorSet, error) {
	s, err := t.lookup(dtype)
	if err != nil {
		return nil, err
	}
	if s.Empty() {
		return nil, fmt.Errorf("no operator resolves to %s: %w", dtype, errdefs.ErrKeyNotFound)
	}
	return s, nil
}

// Contains reports whether at least one operator resolves for dtype.
func (t *OperatorTable) Contains(dtype types.Type) (bool, error) {
	s, err := t.lookup(dtype)
	if err != nil {
		return false, err
	}
	return !s.Empty(), nil
}

// Union returns a new table over the operators of both tables. Resolution
// caches are not shared.
func (t *OperatorTable) Union(other *OperatorTable) *OperatorTable {
	if other == nil {
		return NewOperatorTable(t.operators.sorted...)
	}
	return NewOperatorTable(t.operators.Union(other.operators).sorted...)
}

// Operators returns the members ordered by structural key.
func (t *OperatorTable) Operators() []*Operator {
	return t.operators.Slice()
}

func (t *OperatorTable) Set() *OperatorSet {
	return t.operators
}

func (t *OperatorTable) Len() int {
	return t.operators.Len()
}

// CachedTypes returns the number of types resolved so far.
func (t *OperatorTable) CachedTypes() int {
	return t.resolved.ItemCount()
}

func (t *OperatorTable) Equal(other *OperatorTable) bool {
	return other != nil && t.operators.Equal(other.operators)
}

func (t *OperatorTable) String() string {
	return "OperatorTable" + t.operators.String()
}
