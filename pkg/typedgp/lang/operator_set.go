package lang

import (
	"sort"
	"strings"

	"github.com/hashicorp/go-set/v3"
)

type entry struct {
	op *Operator
}

func (e entry) Hash() string {
	return e.op.Key()
}

// OperatorSet is an immutable set of operators with structural membership.
type OperatorSet struct {
	items *set.HashSet[entry, string]
	// sorted by key so that seeded random choices are reproducible
	sorted []*Operator
}

// NewOperatorSet returns the set of the given operators. Nil operators are
// ignored.
func NewOperatorSet(operators ...*Operator) *OperatorSet {
	items := set.NewHashSet[entry, string](len(operators))
	for _, o := range operators {
		if o != nil {
			items.Insert(entry{op: o})
		}
	}

	sorted := make([]*Operator, 0, items.Size())
	for _, e := range items.Slice() {
		sorted = append(sorted, e.op)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Key() < sorted[j].Key()
	})
	return &OperatorSet{items: items, sorted: sorted}
}

func (s *OperatorSet) Len() int {
	return len(s.sorted)
}

func (s *OperatorSet) Empty() bool {
	return len(s.sorted) == 0
}

func (s *OperatorSet) Contains(o *Operator) bool {
	return o != nil && s.items.Contains(entry{op: o})
}

// Slice returns the operators ordered by structural key.
func (s *OperatorSet) Slice() []*Operator {
	return append([]*Operator(nil), s.sorted...)
}

// At returns the i-th operator in key order.
func (s *OperatorSet) At(i int) *Operator {
	return s.sorted[i]
}

// Filter returns the subset of operators satisfying keep.
func (s *OperatorSet) Filter(keep func(*Operator) bool) *OperatorSet {
	var kept []*Operator
	for _, o := range s.sorted {
		if keep(o) {
			kept = append(kept, o)
		}
	}
	return NewOperatorSet(kept...)
}

func (s *OperatorSet) Union(other *OperatorSet) *OperatorSet {
	all := make([]*Operator, 0, s.Len()+other.Len())
	all = append(all, s.sorted...)
	all = append(all, other.sorted...)
	return NewOperatorSet(all...)
}

func (s *OperatorSet) Equal(other *OperatorSet) bool {
	if other == nil || s.Len() != other.Len() {
		return false
	}
	for _, o := range s.sorted {
		if !other.Contains(o) {
			return false
		}
	}
	return true
}

func (s *OperatorSet) String() string {
	names := make([]string, len(s.sorted))
	for i, o := range s.sorted {
		names[i] = o.SignatureString()
	}
	return "{" + strings.Join(names, ", ") + "}"
}
