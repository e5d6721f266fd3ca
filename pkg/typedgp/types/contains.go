package types

import (
	"sync/atomic"

	"k8s.io/utils/lru"
)

// DefaultContainmentCacheSize is the number of (slot, candidate) results
// kept by the containment memo.
const DefaultContainmentCacheSize = 1 << 16

type memoKey struct {
	slot, candidate string
}

// memo holds containment results for every pair of types queried so far. The
// lru.Cache is internally locked; a race between two goroutines computing the
// same pair only costs a redundant computation.
var memo atomic.Pointer[lru.Cache]

func init() {
	memo.Store(lru.New(DefaultContainmentCacheSize))
}

// SetContainmentCacheSize replaces the containment memo with an empty one
// holding at most size entries. Non-positive sizes restore the default.
func SetContainmentCacheSize(size int) {
	if size <= 0 {
		size = DefaultContainmentCacheSize
	}
	memo.Store(lru.New(size))
}

// ContainmentCacheLen returns the number of memoized containment results.
func ContainmentCacheLen() int {
	return memo.Load().Len()
}

// contains is the containment relation over validated, non-nil types.
func contains(slot, candidate Type) bool {
	if slot.Key() == candidate.Key() {
		return true
	}

	cache := memo.Load()
	k := memoKey{slot: slot.Key(), candidate: candidate.Key()}
	if v, ok := cache.Get(k); ok {
		return v.(bool)
	}

	var result bool
	switch s := slot.(type) {
	case *Named:
		switch c := candidate.(type) {
		case *Named:
			result = namedContainsNamed(s, c)
		case *Parametrized:
			result = contains(s, c.base)
		}
	case *Parametrized:
		if c, ok := candidate.(*Parametrized); ok {
			result = parametrizedContains(s, c)
		}
	}

	cache.Add(k, result)
	return result
}

func namedContainsNamed(slot, candidate *Named) bool {
	for _, s := range slot.subtypes {
		if contains(s, candidate) {
			return true
		}
	}
	if len(candidate.subtypes) == 0 {
		return false
	}
	for _, c := range candidate.subtypes {
		if !contains(slot, c) {
			return false
		}
	}
	return true
}

func parametrizedContains(slot, candidate *Parametrized) bool {
	if len(slot.params) == 0 || len(slot.params) != len(candidate.params) {
		return false
	}
	if !contains(slot.base, candidate.base) {
		return false
	}
	for i := range slot.params {
		if !parameterContains(slot.params[i], candidate.params[i]) {
			return false
		}
	}
	return true
}
