package model

import "strings"

// Operator names a comparison a FilterPredicate applies to a metadata value.
type Operator int

const (
	OpEqual Operator = iota
	OpNotEqual
	OpGreaterThan
	OpGreaterEqual
	OpLessThan
	OpLessEqual
	OpIn
	OpContains
)

// FilterPredicate tests one metadata key against Value using Operator.
// Gt/Gte/Lt/Lte only match when both sides are numbers; Contains only
// matches when both sides are strings; In expects Value to be a slice and
// matches if any element equals the metadata value.
type FilterPredicate struct {
	Key      string
	Operator Operator
	Value    any
}

// Matches reports whether md satisfies the predicate. A missing key never
// matches, regardless of operator.
func (p FilterPredicate) Matches(md Metadata) bool {
	value, ok := md[p.Key]
	if !ok {
		return false
	}
	switch p.Operator {
	case OpEqual:
		return compareEqual(value, p.Value)
	case OpNotEqual:
		return !compareEqual(value, p.Value)
	case OpGreaterThan:
		return compareNumeric(value, p.Value, func(a, b float64) bool { return a > b })
	case OpGreaterEqual:
		return compareNumeric(value, p.Value, func(a, b float64) bool { return a >= b })
	case OpLessThan:
		return compareNumeric(value, p.Value, func(a, b float64) bool { return a < b })
	case OpLessEqual:
		return compareNumeric(value, p.Value, func(a, b float64) bool { return a <= b })
	case OpIn:
		return compareIn(value, p.Value)
	case OpContains:
		return compareContains(value, p.Value)
	default:
		return false
	}
}

// FilterSet is a conjunction of predicates: every one must match.
type FilterSet []FilterPredicate

// Matches reports whether md satisfies every predicate in the set. An
// empty set matches everything.
func (fs FilterSet) Matches(md Metadata) bool {
	for _, p := range fs {
		if !p.Matches(md) {
			return false
		}
	}
	return true
}

func compareEqual(a, b any) bool {
	if af, aok := asFloat64(a); aok {
		if bf, bok := asFloat64(b); bok {
			return af == bf
		}
	}
	return a == b
}

func compareNumeric(a, b any, cmp func(a, b float64) bool) bool {
	af, aok := asFloat64(a)
	bf, bok := asFloat64(b)
	if !aok || !bok {
		return false
	}
	return cmp(af, bf)
}

func compareIn(value, set any) bool {
	items, ok := set.([]any)
	if !ok {
		return false
	}
	for _, item := range items {
		if compareEqual(value, item) {
			return true
		}
	}
	return false
}

func compareContains(value, substr any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	sub, ok := substr.(string)
	if !ok {
		return false
	}
	return strings.Contains(s, sub)
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
