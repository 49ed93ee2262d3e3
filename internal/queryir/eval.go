package queryir

import (
	"fmt"

	"github.com/roach88/eventnav/internal/ir"
)

// Match evaluates a condition against a row.
//
// Missing columns, nulls and values of mismatched types make a comparison
// false, the way SQL NULL and strict typing would. Match only errors on
// conditions Validate would reject.
func Match(c Condition, row ir.IRObject) (bool, error) {
	switch cond := c.(type) {
	case Compare:
		return matchCompare(cond, row)
	case *Compare:
		return matchCompare(*cond, row)
	case And:
		return matchAll(cond.Conditions, row)
	case *And:
		return matchAll(cond.Conditions, row)
	case Or:
		return matchAny(cond.Conditions, row)
	case *Or:
		return matchAny(cond.Conditions, row)
	default:
		return false, fmt.Errorf("unsupported condition type: %T", c)
	}
}

// MatchAll reports whether every condition holds for the row.
func MatchAll(conds []Condition, row ir.IRObject) (bool, error) {
	return matchAll(conds, row)
}

func matchAll(conds []Condition, row ir.IRObject) (bool, error) {
	for _, c := range conds {
		ok, err := Match(c, row)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func matchAny(conds []Condition, row ir.IRObject) (bool, error) {
	if len(conds) == 0 {
		return false, fmt.Errorf("empty OR group")
	}
	for _, c := range conds {
		ok, err := Match(c, row)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func matchCompare(c Compare, row ir.IRObject) (bool, error) {
	got, ok := row[c.Column]
	if !ok {
		return false, nil
	}
	if _, isNull := got.(ir.IRNull); isNull {
		return false, nil
	}

	if c.Op == OpIn {
		candidates, ok := c.Value.(ir.IRArray)
		if !ok {
			return false, fmt.Errorf("IN on %q needs an array, got %s", c.Column, ir.TypeName(c.Value))
		}
		return In(got, candidates), nil
	}

	if c.Op == OpEq {
		return ir.Equal(got, c.Value), nil
	}

	cmp, err := ir.Compare(got, c.Value)
	if err != nil {
		// Mismatched types never satisfy a comparison.
		return false, nil
	}

	switch c.Op {
	case OpNeq:
		return cmp != 0, nil
	case OpLt:
		return cmp < 0, nil
	case OpLte:
		return cmp <= 0, nil
	case OpGt:
		return cmp > 0, nil
	case OpGte:
		return cmp >= 0, nil
	default:
		return false, fmt.Errorf("unknown operator %q", c.Op)
	}
}

// In reports whether v equals any candidate.
func In(v ir.IRValue, candidates []ir.IRValue) bool {
	for _, cand := range candidates {
		if ir.Equal(v, cand) {
			return true
		}
	}
	return false
}
