package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// ErrIncomparable is returned by Compare when two values have no defined
// order relative to each other.
type ErrIncomparable struct {
	Left, Right IRValue
}

func (e *ErrIncomparable) Error() string {
	return fmt.Sprintf("cannot compare %s with %s", TypeName(e.Left), TypeName(e.Right))
}

// Compare orders two scalar IR values.
//
// Ints compare numerically, strings byte-wise (the same order as SQLite's
// BINARY collation and Postgres' "C" collation), bools false < true.
// Values of different types, nulls, arrays and objects are incomparable.
func Compare(a, b IRValue) (int, error) {
	switch x := a.(type) {
	case IRInt:
		if y, ok := b.(IRInt); ok {
			switch {
			case x < y:
				return -1, nil
			case x > y:
				return 1, nil
			}
			return 0, nil
		}
	case IRString:
		if y, ok := b.(IRString); ok {
			return strings.Compare(string(x), string(y)), nil
		}
	case IRBool:
		if y, ok := b.(IRBool); ok {
			switch {
			case x == y:
				return 0, nil
			case !bool(x):
				return -1, nil
			}
			return 1, nil
		}
	}
	return 0, &ErrIncomparable{Left: a, Right: b}
}

// Equal reports whether two IR values are deeply equal.
// Unlike Compare it accepts every value type; nulls are never equal,
// mirroring SQL three-valued logic.
func Equal(a, b IRValue) bool {
	switch x := a.(type) {
	case IRArray:
		y, ok := b.(IRArray)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case IRObject:
		y, ok := b.(IRObject)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, v := range x {
			if !Equal(v, y[k]) {
				return false
			}
		}
		return true
	}
	c, err := Compare(a, b)
	return err == nil && c == 0
}

// KeyString returns the canonical string representation of a partition
// or record key. Ints are rendered in base 10 and strings are returned
// unchanged; any other type is rejected rather than guessed at.
func KeyString(v IRValue) (string, error) {
	switch val := v.(type) {
	case IRString:
		return string(val), nil
	case IRInt:
		return strconv.FormatInt(int64(val), 10), nil
	default:
		return "", fmt.Errorf("key must be a string or int, got %s", TypeName(v))
	}
}
