package queryir

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/eventnav/internal/ir"
)

var conditionRE = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*(!=|<=|>=|=|<|>|(?i:in)\s)\s*(.*?)\s*$`)

// ParseCondition parses the textual condition syntax used by the CLI and
// scenario files:
//
//	platform = python
//	level != "warning"
//	timestamp >= 1767225600
//	project_id in [1, 2]
//
// Values are ints, true/false, null, quoted strings ("..." or '...'),
// bare strings, or bracketed lists for IN.
func ParseCondition(s string) (Compare, error) {
	m := conditionRE.FindStringSubmatch(s)
	if m == nil {
		return Compare{}, fmt.Errorf("parse condition %q: expected <column> <op> <value>", s)
	}

	column := m[1]
	op := Op(strings.ToUpper(strings.TrimSpace(m[2])))
	raw := m[3]
	if raw == "" {
		return Compare{}, fmt.Errorf("parse condition %q: missing value", s)
	}

	var (
		value ir.IRValue
		err   error
	)
	if op == OpIn {
		value, err = parseList(raw)
	} else {
		value, err = ParseValue(raw)
	}
	if err != nil {
		return Compare{}, fmt.Errorf("parse condition %q: %w", s, err)
	}

	return Compare{Column: column, Op: op, Value: value}, nil
}

// ParseConditions parses each string with ParseCondition, preserving order.
func ParseConditions(ss []string) ([]Condition, error) {
	out := make([]Condition, 0, len(ss))
	for _, s := range ss {
		c, err := ParseCondition(s)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// ParseValue parses a single scalar literal.
func ParseValue(raw string) (ir.IRValue, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return nil, fmt.Errorf("empty value")
	case raw == "true":
		return ir.IRBool(true), nil
	case raw == "false":
		return ir.IRBool(false), nil
	case raw == "null":
		return ir.IRNull{}, nil
	case strings.HasPrefix(raw, `"`):
		s, err := strconv.Unquote(raw)
		if err != nil {
			return nil, fmt.Errorf("bad quoted string %s: %w", raw, err)
		}
		return ir.IRString(s), nil
	case strings.HasPrefix(raw, "'"):
		if len(raw) < 2 || !strings.HasSuffix(raw, "'") {
			return nil, fmt.Errorf("unterminated string %s", raw)
		}
		return ir.IRString(raw[1 : len(raw)-1]), nil
	}

	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return ir.IRInt(n), nil
	}
	if _, err := strconv.ParseFloat(raw, 64); err == nil {
		return nil, fmt.Errorf("floats are forbidden: %s", raw)
	}
	return ir.IRString(raw), nil
}

func parseList(raw string) (ir.IRValue, error) {
	if !strings.HasPrefix(raw, "[") || !strings.HasSuffix(raw, "]") {
		return nil, fmt.Errorf("IN needs a [list], got %s", raw)
	}
	body := strings.TrimSpace(raw[1 : len(raw)-1])
	if body == "" {
		return ir.IRArray{}, nil
	}

	parts := strings.Split(body, ",")
	arr := make(ir.IRArray, 0, len(parts))
	for _, p := range parts {
		v, err := ParseValue(p)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
	return arr, nil
}

// ParseFilterKey parses "column=v1,v2,..." into a filter key entry.
func ParseFilterKey(s string) (string, []ir.IRValue, error) {
	column, rest, ok := strings.Cut(s, "=")
	column = strings.TrimSpace(column)
	if !ok || !ValidIdentifier(column) {
		return "", nil, fmt.Errorf("parse filter key %q: expected <column>=<v1>,<v2>", s)
	}
	if strings.TrimSpace(rest) == "" {
		return column, []ir.IRValue{}, nil
	}

	var values []ir.IRValue
	for _, p := range strings.Split(rest, ",") {
		v, err := ParseValue(p)
		if err != nil {
			return "", nil, fmt.Errorf("parse filter key %q: %w", s, err)
		}
		values = append(values, v)
	}
	return column, values, nil
}
