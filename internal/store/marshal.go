package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/eventnav/internal/ir"
)

// marshalAttrs converts attributes to canonical JSON TEXT for storage.
func marshalAttrs(attrs ir.IRObject) (string, error) {
	if len(attrs) == 0 {
		return "{}", nil
	}
	data, err := ir.MarshalCanonical(attrs)
	if err != nil {
		return "", fmt.Errorf("marshal attrs: %w", err)
	}
	return string(data), nil
}

// unmarshalAttrs parses canonical JSON TEXT to IRObject.
// Uses ir.IRObject.UnmarshalJSON which properly handles large integers via
// json.Number to avoid float64 precision loss for values > 2^53.
func unmarshalAttrs(data string) (ir.IRObject, error) {
	if data == "" || data == "{}" {
		return ir.IRObject{}, nil
	}
	var obj ir.IRObject
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal attrs: %w", err)
	}
	return obj, nil
}

// sqlValueToIR converts a value scanned from a result column.
// SQLite has no boolean type; booleans come back as integers.
func sqlValueToIR(v any) (ir.IRValue, error) {
	switch val := v.(type) {
	case nil:
		return ir.IRNull{}, nil
	case int64:
		return ir.IRInt(val), nil
	case string:
		return ir.IRString(val), nil
	case []byte:
		return ir.IRString(string(val)), nil
	case bool:
		return ir.IRBool(val), nil
	case float64:
		return nil, fmt.Errorf("float values are not supported: %v", val)
	default:
		return nil, fmt.Errorf("unsupported column type %T", v)
	}
}
