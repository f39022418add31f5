package values

import (
	"encoding/json"
	"fmt"
)

// FromAny converts a decoded JSON scalar (bool, string, json.Number,
// float64, or int) into a Value. It is shared by internal/ruleset (rule
// source documents) and internal/simulator (event fixture files), the two
// external collaborators that hand the core JSON-shaped constants.
func FromAny(raw any) (Value, error) {
	switch v := raw.(type) {
	case bool:
		return Bool(v), nil
	case string:
		return String(v), nil
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return nil, fmt.Errorf("values: %q is not an integer: %w", v.String(), err)
		}
		return Number(i), nil
	case float64:
		return Number(int64(v)), nil
	case int:
		return Number(int64(v)), nil
	case int64:
		return Number(v), nil
	default:
		return nil, fmt.Errorf("values: unsupported JSON scalar type %T", raw)
	}
}
