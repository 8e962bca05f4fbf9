package utils

import (
	"fmt"
	"strconv"
)

// ToString converts database and spreadsheet scalars to string. MySQL text
// columns scan as []byte, so those are handled explicitly; floats go through
// strconv to avoid exponent notation for large values.
func ToString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return fmt.Sprintf("%v", v)
	}
}
