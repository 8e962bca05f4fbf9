package sync

import (
	"strings"
	"time"

	"datasync/core/utils"
)

// ValuesEqual reports whether two scalar values represent the same logical
// value. Both nil compare equal, exactly one nil compares unequal, and
// anything else is compared on trimmed canonical string forms.
//
// String comparison deliberately tolerates type differences between the
// spreadsheet and the database ("10" equals the numeric 10) at the cost of
// scale blindness: "10" and "10.0" compare unequal even when a numeric
// comparison would not. This is a documented policy, not a bug.
func ValuesEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return canonical(a) == canonical(b)
}

// canonical renders a scalar to its comparison form. Timestamps get a fixed
// layout so driver-level time.Time values and spreadsheet text can match.
func canonical(v any) string {
	if t, ok := v.(time.Time); ok {
		return t.Format("2006-01-02 15:04:05")
	}
	return strings.TrimSpace(utils.ToString(v))
}
