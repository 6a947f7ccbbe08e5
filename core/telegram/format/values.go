package format

import "time"

// DateOr formats t with layout, returning fallback for nil or zero times.
func DateOr(t *time.Time, layout, fallback string) string {
	if t == nil || t.IsZero() {
		return fallback
	}
	return t.Format(layout)
}
