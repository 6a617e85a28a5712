package codec

import (
	"fmt"
	"time"

	skemata "github.com/reoring/skemata"
)

// TimeRFC3339 converts between RFC 3339 strings and time.Time over a string
// base. The dedicated time primitive covers most schemas; this transform
// serves fields that must stay string-typed on the wire.
func TimeRFC3339() *skemata.Transform {
	return skemata.NewTransform(skemata.String(), "codec.TimeRFC3339",
		func(base any) (any, error) {
			s, ok := base.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", base)
			}
			t, err := parseRFC3339(s)
			if err != nil {
				return nil, fmt.Errorf("invalid RFC3339 time: %w", err)
			}
			return t, nil
		},
		func(v any) (any, error) {
			t, ok := v.(time.Time)
			if !ok {
				return nil, fmt.Errorf("expected time.Time, got %T", v)
			}
			return formatRFC3339Canonical(t), nil
		})
}

func parseRFC3339(s string) (time.Time, error) {
	// Accept RFC3339Nano (trailing zeros optional)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, err
	}
	return t, nil
}

func formatRFC3339Canonical(t time.Time) string {
	// Normalize to UTC and format using RFC3339Nano (Go trims trailing zeros)
	return t.UTC().Format(time.RFC3339Nano)
}
