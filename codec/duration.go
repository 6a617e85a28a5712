package codec

import (
	"fmt"
	"time"

	skemata "github.com/reoring/skemata"
)

// DurationSeconds converts between whole-second counts and time.Duration.
// Encoding a duration with sub-second precision fails rather than rounding.
func DurationSeconds() *skemata.Transform {
	return skemata.NewTransform(skemata.Int64(), "codec.DurationSeconds",
		func(base any) (any, error) {
			n, ok := base.(int64)
			if !ok {
				return nil, fmt.Errorf("expected int64, got %T", base)
			}
			return time.Duration(n) * time.Second, nil
		},
		func(v any) (any, error) {
			d, ok := v.(time.Duration)
			if !ok {
				return nil, fmt.Errorf("expected time.Duration, got %T", v)
			}
			if d%time.Second != 0 {
				return nil, fmt.Errorf("duration %v is not a whole number of seconds", d)
			}
			return int64(d / time.Second), nil
		})
}
