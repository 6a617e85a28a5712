package codec

import (
	"fmt"

	"github.com/shopspring/decimal"

	skemata "github.com/reoring/skemata"
)

// DecimalString converts between decimal strings and decimal.Decimal over a
// string base, for records that keep the wire field string-typed instead of
// using the decimal primitive.
func DecimalString() *skemata.Transform {
	return skemata.NewTransform(skemata.String(), "codec.DecimalString",
		func(base any) (any, error) {
			s, ok := base.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", base)
			}
			d, err := decimal.NewFromString(s)
			if err != nil {
				return nil, fmt.Errorf("invalid decimal %q", s)
			}
			return d, nil
		},
		func(v any) (any, error) {
			d, ok := v.(decimal.Decimal)
			if !ok {
				return nil, fmt.Errorf("expected decimal.Decimal, got %T", v)
			}
			return d.String(), nil
		})
}
