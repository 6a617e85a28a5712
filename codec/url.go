package codec

import (
	"fmt"
	"net/url"

	skemata "github.com/reoring/skemata"
)

// URL converts between URL strings and *url.URL.
func URL() *skemata.Transform {
	return skemata.NewTransform(skemata.String(), "codec.URL",
		func(base any) (any, error) {
			s, ok := base.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", base)
			}
			u, err := url.Parse(s)
			if err != nil {
				return nil, fmt.Errorf("invalid URL: %w", err)
			}
			return u, nil
		},
		func(v any) (any, error) {
			u, ok := v.(*url.URL)
			if !ok || u == nil {
				return nil, fmt.Errorf("expected *url.URL, got %T", v)
			}
			return u.String(), nil
		})
}
