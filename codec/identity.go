// Package codec provides Transform constructors for common wire<->native
// conversions. Each keeps the wire shape a plain scalar while the native side
// gets the richer type; rejected values surface as conversion_failure issues
// carrying the error text verbatim.
package codec

import (
	skemata "github.com/reoring/skemata"
)

// Identity returns a transform that passes the base schema's native values
// through unchanged while giving the node its own type name. Useful to tag a
// structural shape with a nominal identity without touching the data.
func Identity(base skemata.Schema, name string) *skemata.Transform {
	id := func(v any) (any, error) { return v, nil }
	return skemata.NewTransform(base, name, id, id)
}
