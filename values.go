package skemata

// Value conventions used by the structural walks. Composite natives are plain
// boxes rather than pointers so that nesting stays unambiguous: Some(None) and
// None are distinct values.

// Option boxes the zero-or-one state of an Optional schema's native value.
type Option struct {
	Present bool
	Value   any
}

// Some wraps a present value.
func Some(v any) Option { return Option{Present: true, Value: v} }

// None is the absent state.
func None() Option { return Option{} }

// Pair is the native convention for Tuple values and for single MapOf entries.
type Pair struct {
	First  any
	Second any
}

// EitherValue holds exactly one of two alternatives.
type EitherValue struct {
	IsRight bool
	Value   any
}

// Left wraps the left alternative.
func Left(v any) EitherValue { return EitherValue{Value: v} }

// Right wraps the right alternative.
func Right(v any) EitherValue { return EitherValue{IsRight: true, Value: v} }

// CaseValue is the generic carrier for decoded enumeration values when a case
// carries no native wrap/unwrap capabilities (schemas reconstructed from the
// meta-schema use it).
type CaseValue struct {
	Case  string
	Value any
}
