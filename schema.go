package skemata

import (
	"fmt"
	"sync"
)

// Schema is the runtime description of a data shape. It is a closed sum:
// only the pointer variant types in this file implement it, and every walker
// in this module switches exhaustively over them. Pointer identity doubles as
// node identity for cycle guards.
//
// Schema values are immutable once built, except for the one-time memo inside
// Lazy, so independent encode/decode calls may share them freely.
type Schema interface {
	schemaNode()
}

// Primitive is a leaf scalar of a fixed kind.
type Primitive struct {
	Kind PrimitiveKind
}

// Optional wraps zero-or-one of Inner. Native convention: Option.
type Optional struct {
	Inner Schema
}

// Tuple is a fixed-arity heterogeneous pair. Native convention: Pair.
// Wider tuples nest.
type Tuple struct {
	First  Schema
	Second Schema
}

// Sequence is an ordered homogeneous collection. Native convention: []any.
type Sequence struct {
	Element Schema
}

// Mapping is a keyed collection carried on the wire as an ordered sequence of
// entry pairs, so keys are not restricted to strings. Native convention:
// []Pair in entry order.
type Mapping struct {
	Key   Schema
	Value Schema
}

// Set is an unordered collection, wire-represented as a sequence. Decode has
// no duplicate-detection obligation. Native convention: []any.
type Set struct {
	Element Schema
}

// Either holds exactly one of two alternatives with no inherent wire tag
// beyond the one-key object shape. Native convention: EitherValue.
type Either struct {
	Left  Schema
	Right Schema
}

// Field describes one named member of a Record. Get and Set are explicit
// capabilities, plain function values with fixed signatures; no reflection is
// involved anywhere. Set returns the updated record so immutable carriers
// work too.
type Field struct {
	Name   string
	Schema Schema
	Get    func(rec any) any
	Set    func(rec any, v any) (any, error)
	Meta   Annotations
}

// Record is a product type with ordered named fields. Field names are unique
// within a record. New allocates the empty native carrier a decode folds
// Set calls into.
type Record struct {
	TypeName string
	Fields   []Field
	New      func() any
	Meta     Annotations
}

// Case describes one alternative of an Enumeration. Wrap injects a payload
// into the parent native type; Unwrap tests a parent value and extracts the
// payload when this case is active.
type Case struct {
	Name   string
	Schema Schema
	Wrap   func(payload any) any
	Unwrap func(parent any) (any, bool)
	Meta   Annotations
}

// Enumeration is a sum type with ordered named cases.
type Enumeration struct {
	TypeName string
	Cases    []Case
	Meta     Annotations
}

// Lazy defers schema construction until first use, memoized so that
// self-referential and mutually recursive graphs resolve without infinite
// construction. The memo is single-assignment: the first Force wins and all
// readers observe the same schema afterwards, even under concurrent first
// force.
type Lazy struct {
	fn   func() Schema
	once sync.Once
	s    Schema
}

// Force resolves the deferred schema, running the constructor at most once.
func (l *Lazy) Force() Schema {
	l.once.Do(func() {
		l.s = l.fn()
		l.fn = nil
	})
	return l.s
}

// Transform keeps Base's wire shape while changing the native type through a
// fallible decode map and its encode inverse.
type Transform struct {
	Base     Schema
	TypeName string
	Decode   func(base any) (any, error)
	Encode   func(v any) (any, error)
}

// Dynamic is the schema whose native type is DynamicValue. DirectMapping
// switches the wire rendering from the universal tagged form to bare
// structural JSON.
type Dynamic struct {
	DirectMapping bool
}

func (*Primitive) schemaNode()   {}
func (*Optional) schemaNode()    {}
func (*Tuple) schemaNode()       {}
func (*Sequence) schemaNode()    {}
func (*Mapping) schemaNode()     {}
func (*Set) schemaNode()         {}
func (*Either) schemaNode()      {}
func (*Record) schemaNode()      {}
func (*Enumeration) schemaNode() {}
func (*Lazy) schemaNode()        {}
func (*Transform) schemaNode()   {}
func (*Dynamic) schemaNode()     {}

// Prim returns the primitive schema of the given kind.
func Prim(k PrimitiveKind) *Primitive { return &Primitive{Kind: k} }

// Sugar constructors for the primitive kinds.
func Unit() *Primitive     { return Prim(KindUnit) }
func Bool() *Primitive     { return Prim(KindBool) }
func String() *Primitive   { return Prim(KindString) }
func Int32() *Primitive    { return Prim(KindInt32) }
func Int64() *Primitive    { return Prim(KindInt64) }
func Float32() *Primitive  { return Prim(KindFloat32) }
func Float64() *Primitive  { return Prim(KindFloat64) }
func BigInt() *Primitive   { return Prim(KindBigInt) }
func Decimal() *Primitive  { return Prim(KindDecimal) }
func Bytes() *Primitive    { return Prim(KindBytes) }
func Time() *Primitive     { return Prim(KindTime) }
func Duration() *Primitive { return Prim(KindDuration) }
func UUID() *Primitive     { return Prim(KindUUID) }

// OptionalOf wraps inner as zero-or-one.
func OptionalOf(inner Schema) *Optional { return &Optional{Inner: inner} }

// TupleOf pairs two schemas.
func TupleOf(first, second Schema) *Tuple { return &Tuple{First: first, Second: second} }

// SequenceOf describes an ordered collection of element.
func SequenceOf(element Schema) *Sequence { return &Sequence{Element: element} }

// MapOf describes a keyed collection; keys may be any schema.
func MapOf(key, value Schema) *Mapping { return &Mapping{Key: key, Value: value} }

// SetOf describes an unordered collection of element.
func SetOf(element Schema) *Set { return &Set{Element: element} }

// EitherOf describes exactly-one-of-two alternatives.
func EitherOf(left, right Schema) *Either { return &Either{Left: left, Right: right} }

// NewField builds a Field. Passing nil for get/set installs map-backed
// capabilities over map[string]any, the carrier used for schemas
// reconstructed from the meta-schema.
func NewField(name string, s Schema, get func(any) any, set func(any, any) (any, error)) Field {
	if get == nil {
		get = mapFieldGet(name)
	}
	if set == nil {
		set = mapFieldSet(name)
	}
	return Field{Name: name, Schema: s, Get: get, Set: set}
}

// MapField is shorthand for a map-backed field.
func MapField(name string, s Schema) Field { return NewField(name, s, nil, nil) }

// WithWireName overrides the field's wire name.
func (f Field) WithWireName(name string) Field {
	f.Meta.Name = name
	return f
}

// WithAliases registers decode-only alternate names, tried in order when the
// primary wire name is absent.
func (f Field) WithAliases(aliases ...string) Field {
	f.Meta.Aliases = append([]string(nil), aliases...)
	return f
}

// Transient excludes the field from the wire entirely; decode supplies its
// default.
func (f Field) Transient() Field {
	f.Meta.Transient = true
	return f
}

// OmitEmpty omits the key on encode when the field's Optional value is
// absent; on decode an absent key maps back to the absent state.
func (f Field) OmitEmpty() Field {
	f.Meta.OmitWhenAbsent = true
	return f
}

// WithDefault substitutes v when a required field's key is missing from the
// input.
func (f Field) WithDefault(v any) Field {
	f.Meta.Default = v
	f.Meta.HasDefault = true
	return f
}

// NewRecord builds a Record. Passing nil for newFn installs the map-backed
// carrier (map[string]any).
func NewRecord(typeName string, newFn func() any, fields ...Field) *Record {
	if newFn == nil {
		newFn = func() any { return map[string]any{} }
	}
	return &Record{TypeName: typeName, Fields: fields, New: newFn}
}

// RejectUnknownFields makes decode fail on wire keys that match no declared
// field name or alias.
func (r *Record) RejectUnknownFields() *Record {
	r.Meta.RejectUnknown = true
	return r
}

// NewCase builds a Case. Passing nil for wrap/unwrap installs CaseValue-boxed
// capabilities, the carrier used for schemas reconstructed from the
// meta-schema.
func NewCase(name string, s Schema, wrap func(any) any, unwrap func(any) (any, bool)) Case {
	if wrap == nil {
		wrap = func(payload any) any { return CaseValue{Case: name, Value: payload} }
	}
	if unwrap == nil {
		unwrap = func(parent any) (any, bool) {
			cv, ok := parent.(CaseValue)
			if !ok || cv.Case != name {
				return nil, false
			}
			return cv.Value, true
		}
	}
	return Case{Name: name, Schema: s, Wrap: wrap, Unwrap: unwrap}
}

// MapCase is shorthand for a CaseValue-boxed case.
func MapCase(name string, s Schema) Case { return NewCase(name, s, nil, nil) }

// WithWireName overrides the case's wire name.
func (c Case) WithWireName(name string) Case {
	c.Meta.Name = name
	return c
}

// WithAliases registers decode-only alternate case names.
func (c Case) WithAliases(aliases ...string) Case {
	c.Meta.Aliases = append([]string(nil), aliases...)
	return c
}

// Transient excludes the case from the wire; it is never matched on encode
// and never tried on decode.
func (c Case) Transient() Case {
	c.Meta.Transient = true
	return c
}

// NewEnumeration builds an Enumeration from ordered cases.
func NewEnumeration(typeName string, cases ...Case) *Enumeration {
	return &Enumeration{TypeName: typeName, Cases: cases}
}

// WithDiscriminator flattens every case into a single object carrying the
// case's fields plus one extra key of the given name holding the case's wire
// name. Case payloads must be record-shaped.
func (e *Enumeration) WithDiscriminator(name string) *Enumeration {
	e.Meta.Discriminator = name
	e.Meta.NoDiscriminator = false
	return e
}

// WithoutDiscriminator drops the one-key wrapping: payloads are encoded bare
// and decode tries every case in declaration order, committing to the first
// success. When two cases can decode the same input the first declared wins;
// this is a modeling hazard the caller accepts.
func (e *Enumeration) WithoutDiscriminator() *Enumeration {
	e.Meta.Discriminator = ""
	e.Meta.NoDiscriminator = true
	return e
}

// Defer wraps a schema constructor for lazy, memoized resolution. The
// closure must not itself call Force on the node being constructed.
func Defer(fn func() Schema) *Lazy {
	if fn == nil {
		fn = func() Schema { return nil }
	}
	return &Lazy{fn: fn}
}

// NewTransform keeps base's wire shape while converting between the base
// native type and a new one. decode may reject values; encode is expected to
// be total for values the transform produced.
func NewTransform(base Schema, typeName string, decode, encode func(any) (any, error)) *Transform {
	return &Transform{Base: base, TypeName: typeName, Decode: decode, Encode: encode}
}

// DynamicSchema returns the universal schema using the tagged wire rendering.
func DynamicSchema() *Dynamic { return &Dynamic{} }

// DynamicDirect returns the universal schema rendering bare structural JSON.
func DynamicDirect() *Dynamic { return &Dynamic{DirectMapping: true} }

func mapFieldGet(name string) func(any) any {
	return func(rec any) any {
		m, ok := rec.(map[string]any)
		if !ok {
			return nil
		}
		return m[name]
	}
}

func mapFieldSet(name string) func(any, any) (any, error) {
	return func(rec any, v any) (any, error) {
		m, ok := rec.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("map-backed field %q requires map[string]any, got %T", name, rec)
		}
		m[name] = v
		return m, nil
	}
}
