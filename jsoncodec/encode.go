// Package jsoncodec walks schemas against a streaming JSON wire: encode
// pushes tokens through the engine writer, decode builds one top-level value
// per call and checks it structurally. All failures are skemata.Issues
// values with JSON-Pointer paths; nothing panics.
package jsoncodec

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"math"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	skemata "github.com/reoring/skemata"
	"github.com/reoring/skemata/i18n"
	eng "github.com/reoring/skemata/internal/engine"
)

// Encode renders one value of the schema's native type as compact JSON.
func Encode(ctx context.Context, s skemata.Schema, v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(ctx, s, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeTo renders one value directly to w.
func EncodeTo(ctx context.Context, w io.Writer, s skemata.Schema, v any) error {
	return NewEncoder(w).Encode(ctx, s, v)
}

// Encoder streams successive top-level values to one writer, separated by
// newlines. After a failed Encode the stream may hold a partial value and
// should be abandoned.
type Encoder struct {
	w *eng.Writer
}

// NewEncoder returns an Encoder emitting to w.
func NewEncoder(w io.Writer) *Encoder { return &Encoder{w: eng.NewWriter(w)} }

// Encode appends one encoded value to the stream. Errors are skemata.Issues
// except for context cancellation and writer I/O failures, which are wrapped.
func (e *Encoder) Encode(ctx context.Context, s skemata.Schema, v any) error {
	if err := ctx.Err(); err != nil {
		return skemata.WrapAsIssues(err)
	}
	enc := &encoder{w: e.w}
	enc.value(s, v, "")
	if len(enc.iss) > 0 {
		return enc.iss
	}
	if err := e.w.Err(); err != nil {
		return skemata.WrapAsIssues(err)
	}
	return nil
}

// encoder is the per-call walk state. The walk stops at the first issue so
// the stream never carries tokens for a value that failed to resolve.
type encoder struct {
	w   *eng.Writer
	iss skemata.Issues
}

func (e *encoder) issue(path, code, hint string) bool {
	e.iss = skemata.AppendIssues(e.iss, skemata.Issue{
		Path:    normPath(path),
		Code:    code,
		Message: i18n.T(code, nil),
		Hint:    hint,
		Offset:  -1,
	})
	return false
}

func (e *encoder) issueErr(path, code string, err error) bool {
	e.iss = skemata.AppendIssues(e.iss, skemata.Issue{
		Path:    normPath(path),
		Code:    code,
		Message: err.Error(),
		Cause:   err,
		Offset:  -1,
	})
	return false
}

func (e *encoder) typeMismatch(path, want string, got any) bool {
	return e.issue(path, skemata.CodeStructuralMismatch, fmt.Sprintf("expected %s value, got %T", want, got))
}

func (e *encoder) value(s skemata.Schema, v any, path string) bool {
	switch t := s.(type) {
	case *skemata.Primitive:
		return e.scalar(t.Kind, v, path)
	case *skemata.Optional:
		o, ok := v.(skemata.Option)
		if !ok {
			return e.typeMismatch(path, "Option", v)
		}
		if !o.Present {
			e.w.Null()
			return true
		}
		return e.value(t.Inner, o.Value, path)
	case *skemata.Tuple:
		p, ok := v.(skemata.Pair)
		if !ok {
			return e.typeMismatch(path, "Pair", v)
		}
		e.w.BeginArray()
		if !e.value(t.First, p.First, joinPath(path, "0")) {
			return false
		}
		if !e.value(t.Second, p.Second, joinPath(path, "1")) {
			return false
		}
		e.w.EndArray()
		return true
	case *skemata.Sequence:
		return e.elements(t.Element, v, path)
	case *skemata.Set:
		return e.elements(t.Element, v, path)
	case *skemata.Mapping:
		entries, ok := v.([]skemata.Pair)
		if !ok {
			return e.typeMismatch(path, "[]Pair", v)
		}
		e.w.BeginArray()
		for i, ent := range entries {
			epath := joinPath(path, strconv.Itoa(i))
			e.w.BeginArray()
			if !e.value(t.Key, ent.First, joinPath(epath, "0")) {
				return false
			}
			if !e.value(t.Value, ent.Second, joinPath(epath, "1")) {
				return false
			}
			e.w.EndArray()
		}
		e.w.EndArray()
		return true
	case *skemata.Either:
		ev, ok := v.(skemata.EitherValue)
		if !ok {
			return e.typeMismatch(path, "EitherValue", v)
		}
		side, key := t.Left, "left"
		if ev.IsRight {
			side, key = t.Right, "right"
		}
		e.w.BeginObject()
		e.w.Key(key)
		if !e.value(side, ev.Value, joinPath(path, key)) {
			return false
		}
		e.w.EndObject()
		return true
	case *skemata.Record:
		return e.record(t, v, path, "", "")
	case *skemata.Enumeration:
		return e.enumeration(t, v, path)
	case *skemata.Lazy:
		forced := t.Force()
		if forced == nil {
			return e.issue(path, skemata.CodeStructuralMismatch, "lazy schema resolved to nil")
		}
		return e.value(forced, v, path)
	case *skemata.Transform:
		if t.Encode == nil {
			return e.issue(path, skemata.CodeConversionFailure, fmt.Sprintf("transform %s has no encode map", t.TypeName))
		}
		base, err := t.Encode(v)
		if err != nil {
			return e.issueErr(path, skemata.CodeConversionFailure, err)
		}
		return e.value(t.Base, base, path)
	case *skemata.Dynamic:
		dv, ok := v.(skemata.DynamicValue)
		if !ok {
			return e.typeMismatch(path, "DynamicValue", v)
		}
		if skemata.DirectDynamicMapping(t) {
			return e.dynamicDirect(dv, path)
		}
		return e.dynamicTagged(dv, path)
	case nil:
		return e.issue(path, skemata.CodeStructuralMismatch, "nil schema")
	default:
		return e.issue(path, skemata.CodeStructuralMismatch, fmt.Sprintf("unhandled schema %T", s))
	}
}

func (e *encoder) elements(elem skemata.Schema, v any, path string) bool {
	items, ok := v.([]any)
	if !ok {
		return e.typeMismatch(path, "[]any", v)
	}
	e.w.BeginArray()
	for i, it := range items {
		if !e.value(elem, it, joinPath(path, strconv.Itoa(i))) {
			return false
		}
	}
	e.w.EndArray()
	return true
}

// record writes one object. When discKey is non-empty the object carries the
// discriminator pair first, ahead of the case's own fields.
func (e *encoder) record(t *skemata.Record, v any, path, discKey, discValue string) bool {
	e.w.BeginObject()
	if discKey != "" {
		e.w.Key(discKey)
		e.w.String(discValue)
	}
	for _, f := range t.Fields {
		if skemata.IsTransient(f.Meta) {
			continue
		}
		fv := f.Get(v)
		if skemata.OmitWhenAbsent(f.Meta) {
			if o, ok := fv.(skemata.Option); ok && !o.Present {
				continue
			}
		}
		wire := skemata.FieldWireName(f)
		e.w.Key(wire)
		if !e.value(f.Schema, fv, joinPath(path, wire)) {
			return false
		}
	}
	e.w.EndObject()
	return true
}

func (e *encoder) enumeration(t *skemata.Enumeration, v any, path string) bool {
	var active *skemata.Case
	var payload any
	transientMatch := false
	for i := range t.Cases {
		c := &t.Cases[i]
		p, ok := c.Unwrap(v)
		if !ok {
			continue
		}
		if skemata.IsTransient(c.Meta) {
			transientMatch = true
			continue
		}
		active, payload = c, p
		break
	}
	if active == nil {
		if transientMatch {
			return e.issue(path, skemata.CodeNoCaseMatched, "value matches only transient cases of "+t.TypeName)
		}
		return e.issue(path, skemata.CodeNoCaseMatched, fmt.Sprintf("no case of %s matches %T", t.TypeName, v))
	}
	wire := skemata.CaseWireName(*active)
	if disc, ok := skemata.DiscriminatorName(t); ok {
		rec, rv, err := flattenEncodeTarget(active.Schema, payload)
		if err != nil {
			return e.issueErr(path, skemata.CodeStructuralMismatch, err)
		}
		return e.record(rec, rv, path, disc, wire)
	}
	if skemata.NoDiscriminator(t) {
		return e.value(active.Schema, payload, path)
	}
	e.w.BeginObject()
	e.w.Key(wire)
	if !e.value(active.Schema, payload, joinPath(path, wire)) {
		return false
	}
	e.w.EndObject()
	return true
}

// flattenEncodeTarget resolves a case payload schema through Lazy and
// Transform layers down to the record the discriminator flattens into,
// converting the payload value along the way.
func flattenEncodeTarget(s skemata.Schema, v any) (*skemata.Record, any, error) {
	for {
		switch t := s.(type) {
		case *skemata.Record:
			return t, v, nil
		case *skemata.Lazy:
			s = t.Force()
			if s == nil {
				return nil, nil, fmt.Errorf("lazy schema resolved to nil")
			}
		case *skemata.Transform:
			if t.Encode == nil {
				return nil, nil, fmt.Errorf("transform %s has no encode map", t.TypeName)
			}
			b, err := t.Encode(v)
			if err != nil {
				return nil, nil, err
			}
			s, v = t.Base, b
		default:
			return nil, nil, fmt.Errorf("discriminator flattening requires a record-shaped case payload, have %s", schemaShape(s))
		}
	}
}

func (e *encoder) scalar(k skemata.PrimitiveKind, v any, path string) bool {
	switch k {
	case skemata.KindUnit:
		if _, ok := v.(struct{}); !ok {
			return e.typeMismatch(path, "unit", v)
		}
		e.w.BeginObject()
		e.w.EndObject()
	case skemata.KindBool:
		b, ok := v.(bool)
		if !ok {
			return e.typeMismatch(path, "bool", v)
		}
		e.w.Bool(b)
	case skemata.KindString:
		s, ok := v.(string)
		if !ok {
			return e.typeMismatch(path, "string", v)
		}
		e.w.String(s)
	case skemata.KindInt32:
		i, ok := v.(int32)
		if !ok {
			return e.typeMismatch(path, "int32", v)
		}
		e.w.Number(strconv.FormatInt(int64(i), 10))
	case skemata.KindInt64:
		i, ok := v.(int64)
		if !ok {
			return e.typeMismatch(path, "int64", v)
		}
		e.w.Number(strconv.FormatInt(i, 10))
	case skemata.KindFloat32:
		f, ok := v.(float32)
		if !ok {
			return e.typeMismatch(path, "float32", v)
		}
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return e.issue(path, skemata.CodeMalformedScalar, "float32 value is not finite")
		}
		e.w.Number(strconv.FormatFloat(float64(f), 'g', -1, 32))
	case skemata.KindFloat64:
		f, ok := v.(float64)
		if !ok {
			return e.typeMismatch(path, "float64", v)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return e.issue(path, skemata.CodeMalformedScalar, "float64 value is not finite")
		}
		e.w.Number(strconv.FormatFloat(f, 'g', -1, 64))
	case skemata.KindBigInt:
		z, ok := v.(*big.Int)
		if !ok || z == nil {
			return e.typeMismatch(path, "*big.Int", v)
		}
		e.w.String(z.String())
	case skemata.KindDecimal:
		d, ok := v.(decimal.Decimal)
		if !ok {
			return e.typeMismatch(path, "decimal.Decimal", v)
		}
		e.w.String(d.String())
	case skemata.KindBytes:
		b, ok := v.([]byte)
		if !ok {
			return e.typeMismatch(path, "[]byte", v)
		}
		e.w.String(base64.StdEncoding.EncodeToString(b))
	case skemata.KindTime:
		tm, ok := v.(time.Time)
		if !ok {
			return e.typeMismatch(path, "time.Time", v)
		}
		e.w.String(tm.UTC().Format(time.RFC3339Nano))
	case skemata.KindDuration:
		d, ok := v.(time.Duration)
		if !ok {
			return e.typeMismatch(path, "time.Duration", v)
		}
		e.w.String(d.String())
	case skemata.KindUUID:
		u, ok := v.(uuid.UUID)
		if !ok {
			return e.typeMismatch(path, "uuid.UUID", v)
		}
		e.w.String(u.String())
	default:
		return e.issue(path, skemata.CodeStructuralMismatch, fmt.Sprintf("unknown primitive kind %d", k))
	}
	return true
}

func joinPath(base, token string) string { return eng.JoinPointer(base, token) }

func normPath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

func schemaShape(s skemata.Schema) string {
	switch s.(type) {
	case *skemata.Primitive:
		return "primitive"
	case *skemata.Optional:
		return "optional"
	case *skemata.Tuple:
		return "tuple"
	case *skemata.Sequence:
		return "sequence"
	case *skemata.Mapping:
		return "map"
	case *skemata.Set:
		return "set"
	case *skemata.Either:
		return "either"
	case *skemata.Record:
		return "record"
	case *skemata.Enumeration:
		return "enumeration"
	case *skemata.Lazy:
		return "lazy"
	case *skemata.Transform:
		return "transform"
	case *skemata.Dynamic:
		return "dynamic"
	default:
		return fmt.Sprintf("%T", s)
	}
}
