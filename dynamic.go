package skemata

import (
	"bytes"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DynamicValue is the type-erased universal value representation mirroring
// Schema's shapes. Like Schema it is a closed sum over the pointer variants
// below. Instances are created per call and never mutated afterwards.
type DynamicValue interface {
	dynamicValue()
}

// DynRecord carries ordered named entries. Entry names are the declared
// field names; wire naming is a codec concern and never reaches this layer.
type DynRecord struct {
	TypeName string
	Entries  []DynEntry
}

// DynEntry is one named member of a DynRecord.
type DynEntry struct {
	Name  string
	Value DynamicValue
}

// Get returns the first entry with the given name.
func (r *DynRecord) Get(name string) (DynamicValue, bool) {
	for _, e := range r.Entries {
		if e.Name == name {
			return e.Value, true
		}
	}
	return nil, false
}

// DynEnum carries the active case of a sum value.
type DynEnum struct {
	TypeName string
	Case     string
	Value    DynamicValue
}

// DynSequence is an ordered list of values.
type DynSequence struct {
	Items []DynamicValue
}

// DynSet is an unordered collection of values.
type DynSet struct {
	Items []DynamicValue
}

// DynMap is an ordered list of key/value entries; keys are full values.
type DynMap struct {
	Entries []DynMapEntry
}

// DynMapEntry is one entry of a DynMap.
type DynMapEntry struct {
	Key   DynamicValue
	Value DynamicValue
}

// DynOptional is the zero-or-one box. Present distinguishes Some(None) from
// None when optionals nest.
type DynOptional struct {
	Present bool
	Value   DynamicValue
}

// DynTuple pairs two values.
type DynTuple struct {
	First  DynamicValue
	Second DynamicValue
}

// DynEither holds one of two alternatives.
type DynEither struct {
	IsRight bool
	Value   DynamicValue
}

// DynPrimitive is a leaf scalar tagged with its kind. Value holds the native
// scalar for the kind.
type DynPrimitive struct {
	Kind  PrimitiveKind
	Value any
}

// DynError embeds a projection failure as a value, keeping FromValue total.
type DynError struct {
	Message string
}

func (*DynRecord) dynamicValue()    {}
func (*DynEnum) dynamicValue()      {}
func (*DynSequence) dynamicValue()  {}
func (*DynSet) dynamicValue()       {}
func (*DynMap) dynamicValue()       {}
func (*DynOptional) dynamicValue()  {}
func (*DynTuple) dynamicValue()     {}
func (*DynEither) dynamicValue()    {}
func (*DynPrimitive) dynamicValue() {}
func (*DynError) dynamicValue()     {}

// FromValue projects a typed value into the universal representation, using
// the schema's shape to destructure it. It is total: incompatibilities embed
// as DynError nodes instead of failing.
func FromValue(s Schema, v any) DynamicValue {
	switch t := s.(type) {
	case *Primitive:
		if !primitiveNativeOK(t.Kind, v) {
			return &DynError{Message: fmt.Sprintf("expected %s value, got %T", t.Kind, v)}
		}
		return &DynPrimitive{Kind: t.Kind, Value: v}
	case *Optional:
		o, ok := v.(Option)
		if !ok {
			return &DynError{Message: fmt.Sprintf("expected Option, got %T", v)}
		}
		if !o.Present {
			return &DynOptional{}
		}
		return &DynOptional{Present: true, Value: FromValue(t.Inner, o.Value)}
	case *Tuple:
		p, ok := v.(Pair)
		if !ok {
			return &DynError{Message: fmt.Sprintf("expected Pair, got %T", v)}
		}
		return &DynTuple{First: FromValue(t.First, p.First), Second: FromValue(t.Second, p.Second)}
	case *Sequence:
		items, ok := v.([]any)
		if !ok {
			return &DynError{Message: fmt.Sprintf("expected []any, got %T", v)}
		}
		out := make([]DynamicValue, len(items))
		for i, it := range items {
			out[i] = FromValue(t.Element, it)
		}
		return &DynSequence{Items: out}
	case *Set:
		items, ok := v.([]any)
		if !ok {
			return &DynError{Message: fmt.Sprintf("expected []any, got %T", v)}
		}
		out := make([]DynamicValue, len(items))
		for i, it := range items {
			out[i] = FromValue(t.Element, it)
		}
		return &DynSet{Items: out}
	case *Mapping:
		entries, ok := v.([]Pair)
		if !ok {
			return &DynError{Message: fmt.Sprintf("expected []Pair, got %T", v)}
		}
		out := make([]DynMapEntry, len(entries))
		for i, e := range entries {
			out[i] = DynMapEntry{Key: FromValue(t.Key, e.First), Value: FromValue(t.Value, e.Second)}
		}
		return &DynMap{Entries: out}
	case *Either:
		e, ok := v.(EitherValue)
		if !ok {
			return &DynError{Message: fmt.Sprintf("expected EitherValue, got %T", v)}
		}
		side := t.Left
		if e.IsRight {
			side = t.Right
		}
		return &DynEither{IsRight: e.IsRight, Value: FromValue(side, e.Value)}
	case *Record:
		entries := make([]DynEntry, 0, len(t.Fields))
		for _, f := range t.Fields {
			entries = append(entries, DynEntry{Name: f.Name, Value: FromValue(f.Schema, f.Get(v))})
		}
		return &DynRecord{TypeName: t.TypeName, Entries: entries}
	case *Enumeration:
		for _, c := range t.Cases {
			if payload, ok := c.Unwrap(v); ok {
				return &DynEnum{TypeName: t.TypeName, Case: c.Name, Value: FromValue(c.Schema, payload)}
			}
		}
		return &DynError{Message: fmt.Sprintf("no case of %s matches %T", t.TypeName, v)}
	case *Lazy:
		return FromValue(t.Force(), v)
	case *Transform:
		if t.Encode == nil {
			return &DynError{Message: fmt.Sprintf("transform %s has no encode map", t.TypeName)}
		}
		base, err := t.Encode(v)
		if err != nil {
			return &DynError{Message: fmt.Sprintf("transform %s: %v", t.TypeName, err)}
		}
		return FromValue(t.Base, base)
	case *Dynamic:
		dv, ok := v.(DynamicValue)
		if !ok {
			return &DynError{Message: fmt.Sprintf("expected DynamicValue, got %T", v)}
		}
		return dv
	default:
		return &DynError{Message: fmt.Sprintf("unhandled schema %T", s)}
	}
}

// ToValue is the inverse of FromValue: it rebuilds a typed value from the
// universal representation, failing with one issue per structurally
// incompatible node.
func ToValue(s Schema, dv DynamicValue) (any, error) {
	var iss Issues
	v, ok := toValue(s, dv, "", &iss)
	if len(iss) > 0 {
		return nil, iss
	}
	if !ok {
		return nil, Issues{IssueAt("", CodeStructuralMismatch, "conversion failed")}
	}
	return v, nil
}

func toValue(s Schema, dv DynamicValue, path string, iss *Issues) (any, bool) {
	if dv == nil {
		*iss = AppendIssues(*iss, IssueAt(path, CodeStructuralMismatch, "missing value"))
		return nil, false
	}
	if de, ok := dv.(*DynError); ok {
		*iss = AppendIssues(*iss, IssueAt(path, CodeConversionFailure, de.Message))
		return nil, false
	}
	switch t := s.(type) {
	case *Primitive:
		p, ok := dv.(*DynPrimitive)
		if !ok || p.Kind != t.Kind {
			*iss = AppendIssues(*iss, IssueAt(path, CodeStructuralMismatch, fmt.Sprintf("expected %s primitive, got %s", t.Kind, dynShape(dv))))
			return nil, false
		}
		if !primitiveNativeOK(t.Kind, p.Value) {
			*iss = AppendIssues(*iss, IssueAt(path, CodeStructuralMismatch, fmt.Sprintf("expected %s value, got %T", t.Kind, p.Value)))
			return nil, false
		}
		return p.Value, true
	case *Optional:
		o, ok := dv.(*DynOptional)
		if !ok {
			*iss = AppendIssues(*iss, IssueAt(path, CodeStructuralMismatch, "expected optional, got "+dynShape(dv)))
			return nil, false
		}
		if !o.Present {
			return None(), true
		}
		inner, ok := toValue(t.Inner, o.Value, path, iss)
		if !ok {
			return nil, false
		}
		return Some(inner), true
	case *Tuple:
		p, ok := dv.(*DynTuple)
		if !ok {
			*iss = AppendIssues(*iss, IssueAt(path, CodeStructuralMismatch, "expected tuple, got "+dynShape(dv)))
			return nil, false
		}
		f, okF := toValue(t.First, p.First, path+"/0", iss)
		s2, okS := toValue(t.Second, p.Second, path+"/1", iss)
		if !okF || !okS {
			return nil, false
		}
		return Pair{First: f, Second: s2}, true
	case *Sequence:
		sq, ok := dv.(*DynSequence)
		if !ok {
			*iss = AppendIssues(*iss, IssueAt(path, CodeStructuralMismatch, "expected sequence, got "+dynShape(dv)))
			return nil, false
		}
		return dynItemsToValues(t.Element, sq.Items, path, iss)
	case *Set:
		st, ok := dv.(*DynSet)
		if !ok {
			*iss = AppendIssues(*iss, IssueAt(path, CodeStructuralMismatch, "expected set, got "+dynShape(dv)))
			return nil, false
		}
		return dynItemsToValues(t.Element, st.Items, path, iss)
	case *Mapping:
		m, ok := dv.(*DynMap)
		if !ok {
			*iss = AppendIssues(*iss, IssueAt(path, CodeStructuralMismatch, "expected map, got "+dynShape(dv)))
			return nil, false
		}
		out := make([]Pair, 0, len(m.Entries))
		allOK := true
		for i, e := range m.Entries {
			epath := fmt.Sprintf("%s/%d", path, i)
			k, okK := toValue(t.Key, e.Key, epath+"/0", iss)
			v, okV := toValue(t.Value, e.Value, epath+"/1", iss)
			if !okK || !okV {
				allOK = false
				continue
			}
			out = append(out, Pair{First: k, Second: v})
		}
		return out, allOK
	case *Either:
		e, ok := dv.(*DynEither)
		if !ok {
			*iss = AppendIssues(*iss, IssueAt(path, CodeStructuralMismatch, "expected either, got "+dynShape(dv)))
			return nil, false
		}
		side := t.Left
		if e.IsRight {
			side = t.Right
		}
		v, ok := toValue(side, e.Value, path, iss)
		if !ok {
			return nil, false
		}
		return EitherValue{IsRight: e.IsRight, Value: v}, true
	case *Record:
		r, ok := dv.(*DynRecord)
		if !ok {
			*iss = AppendIssues(*iss, IssueAt(path, CodeStructuralMismatch, "expected record, got "+dynShape(dv)))
			return nil, false
		}
		declared := make(map[string]bool, len(t.Fields))
		rec := t.New()
		allOK := true
		for _, f := range t.Fields {
			declared[f.Name] = true
			ev, found := r.Get(f.Name)
			if !found {
				*iss = AppendIssues(*iss, IssueAt(path+"/"+f.Name, CodeMissingField, "entry missing"))
				allOK = false
				continue
			}
			fv, okF := toValue(f.Schema, ev, path+"/"+f.Name, iss)
			if !okF {
				allOK = false
				continue
			}
			var err error
			rec, err = f.Set(rec, fv)
			if err != nil {
				*iss = AppendIssues(*iss, Issue{Path: normalizePointer(path + "/" + f.Name), Code: CodeConversionFailure, Message: err.Error(), Cause: err, Offset: -1})
				allOK = false
			}
		}
		for _, e := range r.Entries {
			if !declared[e.Name] {
				*iss = AppendIssues(*iss, IssueAt(path+"/"+e.Name, CodeUnknownField, "entry not declared by record "+t.TypeName))
				allOK = false
			}
		}
		return rec, allOK
	case *Enumeration:
		en, ok := dv.(*DynEnum)
		if !ok {
			*iss = AppendIssues(*iss, IssueAt(path, CodeStructuralMismatch, "expected enumeration, got "+dynShape(dv)))
			return nil, false
		}
		for _, c := range t.Cases {
			if c.Name != en.Case {
				continue
			}
			payload, okP := toValue(c.Schema, en.Value, path+"/"+c.Name, iss)
			if !okP {
				return nil, false
			}
			return c.Wrap(payload), true
		}
		*iss = AppendIssues(*iss, IssueAt(path, CodeUnknownCase, fmt.Sprintf("case %q not declared by %s", en.Case, t.TypeName)))
		return nil, false
	case *Lazy:
		return toValue(t.Force(), dv, path, iss)
	case *Transform:
		base, ok := toValue(t.Base, dv, path, iss)
		if !ok {
			return nil, false
		}
		if t.Decode == nil {
			*iss = AppendIssues(*iss, IssueAt(path, CodeConversionFailure, fmt.Sprintf("transform %s has no decode map", t.TypeName)))
			return nil, false
		}
		v, err := t.Decode(base)
		if err != nil {
			*iss = AppendIssues(*iss, Issue{Path: normalizePointer(path), Code: CodeConversionFailure, Message: err.Error(), Cause: err, Offset: -1})
			return nil, false
		}
		return v, true
	case *Dynamic:
		return dv, true
	default:
		*iss = AppendIssues(*iss, IssueAt(path, CodeStructuralMismatch, fmt.Sprintf("unhandled schema %T", s)))
		return nil, false
	}
}

func dynItemsToValues(elem Schema, items []DynamicValue, path string, iss *Issues) (any, bool) {
	out := make([]any, 0, len(items))
	allOK := true
	for i, it := range items {
		v, ok := toValue(elem, it, fmt.Sprintf("%s/%d", path, i), iss)
		if !ok {
			allOK = false
			continue
		}
		out = append(out, v)
	}
	return out, allOK
}

// EqualDynamic reports structural equality of two dynamic values. Primitive
// leaves compare by kind-aware scalar equality (big.Int by Cmp, decimals by
// Equal, times by Equal, bytes by content).
func EqualDynamic(a, b DynamicValue) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch x := a.(type) {
	case *DynRecord:
		y, ok := b.(*DynRecord)
		if !ok || x.TypeName != y.TypeName || len(x.Entries) != len(y.Entries) {
			return false
		}
		for i := range x.Entries {
			if x.Entries[i].Name != y.Entries[i].Name || !EqualDynamic(x.Entries[i].Value, y.Entries[i].Value) {
				return false
			}
		}
		return true
	case *DynEnum:
		y, ok := b.(*DynEnum)
		return ok && x.TypeName == y.TypeName && x.Case == y.Case && EqualDynamic(x.Value, y.Value)
	case *DynSequence:
		y, ok := b.(*DynSequence)
		return ok && equalDynamicItems(x.Items, y.Items)
	case *DynSet:
		y, ok := b.(*DynSet)
		return ok && equalDynamicItems(x.Items, y.Items)
	case *DynMap:
		y, ok := b.(*DynMap)
		if !ok || len(x.Entries) != len(y.Entries) {
			return false
		}
		for i := range x.Entries {
			if !EqualDynamic(x.Entries[i].Key, y.Entries[i].Key) || !EqualDynamic(x.Entries[i].Value, y.Entries[i].Value) {
				return false
			}
		}
		return true
	case *DynOptional:
		y, ok := b.(*DynOptional)
		if !ok || x.Present != y.Present {
			return false
		}
		return !x.Present || EqualDynamic(x.Value, y.Value)
	case *DynTuple:
		y, ok := b.(*DynTuple)
		return ok && EqualDynamic(x.First, y.First) && EqualDynamic(x.Second, y.Second)
	case *DynEither:
		y, ok := b.(*DynEither)
		return ok && x.IsRight == y.IsRight && EqualDynamic(x.Value, y.Value)
	case *DynPrimitive:
		y, ok := b.(*DynPrimitive)
		return ok && x.Kind == y.Kind && scalarEqual(x.Kind, x.Value, y.Value)
	case *DynError:
		y, ok := b.(*DynError)
		return ok && x.Message == y.Message
	default:
		return false
	}
}

func equalDynamicItems(a, b []DynamicValue) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !EqualDynamic(a[i], b[i]) {
			return false
		}
	}
	return true
}

func dynShape(dv DynamicValue) string {
	switch d := dv.(type) {
	case *DynRecord:
		return "record"
	case *DynEnum:
		return "enumeration"
	case *DynSequence:
		return "sequence"
	case *DynSet:
		return "set"
	case *DynMap:
		return "map"
	case *DynOptional:
		return "optional"
	case *DynTuple:
		return "tuple"
	case *DynEither:
		return "either"
	case *DynPrimitive:
		return d.Kind.String() + " primitive"
	case *DynError:
		return "error"
	default:
		return fmt.Sprintf("%T", dv)
	}
}

func primitiveNativeOK(k PrimitiveKind, v any) bool {
	switch k {
	case KindUnit:
		_, ok := v.(struct{})
		return ok
	case KindBool:
		_, ok := v.(bool)
		return ok
	case KindString:
		_, ok := v.(string)
		return ok
	case KindInt32:
		_, ok := v.(int32)
		return ok
	case KindInt64:
		_, ok := v.(int64)
		return ok
	case KindFloat32:
		_, ok := v.(float32)
		return ok
	case KindFloat64:
		_, ok := v.(float64)
		return ok
	case KindBigInt:
		z, ok := v.(*big.Int)
		return ok && z != nil
	case KindDecimal:
		_, ok := v.(decimal.Decimal)
		return ok
	case KindBytes:
		_, ok := v.([]byte)
		return ok
	case KindTime:
		_, ok := v.(time.Time)
		return ok
	case KindDuration:
		_, ok := v.(time.Duration)
		return ok
	case KindUUID:
		_, ok := v.(uuid.UUID)
		return ok
	default:
		return false
	}
}

func scalarEqual(k PrimitiveKind, a, b any) bool {
	switch k {
	case KindUnit:
		return true
	case KindBigInt:
		x, okX := a.(*big.Int)
		y, okY := b.(*big.Int)
		return okX && okY && x.Cmp(y) == 0
	case KindDecimal:
		x, okX := a.(decimal.Decimal)
		y, okY := b.(decimal.Decimal)
		return okX && okY && x.Equal(y)
	case KindBytes:
		x, okX := a.([]byte)
		y, okY := b.([]byte)
		return okX && okY && bytes.Equal(x, y)
	case KindTime:
		x, okX := a.(time.Time)
		y, okY := b.(time.Time)
		return okX && okY && x.Equal(y)
	default:
		return a == b
	}
}
