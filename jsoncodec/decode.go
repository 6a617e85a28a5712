package jsoncodec

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	skemata "github.com/reoring/skemata"
	"github.com/reoring/skemata/i18n"
	eng "github.com/reoring/skemata/internal/engine"
)

// Decode parses one complete JSON document against the schema and returns the
// native value. Failures come back as skemata.Issues. Duplicate-key warnings
// under Warn strictness are only observable through a Decoder.
func Decode(ctx context.Context, s skemata.Schema, data []byte, opts ...skemata.DecodeOpt) (any, error) {
	return DecodeFrom(ctx, s, skemata.JSONBytes(data), opts...)
}

// DecodeFrom is Decode over an arbitrary token source (alternate JSON
// drivers, the YAML source).
func DecodeFrom(ctx context.Context, s skemata.Schema, src skemata.Source, opts ...skemata.DecodeOpt) (any, error) {
	v, err := NewDecoder(src).Decode(ctx, s, opts...)
	if err == io.EOF {
		return nil, skemata.Issues{{
			Path:    "/",
			Code:    skemata.CodeParseError,
			Message: i18n.T(skemata.CodeParseError, nil),
			Hint:    "empty input",
			Offset:  -1,
		}}
	}
	return v, err
}

// DecodeValue checks a pre-parsed JSON-like tree (maps, slices, scalars)
// against the schema, skipping tokenization entirely. Numbers in the tree may
// be json.Number, float64, or Go integer types.
func DecodeValue(ctx context.Context, s skemata.Schema, v any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, skemata.WrapAsIssues(err)
	}
	dec := &decoder{}
	out, ok := dec.value(s, v, "")
	if !ok || len(dec.iss) > 0 {
		return nil, dec.iss
	}
	return out, nil
}

// Decoder pulls successive top-level values from one source. Decode returns
// io.EOF once the stream is cleanly exhausted.
type Decoder struct {
	src   skemata.Source
	warns skemata.Issues
}

// NewDecoder returns a Decoder reading from src.
func NewDecoder(src skemata.Source) *Decoder { return &Decoder{src: src} }

// Decode consumes exactly one top-level value from the stream and checks it
// against the schema. Options apply per call; opts[0] wins when several are
// passed.
func (d *Decoder) Decode(ctx context.Context, s skemata.Schema, opts ...skemata.DecodeOpt) (any, error) {
	var opt skemata.DecodeOpt
	if len(opts) > 0 {
		opt = opts[0]
	}
	if err := ctx.Err(); err != nil {
		return nil, skemata.WrapAsIssues(err)
	}
	src := d.src
	if opt.Strictness.OnDuplicateKey != skemata.Ignore || opt.MaxDepth > 0 || opt.MaxBytes > 0 {
		src = skemata.EnforceSourceWith(src, opt, func(is skemata.Issue) {
			d.warns = skemata.AppendIssues(d.warns, is)
		})
	}
	raw, err := eng.DecodeAnyFromSource(skemata.EngineTokenSource(src))
	if err != nil {
		return nil, d.pullError(err)
	}
	dec := &decoder{opt: opt}
	out, ok := dec.value(s, raw, "")
	if !ok || len(dec.iss) > 0 {
		return nil, dec.iss
	}
	return out, nil
}

// Warnings returns advisory issues collected so far (duplicate keys under
// Warn strictness), across all Decode calls on this Decoder.
func (d *Decoder) Warnings() skemata.Issues { return d.warns }

func (d *Decoder) pullError(err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return skemata.Issues{{
			Path:    "/",
			Code:    skemata.CodeTruncated,
			Message: i18n.T(skemata.CodeTruncated, nil),
			Hint:    "input ended inside a value",
			Cause:   err,
			Offset:  d.src.Location(),
		}}
	}
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	var ie eng.IssueError
	if errors.As(err, &ie) {
		return skemata.Issues{{
			Path:    ie.Path,
			Code:    ie.Code,
			Message: ie.Message,
			Cause:   err,
			Offset:  d.src.Location(),
		}}
	}
	return skemata.WrapAsIssues(err)
}

// decoder is the per-call walk state. Records collect issues across their
// fields; every other composite stops at its first failing child. FailFast
// aborts the whole walk at the first issue.
type decoder struct {
	opt skemata.DecodeOpt
	iss skemata.Issues
}

func (d *decoder) fail(path, code, hint string) (any, bool) {
	d.iss = skemata.AppendIssues(d.iss, skemata.Issue{
		Path:    normPath(path),
		Code:    code,
		Message: i18n.T(code, nil),
		Hint:    hint,
		Offset:  -1,
	})
	return nil, false
}

func (d *decoder) mismatch(path, want string, av any) (any, bool) {
	got := jsonShape(av)
	d.iss = skemata.AppendIssues(d.iss, skemata.Issue{
		Path:    normPath(path),
		Code:    skemata.CodeStructuralMismatch,
		Message: i18n.T(skemata.CodeStructuralMismatch, nil),
		Hint:    fmt.Sprintf("expected %s, got %s", want, got),
		Offset:  -1,
		Params:  map[string]any{"want": want, "got": got},
	})
	return nil, false
}

func (d *decoder) malformed(path, hint string, cause error) (any, bool) {
	d.iss = skemata.AppendIssues(d.iss, skemata.Issue{
		Path:    normPath(path),
		Code:    skemata.CodeMalformedScalar,
		Message: i18n.T(skemata.CodeMalformedScalar, nil),
		Hint:    hint,
		Cause:   cause,
		Offset:  -1,
	})
	return nil, false
}

// convFail reports a transform rejection. The mapping error's own text is the
// message so callers see exactly what the conversion said.
func (d *decoder) convFail(path string, err error) (any, bool) {
	d.iss = skemata.AppendIssues(d.iss, skemata.Issue{
		Path:    normPath(path),
		Code:    skemata.CodeConversionFailure,
		Message: err.Error(),
		Cause:   err,
		Offset:  -1,
	})
	return nil, false
}

func (d *decoder) value(s skemata.Schema, av any, path string) (any, bool) {
	switch t := s.(type) {
	case *skemata.Primitive:
		return d.scalar(t.Kind, av, path)
	case *skemata.Optional:
		if av == nil {
			return skemata.None(), true
		}
		v, ok := d.value(t.Inner, av, path)
		if !ok {
			return nil, false
		}
		return skemata.Some(v), true
	case *skemata.Tuple:
		arr, ok := av.([]any)
		if !ok {
			return d.mismatch(path, "array", av)
		}
		if len(arr) != 2 {
			return d.fail(path, skemata.CodeStructuralMismatch, fmt.Sprintf("tuple needs 2 elements, have %d", len(arr)))
		}
		first, ok := d.value(t.First, arr[0], joinPath(path, "0"))
		if !ok {
			return nil, false
		}
		second, ok := d.value(t.Second, arr[1], joinPath(path, "1"))
		if !ok {
			return nil, false
		}
		return skemata.Pair{First: first, Second: second}, true
	case *skemata.Sequence:
		return d.elements(t.Element, av, path)
	case *skemata.Set:
		return d.elements(t.Element, av, path)
	case *skemata.Mapping:
		arr, ok := av.([]any)
		if !ok {
			return d.mismatch(path, "array", av)
		}
		out := make([]skemata.Pair, 0, len(arr))
		for i, el := range arr {
			epath := joinPath(path, strconv.Itoa(i))
			ent, ok := el.([]any)
			if !ok || len(ent) != 2 {
				return d.fail(epath, skemata.CodeStructuralMismatch, "map entry must be a 2-element array")
			}
			k, ok := d.value(t.Key, ent[0], joinPath(epath, "0"))
			if !ok {
				return nil, false
			}
			v, ok := d.value(t.Value, ent[1], joinPath(epath, "1"))
			if !ok {
				return nil, false
			}
			out = append(out, skemata.Pair{First: k, Second: v})
		}
		return out, true
	case *skemata.Either:
		obj, ok := av.(map[string]any)
		if !ok {
			return d.mismatch(path, "object", av)
		}
		if len(obj) != 1 {
			return d.fail(path, skemata.CodeStructuralMismatch, fmt.Sprintf(`either needs a single "left" or "right" key, have %d keys`, len(obj)))
		}
		if lv, ok := obj["left"]; ok {
			v, okV := d.value(t.Left, lv, joinPath(path, "left"))
			if !okV {
				return nil, false
			}
			return skemata.Left(v), true
		}
		if rv, ok := obj["right"]; ok {
			v, okV := d.value(t.Right, rv, joinPath(path, "right"))
			if !okV {
				return nil, false
			}
			return skemata.Right(v), true
		}
		for k := range obj {
			return d.fail(path, skemata.CodeStructuralMismatch, fmt.Sprintf(`unexpected key %q, want "left" or "right"`, k))
		}
		return nil, false
	case *skemata.Record:
		return d.record(t, av, path, "")
	case *skemata.Enumeration:
		return d.enumeration(t, av, path)
	case *skemata.Lazy:
		forced := t.Force()
		if forced == nil {
			return d.fail(path, skemata.CodeStructuralMismatch, "lazy schema resolved to nil")
		}
		return d.value(forced, av, path)
	case *skemata.Transform:
		base, ok := d.value(t.Base, av, path)
		if !ok {
			return nil, false
		}
		if t.Decode == nil {
			return d.convFail(path, fmt.Errorf("transform %s has no decode map", t.TypeName))
		}
		v, err := t.Decode(base)
		if err != nil {
			return d.convFail(path, err)
		}
		return v, true
	case *skemata.Dynamic:
		if skemata.DirectDynamicMapping(t) {
			return d.dynamicDirect(av, path)
		}
		return d.dynamicTagged(av, path)
	case nil:
		return d.fail(path, skemata.CodeStructuralMismatch, "nil schema")
	default:
		return d.fail(path, skemata.CodeStructuralMismatch, fmt.Sprintf("unhandled schema %T", s))
	}
}

func (d *decoder) elements(elem skemata.Schema, av any, path string) (any, bool) {
	arr, ok := av.([]any)
	if !ok {
		return d.mismatch(path, "array", av)
	}
	out := make([]any, 0, len(arr))
	for i, el := range arr {
		v, ok := d.value(elem, el, joinPath(path, strconv.Itoa(i)))
		if !ok {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

// record decodes one object. discKey names an already-interpreted
// discriminator entry to skip; empty means none.
func (d *decoder) record(t *skemata.Record, av any, path, discKey string) (any, bool) {
	obj, ok := av.(map[string]any)
	if !ok {
		return d.mismatch(path, "object", av)
	}
	out := t.New()
	consumed := make(map[string]bool, len(obj))
	if discKey != "" {
		consumed[discKey] = true
	}
	okAll := true
	for i := range t.Fields {
		f := &t.Fields[i]
		if skemata.IsTransient(f.Meta) {
			fv, okD := skemata.DefaultOnMissing(f.Meta)
			if !okD {
				var err error
				fv, err = skemata.DefaultValue(f.Schema)
				if err != nil {
					d.fail(joinPath(path, f.Name), skemata.CodeMissingField, fmt.Sprintf("transient field %q has no usable default", f.Name))
					if d.opt.FailFast {
						return nil, false
					}
					okAll = false
					continue
				}
			}
			if !d.setField(f, &out, fv, joinPath(path, f.Name)) {
				if d.opt.FailFast {
					return nil, false
				}
				okAll = false
			}
			continue
		}
		wire := skemata.FieldWireName(*f)
		key, raw, found := lookupField(obj, wire, skemata.FieldAliases(*f))
		if !found {
			if fv, okD := skemata.DefaultOnMissing(f.Meta); okD {
				if !d.setField(f, &out, fv, joinPath(path, wire)) {
					if d.opt.FailFast {
						return nil, false
					}
					okAll = false
				}
				continue
			}
			if skemata.OmitWhenAbsent(f.Meta) {
				if _, isOpt := f.Schema.(*skemata.Optional); isOpt {
					if !d.setField(f, &out, skemata.None(), joinPath(path, wire)) {
						if d.opt.FailFast {
							return nil, false
						}
						okAll = false
					}
					continue
				}
			}
			d.fail(joinPath(path, wire), skemata.CodeMissingField, fmt.Sprintf("required field %q not present", wire))
			if d.opt.FailFast {
				return nil, false
			}
			okAll = false
			continue
		}
		consumed[key] = true
		fv, okV := d.value(f.Schema, raw, joinPath(path, key))
		if !okV {
			if d.opt.FailFast {
				return nil, false
			}
			okAll = false
			continue
		}
		if !d.setField(f, &out, fv, joinPath(path, key)) {
			if d.opt.FailFast {
				return nil, false
			}
			okAll = false
		}
	}
	if skemata.RejectUnknown(t) {
		var extras []string
		for k := range obj {
			if !consumed[k] {
				extras = append(extras, k)
			}
		}
		sort.Strings(extras)
		for _, k := range extras {
			d.fail(joinPath(path, k), skemata.CodeUnknownField, fmt.Sprintf("key %q not declared by %s", k, t.TypeName))
			if d.opt.FailFast {
				return nil, false
			}
			okAll = false
		}
	}
	if !okAll {
		return nil, false
	}
	return out, true
}

func (d *decoder) setField(f *skemata.Field, rec *any, v any, path string) bool {
	nv, err := f.Set(*rec, v)
	if err != nil {
		d.convFail(path, err)
		return false
	}
	*rec = nv
	return true
}

func lookupField(obj map[string]any, wire string, aliases []string) (string, any, bool) {
	if v, ok := obj[wire]; ok {
		return wire, v, true
	}
	for _, a := range aliases {
		if v, ok := obj[a]; ok {
			return a, v, true
		}
	}
	return "", nil, false
}

func (d *decoder) enumeration(t *skemata.Enumeration, av any, path string) (any, bool) {
	if disc, ok := skemata.DiscriminatorName(t); ok {
		return d.discriminated(t, disc, av, path)
	}
	if skemata.NoDiscriminator(t) {
		return d.firstMatch(t, av, path)
	}
	return d.oneKey(t, av, path)
}

func (d *decoder) discriminated(t *skemata.Enumeration, disc string, av any, path string) (any, bool) {
	obj, ok := av.(map[string]any)
	if !ok {
		return d.mismatch(path, "object", av)
	}
	tagRaw, ok := obj[disc]
	if !ok {
		return d.fail(joinPath(path, disc), skemata.CodeMissingField, fmt.Sprintf("discriminator %q not present", disc))
	}
	tag, ok := tagRaw.(string)
	if !ok {
		return d.mismatch(joinPath(path, disc), "string", tagRaw)
	}
	c := resolveCase(t, tag)
	if c == nil {
		return d.fail(joinPath(path, disc), skemata.CodeUnknownCase, fmt.Sprintf("%q does not name a case of %s", tag, t.TypeName))
	}
	rec, chain, err := flattenDecodeTarget(c.Schema)
	if err != nil {
		return d.fail(path, skemata.CodeStructuralMismatch, err.Error())
	}
	v, ok := d.record(rec, av, path, disc)
	if !ok {
		return nil, false
	}
	for i := len(chain) - 1; i >= 0; i-- {
		tr := chain[i]
		if tr.Decode == nil {
			return d.convFail(path, fmt.Errorf("transform %s has no decode map", tr.TypeName))
		}
		nv, err := tr.Decode(v)
		if err != nil {
			return d.convFail(path, err)
		}
		v = nv
	}
	return c.Wrap(v), true
}

func (d *decoder) oneKey(t *skemata.Enumeration, av any, path string) (any, bool) {
	obj, ok := av.(map[string]any)
	if !ok {
		return d.mismatch(path, "object", av)
	}
	if len(obj) != 1 {
		return d.fail(path, skemata.CodeStructuralMismatch, fmt.Sprintf("enumeration %s needs a single-key object, have %d keys", t.TypeName, len(obj)))
	}
	var key string
	var payload any
	for k, v := range obj {
		key, payload = k, v
	}
	c := resolveCase(t, key)
	if c == nil {
		return d.fail(joinPath(path, key), skemata.CodeUnknownCase, fmt.Sprintf("%q does not name a case of %s", key, t.TypeName))
	}
	v, ok := d.value(c.Schema, payload, joinPath(path, key))
	if !ok {
		return nil, false
	}
	return c.Wrap(v), true
}

// firstMatch tries every non-transient case against the value in declaration
// order, committing to the first that decodes cleanly. Trial issues are
// discarded.
func (d *decoder) firstMatch(t *skemata.Enumeration, av any, path string) (any, bool) {
	for i := range t.Cases {
		c := &t.Cases[i]
		if skemata.IsTransient(c.Meta) {
			continue
		}
		trial := &decoder{opt: d.opt}
		v, ok := trial.value(c.Schema, av, path)
		if ok && len(trial.iss) == 0 {
			return c.Wrap(v), true
		}
	}
	return d.fail(path, skemata.CodeNoCaseMatched, fmt.Sprintf("no case of %s accepts the value", t.TypeName))
}

// resolveCase maps a wire tag to a case: primary wire names first, then
// aliases, declaration order within each pass. Transient cases never match.
func resolveCase(t *skemata.Enumeration, tag string) *skemata.Case {
	for i := range t.Cases {
		c := &t.Cases[i]
		if skemata.IsTransient(c.Meta) {
			continue
		}
		if skemata.CaseWireName(*c) == tag {
			return c
		}
	}
	for i := range t.Cases {
		c := &t.Cases[i]
		if skemata.IsTransient(c.Meta) {
			continue
		}
		for _, a := range skemata.CaseAliases(*c) {
			if a == tag {
				return c
			}
		}
	}
	return nil
}

// flattenDecodeTarget resolves a case payload schema through Lazy and
// Transform layers down to the record a discriminated object decodes into.
// The returned transforms are outermost first; decode applies them
// innermost first.
func flattenDecodeTarget(s skemata.Schema) (*skemata.Record, []*skemata.Transform, error) {
	var chain []*skemata.Transform
	for {
		switch t := s.(type) {
		case *skemata.Record:
			return t, chain, nil
		case *skemata.Lazy:
			s = t.Force()
			if s == nil {
				return nil, nil, fmt.Errorf("lazy schema resolved to nil")
			}
		case *skemata.Transform:
			chain = append(chain, t)
			s = t.Base
		default:
			return nil, nil, fmt.Errorf("discriminator flattening requires a record-shaped case payload, have %s", schemaShape(s))
		}
	}
}

func (d *decoder) scalar(k skemata.PrimitiveKind, av any, path string) (any, bool) {
	switch k {
	case skemata.KindUnit:
		obj, ok := av.(map[string]any)
		if !ok {
			return d.mismatch(path, "object", av)
		}
		if len(obj) != 0 {
			return d.fail(path, skemata.CodeStructuralMismatch, fmt.Sprintf("unit object must be empty, have %d keys", len(obj)))
		}
		return struct{}{}, true
	case skemata.KindBool:
		b, ok := av.(bool)
		if !ok {
			return d.mismatch(path, "boolean", av)
		}
		return b, true
	case skemata.KindString:
		s, ok := av.(string)
		if !ok {
			return d.mismatch(path, "string", av)
		}
		return s, true
	case skemata.KindInt32:
		txt, ok := numberText(av)
		if !ok {
			return d.mismatch(path, "number", av)
		}
		i, err := strconv.ParseInt(txt, 10, 32)
		if err != nil {
			return d.malformed(path, fmt.Sprintf("%q is not a valid int32", txt), err)
		}
		return int32(i), true
	case skemata.KindInt64:
		txt, ok := numberText(av)
		if !ok {
			return d.mismatch(path, "number", av)
		}
		i, err := strconv.ParseInt(txt, 10, 64)
		if err != nil {
			return d.malformed(path, fmt.Sprintf("%q is not a valid int64", txt), err)
		}
		return i, true
	case skemata.KindFloat32:
		txt, ok := numberText(av)
		if !ok {
			return d.mismatch(path, "number", av)
		}
		f, err := strconv.ParseFloat(txt, 32)
		if err != nil {
			return d.malformed(path, fmt.Sprintf("%q is not a valid float32", txt), err)
		}
		return float32(f), true
	case skemata.KindFloat64:
		txt, ok := numberText(av)
		if !ok {
			return d.mismatch(path, "number", av)
		}
		f, err := strconv.ParseFloat(txt, 64)
		if err != nil {
			return d.malformed(path, fmt.Sprintf("%q is not a valid float64", txt), err)
		}
		return f, true
	case skemata.KindBigInt:
		s, ok := av.(string)
		if !ok {
			return d.mismatch(path, "string", av)
		}
		z, okZ := new(big.Int).SetString(s, 10)
		if !okZ {
			return d.malformed(path, fmt.Sprintf("%q is not a base-10 integer", s), nil)
		}
		return z, true
	case skemata.KindDecimal:
		s, ok := av.(string)
		if !ok {
			return d.mismatch(path, "string", av)
		}
		dv, err := decimal.NewFromString(s)
		if err != nil {
			return d.malformed(path, fmt.Sprintf("%q is not a valid decimal", s), err)
		}
		return dv, true
	case skemata.KindBytes:
		s, ok := av.(string)
		if !ok {
			return d.mismatch(path, "string", av)
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return d.malformed(path, "invalid base64", err)
		}
		return b, true
	case skemata.KindTime:
		s, ok := av.(string)
		if !ok {
			return d.mismatch(path, "string", av)
		}
		tm, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return d.malformed(path, fmt.Sprintf("%q is not an RFC 3339 timestamp", s), err)
		}
		return tm, true
	case skemata.KindDuration:
		s, ok := av.(string)
		if !ok {
			return d.mismatch(path, "string", av)
		}
		dur, err := time.ParseDuration(s)
		if err != nil {
			return d.malformed(path, fmt.Sprintf("%q is not a valid duration", s), err)
		}
		return dur, true
	case skemata.KindUUID:
		s, ok := av.(string)
		if !ok {
			return d.mismatch(path, "string", av)
		}
		u, err := uuid.Parse(s)
		if err != nil {
			return d.malformed(path, fmt.Sprintf("%q is not a valid UUID", s), err)
		}
		return u, true
	default:
		return d.fail(path, skemata.CodeStructuralMismatch, fmt.Sprintf("unknown primitive kind %d", k))
	}
}

// numberText extracts the textual form of a number node. Streaming sources
// deliver json.Number; the extra arms serve DecodeValue over hand-built
// trees.
func numberText(av any) (string, bool) {
	switch n := av.(type) {
	case json.Number:
		return string(n), true
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64), true
	case int:
		return strconv.Itoa(n), true
	case int32:
		return strconv.FormatInt(int64(n), 10), true
	case int64:
		return strconv.FormatInt(n, 10), true
	default:
		return "", false
	}
}

func jsonShape(av any) string {
	switch av.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number, float64, int, int32, int64:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", av)
	}
}
