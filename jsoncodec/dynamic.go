package jsoncodec

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	skemata "github.com/reoring/skemata"
)

// Tagged rendering: every node is a single-key object whose key names the
// shape ({"record": ...}, {"int64": 7}, {"optional": null}). The form is
// self-describing, so any DynamicValue round-trips without a schema. Scalars
// reuse the kind's ordinary wire form under the kind-name key.

func (e *encoder) dynamicTagged(dv skemata.DynamicValue, path string) bool {
	switch t := dv.(type) {
	case *skemata.DynPrimitive:
		name := t.Kind.String()
		e.w.BeginObject()
		e.w.Key(name)
		if !e.scalar(t.Kind, t.Value, joinPath(path, name)) {
			return false
		}
		e.w.EndObject()
	case *skemata.DynRecord:
		base := joinPath(path, "record")
		fields := joinPath(base, "fields")
		e.w.BeginObject()
		e.w.Key("record")
		e.w.BeginObject()
		e.w.Key("name")
		e.w.String(t.TypeName)
		e.w.Key("fields")
		e.w.BeginArray()
		for i, ent := range t.Entries {
			ep := joinPath(fields, strconv.Itoa(i))
			e.w.BeginObject()
			e.w.Key("name")
			e.w.String(ent.Name)
			e.w.Key("value")
			if !e.dynamicTagged(ent.Value, joinPath(ep, "value")) {
				return false
			}
			e.w.EndObject()
		}
		e.w.EndArray()
		e.w.EndObject()
		e.w.EndObject()
	case *skemata.DynEnum:
		base := joinPath(path, "enum")
		e.w.BeginObject()
		e.w.Key("enum")
		e.w.BeginObject()
		e.w.Key("name")
		e.w.String(t.TypeName)
		e.w.Key("case")
		e.w.String(t.Case)
		e.w.Key("value")
		if !e.dynamicTagged(t.Value, joinPath(base, "value")) {
			return false
		}
		e.w.EndObject()
		e.w.EndObject()
	case *skemata.DynSequence:
		return e.dynamicTaggedItems("seq", t.Items, path)
	case *skemata.DynSet:
		return e.dynamicTaggedItems("set", t.Items, path)
	case *skemata.DynMap:
		base := joinPath(path, "map")
		e.w.BeginObject()
		e.w.Key("map")
		e.w.BeginArray()
		for i, ent := range t.Entries {
			ep := joinPath(base, strconv.Itoa(i))
			e.w.BeginArray()
			if !e.dynamicTagged(ent.Key, joinPath(ep, "0")) {
				return false
			}
			if !e.dynamicTagged(ent.Value, joinPath(ep, "1")) {
				return false
			}
			e.w.EndArray()
		}
		e.w.EndArray()
		e.w.EndObject()
	case *skemata.DynOptional:
		e.w.BeginObject()
		e.w.Key("optional")
		if !t.Present {
			e.w.Null()
		} else if !e.dynamicTagged(t.Value, joinPath(path, "optional")) {
			return false
		}
		e.w.EndObject()
	case *skemata.DynTuple:
		base := joinPath(path, "tuple")
		e.w.BeginObject()
		e.w.Key("tuple")
		e.w.BeginArray()
		if !e.dynamicTagged(t.First, joinPath(base, "0")) {
			return false
		}
		if !e.dynamicTagged(t.Second, joinPath(base, "1")) {
			return false
		}
		e.w.EndArray()
		e.w.EndObject()
	case *skemata.DynEither:
		base := joinPath(path, "either")
		side := "left"
		if t.IsRight {
			side = "right"
		}
		e.w.BeginObject()
		e.w.Key("either")
		e.w.BeginObject()
		e.w.Key(side)
		if !e.dynamicTagged(t.Value, joinPath(base, side)) {
			return false
		}
		e.w.EndObject()
		e.w.EndObject()
	case *skemata.DynError:
		e.w.BeginObject()
		e.w.Key("error")
		e.w.String(t.Message)
		e.w.EndObject()
	case nil:
		return e.issue(path, skemata.CodeStructuralMismatch, "missing dynamic value")
	default:
		return e.issue(path, skemata.CodeStructuralMismatch, fmt.Sprintf("unhandled dynamic value %T", dv))
	}
	return true
}

func (e *encoder) dynamicTaggedItems(tag string, items []skemata.DynamicValue, path string) bool {
	base := joinPath(path, tag)
	e.w.BeginObject()
	e.w.Key(tag)
	e.w.BeginArray()
	for i, it := range items {
		if !e.dynamicTagged(it, joinPath(base, strconv.Itoa(i))) {
			return false
		}
	}
	e.w.EndArray()
	e.w.EndObject()
	return true
}

func (d *decoder) dynamicTagged(av any, path string) (any, bool) {
	obj, ok := av.(map[string]any)
	if !ok {
		return d.mismatch(path, "object", av)
	}
	if len(obj) != 1 {
		return d.fail(path, skemata.CodeStructuralMismatch, fmt.Sprintf("tagged dynamic value needs a single-key object, have %d keys", len(obj)))
	}
	var tag string
	var payload any
	for k, v := range obj {
		tag, payload = k, v
	}
	tpath := joinPath(path, tag)
	if k, okK := skemata.PrimitiveKindFromName(tag); okK {
		v, okV := d.scalar(k, payload, tpath)
		if !okV {
			return nil, false
		}
		return &skemata.DynPrimitive{Kind: k, Value: v}, true
	}
	switch tag {
	case "record":
		pobj, ok := payload.(map[string]any)
		if !ok {
			return d.mismatch(tpath, "object", payload)
		}
		name, _ := pobj["name"].(string)
		rawFields, ok := pobj["fields"].([]any)
		if !ok {
			return d.fail(tpath, skemata.CodeStructuralMismatch, `record payload needs a "fields" array`)
		}
		fpath := joinPath(tpath, "fields")
		entries := make([]skemata.DynEntry, 0, len(rawFields))
		for i, el := range rawFields {
			ep := joinPath(fpath, strconv.Itoa(i))
			ent, ok := el.(map[string]any)
			if !ok {
				return d.mismatch(ep, "object", el)
			}
			n, ok := ent["name"].(string)
			if !ok {
				return d.fail(ep, skemata.CodeStructuralMismatch, `field entry needs a "name" string`)
			}
			raw, ok := ent["value"]
			if !ok {
				return d.fail(ep, skemata.CodeStructuralMismatch, `field entry needs a "value"`)
			}
			dv, okV := d.dynamicTagged(raw, joinPath(ep, "value"))
			if !okV {
				return nil, false
			}
			entries = append(entries, skemata.DynEntry{Name: n, Value: dv.(skemata.DynamicValue)})
		}
		return &skemata.DynRecord{TypeName: name, Entries: entries}, true
	case "enum":
		pobj, ok := payload.(map[string]any)
		if !ok {
			return d.mismatch(tpath, "object", payload)
		}
		name, _ := pobj["name"].(string)
		cs, ok := pobj["case"].(string)
		if !ok {
			return d.fail(tpath, skemata.CodeStructuralMismatch, `enum payload needs a "case" string`)
		}
		raw, ok := pobj["value"]
		if !ok {
			return d.fail(tpath, skemata.CodeStructuralMismatch, `enum payload needs a "value"`)
		}
		dv, okV := d.dynamicTagged(raw, joinPath(tpath, "value"))
		if !okV {
			return nil, false
		}
		return &skemata.DynEnum{TypeName: name, Case: cs, Value: dv.(skemata.DynamicValue)}, true
	case "seq":
		items, ok := d.dynamicTaggedItems(payload, tpath)
		if !ok {
			return nil, false
		}
		return &skemata.DynSequence{Items: items}, true
	case "set":
		items, ok := d.dynamicTaggedItems(payload, tpath)
		if !ok {
			return nil, false
		}
		return &skemata.DynSet{Items: items}, true
	case "map":
		arr, ok := payload.([]any)
		if !ok {
			return d.mismatch(tpath, "array", payload)
		}
		entries := make([]skemata.DynMapEntry, 0, len(arr))
		for i, el := range arr {
			ep := joinPath(tpath, strconv.Itoa(i))
			ent, ok := el.([]any)
			if !ok || len(ent) != 2 {
				return d.fail(ep, skemata.CodeStructuralMismatch, "map entry must be a 2-element array")
			}
			k, okK := d.dynamicTagged(ent[0], joinPath(ep, "0"))
			if !okK {
				return nil, false
			}
			v, okV := d.dynamicTagged(ent[1], joinPath(ep, "1"))
			if !okV {
				return nil, false
			}
			entries = append(entries, skemata.DynMapEntry{Key: k.(skemata.DynamicValue), Value: v.(skemata.DynamicValue)})
		}
		return &skemata.DynMap{Entries: entries}, true
	case "optional":
		if payload == nil {
			return &skemata.DynOptional{}, true
		}
		dv, ok := d.dynamicTagged(payload, tpath)
		if !ok {
			return nil, false
		}
		return &skemata.DynOptional{Present: true, Value: dv.(skemata.DynamicValue)}, true
	case "tuple":
		arr, ok := payload.([]any)
		if !ok {
			return d.mismatch(tpath, "array", payload)
		}
		if len(arr) != 2 {
			return d.fail(tpath, skemata.CodeStructuralMismatch, fmt.Sprintf("tuple needs 2 elements, have %d", len(arr)))
		}
		f, okF := d.dynamicTagged(arr[0], joinPath(tpath, "0"))
		if !okF {
			return nil, false
		}
		s, okS := d.dynamicTagged(arr[1], joinPath(tpath, "1"))
		if !okS {
			return nil, false
		}
		return &skemata.DynTuple{First: f.(skemata.DynamicValue), Second: s.(skemata.DynamicValue)}, true
	case "either":
		pobj, ok := payload.(map[string]any)
		if !ok {
			return d.mismatch(tpath, "object", payload)
		}
		if len(pobj) != 1 {
			return d.fail(tpath, skemata.CodeStructuralMismatch, `either payload needs a single "left" or "right" key`)
		}
		var side string
		var raw any
		for k, v := range pobj {
			side, raw = k, v
		}
		if side != "left" && side != "right" {
			return d.fail(tpath, skemata.CodeStructuralMismatch, fmt.Sprintf(`unexpected key %q, want "left" or "right"`, side))
		}
		dv, okV := d.dynamicTagged(raw, joinPath(tpath, side))
		if !okV {
			return nil, false
		}
		return &skemata.DynEither{IsRight: side == "right", Value: dv.(skemata.DynamicValue)}, true
	case "error":
		msg, ok := payload.(string)
		if !ok {
			return d.mismatch(tpath, "string", payload)
		}
		return &skemata.DynError{Message: msg}, true
	default:
		return d.fail(tpath, skemata.CodeStructuralMismatch, fmt.Sprintf("unknown dynamic tag %q", tag))
	}
}

func (d *decoder) dynamicTaggedItems(payload any, path string) ([]skemata.DynamicValue, bool) {
	arr, ok := payload.([]any)
	if !ok {
		d.mismatch(path, "array", payload)
		return nil, false
	}
	items := make([]skemata.DynamicValue, 0, len(arr))
	for i, el := range arr {
		dv, okV := d.dynamicTagged(el, joinPath(path, strconv.Itoa(i)))
		if !okV {
			return nil, false
		}
		items = append(items, dv.(skemata.DynamicValue))
	}
	return items, true
}

// Direct rendering: bare structural JSON. Encoding drops shape distinctions
// (records become plain objects, enums one-key objects) and decoding maps
// objects back to DynRecord with name-sorted entries, arrays to DynSequence,
// and numbers to the narrowest of int64, bigint, decimal. The two directions
// do not compose into an identity.

func (e *encoder) dynamicDirect(dv skemata.DynamicValue, path string) bool {
	switch t := dv.(type) {
	case *skemata.DynPrimitive:
		return e.scalar(t.Kind, t.Value, path)
	case *skemata.DynRecord:
		e.w.BeginObject()
		for _, ent := range t.Entries {
			e.w.Key(ent.Name)
			if !e.dynamicDirect(ent.Value, joinPath(path, ent.Name)) {
				return false
			}
		}
		e.w.EndObject()
	case *skemata.DynEnum:
		e.w.BeginObject()
		e.w.Key(t.Case)
		if !e.dynamicDirect(t.Value, joinPath(path, t.Case)) {
			return false
		}
		e.w.EndObject()
	case *skemata.DynSequence:
		return e.dynamicDirectItems(t.Items, path)
	case *skemata.DynSet:
		return e.dynamicDirectItems(t.Items, path)
	case *skemata.DynMap:
		e.w.BeginArray()
		for i, ent := range t.Entries {
			ep := joinPath(path, strconv.Itoa(i))
			e.w.BeginArray()
			if !e.dynamicDirect(ent.Key, joinPath(ep, "0")) {
				return false
			}
			if !e.dynamicDirect(ent.Value, joinPath(ep, "1")) {
				return false
			}
			e.w.EndArray()
		}
		e.w.EndArray()
	case *skemata.DynOptional:
		if !t.Present {
			e.w.Null()
			return true
		}
		return e.dynamicDirect(t.Value, path)
	case *skemata.DynTuple:
		e.w.BeginArray()
		if !e.dynamicDirect(t.First, joinPath(path, "0")) {
			return false
		}
		if !e.dynamicDirect(t.Second, joinPath(path, "1")) {
			return false
		}
		e.w.EndArray()
	case *skemata.DynEither:
		side := "left"
		if t.IsRight {
			side = "right"
		}
		e.w.BeginObject()
		e.w.Key(side)
		if !e.dynamicDirect(t.Value, joinPath(path, side)) {
			return false
		}
		e.w.EndObject()
	case *skemata.DynError:
		e.iss = skemata.AppendIssues(e.iss, skemata.Issue{
			Path:    normPath(path),
			Code:    skemata.CodeConversionFailure,
			Message: t.Message,
			Offset:  -1,
		})
		return false
	case nil:
		return e.issue(path, skemata.CodeStructuralMismatch, "missing dynamic value")
	default:
		return e.issue(path, skemata.CodeStructuralMismatch, fmt.Sprintf("unhandled dynamic value %T", dv))
	}
	return true
}

func (e *encoder) dynamicDirectItems(items []skemata.DynamicValue, path string) bool {
	e.w.BeginArray()
	for i, it := range items {
		if !e.dynamicDirect(it, joinPath(path, strconv.Itoa(i))) {
			return false
		}
	}
	e.w.EndArray()
	return true
}

func (d *decoder) dynamicDirect(av any, path string) (any, bool) {
	switch v := av.(type) {
	case nil:
		return &skemata.DynOptional{}, true
	case bool:
		return &skemata.DynPrimitive{Kind: skemata.KindBool, Value: v}, true
	case string:
		return &skemata.DynPrimitive{Kind: skemata.KindString, Value: v}, true
	case map[string]any:
		names := make([]string, 0, len(v))
		for k := range v {
			names = append(names, k)
		}
		sort.Strings(names)
		entries := make([]skemata.DynEntry, 0, len(names))
		for _, n := range names {
			dv, ok := d.dynamicDirect(v[n], joinPath(path, n))
			if !ok {
				return nil, false
			}
			entries = append(entries, skemata.DynEntry{Name: n, Value: dv.(skemata.DynamicValue)})
		}
		return &skemata.DynRecord{Entries: entries}, true
	case []any:
		items := make([]skemata.DynamicValue, 0, len(v))
		for i, el := range v {
			dv, ok := d.dynamicDirect(el, joinPath(path, strconv.Itoa(i)))
			if !ok {
				return nil, false
			}
			items = append(items, dv.(skemata.DynamicValue))
		}
		return &skemata.DynSequence{Items: items}, true
	default:
		txt, ok := numberText(av)
		if !ok {
			return d.fail(path, skemata.CodeStructuralMismatch, fmt.Sprintf("unsupported dynamic node %T", av))
		}
		return d.dynamicNumber(txt, path)
	}
}

// dynamicNumber picks the narrowest kind that represents the number exactly:
// int64 when it fits, bigint for wider integer syntax, decimal otherwise.
func (d *decoder) dynamicNumber(txt, path string) (any, bool) {
	if i, err := strconv.ParseInt(txt, 10, 64); err == nil {
		return &skemata.DynPrimitive{Kind: skemata.KindInt64, Value: i}, true
	}
	if integerSyntax(txt) {
		if z, ok := new(big.Int).SetString(txt, 10); ok {
			return &skemata.DynPrimitive{Kind: skemata.KindBigInt, Value: z}, true
		}
	}
	dv, err := decimal.NewFromString(txt)
	if err != nil {
		return d.malformed(path, fmt.Sprintf("%q is not a valid number", txt), err)
	}
	return &skemata.DynPrimitive{Kind: skemata.KindDecimal, Value: dv}, true
}

func integerSyntax(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if i == len(s) {
		return false
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
