package jsonschema

import (
	"fmt"

	skemata "github.com/reoring/skemata"
)

// FromSchema projects a schema graph onto the JSON Schema of its wire form.
// Lazy nodes become $defs entries referenced by $ref, named after the target's
// type name, so recursive schemas stay finite. Transforms project their base;
// the native-side type does not appear.
func FromSchema(s skemata.Schema) (*Schema, error) {
	p := &projector{names: map[*skemata.Lazy]string{}, used: map[string]bool{}, defs: map[string]*Schema{}}
	root, err := p.project(s)
	if err != nil {
		return nil, err
	}
	if len(p.defs) > 0 {
		root.Defs = p.defs
	}
	return root, nil
}

type projector struct {
	names map[*skemata.Lazy]string
	used  map[string]bool
	defs  map[string]*Schema
}

func (p *projector) project(s skemata.Schema) (*Schema, error) {
	switch t := s.(type) {
	case *skemata.Primitive:
		return primitiveSchema(t.Kind), nil
	case *skemata.Optional:
		inner, err := p.project(t.Inner)
		if err != nil {
			return nil, err
		}
		return &Schema{OneOf: []*Schema{inner, {Type: "null"}}}, nil
	case *skemata.Tuple:
		first, err := p.project(t.First)
		if err != nil {
			return nil, err
		}
		second, err := p.project(t.Second)
		if err != nil {
			return nil, err
		}
		return pairArray(first, second), nil
	case *skemata.Sequence:
		elem, err := p.project(t.Element)
		if err != nil {
			return nil, err
		}
		return &Schema{Type: "array", Items: elem}, nil
	case *skemata.Set:
		elem, err := p.project(t.Element)
		if err != nil {
			return nil, err
		}
		return &Schema{Type: "array", Items: elem, UniqueItems: true}, nil
	case *skemata.Mapping:
		key, err := p.project(t.Key)
		if err != nil {
			return nil, err
		}
		val, err := p.project(t.Value)
		if err != nil {
			return nil, err
		}
		return &Schema{Type: "array", Items: pairArray(key, val)}, nil
	case *skemata.Either:
		left, err := p.project(t.Left)
		if err != nil {
			return nil, err
		}
		right, err := p.project(t.Right)
		if err != nil {
			return nil, err
		}
		return &Schema{OneOf: []*Schema{oneKeyObject("left", left), oneKeyObject("right", right)}}, nil
	case *skemata.Record:
		return p.record(t, "", "")
	case *skemata.Enumeration:
		return p.enumeration(t)
	case *skemata.Lazy:
		if name, ok := p.names[t]; ok {
			return &Schema{Ref: "#/$defs/" + name}, nil
		}
		forced := t.Force()
		if forced == nil {
			return nil, fmt.Errorf("jsonschema: lazy schema resolved to nil")
		}
		name := p.defName(forced)
		p.names[t] = name
		p.defs[name] = &Schema{}
		body, err := p.project(forced)
		if err != nil {
			return nil, err
		}
		p.defs[name] = body
		return &Schema{Ref: "#/$defs/" + name}, nil
	case *skemata.Transform:
		return p.project(t.Base)
	case *skemata.Dynamic:
		return &Schema{}, nil
	case nil:
		return nil, fmt.Errorf("jsonschema: nil schema")
	default:
		return nil, fmt.Errorf("jsonschema: unhandled schema %T", s)
	}
}

func (p *projector) defName(target skemata.Schema) string {
	name := typeNameOf(target)
	if name == "" || p.used[name] {
		base := name
		if base == "" {
			base = "def"
		}
		for i := 1; ; i++ {
			cand := fmt.Sprintf("%s%d", base, i)
			if !p.used[cand] {
				name = cand
				break
			}
		}
	}
	p.used[name] = true
	return name
}

func typeNameOf(s skemata.Schema) string {
	switch t := s.(type) {
	case *skemata.Record:
		return t.TypeName
	case *skemata.Enumeration:
		return t.TypeName
	case *skemata.Transform:
		return t.TypeName
	default:
		return ""
	}
}

// record renders an object schema. A non-empty discKey adds the discriminator
// property pinned to discConst.
func (p *projector) record(t *skemata.Record, discKey, discConst string) (*Schema, error) {
	props := make(map[string]*Schema, len(t.Fields)+1)
	var required []string
	if discKey != "" {
		props[discKey] = &Schema{Type: "string", Const: discConst}
		required = append(required, discKey)
	}
	for _, f := range t.Fields {
		if skemata.IsTransient(f.Meta) {
			continue
		}
		wire := skemata.FieldWireName(f)
		fs, err := p.project(f.Schema)
		if err != nil {
			return nil, err
		}
		if dv, ok := skemata.DefaultOnMissing(f.Meta); ok {
			if d, scalar := scalarDefault(dv); scalar {
				fs.Default = d
			}
		}
		props[wire] = fs
		if fieldRequired(f) {
			required = append(required, wire)
		}
	}
	out := &Schema{Type: "object", Properties: props}
	if len(required) > 0 {
		out.Required = required
	}
	if skemata.RejectUnknown(t) {
		out.AdditionalProperties = false
	}
	return out, nil
}

func fieldRequired(f skemata.Field) bool {
	if skemata.OmitWhenAbsent(f.Meta) {
		return false
	}
	if _, ok := skemata.DefaultOnMissing(f.Meta); ok {
		return false
	}
	return true
}

// scalarDefault passes through defaults with an evident JSON rendering;
// richer natives are dropped from the projection rather than guessed at.
func scalarDefault(v any) (any, bool) {
	switch v.(type) {
	case string, bool, int32, int64, float32, float64:
		return v, true
	default:
		return nil, false
	}
}

func (p *projector) enumeration(t *skemata.Enumeration) (*Schema, error) {
	var alts []*Schema
	if disc, ok := skemata.DiscriminatorName(t); ok {
		for i := range t.Cases {
			c := &t.Cases[i]
			if skemata.IsTransient(c.Meta) {
				continue
			}
			rec, err := payloadRecord(c.Schema)
			if err != nil {
				return nil, err
			}
			sub, err := p.record(rec, disc, skemata.CaseWireName(*c))
			if err != nil {
				return nil, err
			}
			alts = append(alts, sub)
		}
		return &Schema{OneOf: alts}, nil
	}
	if skemata.NoDiscriminator(t) {
		for i := range t.Cases {
			c := &t.Cases[i]
			if skemata.IsTransient(c.Meta) {
				continue
			}
			cs, err := p.project(c.Schema)
			if err != nil {
				return nil, err
			}
			alts = append(alts, cs)
		}
		return &Schema{OneOf: alts}, nil
	}
	for i := range t.Cases {
		c := &t.Cases[i]
		if skemata.IsTransient(c.Meta) {
			continue
		}
		cs, err := p.project(c.Schema)
		if err != nil {
			return nil, err
		}
		alts = append(alts, oneKeyObject(skemata.CaseWireName(*c), cs))
	}
	return &Schema{OneOf: alts}, nil
}

// payloadRecord resolves a discriminated case payload through Lazy and
// Transform layers to the record it flattens into.
func payloadRecord(s skemata.Schema) (*skemata.Record, error) {
	for {
		switch t := s.(type) {
		case *skemata.Record:
			return t, nil
		case *skemata.Lazy:
			s = t.Force()
			if s == nil {
				return nil, fmt.Errorf("jsonschema: lazy schema resolved to nil")
			}
		case *skemata.Transform:
			s = t.Base
		default:
			return nil, fmt.Errorf("jsonschema: discriminated case payload must be a record, have %T", s)
		}
	}
}

func oneKeyObject(key string, s *Schema) *Schema {
	return &Schema{
		Type:                 "object",
		Properties:           map[string]*Schema{key: s},
		Required:             []string{key},
		AdditionalProperties: false,
	}
}

func pairArray(first, second *Schema) *Schema {
	two := 2
	return &Schema{Type: "array", PrefixItems: []*Schema{first, second}, MinItems: &two, MaxItems: &two}
}

func primitiveSchema(k skemata.PrimitiveKind) *Schema {
	switch k {
	case skemata.KindUnit:
		return &Schema{Type: "object", AdditionalProperties: false}
	case skemata.KindBool:
		return &Schema{Type: "boolean"}
	case skemata.KindString:
		return &Schema{Type: "string"}
	case skemata.KindInt32:
		return &Schema{Type: "integer", Format: "int32"}
	case skemata.KindInt64:
		return &Schema{Type: "integer", Format: "int64"}
	case skemata.KindFloat32:
		return &Schema{Type: "number", Format: "float"}
	case skemata.KindFloat64:
		return &Schema{Type: "number", Format: "double"}
	case skemata.KindBigInt:
		return &Schema{Type: "string", Format: "bigint"}
	case skemata.KindDecimal:
		return &Schema{Type: "string", Format: "decimal"}
	case skemata.KindBytes:
		return &Schema{Type: "string", Format: "byte"}
	case skemata.KindTime:
		return &Schema{Type: "string", Format: "date-time"}
	case skemata.KindDuration:
		return &Schema{Type: "string", Format: "duration"}
	case skemata.KindUUID:
		return &Schema{Type: "string", Format: "uuid"}
	default:
		return &Schema{}
	}
}
