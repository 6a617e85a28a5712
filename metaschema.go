package skemata

import (
	"errors"
	"fmt"
)

// AST is the wire-facing self-description of a Schema node: a single flat
// hub struct tagged by Kind, with per-kind slots. Children carries the inner
// schemas of the single- and two-child variants (optional, sequence, set,
// lazy and transform use one; tuple, map and either use two, in order).
type AST struct {
	Kind            string
	Prim            string // primitive kind name
	Name            string // record / enumeration / transform type name
	ID              int64  // lazy node id, ref target
	Direct          bool   // dynamic direct-mapping flag
	Strict          bool   // record reject-unknown flag
	Discriminator   string
	NoDiscriminator bool
	Children        []*AST
	Fields          []ASTField
	Cases           []ASTCase
}

// ASTField mirrors Field plus its wire-relevant annotations. Defaults cross
// the wire as dynamic values under the field's own schema.
type ASTField struct {
	Name           string
	Schema         *AST
	WireName       string
	Aliases        []string
	Transient      bool
	OmitWhenAbsent bool
	HasDefault     bool
	Default        DynamicValue
}

// ASTCase mirrors Case plus its wire-relevant annotations.
type ASTCase struct {
	Name      string
	Schema    *AST
	WireName  string
	Aliases   []string
	Transient bool
}

const (
	astPrimitive = "primitive"
	astOptional  = "optional"
	astTuple     = "tuple"
	astSequence  = "sequence"
	astMap       = "map"
	astSet       = "set"
	astEither    = "either"
	astRecord    = "record"
	astEnum      = "enum"
	astLazy      = "lazy"
	astRef       = "ref"
	astTransform = "transform"
	astDynamic   = "dynamic"
)

// SchemaToAST projects a schema graph onto its AST. Lazy nodes are assigned
// increasing ids at first visit; later occurrences of the same node become
// ref leaves, so shared subgraphs and cycles stay finite.
func SchemaToAST(s Schema) *AST {
	c := &astConv{ids: map[*Lazy]int64{}, next: 1}
	return c.toAST(s)
}

type astConv struct {
	ids  map[*Lazy]int64
	next int64
}

func (c *astConv) toAST(s Schema) *AST {
	switch t := s.(type) {
	case *Primitive:
		return &AST{Kind: astPrimitive, Prim: t.Kind.String()}
	case *Optional:
		return &AST{Kind: astOptional, Children: []*AST{c.toAST(t.Inner)}}
	case *Tuple:
		return &AST{Kind: astTuple, Children: []*AST{c.toAST(t.First), c.toAST(t.Second)}}
	case *Sequence:
		return &AST{Kind: astSequence, Children: []*AST{c.toAST(t.Element)}}
	case *Mapping:
		return &AST{Kind: astMap, Children: []*AST{c.toAST(t.Key), c.toAST(t.Value)}}
	case *Set:
		return &AST{Kind: astSet, Children: []*AST{c.toAST(t.Element)}}
	case *Either:
		return &AST{Kind: astEither, Children: []*AST{c.toAST(t.Left), c.toAST(t.Right)}}
	case *Record:
		fields := make([]ASTField, 0, len(t.Fields))
		for _, f := range t.Fields {
			af := ASTField{
				Name:           f.Name,
				Schema:         c.toAST(f.Schema),
				WireName:       f.Meta.Name,
				Aliases:        append([]string(nil), f.Meta.Aliases...),
				Transient:      f.Meta.Transient,
				OmitWhenAbsent: f.Meta.OmitWhenAbsent,
				HasDefault:     f.Meta.HasDefault,
			}
			if f.Meta.HasDefault {
				af.Default = FromValue(f.Schema, f.Meta.Default)
			}
			fields = append(fields, af)
		}
		return &AST{Kind: astRecord, Name: t.TypeName, Strict: t.Meta.RejectUnknown, Fields: fields}
	case *Enumeration:
		cases := make([]ASTCase, 0, len(t.Cases))
		for _, cs := range t.Cases {
			cases = append(cases, ASTCase{
				Name:      cs.Name,
				Schema:    c.toAST(cs.Schema),
				WireName:  cs.Meta.Name,
				Aliases:   append([]string(nil), cs.Meta.Aliases...),
				Transient: cs.Meta.Transient,
			})
		}
		return &AST{
			Kind:            astEnum,
			Name:            t.TypeName,
			Discriminator:   t.Meta.Discriminator,
			NoDiscriminator: t.Meta.NoDiscriminator,
			Cases:           cases,
		}
	case *Lazy:
		if id, ok := c.ids[t]; ok {
			return &AST{Kind: astRef, ID: id}
		}
		id := c.next
		c.next++
		c.ids[t] = id
		return &AST{Kind: astLazy, ID: id, Children: []*AST{c.toAST(t.Force())}}
	case *Transform:
		return &AST{Kind: astTransform, Name: t.TypeName, Children: []*AST{c.toAST(t.Base)}}
	case *Dynamic:
		return &AST{Kind: astDynamic, Direct: t.DirectMapping}
	default:
		// Unreachable for the closed sum; an empty kind fails ASTToSchema.
		return &AST{}
	}
}

// ASTToSchema rebuilds a Schema from its AST. Records get map-backed
// carriers and enumerations CaseValue-boxed capabilities; transforms get
// identity maps. The result is structurally equivalent to the source schema,
// not byte-identical to its native representation.
func ASTToSchema(a *AST) (Schema, error) {
	b := &schemaBuilder{lazies: map[int64]*Lazy{}}
	s, err := b.build(a)
	if err != nil {
		return nil, err
	}
	// Defaults materialize after the whole graph is linked, since converting
	// one may force a lazy node whose body is still under construction.
	for _, p := range b.patches {
		if err := p(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

type schemaBuilder struct {
	lazies  map[int64]*Lazy
	patches []func() error
}

func (b *schemaBuilder) build(a *AST) (Schema, error) {
	if a == nil {
		return nil, errors.New("skemata: nil ast node")
	}
	switch a.Kind {
	case astPrimitive:
		k, ok := PrimitiveKindFromName(a.Prim)
		if !ok {
			return nil, fmt.Errorf("skemata: unknown primitive kind %q", a.Prim)
		}
		return Prim(k), nil
	case astOptional:
		cs, err := b.children(a, 1)
		if err != nil {
			return nil, err
		}
		return OptionalOf(cs[0]), nil
	case astTuple:
		cs, err := b.children(a, 2)
		if err != nil {
			return nil, err
		}
		return TupleOf(cs[0], cs[1]), nil
	case astSequence:
		cs, err := b.children(a, 1)
		if err != nil {
			return nil, err
		}
		return SequenceOf(cs[0]), nil
	case astMap:
		cs, err := b.children(a, 2)
		if err != nil {
			return nil, err
		}
		return MapOf(cs[0], cs[1]), nil
	case astSet:
		cs, err := b.children(a, 1)
		if err != nil {
			return nil, err
		}
		return SetOf(cs[0]), nil
	case astEither:
		cs, err := b.children(a, 2)
		if err != nil {
			return nil, err
		}
		return EitherOf(cs[0], cs[1]), nil
	case astRecord:
		fields := make([]Field, 0, len(a.Fields))
		for _, fa := range a.Fields {
			fs, err := b.build(fa.Schema)
			if err != nil {
				return nil, fmt.Errorf("record %s, field %s: %w", a.Name, fa.Name, err)
			}
			f := MapField(fa.Name, fs)
			f.Meta.Name = fa.WireName
			f.Meta.Aliases = append([]string(nil), fa.Aliases...)
			f.Meta.Transient = fa.Transient
			f.Meta.OmitWhenAbsent = fa.OmitWhenAbsent
			fields = append(fields, f)
		}
		rec := NewRecord(a.Name, nil, fields...)
		if a.Strict {
			rec.RejectUnknownFields()
		}
		for i, fa := range a.Fields {
			if !fa.HasDefault {
				continue
			}
			idx, dv, fs, fname := i, fa.Default, rec.Fields[i].Schema, fa.Name
			b.patches = append(b.patches, func() error {
				nv, err := ToValue(fs, dv)
				if err != nil {
					return fmt.Errorf("record %s, field %s default: %w", rec.TypeName, fname, err)
				}
				rec.Fields[idx].Meta.Default = nv
				rec.Fields[idx].Meta.HasDefault = true
				return nil
			})
		}
		return rec, nil
	case astEnum:
		cases := make([]Case, 0, len(a.Cases))
		for _, ca := range a.Cases {
			cs, err := b.build(ca.Schema)
			if err != nil {
				return nil, fmt.Errorf("enumeration %s, case %s: %w", a.Name, ca.Name, err)
			}
			c := MapCase(ca.Name, cs)
			c.Meta.Name = ca.WireName
			c.Meta.Aliases = append([]string(nil), ca.Aliases...)
			c.Meta.Transient = ca.Transient
			cases = append(cases, c)
		}
		en := NewEnumeration(a.Name, cases...)
		en.Meta.Discriminator = a.Discriminator
		en.Meta.NoDiscriminator = a.NoDiscriminator
		return en, nil
	case astLazy:
		if a.ID == 0 {
			return nil, errors.New("skemata: lazy node missing id")
		}
		if _, dup := b.lazies[a.ID]; dup {
			return nil, fmt.Errorf("skemata: duplicate lazy id %d", a.ID)
		}
		cell := new(Schema)
		l := Defer(func() Schema { return *cell })
		b.lazies[a.ID] = l
		cs, err := b.children(a, 1)
		if err != nil {
			return nil, err
		}
		*cell = cs[0]
		return l, nil
	case astRef:
		l, ok := b.lazies[a.ID]
		if !ok {
			return nil, fmt.Errorf("skemata: ref to unknown lazy id %d", a.ID)
		}
		return l, nil
	case astTransform:
		cs, err := b.children(a, 1)
		if err != nil {
			return nil, err
		}
		ident := func(v any) (any, error) { return v, nil }
		return NewTransform(cs[0], a.Name, ident, ident), nil
	case astDynamic:
		return &Dynamic{DirectMapping: a.Direct}, nil
	default:
		return nil, fmt.Errorf("skemata: unknown ast kind %q", a.Kind)
	}
}

func (b *schemaBuilder) children(a *AST, want int) ([]Schema, error) {
	if len(a.Children) != want {
		return nil, fmt.Errorf("skemata: %s node wants %d children, has %d", a.Kind, want, len(a.Children))
	}
	out := make([]Schema, want)
	for i, ca := range a.Children {
		s, err := b.build(ca)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// metaSchemaNode is the one meta-schema instance. The Defer both memoizes
// construction and provides the self-reference the node slots need. The
// assignment lives in init to stay clear of static initialization-cycle
// analysis; buildMetaSchema only runs when the node is first forced.
var metaSchemaNode *Lazy

func init() {
	metaSchemaNode = Defer(buildMetaSchema)
}

// MetaSchema returns the fixed schema whose native type is *AST: an
// enumeration with one case per Schema variant plus a ref case for cycles.
// Encoding a schema is Encode(MetaSchema(), SchemaToAST(s)); a peer decodes
// the AST and rebuilds an equivalent schema with ASTToSchema.
func MetaSchema() Schema {
	return metaSchemaNode
}

func buildMetaSchema() Schema {
	node := Schema(metaSchemaNode)

	defaultField := NewField("default", OptionalOf(DynamicSchema()),
		func(r any) any {
			f := r.(*ASTField)
			if !f.HasDefault {
				return None()
			}
			return Some(f.Default)
		},
		func(r, v any) (any, error) {
			o, ok := v.(Option)
			if !ok {
				return nil, fmt.Errorf("field default: expected Option, got %T", v)
			}
			if o.Present {
				dv, ok := o.Value.(DynamicValue)
				if !ok {
					return nil, fmt.Errorf("field default: expected DynamicValue, got %T", o.Value)
				}
				f := r.(*ASTField)
				f.HasDefault = true
				f.Default = dv
			}
			return r, nil
		}).OmitEmpty()

	fieldRec := NewRecord("skemata.Field", func() any { return &ASTField{} },
		metaStr[ASTField]("name", func(f *ASTField) *string { return &f.Name }),
		NewField("schema", node,
			func(r any) any { return r.(*ASTField).Schema },
			func(r, v any) (any, error) {
				a, ok := v.(*AST)
				if !ok {
					return nil, fmt.Errorf("field schema: expected *AST, got %T", v)
				}
				r.(*ASTField).Schema = a
				return r, nil
			}),
		metaOptStr[ASTField]("wireName", func(f *ASTField) *string { return &f.WireName }),
		metaAliases[ASTField](func(f *ASTField) *[]string { return &f.Aliases }),
		metaOptBool[ASTField]("transient", func(f *ASTField) *bool { return &f.Transient }),
		metaOptBool[ASTField]("omitWhenAbsent", func(f *ASTField) *bool { return &f.OmitWhenAbsent }),
		defaultField,
	)

	caseRec := NewRecord("skemata.Case", func() any { return &ASTCase{} },
		metaStr[ASTCase]("name", func(c *ASTCase) *string { return &c.Name }),
		NewField("schema", node,
			func(r any) any { return r.(*ASTCase).Schema },
			func(r, v any) (any, error) {
				a, ok := v.(*AST)
				if !ok {
					return nil, fmt.Errorf("case schema: expected *AST, got %T", v)
				}
				r.(*ASTCase).Schema = a
				return r, nil
			}),
		metaOptStr[ASTCase]("wireName", func(c *ASTCase) *string { return &c.WireName }),
		metaAliases[ASTCase](func(c *ASTCase) *[]string { return &c.Aliases }),
		metaOptBool[ASTCase]("transient", func(c *ASTCase) *bool { return &c.Transient }),
	)

	recordPayload := NewRecord("skemata.RecordNode", func() any { return &AST{Kind: astRecord} },
		metaStr[AST]("name", func(a *AST) *string { return &a.Name }),
		metaOptBool[AST]("strict", func(a *AST) *bool { return &a.Strict }),
		NewField("fields", SequenceOf(fieldRec),
			func(r any) any {
				a := r.(*AST)
				out := make([]any, len(a.Fields))
				for i := range a.Fields {
					out[i] = &a.Fields[i]
				}
				return out
			},
			func(r, v any) (any, error) {
				items, ok := v.([]any)
				if !ok {
					return nil, fmt.Errorf("record fields: expected []any, got %T", v)
				}
				a := r.(*AST)
				a.Fields = make([]ASTField, len(items))
				for i, it := range items {
					p, ok := it.(*ASTField)
					if !ok {
						return nil, fmt.Errorf("record fields: expected *ASTField, got %T", it)
					}
					a.Fields[i] = *p
				}
				return r, nil
			}),
	)

	enumPayload := NewRecord("skemata.EnumNode", func() any { return &AST{Kind: astEnum} },
		metaStr[AST]("name", func(a *AST) *string { return &a.Name }),
		metaOptStr[AST]("discriminator", func(a *AST) *string { return &a.Discriminator }),
		metaOptBool[AST]("noDiscriminator", func(a *AST) *bool { return &a.NoDiscriminator }),
		NewField("cases", SequenceOf(caseRec),
			func(r any) any {
				a := r.(*AST)
				out := make([]any, len(a.Cases))
				for i := range a.Cases {
					out[i] = &a.Cases[i]
				}
				return out
			},
			func(r, v any) (any, error) {
				items, ok := v.([]any)
				if !ok {
					return nil, fmt.Errorf("enum cases: expected []any, got %T", v)
				}
				a := r.(*AST)
				a.Cases = make([]ASTCase, len(items))
				for i, it := range items {
					p, ok := it.(*ASTCase)
					if !ok {
						return nil, fmt.Errorf("enum cases: expected *ASTCase, got %T", it)
					}
					a.Cases[i] = *p
				}
				return r, nil
			}),
	)

	lazyPayload := NewRecord("skemata.LazyNode", func() any { return &AST{Kind: astLazy} },
		NewField("id", Int64(),
			func(r any) any { return r.(*AST).ID },
			func(r, v any) (any, error) {
				id, ok := v.(int64)
				if !ok {
					return nil, fmt.Errorf("lazy id: expected int64, got %T", v)
				}
				r.(*AST).ID = id
				return r, nil
			}),
		metaChild("schema", node),
	)

	transformPayload := NewRecord("skemata.TransformNode", func() any { return &AST{Kind: astTransform} },
		metaOptStr[AST]("name", func(a *AST) *string { return &a.Name }),
		metaChild("base", node),
	)

	identity := func(kind string) (func(any) any, func(any) (any, bool)) {
		wrap := func(p any) any { return p.(*AST) }
		unwrap := func(parent any) (any, bool) {
			a, ok := parent.(*AST)
			if !ok || a.Kind != kind {
				return nil, false
			}
			return a, true
		}
		return wrap, unwrap
	}
	recWrap, recUnwrap := identity(astRecord)
	enumWrap, enumUnwrap := identity(astEnum)
	lazyWrap, lazyUnwrap := identity(astLazy)
	trWrap, trUnwrap := identity(astTransform)

	return NewEnumeration("skemata.Schema",
		NewCase(astPrimitive, String(),
			func(p any) any { return &AST{Kind: astPrimitive, Prim: p.(string)} },
			func(parent any) (any, bool) {
				a, ok := parent.(*AST)
				if !ok || a.Kind != astPrimitive {
					return nil, false
				}
				return a.Prim, true
			}),
		metaWrapperCase(astOptional, node),
		metaPairCase(astTuple, node),
		metaWrapperCase(astSequence, node),
		metaPairCase(astMap, node),
		metaWrapperCase(astSet, node),
		metaPairCase(astEither, node),
		NewCase(astRecord, recordPayload, recWrap, recUnwrap),
		NewCase(astEnum, enumPayload, enumWrap, enumUnwrap),
		NewCase(astLazy, lazyPayload, lazyWrap, lazyUnwrap),
		NewCase(astRef, Int64(),
			func(p any) any { return &AST{Kind: astRef, ID: p.(int64)} },
			func(parent any) (any, bool) {
				a, ok := parent.(*AST)
				if !ok || a.Kind != astRef {
					return nil, false
				}
				return a.ID, true
			}),
		NewCase(astTransform, transformPayload, trWrap, trUnwrap),
		NewCase(astDynamic, Bool(),
			func(p any) any { return &AST{Kind: astDynamic, Direct: p.(bool)} },
			func(parent any) (any, bool) {
				a, ok := parent.(*AST)
				if !ok || a.Kind != astDynamic {
					return nil, false
				}
				return a.Direct, true
			}),
	)
}

// metaWrapperCase covers the single-child variants: the payload is the inner
// node directly.
func metaWrapperCase(kind string, node Schema) Case {
	return NewCase(kind, node,
		func(p any) any { return &AST{Kind: kind, Children: []*AST{p.(*AST)}} },
		func(parent any) (any, bool) {
			a, ok := parent.(*AST)
			if !ok || a.Kind != kind || len(a.Children) != 1 {
				return nil, false
			}
			return a.Children[0], true
		})
}

// metaPairCase covers the two-child variants: the payload is a tuple of the
// two inner nodes in declaration order.
func metaPairCase(kind string, node Schema) Case {
	return NewCase(kind, TupleOf(node, node),
		func(p any) any {
			pr := p.(Pair)
			return &AST{Kind: kind, Children: []*AST{pr.First.(*AST), pr.Second.(*AST)}}
		},
		func(parent any) (any, bool) {
			a, ok := parent.(*AST)
			if !ok || a.Kind != kind || len(a.Children) != 2 {
				return nil, false
			}
			return Pair{First: a.Children[0], Second: a.Children[1]}, true
		})
}

// metaChild installs a single-child slot on an *AST-carried payload record.
func metaChild(name string, node Schema) Field {
	return NewField(name, node,
		func(r any) any {
			a := r.(*AST)
			if len(a.Children) != 1 {
				return nil
			}
			return a.Children[0]
		},
		func(r, v any) (any, error) {
			c, ok := v.(*AST)
			if !ok {
				return nil, fmt.Errorf("%s: expected *AST, got %T", name, v)
			}
			r.(*AST).Children = []*AST{c}
			return r, nil
		})
}

func metaStr[R any](name string, sel func(*R) *string) Field {
	return NewField(name, String(),
		func(r any) any { return *sel(r.(*R)) },
		func(r, v any) (any, error) {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%s: expected string, got %T", name, v)
			}
			*sel(r.(*R)) = s
			return r, nil
		})
}

func metaOptStr[R any](name string, sel func(*R) *string) Field {
	return NewField(name, OptionalOf(String()),
		func(r any) any {
			if s := *sel(r.(*R)); s != "" {
				return Some(s)
			}
			return None()
		},
		func(r, v any) (any, error) {
			o, ok := v.(Option)
			if !ok {
				return nil, fmt.Errorf("%s: expected Option, got %T", name, v)
			}
			if o.Present {
				s, ok := o.Value.(string)
				if !ok {
					return nil, fmt.Errorf("%s: expected string, got %T", name, o.Value)
				}
				*sel(r.(*R)) = s
			}
			return r, nil
		}).OmitEmpty()
}

func metaOptBool[R any](name string, sel func(*R) *bool) Field {
	return NewField(name, OptionalOf(Bool()),
		func(r any) any {
			if *sel(r.(*R)) {
				return Some(true)
			}
			return None()
		},
		func(r, v any) (any, error) {
			o, ok := v.(Option)
			if !ok {
				return nil, fmt.Errorf("%s: expected Option, got %T", name, v)
			}
			if o.Present {
				bv, ok := o.Value.(bool)
				if !ok {
					return nil, fmt.Errorf("%s: expected bool, got %T", name, o.Value)
				}
				*sel(r.(*R)) = bv
			}
			return r, nil
		}).OmitEmpty()
}

func metaAliases[R any](sel func(*R) *[]string) Field {
	return NewField("aliases", OptionalOf(SequenceOf(String())),
		func(r any) any {
			as := *sel(r.(*R))
			if len(as) == 0 {
				return None()
			}
			out := make([]any, len(as))
			for i, a := range as {
				out[i] = a
			}
			return Some(out)
		},
		func(r, v any) (any, error) {
			o, ok := v.(Option)
			if !ok {
				return nil, fmt.Errorf("aliases: expected Option, got %T", v)
			}
			if o.Present {
				items, ok := o.Value.([]any)
				if !ok {
					return nil, fmt.Errorf("aliases: expected []any, got %T", o.Value)
				}
				as := make([]string, len(items))
				for i, it := range items {
					s, ok := it.(string)
					if !ok {
						return nil, fmt.Errorf("aliases: expected string, got %T", it)
					}
					as[i] = s
				}
				*sel(r.(*R)) = as
			}
			return r, nil
		}).OmitEmpty()
}
