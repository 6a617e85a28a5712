package skemata

// Equivalent reports whether two schemas describe the same structure:
// same variants, kinds, names and annotations, with Lazy nodes transparent.
// Capabilities and transform conversion functions are not compared; they
// never cross the wire. Cyclic graphs compare by bisimulation: a revisited
// node pair is assumed equal, so any real difference still surfaces along
// some finite path.
func Equivalent(a, b Schema) bool {
	return equivalent(a, b, map[schemaPair]bool{})
}

type schemaPair struct {
	a Schema
	b Schema
}

func equivalent(a, b Schema, seen map[schemaPair]bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	pair := schemaPair{a: a, b: b}
	if seen[pair] {
		return true
	}
	seen[pair] = true

	if l, ok := a.(*Lazy); ok {
		return equivalent(l.Force(), b, seen)
	}
	if l, ok := b.(*Lazy); ok {
		return equivalent(a, l.Force(), seen)
	}

	switch x := a.(type) {
	case *Primitive:
		y, ok := b.(*Primitive)
		return ok && x.Kind == y.Kind
	case *Optional:
		y, ok := b.(*Optional)
		return ok && equivalent(x.Inner, y.Inner, seen)
	case *Tuple:
		y, ok := b.(*Tuple)
		return ok && equivalent(x.First, y.First, seen) && equivalent(x.Second, y.Second, seen)
	case *Sequence:
		y, ok := b.(*Sequence)
		return ok && equivalent(x.Element, y.Element, seen)
	case *Mapping:
		y, ok := b.(*Mapping)
		return ok && equivalent(x.Key, y.Key, seen) && equivalent(x.Value, y.Value, seen)
	case *Set:
		y, ok := b.(*Set)
		return ok && equivalent(x.Element, y.Element, seen)
	case *Either:
		y, ok := b.(*Either)
		return ok && equivalent(x.Left, y.Left, seen) && equivalent(x.Right, y.Right, seen)
	case *Record:
		y, ok := b.(*Record)
		if !ok || x.TypeName != y.TypeName || x.Meta.RejectUnknown != y.Meta.RejectUnknown || len(x.Fields) != len(y.Fields) {
			return false
		}
		for i := range x.Fields {
			fx, fy := x.Fields[i], y.Fields[i]
			if fx.Name != fy.Name || !metaEquivalent(fx.Meta, fy.Meta, fx.Schema, fy.Schema) {
				return false
			}
			if !equivalent(fx.Schema, fy.Schema, seen) {
				return false
			}
		}
		return true
	case *Enumeration:
		y, ok := b.(*Enumeration)
		if !ok || x.TypeName != y.TypeName || x.Meta.Discriminator != y.Meta.Discriminator ||
			x.Meta.NoDiscriminator != y.Meta.NoDiscriminator || len(x.Cases) != len(y.Cases) {
			return false
		}
		for i := range x.Cases {
			cx, cy := x.Cases[i], y.Cases[i]
			if cx.Name != cy.Name || !metaEquivalent(cx.Meta, cy.Meta, cx.Schema, cy.Schema) {
				return false
			}
			if !equivalent(cx.Schema, cy.Schema, seen) {
				return false
			}
		}
		return true
	case *Transform:
		y, ok := b.(*Transform)
		return ok && x.TypeName == y.TypeName && equivalent(x.Base, y.Base, seen)
	case *Dynamic:
		y, ok := b.(*Dynamic)
		return ok && x.DirectMapping == y.DirectMapping
	default:
		return false
	}
}

// metaEquivalent compares annotation bags. Defaults are native values of
// possibly different carriers, so they compare through their dynamic
// projections under each side's own schema.
func metaEquivalent(ma, mb Annotations, sa, sb Schema) bool {
	if ma.Name != mb.Name || ma.Transient != mb.Transient || ma.OmitWhenAbsent != mb.OmitWhenAbsent || ma.HasDefault != mb.HasDefault {
		return false
	}
	if !stringSlicesEqual(ma.Aliases, mb.Aliases) {
		return false
	}
	if ma.HasDefault {
		if !EqualDynamic(FromValue(sa, ma.Default), FromValue(sb, mb.Default)) {
			return false
		}
	}
	return true
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
