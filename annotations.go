package skemata

// Annotations is the metadata bag attached to fields, cases, records and
// enumerations at construction time. The zero value configures nothing.
// Behavior is consulted exclusively through the resolver functions below, so
// the codec walk stays free of policy decisions.
type Annotations struct {
	Name            string   // wire-name override for a field or case
	Aliases         []string // decode-only alternate names, tried in order
	Transient       bool     // excluded from the wire entirely
	OmitWhenAbsent  bool     // omit the key when an Optional field is absent
	Default         any      // substituted when a required key is missing
	HasDefault      bool
	Discriminator   string // enumeration: flattening tag field name
	NoDiscriminator bool   // enumeration: bare payloads, first-match decode
	RejectUnknown   bool   // record: fail on undeclared wire keys
}

// FieldWireName returns the name a field carries on the wire.
func FieldWireName(f Field) string {
	if f.Meta.Name != "" {
		return f.Meta.Name
	}
	return f.Name
}

// FieldAliases returns the decode-only alternate names of a field, in trial
// order.
func FieldAliases(f Field) []string { return f.Meta.Aliases }

// CaseWireName returns the name a case carries on the wire.
func CaseWireName(c Case) string {
	if c.Meta.Name != "" {
		return c.Meta.Name
	}
	return c.Name
}

// CaseAliases returns the decode-only alternate names of a case, in trial
// order.
func CaseAliases(c Case) []string { return c.Meta.Aliases }

// IsTransient reports whether a field or case is excluded from the wire.
func IsTransient(m Annotations) bool { return m.Transient }

// OmitWhenAbsent reports whether an absent Optional value omits its key on
// encode instead of rendering null.
func OmitWhenAbsent(m Annotations) bool { return m.OmitWhenAbsent }

// DefaultOnMissing returns the literal substituted when a required key is
// absent from the input, if one is configured.
func DefaultOnMissing(m Annotations) (any, bool) {
	if !m.HasDefault {
		return nil, false
	}
	return m.Default, true
}

// DiscriminatorName returns the enumeration's flattening tag field, if
// configured.
func DiscriminatorName(e *Enumeration) (string, bool) {
	if e.Meta.Discriminator == "" {
		return "", false
	}
	return e.Meta.Discriminator, true
}

// NoDiscriminator reports whether the enumeration encodes payloads bare and
// decodes by first-match trial.
func NoDiscriminator(e *Enumeration) bool { return e.Meta.NoDiscriminator }

// RejectUnknown reports whether a record rejects undeclared wire keys.
func RejectUnknown(r *Record) bool { return r.Meta.RejectUnknown }

// DirectDynamicMapping reports whether a dynamic schema renders bare
// structural JSON instead of the tagged form.
func DirectDynamicMapping(d *Dynamic) bool { return d.DirectMapping }
