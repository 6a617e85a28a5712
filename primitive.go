package skemata

// PrimitiveKind enumerates the leaf scalar kinds a Schema can describe.
type PrimitiveKind int

const (
	KindUnit PrimitiveKind = iota
	KindBool
	KindString
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindBigInt
	KindDecimal
	KindBytes
	KindTime
	KindDuration
	KindUUID
)

var primitiveKindNames = [...]string{
	KindUnit:     "unit",
	KindBool:     "bool",
	KindString:   "string",
	KindInt32:    "int32",
	KindInt64:    "int64",
	KindFloat32:  "float32",
	KindFloat64:  "float64",
	KindBigInt:   "bigint",
	KindDecimal:  "decimal",
	KindBytes:    "bytes",
	KindTime:     "time",
	KindDuration: "duration",
	KindUUID:     "uuid",
}

// String returns the stable lowercase name of the kind, used on the wire by
// the meta-schema and the tagged dynamic rendering.
func (k PrimitiveKind) String() string {
	if k < 0 || int(k) >= len(primitiveKindNames) {
		return "unknown"
	}
	return primitiveKindNames[k]
}

// PrimitiveKindFromName resolves a stable kind name back to its kind.
func PrimitiveKindFromName(name string) (PrimitiveKind, bool) {
	for k, n := range primitiveKindNames {
		if n == name {
			return PrimitiveKind(k), true
		}
	}
	return 0, false
}
