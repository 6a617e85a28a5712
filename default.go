package skemata

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNoDefault reports a schema node with no derivable default value.
var ErrNoDefault = errors.New("skemata: no default value")

// DefaultValue derives the canonical empty value for a schema: kind-specific
// zero for primitives, None for optionals, empty collections, Left of the
// left default for Either, the conjunction of field defaults for records.
// Enumerations have no canonical case and report ErrNoDefault. Cyclic graphs
// that never pass through an empty-collection or optional boundary cannot
// terminate and report an error instead of recursing forever.
func DefaultValue(s Schema) (any, error) {
	return defaultValue(s, map[*Lazy]struct{}{})
}

func defaultValue(s Schema, forcing map[*Lazy]struct{}) (any, error) {
	switch t := s.(type) {
	case *Primitive:
		return primitiveDefault(t.Kind)
	case *Optional:
		return None(), nil
	case *Tuple:
		f, err := defaultValue(t.First, forcing)
		if err != nil {
			return nil, err
		}
		sec, err := defaultValue(t.Second, forcing)
		if err != nil {
			return nil, err
		}
		return Pair{First: f, Second: sec}, nil
	case *Sequence:
		return []any{}, nil
	case *Mapping:
		return []Pair{}, nil
	case *Set:
		return []any{}, nil
	case *Either:
		l, err := defaultValue(t.Left, forcing)
		if err != nil {
			return nil, err
		}
		return Left(l), nil
	case *Record:
		rec := t.New()
		for _, f := range t.Fields {
			fv, ok := DefaultOnMissing(f.Meta)
			if !ok {
				var err error
				fv, err = defaultValue(f.Schema, forcing)
				if err != nil {
					return nil, fmt.Errorf("record %s, field %s: %w", t.TypeName, f.Name, err)
				}
			}
			var err error
			rec, err = f.Set(rec, fv)
			if err != nil {
				return nil, fmt.Errorf("record %s, field %s: %w", t.TypeName, f.Name, err)
			}
		}
		return rec, nil
	case *Enumeration:
		return nil, fmt.Errorf("enumeration %s has no canonical case: %w", t.TypeName, ErrNoDefault)
	case *Lazy:
		if _, seen := forcing[t]; seen {
			return nil, fmt.Errorf("cyclic schema: %w", ErrNoDefault)
		}
		forcing[t] = struct{}{}
		v, err := defaultValue(t.Force(), forcing)
		delete(forcing, t)
		return v, err
	case *Transform:
		base, err := defaultValue(t.Base, forcing)
		if err != nil {
			return nil, err
		}
		if t.Decode == nil {
			return nil, fmt.Errorf("transform %s has no decode map: %w", t.TypeName, ErrNoDefault)
		}
		v, err := t.Decode(base)
		if err != nil {
			return nil, fmt.Errorf("transform %s rejects the base default: %w", t.TypeName, err)
		}
		return v, nil
	case *Dynamic:
		return DynamicValue(&DynOptional{}), nil
	default:
		return nil, fmt.Errorf("unhandled schema %T: %w", s, ErrNoDefault)
	}
}

func primitiveDefault(k PrimitiveKind) (any, error) {
	switch k {
	case KindUnit:
		return struct{}{}, nil
	case KindBool:
		return false, nil
	case KindString:
		return "", nil
	case KindInt32:
		return int32(0), nil
	case KindInt64:
		return int64(0), nil
	case KindFloat32:
		return float32(0), nil
	case KindFloat64:
		return float64(0), nil
	case KindBigInt:
		return big.NewInt(0), nil
	case KindDecimal:
		return decimal.Zero, nil
	case KindBytes:
		return []byte{}, nil
	case KindTime:
		return time.Unix(0, 0).UTC(), nil
	case KindDuration:
		return time.Duration(0), nil
	case KindUUID:
		return uuid.Nil, nil
	default:
		return nil, fmt.Errorf("unknown primitive kind %d: %w", k, ErrNoDefault)
	}
}
