package skemata

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestDefaultValue_Primitives(t *testing.T) {
	cases := []struct {
		schema *Primitive
		want   any
	}{
		{Unit(), struct{}{}},
		{Bool(), false},
		{String(), ""},
		{Int32(), int32(0)},
		{Int64(), int64(0)},
		{Float32(), float32(0)},
		{Float64(), float64(0)},
		{Duration(), time.Duration(0)},
		{UUID(), uuid.Nil},
	}
	for _, tc := range cases {
		t.Run(tc.schema.Kind.String(), func(t *testing.T) {
			v, err := DefaultValue(tc.schema)
			if err != nil {
				t.Fatalf("default err: %v", err)
			}
			if v != tc.want {
				t.Fatalf("got %#v, want %#v", v, tc.want)
			}
		})
	}

	v, err := DefaultValue(BigInt())
	if err != nil || v.(*big.Int).Sign() != 0 {
		t.Fatalf("bigint default = %v, %v", v, err)
	}
	v, err = DefaultValue(Decimal())
	if err != nil || !v.(decimal.Decimal).IsZero() {
		t.Fatalf("decimal default = %v, %v", v, err)
	}
	v, err = DefaultValue(Bytes())
	if err != nil || len(v.([]byte)) != 0 {
		t.Fatalf("bytes default = %v, %v", v, err)
	}
	v, err = DefaultValue(Time())
	if err != nil || !v.(time.Time).Equal(time.Unix(0, 0)) {
		t.Fatalf("time default = %v, %v", v, err)
	}
}

func TestDefaultValue_Composites(t *testing.T) {
	v, err := DefaultValue(OptionalOf(String()))
	if err != nil || v.(Option).Present {
		t.Fatalf("optional default = %v, %v", v, err)
	}
	v, err = DefaultValue(SequenceOf(String()))
	if err != nil || len(v.([]any)) != 0 {
		t.Fatalf("sequence default = %v, %v", v, err)
	}
	v, err = DefaultValue(MapOf(String(), Int64()))
	if err != nil || len(v.([]Pair)) != 0 {
		t.Fatalf("map default = %v, %v", v, err)
	}
	v, err = DefaultValue(TupleOf(Int64(), Bool()))
	if err != nil {
		t.Fatalf("tuple default err: %v", err)
	}
	if p := v.(Pair); p.First != int64(0) || p.Second != false {
		t.Fatalf("tuple default = %#v", p)
	}
	v, err = DefaultValue(EitherOf(String(), Int64()))
	if err != nil {
		t.Fatalf("either default err: %v", err)
	}
	if ev := v.(EitherValue); ev.IsRight || ev.Value != "" {
		t.Fatalf("either default = %#v", ev)
	}
	v, err = DefaultValue(DynamicSchema())
	if err != nil {
		t.Fatalf("dynamic default err: %v", err)
	}
	if o := v.(DynamicValue).(*DynOptional); o.Present {
		t.Fatalf("dynamic default = %#v", o)
	}
}

func TestDefaultValue_RecordHonorsFieldDefaults(t *testing.T) {
	s := NewRecord("Account", nil,
		MapField("plan", String()).WithDefault("free"),
		MapField("hits", Int64()),
	)
	v, err := DefaultValue(s)
	if err != nil {
		t.Fatalf("default err: %v", err)
	}
	m := v.(map[string]any)
	if m["plan"] != "free" || m["hits"] != int64(0) {
		t.Fatalf("got %#v", m)
	}
}

func TestDefaultValue_EnumerationHasNone(t *testing.T) {
	s := NewEnumeration("State", MapCase("on", Unit()))
	_, err := DefaultValue(s)
	if !errors.Is(err, ErrNoDefault) {
		t.Fatalf("err = %v", err)
	}
}

func TestDefaultValue_TransformMapsBaseDefault(t *testing.T) {
	s := NewTransform(Int64(), "Count",
		func(v any) (any, error) { return v.(int64) + 1, nil },
		func(v any) (any, error) { return v.(int64) - 1, nil },
	)
	v, err := DefaultValue(s)
	if err != nil || v != int64(1) {
		t.Fatalf("got %v, %v", v, err)
	}
}

func TestDefaultValue_CyclicSchemaFails(t *testing.T) {
	// A node that must contain itself has no finite default.
	var loop *Lazy
	loop = Defer(func() Schema {
		return NewRecord("Loop", nil, MapField("next", loop))
	})
	_, err := DefaultValue(loop)
	if !errors.Is(err, ErrNoDefault) {
		t.Fatalf("err = %v", err)
	}

	// Breaking the cycle with an optional makes the default finite again.
	var tree *Lazy
	tree = Defer(func() Schema {
		return NewRecord("Tree", nil, MapField("next", OptionalOf(tree)))
	})
	v, err := DefaultValue(tree)
	if err != nil {
		t.Fatalf("default err: %v", err)
	}
	if m := v.(map[string]any); m["next"].(Option).Present {
		t.Fatalf("got %#v", m)
	}
}
