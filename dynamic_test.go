package skemata

import (
	"math/big"
	"testing"
	"time"
)

func TestFromValue_Primitives(t *testing.T) {
	dv := FromValue(String(), "x")
	p, ok := dv.(*DynPrimitive)
	if !ok || p.Kind != KindString || p.Value != "x" {
		t.Fatalf("dv = %#v", dv)
	}

	// Mismatches embed as error nodes instead of failing the projection.
	dv = FromValue(String(), 7)
	if _, ok := dv.(*DynError); !ok {
		t.Fatalf("dv = %#v, want DynError", dv)
	}
}

func TestFromValue_RecordKeepsFieldOrder(t *testing.T) {
	s := NewRecord("Project", nil,
		MapField("name", String()),
		MapField("stars", Int64()),
	)
	dv := FromValue(s, map[string]any{"name": "skemata", "stars": int64(42)})
	rec, ok := dv.(*DynRecord)
	if !ok || rec.TypeName != "Project" || len(rec.Entries) != 2 {
		t.Fatalf("dv = %#v", dv)
	}
	if rec.Entries[0].Name != "name" || rec.Entries[1].Name != "stars" {
		t.Fatalf("entries = %#v", rec.Entries)
	}
}

func TestToValue_InvertsFromValue(t *testing.T) {
	s := NewRecord("Sample", nil,
		MapField("name", String()),
		MapField("maybe", OptionalOf(Int64())),
		MapField("tags", SequenceOf(String())),
		MapField("alt", EitherOf(String(), Int64())),
	)
	native := map[string]any{
		"name":  "n",
		"maybe": Some(int64(3)),
		"tags":  []any{"a"},
		"alt":   Left("l"),
	}
	dv := FromValue(s, native)
	back, err := ToValue(s, dv)
	if err != nil {
		t.Fatalf("to value err: %v", err)
	}
	if !EqualDynamic(FromValue(s, back), dv) {
		t.Fatalf("roundtrip mismatch: %#v", back)
	}
}

func TestToValue_RejectsMismatchedShape(t *testing.T) {
	_, err := ToValue(String(), &DynPrimitive{Kind: KindInt64, Value: int64(1)})
	iss, ok := AsIssues(err)
	if !ok || len(iss) != 1 || iss[0].Code != CodeStructuralMismatch {
		t.Fatalf("issues = %v", err)
	}
}

func TestToValue_ErrorNodeReportsItsMessage(t *testing.T) {
	_, err := ToValue(String(), &DynError{Message: "broken upstream"})
	iss, ok := AsIssues(err)
	if !ok || len(iss) != 1 {
		t.Fatalf("issues = %v", err)
	}
	if iss[0].Code != CodeConversionFailure || iss[0].Message != "broken upstream" {
		t.Fatalf("issue = %+v", iss[0])
	}
}

func TestEqualDynamic_ScalarAware(t *testing.T) {
	a := FromValue(BigInt(), new(big.Int).Lsh(big.NewInt(1), 70))
	b := FromValue(BigInt(), new(big.Int).Lsh(big.NewInt(1), 70))
	if !EqualDynamic(a, b) {
		t.Fatalf("distinct big.Int pointers with equal values must compare equal")
	}

	tokyo := time.FixedZone("JST", 9*3600)
	t1 := FromValue(Time(), time.Date(2025, 1, 2, 12, 0, 0, 0, tokyo))
	t2 := FromValue(Time(), time.Date(2025, 1, 2, 3, 0, 0, 0, time.UTC))
	if !EqualDynamic(t1, t2) {
		t.Fatalf("same instant in different zones must compare equal")
	}
}

func TestEqualDynamic_OrderAndShape(t *testing.T) {
	ab := &DynRecord{Entries: []DynEntry{
		{Name: "a", Value: &DynPrimitive{Kind: KindInt64, Value: int64(1)}},
		{Name: "b", Value: &DynPrimitive{Kind: KindInt64, Value: int64(2)}},
	}}
	ba := &DynRecord{Entries: []DynEntry{
		{Name: "b", Value: &DynPrimitive{Kind: KindInt64, Value: int64(2)}},
		{Name: "a", Value: &DynPrimitive{Kind: KindInt64, Value: int64(1)}},
	}}
	if EqualDynamic(ab, ba) {
		t.Fatalf("entry order is significant")
	}
	if EqualDynamic(
		&DynSequence{Items: []DynamicValue{&DynPrimitive{Kind: KindInt64, Value: int64(1)}}},
		&DynSet{Items: []DynamicValue{&DynPrimitive{Kind: KindInt64, Value: int64(1)}}},
	) {
		t.Fatalf("sequence and set are distinct shapes")
	}
	if !EqualDynamic(&DynError{Message: "x"}, &DynError{Message: "x"}) {
		t.Fatalf("error nodes compare by message")
	}
}

func TestFromValue_DynamicPassesThrough(t *testing.T) {
	inner := DynamicValue(&DynPrimitive{Kind: KindBool, Value: true})
	dv := FromValue(DynamicSchema(), inner)
	if !EqualDynamic(dv, inner) {
		t.Fatalf("dv = %#v", dv)
	}
}
