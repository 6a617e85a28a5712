package jsonschema_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	skemata "github.com/reoring/skemata"
	js "github.com/reoring/skemata/jsonschema"
)

func TestFromSchema_Primitives(t *testing.T) {
	cases := []struct {
		kind   skemata.PrimitiveKind
		typ    string
		format string
	}{
		{skemata.KindBool, "boolean", ""},
		{skemata.KindString, "string", ""},
		{skemata.KindInt32, "integer", "int32"},
		{skemata.KindInt64, "integer", "int64"},
		{skemata.KindFloat64, "number", "double"},
		{skemata.KindBigInt, "string", "bigint"},
		{skemata.KindDecimal, "string", "decimal"},
		{skemata.KindBytes, "string", "byte"},
		{skemata.KindTime, "string", "date-time"},
		{skemata.KindDuration, "string", "duration"},
		{skemata.KindUUID, "string", "uuid"},
	}
	for _, tc := range cases {
		t.Run(tc.kind.String(), func(t *testing.T) {
			got, err := js.FromSchema(skemata.Prim(tc.kind))
			if err != nil {
				t.Fatalf("FromSchema: %v", err)
			}
			if got.Type != tc.typ || got.Format != tc.format {
				t.Fatalf("got type=%q format=%q, want %q/%q", got.Type, got.Format, tc.typ, tc.format)
			}
		})
	}
}

func TestFromSchema_RecordSnapshot(t *testing.T) {
	rec := skemata.NewRecord("User", nil,
		skemata.MapField("id", skemata.Int64()),
		skemata.MapField("name", skemata.String()),
	).RejectUnknownFields()

	got, err := js.FromSchema(rec)
	if err != nil {
		t.Fatalf("FromSchema: %v", err)
	}
	data, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"type":"object","properties":{"id":{"type":"integer","format":"int64"},"name":{"type":"string"}},"required":["id","name"],"additionalProperties":false}`
	if string(data) != want {
		t.Fatalf("snapshot mismatch:\n got %s\nwant %s", data, want)
	}
}

func TestFromSchema_AnnotationsShapeRequired(t *testing.T) {
	rec := skemata.NewRecord("Account", nil,
		skemata.MapField("id", skemata.String()),
		skemata.MapField("nickname", skemata.OptionalOf(skemata.String())).OmitEmpty(),
		skemata.MapField("plan", skemata.String()).WithDefault("free"),
		skemata.MapField("internal", skemata.Bool()).WithDefault(false).Transient(),
		skemata.MapField("createdAt", skemata.Time()).WithWireName("created_at"),
	)

	got, err := js.FromSchema(rec)
	if err != nil {
		t.Fatalf("FromSchema: %v", err)
	}
	if diff := cmp.Diff([]string{"id", "created_at"}, got.Required); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}
	if _, ok := got.Properties["internal"]; ok {
		t.Fatalf("transient field must not appear in properties")
	}
	if _, ok := got.Properties["created_at"]; !ok {
		t.Fatalf("wire name must key the property, have %v", got.Properties)
	}
	if got.Properties["plan"].Default != "free" {
		t.Fatalf("expected default carried, got %v", got.Properties["plan"].Default)
	}
	nick := got.Properties["nickname"]
	if len(nick.OneOf) != 2 || nick.OneOf[1].Type != "null" {
		t.Fatalf("optional must render as oneOf with null, got %+v", nick)
	}
}

func TestFromSchema_DiscriminatedEnum(t *testing.T) {
	card := skemata.NewRecord("Card", nil, skemata.MapField("number", skemata.String()))
	cash := skemata.NewRecord("Cash", nil, skemata.MapField("amount", skemata.Int64()))
	pay := skemata.NewEnumeration("Payment",
		skemata.MapCase("Card", card).WithWireName("card"),
		skemata.MapCase("Cash", cash).WithWireName("cash"),
	).WithDiscriminator("kind")

	got, err := js.FromSchema(pay)
	if err != nil {
		t.Fatalf("FromSchema: %v", err)
	}
	if len(got.OneOf) != 2 {
		t.Fatalf("expected 2 alternatives, got %d", len(got.OneOf))
	}
	first := got.OneOf[0]
	disc := first.Properties["kind"]
	if disc == nil || disc.Const != "card" {
		t.Fatalf("expected const discriminator, got %+v", disc)
	}
	if diff := cmp.Diff([]string{"kind", "number"}, first.Required); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}
}

func TestFromSchema_RecursiveLazyUsesDefs(t *testing.T) {
	var tree *skemata.Lazy
	tree = skemata.Defer(func() skemata.Schema {
		return skemata.NewRecord("Tree", nil,
			skemata.MapField("value", skemata.Int64()),
			skemata.MapField("children", skemata.SequenceOf(tree)),
		)
	})

	got, err := js.FromSchema(tree)
	if err != nil {
		t.Fatalf("FromSchema: %v", err)
	}
	if got.Ref != "#/$defs/Tree" {
		t.Fatalf("expected root $ref, got %q", got.Ref)
	}
	body := got.Defs["Tree"]
	if body == nil || body.Type != "object" {
		t.Fatalf("expected Tree definition, got %+v", body)
	}
	children := body.Properties["children"]
	if children == nil || children.Items == nil || children.Items.Ref != "#/$defs/Tree" {
		t.Fatalf("expected recursive $ref under children, got %+v", children)
	}
}

func TestFromSchema_MapSetTupleForms(t *testing.T) {
	m, err := js.FromSchema(skemata.MapOf(skemata.String(), skemata.Int64()))
	if err != nil {
		t.Fatalf("FromSchema map: %v", err)
	}
	if m.Type != "array" || m.Items == nil || len(m.Items.PrefixItems) != 2 {
		t.Fatalf("map must render as array of pairs, got %+v", m)
	}

	set, err := js.FromSchema(skemata.SetOf(skemata.String()))
	if err != nil {
		t.Fatalf("FromSchema set: %v", err)
	}
	if set.Type != "array" || !set.UniqueItems {
		t.Fatalf("set must render as unique array, got %+v", set)
	}

	tup, err := js.FromSchema(skemata.TupleOf(skemata.String(), skemata.Bool()))
	if err != nil {
		t.Fatalf("FromSchema tuple: %v", err)
	}
	if tup.Type != "array" || len(tup.PrefixItems) != 2 || *tup.MinItems != 2 || *tup.MaxItems != 2 {
		t.Fatalf("tuple must render as fixed pair array, got %+v", tup)
	}
}
