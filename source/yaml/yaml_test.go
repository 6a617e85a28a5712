package yaml_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	skemata "github.com/reoring/skemata"
	eng "github.com/reoring/skemata/internal/engine"
	"github.com/reoring/skemata/jsoncodec"
	yamlsrc "github.com/reoring/skemata/source/yaml"
)

func TestYAML_DecodesThroughSchema(t *testing.T) {
	ctx := context.Background()
	server := skemata.NewRecord("Server", func() any { return map[string]any{} },
		skemata.MapField("host", skemata.String()),
		skemata.MapField("port", skemata.Int64()),
		skemata.MapField("secure", skemata.Bool()),
		skemata.MapField("tags", skemata.SequenceOf(skemata.String())),
		skemata.MapField("created", skemata.Time()),
		skemata.MapField("note", skemata.OptionalOf(skemata.String())),
	)

	doc := "host: example.com\nport: 8080\nsecure: true\ntags:\n  - a\n  - b\ncreated: 2025-01-02T03:04:05Z\nnote:\n"
	v, err := jsoncodec.DecodeFrom(ctx, server, yamlsrc.Bytes([]byte(doc)))
	if err != nil {
		t.Fatalf("decode err: %v", err)
	}
	m := v.(map[string]any)
	if m["host"] != "example.com" || m["port"] != int64(8080) || m["secure"] != true {
		t.Fatalf("scalars = %v/%v/%v", m["host"], m["port"], m["secure"])
	}
	if diff := cmp.Diff([]any{"a", "b"}, m["tags"]); diff != "" {
		t.Fatalf("tags (-want +got):\n%s", diff)
	}
	if got := m["created"].(time.Time); !got.Equal(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Fatalf("created = %v", got)
	}
	if opt := m["note"].(skemata.Option); opt.Present {
		t.Fatalf("note = %+v, want absent", opt)
	}
}

func TestYAML_MultiDocumentStream(t *testing.T) {
	ctx := context.Background()
	tick := skemata.NewRecord("Tick", func() any { return map[string]any{} },
		skemata.MapField("n", skemata.Int64()))

	dec := jsoncodec.NewDecoder(yamlsrc.Bytes([]byte("---\nn: 1\n---\nn: 2\n")))
	var got []int64
	for {
		v, err := dec.Decode(ctx, tick)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("decode err: %v", err)
		}
		got = append(got, v.(map[string]any)["n"].(int64))
	}
	if diff := cmp.Diff([]int64{1, 2}, got); diff != "" {
		t.Fatalf("stream (-want +got):\n%s", diff)
	}
}

func TestYAML_AnchorsAndAliases(t *testing.T) {
	ctx := context.Background()
	inner := skemata.NewRecord("Inner", func() any { return map[string]any{} },
		skemata.MapField("k", skemata.Int64()))
	outer := skemata.NewRecord("Outer", func() any { return map[string]any{} },
		skemata.MapField("a", inner),
		skemata.MapField("b", inner))

	v, err := jsoncodec.DecodeFrom(ctx, outer, yamlsrc.Bytes([]byte("a: &x\n  k: 1\nb: *x\n")))
	if err != nil {
		t.Fatalf("decode err: %v", err)
	}
	m := v.(map[string]any)
	if m["a"].(map[string]any)["k"] != int64(1) {
		t.Fatalf("a = %v", m["a"])
	}
	if m["b"].(map[string]any)["k"] != int64(1) {
		t.Fatalf("b = %v", m["b"])
	}
}

func numberTexts(t *testing.T, doc string) []string {
	t.Helper()
	src := yamlsrc.NewBytes([]byte(doc))
	var out []string
	for {
		tok, err := src.NextToken()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("token err: %v", err)
		}
		if tok.Kind == eng.KindNumber {
			out = append(out, tok.Number)
		}
	}
}

func TestYAML_IntegerSpellingsNormalized(t *testing.T) {
	got := numberTexts(t, "[0x1F, 0o17, 1_000_000, 2.5]")
	want := []string{"31", "15", "1000000", "2.5"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("numbers (-want +got):\n%s", diff)
	}
}

func TestYAML_RecursiveAliasFails(t *testing.T) {
	src := yamlsrc.NewBytes([]byte("a: &x\n  b: *x\n"))
	_, err := src.NextToken()
	if err == nil || !strings.Contains(err.Error(), "recursive alias") {
		t.Fatalf("err = %v", err)
	}
}

func TestYAML_NonScalarKeyFails(t *testing.T) {
	src := yamlsrc.NewBytes([]byte("[1, 2]: x\n"))
	_, err := src.NextToken()
	if err == nil || !strings.Contains(err.Error(), "mapping key") {
		t.Fatalf("err = %v", err)
	}
}
