package jsoncodec_test

import (
	"context"
	"errors"
	"math"
	"testing"

	skemata "github.com/reoring/skemata"
	"github.com/reoring/skemata/jsoncodec"
)

func TestIssues_CollectAcrossRecordFields(t *testing.T) {
	ctx := context.Background()
	s := skemata.NewRecord("Row", nil,
		skemata.MapField("a", skemata.Int64()),
		skemata.MapField("b", skemata.String()),
		skemata.MapField("c", skemata.Bool()),
	)
	_, err := jsoncodec.Decode(ctx, s, []byte(`{"a":"x","b":2,"c":"y"}`))
	iss, ok := skemata.AsIssues(err)
	if !ok {
		t.Fatalf("want Issues, got %v", err)
	}
	if len(iss) != 3 {
		t.Fatalf("want 3 issues, got %d: %v", len(iss), iss)
	}
	wantPaths := []string{"/a", "/b", "/c"}
	for i, is := range iss {
		if is.Code != skemata.CodeStructuralMismatch || is.Path != wantPaths[i] {
			t.Fatalf("issue[%d] = %+v", i, is)
		}
	}
	if iss[0].Params["want"] != "number" || iss[0].Params["got"] != "string" {
		t.Fatalf("params = %v", iss[0].Params)
	}
	if iss[0].Message != "structural mismatch" {
		t.Fatalf("message = %q", iss[0].Message)
	}
}

func TestIssues_NestedPaths(t *testing.T) {
	ctx := context.Background()
	s := skemata.NewRecord("Order", nil,
		skemata.MapField("items", skemata.SequenceOf(
			skemata.NewRecord("Item", nil, skemata.MapField("price", skemata.Int64())),
		)),
	)
	_, err := jsoncodec.Decode(ctx, s, []byte(`{"items":[{"price":1},{"price":"x"}]}`))
	iss, ok := skemata.AsIssues(err)
	if !ok || len(iss) != 1 {
		t.Fatalf("issues = %v", err)
	}
	if iss[0].Path != "/items/1/price" {
		t.Fatalf("path = %q", iss[0].Path)
	}
}

func TestFailFast_StopsAtFirstIssue(t *testing.T) {
	ctx := context.Background()
	s := skemata.NewRecord("Row", nil,
		skemata.MapField("a", skemata.Int64()),
		skemata.MapField("b", skemata.Int64()),
		skemata.MapField("c", skemata.Int64()),
	)
	wire := []byte(`{"a":"x","b":"y","c":"z"}`)

	_, err := jsoncodec.Decode(ctx, s, wire)
	if iss, _ := skemata.AsIssues(err); len(iss) != 3 {
		t.Fatalf("collect mode issues = %v", err)
	}

	_, err = jsoncodec.Decode(ctx, s, wire, skemata.DecodeOpt{FailFast: true})
	iss, ok := skemata.AsIssues(err)
	if !ok || len(iss) != 1 || iss[0].Path != "/a" {
		t.Fatalf("fail-fast issues = %v", err)
	}
}

func TestMissingField(t *testing.T) {
	ctx := context.Background()
	s := skemata.NewRecord("Pair", nil,
		skemata.MapField("a", skemata.Int64()),
		skemata.MapField("b", skemata.Int64()),
	)
	_, err := jsoncodec.Decode(ctx, s, []byte(`{"a":1}`))
	iss, ok := skemata.AsIssues(err)
	if !ok || len(iss) != 1 {
		t.Fatalf("issues = %v", err)
	}
	if iss[0].Code != skemata.CodeMissingField || iss[0].Path != "/b" {
		t.Fatalf("issue = %+v", iss[0])
	}
	if iss[0].Message != "required field missing" {
		t.Fatalf("message = %q", iss[0].Message)
	}
}

func TestConversionFailure_CarriesMappingMessage(t *testing.T) {
	ctx := context.Background()
	positive := skemata.NewTransform(skemata.Int64(), "Positive",
		func(v any) (any, error) {
			n := v.(int64)
			if n <= 0 {
				return nil, errors.New("price must be positive")
			}
			return n, nil
		},
		func(v any) (any, error) { return v, nil },
	)
	_, err := jsoncodec.Decode(ctx, positive, []byte(`-3`))
	iss, ok := skemata.AsIssues(err)
	if !ok || len(iss) != 1 {
		t.Fatalf("issues = %v", err)
	}
	if iss[0].Code != skemata.CodeConversionFailure {
		t.Fatalf("code = %q", iss[0].Code)
	}
	// The mapping's own words, not a catalog text.
	if iss[0].Message != "price must be positive" {
		t.Fatalf("message = %q", iss[0].Message)
	}
	if iss[0].Cause == nil {
		t.Fatalf("cause not set")
	}
}

func TestMalformedScalars(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name   string
		schema skemata.Schema
		wire   string
	}{
		{"int32 overflow", skemata.Int32(), `2147483648`},
		{"int64 fraction", skemata.Int64(), `1.5`},
		{"bigint text", skemata.BigInt(), `"12x"`},
		{"decimal text", skemata.Decimal(), `"12.3.4"`},
		{"bytes alphabet", skemata.Bytes(), `"a-b"`},
		{"time text", skemata.Time(), `"yesterday"`},
		{"duration text", skemata.Duration(), `"5 parsecs"`},
		{"uuid text", skemata.UUID(), `"not-a-uuid"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := jsoncodec.Decode(ctx, tc.schema, []byte(tc.wire))
			iss, ok := skemata.AsIssues(err)
			if !ok || len(iss) != 1 {
				t.Fatalf("issues = %v", err)
			}
			if iss[0].Code != skemata.CodeMalformedScalar || iss[0].Path != "/" {
				t.Fatalf("issue = %+v", iss[0])
			}
		})
	}
}

func TestParse_EmptyInput(t *testing.T) {
	ctx := context.Background()
	for _, wire := range []string{``, `   `} {
		_, err := jsoncodec.Decode(ctx, skemata.Int64(), []byte(wire))
		iss, ok := skemata.AsIssues(err)
		if !ok || len(iss) != 1 {
			t.Fatalf("issues for %q = %v", wire, err)
		}
		if iss[0].Code != skemata.CodeParseError || iss[0].Path != "/" {
			t.Fatalf("issue = %+v", iss[0])
		}
	}
}

func TestParse_SyntaxError(t *testing.T) {
	ctx := context.Background()
	_, err := jsoncodec.Decode(ctx, skemata.Int64(), []byte(`{bad`))
	iss, ok := skemata.AsIssues(err)
	if !ok || len(iss) != 1 || iss[0].Code != skemata.CodeParseError {
		t.Fatalf("issues = %v", err)
	}
}

func TestTruncated_MidValue(t *testing.T) {
	ctx := context.Background()
	s := skemata.NewRecord("Doc", nil, skemata.MapField("a", skemata.Int64()))
	for _, wire := range []string{`{"a":`, `{"a":1`, `[1,2`} {
		var target skemata.Schema = s
		if wire == `[1,2` {
			target = skemata.SequenceOf(skemata.Int64())
		}
		_, err := jsoncodec.Decode(ctx, target, []byte(wire))
		iss, ok := skemata.AsIssues(err)
		if !ok || len(iss) != 1 {
			t.Fatalf("issues for %q = %v", wire, err)
		}
		if iss[0].Code != skemata.CodeTruncated || iss[0].Path != "/" {
			t.Fatalf("issue for %q = %+v", wire, iss[0])
		}
	}
}

func TestDuplicateKeys_IgnoreWarnError(t *testing.T) {
	ctx := context.Background()
	s := skemata.NewRecord("Doc", nil, skemata.MapField("a", skemata.Int64()))
	wire := []byte(`{"a":1,"a":2}`)

	// Default policy ignores duplicates; the later value wins.
	back, err := jsoncodec.Decode(ctx, s, wire)
	if err != nil {
		t.Fatalf("ignore decode err: %v", err)
	}
	if m := back.(map[string]any); m["a"] != int64(2) {
		t.Fatalf("got %#v", m)
	}

	// Error policy fails the decode.
	_, err = jsoncodec.Decode(ctx, s, wire, skemata.DecodeOpt{
		Strictness: skemata.Strictness{OnDuplicateKey: skemata.Error},
	})
	iss, ok := skemata.AsIssues(err)
	if !ok || len(iss) != 1 {
		t.Fatalf("error policy issues = %v", err)
	}
	if iss[0].Code != skemata.CodeDuplicateKey || iss[0].Path != "/a" {
		t.Fatalf("issue = %+v", iss[0])
	}

	// Warn policy decodes and records the duplicate as a warning.
	d := jsoncodec.NewDecoder(skemata.JSONBytes(wire))
	back, err = d.Decode(ctx, s, skemata.DecodeOpt{
		Strictness: skemata.Strictness{OnDuplicateKey: skemata.Warn},
	})
	if err != nil {
		t.Fatalf("warn decode err: %v", err)
	}
	if m := back.(map[string]any); m["a"] != int64(2) {
		t.Fatalf("got %#v", m)
	}
	warns := d.Warnings()
	if len(warns) != 1 || warns[0].Code != skemata.CodeDuplicateKey || warns[0].Path != "/a" {
		t.Fatalf("warnings = %v", warns)
	}
}

func TestLimits_DepthAndBytes(t *testing.T) {
	ctx := context.Background()

	_, err := jsoncodec.Decode(ctx, skemata.SequenceOf(skemata.SequenceOf(skemata.SequenceOf(skemata.Int64()))),
		[]byte(`[[[1]]]`), skemata.DecodeOpt{MaxDepth: 2})
	iss, ok := skemata.AsIssues(err)
	if !ok || len(iss) != 1 || iss[0].Code != skemata.CodeParseError {
		t.Fatalf("depth issues = %v", err)
	}
	if iss[0].Message != "max depth exceeded" {
		t.Fatalf("message = %q", iss[0].Message)
	}

	_, err = jsoncodec.Decode(ctx, skemata.SequenceOf(skemata.Int64()),
		[]byte(`[1,2,3,4,5,6,7,8,9]`), skemata.DecodeOpt{MaxBytes: 5})
	iss, ok = skemata.AsIssues(err)
	if !ok || len(iss) != 1 || iss[0].Code != skemata.CodeTruncated {
		t.Fatalf("bytes issues = %v", err)
	}
	if iss[0].Message != "max bytes exceeded" {
		t.Fatalf("message = %q", iss[0].Message)
	}
}

func TestEncode_RefusesUnencodableValues(t *testing.T) {
	ctx := context.Background()

	_, err := jsoncodec.Encode(ctx, skemata.Int64(), "seven")
	iss, ok := skemata.AsIssues(err)
	if !ok || len(iss) != 1 || iss[0].Code != skemata.CodeStructuralMismatch {
		t.Fatalf("issues = %v", err)
	}

	_, err = jsoncodec.Encode(ctx, skemata.Float64(), math.NaN())
	iss, ok = skemata.AsIssues(err)
	if !ok || len(iss) != 1 || iss[0].Code != skemata.CodeMalformedScalar {
		t.Fatalf("nan issues = %v", err)
	}
}
