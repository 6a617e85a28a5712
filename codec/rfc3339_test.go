package codec

import (
	"testing"
	"time"
)

func TestTimeRFC3339_Decode_Encode_Roundtrip(t *testing.T) {
	tr := TimeRFC3339()

	v, err := tr.Decode("2025-01-01T00:00:00Z")
	if err != nil {
		t.Fatalf("decode err: %v", err)
	}
	got, ok := v.(time.Time)
	if !ok || !got.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time: %v", v)
	}

	out, err := tr.Encode(got)
	if err != nil {
		t.Fatalf("encode err: %v", err)
	}
	if out != "2025-01-01T00:00:00Z" {
		t.Fatalf("roundtrip mismatch: %v", out)
	}
}

func TestTimeRFC3339_NormalizesZoneOnEncode(t *testing.T) {
	tr := TimeRFC3339()

	v, err := tr.Decode("2025-01-01T00:00:00+09:00")
	if err != nil {
		t.Fatalf("decode err: %v", err)
	}
	out, err := tr.Encode(v)
	if err != nil {
		t.Fatalf("encode err: %v", err)
	}
	if out != "2024-12-31T15:00:00Z" {
		t.Fatalf("expected UTC canonical form, got %v", out)
	}
}

func TestTimeRFC3339_FractionalSeconds(t *testing.T) {
	tr := TimeRFC3339()

	v, err := tr.Decode("2025-06-01T12:30:45.5Z")
	if err != nil {
		t.Fatalf("decode err: %v", err)
	}
	out, err := tr.Encode(v)
	if err != nil {
		t.Fatalf("encode err: %v", err)
	}
	if out != "2025-06-01T12:30:45.5Z" {
		t.Fatalf("unexpected canonical form: %v", out)
	}
}

func TestTimeRFC3339_Invalid(t *testing.T) {
	tr := TimeRFC3339()
	if _, err := tr.Decode("not-a-time"); err == nil {
		t.Fatalf("expected error for invalid time")
	}
	if _, err := tr.Decode(42); err == nil {
		t.Fatalf("expected error for non-string input")
	}
}
