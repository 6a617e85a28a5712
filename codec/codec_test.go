package codec

import (
	"net/url"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestURL_Roundtrip(t *testing.T) {
	tr := URL()

	v, err := tr.Decode("https://example.com/a?b=1")
	if err != nil {
		t.Fatalf("decode err: %v", err)
	}
	u, ok := v.(*url.URL)
	if !ok || u.Host != "example.com" || u.Query().Get("b") != "1" {
		t.Fatalf("unexpected url: %#v", v)
	}

	out, err := tr.Encode(u)
	if err != nil {
		t.Fatalf("encode err: %v", err)
	}
	if out != "https://example.com/a?b=1" {
		t.Fatalf("roundtrip mismatch: %v", out)
	}
}

func TestURL_Invalid(t *testing.T) {
	tr := URL()
	if _, err := tr.Decode("://missing-scheme"); err == nil {
		t.Fatalf("expected error for malformed url")
	}
	if _, err := tr.Encode("not-a-url"); err == nil {
		t.Fatalf("expected error for non-URL value")
	}
}

func TestDurationSeconds_Roundtrip(t *testing.T) {
	tr := DurationSeconds()

	v, err := tr.Decode(int64(90))
	if err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if v != 90*time.Second {
		t.Fatalf("unexpected duration: %v", v)
	}

	out, err := tr.Encode(90 * time.Second)
	if err != nil {
		t.Fatalf("encode err: %v", err)
	}
	if out != int64(90) {
		t.Fatalf("roundtrip mismatch: %v", out)
	}
}

func TestDurationSeconds_RejectsSubSecond(t *testing.T) {
	tr := DurationSeconds()
	if _, err := tr.Encode(1500 * time.Millisecond); err == nil {
		t.Fatalf("expected error for sub-second duration")
	}
}

func TestDecimalString_Roundtrip(t *testing.T) {
	tr := DecimalString()

	v, err := tr.Decode("123.456")
	if err != nil {
		t.Fatalf("decode err: %v", err)
	}
	d, ok := v.(decimal.Decimal)
	if !ok || !d.Equal(decimal.RequireFromString("123.456")) {
		t.Fatalf("unexpected decimal: %v", v)
	}

	out, err := tr.Encode(d)
	if err != nil {
		t.Fatalf("encode err: %v", err)
	}
	if out != "123.456" {
		t.Fatalf("roundtrip mismatch: %v", out)
	}
}

func TestDecimalString_Invalid(t *testing.T) {
	tr := DecimalString()
	if _, err := tr.Decode("12.3.4"); err == nil {
		t.Fatalf("expected error for malformed decimal")
	}
}
