package codec_test

import (
	"context"
	"testing"
	"time"

	skemata "github.com/reoring/skemata"
	"github.com/reoring/skemata/codec"
	"github.com/reoring/skemata/jsoncodec"
)

func TestIdentity_PassesValuesThrough(t *testing.T) {
	tr := codec.Identity(skemata.String(), "Tag")

	v, err := tr.Decode("asdf")
	if err != nil || v != "asdf" {
		t.Fatalf("decode err=%v v=%q", err, v)
	}
	ev, err := tr.Encode(v)
	if err != nil || ev != "asdf" {
		t.Fatalf("encode err=%v v=%q", err, ev)
	}
	if tr.TypeName != "Tag" {
		t.Fatalf("unexpected type name: %q", tr.TypeName)
	}
}

func TestIdentity_RecordRoundtripOverWire(t *testing.T) {
	ctx := context.Background()
	rec := skemata.NewRecord("Project", nil,
		skemata.MapField("name", skemata.String()),
		skemata.MapField("tags", skemata.SequenceOf(skemata.String())),
	)
	s := codec.Identity(rec, "Project")

	v, err := jsoncodec.Decode(ctx, s, []byte(`{"name":"proj","tags":["a","b"]}`))
	if err != nil {
		t.Fatalf("decode err: %v", err)
	}
	m, ok := v.(map[string]any)
	if !ok || m["name"] != "proj" {
		t.Fatalf("unexpected value: %#v", v)
	}

	data, err := jsoncodec.Encode(ctx, s, v)
	if err != nil {
		t.Fatalf("encode err: %v", err)
	}
	if string(data) != `{"name":"proj","tags":["a","b"]}` {
		t.Fatalf("unexpected wire form: %s", data)
	}
}

func TestTimeRFC3339_InsideRecord(t *testing.T) {
	ctx := context.Background()
	rec := skemata.NewRecord("Event", nil,
		skemata.MapField("name", skemata.String()),
		skemata.MapField("at", codec.TimeRFC3339()),
	)

	v, err := jsoncodec.Decode(ctx, rec, []byte(`{"name":"launch","at":"2025-03-01T09:00:00Z"}`))
	if err != nil {
		t.Fatalf("decode err: %v", err)
	}
	m := v.(map[string]any)
	at, ok := m["at"].(time.Time)
	if !ok || !at.Equal(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time: %#v", m["at"])
	}

	data, err := jsoncodec.Encode(ctx, rec, v)
	if err != nil {
		t.Fatalf("encode err: %v", err)
	}
	if string(data) != `{"name":"launch","at":"2025-03-01T09:00:00Z"}` {
		t.Fatalf("unexpected wire form: %s", data)
	}
}
