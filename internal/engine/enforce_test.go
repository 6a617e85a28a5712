package engine_test

import (
	"encoding/json"
	"errors"
	"testing"

	eng "github.com/reoring/skemata/internal/engine"
	jsonsrc "github.com/reoring/skemata/source/json"
)

func enforced(doc string, opt eng.EnforceOptions) eng.TokenSource {
	return eng.WrapWithEnforcement(jsonsrc.NewBytes([]byte(doc)), opt)
}

func TestEnforce_DuplicateKeyModes(t *testing.T) {
	const doc = `{"a":1,"a":2}`

	t.Run("ignore", func(t *testing.T) {
		v, err := eng.DecodeAnyFromSource(enforced(doc, eng.EnforceOptions{}))
		if err != nil {
			t.Fatalf("decode err: %v", err)
		}
		if v.(map[string]any)["a"] != json.Number("2") {
			t.Fatalf("a = %v, want last value to win", v.(map[string]any)["a"])
		}
	})

	t.Run("warn", func(t *testing.T) {
		var got []eng.SimpleIssue
		src := enforced(doc, eng.EnforceOptions{
			OnDuplicate: eng.DupWarn,
			IssueSink:   func(si eng.SimpleIssue) { got = append(got, si) },
		})
		v, err := eng.DecodeAnyFromSource(src)
		if err != nil {
			t.Fatalf("decode err: %v", err)
		}
		if v.(map[string]any)["a"] != json.Number("2") {
			t.Fatalf("a = %v", v.(map[string]any)["a"])
		}
		if len(got) != 1 {
			t.Fatalf("issues = %d, want 1", len(got))
		}
		if got[0].Code != "duplicate_key" || got[0].Path != "/a" {
			t.Fatalf("issue = %+v", got[0])
		}
	})

	t.Run("error", func(t *testing.T) {
		_, err := eng.DecodeAnyFromSource(enforced(doc, eng.EnforceOptions{OnDuplicate: eng.DupError}))
		var ie eng.IssueError
		if !errors.As(err, &ie) {
			t.Fatalf("err = %v, want IssueError", err)
		}
		if ie.Code != "duplicate_key" || ie.Path != "/a" {
			t.Fatalf("issue = %+v", ie.SimpleIssue)
		}
		if ie.Message != "key 'a' duplicated" {
			t.Fatalf("message = %q", ie.Message)
		}
	})
}

func TestEnforce_WarnWithFailFastIsFatal(t *testing.T) {
	src := enforced(`{"a":1,"a":2}`, eng.EnforceOptions{OnDuplicate: eng.DupWarn, FailFast: true})
	_, err := eng.DecodeAnyFromSource(src)
	var ie eng.IssueError
	if !errors.As(err, &ie) {
		t.Fatalf("err = %v, want IssueError", err)
	}
	if ie.Code != "duplicate_key" {
		t.Fatalf("code = %q", ie.Code)
	}
}

func TestEnforce_NestedDuplicatePath(t *testing.T) {
	src := enforced(`{"o":{"x":1,"x":2}}`, eng.EnforceOptions{OnDuplicate: eng.DupError})
	_, err := eng.DecodeAnyFromSource(src)
	var ie eng.IssueError
	if !errors.As(err, &ie) {
		t.Fatalf("err = %v, want IssueError", err)
	}
	if ie.Path != "/o/x" {
		t.Fatalf("path = %q, want /o/x", ie.Path)
	}
}

func TestEnforce_MaxDepth(t *testing.T) {
	src := enforced(`[[[1]]]`, eng.EnforceOptions{MaxDepth: 2})
	_, err := eng.DecodeAnyFromSource(src)
	var ie eng.IssueError
	if !errors.As(err, &ie) {
		t.Fatalf("err = %v, want IssueError", err)
	}
	if ie.Code != "parse_error" || ie.Message != "max depth exceeded" {
		t.Fatalf("issue = %+v", ie.SimpleIssue)
	}
	if ie.Path != "/0/0" {
		t.Fatalf("path = %q", ie.Path)
	}
}

func TestEnforce_MaxDepthAllowsExactLimit(t *testing.T) {
	src := enforced(`{"a":[1,2]}`, eng.EnforceOptions{MaxDepth: 2})
	if _, err := eng.DecodeAnyFromSource(src); err != nil {
		t.Fatalf("decode err: %v", err)
	}
}

func TestEnforce_MaxBytes(t *testing.T) {
	src := enforced(`[1,2,3,4,5,6,7,8,9]`, eng.EnforceOptions{MaxBytes: 5})
	_, err := eng.DecodeAnyFromSource(src)
	var ie eng.IssueError
	if !errors.As(err, &ie) {
		t.Fatalf("err = %v, want IssueError", err)
	}
	if ie.Code != "truncated" || ie.Message != "max bytes exceeded" {
		t.Fatalf("issue = %+v", ie.SimpleIssue)
	}
}

func TestEnforce_MaxBytesAllowsWholeInput(t *testing.T) {
	doc := `{"a":1}`
	src := enforced(doc, eng.EnforceOptions{MaxBytes: int64(len(doc))})
	if _, err := eng.DecodeAnyFromSource(src); err != nil {
		t.Fatalf("decode err: %v", err)
	}
}
