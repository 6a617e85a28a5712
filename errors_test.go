package skemata

import (
	"errors"
	"fmt"
	"testing"
)

func TestIssuesError_SummaryCapsAtThree(t *testing.T) {
	iss := Issues{
		IssueAt("/a", CodeMissingField, "m"),
		IssueAt("/b", CodeUnknownField, "m"),
		IssueAt("/c", CodeStructuralMismatch, "m"),
		IssueAt("/d", CodeMalformedScalar, "m"),
		IssueAt("/e", CodeParseError, "m"),
	}
	want := "missing_field at /a; unknown_field at /b; structural_mismatch at /c; ... (total 5)"
	if iss.Error() != want {
		t.Fatalf("summary = %q\nwant      %q", iss.Error(), want)
	}

	short := Issues{IssueAt("/x", CodeTruncated, "m")}
	if short.Error() != "truncated at /x" {
		t.Fatalf("summary = %q", short.Error())
	}
}

func TestAsIssues_UnwrapsWrappedErrors(t *testing.T) {
	inner := Issues{IssueAt("/p", CodeMissingField, "m")}
	wrapped := fmt.Errorf("request failed: %w", inner)
	iss, ok := AsIssues(wrapped)
	if !ok || len(iss) != 1 || iss[0].Path != "/p" {
		t.Fatalf("got %v, %v", iss, ok)
	}

	if _, ok := AsIssues(errors.New("plain")); ok {
		t.Fatalf("plain errors are not Issues")
	}
	if _, ok := AsIssues(nil); ok {
		t.Fatalf("nil is not Issues")
	}
}

func TestWrapAsIssues(t *testing.T) {
	inner := Issues{IssueAt("/p", CodeMissingField, "m")}
	if got := WrapAsIssues(inner); len(got) != 1 || got[0].Path != "/p" {
		t.Fatalf("passthrough got %v", got)
	}

	cause := errors.New("disk on fire")
	got := WrapAsIssues(cause)
	if len(got) != 1 || got[0].Code != CodeParseError || got[0].Path != "/" {
		t.Fatalf("wrapped = %+v", got)
	}
	if got[0].Message != "disk on fire" || !errors.Is(got[0].Cause, cause) {
		t.Fatalf("wrapped = %+v", got[0])
	}

	if WrapAsIssues(nil) != nil {
		t.Fatalf("nil wraps to nil")
	}
}

func TestIssueAt_NormalizesEmptyPath(t *testing.T) {
	is := IssueAt("", CodeParseError, "m")
	if is.Path != "/" || is.Offset != -1 {
		t.Fatalf("issue = %+v", is)
	}
}

func TestAppendIssues_InitializesNil(t *testing.T) {
	var iss Issues
	iss = AppendIssues(iss, IssueAt("/a", CodeMissingField, "m"))
	if len(iss) != 1 {
		t.Fatalf("got %v", iss)
	}
}
