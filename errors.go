package skemata

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeStructuralMismatch = "structural_mismatch"
	CodeMissingField       = "missing_field"
	CodeUnknownField       = "unknown_field"
	CodeUnknownCase        = "unknown_case"
	CodeConversionFailure  = "conversion_failure"
	CodeNoCaseMatched      = "no_case_matched"
	CodeMalformedScalar    = "malformed_scalar"
	CodeParseError         = "parse_error"
	CodeDuplicateKey       = "duplicate_key"
	CodeTruncated          = "truncated"
)

// Issue represents a single diagnostic entry.
type Issue struct {
	Path    string // JSON Pointer (for example: /items/2/price).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints, format names, etc.
	Cause   error  // Optional: underlying error.
	Offset  int64  // Byte offset in the input source (-1 when unknown).
	// Params carries structured parameters (e.g., {"want":"object", "got":"array"})
	// for i18n and observability.
	Params map[string]any
}

// Issues is a collection of diagnostics that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. structural_mismatch at /path
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// IssueAt creates an Issue at the given JSON Pointer path.
func IssueAt(path, code, msg string) Issue {
	return Issue{Path: normalizePointer(path), Code: code, Message: msg, Offset: -1}
}

// WrapAsIssues converts an arbitrary error into Issues, passing existing
// Issues through untouched and wrapping anything else as a parse_error at
// the root path.
func WrapAsIssues(err error) Issues {
	if err == nil {
		return nil
	}
	if iss, ok := AsIssues(err); ok {
		return iss
	}
	return Issues{{Path: "/", Code: CodeParseError, Message: err.Error(), Cause: err, Offset: -1}}
}

func normalizePointer(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
