package engine

import (
	"errors"
	"io"

	gojson "github.com/goccy/go-json"
)

// Writer emits a compact JSON token stream to an io.Writer. It tracks
// container state so callers push tokens without worrying about separators.
// Errors are sticky: after the first failure all writes become no-ops and
// Err reports the failure.
type Writer struct {
	w      io.Writer
	stack  []writeFrame
	offset int64
	values int
	err    error
}

type writeFrame struct {
	array bool
	count int
	// keyed is true inside an object after a key has been written and
	// before its value arrives.
	keyed bool
}

// NewWriter returns a Writer emitting to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Err returns the first error encountered while writing.
func (w *Writer) Err() error { return w.err }

// Offset returns the number of bytes written so far.
func (w *Writer) Offset() int64 { return w.offset }

func (w *Writer) write(b []byte) {
	if w.err != nil {
		return
	}
	n, err := w.w.Write(b)
	w.offset += int64(n)
	if err != nil {
		w.err = err
	}
}

func (w *Writer) writeByte(c byte) { w.write([]byte{c}) }

// beginValue writes any separator owed before a value (or container start)
// at the current position.
func (w *Writer) beginValue() {
	if w.err != nil {
		return
	}
	if len(w.stack) == 0 {
		if w.values > 0 {
			w.writeByte('\n')
		}
		w.values++
		return
	}
	top := &w.stack[len(w.stack)-1]
	if top.array {
		if top.count > 0 {
			w.writeByte(',')
		}
		top.count++
		return
	}
	if !top.keyed {
		w.err = errors.New("json writer: value written without preceding key")
		return
	}
	top.keyed = false
}

// BeginObject opens an object value.
func (w *Writer) BeginObject() {
	w.beginValue()
	w.writeByte('{')
	if w.err == nil {
		w.stack = append(w.stack, writeFrame{})
	}
}

// EndObject closes the innermost object.
func (w *Writer) EndObject() {
	if w.err != nil {
		return
	}
	n := len(w.stack)
	if n == 0 || w.stack[n-1].array || w.stack[n-1].keyed {
		w.err = errors.New("json writer: mismatched end of object")
		return
	}
	w.stack = w.stack[:n-1]
	w.writeByte('}')
}

// BeginArray opens an array value.
func (w *Writer) BeginArray() {
	w.beginValue()
	w.writeByte('[')
	if w.err == nil {
		w.stack = append(w.stack, writeFrame{array: true})
	}
}

// EndArray closes the innermost array.
func (w *Writer) EndArray() {
	if w.err != nil {
		return
	}
	n := len(w.stack)
	if n == 0 || !w.stack[n-1].array {
		w.err = errors.New("json writer: mismatched end of array")
		return
	}
	w.stack = w.stack[:n-1]
	w.writeByte(']')
}

// Key writes an object member key.
func (w *Writer) Key(name string) {
	if w.err != nil {
		return
	}
	n := len(w.stack)
	if n == 0 || w.stack[n-1].array || w.stack[n-1].keyed {
		w.err = errors.New("json writer: key written outside object")
		return
	}
	top := &w.stack[n-1]
	if top.count > 0 {
		w.writeByte(',')
	}
	top.count++
	top.keyed = true
	w.writeQuoted(name)
	w.writeByte(':')
}

// String writes a string value.
func (w *Writer) String(s string) {
	w.beginValue()
	w.writeQuoted(s)
}

// Number writes a raw JSON number. The text must already be valid JSON
// number syntax.
func (w *Writer) Number(text string) {
	w.beginValue()
	w.write([]byte(text))
}

// Bool writes a boolean value.
func (w *Writer) Bool(b bool) {
	w.beginValue()
	if b {
		w.write([]byte("true"))
	} else {
		w.write([]byte("false"))
	}
}

// Null writes a null value.
func (w *Writer) Null() {
	w.beginValue()
	w.write([]byte("null"))
}

func (w *Writer) writeQuoted(s string) {
	if w.err != nil {
		return
	}
	b, err := gojson.Marshal(s)
	if err != nil {
		w.err = err
		return
	}
	w.write(b)
}

// Close verifies all containers are balanced and returns any pending error.
func (w *Writer) Close() error {
	if w.err != nil {
		return w.err
	}
	if len(w.stack) != 0 {
		w.err = errors.New("json writer: unclosed container")
	}
	return w.err
}
