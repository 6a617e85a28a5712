// Package json adapts encoding/json's streaming decoder into the engine
// token contract. It is the default driver; source/gojson swaps in
// goccy/go-json.
package json

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"

	eng "github.com/reoring/skemata/internal/engine"
)

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

// frame tracks whether the enclosing object expects a key next, which is
// the only state needed to tell keys from string values.
type frame struct {
	kind         containerKind
	expectingKey bool
}

type jsonSource struct {
	dec        *json.Decoder
	stack      []frame
	lastOffset int64
}

// NewReader wraps an io.Reader into an engine.TokenSource for JSON.
func NewReader(r io.Reader) eng.TokenSource {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return &jsonSource{dec: dec, lastOffset: -1}
}

// NewBytes wraps a byte slice into an engine.TokenSource for JSON.
func NewBytes(b []byte) eng.TokenSource { return NewReader(bytes.NewReader(b)) }

func (s *jsonSource) NextToken() (eng.Token, error) {
	tok, err := s.dec.Token()
	if err != nil {
		if err == io.EOF {
			return eng.Token{}, io.EOF
		}
		return eng.Token{}, err
	}
	s.lastOffset = s.dec.InputOffset()

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			s.stack = append(s.stack, frame{kind: kindObject, expectingKey: true})
			return s.emit(eng.KindBeginObject), nil
		case '}':
			s.pop()
			return s.emit(eng.KindEndObject), nil
		case '[':
			s.stack = append(s.stack, frame{kind: kindArray})
			return s.emit(eng.KindBeginArray), nil
		case ']':
			s.pop()
			return s.emit(eng.KindEndArray), nil
		}
	case string:
		if top := s.top(); top != nil && top.kind == kindObject && top.expectingKey {
			top.expectingKey = false
			t := s.emit(eng.KindKey)
			t.String = v
			return t, nil
		}
		s.valueDone()
		t := s.emit(eng.KindString)
		t.String = v
		return t, nil
	case bool:
		s.valueDone()
		t := s.emit(eng.KindBool)
		t.Bool = v
		return t, nil
	case json.Number:
		s.valueDone()
		t := s.emit(eng.KindNumber)
		t.Number = string(v)
		return t, nil
	case float64:
		// Only reachable without UseNumber.
		s.valueDone()
		t := s.emit(eng.KindNumber)
		t.Number = strconv.FormatFloat(v, 'g', -1, 64)
		return t, nil
	case nil:
		s.valueDone()
		return s.emit(eng.KindNull), nil
	}

	s.valueDone()
	return s.emit(eng.KindNull), nil
}

func (s *jsonSource) Location() int64 { return s.lastOffset }

func (s *jsonSource) emit(k eng.Kind) eng.Token {
	return eng.Token{Kind: k, Offset: s.lastOffset}
}

func (s *jsonSource) top() *frame {
	if n := len(s.stack); n > 0 {
		return &s.stack[n-1]
	}
	return nil
}

// valueDone flips the enclosing object back to key position after a value.
func (s *jsonSource) valueDone() {
	if top := s.top(); top != nil && top.kind == kindObject && !top.expectingKey {
		top.expectingKey = true
	}
}

func (s *jsonSource) pop() {
	if n := len(s.stack); n > 0 {
		s.stack = s.stack[:n-1]
	}
	s.valueDone()
}
