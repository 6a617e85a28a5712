// Package yaml adapts YAML document streams into the engine token contract,
// so any schema decode can read YAML through the same walk as JSON. Mapping
// key order is preserved by walking yaml.Node trees rather than decoded maps.
package yaml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	skemata "github.com/reoring/skemata"
	eng "github.com/reoring/skemata/internal/engine"
)

// Reader wraps an io.Reader of YAML documents as a skemata.Source.
func Reader(r io.Reader) skemata.Source { return skemata.SourceFromEngine(NewReader(r)) }

// Bytes wraps a byte slice of YAML documents as a skemata.Source.
func Bytes(b []byte) skemata.Source { return skemata.SourceFromEngine(NewBytes(b)) }

// NewReader wraps an io.Reader into an engine.TokenSource for YAML. Each
// document in the stream becomes one top-level value.
func NewReader(r io.Reader) eng.TokenSource {
	return &yamlSource{dec: yaml.NewDecoder(r)}
}

// NewBytes wraps a byte slice into an engine.TokenSource for YAML.
func NewBytes(b []byte) eng.TokenSource { return NewReader(bytes.NewReader(b)) }

// yamlSource materializes one document's tokens at a time. YAML offsets are
// line/column based, so every token carries Offset -1.
type yamlSource struct {
	dec    *yaml.Decoder
	tokens []eng.Token
	idx    int
	err    error
	done   bool
}

func (s *yamlSource) NextToken() (eng.Token, error) {
	for {
		if s.err != nil {
			return eng.Token{}, s.err
		}
		if s.idx < len(s.tokens) {
			t := s.tokens[s.idx]
			s.idx++
			return t, nil
		}
		if s.done {
			return eng.Token{}, io.EOF
		}
		var doc yaml.Node
		if err := s.dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				s.done = true
				continue
			}
			s.err = err
			return eng.Token{}, err
		}
		toks, err := appendNodeTokens(nil, &doc, map[*yaml.Node]bool{})
		if err != nil {
			s.err = err
			return eng.Token{}, err
		}
		s.tokens, s.idx = toks, 0
	}
}

func (s *yamlSource) Location() int64 { return -1 }

func appendNodeTokens(out []eng.Token, n *yaml.Node, inFlight map[*yaml.Node]bool) ([]eng.Token, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return append(out, eng.Token{Kind: eng.KindNull, Offset: -1}), nil
		}
		return appendNodeTokens(out, n.Content[0], inFlight)
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, fmt.Errorf("yaml: unresolved alias %q", n.Value)
		}
		if inFlight[n.Alias] {
			return nil, fmt.Errorf("yaml: recursive alias %q", n.Value)
		}
		return appendNodeTokens(out, n.Alias, inFlight)
	case yaml.MappingNode:
		inFlight[n] = true
		out = append(out, eng.Token{Kind: eng.KindBeginObject, Offset: -1})
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind == yaml.AliasNode && k.Alias != nil {
				k = k.Alias
			}
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("yaml: mapping key at line %d is not a scalar", n.Content[i].Line)
			}
			out = append(out, eng.Token{Kind: eng.KindKey, String: k.Value, Offset: -1})
			var err error
			out, err = appendNodeTokens(out, v, inFlight)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, eng.Token{Kind: eng.KindEndObject, Offset: -1})
		delete(inFlight, n)
		return out, nil
	case yaml.SequenceNode:
		inFlight[n] = true
		out = append(out, eng.Token{Kind: eng.KindBeginArray, Offset: -1})
		for _, c := range n.Content {
			var err error
			out, err = appendNodeTokens(out, c, inFlight)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, eng.Token{Kind: eng.KindEndArray, Offset: -1})
		delete(inFlight, n)
		return out, nil
	case yaml.ScalarNode:
		return append(out, scalarToken(n)), nil
	default:
		return append(out, eng.Token{Kind: eng.KindNull, Offset: -1}), nil
	}
}

func scalarToken(n *yaml.Node) eng.Token {
	switch n.Tag {
	case "!!null":
		return eng.Token{Kind: eng.KindNull, Offset: -1}
	case "!!bool":
		b, err := strconv.ParseBool(n.Value)
		if err != nil {
			return eng.Token{Kind: eng.KindString, String: n.Value, Offset: -1}
		}
		return eng.Token{Kind: eng.KindBool, Bool: b, Offset: -1}
	case "!!int", "!!float":
		return eng.Token{Kind: eng.KindNumber, Number: normalizeNumber(n.Tag, n.Value), Offset: -1}
	default:
		// Timestamps, binary and custom tags surface as strings; the schema
		// kind decides how the text is interpreted.
		return eng.Token{Kind: eng.KindString, String: n.Value, Offset: -1}
	}
}

// normalizeNumber rewrites YAML's extra integer spellings (hex, octal,
// underscores) into the JSON number syntax downstream converters expect.
// Unparseable text passes through and fails later with a scalar issue.
func normalizeNumber(tag, v string) string {
	s := strings.ReplaceAll(v, "_", "")
	if tag == "!!int" {
		if i, ok := new(big.Int).SetString(s, 0); ok {
			return i.String()
		}
		return v
	}
	return s
}
