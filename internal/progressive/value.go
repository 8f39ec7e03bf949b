// Package progressive renders a value as a sequence of complete JSON snapshots that
// converge to the full value, so a client can draw partial UI state from any frame.
package progressive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// Kind identifies the shape of a Value node.
type Kind int

const (
	// KindObject is an ordered mapping.
	KindObject Kind = iota
	// KindArray is a sequence.
	KindArray
	// KindString is a JSON string, grown one rune at a time while streaming.
	KindString
	// KindScalar is a number, boolean or null, emitted in one step.
	KindScalar
)

// Value is an ordered JSON tree. Object keys keep insertion order, which
// encoding/json maps do not.
type Value struct {
	Kind   Kind
	Keys   []string        // object keys, parallel to Items
	Items  []*Value        // object values or array elements
	Str    string          // KindString
	Scalar json.RawMessage // KindScalar
}

var nullScalar = json.RawMessage("null")

// Parse decodes JSON into an ordered tree.
func Parse(data []byte) (*Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := parseValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("progressive: unexpected data after top-level value")
	}
	return v, nil
}

func parseValue(dec *json.Decoder) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			v := &Value{Kind: KindObject}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("progressive: object key is %T, not string", keyTok)
				}
				child, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				v.Keys = append(v.Keys, key)
				v.Items = append(v.Items, child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return v, nil
		case '[':
			v := &Value{Kind: KindArray}
			for dec.More() {
				child, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				v.Items = append(v.Items, child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return v, nil
		default:
			return nil, fmt.Errorf("progressive: unexpected delimiter %q", t)
		}
	case string:
		return &Value{Kind: KindString, Str: t}, nil
	case json.Number:
		return &Value{Kind: KindScalar, Scalar: json.RawMessage(t.String())}, nil
	case bool:
		if t {
			return &Value{Kind: KindScalar, Scalar: json.RawMessage("true")}, nil
		}
		return &Value{Kind: KindScalar, Scalar: json.RawMessage("false")}, nil
	case nil:
		return &Value{Kind: KindScalar, Scalar: nullScalar}, nil
	default:
		return nil, fmt.Errorf("progressive: unexpected token %T", tok)
	}
}

// FromAny converts an arbitrary Go value into an ordered tree. Structs keep their
// field order. Plain maps are ordered by key. A value that cannot be encoded
// falls back to its fmt rendering as a string so streaming can continue.
func FromAny(v any) *Value {
	switch t := v.(type) {
	case *Value:
		if t == nil {
			return &Value{Kind: KindScalar, Scalar: nullScalar}
		}
		return t
	case nil:
		return &Value{Kind: KindScalar, Scalar: nullScalar}
	case string:
		return &Value{Kind: KindString, Str: t}
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := &Value{Kind: KindObject}
		for _, k := range keys {
			out.Keys = append(out.Keys, k)
			out.Items = append(out.Items, FromAny(t[k]))
		}
		return out
	case []any:
		out := &Value{Kind: KindArray}
		for _, item := range t {
			out.Items = append(out.Items, FromAny(item))
		}
		return out
	case json.RawMessage:
		if parsed, err := Parse(t); err == nil {
			return parsed
		}
		return &Value{Kind: KindString, Str: string(t)}
	}

	data, err := json.Marshal(v)
	if err != nil {
		return &Value{Kind: KindString, Str: fmt.Sprintf("%v", v)}
	}
	parsed, err := Parse(data)
	if err != nil {
		return &Value{Kind: KindString, Str: fmt.Sprintf("%v", v)}
	}
	return parsed
}

// MarshalJSON implements json.Marshaler.
func (v *Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v *Value) writeJSON(buf *bytes.Buffer) error {
	if v == nil {
		buf.Write(nullScalar)
		return nil
	}

	switch v.Kind {
	case KindObject:
		buf.WriteByte('{')
		for i, key := range v.Keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := v.Items[i].writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindString:
		return writeString(buf, v.Str)
	default:
		if len(v.Scalar) == 0 {
			buf.Write(nullScalar)
			return nil
		}
		buf.Write(v.Scalar)
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	quoted, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(quoted)
	return nil
}
