// Package canon hashes request payloads over a canonical byte form
// Canonical form is JSON with object keys sorted lexicographically and
// no insignificant whitespace, so wire-level field order and formatting
// cannot change the hash
package canon

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
)

// Hash returns the SHA-256 of the canonical JSON encoding of v
func Hash(v any) ([32]byte, error) {
	b, err := Marshal(v)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(b), nil
}

// HashBytes canonicalizes raw JSON bytes and hashes them
// invalid JSON is an error, never a silent hash of the raw form
func HashBytes(raw []byte) ([32]byte, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return [32]byte{}, fmt.Errorf("canon: invalid json: %w", err)
	}
	return Hash(v)
}

// Marshal renders v in canonical form
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encode(buf *bytes.Buffer, v any) error {
	switch x := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := encode(buf, x[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case []any:
		buf.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encode(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case json.Number:
		// keep the wire digits, 280.0 and 280 stay distinct inputs
		buf.WriteString(x.String())
		return nil
	default:
		// scalars and structs, round-trip structs through a generic map
		// so field order follows the canonical key sort
		b, err := json.Marshal(x)
		if err != nil {
			return err
		}
		// structs and nested maps need re-canonicalization
		switch b[0] {
		case '{', '[':
			var g any
			dec := json.NewDecoder(bytes.NewReader(b))
			dec.UseNumber()
			if err := dec.Decode(&g); err != nil {
				return err
			}
			return encode(buf, g)
		}
		buf.Write(b)
		return nil
	}
}
