/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sortkey

import (
	"bytes"
	"fmt"

	"github.com/suparena/entitykv/errors"
)

// Component framing. A zero byte inside a component is escaped as 0x00 0xff,
// and every component ends with 0x00 0x01, so bytewise order of the encoding
// equals Compare order.
const (
	escByte  = 0x00
	escZero  = 0xff
	termByte = 0x01

	tagNone = 0x01
	tagSome = 0x02
)

func appendComponent(dst []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == escByte {
			dst = append(dst, escByte, escZero)
			continue
		}
		dst = append(dst, c)
	}
	return append(dst, escByte, termByte)
}

func readComponent(b []byte) (string, []byte, error) {
	var out []byte
	for i := 0; i < len(b); i++ {
		c := b[i]
		if c != escByte {
			out = append(out, c)
			continue
		}
		if i+1 >= len(b) {
			return "", nil, fmt.Errorf("truncated escape at offset %d", i)
		}
		switch b[i+1] {
		case escZero:
			out = append(out, escByte)
			i++
		case termByte:
			return string(out), b[i+2:], nil
		default:
			return "", nil, fmt.Errorf("invalid escape 0x%02x at offset %d", b[i+1], i)
		}
	}
	return "", nil, fmt.Errorf("unterminated component")
}

// Encode returns the order-preserving byte form of k.
func (k SortKey) Encode() []byte {
	var buf []byte
	for _, p := range k.parts {
		buf = appendComponent(buf, p.Path)
		if !p.HasValue {
			buf = append(buf, tagNone)
			continue
		}
		buf = append(buf, tagSome)
		buf = appendComponent(buf, p.Value)
	}
	return buf
}

// Validate reports keys whose encoding exceeds MaxSize.
func (k SortKey) Validate() error {
	if n := len(k.Encode()); n > MaxSize {
		return errors.NewValidationError("key", fmt.Sprintf("encoded size %d exceeds %d bytes", n, MaxSize))
	}
	return nil
}

// Decode parses an encoded key.
func Decode(b []byte) (SortKey, error) {
	var parts []Part
	rest := b
	for len(rest) > 0 {
		path, r, err := readComponent(rest)
		if err != nil {
			return SortKey{}, fmt.Errorf("decode sort key path: %w", err)
		}
		if len(r) == 0 {
			return SortKey{}, fmt.Errorf("decode sort key: missing value tag after %q", path)
		}
		switch r[0] {
		case tagNone:
			parts = append(parts, None(path))
			rest = r[1:]
		case tagSome:
			v, r2, err := readComponent(r[1:])
			if err != nil {
				return SortKey{}, fmt.Errorf("decode sort key value: %w", err)
			}
			parts = append(parts, Some(path, v))
			rest = r2
		default:
			return SortKey{}, fmt.Errorf("decode sort key: invalid value tag 0x%02x", r[0])
		}
	}
	return SortKey{parts: parts}, nil
}

// MustDecode is Decode for keys produced by Encode; it panics on malformed input.
func MustDecode(b []byte) SortKey {
	k, err := Decode(b)
	if err != nil {
		panic(err)
	}
	return k
}

// CompareEncoded compares two encoded keys.
func CompareEncoded(a, b []byte) int {
	return bytes.Compare(a, b)
}
