/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package filter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-openapi/strfmt"
)

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindText
	KindUlid
	KindList
)

var kindNames = [...]string{"null", "bool", "int", "uint", "float", "text", "ulid", "list"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a small typed field value. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	u    uint64
	f    float64
	s    string
	id   strfmt.ULID
	list []Value
}

// Null returns a null Value.
func Null() Value { return Value{} }

// Bool returns a boolean Value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Int returns a signed integer Value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Uint returns an unsigned integer Value.
func Uint(v uint64) Value { return Value{kind: KindUint, u: v} }

// Float returns a float Value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// Text returns a text Value.
func Text(v string) Value { return Value{kind: KindText, s: v} }

// Ulid returns a ULID Value.
func Ulid(v strfmt.ULID) Value { return Value{kind: KindUlid, id: v} }

// List returns a list Value.
func List(vs ...Value) Value {
	return Value{kind: KindList, list: append([]Value(nil), vs...)}
}

// Texts is List of Text values.
func Texts(vs ...string) Value {
	out := make([]Value, len(vs))
	for i, s := range vs {
		out[i] = Text(s)
	}
	return Value{kind: KindList, list: out}
}

// FromAny converts common Go scalars to a Value, ok=false when unsupported.
func FromAny(v any) (Value, bool) {
	switch x := v.(type) {
	case nil:
		return Null(), true
	case Value:
		return x, true
	case bool:
		return Bool(x), true
	case int:
		return Int(int64(x)), true
	case int8:
		return Int(int64(x)), true
	case int16:
		return Int(int64(x)), true
	case int32:
		return Int(int64(x)), true
	case int64:
		return Int(x), true
	case uint:
		return Uint(uint64(x)), true
	case uint8:
		return Uint(uint64(x)), true
	case uint16:
		return Uint(uint64(x)), true
	case uint32:
		return Uint(uint64(x)), true
	case uint64:
		return Uint(x), true
	case float32:
		return Float(float64(x)), true
	case float64:
		return Float(x), true
	case string:
		return Text(x), true
	case strfmt.ULID:
		return Ulid(x), true
	case *strfmt.ULID:
		if x == nil {
			return Null(), true
		}
		return Ulid(*x), true
	case []string:
		return Texts(x...), true
	case []Value:
		return List(x...), true
	case []any:
		out := make([]Value, 0, len(x))
		for _, e := range x {
			ev, ok := FromAny(e)
			if !ok {
				return Value{}, false
			}
			out = append(out, ev)
		}
		return Value{kind: KindList, list: out}, true
	}
	return Value{}, false
}

// Kind returns the kind of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean value if Kind is KindBool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the int64 value if Kind is KindInt.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsUint returns the uint64 value if Kind is KindUint.
func (v Value) AsUint() (uint64, bool) { return v.u, v.kind == KindUint }

// AsFloat returns the float64 value if Kind is KindFloat.
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

// AsText returns the string value if Kind is KindText.
func (v Value) AsText() (string, bool) { return v.s, v.kind == KindText }

// AsUlid returns the ULID value if Kind is KindUlid.
func (v Value) AsUlid() (strfmt.ULID, bool) { return v.id, v.kind == KindUlid }

// AsList returns the elements if Kind is KindList.
func (v Value) AsList() ([]Value, bool) { return v.list, v.kind == KindList }

// textual returns the text form of text-like values (text and ULID).
func (v Value) textual() (string, bool) {
	switch v.kind {
	case KindText:
		return v.s, true
	case KindUlid:
		return v.id.String(), true
	}
	return "", false
}

// AsKey returns the string form used in sort keys and index keys. Integers
// are encoded as fixed-width hex with the sign bit flipped so that their
// string order matches numeric order. Floats use their IEEE-754 bits, with
// negatives inverted and positives sign-flipped, for the same reason; -0
// shares the key of 0. NaN, lists and null have no key form.
func (v Value) AsKey() (string, bool) {
	switch v.kind {
	case KindText:
		return v.s, true
	case KindUlid:
		return v.id.String(), true
	case KindInt:
		return fmt.Sprintf("%016x", uint64(v.i)^(1<<63)), true
	case KindUint:
		return fmt.Sprintf("%016x", v.u), true
	case KindFloat:
		if math.IsNaN(v.f) {
			return "", false
		}
		f := v.f
		if f == 0 {
			f = 0
		}
		bits := math.Float64bits(f)
		if bits>>63 == 1 {
			bits = ^bits
		} else {
			bits |= 1 << 63
		}
		return fmt.Sprintf("%016x", bits), true
	case KindBool:
		if v.b {
			return "1", true
		}
		return "0", true
	}
	return "", false
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindUint:
		return strconv.FormatUint(v.u, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindText:
		return strconv.Quote(v.s)
	case KindUlid:
		return v.id.String()
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return "invalid"
}

// Record is the field map of one entity instance.
type Record map[string]Value
