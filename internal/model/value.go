package model

import (
	"encoding/json"
	"strconv"
)

// NullLiteral is the string form of a null value when matched against filter specs
const NullLiteral = "null"

// Kind identifies which scalar a Value holds
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInteger
	KindBoolean
)

// Value is a coerced scalar: null, string, integer or boolean.
// Values are comparable and can be used as map keys.
type Value struct {
	kind Kind
	str  string
	num  int64
	flag bool
}

// Null returns the null value
func Null() Value { return Value{} }

// StringValue returns a string value
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// Int returns an integer value
func Int(n int64) Value { return Value{kind: KindInteger, num: n} }

// Bool returns a boolean value
func Bool(b bool) Value { return Value{kind: KindBoolean, flag: b} }

// Kind reports which scalar v holds
func (v Value) Kind() Kind { return v.kind }

// String returns the canonical string form used for filter matching
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindInteger:
		return strconv.FormatInt(v.num, 10)
	case KindBoolean:
		return strconv.FormatBool(v.flag)
	default:
		return NullLiteral
	}
}

// Interface returns v as a plain Go scalar (nil, string, int64 or bool)
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindInteger:
		return v.num
	case KindBoolean:
		return v.flag
	default:
		return nil
	}
}

// MarshalJSON encodes v as a native JSON scalar
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// MarshalYAML encodes v as a native YAML scalar
func (v Value) MarshalYAML() (interface{}, error) {
	return v.Interface(), nil
}
