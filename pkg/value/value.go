// Package value implements the Lunet runtime value model.
//
// A Value is a tagged union over nil, booleans, 64-bit integers and
// floats, strings, tables and built-in functions. Strings are stored in
// three tiers selected by byte length: short strings live inline in the
// Value and are copied by value, mid strings share a fixed-size heap
// buffer, and long strings share an arbitrary-length heap allocation.
// The tier is chosen once, in NewString, and never changes.
//
// Equality and hashing compare strings by logical content, regardless
// of tier. Tables compare by identity.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// String tier thresholds, in bytes.
const (
	// ShortStringMax is the largest string stored inline in the Value.
	ShortStringMax = 14

	// MidStringMax is the largest string stored in a shared fixed-size
	// buffer. Anything longer goes to the heap tier.
	MidStringMax = 47
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindBoolean
	KindInteger
	KindFloat
	KindShortString
	KindMidString
	KindLongString
	KindTable
	KindBuiltin
)

var kindNames = map[Kind]string{
	KindNil:         "nil",
	KindBoolean:     "boolean",
	KindInteger:     "integer",
	KindFloat:       "float",
	KindShortString: "string",
	KindMidString:   "string",
	KindLongString:  "string",
	KindTable:       "table",
	KindBuiltin:     "function",
}

// String returns the user-facing type name for a kind. All three string
// tiers report "string".
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// BuiltinID tags a native function. Built-ins form a closed enumeration
// dispatched by tag; two builtin values are equal iff their tags match.
type BuiltinID uint8

const (
	BuiltinInvalid BuiltinID = iota
	BuiltinPrint
)

// midString is the shared fixed-buffer string tier. The buffer pointer
// is shared between copies of the owning Value.
type midString struct {
	len uint8
	buf [MidStringMax]byte
}

// Value is the runtime representation of a Lunet value.
//
// The zero Value is nil. Copying a Value copies short strings wholesale
// and shares mid/long strings and tables through their pointers, so
// copies are always cheap and table mutation is visible through every
// handle.
type Value struct {
	kind Kind

	b  bool
	i  int64
	f  float64
	id BuiltinID

	slen  uint8
	sbuf  [ShortStringMax]byte
	mid   *midString
	long  *string
	table *Table
}

// Nil returns the nil value.
func Nil() Value {
	return Value{kind: KindNil}
}

// Boolean returns a boolean value.
func Boolean(b bool) Value {
	return Value{kind: KindBoolean, b: b}
}

// Integer returns an integer value.
func Integer(i int64) Value {
	return Value{kind: KindInteger, i: i}
}

// Float returns a float value.
func Float(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

// NewString builds a string value, selecting the storage tier from the
// byte length of s. This is the only constructor for strings, so every
// call site agrees on the tier boundaries.
func NewString(s string) Value {
	switch {
	case len(s) <= ShortStringMax:
		v := Value{kind: KindShortString, slen: uint8(len(s))}
		copy(v.sbuf[:], s)
		return v
	case len(s) <= MidStringMax:
		m := &midString{len: uint8(len(s))}
		copy(m.buf[:], s)
		return Value{kind: KindMidString, mid: m}
	default:
		heap := s
		return Value{kind: KindLongString, long: &heap}
	}
}

// TableValue wraps a table handle. Copies of the value alias the same
// table.
func TableValue(t *Table) Value {
	return Value{kind: KindTable, table: t}
}

// Builtin returns a native-function value identified by tag.
func Builtin(id BuiltinID) Value {
	return Value{kind: KindBuiltin, id: id}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNil reports whether the value is nil.
func (v Value) IsNil() bool {
	return v.kind == KindNil
}

// IsString reports whether the value is a string of any tier.
func (v Value) IsString() bool {
	switch v.kind {
	case KindShortString, KindMidString, KindLongString:
		return true
	}
	return false
}

// AsBoolean returns the boolean payload. Valid only for KindBoolean.
func (v Value) AsBoolean() bool {
	return v.b
}

// AsInteger returns the integer payload. Valid only for KindInteger.
func (v Value) AsInteger() int64 {
	return v.i
}

// AsFloat returns the float payload. Valid only for KindFloat.
func (v Value) AsFloat() float64 {
	return v.f
}

// AsTable returns the table handle, or nil for non-table values.
func (v Value) AsTable() *Table {
	if v.kind != KindTable {
		return nil
	}
	return v.table
}

// BuiltinID returns the native-function tag, or BuiltinInvalid for
// non-builtin values.
func (v Value) BuiltinID() BuiltinID {
	if v.kind != KindBuiltin {
		return BuiltinInvalid
	}
	return v.id
}

// Text returns the string content and true for string values of any
// tier, recovering the original bytes exactly. For every other kind it
// returns "" and false.
func (v Value) Text() (string, bool) {
	switch v.kind {
	case KindShortString:
		return string(v.sbuf[:v.slen]), true
	case KindMidString:
		return string(v.mid.buf[:v.mid.len]), true
	case KindLongString:
		return *v.long, true
	}
	return "", false
}

// Equal reports structural equality. Strings compare by byte content
// across tiers; integers and floats are distinct kinds and never equal
// each other; tables compare by identity; builtins by tag. Float NaN is
// unequal to everything, itself included.
func (v Value) Equal(o Value) bool {
	if v.IsString() && o.IsString() {
		a, _ := v.Text()
		b, _ := o.Text()
		return a == b
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindBoolean:
		return v.b == o.b
	case KindInteger:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindTable:
		return v.table == o.table
	case KindBuiltin:
		return v.id == o.id
	}
	return false
}

// String returns the display form: nil, true/false, decimal integers,
// floats with a decimal point or exponent, raw string content, and
// opaque forms for tables and functions.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBoolean:
		return strconv.FormatBool(v.b)
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindShortString, KindMidString, KindLongString:
		s, _ := v.Text()
		return s
	case KindTable:
		return fmt.Sprintf("table: %p", v.table)
	case KindBuiltin:
		return "function"
	}
	return fmt.Sprintf("Value(%d)", v.kind)
}

// formatFloat renders a float so it is never mistaken for an integer:
// 10.0 displays as "10.0", not "10".
func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
