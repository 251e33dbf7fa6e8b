package namemap

import (
	"fmt"
	"strconv"
)

// Kind discriminates the payload of a Value.
type Kind int

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindFloats
	KindBuffer
)

var kindNames = [...]string{"invalid", "int", "float", "floats", "buffer"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// ParseKind maps a type name to a Kind. It accepts the names used on send and
// receive command lines ("int", "size_t", "float", "double", "array", ...).
func ParseKind(name string) (Kind, error) {
	switch name {
	case "int", "size_t", "int64":
		return KindInt, nil
	case "float", "double", "float64":
		return KindFloat, nil
	case "floats", "array", "[]float64":
		return KindFloats, nil
	case "buffer", "bytes":
		return KindBuffer, nil
	}
	return KindInvalid, fmt.Errorf("unknown kind %q: %w", name, ErrTypeMismatch)
}

// Value is a tagged union of the types exchanged through a Map. Only the
// field selected by Kind is meaningful.
type Value struct {
	Kind   Kind      `msgpack:"k" json:"kind"`
	Int    int64     `msgpack:"i,omitempty" json:"int,omitempty"`
	Float  float64   `msgpack:"f,omitempty" json:"float,omitempty"`
	Floats []float64 `msgpack:"a,omitempty" json:"floats,omitempty"`
	Buffer []byte    `msgpack:"b,omitempty" json:"buffer,omitempty"`
	// Type is the declared element type of a buffer.
	Type string `msgpack:"t,omitempty" json:"type,omitempty"`
}

func Int(v int64) Value { return Value{Kind: KindInt, Int: v} }

func Float(v float64) Value { return Value{Kind: KindFloat, Float: v} }

// Floats copies v.
func Floats(v []float64) Value {
	return Value{Kind: KindFloats, Floats: append([]float64{}, v...)}
}

// Buffer copies data and records elemType as its declared element type.
func Buffer(elemType string, data []byte) Value {
	return Value{Kind: KindBuffer, Type: elemType, Buffer: append([]byte{}, data...)}
}

// IsZero reports whether v carries no value.
func (v Value) IsZero() bool { return v.Kind == KindInvalid }

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	ret := v
	if v.Floats != nil {
		ret.Floats = append([]float64{}, v.Floats...)
	}
	if v.Buffer != nil {
		ret.Buffer = append([]byte{}, v.Buffer...)
	}
	return ret
}

// Interface returns the payload as a plain Go value.
func (v Value) Interface() interface{} {
	switch v.Kind {
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindFloats:
		return v.Floats
	case KindBuffer:
		return v.Buffer
	}
	return nil
}

func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindFloats:
		return fmt.Sprintf("%v", v.Floats)
	case KindBuffer:
		return fmt.Sprintf("%s[%d bytes]", v.Type, len(v.Buffer))
	}
	return "<invalid>"
}

// ValueOf wraps a plain Go value.
func ValueOf(v interface{}) (Value, error) {
	switch actual := v.(type) {
	case Value:
		return actual.Clone(), nil
	case int:
		return Int(int64(actual)), nil
	case int32:
		return Int(int64(actual)), nil
	case int64:
		return Int(actual), nil
	case uint64:
		return Int(int64(actual)), nil
	case float32:
		return Float(float64(actual)), nil
	case float64:
		return Float(actual), nil
	case []float64:
		return Floats(actual), nil
	case []byte:
		return Buffer("byte", actual), nil
	}
	return Value{}, fmt.Errorf("unsupported value type %T: %w", v, ErrTypeMismatch)
}
