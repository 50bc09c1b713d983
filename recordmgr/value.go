package recordmgr

import "github.com/arvinmehra/pagedb/rmerrors"

// DataType tags the four primitive types a Schema attribute can hold.
// String carries its fixed on-disk width in TypeLength.
type DataType int

const (
	TypeInt DataType = iota
	TypeFloat
	TypeBool
	TypeString
)

func (dt DataType) String() string {
	switch dt {
	case TypeInt:
		return "INT"
	case TypeFloat:
		return "FLOAT"
	case TypeBool:
		return "BOOL"
	case TypeString:
		return "STRING"
	default:
		return "UNKNOWN"
	}
}

// width returns the fixed on-disk byte width of dt, given typeLength
// (only meaningful for TypeString).
func width(dt DataType, typeLength int) int {
	switch dt {
	case TypeInt:
		return 4
	case TypeFloat:
		return 4
	case TypeBool:
		return 1
	case TypeString:
		return typeLength
	default:
		return 0
	}
}

// Value is a tagged union carrying exactly one of the four payloads.
// A freshly produced Value owns its Str bytes; it is never shared
// between two Values.
type Value struct {
	DT   DataType
	Int  int32
	Flt  float32
	Bool bool
	Str  []byte // TypeString only, NUL-terminated: TypeLength+1 bytes from GetAttr, len(s)+1 from NewString
}

// NewInt, NewFloat, NewBool, NewString build typed Values.
func NewInt(v int32) Value     { return Value{DT: TypeInt, Int: v} }
func NewFloat(v float32) Value { return Value{DT: TypeFloat, Flt: v} }
func NewBool(v bool) Value     { return Value{DT: TypeBool, Bool: v} }

// NewString builds a TypeString Value whose backing buffer is
// NUL-terminated at s's length. No fixed width is attached yet; SetAttr
// truncates/pads to the schema's TypeLength when the value is stored.
func NewString(s string) Value {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return Value{DT: TypeString, Str: b}
}

// StringValue returns the Go string content of a TypeString value, up
// to its NUL terminator (or the full buffer if none is present).
func (v Value) StringValue() string {
	for i, c := range v.Str {
		if c == 0 {
			return string(v.Str[:i])
		}
	}
	return string(v.Str)
}

// Compare returns -1/0/1 ordering a against b. Both must share DT, or
// rmerrors.ErrCompareDifferentTypes is returned.
func Compare(a, b Value) (int, error) {
	if a.DT != b.DT {
		return 0, rmerrors.ErrCompareDifferentTypes
	}
	switch a.DT {
	case TypeInt:
		switch {
		case a.Int < b.Int:
			return -1, nil
		case a.Int > b.Int:
			return 1, nil
		default:
			return 0, nil
		}
	case TypeFloat:
		switch {
		case a.Flt < b.Flt:
			return -1, nil
		case a.Flt > b.Flt:
			return 1, nil
		default:
			return 0, nil
		}
	case TypeBool:
		// false < true.
		ai, bi := 0, 0
		if a.Bool {
			ai = 1
		}
		if b.Bool {
			bi = 1
		}
		return ai - bi, nil
	case TypeString:
		as, bs := a.StringValue(), b.StringValue()
		switch {
		case as < bs:
			return -1, nil
		case as > bs:
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return 0, rmerrors.ErrCompareDifferentTypes
	}
}
