package dataset

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindText
)

// Value is a nullable cell. Missing history, unknown coordinates and absent
// provider columns are all represented as a null Value, never as zero.
type Value struct {
	kind Kind
	num  float64
	text string
}

func Null() Value {
	return Value{}
}

// Number wraps f. NaN and infinities become null.
func Number(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{kind: KindNumber, num: f}
}

func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// NumberOrNull returns Number(f) when ok, otherwise null.
func NumberOrNull(f float64, ok bool) Value {
	if !ok {
		return Value{}
	}
	return Number(f)
}

// Parse infers a value from its textual form: blank and NA markers are null,
// numerics become numbers and everything else is text.
func Parse(raw string) Value {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "", "na", "nan", "null", "none":
		return Value{}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Number(f)
	}
	return Text(s)
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Float returns the numeric content. Text cells holding a number are accepted.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// FloatOrNaN is the model-facing view of a cell: null becomes NaN.
func (v Value) FloatOrNaN() float64 {
	if f, ok := v.Float(); ok {
		return f
	}
	return math.NaN()
}

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		return v.text
	default:
		return ""
	}
}

func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == other.num
	case KindText:
		return v.text == other.text
	default:
		return true
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return strconv.AppendFloat(nil, v.num, 'f', -1, 64), nil
	case KindText:
		return sonic.Marshal(v.text)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*v = Null()
		return nil
	case data[0] == '"':
		var s string
		if err := sonic.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
		return nil
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return err
		}
		*v = Number(f)
		return nil
	}
}
