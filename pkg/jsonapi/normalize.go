package jsonapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/spf13/cast"
)

var decimalNumeral = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// Float is a normalized numeric argument. It always encodes with a fraction
// or exponent, so 4 is sent as 4.0.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("unsupported float value %v", v)
	}

	// Same switch point to exponent form as encoding/json.
	format := byte('f')
	if abs := math.Abs(v); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	b := strconv.AppendFloat(nil, v, format, -1, 64)
	if format == 'f' && !bytes.ContainsRune(b, '.') {
		b = append(b, '.', '0')
	}
	return b, nil
}

// NormalizeArgs returns a copy of args in which every numeric value, and
// every string holding a decimal numeral, is converted to Float. Nested
// slices and maps are left alone.
func NormalizeArgs(args []any) []any {
	out := make([]any, len(args))
	for i, arg := range args {
		out[i] = normalizeArg(arg)
	}
	return out
}

func normalizeArg(arg any) any {
	switch v := arg.(type) {
	case string:
		if !decimalNumeral.MatchString(v) {
			return v
		}
	case Float:
		return v
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
	default:
		return arg
	}

	f, err := cast.ToFloat64E(arg)
	if err != nil {
		return arg
	}
	return Float(f)
}
