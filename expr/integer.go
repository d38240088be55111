package expr

import "math"

const (
	intMin32  = float64(math.MinInt32)
	intMax32  = float64(math.MaxInt32)
	uintMax32 = float64(math.MaxUint32)
)

// toInteger implements spec.md §4.E's integer coercion: a double is
// accepted as integer iff it lies in [INT_MIN_32, UINT_MAX_32]. Values in
// [0, INT_MAX_32] and [INT_MIN_32, -1] cast straight to signed 32-bit;
// values in (INT_MAX_32, UINT_MAX_32] cast via unsigned 32-bit and are
// reinterpreted as signed, producing the bit-for-bit wraparound BeebAsm
// relies on (e.g. &FFFFFFFF AND &FFFFFFFF == -1).
func toInteger(line, col int, v float64) (int32, error) {
	if v < intMin32 || v > uintMax32 {
		return 0, NewErrorf(line, col, ErrorOutOfIntegerRange, "%g is out of integer range", v)
	}
	if v >= 0 && v <= intMax32 {
		return int32(v), nil
	}
	if v < 0 {
		return int32(v), nil
	}
	return int32(uint32(v)), nil
}

// RawBits32 coerces v through the same integer contract toInteger uses
// and returns its bit pattern as uint32, for callers that already hold a
// Value's number and want the raw bytes rather than a re-evaluation
// (the assembler's data directives use this to write .EQUD &FFFFFFFF as
// four 0xFF bytes).
func RawBits32(line, col int, v float64) (uint32, error) {
	iv, err := toInteger(line, col, v)
	if err != nil {
		return 0, err
	}
	return uint32(iv), nil
}

// convertDoubleToInt mirrors the source's ConvertDoubleToInt: truncation
// toward zero, subject to the same range check as toInteger.
func convertDoubleToInt(line, col int, v float64) (int32, error) {
	return toInteger(line, col, math.Trunc(v))
}
