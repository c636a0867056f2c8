// Package numconv holds the number conversions the front end needs to agree
// on: folding string concatenation and printing decompiled literals must
// render numbers the same way the runtime would.
package numconv

import (
	"math"
	"strconv"
	"strings"
)

// Format renders v the way Number.prototype.toString(10) does.
func Format(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		return "0"
	}

	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}

	// Shortest round-tripping digits, as "d.ddde±x".
	sci := strconv.FormatFloat(v, 'e', -1, 64)
	mant, expText, _ := strings.Cut(sci, "e")
	digits := strings.Replace(mant, ".", "", 1)
	exp, _ := strconv.Atoi(expText)

	k := len(digits)
	n := exp + 1

	var b strings.Builder
	b.WriteString(sign)
	switch {
	case k <= n && n <= 21:
		b.WriteString(digits)
		b.WriteString(strings.Repeat("0", n-k))
	case 0 < n && n <= 21:
		b.WriteString(digits[:n])
		b.WriteByte('.')
		b.WriteString(digits[n:])
	case -6 < n && n <= 0:
		b.WriteString("0.")
		b.WriteString(strings.Repeat("0", -n))
		b.WriteString(digits)
	default:
		b.WriteByte(digits[0])
		if k > 1 {
			b.WriteByte('.')
			b.WriteString(digits[1:])
		}
		b.WriteByte('e')
		if n-1 >= 0 {
			b.WriteByte('+')
		}
		b.WriteString(strconv.Itoa(n - 1))
	}
	return b.String()
}

// ToInt32 applies the ToInt32 conversion used by the bitwise operators.
func ToInt32(v float64) int32 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	v = math.Trunc(v)
	v = math.Mod(v, 4294967296)
	if v < 0 {
		v += 4294967296
	}
	return int32(uint32(v))
}

// ToBoolean reports the truthiness of a number.
func ToBoolean(v float64) bool {
	return v == v && v != 0
}
