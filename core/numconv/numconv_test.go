package numconv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{1, "1"},
		{-1, "-1"},
		{3.5, "3.5"},
		{65535, "65535"},
		{65536, "65536"},
		{0.1, "0.1"},
		{0.000001, "0.000001"},
		{0.0000001, "1e-7"},
		{1.5e-7, "1.5e-7"},
		{123456789012345680000, "123456789012345680000"},
		{1e21, "1e+21"},
		{1.25e30, "1.25e+30"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
		{math.MaxFloat64, "1.7976931348623157e+308"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.in))
		})
	}
}

func TestToInt32(t *testing.T) {
	assert.Equal(t, int32(0), ToInt32(math.NaN()))
	assert.Equal(t, int32(0), ToInt32(math.Inf(1)))
	assert.Equal(t, int32(-1), ToInt32(4294967295))
	assert.Equal(t, int32(-2147483648), ToInt32(2147483648))
	assert.Equal(t, int32(5), ToInt32(5.9))
	assert.Equal(t, int32(-5), ToInt32(-5.9))
}

func TestToBoolean(t *testing.T) {
	assert.False(t, ToBoolean(0))
	assert.False(t, ToBoolean(math.NaN()))
	assert.True(t, ToBoolean(-2))
}
