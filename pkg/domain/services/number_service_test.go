package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberFormatter_Format(t *testing.T) {
	f := NewNumberFormatter()

	assert.Equal(t, "LP00000042", f.LPNumber("LP", 42))
	assert.Equal(t, "WH-A00000001", f.LPNumber("WH-A", 1))
	assert.Equal(t, "SO-2025", f.YearlyKey("SO", 2025))
	assert.Equal(t, "SO-2025-00007", f.YearlyNumber("SO", 2025, 7))
	assert.Equal(t, "WO-2026-123456", f.YearlyNumber("WO", 2026, 123456))
}

func TestNumberFormatter_Compare(t *testing.T) {
	f := NewNumberFormatter()

	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{"equal", "LP00000001", "LP00000001", 0},
		{"less", "LP00000001", "LP00000002", -1},
		{"greater", "LP00000010", "LP00000009", 1},
		{"unpadded numeric order", "LP9", "LP10", -1},
		{"different prefixes", "AB1", "LP1", -1},
		{"yearly numbers", "SO-2025-00010", "SO-2025-00002", 1},
		{"no digits falls back to string compare", "ZZZ", "LP1", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, f.Compare(tt.a, tt.b))
		})
	}
}

func TestNumberFormatter_Parse(t *testing.T) {
	f := NewNumberFormatter()

	prefix, n, err := f.Parse("SO-2025-00017")
	require.NoError(t, err)
	assert.Equal(t, "SO-2025-", prefix)
	assert.Equal(t, int64(17), n)

	_, _, err = f.Parse("NODIGITS")
	require.EqualError(t, err, "invalid number format: NODIGITS")
}

func TestNumberFormatter_SequenceOf(t *testing.T) {
	f := NewNumberFormatter()

	n, ok := f.SequenceOf("LP", "LP00000123")
	require.True(t, ok)
	assert.Equal(t, int64(123), n)

	_, ok = f.SequenceOf("LP", "PAL-0001")
	assert.False(t, ok)

	_, ok = f.SequenceOf("LP", "LPX1")
	assert.False(t, ok)
}
