package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"", 0},
		{"0", 0},
		{"100", 100},
		{"1KB", 1000},
		{"1KiB", 1024},
		{"1MB", 1_000_000},
		{"1MiB", 1_048_576},
		{"1GB", 1_000_000_000},
		{"1GiB", 1_073_741_824},
		{"10MiB", 10_485_760},
	}

	for _, c := range cases {
		got, err := parseSize(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestParseSize_Invalid(t *testing.T) {
	_, err := parseSize("not-a-size")
	assert.Error(t, err)
}

func TestParseSize_Negative(t *testing.T) {
	_, err := parseSize("-5")
	assert.Error(t, err)
}
