package order

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberGenerator_Format(t *testing.T) {
	fixed := time.Date(2025, 11, 3, 9, 41, 27, 0, time.Local)
	g := &NumberGenerator{
		now:  func() time.Time { return fixed },
		intN: func(n int) int { return 0 },
	}

	no := g.Next()

	assert.Len(t, no, 20)
	assert.Equal(t, "20251103094127", no[:14])
	assert.Equal(t, "100000", no[14:])
}

func TestNumberGenerator_SuffixRange(t *testing.T) {
	g := NewNumberGenerator()

	for range 200 {
		no := g.Next()
		require.Len(t, no, 20)

		suffix, err := strconv.Atoi(no[14:])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, suffix, 100000)
		assert.LessOrEqual(t, suffix, 999999)
	}
}

func TestNumberGenerator_TimestampParses(t *testing.T) {
	g := NewNumberGenerator()
	before := time.Now().Truncate(time.Second)

	no := g.Next()

	ts, err := time.ParseInLocation("20060102150405", no[:14], time.Local)
	require.NoError(t, err)
	assert.False(t, ts.Before(before))
	assert.False(t, ts.After(time.Now()))
}
