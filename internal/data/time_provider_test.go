package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedTimeProvider_TruncatesToStorePrecision(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 0, 123456789, time.FixedZone("X", 3600))
	clock := NewFixedTimeProvider(at)

	assert.Equal(t, time.UTC, clock.Now().Location())
	assert.Equal(t, 123456000, clock.Now().Nanosecond())

	clock.Advance(1500 * time.Nanosecond)
	assert.Equal(t, 123457000, clock.Now().Nanosecond())
}

func TestRealTimeProvider_IsUTC(t *testing.T) {
	now := RealTimeProvider{}.Now()
	assert.Equal(t, time.UTC, now.Location())
	assert.Zero(t, now.Nanosecond()%int(time.Microsecond))
}
