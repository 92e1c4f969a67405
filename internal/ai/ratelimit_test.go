package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterPerMinute(t *testing.T) {
	l := NewLimiter(3, 100)
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow(1, now), "request %d should pass", i+1)
	}
	assert.False(t, l.Allow(1, now))

	// next minute window
	assert.True(t, l.Allow(1, now.Add(time.Minute)))
}

func TestLimiterPerDay(t *testing.T) {
	l := NewLimiter(100, 5)
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		// spread across minutes so only the day cap binds
		assert.True(t, l.Allow(1, now.Add(time.Duration(i)*2*time.Minute)))
	}
	assert.False(t, l.Allow(1, now.Add(time.Hour)))

	// day window rolls over
	assert.True(t, l.Allow(1, now.Add(25*time.Hour)))
}

func TestLimiterMinuteDenialKeepsDailyQuota(t *testing.T) {
	l := NewLimiter(1, 2)
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	assert.True(t, l.Allow(1, now))
	// denied by the minute cap; must not consume a day slot
	assert.False(t, l.Allow(1, now))
	assert.False(t, l.Allow(1, now))

	assert.True(t, l.Allow(1, now.Add(time.Minute)))
	assert.False(t, l.Allow(1, now.Add(2*time.Minute)), "day cap of 2 reached")
}

func TestLimiterIsPerUser(t *testing.T) {
	l := NewLimiter(1, 10)
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	assert.True(t, l.Allow(1, now))
	assert.False(t, l.Allow(1, now))
	assert.True(t, l.Allow(2, now), "other users have their own windows")
}
