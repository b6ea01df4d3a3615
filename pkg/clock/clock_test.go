package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystemNow(t *testing.T) {
	var c System
	before := time.Now()
	result := c.Now()
	after := time.Now()

	assert.False(t, result.Before(before))
	assert.False(t, result.After(after))
}

func TestSystemSleepHonorsContextCancel(t *testing.T) {
	var c System
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	c.Sleep(ctx, time.Hour)
	assert.Less(t, time.Since(start), time.Second)
}

func TestMockNowAndAdvance(t *testing.T) {
	fixed := time.Date(2026, 1, 14, 10, 0, 0, 0, time.UTC)
	m := NewMock(fixed)

	assert.True(t, m.Now().Equal(fixed))

	m.Advance(time.Hour)
	assert.True(t, m.Now().Equal(fixed.Add(time.Hour)))
}

func TestMockSleepAdvancesTimeByDefault(t *testing.T) {
	fixed := time.Date(2026, 1, 14, 10, 0, 0, 0, time.UTC)
	m := NewMock(fixed)

	m.Sleep(context.Background(), 5*time.Second)
	assert.True(t, m.Now().Equal(fixed.Add(5*time.Second)))
}

func TestMockSleepHook(t *testing.T) {
	m := NewMock(time.Now())

	var observed time.Duration
	m.SetSleepHook(func(d time.Duration) { observed = d })

	m.Sleep(context.Background(), 3*time.Second)
	assert.Equal(t, 3*time.Second, observed)
	// hook replaces the default advance; clock does not move on its own.
}

func TestMockSet(t *testing.T) {
	m := NewMock(time.Now())
	target := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	m.Set(target)
	assert.True(t, m.Now().Equal(target))
}
