package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestIsStaleBoundary(t *testing.T) {
	c := NewClassifier(0)

	assert.True(t, c.IsStale(base, base.Add(60*day)))
	assert.False(t, c.IsStale(base, base.Add(59*day)))
	assert.False(t, c.IsStale(base, base.Add(60*day-time.Second)), "partial days are floored")
	assert.True(t, c.IsStale(base, base.Add(90*day)))
	assert.False(t, c.IsStale(base, base.Add(-time.Hour)), "verification in the future")
}

func TestIsStaleIsPure(t *testing.T) {
	now := base.Add(75 * day)
	first := IsStale(base, now, 60)
	second := IsStale(base, now, 60)
	assert.Equal(t, first, second)
}

func TestStatusPrecedence(t *testing.T) {
	c := NewClassifier(60)
	old := base.Add(-100 * day)

	assert.Equal(t, StatusClean, c.Status(false, base, base.Add(day)))
	assert.Equal(t, StatusStale, c.Status(false, old, base))
	assert.Equal(t, StatusFlagged, c.Status(true, base, base.Add(day)))
	assert.Equal(t, StatusFlagged, c.Status(true, old, base))
}

func TestNeedsAttention(t *testing.T) {
	c := NewClassifier(60)

	assert.False(t, c.NeedsAttention(false, base, base.Add(2*day)))
	assert.True(t, c.NeedsAttention(true, base, base.Add(2*day)))
	assert.True(t, c.NeedsAttention(false, base, base.Add(61*day)))
}

func TestCutoffMatchesIsStale(t *testing.T) {
	c := NewClassifier(60)
	now := base.Add(200 * day)
	cutoff := c.Cutoff(now)

	assert.True(t, c.IsStale(cutoff, now))
	assert.False(t, c.IsStale(cutoff.Add(time.Second), now))
}

func TestDaysSince(t *testing.T) {
	assert.Equal(t, 0, DaysSince(base, base))
	assert.Equal(t, 1, DaysSince(base, base.Add(36*time.Hour)))
}
