// Package lifecycle derives a prompt's attention status at read time.
package lifecycle

import "time"

const DefaultStaleThresholdDays = 60

const day = 24 * time.Hour

type Status string

const (
	StatusClean   Status = "clean"
	StatusStale   Status = "stale"
	StatusFlagged Status = "flagged"
)

// DaysSince is the whole number of days elapsed from t to now, never negative.
func DaysSince(t, now time.Time) int {
	if !now.After(t) {
		return 0
	}
	return int(now.Sub(t) / day)
}

// IsStale reports whether at least thresholdDays full days have passed
// since lastVerified.
func IsStale(lastVerified, now time.Time, thresholdDays int) bool {
	return DaysSince(lastVerified, now) >= thresholdDays
}

func NeedsAttention(flagged bool, lastVerified, now time.Time, thresholdDays int) bool {
	return flagged || IsStale(lastVerified, now, thresholdDays)
}

// StatusOf reports flagged over stale when both hold.
func StatusOf(flagged bool, lastVerified, now time.Time, thresholdDays int) Status {
	switch {
	case flagged:
		return StatusFlagged
	case IsStale(lastVerified, now, thresholdDays):
		return StatusStale
	default:
		return StatusClean
	}
}

// StaleCutoff is the latest verification time that counts as stale at now.
func StaleCutoff(now time.Time, thresholdDays int) time.Time {
	return now.Add(-time.Duration(thresholdDays) * day)
}

// Classifier binds a staleness threshold.
type Classifier struct {
	ThresholdDays int
}

func NewClassifier(thresholdDays int) Classifier {
	if thresholdDays <= 0 {
		thresholdDays = DefaultStaleThresholdDays
	}
	return Classifier{ThresholdDays: thresholdDays}
}

func (c Classifier) IsStale(lastVerified, now time.Time) bool {
	return IsStale(lastVerified, now, c.ThresholdDays)
}

func (c Classifier) NeedsAttention(flagged bool, lastVerified, now time.Time) bool {
	return NeedsAttention(flagged, lastVerified, now, c.ThresholdDays)
}

func (c Classifier) Status(flagged bool, lastVerified, now time.Time) Status {
	return StatusOf(flagged, lastVerified, now, c.ThresholdDays)
}

func (c Classifier) Cutoff(now time.Time) time.Time {
	return StaleCutoff(now, c.ThresholdDays)
}
