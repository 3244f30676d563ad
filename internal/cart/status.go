package cart

import "time"

type Status string

const (
	StatusActive    Status = "active"
	StatusAbandoned Status = "abandoned"
)

// Threshold is the configured abandonment cutoff: a cart untouched for
// longer than Value Unit counts as abandoned.
type Threshold struct {
	Value int
	Unit  string
}

// Duration converts the threshold to a duration. The second return is
// false when the unit is not one of minutes, hours or days.
func (t Threshold) Duration() (time.Duration, bool) {
	switch t.Unit {
	case "minutes":
		return time.Duration(t.Value) * time.Minute, true
	case "hours":
		return time.Duration(t.Value) * time.Hour, true
	case "days":
		return time.Duration(t.Value) * 24 * time.Hour, true
	}
	return 0, false
}

// Classify reports whether a snapshot counts as abandoned at the given
// time. A missing snapshot is always active (there is nothing to
// abandon), and so is any snapshot when the threshold unit is not
// recognized (no usable cutoff is configured).
func Classify(snap *Snapshot, now time.Time, t Threshold) Status {
	if snap == nil {
		return StatusActive
	}

	cutoff, ok := t.Duration()
	if !ok {
		return StatusActive
	}

	if now.Sub(snap.UpdatedAt) > cutoff {
		return StatusAbandoned
	}
	return StatusActive
}
