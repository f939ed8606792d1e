// Package time contains time related helpers and the fixed operational clock.
// Check dates, task ids, and artifact names are always derived in JST no
// matter what zone the host runs in
package time

import "time"

// JST is the fixed operational timezone (UTC+9)
var JST = time.FixedZone("JST", 9*60*60)

// Clock supplies the current time
// production code uses System; tests pin a Fixed instant
type Clock interface {
	Now() time.Time
}

// System reads the host clock
type System struct{}

// Now implements Clock
func (System) Now() time.Time { return time.Now() }

// Fixed is a Clock pinned to one instant
type Fixed time.Time

// Now implements Clock
func (f Fixed) Now() time.Time { return time.Time(f) }

// NowJST returns the current instant shifted into JST
func NowJST(c Clock) time.Time { return c.Now().In(JST) }

// CheckDate is tomorrow's date in JST as YYYY-MM-DD.
// The harvester always inspects tomorrow's grid
func CheckDate(c Clock) string {
	return NowJST(c).AddDate(0, 0, 1).Format("2006-01-02")
}

// CheckDateCompact is CheckDate without separators, used in artifact names
func CheckDateCompact(c Clock) string {
	return NowJST(c).AddDate(0, 0, 1).Format("20060102")
}

// RunStamp returns the run date and run time components of an artifact name
func RunStamp(c Clock) (date, clock string) {
	now := NowJST(c)
	return now.Format("20060102"), now.Format("150405")
}

// TaskID derives a task identifier from the wall clock with second
// resolution. Two concurrent tasks never collide because the manager
// rejects a second create while one is active
func TaskID(c Clock) string {
	return NowJST(c).Format("20060102_150405")
}

// Ptr returns a pointer to t or nil if t is zero
func Ptr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
