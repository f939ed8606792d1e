// Package slots analyzes free-slot timestamps for one staff member.
//
// All inputs are minute-of-day integers. Functions are pure; empty inputs
// yield zero counts and never panic
package slots

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// knownIntervals are the grid spacings the back-ends actually use
var knownIntervals = [...]int{5, 10, 15, 20, 30}

// Range is a contiguous run of free slots.
// Start and End are the first and last slot timestamps, so the bookable
// window extends to End+interval
type Range struct {
	Start int
	End   int
}

// DetectInterval infers the slot spacing from observed timestamps.
// The modal positive gap wins, snapped to the nearest known interval; ties
// prefer the smaller gap. Fewer than two timestamps return def
func DetectInterval(times []int, def int) int {
	if len(times) < 2 {
		return def
	}
	sorted := append([]int(nil), times...)
	sort.Ints(sorted)

	freq := map[int]int{}
	for i := 1; i < len(sorted); i++ {
		if gap := sorted[i] - sorted[i-1]; gap > 0 {
			freq[gap]++
		}
	}
	if len(freq) == 0 {
		return def
	}

	modal, best := 0, 0
	for gap, n := range freq {
		if n > best || (n == best && gap < modal) {
			modal, best = gap, n
		}
	}

	for _, k := range knownIntervals {
		if modal == k {
			return modal
		}
	}
	nearest := knownIntervals[0]
	for _, k := range knownIntervals[1:] {
		if abs(k-modal) < abs(nearest-modal) {
			nearest = k
		}
	}
	return nearest
}

// ConsecutiveRanges walks the sorted timestamps and returns every maximal
// run of length >= requiredRun as a Range, plus the count of such runs.
// A run extends while the next timestamp equals the previous plus interval
func ConsecutiveRanges(times []int, requiredRun, interval int) (int, []Range) {
	if len(times) == 0 || requiredRun < 1 || interval < 1 {
		return 0, nil
	}
	sorted := append([]int(nil), times...)
	sort.Ints(sorted)

	var ranges []Range
	start, count, prev := sorted[0], 1, sorted[0]
	for _, t := range sorted[1:] {
		if t == prev+interval {
			count++
		} else {
			if count >= requiredRun {
				ranges = append(ranges, Range{Start: start, End: prev})
			}
			start, count = t, 1
		}
		prev = t
	}
	if count >= requiredRun {
		ranges = append(ranges, Range{Start: start, End: prev})
	}
	return len(ranges), ranges
}

// CountBlocks sums floor(runLength/requiredRun) over every maximal run.
// A 12-wide run of 5-minute cells holds two 30-minute blocks, not one
func CountBlocks(times []int, interval, requiredRun int) int {
	if len(times) == 0 || requiredRun < 1 || interval < 1 {
		return 0
	}
	sorted := append([]int(nil), times...)
	sort.Ints(sorted)

	total, count, prev := 0, 1, sorted[0]
	for _, t := range sorted[1:] {
		if t == prev+interval {
			count++
		} else {
			total += count / requiredRun
			count = 1
		}
		prev = t
	}
	return total + count/requiredRun
}

// MinuteString renders a minute-of-day as "H:MM"
func MinuteString(m int) string {
	return fmt.Sprintf("%d:%02d", m/60, m%60)
}

// ParseMinute parses "H:MM" / "HH:MM" back into a minute-of-day
func ParseMinute(s string) (int, error) {
	h, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("slots: %q is not H:MM", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 {
		return 0, fmt.Errorf("slots: bad hour in %q", s)
	}
	min, err := strconv.Atoi(mm)
	if err != nil || min < 0 || min > 59 {
		return 0, fmt.Errorf("slots: bad minute in %q", s)
	}
	return hour*60 + min, nil
}

// FormatRange renders a Range as "H:MM-H:MM"; the end shows the close of the
// last slot, so interval is added
func FormatRange(r Range, interval int) string {
	return MinuteString(r.Start) + "-" + MinuteString(r.End+interval)
}

// Analysis is the per-staff result carried into the run artifact.
// The JSON keys match the artifact wire shape the console consumes
type Analysis struct {
	Staff            string   `json:"doctor"`
	Blocks           int      `json:"blocks"`
	Times            []string `json:"times"`
	ThresholdMinutes int      `json:"threshold_minutes"`
	RawSlotTimes     []int    `json:"raw_slot_times"`
	SlotInterval     int      `json:"slot_interval"`
}

// AnalyzeStaff runs the full pipeline for one staff member: detect the
// interval, derive the required run from the threshold, emit block count and
// formatted ranges. Raw sorted timestamps and the detected interval are kept
// so a different threshold can be re-applied later without re-scraping
func AnalyzeStaff(name string, times []int, defaultInterval, thresholdMinutes int) Analysis {
	interval := DetectInterval(times, defaultInterval)
	required := thresholdMinutes / interval
	if required < 1 {
		required = 1
	}

	_, ranges := ConsecutiveRanges(times, required, interval)
	formatted := make([]string, 0, len(ranges))
	for _, r := range ranges {
		formatted = append(formatted, FormatRange(r, interval))
	}

	raw := append([]int(nil), times...)
	sort.Ints(raw)

	return Analysis{
		Staff:            name,
		Blocks:           CountBlocks(times, interval, required),
		Times:            formatted,
		ThresholdMinutes: thresholdMinutes,
		RawSlotTimes:     raw,
		SlotInterval:     interval,
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
