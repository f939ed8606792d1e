// Package rowtime maps schedule-table row indices to wall-clock minutes.
//
// The legacy back-end labels rows with either "H:MM", a bare hour, or a bare
// minute, and omits lunch rows entirely. Minute ordering resolves the
// hour/minute ambiguity: emitted times always advance, so a bare value that
// would move time backwards as a minute is a new hour marker
package rowtime

import (
	"regexp"
	"strconv"
)

// Row describes one table row as the adapter saw it: the first cell's text
// and whether the row carries any slot anchor
type Row struct {
	Text      string
	HasAnchor bool
}

var clockRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// Map holds row-index → minute-of-day for one schedule grid
type Map struct {
	times    map[int]int
	interval int
}

// Build walks the rows and assigns a minute to every grid row.
//
// Per row, in order:
//  1. "H:MM" sets the current hour and emits the absolute time.
//  2. A bare integer with no hour known yet is the first hour marker.
//  3. A bare integer with an hour known is a minute when that advances time,
//     else a later hour, else the same hour after a rollover.
//  4. An empty cell on a row holding anchors is an unlabeled slot row:
//     previous time plus interval.
//  5. Anything else is not part of the grid and takes no row index.
//
// The row indices produced here match the row argument embedded in the
// grid's slot anchors, which also count only grid rows
func Build(rows []Row, interval int) Map {
	m := Map{times: make(map[int]int), interval: interval}

	currentHour := -1
	idx := 0

	for _, row := range rows {
		if h, min, ok := matchClock(row.Text); ok {
			currentHour = h
			m.times[idx] = h*60 + min
			idx++
			continue
		}

		if val, ok := parseInt(row.Text); ok {
			if currentHour < 0 {
				if val >= 0 && val <= 23 {
					currentHour = val
					m.times[idx] = val * 60
					idx++
				}
				continue
			}

			prev, hasPrev := m.times[idx-1]
			if !hasPrev {
				prev = -1
			}

			switch {
			case val >= 0 && val < 60 && currentHour*60+val > prev:
				m.times[idx] = currentHour*60 + val
				idx++
			case val <= 23 && val > currentHour:
				currentHour = val
				m.times[idx] = val * 60
				idx++
			case val <= 23 && val == currentHour && val*60 > prev:
				// xx:50 followed by the same hour marker again means the
				// grid rolled back to :00
				currentHour = val
				m.times[idx] = val * 60
				idx++
			}
			continue
		}

		if row.HasAnchor && currentHour >= 0 {
			if prev, ok := m.times[idx-1]; ok {
				m.times[idx] = prev + interval
			}
			idx++
		}
	}
	return m
}

// Len reports how many rows were mapped
func (m Map) Len() int { return len(m.times) }

// Time returns the exact mapped minute for row, if any
func (m Map) Time(row int) (int, bool) {
	t, ok := m.times[row]
	return t, ok
}

// Lookup returns the minute for row, extrapolating from the nearest mapped
// row when the exact index is absent. The second result reports whether the
// value was exact; ok is meaningless when the map is empty (-1 is returned)
func (m Map) Lookup(row int) (minute int, exact bool) {
	if t, ok := m.times[row]; ok {
		return t, true
	}
	if len(m.times) == 0 {
		return -1, false
	}
	nearest, found := 0, false
	for k := range m.times {
		if !found || abs(k-row) < abs(nearest-row) || (abs(k-row) == abs(nearest-row) && k < nearest) {
			nearest, found = k, true
		}
	}
	return m.times[nearest] + (row-nearest)*m.interval, false
}

// Fallback is the linear mapping used when no row yields a time:
// a caller-supplied grid start plus row times interval
func Fallback(startMinute, interval, row int) int {
	return startMinute + row*interval
}

func matchClock(s string) (hour, min int, ok bool) {
	g := clockRe.FindStringSubmatch(s)
	if g == nil {
		return 0, 0, false
	}
	hour, _ = strconv.Atoi(g[1])
	min, _ = strconv.Atoi(g[2])
	return hour, min, true
}

func parseInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
