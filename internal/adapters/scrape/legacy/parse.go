package legacy

import (
	"regexp"
	"strings"

	"slotwatch/internal/adapters/scrape"
	"slotwatch/internal/core/rowtime"
	pstrings "slotwatch/internal/platform/strings"
)

// HeaderCell is one staff header as the page evaluation returned it: the th
// cell's table-wide column index and its anchor text
type HeaderCell struct {
	Col  int    `json:"col"`
	Text string `json:"text"`
}

// GridRow is one schedule-frame row: first-cell text plus anchor presence
type GridRow struct {
	Text   string `json:"text"`
	Anchor bool   `json:"anchor"`
}

// Anchor is one anchor in the schedule frame
type Anchor struct {
	Href  string `json:"href"`
	Class string `json:"cls"`
	Text  string `json:"text"`
}

// FrameSnap is the batched snapshot of the week frame
type FrameSnap struct {
	Found   bool      `json:"found"`
	Rows    []GridRow `json:"rows"`
	Anchors []Anchor  `json:"anchors"`
}

// Report carries the non-fatal oddities of one extraction for logging
type Report struct {
	UnmappedCols   []int
	UnmappedRows   []int
	LinearFallback bool
}

// slotRe parses the (col,row) arguments out of a slot anchor's href
var slotRe = regexp.MustCompile(`ts_set_new\((\d+),\s*(\d+)\)`)

// newToken is the visible text of a free-slot anchor when it carries no class
const newToken = "新"

// defaultStartMinute anchors the linear fallback when the grid exposes no
// usable time labels (8:30 is the earliest observed opening)
const defaultStartMinute = 8*60 + 30

// SelectHeaders filters the header cells into col → staff name. Exclusion is
// substring on the raw text; disabled staff match width-folded
func SelectHeaders(cells []HeaderCell, exclude, disabled []string) map[int]string {
	headers := make(map[int]string, len(cells))
	for _, c := range cells {
		if c.Text == "" {
			continue
		}
		skip := false
		for _, pat := range exclude {
			if pat != "" && strings.Contains(c.Text, pat) {
				skip = true
				break
			}
		}
		if !skip {
			for _, d := range disabled {
				if pstrings.FoldEqual(c.Text, d) {
					skip = true
					break
				}
			}
		}
		if !skip {
			headers[c.Col] = c.Text
		}
	}
	return headers
}

// isNewAnchor reports whether the anchor's class list contains "new"
func isNewAnchor(a Anchor) bool {
	for _, cls := range strings.Fields(a.Class) {
		if cls == "new" {
			return true
		}
	}
	return false
}

// detectStart finds the grid's opening minute for the linear fallback: the
// first clock-labeled row, or a bare morning hour, within the first 20 rows
func detectStart(rows []GridRow) int {
	limit := len(rows)
	if limit > 20 {
		limit = 20
	}
	clockRe := regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	for _, row := range rows[:limit] {
		text := strings.TrimSpace(row.Text)
		if text == "" {
			continue
		}
		if g := clockRe.FindStringSubmatch(text); g != nil {
			h := atoi(g[1])
			m := atoi(g[2])
			if h <= 23 && m < 60 {
				return h*60 + m
			}
		}
		if v, ok := digits(text); ok && v >= 6 && v <= 12 {
			return v * 60
		}
	}
	return defaultStartMinute
}

// CollectSlots turns a frame snapshot into per-staff slot lists.
//
// Free-slot anchors are those with the "new" class; when none carry it the
// visible-text token is used instead. Each href's (col,row) maps through the
// header table and the row-time map; rows outside the map extrapolate from
// the nearest mapped row, and an empty map falls back to linear time from
// the detected grid start. Columns not in the header table belong to
// excluded staff and are dropped
func CollectSlots(snap FrameSnap, headers map[int]string, interval int) (scrape.Observations, Report) {
	var report Report

	rtRows := make([]rowtime.Row, len(snap.Rows))
	for i, r := range snap.Rows {
		rtRows[i] = rowtime.Row{Text: r.Text, HasAnchor: r.Anchor}
	}
	rm := rowtime.Build(rtRows, interval)
	start := 0
	if rm.Len() == 0 {
		report.LinearFallback = true
		start = detectStart(snap.Rows)
	}

	anchors := snap.Anchors[:0:0]
	for _, a := range snap.Anchors {
		if isNewAnchor(a) {
			anchors = append(anchors, a)
		}
	}
	if len(anchors) == 0 {
		for _, a := range snap.Anchors {
			if a.Text == newToken {
				anchors = append(anchors, a)
			}
		}
	}

	obs := scrape.Observations{}
	seenCols := map[int]bool{}
	seenRows := map[int]bool{}
	for _, a := range anchors {
		g := slotRe.FindStringSubmatch(a.Href)
		if g == nil {
			continue
		}
		col := atoi(g[1])
		row := atoi(g[2])

		staff, ok := headers[col]
		if !ok {
			if !seenCols[col] {
				seenCols[col] = true
				report.UnmappedCols = append(report.UnmappedCols, col)
			}
			continue
		}

		var minute int
		if rm.Len() > 0 {
			var exact bool
			minute, exact = rm.Lookup(row)
			if !exact && !seenRows[row] {
				seenRows[row] = true
				report.UnmappedRows = append(report.UnmappedRows, row)
			}
		} else {
			minute = rowtime.Fallback(start, interval, row)
		}
		obs.Add(staff, minute)
	}
	obs.Normalize()
	return obs, report
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

func digits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	return atoi(s), true
}
