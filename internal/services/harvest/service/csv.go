package service

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"slotwatch/internal/services/harvest/domain"
)

// glyphs for the tabular result column
const (
	glyphAvailable   = "○"
	glyphUnavailable = "×"
)

// RenderCSV produces the tabular artifact: one row per (clinic, staff,
// range). Staff with no qualifying range still get one row so the sheet
// shows every examined name
func RenderCSV(art domain.Artifact) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	_ = w.Write([]string{"check_date", "clinic", "result", "total_blocks", "staff", "blocks", "ranges"})
	for _, r := range art.Results {
		glyph := glyphUnavailable
		if r.Available {
			glyph = glyphAvailable
		}
		base := []string{art.CheckDate, r.Clinic, glyph, strconv.Itoa(r.TotalBlocks)}

		if len(r.Details) == 0 {
			_ = w.Write(append(base, "", "0", ""))
			continue
		}
		for _, d := range r.Details {
			staff := []string{d.Staff, strconv.Itoa(d.Blocks)}
			if len(d.Times) == 0 {
				_ = w.Write(append(append(base[:4:4], staff...), ""))
				continue
			}
			for _, rng := range d.Times {
				_ = w.Write(append(append(base[:4:4], staff...), rng))
			}
		}
	}
	w.Flush()
	return buf.Bytes()
}
