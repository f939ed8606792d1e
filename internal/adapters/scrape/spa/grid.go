package spa

import (
	"regexp"
	"strconv"
	"strings"

	"slotwatch/internal/adapters/scrape"
	pstrings "slotwatch/internal/platform/strings"
)

// Interval is the SPA grid's fixed slot spacing in minutes
const Interval = 15

// minScheduleRows separates the schedule table from layout/navigation tables
const minScheduleRows = 10

// staffPrefixes are role markers a column header can start with
var staffPrefixes = []string{"チェア", "Dr", "DH", "衛生士"}

// staffTokens are exact role/column names that identify a staff column
var staffTokens = []string{"TC", "SP急患", "SP", "急患", "アシスト", "TC/SP", "矯正"}

// uiChrome are header texts that are never staff columns
var uiChrome = []string{
	"予約日", "空き枠数", "名前", "AM", "PM",
	"日", "月", "火", "水", "木", "金", "土",
	"«", "»", "<", ">",
	"本日", "本 日", "週", "今日", "クリア",
}

// commonWords are 2-4 kanji vocabulary words that would otherwise pass the
// glyph-only staff-name fallback
var commonWords = []string{
	"診療", "予約", "患者", "連絡", "掲示", "一覧",
	"追加", "削除", "設定", "表示", "非表示",
}

var kanjiNameRe = regexp.MustCompile(`^[\p{Han}]{2,4}$`)

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsStaffColumn decides whether a header text denotes a chair or staff
// column. Comparison is width-folded so full-width variants behave the same
func IsStaffColumn(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	folded := pstrings.Fold(text)

	if strings.Contains(folded, ":") {
		return false
	}
	for _, t := range uiChrome {
		if pstrings.FoldEqual(text, t) {
			return false
		}
	}
	if strings.Contains(text, "年") && strings.Contains(text, "月") {
		return false
	}
	if isDigits(folded) {
		return false
	}

	for _, p := range staffPrefixes {
		if strings.HasPrefix(folded, pstrings.Fold(p)) {
			return true
		}
	}
	for _, t := range staffTokens {
		if pstrings.FoldEqual(text, t) {
			return true
		}
	}
	// composite staff names: 上手/中村
	if strings.Contains(text, "/") {
		if n := len([]rune(text)); n >= 4 && n <= 12 {
			return true
		}
	}
	// bare 2-4 kanji surname, last resort
	if kanjiNameRe.MatchString(text) {
		for _, w := range commonWords {
			if text == w {
				return false
			}
		}
		return true
	}
	return false
}

// classBlocklist fragments mark a cell as not bookable regardless of text
var classBlocklist = []string{
	"closed", "blocked", "disabled", "holiday", "off", "gray",
	"lunch", "break", "reserve", "past", "empty", "none",
	"unavailable", "inactive",
}

// backgroundAllow are the only background references an empty cell may carry
var backgroundAllow = []string{"#fff", "white", "transparent", "rgb(255"}

// EmptyCell reports whether a grid cell is a free slot: no visible text, no
// merged spans, no blocking class fragment, and no non-white background
func EmptyCell(c scrape.Cell) bool {
	if pstrings.StripInvisible(strings.TrimSpace(c.Text)) != "" {
		return false
	}
	if c.ColSpan > 1 || c.RowSpan > 1 {
		return false
	}
	class := strings.ToLower(c.Class)
	for _, frag := range classBlocklist {
		if strings.Contains(class, frag) {
			return false
		}
	}
	style := strings.ToLower(strings.ReplaceAll(c.Style, " ", ""))
	if strings.Contains(style, "display:none") {
		return false
	}
	if strings.Contains(style, "background") {
		allowed := false
		for _, ok := range backgroundAllow {
			if strings.Contains(style, ok) {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}
	return true
}

// RowMinute parses a row's first-cell text into a minute-of-day. Only the
// first line counts; trailing seconds are ignored
func RowMinute(text string) (int, bool) {
	text = strings.TrimSpace(text)
	if line, _, ok := strings.Cut(text, "\n"); ok {
		text = strings.TrimSpace(line)
	}
	h, rest, ok := strings.Cut(text, ":")
	if !ok {
		return 0, false
	}
	if len(rest) > 2 {
		rest = rest[:2]
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	min, err := strconv.Atoi(rest)
	if err != nil || min < 0 || min > 59 {
		return 0, false
	}
	return hour*60 + min, true
}

// FindSchedule picks the schedule table: the first one with at least ten
// rows whose header row contains a staff column. Returns the table index,
// the column → staff map, and whether one was found
func FindSchedule(tables []scrape.Table) (int, map[int]string, bool) {
	for ti, table := range tables {
		if len(table.Rows) < minScheduleRows {
			continue
		}
		header := table.Rows[0]
		cols := map[int]string{}
		for i, cell := range header.Cells {
			if IsStaffColumn(cell.Text) {
				cols[i] = strings.TrimSpace(cell.Text)
			}
		}
		if len(cols) > 0 {
			return ti, cols, true
		}
	}
	return 0, nil, false
}

// ExtractSlots walks the schedule table's time rows and records a slot for
// every staff column whose cell passes the empty-cell predicate
func ExtractSlots(tables []scrape.Table) (scrape.Observations, bool) {
	ti, cols, ok := FindSchedule(tables)
	if !ok {
		return nil, false
	}

	obs := scrape.Observations{}
	for _, row := range tables[ti].Rows {
		if len(row.Cells) < 2 {
			continue
		}
		minute, ok := RowMinute(row.Cells[0].Text)
		if !ok {
			continue
		}
		for col, staff := range cols {
			if col >= len(row.Cells) {
				continue
			}
			if EmptyCell(row.Cells[col]) {
				obs.Add(staff, minute)
			}
		}
	}
	obs.Normalize()
	return obs, true
}
