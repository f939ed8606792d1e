// Package legacy extracts availability from the frame-nested table back-end
// (dent-sys). Staff headers live on the main page; the schedule grid sits in
// a doubly nested frame whose URL carries the week marker, and every free
// slot is an anchor embedding makeSlot-style (col,row) arguments
package legacy

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"slotwatch/internal/adapters/scrape"
	"slotwatch/internal/platform/logger"
)

// frameMarker identifies the schedule frame among the nested frames
const frameMarker = "ts_timetable_week"

// Adapter implements the extraction protocol for the legacy back-end
type Adapter struct {
	log logger.Logger
	nav time.Duration
}

// New returns the legacy adapter. nav bounds each page operation
func New(log logger.Logger, nav time.Duration) *Adapter {
	if nav <= 0 {
		nav = 60 * time.Second
	}
	return &Adapter{log: log, nav: nav}
}

// Backend tags the adapter
func (a *Adapter) Backend() scrape.Backend { return scrape.BackendLegacy }

func (a *Adapter) clog(target scrape.Target) logger.Logger {
	return a.log.With().Str("clinic", target.Name).Logger()
}

// Login navigates to the clinic entry point, fills the first text and
// password fields and submits, then waits for the post-login traffic to
// settle (10 s bound)
func (a *Adapter) Login(ctx context.Context, target scrape.Target) error {
	err := scrape.Step(ctx, a.nav,
		chromedp.Navigate(target.URL),
		scrape.WaitQuiet(500*time.Millisecond, 10*time.Second),
	)
	if err != nil {
		return fmt.Errorf("legacy login: navigate: %w", err)
	}

	err = scrape.Step(ctx, a.nav,
		chromedp.SendKeys(`input[type="text"]`, target.Login.ID, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="password"], input[type="password"]`, target.Login.Password, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("legacy login: fill credentials: %w", err)
	}

	matched, err := scrape.ClickFirst(ctx, a.nav,
		`input[type="submit"]`, `button[type="submit"]`, `input[value="ログイン"]`)
	if err != nil {
		return fmt.Errorf("legacy login: submit: %w", err)
	}
	if matched == "" {
		return fmt.Errorf("legacy login: no submit control found")
	}

	if err := scrape.Step(ctx, a.nav, scrape.WaitQuiet(500*time.Millisecond, 10*time.Second)); err != nil {
		return fmt.Errorf("legacy login: settle: %w", err)
	}
	log := a.clog(target)
	log.Debug().Msg("legacy: logged in")
	return nil
}

// AdvanceToTomorrow clicks the next-day control: an input whose value is a
// configured token first, then a link with the same text. The extra sleep
// lets the nested schedule frame reload
func (a *Adapter) AdvanceToTomorrow(ctx context.Context, target scrape.Target) error {
	tokens := target.NextDayTokens
	if len(tokens) == 0 {
		tokens = []string{"翌日"}
	}

	selectors := make([]string, 0, len(tokens))
	for _, t := range tokens {
		selectors = append(selectors, fmt.Sprintf(`input[value=%q]`, t))
	}
	matched, err := scrape.ClickFirst(ctx, a.nav, selectors...)
	if err != nil {
		return fmt.Errorf("legacy advance: %w", err)
	}
	if matched == "" {
		if matched, err = scrape.ClickLinkText(ctx, a.nav, append(tokens, "次の日")...); err != nil {
			return fmt.Errorf("legacy advance: link: %w", err)
		}
	}
	if matched == "" {
		return fmt.Errorf("legacy advance: no next-day control")
	}

	return scrape.Step(ctx, a.nav,
		scrape.WaitQuiet(500*time.Millisecond, 10*time.Second),
		chromedp.Sleep(2*time.Second),
	)
}

// headersJS enumerates the doctor-info header row on the main page. The col
// index counts every th cell, matching the slot anchors' col argument
const headersJS = `(() => {
	const out = [];
	const cells = document.querySelectorAll('tr.d_info th');
	for (let i = 0; i < cells.length; i++) {
		const a = cells[i].querySelector('a');
		if (!a) continue;
		const text = (a.innerText || '').trim();
		if (text) out.push({col: i, text: text});
	}
	return out;
})()`

// frameJS locates the week frame and snapshots its grid rows and anchors in
// one evaluation. Frames are same-origin, so walking window.frames works;
// cross-origin access errors mean "not our frame"
const frameJS = `(() => {
	const find = (win) => {
		try {
			if (win.location.href.indexOf('` + frameMarker + `') !== -1) return win;
		} catch (e) {}
		for (let i = 0; i < win.frames.length; i++) {
			const f = find(win.frames[i]);
			if (f) return f;
		}
		return null;
	};
	const win = find(window);
	if (!win) return {found: false, rows: [], anchors: []};
	const doc = win.document;
	const rows = [];
	for (const tr of doc.querySelectorAll('table tr')) {
		const cells = tr.querySelectorAll('th, td');
		if (cells.length < 2) continue;
		rows.push({
			text: (cells[0].innerText || '').trim(),
			anchor: tr.querySelector('a') !== null,
		});
	}
	const anchors = [];
	for (const a of doc.querySelectorAll('a')) {
		anchors.push({
			href: a.getAttribute('href') || '',
			cls: a.getAttribute('class') || '',
			text: (a.innerText || '').trim(),
		});
	}
	return {found: true, rows: rows, anchors: anchors};
})()`

// Extract reads the header row, snapshots the week frame and turns the slot
// anchors into per-staff minute lists
func (a *Adapter) Extract(ctx context.Context, target scrape.Target) (scrape.Observations, error) {
	log := a.clog(target)

	var cells []HeaderCell
	if err := scrape.Step(ctx, a.nav, chromedp.Evaluate(headersJS, &cells)); err != nil {
		return nil, fmt.Errorf("legacy extract: headers: %w", err)
	}
	headers := SelectHeaders(cells, target.Exclude, target.Disabled)
	if len(headers) == 0 {
		return nil, fmt.Errorf("legacy extract: no staff headers")
	}
	log.Debug().Int("columns", len(headers)).Msg("legacy: headers selected")

	var snap FrameSnap
	if err := scrape.Step(ctx, a.nav, chromedp.Evaluate(frameJS, &snap)); err != nil {
		return nil, fmt.Errorf("legacy extract: frame: %w", err)
	}
	if !snap.Found {
		return nil, fmt.Errorf("legacy extract: schedule frame not found")
	}

	interval := target.Interval
	if interval <= 0 {
		interval = 5
	}
	obs, report := CollectSlots(snap, headers, interval)
	if len(report.UnmappedCols) > 0 {
		log.Warn().Ints("cols", report.UnmappedCols).Msg("legacy: anchors for excluded columns dropped")
	}
	if len(report.UnmappedRows) > 0 {
		log.Warn().Ints("rows", report.UnmappedRows).Msg("legacy: rows outside the map, interpolated")
	}
	if report.LinearFallback {
		log.Warn().Msg("legacy: no row map, linear fallback from grid start")
	}
	return obs, nil
}
