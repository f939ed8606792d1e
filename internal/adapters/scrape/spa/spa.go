// Package spa extracts availability from the single-page calendar back-end
// (Stransa). Login lands on either an office picker or the calendar; the
// schedule is a flat table whose header row names chairs and staff, and a
// free slot is an empty cell in a staff column
package spa

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"slotwatch/internal/adapters/scrape"
	"slotwatch/internal/platform/logger"
	pstrings "slotwatch/internal/platform/strings"
)

// Adapter implements the extraction protocol for the SPA back-end
type Adapter struct {
	log logger.Logger
	nav time.Duration
}

// New returns the SPA adapter. nav bounds each page operation
func New(log logger.Logger, nav time.Duration) *Adapter {
	if nav <= 0 {
		nav = 60 * time.Second
	}
	return &Adapter{log: log, nav: nav}
}

// Backend tags the adapter
func (a *Adapter) Backend() scrape.Backend { return scrape.BackendSPA }

func (a *Adapter) clog(target scrape.Target) logger.Logger {
	return a.log.With().Str("clinic", target.Name).Logger()
}

// landed reports whether the URL is a post-login destination: the office
// picker or a calendar view
func landed(url string) bool {
	return strings.Contains(url, "/office") || strings.Contains(url, "/calendar/")
}

// Login authenticates and, when the account spans multiple offices, picks
// the clinic's office before settling on a calendar view
func (a *Adapter) Login(ctx context.Context, target scrape.Target) error {
	log := a.clog(target)

	err := scrape.Step(ctx, a.nav,
		chromedp.Navigate(target.URL),
		chromedp.Sleep(time.Second),
		chromedp.SendKeys(`input[type="text"], input[type="email"]`, target.Login.ID, chromedp.ByQuery),
		chromedp.SendKeys(`input[type="password"]`, target.Login.Password, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("spa login: fill credentials: %w", err)
	}

	matched, err := scrape.ClickFirst(ctx, a.nav, `button[type="submit"]`, `input[type="submit"]`)
	if err != nil {
		return fmt.Errorf("spa login: submit: %w", err)
	}
	if matched == "" {
		if matched, err = scrape.ClickText(ctx, a.nav, "button", "ログイン"); err != nil {
			return fmt.Errorf("spa login: submit by text: %w", err)
		}
	}
	if matched == "" {
		return fmt.Errorf("spa login: no submit control found")
	}

	loc, err := a.waitLanded(ctx)
	if err != nil {
		return fmt.Errorf("spa login: %w", err)
	}
	log.Debug().Str("url", loc).Msg("spa: logged in")

	if strings.Contains(loc, "/office") {
		if err := a.pickOffice(ctx, target, loc); err != nil {
			return err
		}
	}

	a.switchToStaffView(ctx, target)
	return nil
}

// staffTabTokens are the labels the staff tab shows across Stransa themes
var staffTabTokens = []string{"スタッフ", "スタッフ表示", "担当者", "担当者別"}

// switchToStaffView clicks the staff tab when the calendar offers one. The
// first visible candidate wins; a calendar without the tab stays on the
// chair view, which extracts the same grid shape
func (a *Adapter) switchToStaffView(ctx context.Context, target scrape.Target) {
	log := a.clog(target)
	for _, sel := range []string{"button", "a", "li", "span"} {
		matched, err := scrape.ClickText(ctx, a.nav, sel, staffTabTokens...)
		if err != nil {
			log.Debug().Err(err).Msg("spa: staff tab probe failed")
			return
		}
		if matched != "" {
			log.Debug().Str("tab", matched).Msg("spa: switched to staff view")
			if err := scrape.Step(ctx, a.nav, scrape.WaitQuiet(500*time.Millisecond, 5*time.Second)); err != nil {
				log.Debug().Err(err).Msg("spa: staff view settle failed")
			}
			return
		}
	}
	log.Debug().Msg("spa: no staff tab, using chair view")
}

// waitLanded polls the tab URL until it reaches a post-login destination
func (a *Adapter) waitLanded(ctx context.Context) (string, error) {
	deadline := time.Now().Add(a.nav)
	for {
		loc, err := scrape.Location(ctx)
		if err != nil {
			return "", err
		}
		if landed(loc) {
			return loc, nil
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("still at %s after login", loc)
		}
		if err := scrape.Step(ctx, a.nav, chromedp.Sleep(500*time.Millisecond)); err != nil {
			return "", err
		}
	}
}

// pickOffice resolves the office picker. The office link carries the
// clinic's display name, sometimes without its parenthesized suffix; when
// neither clicks, substitute the URL path and retry once
func (a *Adapter) pickOffice(ctx context.Context, target scrape.Target, loc string) error {
	log := a.clog(target)

	names := []string{target.Display()}
	if short := stripSuffix(target.Display()); short != names[0] {
		names = append(names, short)
	}

	for _, sel := range []string{"a", "button"} {
		matched, err := scrape.ClickText(ctx, a.nav, sel, names...)
		if err != nil {
			return fmt.Errorf("spa office: click: %w", err)
		}
		if matched != "" {
			return a.settleOnCalendar(ctx, target, false)
		}
	}

	// no named link on the picker, jump straight to the calendar path
	calURL := strings.Replace(loc, "/office", "/calendar/", 1)
	log.Debug().Str("url", calURL).Msg("spa: office picker bypass")
	if err := scrape.Step(ctx, a.nav,
		chromedp.Navigate(calURL),
		scrape.WaitQuiet(500*time.Millisecond, 10*time.Second),
	); err != nil {
		return fmt.Errorf("spa office: navigate: %w", err)
	}
	return a.settleOnCalendar(ctx, target, true)
}

// settleOnCalendar confirms the tab reached a calendar view, retrying the
// path substitution once when it has not
func (a *Adapter) settleOnCalendar(ctx context.Context, target scrape.Target, retried bool) error {
	if err := scrape.Step(ctx, a.nav, scrape.WaitQuiet(500*time.Millisecond, 10*time.Second)); err != nil {
		return fmt.Errorf("spa office: settle: %w", err)
	}
	loc, err := scrape.Location(ctx)
	if err != nil {
		return err
	}
	if strings.Contains(loc, "/calendar/") {
		return nil
	}
	if retried {
		return fmt.Errorf("spa office: no calendar view, stuck at %s", loc)
	}
	return a.pickOffice(ctx, target, loc)
}

// stripSuffix drops a trailing parenthesized qualifier from an office label
func stripSuffix(name string) string {
	for _, open := range []string{"（", "("} {
		if i := strings.Index(name, open); i > 0 {
			return strings.TrimSpace(name[:i])
		}
	}
	return name
}

// AdvanceToTomorrow resets the grid to today, then clicks the next-day
// control. Single-glyph chevrons are matched exactly: the double chevron is
// next month
func (a *Adapter) AdvanceToTomorrow(ctx context.Context, target scrape.Target) error {
	for _, sel := range []string{"button", "a"} {
		if _, err := scrape.ClickText(ctx, a.nav, sel, "本日", "本 日"); err != nil {
			return fmt.Errorf("spa advance: today: %w", err)
		}
	}
	if err := scrape.Step(ctx, a.nav, scrape.WaitQuiet(500*time.Millisecond, 5*time.Second)); err != nil {
		return fmt.Errorf("spa advance: settle: %w", err)
	}

	matched, err := scrape.ClickFirst(ctx, a.nav, `a[title="翌日"]`)
	if err != nil {
		return fmt.Errorf("spa advance: %w", err)
	}
	if matched == "" {
		if matched, err = scrape.ClickText(ctx, a.nav, "a", "›", ">"); err != nil {
			return fmt.Errorf("spa advance: chevron: %w", err)
		}
	}
	if matched == "" {
		return fmt.Errorf("spa advance: no next-day control")
	}

	return scrape.Step(ctx, a.nav,
		scrape.WaitQuiet(500*time.Millisecond, 10*time.Second),
		chromedp.Sleep(time.Second),
	)
}

// Extract snapshots every table on the calendar page and reads the first
// schedule grid found
func (a *Adapter) Extract(ctx context.Context, target scrape.Target) (scrape.Observations, error) {
	log := a.clog(target)

	tables, err := scrape.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("spa extract: snapshot: %w", err)
	}

	obs, ok := ExtractSlots(tables)
	if !ok {
		return nil, fmt.Errorf("spa extract: no schedule table among %d tables", len(tables))
	}

	for _, d := range target.Disabled {
		for staff := range obs {
			if pstrings.FoldEqual(staff, d) {
				delete(obs, staff)
			}
		}
	}
	log.Debug().Int("staff", len(obs)).Msg("spa: grid extracted")
	return obs, nil
}
