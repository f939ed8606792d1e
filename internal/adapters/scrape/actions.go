package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Step runs actions under a per-operation timeout on the tab context
func Step(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// Location returns the tab's current URL
func Location(ctx context.Context) (string, error) {
	var loc string
	if err := chromedp.Run(ctx, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

// WaitQuiet waits until the page has had no in-flight network requests for
// quiet, giving up silently at bound. Quiescence is best effort: pages that
// poll forever must not wedge a run, so hitting the bound is not an error
func WaitQuiet(quiet, bound time.Duration) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return err
		}

		var mu sync.Mutex
		inflight := map[network.RequestID]struct{}{}

		idle := make(chan struct{}, 1)
		timer := time.AfterFunc(quiet, func() {
			select {
			case idle <- struct{}{}:
			default:
			}
		})
		defer timer.Stop()

		track := func(id network.RequestID, done bool) {
			mu.Lock()
			if done {
				delete(inflight, id)
			} else {
				inflight[id] = struct{}{}
			}
			n := len(inflight)
			mu.Unlock()
			if n == 0 {
				timer.Reset(quiet)
			} else {
				timer.Stop()
			}
		}

		lctx, cancel := context.WithCancel(ctx)
		defer cancel()
		chromedp.ListenTarget(lctx, func(ev any) {
			switch e := ev.(type) {
			case *network.EventRequestWillBeSent:
				track(e.RequestID, false)
			case *network.EventLoadingFinished:
				track(e.RequestID, true)
			case *network.EventLoadingFailed:
				track(e.RequestID, true)
			}
		})

		deadline := time.NewTimer(bound)
		defer deadline.Stop()
		select {
		case <-idle:
			return nil
		case <-deadline.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ClickFirst clicks the first visible element matching any selector, in
// order. Returns the selector that matched, or "" when none did
func ClickFirst(ctx context.Context, timeout time.Duration, selectors ...string) (string, error) {
	arg, err := json.Marshal(selectors)
	if err != nil {
		return "", err
	}
	js := fmt.Sprintf(`(sels => {
		for (const s of sels) {
			for (const el of document.querySelectorAll(s)) {
				if (el.offsetParent !== null || el.tagName === 'INPUT') {
					el.click();
					return s;
				}
			}
		}
		return "";
	})(%s)`, arg)

	var matched string
	if err := Step(ctx, timeout, chromedp.Evaluate(js, &matched)); err != nil {
		return "", err
	}
	return matched, nil
}

// ClickText clicks the first visible element under the selector whose
// trimmed text equals any of the given tokens, in token order. Exact
// equality keeps the single-chevron next-day glyph from matching its
// double-chevron next-month sibling. Returns the token that matched, or ""
func ClickText(ctx context.Context, timeout time.Duration, selector string, tokens ...string) (string, error) {
	arg, err := json.Marshal(tokens)
	if err != nil {
		return "", err
	}
	sel, err := json.Marshal(selector)
	if err != nil {
		return "", err
	}
	js := fmt.Sprintf(`((sel, tokens) => {
		for (const t of tokens) {
			for (const el of document.querySelectorAll(sel)) {
				if (el.offsetParent === null) continue;
				if ((el.innerText || '').trim() === t) {
					el.click();
					return t;
				}
			}
		}
		return "";
	})(%s, %s)`, sel, arg)

	var matched string
	if err := Step(ctx, timeout, chromedp.Evaluate(js, &matched)); err != nil {
		return "", err
	}
	return matched, nil
}

// ClickLinkText clicks the first anchor whose trimmed text equals any token
func ClickLinkText(ctx context.Context, timeout time.Duration, tokens ...string) (string, error) {
	return ClickText(ctx, timeout, "a", tokens...)
}
