// Package browser owns the shared headless Chrome process.
//
// The process is launched once at service boot and reused across runs so a
// check never pays the browser startup cost. Callers get isolated tab
// contexts; the pool keeps the allocator and the root browser context
package browser

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"

	perr "slotwatch/internal/platform/errors"
	"slotwatch/internal/platform/logger"
)

// Config controls how Chrome is launched
type Config struct {
	// Headless toggles the headless flag, true in every deployment
	// except local debugging
	Headless bool

	// InitTimeout bounds the warm-up launch, default 10 minutes
	// (cold Cloud Run instances pull the image and start slow)
	InitTimeout time.Duration

	// NavTimeout is the per-navigation bound adapters apply to tab work
	NavTimeout time.Duration

	// UserAgent overrides the default when non-empty
	UserAgent string
}

// Pool is the process-wide browser handle.
// Start launches Chrome in the background; Handle and NewTab block until the
// warm-up finished or failed
type Pool struct {
	cfg Config
	log logger.Logger

	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc

	ready   chan struct{}
	initErr error
}

// Start creates the allocator and root context and begins the warm-up.
// It never blocks; readiness is observed via Handle, Ping or Ready
func Start(cfg Config, log logger.Logger) *Pool {
	if cfg.InitTimeout <= 0 {
		cfg.InitTimeout = 10 * time.Minute
	}
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 60 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	p := &Pool{
		cfg:           cfg,
		log:           log,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
		ready:         make(chan struct{}),
	}
	go p.warm()
	return p
}

// warm launches the browser process by running an empty task.
// chromedp launches lazily on the first Run, so this is where startup
// time is actually spent
func (p *Pool) warm() {
	defer close(p.ready)

	p.log.Info().Bool("headless", p.cfg.Headless).Msg("browser: launching chrome")
	started := time.Now()

	ctx, cancel := context.WithTimeout(p.browserCtx, p.cfg.InitTimeout)
	defer cancel()

	if err := chromedp.Run(ctx); err != nil {
		p.initErr = perr.Wrap(err, perr.ErrorCodeUnavailable, "browser: launch failed")
		p.log.Error().Err(err).Msg("browser: launch failed")
		return
	}
	p.log.Info().Dur("took", time.Since(started)).Msg("browser: ready")
}

// NavTimeout returns the configured per-navigation bound
func (p *Pool) NavTimeout() time.Duration { return p.cfg.NavTimeout }

// Handle returns the root browser context once the warm-up finished.
// When ctx carries no deadline the configured InitTimeout applies
func (p *Pool) Handle(ctx context.Context) (context.Context, error) {
	if p == nil {
		return nil, perr.Unavailablef("browser: pool not configured")
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.InitTimeout)
		defer cancel()
	}
	select {
	case <-p.ready:
		if p.initErr != nil {
			return nil, p.initErr
		}
		return p.browserCtx, nil
	case <-ctx.Done():
		return nil, perr.Unavailablef("browser: startup not finished: %v", ctx.Err())
	}
}

// NewTab opens an isolated tab for one clinic session.
// The tab's lifetime is bound to ctx: cancelling the run closes every
// in-flight tab while the shared browser keeps running. The caller must
// still call cancel to close the tab when done
func (p *Pool) NewTab(ctx context.Context) (context.Context, context.CancelFunc, error) {
	parent, err := p.Handle(ctx)
	if err != nil {
		return nil, nil, err
	}
	tab, cancel := chromedp.NewContext(parent)
	stop := context.AfterFunc(ctx, cancel)
	return tab, func() { stop(); cancel() }, nil
}

// Ready reports whether the warm-up completed successfully
func (p *Pool) Ready() bool {
	select {
	case <-p.ready:
		return p.initErr == nil
	default:
		return false
	}
}

// Ping implements the readiness seam used by health checks
func (p *Pool) Ping(context.Context) error {
	if p == nil {
		return perr.Unavailablef("browser: pool not configured")
	}
	select {
	case <-p.ready:
		return p.initErr
	default:
		return perr.Unavailablef("browser: warming up")
	}
}

// Close tears the browser process down; safe after a failed warm-up
func (p *Pool) Close() {
	p.browserCancel()
	p.allocCancel()
}
