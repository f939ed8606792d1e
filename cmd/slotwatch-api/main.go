// @title         Slotwatch API
// @version       0.1.0
// @description   Appointment availability runs, artifacts and clinic administration

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slotwatch/internal/platform/browser"
	"slotwatch/internal/platform/config"
	"slotwatch/internal/platform/logger"
	phttp "slotwatch/internal/platform/net/http"
	"slotwatch/internal/platform/secrets"
	"slotwatch/internal/platform/store"

	"slotwatch/internal/services/api"
)

func main() {
	root := config.New()
	cfg := root.Prefix("SLOTWATCH_")

	// bring up logging early
	l := logger.Get()
	ctx := context.Background()

	// open the platform store (local dir, optional GCS mirror)
	st, err := store.Open(ctx, store.Config{
		AppName: "slotwatch",
		Local: store.LocalConfig{
			Dir: cfg.MayString("DATA_DIR", "./data"),
		},
		GCS: store.GCSConfig{
			Enabled: cfg.MayString("GCS_BUCKET", "") != "",
			Bucket:  cfg.MayString("GCS_BUCKET", ""),
			Prefix:  cfg.MayString("GCS_PREFIX", ""),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	// credentials provider (env for local runs, gsm on GCP)
	creds, err := secrets.New(ctx, secrets.Config{
		Mode:    cfg.MayString("SECRETS_MODE", "env"),
		Project: cfg.MayString("GCP_PROJECT", ""),
		Name:    cfg.MayString("SECRETS_NAME", "slotwatch-credentials"),
	}, st.Docs)
	if err != nil {
		l.Panic().Err(err).Msg("secrets provider failed")
	}

	// the shared Chrome process warms up in the background; the first run
	// blocks on readiness, not the boot
	pool := browser.Start(browser.Config{
		Headless:    cfg.MayBool("BROWSER_HEADLESS", true),
		InitTimeout: cfg.MayDuration("BROWSER_INIT_TIMEOUT", 10*time.Minute),
		NavTimeout:  cfg.MayDuration("NAV_TIMEOUT", 60*time.Second),
	}, *l)
	defer pool.Close()

	// http server (reads SLOTWATCH_API_PORT)
	srv := phttp.NewServer(cfg)

	// mount our API
	api.Mount(
		srv.Router(),
		api.Options{
			Config:         cfg,
			Store:          st,
			Logger:         *l,
			Secrets:        creds,
			Browser:        pool,
			EnableSwagger:  cfg.MayBool("API_SWAGGER", true),
			EnableProfiler: cfg.MayBool("API_PROFILER", false),
			AdminToken:     cfg.MayString("API_ADMIN_TOKEN", ""),
		},
	)

	// run until signalled, then drain
	errc := make(chan error, 1)
	go func() { errc <- srv.Run(ctx) }()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		if err != nil {
			l.Panic().Err(err).Msg("http server stopped")
		}
	case sig := <-sigc:
		l.Info().Str("signal", sig.String()).Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.Error().Err(err).Msg("shutdown failed")
		}
	}
}
