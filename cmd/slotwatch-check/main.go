// Command slotwatch-check runs one availability harvest synchronously and
// prints the per-clinic summary. Meant for cron and manual spot checks; the
// API service is not required
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"slotwatch/internal/adapters/scrape"
	"slotwatch/internal/modkit"
	"slotwatch/internal/modkit/module"
	"slotwatch/internal/platform/browser"
	"slotwatch/internal/platform/config"
	"slotwatch/internal/platform/logger"
	"slotwatch/internal/platform/secrets"
	"slotwatch/internal/platform/store"

	harvestmod "slotwatch/internal/services/harvest/module"
	registrymod "slotwatch/internal/services/registry/module"
	tasksmod "slotwatch/internal/services/tasks/module"
)

func main() {
	systemFlag := flag.String("system", "", "restrict the run to one back-end (legacy|spa)")
	headless := flag.Bool("headless", true, "run chrome headless")
	out := flag.String("out", "", "also write the artifact JSON to this path")
	flag.Parse()

	system := scrape.Backend(*systemFlag)
	if *systemFlag != "" && !system.Valid() {
		fmt.Fprintf(os.Stderr, "unknown system %q (want legacy or spa)\n", *systemFlag)
		os.Exit(2)
	}

	root := config.New()
	cfg := root.Prefix("SLOTWATCH_")
	l := logger.Get()
	ctx := context.Background()

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

	creds, err := secrets.New(ctx, secrets.Config{
		Mode:    cfg.MayString("SECRETS_MODE", "env"),
		Project: cfg.MayString("GCP_PROJECT", ""),
		Name:    cfg.MayString("SECRETS_NAME", "slotwatch-credentials"),
	}, st.Docs)
	if err != nil {
		l.Panic().Err(err).Msg("secrets provider failed")
	}

	pool := browser.Start(browser.Config{
		Headless:    *headless,
		InitTimeout: cfg.MayDuration("BROWSER_INIT_TIMEOUT", 10*time.Minute),
		NavTimeout:  cfg.MayDuration("NAV_TIMEOUT", 60*time.Second),
	}, *l)
	defer pool.Close()

	deps := modkit.Deps{Log: *l, Cfg: cfg, Store: st, Browser: pool}
	tasks := tasksmod.New(deps)
	registry := registrymod.New(deps, creds)
	harvest := harvestmod.New(deps, pool,
		module.MustPortsOf[registrymod.Ports](registry).Registry,
		module.MustPortsOf[tasksmod.Ports](tasks).Manager)
	runner := module.MustPortsOf[harvestmod.Ports](harvest).Runner

	key, art, err := runner.RunOnce(ctx, system)
	if err != nil {
		l.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"clinic", "system", "result", "blocks", "staff"})
	for _, r := range art.Results {
		mark := "×"
		if r.Available {
			mark = "○"
		}
		tw.AppendRow(table.Row{r.Clinic, r.System, mark, r.TotalBlocks, len(r.Details)})
	}
	tw.AppendFooter(table.Row{"", "", "", "",
		fmt.Sprintf("%d/%d available", art.Summary.WithAvailability, art.Summary.TotalClinics)})
	tw.Render()
	fmt.Printf("check_date: %s  artifact: %s\n", art.CheckDate, key)

	if *out != "" {
		data, err := json.MarshalIndent(art, "", "  ")
		if err != nil {
			l.Panic().Err(err).Msg("marshal artifact")
		}
		if err := os.WriteFile(*out, data, 0o644); err != nil {
			l.Panic().Err(err).Msg("write artifact")
		}
	}
}
