package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"slotwatch/internal/adapters/scrape"
	"slotwatch/internal/core/slots"
	"slotwatch/internal/modkit/httpkit"
	phttp "slotwatch/internal/platform/net/http"
	"slotwatch/internal/platform/net/middleware"
	"slotwatch/internal/platform/secrets"
	"slotwatch/internal/platform/store"
	"slotwatch/internal/platform/store/local"
	ptime "slotwatch/internal/platform/time"
	staffhttp "slotwatch/internal/services/api/staff/http"
	harvestdomain "slotwatch/internal/services/harvest/domain"
	harvestrepo "slotwatch/internal/services/harvest/repo"
	harvestsvc "slotwatch/internal/services/harvest/service"
	regdomain "slotwatch/internal/services/registry/domain"
	regrepo "slotwatch/internal/services/registry/repo"
	regsvc "slotwatch/internal/services/registry/service"
	taskrepo "slotwatch/internal/services/tasks/repo"
	tasksvc "slotwatch/internal/services/tasks/service"
)

type envelope struct {
	StatusCode int             `json:"status_code"`
	Error      string          `json:"error"`
	Data       json.RawMessage `json:"data"`
}

type harness struct {
	srv     *httptest.Server
	storage *harvestrepo.Artifacts
}

func newHarness(t *testing.T) *harness {
	return newHarnessWithAuth(t, nil)
}

func newHarnessWithAuth(t *testing.T, auth middleware.AuthPort) *harness {
	t.Helper()
	docs, err := local.Open(local.Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("open local: %v", err)
	}
	s := &store.Store{Docs: docs}
	clock := ptime.Fixed(time.Date(2026, 8, 25, 9, 30, 0, 0, ptime.JST))

	registry := regsvc.New(regrepo.NewBuckets(s), secrets.NewEnv(secrets.DefaultEnvVar, docs), s.Log)
	tasks := tasksvc.New(taskrepo.NewBuckets(s), s.Log, tasksvc.Config{Clock: clock})
	sched := harvestsvc.NewScheduler(nil, map[scrape.Backend]scrape.Adapter{}, nil, s.Log)
	storage := harvestrepo.NewBuckets(s)
	svc := harvestsvc.New(registry, tasks, sched, storage, s.Log, harvestsvc.Config{Clock: clock})

	mux := chi.NewRouter()
	rt := phttp.AdaptChi(mux)
	rt.Route("/staff", func(rr phttp.Router) {
		staffhttp.Register(rr, staffhttp.Deps{Registry: registry, Admin: registry, Results: svc, Auth: auth})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &harness{srv: srv, storage: storage}
}

func call(t *testing.T, method, url, body string) (*stdhttp.Response, envelope) {
	t.Helper()
	req, err := stdhttp.NewRequest(method, url, bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := stdhttp.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp, env
}

func TestRulePatchFlow(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	resp, env := call(t, "POST", h.srv.URL+"/staff/minami/category", `{"staff": "山田", "category": "doctor"}`)
	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("status = %d (%s)", resp.StatusCode, env.Error)
	}
	call(t, "POST", h.srv.URL+"/staff/minami/disabled", `{"staff": "鈴木"}`)
	call(t, "POST", h.srv.URL+"/staff/minami/web-booking", `{"staff": "山田"}`)
	call(t, "POST", h.srv.URL+"/staff/minami/memo", `{"staff": "山田", "memo": "木曜のみ"}`)
	call(t, "POST", h.srv.URL+"/staff/minami/threshold", `{"category": "doctor", "minutes": 60}`)

	_, env = call(t, "GET", h.srv.URL+"/staff/minami", "")
	var got struct {
		Configured bool `json:"configured"`
		regdomain.Ruleset
	}
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("data: %v", err)
	}
	if !got.Configured {
		t.Fatal("ruleset not configured")
	}
	if got.Classify("山田") != regdomain.CategoryDoctor || !got.IsDisabled("鈴木") {
		t.Fatalf("ruleset = %+v", got.Ruleset)
	}
	if !got.WebBookable("山田") || got.Memos["山田"] != "木曜のみ" {
		t.Fatalf("ruleset = %+v", got.Ruleset)
	}
	if got.Threshold(regdomain.CategoryDoctor) != 60 {
		t.Fatalf("threshold = %d", got.Threshold(regdomain.CategoryDoctor))
	}
}

func TestRulePatchValidation(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	resp, _ := call(t, "POST", h.srv.URL+"/staff/minami/category", `{"staff": "", "category": "doctor"}`)
	if resp.StatusCode != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	resp, _ = call(t, "POST", h.srv.URL+"/staff/minami/category", `{"staff": "山田", "category": "janitor"}`)
	if resp.StatusCode != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	resp, _ = call(t, "POST", h.srv.URL+"/staff/minami/threshold", `{"category": "doctor", "minutes": 0}`)
	if resp.StatusCode != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestRuleEditsRequireBearerToken(t *testing.T) {
	t.Parallel()
	h := newHarnessWithAuth(t, httpkit.NewStaticBearer("s3cret"))
	body := `{"staff": "山田", "category": "doctor"}`

	// reads stay open
	resp, _ := call(t, "GET", h.srv.URL+"/staff/minami", "")
	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("read status = %d", resp.StatusCode)
	}

	resp, _ = call(t, "POST", h.srv.URL+"/staff/minami/category", body)
	if resp.StatusCode != stdhttp.StatusUnauthorized {
		t.Fatalf("no token: status = %d", resp.StatusCode)
	}

	req, _ := stdhttp.NewRequest("POST", h.srv.URL+"/staff/minami/category", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err := stdhttp.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusUnauthorized {
		t.Fatalf("wrong token: status = %d", resp.StatusCode)
	}

	req, _ = stdhttp.NewRequest("POST", h.srv.URL+"/staff/minami/category", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer s3cret")
	resp, err = stdhttp.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("valid token: status = %d", resp.StatusCode)
	}
}

func TestSyncMergesLatestArtifactStaff(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	art := harvestdomain.Artifact{
		CheckDate: "2026-08-26",
		Results: []harvestdomain.ClinicResult{{
			Clinic: "minami",
			System: scrape.BackendLegacy,
			Details: []slots.Analysis{
				slots.AnalyzeStaff("山田", []int{540, 545}, 5, 30),
				slots.AnalyzeStaff("佐藤", []int{600}, 5, 30),
			},
		}},
	}
	art.Tally()
	key := harvestrepo.Name("20260826", "20260825", "093000")
	if err := h.storage.Save(context.Background(), key, art, []byte("x")); err != nil {
		t.Fatalf("save: %v", err)
	}

	resp, env := call(t, "POST", h.srv.URL+"/staff/minami/sync", "")
	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("status = %d (%s)", resp.StatusCode, env.Error)
	}
	var got struct {
		Added    int      `json:"added"`
		AllStaff []string `json:"all_staff"`
	}
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("data: %v", err)
	}
	if got.Added != 2 || len(got.AllStaff) != 2 {
		t.Fatalf("sync = %+v", got)
	}

	// idempotent on repeat
	_, env = call(t, "POST", h.srv.URL+"/staff/minami/sync", "")
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("data: %v", err)
	}
	if got.Added != 0 || len(got.AllStaff) != 2 {
		t.Fatalf("sync = %+v", got)
	}
}
