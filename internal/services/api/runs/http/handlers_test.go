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
	phttp "slotwatch/internal/platform/net/http"
	"slotwatch/internal/platform/store"
	"slotwatch/internal/platform/store/local"
	ptime "slotwatch/internal/platform/time"
	runshttp "slotwatch/internal/services/api/runs/http"
	harvestdomain "slotwatch/internal/services/harvest/domain"
	taskrepo "slotwatch/internal/services/tasks/repo"
	tasksvc "slotwatch/internal/services/tasks/service"
)

// launcher drives the task manager the way the real runner does, without
// spawning a background harvest
type launcher struct {
	tasks *tasksvc.Manager
}

func (l launcher) Launch(ctx context.Context, _ scrape.Backend) (string, error) {
	task, err := l.tasks.Create(ctx)
	if err != nil {
		return "", err
	}
	return task.ID, nil
}

func (l launcher) RunOnce(context.Context, scrape.Backend) (string, harvestdomain.Artifact, error) {
	return "", harvestdomain.Artifact{}, nil
}

type envelope struct {
	StatusCode int             `json:"status_code"`
	Status     string          `json:"status"`
	Error      string          `json:"error"`
	Data       json.RawMessage `json:"data"`
}

func newServer(t *testing.T) (*httptest.Server, *tasksvc.Manager) {
	t.Helper()
	docs, err := local.Open(local.Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("open local: %v", err)
	}
	s := &store.Store{Docs: docs}
	created := ptime.Fixed(time.Date(2026, 8, 25, 9, 30, 0, 0, ptime.JST))
	tasks := tasksvc.New(taskrepo.NewBuckets(s), s.Log, tasksvc.Config{Clock: created})

	mux := chi.NewRouter()
	rt := phttp.AdaptChi(mux)
	rt.Route("/run", func(rr phttp.Router) {
		runshttp.Register(rr, runshttp.Deps{
			Runner: launcher{tasks: tasks},
			Tasks:  tasks,
			// the handler clock sits 42s after task creation
			Clock: ptime.Fixed(time.Date(2026, 8, 25, 9, 30, 42, 0, ptime.JST)),
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, tasks
}

func post(t *testing.T, url string, body string) (*stdhttp.Response, envelope) {
	t.Helper()
	var rd *bytes.Reader
	if body == "" {
		rd = bytes.NewReader(nil)
	} else {
		rd = bytes.NewReader([]byte(body))
	}
	resp, err := stdhttp.Post(url, "application/json", rd)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp, env
}

func get(t *testing.T, url string) (*stdhttp.Response, envelope) {
	t.Helper()
	resp, err := stdhttp.Get(url)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp, env
}

func TestLaunchAcceptedThenConflict(t *testing.T) {
	t.Parallel()
	srv, _ := newServer(t)

	resp, env := post(t, srv.URL+"/run", "")
	if resp.StatusCode != stdhttp.StatusAccepted || env.StatusCode != stdhttp.StatusAccepted {
		t.Fatalf("status = %d / %d", resp.StatusCode, env.StatusCode)
	}
	var accepted struct {
		TaskID string `json:"task_id"`
	}
	if err := json.Unmarshal(env.Data, &accepted); err != nil {
		t.Fatalf("data: %v", err)
	}
	if accepted.TaskID != "20260825_093000" {
		t.Fatalf("task_id = %q", accepted.TaskID)
	}

	// the pending task blocks a second launch; the body carries how long
	// the blocking run has been going
	resp, env = post(t, srv.URL+"/run", `{"system": "legacy"}`)
	if resp.StatusCode != stdhttp.StatusConflict {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var conflict struct {
		TaskID         string  `json:"task_id"`
		ElapsedSeconds float64 `json:"elapsed_seconds"`
	}
	if err := json.Unmarshal(env.Data, &conflict); err != nil {
		t.Fatalf("data: %v", err)
	}
	if conflict.TaskID != accepted.TaskID || conflict.ElapsedSeconds != 42 {
		t.Fatalf("conflict = %+v", conflict)
	}
}

func TestLaunchRejectsUnknownSystem(t *testing.T) {
	t.Parallel()
	srv, _ := newServer(t)

	resp, env := post(t, srv.URL+"/run", `{"system": "fax"}`)
	if resp.StatusCode != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if env.Error == "" {
		t.Fatal("expected an error message in the envelope")
	}
}

func TestTaskLookup(t *testing.T) {
	t.Parallel()
	srv, tasks := newServer(t)

	task, err := tasks.Create(context.Background())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	resp, env := get(t, srv.URL+"/run/"+task.ID)
	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got struct {
		TaskID string `json:"task_id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("data: %v", err)
	}
	if got.TaskID != task.ID || got.Status != "pending" {
		t.Fatalf("task = %+v", got)
	}

	resp, _ = get(t, srv.URL+"/run/19700101_000000")
	if resp.StatusCode != stdhttp.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
