package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/seisgo/fwigrad/internal/grid"
	"github.com/seisgo/fwigrad/internal/inversion"
	"github.com/seisgo/fwigrad/internal/logger"
)

type fakeRunner struct {
	g       grid.Grid
	release chan struct{}
	results []*inversion.Result
	err     error
}

func (r *fakeRunner) Run(ctx context.Context) ([]*inversion.Result, error) {
	select {
	case <-r.release:
		return r.results, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *fakeRunner) Grid() grid.Grid { return r.g }
func (r *fakeRunner) Close() error    { return nil }

func newTestServer(t *testing.T, runner *fakeRunner, factoryErr error) *echo.Echo {
	t.Helper()
	log := logger.JSON(io.Discard, slog.LevelError)
	srv := NewServer(NewJobStore(), log, func(req *JobRequest) (Runner, error) {
		if factoryErr != nil {
			return nil, factoryErr
		}
		return runner, nil
	})
	e := echo.New()
	srv.Register(e)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeJob(t *testing.T, rec *httptest.ResponseRecorder) JobResponse {
	t.Helper()
	var resp JobResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode job response: %v", err)
	}
	return resp
}

func waitForStatus(t *testing.T, e *echo.Echo, id, want string) JobResponse {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec := doJSON(t, e, http.MethodGet, "/v1/jobs/"+id, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("get job: status %d", rec.Code)
		}
		resp := decodeJob(t, rec)
		if resp.Status == want {
			return resp
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %q", id, want)
	return JobResponse{}
}

func TestJobLifecycle(t *testing.T) {
	t.Parallel()

	g, err := grid.New(10, 12, 5, 5, 4)
	if err != nil {
		t.Fatal(err)
	}
	runner := &fakeRunner{
		g:       g,
		release: make(chan struct{}),
		results: []*inversion.Result{
			{Iteration: 0, Objective: 3.5, Gradient: make([]float64, g.Size()), Illum: make([]float64, g.Size())},
			{Iteration: 1, Objective: 1.25, Gradient: make([]float64, g.Size()), Illum: make([]float64, g.Size())},
		},
	}
	e := newTestServer(t, runner, nil)

	rec := doJSON(t, e, http.MethodPost, "/v1/jobs", `{"data_file":"shots.seis"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("create: status %d, body %s", rec.Code, rec.Body.String())
	}
	job := decodeJob(t, rec)
	if job.ID == "" || job.Object != "job" {
		t.Fatalf("create: bad response %+v", job)
	}

	// Result before completion is a conflict, not a 404.
	rec = doJSON(t, e, http.MethodGet, "/v1/jobs/"+job.ID+"/result", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("premature result: status %d", rec.Code)
	}

	close(runner.release)
	done := waitForStatus(t, e, job.ID, StatusCompleted)
	if len(done.Objective) != 2 || done.Objective[1] != 1.25 {
		t.Fatalf("completed job objective = %v", done.Objective)
	}
	if done.CompletedAt == nil {
		t.Fatal("completed job has no completion time")
	}

	rec = doJSON(t, e, http.MethodGet, "/v1/jobs/"+job.ID+"/result", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("result: status %d", rec.Code)
	}
	var result JobResultResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Nz != 10 || result.Nx != 12 {
		t.Fatalf("result grid %dx%d", result.Nz, result.Nx)
	}
	if len(result.Gradient) != g.Size() || len(result.Illum) != g.Size() {
		t.Fatalf("result arrays %d/%d, want %d", len(result.Gradient), len(result.Illum), g.Size())
	}

	rec = doJSON(t, e, http.MethodGet, "/v1/jobs", "")
	var list JobListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Data) != 1 || list.Data[0].ID != job.ID {
		t.Fatalf("list = %+v", list)
	}
}

func TestCancelJob(t *testing.T) {
	t.Parallel()

	g, _ := grid.New(10, 10, 5, 5, 4)
	runner := &fakeRunner{g: g, release: make(chan struct{})}
	e := newTestServer(t, runner, nil)

	job := decodeJob(t, doJSON(t, e, http.MethodPost, "/v1/jobs", `{"data_file":"shots.seis"}`))

	rec := doJSON(t, e, http.MethodPost, "/v1/jobs/"+job.ID+"/cancel", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel: status %d", rec.Code)
	}
	if resp := decodeJob(t, rec); resp.Status != StatusCancelled {
		t.Fatalf("cancel: status %q", resp.Status)
	}

	// The runner's context error must not overwrite the cancelled state.
	waitForStatus(t, e, job.ID, StatusCancelled)
	time.Sleep(20 * time.Millisecond)
	resp := decodeJob(t, doJSON(t, e, http.MethodGet, "/v1/jobs/"+job.ID, ""))
	if resp.Status != StatusCancelled {
		t.Fatalf("job left cancelled state: %q", resp.Status)
	}

	// A finished job cannot be cancelled again.
	rec = doJSON(t, e, http.MethodPost, "/v1/jobs/"+job.ID+"/cancel", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("double cancel: status %d", rec.Code)
	}
}

func TestFailedRunSetsError(t *testing.T) {
	t.Parallel()

	g, _ := grid.New(10, 10, 5, 5, 4)
	runner := &fakeRunner{g: g, release: make(chan struct{}), err: errors.New("blowup")}
	close(runner.release)
	e := newTestServer(t, runner, nil)

	job := decodeJob(t, doJSON(t, e, http.MethodPost, "/v1/jobs", `{"data_file":"shots.seis"}`))
	failed := waitForStatus(t, e, job.ID, StatusFailed)
	if failed.Error != "blowup" {
		t.Fatalf("failed job error = %q", failed.Error)
	}
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	e := newTestServer(t, nil, nil)
	if rec := doJSON(t, e, http.MethodPost, "/v1/jobs", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing data_file: status %d", rec.Code)
	}
	if rec := doJSON(t, e, http.MethodPost, "/v1/jobs", `{not json`); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad JSON: status %d", rec.Code)
	}

	e = newTestServer(t, nil, errors.New("no such file"))
	if rec := doJSON(t, e, http.MethodPost, "/v1/jobs", `{"data_file":"missing.seis"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("factory error: status %d", rec.Code)
	}
}

func TestUnknownJob(t *testing.T) {
	t.Parallel()

	e := newTestServer(t, nil, nil)
	for _, path := range []string{"/v1/jobs/job_missing", "/v1/jobs/job_missing/result"} {
		if rec := doJSON(t, e, http.MethodGet, path, ""); rec.Code != http.StatusNotFound {
			t.Fatalf("%s: status %d", path, rec.Code)
		}
	}
	if rec := doJSON(t, e, http.MethodPost, "/v1/jobs/job_missing/cancel", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("cancel unknown: status %d", rec.Code)
	}
}
