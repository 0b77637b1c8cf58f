package api

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seisgo/fwigrad/internal/grid"
	"github.com/seisgo/fwigrad/internal/inversion"
)

type jobRecord struct {
	Response JobResponse
	Cancel   context.CancelFunc
	Results  []*inversion.Result
	Grid     grid.Grid
}

// JobStore is the in-memory registry of submitted gradient jobs.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*jobRecord
}

func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*jobRecord)}
}

func (s *JobStore) Create(req *JobRequest, cancel context.CancelFunc, now time.Time) JobResponse {
	resp := JobResponse{
		ID:        newJobID(),
		Object:    "job",
		Status:    StatusQueued,
		CreatedAt: now.Unix(),
		DataFile:  req.DataFile,
	}
	s.mu.Lock()
	s.jobs[resp.ID] = &jobRecord{Response: resp, Cancel: cancel}
	s.mu.Unlock()
	return resp
}

func (s *JobStore) Get(id string) (JobResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.jobs[id]
	if !ok {
		return JobResponse{}, false
	}
	return rec.Response, true
}

// Result returns the stored iteration results and grid, valid only
// once the job has completed.
func (s *JobStore) Result(id string) ([]*inversion.Result, grid.Grid, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.jobs[id]
	if !ok || rec.Response.Status != StatusCompleted {
		return nil, grid.Grid{}, false
	}
	return rec.Results, rec.Grid, true
}

func (s *JobStore) List() []JobResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobResponse, 0, len(s.jobs))
	for _, rec := range s.jobs {
		out = append(out, rec.Response)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *JobStore) SetRunning(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.jobs[id]; ok && rec.Response.Status == StatusQueued {
		rec.Response.Status = StatusRunning
	}
}

func (s *JobStore) Complete(id string, g grid.Grid, results []*inversion.Result, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.jobs[id]
	if !ok || rec.Response.Status == StatusCancelled {
		return
	}
	done := now.Unix()
	rec.Response.Status = StatusCompleted
	rec.Response.CompletedAt = &done
	rec.Response.Objective = make([]float64, len(results))
	for i, res := range results {
		rec.Response.Objective[i] = res.Objective
	}
	rec.Results = results
	rec.Grid = g
}

func (s *JobStore) Fail(id string, errMsg string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.jobs[id]
	if !ok || rec.Response.Status == StatusCancelled {
		return
	}
	done := now.Unix()
	rec.Response.Status = StatusFailed
	rec.Response.CompletedAt = &done
	rec.Response.Error = errMsg
}

// CancelJob marks the job cancelled and fires its context cancel. It
// reports whether the id was known and still cancellable.
func (s *JobStore) CancelJob(id string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.jobs[id]
	if !ok {
		return false
	}
	switch rec.Response.Status {
	case StatusQueued, StatusRunning:
		done := now.Unix()
		rec.Response.Status = StatusCancelled
		rec.Response.CompletedAt = &done
		rec.Cancel()
		return true
	default:
		return false
	}
}

func newJobID() string {
	return "job_" + uuid.NewString()
}
