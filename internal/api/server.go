// Package api exposes gradient computations as asynchronous jobs over
// HTTP: submit a SEIS input file, poll the job, fetch the gradient.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/seisgo/fwigrad/internal/logger"
)

// Server routes job requests to a runner factory. The factory builds
// one Runner per job; tests swap it for a fake.
type Server struct {
	store   *JobStore
	log     logger.Logger
	factory RunnerFactory
}

func NewServer(store *JobStore, log logger.Logger, factory RunnerFactory) *Server {
	if factory == nil {
		factory = NewEngineRunner
	}
	return &Server{store: store, log: log, factory: factory}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/jobs", s.handleCreateJob)
	e.GET("/v1/jobs", s.handleListJobs)
	e.GET("/v1/jobs/:id", s.handleGetJob)
	e.POST("/v1/jobs/:id/cancel", s.handleCancelJob)
	e.GET("/v1/jobs/:id/result", s.handleJobResult)
}

func (s *Server) handleCreateJob(c *echo.Context) error {
	var req JobRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return writeBadRequest(c, "invalid JSON body: "+err.Error())
	}
	if req.DataFile == "" {
		return writeBadRequest(c, "data_file is required")
	}

	runner, err := s.factory(&req)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	resp := s.store.Create(&req, cancel, time.Now())
	s.log.Info("job accepted", "job", resp.ID, "data_file", req.DataFile)

	go s.runJob(ctx, resp.ID, runner)

	return c.JSON(http.StatusAccepted, resp)
}

func (s *Server) runJob(ctx context.Context, id string, runner Runner) {
	defer runner.Close()
	s.store.SetRunning(id)
	results, err := runner.Run(ctx)
	if err != nil {
		s.log.Error("job failed", "job", id, "error", err)
		s.store.Fail(id, err.Error(), time.Now())
		return
	}
	s.store.Complete(id, runner.Grid(), results, time.Now())
	s.log.Info("job completed", "job", id, "iterations", len(results))
}

func (s *Server) handleListJobs(c *echo.Context) error {
	return c.JSON(http.StatusOK, JobListResponse{Object: "list", Data: s.store.List()})
}

func (s *Server) handleGetJob(c *echo.Context) error {
	resp, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "no such job")
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCancelJob(c *echo.Context) error {
	id := c.Param("id")
	if !s.store.CancelJob(id, time.Now()) {
		if _, ok := s.store.Get(id); !ok {
			return writeNotFound(c, "no such job")
		}
		return writeBadRequest(c, "job is no longer cancellable")
	}
	resp, _ := s.store.Get(id)
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleJobResult(c *echo.Context) error {
	id := c.Param("id")
	results, g, ok := s.store.Result(id)
	if !ok {
		resp, found := s.store.Get(id)
		if !found {
			return writeNotFound(c, "no such job")
		}
		return writeError(c, http.StatusConflict, "job_not_ready", "job status is "+resp.Status)
	}

	last := results[len(results)-1]
	out := JobResultResponse{
		ID:        id,
		Object:    "job.result",
		Nz:        g.Nz,
		Nx:        g.Nx,
		Dz:        g.Dz,
		Dx:        g.Dx,
		Objective: make([]float64, len(results)),
		Gradient:  last.Gradient,
		Illum:     last.Illum,
	}
	for i, res := range results {
		out.Objective[i] = res.Objective
	}
	return c.JSON(http.StatusOK, out)
}
