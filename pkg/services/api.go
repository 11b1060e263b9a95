package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"github.com/weirlabs/weir/internal/logger"
	"github.com/weirlabs/weir/internal/telemetry"
	"github.com/weirlabs/weir/pkg/config"
)

// APIServer serves the public REST surface: cluster identity, pipeline
// definitions and their jobs.
type APIServer struct {
	pool      *pgxpool.Pool
	clusterID uuid.UUID
	port      int
}

// NewAPIServer creates the API unit backed by the shared connection pool.
func NewAPIServer(pool *pgxpool.Pool, clusterID uuid.UUID) *APIServer {
	return &APIServer{pool: pool, clusterID: clusterID, port: config.PortAPI}
}

// Run binds the API listener and serves until ctx is cancelled.
func (s *APIServer) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("api failed to listen on port %d: %w", s.port, err)
	}

	srv := &http.Server{
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(lis)
	}()

	logger.Info("api server listening", logger.KeyPort, s.port)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)

	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *APIServer) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/cluster", s.handleCluster)
		r.Get("/pipelines", s.handleListPipelines)
		r.Post("/pipelines", s.handleCreatePipeline)
		r.Get("/pipelines/{id}/jobs", s.handleListJobs)
	})

	return r
}

type pipelineResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Definition string    `json:"definition"`
	CreatedAt  time.Time `json:"created_at"`
}

type jobResponse struct {
	ID         string    `json:"id"`
	PipelineID string    `json:"pipeline_id"`
	State      string    `json:"state"`
	UpdatedAt  time.Time `json:"updated_at"`
	CreatedAt  time.Time `json:"created_at"`
}

func (s *APIServer) handleCluster(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"cluster_id": s.clusterID.String(),
	})
}

func (s *APIServer) handleListPipelines(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.StartSpan(r.Context(), "api.list_pipelines")
	defer span.End()

	rows, err := s.pool.Query(ctx,
		"select id::text, name, definition, created_at from pipelines order by created_at")
	if err != nil {
		telemetry.RecordError(ctx, err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer rows.Close()

	pipelines := []pipelineResponse{}
	for rows.Next() {
		var p pipelineResponse
		if err := rows.Scan(&p.ID, &p.Name, &p.Definition, &p.CreatedAt); err != nil {
			telemetry.RecordError(ctx, err)
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		pipelines = append(pipelines, p)
	}
	if err := rows.Err(); err != nil {
		telemetry.RecordError(ctx, err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, pipelines)
}

func (s *APIServer) handleCreatePipeline(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string `json:"name"`
		Definition string `json:"definition"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Name == "" || req.Definition == "" {
		writeError(w, http.StatusBadRequest, errors.New("name and definition are required"))
		return
	}

	ctx, span := telemetry.StartSpan(r.Context(), "api.create_pipeline",
		trace.WithAttributes(telemetry.PipelineName(req.Name)))
	defer span.End()

	p := pipelineResponse{Name: req.Name, Definition: req.Definition}
	err := s.pool.QueryRow(ctx,
		"insert into pipelines (name, definition) values ($1, $2) returning id::text, created_at",
		req.Name, req.Definition).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		telemetry.RecordError(ctx, err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	logger.Info("pipeline created", logger.KeyName, p.Name, "pipeline_id", p.ID)
	writeJSON(w, http.StatusCreated, p)
}

func (s *APIServer) handleListJobs(w http.ResponseWriter, r *http.Request) {
	pipelineID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid pipeline id: %w", err))
		return
	}

	ctx, span := telemetry.StartSpan(r.Context(), "api.list_jobs",
		trace.WithAttributes(telemetry.PipelineID(pipelineID.String())))
	defer span.End()

	rows, err := s.pool.Query(ctx,
		"select id::text, pipeline_id::text, state, updated_at, created_at from jobs where pipeline_id = $1 order by created_at",
		pipelineID)
	if err != nil {
		telemetry.RecordError(ctx, err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer rows.Close()

	jobs := []jobResponse{}
	for rows.Next() {
		var j jobResponse
		if err := rows.Scan(&j.ID, &j.PipelineID, &j.State, &j.UpdatedAt, &j.CreatedAt); err != nil {
			telemetry.RecordError(ctx, err)
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		telemetry.RecordError(ctx, err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, jobs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Postgres reports duplicate keys with SQLSTATE 23505 (unique_violation).
const sqlstateUniqueViolation = "23505"

func writeError(w http.ResponseWriter, status int, err error) {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		status = http.StatusNotFound
	case errors.As(err, &pgErr) && pgErr.Code == sqlstateUniqueViolation:
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
