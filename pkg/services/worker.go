package services

import (
	"context"
	"os"

	"github.com/google/uuid"

	"github.com/weirlabs/weir/internal/logger"
	"github.com/weirlabs/weir/pkg/config"
)

// WorkerServer is a pipeline execution unit. Workers are addressed by the
// scheduler through their environment-assigned identity and register on an
// OS-assigned port.
type WorkerServer struct {
	id    string
	jobID string
}

// NewWorkerServerFromEnv builds a worker from WORKER_ID and JOB_ID. A
// missing WORKER_ID gets a fresh random identity; JOB_ID stays empty until
// the scheduler assigns one.
func NewWorkerServerFromEnv() *WorkerServer {
	id := os.Getenv("WORKER_ID")
	if id == "" {
		id = uuid.NewString()
	}
	return &WorkerServer{id: id, jobID: os.Getenv("JOB_ID")}
}

// Run serves the worker endpoint until ctx is cancelled.
func (s *WorkerServer) Run(ctx context.Context) error {
	logger.Info("worker starting",
		logger.KeyWorkerID, s.id, logger.KeyJobID, s.jobID)
	return serveGRPC(ctx, "worker", config.PortEphemeral, nil)
}
