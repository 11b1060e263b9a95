package services

import (
	"context"
	"os"

	"github.com/google/uuid"

	"github.com/weirlabs/weir/internal/logger"
	"github.com/weirlabs/weir/pkg/config"
	"github.com/weirlabs/weir/pkg/shutdown"
)

// NodeServer hosts worker processes on a machine. Unlike the other units it
// manages its own goroutine and registers with the coordinator through a
// guard, so a crash during its self-managed startup still brings the
// process down.
type NodeServer struct {
	id string
}

// NewNodeServerFromEnv builds a node from NODE_ID, generating an identity
// when the environment does not provide one.
func NewNodeServerFromEnv() *NodeServer {
	id := os.Getenv("NODE_ID")
	if id == "" {
		id = uuid.NewString()
	}
	return &NodeServer{id: id}
}

// Start launches the node under the given guard. The guard is released when
// the node stops, and any failure cancels the shared token.
func (s *NodeServer) Start(g *shutdown.Guard) {
	go func() {
		defer g.Done()
		if err := s.run(g.Token()); err != nil {
			g.Fail(err)
		}
	}()
}

func (s *NodeServer) run(ctx context.Context) error {
	logger.Info("node starting", logger.KeyNodeID, s.id)
	return serveGRPC(ctx, "node", config.PortEphemeral, nil)
}
