package services

import (
	"context"

	"github.com/weirlabs/weir/pkg/config"
)

// CompilerServer is the pipeline compilation unit. It exposes a gRPC
// endpoint on a fixed control-plane port; readiness is reported through the
// standard health service.
type CompilerServer struct {
	port int
}

// NewCompilerServer creates the compiler unit on its fixed port.
func NewCompilerServer() *CompilerServer {
	return &CompilerServer{port: config.PortCompiler}
}

// Run serves the compiler endpoint until ctx is cancelled.
func (s *CompilerServer) Run(ctx context.Context) error {
	return serveGRPC(ctx, "compiler", s.port, nil)
}
