package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/weirlabs/weir/pkg/admin"
	"github.com/weirlabs/weir/pkg/config"
	"github.com/weirlabs/weir/pkg/shutdown"
)

// Deps carries the shared resources units receive at startup. Pool and
// ClusterID are set only for control-plane kinds; worker and node derive
// their identity from the environment.
type Deps struct {
	Config    *config.Config
	Pool      *pgxpool.Pool
	ClusterID uuid.UUID
}

// startFunc builds a unit's task from the shared dependencies.
type startFunc func(deps Deps) func(ctx context.Context) error

// unitStarts maps spawnable units to their constructors. The node unit is
// absent; it self-manages through a guard in Dispatch.
var unitStarts = map[unitID]startFunc{
	unitAPI: func(d Deps) func(context.Context) error {
		return NewAPIServer(d.Pool, d.ClusterID).Run
	},
	unitCompiler: func(d Deps) func(context.Context) error {
		return NewCompilerServer().Run
	},
	unitController: func(d Deps) func(context.Context) error {
		return NewControllerServer(d.Pool, d.ClusterID).Run
	},
	unitWorker: func(d Deps) func(context.Context) error {
		return NewWorkerServerFromEnv().Run
	},
}

// Dispatch starts every unit the kind calls for under the coordinator. The
// admin endpoint is started for every kind; running api, compiler and
// controller together shares the one pool in deps.
func Dispatch(co *shutdown.Coordinator, kind Kind, deps Deps) {
	role := capabilities[kind]

	co.SpawnTask("admin", admin.New(role.name, role.adminPort).Run)

	for _, id := range role.units {
		if id == unitNode {
			NewNodeServerFromEnv().Start(co.Guard(unitNames[id]))
			continue
		}
		co.SpawnTask(unitNames[id], unitStarts[id](deps))
	}
}
