// Package services maps a selected service kind to the units a weir
// process runs and starts them under the shutdown coordinator.
package services

import "github.com/weirlabs/weir/pkg/config"

// Kind identifies which service role(s) a weir process runs. It is a
// closed set; dispatch behavior lives in the capability table, not in
// scattered conditionals.
type Kind int

const (
	KindAPI Kind = iota
	KindCompiler
	KindController
	KindWorker
	KindNode

	// KindAll runs api, compiler and controller in one process, sharing a
	// single connection pool.
	KindAll
)

// unitID names a startable service unit.
type unitID int

const (
	unitAPI unitID = iota
	unitCompiler
	unitController
	unitWorker
	unitNode
)

var unitNames = map[unitID]string{
	unitAPI:        "api",
	unitCompiler:   "compiler",
	unitController: "controller",
	unitWorker:     "worker",
	unitNode:       "node",
}

// capability describes what a kind runs: its name as used on the CLI and
// in logs, the admin port it binds, whether it needs the shared pool, and
// the units the dispatcher starts.
type capability struct {
	name      string
	adminPort int
	pool      bool
	units     []unitID
}

var capabilities = map[Kind]capability{
	KindAPI:        {name: "api", adminPort: config.PortAdmin, pool: true, units: []unitID{unitAPI}},
	KindCompiler:   {name: "compiler", adminPort: config.PortAdmin, pool: true, units: []unitID{unitCompiler}},
	KindController: {name: "controller", adminPort: config.PortAdmin, pool: true, units: []unitID{unitController}},
	KindAll:        {name: "cluster", adminPort: config.PortAdmin, pool: true, units: []unitID{unitAPI, unitCompiler, unitController}},
	KindWorker:     {name: "worker", adminPort: config.PortEphemeral, pool: false, units: []unitID{unitWorker}},
	KindNode:       {name: "node", adminPort: config.PortEphemeral, pool: false, units: []unitID{unitNode}},
}

// Name returns the kind's CLI and logging name.
func (k Kind) Name() string {
	return capabilities[k].name
}

// AdminPort returns the admin endpoint port for the kind: fixed for
// control-plane roles, ephemeral for worker and node.
func (k Kind) AdminPort() int {
	return capabilities[k].adminPort
}

// NeedsPool reports whether the kind requires the shared connection pool.
// Worker and node derive their identity from the environment instead.
func (k Kind) NeedsPool() bool {
	return capabilities[k].pool
}
