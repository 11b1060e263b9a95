package logger

import "log/slog"

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so startup and
// shutdown events from different services aggregate cleanly.
const (
	KeyService   = "service"    // Service role: api, compiler, controller, worker, node, cluster
	KeyTask      = "task"       // Supervised task name within a service process
	KeyClusterID = "cluster_id" // Cluster identity UUID fetched at bootstrap
	KeyScheduler = "scheduler"  // Scheduler backend surfaced in startup telemetry
	KeyDatabase  = "database"   // Password-free database target description
	KeyAttempt   = "attempt"    // Connection attempt number
	KeyVersion   = "version"    // Migration version
	KeyName      = "name"       // Migration name
	KeyPort      = "port"       // Listening port
	KeyError     = "error"      // Error message
	KeyState     = "state"      // Shutdown coordinator state
	KeyWorkerID  = "worker_id"  // Worker identity
	KeyJobID     = "job_id"     // Job assigned to a worker
	KeyNodeID    = "node_id"    // Node identity
)

// Service returns a slog.Attr for the service role
func Service(name string) slog.Attr {
	return slog.String(KeyService, name)
}

// Task returns a slog.Attr for a supervised task name
func Task(name string) slog.Attr {
	return slog.String(KeyTask, name)
}

// ClusterID returns a slog.Attr for the cluster identity
func ClusterID(id string) slog.Attr {
	return slog.String(KeyClusterID, id)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Port returns a slog.Attr for a listening port
func Port(port int) slog.Attr {
	return slog.Int(KeyPort, port)
}
