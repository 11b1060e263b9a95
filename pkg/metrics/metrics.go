// Package metrics registers weir's Prometheus collectors. They are exposed
// on the admin endpoint of every service role.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ServiceStartups counts service startup events, labeled with the
	// service role and the scheduler surfaced from the environment.
	ServiceStartups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weir",
		Name:      "service_startups_total",
		Help:      "Service startup events by role and scheduler.",
	}, []string{"service", "scheduler"})

	// ConnectRetries counts retried database connection attempts while
	// waiting for the database to become ready.
	ConnectRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "weir",
		Name:      "db_connect_retries_total",
		Help:      "Database connection attempts retried after a transient failure.",
	})

	// MigrationsApplied counts schema migrations applied by this process.
	MigrationsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "weir",
		Name:      "migrations_applied_total",
		Help:      "Schema migrations applied.",
	})

	// TasksRunning tracks tasks currently supervised by the shutdown
	// coordinator.
	TasksRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "weir",
		Name:      "tasks_running",
		Help:      "Tasks currently registered and running under the shutdown coordinator.",
	})

	// TaskFailures counts supervised task failures by task name.
	TaskFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weir",
		Name:      "task_failures_total",
		Help:      "Supervised task failures.",
	}, []string{"task"})
)
