// Package common holds names shared by the widgetsched CLI, the daemon
// and its JSON-RPC clients.
package common

// Environment variable names for configuration.
const (
	// ConfigEnv points at an alternative config file.
	ConfigEnv = "WIDGETSCHED_CONFIG"

	// DocumentsEnv overrides the directory holding widget sources.
	DocumentsEnv = "WIDGETSCHED_DOCUMENTS"

	// ScheduleEnv selects the schedule to operate on.
	ScheduleEnv = "WIDGETSCHED_SCHEDULE"

	// RPCSecretEnv is the bearer token required by the daemon.
	RPCSecretEnv = "WIDGETSCHED_RPC_SECRET"

	// RPCPortEnv overrides the daemon's listen port.
	RPCPortEnv = "WIDGETSCHED_RPC_PORT"

	// DebugEnv enables debug logging.
	DebugEnv = "WIDGETSCHED_DEBUG"
)
