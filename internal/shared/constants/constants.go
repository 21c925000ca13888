// Package constants defines shared constant values used across the application.
package constants

// Database table names
const (
	TableSubscribers      = "subscribers"
	TablePlans            = "plans"
	TableSweepCheckpoints = "sweep_checkpoints"
	TableCycleAuditLogs   = "cycle_audit_logs"
)

// Runtime environments
const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)
