package postgres

import (
	"context"
	"errors"
)

var errSchemaMissing = errors.New("ledger schema not applied")

// HealthCheck implements ports.HealthChecker for PostgreSQL. It also fails
// when the journal table is missing, which means migrations never ran.
type HealthCheck struct {
	pool Pool
}

// NewHealthCheck creates a PostgreSQL health checker.
func NewHealthCheck(pool Pool) *HealthCheck {
	return &HealthCheck{pool: pool}
}

// Ping checks connectivity and that the schema is in place.
func (h *HealthCheck) Ping(ctx context.Context) error {
	var present bool
	if err := h.pool.QueryRow(ctx, `SELECT to_regclass('ledger_entries') IS NOT NULL`).Scan(&present); err != nil {
		return err
	}
	if !present {
		return errSchemaMissing
	}
	return nil
}

func (h *HealthCheck) Name() string {
	return "postgres"
}
