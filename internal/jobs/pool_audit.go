package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"

	"AcenteCorpSaas/internal/config"
	"AcenteCorpSaas/internal/logger"
)

type PoolAuditConfig struct {
	Schedule string
	TimeZone string
}

func NewDefaultPoolAuditConfig() *PoolAuditConfig {
	return &PoolAuditConfig{
		Schedule: config.DefaultPoolRetentionSchedule,
		TimeZone: config.DefaultTimeZone,
	}
}

// RunPoolAudit logs a nightly snapshot of the policy pool per carrier:
// row counts and the share of rows still lacking a resolved customer, which
// is the figure the agency has to work down manually.
func RunPoolAudit(cfg *PoolAuditConfig, db *pgxpool.Pool) error {
	if cfg.Schedule == "" {
		cfg.Schedule = config.DefaultPoolRetentionSchedule
	}
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		loc = time.UTC
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(cfg.Schedule, func() {
		if err := auditPool(db); err != nil {
			logger.GlobalLogger.LogAudit(fmt.Sprintf("Pool audit failed: %v", err))
		}
	})
	if err != nil {
		return fmt.Errorf("unable to schedule pool audit: %v", err)
	}

	c.Start()
	return nil
}

func auditPool(db *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	rows, err := db.Query(ctx, `
		SELECT carrier_id,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE customer_id IS NULL)
		  FROM acentecorpsaas.policy_pool
		 GROUP BY carrier_id
		 ORDER BY carrier_id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var carrierID string
		var total, unresolved int64
		if err := rows.Scan(&carrierID, &total, &unresolved); err != nil {
			return err
		}
		logger.GlobalLogger.LogAudit(fmt.Sprintf("Pool audit: carrier=%s rows=%d unresolved_customers=%d", carrierID, total, unresolved))
	}
	return rows.Err()
}
