package jobs

import (
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"AcenteCorpSaas/internal/logger"
	"AcenteCorpSaas/internal/serviceiface"
	"AcenteCorpSaas/internal/session"
)

type CronService struct {
	config   map[string]interface{}
	db       *pgxpool.Pool
	sessions *session.Manager
}

func NewCronService(cfg map[string]interface{}, db *pgxpool.Pool, sessions *session.Manager) serviceiface.Service {
	return &CronService{
		config:   cfg,
		db:       db,
		sessions: sessions,
	}
}

func (s *CronService) Name() string {
	return "cron"
}

func (s *CronService) Start() error {
	log.Println("Starting cron service...")

	sweepCfg := NewDefaultSweepConfig()
	if s.config != nil {
		if schedule, ok := s.config["session_sweep_schedule"].(string); ok && schedule != "" {
			sweepCfg.Schedule = schedule
		}
		if tz, ok := s.config["timezone"].(string); ok && tz != "" {
			sweepCfg.TimeZone = tz
		}
	}
	if err := RunSessionSweeper(sweepCfg, s.sessions); err != nil {
		return fmt.Errorf("failed to start session sweeper: %v", err)
	}
	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit("Session sweeper started")
	}

	auditCfg := NewDefaultPoolAuditConfig()
	if s.config != nil {
		if schedule, ok := s.config["pool_audit_schedule"].(string); ok && schedule != "" {
			auditCfg.Schedule = schedule
		}
		if tz, ok := s.config["timezone"].(string); ok && tz != "" {
			auditCfg.TimeZone = tz
		}
	}
	if err := RunPoolAudit(auditCfg, s.db); err != nil {
		return fmt.Errorf("failed to start pool audit: %v", err)
	}
	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit("Pool audit scheduled")
	}

	return nil
}

func (s *CronService) Stop() error {
	return nil
}
