package jobs

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"AcenteCorpSaas/internal/config"
	"AcenteCorpSaas/internal/logger"
	"AcenteCorpSaas/internal/session"
)

type SweepConfig struct {
	Schedule string
	TimeZone string
}

func NewDefaultSweepConfig() *SweepConfig {
	return &SweepConfig{
		Schedule: config.DefaultSessionSweepSchedule,
		TimeZone: config.DefaultTimeZone,
	}
}

// RunSessionSweeper expires abandoned import sessions on a schedule. The
// sweep is what releases scratch storage for sessions whose owner never
// confirmed; live sessions are untouched because Touch keeps pushing their
// expiry forward.
func RunSessionSweeper(cfg *SweepConfig, sessions *session.Manager) error {
	if cfg.Schedule == "" {
		cfg.Schedule = config.DefaultSessionSweepSchedule
	}
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		loc = time.UTC
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(cfg.Schedule, func() {
		if n := sessions.Sweep(); n > 0 {
			logger.GlobalLogger.LogAudit(fmt.Sprintf("Session sweeper expired %d import session(s), %d remain", n, sessions.Count()))
		}
	})
	if err != nil {
		return fmt.Errorf("unable to schedule session sweeper: %v", err)
	}

	c.Start()
	return nil
}
