package scheduler

import (
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

const SessionSweepJobName = "session-idle-sweep"

// IdleEvicter is the part of the session registry the sweep needs.
type IdleEvicter interface {
	EvictIdle(maxIdle time.Duration) int
	Len() int
}

// SessionSweepTask evicts sessions idle longer than maxIdle.
func SessionSweepTask(sessions IdleEvicter, maxIdle time.Duration) func() {
	return func() {
		evicted := sessions.EvictIdle(maxIdle)
		if evicted == 0 {
			return
		}
		log.Info().
			Int("evicted", evicted).
			Int("remaining", sessions.Len()).
			Dur("max_idle", maxIdle).
			Msg("Evicted idle theme sessions")
	}
}

// RegisterSessionSweep schedules SessionSweepTask on cronExpr.
func (s *Service) RegisterSessionSweep(cronExpr string, sessions IdleEvicter, maxIdle time.Duration) (gocron.Job, error) {
	return s.AddJob(SessionSweepJobName, cronExpr, SessionSweepTask(sessions, maxIdle))
}
