package session

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically discards idle conversations from a Registry.
type Sweeper struct {
	registry *Registry
	idle     time.Duration
	logger   *slog.Logger
	cron     *cron.Cron

	// OnEvict, when set, is called with every discarded state.
	OnEvict func(*State)
}

func NewSweeper(r *Registry, idle time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{registry: r, idle: idle, logger: logger}
}

// Start schedules the sweep, e.g. "@every 1m".
func (s *Sweeper) Start(schedule string) error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(schedule, s.Run); err != nil {
		return fmt.Errorf("schedule sweep %q: %w", schedule, err)
	}
	s.cron.Start()
	s.logger.Info("session sweeper started", "schedule", schedule, "idle_timeout", s.idle.String())
	return nil
}

// Run performs one sweep.
func (s *Sweeper) Run() {
	evicted := s.registry.Sweep(s.idle)
	for _, st := range evicted {
		s.logger.Info("idle conversation discarded",
			"conversation_id", st.ConversationID,
			"user_id", st.UserID,
		)
		if s.OnEvict != nil {
			s.OnEvict(st)
		}
	}
}

// Stop halts the schedule and waits for a running sweep.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}
