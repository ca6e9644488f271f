package report

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron"
	"github.com/rs/zerolog"

	"github.com/mukisa/dukabook/internal/store"
)

// Scheduler logs a periodic business summary on a cron schedule, so an owner
// running the server on a shop machine gets an end-of-day readout without
// asking for it.
type Scheduler struct {
	cron   *cron.Cron
	store  store.Store
	userID string
	log    zerolog.Logger
}

func NewScheduler(st store.Store, userID string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		store:  st,
		userID: userID,
		log:    log,
	}
}

// Start registers the summary job on the given cron spec and starts the
// scheduler.
func (s *Scheduler) Start(spec string) error {
	if err := s.cron.AddFunc(spec, s.logSummary); err != nil {
		return fmt.Errorf("registering summary schedule %q: %w", spec, err)
	}
	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) logSummary() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	from, to := RangeWindow(time.Now(), "")
	txs, err := s.store.ListByUserAndRange(ctx, s.userID, from, to)
	if err != nil {
		s.log.Error().Err(err).Msg("scheduled summary failed")
		return
	}

	sum := Summarize(txs, from, to)
	s.log.Info().
		Str("from", from.Format(dateFormat)).
		Str("to", to.Format(dateFormat)).
		Float64("inflow", sum.Inflow).
		Float64("outflow", sum.Outflow).
		Float64("net", sum.Net).
		Int("transactions", sum.Count).
		Msg("scheduled business summary")
}
