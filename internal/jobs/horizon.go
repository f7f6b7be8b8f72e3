package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"communityhub/internal/domain"
)

// HorizonExtender periodically re-materializes every live series template up
// to the rolling horizon, so calendars never run out of future instances.
type HorizonExtender struct {
	events  domain.EventService
	logger  *slog.Logger
	cron    *cron.Cron
	timeout time.Duration
}

func NewHorizonExtender(events domain.EventService, logger *slog.Logger, timeout time.Duration) *HorizonExtender {
	return &HorizonExtender{
		events:  events,
		logger:  logger,
		cron:    cron.New(),
		timeout: timeout,
	}
}

// Start schedules the extension job on the given cron spec and starts the
// scheduler in its own goroutine.
func (h *HorizonExtender) Start(spec string) error {
	if _, err := h.cron.AddFunc(spec, h.Run); err != nil {
		return err
	}
	h.cron.Start()
	h.logger.Info("horizon extension job scheduled", "spec", spec)
	return nil
}

// Run executes one extension pass. It is also safe to call directly, e.g. at
// startup to catch up after downtime.
func (h *HorizonExtender) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	started := time.Now()
	created, err := h.events.ExtendHorizon(ctx, started)
	if err != nil {
		h.logger.Error("horizon extension failed", "err", err)
		return
	}
	h.logger.Info("horizon extension completed",
		"instances_created", created,
		"duration_ms", time.Since(started).Milliseconds(),
	)
}

// Stop stops the scheduler and waits for a running pass to finish.
func (h *HorizonExtender) Stop() {
	<-h.cron.Stop().Done()
}
