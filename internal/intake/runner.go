package intake

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pleadbot/mail-intake/internal/logger"
	"github.com/pleadbot/mail-intake/internal/mailbox"
	"github.com/pleadbot/mail-intake/internal/message"
	"github.com/pleadbot/mail-intake/internal/metrics"
)

// Runner drives the poll loop: open a mailbox session, drain unseen
// messages through the processor, and flag each one by its verdict.
type Runner struct {
	mailbox   mailbox.Mailbox
	processor *Processor
	interval  time.Duration
	log       zerolog.Logger
}

// NewRunner creates a Runner polling at the given interval. A
// non-positive interval defaults to one minute.
func NewRunner(mb mailbox.Mailbox, proc *Processor, interval time.Duration, log zerolog.Logger) *Runner {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Runner{
		mailbox:   mb,
		processor: proc,
		interval:  interval,
		log:       log.With().Str("component", "runner").Logger(),
	}
}

// Run polls once immediately, then on every tick until ctx is done.
// Cycle errors are logged and the loop keeps going.
func (r *Runner) Run(ctx context.Context) error {
	r.log.Info().Dur("interval", r.interval).Msg("poll loop started")

	if err := r.RunOnce(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.log.Error().Err(err).Msg("poll cycle failed")
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("poll loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := r.RunOnce(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.log.Error().Err(err).Msg("poll cycle failed")
			}
		}
	}
}

// RunOnce performs a single poll cycle over one mailbox session.
func (r *Runner) RunOnce(ctx context.Context) error {
	session, err := r.mailbox.Open(ctx)
	if err != nil {
		metrics.PollCyclesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("open mailbox: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			r.log.Warn().Err(err).Msg("mailbox session close failed")
		}
	}()

	incoming, err := session.Unseen(ctx)
	if err != nil {
		metrics.PollCyclesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("fetch unseen messages: %w", err)
	}
	metrics.UnseenMessagesFetched.Add(float64(len(incoming)))
	if len(incoming) > 0 {
		r.log.Info().Int("count", len(incoming)).Msg("unseen messages fetched")
	}

	for _, in := range incoming {
		if ctx.Err() != nil {
			metrics.PollCyclesTotal.WithLabelValues("error").Inc()
			return ctx.Err()
		}
		r.handle(ctx, session, in)
	}

	metrics.PollCyclesTotal.WithLabelValues("ok").Inc()
	return nil
}

// handle processes one message end to end: parse, process, flag. Every
// outcome path mutates the message's flags so it is never seen again.
func (r *Runner) handle(ctx context.Context, session mailbox.Session, in mailbox.Incoming) {
	correlationID := logger.NewCorrelationID()
	ctx = logger.WithCorrelationID(ctx, correlationID)
	log := r.log.With().
		Str("correlation_id", correlationID).
		Str("msgid", in.ID).
		Logger()
	ctx = logger.WithLogger(ctx, log)

	msg, err := message.Parse(in.ID, in.Raw)
	if err != nil {
		log.Error().Err(err).Msg("message parse failed")
		metrics.MessagesProcessedTotal.WithLabelValues("failed").Inc()
		r.flagFollowup(ctx, session, in.ID, log)
		return
	}

	start := time.Now()
	verdict := r.processor.ProcessMessage(ctx, msg)
	metrics.MessageProcessingDuration.Observe(time.Since(start).Seconds())

	if verdict.Succeeded {
		metrics.MessagesProcessedTotal.WithLabelValues("succeeded").Inc()
		if err := session.MarkProcessed(ctx, in.ID); err != nil {
			log.Error().Err(err).Msg("mark processed failed")
		} else {
			metrics.FlagMutationsTotal.WithLabelValues("processed").Inc()
		}
	} else {
		metrics.MessagesProcessedTotal.WithLabelValues("failed").Inc()
		r.flagFollowup(ctx, session, in.ID, log)
	}

	log.Info().
		Bool("succeeded", verdict.Succeeded).
		Int("parts", len(verdict.Parts)).
		Int("saved", verdict.SavedCount).
		Msg("message processed")
}

// flagFollowup marks a message for operator attention while still
// suppressing it from future unseen searches.
func (r *Runner) flagFollowup(ctx context.Context, session mailbox.Session, id string, log zerolog.Logger) {
	if err := session.MarkFollowup(ctx, id); err != nil {
		log.Error().Err(err).Msg("mark followup failed")
		return
	}
	metrics.FlagMutationsTotal.WithLabelValues("followup").Inc()
}
