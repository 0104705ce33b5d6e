package store

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"

	"tourismhub/api/models"
	"tourismhub/api/tracking"
)

// BreakerWriter stops calling the event store after repeated failures and
// rejects writes until the breaker's timeout allows a probe.
type BreakerWriter struct {
	next tracking.EventWriter
	cb   *gobreaker.CircuitBreaker[struct{}]
}

func NewBreakerWriter(next tracking.EventWriter, failures uint32, timeout time.Duration) *BreakerWriter {
	settings := gobreaker.Settings{
		Name:        "analytics-events",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Event store breaker changed state")
		},
	}
	return &BreakerWriter{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

func (b *BreakerWriter) InsertAnalyticsEvent(ctx context.Context, event *models.AnalyticsEvent) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.InsertAnalyticsEvent(ctx, event)
	})
	return err
}

func (b *BreakerWriter) State() gobreaker.State {
	return b.cb.State()
}

var _ tracking.EventWriter = (*BreakerWriter)(nil)
