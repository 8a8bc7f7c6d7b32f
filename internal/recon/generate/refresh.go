package generate

import (
	"context"
	"time"

	"github.com/teampulse/calsync/internal/core/domain"
	"github.com/teampulse/calsync/internal/recon/metrics"
	"github.com/teampulse/calsync/internal/recon/retry"
)

// refreshDerived brings an existing derived event back in line with its
// source record. A matching event is returned untouched; a stale one is
// updated in place, keeping its id and any links to it. The created flag is
// always false on this path.
func (g *Generator) refreshDerived(ctx context.Context, op string, event *domain.CalendarEvent, title string, start, end time.Time) (*domain.CalendarEvent, bool, error) {
	if event.Title == title && event.StartDate.Equal(start) && event.EndDate.Equal(end) {
		return event, false, nil
	}

	refreshed := *event
	refreshed.Title = title
	refreshed.StartDate = start
	refreshed.EndDate = end
	updated, err := retry.Do(ctx, g.rcfg(op), func(ctx context.Context) (*domain.CalendarEvent, error) {
		return g.store.Events.Update(ctx, &refreshed)
	})
	if err != nil {
		return nil, false, err
	}
	g.log.Info("refreshed stale derived event",
		"event_id", event.ID,
		"event_type", event.EventType,
	)
	metrics.EventsRefreshed.WithLabelValues(string(event.EventType)).Inc()
	return updated, false, nil
}
