// Package generate computes and idempotently creates the derived calendar
// events: 1:1 meetings, duty rotations, out-of-office periods, and yearly
// birthdays. An existing derived event that no longer matches its source is
// refreshed in place. Generators never delete; repair owns deletion.
package generate

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/teampulse/calsync/internal/infra/storage"
	"github.com/teampulse/calsync/internal/notify"
	"github.com/teampulse/calsync/internal/recon/retry"
)

// Generator creates derived events through the repository interfaces.
type Generator struct {
	store *storage.Store
	sink  notify.Sink
	log   *slog.Logger
	retry retry.Config
}

// NewGenerator creates a Generator. The retry template's Name is replaced
// per operation.
func NewGenerator(store *storage.Store, sink notify.Sink, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{
		store: store,
		sink:  sink,
		log:   log,
		retry: retry.DefaultConfig(""),
	}
}

// WithRetryConfig overrides the retry template (tests shorten delays).
func (g *Generator) WithRetryConfig(cfg retry.Config) *Generator {
	g.retry = cfg
	return g
}

func (g *Generator) rcfg(name string) retry.Config {
	cfg := g.retry
	cfg.Name = name
	cfg.Sink = g.sink
	cfg.Log = g.log
	return cfg
}

// OneOnOneTitle is the canonical title of a derived 1:1 event.
func OneOnOneTitle(memberName string) string {
	return fmt.Sprintf("1:1 with %s", memberName)
}

// DutyTitle is the canonical title of a derived duty event.
func DutyTitle(memberName, dutyType string) string {
	if dutyType == "" {
		return fmt.Sprintf("Duty: %s", memberName)
	}
	return fmt.Sprintf("Duty (%s): %s", dutyType, memberName)
}

// OutOfOfficeTitle is the canonical title of a derived out-of-office event.
func OutOfOfficeTitle(memberName string) string {
	return fmt.Sprintf("Out of office: %s", memberName)
}

// BirthdayTitle is the canonical title of a derived birthday event.
func BirthdayTitle(memberName string) string {
	return fmt.Sprintf("Birthday: %s", memberName)
}

// AllDaySpan widens a date range to full calendar days.
func AllDaySpan(start, end time.Time) (time.Time, time.Time) {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location()).AddDate(0, 0, 1)
	return s, e
}
