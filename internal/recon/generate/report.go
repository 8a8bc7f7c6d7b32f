package generate

import "github.com/teampulse/calsync/internal/core/domain"

// ItemError records one source record's failure inside a bulk operation.
type ItemError struct {
	SourceID string `json:"source_id"`
	Message  string `json:"message"`
}

// BulkSummary aggregates a bulk generation pass.
type BulkSummary struct {
	TotalCreated int  `json:"total_created"`
	TotalErrors  int  `json:"total_errors"`
	Success      bool `json:"success"`
}

// BulkReport is the result of a bulk generation pass. Per-item failures are
// collected here instead of aborting the batch.
type BulkReport struct {
	Created []*domain.CalendarEvent `json:"created"`
	Errors  []ItemError             `json:"errors"`
	Summary BulkSummary             `json:"summary"`
}

func (r *BulkReport) add(event *domain.CalendarEvent) {
	if event != nil {
		r.Created = append(r.Created, event)
	}
}

func (r *BulkReport) fail(sourceID string, err error) {
	r.Errors = append(r.Errors, ItemError{SourceID: sourceID, Message: err.Error()})
}

func (r *BulkReport) finish() *BulkReport {
	r.Summary = BulkSummary{
		TotalCreated: len(r.Created),
		TotalErrors:  len(r.Errors),
		Success:      len(r.Errors) == 0,
	}
	return r
}

// merge folds another report into this one.
func (r *BulkReport) merge(other *BulkReport) {
	if other == nil {
		return
	}
	r.Created = append(r.Created, other.Created...)
	r.Errors = append(r.Errors, other.Errors...)
}
