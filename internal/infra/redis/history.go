package redis

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/teampulse/calsync/internal/recon/scheduler"
)

const (
	statusChannel = "calsync:status"
	historyKey    = "calsync:history"
	historyLimit  = 50
)

// StatusPublisher mirrors reconciliation status to Redis so external UIs
// can observe the service. Best-effort: failures are logged, never
// propagated into the reconciliation path.
type StatusPublisher struct {
	client *Client
	log    *slog.Logger
}

// NewStatusPublisher creates a publisher over an established client.
func NewStatusPublisher(client *Client, log *slog.Logger) *StatusPublisher {
	if log == nil {
		log = slog.Default()
	}
	return &StatusPublisher{client: client, log: log}
}

// PublishStatus broadcasts the status snapshot on the status channel.
func (p *StatusPublisher) PublishStatus(ctx context.Context, status scheduler.Status) {
	data, err := json.Marshal(status)
	if err != nil {
		p.log.Warn("failed to marshal status", "error", err)
		return
	}
	if err := p.client.rdb.Publish(ctx, statusChannel, data).Err(); err != nil {
		p.log.Warn("failed to publish status", "error", err)
	}
}

// PushHistory prepends the run results to the capped history list.
func (p *StatusPublisher) PushHistory(ctx context.Context, results *scheduler.Results) {
	data, err := json.Marshal(results)
	if err != nil {
		p.log.Warn("failed to marshal sync results", "error", err)
		return
	}

	pipe := p.client.rdb.TxPipeline()
	pipe.LPush(ctx, historyKey, data)
	pipe.LTrim(ctx, historyKey, 0, historyLimit-1)
	if _, err := pipe.Exec(ctx); err != nil {
		p.log.Warn("failed to push sync history", "error", err)
	}
}

// History returns the most recent run summaries, newest first.
func (p *StatusPublisher) History(ctx context.Context, limit int) ([]*scheduler.Results, error) {
	if limit <= 0 || limit > historyLimit {
		limit = historyLimit
	}
	raw, err := p.client.rdb.LRange(ctx, historyKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*scheduler.Results, 0, len(raw))
	for _, item := range raw {
		var r scheduler.Results
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			continue
		}
		out = append(out, &r)
	}
	return out, nil
}
