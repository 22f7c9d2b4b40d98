// Package syncq pushes locally recorded sessions to a remote endpoint on a
// best-effort basis.
package syncq

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/tuicalm/internal/model"
)

// MaxAttempts is the number of failed sends after which an item is dropped.
const MaxAttempts = 3

// Queue kinds.
const (
	KindRelax    = "relax"
	KindBreath   = "breath"
	KindProgress = "progress"
)

// Store is the queue storage the flusher needs.
type Store interface {
	ListQueue(ctx context.Context, limit int) ([]model.QueueItem, error)
	DeleteQueued(ctx context.Context, id int64) error
	BumpAttempts(ctx context.Context, id int64) (int, error)
}

// Sender delivers one queued item.
type Sender interface {
	Send(ctx context.Context, item model.QueueItem) error
}

// FlushResult counts what one flush did.
type FlushResult struct {
	Sent    int
	Failed  int
	Dropped int
}

// Queue drains stored items through a sender.
type Queue struct {
	store  Store
	sender Sender
	logger *zap.Logger
}

// New returns a queue. A nil logger discards output.
func New(store Store, sender Sender, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{store: store, sender: sender, logger: logger}
}

// Flush tries every queued item once, oldest first.
func (q *Queue) Flush(ctx context.Context) (FlushResult, error) {
	var res FlushResult
	items, err := q.store.ListQueue(ctx, 0)
	if err != nil {
		return res, fmt.Errorf("list queue: %w", err)
	}
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		sendErr := q.sender.Send(ctx, item)
		if sendErr == nil {
			if err := q.store.DeleteQueued(ctx, item.ID); err != nil {
				return res, fmt.Errorf("delete queued %d: %w", item.ID, err)
			}
			res.Sent++
			q.logger.Debug("synced item", zap.Int64("id", item.ID), zap.String("kind", item.Kind))
			continue
		}

		attempts, err := q.store.BumpAttempts(ctx, item.ID)
		if err != nil {
			return res, fmt.Errorf("bump attempts %d: %w", item.ID, err)
		}
		if attempts >= MaxAttempts {
			if err := q.store.DeleteQueued(ctx, item.ID); err != nil {
				return res, fmt.Errorf("drop queued %d: %w", item.ID, err)
			}
			res.Dropped++
			q.logger.Warn("dropped item after repeated failures",
				zap.Int64("id", item.ID),
				zap.String("kind", item.Kind),
				zap.Int("attempts", attempts),
				zap.Error(sendErr))
			continue
		}
		res.Failed++
		q.logger.Info("sync failed, will retry",
			zap.Int64("id", item.ID),
			zap.String("kind", item.Kind),
			zap.Int("attempts", attempts),
			zap.Error(sendErr))
	}
	return res, nil
}

// HTTPSender posts the item payload as JSON to <Endpoint>/api/<kind>.
type HTTPSender struct {
	Endpoint string
	Client   *http.Client
}

// NewHTTPSender returns a sender with a bounded client timeout.
func NewHTTPSender(endpoint string) *HTTPSender {
	return &HTTPSender{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Send implements Sender.
func (h *HTTPSender) Send(ctx context.Context, item model.QueueItem) error {
	if h.Endpoint == "" {
		return fmt.Errorf("sync endpoint not configured")
	}
	url := strings.TrimRight(h.Endpoint, "/") + "/api/" + item.Kind
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(item.Payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			// Best-effort body close.
			_ = cerr
		}
	}()
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sync %s: unexpected status %d", item.Kind, resp.StatusCode)
	}
	return nil
}
