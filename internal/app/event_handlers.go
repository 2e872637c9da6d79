/**
 * @description
 * Event-bus subscribers. The PayoutCreated handler is the handoff point from
 * the synchronous request path to asynchronous processing: it enqueues the
 * cache-rebuild task and the payout-processing task on the durable task queue
 * and returns without waiting for either.
 */

package app

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/paystream/payout-service/internal/domain"
	"github.com/paystream/payout-service/internal/events"
)

// Task routing keys on the task exchange.
const (
	TaskProcessPayout    = "payouts.task.process"
	TaskRebuildListCache = "payouts.task.cache_rebuild"
)

const enqueueTimeout = 5 * time.Second

// TaskEnqueuer abstracts the durable, at-least-once task transport.
type TaskEnqueuer interface {
	EnqueueTask(ctx context.Context, taskName string, payload any) error
}

// TaskPayload is the body of both payout tasks.
type TaskPayload struct {
	PayoutID uuid.UUID `json:"payout_id"`
}

// RegisterPayoutEventHandlers subscribes the infrastructure reactions to the
// in-process bus. Enqueue failures are logged, not propagated: the request that
// created the payout has already committed and must not fail retroactively.
func RegisterPayoutEventHandlers(bus *events.Bus, queue TaskEnqueuer) {
	bus.Subscribe(domain.PayoutCreated{}, func(event any) {
		created, ok := event.(domain.PayoutCreated)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), enqueueTimeout)
		defer cancel()

		if err := queue.EnqueueTask(ctx, TaskRebuildListCache, TaskPayload{PayoutID: created.PayoutID}); err != nil {
			log.Printf("level=error component=event_handlers msg=\"cache rebuild enqueue failed\" payout_id=%s err=%v", created.PayoutID, err)
		}
		if err := queue.EnqueueTask(ctx, TaskProcessPayout, TaskPayload{PayoutID: created.PayoutID}); err != nil {
			log.Printf("level=error component=event_handlers msg=\"processing enqueue failed\" payout_id=%s err=%v", created.PayoutID, err)
		}
	})
}
