/**
 * @description
 * Background task handlers consumed from the task queue. Handlers follow the
 * consumer contract: return true to acknowledge, false to hand the message to
 * the transport's retry policy. Both tasks are idempotent, so at-least-once
 * re-delivery is safe.
 */

package app

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/paystream/payout-service/internal/domain"
)

const taskTimeout = 30 * time.Second

// DefaultProviderDelay simulates the external payment provider's latency.
const DefaultProviderDelay = 2 * time.Second

// PayoutTasks bundles the background task handlers and their dependencies.
type PayoutTasks struct {
	service       *Service
	listCache     *ListCache
	providerDelay time.Duration

	// sleep is swappable in tests.
	sleep func(time.Duration)
}

func NewPayoutTasks(service *Service, listCache *ListCache, providerDelay time.Duration) *PayoutTasks {
	if providerDelay < 0 {
		providerDelay = DefaultProviderDelay
	}
	return &PayoutTasks{
		service:       service,
		listCache:     listCache,
		providerDelay: providerDelay,
		sleep:         time.Sleep,
	}
}

// HandleRebuildListCache bumps the list cache version counter. A failed bump is
// retried by the transport; the enqueuer never waits on it.
func (t *PayoutTasks) HandleRebuildListCache(body []byte) bool {
	if t.listCache == nil {
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	if err := t.listCache.BumpVersion(ctx); err != nil {
		log.Printf("level=error component=cache_rebuild_task msg=\"version bump failed\" err=%v", err)
		return false
	}
	return true
}

// HandleProcessPayout advances a payout NEW -> PROCESSING -> COMPLETED with a
// simulated provider call in between. Each step re-reads current state, and a
// payout already in a terminal state is acknowledged untouched, which makes
// re-delivery of the same task a no-op.
func (t *PayoutTasks) HandleProcessPayout(body []byte) bool {
	var payload TaskPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("level=error component=process_payout_task msg=\"malformed payload; dropping\" err=%v", err)
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	payout, err := t.service.GetPayout(ctx, payload.PayoutID)
	if err != nil {
		if domain.IsNotFound(err) {
			// Deleted before processing started; nothing to do.
			log.Printf("level=info component=process_payout_task msg=\"payout gone; acknowledging\" payout_id=%s", payload.PayoutID)
			return true
		}
		log.Printf("level=error component=process_payout_task msg=\"payout lookup failed\" payout_id=%s err=%v", payload.PayoutID, err)
		return false
	}

	if payout.IsTerminal() {
		return true
	}

	if payout.Status == domain.StatusNew {
		payout, err = t.service.ChangeStatus(ctx, payout, domain.StatusProcessing, domain.SystemActor())
		if err != nil {
			log.Printf("level=error component=process_payout_task msg=\"transition to processing failed\" payout_id=%s err=%v", payload.PayoutID, err)
			return false
		}
	}

	// Simulated external provider latency.
	if t.providerDelay > 0 {
		t.sleep(t.providerDelay)
	}

	// Re-read before completing; state may have moved while we waited.
	payout, err = t.service.GetPayout(ctx, payload.PayoutID)
	if err != nil {
		if domain.IsNotFound(err) {
			log.Printf("level=info component=process_payout_task msg=\"payout deleted mid-flight; acknowledging\" payout_id=%s", payload.PayoutID)
			return true
		}
		log.Printf("level=error component=process_payout_task msg=\"payout re-read failed\" payout_id=%s err=%v", payload.PayoutID, err)
		return false
	}
	if payout.IsTerminal() {
		return true
	}

	if _, err := t.service.ChangeStatus(ctx, payout, domain.StatusCompleted, domain.SystemActor()); err != nil {
		log.Printf("level=error component=process_payout_task msg=\"transition to completed failed\" payout_id=%s err=%v", payload.PayoutID, err)
		return false
	}
	return true
}
