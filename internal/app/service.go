/**
 * @description
 * This file contains the core application service for the payout-service. The
 * service orchestrates the repository, the domain services and event
 * publication: it is where the idempotent-create protocol and the status
 * lifecycle live. Handlers and background tasks both call into it.
 *
 * @dependencies
 * - internal/domain: Entities, value objects, validators and events.
 * - internal/events: The in-process event bus (Publisher seam).
 * - internal/store: The persistence contract.
 */

package app

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/paystream/payout-service/internal/domain"
	"github.com/paystream/payout-service/internal/events"
	"github.com/paystream/payout-service/internal/store"
)

// Service is the application layer of the payout-service.
type Service struct {
	repo      store.Repository
	publisher events.Publisher
	listCache *ListCache
}

// NewService creates the application service. listCache may be nil when no
// cache backend is configured; list reads then always hit the database.
func NewService(repo store.Repository, publisher events.Publisher, listCache *ListCache) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		listCache: listCache,
	}
}

// CreatePayout executes the idempotent create protocol. It returns the payout
// and a flag telling whether the request was a duplicate replay. The
// PayoutCreated event fires only for a genuinely new payout, after the insert
// has committed.
func (s *Service) CreatePayout(ctx context.Context, payload domain.CreatePayoutPayload) (*domain.Payout, bool, error) {
	recipient, err := s.repo.GetRecipientByID(ctx, payload.RecipientID)
	if err != nil {
		return nil, false, err
	}

	money, err := domain.NewMoney(payload.Amount, payload.Currency)
	if err != nil {
		return nil, false, err
	}
	key, err := domain.NewIdempotencyKey(payload.IdempotencyKey)
	if err != nil {
		return nil, false, err
	}

	// Idempotency short-circuit: a replayed key returns the original payout
	// untouched, with no event.
	existing, err := s.repo.GetPayoutByIdempotencyKeyOrNone(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, true, nil
	}

	payout, err := domain.BuildNewPayout(recipient, money, key)
	if err != nil {
		return nil, false, err
	}

	if err := s.repo.CreatePayout(ctx, payout); err != nil {
		// A concurrent request won the race on the same key. Treat it exactly
		// like the short-circuit: fetch the winner and report a duplicate.
		if errors.Is(err, store.ErrDuplicateIdempotencyKey) {
			winner, fetchErr := s.repo.GetPayoutByIdempotencyKey(ctx, key)
			if fetchErr != nil {
				return nil, false, fetchErr
			}
			return winner, true, nil
		}
		return nil, false, err
	}

	s.publisher.Publish(domain.PayoutCreated{PayoutID: payout.ID})

	return payout, false, nil
}

// GetPayout loads a payout with its recipient resolved.
func (s *Service) GetPayout(ctx context.Context, payoutID uuid.UUID) (*domain.Payout, error) {
	return s.repo.GetPayoutByID(ctx, payoutID)
}

// ChangeStatus applies a status transition to an already-resolved payout:
// value-object construction, permission gate, state machine, then a guarded
// persist. Every failure mode occurs before any write.
func (s *Service) ChangeStatus(ctx context.Context, payout *domain.Payout, rawStatus string, actor domain.Actor) (*domain.Payout, error) {
	next, err := domain.NewPayoutStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	oldStatus := payout.Status
	if err := domain.ChangeStatus(payout, next, actor); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdatePayoutStatus(ctx, payout.ID, oldStatus, payout.Status)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(domain.PayoutStatusChanged{
		PayoutID:  updated.ID,
		OldStatus: oldStatus,
		NewStatus: updated.Status,
	})

	return updated, nil
}

// DeletePayout removes a payout. Only a staff actor may delete, and deletion is
// unconditional: there is deliberately no state-machine guard, a COMPLETED
// payout is deletable.
func (s *Service) DeletePayout(ctx context.Context, payoutID uuid.UUID, actor domain.Actor) error {
	if !actor.IsSystem() && !actor.IsStaff() {
		return domain.NewPermissionError("insufficient permissions")
	}
	return s.repo.DeletePayout(ctx, payoutID)
}

// ListPayouts serves the cached paginated list read. The rendered page payload
// is cached under a version-tagged key; cache failures degrade to a plain
// database read and are never surfaced to the caller. The key is resolved once
// and reused for the set, so a version bump racing the database read leaves
// the written page under the superseded version instead of poisoning the new
// one.
func (s *Service) ListPayouts(ctx context.Context, path string, query url.Values, opts domain.PayoutListOptions) ([]byte, error) {
	var cacheKey string
	if s.listCache != nil {
		if key, ok := s.listCache.Key(ctx, path, query); ok {
			cacheKey = key
			if payload, hit := s.listCache.GetPage(ctx, key); hit {
				return payload, nil
			}
		}
	}

	items, nextCursor, err := s.repo.ListPayouts(ctx, opts)
	if err != nil {
		return nil, err
	}

	payload, err := renderPayoutPage(domain.PayoutPage{Items: items, NextCursor: nextCursor})
	if err != nil {
		return nil, err
	}

	if cacheKey != "" {
		s.listCache.SetPage(ctx, cacheKey, payload)
	}
	return payload, nil
}

// CreateRecipient validates and persists a new recipient.
func (s *Service) CreateRecipient(ctx context.Context, payload domain.CreateRecipientPayload) (*domain.Recipient, error) {
	recipientType := strings.ToUpper(strings.TrimSpace(payload.Type))
	if recipientType == "" {
		recipientType = domain.RecipientTypeIndividual
	}
	if recipientType != domain.RecipientTypeIndividual && recipientType != domain.RecipientTypeBusiness {
		return nil, domain.NewValidationError("recipient type must be INDIVIDUAL or BUSINESS")
	}
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return nil, domain.NewValidationError("recipient name is required")
	}
	accountNumber := strings.TrimSpace(payload.AccountNumber)
	if accountNumber == "" {
		return nil, domain.NewValidationError("recipient account number is required")
	}

	recipient := &domain.Recipient{
		ID:            uuid.New(),
		Type:          recipientType,
		Name:          name,
		AccountNumber: accountNumber,
		BankCode:      strings.TrimSpace(payload.BankCode),
		Country:       strings.ToUpper(strings.TrimSpace(payload.Country)),
		IsActive:      true,
	}
	if err := s.repo.CreateRecipient(ctx, recipient); err != nil {
		return nil, err
	}
	return recipient, nil
}

// GetRecipient loads a recipient by id.
func (s *Service) GetRecipient(ctx context.Context, recipientID uuid.UUID) (*domain.Recipient, error) {
	return s.repo.GetRecipientByID(ctx, recipientID)
}

// SetRecipientActive toggles the active flag. Existing payouts are untouched;
// the flag only gates future transitions.
func (s *Service) SetRecipientActive(ctx context.Context, recipientID uuid.UUID, isActive bool) (*domain.Recipient, error) {
	return s.repo.SetRecipientActive(ctx, recipientID, isActive)
}

// DeleteRecipient removes a recipient; blocked with a ConflictError while any
// payout references it.
func (s *Service) DeleteRecipient(ctx context.Context, recipientID uuid.UUID) error {
	return s.repo.DeleteRecipient(ctx, recipientID)
}
