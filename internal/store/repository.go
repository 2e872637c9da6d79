/**
 * @description
 * This file defines the `Repository` interface, the persistence contract for the
 * payout-service. The surface is deliberately narrow: explicit lookups and writes
 * only, no query builders, and no business logic behind any method. Not-found is
 * translated into the domain error taxonomy at this boundary.
 *
 * @dependencies
 * - github.com/google/uuid: For entity identifiers.
 * - internal/domain: Domain models and error taxonomy.
 */

package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/paystream/payout-service/internal/domain"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Recipient methods
	GetRecipientByID(ctx context.Context, recipientID uuid.UUID) (*domain.Recipient, error)
	CreateRecipient(ctx context.Context, recipient *domain.Recipient) error
	SetRecipientActive(ctx context.Context, recipientID uuid.UUID, isActive bool) (*domain.Recipient, error)
	// DeleteRecipient fails with ErrRecipientInUse while any payout references
	// the recipient.
	DeleteRecipient(ctx context.Context, recipientID uuid.UUID) error

	// Payout methods
	// GetPayoutByID eagerly resolves the recipient association.
	GetPayoutByID(ctx context.Context, payoutID uuid.UUID) (*domain.Payout, error)
	GetPayoutByIdempotencyKey(ctx context.Context, key domain.IdempotencyKey) (*domain.Payout, error)
	// GetPayoutByIdempotencyKeyOrNone returns (nil, nil) when no payout exists
	// for the key; used for the idempotency short-circuit.
	GetPayoutByIdempotencyKeyOrNone(ctx context.Context, key domain.IdempotencyKey) (*domain.Payout, error)
	// CreatePayout fails with ErrDuplicateIdempotencyKey when the unique index
	// on idempotency_key is violated by a concurrent create.
	CreatePayout(ctx context.Context, payout *domain.Payout) error
	// UpdatePayoutStatus persists a transition guarded by the expected current
	// status; a lost race fails with ErrStatusChangedConcurrently.
	UpdatePayoutStatus(ctx context.Context, payoutID uuid.UUID, currentStatus, newStatus string) (*domain.Payout, error)
	ListPayouts(ctx context.Context, opts domain.PayoutListOptions) ([]domain.Payout, *string, error)
	DeletePayout(ctx context.Context, payoutID uuid.UUID) error
}
