/**
 * @description
 * This file defines the core domain models for the payout-service: the Recipient
 * and Payout aggregates, their status/type constants, and the data transfer
 * objects used by the API layer.
 *
 * @notes
 * - Amounts are shopspring decimals so financial values never pass through
 *   binary floating point.
 * - A Payout carries a snapshot of the recipient's identity fields taken at
 *   creation time. The snapshot never changes after creation, even when the
 *   recipient record is later edited.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payout statuses. Transitions between them are governed by the state machine
// in validators.go.
const (
	StatusNew        = "NEW"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// Recipient types.
const (
	RecipientTypeIndividual = "INDIVIDUAL"
	RecipientTypeBusiness   = "BUSINESS"
)

// Recipient represents a payee. Recipients are created independently of payouts
// and may be deactivated at any time; deactivation gates future status
// transitions but never cascades to existing payouts.
type Recipient struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	Name          string    `json:"name"`
	AccountNumber string    `json:"account_number"`
	BankCode      string    `json:"bank_code,omitempty"`
	Country       string    `json:"country,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Payout represents a payment lifecycle aggregate. This struct maps directly to
// the `payouts` table.
type Payout struct {
	ID                    uuid.UUID       `json:"id"`
	RecipientID           uuid.UUID       `json:"recipient_id"`
	Recipient             *Recipient      `json:"-"`
	IdempotencyKey        string          `json:"-"`
	Amount                decimal.Decimal `json:"amount"`
	Currency              string          `json:"currency"`
	Status                string          `json:"status"`
	RecipientNameSnapshot string          `json:"recipient_name_snapshot"`
	AccountNumberSnapshot string          `json:"account_number_snapshot"`
	BankCodeSnapshot      string          `json:"bank_code_snapshot,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// FillRecipientSnapshot copies the recipient's identity fields onto the payout.
// Called once by the domain factory when the payout is built.
func (p *Payout) FillRecipientSnapshot() {
	if p.Recipient == nil {
		return
	}
	p.RecipientNameSnapshot = p.Recipient.Name
	p.AccountNumberSnapshot = p.Recipient.AccountNumber
	p.BankCodeSnapshot = p.Recipient.BankCode
}

// IsTerminal reports whether the payout has reached a final status.
func (p *Payout) IsTerminal() bool {
	return p.Status == StatusCompleted || p.Status == StatusFailed
}

// CreatePayoutPayload is the DTO for incoming payout creation API requests.
type CreatePayoutPayload struct {
	RecipientID    uuid.UUID       `json:"recipient_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	IdempotencyKey string          `json:"idempotency_key"`
}

// ChangeStatusPayload is the DTO for payout status patch requests.
type ChangeStatusPayload struct {
	Status string `json:"status"`
}

// CreateRecipientPayload is the DTO for recipient creation requests.
type CreateRecipientPayload struct {
	Type          string `json:"type"`
	Name          string `json:"name"`
	AccountNumber string `json:"account_number"`
	BankCode      string `json:"bank_code,omitempty"`
	Country       string `json:"country,omitempty"`
}

// UpdateRecipientPayload is the DTO for recipient patch requests. Only the
// active flag is mutable through the API.
type UpdateRecipientPayload struct {
	IsActive *bool `json:"is_active"`
}

// PayoutListOptions controls cursor pagination for payout list reads.
type PayoutListOptions struct {
	Limit  int
	Cursor string
}

// PayoutPage is a rendered page of the payout list, ordered by creation time
// descending with id descending as tiebreak.
type PayoutPage struct {
	Items      []Payout `json:"items"`
	NextCursor *string  `json:"next_cursor,omitempty"`
}
