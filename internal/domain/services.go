/**
 * @description
 * Domain services: the factory that assembles a valid new Payout aggregate and
 * the mutator that applies a status transition. Both combine validators with
 * entities so callers can only produce legal state.
 */

package domain

import (
	"github.com/google/uuid"
)

// BuildNewPayout constructs a new payout aggregate from validated value
// objects. It enforces the recipient-active rule and takes the recipient
// snapshot from the recipient's current state.
func BuildNewPayout(recipient *Recipient, money Money, key IdempotencyKey) (*Payout, error) {
	if err := ValidateRecipientActive(recipient, ""); err != nil {
		return nil, err
	}

	payout := &Payout{
		ID:             uuid.New(),
		RecipientID:    recipient.ID,
		Recipient:      recipient,
		IdempotencyKey: key.Value(),
		Amount:         money.Amount(),
		Currency:       money.Currency(),
		Status:         StatusNew,
	}
	payout.FillRecipientSnapshot()
	return payout, nil
}

// ChangeStatus applies a status transition to the aggregate in memory:
// permission gate first, then the state machine, then the mutation. The caller
// persists the result.
func ChangeStatus(payout *Payout, next PayoutStatus, actor Actor) error {
	if err := EnsureCanChangePayoutStatus(actor); err != nil {
		return err
	}
	if err := ValidatePayoutStatusTransition(payout, next); err != nil {
		return err
	}
	payout.Status = next.Value()
	return nil
}
