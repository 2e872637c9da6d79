/**
 * @description
 * Pure business-rule predicates for the payout lifecycle: recipient activity,
 * status-transition legality and actor permission. Validators never touch
 * persistence; they take entities and value objects and either return nil or a
 * typed domain error.
 */

package domain

import "fmt"

// allowedTransitions is the one-directional payout state machine. COMPLETED and
// FAILED are terminal; no transition ever revisits NEW.
var allowedTransitions = map[string]map[string]struct{}{
	StatusNew:        {StatusProcessing: {}, StatusFailed: {}},
	StatusProcessing: {StatusCompleted: {}, StatusFailed: {}},
	StatusCompleted:  {},
	StatusFailed:     {},
}

// forwardStatuses are the targets that additionally require an active
// recipient. Transitions into FAILED are exempt so a payout can always be
// failed out.
var forwardStatuses = map[string]struct{}{
	StatusProcessing: {},
	StatusCompleted:  {},
}

// ValidateRecipientActive fails with a ValidationError when the recipient is
// deactivated. An empty message selects the default one.
func ValidateRecipientActive(recipient *Recipient, message string) error {
	if recipient == nil {
		return NewValidationError("recipient is not set")
	}
	if !recipient.IsActive {
		if message == "" {
			message = "recipient is not active"
		}
		return NewValidationError(message)
	}
	return nil
}

// ValidatePayoutStatusTransition checks the transition table and, for forward
// transitions, the recipient-active rule.
func ValidatePayoutStatusTransition(payout *Payout, next PayoutStatus) error {
	target := next.Value()

	if _, forward := forwardStatuses[target]; forward {
		if err := ValidateRecipientActive(
			payout.Recipient,
			"cannot process payout: recipient is no longer active",
		); err != nil {
			return err
		}
	}

	allowed := allowedTransitions[payout.Status]
	if _, ok := allowed[target]; !ok {
		return NewValidationError(
			fmt.Sprintf("invalid status transition from %s to %s", payout.Status, target),
		)
	}
	return nil
}

// EnsureCanChangePayoutStatus is the permission gate for status changes. It
// runs before the transition table is consulted: the system actor always
// passes, a non-staff user always fails.
func EnsureCanChangePayoutStatus(actor Actor) error {
	if actor.IsSystem() {
		return nil
	}
	if !actor.IsStaff() {
		return NewPermissionError("insufficient permissions")
	}
	return nil
}
