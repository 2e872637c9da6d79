package domain

import "github.com/google/uuid"

// PayoutCreated is emitted exactly once per genuinely new payout, after the
// creating write has committed. Duplicate (idempotent) creates never emit it.
type PayoutCreated struct {
	PayoutID uuid.UUID
}

// PayoutStatusChanged describes a completed status transition. No subscriber
// consumes it yet; it exists so status reactions can be added without touching
// the use cases.
type PayoutStatusChanged struct {
	PayoutID  uuid.UUID
	OldStatus string
	NewStatus string
}
