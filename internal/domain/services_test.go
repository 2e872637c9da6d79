package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func mustMoney(t *testing.T, raw, currency string) Money {
	t.Helper()
	money, err := NewMoney(decimal.RequireFromString(raw), currency)
	if err != nil {
		t.Fatalf("money %s %s: %v", raw, currency, err)
	}
	return money
}

func mustKey(t *testing.T, raw string) IdempotencyKey {
	t.Helper()
	key, err := NewIdempotencyKey(raw)
	if err != nil {
		t.Fatalf("key %q: %v", raw, err)
	}
	return key
}

func TestBuildNewPayout_TakesRecipientSnapshot(t *testing.T) {
	recipient := activeRecipient()
	recipient.BankCode = "NWBK"

	payout, err := BuildNewPayout(recipient, mustMoney(t, "250.00", "USD"), mustKey(t, "create-payout-001"))
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if payout.ID == uuid.Nil {
		t.Fatal("expected a generated payout id")
	}
	if payout.Status != StatusNew {
		t.Fatalf("expected status NEW, got %q", payout.Status)
	}
	if payout.RecipientID != recipient.ID {
		t.Fatalf("expected recipient id %s, got %s", recipient.ID, payout.RecipientID)
	}
	if payout.IdempotencyKey != "create-payout-001" {
		t.Fatalf("expected idempotency key preserved, got %q", payout.IdempotencyKey)
	}
	if payout.RecipientNameSnapshot != recipient.Name ||
		payout.AccountNumberSnapshot != recipient.AccountNumber ||
		payout.BankCodeSnapshot != recipient.BankCode {
		t.Fatalf("snapshot fields not copied: %+v", payout)
	}
}

func TestBuildNewPayout_SnapshotSurvivesRecipientEdit(t *testing.T) {
	recipient := activeRecipient()
	payout, err := BuildNewPayout(recipient, mustMoney(t, "10", "EUR"), mustKey(t, "create-payout-002"))
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	originalName := payout.RecipientNameSnapshot
	recipient.Name = "Renamed Later"
	if payout.RecipientNameSnapshot != originalName {
		t.Fatalf("snapshot changed after recipient edit: %q", payout.RecipientNameSnapshot)
	}
}

func TestBuildNewPayout_RejectsInactiveRecipient(t *testing.T) {
	recipient := activeRecipient()
	recipient.IsActive = false

	if _, err := BuildNewPayout(recipient, mustMoney(t, "10", "USD"), mustKey(t, "create-payout-003")); !IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestChangeStatus_MutatesOnSuccess(t *testing.T) {
	payout := payoutWith(StatusNew, activeRecipient())
	if err := ChangeStatus(payout, mustStatus(t, StatusProcessing), SystemActor()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if payout.Status != StatusProcessing {
		t.Fatalf("expected PROCESSING, got %q", payout.Status)
	}
}

func TestChangeStatus_LeavesPayoutUntouchedOnFailure(t *testing.T) {
	payout := payoutWith(StatusCompleted, activeRecipient())
	if err := ChangeStatus(payout, mustStatus(t, StatusProcessing), SystemActor()); !IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if payout.Status != StatusCompleted {
		t.Fatalf("status mutated despite rejected transition: %q", payout.Status)
	}
}
