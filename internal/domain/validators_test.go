package domain

import (
	"testing"

	"github.com/google/uuid"
)

func activeRecipient() *Recipient {
	return &Recipient{
		ID:            uuid.New(),
		Type:          RecipientTypeIndividual,
		Name:          "Ada Lovelace",
		AccountNumber: "GB29NWBK60161331926819",
		IsActive:      true,
	}
}

func payoutWith(status string, recipient *Recipient) *Payout {
	return &Payout{
		ID:          uuid.New(),
		RecipientID: recipient.ID,
		Recipient:   recipient,
		Status:      status,
	}
}

func mustStatus(t *testing.T, raw string) PayoutStatus {
	t.Helper()
	status, err := NewPayoutStatus(raw)
	if err != nil {
		t.Fatalf("status %q: %v", raw, err)
	}
	return status
}

func TestValidatePayoutStatusTransition_Table(t *testing.T) {
	cases := []struct {
		from    string
		to      string
		allowed bool
	}{
		{StatusNew, StatusProcessing, true},
		{StatusNew, StatusFailed, true},
		{StatusNew, StatusCompleted, false},
		{StatusNew, StatusNew, false},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusProcessing, StatusNew, false},
		{StatusProcessing, StatusProcessing, false},
		{StatusCompleted, StatusNew, false},
		{StatusCompleted, StatusProcessing, false},
		{StatusCompleted, StatusFailed, false},
		{StatusCompleted, StatusCompleted, false},
		{StatusFailed, StatusNew, false},
		{StatusFailed, StatusProcessing, false},
		{StatusFailed, StatusCompleted, false},
		{StatusFailed, StatusFailed, false},
	}

	for _, tc := range cases {
		payout := payoutWith(tc.from, activeRecipient())
		err := ValidatePayoutStatusTransition(payout, mustStatus(t, tc.to))
		if tc.allowed && err != nil {
			t.Errorf("%s -> %s: expected allowed, got %v", tc.from, tc.to, err)
		}
		if !tc.allowed && !IsValidation(err) {
			t.Errorf("%s -> %s: expected ValidationError, got %v", tc.from, tc.to, err)
		}
	}
}

func TestValidatePayoutStatusTransition_InactiveRecipientBlocksForward(t *testing.T) {
	recipient := activeRecipient()
	recipient.IsActive = false

	for _, tc := range []struct{ from, to string }{
		{StatusNew, StatusProcessing},
		{StatusProcessing, StatusCompleted},
	} {
		payout := payoutWith(tc.from, recipient)
		err := ValidatePayoutStatusTransition(payout, mustStatus(t, tc.to))
		if !IsValidation(err) {
			t.Errorf("%s -> %s with inactive recipient: expected ValidationError, got %v", tc.from, tc.to, err)
		}
	}
}

func TestValidatePayoutStatusTransition_InactiveRecipientAllowsFailing(t *testing.T) {
	recipient := activeRecipient()
	recipient.IsActive = false

	payout := payoutWith(StatusNew, recipient)
	if err := ValidatePayoutStatusTransition(payout, mustStatus(t, StatusFailed)); err != nil {
		t.Fatalf("NEW -> FAILED with inactive recipient: expected nil, got %v", err)
	}
}

func TestValidateRecipientActive_CustomMessage(t *testing.T) {
	recipient := activeRecipient()
	recipient.IsActive = false

	err := ValidateRecipientActive(recipient, "custom gate message")
	if !IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if err.Error() != "custom gate message" {
		t.Fatalf("expected custom message, got %q", err.Error())
	}
}

func TestEnsureCanChangePayoutStatus(t *testing.T) {
	if err := EnsureCanChangePayoutStatus(SystemActor()); err != nil {
		t.Fatalf("system actor: expected nil, got %v", err)
	}
	if err := EnsureCanChangePayoutStatus(UserActor(true)); err != nil {
		t.Fatalf("staff user: expected nil, got %v", err)
	}
	if err := EnsureCanChangePayoutStatus(UserActor(false)); !IsPermission(err) {
		t.Fatalf("non-staff user: expected PermissionError, got %v", err)
	}
}

// The permission gate runs before the transition table: a non-staff caller
// requesting an illegal transition still gets the permission failure.
func TestChangeStatus_PermissionCheckedBeforeTransition(t *testing.T) {
	payout := payoutWith(StatusCompleted, activeRecipient())
	err := ChangeStatus(payout, mustStatus(t, StatusNew), UserActor(false))
	if !IsPermission(err) {
		t.Fatalf("expected PermissionError, got %v", err)
	}
}
