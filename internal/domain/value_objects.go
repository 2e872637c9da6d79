/**
 * @description
 * Value objects guarding the domain boundary: Money, IdempotencyKey and
 * PayoutStatus. Construction is the only validation path — an invalid primitive
 * never produces an instance, it fails with a ValidationError. Instances are
 * immutable once constructed.
 */

package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// SupportedCurrencies is the fixed set of currencies payouts can be created in.
var SupportedCurrencies = map[string]struct{}{
	"USD": {},
	"EUR": {},
	"UAH": {},
}

const (
	idempotencyKeyMinLen = 8
	idempotencyKeyMaxLen = 64
)

// Money is a positive decimal amount scoped to a supported currency. The
// currency code is normalized to uppercase.
type Money struct {
	amount   decimal.Decimal
	currency string
}

func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if !amount.IsPositive() {
		return Money{}, NewValidationError("amount must be greater than zero")
	}
	code := strings.ToUpper(strings.TrimSpace(currency))
	if _, ok := SupportedCurrencies[code]; !ok {
		return Money{}, NewValidationError(fmt.Sprintf("currency %q is not supported", currency))
	}
	return Money{amount: amount, currency: code}, nil
}

func (m Money) Amount() decimal.Decimal { return m.amount }

func (m Money) Currency() string { return m.currency }

// IdempotencyKey is a client-supplied natural key for deduplicating payout
// creation. The raw value is trimmed; the trimmed length, counted in
// characters rather than bytes, must be within [8, 64].
type IdempotencyKey struct {
	value string
}

func NewIdempotencyKey(raw string) (IdempotencyKey, error) {
	v := strings.TrimSpace(raw)
	if n := utf8.RuneCountInString(v); n < idempotencyKeyMinLen || n > idempotencyKeyMaxLen {
		return IdempotencyKey{}, NewValidationError("idempotency key length must be between 8 and 64 characters")
	}
	return IdempotencyKey{value: v}, nil
}

func (k IdempotencyKey) Value() string { return k.value }

// PayoutStatus wraps one of the four payout statuses, normalizing case.
type PayoutStatus struct {
	value string
}

func NewPayoutStatus(raw string) (PayoutStatus, error) {
	v := strings.ToUpper(strings.TrimSpace(raw))
	switch v {
	case StatusNew, StatusProcessing, StatusCompleted, StatusFailed:
		return PayoutStatus{value: v}, nil
	}
	return PayoutStatus{}, NewValidationError(fmt.Sprintf("invalid payout status %q", raw))
}

func (s PayoutStatus) Value() string { return s.value }
