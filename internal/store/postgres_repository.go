/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains all the SQL needed for the recipients and payouts tables, maps
 * pgx.ErrNoRows onto the domain's NotFoundError, and maps constraint violations
 * (unique idempotency key, recipient FK) onto conflict sentinels.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Domain models used for data transfer.
 */

package store

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paystream/payout-service/internal/domain"
)

// Conflict sentinels. Both satisfy domain.IsConflict so the API layer can map
// them without importing postgres specifics.
var (
	ErrDuplicateIdempotencyKey   = domain.NewConflictError("a payout with this idempotency key already exists")
	ErrRecipientInUse            = domain.NewConflictError("recipient is referenced by existing payouts")
	ErrStatusChangedConcurrently = domain.NewConflictError("payout status changed concurrently")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

const payoutColumns = `
	p.id, p.recipient_id, p.idempotency_key, p.amount, p.currency, p.status,
	p.recipient_name_snapshot, p.account_number_snapshot, p.bank_code_snapshot,
	p.created_at, p.updated_at,
	r.id, r.type, r.name, r.account_number, r.bank_code, r.country, r.is_active,
	r.created_at, r.updated_at`

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetRecipientByID retrieves a recipient by its ID.
func (r *PostgresRepository) GetRecipientByID(ctx context.Context, recipientID uuid.UUID) (*domain.Recipient, error) {
	query := `
		SELECT id, type, name, account_number, bank_code, country, is_active, created_at, updated_at
		FROM recipients
		WHERE id = $1`

	var recipient domain.Recipient
	err := r.db.QueryRow(ctx, query, recipientID).Scan(
		&recipient.ID,
		&recipient.Type,
		&recipient.Name,
		&recipient.AccountNumber,
		&recipient.BankCode,
		&recipient.Country,
		&recipient.IsActive,
		&recipient.CreatedAt,
		&recipient.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("recipient not found")
		}
		return nil, err
	}
	return &recipient, nil
}

// CreateRecipient inserts a new recipient and backfills the generated timestamps.
func (r *PostgresRepository) CreateRecipient(ctx context.Context, recipient *domain.Recipient) error {
	query := `
		INSERT INTO recipients (id, type, name, account_number, bank_code, country, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		recipient.ID,
		recipient.Type,
		recipient.Name,
		recipient.AccountNumber,
		recipient.BankCode,
		recipient.Country,
		recipient.IsActive,
	).Scan(&recipient.CreatedAt, &recipient.UpdatedAt)
}

// SetRecipientActive toggles the active flag and returns the updated recipient.
func (r *PostgresRepository) SetRecipientActive(ctx context.Context, recipientID uuid.UUID, isActive bool) (*domain.Recipient, error) {
	query := `
		UPDATE recipients
		SET is_active = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, type, name, account_number, bank_code, country, is_active, created_at, updated_at`

	var recipient domain.Recipient
	err := r.db.QueryRow(ctx, query, recipientID, isActive).Scan(
		&recipient.ID,
		&recipient.Type,
		&recipient.Name,
		&recipient.AccountNumber,
		&recipient.BankCode,
		&recipient.Country,
		&recipient.IsActive,
		&recipient.CreatedAt,
		&recipient.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("recipient not found")
		}
		return nil, err
	}
	return &recipient, nil
}

// DeleteRecipient removes a recipient. The FK from payouts is RESTRICT, so a
// referenced recipient surfaces as ErrRecipientInUse.
func (r *PostgresRepository) DeleteRecipient(ctx context.Context, recipientID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM recipients WHERE id = $1`, recipientID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return ErrRecipientInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("recipient not found")
	}
	return nil
}

// GetPayoutByID retrieves a payout with its recipient eagerly joined.
func (r *PostgresRepository) GetPayoutByID(ctx context.Context, payoutID uuid.UUID) (*domain.Payout, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM payouts p
		JOIN recipients r ON r.id = p.recipient_id
		WHERE p.id = $1`, payoutColumns)

	payout, err := scanPayout(r.db.QueryRow(ctx, query, payoutID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("payout not found")
		}
		return nil, err
	}
	return payout, nil
}

// GetPayoutByIdempotencyKey retrieves a payout by its idempotency key, used
// after losing a create race.
func (r *PostgresRepository) GetPayoutByIdempotencyKey(ctx context.Context, key domain.IdempotencyKey) (*domain.Payout, error) {
	payout, err := r.GetPayoutByIdempotencyKeyOrNone(ctx, key)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, domain.NewNotFoundError("payout not found")
	}
	return payout, nil
}

// GetPayoutByIdempotencyKeyOrNone is the non-failing lookup for the idempotency
// short-circuit.
func (r *PostgresRepository) GetPayoutByIdempotencyKeyOrNone(ctx context.Context, key domain.IdempotencyKey) (*domain.Payout, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM payouts p
		JOIN recipients r ON r.id = p.recipient_id
		WHERE p.idempotency_key = $1`, payoutColumns)

	payout, err := scanPayout(r.db.QueryRow(ctx, query, key.Value()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return payout, nil
}

// CreatePayout inserts a new payout. The insert is the atomic section of the
// create path; the unique index on idempotency_key is what makes concurrent
// duplicate submissions safe.
func (r *PostgresRepository) CreatePayout(ctx context.Context, payout *domain.Payout) error {
	query := `
		INSERT INTO payouts (
			id, recipient_id, idempotency_key, amount, currency, status,
			recipient_name_snapshot, account_number_snapshot, bank_code_snapshot
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		payout.ID,
		payout.RecipientID,
		payout.IdempotencyKey,
		payout.Amount,
		payout.Currency,
		payout.Status,
		payout.RecipientNameSnapshot,
		payout.AccountNumberSnapshot,
		payout.BankCodeSnapshot,
	).Scan(&payout.CreatedAt, &payout.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateIdempotencyKey
		}
		return err
	}
	return nil
}

// UpdatePayoutStatus persists a transition guarded by the expected current
// status, so transitions on one payout serialize at the row level.
func (r *PostgresRepository) UpdatePayoutStatus(ctx context.Context, payoutID uuid.UUID, currentStatus, newStatus string) (*domain.Payout, error) {
	query := `
		UPDATE payouts
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2`

	tag, err := r.db.Exec(ctx, query, payoutID, currentStatus, newStatus)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		// Either the payout is gone or another writer moved it first.
		if _, getErr := r.GetPayoutByID(ctx, payoutID); getErr != nil {
			return nil, getErr
		}
		return nil, ErrStatusChangedConcurrently
	}
	return r.GetPayoutByID(ctx, payoutID)
}

// ListPayouts returns one page ordered by created_at DESC, id DESC, plus the
// cursor for the next page when more rows exist.
func (r *PostgresRepository) ListPayouts(ctx context.Context, opts domain.PayoutListOptions) ([]domain.Payout, *string, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	var (
		rows pgx.Rows
		err  error
	)
	if opts.Cursor != "" {
		createdAt, id, decodeErr := decodeListCursor(opts.Cursor)
		if decodeErr != nil {
			return nil, nil, domain.NewValidationError("invalid cursor")
		}
		query := fmt.Sprintf(`
			SELECT %s
			FROM payouts p
			JOIN recipients r ON r.id = p.recipient_id
			WHERE (p.created_at, p.id) < ($1, $2)
			ORDER BY p.created_at DESC, p.id DESC
			LIMIT $3`, payoutColumns)
		rows, err = r.db.Query(ctx, query, createdAt, id, limit+1)
	} else {
		query := fmt.Sprintf(`
			SELECT %s
			FROM payouts p
			JOIN recipients r ON r.id = p.recipient_id
			ORDER BY p.created_at DESC, p.id DESC
			LIMIT $1`, payoutColumns)
		rows, err = r.db.Query(ctx, query, limit+1)
	}
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	payouts := make([]domain.Payout, 0, limit)
	for rows.Next() {
		payout, scanErr := scanPayout(rows)
		if scanErr != nil {
			return nil, nil, scanErr
		}
		payouts = append(payouts, *payout)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var nextCursor *string
	if len(payouts) > limit {
		payouts = payouts[:limit]
		last := payouts[len(payouts)-1]
		cursor := encodeListCursor(last.CreatedAt, last.ID)
		nextCursor = &cursor
	}
	return payouts, nextCursor, nil
}

// DeletePayout removes a payout unconditionally; there is no state-machine
// guard on delete.
func (r *PostgresRepository) DeletePayout(ctx context.Context, payoutID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM payouts WHERE id = $1`, payoutID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("payout not found")
	}
	return nil
}

func scanPayout(row pgx.Row) (*domain.Payout, error) {
	var (
		payout    domain.Payout
		recipient domain.Recipient
	)
	err := row.Scan(
		&payout.ID,
		&payout.RecipientID,
		&payout.IdempotencyKey,
		&payout.Amount,
		&payout.Currency,
		&payout.Status,
		&payout.RecipientNameSnapshot,
		&payout.AccountNumberSnapshot,
		&payout.BankCodeSnapshot,
		&payout.CreatedAt,
		&payout.UpdatedAt,
		&recipient.ID,
		&recipient.Type,
		&recipient.Name,
		&recipient.AccountNumber,
		&recipient.BankCode,
		&recipient.Country,
		&recipient.IsActive,
		&recipient.CreatedAt,
		&recipient.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	payout.Recipient = &recipient
	return &payout, nil
}

// encodeListCursor packs the keyset position into an opaque token.
func encodeListCursor(createdAt time.Time, id uuid.UUID) string {
	raw := fmt.Sprintf("%d:%s", createdAt.UnixNano(), id)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeListCursor(cursor string) (time.Time, uuid.UUID, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, uuid.Nil, err
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 {
		return time.Time{}, uuid.Nil, fmt.Errorf("malformed cursor")
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, uuid.Nil, err
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return time.Time{}, uuid.Nil, err
	}
	return time.Unix(0, nanos).UTC(), id, nil
}
