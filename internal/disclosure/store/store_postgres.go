package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"aidgate/internal/disclosure/models"
	"aidgate/pkg/sentinel"
)

// PostgresStore persists PIN credentials in PostgreSQL. This store is pure
// I/O; lockout thresholds and transitions belong to the service.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, beneficiaryID string) (*models.PinCredential, error) {
	query := `
		SELECT beneficiary_id, pin_hash, pin_salt, failed_attempts, locked_until, last_login_at, created_at, updated_at
		FROM pin_credentials
		WHERE beneficiary_id = $1
	`
	credential, err := scanCredential(s.db.QueryRowContext(ctx, query, beneficiaryID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get pin credential: %w", err)
	}
	return credential, nil
}

func (s *PostgresStore) Create(ctx context.Context, credential *models.PinCredential) error {
	query := `
		INSERT INTO pin_credentials (beneficiary_id, pin_hash, pin_salt, failed_attempts, locked_until, last_login_at, created_at, updated_at)
		VALUES ($1, $2, $3, 0, NULL, NULL, $4, $4)
		ON CONFLICT (beneficiary_id) DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query,
		credential.BeneficiaryID,
		credential.Hash,
		credential.Salt,
		credential.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create pin credential: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("create pin credential: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

// RecordFailureAtomic increments the failure counter in a single
// UPDATE...RETURNING so concurrent wrong-PIN attempts cannot race past the
// lockout threshold.
func (s *PostgresStore) RecordFailureAtomic(ctx context.Context, beneficiaryID string, now time.Time) (*models.PinCredential, error) {
	query := `
		UPDATE pin_credentials
		SET failed_attempts = failed_attempts + 1,
		    updated_at = $2
		WHERE beneficiary_id = $1
		RETURNING beneficiary_id, pin_hash, pin_salt, failed_attempts, locked_until, last_login_at, created_at, updated_at
	`
	credential, err := scanCredential(s.db.QueryRowContext(ctx, query, beneficiaryID, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("record pin failure: %w", err)
	}
	return credential, nil
}

// ApplyLockAtomic sets the lock in a conditional UPDATE so only one of the
// racing attempts applies it.
func (s *PostgresStore) ApplyLockAtomic(ctx context.Context, beneficiaryID string, lockedUntil time.Time, threshold int) (bool, error) {
	query := `
		UPDATE pin_credentials
		SET locked_until = $2
		WHERE beneficiary_id = $1
		  AND failed_attempts >= $3
		  AND (locked_until IS NULL OR locked_until < $2)
	`
	result, err := s.db.ExecContext(ctx, query, beneficiaryID, lockedUntil, threshold)
	if err != nil {
		return false, fmt.Errorf("apply pin lock: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("apply pin lock: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) ClearFailures(ctx context.Context, beneficiaryID string, now time.Time) error {
	query := `
		UPDATE pin_credentials
		SET failed_attempts = 0,
		    locked_until = NULL,
		    last_login_at = $2,
		    updated_at = $2
		WHERE beneficiary_id = $1
	`
	_, err := s.db.ExecContext(ctx, query, beneficiaryID, now)
	if err != nil {
		return fmt.Errorf("clear pin failures: %w", err)
	}
	return nil
}

func scanCredential(row *sql.Row) (*models.PinCredential, error) {
	var credential models.PinCredential
	var lockedUntil, lastLoginAt sql.NullTime
	err := row.Scan(
		&credential.BeneficiaryID,
		&credential.Hash,
		&credential.Salt,
		&credential.FailedAttempts,
		&lockedUntil,
		&lastLoginAt,
		&credential.CreatedAt,
		&credential.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lockedUntil.Valid {
		credential.LockedUntil = &lockedUntil.Time
	}
	if lastLoginAt.Valid {
		credential.LastLoginAt = &lastLoginAt.Time
	}
	return &credential, nil
}
