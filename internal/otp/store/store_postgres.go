package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"aidgate/internal/otp/models"
	"aidgate/pkg/sentinel"
)

// PostgresStore persists codes in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, code *models.Code) (string, error) {
	if code.ID == "" {
		code.ID = uuid.NewString()
	}
	query := `
		INSERT INTO otp_codes (id, phone, purpose, code, beneficiary_id, expires_at, used, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, FALSE, 0, $7, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		code.ID,
		code.Phone,
		code.Purpose,
		code.Code,
		code.BeneficiaryID,
		code.ExpiresAt,
		code.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("create otp code: %w", err)
	}
	return code.ID, nil
}

func (s *PostgresStore) LatestActive(ctx context.Context, phone string, purpose models.Purpose, now time.Time) (*models.Code, error) {
	query := `
		SELECT id, phone, purpose, code, COALESCE(beneficiary_id, ''), expires_at, used, attempts, created_at, updated_at
		FROM otp_codes
		WHERE phone = $1 AND purpose = $2 AND used = FALSE AND expires_at > $3
		ORDER BY created_at DESC
		LIMIT 1
	`
	code, err := scanCode(s.db.QueryRowContext(ctx, query, phone, purpose, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("latest active otp code: %w", err)
	}
	return code, nil
}

// IncrementAttempts bumps the counter in one UPDATE...RETURNING so concurrent
// guesses cannot share an attempt slot.
func (s *PostgresStore) IncrementAttempts(ctx context.Context, id string, now time.Time) (int, error) {
	query := `
		UPDATE otp_codes
		SET attempts = attempts + 1,
		    updated_at = $2
		WHERE id = $1
		RETURNING attempts
	`
	var attempts int
	err := s.db.QueryRowContext(ctx, query, id, now).Scan(&attempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, sentinel.ErrNotFound
		}
		return 0, fmt.Errorf("increment otp attempts: %w", err)
	}
	return attempts, nil
}

func (s *PostgresStore) MarkUsed(ctx context.Context, id string, now time.Time) error {
	query := `
		UPDATE otp_codes
		SET used = TRUE,
		    updated_at = $2
		WHERE id = $1 AND used = FALSE
	`
	result, err := s.db.ExecContext(ctx, query, id, now)
	if err != nil {
		return fmt.Errorf("mark otp used: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark otp used: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM otp_codes WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired otp codes: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired otp codes: %w", err)
	}
	return int(affected), nil
}

func scanCode(row *sql.Row) (*models.Code, error) {
	var code models.Code
	err := row.Scan(
		&code.ID,
		&code.Phone,
		&code.Purpose,
		&code.Code,
		&code.BeneficiaryID,
		&code.ExpiresAt,
		&code.Used,
		&code.Attempts,
		&code.CreatedAt,
		&code.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &code, nil
}
