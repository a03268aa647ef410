package attempt

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"aidgate/internal/ratelimit/models"
	"aidgate/pkg/sentinel"
)

// PostgresAttemptStore persists search attempts. Pure I/O; suspicion rules
// belong in the service.
type PostgresAttemptStore struct {
	db *sql.DB
}

func NewPostgresAttemptStore(db *sql.DB) *PostgresAttemptStore {
	return &PostgresAttemptStore{db: db}
}

func (s *PostgresAttemptStore) Append(ctx context.Context, a models.SearchAttempt) (string, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	query := `
		INSERT INTO search_attempts (id, source_address, occurred_at, identifier_queried, found, suspicious, device_label)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.SourceAddress, a.Timestamp, a.IdentifierQueried, a.Found, a.Suspicious, a.DeviceLabel,
	)
	if err != nil {
		return "", fmt.Errorf("append search attempt: %w", err)
	}
	return a.ID, nil
}

func (s *PostgresAttemptStore) MarkFound(ctx context.Context, attemptID string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE search_attempts SET found = TRUE WHERE id = $1`, attemptID)
	if err != nil {
		return fmt.Errorf("mark attempt found: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark attempt found rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresAttemptStore) ListSuspicious(ctx context.Context, since time.Time) ([]models.SearchAttempt, error) {
	query := `
		SELECT id, source_address, occurred_at, identifier_queried, found, suspicious, device_label
		FROM search_attempts
		WHERE suspicious = TRUE AND occurred_at >= $1
		ORDER BY occurred_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("list suspicious attempts: %w", err)
	}
	defer rows.Close()

	var out []models.SearchAttempt
	for rows.Next() {
		var a models.SearchAttempt
		if err := rows.Scan(&a.ID, &a.SourceAddress, &a.Timestamp, &a.IdentifierQueried, &a.Found, &a.Suspicious, &a.DeviceLabel); err != nil {
			return nil, fmt.Errorf("scan search attempt: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search attempts: %w", err)
	}
	return out, nil
}
