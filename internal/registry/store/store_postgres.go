package store

import (
	"context"
	"database/sql"
	"fmt"

	"aidgate/internal/registry/models"
	"aidgate/pkg/requestcontext"
	"aidgate/pkg/sentinel"
)

// PostgresDirectory adapts the registry port onto the shared aid database.
// Pure I/O; no projection or access rules live here.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) SearchByNationalID(ctx context.Context, nationalID string) (*models.Beneficiary, []models.Package, error) {
	query := `
		SELECT id, national_id, name, status, phone, address, medical_notes, updated_at
		FROM beneficiaries
		WHERE national_id = $1
	`
	var b models.Beneficiary
	var status string
	err := d.db.QueryRowContext(ctx, query, nationalID).Scan(
		&b.ID, &b.NationalID, &b.Name, &status, &b.Phone, &b.Address, &b.MedicalNotes, &b.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("search beneficiary: %w", err)
	}
	b.Status = models.BeneficiaryStatus(status)

	packages, err := d.listPackages(ctx, b.ID)
	if err != nil {
		return nil, nil, err
	}
	return &b, packages, nil
}

func (d *PostgresDirectory) listPackages(ctx context.Context, beneficiaryID string) ([]models.Package, error) {
	query := `
		SELECT id, beneficiary_id, name, status, tracking_number, scheduled_date
		FROM packages
		WHERE beneficiary_id = $1
		ORDER BY scheduled_date DESC NULLS LAST, id
	`
	rows, err := d.db.QueryContext(ctx, query, beneficiaryID)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	defer rows.Close()

	var out []models.Package
	for rows.Next() {
		var p models.Package
		var status string
		var tracking sql.NullString
		var scheduled sql.NullTime
		if err := rows.Scan(&p.ID, &p.BeneficiaryID, &p.Name, &status, &tracking, &scheduled); err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		p.Status = models.PackageStatus(status)
		if tracking.Valid {
			p.TrackingNumber = tracking.String
		}
		if scheduled.Valid {
			t := scheduled.Time
			p.ScheduledDate = &t
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate packages: %w", err)
	}
	return out, nil
}

func (d *PostgresDirectory) UpdateBeneficiary(ctx context.Context, beneficiaryID string, fields models.UpdateFields) (*models.Beneficiary, error) {
	query := `
		UPDATE beneficiaries
		SET name = COALESCE($2, name),
		    status = COALESCE($3, status),
		    phone = COALESCE($4, phone),
		    address = COALESCE($5, address),
		    updated_at = $6
		WHERE id = $1
		RETURNING id, national_id, name, status, phone, address, medical_notes, updated_at
	`
	var statusArg *string
	if fields.Status != nil {
		s := string(*fields.Status)
		statusArg = &s
	}

	var b models.Beneficiary
	var status string
	err := d.db.QueryRowContext(ctx, query,
		beneficiaryID, fields.Name, statusArg, fields.Phone, fields.Address, requestcontext.Now(ctx),
	).Scan(&b.ID, &b.NationalID, &b.Name, &status, &b.Phone, &b.Address, &b.MedicalNotes, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update beneficiary: %w", err)
	}
	b.Status = models.BeneficiaryStatus(status)
	return &b, nil
}
