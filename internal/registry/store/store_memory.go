package store

import (
	"context"
	"sync"

	"aidgate/internal/registry/models"
	"aidgate/pkg/requestcontext"
	"aidgate/pkg/sentinel"
)

// InMemoryDirectory backs the registry port with in-process maps. Used in
// tests and local development; production points at Postgres.
type InMemoryDirectory struct {
	mu            sync.RWMutex
	byNationalID  map[string]*models.Beneficiary
	byID          map[string]*models.Beneficiary
	packagesByBen map[string][]models.Package
}

func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{
		byNationalID:  make(map[string]*models.Beneficiary),
		byID:          make(map[string]*models.Beneficiary),
		packagesByBen: make(map[string][]models.Package),
	}
}

// Seed loads a beneficiary and its packages. Test helper; not part of the
// Directory port.
func (d *InMemoryDirectory) Seed(b models.Beneficiary, packages []models.Package) {
	d.mu.Lock()
	defer d.mu.Unlock()
	copied := b
	d.byNationalID[b.NationalID] = &copied
	d.byID[b.ID] = &copied
	d.packagesByBen[b.ID] = append([]models.Package(nil), packages...)
}

func (d *InMemoryDirectory) SearchByNationalID(ctx context.Context, nationalID string) (*models.Beneficiary, []models.Package, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	b, ok := d.byNationalID[nationalID]
	if !ok {
		return nil, nil, sentinel.ErrNotFound
	}
	copied := *b
	packages := append([]models.Package(nil), d.packagesByBen[b.ID]...)
	return &copied, packages, nil
}

func (d *InMemoryDirectory) UpdateBeneficiary(ctx context.Context, beneficiaryID string, fields models.UpdateFields) (*models.Beneficiary, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, ok := d.byID[beneficiaryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if fields.Name != nil {
		b.Name = *fields.Name
	}
	if fields.Status != nil {
		b.Status = *fields.Status
	}
	if fields.Phone != nil {
		b.Phone = *fields.Phone
	}
	if fields.Address != nil {
		b.Address = *fields.Address
	}
	b.UpdatedAt = requestcontext.Now(ctx)

	copied := *b
	return &copied, nil
}
