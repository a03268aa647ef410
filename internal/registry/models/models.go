// Package models holds the beneficiary registry records as this core sees
// them. The registry itself is an external service; these types mirror the
// rows it returns.
package models

import "time"

// BeneficiaryStatus is the registry-side lifecycle state of a record.
type BeneficiaryStatus string

const (
	BeneficiaryActive    BeneficiaryStatus = "active"
	BeneficiaryPending   BeneficiaryStatus = "pending"
	BeneficiarySuspended BeneficiaryStatus = "suspended"
)

// PackageStatus tracks an aid package through delivery.
type PackageStatus string

const (
	PackagePending    PackageStatus = "pending"
	PackageAssigned   PackageStatus = "assigned"
	PackageInDelivery PackageStatus = "in_delivery"
	PackageDelivered  PackageStatus = "delivered"
	PackageFailed     PackageStatus = "failed"
)

// IsValid checks if the status is one of the supported enum values.
func (s PackageStatus) IsValid() bool {
	switch s {
	case PackagePending, PackageAssigned, PackageInDelivery, PackageDelivered, PackageFailed:
		return true
	}
	return false
}

// Beneficiary is the full registry record. Sensitive fields (Address,
// MedicalNotes) must never leave the disclosure service unverified.
type Beneficiary struct {
	ID           string            `json:"id"`
	NationalID   string            `json:"national_id"`
	Name         string            `json:"name"`
	Status       BeneficiaryStatus `json:"status"`
	Phone        string            `json:"phone,omitempty"`
	Address      string            `json:"address,omitempty"`
	MedicalNotes string            `json:"medical_notes,omitempty"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Package is a single aid package row.
type Package struct {
	ID             string        `json:"id"`
	BeneficiaryID  string        `json:"beneficiary_id"`
	Name           string        `json:"name"`
	Status         PackageStatus `json:"status"`
	TrackingNumber string        `json:"tracking_number,omitempty"`
	ScheduledDate  *time.Time    `json:"scheduled_date,omitempty"`
}

// PackageStats summarizes a beneficiary's package history for full disclosure.
type PackageStats struct {
	Total      int `json:"total"`
	Delivered  int `json:"delivered"`
	Pending    int `json:"pending"`
	InDelivery int `json:"in_delivery"`
	Assigned   int `json:"assigned"`
	Failed     int `json:"failed"`
}

// ComputeStats tallies package statuses.
func ComputeStats(packages []Package) PackageStats {
	stats := PackageStats{Total: len(packages)}
	for _, p := range packages {
		switch p.Status {
		case PackageDelivered:
			stats.Delivered++
		case PackagePending:
			stats.Pending++
		case PackageInDelivery:
			stats.InDelivery++
		case PackageAssigned:
			stats.Assigned++
		case PackageFailed:
			stats.Failed++
		}
	}
	return stats
}

// UpdateFields carries a partial beneficiary update. Nil fields are left
// untouched.
type UpdateFields struct {
	Name    *string
	Status  *BeneficiaryStatus
	Phone   *string
	Address *string
}
