package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Audit record kinds.
const (
	// AuditPaidUnrecordedSale: settlement confirmed on chain but the
	// listing could not be marked sold. Requires manual reconciliation.
	AuditPaidUnrecordedSale = "paid_unrecorded_sale"
)

// AuditRecord persists fatal inconsistencies separately from user-facing
// errors so they survive the request that produced them.
type AuditRecord struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Kind      string         `gorm:"column:kind;type:varchar(40);not null;index" json:"kind"`
	ListingID string         `gorm:"column:listing_id;index" json:"listing_id"`
	Details   datatypes.JSON `gorm:"column:details;type:jsonb" json:"details"`
	CreatedAt time.Time      `json:"created_at"`
}

func (AuditRecord) TableName() string {
	return "AuditRecords"
}

func (a *AuditRecord) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
