package models

import (
	"time"

	"github.com/google/uuid"
)

// Document statuses.
const (
	DocumentStatusOpen      = "open"
	DocumentStatusReceipted = "receipted"
)

// Document is one supplier document (invoice / delivery note) whose
// lines are reconciled against the catalog before a goods receipt may
// be posted for it.
type Document struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ExternalRef  string    `gorm:"uniqueIndex" json:"external_ref"`
	SupplierName string    `json:"supplier_name"`
	Status       string    `gorm:"index" json:"status"`
	ParsedAt     time.Time `json:"parsed_at"`
	CreatedAt    time.Time `json:"created_at"`
}
