package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchingRule is an operator-authored shortcut: a barcode, article
// or synonym phrase that resolves directly to a product. Rules are
// independent of any line or document.
type MatchingRule struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Barcode   string    `gorm:"index" json:"barcode,omitempty"`
	Article   string    `json:"article,omitempty"`
	Synonym   string    `json:"synonym,omitempty"`
	ProductID uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// Filled on list responses, not stored.
	ProductName string `gorm:"-" json:"product_name,omitempty"`
}
