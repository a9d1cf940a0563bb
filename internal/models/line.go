package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Per-line match statuses. A line starts pending and returns to
// pending whenever its match is cleared; there is no terminal state.
const (
	MatchStatusPending = "pending"
	MatchStatusManual  = "manual"
	MatchStatusAuto    = "auto"
	MatchStatusMatched = "matched"
)

// Line is one row of a source document. Index is the stable ordinal
// within the document; match state survives a reparse keyed by it.
// Raw carries whatever extra fields the upstream parser extracted and
// is never inspected by scoring logic.
type Line struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID uuid.UUID       `gorm:"type:uuid;index;uniqueIndex:idx_line_doc_index,priority:1" json:"document_id"`
	Index      int             `gorm:"uniqueIndex:idx_line_doc_index,priority:2" json:"index"`
	Name       string          `json:"name"`
	Quantity   decimal.Decimal `gorm:"type:decimal(18,4)" json:"quantity"`
	Unit       string          `json:"unit"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(18,4)" json:"unit_price"`
	Subtotal   decimal.Decimal `gorm:"type:decimal(18,4)" json:"subtotal"`
	VatRate    int             `json:"vat_rate"`
	Barcode    string          `gorm:"index" json:"barcode,omitempty"`
	Article    string          `json:"article,omitempty"`
	Raw        datatypes.JSON  `json:"raw,omitempty"`

	// Denormalized from the selected Match for cheap readiness checks.
	MatchedProductID *uuid.UUID `gorm:"type:uuid" json:"matched_product_id"`
	MatchStatus      string     `gorm:"index" json:"match_status"`

	CreatedAt time.Time `json:"created_at"`
}
