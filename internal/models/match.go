package models

import (
	"time"

	"github.com/google/uuid"
)

// Candidate sources, also recorded on the Match a candidate becomes.
const (
	SourceBarcode = "barcode"
	SourceArticle = "article"
	SourceRule    = "rule"
	SourceName    = "name"
)

// Match is the persisted product decision for a line. At most one row
// per line has IsSelected=true; superseded rows are kept with
// IsSelected=false as decision history. A partial unique index on
// (line_id) over selected rows enforces the single-selection rule in
// the database itself.
type Match struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LineID     uuid.UUID `gorm:"type:uuid;index;uniqueIndex:uniq_selected_match_line,where:is_selected" json:"line_id"`
	ProductID  uuid.UUID `gorm:"type:uuid" json:"product_id"`
	Score      float64   `json:"score"`
	Source     string    `json:"source"`
	Manual     bool      `json:"manual"`
	Comment    string    `json:"comment,omitempty"`
	IsSelected bool      `gorm:"index" json:"is_selected"`
	UpdatedAt  time.Time `json:"updated_at"`
}
