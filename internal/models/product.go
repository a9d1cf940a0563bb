package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StringList stores a slice of strings as a JSON column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}
}

// Product is the engine's read-only view of a catalog item. The
// catalog subsystem owns these rows; this engine only imports and
// reads them.
type Product struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"index" json:"name"`
	Type      string     `json:"type"`
	Barcode   string     `gorm:"index" json:"barcode,omitempty"`
	Article   string     `json:"article,omitempty"`
	Synonyms  StringList `gorm:"type:jsonb" json:"synonyms"`
	VatRate   int        `json:"vat_rate"`
	CreatedAt time.Time  `json:"created_at"`
}
