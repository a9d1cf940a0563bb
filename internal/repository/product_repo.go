package repository

import (
	"strings"

	"document-reconciliation-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Expose DB if needed
func (r *ProductRepository) DB() *gorm.DB {
	return r.db
}

// GetAll returns the full catalog in a fixed order. The candidate
// generator depends on this order being stable between calls.
func (r *ProductRepository) GetAll() ([]models.Product, error) {
	var products []models.Product
	err := r.db.Order("created_at ASC, id ASC").Find(&products).Error
	return products, err
}

// GetByID fetches a single product by ID.
func (r *ProductRepository) GetByID(id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByBarcode returns the product carrying the barcode, if any.
func (r *ProductRepository) FindByBarcode(barcode string) (*models.Product, error) {
	var product models.Product
	err := r.db.First(&product, "barcode = ?", strings.TrimSpace(barcode)).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Upsert inserts a product or leaves an existing row alone. The
// catalog subsystem owns product contents; imports only fill gaps.
func (r *ProductRepository) Upsert(p *models.Product) error {
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(p).Error
}
