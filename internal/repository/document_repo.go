package repository

import (
	"document-reconciliation-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) DB() *gorm.DB {
	return r.db
}

// GetByID fetches a document by ID.
func (r *DocumentRepository) GetByID(id uuid.UUID) (*models.Document, error) {
	var doc models.Document
	if err := r.db.First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetLines returns a document's lines in index order.
func (r *DocumentRepository) GetLines(documentID uuid.UUID) ([]models.Line, error) {
	var lines []models.Line
	err := r.db.Where("document_id = ?", documentID).Order(`"index" ASC`).Find(&lines).Error
	return lines, err
}

// GetLine resolves a line by its business key (document, index).
func (r *DocumentRepository) GetLine(documentID uuid.UUID, index int) (*models.Line, error) {
	var line models.Line
	err := r.db.First(&line, `document_id = ? AND "index" = ?`, documentID, index).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// CountUnmatched counts lines without a selected product.
func (r *DocumentRepository) CountUnmatched(documentID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.Model(&models.Line{}).
		Where("document_id = ? AND matched_product_id IS NULL", documentID).
		Count(&n).Error
	return n, err
}

// CountLines counts all lines of a document.
func (r *DocumentRepository) CountLines(documentID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.Model(&models.Line{}).Where("document_id = ?", documentID).Count(&n).Error
	return n, err
}
