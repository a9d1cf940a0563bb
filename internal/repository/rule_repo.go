package repository

import (
	"document-reconciliation-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RuleRepository struct {
	db *gorm.DB
}

func NewRuleRepository(db *gorm.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

// GetAll returns every matching rule, newest last.
func (r *RuleRepository) GetAll() ([]models.MatchingRule, error) {
	var rules []models.MatchingRule
	err := r.db.Order("created_at ASC, id ASC").Find(&rules).Error
	return rules, err
}

// Create inserts a rule.
func (r *RuleRepository) Create(rule *models.MatchingRule) error {
	return r.db.Create(rule).Error
}

// Delete removes a rule by ID; deleting an absent rule is a no-op.
func (r *RuleRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&models.MatchingRule{}, "id = ?", id).Error
}
