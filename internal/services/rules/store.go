// Package rules implements the matching rule store: operator-authored
// shortcuts with a TTL snapshot cache feeding the candidate generator.
package rules

import (
	"errors"
	"strings"
	"time"

	"document-reconciliation-backend/internal/apperrors"
	"document-reconciliation-backend/internal/models"
	"document-reconciliation-backend/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Store struct {
	ruleRepo    *repository.RuleRepository
	productRepo *repository.ProductRepository
	cache       *SnapshotCache
	log         *zap.Logger
}

func NewStore(
	ruleRepo *repository.RuleRepository,
	productRepo *repository.ProductRepository,
	cache *SnapshotCache,
	log *zap.Logger,
) *Store {
	return &Store{
		ruleRepo:    ruleRepo,
		productRepo: productRepo,
		cache:       cache,
		log:         log,
	}
}

// Create validates and persists a rule. The referenced product must
// exist and at least one of barcode/article/synonym must be set.
func (s *Store) Create(rule *models.MatchingRule) (*models.MatchingRule, error) {
	if rule.ProductID == uuid.Nil {
		return nil, apperrors.NewValidation("product_id", "is required")
	}
	if strings.TrimSpace(rule.Barcode) == "" &&
		strings.TrimSpace(rule.Article) == "" &&
		strings.TrimSpace(rule.Synonym) == "" {
		return nil, apperrors.NewValidation("rule", "at least one of barcode, article or synonym must be set")
	}

	product, err := s.productRepo.GetByID(rule.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("product", rule.ProductID.String())
		}
		return nil, apperrors.NewTransient(err)
	}

	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	rule.CreatedAt = time.Now()
	if err := s.ruleRepo.Create(rule); err != nil {
		return nil, apperrors.NewTransient(err)
	}
	s.cache.Invalidate()

	s.log.Info("matching rule created",
		zap.String("rule_id", rule.ID.String()),
		zap.String("product_id", rule.ProductID.String()))

	rule.ProductName = product.Name
	return rule, nil
}

// List returns every rule enriched with the resolved product name.
// Unless forceRefresh is set, a snapshot no older than the cache TTL
// may be served; callers needing read-your-writes pass forceRefresh.
func (s *Store) List(forceRefresh bool) ([]models.MatchingRule, error) {
	if !forceRefresh {
		if cached, ok := s.cache.Get(); ok {
			return cached, nil
		}
	}

	rules, err := s.ruleRepo.GetAll()
	if err != nil {
		return nil, apperrors.NewTransient(err)
	}

	products, err := s.productRepo.GetAll()
	if err != nil {
		return nil, apperrors.NewTransient(err)
	}
	names := make(map[uuid.UUID]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}
	for i := range rules {
		rules[i].ProductName = names[rules[i].ProductID]
	}

	s.cache.Set(rules)
	return rules, nil
}

// Delete removes a rule. Deleting an absent rule succeeds; the cache
// is invalidated either way.
func (s *Store) Delete(id uuid.UUID) error {
	if err := s.ruleRepo.Delete(id); err != nil {
		return apperrors.NewTransient(err)
	}
	s.cache.Invalidate()
	return nil
}
