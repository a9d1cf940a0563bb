// Package reconciliation drives the match lifecycle of a document:
// ingesting parsed lines, committing and clearing match decisions
// inside transactions, running the auto-match pass and answering the
// readiness question the goods-receipt workflow depends on.
package reconciliation

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"document-reconciliation-backend/internal/apperrors"
	"document-reconciliation-backend/internal/models"
	"document-reconciliation-backend/internal/repository"
	"document-reconciliation-backend/internal/services/matching"
	"document-reconciliation-backend/internal/services/rules"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultAutoMatchThreshold is applied when the caller does not
// supply one.
const DefaultAutoMatchThreshold = 0.7

type Service struct {
	docRepo     *repository.DocumentRepository
	productRepo *repository.ProductRepository
	ruleStore   *rules.Store
	db          *gorm.DB
	log         *zap.Logger
	genOpts     matching.Options
}

func NewService(
	docRepo *repository.DocumentRepository,
	productRepo *repository.ProductRepository,
	ruleStore *rules.Store,
	log *zap.Logger,
	genOpts matching.Options,
) *Service {
	return &Service{
		docRepo:     docRepo,
		productRepo: productRepo,
		ruleStore:   ruleStore,
		db:          docRepo.DB(),
		log:         log,
		genOpts:     genOpts,
	}
}

// LineView is a line together with its selected match and, when
// requested, freshly generated candidates.
type LineView struct {
	models.Line
	SelectedMatch *models.Match        `json:"selected_match,omitempty"`
	Candidates    []matching.Candidate `json:"candidates,omitempty"`
	Disputed      bool                 `json:"disputed,omitempty"`
}

// LineInput is one parsed row from the upstream document parser.
type LineInput struct {
	Index     int             `json:"index"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	VatRate   int             `json:"vat_rate"`
	Barcode   string          `json:"barcode"`
	Article   string          `json:"article"`
	Raw       json.RawMessage `json:"raw"`
}

// SetMatchOptions carries the optional fields of a SetMatch call.
type SetMatchOptions struct {
	Source  string
	Score   float64
	Manual  bool
	Comment string
}

// AutoMatchResult reports one auto-match pass.
type AutoMatchResult struct {
	MatchedCount int        `json:"matched_count"`
	Lines        []LineView `json:"lines"`
}

// snapshot fetches the catalog and rule state one candidate
// generation pass works against. The catalog is read fresh each time;
// rules may come from the store's cache.
func (s *Service) snapshot() ([]models.Product, []models.MatchingRule, error) {
	catalog, err := s.productRepo.GetAll()
	if err != nil {
		return nil, nil, apperrors.NewTransient(err)
	}
	ruleSet, err := s.ruleStore.List(false)
	if err != nil {
		return nil, nil, err
	}
	return catalog, ruleSet, nil
}

// CreateDocument stores a parsed document with its ordered lines, all
// starting pending.
func (s *Service) CreateDocument(externalRef, supplierName string, inputs []LineInput) (*models.Document, error) {
	if err := validateLineInputs(inputs); err != nil {
		return nil, err
	}
	doc := &models.Document{
		ID:           uuid.New(),
		ExternalRef:  externalRef,
		SupplierName: supplierName,
		Status:       models.DocumentStatusOpen,
		ParsedAt:     time.Now(),
		CreatedAt:    time.Now(),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(doc).Error; err != nil {
			return err
		}
		for _, in := range inputs {
			if err := tx.Create(newLine(doc.ID, in)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.NewTransient(err)
	}

	s.log.Info("document ingested",
		zap.String("document_id", doc.ID.String()),
		zap.Int("lines", len(inputs)))
	return doc, nil
}

// ReplaceLines re-ingests a document's lines after a reparse. When
// the line count is unchanged each line keeps its match state, keyed
// by index; a changed count resets the whole document to pending.
func (s *Service) ReplaceLines(documentID uuid.UUID, inputs []LineInput) ([]models.Line, error) {
	if err := validateLineInputs(inputs); err != nil {
		return nil, err
	}
	if _, err := s.getDocument(documentID); err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing []models.Line
		if err := tx.Where("document_id = ?", documentID).Order(`"index" ASC`).Find(&existing).Error; err != nil {
			return err
		}

		if len(existing) == len(inputs) {
			byIndex := make(map[int]*models.Line, len(existing))
			for i := range existing {
				byIndex[existing[i].Index] = &existing[i]
			}
			for _, in := range inputs {
				old, ok := byIndex[in.Index]
				if !ok {
					return s.resetLines(tx, documentID, existing, inputs)
				}
				updated := newLine(documentID, in)
				updated.ID = old.ID
				updated.MatchedProductID = old.MatchedProductID
				updated.MatchStatus = old.MatchStatus
				updated.CreatedAt = old.CreatedAt
				if err := tx.Save(updated).Error; err != nil {
					return err
				}
			}
			return nil
		}
		return s.resetLines(tx, documentID, existing, inputs)
	})
	if err != nil {
		return nil, apperrors.NewTransient(err)
	}

	if err := s.touchParsedAt(documentID); err != nil {
		return nil, err
	}
	lines, err := s.docRepo.GetLines(documentID)
	if err != nil {
		return nil, apperrors.NewTransient(err)
	}
	return lines, nil
}

// resetLines replaces the line set wholesale, dropping match history.
func (s *Service) resetLines(tx *gorm.DB, documentID uuid.UUID, existing []models.Line, inputs []LineInput) error {
	ids := make([]uuid.UUID, 0, len(existing))
	for _, l := range existing {
		ids = append(ids, l.ID)
	}
	if len(ids) > 0 {
		if err := tx.Delete(&models.Match{}, "line_id IN ?", ids).Error; err != nil {
			return err
		}
	}
	if err := tx.Delete(&models.Line{}, "document_id = ?", documentID).Error; err != nil {
		return err
	}
	for _, in := range inputs {
		if err := tx.Create(newLine(documentID, in)).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) touchParsedAt(documentID uuid.UUID) error {
	err := s.db.Model(&models.Document{}).
		Where("id = ?", documentID).
		Update("parsed_at", time.Now()).Error
	if err != nil {
		return apperrors.NewTransient(err)
	}
	return nil
}

// validateLineInputs rejects payloads where two inputs claim the same
// index; the preserve-by-index reparse path would otherwise map both to
// one stored line.
func validateLineInputs(inputs []LineInput) error {
	seen := make(map[int]struct{}, len(inputs))
	for _, in := range inputs {
		if _, dup := seen[in.Index]; dup {
			return apperrors.NewValidation("lines", fmt.Sprintf("duplicate line index %d", in.Index))
		}
		seen[in.Index] = struct{}{}
	}
	return nil
}

func newLine(documentID uuid.UUID, in LineInput) *models.Line {
	raw := datatypes.JSON(in.Raw)
	if len(in.Raw) == 0 {
		raw = nil
	}
	return &models.Line{
		ID:          uuid.New(),
		DocumentID:  documentID,
		Index:       in.Index,
		Name:        in.Name,
		Quantity:    in.Quantity,
		Unit:        in.Unit,
		UnitPrice:   in.UnitPrice,
		Subtotal:    in.Subtotal,
		VatRate:     in.VatRate,
		Barcode:     in.Barcode,
		Article:     in.Article,
		Raw:         raw,
		MatchStatus: models.MatchStatusPending,
		CreatedAt:   time.Now(),
	}
}

// ListLines returns a document's lines in index order, each with its
// selected match and, when withCandidates is set, fresh candidates.
func (s *Service) ListLines(documentID uuid.UUID, withCandidates bool) ([]LineView, error) {
	if _, err := s.getDocument(documentID); err != nil {
		return nil, err
	}

	lines, err := s.docRepo.GetLines(documentID)
	if err != nil {
		return nil, apperrors.NewTransient(err)
	}

	selected, err := s.selectedMatches(lines)
	if err != nil {
		return nil, err
	}

	var catalog []models.Product
	var ruleSet []models.MatchingRule
	if withCandidates {
		catalog, ruleSet, err = s.snapshot()
		if err != nil {
			return nil, err
		}
	}

	views := make([]LineView, 0, len(lines))
	for _, line := range lines {
		view := LineView{Line: line, SelectedMatch: selected[line.ID]}
		if withCandidates {
			view.Candidates = matching.Generate(line, catalog, ruleSet, s.genOpts)
			view.Disputed = matching.Disputed(view.Candidates)
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *Service) selectedMatches(lines []models.Line) (map[uuid.UUID]*models.Match, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ID)
	}
	var matches []models.Match
	err := s.db.Where("line_id IN ? AND is_selected = ?", ids, true).Find(&matches).Error
	if err != nil {
		return nil, apperrors.NewTransient(err)
	}
	out := make(map[uuid.UUID]*models.Match, len(matches))
	for i := range matches {
		out[matches[i].LineID] = &matches[i]
	}
	return out, nil
}

// SetMatch commits a product decision for one line. In a single
// transaction the line's denormalized state is updated, any previously
// selected match is deselected, a prior record for the same
// (line, product) pair is removed, and the new record is inserted
// selected. The line update runs first: its row lock serializes
// concurrent writers on the same line, so the deselect sees whatever a
// competing transaction committed. After every successful call exactly
// one match row for the line is selected, no matter how often it is
// retried.
func (s *Service) SetMatch(documentID uuid.UUID, lineIndex int, productID uuid.UUID, opts SetMatchOptions) (*LineView, error) {
	if productID == uuid.Nil {
		return nil, apperrors.NewValidation("product_id", "is required")
	}
	if _, err := s.getDocument(documentID); err != nil {
		return nil, err
	}
	line, err := s.docRepo.GetLine(documentID, lineIndex)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("line", fmt.Sprintf("%s/%d", documentID, lineIndex))
		}
		return nil, apperrors.NewTransient(err)
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("product", productID.String())
		}
		return nil, apperrors.NewTransient(err)
	}

	status := models.MatchStatusMatched
	switch {
	case opts.Manual:
		status = models.MatchStatusManual
	case opts.Source == "auto":
		status = models.MatchStatusAuto
	}

	score := opts.Score
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Lock the line row before touching match rows.
		if err := tx.Model(&models.Line{}).
			Where("id = ?", line.ID).
			Updates(map[string]interface{}{
				"matched_product_id": product.ID,
				"match_status":       status,
			}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Match{}).
			Where("line_id = ? AND is_selected = ?", line.ID, true).
			Update("is_selected", false).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Match{},
			"line_id = ? AND product_id = ?", line.ID, product.ID).Error; err != nil {
			return err
		}
		return tx.Create(&models.Match{
			ID:         uuid.New(),
			LineID:     line.ID,
			ProductID:  product.ID,
			Score:      score,
			Source:     opts.Source,
			Manual:     opts.Manual,
			Comment:    opts.Comment,
			IsSelected: true,
			UpdatedAt:  time.Now(),
		}).Error
	})
	if err != nil {
		return nil, apperrors.NewTransient(err)
	}

	s.log.Info("match set",
		zap.String("document_id", documentID.String()),
		zap.Int("line_index", lineIndex),
		zap.String("product_id", product.ID.String()),
		zap.String("source", opts.Source),
		zap.Bool("manual", opts.Manual))

	return s.lineView(documentID, lineIndex)
}

// ClearMatch deselects whatever match a line carries and resets its
// status to pending. Clearing an unmatched line succeeds unchanged.
func (s *Service) ClearMatch(documentID uuid.UUID, lineIndex int) (*LineView, error) {
	if _, err := s.getDocument(documentID); err != nil {
		return nil, err
	}
	line, err := s.docRepo.GetLine(documentID, lineIndex)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("line", fmt.Sprintf("%s/%d", documentID, lineIndex))
		}
		return nil, apperrors.NewTransient(err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Same lock ordering as SetMatch: line row first.
		if err := tx.Model(&models.Line{}).
			Where("id = ?", line.ID).
			Updates(map[string]interface{}{
				"matched_product_id": nil,
				"match_status":       models.MatchStatusPending,
			}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Match{}).
			Where("line_id = ? AND is_selected = ?", line.ID, true).
			Update("is_selected", false).Error
	})
	if err != nil {
		return nil, apperrors.NewTransient(err)
	}

	return s.lineView(documentID, lineIndex)
}

// lineView rebuilds the full view of one line after a write.
func (s *Service) lineView(documentID uuid.UUID, lineIndex int) (*LineView, error) {
	line, err := s.docRepo.GetLine(documentID, lineIndex)
	if err != nil {
		return nil, apperrors.NewTransient(err)
	}

	selected, err := s.selectedMatches([]models.Line{*line})
	if err != nil {
		return nil, err
	}

	catalog, ruleSet, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	cands := matching.Generate(*line, catalog, ruleSet, s.genOpts)

	return &LineView{
		Line:          *line,
		SelectedMatch: selected[line.ID],
		Candidates:    cands,
		Disputed:      matching.Disputed(cands),
	}, nil
}

// AutoMatch walks the document's lines in index order and commits the
// top candidate of every line that clears the threshold. Lines with a
// manual match are skipped unless force is set. A failure on one line
// is logged and does not abort the rest of the batch; lines already
// committed stay committed.
func (s *Service) AutoMatch(documentID uuid.UUID, threshold float64, force bool) (*AutoMatchResult, error) {
	if threshold <= 0 {
		threshold = DefaultAutoMatchThreshold
	}
	if _, err := s.getDocument(documentID); err != nil {
		return nil, err
	}

	lines, err := s.docRepo.GetLines(documentID)
	if err != nil {
		return nil, apperrors.NewTransient(err)
	}
	catalog, ruleSet, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	matched := 0
	for _, line := range lines {
		if line.MatchStatus == models.MatchStatusManual && !force {
			continue
		}
		cands := matching.Generate(line, catalog, ruleSet, s.genOpts)
		if len(cands) == 0 || cands[0].Score < threshold {
			continue
		}
		top := cands[0]
		_, err := s.SetMatch(documentID, line.Index, top.ProductID, SetMatchOptions{
			Source: top.Source,
			Score:  top.Score,
			Manual: false,
		})
		if err != nil {
			s.log.Warn("auto-match failed for line, continuing",
				zap.String("document_id", documentID.String()),
				zap.Int("line_index", line.Index),
				zap.Error(err))
			continue
		}
		matched++
	}

	views, err := s.ListLines(documentID, false)
	if err != nil {
		return nil, err
	}

	s.log.Info("auto-match pass finished",
		zap.String("document_id", documentID.String()),
		zap.Float64("threshold", threshold),
		zap.Int("matched_count", matched))

	return &AutoMatchResult{MatchedCount: matched, Lines: views}, nil
}

// IsReady reports whether every line of the document carries a
// selected product. A document with no lines is not ready; the
// receipt workflow must not post an empty receipt.
func (s *Service) IsReady(documentID uuid.UUID) (bool, error) {
	if _, err := s.getDocument(documentID); err != nil {
		return false, err
	}
	total, err := s.docRepo.CountLines(documentID)
	if err != nil {
		return false, apperrors.NewTransient(err)
	}
	if total == 0 {
		return false, nil
	}
	unmatched, err := s.docRepo.CountUnmatched(documentID)
	if err != nil {
		return false, apperrors.NewTransient(err)
	}
	return unmatched == 0, nil
}

// Stats summarizes a document's lines per match status.
type Stats struct {
	Total   int64 `json:"total"`
	Pending int64 `json:"pending"`
	Manual  int64 `json:"manual"`
	Auto    int64 `json:"auto"`
	Matched int64 `json:"matched"`
}

type statRow struct {
	MatchStatus string
	Count       int64
}

// GetStats returns per-status line counts for a document.
func (s *Service) GetStats(documentID uuid.UUID) (Stats, error) {
	var stats Stats
	if _, err := s.getDocument(documentID); err != nil {
		return stats, err
	}

	var rows []statRow
	err := s.db.Model(&models.Line{}).
		Where("document_id = ?", documentID).
		Select("match_status, COUNT(*) as count").
		Group("match_status").
		Scan(&rows).Error
	if err != nil {
		return stats, apperrors.NewTransient(err)
	}

	for _, r := range rows {
		stats.Total += r.Count
		switch r.MatchStatus {
		case models.MatchStatusPending:
			stats.Pending = r.Count
		case models.MatchStatusManual:
			stats.Manual = r.Count
		case models.MatchStatusAuto:
			stats.Auto = r.Count
		case models.MatchStatusMatched:
			stats.Matched = r.Count
		}
	}
	return stats, nil
}

// MarkReceipted flips a document to receipted, refusing when the
// reconciliation gate says it is not ready.
func (s *Service) MarkReceipted(documentID uuid.UUID) (*models.Document, error) {
	ready, err := s.IsReady(documentID)
	if err != nil {
		return nil, err
	}
	if !ready {
		return nil, apperrors.NewValidation("document_id", "document is not ready: unmatched lines remain")
	}

	err = s.db.Model(&models.Document{}).
		Where("id = ?", documentID).
		Update("status", models.DocumentStatusReceipted).Error
	if err != nil {
		return nil, apperrors.NewTransient(err)
	}
	return s.getDocument(documentID)
}

func (s *Service) getDocument(documentID uuid.UUID) (*models.Document, error) {
	doc, err := s.docRepo.GetByID(documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("document", documentID.String())
		}
		return nil, apperrors.NewTransient(err)
	}
	return doc, nil
}

// DB exposes the underlying connection.
func (s *Service) DB() *gorm.DB {
	return s.db
}
