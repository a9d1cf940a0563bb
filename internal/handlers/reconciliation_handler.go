package handler

import (
	"net/http"
	"strconv"

	service "document-reconciliation-backend/internal/services/reconciliation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReconciliationHandler struct {
	service *service.Service
}

func NewReconciliationHandler(s *service.Service) *ReconciliationHandler {
	return &ReconciliationHandler{service: s}
}

// CreateDocument ingests a parsed document with its ordered lines.
func (h *ReconciliationHandler) CreateDocument(c *gin.Context) {
	var payload struct {
		ExternalRef  string              `json:"external_ref"`
		SupplierName string              `json:"supplier_name"`
		Lines        []service.LineInput `json:"lines"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	doc, err := h.service.CreateDocument(payload.ExternalRef, payload.SupplierName, payload.Lines)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"document": doc})
}

// ReplaceLines re-ingests a document's lines after a reparse.
func (h *ReconciliationHandler) ReplaceLines(c *gin.Context) {
	docID, ok := h.docID(c)
	if !ok {
		return
	}

	var payload struct {
		Lines []service.LineInput `json:"lines"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	lines, err := h.service.ReplaceLines(docID, payload.Lines)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lines": lines})
}

// ListLines returns the document's lines, optionally with candidates.
func (h *ReconciliationHandler) ListLines(c *gin.Context) {
	docID, ok := h.docID(c)
	if !ok {
		return
	}
	withCandidates := c.Query("with_candidates") == "1" || c.Query("with_candidates") == "true"

	lines, err := h.service.ListLines(docID, withCandidates)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lines": lines})
}

// SetMatch commits a product decision for one line.
func (h *ReconciliationHandler) SetMatch(c *gin.Context) {
	docID, ok := h.docID(c)
	if !ok {
		return
	}
	index, ok := h.lineIndex(c)
	if !ok {
		return
	}

	var payload struct {
		ProductID string  `json:"product_id"`
		Source    string  `json:"source"`
		Score     float64 `json:"score"`
		Manual    bool    `json:"manual"`
		Comment   string  `json:"comment"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	productID, err := uuid.Parse(payload.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return
	}

	view, err := h.service.SetMatch(docID, index, productID, service.SetMatchOptions{
		Source:  payload.Source,
		Score:   payload.Score,
		Manual:  payload.Manual,
		Comment: payload.Comment,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"line": view})
}

// ClearMatch resets one line to pending.
func (h *ReconciliationHandler) ClearMatch(c *gin.Context) {
	docID, ok := h.docID(c)
	if !ok {
		return
	}
	index, ok := h.lineIndex(c)
	if !ok {
		return
	}

	view, err := h.service.ClearMatch(docID, index)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"line": view})
}

// AutoMatch runs the batch pass over all lines of the document.
func (h *ReconciliationHandler) AutoMatch(c *gin.Context) {
	docID, ok := h.docID(c)
	if !ok {
		return
	}

	var payload struct {
		Threshold float64 `json:"threshold"`
		Force     bool    `json:"force"`
	}
	// Body is optional; defaults apply when absent.
	_ = c.ShouldBindJSON(&payload)

	result, err := h.service.AutoMatch(docID, payload.Threshold, payload.Force)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Ready answers the reconciliation gate.
func (h *ReconciliationHandler) Ready(c *gin.Context) {
	docID, ok := h.docID(c)
	if !ok {
		return
	}

	ready, err := h.service.IsReady(docID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": ready})
}

// Stats returns per-status line counts.
func (h *ReconciliationHandler) Stats(c *gin.Context) {
	docID, ok := h.docID(c)
	if !ok {
		return
	}

	stats, err := h.service.GetStats(docID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// MarkReceipted posts the goods receipt hook, gate-protected.
func (h *ReconciliationHandler) MarkReceipted(c *gin.Context) {
	docID, ok := h.docID(c)
	if !ok {
		return
	}

	doc, err := h.service.MarkReceipted(docID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": doc})
}

func (h *ReconciliationHandler) docID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document ID"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *ReconciliationHandler) lineIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid line index"})
		return 0, false
	}
	return index, true
}
