package handler

import (
	"net/http"

	"document-reconciliation-backend/internal/models"
	"document-reconciliation-backend/internal/services/rules"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RuleHandler struct {
	store *rules.Store
}

func NewRuleHandler(store *rules.Store) *RuleHandler {
	return &RuleHandler{store: store}
}

// ListRules returns all rules; ?force_refresh=1 bypasses the cache.
func (h *RuleHandler) ListRules(c *gin.Context) {
	force := c.Query("force_refresh") == "1" || c.Query("force_refresh") == "true"

	ruleSet, err := h.store.List(force)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": ruleSet})
}

// CreateRule stores an operator shortcut.
func (h *RuleHandler) CreateRule(c *gin.Context) {
	var payload struct {
		Barcode   string `json:"barcode"`
		Article   string `json:"article"`
		Synonym   string `json:"synonym"`
		ProductID string `json:"product_id"`
		Note      string `json:"note"`
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

	rule, err := h.store.Create(&models.MatchingRule{
		Barcode:   payload.Barcode,
		Article:   payload.Article,
		Synonym:   payload.Synonym,
		ProductID: productID,
		Note:      payload.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"rule": rule})
}

// DeleteRule removes a rule; deleting an absent rule succeeds.
func (h *RuleHandler) DeleteRule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rule ID"})
		return
	}

	if err := h.store.Delete(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "rule deleted"})
}
