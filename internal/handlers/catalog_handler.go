package handler

import (
	"encoding/csv"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"document-reconciliation-backend/internal/models"
	"document-reconciliation-backend/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	products *repository.ProductRepository
	log      *zap.Logger
}

func NewCatalogHandler(products *repository.ProductRepository, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{products: products, log: log}
}

// ListProducts returns the full catalog view.
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	products, err := h.products.GetAll()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// UploadProducts imports catalog rows from a CSV file with columns
// id,name,type,barcode,article,vat_rate,synonyms (synonyms pipe
// separated, id optional). Existing rows are left untouched; the
// catalog subsystem owns their contents.
func (h *CatalogHandler) UploadProducts(c *gin.Context) {
	file, fileHeader, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	defer file.Close()

	h.log.Info("catalog upload received",
		zap.String("file", fileHeader.Filename),
		zap.Int64("size", fileHeader.Size))

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	// Skip header
	if _, err := reader.Read(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read CSV header"})
		return
	}

	inserted := 0
	rowNum := 0
	for {
		record, err := reader.Read()
		rowNum++
		if err == io.EOF {
			break
		}
		if err != nil {
			h.log.Warn("skipping malformed CSV row", zap.Int("row", rowNum), zap.Error(err))
			continue
		}
		if len(record) < 6 {
			h.log.Warn("skipping CSV row with insufficient columns", zap.Int("row", rowNum))
			continue
		}

		id, err := uuid.Parse(strings.TrimSpace(record[0]))
		if err != nil {
			id = uuid.New()
		}
		name := strings.TrimSpace(record[1])
		if name == "" {
			h.log.Warn("skipping CSV row with empty name", zap.Int("row", rowNum))
			continue
		}

		vatRate, err := strconv.Atoi(strings.TrimSpace(record[5]))
		if err != nil {
			vatRate = 0
		}

		var synonyms models.StringList
		if len(record) > 6 {
			for _, syn := range strings.Split(record[6], "|") {
				if syn = strings.TrimSpace(syn); syn != "" {
					synonyms = append(synonyms, syn)
				}
			}
		}

		product := &models.Product{
			ID:        id,
			Name:      name,
			Type:      strings.TrimSpace(record[2]),
			Barcode:   strings.TrimSpace(record[3]),
			Article:   strings.TrimSpace(record[4]),
			Synonyms:  synonyms,
			VatRate:   vatRate,
			CreatedAt: time.Now(),
		}
		if err := h.products.Upsert(product); err != nil {
			h.log.Warn("failed to insert product", zap.Int("row", rowNum), zap.Error(err))
			continue
		}
		inserted++
	}

	h.log.Info("catalog upload finished",
		zap.String("file", fileHeader.Filename),
		zap.Int("products_added", inserted))

	c.JSON(http.StatusOK, gin.H{
		"file":          fileHeader.Filename,
		"productsAdded": inserted,
	})
}
