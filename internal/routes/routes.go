package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"document-reconciliation-backend/internal/config"
	handler "document-reconciliation-backend/internal/handlers"
	"document-reconciliation-backend/internal/repository"
	"document-reconciliation-backend/internal/services/matching"
	service "document-reconciliation-backend/internal/services/reconciliation"
	"document-reconciliation-backend/internal/services/rules"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, log *zap.Logger) {
	productRepo := repository.NewProductRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	ruleRepo := repository.NewRuleRepository(db)

	ruleStore := rules.NewStore(
		ruleRepo,
		productRepo,
		rules.NewSnapshotCache(cfg.Matching.RuleCacheTTL),
		log,
	)
	reconService := service.NewService(
		documentRepo,
		productRepo,
		ruleStore,
		log,
		matching.Options{
			TopK:            cfg.Matching.TopK,
			NameScoreCutoff: cfg.Matching.NameScoreCutoff,
		},
	)

	reconHandler := handler.NewReconciliationHandler(reconService)
	ruleHandler := handler.NewRuleHandler(ruleStore)
	catalogHandler := handler.NewCatalogHandler(productRepo, log)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Document + line reconciliation routes
	docs := api.Group("/documents")
	docs.POST("", reconHandler.CreateDocument)
	docs.PUT("/:id/lines", reconHandler.ReplaceLines)
	docs.GET("/:id/lines", reconHandler.ListLines)
	docs.GET("/:id/ready", reconHandler.Ready)
	docs.GET("/:id/stats", reconHandler.Stats)
	docs.POST("/:id/automatch", reconHandler.AutoMatch)
	docs.POST("/:id/receipt", reconHandler.MarkReceipted)
	docs.POST("/:id/lines/:index/match", reconHandler.SetMatch)
	docs.DELETE("/:id/lines/:index/match", reconHandler.ClearMatch)

	// Matching rule routes
	ruleGroup := api.Group("/rules")
	ruleGroup.GET("", ruleHandler.ListRules)
	ruleGroup.POST("", ruleHandler.CreateRule)
	ruleGroup.DELETE("/:id", ruleHandler.DeleteRule)

	// Catalog routes
	catalog := api.Group("/catalog")
	{
		catalog.GET("", catalogHandler.ListProducts)
		catalog.POST("/upload", catalogHandler.UploadProducts)
	}
}
