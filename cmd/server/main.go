package main

import (
	"log"
	"time"

	"document-reconciliation-backend/internal/config"
	"document-reconciliation-backend/internal/logger"
	"document-reconciliation-backend/internal/models"
	"document-reconciliation-backend/internal/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	db, err := config.InitDB(cfg.Database)
	if err != nil {
		zl.Fatal("database connection failed", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&models.Document{},
		&models.Line{},
		&models.Product{},
		&models.Match{},
		&models.MatchingRule{},
	); err != nil {
		zl.Fatal("migration failed", zap.Error(err))
	}

	r := gin.Default()
	// CORS config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CORSAllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, db, cfg, zl)

	zl.Info("server starting", zap.String("port", cfg.App.Port))
	if err := r.Run(":" + cfg.App.Port); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}
