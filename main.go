package main

import (
	"log"
	"os"
	"time"

	"voyago/internal/api"
	"voyago/internal/cache"
	"voyago/internal/config"
	"voyago/internal/service/ai"
	"voyago/internal/service/images"
	"voyago/internal/service/travel"
	"voyago/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	cfgPath := os.Getenv("VOYAGO_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dbType := os.Getenv("VOYAGO_DB")
	if dbType == "" {
		dbType = "sqlite3"
	}
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	// Create necessary tables: itineraries, messages
	if err := storage.Migrate(db, dbType); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	// The cache is advisory; run uncached when redis is unavailable.
	cacheClient, err := cache.New(cfg)
	if err != nil {
		log.Printf("cache unavailable, continuing without it: %v", err)
		cacheClient = nil
	}
	if cacheClient != nil {
		defer cacheClient.Close()
	}

	aiService, err := ai.NewService(cfg)
	if err != nil {
		log.Fatalf("init completion client: %v", err)
	}
	imageClient := images.NewClient(cfg.Unsplash.AccessKey)
	store := travel.NewService(db)

	cacheTTL := time.Duration(cfg.BasicConfig.CacheTTLMinutes) * time.Minute
	handlers := api.NewHandler(store, aiService, imageClient, cacheClient, cacheTTL)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":5000"
	}

	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
