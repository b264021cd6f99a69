// File path: cmd/docqa/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/hybridrag/docqa/internal/api"
	"github.com/hybridrag/docqa/internal/catalog"
	"github.com/hybridrag/docqa/internal/common"
	"github.com/hybridrag/docqa/internal/config"
	"github.com/hybridrag/docqa/internal/convo"
	"github.com/hybridrag/docqa/internal/llm"
	"github.com/hybridrag/docqa/internal/rag"
	"github.com/hybridrag/docqa/internal/vector"
)

func main() {
	logger := common.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil {
		logger.Warn("docqa: .env file not loaded", "error", err)
	} else {
		logger.Info("docqa: environment loaded from .env")
	}

	addr := flag.String("addr", "", "listen address (overrides DOCQA_ADDR)")
	catalogPath := flag.String("catalog", "", "path to the SQLite ingestion catalog (overrides DOCQA_CATALOG_PATH)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("docqa: configuration invalid", "error", err)
		fmt.Println("config error:", err)
		os.Exit(1)
	}
	if trimmed := strings.TrimSpace(*addr); trimmed != "" {
		cfg.Addr = trimmed
	}
	if trimmed := strings.TrimSpace(*catalogPath); trimmed != "" {
		cfg.CatalogPath = trimmed
	}
	logger.Info("docqa: startup initiated", "addr", cfg.Addr, "catalog", cfg.CatalogPath)

	store, err := vector.NewFromEnv(ctx)
	if err != nil {
		logger.Error("docqa: vector store configuration failed", "error", err)
		fmt.Println("vector store error:", err)
		os.Exit(1)
	}
	defer store.Close()
	if store.Available() {
		logger.Info("docqa: chromadb available", "collection", store.Collection())
	} else {
		logger.Warn("docqa: chromadb unreachable", "collection", store.Collection())
	}

	provider := llm.NewProvider()
	logger.Info("docqa: llm provider ready", "provider", provider.Name())

	cat, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		logger.Error("docqa: catalog open failed", "error", err)
		fmt.Println("catalog error:", err)
		os.Exit(1)
	}
	defer cat.Close()

	service := rag.New(provider, store, cat, convo.NewLog())
	server := api.NewServer(service, cfg)

	reachable := cfg.Addr
	if strings.HasPrefix(reachable, ":") {
		reachable = "localhost" + reachable
	}
	logger.Info("docqa: server listening", "addr", cfg.Addr, "health", fmt.Sprintf("http://%s/healthz", reachable))
	fmt.Printf("Serving on %s\n", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, server); err != nil {
		logger.Error("docqa: server stopped", "error", err)
		fmt.Println("server stopped:", err)
	}
}
