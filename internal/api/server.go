// File path: internal/api/server.go
package api

import (
	"encoding/json"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/hybridrag/docqa/internal/common"
	"github.com/hybridrag/docqa/internal/config"
	"github.com/hybridrag/docqa/internal/rag"
)

type Server struct {
	router      chi.Router
	service     *rag.Service
	uploadLimit int64
}

func NewServer(service *rag.Service, cfg config.Config) *Server {
	logger := common.Logger()
	srv := &Server{
		router:      chi.NewRouter(),
		service:     service,
		uploadLimit: cfg.UploadLimit,
	}
	srv.routes()
	logger.Info("api: server ready", "upload_limit", cfg.UploadLimit)
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	logger.Info("api: configuring routes")
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", s.handleHealth)
	s.router.Post("/v1/documents", s.handleUpload)
	s.router.Post("/v1/chat", s.handleChat)
	s.router.Post("/v1/ask", s.handleAsk)
	s.router.Get("/v1/conversation", s.handleConversation)
	s.router.Post("/v1/conversation/clear", s.handleConversationClear)
	s.router.Get("/v1/system", s.handleSystemInfo)
	s.router.Get("/v1/logs", s.handleLogs)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "healthy",
		"has_documents": s.service.Ready(),
	})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": common.LogEntries()})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
