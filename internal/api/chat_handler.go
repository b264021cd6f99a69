// File path: internal/api/chat_handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/hybridrag/docqa/internal/common"
	"github.com/hybridrag/docqa/internal/rag"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	answer, ok := s.resolveQuestion(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

// handleAsk is the direct-question endpoint: same resolution as chat, with
// the question echoed back and no conversation id in the payload.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	answer, ok := s.resolveQuestion(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, askResponse{
		Question: answer.Question,
		Answer:   answer.AnswerText,
		Sources:  answer.Sources,
	})
}

type resolvedAnswer struct {
	rag.Answer
	Question string
}

func (s *Server) resolveQuestion(w http.ResponseWriter, r *http.Request) (resolvedAnswer, bool) {
	logger := common.Logger()
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("api: question decode failed", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return resolvedAnswer{}, false
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(w, http.StatusBadRequest, errors.New("question cannot be empty"))
		return resolvedAnswer{}, false
	}
	logger.Info("api: question received", "length", len(question))
	answer, err := s.service.Ask(r.Context(), question)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, rag.ErrEmptyQuestion) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return resolvedAnswer{}, false
	}
	return resolvedAnswer{Answer: answer, Question: question}, true
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, conversationResponse{ConversationHistory: s.service.History()})
}

func (s *Server) handleConversationClear(w http.ResponseWriter, r *http.Request) {
	s.service.ResetConversation()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Conversation history cleared successfully"})
}

func (s *Server) handleSystemInfo(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"system_ready":        s.service.Ready(),
		"provider":            s.service.ProviderName(),
		"exact_qa_pairs":      s.service.ExactPairs(),
		"conversation_length": s.service.ConversationLen(),
		"supported_formats":   []string{".pdf", ".csv", ".xlsx", ".xls"},
	}
	if cat := s.service.Catalog(); cat != nil {
		s.attachCatalogInfo(r.Context(), info)
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) attachCatalogInfo(ctx context.Context, info map[string]interface{}) {
	logger := common.Logger()
	cat := s.service.Catalog()
	count, err := cat.BatchCount(ctx)
	if err != nil {
		logger.Warn("api: catalog count failed", "error", err)
		return
	}
	info["ingest_batches"] = count
	last, err := cat.LastBatch(ctx)
	if err != nil {
		logger.Warn("api: catalog last batch failed", "error", err)
		return
	}
	if last != nil {
		info["last_batch"] = last
	}
}
