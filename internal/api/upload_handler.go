// File path: internal/api/upload_handler.go
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hybridrag/docqa/internal/common"
	"github.com/hybridrag/docqa/internal/docs"
	"github.com/hybridrag/docqa/internal/rag"
)

// handleUpload accepts a multipart batch of documents and runs ingestion.
// Unsupported extensions are rejected before the core sees any bytes.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	ctx := r.Context()
	if err := r.ParseMultipartForm(s.uploadLimit); err != nil {
		logger.Warn("api: upload form parse failed", "error", err)
		writeError(w, http.StatusBadRequest, fmt.Errorf("failed to parse upload form: %w", err))
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("no files uploaded"))
		return
	}

	files := make([]rag.IngestFile, 0, len(headers))
	names := make([]string, 0, len(headers))
	for _, header := range headers {
		name := strings.TrimSpace(header.Filename)
		if name == "" {
			writeError(w, http.StatusBadRequest, errors.New("file name required"))
			return
		}
		if _, ok := docs.TypeForFile(name); !ok {
			writeError(w, http.StatusBadRequest,
				fmt.Errorf("unsupported file type: %s (allowed: %s)", name, strings.Join(docs.SupportedExtensions(), ", ")))
			return
		}
		part, err := header.Open()
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Errorf("open upload %s: %w", name, err))
			return
		}
		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Errorf("read upload %s: %w", name, err))
			return
		}
		files = append(files, rag.IngestFile{Name: name, Data: data})
		names = append(names, name)
	}

	logger.Info("api: ingest requested", "files", len(files))
	result, err := s.service.Ingest(ctx, files)
	if err != nil {
		logger.Error("api: ingest failed", "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("error processing documents: %w", err))
		return
	}
	logger.Info("api: ingest succeeded", "documents", result.Documents, "chunks", result.Chunks)
	writeJSON(w, http.StatusOK, uploadResponse{
		Message:        fmt.Sprintf("Successfully processed %d documents into %d chunks!", result.Documents, result.Chunks),
		DocumentCount:  result.Documents,
		NodeCount:      result.Chunks,
		FilesProcessed: names,
	})
}
