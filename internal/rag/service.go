// File path: internal/rag/service.go
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hybridrag/docqa/internal/catalog"
	"github.com/hybridrag/docqa/internal/common"
	"github.com/hybridrag/docqa/internal/convo"
	"github.com/hybridrag/docqa/internal/docs"
	"github.com/hybridrag/docqa/internal/exact"
	"github.com/hybridrag/docqa/internal/llm"
	"github.com/hybridrag/docqa/internal/vector"
)

const embedBatchSize = 100

var (
	// ErrNotReady means Ask was called before any successful ingestion.
	ErrNotReady = errors.New("no documents ingested yet")
	// ErrEmptyQuestion is a boundary validation failure; it never reaches
	// the resolver and never appends conversation turns.
	ErrEmptyQuestion = errors.New("question cannot be empty")
	// ErrNoDocuments means an entire upload batch yielded zero records.
	ErrNoDocuments = errors.New("no documents could be processed")
)

// Service owns the two indexes the hybrid resolver queries and the
// conversation log. It is constructed once at startup and shared by every
// request handler; there are no package-level globals.
type Service struct {
	provider llm.Provider
	store    vector.Store
	catalog  *catalog.Store
	log      *convo.Log

	// mu guards the index pair as one unit: queries observe either the
	// fully-old or fully-new state, never a mix mid-swap.
	mu    sync.RWMutex
	exact *exact.Index
	ready bool
}

// IngestFile is one uploaded file with its raw bytes.
type IngestFile struct {
	Name string
	Data []byte
}

// IngestResult reports what a batch produced.
type IngestResult struct {
	Documents int                  `json:"document_count"`
	Chunks    int                  `json:"node_count"`
	QAPairs   int                  `json:"qa_pairs"`
	Files     []catalog.FileResult `json:"files_processed"`
}

func New(provider llm.Provider, store vector.Store, cat *catalog.Store, log *convo.Log) *Service {
	if log == nil {
		log = convo.NewLog()
	}
	return &Service{provider: provider, store: store, catalog: cat, log: log}
}

// Ingest normalizes and chunks an upload batch, rebuilds the exact-match
// table, and replaces the vector index content. Per-file failures are
// recorded and skipped; the batch fails only when no file yields records or
// when embedding or the vector store fails after chunking.
func (s *Service) Ingest(ctx context.Context, files []IngestFile) (IngestResult, error) {
	logger := common.Logger()
	var allRecords []docs.Record
	results := make([]catalog.FileResult, 0, len(files))
	for _, file := range files {
		docType, ok := docs.TypeForFile(file.Name)
		if !ok {
			// The boundary rejects unsupported extensions; reaching here
			// means a caller bypassed it, so record and skip.
			results = append(results, catalog.FileResult{FileName: file.Name, Error: "unsupported file type"})
			continue
		}
		logger.Info("rag: processing file", "file", file.Name, "type", docType)
		records, err := docs.Normalize(file.Name, file.Data, docType)
		if err != nil {
			logger.Error("rag: file normalization failed", "file", file.Name, "error", err)
			results = append(results, catalog.FileResult{FileName: file.Name, DocumentType: string(docType), Error: err.Error()})
			continue
		}
		allRecords = append(allRecords, records...)
		results = append(results, catalog.FileResult{FileName: file.Name, DocumentType: string(docType), Records: len(records)})
	}
	if len(allRecords) == 0 {
		return IngestResult{Files: results}, ErrNoDocuments
	}
	logger.Info("rag: batch normalized", "documents", len(allRecords))

	newExact := exact.Build(allRecords)
	chunks, outcomes := docs.BuildChunks(allRecords)
	for _, outcome := range outcomes {
		if outcome.Status != docs.ChunkOK {
			logger.Warn("rag: degraded chunk outcome", "source", outcome.Source, "status", outcome.Status.String(), "reason", outcome.Reason)
		}
	}
	if len(chunks) == 0 {
		return IngestResult{Files: results}, ErrNoDocuments
	}

	vectors, err := s.embedAll(ctx, chunks)
	if err != nil {
		return IngestResult{Files: results}, fmt.Errorf("embed batch: %w", err)
	}
	if err := s.store.Reset(ctx); err != nil {
		return IngestResult{Files: results}, fmt.Errorf("reset vector index: %w", err)
	}
	if err := s.store.Upsert(ctx, chunks, vectors); err != nil {
		return IngestResult{Files: results}, fmt.Errorf("upsert chunks: %w", err)
	}

	s.mu.Lock()
	s.exact = newExact
	s.ready = true
	s.mu.Unlock()

	result := IngestResult{
		Documents: len(allRecords),
		Chunks:    len(chunks),
		QAPairs:   newExact.Len(),
		Files:     results,
	}
	if s.catalog != nil {
		batch := catalog.Batch{
			CreatedAt: time.Now().UTC(),
			Documents: result.Documents,
			Chunks:    result.Chunks,
			QAPairs:   result.QAPairs,
			Files:     results,
		}
		if _, err := s.catalog.RecordBatch(ctx, batch); err != nil {
			logger.Warn("rag: catalog record failed", "error", err)
		}
	}
	logger.Info("rag: ingestion complete", "documents", result.Documents, "chunks", result.Chunks, "qa_pairs", result.QAPairs)
	return result, nil
}

func (s *Service) embedAll(ctx context.Context, chunks []docs.Chunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, chunk := range chunks[start:end] {
			texts = append(texts, chunk.Text)
		}
		batch, err := s.provider.Embed(ctx, texts)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// Ask runs the hybrid resolution for one question. Validation failures and
// an uninitialized index return errors without touching the conversation
// log; every resolved question, including no-match and fault branches,
// appends exactly one user and one assistant turn.
func (s *Service) Ask(ctx context.Context, question string) (Answer, error) {
	trimmed := strings.TrimSpace(question)
	if trimmed == "" {
		return Answer{}, ErrEmptyQuestion
	}
	s.mu.RLock()
	ready := s.ready
	exactIndex := s.exact
	s.mu.RUnlock()
	if !ready {
		return Answer{}, ErrNotReady
	}
	text, sources, matchType := s.resolve(ctx, exactIndex, trimmed)
	id := s.log.AppendExchange(trimmed, text)
	return Answer{
		AnswerText:     text,
		Sources:        sources,
		MatchType:      matchType,
		ConversationID: id,
	}, nil
}

// History returns a copy of the conversation turns in order.
func (s *Service) History() []convo.Turn {
	return s.log.History()
}

// ResetConversation empties the conversation log.
func (s *Service) ResetConversation() {
	s.log.Clear()
	common.Logger().Info("rag: conversation history cleared")
}

// Ready reports whether a batch has been ingested.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// ExactPairs returns the current exact-match table size.
func (s *Service) ExactPairs() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exact.Len()
}

// ConversationLen returns the current turn count.
func (s *Service) ConversationLen() int {
	return s.log.Len()
}

// ProviderName identifies the configured provider.
func (s *Service) ProviderName() string {
	if s.provider == nil {
		return "none"
	}
	return s.provider.Name()
}

// Catalog exposes the ingestion catalog, which may be nil.
func (s *Service) Catalog() *catalog.Store {
	return s.catalog
}
