// File path: internal/rag/resolver.go
package rag

import (
	"context"

	"github.com/hybridrag/docqa/internal/common"
	"github.com/hybridrag/docqa/internal/docs"
	"github.com/hybridrag/docqa/internal/exact"
	"github.com/hybridrag/docqa/internal/llm"
)

const (
	// SemanticTopK and SemanticCutoff tune the fallback retrieval: a single
	// best match gated by a high similarity floor, trading recall for
	// precision. The cutoff is over embedding cosine similarity and is
	// independent of the exact-match fuzzy ratio threshold.
	SemanticTopK   = 1
	SemanticCutoff = 0.75
	NoAnswerText   = "No information available in our RAG system."
	apologyText    = "I apologize, but I encountered an error while processing your question. Please try again."

	groundedSystemPrompt = "You are a document question-answering assistant. " +
		"Answer using only the provided context passage. " +
		"If the passage does not contain the answer, say that no information is available."
)

// MatchType classifies how an answer was produced.
type MatchType string

const (
	MatchExact        MatchType = "exact"
	MatchFuzzyExact   MatchType = "fuzzy_exact"
	MatchSemanticHigh MatchType = "semantic_high"
	MatchNone         MatchType = "none"
)

// Citation points at the provenance of an answer.
type Citation struct {
	FileName         string    `json:"file_name"`
	PageNumber       int       `json:"page_number"`
	DocumentType     string    `json:"document_type"`
	Source           string    `json:"source"`
	MatchType        MatchType `json:"match_type"`
	SimilarityScore  *float64  `json:"similarity_score,omitempty"`
	OriginalQuestion string    `json:"original_question,omitempty"`
	OriginalAnswer   string    `json:"original_answer,omitempty"`
}

// Answer is the resolver output for one question.
type Answer struct {
	AnswerText     string     `json:"answer"`
	Sources        []Citation `json:"sources"`
	MatchType      MatchType  `json:"match_type"`
	ConversationID int        `json:"conversation_id"`
}

// resolve is the two-tier decision core. Priority 1 is exact or fuzzy-exact
// question reuse, answered verbatim. Priority 2 is the single best semantic
// match above the cutoff. Anything else, including an internal fault, yields
// a fixed answer with no citations; faults never escape this boundary.
func (s *Service) resolve(ctx context.Context, exactIndex *exact.Index, question string) (string, []Citation, MatchType) {
	logger := common.Logger()

	if match, ok := exactIndex.Lookup(question); ok {
		logger.Info("rag: priority 1 answered", "match_type", string(match.Type))
		return match.Entry.OriginalAnswer, []Citation{citationFromEntry(match)}, MatchType(match.Type)
	}

	logger.Debug("rag: priority 2 semantic search", "top_k", SemanticTopK)
	vectors, err := s.provider.Embed(ctx, []string{question})
	if err != nil || len(vectors) == 0 {
		logger.Error("rag: question embedding failed", "error", err, "retryable", llm.IsRetryable(err))
		return apologyText, []Citation{}, MatchNone
	}
	results, err := s.store.Search(ctx, vectors[0], SemanticTopK)
	if err != nil {
		logger.Error("rag: vector search failed", "error", err)
		return apologyText, []Citation{}, MatchNone
	}
	if len(results) == 0 {
		logger.Info("rag: no semantic matches")
		return NoAnswerText, []Citation{}, MatchNone
	}
	best := results[0]
	if best.Score < SemanticCutoff {
		logger.Info("rag: similarity below cutoff", "score", best.Score, "cutoff", SemanticCutoff)
		return NoAnswerText, []Citation{}, MatchNone
	}

	var answer string
	if best.Meta.Kind == docs.KindQAPair {
		// A retrieved Q&A pair keeps its stored answer verbatim.
		answer = best.Meta.OriginalAnswer
	} else {
		answer, err = s.generate(ctx, question, best.Text)
		if err != nil {
			logger.Error("rag: grounded generation failed", "error", err, "retryable", llm.IsRetryable(err))
			return apologyText, []Citation{}, MatchNone
		}
	}
	logger.Info("rag: priority 2 answered", "score", best.Score)
	score := best.Score
	citation := Citation{
		FileName:         best.Meta.FileName,
		PageNumber:       best.Meta.PageNumber,
		DocumentType:     string(best.Meta.DocumentType),
		Source:           best.Meta.Source,
		MatchType:        MatchSemanticHigh,
		SimilarityScore:  &score,
		OriginalQuestion: best.Meta.OriginalQuestion,
		OriginalAnswer:   best.Meta.OriginalAnswer,
	}
	return answer, []Citation{citation}, MatchSemanticHigh
}

// generate asks the chat model for an answer grounded only in the retrieved
// chunk text.
func (s *Service) generate(ctx context.Context, question, passage string) (string, error) {
	messages := []llm.Message{
		{Role: "system", Content: groundedSystemPrompt},
		{Role: "system", Content: "Context passage:\n" + passage},
		{Role: "user", Content: question},
	}
	return s.provider.Chat(ctx, messages)
}

func citationFromEntry(match exact.Match) Citation {
	score := match.Similarity
	return Citation{
		FileName:         match.Entry.FileName,
		PageNumber:       match.Entry.PageNumber,
		DocumentType:     string(match.Entry.DocumentType),
		Source:           match.Entry.Source,
		MatchType:        MatchType(match.Type),
		SimilarityScore:  &score,
		OriginalQuestion: match.Entry.OriginalQuestion,
		OriginalAnswer:   match.Entry.OriginalAnswer,
	}
}
