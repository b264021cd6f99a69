// File path: internal/exact/index.go
package exact

import (
	"strings"

	"github.com/hybridrag/docqa/internal/common"
	"github.com/hybridrag/docqa/internal/docs"
)

const (
	// FuzzyThreshold is the minimum similarity ratio for a stored question
	// to count as a fuzzy-exact match.
	FuzzyThreshold = 0.95

	questionCap  = 300
	answerCap    = 1000
	sheetNameCap = 20
)

// MatchType classifies how a lookup succeeded.
type MatchType string

const (
	MatchExact MatchType = "exact"
	MatchFuzzy MatchType = "fuzzy_exact"
)

// Entry is a stored question/answer pair with its provenance.
type Entry struct {
	OriginalQuestion string            `json:"original_question"`
	OriginalAnswer   string            `json:"original_answer"`
	Source           string            `json:"source"`
	FileName         string            `json:"file_name"`
	PageNumber       int               `json:"page_number"`
	DocumentType     docs.DocumentType `json:"document_type"`
	SheetName        string            `json:"sheet_name,omitempty"`
}

// Match is a successful lookup result.
type Match struct {
	Entry      Entry
	Type       MatchType
	Similarity float64
}

// Index maps normalized question text to its stored answer. Build replaces
// the table wholesale; an Index is immutable once built, so readers need no
// locking.
type Index struct {
	entries map[string]Entry
	keys    []string
}

// Build constructs a fresh table from the qa_pair records of one ingestion
// batch. A later record with the same normalized question overwrites the
// earlier entry.
func Build(records []docs.Record) *Index {
	logger := common.Logger()
	idx := &Index{entries: make(map[string]Entry)}
	for _, record := range records {
		if record.Meta.Kind != docs.KindQAPair {
			continue
		}
		question := strings.TrimSpace(record.Meta.OriginalQuestion)
		answer := strings.TrimSpace(record.Meta.OriginalAnswer)
		if question == "" || answer == "" {
			continue
		}
		question = capWithEllipsis(question, questionCap)
		answer = capWithEllipsis(answer, answerCap)
		key := strings.ToLower(question)
		if _, exists := idx.entries[key]; !exists {
			idx.keys = append(idx.keys, key)
		}
		idx.entries[key] = Entry{
			OriginalQuestion: question,
			OriginalAnswer:   answer,
			Source:           record.Meta.Source,
			FileName:         record.Meta.FileName,
			PageNumber:       record.Meta.PageNumber,
			DocumentType:     record.Meta.DocumentType,
			SheetName:        truncateRunes(record.Meta.SheetName, sheetNameCap),
		}
	}
	logger.Info("exact: table built", "entries", len(idx.entries))
	return idx
}

// Len returns the number of stored pairs.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

// Lookup probes the table by normalized key equality, then falls back to a
// similarity scan over every stored question. The scan is linear; tables
// hold hundreds of pairs, not millions.
func (idx *Index) Lookup(question string) (Match, bool) {
	if idx == nil {
		return Match{}, false
	}
	logger := common.Logger()
	clean := strings.ToLower(strings.TrimSpace(question))
	if entry, ok := idx.entries[clean]; ok {
		logger.Info("exact: direct match", "question", truncateRunes(clean, 50))
		return Match{Entry: entry, Type: MatchExact, Similarity: 1.0}, true
	}
	bestRatio := 0.0
	bestKey := ""
	for _, key := range idx.keys {
		ratio := Ratio(clean, key)
		if ratio > bestRatio {
			bestRatio = ratio
			bestKey = key
		}
	}
	if bestKey != "" && bestRatio >= FuzzyThreshold {
		logger.Info("exact: fuzzy match", "question", truncateRunes(clean, 50), "similarity", bestRatio)
		return Match{Entry: idx.entries[bestKey], Type: MatchFuzzy, Similarity: bestRatio}, true
	}
	logger.Debug("exact: no match", "question", truncateRunes(clean, 50), "best_similarity", bestRatio)
	return Match{}, false
}

func capWithEllipsis(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit]) + "..."
}

func truncateRunes(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}
