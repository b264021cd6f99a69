// File path: internal/docs/chunker.go
package docs

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/hybridrag/docqa/internal/common"
)

const (
	// ChunkSize bounds chunk text length; ChunkOverlap is carried from the
	// end of one chunk into the start of the next. Both are measured in
	// runes.
	ChunkSize    = 1024
	ChunkOverlap = 100

	// Minimal-metadata caps used on the degraded second attempt.
	minimalFileNameCap = 50
	minimalSourceCap   = 30
)

// ChunkStatus tags the outcome of chunking a single record.
type ChunkStatus int

const (
	ChunkOK ChunkStatus = iota
	ChunkDegraded
	ChunkDropped
)

func (s ChunkStatus) String() string {
	switch s {
	case ChunkOK:
		return "ok"
	case ChunkDegraded:
		return "degraded"
	case ChunkDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// ChunkOutcome records per-record chunking results so callers can observe
// degraded or dropped records without the batch aborting.
type ChunkOutcome struct {
	Source string
	Status ChunkStatus
	Chunks int
	Reason string
}

// BuildChunks splits records into bounded overlapping chunks. A record that
// fails chunking is retried once with a minimized metadata set; if that also
// fails the record is dropped and the batch continues.
func BuildChunks(records []Record) ([]Chunk, []ChunkOutcome) {
	logger := common.Logger()
	var chunks []Chunk
	outcomes := make([]ChunkOutcome, 0, len(records))
	for _, record := range records {
		produced, err := chunkRecord(record)
		if err == nil {
			chunks = append(chunks, produced...)
			outcomes = append(outcomes, ChunkOutcome{Source: record.Meta.Source, Status: ChunkOK, Chunks: len(produced)})
			continue
		}
		logger.Warn("docs: chunking failed, retrying with minimal metadata", "source", record.Meta.Source, "error", err)
		minimal := record
		minimal.Meta = minimalMetadata(record.Meta)
		produced, retryErr := chunkRecord(minimal)
		if retryErr == nil {
			chunks = append(chunks, produced...)
			outcomes = append(outcomes, ChunkOutcome{Source: record.Meta.Source, Status: ChunkDegraded, Chunks: len(produced), Reason: err.Error()})
			continue
		}
		logger.Error("docs: record dropped", "source", record.Meta.Source, "error", retryErr)
		outcomes = append(outcomes, ChunkOutcome{Source: record.Meta.Source, Status: ChunkDropped, Reason: retryErr.Error()})
	}
	return chunks, outcomes
}

func minimalMetadata(meta Metadata) Metadata {
	return Metadata{
		FileName:   capRunes(meta.FileName, minimalFileNameCap),
		PageNumber: meta.PageNumber,
		Source:     capRunes(meta.Source, minimalSourceCap),
	}
}

func capRunes(value string, limit int) string {
	runes := []rune(value)
	if limit <= 0 || len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}

func chunkRecord(record Record) ([]Chunk, error) {
	if strings.TrimSpace(record.Text) == "" {
		return nil, errors.New("record text empty")
	}
	if size := metadataLength(record.Meta); size >= ChunkSize {
		return nil, fmt.Errorf("metadata length %d exceeds chunk budget", size)
	}
	segments := splitText(record.Text, ChunkSize, ChunkOverlap)
	chunks := make([]Chunk, 0, len(segments))
	for _, segment := range segments {
		chunks = append(chunks, Chunk{
			ID:   uuid.NewString(),
			Text: segment,
			Meta: record.Meta,
		})
	}
	return chunks, nil
}

// metadataLength approximates how much of the chunk budget the metadata will
// consume when stored alongside the text.
func metadataLength(meta Metadata) int {
	total := len([]rune(meta.FileName)) + len([]rune(meta.Source)) + len([]rune(meta.SheetName))
	total += len([]rune(meta.OriginalQuestion)) + len([]rune(meta.OriginalAnswer))
	total += len(string(meta.DocumentType)) + len(string(meta.Kind))
	return total
}

// splitText packs sentences greedily into chunks of at most size runes,
// carrying overlap runes from the end of the previous chunk as a prefix. A
// text shorter than size yields exactly one chunk.
func splitText(text string, size, overlap int) []string {
	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) <= size {
		return []string{trimmed}
	}
	// A sentence longer than the budget is hard-split first so packing only
	// ever sees pieces that fit.
	var pieces []string
	for _, sentence := range splitSentences(trimmed) {
		runes := []rune(sentence)
		for len(runes) > size {
			pieces = append(pieces, string(runes[:size]))
			runes = runes[size:]
		}
		if len(runes) > 0 {
			pieces = append(pieces, string(runes))
		}
	}
	var out []string
	var current []rune
	for _, piece := range pieces {
		runes := []rune(piece)
		if len(current) > 0 && len(current)+1+len(runes) > size {
			out = append(out, strings.TrimSpace(string(current)))
			current = append(current[:0:0], overlapSuffix(current, overlap)...)
			if len(current)+1+len(runes) > size {
				current = current[:0]
			}
		}
		if len(current) > 0 {
			current = append(current, ' ')
		}
		current = append(current, runes...)
	}
	if chunk := strings.TrimSpace(string(current)); chunk != "" {
		out = append(out, chunk)
	}
	return out
}

// overlapSuffix returns the trailing overlap runes of the chunk, advanced to
// the next word boundary so the prefix does not begin mid-word.
func overlapSuffix(chunk []rune, overlap int) []rune {
	if overlap <= 0 || len(chunk) == 0 {
		return nil
	}
	start := len(chunk) - overlap
	if start <= 0 {
		start = 0
	} else {
		for start < len(chunk) && !unicode.IsSpace(chunk[start]) {
			start++
		}
		for start < len(chunk) && unicode.IsSpace(chunk[start]) {
			start++
		}
	}
	if start >= len(chunk) {
		return nil
	}
	suffix := make([]rune, len(chunk)-start)
	copy(suffix, chunk[start:])
	return suffix
}

// splitSentences breaks text at sentence-ending punctuation followed by
// whitespace, and at newlines. Punctuation stays attached to its sentence.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		boundary := false
		switch r {
		case '.', '!', '?':
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
				boundary = true
			}
		case '\n':
			boundary = true
		}
		if !boundary {
			continue
		}
		sentence := strings.TrimSpace(string(runes[start : i+1]))
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = i + 1
	}
	if start < len(runes) {
		sentence := strings.TrimSpace(string(runes[start:]))
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
	}
	return sentences
}
