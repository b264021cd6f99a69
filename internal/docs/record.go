// File path: internal/docs/record.go
package docs

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DocumentType identifies the source format of an ingested file.
type DocumentType string

const (
	DocumentPDF   DocumentType = "pdf"
	DocumentCSV   DocumentType = "csv"
	DocumentExcel DocumentType = "excel"
)

// RecordKind distinguishes free-text passages from question/answer pairs.
type RecordKind string

const (
	KindPassage RecordKind = "passage"
	KindQAPair  RecordKind = "qa_pair"
)

// Metadata is the provenance attached to every record and inherited by every
// chunk derived from it.
type Metadata struct {
	FileName         string       `json:"file_name"`
	DocumentType     DocumentType `json:"document_type"`
	Source           string       `json:"source"`
	PageNumber       int          `json:"page_number"`
	Kind             RecordKind   `json:"record_kind"`
	SheetName        string       `json:"sheet_name,omitempty"`
	TotalPages       int          `json:"total_pages,omitempty"`
	OriginalQuestion string       `json:"original_question,omitempty"`
	OriginalAnswer   string       `json:"original_answer,omitempty"`
}

// Record is a unit of ingested content. Records live only for the duration
// of an ingestion batch; downstream state is built from chunks and the
// exact-match table.
type Record struct {
	Text string   `json:"text"`
	Meta Metadata `json:"metadata"`
}

// Chunk is a bounded text segment derived from exactly one record.
type Chunk struct {
	ID   string   `json:"id"`
	Text string   `json:"text"`
	Meta Metadata `json:"metadata"`
}

// IngestError reports a per-file normalization failure. The batch continues
// with the remaining files; the caller surfaces an error only when the whole
// batch yields zero records.
type IngestError struct {
	FileName string
	Err      error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.FileName, e.Err)
}

func (e *IngestError) Unwrap() error { return e.Err }

// SupportedExtensions lists the upload extensions accepted at the boundary.
func SupportedExtensions() []string {
	return []string{".pdf", ".csv", ".xlsx", ".xls"}
}

// TypeForFile maps a file name to its document type by extension.
func TypeForFile(name string) (DocumentType, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return DocumentPDF, true
	case ".csv":
		return DocumentCSV, true
	case ".xlsx", ".xls":
		return DocumentExcel, true
	default:
		return "", false
	}
}

// Normalize converts a source file into typed records. Dispatch is by the
// declared type so the boundary decides what a file is, not its bytes.
func Normalize(fileName string, data []byte, declared DocumentType) ([]Record, error) {
	switch declared {
	case DocumentPDF:
		return extractPDF(fileName, data)
	case DocumentCSV:
		return loadCSV(fileName, data)
	case DocumentExcel:
		return loadExcel(fileName, data)
	default:
		return nil, &IngestError{FileName: fileName, Err: fmt.Errorf("unsupported document type %q", declared)}
	}
}
