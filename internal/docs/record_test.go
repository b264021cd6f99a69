// File path: internal/docs/record_test.go
package docs

import (
	"errors"
	"testing"
)

func TestTypeForFile(t *testing.T) {
	cases := []struct {
		name    string
		docType DocumentType
		ok      bool
	}{
		{"report.pdf", DocumentPDF, true},
		{"REPORT.PDF", DocumentPDF, true},
		{"faq.csv", DocumentCSV, true},
		{"book.xlsx", DocumentExcel, true},
		{"legacy.xls", DocumentExcel, true},
		{"notes.txt", "", false},
		{"noextension", "", false},
	}
	for _, tc := range cases {
		docType, ok := TypeForFile(tc.name)
		if ok != tc.ok || docType != tc.docType {
			t.Fatalf("%s: expected (%q, %v), got (%q, %v)", tc.name, tc.docType, tc.ok, docType, ok)
		}
	}
}

func TestNormalizeUnknownType(t *testing.T) {
	_, err := Normalize("notes.txt", []byte("text"), "word")
	var ingestErr *IngestError
	if !errors.As(err, &ingestErr) {
		t.Fatalf("expected IngestError, got %v", err)
	}
}

func TestExtractPDFGarbageBytes(t *testing.T) {
	_, err := extractPDF("broken.pdf", []byte("definitely not a pdf"))
	var ingestErr *IngestError
	if !errors.As(err, &ingestErr) {
		t.Fatalf("expected IngestError for garbage bytes, got %v", err)
	}
	if ingestErr.FileName != "broken.pdf" {
		t.Fatalf("expected the file name in the error, got %q", ingestErr.FileName)
	}
}

func TestIngestErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &IngestError{FileName: "f.csv", Err: inner}
	if !errors.Is(err, inner) {
		t.Fatal("expected Unwrap to expose the inner error")
	}
}
