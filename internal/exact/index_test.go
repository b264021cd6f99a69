// File path: internal/exact/index_test.go
package exact

import (
	"strings"
	"testing"

	"github.com/hybridrag/docqa/internal/docs"
)

func qaRecord(question, answer, source string) docs.Record {
	return docs.Record{
		Text: "Question: " + question + "\nAnswer: " + answer,
		Meta: docs.Metadata{
			FileName:         "faq.csv",
			DocumentType:     docs.DocumentCSV,
			Source:           source,
			PageNumber:       1,
			Kind:             docs.KindQAPair,
			OriginalQuestion: question,
			OriginalAnswer:   answer,
		},
	}
}

func TestBuildSkipsNonQARecords(t *testing.T) {
	records := []docs.Record{
		{Text: "plain passage", Meta: docs.Metadata{Kind: docs.KindPassage}},
		qaRecord("What is Go?", "A programming language.", "faq.csv_row_2"),
	}
	idx := Build(records)
	if idx.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", idx.Len())
	}
}

func TestBuildCapsLongValues(t *testing.T) {
	longQuestion := strings.Repeat("q", 350)
	longAnswer := strings.Repeat("a", 1200)
	idx := Build([]docs.Record{qaRecord(longQuestion, longAnswer, "faq.csv_row_2")})

	match, ok := idx.Lookup(longQuestion[:300] + "...")
	if !ok {
		t.Fatal("expected the capped form of the question to be the stored key")
	}
	if got := len([]rune(match.Entry.OriginalQuestion)); got != 303 {
		t.Fatalf("expected question capped to 300 runes plus ellipsis, got %d", got)
	}
	if !strings.HasSuffix(match.Entry.OriginalQuestion, "...") {
		t.Fatal("expected capped question to end with ellipsis")
	}
	if got := len([]rune(match.Entry.OriginalAnswer)); got != 1003 {
		t.Fatalf("expected answer capped to 1000 runes plus ellipsis, got %d", got)
	}
}

func TestBuildLastWriteWins(t *testing.T) {
	idx := Build([]docs.Record{
		qaRecord("What is Go?", "first answer", "faq.csv_row_2"),
		qaRecord("what is go?", "second answer", "faq.csv_row_9"),
	})
	if idx.Len() != 1 {
		t.Fatalf("expected duplicate questions to collapse to one entry, got %d", idx.Len())
	}
	match, ok := idx.Lookup("WHAT IS GO?")
	if !ok {
		t.Fatal("expected a direct match")
	}
	if match.Entry.OriginalAnswer != "second answer" {
		t.Fatalf("expected later record to win, got %q", match.Entry.OriginalAnswer)
	}
	if match.Entry.Source != "faq.csv_row_9" {
		t.Fatalf("expected provenance of the later record, got %q", match.Entry.Source)
	}
}

func TestLookupDirectMatchNormalizes(t *testing.T) {
	idx := Build([]docs.Record{qaRecord("What is Go?", "A language.", "faq.csv_row_2")})
	match, ok := idx.Lookup("  WHAT IS GO?  ")
	if !ok {
		t.Fatal("expected case-insensitive, trimmed lookup to match")
	}
	if match.Type != MatchExact {
		t.Fatalf("expected exact match type, got %q", match.Type)
	}
	if match.Similarity != 1.0 {
		t.Fatalf("expected similarity 1.0, got %f", match.Similarity)
	}
}

func TestLookupFuzzyBoundary(t *testing.T) {
	idx := Build([]docs.Record{qaRecord("what is kubernetes 1", "An orchestrator.", "faq.csv_row_2")})

	// 2*19/40 = 0.95: exactly at the threshold, accepted.
	match, ok := idx.Lookup("what is kubernetes 2")
	if !ok {
		t.Fatal("expected a fuzzy match at the threshold")
	}
	if match.Type != MatchFuzzy {
		t.Fatalf("expected fuzzy match type, got %q", match.Type)
	}
	if match.Similarity < FuzzyThreshold {
		t.Fatalf("expected similarity >= %f, got %f", FuzzyThreshold, match.Similarity)
	}

	// 2*18/38 ~= 0.947: just below the threshold, rejected.
	if _, ok := idx.Lookup("what is kubernetes"); ok {
		t.Fatal("expected no match below the similarity threshold")
	}
}

func TestLookupFuzzyEarliestWinsTies(t *testing.T) {
	idx := Build([]docs.Record{
		qaRecord("what is kubernetes a", "first", "faq.csv_row_2"),
		qaRecord("what is kubernetes b", "second", "faq.csv_row_3"),
	})
	match, ok := idx.Lookup("what is kubernetes c")
	if !ok {
		t.Fatal("expected a fuzzy match")
	}
	if match.Entry.OriginalAnswer != "first" {
		t.Fatalf("expected the earliest stored question to win a tie, got %q", match.Entry.OriginalAnswer)
	}
}

func TestNilIndexLookup(t *testing.T) {
	var idx *Index
	if idx.Len() != 0 {
		t.Fatal("nil index should report zero entries")
	}
	if _, ok := idx.Lookup("anything"); ok {
		t.Fatal("nil index should never match")
	}
}
