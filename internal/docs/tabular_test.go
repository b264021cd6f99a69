// File path: internal/docs/tabular_test.go
package docs

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestLoadCSVPairsRows(t *testing.T) {
	data := []byte("Question,Answer\nWhat is Go?,A programming language.\nok,too short\nWhat is chi?,A router.\n")
	records, err := loadCSV("faq.csv", data)
	if err != nil {
		t.Fatalf("loadCSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	first := records[0]
	if first.Meta.Kind != KindQAPair {
		t.Fatalf("expected qa_pair kind, got %q", first.Meta.Kind)
	}
	if first.Meta.Source != "csv_row_1" {
		t.Fatalf("expected source csv_row_1, got %q", first.Meta.Source)
	}
	if first.Meta.PageNumber != 1 {
		t.Fatalf("expected row number 1, got %d", first.Meta.PageNumber)
	}
	if first.Text != "Question: What is Go?\nAnswer: A programming language." {
		t.Fatalf("unexpected record text %q", first.Text)
	}
	// The skipped short row does not consume a row number for later rows.
	if records[1].Meta.Source != "csv_row_3" {
		t.Fatalf("expected source csv_row_3 for the third data row, got %q", records[1].Meta.Source)
	}
}

func TestLoadCSVRowFilter(t *testing.T) {
	// Cells under three runes are dropped; exactly three survive.
	data := []byte("Question,Answer\nok,yes\noks,yea\n")
	records, err := loadCSV("faq.csv", data)
	if err != nil {
		t.Fatalf("loadCSV: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Meta.OriginalQuestion != "oks" {
		t.Fatalf("expected the three-rune row to survive, got %q", records[0].Meta.OriginalQuestion)
	}
}

func TestLoadCSVNoDataRows(t *testing.T) {
	_, err := loadCSV("faq.csv", []byte("Question,Answer\n"))
	var ingestErr *IngestError
	if !errors.As(err, &ingestErr) {
		t.Fatalf("expected IngestError, got %v", err)
	}
	if ingestErr.FileName != "faq.csv" {
		t.Fatalf("expected file name in error, got %q", ingestErr.FileName)
	}
}

func TestLoadCSVSingleColumn(t *testing.T) {
	_, err := loadCSV("faq.csv", []byte("Notes\nsomething\n"))
	if err == nil {
		t.Fatal("expected an error when no question/answer columns exist")
	}
}

func TestLoadCSVRaggedRows(t *testing.T) {
	data := []byte("Question,Answer\nWhat is Go?,A language.\nlonely cell\n")
	records, err := loadCSV("faq.csv", data)
	if err != nil {
		t.Fatalf("loadCSV: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected the short row to be skipped, got %d records", len(records))
	}
}

func TestDetectKeywordColumns(t *testing.T) {
	cases := []struct {
		name    string
		columns []string
		qCol    int
		aCol    int
		ok      bool
	}{
		{"english", []string{"My Question", "The Answer"}, 0, 1, true},
		{"reversed", []string{"Response Text", "Question Text"}, 1, 0, true},
		{"arabic", []string{"سؤال", "جواب"}, 0, 1, true},
		{"missing answer", []string{"question"}, 0, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			qCol, aCol, ok := detectKeyword(tc.columns)
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v", tc.ok, ok)
			}
			if !ok {
				return
			}
			if qCol != tc.qCol || aCol != tc.aCol {
				t.Fatalf("expected columns (%d, %d), got (%d, %d)", tc.qCol, tc.aCol, qCol, aCol)
			}
		})
	}
}

func TestDetectColumnsPrecedence(t *testing.T) {
	// With two or more columns the positional strategy always wins.
	_, _, strategy, ok := detectColumns([]string{"Answer", "Question"})
	if !ok {
		t.Fatal("expected detection to succeed")
	}
	if strategy != "positional" {
		t.Fatalf("expected positional strategy first, got %q", strategy)
	}
}

func TestIsHeaderRow(t *testing.T) {
	if !isHeaderRow([]string{"Question", "Answer"}) {
		t.Fatal("expected a question header row to be recognized")
	}
	if !isHeaderRow([]string{"anything", "جواب"}) {
		t.Fatal("expected an answer header in the second cell to be recognized")
	}
	if isHeaderRow([]string{"What is Go?", "A language."}) {
		t.Fatal("expected a data row not to be treated as a header")
	}
}

func buildWorkbook(t *testing.T, sheets map[string][][]string, order []string) []byte {
	t.Helper()
	book := excelize.NewFile()
	for idx, name := range order {
		if idx == 0 {
			if err := book.SetSheetName("Sheet1", name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else {
			if _, err := book.NewSheet(name); err != nil {
				t.Fatalf("create sheet: %v", err)
			}
		}
		for rowIdx, row := range sheets[name] {
			for colIdx, value := range row {
				cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
				if err != nil {
					t.Fatalf("cell name: %v", err)
				}
				if err := book.SetCellValue(name, cell, value); err != nil {
					t.Fatalf("set cell: %v", err)
				}
			}
		}
	}
	var buf bytes.Buffer
	if err := book.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestLoadExcelFirstMatchingSheetWins(t *testing.T) {
	data := buildWorkbook(t, map[string][][]string{
		"Empty": {},
		"Junk":  {{"x", "y"}, {"a", "b"}},
		"FAQ": {
			{"Question", "Answer"},
			{"What is Go?", "A programming language."},
			{"What is chi?", "A router."},
		},
		"More": {
			{"Question", "Answer"},
			{"Should not appear", "later sheets are skipped"},
		},
	}, []string{"Empty", "Junk", "FAQ", "More"})

	records, err := loadExcel("faq.xlsx", data)
	if err != nil {
		t.Fatalf("loadExcel: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records from the first matching sheet, got %d", len(records))
	}
	for _, record := range records {
		if record.Meta.SheetName != "FAQ" {
			t.Fatalf("expected sheet FAQ, got %q", record.Meta.SheetName)
		}
		if record.Meta.DocumentType != DocumentExcel {
			t.Fatalf("expected excel document type, got %q", record.Meta.DocumentType)
		}
		if strings.Contains(record.Text, "Should not appear") {
			t.Fatal("records from a later sheet leaked into the result")
		}
	}
	if records[0].Meta.Source != "excel_row_1" {
		t.Fatalf("expected source excel_row_1, got %q", records[0].Meta.Source)
	}
}

func TestLoadExcelNoValidSheets(t *testing.T) {
	data := buildWorkbook(t, map[string][][]string{
		"Sheet": {{"a", "b"}},
	}, []string{"Sheet"})
	_, err := loadExcel("faq.xlsx", data)
	var ingestErr *IngestError
	if !errors.As(err, &ingestErr) {
		t.Fatalf("expected IngestError, got %v", err)
	}
}

func TestLoadExcelGarbageBytes(t *testing.T) {
	if _, err := loadExcel("faq.xlsx", []byte("not a workbook")); err == nil {
		t.Fatal("expected an error for non-workbook bytes")
	}
}
