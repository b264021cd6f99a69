// File path: internal/docs/tabular.go
package docs

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hybridrag/docqa/internal/common"
)

const minCellLength = 3

// columnStrategy locates the question and answer columns in a header row.
// Strategies are pure and tried in fixed precedence order.
type columnStrategy struct {
	name   string
	detect func(columns []string) (qCol, aCol int, ok bool)
}

var tabularStrategies = []columnStrategy{
	{name: "positional", detect: detectPositional},
	{name: "keyword", detect: detectKeyword},
}

var (
	questionKeywords = []string{"question", "questions", "q", "سؤال", "استفسار"}
	answerKeywords   = []string{"answer", "answers", "a", "response", "جواب", "إجابة"}

	questionHeaders = []string{"question", "q", "سؤال"}
	answerHeaders   = []string{"answer", "a", "جواب", "إجابة"}
)

// detectPositional assumes the first two columns are question and answer.
func detectPositional(columns []string) (int, int, bool) {
	if len(columns) >= 2 {
		return 0, 1, true
	}
	return 0, 0, false
}

// detectKeyword scans column names case-insensitively for known
// question/answer keywords, including the Arabic synonyms the source data
// uses.
func detectKeyword(columns []string) (int, int, bool) {
	qCol, aCol := -1, -1
	for idx, col := range columns {
		name := strings.ToLower(strings.TrimSpace(col))
		if qCol < 0 && containsAny(name, questionKeywords) {
			qCol = idx
			continue
		}
		if aCol < 0 && containsAny(name, answerKeywords) {
			aCol = idx
		}
	}
	if qCol >= 0 && aCol >= 0 && qCol != aCol {
		return qCol, aCol, true
	}
	return 0, 0, false
}

func containsAny(name string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(name, keyword) {
			return true
		}
	}
	return false
}

func detectColumns(columns []string) (int, int, string, bool) {
	for _, strategy := range tabularStrategies {
		if qCol, aCol, ok := strategy.detect(columns); ok {
			return qCol, aCol, strategy.name, true
		}
	}
	return 0, 0, "", false
}

func loadCSV(fileName string, data []byte) ([]Record, error) {
	logger := common.Logger()
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &IngestError{FileName: fileName, Err: fmt.Errorf("parse csv: %w", err)}
	}
	if len(rows) < 2 {
		return nil, &IngestError{FileName: fileName, Err: errors.New("csv has no data rows")}
	}
	header := rows[0]
	qCol, aCol, strategy, ok := detectColumns(header)
	if !ok {
		logger.Warn("docs: no question/answer columns", "file", fileName, "columns", header)
		return nil, &IngestError{FileName: fileName, Err: errors.New("no question/answer columns detected")}
	}
	logger.Info("docs: processing csv", "file", fileName, "rows", len(rows)-1, "strategy", strategy)
	records := pairRows(fileName, DocumentCSV, "", rows[1:], qCol, aCol)
	if len(records) == 0 {
		return nil, &IngestError{FileName: fileName, Err: errors.New("no valid question/answer rows")}
	}
	return records, nil
}

// loadExcel scans sheets in file order and returns the pairs from the first
// sheet that yields at least one valid row. Later sheets are deliberately
// not processed once a sheet has matched.
func loadExcel(fileName string, data []byte) ([]Record, error) {
	logger := common.Logger()
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &IngestError{FileName: fileName, Err: fmt.Errorf("open workbook: %w", err)}
	}
	defer book.Close()

	for _, sheet := range book.GetSheetList() {
		rows, err := book.GetRows(sheet)
		if err != nil {
			logger.Warn("docs: sheet read failed", "file", fileName, "sheet", sheet, "error", err)
			continue
		}
		if len(rows) == 0 {
			logger.Warn("docs: empty sheet", "file", fileName, "sheet", sheet)
			continue
		}
		body := rows
		if isHeaderRow(rows[0]) {
			body = rows[1:]
		}
		records := pairRows(fileName, DocumentExcel, sheet, body, 0, 1)
		if len(records) > 0 {
			logger.Info("docs: loaded sheet", "file", fileName, "sheet", sheet, "pairs", len(records))
			return records, nil
		}
	}
	return nil, &IngestError{FileName: fileName, Err: errors.New("no valid question/answer rows in any sheet")}
}

// isHeaderRow reports whether the first data row textually matches the known
// header keywords and should be dropped before pairing.
func isHeaderRow(row []string) bool {
	if len(row) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(row[0]))
	for _, keyword := range questionHeaders {
		if first == keyword {
			return true
		}
	}
	if len(row) < 2 {
		return false
	}
	second := strings.ToLower(strings.TrimSpace(row[1]))
	for _, keyword := range answerHeaders {
		if second == keyword {
			return true
		}
	}
	return false
}

// pairRows applies the row validity filter and builds one qa_pair record per
// surviving row. Row numbering is 1-based over the data rows.
func pairRows(fileName string, docType DocumentType, sheetName string, rows [][]string, qCol, aCol int) []Record {
	var records []Record
	for idx, row := range rows {
		if qCol >= len(row) || aCol >= len(row) {
			continue
		}
		question := strings.TrimSpace(row[qCol])
		answer := strings.TrimSpace(row[aCol])
		if len([]rune(question)) < minCellLength || len([]rune(answer)) < minCellLength {
			continue
		}
		rowNum := idx + 1
		meta := Metadata{
			FileName:         fileName,
			DocumentType:     docType,
			Source:           fmt.Sprintf("%s_row_%d", docType, rowNum),
			PageNumber:       rowNum,
			Kind:             KindQAPair,
			OriginalQuestion: question,
			OriginalAnswer:   answer,
		}
		if sheetName != "" && len([]rune(sheetName)) < 50 {
			meta.SheetName = sheetName
		}
		records = append(records, Record{
			Text: fmt.Sprintf("Question: %s\nAnswer: %s", question, answer),
			Meta: meta,
		})
	}
	return records
}
