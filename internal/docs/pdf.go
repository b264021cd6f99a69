// File path: internal/docs/pdf.go
package docs

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/hybridrag/docqa/internal/common"
)

// extractPDF produces one passage record per page with extractable text.
// Pages whose text is empty after trimming are skipped and logged, not
// treated as errors.
func extractPDF(fileName string, data []byte) (records []Record, err error) {
	logger := common.Logger()
	// The underlying reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = &IngestError{FileName: fileName, Err: fmt.Errorf("corrupt pdf: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &IngestError{FileName: fileName, Err: fmt.Errorf("open pdf: %w", err)}
	}
	total := reader.NumPage()
	logger.Info("docs: processing pdf", "file", fileName, "pages", total)

	for pageNum := 1; pageNum <= total; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			logger.Warn("docs: missing pdf page", "file", fileName, "page", pageNum)
			continue
		}
		text, pageErr := page.GetPlainText(nil)
		if pageErr != nil {
			return nil, &IngestError{FileName: fileName, Err: fmt.Errorf("extract page %d: %w", pageNum, pageErr)}
		}
		if strings.TrimSpace(text) == "" {
			logger.Warn("docs: empty pdf page", "file", fileName, "page", pageNum)
			continue
		}
		records = append(records, Record{
			Text: text,
			Meta: Metadata{
				FileName:     fileName,
				DocumentType: DocumentPDF,
				Source:       fmt.Sprintf("%s_page_%d", fileName, pageNum),
				PageNumber:   pageNum,
				Kind:         KindPassage,
				TotalPages:   total,
			},
		})
	}
	return records, nil
}
