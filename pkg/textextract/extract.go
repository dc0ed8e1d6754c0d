// Package textextract turns uploaded file bytes into plain text, one entry
// per true page for paginated formats and a single synthetic page for flat
// ones.
package textextract

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupported reports a media type this package cannot parse. Raster
// images are handled by the OCR service, not here.
var ErrUnsupported = errors.New("unsupported file type")

type Page struct {
	Number int
	Text   string
}

type Result struct {
	Pages     []Page
	PageCount int
}

// FullText joins all page texts in page order.
func (r *Result) FullText() string {
	texts := make([]string, 0, len(r.Pages))
	for _, p := range r.Pages {
		texts = append(texts, p.Text)
	}
	return strings.Join(texts, "\n\n")
}

// Extract parses data according to its declared media type.
func Extract(data []byte, mediaType string) (*Result, error) {
	switch normalizeType(mediaType) {
	case "pdf":
		return extractPDF(data)
	case "xlsx":
		return extractXLSX(data)
	case "csv":
		return extractCSV(data)
	case "txt":
		return singlePage(string(bytes.TrimSpace(data))), nil
	case "docx":
		return extractDOCX(data)
	case "xls":
		return nil, fmt.Errorf("legacy .xls workbooks are not supported, convert to xlsx")
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, mediaType)
	}
}

// IsImage reports whether the media type is a raster image that should go
// through OCR instead of Extract.
func IsImage(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(mediaType), "image/")
}

func normalizeType(mediaType string) string {
	t := strings.ToLower(strings.TrimSpace(mediaType))
	switch t {
	case "application/pdf", ".pdf", "pdf":
		return "pdf"
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", ".xlsx", "xlsx":
		return "xlsx"
	case "application/vnd.ms-excel", ".xls", "xls":
		return "xls"
	case "text/csv", ".csv", "csv":
		return "csv"
	case "text/plain", ".txt", "txt":
		return "txt"
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document", ".docx", "docx":
		return "docx"
	}
	// Content types often arrive with charset suffixes.
	if strings.HasPrefix(t, "text/plain") {
		return "txt"
	}
	if strings.HasPrefix(t, "text/csv") {
		return "csv"
	}
	return t
}

func singlePage(text string) *Result {
	return &Result{
		Pages:     []Page{{Number: 1, Text: text}},
		PageCount: 1,
	}
}

func extractPDF(data []byte) (*Result, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}

	numPages := reader.NumPage()
	res := &Result{PageCount: numPages}
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the document.
			continue
		}
		res.Pages = append(res.Pages, Page{Number: i, Text: strings.TrimSpace(text)})
	}
	return res, nil
}

func extractXLSX(data []byte) (*Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	res := &Result{}
	for i, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		var sb strings.Builder
		sb.WriteString(sheet)
		sb.WriteString("\n")
		for _, row := range rows {
			sb.WriteString(strings.Join(row, "\t"))
			sb.WriteString("\n")
		}
		res.Pages = append(res.Pages, Page{Number: i + 1, Text: strings.TrimSpace(sb.String())})
	}
	res.PageCount = len(res.Pages)
	if res.PageCount == 0 {
		return singlePage(""), nil
	}
	return res, nil
}

func extractCSV(data []byte) (*Result, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	var sb strings.Builder
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		sb.WriteString(strings.Join(record, "\t"))
		sb.WriteString("\n")
	}
	return singlePage(strings.TrimSpace(sb.String())), nil
}

func extractDOCX(data []byte) (*Result, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open DOCX: %w", err)
	}

	for _, f := range reader.File {
		if filepath.Base(f.Name) != "document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open document.xml: %w", err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read document.xml: %w", err)
		}
		return singlePage(stripXMLTags(string(content))), nil
	}
	return nil, fmt.Errorf("document.xml not found in DOCX archive")
}

func stripXMLTags(s string) string {
	var result strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			result.WriteRune(' ')
		case !inTag:
			result.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(result.String()), " ")
}
