package textextract

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractCSV(t *testing.T) {
	data := []byte("ticker,revenue\nXYZ123,100\nABC987,200\n")
	res, err := Extract(data, "text/csv")
	if err != nil {
		t.Fatalf("extract csv: %v", err)
	}
	if res.PageCount != 1 || len(res.Pages) != 1 {
		t.Fatalf("expected one synthetic page, got %d", res.PageCount)
	}
	if !strings.Contains(res.Pages[0].Text, "XYZ123\t100") {
		t.Fatalf("rows not flattened: %q", res.Pages[0].Text)
	}
}

func TestExtractPlainText(t *testing.T) {
	res, err := Extract([]byte("  quarterly results look strong  "), "text/plain; charset=utf-8")
	if err != nil {
		t.Fatalf("extract txt: %v", err)
	}
	if res.Pages[0].Text != "quarterly results look strong" {
		t.Fatalf("unexpected text: %q", res.Pages[0].Text)
	}
}

func TestExtractUnsupportedType(t *testing.T) {
	_, err := Extract([]byte("x"), "application/zip")
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestExtractLegacyXLS(t *testing.T) {
	_, err := Extract([]byte("x"), "application/vnd.ms-excel")
	if err == nil {
		t.Fatalf("expected error for legacy xls")
	}
	if errors.Is(err, ErrUnsupported) {
		t.Fatalf("xls should fail with a specific message, not ErrUnsupported")
	}
}

func TestFullTextJoinsPages(t *testing.T) {
	r := &Result{Pages: []Page{{1, "one"}, {2, "two"}}}
	if got := r.FullText(); got != "one\n\ntwo" {
		t.Fatalf("unexpected full text: %q", got)
	}
}

func TestIsImage(t *testing.T) {
	if !IsImage("image/png") || !IsImage("IMAGE/JPEG") {
		t.Fatalf("expected image types to be detected")
	}
	if IsImage("application/pdf") {
		t.Fatalf("pdf is not an image")
	}
}
