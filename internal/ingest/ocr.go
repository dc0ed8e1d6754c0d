package ingest

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// OCRService shells out to the tesseract binary for image uploads.
type OCRService struct {
	tesseractPath string
}

func NewOCRService() *OCRService {
	path, _ := exec.LookPath("tesseract")
	if path == "" {
		path = "tesseract"
	}
	return &OCRService{tesseractPath: path}
}

func (o *OCRService) IsAvailable() bool {
	cmd := exec.Command(o.tesseractPath, "--version")
	return cmd.Run() == nil
}

// ExtractText runs OCR over raw image bytes and returns the recognized text.
func (o *OCRService) ExtractText(ctx context.Context, data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "ocr-*.img")
	if err != nil {
		return "", fmt.Errorf("create temp image: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp image: %w", err)
	}
	tmp.Close()

	cmd := exec.CommandContext(ctx, o.tesseractPath, tmp.Name(), "stdout", "-l", "eng")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("tesseract OCR: %w", err)
	}

	return strings.TrimSpace(string(output)), nil
}
