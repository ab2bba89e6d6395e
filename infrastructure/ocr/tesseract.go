// Package ocr extracts chat text from screenshots via the tesseract binary.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	cgerrors "chatguard/errors"

	"github.com/gabriel-vasile/mimetype"
)

var supportedMimeTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/webp": {},
	"image/bmp":  {},
	"image/tiff": {},
}

// Tesseract shells out to the tesseract CLI. The image is sniffed before
// anything is written to disk: wrong bytes fail fast and cheap.
type Tesseract struct {
	cmd      string
	language string
	log      *slog.Logger
}

func NewTesseract(cmd, language string, log *slog.Logger) *Tesseract {
	return &Tesseract{cmd: cmd, language: language, log: log}
}

// ExtractText runs OCR on one image. The image lands in a temp file because
// tesseract wants a path; stdout carries the recognized text.
func (t *Tesseract) ExtractText(ctx context.Context, image []byte) (string, error) {
	detected := mimetype.Detect(image)
	if _, ok := supportedMimeTypes[detected.String()]; !ok {
		return "", fmt.Errorf("%w: %s", cgerrors.ErrUnsupportedImage, detected.String())
	}

	file, err := os.CreateTemp("", "chatguard-ocr-*"+detected.Extension())
	if err != nil {
		return "", fmt.Errorf("temp image: %w", err)
	}
	defer func() {
		if err := os.Remove(file.Name()); err != nil {
			t.log.Warn("Unable to remove temp image", "path", file.Name(), "error", err)
		}
	}()

	if _, err := file.Write(image); err != nil {
		file.Close()
		return "", fmt.Errorf("write temp image: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close temp image: %w", err)
	}

	// "stdout" is a tesseract convention for writing to standard output.
	cmd := exec.CommandContext(ctx, t.cmd, file.Name(), "stdout", "-l", t.language)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract %s: %w: %s", filepath.Base(file.Name()), err, strings.TrimSpace(stderr.String()))
	}

	text := stdout.String()
	t.log.Debug("OCR finished", "mime", detected.String(), "chars", len(text))
	return text, nil
}
