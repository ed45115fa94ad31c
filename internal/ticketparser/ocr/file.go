package ocr

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// FileTranscriber ignores the image and returns the contents of a text file. It backs the
// fake-text mode used in development and demos; the file is re-read on every call.
type FileTranscriber struct {
	path string
}

func NewFileTranscriber(path string) *FileTranscriber {
	return &FileTranscriber{path: path}
}

func (f *FileTranscriber) Transcribe(_ context.Context, _ []byte, _ []string) (string, error) {
	if f.path == "" {
		return "", fmt.Errorf("fake text file is not configured")
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", fmt.Errorf("fake text file: %w", err)
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("fake text file %s is empty", f.path)
	}
	return text, nil
}

// NoopTranscriber stands in when no OCR backend is available. It always yields empty text.
type NoopTranscriber struct{}

func (NoopTranscriber) Transcribe(context.Context, []byte, []string) (string, error) {
	return "", nil
}
