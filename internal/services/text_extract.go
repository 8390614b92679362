package services

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/studyforge/studyforge-backend/internal/logger"
	"github.com/studyforge/studyforge-backend/internal/pkg/fault"
	"github.com/studyforge/studyforge-backend/internal/textsplit"
)

// ErrEmptyDocument marks uploads that contain no usable text after
// normalization.
var ErrEmptyDocument = fault.Errorf(fault.KindInputInvalid, "document contains no usable text")

// TextExtractService turns an uploaded file into normalized plain text.
type TextExtractService interface {
	Extract(ctx context.Context, filename string, data []byte) (string, error)
}

type textExtractService struct {
	log *logger.Logger
}

func NewTextExtractService(baseLog *logger.Logger) TextExtractService {
	return &textExtractService{log: baseLog.With("service", "TextExtractService")}
}

func (s *textExtractService) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt", ".md", ".markdown", "":
	default:
		return "", fault.Errorf(fault.KindInputInvalid, "unsupported file type %q", ext)
	}
	if len(data) == 0 {
		return "", ErrEmptyDocument
	}

	text := textsplit.Normalize(string(data))
	if text == "" {
		return "", ErrEmptyDocument
	}

	s.log.Debug("extracted text", "filename", filename, "characters", len([]rune(text)))
	return text, nil
}
