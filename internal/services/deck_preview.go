package services

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"os"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"golang.org/x/image/font"

	"github.com/studyforge/studyforge-backend/internal/logger"
	"github.com/studyforge/studyforge-backend/internal/platform/gcs"
	"github.com/studyforge/studyforge-backend/internal/types"
)

const (
	previewWidth  = 1200
	previewHeight = 630
)

// DeckPreviewService renders a share-card PNG for a generated slide deck
// and uploads it to the preview bucket.
type DeckPreviewService interface {
	RenderAndUpload(ctx context.Context, userID uuid.UUID, slides []types.Slide) (string, error)
}

type deckPreviewService struct {
	log    *logger.Logger
	bucket gcs.BucketService

	titleFace font.Face
	bodyFace  font.Face
}

func NewDeckPreviewService(bucket gcs.BucketService, baseLog *logger.Logger) (DeckPreviewService, error) {
	if bucket == nil {
		return nil, fmt.Errorf("bucket service required")
	}
	serviceLog := baseLog.With("service", "DeckPreviewService")

	fontPath := os.Getenv("PREVIEW_FONT")
	if strings.TrimSpace(fontPath) == "" {
		return nil, fmt.Errorf("Env var PREVIEW_FONT is empty")
	}

	titleFace, err := loadFontFace(fontPath, 64)
	if err != nil {
		return nil, fmt.Errorf("could not load preview font: %w", err)
	}
	bodyFace, err := loadFontFace(fontPath, 32)
	if err != nil {
		return nil, fmt.Errorf("could not load preview font: %w", err)
	}

	return &deckPreviewService{
		log:       serviceLog,
		bucket:    bucket,
		titleFace: titleFace,
		bodyFace:  bodyFace,
	}, nil
}

func (s *deckPreviewService) RenderAndUpload(ctx context.Context, userID uuid.UUID, slides []types.Slide) (string, error) {
	if len(slides) == 0 {
		return "", fmt.Errorf("no slides to render")
	}

	buf, err := s.render(slides)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("deck_preview/%s/%d.png", userID.String(), time.Now().UnixNano())
	if err := s.bucket.UploadFile(ctx, gcs.BucketCategoryPreview, key, bytes.NewReader(buf.Bytes())); err != nil {
		return "", fmt.Errorf("failed to upload deck preview: %w", err)
	}
	return s.bucket.GetPublicURL(gcs.BucketCategoryPreview, key), nil
}

func (s *deckPreviewService) render(slides []types.Slide) (bytes.Buffer, error) {
	dc := gg.NewContext(previewWidth, previewHeight)

	dc.SetColor(color.NRGBA{R: 0x1f, G: 0x29, B: 0x37, A: 0xff})
	dc.DrawRectangle(0, 0, previewWidth, previewHeight)
	dc.Fill()

	title := strings.TrimSpace(slides[0].Title)
	if title == "" {
		title = "Study Deck"
	}

	dc.SetFontFace(s.titleFace)
	dc.SetColor(color.White)
	dc.DrawStringWrapped(title, previewWidth/2, previewHeight/2-60, 0.5, 0.5, previewWidth-160, 1.3, gg.AlignCenter)

	dc.SetFontFace(s.bodyFace)
	dc.SetColor(color.NRGBA{R: 0x9c, G: 0xa3, B: 0xaf, A: 0xff})
	footer := fmt.Sprintf("%d slides", len(slides))
	dc.DrawStringAnchored(footer, previewWidth/2, previewHeight-80, 0.5, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf, nil
}

func loadFontFace(fontPath string, size float64) (font.Face, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	face := truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	return face, nil
}
