package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/studyforge/studyforge-backend/internal/logger"
	"github.com/studyforge/studyforge-backend/internal/services"
	"github.com/studyforge/studyforge-backend/internal/types"
)

type GenerateHandler struct {
	log       *logger.Logger
	pipeline  services.StudyMaterialService
	extractor services.TextExtractService
}

func NewGenerateHandler(log *logger.Logger, pipeline services.StudyMaterialService, extractor services.TextExtractService) *GenerateHandler {
	return &GenerateHandler{
		log:       log.With("handler", "GenerateHandler"),
		pipeline:  pipeline,
		extractor: extractor,
	}
}

type generateRequest struct {
	UserID   uuid.UUID `json:"user_id" binding:"required"`
	SourceID string    `json:"source_id" binding:"required"`
	Kind     string    `json:"kind" binding:"required"`
	Count    int       `json:"count" binding:"required"`

	// Either raw text, or a document to extract text from.
	Text     string `json:"text"`
	Filename string `json:"filename"`
	Document []byte `json:"document"` // base64 in JSON

	Difficulty string `json:"difficulty"`
	Language   string `json:"language"`
}

type generateResponse struct {
	Content types.ContentSet `json:"content"`
	Cached  bool             `json:"cached"`
	Model   string           `json:"model,omitempty"`

	ChunkCount     int `json:"chunk_count"`
	UnitsPlanned   int `json:"units_planned"`
	UnitsSucceeded int `json:"units_succeeded"`
	Shortfall      int `json:"shortfall"`
}

// POST /api/generate
func (h *GenerateHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	kind, err := types.ParseContentKind(req.Kind)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_kind", err)
		return
	}

	text := req.Text
	if text == "" && len(req.Document) > 0 {
		extracted, err := h.extractor.Extract(c.Request.Context(), req.Filename, req.Document)
		if err != nil {
			RespondFault(c, err)
			return
		}
		text = extracted
	}

	res, err := h.pipeline.Generate(c.Request.Context(), services.GenerateStudyAidsRequest{
		UserID:   req.UserID,
		SourceID: req.SourceID,
		Text:     text,
		Kind:     kind,
		Params: types.GenerationParams{
			Count:      req.Count,
			Difficulty: req.Difficulty,
			Language:   req.Language,
		},
	})
	if err != nil {
		if errors.Is(err, services.ErrRateLimited) && res != nil {
			setRateLimitHeaders(c, res.RateLimit)
			RespondError(c, http.StatusTooManyRequests, "rate_limited", err)
			return
		}
		RespondFault(c, err)
		return
	}

	setRateLimitHeaders(c, res.RateLimit)
	RespondOK(c, generateResponse{
		Content:        res.Set,
		Cached:         res.Cached,
		Model:          res.Model,
		ChunkCount:     res.ChunkCount,
		UnitsPlanned:   res.UnitsPlanned,
		UnitsSucceeded: res.UnitsSucceeded,
		Shortfall:      res.Shortfall,
	})
}

func setRateLimitHeaders(c *gin.Context, d services.RateLimitDecision) {
	if d.Limit == 0 {
		return
	}
	c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	if !d.ResetAt.IsZero() {
		c.Header("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
	}
}
