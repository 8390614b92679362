package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/studyforge/studyforge-backend/internal/logger"
	"github.com/studyforge/studyforge-backend/internal/platform/tts"
	"github.com/studyforge/studyforge-backend/internal/services"
	"github.com/studyforge/studyforge-backend/internal/utils"
)

type NarrationHandler struct {
	log       *logger.Logger
	narration services.NarrationService

	// Applied when the request leaves speaking_rate unset.
	defaultRate float64
}

func NewNarrationHandler(log *logger.Logger, narration services.NarrationService) *NarrationHandler {
	return &NarrationHandler{
		log:         log.With("handler", "NarrationHandler"),
		narration:   narration,
		defaultRate: utils.GetEnvAsFloat("TTS_SPEAKING_RATE", 1.0, log),
	}
}

type narrationRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
	Script string    `json:"script" binding:"required"`

	Language     string  `json:"language"`
	Voice        string  `json:"voice"`
	SpeakingRate float64 `json:"speaking_rate"`
}

type narrationResponse struct {
	AudioURL   string `json:"audio_url"`
	PieceCount int    `json:"piece_count"`
	Characters int    `json:"characters"`
}

// POST /api/narrations
func (h *NarrationHandler) Synthesize(c *gin.Context) {
	var req narrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	rate := req.SpeakingRate
	if rate <= 0 {
		rate = h.defaultRate
	}
	res, err := h.narration.SynthesizeScript(c.Request.Context(), req.UserID, req.Script, tts.VoiceConfig{
		LanguageCode: req.Language,
		VoiceName:    req.Voice,
		SpeakingRate: rate,
	})
	if err != nil {
		RespondFault(c, err)
		return
	}

	RespondOK(c, narrationResponse{
		AudioURL:   res.AudioURL,
		PieceCount: res.PieceCount,
		Characters: res.Characters,
	})
}
