package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/restaurantlens/restaurantlens/internal/server/response"
	"github.com/restaurantlens/restaurantlens/internal/services"
	"github.com/restaurantlens/restaurantlens/pkg/language"
	"github.com/restaurantlens/restaurantlens/pkg/logger"
	"github.com/restaurantlens/restaurantlens/pkg/sentiment"
)

// SentimentHandler handles ad-hoc sentiment analysis requests
type SentimentHandler struct {
	analysis *services.AnalysisService
	logger   *logger.Logger
}

// NewSentimentHandler creates a new sentiment handler
func NewSentimentHandler(analysis *services.AnalysisService, log *logger.Logger) *SentimentHandler {
	if log == nil {
		log = logger.GetDefault()
	}
	return &SentimentHandler{
		analysis: analysis,
		logger:   log.WithComponent("sentiment-api"),
	}
}

// AnalyzeRequest represents a sentiment analysis request. Aspect is
// optional; when set only the sentences mentioning it are scored.
type AnalyzeRequest struct {
	Text   string `json:"text"`
	Aspect string `json:"aspect,omitempty"`
}

// AnalyzeResponse represents a sentiment analysis response
type AnalyzeResponse struct {
	Label          string                       `json:"label"`
	LocalizedLabel string                       `json:"localized_label,omitempty"`
	Confidence     float64                      `json:"confidence"`
	Scores         sentiment.Scores             `json:"scores"`
	Subjectivity   float64                      `json:"subjectivity,omitempty"`
	Consensus      bool                         `json:"consensus"`
	Components     map[string]*sentiment.Result `json:"components"`
	Language       string                       `json:"language"`
	RTL            bool                         `json:"rtl,omitempty"`
	Aspect         *sentiment.AspectResult      `json:"aspect,omitempty"`
}

// Analyze handles POST /api/v1/sentiment
func (h *SentimentHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.WriteError(w, getRequestID(r), http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	rw := response.NewResponseWriter(w, getRequestID(r))

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("Invalid JSON request", err.Error())
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		rw.Error(http.StatusBadRequest, response.ErrorCodeEmptyText, "Text must not be empty", nil)
		return
	}

	scored, err := h.analysis.AnalyzeText(r.Context(), req.Text)
	if err != nil {
		h.writeSentimentError(w, r, err)
		return
	}

	label := string(scored.Result.Label)
	resp := &AnalyzeResponse{
		Label:          label,
		LocalizedLabel: language.LocalizeSentimentLabel(label, scored.Language),
		Confidence:     scored.Result.Confidence,
		Scores:         scored.Result.Scores,
		Subjectivity:   scored.Result.Subjectivity,
		Consensus:      scored.Result.Consensus,
		Components:     scored.Result.Components,
		Language:       scored.Language,
		RTL:            language.IsRTL(scored.Language),
	}

	if req.Aspect != "" {
		aspect, err := h.analysis.AnalyzeAspect(r.Context(), req.Text, req.Aspect)
		if err != nil {
			h.writeSentimentError(w, r, err)
			return
		}
		resp.Aspect = aspect
	}

	rw.Success(resp, nil)
}

func (h *SentimentHandler) writeSentimentError(w http.ResponseWriter, r *http.Request, err error) {
	rw := response.NewResponseWriter(w, getRequestID(r))

	var se *sentiment.Error
	if errors.As(err, &se) {
		switch se.Type {
		case sentiment.ErrorTypeInput:
			rw.BadRequest(se.Message, nil)
		case sentiment.ErrorTypeMissingDependency:
			rw.FailedDependency(se.Message, se.Hint)
		default:
			rw.ServiceUnavailable(se.Message, se.Hint)
		}
		return
	}

	h.logger.WithContext(r.Context()).Error("sentiment analysis failed: %v", err)
	rw.InternalServerError("Sentiment analysis failed", nil)
}
