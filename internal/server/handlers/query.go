package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/restaurantlens/restaurantlens/internal/server/response"
	"github.com/restaurantlens/restaurantlens/pkg/logger"
	"github.com/restaurantlens/restaurantlens/pkg/rag"
	"github.com/restaurantlens/restaurantlens/pkg/sentiment"
)

// QueryHandler handles question answering requests
type QueryHandler struct {
	engine *rag.Engine
	logger *logger.Logger
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(engine *rag.Engine, log *logger.Logger) *QueryHandler {
	if log == nil {
		log = logger.GetDefault()
	}
	return &QueryHandler{
		engine: engine,
		logger: log.WithComponent("query-api"),
	}
}

// QueryRequest represents a question answering request
type QueryRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
	Language string `json:"language,omitempty"`
}

// Ask handles POST /api/v1/query
func (h *QueryHandler) Ask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.WriteError(w, getRequestID(r), http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	rw := response.NewResponseWriter(w, getRequestID(r))

	if h.engine == nil {
		rw.ServiceUnavailable("Question answering is not configured", "start Ollama and restart the server")
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("Invalid JSON request", err.Error())
		return
	}

	answer, err := h.engine.Ask(r.Context(), req.Question, rag.AskOptions{
		TopK:     req.TopK,
		Language: req.Language,
	})
	if err != nil {
		h.writeQueryError(w, r, err)
		return
	}

	rw.Success(answer, nil)
}

func (h *QueryHandler) writeQueryError(w http.ResponseWriter, r *http.Request, err error) {
	rw := response.NewResponseWriter(w, getRequestID(r))

	var re *rag.Error
	if errors.As(err, &re) {
		switch re.Type {
		case sentiment.ErrorTypeInput:
			rw.BadRequest(re.Message, nil)
		case sentiment.ErrorTypeMissingDependency:
			rw.FailedDependency(re.Message, re.Hint)
		default:
			rw.ServiceUnavailable(re.Message, re.Hint)
		}
		return
	}

	h.logger.WithContext(r.Context()).Error("query failed: %v", err)
	rw.InternalServerError("Failed to answer question", nil)
}
