package handlers

import (
	"net/http"
	"strconv"

	"github.com/restaurantlens/restaurantlens/internal/database"
	"github.com/restaurantlens/restaurantlens/internal/server/response"
	"github.com/restaurantlens/restaurantlens/internal/services"
	"github.com/restaurantlens/restaurantlens/pkg/logger"
	"github.com/restaurantlens/restaurantlens/pkg/ollama"
	"github.com/restaurantlens/restaurantlens/pkg/reviews"
)

// ReviewHandler handles review upload and listing requests
type ReviewHandler struct {
	ingest *services.IngestService
	logger *logger.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(ingest *services.IngestService, log *logger.Logger) *ReviewHandler {
	if log == nil {
		log = logger.GetDefault()
	}
	return &ReviewHandler{
		ingest: ingest,
		logger: log.WithComponent("reviews-api"),
	}
}

// Upload handles POST /api/v1/reviews/upload
func (h *ReviewHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.WriteError(w, getRequestID(r), http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.WriteBadRequest(w, getRequestID(r), "A CSV file is required in the 'file' form field", err.Error())
		return
	}
	defer file.Close()

	opts := reviews.DefaultReaderOptions()
	if delim := r.FormValue("delimiter"); delim != "" {
		opts.Delimiter = rune(delim[0])
	}
	if enc := r.FormValue("encoding"); enc != "" {
		opts.Encoding = enc
	}
	if maxStr := r.FormValue("max_rows"); maxStr != "" {
		if n, err := strconv.Atoi(maxStr); err == nil && n > 0 {
			opts.MaxRows = n
		}
	}

	h.logger.WithContext(r.Context()).Info("upload started: filename=%s size=%d", header.Filename, header.Size)

	result, err := h.ingest.UploadCSV(r.Context(), file, opts)
	if err != nil {
		h.writeUploadError(w, r, err)
		return
	}

	response.NewResponseWriter(w, getRequestID(r)).Created(result)
}

func (h *ReviewHandler) writeUploadError(w http.ResponseWriter, r *http.Request, err error) {
	rw := response.NewResponseWriter(w, getRequestID(r))

	if ollama.IsMissingModel(err) {
		rw.FailedDependency("Embedding model is not installed", "run restaurantlens-setup")
		return
	}
	if ollama.IsUnavailable(err) {
		rw.ServiceUnavailable("Embedding service is unreachable", "start Ollama and run restaurantlens-setup")
		return
	}

	h.logger.WithContext(r.Context()).Error("upload failed: %v", err)
	rw.Error(http.StatusBadRequest, response.ErrorCodeInvalidFileFormat, err.Error(), nil)
}

// List handles GET /api/v1/reviews
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.WriteError(w, getRequestID(r), http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	page, pageSize, offset := getPagination(r)

	filter := database.ReviewFilter{
		Sentiment: r.URL.Query().Get("sentiment"),
		Language:  r.URL.Query().Get("language"),
		Limit:     pageSize,
		Offset:    offset,
	}
	if minStr := r.URL.Query().Get("min_rating"); minStr != "" {
		if f, err := strconv.ParseFloat(minStr, 64); err == nil {
			filter.MinRating = f
		}
	}
	if maxStr := r.URL.Query().Get("max_rating"); maxStr != "" {
		if f, err := strconv.ParseFloat(maxStr, 64); err == nil {
			filter.MaxRating = f
		}
	}
	if confStr := r.URL.Query().Get("min_confidence"); confStr != "" {
		if f, err := strconv.ParseFloat(confStr, 64); err == nil {
			filter.MinConfidence = f
		}
	}

	rows, total, err := h.ingest.ListReviews(r.Context(), filter)
	if err != nil {
		h.logger.WithContext(r.Context()).Error("failed to list reviews: %v", err)
		response.WriteInternalServerError(w, getRequestID(r), "Failed to list reviews", nil)
		return
	}

	response.WritePaginated(w, getRequestID(r), rows, page, pageSize, total)
}

// Summary handles GET /api/v1/reviews/summary
func (h *ReviewHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.WriteError(w, getRequestID(r), http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	summary, err := h.ingest.Summarize(r.Context())
	if err != nil {
		h.logger.WithContext(r.Context()).Error("failed to summarize reviews: %v", err)
		response.WriteInternalServerError(w, getRequestID(r), "Failed to summarize reviews", nil)
		return
	}

	response.WriteSuccess(w, getRequestID(r), summary, nil)
}
