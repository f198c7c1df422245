package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/restaurantlens/restaurantlens/internal/database"
	"github.com/restaurantlens/restaurantlens/internal/database/models"
	"github.com/restaurantlens/restaurantlens/pkg/embeddings"
	"github.com/restaurantlens/restaurantlens/pkg/logger"
	"github.com/restaurantlens/restaurantlens/pkg/reviews"
)

// DocumentIndexer pushes documents into the vector store.
// *embeddings.Indexer satisfies this.
type DocumentIndexer interface {
	IndexDocuments(ctx context.Context, docs []embeddings.Document) error
}

// UploadResult summarizes one CSV upload
type UploadResult struct {
	UploadID  uuid.UUID `json:"upload_id"`
	Total     int       `json:"total"`
	Scored    int       `json:"scored"`
	Skipped   int       `json:"skipped"`
	Indexed   int       `json:"indexed"`
	Persisted bool      `json:"persisted"`
	Summary   *Summary  `json:"summary"`
	Elapsed   int64     `json:"elapsed_ms"`
}

// IngestService runs the full upload pipeline: parse, score, persist, index.
// The database store and the indexer are both optional.
type IngestService struct {
	analysis *AnalysisService
	store    *database.Store
	indexer  DocumentIndexer
	log      *logger.Logger

	mu     sync.RWMutex
	cached []*models.Review
}

// NewIngestService creates an ingest service. store and indexer may be nil.
func NewIngestService(analysis *AnalysisService, store *database.Store, indexer DocumentIndexer, log *logger.Logger) (*IngestService, error) {
	if analysis == nil {
		return nil, fmt.Errorf("analysis service is required")
	}
	if log == nil {
		log = logger.GetDefault()
	}

	return &IngestService{
		analysis: analysis,
		store:    store,
		indexer:  indexer,
		log:      log.WithComponent("ingest"),
	}, nil
}

// UploadCSV parses, scores, persists, and indexes a review CSV stream
func (s *IngestService) UploadCSV(ctx context.Context, r io.Reader, opts reviews.ReaderOptions) (*UploadResult, error) {
	start := time.Now()

	reader, err := reviews.NewReader(io.NopCloser(r), opts)
	if err != nil {
		return nil, err
	}

	records, err := reviews.ReadAll(ctx, reader)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no usable review rows found")
	}

	scored, err := s.analysis.AnalyzeRecords(ctx, records)
	if err != nil {
		return nil, err
	}

	uploadID := uuid.New()
	rows := ToModels(scored, uploadID)

	result := &UploadResult{
		UploadID: uploadID,
		Total:    reader.RowsRead(),
		Scored:   len(scored),
		Skipped:  reader.Skipped() + (len(records) - len(scored)),
		Summary:  Summarize(scored),
	}

	if s.store != nil {
		if err := s.store.SaveReviews(ctx, rows); err != nil {
			return nil, fmt.Errorf("failed to persist reviews: %w", err)
		}
		result.Persisted = true
	}

	// Row IDs are content-derived, so a re-upload replaces cached rows
	// instead of duplicating them.
	s.mu.Lock()
	index := make(map[uuid.UUID]int, len(s.cached))
	for i, row := range s.cached {
		index[row.ID] = i
	}
	for _, row := range rows {
		if i, ok := index[row.ID]; ok {
			s.cached[i] = row
		} else {
			index[row.ID] = len(s.cached)
			s.cached = append(s.cached, row)
		}
	}
	s.mu.Unlock()

	if s.indexer != nil {
		docs := ToDocuments(scored)
		if err := s.indexer.IndexDocuments(ctx, docs); err != nil {
			return nil, fmt.Errorf("failed to index reviews: %w", err)
		}
		result.Indexed = len(docs)
	}

	result.Elapsed = time.Since(start).Milliseconds()
	s.log.Info("upload complete: upload_id=%s scored=%d skipped=%d indexed=%d",
		uploadID, result.Scored, result.Skipped, result.Indexed)
	return result, nil
}

// ListReviews returns stored reviews. It reads the database when one is
// configured and falls back to the in-memory cache of this process.
func (s *IngestService) ListReviews(ctx context.Context, filter database.ReviewFilter) ([]*models.Review, int64, error) {
	if s.store != nil {
		return s.store.ListReviews(ctx, filter)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.Review, 0, len(s.cached))
	for _, row := range s.cached {
		if filter.Sentiment != "" && row.Sentiment != filter.Sentiment {
			continue
		}
		if filter.Language != "" && row.Language != filter.Language {
			continue
		}
		if filter.MinRating > 0 && row.Rating < filter.MinRating {
			continue
		}
		if filter.MaxRating > 0 && row.Rating > filter.MaxRating {
			continue
		}
		if filter.MinConfidence > 0 && row.Confidence < filter.MinConfidence {
			continue
		}
		if filter.UploadID != uuid.Nil && row.UploadID != filter.UploadID {
			continue
		}
		matched = append(matched, row)
	}

	total := int64(len(matched))

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].RowNum < matched[j].RowNum
	})

	offset := filter.Offset
	if offset > len(matched) {
		offset = len(matched)
	}
	matched = matched[offset:]

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit < len(matched) {
		matched = matched[:limit]
	}

	return matched, total, nil
}

// Summarize aggregates sentiment over stored reviews
func (s *IngestService) Summarize(ctx context.Context) (*database.ReviewSummary, error) {
	if s.store != nil {
		return s.store.Summarize(ctx)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := &database.ReviewSummary{
		BySentiment: make(map[string]int64),
		ByLanguage:  make(map[string]int64),
		TopAspects:  make(map[string]int64),
	}
	if len(s.cached) == 0 {
		return summary, nil
	}

	var ratingSum, confidenceSum float64
	for _, row := range s.cached {
		summary.Total++
		summary.BySentiment[row.Sentiment]++
		summary.ByLanguage[row.Language]++
		for _, aspect := range strings.Split(row.Aspects, ",") {
			if aspect != "" {
				summary.TopAspects[aspect]++
			}
		}
		ratingSum += row.Rating
		confidenceSum += row.Confidence
	}
	summary.AvgRating = ratingSum / float64(summary.Total)
	summary.AvgConfidence = confidenceSum / float64(summary.Total)

	return summary, nil
}

// Documents rebuilds the indexable document set from stored reviews.
// Used by the scheduled reindex job.
func (s *IngestService) Documents(ctx context.Context) ([]embeddings.Document, error) {
	rows := s.snapshot()
	if s.store != nil {
		stored, _, err := s.store.ListReviews(ctx, database.ReviewFilter{Limit: 100000})
		if err != nil {
			return nil, err
		}
		rows = stored
	}

	docs := make([]embeddings.Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, embeddings.Document{
			ID:      fmt.Sprintf("review-%d", row.RowNum),
			Content: row.Title + " " + row.Content,
			Metadata: map[string]interface{}{
				"sentiment": row.Sentiment,
				"rating":    row.Rating,
				"row_num":   float64(row.RowNum),
				"language":  row.Language,
			},
		})
	}
	return docs, nil
}

func (s *IngestService) snapshot() []*models.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]*models.Review, len(s.cached))
	copy(rows, s.cached)
	return rows
}
