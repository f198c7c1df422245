// Package services wires the review pipeline together: scoring, language
// detection, persistence, and vector indexing.
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/restaurantlens/restaurantlens/internal/database/models"
	"github.com/restaurantlens/restaurantlens/pkg/embeddings"
	"github.com/restaurantlens/restaurantlens/pkg/language"
	"github.com/restaurantlens/restaurantlens/pkg/logger"
	"github.com/restaurantlens/restaurantlens/pkg/reviews"
	"github.com/restaurantlens/restaurantlens/pkg/sentiment"
)

// HybridAnalyzer scores text with the blended sentiment pipeline.
// *sentiment.HybridScorer satisfies this.
type HybridAnalyzer interface {
	ScoreHybrid(ctx context.Context, text string) (*sentiment.HybridResult, error)
}

// ScoredReview is a review record with its analysis attached
type ScoredReview struct {
	Record   *reviews.Record           `json:"record"`
	Result   *sentiment.HybridResult   `json:"result"`
	Language string                    `json:"language"`
	Aspects  []*sentiment.AspectResult `json:"aspects,omitempty"`
}

// AnalysisServiceConfig configures the analysis service
type AnalysisServiceConfig struct {
	Workers       int           `yaml:"workers" env:"ANALYSIS_WORKERS" default:"4"`
	ScoreTimeout  time.Duration `yaml:"score_timeout" env:"ANALYSIS_SCORE_TIMEOUT" default:"30s"`
	DetectAspects bool          `yaml:"detect_aspects" env:"ANALYSIS_DETECT_ASPECTS" default:"false"`
}

// DefaultAnalysisServiceConfig returns the default configuration
func DefaultAnalysisServiceConfig() *AnalysisServiceConfig {
	return &AnalysisServiceConfig{
		Workers:      4,
		ScoreTimeout: 30 * time.Second,
	}
}

// AnalysisService scores review batches with bounded concurrency
type AnalysisService struct {
	analyzer HybridAnalyzer
	aspects  *sentiment.AspectAnalyzer
	config   *AnalysisServiceConfig
	log      *logger.Logger
}

// NewAnalysisService creates a new analysis service. aspects may be nil.
func NewAnalysisService(analyzer HybridAnalyzer, aspects *sentiment.AspectAnalyzer, config *AnalysisServiceConfig, log *logger.Logger) (*AnalysisService, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer is required")
	}
	if config == nil {
		config = DefaultAnalysisServiceConfig()
	}
	if config.Workers <= 0 {
		config.Workers = 4
	}
	if log == nil {
		log = logger.GetDefault()
	}

	return &AnalysisService{
		analyzer: analyzer,
		aspects:  aspects,
		config:   config,
		log:      log.WithComponent("analysis"),
	}, nil
}

// AnalyzeRecords scores every record. Records whose text cannot be scored
// are dropped with a warning rather than failing the batch.
func (s *AnalysisService) AnalyzeRecords(ctx context.Context, records []*reviews.Record) ([]*ScoredReview, error) {
	if len(records) == 0 {
		return nil, nil
	}

	scored := make([]*ScoredReview, len(records))
	sem := make(chan struct{}, s.config.Workers)
	var wg sync.WaitGroup

	for i, record := range records {
		wg.Add(1)
		go func(idx int, rec *reviews.Record) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			sr, err := s.analyzeOne(ctx, rec)
			if err != nil {
				s.log.Warn("failed to score review: row=%d err=%v", rec.RowNum, err)
				return
			}
			scored[idx] = sr
		}(i, record)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]*ScoredReview, 0, len(records))
	for _, sr := range scored {
		if sr != nil {
			results = append(results, sr)
		}
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("no reviews could be scored")
	}

	s.log.Info("analyzed reviews: total=%d scored=%d", len(records), len(results))
	return results, nil
}

// AnalyzeText scores a single free-form text
func (s *AnalysisService) AnalyzeText(ctx context.Context, text string) (*ScoredReview, error) {
	return s.analyzeOne(ctx, &reviews.Record{Review: text})
}

// AnalyzeAspect scores only the sentences of text that mention the named
// aspect. Returns an input error when aspect analysis is not configured.
func (s *AnalysisService) AnalyzeAspect(ctx context.Context, text, aspect string) (*sentiment.AspectResult, error) {
	if s.aspects == nil {
		return nil, sentiment.NewInputError("aspect analysis is not enabled")
	}
	return s.aspects.Analyze(ctx, text, aspect)
}

func (s *AnalysisService) analyzeOne(ctx context.Context, rec *reviews.Record) (*ScoredReview, error) {
	scoreCtx := ctx
	if s.config.ScoreTimeout > 0 {
		var cancel context.CancelFunc
		scoreCtx, cancel = context.WithTimeout(ctx, s.config.ScoreTimeout)
		defer cancel()
	}

	text := rec.Text()
	result, err := s.analyzer.ScoreHybrid(scoreCtx, text)
	if err != nil {
		return nil, err
	}

	sr := &ScoredReview{
		Record:   rec,
		Result:   result,
		Language: language.Detect(text).Code,
	}

	if s.config.DetectAspects && s.aspects != nil {
		aspects, err := s.aspects.AnalyzeAll(scoreCtx, text)
		if err != nil {
			s.log.Warn("aspect analysis failed: row=%d err=%v", rec.RowNum, err)
		} else {
			for _, a := range aspects {
				if a.Mentioned {
					sr.Aspects = append(sr.Aspects, a)
				}
			}
		}
	}

	return sr, nil
}

// ToDocuments converts scored reviews into indexable documents. Metadata
// keys are read back by the question answering engine.
func ToDocuments(scored []*ScoredReview) []embeddings.Document {
	docs := make([]embeddings.Document, 0, len(scored))
	for _, sr := range scored {
		docs = append(docs, embeddings.Document{
			ID:      fmt.Sprintf("review-%d", sr.Record.RowNum),
			Content: sr.Record.Text(),
			Metadata: map[string]interface{}{
				"sentiment": string(sr.Result.Label),
				"rating":    sr.Record.Rating,
				"row_num":   float64(sr.Record.RowNum),
				"language":  sr.Language,
			},
		})
	}
	return docs
}

// reviewID derives a stable ID from the row content so re-uploading the
// same CSV replaces rows instead of duplicating them.
func reviewID(rec *reviews.Record) uuid.UUID {
	key := fmt.Sprintf("%d|%s|%s|%g", rec.RowNum, rec.Title, rec.Review, rec.Rating)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key))
}

// ToModels converts scored reviews into database rows
func ToModels(scored []*ScoredReview, uploadID uuid.UUID) []*models.Review {
	rows := make([]*models.Review, 0, len(scored))
	for _, sr := range scored {
		row := &models.Review{
			ID:            reviewID(sr.Record),
			RowNum:        sr.Record.RowNum,
			Title:         sr.Record.Title,
			Content:       sr.Record.Review,
			Rating:        sr.Record.Rating,
			Sentiment:     string(sr.Result.Label),
			Confidence:    sr.Result.Confidence,
			ScorePositive: sr.Result.Scores.Positive,
			ScoreNegative: sr.Result.Scores.Negative,
			ScoreNeutral:  sr.Result.Scores.Neutral,
			Subjectivity:  sr.Result.Subjectivity,
			Consensus:     sr.Result.Consensus,
			Method:        sr.Result.Method,
			Aspects:       strings.Join(sentiment.MentionedAspects(sr.Record.Text()), ","),
			Language:      sr.Language,
			UploadID:      uploadID,
		}
		if !sr.Record.Parsed.IsZero() {
			d := sr.Record.Parsed
			row.ReviewDate = &d
		}
		rows = append(rows, row)
	}
	return rows
}

// Summary aggregates a scored batch without a database
type Summary struct {
	Total         int            `json:"total"`
	BySentiment   map[string]int `json:"by_sentiment"`
	ByLanguage    map[string]int `json:"by_language"`
	TopAspects    map[string]int `json:"top_aspects"`
	AvgRating     float64        `json:"avg_rating"`
	AvgConfidence float64        `json:"avg_confidence"`
	Consensus     int            `json:"consensus"`
}

// Summarize computes aggregate statistics over scored reviews
func Summarize(scored []*ScoredReview) *Summary {
	summary := &Summary{
		BySentiment: make(map[string]int),
		ByLanguage:  make(map[string]int),
		TopAspects:  make(map[string]int),
	}
	if len(scored) == 0 {
		return summary
	}

	var ratingSum, confidenceSum float64
	for _, sr := range scored {
		summary.Total++
		summary.BySentiment[string(sr.Result.Label)]++
		summary.ByLanguage[sr.Language]++
		for _, aspect := range sentiment.MentionedAspects(sr.Record.Text()) {
			summary.TopAspects[aspect]++
		}
		ratingSum += sr.Record.Rating
		confidenceSum += sr.Result.Confidence
		if sr.Result.Consensus {
			summary.Consensus++
		}
	}

	summary.AvgRating = ratingSum / float64(summary.Total)
	summary.AvgConfidence = confidenceSum / float64(summary.Total)
	return summary
}
