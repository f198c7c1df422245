package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/restaurantlens/restaurantlens/internal/database/models"
)

// ReviewFilter narrows review listings
type ReviewFilter struct {
	Sentiment     string
	Language      string
	MinRating     float64
	MaxRating     float64
	MinConfidence float64
	UploadID      uuid.UUID
	Limit         int
	Offset        int
}

// ReviewSummary aggregates sentiment over the stored reviews
type ReviewSummary struct {
	Total         int64            `json:"total"`
	BySentiment   map[string]int64 `json:"by_sentiment"`
	ByLanguage    map[string]int64 `json:"by_language"`
	TopAspects    map[string]int64 `json:"top_aspects"`
	AvgRating     float64          `json:"avg_rating"`
	AvgConfidence float64          `json:"avg_confidence"`
}

// RestaurantFilter narrows restaurant listings
type RestaurantFilter struct {
	Search     string
	Cuisine    string
	City       string
	PriceRange string
	MinRating  float64
	Limit      int
	Offset     int
}

// Store provides review and restaurant persistence operations
type Store struct {
	conn *Connection
}

// NewStore creates a store over an open connection
func NewStore(conn *Connection) *Store {
	return &Store{conn: conn}
}

// SaveReviews inserts a batch of analyzed reviews. Rows that collide on
// the primary key are replaced so a re-upload is idempotent.
func (s *Store) SaveReviews(ctx context.Context, reviews []*models.Review) error {
	if len(reviews) == 0 {
		return nil
	}

	for _, review := range reviews {
		if review.ID == uuid.Nil {
			review.ID = uuid.New()
		}
	}

	return s.conn.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		CreateInBatches(reviews, 100).Error
}

// ListReviews returns reviews matching the filter, newest first
func (s *Store) ListReviews(ctx context.Context, filter ReviewFilter) ([]*models.Review, int64, error) {
	query := s.applyReviewFilter(s.conn.db.WithContext(ctx).Model(&models.Review{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	var reviews []*models.Review
	err := query.Order("created_at DESC, row_num ASC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}

	return reviews, total, nil
}

func (s *Store) applyReviewFilter(query *gorm.DB, filter ReviewFilter) *gorm.DB {
	if filter.Sentiment != "" {
		query = query.Where("sentiment = ?", filter.Sentiment)
	}
	if filter.Language != "" {
		query = query.Where("language = ?", filter.Language)
	}
	if filter.MinRating > 0 {
		query = query.Where("rating >= ?", filter.MinRating)
	}
	if filter.MaxRating > 0 {
		query = query.Where("rating <= ?", filter.MaxRating)
	}
	if filter.MinConfidence > 0 {
		query = query.Where("confidence >= ?", filter.MinConfidence)
	}
	if filter.UploadID != uuid.Nil {
		query = query.Where("upload_id = ?", filter.UploadID)
	}
	return query
}

// Summarize aggregates sentiment counts, language counts, and averages
func (s *Store) Summarize(ctx context.Context) (*ReviewSummary, error) {
	summary := &ReviewSummary{
		BySentiment: make(map[string]int64),
		ByLanguage:  make(map[string]int64),
		TopAspects:  make(map[string]int64),
	}

	db := s.conn.db.WithContext(ctx)

	if err := db.Model(&models.Review{}).Count(&summary.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}
	if summary.Total == 0 {
		return summary, nil
	}

	type bucket struct {
		Key   string
		Count int64
	}

	var sentiments []bucket
	err := db.Model(&models.Review{}).
		Select("sentiment AS key, COUNT(*) AS count").
		Group("sentiment").
		Scan(&sentiments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group by sentiment: %w", err)
	}
	for _, b := range sentiments {
		summary.BySentiment[b.Key] = b.Count
	}

	var languages []bucket
	err = db.Model(&models.Review{}).
		Select("language AS key, COUNT(*) AS count").
		Group("language").
		Scan(&languages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group by language: %w", err)
	}
	for _, b := range languages {
		summary.ByLanguage[b.Key] = b.Count
	}

	type averages struct {
		AvgRating     float64
		AvgConfidence float64
	}
	var avg averages
	err = db.Model(&models.Review{}).
		Select("AVG(rating) AS avg_rating, AVG(confidence) AS avg_confidence").
		Scan(&avg).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute averages: %w", err)
	}
	summary.AvgRating = avg.AvgRating
	summary.AvgConfidence = avg.AvgConfidence

	var aspectRows []string
	err = db.Model(&models.Review{}).
		Where("aspects <> ''").
		Pluck("aspects", &aspectRows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to collect aspects: %w", err)
	}
	for _, row := range aspectRows {
		for _, aspect := range strings.Split(row, ",") {
			if aspect != "" {
				summary.TopAspects[aspect]++
			}
		}
	}

	return summary, nil
}

// ListRestaurants returns restaurants matching the filter
func (s *Store) ListRestaurants(ctx context.Context, filter RestaurantFilter) ([]*models.Restaurant, error) {
	query := s.conn.db.WithContext(ctx).Model(&models.Restaurant{})

	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if filter.PriceRange != "" {
		query = query.Where("price_range = ?", filter.PriceRange)
	}
	if filter.Cuisine != "" {
		query = query.Where("LOWER(cuisine) = ?", strings.ToLower(filter.Cuisine))
	}
	if filter.City != "" {
		query = query.Where("LOWER(city) = ?", strings.ToLower(filter.City))
	}
	if filter.MinRating > 0 {
		query = query.Where("rating >= ?", filter.MinRating)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var restaurants []*models.Restaurant
	err := query.Order("rating DESC, name ASC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&restaurants).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list restaurants: %w", err)
	}

	return restaurants, nil
}

// SeedRestaurants inserts catalog entries, skipping names that exist
func (s *Store) SeedRestaurants(ctx context.Context, restaurants []*models.Restaurant) error {
	if len(restaurants) == 0 {
		return nil
	}

	for _, r := range restaurants {
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
	}

	return s.conn.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).
		Create(restaurants).Error
}
