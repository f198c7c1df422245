package models

import (
	"time"

	"github.com/google/uuid"
)

// Review represents a single analyzed customer review
type Review struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	RowNum int       `gorm:"not null;index" json:"row_num"`

	// Raw CSV fields
	Title      string     `gorm:"not null" json:"title"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	Rating     float64    `json:"rating"`
	ReviewDate *time.Time `gorm:"index" json:"review_date,omitempty"`

	// Sentiment analysis results
	Sentiment     string  `gorm:"not null;index" json:"sentiment"`
	Confidence    float64 `json:"confidence"`
	ScorePositive float64 `json:"score_positive"`
	ScoreNegative float64 `json:"score_negative"`
	ScoreNeutral  float64 `json:"score_neutral"`
	Subjectivity  float64 `json:"subjectivity"`
	Consensus     bool    `json:"consensus"`
	Method        string  `json:"method"`

	// Aspects is the comma-joined list of aspects the review mentions
	Aspects string `json:"aspects,omitempty"`

	// Detected language (ISO 639-1)
	Language string `gorm:"index" json:"language"`

	// Upload batch this review arrived in
	UploadID uuid.UUID `gorm:"type:uuid;index" json:"upload_id"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName returns the table name for the Review model
func (Review) TableName() string {
	return "reviews"
}

// Restaurant represents a restaurant in the browse catalog
type Restaurant struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name    string    `gorm:"unique;not null;index" json:"name"`
	Cuisine string    `gorm:"index" json:"cuisine"`
	City    string    `gorm:"index" json:"city"`
	Rating  float64   `json:"rating"`

	PriceRange  string `json:"price_range"`
	Description string `gorm:"type:text" json:"description"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName returns the table name for the Restaurant model
func (Restaurant) TableName() string {
	return "restaurants"
}
