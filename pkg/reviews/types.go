package reviews

import (
	"errors"
	"time"
)

// Required CSV columns for a review dataset.
const (
	ColumnTitle  = "Title"
	ColumnReview = "Review"
	ColumnRating = "Rating"
	ColumnDate   = "Date"
)

// RequiredColumns lists the columns a review CSV must carry.
var RequiredColumns = []string{ColumnTitle, ColumnReview, ColumnRating, ColumnDate}

// ErrIteratorDone indicates the iterator has been exhausted
var ErrIteratorDone = errors.New("review iterator exhausted")

// Record is a single raw review row from a CSV file.
type Record struct {
	RowNum int       `json:"row_num"`
	Title  string    `json:"title"`
	Review string    `json:"review"`
	Rating float64   `json:"rating"`
	Date   string    `json:"date"`
	Parsed time.Time `json:"-"`
}

// Text returns the text used for sentiment scoring and embedding:
// title and body joined, matching how the dataset is indexed.
func (r *Record) Text() string {
	if r.Title == "" {
		return r.Review
	}
	return r.Title + " " + r.Review
}

// ColumnStats describes one required column in a quality report.
type ColumnStats struct {
	Name      string `json:"name"`
	Present   bool   `json:"present"`
	NullCount int    `json:"null_count"`
}

// QualityReport summarizes the shape and health of a review CSV.
type QualityReport struct {
	Path            string        `json:"path,omitempty"`
	TotalRows       int           `json:"total_rows"`
	ValidRows       int           `json:"valid_rows"`
	SkippedRows     int           `json:"skipped_rows"`
	Columns         []string      `json:"columns"`
	MissingColumns  []string      `json:"missing_columns,omitempty"`
	ColumnStats     []ColumnStats `json:"column_stats"`
	MinReviewLength int           `json:"min_review_length"`
	MaxReviewLength int           `json:"max_review_length"`
	AvgReviewLength float64       `json:"avg_review_length"`
	SampleRows      []Record      `json:"sample_rows,omitempty"`
}

// Valid reports whether the CSV is usable: all required columns present
// and at least one row with review text.
func (q *QualityReport) Valid() bool {
	return len(q.MissingColumns) == 0 && q.ValidRows > 0
}
