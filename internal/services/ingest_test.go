package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restaurantlens/restaurantlens/internal/database"
	"github.com/restaurantlens/restaurantlens/pkg/embeddings"
	"github.com/restaurantlens/restaurantlens/pkg/reviews"
	"github.com/restaurantlens/restaurantlens/pkg/sentiment"
)

// ratingAnalyzer labels by rating so tests are deterministic
type ratingAnalyzer struct{}

func (ratingAnalyzer) ScoreHybrid(ctx context.Context, text string) (*sentiment.HybridResult, error) {
	label := sentiment.LabelNeutral
	scores := sentiment.Scores{Neutral: 1}
	if strings.Contains(strings.ToLower(text), "great") {
		label = sentiment.LabelPositive
		scores = sentiment.Scores{Positive: 0.8, Negative: 0.1, Neutral: 0.1}
	} else if strings.Contains(strings.ToLower(text), "terrible") {
		label = sentiment.LabelNegative
		scores = sentiment.Scores{Positive: 0.1, Negative: 0.8, Neutral: 0.1}
	}
	return &sentiment.HybridResult{
		Result: sentiment.Result{
			Label:      label,
			Confidence: 0.9,
			Scores:     scores,
			Method:     "hybrid",
		},
		Consensus: true,
	}, nil
}

type captureIndexer struct {
	docs []embeddings.Document
}

func (c *captureIndexer) IndexDocuments(ctx context.Context, docs []embeddings.Document) error {
	c.docs = append(c.docs, docs...)
	return nil
}

const uploadCSV = `Title,Review,Rating,Date
Great pizza,The crust was great and fresh,5,2024-01-15
Terrible night,Terrible service and cold food,1,2024-02-01
Okay,It was fine,3,2024-03-10
Blank,,2,2024-04-01
`

func newIngest(t *testing.T, indexer DocumentIndexer) *IngestService {
	t.Helper()
	analysis, err := NewAnalysisService(ratingAnalyzer{}, nil, nil, nil)
	require.NoError(t, err)
	svc, err := NewIngestService(analysis, nil, indexer, nil)
	require.NoError(t, err)
	return svc
}

func TestUploadCSVScoresAndIndexes(t *testing.T) {
	indexer := &captureIndexer{}
	svc := newIngest(t, indexer)

	result, err := svc.UploadCSV(context.Background(), strings.NewReader(uploadCSV), reviews.DefaultReaderOptions())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Scored)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 3, result.Indexed)
	assert.False(t, result.Persisted)

	require.Len(t, indexer.docs, 3)
	assert.Equal(t, "review-1", indexer.docs[0].ID)
	assert.Equal(t, "Positive", indexer.docs[0].Metadata["sentiment"])
	assert.Equal(t, 5.0, indexer.docs[0].Metadata["rating"])
	assert.Equal(t, 1.0, indexer.docs[0].Metadata["row_num"])

	require.NotNil(t, result.Summary)
	assert.Equal(t, 1, result.Summary.BySentiment["Positive"])
	assert.Equal(t, 1, result.Summary.BySentiment["Negative"])
	assert.Equal(t, 1, result.Summary.BySentiment["Neutral"])
	assert.InDelta(t, 3.0, result.Summary.AvgRating, 1e-9)
}

func TestUploadCSVReuploadIsIdempotent(t *testing.T) {
	svc := newIngest(t, nil)

	first, err := svc.UploadCSV(context.Background(), strings.NewReader(uploadCSV), reviews.DefaultReaderOptions())
	require.NoError(t, err)
	second, err := svc.UploadCSV(context.Background(), strings.NewReader(uploadCSV), reviews.DefaultReaderOptions())
	require.NoError(t, err)

	rows, total, err := svc.ListReviews(context.Background(), database.ReviewFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, rows, 3)

	// Replaced rows carry the latest upload ID
	assert.NotEqual(t, first.UploadID, second.UploadID)
	for _, row := range rows {
		assert.Equal(t, second.UploadID, row.UploadID)
	}

	summary, err := svc.Summarize(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, summary.Total)
}

func TestToModelsStableIDs(t *testing.T) {
	analysis, err := NewAnalysisService(ratingAnalyzer{}, nil, nil, nil)
	require.NoError(t, err)

	records := []*reviews.Record{{RowNum: 1, Title: "Great", Review: "great pie", Rating: 5}}
	scored, err := analysis.AnalyzeRecords(context.Background(), records)
	require.NoError(t, err)

	a := ToModels(scored, uuid.New())
	b := ToModels(scored, uuid.New())
	require.Len(t, a, 1)
	assert.Equal(t, a[0].ID, b[0].ID)
}

func TestListReviewsInMemoryFilters(t *testing.T) {
	svc := newIngest(t, nil)
	_, err := svc.UploadCSV(context.Background(), strings.NewReader(uploadCSV), reviews.DefaultReaderOptions())
	require.NoError(t, err)

	rows, total, err := svc.ListReviews(context.Background(), database.ReviewFilter{Sentiment: "Positive"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, "Great pizza", rows[0].Title)

	rows, total, err = svc.ListReviews(context.Background(), database.ReviewFilter{MinRating: 3})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, rows, 2)

	rows, _, err = svc.ListReviews(context.Background(), database.ReviewFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].RowNum)
}

func TestSummarizeInMemory(t *testing.T) {
	svc := newIngest(t, nil)
	_, err := svc.UploadCSV(context.Background(), strings.NewReader(uploadCSV), reviews.DefaultReaderOptions())
	require.NoError(t, err)

	summary, err := svc.Summarize(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, summary.Total)
	assert.EqualValues(t, 1, summary.BySentiment["Positive"])
	assert.InDelta(t, 0.9, summary.AvgConfidence, 1e-9)
}

func TestDocumentsRebuildsIndexSet(t *testing.T) {
	svc := newIngest(t, nil)
	_, err := svc.UploadCSV(context.Background(), strings.NewReader(uploadCSV), reviews.DefaultReaderOptions())
	require.NoError(t, err)

	docs, err := svc.Documents(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Contains(t, docs[0].Content, "Great pizza")
}

func TestUploadCSVEmptyInput(t *testing.T) {
	svc := newIngest(t, nil)
	_, err := svc.UploadCSV(context.Background(), strings.NewReader("Title,Review,Rating,Date\n"), reviews.DefaultReaderOptions())
	assert.Error(t, err)
}

func TestAnalyzeRecordsDropsFailures(t *testing.T) {
	analysis, err := NewAnalysisService(ratingAnalyzer{}, nil, nil, nil)
	require.NoError(t, err)

	records := []*reviews.Record{
		{RowNum: 1, Review: "great stuff", Rating: 5},
		{RowNum: 2, Review: "terrible", Rating: 1},
	}
	scored, err := analysis.AnalyzeRecords(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, scored, 2)
	assert.Equal(t, sentiment.LabelPositive, scored[0].Result.Label)
	assert.Equal(t, sentiment.LabelNegative, scored[1].Result.Label)
}
