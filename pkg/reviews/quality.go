package reviews

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

const maxSampleRows = 3

// Inspect reads a review CSV and produces a data-quality report without
// keeping the dataset in memory. Used by the checkcsv tool and by upload
// validation.
func Inspect(ctx context.Context, path string, opts ReaderOptions) (*QualityReport, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open review file %s: %w", path, err)
	}
	defer file.Close()

	report, err := InspectReader(ctx, file, opts)
	if report != nil {
		report.Path = path
	}
	return report, err
}

// InspectReader inspects an already-open CSV stream.
func InspectReader(ctx context.Context, src io.Reader, opts ReaderOptions) (*QualityReport, error) {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}

	decoded, err := decodeReader(src, opts.Encoding)
	if err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(decoded)
	csvReader.Comma = opts.Delimiter
	csvReader.LazyQuotes = opts.LazyQuotes
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	header, err := csvReader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("review file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	report := &QualityReport{MinReviewLength: -1}
	colIndex := make(map[string]int, len(header))
	for i, col := range header {
		col = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
		report.Columns = append(report.Columns, col)
		colIndex[strings.ToLower(col)] = i
	}

	nulls := make(map[string]int, len(RequiredColumns))
	for _, col := range RequiredColumns {
		if _, ok := colIndex[strings.ToLower(col)]; !ok {
			report.MissingColumns = append(report.MissingColumns, col)
		}
	}

	var totalLength int
	rowNum := 0
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if opts.MaxRows > 0 && rowNum >= opts.MaxRows {
			break
		}

		row, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", rowNum+1, err)
		}

		rowNum++
		report.TotalRows++

		get := func(col string) string {
			idx, ok := colIndex[strings.ToLower(col)]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		for _, col := range RequiredColumns {
			if get(col) == "" {
				nulls[col]++
			}
		}

		text := get(ColumnReview)
		if text == "" {
			report.SkippedRows++
			continue
		}

		report.ValidRows++
		length := len([]rune(text))
		totalLength += length
		if report.MinReviewLength < 0 || length < report.MinReviewLength {
			report.MinReviewLength = length
		}
		if length > report.MaxReviewLength {
			report.MaxReviewLength = length
		}

		if len(report.SampleRows) < maxSampleRows {
			sample := Record{
				RowNum: rowNum,
				Title:  get(ColumnTitle),
				Review: truncate(text, 120),
				Date:   get(ColumnDate),
			}
			report.SampleRows = append(report.SampleRows, sample)
		}
	}

	if report.MinReviewLength < 0 {
		report.MinReviewLength = 0
	}
	if report.ValidRows > 0 {
		report.AvgReviewLength = float64(totalLength) / float64(report.ValidRows)
	}

	for _, col := range RequiredColumns {
		report.ColumnStats = append(report.ColumnStats, ColumnStats{
			Name:      col,
			Present:   !contains(report.MissingColumns, col),
			NullCount: nulls[col],
		})
	}

	return report, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
