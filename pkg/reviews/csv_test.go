package reviews

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const sampleCSV = `Title,Review,Rating,Date
Great pizza,The margherita was fantastic and the crust perfect,5,2024-01-15
Slow service,"We waited 40 minutes, but the food was decent",3,2024-01-16
,   ,2,2024-01-17
No rating,Solid experience overall,not-a-number,2024-01-18
`

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reviews.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReaderStreamsValidRows(t *testing.T) {
	path := writeTempCSV(t, sampleCSV)

	r, err := Open(path, DefaultReaderOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	records, err := ReadAll(context.Background(), r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected 3 valid records, got %d", len(records))
	}
	if r.Skipped() != 1 {
		t.Errorf("expected 1 skipped row, got %d", r.Skipped())
	}

	first := records[0]
	if first.Title != "Great pizza" || first.Rating != 5 {
		t.Errorf("unexpected first record: %+v", first)
	}
	if first.RowNum != 1 {
		t.Errorf("row numbering off: %d", first.RowNum)
	}
	if first.Parsed.IsZero() {
		t.Error("expected date to parse")
	}

	// Unparseable rating falls back to 0
	if records[2].Rating != 0 {
		t.Errorf("bad rating should map to 0, got %v", records[2].Rating)
	}
}

func TestReaderMissingColumns(t *testing.T) {
	path := writeTempCSV(t, "Name,Comment\nJoe,Nice place\n")

	_, err := Open(path, DefaultReaderOptions())
	if err == nil {
		t.Fatal("expected error for missing required columns")
	}
}

func TestReaderEmptyFile(t *testing.T) {
	path := writeTempCSV(t, "")

	_, err := Open(path, DefaultReaderOptions())
	if err == nil {
		t.Fatal("expected error for empty file")
	}
}

func TestReaderMaxRows(t *testing.T) {
	path := writeTempCSV(t, sampleCSV)

	opts := DefaultReaderOptions()
	opts.MaxRows = 1
	r, err := Open(path, opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	records, err := ReadAll(context.Background(), r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 record with MaxRows=1, got %d", len(records))
	}
}

func TestReaderHeaderCaseInsensitive(t *testing.T) {
	path := writeTempCSV(t, "title,review,rating,date\nA,Good food,4,2024-02-01\n")

	r, err := Open(path, DefaultReaderOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	rec, err := r.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if rec.Review != "Good food" {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestRecordText(t *testing.T) {
	rec := &Record{Title: "Great pizza", Review: "Loved it"}
	if rec.Text() != "Great pizza Loved it" {
		t.Errorf("Text() = %q", rec.Text())
	}

	rec = &Record{Review: "Loved it"}
	if rec.Text() != "Loved it" {
		t.Errorf("Text() without title = %q", rec.Text())
	}
}

func TestInspectReport(t *testing.T) {
	path := writeTempCSV(t, sampleCSV)

	report, err := Inspect(context.Background(), path, DefaultReaderOptions())
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}

	if !report.Valid() {
		t.Errorf("report should be valid: %+v", report)
	}
	if report.TotalRows != 4 || report.ValidRows != 3 || report.SkippedRows != 1 {
		t.Errorf("row counts wrong: %+v", report)
	}
	if report.MinReviewLength <= 0 || report.MaxReviewLength < report.MinReviewLength {
		t.Errorf("length stats wrong: min=%d max=%d", report.MinReviewLength, report.MaxReviewLength)
	}
	if len(report.SampleRows) == 0 {
		t.Error("expected sample rows")
	}
}

func TestInspectMissingColumns(t *testing.T) {
	path := writeTempCSV(t, "Name,Comment\nJoe,Nice place\n")

	report, err := Inspect(context.Background(), path, DefaultReaderOptions())
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if report.Valid() {
		t.Error("report should be invalid")
	}
	if len(report.MissingColumns) != len(RequiredColumns) {
		t.Errorf("missing columns: %v", report.MissingColumns)
	}
}
