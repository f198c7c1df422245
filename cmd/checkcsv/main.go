// Command checkcsv inspects a review CSV and reports whether it can be
// ingested. Exits non-zero when the file is unusable.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/restaurantlens/restaurantlens/pkg/reviews"
)

func main() {
	var (
		delimiter = flag.String("delimiter", ",", "Field delimiter")
		encoding  = flag.String("encoding", "utf-8", "File encoding (utf-8, iso-8859-1, windows-1252)")
		maxRows   = flag.Int("max-rows", 0, "Maximum rows to inspect (0 = all)")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: restaurantlens-checkcsv [flags] <reviews.csv>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	opts := reviews.DefaultReaderOptions()
	opts.Encoding = *encoding
	opts.MaxRows = *maxRows
	if *delimiter != "" {
		opts.Delimiter = rune((*delimiter)[0])
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	report, err := reviews.Inspect(ctx, path, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	printReport(path, report)

	if !report.Valid() {
		os.Exit(1)
	}
}

func printReport(path string, report *reviews.QualityReport) {
	fmt.Printf("File: %s\n", path)
	fmt.Printf("Rows: %d total, %d valid, %d skipped\n", report.TotalRows, report.ValidRows, report.SkippedRows)

	if len(report.MissingColumns) > 0 {
		fmt.Printf("Missing required columns: %s\n", strings.Join(report.MissingColumns, ", "))
	} else {
		fmt.Printf("Columns: %s\n", strings.Join(report.Columns, ", "))
	}

	for _, col := range report.ColumnStats {
		fmt.Printf("  %-8s present=%t nulls=%d\n", col.Name, col.Present, col.NullCount)
	}

	if report.ValidRows > 0 {
		fmt.Printf("Review length: min=%d max=%d avg=%.1f\n",
			report.MinReviewLength, report.MaxReviewLength, report.AvgReviewLength)
	}

	if len(report.SampleRows) > 0 {
		fmt.Println("Samples:")
		for _, row := range report.SampleRows {
			fmt.Printf("  [%d] %s (rating %.1f)\n", row.RowNum, row.Review, row.Rating)
		}
	}

	if report.Valid() {
		fmt.Println("Result: OK")
	} else {
		fmt.Println("Result: NOT USABLE")
	}
}
