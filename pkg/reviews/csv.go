package reviews

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ReaderOptions controls CSV parsing behavior.
type ReaderOptions struct {
	Delimiter  rune   // field delimiter, ',' when zero
	Encoding   string // utf-8, iso-8859-1/latin-1, windows-1252
	MaxRows    int    // 0 = unlimited
	SkipRows   int    // data rows to skip after the header
	LazyQuotes bool
}

// DefaultReaderOptions returns the options used for typical exports.
func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{
		Delimiter:  ',',
		Encoding:   "utf-8",
		LazyQuotes: true,
	}
}

// Reader streams review records from a CSV source.
type Reader struct {
	src       io.ReadCloser
	path      string
	opts      ReaderOptions
	csvReader *csv.Reader
	colIndex  map[string]int
	columns   []string
	rowNum    int
	skipped   int
}

// Open opens a review CSV file for streaming.
func Open(path string, opts ReaderOptions) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open review file %s: %w", path, err)
	}

	r, err := NewReader(file, opts)
	if err != nil {
		file.Close()
		return nil, err
	}
	r.path = path
	return r, nil
}

// NewReader wraps an already-open CSV stream. The header row is consumed
// and validated immediately.
func NewReader(src io.ReadCloser, opts ReaderOptions) (*Reader, error) {
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
	csvReader.FieldsPerRecord = -1 // tolerate ragged rows
	csvReader.TrimLeadingSpace = true

	r := &Reader{
		src:       src,
		opts:      opts,
		csvReader: csvReader,
	}

	if err := r.readHeader(); err != nil {
		return nil, err
	}

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := csvReader.Read(); err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("failed to skip row %d: %w", i+1, err)
		}
	}

	return r, nil
}

func decodeReader(src io.Reader, name string) (io.Reader, error) {
	var enc encoding.Encoding
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return src, nil
	case "iso-8859-1", "latin-1", "latin1":
		enc = charmap.ISO8859_1
	case "windows-1252", "cp1252":
		enc = charmap.Windows1252
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", name)
	}
	return transform.NewReader(src, enc.NewDecoder()), nil
}

func (r *Reader) readHeader() error {
	header, err := r.csvReader.Read()
	if err == io.EOF {
		return fmt.Errorf("review file is empty")
	}
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	r.columns = make([]string, len(header))
	r.colIndex = make(map[string]int, len(header))
	for i, col := range header {
		col = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
		r.columns[i] = col
		r.colIndex[strings.ToLower(col)] = i
	}

	if missing := r.missingColumns(); len(missing) > 0 {
		return fmt.Errorf("missing required columns %v (found: %v)", missing, r.columns)
	}

	return nil
}

func (r *Reader) missingColumns() []string {
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := r.colIndex[strings.ToLower(col)]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// Columns returns the header columns as found in the file.
func (r *Reader) Columns() []string {
	return r.columns
}

// Next returns the next review record. Rows with empty review text are
// skipped and counted. Returns ErrIteratorDone when exhausted.
func (r *Reader) Next(ctx context.Context) (*Record, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if r.opts.MaxRows > 0 && r.rowNum >= r.opts.MaxRows {
			return nil, ErrIteratorDone
		}

		row, err := r.csvReader.Read()
		if err == io.EOF {
			return nil, ErrIteratorDone
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		r.rowNum++

		record := r.buildRecord(row)
		if strings.TrimSpace(record.Review) == "" {
			r.skipped++
			continue
		}

		return record, nil
	}
}

func (r *Reader) buildRecord(row []string) *Record {
	get := func(col string) string {
		idx, ok := r.colIndex[strings.ToLower(col)]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	rec := &Record{
		RowNum: r.rowNum,
		Title:  get(ColumnTitle),
		Review: get(ColumnReview),
		Date:   get(ColumnDate),
	}

	// Unparseable ratings count as 0 rather than failing the row.
	if rating, err := strconv.ParseFloat(get(ColumnRating), 64); err == nil {
		rec.Rating = rating
	}

	if rec.Date != "" {
		for _, layout := range []string{"2006-01-02", "01/02/2006", "1/2/2006", time.RFC3339} {
			if t, err := time.Parse(layout, rec.Date); err == nil {
				rec.Parsed = t
				break
			}
		}
	}

	return rec
}

// Skipped returns the number of rows dropped for empty review text.
func (r *Reader) Skipped() int {
	return r.skipped
}

// RowsRead returns the number of data rows consumed so far.
func (r *Reader) RowsRead() int {
	return r.rowNum
}

// Close closes the underlying source.
func (r *Reader) Close() error {
	if r.src != nil {
		return r.src.Close()
	}
	return nil
}

// ReadAll drains the reader and returns every valid record.
func ReadAll(ctx context.Context, r *Reader) ([]*Record, error) {
	var records []*Record
	for {
		rec, err := r.Next(ctx)
		if err == ErrIteratorDone {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}

// LoadFile opens, reads and closes a review CSV in one call.
func LoadFile(ctx context.Context, path string, opts ReaderOptions) ([]*Record, error) {
	r, err := Open(path, opts)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return ReadAll(ctx, r)
}
