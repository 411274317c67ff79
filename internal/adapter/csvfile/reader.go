// Package csvfile streams archive rows to and from CSV files on disk.
package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/couchcryptid/storm-track-archive/internal/domain"
)

// Reader streams rows from an archive CSV file. It implements the
// pipeline's row source.
type Reader struct {
	file  *os.File
	csv   *csv.Reader
	index map[string]int
	line  int

	pending     []string
	pendingLine int
}

// Open opens an archive file and validates its header. Every canonical
// column must be present; extra columns are ignored.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	cr := csv.NewReader(f)
	// Ragged rows surface as malformed rows downstream, not as reader
	// errors that would abort the whole build.
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	var missing []string
	for _, col := range domain.Columns() {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		f.Close()
		return nil, fmt.Errorf("header missing columns %s", strings.Join(missing, ", "))
	}

	r := &Reader{file: f, csv: cr, index: index, line: 1}
	if err := r.skipUnitsRow(); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// The archive ships a second header line carrying units; its SID cell
// is blank. Skip it when present.
func (r *Reader) skipUnitsRow() error {
	record, err := r.csv.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read row: %w", err)
	}
	r.line++
	sid := r.index[domain.ColSID]
	if sid < len(record) && strings.TrimSpace(record[sid]) == "" {
		return nil
	}
	r.pending = record
	r.pendingLine = r.line
	return nil
}

// Next returns the next archive row. io.EOF marks the end of the file.
func (r *Reader) Next() (domain.Row, error) {
	if r.pending != nil {
		row := r.toRow(r.pending, r.pendingLine)
		r.pending = nil
		return row, nil
	}
	record, err := r.csv.Read()
	if err != nil {
		return domain.Row{}, err
	}
	r.line++
	return r.toRow(record, r.line), nil
}

func (r *Reader) toRow(record []string, line int) domain.Row {
	fields := make(map[string]string, len(r.index))
	for col, i := range r.index {
		if i < len(record) {
			fields[col] = record[i]
		}
	}
	return domain.Row{Line: line, Fields: fields}
}

// Close releases the underlying file.
func (r *Reader) Close() error { return r.file.Close() }
