package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrNoHeader is returned by Parse when the input has no header row.
	ErrNoHeader = errors.New("no header row")

	// ErrDuplicateColumn is returned by Parse when a column name repeats.
	ErrDuplicateColumn = errors.New("duplicate column")

	// ErrEmptyColumn is returned by Parse when a header cell is empty.
	ErrEmptyColumn = errors.New("empty column name")
)

// ParseError describes a strict parse failure.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error on line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM drops a leading UTF-8 byte order mark.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(b, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// Parse reads a CSV document strictly. Every record must have as many
// fields as the header, and header names must be unique and non-empty.
//
// Column types are inferred per column: when every non-empty cell of a
// column is a finite number, the column holds numbers; otherwise strings.
// Empty cells are null.
func Parse(r io.Reader) (*Table, error) {
	cr := csv.NewReader(skipBOM(r))
	cr.FieldsPerRecord = 0

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &ParseError{Err: ErrNoHeader}
	}
	if err != nil {
		return nil, wrapCSVError(err)
	}

	seen := make(map[string]bool, len(header))
	for _, name := range header {
		if name == "" {
			return nil, &ParseError{Line: 1, Err: ErrEmptyColumn}
		}
		if seen[name] {
			return nil, &ParseError{Line: 1, Err: fmt.Errorf("%w: %q", ErrDuplicateColumn, name)}
		}
		seen[name] = true
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, wrapCSVError(err)
	}

	numeric := make([]bool, len(header))
	for j := range header {
		numeric[j] = numericColumn(records, j)
	}

	t := New(header...)
	t.Rows = make([]Row, 0, len(records))
	for _, rec := range records {
		row := make(Row, len(header))
		for j, name := range header {
			cell := rec[j]
			switch {
			case cell == "":
				row[name] = Null()
			case numeric[j]:
				row[name], _ = ParseNumber(cell)
			default:
				row[name] = String(cell)
			}
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

func numericColumn(records [][]string, j int) bool {
	found := false
	for _, rec := range records {
		if rec[j] == "" {
			continue
		}
		if _, ok := ParseNumber(rec[j]); !ok {
			return false
		}
		found = true
	}
	return found
}

func wrapCSVError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Line: pe.Line, Err: pe.Err}
	}
	return &ParseError{Err: err}
}

// ParseLenient reads a CSV document row by row, accepting what Parse
// rejects. Quotes are parsed lazily, short records are padded with null,
// extra fields are dropped and unreadable records are skipped. Every
// value is a string; empty strings are null. A repeated header name keeps
// a single column whose value comes from the last occurrence.
//
// An input without a header row yields the empty table.
func ParseLenient(r io.Reader) (*Table, error) {
	cr := csv.NewReader(skipBOM(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := readLenient(cr)
	if err == io.EOF {
		return Empty(), nil
	}
	if err != nil {
		return nil, err
	}

	t := Empty()
	for _, name := range header {
		if !t.HasColumn(name) {
			t.Columns = append(t.Columns, name)
		}
	}

	for {
		rec, err := readLenient(cr)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(Row, len(t.Columns))
		for j, name := range header {
			if j < len(rec) && rec[j] != "" {
				row[name] = String(rec[j])
			} else {
				row[name] = Null()
			}
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// readLenient returns the next readable record, skipping malformed ones.
func readLenient(cr *csv.Reader) ([]string, error) {
	for {
		rec, err := cr.Read()
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			continue
		}
		return rec, err
	}
}

// Write serializes t as CSV: the header row, then each row in order.
// Null values are written as empty cells.
func Write(w io.Writer, t *Table) error {
	bw := bufio.NewWriter(w)
	cw := csv.NewWriter(bw)

	if err := writeRecord(bw, cw, t.Columns); err != nil {
		return err
	}

	rec := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for j, c := range t.Columns {
			rec[j] = row[c].Text()
		}
		if err := writeRecord(bw, cw, rec); err != nil {
			return err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bw.Flush()
}

// writeRecord writes one record. A record made of a single empty field is
// written as a quoted empty string, otherwise it would read back as a
// blank line and be skipped.
func writeRecord(bw *bufio.Writer, cw *csv.Writer, rec []string) error {
	if len(rec) == 1 && rec[0] == "" {
		cw.Flush()
		if err := cw.Error(); err != nil {
			return err
		}
		_, err := bw.WriteString("\"\"\n")
		return err
	}
	return cw.Write(rec)
}
