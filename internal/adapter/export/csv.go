package export

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"

	"github.com/solutiontech/gic/internal/domain"
)

// CSV has one header row with every column of every variant; cells of other
// variants stay empty.
type CSV struct{}

func (CSV) Format() string    { return "csv" }
func (CSV) Extension() string { return ".csv" }

func (CSV) Write(w io.Writer, records []domain.Record) error {
	cols := domain.AllFields()
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return err
	}
	row := make([]string, len(cols))
	for _, rec := range records {
		for i, col := range cols {
			row[i] = cell(rec[col])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (CSV) Read(r io.Reader) ([]domain.Record, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []domain.Record{}, nil
	}
	if err != nil {
		return nil, malformed("csv", err)
	}
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, malformed("csv", err)
	}
	return fromRows(header, rows), nil
}
