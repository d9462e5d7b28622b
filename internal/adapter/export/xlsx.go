package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/solutiontech/gic/internal/domain"
)

const sheetName = "Customers"

// XLSX is a single worksheet laid out like the CSV export, with a bold
// frozen header row.
type XLSX struct{}

func (XLSX) Format() string    { return "xlsx" }
func (XLSX) Extension() string { return ".xlsx" }

func (XLSX) Write(w io.Writer, records []domain.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	cols := domain.AllFields()
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", last, bold); err != nil {
		return err
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}

	for n, rec := range records {
		row := make([]any, len(cols))
		for i, c := range cols {
			if v, ok := rec[c]; ok {
				row[i] = v
			}
		}
		axis, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, axis, &row); err != nil {
			return fmt.Errorf("xlsx row %d: %w", n+2, err)
		}
	}

	_, err = f.WriteTo(w)
	return err
}

func (XLSX) Read(r io.Reader) ([]domain.Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, malformed("xlsx", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return []domain.Record{}, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, malformed("xlsx", err)
	}
	if len(rows) == 0 {
		return []domain.Record{}, nil
	}
	return fromRows(rows[0], rows[1:]), nil
}
