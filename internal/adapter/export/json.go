package export

import (
	"encoding/json"
	"io"

	"github.com/solutiontech/gic/internal/domain"
)

// JSON is an indented array of record objects.
type JSON struct{}

func (JSON) Format() string    { return "json" }
func (JSON) Extension() string { return ".json" }

func (JSON) Write(w io.Writer, records []domain.Record) error {
	if records == nil {
		records = []domain.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(records)
}

func (JSON) Read(r io.Reader) ([]domain.Record, error) {
	var records []domain.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, malformed("json", err)
	}
	return records, nil
}
