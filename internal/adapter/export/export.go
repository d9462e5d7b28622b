// Package export reads and writes flat customer records as JSON, CSV and
// XLSX files.
package export

import (
	"sort"
	"strconv"
	"strings"

	"github.com/solutiontech/gic/internal/domain"
	"github.com/solutiontech/gic/internal/ports"
	"github.com/solutiontech/gic/pkg/apperrors"
)

// Registry resolves writers and readers by format name.
type Registry struct {
	writers map[string]ports.RecordWriter
	readers map[string]ports.RecordReader
}

// NewRegistry knows every format this package implements.
func NewRegistry() *Registry {
	r := &Registry{
		writers: map[string]ports.RecordWriter{},
		readers: map[string]ports.RecordReader{},
	}
	for _, f := range []interface {
		ports.RecordWriter
		ports.RecordReader
	}{JSON{}, CSV{}, XLSX{}} {
		r.writers[f.Format()] = f
		r.readers[f.Format()] = f
	}
	return r
}

func (r *Registry) Writer(format string) (ports.RecordWriter, error) {
	w, ok := r.writers[normalize(format)]
	if !ok {
		return nil, unsupported(format, r.Formats())
	}
	return w, nil
}

func (r *Registry) Reader(format string) (ports.RecordReader, error) {
	rd, ok := r.readers[normalize(format)]
	if !ok {
		return nil, unsupported(format, r.Formats())
	}
	return rd, nil
}

// Formats lists the writable formats in name order.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.writers))
	for f := range r.writers {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func normalize(format string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
}

func unsupported(format string, known []string) error {
	return apperrors.Invalid("format", apperrors.ErrMalformedRecord,
		"unsupported format %q (supported: %s)", format, strings.Join(known, ", "))
}

func malformed(format string, err error) error {
	return apperrors.Invalid("file", apperrors.ErrMalformedRecord, "malformed %s file: %v", format, err)
}

// cell renders a record value for tabular formats.
func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}

// fromRows turns a header plus data rows into records. Blank cells are left
// out so the record defaults apply; blank rows are skipped.
func fromRows(header []string, rows [][]string) []domain.Record {
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}
	out := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		rec := domain.Record{}
		for i, v := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			if v = strings.TrimSpace(v); v != "" {
				rec[header[i]] = v
			}
		}
		if len(rec) > 0 {
			out = append(out, rec)
		}
	}
	return out
}
