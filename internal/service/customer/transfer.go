package customer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/solutiontech/gic/internal/domain"
	"github.com/solutiontech/gic/internal/observability/telemetry"
	"github.com/solutiontech/gic/internal/ports"
	"github.com/solutiontech/gic/pkg/apperrors"
)

var errNoFormats = errors.New("no file formats configured")

// Export writes every customer to a new file in the export directory and
// returns its path.
func (s *Service) Export(ctx context.Context, format string) (path string, err error) {
	ctx, done := s.begin(ctx, "export", attribute.String("format", format))
	defer func() { done(err) }()

	w, records, err := s.exportRecords(ctx, format)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.exportDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}
	name := fmt.Sprintf("customers_%s%s", s.now().Format("20060102_150405"), w.Extension())
	path = filepath.Join(s.exportDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	if err := w.Write(f, records); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write %s export: %w", w.Format(), err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close export file: %w", err)
	}

	s.log.Info("Customers exported",
		zap.String("path", path),
		zap.Int("records", len(records)),
	)
	return path, nil
}

// ExportTo streams the export to out instead of a file.
func (s *Service) ExportTo(ctx context.Context, format string, out io.Writer) (err error) {
	ctx, done := s.begin(ctx, "export_stream", attribute.String("format", format))
	defer func() { done(err) }()

	w, records, err := s.exportRecords(ctx, format)
	if err != nil {
		return err
	}
	return w.Write(out, records)
}

func (s *Service) exportRecords(ctx context.Context, format string) (ports.RecordWriter, []domain.Record, error) {
	if s.formats == nil {
		return nil, nil, errNoFormats
	}
	w, err := s.formats.Writer(format)
	if err != nil {
		return nil, nil, err
	}
	customers, err := s.repo.List(ctx, ports.ListFilter{})
	if err != nil {
		return nil, nil, err
	}
	records := make([]domain.Record, 0, len(customers))
	for _, c := range customers {
		records = append(records, c.ToRecord())
	}
	return w, records, nil
}

// Import stores every valid row of r. Rows whose email is already stored are
// skipped as duplicates; invalid rows are reported and skipped. A storage
// failure aborts the run and is returned with the partial report.
func (s *Service) Import(ctx context.Context, format string, r io.Reader) (rep *ports.ImportReport, err error) {
	ctx, done := s.begin(ctx, "import", attribute.String("format", format))
	defer func() { done(err) }()

	if s.formats == nil {
		return nil, errNoFormats
	}
	reader, err := s.formats.Reader(format)
	if err != nil {
		return nil, err
	}
	records, err := reader.Read(r)
	if err != nil {
		return nil, err
	}

	rep = &ports.ImportReport{}
	for i, rec := range records {
		row := i + 1
		c, err := s.importOne(ctx, rec)
		switch {
		case err == nil:
			rep.Imported++
			telemetry.CustomersImportedTotal.WithLabelValues("imported").Inc()
			s.publish(ctx, domain.EventCreated, c)
		case errors.Is(err, apperrors.ErrDuplicate):
			rep.Duplicates++
			telemetry.CustomersImportedTotal.WithLabelValues("duplicate").Inc()
			s.log.Warn("Duplicate skipped on import", zap.Int("row", row), zap.Error(err))
		case errors.Is(err, apperrors.ErrConnection):
			return rep, err
		default:
			rep.Failed++
			telemetry.CustomersImportedTotal.WithLabelValues("failed").Inc()
			rep.Issues = append(rep.Issues, ports.ImportIssue{Row: row, Field: apperrors.FieldOf(err), Error: err.Error()})
			if apperrors.KindOf(err) == apperrors.KindInternal {
				s.log.Error("Import row failed", zap.Int("row", row), zap.Error(err))
			}
		}
	}

	s.log.Info("Customers imported",
		zap.String("format", reader.Format()),
		zap.Int("imported", rep.Imported),
		zap.Int("duplicates", rep.Duplicates),
		zap.Int("failed", rep.Failed),
	)
	s.record(ctx, domain.ActionImport, "",
		fmt.Sprintf("%s import: %d imported, %d duplicates, %d failed", reader.Format(), rep.Imported, rep.Duplicates, rep.Failed))
	return rep, nil
}

func (s *Service) importOne(ctx context.Context, rec domain.Record) (*domain.Customer, error) {
	parsed, err := domain.FromRecord(rec)
	if err != nil {
		return nil, err
	}
	c, err := s.factory.Normalize(parsed)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, c.Email, ""); err != nil {
		return nil, err
	}
	if existing, err := s.repo.GetByID(ctx, c.ID); err == nil && existing != nil {
		return nil, &apperrors.DuplicateRecordError{Field: "id", Value: c.ID}
	} else if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	return s.repo.Create(ctx, c)
}
