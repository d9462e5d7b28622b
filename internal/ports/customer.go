package ports

import (
	"context"
	"io"

	"github.com/solutiontech/gic/internal/domain"
)

// ListFilter narrows a customer listing. Zero values disable a criterion.
type ListFilter struct {
	ActiveOnly bool
	Variant    domain.Variant
	Search     string
}

// CustomerRepository persists customer records. Email is unique across the
// store and a violated insert or update returns *apperrors.DuplicateRecordError.
type CustomerRepository interface {
	Create(ctx context.Context, c *domain.Customer) (*domain.Customer, error)
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	// GetByEmail returns nil, nil when no record has the email.
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Customer, error)
	Update(ctx context.Context, c *domain.Customer) (*domain.Customer, error)
	Delete(ctx context.Context, id string) error
	Deactivate(ctx context.Context, id string) error
	Activate(ctx context.Context, id string) error
	// Count counts every record when variant is empty.
	Count(ctx context.Context, variant domain.Variant) (int64, error)
	CountActive(ctx context.Context) (int64, error)
}

// ActivityRepository stores the append-only activity log.
type ActivityRepository interface {
	Append(ctx context.Context, a *domain.Activity) error
	ListByEntity(ctx context.Context, entityID string, limit int) ([]domain.Activity, error)
}

// IdentityVerifier checks that a person or company is who they claim.
type IdentityVerifier interface {
	Verify(ctx context.Context, req domain.IdentityRequest) (*domain.IdentityResult, error)
}

// WelcomeNotifier greets newly registered customers.
type WelcomeNotifier interface {
	SendWelcome(ctx context.Context, recipient, name string, variant domain.Variant) (*domain.DeliveryReport, error)
}

// EventPublisher announces customer lifecycle changes.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// RecordWriter serializes records in one file format.
type RecordWriter interface {
	Format() string
	Extension() string
	Write(w io.Writer, records []domain.Record) error
}

// RecordReader parses records from one file format.
type RecordReader interface {
	Format() string
	Read(r io.Reader) ([]domain.Record, error)
}

// RecordFormats resolves file formats by name.
type RecordFormats interface {
	Writer(format string) (RecordWriter, error)
	Reader(format string) (RecordReader, error)
	Formats() []string
}

// CreateResult is a stored customer plus what happened to its welcome email.
// Welcome is nil when no notifier is configured.
type CreateResult struct {
	Customer *domain.Customer
	Welcome  *domain.DeliveryReport
}

// Stats counts stored customers.
type Stats struct {
	Total     int64 `json:"total"`
	Regular   int64 `json:"regular"`
	Premium   int64 `json:"premium"`
	Corporate int64 `json:"corporate"`
	Active    int64 `json:"active"`
	Inactive  int64 `json:"inactive"`
}

// ImportIssue describes one rejected row of an import. Row is 1-based.
type ImportIssue struct {
	Row   int    `json:"row"`
	Field string `json:"field,omitempty"`
	Error string `json:"error"`
}

// ImportReport summarizes an import run.
type ImportReport struct {
	Imported   int           `json:"imported"`
	Duplicates int           `json:"duplicates"`
	Failed     int           `json:"failed"`
	Issues     []ImportIssue `json:"issues,omitempty"`
}

// CustomerService is the record keeping API used by the transports.
type CustomerService interface {
	Create(ctx context.Context, variant string, in domain.Input) (*CreateResult, error)
	Get(ctx context.Context, id string) (*domain.Customer, error)
	FindByEmail(ctx context.Context, email string) (*domain.Customer, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Customer, error)
	Stats(ctx context.Context) (*Stats, error)
	Update(ctx context.Context, id string, patch domain.Patch) (*domain.Customer, error)
	Delete(ctx context.Context, id string) error
	Activate(ctx context.Context, id string) error
	Deactivate(ctx context.Context, id string) error
	Toggle(ctx context.Context, id string) (bool, error)
	AddLoyaltyPoints(ctx context.Context, id string, points int) (*domain.Customer, error)
	PromoteTier(ctx context.Context, id string) (*domain.Customer, bool, error)
	UpdateEmployeeCount(ctx context.Context, id string, count int) (*domain.Customer, error)
	Discount(ctx context.Context, id string, amount float64) (*domain.DiscountQuote, error)
	Verify(ctx context.Context, id string) (*domain.IdentityResult, error)
	Activity(ctx context.Context, id string, limit int) ([]domain.Activity, error)
	Export(ctx context.Context, format string) (string, error)
	ExportTo(ctx context.Context, format string, w io.Writer) error
	Import(ctx context.Context, format string, r io.Reader) (*ImportReport, error)
}
