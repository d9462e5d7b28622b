package customer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/solutiontech/gic/internal/domain"
	"github.com/solutiontech/gic/internal/observability/telemetry"
	"github.com/solutiontech/gic/internal/ports"
	"github.com/solutiontech/gic/pkg/apperrors"
	"github.com/solutiontech/gic/pkg/validate"
)

const instrumentation = "github.com/solutiontech/gic/internal/service/customer"

// Service orchestrates validation, persistence and the best-effort side
// effects of every customer operation. Side effects (activity log, events,
// welcome email) never undo a committed write; their failures are logged.
type Service struct {
	repo      ports.CustomerRepository
	activity  ports.ActivityRepository
	identity  ports.IdentityVerifier
	mailer    ports.WelcomeNotifier
	events    ports.EventPublisher
	formats   ports.RecordFormats
	factory   *domain.Factory
	exportDir string
	now       func() time.Time
	tracer    trace.Tracer
	log       *zap.Logger
}

var _ ports.CustomerService = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

func WithActivityLog(r ports.ActivityRepository) Option { return func(s *Service) { s.activity = r } }
func WithIdentity(v ports.IdentityVerifier) Option     { return func(s *Service) { s.identity = v } }
func WithNotifier(n ports.WelcomeNotifier) Option      { return func(s *Service) { s.mailer = n } }
func WithEvents(p ports.EventPublisher) Option         { return func(s *Service) { s.events = p } }
func WithFormats(f ports.RecordFormats) Option         { return func(s *Service) { s.formats = f } }
func WithExportDir(dir string) Option                  { return func(s *Service) { s.exportDir = dir } }

// WithClock fixes the time source used for updated_at and export names.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithFactory replaces the entity factory, e.g. to change the phone region.
func WithFactory(f *domain.Factory) Option {
	return func(s *Service) { s.factory = f }
}

func NewService(repo ports.CustomerRepository, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		factory:   domain.NewFactory(validate.DefaultRegion),
		exportDir: "exports",
		now:       func() time.Time { return time.Now().UTC() },
		tracer:    otel.Tracer(instrumentation),
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.factory.Now == nil {
		s.factory.Now = s.now
	}
	return s
}

func (s *Service) Create(ctx context.Context, variant string, in domain.Input) (res *ports.CreateResult, err error) {
	ctx, done := s.begin(ctx, "create", attribute.String("customer.variant", variant))
	defer func() { done(err) }()

	c, err := s.factory.Create(variant, in)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, c.Email, ""); err != nil {
		return nil, err
	}
	if _, err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	telemetry.CustomersCreatedTotal.WithLabelValues(string(c.Variant)).Inc()
	s.log.Info("Customer created",
		zap.String("id", c.ID),
		zap.String("variant", string(c.Variant)),
		zap.String("email", c.Email),
	)
	s.record(ctx, domain.ActionCreate, c.ID, c.String())
	s.publish(ctx, domain.EventCreated, c)

	return &ports.CreateResult{Customer: c, Welcome: s.welcome(ctx, c)}, nil
}

func (s *Service) Get(ctx context.Context, id string) (c *domain.Customer, err error) {
	ctx, done := s.begin(ctx, "get", attribute.String("customer.id", id))
	defer func() { done(err) }()

	return s.repo.GetByID(ctx, id)
}

// FindByEmail looks up the normalized form of email. It returns a
// NotFoundError when nothing matches.
func (s *Service) FindByEmail(ctx context.Context, email string) (c *domain.Customer, err error) {
	ctx, done := s.begin(ctx, "find_by_email")
	defer func() { done(err) }()

	normalized, err := validate.Email(email)
	if err != nil {
		return nil, err
	}
	c, err = s.repo.GetByEmail(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &apperrors.NotFoundError{Entity: "customer", ID: normalized}
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, filter ports.ListFilter) (out []*domain.Customer, err error) {
	ctx, done := s.begin(ctx, "list")
	defer func() { done(err) }()

	filter.Search = strings.TrimSpace(filter.Search)
	return s.repo.List(ctx, filter)
}

func (s *Service) Stats(ctx context.Context) (st *ports.Stats, err error) {
	ctx, done := s.begin(ctx, "stats")
	defer func() { done(err) }()

	st = &ports.Stats{}
	if st.Total, err = s.repo.Count(ctx, ""); err != nil {
		return nil, err
	}
	counts := map[domain.Variant]*int64{
		domain.VariantRegular:   &st.Regular,
		domain.VariantPremium:   &st.Premium,
		domain.VariantCorporate: &st.Corporate,
	}
	for v, dst := range counts {
		if *dst, err = s.repo.Count(ctx, v); err != nil {
			return nil, err
		}
	}
	if st.Active, err = s.repo.CountActive(ctx); err != nil {
		return nil, err
	}
	st.Inactive = st.Total - st.Active
	return st, nil
}

// Update applies patch to the stored record. An empty patch returns the
// record unchanged.
func (s *Service) Update(ctx context.Context, id string, patch domain.Patch) (c *domain.Customer, err error) {
	ctx, done := s.begin(ctx, "update", attribute.String("customer.id", id))
	defer func() { done(err) }()

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return current, nil
	}

	next, err := s.factory.Apply(current, patch)
	if err != nil {
		return nil, err
	}
	if next.Email != current.Email {
		if err := s.ensureEmailFree(ctx, next.Email, id); err != nil {
			return nil, err
		}
	}
	return s.save(ctx, next, domain.ActionUpdate, changedFields(patch))
}

func (s *Service) Delete(ctx context.Context, id string) (err error) {
	ctx, done := s.begin(ctx, "delete", attribute.String("customer.id", id))
	defer func() { done(err) }()

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info("Customer deleted", zap.String("id", id), zap.String("email", c.Email))
	s.record(ctx, domain.ActionDelete, id, c.String())
	s.publish(ctx, domain.EventDeleted, c)
	return nil
}

func (s *Service) Activate(ctx context.Context, id string) (err error) {
	ctx, done := s.begin(ctx, "activate", attribute.String("customer.id", id))
	defer func() { done(err) }()

	return s.setActive(ctx, id, true)
}

func (s *Service) Deactivate(ctx context.Context, id string) (err error) {
	ctx, done := s.begin(ctx, "deactivate", attribute.String("customer.id", id))
	defer func() { done(err) }()

	return s.setActive(ctx, id, false)
}

// Toggle flips the active flag and returns the new state.
func (s *Service) Toggle(ctx context.Context, id string) (active bool, err error) {
	ctx, done := s.begin(ctx, "toggle", attribute.String("customer.id", id))
	defer func() { done(err) }()

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if err := s.setActive(ctx, id, !c.Active); err != nil {
		return false, err
	}
	return !c.Active, nil
}

func (s *Service) setActive(ctx context.Context, id string, active bool) error {
	var (
		err    error
		action = domain.ActionDeactivate
		event  = domain.EventDeactivated
	)
	if active {
		action, event = domain.ActionActivate, domain.EventActivated
		err = s.repo.Activate(ctx, id)
	} else {
		err = s.repo.Deactivate(ctx, id)
	}
	if err != nil {
		return err
	}

	s.record(ctx, action, id, "")
	if c, err := s.repo.GetByID(ctx, id); err == nil {
		s.publish(ctx, event, c)
	}
	return nil
}

// Activity returns the newest log entries of an existing customer.
func (s *Service) Activity(ctx context.Context, id string, limit int) (out []domain.Activity, err error) {
	ctx, done := s.begin(ctx, "activity", attribute.String("customer.id", id))
	defer func() { done(err) }()

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if s.activity == nil {
		return []domain.Activity{}, nil
	}
	return s.activity.ListByEntity(ctx, id, limit)
}

func (s *Service) Verify(ctx context.Context, id string) (res *domain.IdentityResult, err error) {
	ctx, done := s.begin(ctx, "verify", attribute.String("customer.id", id))
	defer func() { done(err) }()

	if s.identity == nil {
		return nil, &apperrors.ExternalServiceError{Service: "Identity API", Message: "identity verification is not configured"}
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	req := domain.IdentityRequest{Name: c.Name, Email: c.Email}
	if c.Corporate != nil {
		req.TaxID = c.Corporate.TaxID
	}
	res, err = s.identity.Verify(ctx, req)
	if err != nil {
		return nil, err
	}

	telemetry.IdentityChecksTotal.WithLabelValues(res.Source, fmt.Sprint(res.Valid)).Inc()
	s.record(ctx, domain.ActionVerify, id, fmt.Sprintf("valid=%t score=%.2f source=%s", res.Valid, res.Score, res.Source))
	return res, nil
}

// save persists a changed record and emits the update side effects.
func (s *Service) save(ctx context.Context, c *domain.Customer, action, detail string) (*domain.Customer, error) {
	saved, err := s.repo.Update(ctx, c)
	if err != nil {
		return nil, err
	}
	s.record(ctx, action, saved.ID, detail)
	s.publish(ctx, domain.EventUpdated, saved)
	return saved, nil
}

// ensureEmailFree fails with a DuplicateRecordError when email belongs to a
// record other than selfID.
func (s *Service) ensureEmailFree(ctx context.Context, email, selfID string) error {
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return &apperrors.DuplicateRecordError{Field: "email", Value: email}
	}
	return nil
}

func (s *Service) welcome(ctx context.Context, c *domain.Customer) *domain.DeliveryReport {
	if s.mailer == nil {
		return nil
	}
	report, err := s.mailer.SendWelcome(ctx, c.Email, c.Name, c.Variant)
	switch {
	case err != nil:
		telemetry.WelcomeEmailsTotal.WithLabelValues("failed").Inc()
		s.log.Warn("Welcome email failed", zap.String("id", c.ID), zap.Error(err))
		if report == nil {
			report = &domain.DeliveryReport{Message: err.Error()}
		}
	case report.Simulated:
		telemetry.WelcomeEmailsTotal.WithLabelValues("simulated").Inc()
	default:
		telemetry.WelcomeEmailsTotal.WithLabelValues("sent").Inc()
	}
	return report
}

func (s *Service) record(ctx context.Context, action, id, detail string) {
	if s.activity == nil {
		return
	}
	entry := &domain.Activity{
		Action:    action,
		Entity:    "customer",
		EntityID:  id,
		Detail:    detail,
		CreatedAt: s.now(),
	}
	if err := s.activity.Append(ctx, entry); err != nil {
		s.log.Warn("Failed to write activity log",
			zap.String("action", action),
			zap.String("id", id),
			zap.Error(err),
		)
	}
}

func (s *Service) publish(ctx context.Context, eventType string, c *domain.Customer) {
	if s.events == nil {
		return
	}
	status := "ok"
	if err := s.events.Publish(ctx, domain.NewEvent(eventType, c, s.now())); err != nil {
		status = "failed"
		s.log.Warn("Failed to publish event",
			zap.String("type", eventType),
			zap.String("id", c.ID),
			zap.Error(err),
		)
	}
	telemetry.EventsPublishedTotal.WithLabelValues(eventType, status).Inc()
}

// begin opens a span for op and returns the func that closes it and records
// the operation metrics.
func (s *Service) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "customer."+op, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		outcome := "ok"
		if err != nil {
			outcome = string(apperrors.KindOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if errors.Is(err, apperrors.ErrConnection) {
				s.log.Error("Storage unavailable", zap.String("operation", op), zap.Error(err))
			}
		}
		telemetry.CustomerOperationsTotal.WithLabelValues(op, outcome).Inc()
		telemetry.CustomerOperationLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
		span.End()
	}
}

func changedFields(p domain.Patch) string {
	var fields []string
	for name, set := range map[string]bool{
		"name": p.Name != nil, "email": p.Email != nil, "phone": p.Phone != nil,
		"address": p.Address != nil, "credit_limit": p.CreditLimit != nil,
		"advisor_name": p.AdvisorName != nil, "legal_name": p.LegalName != nil,
		"industry": p.Industry != nil, "business_contact": p.BusinessContact != nil,
	} {
		if set {
			fields = append(fields, name)
		}
	}
	sort.Strings(fields)
	return "fields: " + strings.Join(fields, ", ")
}
