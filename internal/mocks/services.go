package mocks

import (
	"context"
	"io"
	"sync"

	"github.com/solutiontech/gic/internal/domain"
	"github.com/solutiontech/gic/internal/ports"
)

// MockIdentityVerifier is a mock implementation of IdentityVerifier
type MockIdentityVerifier struct {
	VerifyFunc func(ctx context.Context, req domain.IdentityRequest) (*domain.IdentityResult, error)
	Requests   []domain.IdentityRequest
}

func (m *MockIdentityVerifier) Verify(ctx context.Context, req domain.IdentityRequest) (*domain.IdentityResult, error) {
	m.Requests = append(m.Requests, req)
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, req)
	}
	return &domain.IdentityResult{Valid: true, Message: "ok", Score: 1, Source: "remote"}, nil
}

// MockWelcomeNotifier is a mock implementation of WelcomeNotifier
type MockWelcomeNotifier struct {
	SendWelcomeFunc func(ctx context.Context, recipient, name string, variant domain.Variant) (*domain.DeliveryReport, error)
	Recipients      []string
}

func (m *MockWelcomeNotifier) SendWelcome(ctx context.Context, recipient, name string, variant domain.Variant) (*domain.DeliveryReport, error) {
	m.Recipients = append(m.Recipients, recipient)
	if m.SendWelcomeFunc != nil {
		return m.SendWelcomeFunc(ctx, recipient, name, variant)
	}
	return &domain.DeliveryReport{Sent: true, Simulated: true, Message: "simulated"}, nil
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mu          sync.Mutex
	Events      []domain.Event
	PublishFunc func(ctx context.Context, event domain.Event) error
}

func (m *MockEventPublisher) Publish(ctx context.Context, event domain.Event) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

// Types lists the published event types in order.
func (m *MockEventPublisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Events))
	for _, e := range m.Events {
		out = append(out, e.Type)
	}
	return out
}

// MockCustomerService is a mock implementation of CustomerService interface
type MockCustomerService struct {
	CreateFunc              func(ctx context.Context, variant string, in domain.Input) (*ports.CreateResult, error)
	GetFunc                 func(ctx context.Context, id string) (*domain.Customer, error)
	FindByEmailFunc         func(ctx context.Context, email string) (*domain.Customer, error)
	ListFunc                func(ctx context.Context, filter ports.ListFilter) ([]*domain.Customer, error)
	StatsFunc               func(ctx context.Context) (*ports.Stats, error)
	UpdateFunc              func(ctx context.Context, id string, patch domain.Patch) (*domain.Customer, error)
	DeleteFunc              func(ctx context.Context, id string) error
	ActivateFunc            func(ctx context.Context, id string) error
	DeactivateFunc          func(ctx context.Context, id string) error
	ToggleFunc              func(ctx context.Context, id string) (bool, error)
	AddLoyaltyPointsFunc    func(ctx context.Context, id string, points int) (*domain.Customer, error)
	PromoteTierFunc         func(ctx context.Context, id string) (*domain.Customer, bool, error)
	UpdateEmployeeCountFunc func(ctx context.Context, id string, count int) (*domain.Customer, error)
	DiscountFunc            func(ctx context.Context, id string, amount float64) (*domain.DiscountQuote, error)
	VerifyFunc              func(ctx context.Context, id string) (*domain.IdentityResult, error)
	ActivityFunc            func(ctx context.Context, id string, limit int) ([]domain.Activity, error)
	ExportFunc              func(ctx context.Context, format string) (string, error)
	ExportToFunc            func(ctx context.Context, format string, w io.Writer) error
	ImportFunc              func(ctx context.Context, format string, r io.Reader) (*ports.ImportReport, error)
}

var _ ports.CustomerService = (*MockCustomerService)(nil)

func (m *MockCustomerService) Create(ctx context.Context, variant string, in domain.Input) (*ports.CreateResult, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, variant, in)
	}
	return &ports.CreateResult{}, nil
}

func (m *MockCustomerService) Get(ctx context.Context, id string) (*domain.Customer, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockCustomerService) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *MockCustomerService) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Customer, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return []*domain.Customer{}, nil
}

func (m *MockCustomerService) Stats(ctx context.Context) (*ports.Stats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return &ports.Stats{}, nil
}

func (m *MockCustomerService) Update(ctx context.Context, id string, patch domain.Patch) (*domain.Customer, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, patch)
	}
	return nil, nil
}

func (m *MockCustomerService) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockCustomerService) Activate(ctx context.Context, id string) error {
	if m.ActivateFunc != nil {
		return m.ActivateFunc(ctx, id)
	}
	return nil
}

func (m *MockCustomerService) Deactivate(ctx context.Context, id string) error {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, id)
	}
	return nil
}

func (m *MockCustomerService) Toggle(ctx context.Context, id string) (bool, error) {
	if m.ToggleFunc != nil {
		return m.ToggleFunc(ctx, id)
	}
	return false, nil
}

func (m *MockCustomerService) AddLoyaltyPoints(ctx context.Context, id string, points int) (*domain.Customer, error) {
	if m.AddLoyaltyPointsFunc != nil {
		return m.AddLoyaltyPointsFunc(ctx, id, points)
	}
	return nil, nil
}

func (m *MockCustomerService) PromoteTier(ctx context.Context, id string) (*domain.Customer, bool, error) {
	if m.PromoteTierFunc != nil {
		return m.PromoteTierFunc(ctx, id)
	}
	return nil, false, nil
}

func (m *MockCustomerService) UpdateEmployeeCount(ctx context.Context, id string, count int) (*domain.Customer, error) {
	if m.UpdateEmployeeCountFunc != nil {
		return m.UpdateEmployeeCountFunc(ctx, id, count)
	}
	return nil, nil
}

func (m *MockCustomerService) Discount(ctx context.Context, id string, amount float64) (*domain.DiscountQuote, error) {
	if m.DiscountFunc != nil {
		return m.DiscountFunc(ctx, id, amount)
	}
	return &domain.DiscountQuote{}, nil
}

func (m *MockCustomerService) Verify(ctx context.Context, id string) (*domain.IdentityResult, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, id)
	}
	return &domain.IdentityResult{}, nil
}

func (m *MockCustomerService) Activity(ctx context.Context, id string, limit int) ([]domain.Activity, error) {
	if m.ActivityFunc != nil {
		return m.ActivityFunc(ctx, id, limit)
	}
	return []domain.Activity{}, nil
}

func (m *MockCustomerService) Export(ctx context.Context, format string) (string, error) {
	if m.ExportFunc != nil {
		return m.ExportFunc(ctx, format)
	}
	return "", nil
}

func (m *MockCustomerService) ExportTo(ctx context.Context, format string, w io.Writer) error {
	if m.ExportToFunc != nil {
		return m.ExportToFunc(ctx, format, w)
	}
	return nil
}

func (m *MockCustomerService) Import(ctx context.Context, format string, r io.Reader) (*ports.ImportReport, error) {
	if m.ImportFunc != nil {
		return m.ImportFunc(ctx, format, r)
	}
	return &ports.ImportReport{}, nil
}
