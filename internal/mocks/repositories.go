package mocks

import (
	"context"
	"sync"

	"github.com/solutiontech/gic/internal/domain"
	"github.com/solutiontech/gic/internal/ports"
)

// MockCustomerRepository is a mock implementation of CustomerRepository
type MockCustomerRepository struct {
	CreateFunc      func(ctx context.Context, c *domain.Customer) (*domain.Customer, error)
	GetByIDFunc     func(ctx context.Context, id string) (*domain.Customer, error)
	GetByEmailFunc  func(ctx context.Context, email string) (*domain.Customer, error)
	ListFunc        func(ctx context.Context, filter ports.ListFilter) ([]*domain.Customer, error)
	UpdateFunc      func(ctx context.Context, c *domain.Customer) (*domain.Customer, error)
	DeleteFunc      func(ctx context.Context, id string) error
	DeactivateFunc  func(ctx context.Context, id string) error
	ActivateFunc    func(ctx context.Context, id string) error
	CountFunc       func(ctx context.Context, variant domain.Variant) (int64, error)
	CountActiveFunc func(ctx context.Context) (int64, error)
}

func (m *MockCustomerRepository) Create(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, c)
	}
	return c, nil
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockCustomerRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *MockCustomerRepository) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Customer, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return []*domain.Customer{}, nil
}

func (m *MockCustomerRepository) Update(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, c)
	}
	return c, nil
}

func (m *MockCustomerRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockCustomerRepository) Deactivate(ctx context.Context, id string) error {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, id)
	}
	return nil
}

func (m *MockCustomerRepository) Activate(ctx context.Context, id string) error {
	if m.ActivateFunc != nil {
		return m.ActivateFunc(ctx, id)
	}
	return nil
}

func (m *MockCustomerRepository) Count(ctx context.Context, variant domain.Variant) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx, variant)
	}
	return 0, nil
}

func (m *MockCustomerRepository) CountActive(ctx context.Context) (int64, error) {
	if m.CountActiveFunc != nil {
		return m.CountActiveFunc(ctx)
	}
	return 0, nil
}

// MockActivityRepository keeps appended entries in memory unless AppendFunc
// is set.
type MockActivityRepository struct {
	mu               sync.Mutex
	Entries          []domain.Activity
	AppendFunc       func(ctx context.Context, a *domain.Activity) error
	ListByEntityFunc func(ctx context.Context, entityID string, limit int) ([]domain.Activity, error)
}

func (m *MockActivityRepository) Append(ctx context.Context, a *domain.Activity) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, a)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = uint(len(m.Entries) + 1)
	m.Entries = append(m.Entries, *a)
	return nil
}

func (m *MockActivityRepository) ListByEntity(ctx context.Context, entityID string, limit int) ([]domain.Activity, error) {
	if m.ListByEntityFunc != nil {
		return m.ListByEntityFunc(ctx, entityID, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Activity
	for i := len(m.Entries) - 1; i >= 0; i-- {
		if m.Entries[i].EntityID == entityID {
			out = append(out, m.Entries[i])
		}
	}
	return out, nil
}

// Actions lists the recorded actions in order.
func (m *MockActivityRepository) Actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Entries))
	for _, e := range m.Entries {
		out = append(out, e.Action)
	}
	return out
}
