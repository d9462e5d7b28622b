package customer

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/solutiontech/gic/internal/domain"
)

func (s *Service) AddLoyaltyPoints(ctx context.Context, id string, points int) (c *domain.Customer, err error) {
	ctx, done := s.begin(ctx, "add_points", attribute.String("customer.id", id), attribute.Int("points", points))
	defer func() { done(err) }()

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := current.AddLoyaltyPoints(points, s.now())
	if err != nil {
		return nil, err
	}
	return s.save(ctx, next, domain.ActionPoints, fmt.Sprintf("+%d points, total %d", points, next.Regular.LoyaltyPoints))
}

// PromoteTier moves a Premium customer one tier up. At Diamond nothing is
// written and promoted is false.
func (s *Service) PromoteTier(ctx context.Context, id string) (c *domain.Customer, promoted bool, err error) {
	ctx, done := s.begin(ctx, "promote", attribute.String("customer.id", id))
	defer func() { done(err) }()

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	next, promoted, err := current.PromoteTier(s.now())
	if err != nil {
		return nil, false, err
	}
	if !promoted {
		s.log.Warn("Customer already at the highest tier",
			zap.String("id", id),
			zap.String("tier", string(current.Premium.Tier)),
		)
		return current, false, nil
	}

	saved, err := s.save(ctx, next, domain.ActionPromote,
		fmt.Sprintf("%s -> %s", current.Premium.Tier, next.Premium.Tier))
	if err != nil {
		return nil, false, err
	}
	return saved, true, nil
}

func (s *Service) UpdateEmployeeCount(ctx context.Context, id string, count int) (c *domain.Customer, err error) {
	ctx, done := s.begin(ctx, "update_employees", attribute.String("customer.id", id), attribute.Int("employees", count))
	defer func() { done(err) }()

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := current.UpdateEmployeeCount(count, s.now())
	if err != nil {
		return nil, err
	}
	return s.save(ctx, next, domain.ActionEmployees,
		fmt.Sprintf("employees %d, volume discount %.0f%%", next.Corporate.EmployeeCount, next.Corporate.VolumeDiscountRate*100))
}

// Discount prices amount for the customer without storing anything.
func (s *Service) Discount(ctx context.Context, id string, amount float64) (q *domain.DiscountQuote, err error) {
	ctx, done := s.begin(ctx, "discount", attribute.String("customer.id", id))
	defer func() { done(err) }()

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	quote, err := c.Quote(amount)
	if err != nil {
		return nil, err
	}
	return &quote, nil
}
