package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/solutiontech/gic/internal/adapter/http/fiber/views"
	"github.com/solutiontech/gic/internal/domain"
	"github.com/solutiontech/gic/internal/ports"
	"github.com/solutiontech/gic/pkg/apperrors"
)

type sample struct {
	variant string
	input   domain.Input
}

func intp(n int) *int { return &n }

var samples = []sample{
	{"Regular", domain.Input{
		Name:          "Juan Pérez",
		Email:         "juan@example.com",
		Phone:         "+56944556677",
		Address:       "Av. Siempre Viva 123, Santiago",
		LoyaltyPoints: intp(3200),
	}},
	{"Premium", domain.Input{
		Name:    "María López",
		Email:   "maria@example.com",
		Phone:   "+56955667788",
		Address: "Los Leones 789, Providencia",
		Tier:    "Platinum",
	}},
	{"Corporate", domain.Input{
		Name:          "Carlos Díaz",
		Email:         "carlos@empresa.cl",
		Phone:         "+56966778899",
		Address:       "Apoquindo 1000, Las Condes",
		TaxID:         "76.124.890-1",
		LegalName:     "TechCorp SpA",
		EmployeeCount: intp(50),
	}},
}

// Seed creates the sample customers, skipping those whose email is already
// stored, then prints the listing, the stats and a discount table.
func Seed(ctx context.Context, svc ports.CustomerService, w io.Writer, amount float64) error {
	rule := strings.Repeat("-", 60)
	fmt.Fprintln(w, "GESTOR INTELIGENTE DE CLIENTES (GIC) - seed")
	fmt.Fprintln(w, rule)

	for _, s := range samples {
		res, err := svc.Create(ctx, s.variant, s.input)
		switch {
		case errors.Is(err, apperrors.ErrDuplicate):
			fmt.Fprintf(w, "skipped  %s (already stored)\n", s.input.Email)
		case err != nil:
			return fmt.Errorf("create %s: %w", s.input.Email, err)
		default:
			fmt.Fprintf(w, "created  %s\n", res.Customer)
		}
	}

	customers, err := svc.List(ctx, ports.ListFilter{})
	if err != nil {
		return err
	}
	st, err := svc.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nTotal %d | Regular %d | Premium %d | Corporate %d | Active %d\n",
		st.Total, st.Regular, st.Premium, st.Corporate, st.Active)

	fmt.Fprintf(w, "\nDiscounts on %s:\n", views.CLP(amount))
	for _, c := range customers {
		q, err := svc.Discount(ctx, c.ID, amount)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %-20s %-10s %4.0f%%  %12s  -> %s\n",
			c.Name, c.Variant, q.Rate*100, views.CLP(q.Discount), views.CLP(q.Total))
	}
	return nil
}
