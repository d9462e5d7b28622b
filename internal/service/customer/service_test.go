package customer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/solutiontech/gic/internal/adapter/export"
	"github.com/solutiontech/gic/internal/adapter/queue"
	"github.com/solutiontech/gic/internal/adapter/storage/gormstore"
	"github.com/solutiontech/gic/internal/domain"
	"github.com/solutiontech/gic/internal/mocks"
	"github.com/solutiontech/gic/internal/ports"
	"github.com/solutiontech/gic/pkg/apperrors"
	"github.com/solutiontech/gic/pkg/config"
)

var t0 = time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

type fixture struct {
	svc      *Service
	activity *mocks.MockActivityRepository
	events   *mocks.MockEventPublisher
	mailer   *mocks.MockWelcomeNotifier
	identity *mocks.MockIdentityVerifier
	dir      string
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	db, err := gormstore.NewConnection(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, gormstore.RunMigrations(db))
	t.Cleanup(func() { _ = gormstore.Close(db) })

	f := &fixture{
		activity: &mocks.MockActivityRepository{},
		events:   &mocks.MockEventPublisher{},
		mailer:   &mocks.MockWelcomeNotifier{},
		identity: &mocks.MockIdentityVerifier{},
		dir:      t.TempDir(),
	}
	clock := func() time.Time { return t0 }
	base := []Option{
		WithActivityLog(f.activity),
		WithEvents(f.events),
		WithNotifier(f.mailer),
		WithIdentity(f.identity),
		WithFormats(export.NewRegistry()),
		WithExportDir(f.dir),
		WithClock(clock),
	}
	repo := gormstore.NewCustomerRepository(db, zap.NewNop(), gormstore.WithClock(clock))
	f.svc = NewService(repo, newTestLogger(), append(base, opts...)...)
	return f
}

func regularInput(email string) domain.Input {
	return domain.Input{Name: "Ana Rojas", Email: email, Phone: "+56944556677", Address: "Av. Apoquindo 3000"}
}

func corporateInput(email string) domain.Input {
	in := regularInput(email)
	in.Name = "Tienda Central"
	in.TaxID = "76.124.890-1"
	return in
}

func mustCreate(t *testing.T, f *fixture, variant string, in domain.Input) *domain.Customer {
	t.Helper()
	res, err := f.svc.Create(context.Background(), variant, in)
	require.NoError(t, err)
	return res.Customer
}

func TestCreate_StoresAndRunsSideEffects(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	res, err := f.svc.Create(context.Background(), "premium", regularInput("Ana@Example.CL"))

	// Assert
	require.NoError(t, err)
	c := res.Customer
	assert.Equal(t, domain.VariantPremium, c.Variant)
	assert.Equal(t, "Ana@example.cl", c.Email)
	assert.Equal(t, domain.TierGold, c.Premium.Tier)
	assert.Equal(t, t0, c.CreatedAt)

	require.NotNil(t, res.Welcome)
	assert.True(t, res.Welcome.Sent)
	assert.Equal(t, []string{"Ana@example.cl"}, f.mailer.Recipients)
	assert.Equal(t, []string{domain.ActionCreate}, f.activity.Actions())
	assert.Equal(t, []string{domain.EventCreated}, f.events.Types())

	got, err := f.svc.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestCreate_RejectsDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	mustCreate(t, f, "Regular", regularInput("ana@example.cl"))

	_, err := f.svc.Create(context.Background(), "Corporate", corporateInput("ana@example.cl"))

	var dup *apperrors.DuplicateRecordError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "email", dup.Field)
	assert.Len(t, f.events.Events, 1, "failed create publishes nothing")
}

func TestCreate_ValidationErrorsStoreNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := regularInput("ana@example.cl")
	in.AdvisorName = "Carla"
	_, err := f.svc.Create(ctx, "Regular", in)
	assert.ErrorIs(t, err, apperrors.ErrFieldNotApplicable)
	assert.Equal(t, "advisor_name", apperrors.FieldOf(err))

	_, err = f.svc.Create(ctx, "Gold", regularInput("ana@example.cl"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidVariant)

	st, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.Total)
	assert.Empty(t, f.mailer.Recipients)
}

func TestCreate_WelcomeFailureKeepsRecord(t *testing.T) {
	f := newFixture(t)
	f.mailer.SendWelcomeFunc = func(ctx context.Context, recipient, name string, variant domain.Variant) (*domain.DeliveryReport, error) {
		return nil, &apperrors.ExternalServiceError{Service: "email/smtp", Message: "relay refused"}
	}

	res, err := f.svc.Create(context.Background(), "Regular", regularInput("ana@example.cl"))

	require.NoError(t, err)
	require.NotNil(t, res.Welcome)
	assert.False(t, res.Welcome.Sent)
	assert.Contains(t, res.Welcome.Message, "relay refused")
	_, err = f.svc.Get(context.Background(), res.Customer.ID)
	assert.NoError(t, err)
}

func TestCreate_SideEffectFailuresAreLogged(t *testing.T) {
	f := newFixture(t)
	f.activity.AppendFunc = func(ctx context.Context, a *domain.Activity) error { return errors.New("log table locked") }
	f.events.PublishFunc = func(ctx context.Context, e domain.Event) error { return errors.New("broker down") }

	res, err := f.svc.Create(context.Background(), "Regular", regularInput("ana@example.cl"))

	require.NoError(t, err)
	assert.NotEmpty(t, res.Customer.ID)
}

func TestFindByEmail(t *testing.T) {
	f := newFixture(t)
	c := mustCreate(t, f, "Regular", regularInput("ana@example.cl"))

	got, err := f.svc.FindByEmail(context.Background(), "  ana@EXAMPLE.cl ")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = f.svc.FindByEmail(context.Background(), "nadie@example.cl")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.svc.FindByEmail(context.Background(), "not-an-email")
	assert.ErrorIs(t, err, apperrors.ErrInvalidEmail)
}

func TestListAndStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := mustCreate(t, f, "Regular", regularInput("ana@example.cl"))
	mustCreate(t, f, "Premium", regularInput("pia@example.cl"))
	mustCreate(t, f, "Corporate", corporateInput("ventas@tienda.cl"))
	require.NoError(t, f.svc.Deactivate(ctx, a.ID))

	st, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, ports.Stats{Total: 3, Regular: 1, Premium: 1, Corporate: 1, Active: 2, Inactive: 1}, *st)

	found, err := f.svc.List(ctx, ports.ListFilter{Search: "  tienda "})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, domain.VariantCorporate, found[0].Variant)

	active, err := f.svc.List(ctx, ports.ListFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := mustCreate(t, f, "Regular", regularInput("ana@example.cl"))
	other := mustCreate(t, f, "Regular", regularInput("luis@example.cl"))

	t.Run("empty patch returns the stored record", func(t *testing.T) {
		got, err := f.svc.Update(ctx, c.ID, domain.Patch{})
		require.NoError(t, err)
		assert.Equal(t, c, got)
	})

	t.Run("applies fields and records which changed", func(t *testing.T) {
		name, limit := "Ana María Rojas", 750000.0
		got, err := f.svc.Update(ctx, c.ID, domain.Patch{Name: &name, CreditLimit: &limit})
		require.NoError(t, err)
		assert.Equal(t, name, got.Name)
		assert.Equal(t, limit, got.Regular.CreditLimit)

		last := f.activity.Entries[len(f.activity.Entries)-1]
		assert.Equal(t, domain.ActionUpdate, last.Action)
		assert.Equal(t, "fields: credit_limit, name", last.Detail)
		assert.Equal(t, domain.EventUpdated, f.events.Types()[len(f.events.Events)-1])
	})

	t.Run("email taken by another customer", func(t *testing.T) {
		email := other.Email
		_, err := f.svc.Update(ctx, c.ID, domain.Patch{Email: &email})
		assert.ErrorIs(t, err, apperrors.ErrDuplicate)
	})

	t.Run("field of another variant", func(t *testing.T) {
		advisor := "Carla"
		_, err := f.svc.Update(ctx, c.ID, domain.Patch{AdvisorName: &advisor})
		assert.ErrorIs(t, err, apperrors.ErrFieldNotApplicable)
	})

	t.Run("missing record", func(t *testing.T) {
		name := "Nadie"
		_, err := f.svc.Update(ctx, "missing", domain.Patch{Name: &name})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := mustCreate(t, f, "Regular", regularInput("ana@example.cl"))

	require.NoError(t, f.svc.Delete(ctx, c.ID))
	_, err := f.svc.Get(ctx, c.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, c.ID), apperrors.ErrNotFound)
	assert.Equal(t, []string{domain.EventCreated, domain.EventDeleted}, f.events.Types())
}

func TestToggleActivateDeactivate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := mustCreate(t, f, "Regular", regularInput("ana@example.cl"))

	active, err := f.svc.Toggle(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, active)

	active, err = f.svc.Toggle(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, f.svc.Deactivate(ctx, c.ID))
	got, err := f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	assert.Equal(t, []string{
		domain.ActionCreate, domain.ActionDeactivate, domain.ActionActivate, domain.ActionDeactivate,
	}, f.activity.Actions())
	assert.Equal(t, []string{
		domain.EventCreated, domain.EventDeactivated, domain.EventActivated, domain.EventDeactivated,
	}, f.events.Types())

	_, err = f.svc.Toggle(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, f.svc.Activate(ctx, "missing"), apperrors.ErrNotFound)
}

func TestAddLoyaltyPoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := mustCreate(t, f, "Regular", regularInput("ana@example.cl"))
	prem := mustCreate(t, f, "Premium", regularInput("pia@example.cl"))

	got, err := f.svc.AddLoyaltyPoints(ctx, reg.ID, 2500)
	require.NoError(t, err)
	assert.Equal(t, 2500, got.Regular.LoyaltyPoints)
	assert.InDelta(t, 0.02, got.DiscountRate(), 1e-9)

	_, err = f.svc.AddLoyaltyPoints(ctx, reg.ID, -1)
	assert.ErrorIs(t, err, apperrors.ErrNegativeValue)

	_, err = f.svc.AddLoyaltyPoints(ctx, prem.ID, 10)
	assert.ErrorIs(t, err, apperrors.ErrVariantMismatch)
}

func TestPromoteTier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := mustCreate(t, f, "Premium", regularInput("pia@example.cl"))

	want := []domain.Tier{domain.TierPlatinum, domain.TierDiamond}
	for _, tier := range want {
		got, promoted, err := f.svc.PromoteTier(ctx, c.ID)
		require.NoError(t, err)
		assert.True(t, promoted)
		assert.Equal(t, tier, got.Premium.Tier)
		assert.Equal(t, tier.Rate(), got.Premium.DiscountRate)
	}

	writes := len(f.activity.Entries)
	got, promoted, err := f.svc.PromoteTier(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, promoted)
	assert.Equal(t, domain.TierDiamond, got.Premium.Tier)
	assert.Len(t, f.activity.Entries, writes, "no write at the top tier")
}

func TestUpdateEmployeeCount(t *testing.T) {
	f := newFixture(t)
	c := mustCreate(t, f, "Corporate", corporateInput("ventas@tienda.cl"))

	tests := []struct {
		count     int
		wantCount int
		wantRate  float64
	}{
		{10, 10, 0.05},
		{11, 11, 0.10},
		{200, 200, 0.15},
		{201, 201, 0.20},
		{0, 1, 0.05},
	}
	for _, tt := range tests {
		got, err := f.svc.UpdateEmployeeCount(context.Background(), c.ID, tt.count)
		require.NoError(t, err)
		assert.Equal(t, tt.wantCount, got.Corporate.EmployeeCount)
		assert.Equal(t, tt.wantRate, got.Corporate.VolumeDiscountRate, "count %d", tt.count)
	}
}

func TestDiscount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := mustCreate(t, f, "Premium", regularInput("pia@example.cl"))

	q, err := f.svc.Discount(ctx, c.ID, 100000)
	require.NoError(t, err)
	assert.Equal(t, 10000.0, q.Discount)
	assert.Equal(t, 90000.0, q.Total)
	assert.Equal(t, 0.10, q.Rate)

	_, err = f.svc.Discount(ctx, c.ID, -1)
	assert.ErrorIs(t, err, apperrors.ErrNegativeValue)
}

func TestVerify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := mustCreate(t, f, "Corporate", corporateInput("ventas@tienda.cl"))

	res, err := f.svc.Verify(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	require.Len(t, f.identity.Requests, 1)
	assert.Equal(t, domain.IdentityRequest{Name: "Tienda Central", Email: "ventas@tienda.cl", TaxID: c.Corporate.TaxID}, f.identity.Requests[0])
	assert.Equal(t, domain.ActionVerify, f.activity.Actions()[1])

	f.identity.VerifyFunc = func(ctx context.Context, req domain.IdentityRequest) (*domain.IdentityResult, error) {
		return nil, &apperrors.ExternalServiceTimeoutError{Service: "Identity API", Timeout: time.Second}
	}
	_, err = f.svc.Verify(ctx, c.ID)
	assert.Equal(t, apperrors.KindTimeout, apperrors.KindOf(err))
}

func TestVerify_NotConfigured(t *testing.T) {
	f := newFixture(t, WithIdentity(nil))
	c := mustCreate(t, f, "Regular", regularInput("ana@example.cl"))

	_, err := f.svc.Verify(context.Background(), c.ID)

	var ext *apperrors.ExternalServiceError
	require.ErrorAs(t, err, &ext)
	assert.Equal(t, "Identity API", ext.Service)
}

func TestActivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := mustCreate(t, f, "Regular", regularInput("ana@example.cl"))
	_, err := f.svc.AddLoyaltyPoints(ctx, c.ID, 100)
	require.NoError(t, err)

	got, err := f.svc.Activity(ctx, c.ID, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.ActionPoints, got[0].Action)
	assert.Equal(t, "+100 points, total 100", got[0].Detail)

	_, err = f.svc.Activity(ctx, "missing", 10)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestExport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mustCreate(t, f, "Regular", regularInput("ana@example.cl"))
	mustCreate(t, f, "Corporate", corporateInput("ventas@tienda.cl"))

	for _, format := range []string{"json", "csv", "xlsx"} {
		path, err := f.svc.Export(ctx, format)
		require.NoError(t, err, format)
		assert.Equal(t, filepath.Join(f.dir, "customers_20260302_143000."+format), path)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		reader, err := export.NewRegistry().Reader(format)
		require.NoError(t, err)
		records, err := reader.Read(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Len(t, records, 2, format)
	}

	_, err := f.svc.Export(ctx, "pdf")
	assert.Equal(t, apperrors.KindInvalidInput, apperrors.KindOf(err))
}

func TestExportTo_StreamsJSON(t *testing.T) {
	f := newFixture(t)
	c := mustCreate(t, f, "Regular", regularInput("ana@example.cl"))

	var buf bytes.Buffer
	require.NoError(t, f.svc.ExportTo(context.Background(), "json", &buf))

	var out []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, c.ID, out[0]["id"])
}

func TestImport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	existing := mustCreate(t, f, "Regular", regularInput("ana@example.cl"))

	factory := &domain.Factory{PhoneRegion: "CL", Now: func() time.Time { return t0 }}
	fresh, err := factory.Create("Corporate", corporateInput("ventas@tienda.cl"))
	require.NoError(t, err)
	broken := fresh.Clone()
	broken.ID = "broken-row"
	broken.Email = "no-at-sign"

	records := []domain.Record{existing.ToRecord(), fresh.ToRecord(), broken.ToRecord()}
	var buf bytes.Buffer
	require.NoError(t, export.JSON{}.Write(&buf, records))

	rep, err := f.svc.Import(ctx, "json", &buf)

	require.NoError(t, err)
	assert.Equal(t, 1, rep.Imported)
	assert.Equal(t, 1, rep.Duplicates)
	assert.Equal(t, 1, rep.Failed)
	require.Len(t, rep.Issues, 1)
	assert.Equal(t, 3, rep.Issues[0].Row)
	assert.Equal(t, "email", rep.Issues[0].Field)

	got, err := f.svc.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, fresh.Corporate.TaxID, got.Corporate.TaxID)
	assert.Contains(t, f.activity.Actions(), domain.ActionImport)
}

func TestImport_MalformedFileAndUnknownFormat(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Import(context.Background(), "json", bytes.NewBufferString("{not json"))
	assert.ErrorIs(t, err, apperrors.ErrMalformedRecord)

	_, err = f.svc.Import(context.Background(), "yaml", bytes.NewBufferString(""))
	assert.Equal(t, apperrors.KindInvalidInput, apperrors.KindOf(err))
}

func TestImport_StorageOutageAborts(t *testing.T) {
	outage := &apperrors.ConnectionError{Err: errors.New("database is locked")}
	calls := 0
	repo := &mocks.MockCustomerRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*domain.Customer, error) {
			return nil, &apperrors.NotFoundError{Entity: "customer", ID: id}
		},
		CreateFunc: func(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
			calls++
			if calls > 1 {
				return nil, outage
			}
			return c, nil
		},
	}
	svc := NewService(repo, newTestLogger(), WithFormats(export.NewRegistry()), WithClock(func() time.Time { return t0 }))

	factory := &domain.Factory{PhoneRegion: "CL"}
	var records []domain.Record
	for _, email := range []string{"a@example.cl", "b@example.cl", "c@example.cl"} {
		c, err := factory.Create("Regular", regularInput(email))
		require.NoError(t, err)
		records = append(records, c.ToRecord())
	}
	var buf bytes.Buffer
	require.NoError(t, export.JSON{}.Write(&buf, records))

	rep, err := svc.Import(context.Background(), "json", &buf)

	assert.ErrorIs(t, err, apperrors.ErrConnection)
	require.NotNil(t, rep)
	assert.Equal(t, 1, rep.Imported)
	assert.Equal(t, 2, calls)
}

func TestEventsReachTheQueue(t *testing.T) {
	mq := mocks.NewMockMessageQueue()
	pub := queue.NewEventPublisher(mq, "gic", newTestLogger())
	f := newFixture(t, WithEvents(pub))

	c := mustCreate(t, f, "Regular", regularInput("ana@example.cl"))

	msgs := mq.Published("gic." + domain.EventCreated)
	require.Len(t, msgs, 1)
	var ev domain.Event
	require.NoError(t, json.Unmarshal(msgs[0], &ev))
	assert.Equal(t, c.ID, ev.CustomerID)
	assert.Equal(t, domain.VariantRegular, ev.Variant)
}
