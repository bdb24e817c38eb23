package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// MockProductRepository para testes que não precisam de banco real
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, productID string) (*Product, error) {
	args := m.Called(ctx, productID)
	if p := args.Get(0); p != nil {
		return p.(*Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context) ([]Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]Product), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *Product) (*Product, error) {
	args := m.Called(ctx, product)
	if p := args.Get(0); p != nil {
		return p.(*Product), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockPurchaseRepository struct {
	mock.Mock
}

func (m *MockPurchaseRepository) Save(ctx context.Context, purchase *Purchase) (*Purchase, error) {
	args := m.Called(ctx, purchase)
	if p := args.Get(0); p != nil {
		return p.(*Purchase), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPurchaseRepository) FindAll(ctx context.Context) ([]Purchase, error) {
	args := m.Called(ctx)
	if p := args.Get(0); p != nil {
		return p.([]Purchase), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockPurchaseUseCase struct {
	mock.Mock
}

func (m *MockPurchaseUseCase) SubmitPurchase(ctx context.Context, req PurchaseRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockPurchaseUseCase) ListPurchases(ctx context.Context) ([]Purchase, error) {
	args := m.Called(ctx)
	if p := args.Get(0); p != nil {
		return p.([]Purchase), args.Error(1)
	}
	return nil, args.Error(1)
}

// rollbackTransactor records whether the unit of work failed, standing in for a database rollback.
type rollbackTransactor struct {
	calls      int
	rolledBack bool
}

func (t *rollbackTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	err := fn(ctx)
	t.rolledBack = err != nil
	return err
}

func testTracer() trace.Tracer {
	return tracenoop.NewTracerProvider().Tracer("test")
}

func testMetrics(t *testing.T) *PurchaseMetrics {
	t.Helper()
	m, err := NewPurchaseMetrics(metricnoop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	return m
}

type useCaseDeps struct {
	products   ProductRepository
	purchases  PurchaseRepository
	transactor Transactor
	tracer     trace.Tracer
}

func newTestUseCase(t *testing.T, deps useCaseDeps) *PurchaseUseCase {
	t.Helper()

	if deps.transactor == nil {
		deps.transactor = NoopTransactor{}
	}
	if deps.tracer == nil {
		deps.tracer = testTracer()
	}

	logger := zap.NewNop()
	metrics := testMetrics(t)
	validator := NewPurchaseValidator(deps.products, deps.tracer, logger)
	adjuster := NewInventoryAdjuster(deps.products, deps.tracer, logger, metrics)
	return NewPurchaseUseCase(deps.purchases, validator, adjuster, deps.transactor, deps.tracer, logger, metrics)
}

func testProduct(id string, enabled bool, stock, min, max int) Product {
	return Product{ID: id, Name: "Product " + id, Enabled: enabled, InInventory: stock, Min: min, Max: max}
}

func purchaseRequest(items ...LineItem) PurchaseRequest {
	return PurchaseRequest{
		Date:         "2024-03-15",
		ClientIDType: "CC",
		ClientID:     "1020304050",
		ClientName:   "Ana Souza",
		Products:     items,
	}
}
