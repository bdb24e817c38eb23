package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func newTestAdjuster(t *testing.T, products ProductRepository) *InventoryAdjuster {
	return NewInventoryAdjuster(products, testTracer(), zap.NewNop(), testMetrics(t))
}

func TestInventoryAdjuster_Deduct(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProductRepository(
		testProduct("p1", true, 10, 1, 5),
		testProduct("p2", true, 5, 1, 5),
	)

	err := newTestAdjuster(t, repo).Deduct(ctx, []LineItem{
		{ProductID: "p1", Quantity: 3},
		{ProductID: "p2", Quantity: 2},
	})
	require.NoError(t, err)

	p1, _ := repo.FindByID(ctx, "p1")
	p2, _ := repo.FindByID(ctx, "p2")
	assert.Equal(t, 7, p1.InInventory)
	assert.Equal(t, 3, p2.InInventory)
}

func TestInventoryAdjuster_RepeatedProductIsDeductedTwice(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProductRepository(testProduct("p1", true, 10, 1, 5))

	err := newTestAdjuster(t, repo).Deduct(ctx, []LineItem{
		{ProductID: "p1", Quantity: 3},
		{ProductID: "p1", Quantity: 4},
	})
	require.NoError(t, err)

	p1, _ := repo.FindByID(ctx, "p1")
	assert.Equal(t, 3, p1.InInventory)
}

func TestInventoryAdjuster_SkipsUnknownProducts(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProductRepository(testProduct("p1", true, 10, 1, 5))

	err := newTestAdjuster(t, repo).Deduct(ctx, []LineItem{
		{ProductID: "missing", Quantity: 3},
		{ProductID: "p1", Quantity: 3},
	})
	require.NoError(t, err)

	p1, _ := repo.FindByID(ctx, "p1")
	assert.Equal(t, 7, p1.InInventory)
	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestInventoryAdjuster_AllowsNegativeStock(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProductRepository(testProduct("p1", true, 1, 1, 5))

	require.NoError(t, newTestAdjuster(t, repo).Deduct(ctx, []LineItem{{ProductID: "p1", Quantity: 3}}))

	p1, _ := repo.FindByID(ctx, "p1")
	assert.Equal(t, -2, p1.InInventory)
}

func TestInventoryAdjuster_StopsAtFirstSaveError(t *testing.T) {
	ctx := context.Background()
	p1 := testProduct("p1", true, 10, 1, 5)
	p2 := testProduct("p2", true, 10, 1, 5)
	p3 := testProduct("p3", true, 10, 1, 5)

	repo := new(MockProductRepository)
	repo.On("FindByID", mock.Anything, "p1").Return(&p1, nil)
	repo.On("FindByID", mock.Anything, "p2").Return(&p2, nil)
	repo.On("Save", mock.Anything, &p1).Return(&p1, nil)
	repo.On("Save", mock.Anything, &p2).Return(nil, errors.New("disk full"))

	err := newTestAdjuster(t, repo).Deduct(ctx, []LineItem{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "p2", Quantity: 1},
		{ProductID: "p3", Quantity: 1},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 9, p1.InInventory)
	assert.Equal(t, 10, p3.InInventory)
	repo.AssertNotCalled(t, "FindByID", mock.Anything, "p3")
	repo.AssertExpectations(t)
}

func TestInventoryAdjuster_RecordsProductsOnSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	repo := NewMemoryProductRepository(
		testProduct("p1", true, 10, 1, 5),
		testProduct("p2", true, 10, 1, 5),
	)
	adjuster := NewInventoryAdjuster(repo, tp.Tracer("test"), zap.NewNop(), testMetrics(t))

	require.NoError(t, adjuster.Deduct(context.Background(), []LineItem{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "missing", Quantity: 1},
		{ProductID: "p2", Quantity: 4},
	}))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "deduct_inventory", spans[0].Name())

	var deducted []string
	for _, event := range spans[0].Events() {
		assert.Equal(t, "product_deducted", event.Name)
		set := attribute.NewSet(event.Attributes...)
		id, _ := set.Value("product_id")
		deducted = append(deducted, id.AsString())
	}
	assert.Equal(t, []string{"p1", "p2"}, deducted)
}
