package main

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// InventoryAdjuster decrements stock after a purchase has been saved
type InventoryAdjuster struct {
	products ProductRepository
	tracer   trace.Tracer
	logger   *zap.Logger
	metrics  *PurchaseMetrics
}

// NewInventoryAdjuster cria uma nova instância de InventoryAdjuster
func NewInventoryAdjuster(products ProductRepository, tracer trace.Tracer, logger *zap.Logger, metrics *PurchaseMetrics) *InventoryAdjuster {
	return &InventoryAdjuster{
		products: products,
		tracer:   tracer,
		logger:   logger,
		metrics:  metrics,
	}
}

// Deduct re-reads every product and saves it with the quantity subtracted.
// It stops at the first failure; items already saved stay deducted.
func (a *InventoryAdjuster) Deduct(ctx context.Context, items []LineItem) error {
	ctx, span := a.tracer.Start(ctx, "deduct_inventory")
	defer span.End()

	for i, item := range items {
		product, err := a.products.FindByID(ctx, item.ProductID)
		if errors.Is(err, ErrProductNotFound) {
			a.logger.Debug("[STOCK] skipping unknown product", zap.String("product_id", item.ProductID))
			continue
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to read product")
			return fmt.Errorf("failed to find product %s: %w", item.ProductID, err)
		}

		before := product.InInventory
		product.Deduct(item.Quantity)

		if _, err := a.products.Save(ctx, product); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to save product")
			span.SetAttributes(attribute.Int("inventory.items_deducted", i))
			return fmt.Errorf("failed to save product %s: %w", item.ProductID, err)
		}

		span.AddEvent("product_deducted", trace.WithAttributes(
			attribute.String("product_id", item.ProductID),
			attribute.Int("quantity", item.Quantity),
		))
		a.metrics.RecordDeducted(ctx, item.Quantity)
		a.logger.Info("[STOCK] deducted",
			zap.String("product_id", item.ProductID),
			zap.Int("quantity", item.Quantity),
			zap.Int("before", before),
			zap.Int("after", product.InInventory),
		)
	}

	span.SetStatus(codes.Ok, "inventory deducted")
	return nil
}
