package main

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RejectionReason identifica a regra de compra violada
type RejectionReason string

const (
	ReasonNotAvailable     RejectionReason = "NOT_AVAILABLE"
	ReasonExceedsInventory RejectionReason = "EXCEEDS_INVENTORY"
	ReasonBelowMinimum     RejectionReason = "BELOW_MINIMUM"
	ReasonExceedsMaximum   RejectionReason = "EXCEEDS_MAXIMUM"
)

var rejectionMessages = map[RejectionReason]string{
	ReasonNotAvailable:     "The product is not available",
	ReasonExceedsInventory: "The amount requested is not in the inventory",
	ReasonBelowMinimum:     "The amount requested doesn't have the minimum to buy",
	ReasonExceedsMaximum:   "The amount requested exceeds the maximum allowed per buy",
}

// Message returns the user-facing text for the reason.
func (r RejectionReason) Message() string {
	if msg, ok := rejectionMessages[r]; ok {
		return msg
	}
	return string(r)
}

// ValidationResult is Valid when Reason is empty.
type ValidationResult struct {
	Reason    RejectionReason
	ProductID string
}

func (r ValidationResult) Valid() bool {
	return r.Reason == ""
}

// RejectionError is returned by the purchase workflow when a business rule fails.
type RejectionError struct {
	Reason    RejectionReason
	ProductID string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("purchase rejected for product %s: %s", e.ProductID, e.Reason.Message())
}

// purchaseRule returns true when the line item violates it.
type purchaseRule struct {
	reason   RejectionReason
	violated func(p *Product, quantity int) bool
}

// The order decides which reason is reported when several rules fail.
var purchaseRules = []purchaseRule{
	{ReasonNotAvailable, func(p *Product, _ int) bool { return !p.Enabled }},
	{ReasonExceedsInventory, func(p *Product, q int) bool { return q > p.InInventory }},
	{ReasonBelowMinimum, func(p *Product, q int) bool { return q < p.Min }},
	{ReasonExceedsMaximum, func(p *Product, q int) bool { return q > p.Max }},
}

// PurchaseValidator checks line items against the current product records
type PurchaseValidator struct {
	products ProductRepository
	tracer   trace.Tracer
	logger   *zap.Logger
}

// NewPurchaseValidator cria uma nova instância de PurchaseValidator
func NewPurchaseValidator(products ProductRepository, tracer trace.Tracer, logger *zap.Logger) *PurchaseValidator {
	return &PurchaseValidator{
		products: products,
		tracer:   tracer,
		logger:   logger,
	}
}

// Validate returns the first violated rule in request order. Unknown products
// are skipped. A non-nil error means the catalog could not be read.
func (v *PurchaseValidator) Validate(ctx context.Context, items []LineItem) (ValidationResult, error) {
	ctx, span := v.tracer.Start(ctx, "validate_purchase")
	defer span.End()

	span.SetAttributes(attribute.Int("purchase.line_items", len(items)))

	for _, item := range items {
		product, err := v.products.FindByID(ctx, item.ProductID)
		if errors.Is(err, ErrProductNotFound) {
			// TODO: decide whether an unknown product should reject the whole purchase.
			v.logger.Debug("[VALIDATE] skipping unknown product", zap.String("product_id", item.ProductID))
			continue
		}
		if err != nil {
			span.RecordError(err)
			return ValidationResult{}, fmt.Errorf("failed to find product %s: %w", item.ProductID, err)
		}

		if reason, ok := firstViolation(product, item.Quantity); ok {
			span.SetAttributes(
				attribute.String("purchase.rejection_reason", string(reason)),
				attribute.String("product_id", item.ProductID),
			)
			return ValidationResult{Reason: reason, ProductID: item.ProductID}, nil
		}
	}

	return ValidationResult{}, nil
}

func firstViolation(p *Product, quantity int) (RejectionReason, bool) {
	for _, rule := range purchaseRules {
		if rule.violated(p, quantity) {
			return rule.reason, true
		}
	}
	return "", false
}
