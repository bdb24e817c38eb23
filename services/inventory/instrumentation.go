package main

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Purchase outcomes recorded on the purchases.submitted counter.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// PurchaseMetrics agrupa os instrumentos de métricas do fluxo de compra
type PurchaseMetrics struct {
	submitted metric.Int64Counter
	deducted  metric.Int64Counter
}

// NewPurchaseMetrics registers the purchase counters on meter.
func NewPurchaseMetrics(meter metric.Meter) (*PurchaseMetrics, error) {
	submitted, err := meter.Int64Counter("purchases.submitted",
		metric.WithDescription("Purchase submissions by outcome"),
	)
	if err != nil {
		return nil, err
	}

	deducted, err := meter.Int64Counter("inventory.units_deducted",
		metric.WithDescription("Units removed from stock by purchases"),
		metric.WithUnit("{unit}"),
	)
	if err != nil {
		return nil, err
	}

	return &PurchaseMetrics{submitted: submitted, deducted: deducted}, nil
}

func (m *PurchaseMetrics) RecordSubmitted(ctx context.Context, outcome string, reason RejectionReason) {
	attrs := []attribute.KeyValue{attribute.String("outcome", outcome)}
	if reason != "" {
		attrs = append(attrs, attribute.String("reason", string(reason)))
	}
	m.submitted.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordDeducted counts units taken from stock. Product ids go on the
// deduct_inventory span, not on the counter.
func (m *PurchaseMetrics) RecordDeducted(ctx context.Context, quantity int) {
	if quantity <= 0 {
		return
	}
	m.deducted.Add(ctx, int64(quantity))
}

// startPurchaseSpan cria o span principal de uma submissão de compra
func startPurchaseSpan(ctx context.Context, tracer trace.Tracer, req PurchaseRequest) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "submit_purchase")

	span.SetAttributes(
		attribute.String("purchase.client_id_type", req.ClientIDType),
		attribute.String("purchase.client_id", req.ClientID),
		attribute.Int("purchase.line_items", len(req.Products)),
		attribute.String("component", "purchase-workflow"),
	)

	return ctx, span
}
