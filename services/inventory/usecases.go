package main

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	ErrPurchaseFailed = errors.New("failed to save purchase")
	ErrListFailed     = errors.New("failed to list purchases")
)

// PurchaseUseCase contém a lógica de negócio das compras
type PurchaseUseCase struct {
	purchases  PurchaseRepository
	validator  *PurchaseValidator
	adjuster   *InventoryAdjuster
	transactor Transactor
	tracer     trace.Tracer
	logger     *zap.Logger
	metrics    *PurchaseMetrics
}

// NewPurchaseUseCase cria uma nova instância de PurchaseUseCase
func NewPurchaseUseCase(
	purchases PurchaseRepository,
	validator *PurchaseValidator,
	adjuster *InventoryAdjuster,
	transactor Transactor,
	tracer trace.Tracer,
	logger *zap.Logger,
	metrics *PurchaseMetrics,
) *PurchaseUseCase {
	return &PurchaseUseCase{
		purchases:  purchases,
		validator:  validator,
		adjuster:   adjuster,
		transactor: transactor,
		tracer:     tracer,
		logger:     logger,
		metrics:    metrics,
	}
}

// SubmitPurchase validates the request, saves the purchase and deducts stock.
// Rule violations come back as *RejectionError; any other failure is logged
// and reported as ErrPurchaseFailed.
func (uc *PurchaseUseCase) SubmitPurchase(ctx context.Context, req PurchaseRequest) error {
	ctx, span := startPurchaseSpan(ctx, uc.tracer, req)
	defer span.End()

	uc.logger.Info("[PURCHASE] received",
		zap.String("client_id_type", req.ClientIDType),
		zap.String("client_id", req.ClientID),
		zap.Int("line_items", len(req.Products)),
	)

	date, err := req.ParsedDate()
	if err != nil {
		return uc.fail(ctx, span, "invalid purchase date", err)
	}

	result, err := uc.validator.Validate(ctx, req.Products)
	if err != nil {
		return uc.fail(ctx, span, "validation failed", err)
	}

	if !result.Valid() {
		uc.logger.Info("[PURCHASE] rejected",
			zap.String("product_id", result.ProductID),
			zap.String("reason", string(result.Reason)),
		)
		span.SetStatus(codes.Error, result.Reason.Message())
		uc.metrics.RecordSubmitted(ctx, OutcomeRejected, result.Reason)
		return &RejectionError{Reason: result.Reason, ProductID: result.ProductID}
	}

	purchase := NewPurchase(date, req.ClientIDType, req.ClientID, req.ClientName, req.Products)
	span.SetAttributes(attribute.String("purchase.id", purchase.ID))

	err = uc.transactor.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := uc.purchases.Save(ctx, purchase); err != nil {
			return err
		}
		return uc.adjuster.Deduct(ctx, req.Products)
	})
	if err != nil {
		return uc.fail(ctx, span, "failed to persist purchase", err, zap.String("purchase_id", purchase.ID))
	}

	uc.logger.Info("[PURCHASE] saved", zap.String("purchase_id", purchase.ID))
	span.SetStatus(codes.Ok, "purchase saved")
	uc.metrics.RecordSubmitted(ctx, OutcomeAccepted, "")
	return nil
}

// ListPurchases devolve todas as compras registradas
func (uc *PurchaseUseCase) ListPurchases(ctx context.Context) ([]Purchase, error) {
	ctx, span := uc.tracer.Start(ctx, "list_purchases")
	defer span.End()

	purchases, err := uc.purchases.FindAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list purchases")
		uc.logger.Error("[PURCHASE] list failed", zap.Error(err))
		return nil, ErrListFailed
	}

	span.SetAttributes(attribute.Int("purchase.count", len(purchases)))
	return purchases, nil
}

func (uc *PurchaseUseCase) fail(ctx context.Context, span trace.Span, msg string, err error, fields ...zap.Field) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	uc.logger.Error("[PURCHASE] "+msg, append(fields, zap.Error(err))...)
	uc.metrics.RecordSubmitted(ctx, OutcomeFailed, "")
	return ErrPurchaseFailed
}
