package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PurchaseUseCaseInterface define a interface para o use case
type PurchaseUseCaseInterface interface {
	SubmitPurchase(ctx context.Context, req PurchaseRequest) error
	ListPurchases(ctx context.Context) ([]Purchase, error)
}

// PurchaseHandler contém os handlers HTTP de compras
type PurchaseHandler struct {
	useCase PurchaseUseCaseInterface
	logger  *zap.Logger
}

// NewPurchaseHandler cria uma nova instância de PurchaseHandler
func NewPurchaseHandler(useCase PurchaseUseCaseInterface, logger *zap.Logger) *PurchaseHandler {
	return &PurchaseHandler{
		useCase: useCase,
		logger:  logger,
	}
}

// SubmitPurchase registra uma compra
func (h *PurchaseHandler) SubmitPurchase(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("[PURCHASE] invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.useCase.SubmitPurchase(c.Request.Context(), req)
	if err != nil {
		var rejection *RejectionError
		if errors.As(err, &rejection) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":      rejection.Reason.Message(),
				"reason":     rejection.Reason,
				"product_id": rejection.ProductID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save purchase"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": "success"})
}

// ListPurchases lista as compras registradas
func (h *PurchaseHandler) ListPurchases(c *gin.Context) {
	purchases, err := h.useCase.ListPurchases(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list purchases"})
		return
	}

	response := make([]purchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		response = append(response, toPurchaseResponse(p))
	}
	c.JSON(http.StatusOK, response)
}

// HealthCheck é o endpoint de health check
func (h *PurchaseHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "inventory-service",
	})
}

type purchaseResponse struct {
	ID           string            `json:"id"`
	Date         string            `json:"date"`
	ClientIDType string            `json:"client_id_type"`
	ClientID     string            `json:"client_id"`
	ClientName   string            `json:"client_name"`
	Products     []PurchaseProduct `json:"products"`
}

func toPurchaseResponse(p Purchase) purchaseResponse {
	products := p.Products
	if products == nil {
		products = []PurchaseProduct{}
	}
	return purchaseResponse{
		ID:           p.ID,
		Date:         p.Date.Format(PurchaseDateLayout),
		ClientIDType: p.ClientIDType,
		ClientID:     p.ClientID,
		ClientName:   p.ClientName,
		Products:     products,
	}
}

// registerRoutes liga os handlers ao router
func registerRoutes(r *gin.Engine, handler *PurchaseHandler) {
	r.GET("/health", handler.HealthCheck)

	r.POST("/api/purchases", handler.SubmitPurchase)
	r.GET("/api/purchases", handler.ListPurchases)
}
