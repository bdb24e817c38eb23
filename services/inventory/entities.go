package main

import (
	"time"

	"github.com/google/uuid"
)

// Product representa um produto do catálogo com suas regras de compra
type Product struct {
	ID          string    `json:"product_id" db:"product_id"`
	Name        string    `json:"name" db:"name"`
	Enabled     bool      `json:"enabled" db:"enabled"`
	InInventory int       `json:"in_inventory" db:"in_inventory"`
	Min         int       `json:"min" db:"min_quantity"`
	Max         int       `json:"max" db:"max_quantity"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Deduct subtracts quantity from the stock. The result is not floored at zero.
func (p *Product) Deduct(quantity int) {
	p.InInventory -= quantity
	p.UpdatedAt = time.Now()
}

// LineItem is a requested product and quantity inside a purchase request.
type LineItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Purchase representa uma compra registrada
type Purchase struct {
	ID           string            `json:"id" db:"id"`
	Date         time.Time         `json:"date" db:"purchase_date"`
	ClientIDType string            `json:"client_id_type" db:"client_id_type"`
	ClientID     string            `json:"client_id" db:"client_id"`
	ClientName   string            `json:"client_name" db:"client_name"`
	Products     []PurchaseProduct `json:"products"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
}

// PurchaseProduct is one line of a purchase. ProductName is only filled on reads.
type PurchaseProduct struct {
	ProductID   string `json:"product_id" db:"product_id"`
	ProductName string `json:"name,omitempty" db:"name"`
	Quantity    int    `json:"quantity" db:"quantity"`
}

// NewPurchase cria uma nova compra referenciando os produtos apenas pelo ID
func NewPurchase(date time.Time, clientIDType, clientID, clientName string, items []LineItem) *Purchase {
	products := make([]PurchaseProduct, 0, len(items))
	for _, item := range items {
		products = append(products, PurchaseProduct{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	return &Purchase{
		ID:           uuid.New().String(),
		Date:         date,
		ClientIDType: clientIDType,
		ClientID:     clientID,
		ClientName:   clientName,
		Products:     products,
		CreatedAt:    time.Now(),
	}
}

// PurchaseDateLayout is the wire format of Purchase.Date.
const PurchaseDateLayout = "2006-01-02"

// PurchaseRequest representa a requisição para registrar uma compra.
// Only the date is checked at binding time; line items are judged by PurchaseValidator.
type PurchaseRequest struct {
	Date         string     `json:"date" binding:"required,datetime=2006-01-02"`
	ClientIDType string     `json:"client_id_type"`
	ClientID     string     `json:"client_id"`
	ClientName   string     `json:"client_name"`
	Products     []LineItem `json:"products"`
}

// ParsedDate returns Date parsed with PurchaseDateLayout.
func (r PurchaseRequest) ParsedDate() (time.Time, error) {
	return time.Parse(PurchaseDateLayout, r.Date)
}
