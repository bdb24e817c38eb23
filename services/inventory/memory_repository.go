package main

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryProductRepository keeps products in a map. The mutex only protects the
// map; reads and writes from the purchase workflow are not serialized.
type MemoryProductRepository struct {
	mu       sync.RWMutex
	products map[string]Product
}

func NewMemoryProductRepository(seed ...Product) *MemoryProductRepository {
	r := &MemoryProductRepository{products: make(map[string]Product, len(seed))}
	for _, p := range seed {
		r.products[p.ID] = p
	}
	return r
}

func (r *MemoryProductRepository) FindByID(_ context.Context, productID string) (*Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[productID]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &p, nil
}

func (r *MemoryProductRepository) FindAll(_ context.Context) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]Product, 0, len(r.products))
	for _, p := range r.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (r *MemoryProductRepository) Save(_ context.Context, product *Product) (*Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if existing, ok := r.products[product.ID]; ok {
		product.CreatedAt = existing.CreatedAt
	} else if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	r.products[product.ID] = *product
	return product, nil
}

// MemoryPurchaseRepository keeps purchases in insertion order.
type MemoryPurchaseRepository struct {
	mu        sync.RWMutex
	purchases []Purchase
	products  ProductRepository
}

// NewMemoryPurchaseRepository resolves product names on reads through products, which may be nil.
func NewMemoryPurchaseRepository(products ProductRepository) *MemoryPurchaseRepository {
	return &MemoryPurchaseRepository{products: products}
}

func (r *MemoryPurchaseRepository) Save(_ context.Context, purchase *Purchase) (*Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *purchase
	stored.Products = append([]PurchaseProduct(nil), purchase.Products...)
	r.purchases = append(r.purchases, stored)
	return purchase, nil
}

func (r *MemoryPurchaseRepository) FindAll(ctx context.Context) ([]Purchase, error) {
	r.mu.RLock()
	purchases := make([]Purchase, 0, len(r.purchases))
	for _, p := range r.purchases {
		p.Products = append([]PurchaseProduct{}, p.Products...)
		purchases = append(purchases, p)
	}
	r.mu.RUnlock()

	if r.products == nil {
		return purchases, nil
	}
	for i := range purchases {
		for j, line := range purchases[i].Products {
			product, err := r.products.FindByID(ctx, line.ProductID)
			if err == nil {
				purchases[i].Products[j].ProductName = product.Name
			}
		}
	}
	return purchases, nil
}
