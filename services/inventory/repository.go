package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrProductNotFound = errors.New("product not found")

// ProductRepository define as operações de persistência do catálogo
type ProductRepository interface {
	// FindByID returns ErrProductNotFound when the id is unknown.
	FindByID(ctx context.Context, productID string) (*Product, error)
	FindAll(ctx context.Context) ([]Product, error)
	// Save inserts or updates the product.
	Save(ctx context.Context, product *Product) (*Product, error)
}

// PurchaseRepository define as operações de persistência de compras
type PurchaseRepository interface {
	Save(ctx context.Context, purchase *Purchase) (*Purchase, error)
	FindAll(ctx context.Context) ([]Purchase, error)
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgxPool is the part of *pgxpool.Pool the repositories and PostgresTransactor use.
type pgxPool interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ pgxPool = (*pgxpool.Pool)(nil)

// conn returns the transaction stored in ctx by PostgresTransactor, or the pool.
func conn(ctx context.Context, pool pgxPool) querier {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return pool
}

// PostgresProductRepository implementa ProductRepository usando PostgreSQL
type PostgresProductRepository struct {
	db pgxPool
}

// NewProductRepository cria uma nova instância de PostgresProductRepository
func NewProductRepository(db pgxPool) ProductRepository {
	return &PostgresProductRepository{db: db}
}

// FindByID busca um produto pelo ID
func (r *PostgresProductRepository) FindByID(ctx context.Context, productID string) (*Product, error) {
	var p Product
	err := conn(ctx, r.db).QueryRow(ctx, `
		SELECT product_id, name, enabled, in_inventory, min_quantity, max_quantity, created_at, updated_at
		FROM products
		WHERE product_id = $1
	`, productID).Scan(&p.ID, &p.Name, &p.Enabled, &p.InInventory, &p.Min, &p.Max, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

// FindAll lista os produtos do catálogo
func (r *PostgresProductRepository) FindAll(ctx context.Context) ([]Product, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `
		SELECT product_id, name, enabled, in_inventory, min_quantity, max_quantity, created_at, updated_at
		FROM products
		ORDER BY product_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Enabled, &p.InInventory, &p.Min, &p.Max, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Save faz upsert do produto
func (r *PostgresProductRepository) Save(ctx context.Context, product *Product) (*Product, error) {
	err := conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO products (product_id, name, enabled, in_inventory, min_quantity, max_quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (product_id) DO UPDATE
		SET name = EXCLUDED.name,
		    enabled = EXCLUDED.enabled,
		    in_inventory = EXCLUDED.in_inventory,
		    min_quantity = EXCLUDED.min_quantity,
		    max_quantity = EXCLUDED.max_quantity,
		    updated_at = NOW()
		RETURNING created_at, updated_at
	`, product.ID, product.Name, product.Enabled, product.InInventory, product.Min, product.Max).
		Scan(&product.CreatedAt, &product.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}
	return product, nil
}

// PostgresPurchaseRepository implementa PurchaseRepository usando PostgreSQL
type PostgresPurchaseRepository struct {
	db pgxPool
}

// NewPurchaseRepository cria uma nova instância de PostgresPurchaseRepository
func NewPurchaseRepository(db pgxPool) PurchaseRepository {
	return &PostgresPurchaseRepository{db: db}
}

// Save insere a compra e suas linhas. Sem transação externa, cabeçalho e
// linhas são gravados em uma transação própria.
func (r *PostgresPurchaseRepository) Save(ctx context.Context, purchase *Purchase) (*Purchase, error) {
	if _, ok := txFromContext(ctx); ok {
		if err := insertPurchase(ctx, conn(ctx, r.db), purchase); err != nil {
			return nil, err
		}
		return purchase, nil
	}

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return insertPurchase(ctx, tx, purchase)
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

func insertPurchase(ctx context.Context, q querier, purchase *Purchase) error {
	_, err := q.Exec(ctx, `
		INSERT INTO purchases (id, purchase_date, client_id_type, client_id, client_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, purchase.ID, purchase.Date, purchase.ClientIDType, purchase.ClientID, purchase.ClientName, purchase.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert purchase: %w", err)
	}

	for _, line := range purchase.Products {
		_, err = q.Exec(ctx, `
			INSERT INTO purchase_products (purchase_id, product_id, quantity)
			VALUES ($1, $2, $3)
		`, purchase.ID, line.ProductID, line.Quantity)
		if err != nil {
			return fmt.Errorf("failed to insert purchase product: %w", err)
		}
	}
	return nil
}

// FindAll lista as compras com o nome atual de cada produto
func (r *PostgresPurchaseRepository) FindAll(ctx context.Context) ([]Purchase, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `
		SELECT p.id, p.purchase_date, p.client_id_type, p.client_id, p.client_name, p.created_at,
		       pp.product_id, COALESCE(pr.name, ''), pp.quantity
		FROM purchases p
		LEFT JOIN purchase_products pp ON pp.purchase_id = p.id
		LEFT JOIN products pr ON pr.product_id = pp.product_id
		ORDER BY p.created_at, p.id, pp.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	purchases := []Purchase{}
	index := map[string]int{}
	for rows.Next() {
		var (
			p         Purchase
			productID *string
			name      string
			quantity  *int
		)
		if err := rows.Scan(&p.ID, &p.Date, &p.ClientIDType, &p.ClientID, &p.ClientName, &p.CreatedAt,
			&productID, &name, &quantity); err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}

		i, ok := index[p.ID]
		if !ok {
			p.Products = []PurchaseProduct{}
			purchases = append(purchases, p)
			i = len(purchases) - 1
			index[p.ID] = i
		}
		if productID != nil && quantity != nil {
			purchases[i].Products = append(purchases[i].Products, PurchaseProduct{
				ProductID:   *productID,
				ProductName: name,
				Quantity:    *quantity,
			})
		}
	}
	return purchases, rows.Err()
}
