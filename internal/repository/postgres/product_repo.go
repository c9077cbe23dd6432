// internal/repository/postgres/product_repo.go
package postgres

import (
	"context"
	"fmt"

	"crmsync-service/internal/domain/catalog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type ProductRepository struct {
	db *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{db: db}
}

// FindByIDs loads products with their specification attributes, keyed by ID.
// Missing IDs are absent from the map.
func (r *ProductRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]*catalog.Product, error) {
	products := make(map[int64]*catalog.Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, sku, name, deleted
		FROM products
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p catalog.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Deleted); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products[p.ID] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	attrRows, err := r.db.Query(ctx, `
		SELECT product_id, name, attribute_values, display_order
		FROM product_specification_attributes
		WHERE product_id = ANY($1)
		ORDER BY product_id, display_order, id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list specification attributes: %w", err)
	}
	defer attrRows.Close()

	for attrRows.Next() {
		var (
			productID int64
			attr      catalog.SpecificationAttribute
			values    []string
		)
		if err := attrRows.Scan(&productID, &attr.Name, &values, &attr.DisplayOrder); err != nil {
			return nil, fmt.Errorf("failed to scan specification attribute: %w", err)
		}
		attr.Values = pq.StringArray(values)
		if p, ok := products[productID]; ok {
			p.SpecificationAttributes = append(p.SpecificationAttributes, attr)
		}
	}

	return products, attrRows.Err()
}
