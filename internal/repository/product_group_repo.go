package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pricegate/pricegate_api/internal/models"
)

// ProductGroupRepository handles data access for product groups. Groups are
// written by an external normalization process; this repository only reads.
type ProductGroupRepository struct {
	db *sqlx.DB
}

// NewProductGroupRepository creates a new ProductGroupRepository.
func NewProductGroupRepository(db *sqlx.DB) *ProductGroupRepository {
	return &ProductGroupRepository{db: db}
}

type groupRow struct {
	ID            string    `db:"id"`
	Name          string    `db:"name"`
	Brand         string    `db:"brand"`
	Category      string    `db:"category"`
	Image         string    `db:"image"`
	ShopCount     int       `db:"shop_count"`
	PriceMin      float64   `db:"price_min"`
	PriceMax      float64   `db:"price_max"`
	PriceCurrency string    `db:"price_currency"`
	AvgRating     float64   `db:"avg_rating"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r groupRow) toModel() models.ProductGroup {
	return models.ProductGroup{
		ID:        r.ID,
		Name:      r.Name,
		Brand:     r.Brand,
		Category:  r.Category,
		Image:     r.Image,
		ShopCount: r.ShopCount,
		PriceRange: models.PriceRange{
			Min:      r.PriceMin,
			Max:      r.PriceMax,
			Currency: r.PriceCurrency,
		},
		AvgRating: r.AvgRating,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// GetByID returns a single product group, or sql.ErrNoRows.
func (r *ProductGroupRepository) GetByID(ctx context.Context, id string) (*models.ProductGroup, error) {
	const q = `SELECT * FROM product_groups WHERE id = $1 LIMIT 1`
	var row groupRow
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		return nil, err
	}
	g := row.toModel()
	return &g, nil
}

// TopGroups returns the groups covered by the most shops, used by the
// background deal scan to pick candidates worth re-checking.
func (r *ProductGroupRepository) TopGroups(ctx context.Context, limit int) ([]models.ProductGroup, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT * FROM product_groups ORDER BY shop_count DESC, updated_at DESC LIMIT $1`
	var rows []groupRow
	if err := r.db.SelectContext(ctx, &rows, q, limit); err != nil {
		return nil, err
	}
	groups := make([]models.ProductGroup, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, row.toModel())
	}
	return groups, nil
}
