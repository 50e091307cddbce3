package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/pricegate/pricegate_api/internal/models"
)

// ListingQuery holds the filters for a raw-store listing search. It mirrors
// the provider filter contract so the fallback path can serve the same
// requests as the index.
type ListingQuery struct {
	Text         string
	MarketType   models.MarketType
	Country      string // shop country for local, destination ships-to for global
	MinPrice     *float64
	MaxPrice     *float64
	InStockOnly  bool
	Shops        []string
	Categories   []string
	Brands       []string
	MinRating    *float64
	Availability []models.Availability
	OrderBy      string // whitelisted column expression, empty for default
	Limit        int
	Offset       int
}

// ListingRepository handles data access for listings.
type ListingRepository struct {
	db *sqlx.DB
}

// NewListingRepository creates a new ListingRepository.
func NewListingRepository(db *sqlx.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// listingRow is the flat DB projection of a Listing. JSONB columns are
// scanned raw and decoded in toModel.
type listingRow struct {
	ID            string          `db:"id"`
	GroupID       sql.NullString  `db:"group_id"`
	Name          string          `db:"name"`
	Brand         string          `db:"brand"`
	Category      string          `db:"category"`
	Description   string          `db:"description"`
	Images        json.RawMessage `db:"images"`
	ShopName      string          `db:"shop_name"`
	MarketType    string          `db:"market_type"`
	ShopCountry   string          `db:"shop_country"`
	ShipsTo       json.RawMessage `db:"ships_to"`
	Marketplace   bool            `db:"marketplace"`
	PriceAmount   float64         `db:"price_amount"`
	PriceCurrency string          `db:"price_currency"`
	TaxInclusive  bool            `db:"tax_inclusive"`
	Availability  string          `db:"availability"`
	Rating        sql.NullFloat64 `db:"rating"`
	ReviewCount   sql.NullInt64   `db:"review_count"`
	ScrapedAt     time.Time       `db:"scraped_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

func (r listingRow) toModel() models.Listing {
	l := models.Listing{
		ID:          r.ID,
		GroupID:     r.GroupID.String,
		Name:        r.Name,
		Brand:       r.Brand,
		Category:    r.Category,
		Description: r.Description,
		Shop: models.ShopInfo{
			Name:        r.ShopName,
			Type:        models.MarketType(r.MarketType),
			Country:     r.ShopCountry,
			Marketplace: r.Marketplace,
		},
		Pricing: models.Pricing{
			Base: models.Price{
				Amount:       r.PriceAmount,
				Currency:     r.PriceCurrency,
				TaxInclusive: r.TaxInclusive,
			},
		},
		Availability: models.Availability(r.Availability),
		ScrapedAt:    r.ScrapedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	_ = json.Unmarshal(r.Images, &l.Images)
	_ = json.Unmarshal(r.ShipsTo, &l.Shop.ShipsTo)
	if r.Rating.Valid {
		rating := r.Rating.Float64
		l.Rating = &rating
	}
	if r.ReviewCount.Valid {
		count := int(r.ReviewCount.Int64)
		l.ReviewCount = &count
	}
	return l
}

// Search returns listings matching the query plus the total matching count.
// Empty filter fields are ignored. This is the degraded fallback path: plain
// filtered finds, no relevance ranking.
func (r *ListingRepository) Search(ctx context.Context, q ListingQuery) ([]models.Listing, int, error) {
	where := `WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	addArg := func(clause string, value interface{}) {
		where += fmt.Sprintf(clause, argIdx)
		args = append(args, value)
		argIdx++
	}

	if q.Text != "" {
		addArg(" AND (name ILIKE '%%' || $%d || '%%' OR brand ILIKE '%%' || $%[1]d || '%%')", q.Text)
	}
	if q.MarketType != "" {
		addArg(" AND market_type = $%d", string(q.MarketType))
	}
	if q.Country != "" {
		if q.MarketType == models.MarketGlobal {
			addArg(" AND ships_to @> $%d::jsonb", fmt.Sprintf("[%q]", q.Country))
		} else {
			addArg(" AND shop_country = $%d", q.Country)
		}
	}
	if q.MinPrice != nil {
		addArg(" AND price_amount >= $%d", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		addArg(" AND price_amount <= $%d", *q.MaxPrice)
	}
	if q.InStockOnly {
		where += " AND availability = 'in_stock'"
	}
	if q.MinRating != nil {
		addArg(" AND rating >= $%d", *q.MinRating)
	}
	if len(q.Shops) > 0 {
		addArg(" AND shop_name = ANY($%d)", pq.Array(q.Shops))
	}
	if len(q.Categories) > 0 {
		addArg(" AND category = ANY($%d)", pq.Array(q.Categories))
	}
	if len(q.Brands) > 0 {
		addArg(" AND brand = ANY($%d)", pq.Array(q.Brands))
	}
	if len(q.Availability) > 0 {
		states := make([]string, 0, len(q.Availability))
		for _, a := range q.Availability {
			states = append(states, string(a))
		}
		addArg(" AND availability = ANY($%d)", pq.Array(states))
	}

	countQuery := `SELECT COUNT(1) FROM listings ` + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	orderBy := q.OrderBy
	if orderBy == "" {
		orderBy = "updated_at DESC"
	}

	listQuery := fmt.Sprintf(`SELECT * FROM listings %s ORDER BY %s, id LIMIT $%d OFFSET $%d`,
		where, orderBy, argIdx, argIdx+1)
	args = append(args, q.Limit, q.Offset)

	var rows []listingRow
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, 0, err
	}

	listings := make([]models.Listing, 0, len(rows))
	for _, row := range rows {
		listings = append(listings, row.toModel())
	}
	return listings, total, nil
}

// GetByID returns a single listing by id, or sql.ErrNoRows.
func (r *ListingRepository) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	const q = `SELECT * FROM listings WHERE id = $1 LIMIT 1`
	var row listingRow
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		return nil, err
	}
	l := row.toModel()
	return &l, nil
}

// GetByGroupID returns all listings that belong to a product group.
func (r *ListingRepository) GetByGroupID(ctx context.Context, groupID string) ([]models.Listing, error) {
	const q = `SELECT * FROM listings WHERE group_id = $1 ORDER BY price_amount, id`
	var rows []listingRow
	if err := r.db.SelectContext(ctx, &rows, q, groupID); err != nil {
		return nil, err
	}
	listings := make([]models.Listing, 0, len(rows))
	for _, row := range rows {
		listings = append(listings, row.toModel())
	}
	return listings, nil
}
