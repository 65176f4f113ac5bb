package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/storefront-checkout/internal/domain/catalog"
	"github.com/xenking/storefront-checkout/internal/domain/money"
)

const (
	itemColumns = `id, name, description, price, currency`

	listItemsSQL = `SELECT ` + itemColumns + ` FROM items ORDER BY id`
	getItemSQL   = `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	getItemsSQL  = `SELECT ` + itemColumns + ` FROM items WHERE id = ANY($1) ORDER BY id`

	getDiscountSQL = `SELECT id, name, percent_off, coupon_id, duration FROM discounts WHERE id = $1`
	getTaxSQL      = `SELECT id, name, rate, tax_type, tax_id, country FROM taxes WHERE id = $1`

	upsertItemSQL = `INSERT INTO items (name, description, price, currency)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (name, currency) DO UPDATE
	SET description = EXCLUDED.description, price = EXCLUDED.price
	RETURNING id`
	createDiscountSQL = `INSERT INTO discounts (name, percent_off, coupon_id, duration)
	VALUES ($1, $2, $3, $4) RETURNING id`
	createTaxSQL = `INSERT INTO taxes (name, rate, tax_type, tax_id, country)
	VALUES ($1, $2, $3, $4, $5) RETURNING id`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	db DBTX
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(db DBTX) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListItems returns all items ordered by ID.
func (r *CatalogRepository) ListItems(ctx context.Context) ([]catalog.Item, error) {
	return r.queryItems(ctx, listItemsSQL)
}

// GetItem returns a single item. It returns catalog.ErrItemNotFound when no
// matching item exists.
func (r *CatalogRepository) GetItem(ctx context.Context, id int64) (*catalog.Item, error) {
	it, err := scanItem(r.db.QueryRow(ctx, getItemSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrItemNotFound
		}
		return nil, errors.Wrapf(err, "get item %d", id)
	}
	return &it, nil
}

// GetItems returns the items with the given IDs in a single query. Missing IDs
// are skipped; the caller decides whether that is an error.
func (r *CatalogRepository) GetItems(ctx context.Context, ids []int64) ([]catalog.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.queryItems(ctx, getItemsSQL, ids)
}

func (r *CatalogRepository) queryItems(ctx context.Context, sql string, args ...any) ([]catalog.Item, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query items")
	}
	defer rows.Close()

	var items []catalog.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan item")
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate items")
	}
	return items, nil
}

// GetDiscount returns a discount or catalog.ErrDiscountNotFound.
func (r *CatalogRepository) GetDiscount(ctx context.Context, id int64) (*catalog.Discount, error) {
	var (
		d        catalog.Discount
		duration string
	)
	err := r.db.QueryRow(ctx, getDiscountSQL, id).Scan(&d.ID, &d.Name, &d.PercentOff, &d.CouponID, &duration)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrDiscountNotFound
		}
		return nil, errors.Wrapf(err, "get discount %d", id)
	}
	d.Duration = catalog.Duration(duration)
	return &d, nil
}

// GetTax returns a tax or catalog.ErrTaxNotFound.
func (r *CatalogRepository) GetTax(ctx context.Context, id int64) (*catalog.Tax, error) {
	var (
		t       catalog.Tax
		taxType string
	)
	err := r.db.QueryRow(ctx, getTaxSQL, id).Scan(&t.ID, &t.Name, &t.Rate, &taxType, &t.TaxID, &t.Country)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrTaxNotFound
		}
		return nil, errors.Wrapf(err, "get tax %d", id)
	}
	t.Type = catalog.TaxType(taxType)
	return &t, nil
}

// UpsertItem validates and stores an item keyed by name and currency, and
// sets its ID. An existing item keeps its ID and gets the new price and
// description.
func (r *CatalogRepository) UpsertItem(ctx context.Context, it *catalog.Item) error {
	if it.Currency == "" {
		it.Currency = money.DefaultCurrency
	}
	if err := it.Validate(); err != nil {
		return err
	}
	err := r.db.QueryRow(ctx, upsertItemSQL, it.Name, it.Description, it.Price, it.Currency.String()).Scan(&it.ID)
	if err != nil {
		return errors.Wrapf(err, "upsert item %q", it.Name)
	}
	return nil
}

// CreateDiscount validates and stores a discount, and sets its ID.
func (r *CatalogRepository) CreateDiscount(ctx context.Context, d *catalog.Discount) error {
	if err := d.Validate(); err != nil {
		return err
	}
	err := r.db.QueryRow(ctx, createDiscountSQL, d.Name, d.PercentOff, d.CouponID, string(d.Duration)).Scan(&d.ID)
	if err != nil {
		return errors.Wrapf(err, "create discount %q", d.Name)
	}
	return nil
}

// CreateTax validates and stores a tax, and sets its ID.
func (r *CatalogRepository) CreateTax(ctx context.Context, t *catalog.Tax) error {
	if err := t.Validate(); err != nil {
		return err
	}
	err := r.db.QueryRow(ctx, createTaxSQL, t.Name, t.Rate, string(t.Type), t.TaxID, t.Country).Scan(&t.ID)
	if err != nil {
		return errors.Wrapf(err, "create tax %q", t.Name)
	}
	return nil
}

func scanItem(row pgx.Row) (catalog.Item, error) {
	var (
		it       catalog.Item
		currency string
	)
	if err := row.Scan(&it.ID, &it.Name, &it.Description, &it.Price, &currency); err != nil {
		return catalog.Item{}, err
	}
	it.Currency = money.Currency(currency)
	return it, nil
}
