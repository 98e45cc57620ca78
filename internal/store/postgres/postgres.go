// Package postgres implements the Repository on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/salepoint/api/internal/domain"
	"github.com/salepoint/api/internal/store"
	"github.com/shopspring/decimal"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// --- Merchants ---

func (s *Store) CreateMerchant(ctx context.Context, m domain.Merchant) (*domain.Merchant, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO merchants (id, business_name, email, hashed_password, timezone, created_at)
		VALUES ($1, $2, lower($3), $4, $5, now())
		RETURNING id, business_name, email, hashed_password, timezone, created_at
	`, uuid.New(), m.BusinessName, m.Email, m.HashedPassword, m.Timezone)

	created, err := scanMerchant(row)
	if err != nil {
		if isUniqueViolation(err, "merchants_email_key") {
			return nil, store.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create merchant: %w", err)
	}
	return created, nil
}

func (s *Store) GetMerchantByEmail(ctx context.Context, email string) (*domain.Merchant, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, business_name, email, hashed_password, timezone, created_at
		FROM merchants
		WHERE email = lower($1)
	`, email)

	m, err := scanMerchant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get merchant by email: %w", err)
	}
	return m, nil
}

func (s *Store) GetMerchantByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, business_name, email, hashed_password, timezone, created_at
		FROM merchants
		WHERE id = $1
	`, id)

	m, err := scanMerchant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get merchant: %w", err)
	}
	return m, nil
}

func (s *Store) UpdateMerchant(ctx context.Context, m domain.Merchant) (*domain.Merchant, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE merchants
		SET business_name = $2, timezone = $3
		WHERE id = $1
		RETURNING id, business_name, email, hashed_password, timezone, created_at
	`, m.ID, m.BusinessName, m.Timezone)

	updated, err := scanMerchant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("update merchant: %w", err)
	}
	return updated, nil
}

func scanMerchant(row pgx.Row) (*domain.Merchant, error) {
	var m domain.Merchant
	if err := row.Scan(&m.ID, &m.BusinessName, &m.Email, &m.HashedPassword, &m.Timezone, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// --- Categories ---

func (s *Store) ListCategories(ctx context.Context, merchantID uuid.UUID) ([]domain.Category, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, merchant_id, name, created_at
		FROM categories
		WHERE merchant_id = $1
		ORDER BY name
	`, merchantID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Category, 0)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.MerchantID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Store) CreateCategory(ctx context.Context, c domain.Category) (*domain.Category, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO categories (id, merchant_id, name, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING id, merchant_id, name, created_at
	`, uuid.New(), c.MerchantID, c.Name)

	var created domain.Category
	if err := row.Scan(&created.ID, &created.MerchantID, &created.Name, &created.CreatedAt); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &created, nil
}

func (s *Store) UpdateCategory(ctx context.Context, c domain.Category) (*domain.Category, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE categories
		SET name = $3
		WHERE id = $1 AND merchant_id = $2
		RETURNING id, merchant_id, name, created_at
	`, c.ID, c.MerchantID, c.Name)

	var updated domain.Category
	if err := row.Scan(&updated.ID, &updated.MerchantID, &updated.Name, &updated.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("update category: %w", err)
	}
	return &updated, nil
}

func (s *Store) DeleteCategory(ctx context.Context, merchantID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM categories WHERE id = $1 AND merchant_id = $2
	`, id, merchantID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// --- Items ---

func (s *Store) ListItems(ctx context.Context, merchantID uuid.UUID) ([]domain.Item, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, merchant_id, name, price::text, category, created_at, updated_at
		FROM items
		WHERE merchant_id = $1
		ORDER BY category, name
	`, merchantID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *it)
	}
	return result, rows.Err()
}

func (s *Store) GetItem(ctx context.Context, merchantID, id uuid.UUID) (*domain.Item, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, merchant_id, name, price::text, category, created_at, updated_at
		FROM items
		WHERE id = $1 AND merchant_id = $2
	`, id, merchantID)

	it, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

func (s *Store) CreateItem(ctx context.Context, it domain.Item) (*domain.Item, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO items (id, merchant_id, name, price, category, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING id, merchant_id, name, price::text, category, created_at, updated_at
	`, uuid.New(), it.MerchantID, it.Name, it.Price.StringFixed(2), it.Category)

	created, err := scanItem(row)
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return created, nil
}

func (s *Store) UpdateItem(ctx context.Context, it domain.Item) (*domain.Item, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE items
		SET name = $3, price = $4, category = $5, updated_at = now()
		WHERE id = $1 AND merchant_id = $2
		RETURNING id, merchant_id, name, price::text, category, created_at, updated_at
	`, it.ID, it.MerchantID, it.Name, it.Price.StringFixed(2), it.Category)

	updated, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("update item: %w", err)
	}
	return updated, nil
}

func (s *Store) DeleteItem(ctx context.Context, merchantID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM items WHERE id = $1 AND merchant_id = $2
	`, id, merchantID)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanItem(row pgx.Row) (*domain.Item, error) {
	var (
		it    domain.Item
		price string
	)
	if err := row.Scan(&it.ID, &it.MerchantID, &it.Name, &price, &it.Category, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse item price %q: %w", price, err)
	}
	it.Price = d
	return &it, nil
}

// --- Sales ---

// CreateSaleRecord inserts the sale and its line items in one transaction.
// The unique index on (merchant_id, sale_date, sale_number) turns concurrent
// allocations of the same number into ErrSaleNumberConflict, which the
// checkout service retries.
func (s *Store) CreateSaleRecord(ctx context.Context, rec domain.SaleRecord) (*domain.SaleRecord, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var cashPaid, change *string
	if rec.CashPaid != nil {
		v := rec.CashPaid.StringFixed(2)
		cashPaid = &v
	}
	if rec.Change != nil {
		v := rec.Change.StringFixed(2)
		change = &v
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO sales (id, merchant_id, sale_number, sale_date, total, payment_method, cash_paid, change, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		RETURNING id, created_at
	`, uuid.New(), rec.MerchantID, rec.SaleNumber, rec.Date,
		rec.Total.StringFixed(2), rec.PaymentMethod, cashPaid, change)

	if err := row.Scan(&rec.ID, &rec.CreatedAt); err != nil {
		if isUniqueViolation(err, "sales_merchant_id_sale_date_sale_number_key") {
			return nil, store.ErrSaleNumberConflict
		}
		return nil, fmt.Errorf("insert sale: %w", err)
	}

	for i, line := range rec.Items {
		_, err := tx.Exec(ctx, `
			INSERT INTO sale_items (sale_id, position, name, price, quantity)
			VALUES ($1, $2, $3, $4, $5)
		`, rec.ID, i, line.Name, line.Price.StringFixed(2), line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("insert sale item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	created := rec
	return &created, nil
}

func (s *Store) CountSalesOnDate(ctx context.Context, merchantID uuid.UUID, date string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM sales WHERE merchant_id = $1 AND sale_date = $2
	`, merchantID, date).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count sales: %w", err)
	}
	return count, nil
}

func (s *Store) FetchSaleRecords(ctx context.Context, merchantID uuid.UUID, startDate, endDate string) ([]domain.SaleRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, merchant_id, sale_number, to_char(sale_date, 'YYYY-MM-DD'),
		       total::text, payment_method, cash_paid::text, change::text, created_at
		FROM sales
		WHERE merchant_id = $1 AND sale_date BETWEEN $2 AND $3
		ORDER BY sale_date, sale_number
	`, merchantID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("fetch sales: %w", err)
	}
	defer rows.Close()

	result := make([]domain.SaleRecord, 0)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		rec, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
		ids = append(ids, rec.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return result, nil
	}

	if err := s.attachItems(ctx, ids, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) GetSaleRecord(ctx context.Context, merchantID, id uuid.UUID) (*domain.SaleRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, merchant_id, sale_number, to_char(sale_date, 'YYYY-MM-DD'),
		       total::text, payment_method, cash_paid::text, change::text, created_at
		FROM sales
		WHERE id = $1 AND merchant_id = $2
	`, id, merchantID)

	rec, err := scanSale(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}

	result := []domain.SaleRecord{*rec}
	if err := s.attachItems(ctx, []uuid.UUID{rec.ID}, result); err != nil {
		return nil, err
	}
	return &result[0], nil
}

// attachItems loads line items for the given sale IDs and fills them into
// result, which must hold the same sales in any order.
func (s *Store) attachItems(ctx context.Context, ids []uuid.UUID, result []domain.SaleRecord) error {
	rows, err := s.pool.Query(ctx, `
		SELECT sale_id, name, price::text, quantity
		FROM sale_items
		WHERE sale_id = ANY($1)
		ORDER BY sale_id, position
	`, ids)
	if err != nil {
		return fmt.Errorf("fetch sale items: %w", err)
	}
	defer rows.Close()

	index := make(map[uuid.UUID]int, len(result))
	for i := range result {
		result[i].Items = []domain.SaleItem{}
		index[result[i].ID] = i
	}

	for rows.Next() {
		var (
			saleID uuid.UUID
			line   domain.SaleItem
			price  string
		)
		if err := rows.Scan(&saleID, &line.Name, &price, &line.Quantity); err != nil {
			return fmt.Errorf("scan sale item: %w", err)
		}
		d, err := decimal.NewFromString(price)
		if err != nil {
			return fmt.Errorf("parse sale item price %q: %w", price, err)
		}
		line.Price = d
		if i, ok := index[saleID]; ok {
			result[i].Items = append(result[i].Items, line)
		}
	}
	return rows.Err()
}

func scanSale(row pgx.Row) (*domain.SaleRecord, error) {
	var (
		rec      domain.SaleRecord
		total    string
		cashPaid *string
		change   *string
	)
	if err := row.Scan(&rec.ID, &rec.MerchantID, &rec.SaleNumber, &rec.Date,
		&total, &rec.PaymentMethod, &cashPaid, &change, &rec.CreatedAt); err != nil {
		return nil, err
	}

	d, err := decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("parse sale total %q: %w", total, err)
	}
	rec.Total = d

	if cashPaid != nil {
		v, err := decimal.NewFromString(*cashPaid)
		if err != nil {
			return nil, fmt.Errorf("parse cash paid %q: %w", *cashPaid, err)
		}
		rec.CashPaid = &v
	}
	if change != nil {
		v, err := decimal.NewFromString(*change)
		if err != nil {
			return nil, fmt.Errorf("parse change %q: %w", *change, err)
		}
		rec.Change = &v
	}
	return &rec, nil
}

// --- Helpers ---

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == constraint
	}
	return false
}

// Ping verifies connectivity at startup.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}
