// Command seed-db loads a catalog JSON file (products, offers, coupons)
// into the database, creating the schema when needed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/vkushwaha/storefront/internal/storage/postgres"
)

type productJSON struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	CategoryID string          `json:"categoryId"`
	Price      decimal.Decimal `json:"price"`
}

type offerJSON struct {
	ID           string          `json:"id"`
	Scope        string          `json:"scope"`
	TargetID     string          `json:"targetId"`
	DiscountType string          `json:"discountType"`
	Value        decimal.Decimal `json:"value"`
	StartsAt     time.Time       `json:"startsAt"`
	EndsAt       time.Time       `json:"endsAt"`
	Active       bool            `json:"active"`
}

type couponJSON struct {
	Code         string          `json:"code"`
	Description  string          `json:"description"`
	DiscountType string          `json:"discountType"`
	Value        decimal.Decimal `json:"value"`
	MinPurchase  decimal.Decimal `json:"minPurchase"`
	MaxDiscount  decimal.Decimal `json:"maxDiscount"`
	StartsAt     *time.Time      `json:"startsAt"`
	EndsAt       *time.Time      `json:"endsAt"`
	UsageLimit   int             `json:"usageLimit"`
	Active       bool            `json:"active"`
}

type catalogJSON struct {
	Products []productJSON `json:"products"`
	Offers   []offerJSON   `json:"offers"`
	Coupons  []couponJSON  `json:"coupons"`
}

func main() {
	var (
		databaseURL string
		catalogFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to catalog JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile string) error {
	raw, err := os.ReadFile(catalogFile)
	if err != nil {
		return errors.Wrap(err, "read catalog file")
	}
	var catalog catalogJSON
	if err := json.Unmarshal(raw, &catalog); err != nil {
		return errors.Wrap(err, "parse catalog file")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool, catalog.Products); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedOffers(ctx, pool, catalog.Offers); err != nil {
		return errors.Wrap(err, "seed offers")
	}
	if err := seedCoupons(ctx, pool, catalog.Coupons); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, products []productJSON) error {
	const sql = `INSERT INTO products (id, name, category_id, price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = $2, category_id = $3, price = $4`

	for _, p := range products {
		if _, err := pool.Exec(ctx, sql, p.ID, p.Name, p.CategoryID, p.Price); err != nil {
			return errors.Wrapf(err, "insert product %q", p.ID)
		}
	}
	slog.Info("seeded products", slog.Int("count", len(products)))
	return nil
}

func seedOffers(ctx context.Context, pool *pgxpool.Pool, offers []offerJSON) error {
	const sql = `INSERT INTO offers (id, scope, target_id, discount_type, value, starts_at, ends_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET scope = $2, target_id = $3, discount_type = $4,
			value = $5, starts_at = $6, ends_at = $7, active = $8`

	for _, o := range offers {
		if _, err := pool.Exec(ctx, sql,
			o.ID, o.Scope, o.TargetID, o.DiscountType, o.Value, o.StartsAt, o.EndsAt, o.Active,
		); err != nil {
			return errors.Wrapf(err, "insert offer %q", o.ID)
		}
	}
	slog.Info("seeded offers", slog.Int("count", len(offers)))
	return nil
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool, coupons []couponJSON) error {
	const sql = `INSERT INTO coupons
		(code, description, discount_type, value, min_purchase, max_discount, starts_at, ends_at, usage_limit, active)
		VALUES (UPPER($1), $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (code) DO UPDATE SET description = $2, discount_type = $3, value = $4,
			min_purchase = $5, max_discount = $6, starts_at = $7, ends_at = $8, usage_limit = $9, active = $10`

	for _, c := range coupons {
		if _, err := pool.Exec(ctx, sql,
			c.Code, c.Description, c.DiscountType, c.Value, c.MinPurchase, c.MaxDiscount,
			c.StartsAt, c.EndsAt, c.UsageLimit, c.Active,
		); err != nil {
			return errors.Wrapf(err, "insert coupon %q", c.Code)
		}
	}
	slog.Info("seeded coupons", slog.Int("count", len(coupons)))
	return nil
}
