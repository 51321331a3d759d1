// Command seed-db loads demo catalog variants, buyer addresses, and coupon
// cards into the database for local development and integration testing.
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
	"golang.org/x/sync/errgroup"

	"github.com/mallcraft/trade-service/internal/repository"
)

type variantJSON struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
}

func main() {
	var (
		databaseURL  string
		variantsFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&variantsFile, "variants-file", "db/seed/variants.json", "path to variants JSON file")
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

	if err := run(ctx, databaseURL, variantsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, variantsFile string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// The three tables are independent, so seed them concurrently.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return seedVariants(gctx, pool, variantsFile) })
	g.Go(func() error { return seedAddresses(gctx, pool) })
	g.Go(func() error { return seedCouponCards(gctx, pool) })
	return g.Wait()
}

func seedVariants(ctx context.Context, pool *pgxpool.Pool, variantsFile string) error {
	slog.Info("reading variants file", slog.String("path", variantsFile))

	data, err := os.ReadFile(variantsFile)
	if err != nil {
		return errors.Wrap(err, "read variants file")
	}

	var variants []variantJSON
	if err := json.Unmarshal(data, &variants); err != nil {
		return errors.Wrap(err, "parse variants JSON")
	}

	slog.Info("upserting variants", slog.Int("count", len(variants)))

	const q = `
		INSERT INTO product_variants (id, product_id, name, image, price, published)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		ON CONFLICT (id) DO UPDATE
		SET product_id = EXCLUDED.product_id,
		    name       = EXCLUDED.name,
		    image      = EXCLUDED.image,
		    price      = EXCLUDED.price,
		    published  = TRUE`

	for _, v := range variants {
		if _, err := pool.Exec(ctx, q, v.ID, v.ProductID, v.Name, v.Image, v.Price); err != nil {
			return errors.Wrapf(err, "upsert variant %d", v.ID)
		}
		slog.Info("upserted variant", slog.Int64("id", v.ID), slog.String("name", v.Name))
	}
	return nil
}

func seedAddresses(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding demo addresses")

	type addr struct {
		id            int64
		buyerID       int64
		receiverName  string
		mobile        string
		areaCode      string
		detailAddress string
	}
	addrs := []addr{
		{1, 1, "Ada Lovelace", "13800000001", "310101", "12 Analytical Engine Rd"},
		{2, 1, "Ada Lovelace", "13800000001", "310104", "98 Difference St, Floor 3"},
		{3, 2, "Grace Hopper", "13800000002", "110105", "7 Compiler Ave"},
	}

	const q = `
		INSERT INTO addresses (id, buyer_id, receiver_name, mobile, area_code, detail_address)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET buyer_id       = EXCLUDED.buyer_id,
		    receiver_name  = EXCLUDED.receiver_name,
		    mobile         = EXCLUDED.mobile,
		    area_code      = EXCLUDED.area_code,
		    detail_address = EXCLUDED.detail_address`

	for _, a := range addrs {
		if _, err := pool.Exec(ctx, q, a.id, a.buyerID, a.receiverName, a.mobile, a.areaCode, a.detailAddress); err != nil {
			return errors.Wrapf(err, "upsert address %d", a.id)
		}
	}
	return nil
}

func seedCouponCards(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding demo coupon cards")

	type card struct {
		id           int64
		buyerID      int64
		discountType string
		value        decimal.Decimal
		minItems     int
		maxDiscount  decimal.Decimal
		description  string
		validUntil   time.Time
	}
	year := time.Now().AddDate(1, 0, 0)
	cards := []card{
		{1, 1, "percentage", decimal.NewFromInt(10), 0, decimal.NewFromInt(50), "10% off, up to 50", year},
		{2, 1, "fixed", decimal.NewFromInt(15), 0, decimal.Zero, "15 off any order", year},
		{3, 2, "free_lowest", decimal.Zero, 2, decimal.Zero, "Lowest item free (buy 2+)", year},
	}

	const q = `
		INSERT INTO coupon_cards (id, buyer_id, status, discount_type, value, min_items, max_discount, description, valid_until)
		VALUES ($1, $2, 'unused', $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET buyer_id      = EXCLUDED.buyer_id,
		    status        = 'unused',
		    discount_type = EXCLUDED.discount_type,
		    value         = EXCLUDED.value,
		    min_items     = EXCLUDED.min_items,
		    max_discount  = EXCLUDED.max_discount,
		    description   = EXCLUDED.description,
		    valid_until   = EXCLUDED.valid_until,
		    used_at       = NULL`

	for _, c := range cards {
		if _, err := pool.Exec(ctx, q, c.id, c.buyerID, c.discountType, c.value, c.minItems, c.maxDiscount, c.description, c.validUntil); err != nil {
			return errors.Wrapf(err, "upsert coupon card %d", c.id)
		}
		slog.Info("upserted coupon card", slog.Int64("id", c.id), slog.String("description", c.description))
	}
	return nil
}
