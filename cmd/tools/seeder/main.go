package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedInventory(db)
	seedDeliveryOptions(db)
	seedCoupons(db)

	log.Println("Seeding completed successfully!")
}

func seedInventory(db *sql.DB) {
	items := []struct {
		ProductID    string
		VariantID    string
		SalePrice    string
		DiscountKind string
		DiscountVal  string
		Quantity     int
		WeightGram   int64
	}{
		{"kopi-gayo-250", "", "50.00", "percent", "10", 120, 250},
		{"kopi-gayo-1kg", "", "165.00", "none", "0", 40, 1000},
		{"teh-melati-100", "", "18.50", "amount", "2.50", 200, 100},
		{"gula-aren-500", "", "22.00", "none", "0", 75, 500},
		{"madu-hutan-350", "", "89.00", "percent", "15", 30, 350},
		{"keripik-pisang", uuid.NewString(), "12.00", "none", "0", 300, 150},
		{"keripik-pisang", uuid.NewString(), "14.00", "amount", "1", 180, 200},
	}

	fmt.Println("Seeding Inventory...")
	for _, it := range items {
		_, err := db.Exec(`
			INSERT INTO inventory (product_id, variant_id, sale_price, discount_kind, discount_value, quantity_available, weight_gram)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (product_id, variant_id) DO UPDATE SET
				sale_price = EXCLUDED.sale_price,
				discount_kind = EXCLUDED.discount_kind,
				discount_value = EXCLUDED.discount_value,
				quantity_available = EXCLUDED.quantity_available,
				weight_gram = EXCLUDED.weight_gram;
		`, it.ProductID, it.VariantID, it.SalePrice, it.DiscountKind, it.DiscountVal, it.Quantity, it.WeightGram)
		if err != nil {
			log.Printf("Failed to seed inventory %s: %v", it.ProductID, err)
		}
	}
}

func seedDeliveryOptions(db *sql.DB) {
	options := []struct {
		ID        string
		Label     string
		Cost      string
		Regions   string
		MaxWeight int64
		Position  int
	}{
		{"standard", "Standard (3-5 days)", "5.00", "{}", 0, 1},
		{"express", "Express (next day)", "12.00", "{}", 2000, 2},
		{"island", "Island courier", "20.00", "{bali,lombok}", 5000, 3},
		{"pickup", "Store pickup", "0.00", "{jakarta}", 0, 4},
	}

	fmt.Println("Seeding Delivery Options...")
	for _, o := range options {
		_, err := db.Exec(`
			INSERT INTO delivery_options (id, label, cost, regions, max_weight_gram, position)
			VALUES ($1, $2, $3, $4::text[], $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				label = EXCLUDED.label,
				cost = EXCLUDED.cost,
				regions = EXCLUDED.regions,
				max_weight_gram = EXCLUDED.max_weight_gram,
				position = EXCLUDED.position;
		`, o.ID, o.Label, o.Cost, o.Regions, o.MaxWeight, o.Position)
		if err != nil {
			log.Printf("Failed to seed delivery option %s: %v", o.ID, err)
		}
	}
}

func seedCoupons(db *sql.DB) {
	coupons := []struct {
		Code       string
		Kind       string
		Value      string
		MinOrder   sql.NullString
		ExpiresAt  sql.NullString
		UsageLimit sql.NullInt64
		Active     bool
	}{
		{"HEMAT20", "amount", "20.00", sql.NullString{String: "100.00", Valid: true}, sql.NullString{}, sql.NullInt64{}, true},
		{"DISKON10", "percent", "10", sql.NullString{}, sql.NullString{String: "2026-12-31T23:59:59Z", Valid: true}, sql.NullInt64{Int64: 500, Valid: true}, true},
		{"LAUNCH5", "amount", "5.00", sql.NullString{}, sql.NullString{String: "2026-06-30T23:59:59Z", Valid: true}, sql.NullInt64{}, true},
		{"LEGACY", "percent", "25", sql.NullString{}, sql.NullString{}, sql.NullInt64{}, false},
	}

	fmt.Println("Seeding Coupons...")
	for _, c := range coupons {
		_, err := db.Exec(`
			INSERT INTO coupons (code, kind, value, min_order_amount, expires_at, usage_limit, is_active)
			VALUES ($1, $2, $3, $4::numeric, $5::timestamptz, $6, $7)
			ON CONFLICT (code) DO UPDATE SET
				kind = EXCLUDED.kind,
				value = EXCLUDED.value,
				min_order_amount = EXCLUDED.min_order_amount,
				expires_at = EXCLUDED.expires_at,
				usage_limit = EXCLUDED.usage_limit,
				is_active = EXCLUDED.is_active;
		`, c.Code, c.Kind, c.Value, c.MinOrder, c.ExpiresAt, c.UsageLimit, c.Active)
		if err != nil {
			log.Printf("Failed to seed coupon %s: %v", c.Code, err)
		}
	}
}
