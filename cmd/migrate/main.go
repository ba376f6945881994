package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

const usage = "Usage: go run ./cmd/migrate [drop|up|seed|indexes]"

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Get database URL
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	// Get command
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	command := os.Args[1]

	// Connect to database
	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "drop":
		if err := dropTables(ctx, conn); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("✅ All tables dropped successfully")

	case "up":
		if err := createTables(ctx, conn); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("✅ All tables created successfully")

	case "seed":
		if err := seedData(ctx, conn); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		fmt.Println("✅ Data seeded successfully")

	case "indexes":
		if err := runSQLFile(ctx, conn, "migrations/dashboard_indexes.sql"); err != nil {
			log.Fatalf("Failed to create dashboard indexes: %v", err)
		}
		fmt.Println("✅ Dashboard indexes created successfully")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println(usage)
		os.Exit(1)
	}
}

func dropTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`DROP TABLE IF EXISTS engagement_events CASCADE`,
		`DROP TABLE IF EXISTS revenue_records CASCADE`,
		`DROP TABLE IF EXISTS promotions CASCADE`,
		`DROP TABLE IF EXISTS businesses CASCADE`,
		`DROP TABLE IF EXISTS users CASCADE`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
		fmt.Printf("  Dropped: %s\n", query)
	}

	return nil
}

func createTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username VARCHAR(150) UNIQUE NOT NULL,
			email VARCHAR(255) NOT NULL DEFAULT '',
			role VARCHAR(20) NOT NULL DEFAULT 'customer'
				CHECK (role IN ('customer', 'guest', 'owner', 'admin')),
			is_active BOOLEAN NOT NULL DEFAULT true,
			is_staff BOOLEAN NOT NULL DEFAULT false,
			date_joined TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_login TIMESTAMPTZ
		)`,

		`CREATE TABLE IF NOT EXISTS businesses (
			id BIGSERIAL PRIMARY KEY,
			owner_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			category VARCHAR(50)
				CHECK (category IN ('hotel', 'lodge', 'camp', 'apartment', 'guest_house')),
			is_active BOOLEAN NOT NULL DEFAULT true,
			is_verified BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS promotions (
			id BIGSERIAL PRIMARY KEY,
			business_id BIGINT NOT NULL REFERENCES businesses(id) ON DELETE CASCADE,
			title VARCHAR(255) NOT NULL,
			starts_at TIMESTAMPTZ NOT NULL,
			ends_at TIMESTAMPTZ NOT NULL,
			amount NUMERIC(12, 2) NOT NULL DEFAULT 0 CHECK (amount >= 0),
			status VARCHAR(20) NOT NULL DEFAULT 'pending'
				CHECK (status IN ('pending', 'active', 'cancelled', 'completed')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CHECK (ends_at >= starts_at)
		)`,

		`CREATE TABLE IF NOT EXISTS revenue_records (
			id BIGSERIAL PRIMARY KEY,
			owner_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			business_id BIGINT REFERENCES businesses(id) ON DELETE SET NULL,
			period DATE NOT NULL,
			source VARCHAR(50) NOT NULL,
			amount NUMERIC(12, 2) NOT NULL CHECK (amount >= 0),
			UNIQUE (owner_id, period, source)
		)`,

		`CREATE TABLE IF NOT EXISTS engagement_events (
			id BIGSERIAL PRIMARY KEY,
			business_id BIGINT NOT NULL REFERENCES businesses(id) ON DELETE CASCADE,
			user_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
			kind VARCHAR(30) NOT NULL
				CHECK (kind IN ('map_view', 'promotion_view', 'promotion_redemption')),
			duration_seconds INTEGER NOT NULL DEFAULT 0 CHECK (duration_seconds BETWEEN 0 AND 86400),
			occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_businesses_owner_id ON businesses(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_promotions_business_id ON promotions(business_id)`,
		`CREATE INDEX IF NOT EXISTS idx_revenue_records_owner_period ON revenue_records(owner_id, period)`,
		`CREATE INDEX IF NOT EXISTS idx_engagement_events_business_kind ON engagement_events(business_id, kind, occurred_at)`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w\nQuery: %s", err, query)
		}
		fmt.Printf("  Created: %s\n", getTableName(query))
	}

	return nil
}

// seedData loads a small platform whose timestamps are relative to NOW() so
// every dashboard window has data right after seeding
func seedData(ctx context.Context, conn *pgx.Conn) error {
	batch := &pgx.Batch{}

	batch.Queue(`
		INSERT INTO users (username, email, role, is_staff, date_joined, last_login) VALUES
		('admin', 'admin@zamstay.local', 'admin', true, NOW() - interval '90 days', NOW() - interval '1 hour'),
		('somchai', 'somchai@zamstay.local', 'owner', false, NOW() - interval '60 days', NOW() - interval '2 days'),
		('malee', 'malee@zamstay.local', 'owner', false, NOW() - interval '3 days', NOW()),
		('nok', 'nok@zamstay.local', 'customer', false, NOW(), NOW()),
		('lek', 'lek@zamstay.local', 'customer', false, NOW() - interval '20 days', NULL)
		ON CONFLICT (username) DO NOTHING`)

	batch.Queue(`
		INSERT INTO businesses (owner_id, name, category, is_verified, created_at, updated_at)
		SELECT u.id, b.name, b.category, b.verified, NOW() - b.age, NOW() - b.touched
		FROM (VALUES
			('somchai', 'Riverside Lodge', 'lodge', true, interval '50 days', interval '1 hour'),
			('somchai', 'Old Town Hotel', 'hotel', true, interval '40 days', interval '10 days'),
			('malee', 'Hilltop Camp', 'camp', false, interval '1 hour', interval '1 hour')
		) AS b(owner, name, category, verified, age, touched)
		JOIN users u ON u.username = b.owner
		WHERE NOT EXISTS (SELECT 1 FROM businesses)`)

	batch.Queue(`
		INSERT INTO promotions (business_id, title, starts_at, ends_at, amount, status, created_at)
		SELECT b.id, p.title, NOW() - p.started, NOW() + p.remaining, p.amount, p.status, NOW() - p.started
		FROM (VALUES
			('Riverside Lodge', 'Rainy season discount', interval '5 days', interval '2 days', 1200.00, 'active'),
			('Old Town Hotel', 'Weekend breakfast', interval '1 hour', interval '14 days', 350.00, 'active'),
			('Hilltop Camp', 'Opening week', interval '0 days', interval '7 days', 0.00, 'pending')
		) AS p(business, title, started, remaining, amount, status)
		JOIN businesses b ON b.name = p.business
		WHERE NOT EXISTS (SELECT 1 FROM promotions)`)

	batch.Queue(`
		INSERT INTO revenue_records (owner_id, business_id, period, source, amount)
		SELECT b.owner_id, b.id, d::date, 'bookings', 500 + (extract(day FROM d)::int * 17) % 400
		FROM businesses b
		CROSS JOIN generate_series(CURRENT_DATE - 40, CURRENT_DATE, interval '1 day') AS d
		ON CONFLICT (owner_id, period, source) DO NOTHING`)

	batch.Queue(`
		INSERT INTO engagement_events (business_id, user_id, kind, duration_seconds, occurred_at)
		SELECT b.id, u.id, k.kind, 30, NOW() - (n * interval '7 hours')
		FROM businesses b
		CROSS JOIN (VALUES ('map_view'), ('promotion_view'), ('promotion_redemption')) AS k(kind)
		CROSS JOIN generate_series(0, 20) AS n
		LEFT JOIN users u ON u.username = CASE WHEN n % 2 = 0 THEN 'nok' ELSE 'lek' END
		WHERE NOT EXISTS (SELECT 1 FROM engagement_events)`)

	results := conn.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		tag, err := results.Exec()
		if err != nil {
			return fmt.Errorf("failed to execute seed statement %d: %w", i+1, err)
		}
		fmt.Printf("  Seeded %d rows\n", tag.RowsAffected())
	}

	return nil
}

func runSQLFile(ctx context.Context, conn *pgx.Conn, sqlFile string) error {
	if _, err := os.Stat(sqlFile); os.IsNotExist(err) {
		return fmt.Errorf("migration file not found: %s", sqlFile)
	}

	sqlBytes, err := os.ReadFile(sqlFile)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	if _, err := conn.Exec(ctx, string(sqlBytes)); err != nil {
		return fmt.Errorf("failed to execute %s: %w", sqlFile, err)
	}
	return nil
}

func getTableName(query string) string {
	if len(query) > 50 {
		return query[:50] + "..."
	}
	return query
}
