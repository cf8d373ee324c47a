// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	appctx "tiendero/internal/core/context"
	"tiendero/internal/core/id"
	"tiendero/internal/infrastructure/storage/postgres"
	"tiendero/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := seedAdminUser(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, pool, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedAdminUser(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	adminUsername := os.Getenv("ADMIN_USERNAME")
	if adminUsername == "" {
		adminUsername = "admin"
	}

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "Admin123!"
	}

	var existingID id.ID
	err := pool.Pool.QueryRow(ctx,
		`SELECT id FROM users WHERE username = $1`,
		adminUsername,
	).Scan(&existingID)
	if err == nil {
		log.Infow("admin user already exists", "username", adminUsername, "user_id", existingID)
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check admin exists: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	userID := id.New()
	now := time.Now()

	_, err = pool.Pool.Exec(ctx, `
		INSERT INTO users (
			id, username, password_hash, name, role,
			is_active, failed_login_attempts, created_at, updated_at, version
		)
		VALUES ($1, $2, $3, 'Administrador', $4, true, 0, $5, $5, 1)
	`, userID, adminUsername, string(passwordHash), appctx.RoleAdmin, now)
	if err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}

	log.Infow("admin user created",
		"username", adminUsername,
		"user_id", userID,
	)

	return nil
}

func seedDemoData(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	log.Info("seeding demo data...")

	// 1. Warehouses
	warehouses := []struct {
		name    string
		address string
	}{
		{"Almacen Principal", "Calle 5 #12, Centro"},
		{"Tienda Norte", "Av. Libertad #48"},
	}

	for i, w := range warehouses {
		whID := id.New()
		code := fmt.Sprintf("ALM-%03d", i+1)
		_, err := pool.Pool.Exec(ctx, `
			INSERT INTO cat_warehouses (id, code, name, address, version, deletion_mark)
			VALUES ($1, $2, $3, $4, 1, false)
			ON CONFLICT (code) WHERE deletion_mark = FALSE DO NOTHING
		`, whID, code, w.name, w.address)
		if err != nil {
			log.Warnw("failed to seed warehouse", "name", w.name, "error", err)
		}
	}

	// 2. Products (prices in minor units: 2550 = 25.50)
	products := []struct {
		name    string
		gramaje string
		unit    string
		price   int64
	}{
		{"Harina de trigo", "1000g", "pza", 2550},
		{"Azucar estandar", "1000g", "pza", 3200},
		{"Aceite vegetal", "900ml", "pza", 4800},
		{"Arroz super extra", "900g", "pza", 2900},
		{"Frijol negro", "900g", "pza", 3500},
		{"Refresco cola", "600ml", "pza", 1800},
	}

	for i, p := range products {
		prodID := id.New()
		code := fmt.Sprintf("PRD-%05d", i+1)
		_, err := pool.Pool.Exec(ctx, `
			INSERT INTO cat_products (id, code, name, gramaje, unit, price, active, version, deletion_mark)
			VALUES ($1, $2, $3, $4, $5, $6, true, 1, false)
			ON CONFLICT (code) WHERE deletion_mark = FALSE DO NOTHING
		`, prodID, code, p.name, p.gramaje, p.unit, p.price)
		if err != nil {
			log.Warnw("failed to seed product", "name", p.name, "error", err)
		}
	}

	// 3. Employees (base salary in minor units)
	employees := []struct {
		name       string
		position   string
		baseSalary int64
	}{
		{"Maria Lopez", "Cajera", 650000},
		{"Jorge Ramirez", "Almacenista", 600000},
		{"Ana Torres", "Gerente", 950000},
	}

	for i, e := range employees {
		empID := id.New()
		code := fmt.Sprintf("EMP-%03d", i+1)
		_, err := pool.Pool.Exec(ctx, `
			INSERT INTO cat_employees (id, code, name, position, base_salary, active, version, deletion_mark)
			VALUES ($1, $2, $3, $4, $5, true, 1, false)
			ON CONFLICT (code) WHERE deletion_mark = FALSE DO NOTHING
		`, empID, code, e.name, e.position, e.baseSalary)
		if err != nil {
			log.Warnw("failed to seed employee", "name", e.name, "error", err)
		}
	}

	log.Info("demo data seeded successfully")
	return nil
}
