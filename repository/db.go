package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const pgUniqueViolation = "23505"

// Open connects to one of the supported drivers: "postgres" (lib/pq),
// "pgx" (jackc/pgx stdlib) or "sqlite3".
func Open(driver, dsn string) (db *sql.DB, err error) {
	db, err = sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}
	ctx, cncl := context.WithTimeout(context.Background(), 5*time.Second)
	defer cncl()
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// isUniqueViolation reports whether err comes from a UNIQUE constraint on
// any of the supported drivers.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS Products (
		Id BIGSERIAL PRIMARY KEY,
		Name VARCHAR(200) NOT NULL,
		Sku VARCHAR(100) NOT NULL UNIQUE,
		Category VARCHAR(100) NOT NULL,
		Supplier VARCHAR(200),
		Quantity INTEGER NOT NULL DEFAULT 0 CHECK (Quantity >= 0),
		CostPrice NUMERIC(10,2) NOT NULL,
		SellingPrice NUMERIC(10,2) NOT NULL,
		DateAdded TIMESTAMPTZ NOT NULL,
		LastUpdated TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS Customers (
		Id BIGSERIAL PRIMARY KEY,
		Name VARCHAR(200) NOT NULL,
		Phone VARCHAR(15) NOT NULL,
		Email VARCHAR(254),
		Address TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS Sales (
		Id BIGSERIAL PRIMARY KEY,
		InvoiceNo VARCHAR(50) NOT NULL UNIQUE,
		Date TIMESTAMPTZ NOT NULL,
		CustomerId BIGINT REFERENCES Customers(Id) ON DELETE SET NULL,
		TotalAmount NUMERIC(12,2) NOT NULL,
		PaymentMethod VARCHAR(10) NOT NULL DEFAULT 'cash'
	)`,
	`CREATE TABLE IF NOT EXISTS SaleItems (
		Id BIGSERIAL PRIMARY KEY,
		SaleId BIGINT NOT NULL REFERENCES Sales(Id) ON DELETE CASCADE,
		ProductId BIGINT NOT NULL REFERENCES Products(Id) ON DELETE CASCADE,
		QuantitySold INTEGER NOT NULL CHECK (QuantitySold >= 0),
		UnitPrice NUMERIC(10,2) NOT NULL,
		Subtotal NUMERIC(12,2) NOT NULL
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS Products (
		Id INTEGER PRIMARY KEY AUTOINCREMENT,
		Name TEXT NOT NULL,
		Sku TEXT NOT NULL UNIQUE,
		Category TEXT NOT NULL,
		Supplier TEXT,
		Quantity INTEGER NOT NULL DEFAULT 0 CHECK (Quantity >= 0),
		CostPrice TEXT NOT NULL,
		SellingPrice TEXT NOT NULL,
		DateAdded DATETIME NOT NULL,
		LastUpdated DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS Customers (
		Id INTEGER PRIMARY KEY AUTOINCREMENT,
		Name TEXT NOT NULL,
		Phone TEXT NOT NULL,
		Email TEXT,
		Address TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS Sales (
		Id INTEGER PRIMARY KEY AUTOINCREMENT,
		InvoiceNo TEXT NOT NULL UNIQUE,
		Date DATETIME NOT NULL,
		CustomerId INTEGER REFERENCES Customers(Id) ON DELETE SET NULL,
		TotalAmount TEXT NOT NULL,
		PaymentMethod TEXT NOT NULL DEFAULT 'cash'
	)`,
	`CREATE TABLE IF NOT EXISTS SaleItems (
		Id INTEGER PRIMARY KEY AUTOINCREMENT,
		SaleId INTEGER NOT NULL REFERENCES Sales(Id) ON DELETE CASCADE,
		ProductId INTEGER NOT NULL REFERENCES Products(Id) ON DELETE CASCADE,
		QuantitySold INTEGER NOT NULL CHECK (QuantitySold >= 0),
		UnitPrice TEXT NOT NULL,
		Subtotal TEXT NOT NULL
	)`,
}

// Migrate creates the billing tables when they are missing.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	stmts := postgresSchema
	if driver == "sqlite3" {
		stmts = sqliteSchema
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
