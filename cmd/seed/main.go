package main

import (
	"context"
	"errors"
	"github.com/ariefcatur/go-preorder-cart.git/internal/config"
	"github.com/ariefcatur/go-preorder-cart.git/internal/postgres"
	"github.com/ariefcatur/go-preorder-cart.git/internal/preorder"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"log"
	"time"
)

// Applies the schema and loads a starter menu. Safe to run repeatedly:
// DDL is idempotent and existing items are skipped by name.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	menu := &preorder.MenuRepo{DB: db, LockWait: cfg.LockWait}
	starter := []struct {
		name  string
		price string
		qty   int
	}{
		{"Nasi Goreng Spesial", "28000", 40},
		{"Ayam Bakar Madu", "32000", 30},
		{"Sate Ayam (10 tusuk)", "30000", 25},
		{"Gado-Gado", "22000", 20},
		{"Es Teh Manis", "8000", 100},
		{"Es Jeruk", "10000", 80},
	}
	for _, it := range starter {
		var existing string
		err := db.QueryRow(ctx, `SELECT id FROM menu_items WHERE name = $1`, it.name).Scan(&existing)
		if err == nil {
			log.Printf("menu item %q already present (%s)", it.name, existing)
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Fatalf("check %q: %v", it.name, err)
		}
		item, err := menu.CreateItem(ctx, it.name, decimal.RequireFromString(it.price), it.qty)
		if err != nil {
			log.Fatalf("create %q: %v", it.name, err)
		}
		log.Printf("created %q id=%s stock=%d", item.Name, item.ID, item.QuantityAvailable)
	}
	log.Println("seed complete")
}
