package main

import (
	"context"
	"github.com/ariefcatur/go-preorder-cart.git/internal/config"
	"github.com/ariefcatur/go-preorder-cart.git/internal/httpx"
	"github.com/ariefcatur/go-preorder-cart.git/internal/postgres"
	"github.com/ariefcatur/go-preorder-cart.git/internal/preorder"
	"github.com/ariefcatur/go-preorder-cart.git/internal/redisx"
	"github.com/joho/godotenv"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Repos & handlers
	carts := &preorder.CartRepo{DB: db, LockWait: cfg.LockWait}
	committer := &preorder.OrderRepo{DB: db, LockWait: cfg.LockWait}
	menu := &preorder.MenuRepo{DB: db, LockWait: cfg.LockWait}

	router := httpx.NewServer(cfg.JWTSecret,
		&httpx.MenuHandler{Menu: menu, Redis: rdb},
		&httpx.CartHandler{Cart: carts},
		&httpx.OrdersHandler{Orders: committer},
	)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
}
