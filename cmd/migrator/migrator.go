package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	pg "github.com/NordCoder/Vidtube/internal/repository/postgres"
)

func main() {
	dbURL := os.Getenv("DB_DSN")
	if dbURL == "" {
		log.Fatal("DB_DSN is empty")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := pg.Migrate(ctx, dbURL); err != nil {
		log.Fatal(err)
	}
	log.Println("migrations: up OK")
}
