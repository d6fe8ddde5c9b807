package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"foodspot/internal/migrations"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|redo")
	version := flag.String("version", "", "target version for -cmd=version")
	flag.Parse()

	logger := zap.Must(zap.NewProduction()).Sugar()
	defer logger.Sync()

	addr := os.Getenv("DB_ADDR")
	if addr == "" {
		logger.Fatal("DB_ADDR is required")
	}

	db, err := sql.Open("postgres", addr)
	if err != nil {
		logger.Fatalw("open database", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		logger.Fatalw("ping database", "error", err)
	}

	switch *cmd {
	case "up", "down", "status", "redo":
		err = migrations.Run(ctx, db, *cmd)
	case "version":
		if *version == "" {
			fmt.Fprintln(os.Stderr, "missing -version for version command")
			os.Exit(1)
		}
		err = migrations.MigrateTo(ctx, db, *version)
	default:
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmd)
		os.Exit(1)
	}
	if err != nil {
		logger.Fatalw("migration failed", "cmd", *cmd, "error", err)
	}
	logger.Infow("migration finished", "cmd", *cmd)
}
