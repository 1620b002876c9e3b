package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Maristella28/Bms-1125-sub002/common/database"
	commonlogger "github.com/Maristella28/Bms-1125-sub002/common/logger"
	"github.com/Maristella28/Bms-1125-sub002/internal/config"
	"github.com/Maristella28/Bms-1125-sub002/internal/migration"

	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 || (os.Args[1] != "up" && os.Args[1] != "down") {
		fmt.Fprintf(os.Stderr, "Usage: %s up|down\n", os.Args[0])
		os.Exit(2)
	}
	direction := os.Args[1]

	cfg := config.Load()
	logger, err := commonlogger.NewLogger(cfg.Log.Level, "console", "apply-migration")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("Cannot connect to database", zap.Error(err))
	}
	defer database.Close(db)

	m := migration.NewDisableReason(db, logger)
	var changed bool
	if direction == "up" {
		changed, err = m.Up(ctx)
	} else {
		changed, err = m.Down(ctx)
	}
	if err != nil {
		logger.Fatal("Migration failed", zap.String("direction", direction), zap.Error(err))
	}
	logger.Info("Migration completed",
		zap.String("direction", direction),
		zap.Bool("changed", changed),
	)
}
