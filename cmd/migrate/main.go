package main

import (
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/radieske/esports-bet-ledger/internal/shared/config"
	"github.com/radieske/esports-bet-ledger/internal/shared/db"
	"github.com/radieske/esports-bet-ledger/internal/shared/logger"
)

const usage = "usage: migrate up | down N | status"

func main() {
	cfg := config.LoadService("migrate")
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	var st db.MigrationStatus
	switch os.Args[1] {
	case "up":
		st, err = db.MigrateUp(cfg.PostgresDSN)
	case "down":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
		n, convErr := strconv.Atoi(os.Args[2])
		if convErr != nil {
			log.Fatal("invalid steps", zap.String("steps", os.Args[2]), zap.Error(convErr))
		}
		st, err = db.MigrateDown(cfg.PostgresDSN, n)
	case "status":
		st, err = db.MigrateStatus(cfg.PostgresDSN)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal("migrate "+os.Args[1], zap.Error(err))
	}

	log.Info("migration status",
		zap.Uint("version", st.Version),
		zap.Bool("dirty", st.Dirty),
		zap.Bool("applied", st.Applied),
	)
}
