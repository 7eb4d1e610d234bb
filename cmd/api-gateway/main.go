package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	gateway "github.com/radieske/esports-bet-ledger/internal/api-gateway"
	"github.com/radieske/esports-bet-ledger/internal/shared/config"
	"github.com/radieske/esports-bet-ledger/internal/shared/httpserver"
	"github.com/radieske/esports-bet-ledger/internal/shared/logger"
	"github.com/radieske/esports-bet-ledger/internal/shared/metrics"
)

func main() {
	cfg := config.LoadService("api-gateway")
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// targets
	up := gateway.Upstreams{Wallet: cfg.WalletURL, Bet: cfg.BetURL, Admin: cfg.AdminURL, Odds: cfg.OddsURL}
	h, err := gateway.NewRouter(up, cfg.AllowedOrigins(), log)
	if err != nil {
		log.Fatal("gateway routes", zap.Error(err))
	}
	h, err = gateway.WithFeedSocket(h, cfg.OddsURL, log)
	if err != nil {
		log.Fatal("gateway ws route", zap.Error(err))
	}

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort)
	defer metricsSrv.Close()

	log.Info("api-gateway upstreams",
		zap.String("wallet", up.Wallet), zap.String("bet", up.Bet),
		zap.String("admin", up.Admin), zap.String("odds", up.Odds))
	if err := httpserver.Run(ctx, log, "api-gateway", httpserver.New(cfg.HTTPPort, h)); err != nil {
		log.Fatal("gateway failed", zap.Error(err))
	}
}
