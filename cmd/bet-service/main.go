package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	bhttp "github.com/radieske/esports-bet-ledger/internal/bet-service/http"
	"github.com/radieske/esports-bet-ledger/internal/bet-service/producer"
	"github.com/radieske/esports-bet-ledger/internal/bet-service/service"
	"github.com/radieske/esports-bet-ledger/internal/ledger/postgres"
	"github.com/radieske/esports-bet-ledger/internal/shared/config"
	"github.com/radieske/esports-bet-ledger/internal/shared/db"
	"github.com/radieske/esports-bet-ledger/internal/shared/httpserver"
	"github.com/radieske/esports-bet-ledger/internal/shared/kafka"
	"github.com/radieske/esports-bet-ledger/internal/shared/logger"
	"github.com/radieske/esports-bet-ledger/internal/shared/metrics"
	"github.com/radieske/esports-bet-ledger/internal/shared/middleware"
)

func main() {
	cfg := config.LoadService("bet-service")

	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}
	log.Info("starting service", zap.String("service", cfg.ServiceName), zap.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		st, err := db.MigrateUp(cfg.PostgresDSN)
		if err != nil {
			log.Fatal("migrate", zap.Error(err))
		}
		log.Info("migrations applied", zap.Uint("version", st.Version))
	}

	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	store := postgres.New(pg)

	// Kafka producer (bet_placed), publicado depois do commit
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced)
	defer writer.Close()
	log.Info("kafka writer ready", zap.String("topic", cfg.TopicBetPlaced))

	m := metrics.NewLedger(prometheus.DefaultRegisterer)
	svc := service.New(store, producer.NewKafkaPublisher(writer), m, log)
	api := bhttp.NewServer(log, svc, middleware.NewAuth(cfg.Secret(), store, log))

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, pg.PingContext)
	defer metricsSrv.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(ctx, log, "api", httpserver.New(cfg.HTTPPort, api.Router()))
	})
	if err := g.Wait(); err != nil {
		log.Fatal("bet-service stopped", zap.Error(err))
	}
}
