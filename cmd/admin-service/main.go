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

	ahttp "github.com/radieske/esports-bet-ledger/internal/admin-service/http"
	"github.com/radieske/esports-bet-ledger/internal/admin-service/notify"
	"github.com/radieske/esports-bet-ledger/internal/admin-service/service"
	"github.com/radieske/esports-bet-ledger/internal/ledger/postgres"
	sproducer "github.com/radieske/esports-bet-ledger/internal/settlement/producer"
	settlement "github.com/radieske/esports-bet-ledger/internal/settlement/service"
	"github.com/radieske/esports-bet-ledger/internal/shared/cache"
	"github.com/radieske/esports-bet-ledger/internal/shared/config"
	"github.com/radieske/esports-bet-ledger/internal/shared/db"
	"github.com/radieske/esports-bet-ledger/internal/shared/httpserver"
	"github.com/radieske/esports-bet-ledger/internal/shared/kafka"
	"github.com/radieske/esports-bet-ledger/internal/shared/logger"
	"github.com/radieske/esports-bet-ledger/internal/shared/metrics"
	"github.com/radieske/esports-bet-ledger/internal/shared/middleware"
)

func main() {
	cfg := config.LoadService("admin-service")

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

	// Redis Pub/Sub: mudanças de partida/odds para o odds-service
	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	matches := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicMatchCompleted)
	defer matches.Close()
	withdrawals := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWithdrawals)
	defer withdrawals.Close()
	settled := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettled)
	defer settled.Close()

	m := metrics.NewLedger(prometheus.DefaultRegisterer)
	settler := settlement.New(store, sproducer.NewKafkaPublisher(settled), m, log)
	n := &notify.Notifier{Redis: rdb, Channel: cfg.RedisPubSubChannel, Matches: matches, Withdrawals: withdrawals}
	svc := service.New(store, settler, n, m, log)
	api := ahttp.NewServer(log, svc, middleware.NewAuth(cfg.Secret(), store, log))

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort,
		pg.PingContext,
		func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	)
	defer metricsSrv.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(ctx, log, "api", httpserver.New(cfg.HTTPPort, api.Router()))
	})
	if err := g.Wait(); err != nil {
		log.Fatal("admin-service stopped", zap.Error(err))
	}
}
