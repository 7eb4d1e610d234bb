package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/radieske/esports-bet-ledger/internal/ledger/postgres"
	oddscache "github.com/radieske/esports-bet-ledger/internal/odds-service/cache"
	"github.com/radieske/esports-bet-ledger/internal/odds-service/feed"
	httpapi "github.com/radieske/esports-bet-ledger/internal/odds-service/http"
	"github.com/radieske/esports-bet-ledger/internal/odds-service/ws"
	"github.com/radieske/esports-bet-ledger/internal/shared/cache"
	"github.com/radieske/esports-bet-ledger/internal/shared/config"
	"github.com/radieske/esports-bet-ledger/internal/shared/db"
	"github.com/radieske/esports-bet-ledger/internal/shared/httpserver"
	"github.com/radieske/esports-bet-ledger/internal/shared/logger"
	"github.com/radieske/esports-bet-ledger/internal/shared/metrics"
	"github.com/radieske/esports-bet-ledger/pkg/contracts/events"
)

func main() {
	// carrega config
	cfg := config.LoadService("odds-service")

	// inicia logger
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

	// conecta com db Postgres (somente leitura)
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	log.Info("postgres connected")

	// conecta com cache Redis
	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	defer rdb.Close()
	log.Info("redis connected")

	f := feed.New(postgres.New(pg), oddscache.New(rdb), cfg.FeedCacheTTL, log)

	origins := cfg.AllowedOrigins()
	hub := ws.NewHub(func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin)
	}, log)

	// canal do admin: invalida o cache antes de avisar os clientes
	ws.StartRedisSubscriber(ctx, rdb, cfg.RedisPubSubChannel, log,
		func(ctx context.Context, u events.MatchUpdate) { f.Invalidate(ctx, u.MatchID) },
		func(_ context.Context, u events.MatchUpdate) { hub.Broadcast(u) },
	)
	log.Info("redis subscriber started", zap.String("channel", cfg.RedisPubSubChannel))

	api := &httpapi.API{Log: log, Feed: f, WS: hub.HandleWS}

	// sobe servidor de métricas e health
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
		log.Fatal("odds-service stopped", zap.Error(err))
	}
}
