package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/radieske/esports-bet-ledger/internal/ledger/postgres"
	"github.com/radieske/esports-bet-ledger/internal/settlement/consumer"
	"github.com/radieske/esports-bet-ledger/internal/settlement/producer"
	"github.com/radieske/esports-bet-ledger/internal/settlement/service"
	"github.com/radieske/esports-bet-ledger/internal/shared/config"
	"github.com/radieske/esports-bet-ledger/internal/shared/db"
	"github.com/radieske/esports-bet-ledger/internal/shared/kafka"
	"github.com/radieske/esports-bet-ledger/internal/shared/logger"
	"github.com/radieske/esports-bet-ledger/internal/shared/metrics"
)

const groupID = "settlement-worker"

var (
	consumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_messages_consumed_total",
		Help: "mensagens match_completed lidas",
	})
	settledMatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_matches_settled_total",
		Help: "partidas liquidadas pelo worker",
	})
)

func main() {
	cfg := config.LoadService("settlement-worker")

	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Conexão com Postgres: a liquidação roda numa transação por partida
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	// Kafka consumer: match_completed com commit manual
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicMatchCompleted, groupID)
	defer reader.Close()

	// bet_settled por aposta e DLQ para mensagens que não liquidam
	settled := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettled)
	defer settled.Close()
	dlq := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicMatchCompletedDLQ)
	defer dlq.Close()

	m := metrics.NewLedger(prometheus.DefaultRegisterer)
	svc := service.New(postgres.New(pg), producer.NewKafkaPublisher(settled), m, log)

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, pg.PingContext)
	defer metricsSrv.Close()

	p := &consumer.Processor{
		Log:        log,
		Reader:     reader,
		Settler:    svc,
		DLQ:        dlq,
		OnConsumed: consumed.Inc,
		OnSettled:  settledMatches.Inc,
		OnError:    m.SettlementError,
	}

	log.Info("settlement-worker started",
		zap.String("consume", cfg.TopicMatchCompleted),
		zap.String("publish", cfg.TopicBetSettled),
		zap.String("dlq", cfg.TopicMatchCompletedDLQ),
	)
	if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("settlement-worker stopped", zap.Error(err))
	}
	log.Info("settlement-worker stopped")
}
