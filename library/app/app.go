package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-records/library/config"
	"github.com/Astemirdum/library-records/library/internal/handler"
	"github.com/Astemirdum/library-records/library/internal/repository"
	"github.com/Astemirdum/library-records/library/internal/repository/memory"
	"github.com/Astemirdum/library-records/library/internal/server"
	"github.com/Astemirdum/library-records/library/internal/service"
	"github.com/Astemirdum/library-records/library/migrations"
	cb "github.com/Astemirdum/library-records/pkg/circuit_breaker"
	"github.com/Astemirdum/library-records/pkg/kafka"
	"github.com/Astemirdum/library-records/pkg/logger"
	"github.com/Astemirdum/library-records/pkg/postgres"
)

func Run(cfg *config.Config) error {
	log := logger.NewLogger(cfg.Log, "library")
	defer log.Sync() //nolint:errcheck

	repo, closeRepo, err := newRepository(cfg, log)
	if err != nil {
		return err
	}
	defer closeRepo()

	events, closeEvents, err := newEventPublisher(cfg.Kafka, log)
	if err != nil {
		return err
	}
	defer closeEvents()

	h := handler.New(
		service.NewBookService(repo, log),
		service.NewReaderService(repo, log),
		service.NewLibrarianService(repo, log),
		service.NewLoanService(repo, events, log),
		log,
	)
	router, err := h.NewRouter()
	if err != nil {
		return errors.Wrap(err, "router")
	}

	srv := server.NewServer(cfg.Server, router)
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.DPanic("srv.Stop", zap.Error(err))
	}
	log.Info("Graceful shutdown finished")
	return nil
}

func newRepository(cfg *config.Config, log *zap.Logger) (repository.Repository, func(), error) {
	if cfg.Storage == config.StorageMemory {
		log.Warn("using in-memory storage, records are lost on restart")
		return memory.NewStore(), func() {}, nil
	}
	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		return nil, nil, errors.Wrap(err, "db init")
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		db.Close()
		return nil, nil, errors.Wrap(err, "repo")
	}
	return repo, db.Close, nil
}

// newEventPublisher connects to Kafka when brokers are configured and
// otherwise drops loan events.
func newEventPublisher(cfg kafka.Config, log *zap.Logger) (kafka.Enqueuer, func(), error) {
	if !cfg.Enabled() {
		log.Info("kafka disabled, loan events are not published")
		return kafka.NopEnqueuer{}, func() {}, nil
	}
	producer, err := kafka.NewProducer(cfg)
	if err != nil {
		return nil, nil, errors.Wrap(err, "kafka.NewProducer")
	}
	closeFn := func() {
		if err := producer.Close(); err != nil {
			log.Error("kafka producer close", zap.Error(err))
		}
	}
	return kafka.NewEnqueuer(producer, cfg.LoanTopic, cb.New(cfg.Breaker)), closeFn, nil
}
