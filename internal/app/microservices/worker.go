package microservices

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Temutjin2k/authhub/config"
	"github.com/Temutjin2k/authhub/internal/adapter/postgres"
	"github.com/Temutjin2k/authhub/internal/adapter/postgres/migrations"
	rabbitadapter "github.com/Temutjin2k/authhub/internal/adapter/rabbit"
	redisadapter "github.com/Temutjin2k/authhub/internal/adapter/redis"
	"github.com/Temutjin2k/authhub/internal/service/audit"
	"github.com/Temutjin2k/authhub/internal/service/security"
	"github.com/Temutjin2k/authhub/pkg/logger"
	wrap "github.com/Temutjin2k/authhub/pkg/logger/wrapper"
	postgresclient "github.com/Temutjin2k/authhub/pkg/postgres"
	"github.com/Temutjin2k/authhub/pkg/rabbit"
	redisclient "github.com/Temutjin2k/authhub/pkg/redis"
)

// WorkerService stores audit entries coming from the broker and keeps the
// token blacklist free of expired entries.
type WorkerService struct {
	postgresDB *postgresclient.PostgreDB
	redis      *redisclient.Client
	rabbit     *rabbit.RabbitMQ // nil when the broker is disabled

	consumer  *rabbitadapter.AuditConsumer
	auditSvc  *audit.AuditService
	blacklist *security.BlacklistService

	cfg config.Config
	log logger.Logger
}

func NewWorker(ctx context.Context, cfg config.Config, log logger.Logger) (_ *WorkerService, err error) {
	ctx = wrap.WithAction(ctx, "worker_init")

	s := &WorkerService{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			s.close(ctx)
		}
	}()

	s.postgresDB, err = postgresclient.New(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if _, err := postgresclient.ApplyMigrations(ctx, s.postgresDB.Pool, migrations.FS, "."); err != nil {
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	s.redis, err = redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	s.auditSvc = audit.NewAuditService(postgres.NewAuditRepo(s.postgresDB.Pool), log)
	s.blacklist = security.NewBlacklistService(redisadapter.NewBlacklistStore(s.redis), log)

	if cfg.RabbitMQ.Enabled {
		s.rabbit, err = rabbit.New(ctx, cfg.RabbitMQ.GetDSN(), log)
		if err != nil {
			return nil, err
		}
		s.consumer = rabbitadapter.NewAuditConsumer(s.rabbit, cfg.Telemetry.ServiceName, cfg.RabbitMQ.Concurrency, log)
	} else {
		log.Warn(ctx, "rabbitmq disabled, audit consumer will not run")
	}

	return s, nil
}

func (s *WorkerService) Start(ctx context.Context) error {
	defer func() {
		s.close(ctx)
		s.log.Info(ctx, "worker service closed")
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	var wg sync.WaitGroup

	if s.consumer != nil {
		wg.Go(func() {
			if err := s.consumer.Consume(runCtx, s.auditSvc.Write); err != nil {
				errCh <- err
			}
		})
	}

	wg.Go(func() {
		s.blacklist.RunJanitor(runCtx, s.cfg.Auth.BlacklistCleanupInterval, s.cfg.Auth.BlacklistCleanupBatch)
	})

	// Waiting signal
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	s.log.Info(ctx, "service started")
	var err error
	select {
	case err = <-errCh:
	case sig := <-shutdownCh:
		s.log.Info(ctx, "shuting down application", "signal", sig.String())
	}

	cancel()
	wg.Wait()
	return err
}

func (s *WorkerService) close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if s.rabbit != nil {
		if err := s.rabbit.Close(ctx); err != nil {
			s.log.Error(ctx, "failed to close rabbitmq", err)
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.log.Error(ctx, "failed to close redis", err)
		}
	}
	if s.postgresDB != nil {
		s.postgresDB.Close()
	}
}
