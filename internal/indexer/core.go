package indexer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"nft-indexer/internal/indexer/blockcheck"
	"nft-indexer/internal/indexer/config"
	"nft-indexer/internal/indexer/consumer"
	"nft-indexer/internal/indexer/events"
	"nft-indexer/internal/indexer/job"
	"nft-indexer/internal/indexer/monitor"
	"nft-indexer/internal/indexer/repository"
)

type Core struct {
	cfg       config.Config
	tl        *zap.Logger
	repo      repository.Repository
	scheduler *job.Scheduler
	consumers []consumer.KafkaConsumer
	metrics   *monitor.MetricsServer
}

func New(cfg config.Config, logger *zap.Logger) *Core {
	scheduler := job.NewScheduler(logger)

	repo := repository.New(cfg, logger)
	store := events.NewStore(repo, logger)

	// 区块一致性检查
	interval := time.Duration(cfg.BlockCheck.IntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	checker := blockcheck.NewChecker(repo, store, cfg.BlockCheck, logger)
	scheduler.RegisterJob("block_check", interval, checker.Run)

	// 过期订单清扫 - 每小时执行一次
	expiry := job.NewExpiryJob(repo, logger)
	scheduler.RegisterJob("order_expiry", time.Hour, expiry.Run)

	consumers := []consumer.KafkaConsumer{
		consumer.NewLogBatchConsumer(cfg, logger, repo),
	}

	return &Core{
		cfg:       cfg,
		repo:      repo,
		tl:        logger,
		scheduler: scheduler,
		consumers: consumers,
		metrics:   monitor.NewMetricsServer(cfg.Monitor, logger),
	}
}

func (c *Core) Start(ctx context.Context) {
	c.tl.Info("Starting indexer core...")
	if c.metrics != nil {
		c.metrics.Run()
	}

	for _, cons := range c.consumers {
		go cons.Run(ctx)
	}

	c.scheduler.Start(ctx)
	c.tl.Info("Indexer started successfully")

	<-ctx.Done()
	c.tl.Info("Shutting down indexer due to context cancellation...")
}

// Stop 优雅关闭全部资源
func (c *Core) Stop(ctx context.Context) {
	c.tl.Info("Stopping indexer core...")

	for _, cons := range c.consumers {
		cons.Stop()
	}

	if c.scheduler != nil {
		c.scheduler.Stop(ctx)
	}
	if c.metrics != nil {
		_ = c.metrics.Stop(ctx)
	}
	c.repo.Close()

	c.tl.Info("Indexer core stopped.")
}
