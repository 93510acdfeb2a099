package consumer

import (
	"context"
	"hash/crc32"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"nft-indexer/internal/indexer/config"
	"nft-indexer/internal/indexer/model"
	"nft-indexer/internal/indexer/monitor"
	"nft-indexer/internal/indexer/repository"
)

// LogBatchConsumer 原始日志批次消费者。
// 按fromBlock哈希派发到固定worker，保证同一区块范围的重试落在同一worker上
type LogBatchConsumer struct {
	*Consumer
	id         string
	workerSize int
	buffers    []chan model.LogBatch
	pipeline   *Pipeline
	repo       repository.Repository
	logger     *zap.Logger
}

func NewLogBatchConsumer(conf config.Config, logger *zap.Logger, repo repository.Repository) *LogBatchConsumer {
	newConsumer := NewConsumer(conf.Kafka, logger, conf.Kafka.TopicRawLogs)

	workerSize := conf.Worker.WorkerNum
	if workerSize <= 0 {
		workerSize = 4
	}
	buffers := make([]chan model.LogBatch, workerSize)
	for i := 0; i < workerSize; i++ {
		buffers[i] = make(chan model.LogBatch, 200)
	}

	return &LogBatchConsumer{
		id:         "log_batch_consumer",
		workerSize: workerSize,
		Consumer:   newConsumer,
		buffers:    buffers,
		pipeline:   NewPipeline(conf, repo, logger),
		repo:       repo,
		logger:     logger,
	}
}

// Run 启动消费者
func (lc *LogBatchConsumer) Run(ctx context.Context) {
	for i := 0; i < lc.workerSize; i++ {
		idx := i
		go func() {
			workerID := strconv.Itoa(idx)
			for {
				select {
				case batch, ok := <-lc.buffers[idx]:
					if !ok {
						lc.logger.Warn("❌ buffer is closed", zap.String("consumerID", lc.id), zap.Int("idx", idx))
						return
					}
					startTime := time.Now()
					if err := lc.pipeline.Process(ctx, &batch); err != nil {
						lc.logger.Error("❌ Process log batch failed",
							zap.Uint64("fromBlock", batch.FromBlock),
							zap.Uint64("toBlock", batch.ToBlock),
							zap.Error(err))
					}
					monitor.LogBatchProcessDuration.WithLabelValues(workerID).Observe(time.Since(startTime).Seconds())
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// 等待前面的组件准备完成
	time.Sleep(time.Second * 5)
	lc.Consumer.Start(ctx, lc)
}

// HandleMessage 实现 MessageHandler 接口
func (lc *LogBatchConsumer) HandleMessage(msg kafka.Message) {
	monitor.KafkaMessagesReceived.WithLabelValues("raw_logs").Inc()

	var batch model.LogBatch
	if err := sonic.Unmarshal(msg.Value, &batch); err != nil {
		lc.logger.Warn("❌ JSON Parse Error", zap.String("consumerID", lc.id), zap.Error(err))
		return
	}
	if batch.ToBlock < batch.FromBlock {
		lc.logger.Warn("invalid block range, drop",
			zap.Uint64("fromBlock", batch.FromBlock), zap.Uint64("toBlock", batch.ToBlock))
		return
	}

	lc.dispatch(batch)
}

func (lc *LogBatchConsumer) ID() string {
	return lc.id
}

// Stop 停止消费者
func (lc *LogBatchConsumer) Stop() error {
	if err := lc.Consumer.Stop(); err != nil {
		return err
	}
	for i := 0; i < lc.workerSize; i++ {
		close(lc.buffers[i])
	}
	return nil
}

func (lc *LogBatchConsumer) dispatch(batch model.LogBatch) {
	idx := crc32.ChecksumIEEE([]byte(strconv.FormatUint(batch.FromBlock, 10))) % uint32(lc.workerSize)

	// buffer接近满载时短暂退让
	if len(lc.buffers[idx]) > cap(lc.buffers[idx])*8/10 {
		time.Sleep(100 * time.Millisecond)
	}

	select {
	case lc.buffers[idx] <- batch:
	default:
		lc.logger.Warn("❌ buffers is full", zap.String("consumerID", lc.id), zap.Uint32("idx", idx))
	}
}
