package job

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/lib/pq"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"nft-indexer/internal/indexer/model"
	"nft-indexer/internal/indexer/repository"
)

const expiryBatchSize = 1000

// ExpiryJob 把过了valid_until仍处于fillable的订单推进到expired，
// 并把受影响订单广播给下游重算
type ExpiryJob struct {
	repo   repository.Repository
	logger *zap.Logger
}

func NewExpiryJob(repo repository.Repository, logger *zap.Logger) *ExpiryJob {
	return &ExpiryJob{repo: repo, logger: logger}
}

func (j *ExpiryJob) Run(ctx context.Context) error {
	now := time.Now().Unix()

	for {
		var ids []string
		err := j.repo.GetDB().WithContext(ctx).
			Model(&model.Order{}).
			Where("valid_until > 0 AND valid_until < ? AND fillability_status = ?", now, model.StatusFillable).
			Limit(expiryBatchSize).
			Pluck("id", &ids).Error
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		err = j.repo.GetDB().WithContext(ctx).
			Exec("UPDATE orders SET fillability_status = 'expired', updated_at = ? WHERE id = ANY(?) AND fillability_status = 'fillable'",
				now, pq.Array(ids)).Error
		if err != nil {
			return err
		}
		j.logger.Info("expired orders", zap.Int("count", len(ids)))
		j.publish(ctx, ids, now)

		if len(ids) < expiryBatchSize {
			return nil
		}
	}
}

func (j *ExpiryJob) publish(ctx context.Context, ids []string, now int64) {
	msgs := make([]kafka.Message, 0, len(ids))
	for _, id := range ids {
		payload, err := sonic.Marshal(model.OrderInfo{
			Context: "expiry",
			ID:      id,
			TxTime:  now,
		})
		if err != nil {
			continue
		}
		msgs = append(msgs, kafka.Message{Key: []byte(id), Value: payload})
	}
	if len(msgs) == 0 {
		return
	}
	if err := j.repo.GetMQ().WriteMessages(ctx, msgs...); err != nil {
		j.logger.Error("failed to publish expiry notifications", zap.Error(err))
	}
}
