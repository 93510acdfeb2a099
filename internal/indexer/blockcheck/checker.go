package blockcheck

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"nft-indexer/internal/indexer/config"
	"nft-indexer/internal/indexer/events"
	"nft-indexer/internal/indexer/model"
	"nft-indexer/internal/indexer/monitor"
	"nft-indexer/internal/indexer/repository"
	"nft-indexer/pkg/utils"
)

const (
	defaultDepth    = 60
	defaultLeaseSec = 50
)

// ResyncRequest 孤块回收后发给日志源的重拉请求
type ResyncRequest struct {
	Type      string `json:"type"`
	Block     uint64 `json:"block"`
	BlockHash string `json:"blockHash"` // 被判定为孤块的本地哈希
}

// Checker 区块一致性检查。把本地近depth个区块哈希与链上权威哈希比对，
// 不一致的视为重组孤块：软删其事件并请求重新同步该高度。
// redis租约保证多副本部署时同一高度每轮只查一次
type Checker struct {
	repo   repository.Repository
	store  *events.Store
	logger *zap.Logger
	cfg    config.BlockCheckConfig
}

func NewChecker(repo repository.Repository, store *events.Store, cfg config.BlockCheckConfig, logger *zap.Logger) *Checker {
	if cfg.Depth <= 0 {
		cfg.Depth = defaultDepth
	}
	if cfg.LeaseSec <= 0 {
		cfg.LeaseSec = defaultLeaseSec
	}
	return &Checker{repo: repo, store: store, logger: logger, cfg: cfg}
}

// Run 执行一轮检查
func (c *Checker) Run(ctx context.Context) error {
	var maxNumber uint64
	err := c.repo.GetDB().WithContext(ctx).
		Model(&model.Block{}).
		Select("COALESCE(MAX(number), 0)").
		Scan(&maxNumber).Error
	if err != nil {
		return err
	}
	if maxNumber == 0 {
		return nil
	}

	from := uint64(0)
	if maxNumber > uint64(c.cfg.Depth) {
		from = maxNumber - uint64(c.cfg.Depth)
	}

	var blocks []model.Block
	err = c.repo.GetDB().WithContext(ctx).
		Where("number >= ?", from).
		Order("number DESC").
		Find(&blocks).Error
	if err != nil {
		return err
	}

	// 同一高度可能存了多个哈希（重组前后都见过），按高度分组比对
	byNumber := make(map[uint64][]model.Block)
	for _, b := range blocks {
		byNumber[b.Number] = append(byNumber[b.Number], b)
	}

	for number, local := range byNumber {
		ok, err := c.repo.GetRDB().SetNX(ctx,
			utils.BlockCheckLeaseKey(number), "1",
			time.Duration(c.cfg.LeaseSec)*time.Second).Result()
		if err != nil {
			c.logger.Warn("failed to acquire block check lease",
				zap.Uint64("block", number), zap.Error(err))
			continue
		}
		if !ok {
			continue // 别的副本查过了
		}

		header, err := c.repo.GetEthClient().HeaderByNumber(ctx, new(big.Int).SetUint64(number))
		if err != nil {
			c.logger.Warn("failed to fetch canonical header",
				zap.Uint64("block", number), zap.Error(err))
			continue
		}
		canonical := strings.ToLower(header.Hash().Hex())

		for _, b := range local {
			if strings.EqualFold(b.Hash, canonical) {
				continue
			}
			c.logger.Warn("orphaned block detected",
				zap.Uint64("block", number),
				zap.String("localHash", b.Hash),
				zap.String("canonicalHash", canonical))
			monitor.BlocksOrphaned.Inc()

			if err := c.store.SoftDeleteByBlockHash(ctx, b.Hash); err != nil {
				c.logger.Error("failed to soft delete orphaned block",
					zap.String("blockHash", b.Hash), zap.Error(err))
				continue
			}
			c.requestResync(ctx, number, b.Hash)
		}
	}
	return nil
}

func (c *Checker) requestResync(ctx context.Context, number uint64, blockHash string) {
	payload, err := sonic.Marshal(ResyncRequest{
		Type:      "resync",
		Block:     number,
		BlockHash: blockHash,
	})
	if err != nil {
		return
	}
	err = c.repo.GetMQ().WriteMessages(ctx, kafka.Message{
		Key:   []byte(blockHash),
		Value: payload,
	})
	if err != nil {
		c.logger.Error("failed to publish resync request",
			zap.Uint64("block", number), zap.Error(err))
	}
}
