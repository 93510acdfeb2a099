package events

import (
	"context"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nft-indexer/internal/indexer/model"
	"nft-indexer/internal/indexer/monitor"
	"nft-indexer/internal/indexer/repository"
)

// Store 规范化事件的持久化层。
// 所有写入以 (tx_hash, log_index, batch_index, block_hash) 去重，
// 整批重放时冲突行静默跳过，且关联的订单更新一并跳过（CTE保证原子性）
type Store struct {
	repo   repository.Repository
	logger *zap.Logger
}

func NewStore(repo repository.Repository, logger *zap.Logger) *Store {
	return &Store{repo: repo, logger: logger}
}

const insertFillSQL = `
INSERT INTO fill_events (
	tx_hash, log_index, batch_index, block_hash,
	address, block, tx_index, timestamp,
	order_kind, order_id, order_side, maker, taker, contract, token_id, amount,
	currency, currency_price, price, usd_price,
	order_source, aggregator_source, fill_source, is_mint,
	created_at, updated_at
) VALUES (
	?, ?, ?, ?,
	?, ?, ?, ?,
	?, ?, ?, ?, ?, ?, ?, ?::numeric,
	?, NULLIF(?, '')::numeric, ?::numeric, NULLIF(?, '')::numeric,
	?, ?, ?, ?,
	?, ?
)
ON CONFLICT DO NOTHING`

func fillArgs(e *model.FillEvent, now int64) []any {
	p := e.BaseEventParams
	return []any{
		p.TxHash, p.LogIndex, p.BatchIndex, p.BlockHash,
		p.Address, p.Block, p.TxIndex, p.Timestamp,
		e.OrderKind, e.OrderID, string(e.OrderSide), e.Maker, e.Taker, e.Contract, e.TokenID, e.Amount,
		e.Currency, e.CurrencyPrice, e.Price, e.UsdPrice,
		e.OrderSource, e.AggregatorSource, e.FillSource, e.IsMint,
		now, now,
	}
}

// 全量吃单连带推进订单：valid_until压到成交时刻，订单从此视作到期
var fullFillSQL = `
WITH ins AS (` + insertFillSQL + ` RETURNING tx_hash)
UPDATE orders SET
	fillability_status = 'filled',
	quantity_filled = orders.quantity_filled + ?::numeric,
	quantity_remaining = 0,
	valid_until = ?,
	updated_at = ?
FROM ins
WHERE orders.id = ? AND orders.fillability_status <> 'cancelled'`

func fullFillArgs(e *model.FillEvent, now int64) []any {
	return append(fillArgs(e, now), e.Amount, e.BaseEventParams.Timestamp, now, e.OrderID)
}

// AddFills 全量成交：订单一次吃满，状态直接推进到filled。
// 已取消订单的状态不回退（状态单调），但成交记录照常入库
func (s *Store) AddFills(ctx context.Context, fills []*model.FillEvent) error {
	if len(fills) == 0 {
		return nil
	}
	now := time.Now().Unix()

	err := s.repo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, e := range fills {
			if e.OrderID == "" {
				if err := tx.Exec(insertFillSQL, fillArgs(e, now)...).Error; err != nil {
					return err
				}
				continue
			}
			if err := tx.Exec(fullFillSQL, fullFillArgs(e, now)...).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	// 事务提交后才计数，回滚的批次不污染指标
	monitor.FillEventsPersisted.WithLabelValues("full").Add(float64(len(fills)))
	return nil
}

var partialFillSQL = `
WITH ins AS (` + insertFillSQL + ` RETURNING tx_hash)
UPDATE orders SET
	quantity_filled = orders.quantity_filled + ?::numeric,
	quantity_remaining = GREATEST(orders.quantity_remaining - ?::numeric, 0),
	fillability_status = CASE
		WHEN orders.quantity_remaining - ?::numeric <= 0 THEN 'filled'
		ELSE orders.fillability_status
	END,
	updated_at = ?
FROM ins
WHERE orders.id = ? AND orders.quantity_remaining > 0`

func partialFillArgs(e *model.FillEvent, now int64) []any {
	return append(fillArgs(e, now), e.Amount, e.Amount, e.Amount, now, e.OrderID)
}

// AddFillsPartial 部分成交：按成交量递减剩余量，归零时推进到filled。
// quantity_remaining > 0 守卫防止重复扣减与负数
func (s *Store) AddFillsPartial(ctx context.Context, fills []*model.FillEvent) error {
	if len(fills) == 0 {
		return nil
	}
	now := time.Now().Unix()

	err := s.repo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, e := range fills {
			if e.OrderID == "" {
				if err := tx.Exec(insertFillSQL, fillArgs(e, now)...).Error; err != nil {
					return err
				}
				continue
			}
			if err := tx.Exec(partialFillSQL, partialFillArgs(e, now)...).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	monitor.FillEventsPersisted.WithLabelValues("partial").Add(float64(len(fills)))
	return nil
}

// PoolOrder 链上撮合协议（AMM池）的影子订单，价格随每次成交刷新
type PoolOrder struct {
	ID          string
	Kind        string
	Side        string
	Maker       string
	Contract    string
	TokenID     string
	Currency    string
	Price       string
	ValidFrom   int64
	BlockNumber uint64
	LogIndex    uint
}

// AddFillsOnChain 链上撮合成交：入库成交并按因果序刷新影子订单。
// (block_number, log_index) 更旧的写入被行比较谓词拒绝，乱序重放安全
func (s *Store) AddFillsOnChain(ctx context.Context, fills []*model.FillEvent, orders []*PoolOrder) error {
	if len(fills) == 0 && len(orders) == 0 {
		return nil
	}
	now := time.Now().Unix()

	err := s.repo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, e := range fills {
			if err := tx.Exec(insertFillSQL, fillArgs(e, now)...).Error; err != nil {
				return err
			}
		}
		for _, o := range orders {
			sql := `
INSERT INTO orders (
	id, kind, side, maker, contract, token_id, currency, price,
	valid_from, block_number, log_index,
	fillability_status, quantity_filled, quantity_remaining, amount,
	created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?::numeric, ?, ?, ?, 'fillable', 0, 1, 1, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	price = EXCLUDED.price,
	currency = EXCLUDED.currency,
	valid_from = EXCLUDED.valid_from,
	block_number = EXCLUDED.block_number,
	log_index = EXCLUDED.log_index,
	updated_at = EXCLUDED.updated_at
WHERE (orders.block_number, orders.log_index) < (EXCLUDED.block_number, EXCLUDED.log_index)`
			err := tx.Exec(sql,
				o.ID, o.Kind, o.Side, o.Maker, o.Contract, o.TokenID, o.Currency, o.Price,
				o.ValidFrom, o.BlockNumber, o.LogIndex, now, now,
			).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	monitor.FillEventsPersisted.WithLabelValues("on-chain").Add(float64(len(fills)))
	return nil
}

// AddCancels 单笔取消：入库取消事件并把订单推进到cancelled。
// filled是终态，取消不覆盖
func (s *Store) AddCancels(ctx context.Context, cancels []*model.CancelEvent) error {
	if len(cancels) == 0 {
		return nil
	}
	now := time.Now().Unix()

	return s.repo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, e := range cancels {
			p := e.BaseEventParams
			sql := `
WITH ins AS (
	INSERT INTO cancel_events (
		tx_hash, log_index, batch_index, block_hash,
		address, block, tx_index, timestamp,
		order_kind, order_id, maker, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT DO NOTHING RETURNING tx_hash
)
UPDATE orders SET fillability_status = 'cancelled', updated_at = ?
FROM ins
WHERE orders.id = ? AND orders.fillability_status NOT IN ('filled', 'cancelled')`
			err := tx.Exec(sql,
				p.TxHash, p.LogIndex, p.BatchIndex, p.BlockHash,
				p.Address, p.Block, p.TxIndex, p.Timestamp,
				e.OrderKind, e.OrderID, e.Maker, now,
				now, e.OrderID,
			).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// AddBulkCancels nonce批量取消只落事件，不逐单改状态，
// 受影响订单由有效性检查按min_nonce惰性判定
func (s *Store) AddBulkCancels(ctx context.Context, cancels []*model.BulkCancelEvent) error {
	if len(cancels) == 0 {
		return nil
	}
	now := time.Now().Unix()

	return s.repo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, e := range cancels {
			p := e.BaseEventParams
			sql := `
INSERT INTO bulk_cancel_events (
	tx_hash, log_index, batch_index, block_hash,
	address, block, tx_index, timestamp,
	order_kind, maker, min_nonce, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?::numeric, ?)
ON CONFLICT DO NOTHING`
			err := tx.Exec(sql,
				p.TxHash, p.LogIndex, p.BatchIndex, p.BlockHash,
				p.Address, p.Block, p.TxIndex, p.Timestamp,
				e.OrderKind, e.Maker, e.MinNonce, now,
			).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveBlocks 记录本地见过的区块，一致性检查的比对基准
func (s *Store) SaveBlocks(ctx context.Context, blocks []model.Block) error {
	if len(blocks) == 0 {
		return nil
	}
	return s.repo.GetDB().WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&blocks).Error
}

// SoftDeleteByBlockHash 重组回收：软删该区块哈希下的全部事件。
// 订单状态不随软删回滚，见有效性检查的兜底逻辑
func (s *Store) SoftDeleteByBlockHash(ctx context.Context, blockHash string) error {
	now := time.Now().Unix()
	return s.repo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Exec(
			"UPDATE fill_events SET is_deleted = true, updated_at = ? WHERE block_hash = ? AND is_deleted = false",
			now, blockHash,
		).Error
		if err != nil {
			return err
		}
		for _, table := range []string{"cancel_events", "bulk_cancel_events"} {
			err := tx.Exec(
				"UPDATE "+table+" SET is_deleted = true WHERE block_hash = ? AND is_deleted = false",
				blockHash,
			).Error
			if err != nil {
				return err
			}
		}
		return tx.Exec("DELETE FROM blocks WHERE hash = ?", blockHash).Error
	})
}

// GetFillEventsByTxHash 批量查成交（版税补全用），软删行与铸造行不返回
func (s *Store) GetFillEventsByTxHash(ctx context.Context, txHashes []string) ([]model.FillEventRow, error) {
	var rows []model.FillEventRow
	err := s.repo.GetDB().WithContext(ctx).
		Where("tx_hash = ANY(?) AND is_deleted = false AND is_mint = false", pq.Array(txHashes)).
		Order("tx_hash, log_index, batch_index").
		Find(&rows).Error
	return rows, err
}

// UpdateFillRoyalties 版税补全，至多补写一次（royalty_fee_bps非空即跳过）
func (s *Store) UpdateFillRoyalties(ctx context.Context, row *model.FillEventRow) error {
	return s.repo.GetDB().WithContext(ctx).
		Model(&model.FillEventRow{}).
		Where("tx_hash = ? AND log_index = ? AND batch_index = ? AND block_hash = ? AND royalty_fee_bps IS NULL",
			row.TxHash, row.LogIndex, row.BatchIndex, row.BlockHash).
		Updates(map[string]any{
			"royalty_fee_bps":           row.RoyaltyFeeBps,
			"marketplace_fee_bps":       row.MarketplaceFeeBps,
			"royalty_fee_breakdown":     row.RoyaltyFeeBreakdown,
			"marketplace_fee_breakdown": row.MarketplaceFeeBreakdown,
			"paid_full_royalty":         row.PaidFullRoyalty,
			"net_amount":                row.NetAmount,
			"updated_at":                time.Now().Unix(),
		}).Error
}
