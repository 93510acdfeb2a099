package royalty

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ethereum/go-ethereum/common"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"nft-indexer/internal/indexer/events"
	"nft-indexer/internal/indexer/model"
	"nft-indexer/internal/indexer/monitor"
	"nft-indexer/internal/indexer/repository"
	"nft-indexer/pkg/evmclient"
	"nft-indexer/pkg/utils"
)

const (
	bpsDenominator = 10000
	maxPoolSize    = 50
)

// 已知市场费接收地址（协议金库）
var marketplaceFeeRecipients = map[common.Address]bool{
	common.HexToAddress("0x0000a26b00c1f0df003000390027140000faa719"): true, // opensea
	common.HexToAddress("0x5924a28caaf1cc016617874a2f0c3710d881f3c1"): true, // looksrare
	common.HexToAddress("0xd1d1d4e36117ab794ec5d4c78cbd3a8904e691d0"): true, // zora
}

// Engine 成交事件的版税异步补全。
// 从交易trace还原原生币支付流向，按order_kind派发到对应Adapter拆出
// 版税/市场费两类breakdown，按成交价折算bps后补写回fill_events
type Engine struct {
	repo     repository.Repository
	store    *events.Store
	logger   *zap.Logger
	memCache *gocache.Cache
	adapters *adapterRegistry

	maxConcurrency int
}

func NewEngine(repo repository.Repository, store *events.Store, maxConcurrency int, logger *zap.Logger) *Engine {
	if maxConcurrency <= 0 || maxConcurrency > maxPoolSize {
		maxConcurrency = maxPoolSize
	}
	return &Engine{
		repo:     repo,
		store:    store,
		logger:   logger,
		memCache: gocache.New(time.Hour, 10*time.Minute),
		// 目前全部协议走通用归因，协议特化Adapter在此登记
		adapters:       newAdapterRegistry(fallbackAdapter{}),
		maxConcurrency: maxConcurrency,
	}
}

// EnrichBatch 按交易并发补全，单笔失败不影响其他交易
func (e *Engine) EnrichBatch(ctx context.Context, txHashes []string) {
	seen := make(map[string]bool, len(txHashes))
	p := pool.New().WithMaxGoroutines(e.maxConcurrency)
	for _, txHash := range txHashes {
		if seen[txHash] {
			continue
		}
		seen[txHash] = true

		p.Go(func() {
			if err := e.enrichTx(ctx, txHash); err != nil {
				monitor.RoyaltyEnrichments.WithLabelValues("error").Inc()
				e.logger.Warn("royalty enrichment failed",
					zap.String("txHash", txHash), zap.Error(err))
			}
		})
	}
	p.Wait()
}

func (e *Engine) enrichTx(ctx context.Context, txHash string) error {
	fills, err := e.store.GetFillEventsByTxHash(ctx, []string{txHash})
	if err != nil {
		return err
	}
	if len(fills) == 0 {
		return nil
	}

	trace, err := e.fetchTrace(ctx, txHash)
	if err != nil {
		monitor.TraceFetchErrors.Inc()
		return err
	}
	payments := collectPayments(trace)

	// 同笔交易可能含多笔成交，支付按全部成交价之和折算bps
	totalPrice := new(big.Int)
	for i := range fills {
		if p, ok := new(big.Int).SetString(fills[i].Price, 10); ok {
			totalPrice.Add(totalPrice, p)
		}
	}
	if totalPrice.Sign() == 0 {
		monitor.RoyaltyEnrichments.WithLabelValues("zero-price").Inc()
		return nil
	}

	tp := &TxPayments{TotalPrice: totalPrice, Payments: payments}

	for i := range fills {
		fill := &fills[i]
		if fill.RoyaltyFeeBps != nil {
			continue // 已补全
		}

		defs, err := e.definitions(ctx, fill.Contract)
		if err != nil {
			return err
		}

		b := e.adapters.For(fill.OrderKind).Extract(tp, defs)

		// 超界的拆分说明归因错误，放弃补写
		if !b.Valid() {
			monitor.RoyaltyEnrichments.WithLabelValues("fee-overflow").Inc()
			e.logger.Warn("fee bps exceeds denominator, skip",
				zap.String("txHash", txHash),
				zap.Int("royaltyBps", b.RoyaltyBps), zap.Int("marketplaceBps", b.MarketBps))
			continue
		}

		paidFull := len(defs) > 0 && b.RoyaltyBps >= b.DefTotalBps
		price, _ := new(big.Int).SetString(fill.Price, 10)
		net := netAmount(price, b.TotalBps())
		netStr := net.String()

		fill.RoyaltyFeeBps = &b.RoyaltyBps
		fill.MarketplaceFeeBps = &b.MarketBps
		fill.PaidFullRoyalty = &paidFull
		fill.NetAmount = &netStr
		if j, err := sonic.Marshal(b.RoyaltyItems); err == nil {
			d := datatypes.JSON(j)
			fill.RoyaltyFeeBreakdown = &d
		}
		if j, err := sonic.Marshal(b.MarketItems); err == nil {
			d := datatypes.JSON(j)
			fill.MarketplaceFeeBreakdown = &d
		}

		if err := e.store.UpdateFillRoyalties(ctx, fill); err != nil {
			return err
		}
		monitor.RoyaltyEnrichments.WithLabelValues("ok").Inc()
	}
	return nil
}

// fetchTrace 带redis缓存的trace抓取，同一交易的多次补全共享一份
func (e *Engine) fetchTrace(ctx context.Context, txHash string) (*evmclient.CallTrace, error) {
	key := utils.TxTraceKey(txHash)
	if raw, err := e.repo.GetRDB().Get(ctx, key).Result(); err == nil {
		var trace evmclient.CallTrace
		if err := sonic.UnmarshalString(raw, &trace); err == nil {
			return &trace, nil
		}
	} else if err != redis.Nil {
		e.logger.Warn("failed to read trace cache", zap.Error(err))
	}

	trace, err := e.repo.GetTraceClient().FetchTransactionTrace(ctx, txHash)
	if err != nil {
		return nil, err
	}
	if raw, err := sonic.MarshalString(trace); err == nil {
		if err := e.repo.GetRDB().Set(ctx, key, raw, 10*time.Minute).Err(); err != nil {
			e.logger.Warn("failed to cache trace", zap.Error(err))
		}
	}
	return trace, nil
}

// definitions 合约版税定义：内存 -> redis -> royalty_definitions表
func (e *Engine) definitions(ctx context.Context, contract string) ([]model.RoyaltyDefinition, error) {
	contract = strings.ToLower(contract)
	if v, found := e.memCache.Get(contract); found {
		return v.([]model.RoyaltyDefinition), nil
	}

	key := utils.RoyaltyDefKey(contract, "")
	if raw, err := e.repo.GetRDB().Get(ctx, key).Result(); err == nil {
		var defs []model.RoyaltyDefinition
		if err := sonic.UnmarshalString(raw, &defs); err == nil {
			e.memCache.SetDefault(contract, defs)
			return defs, nil
		}
	}

	var defs []model.RoyaltyDefinition
	err := e.repo.GetDB().WithContext(ctx).
		Where("contract = ?", contract).
		Find(&defs).Error
	if err != nil {
		return nil, err
	}

	e.memCache.SetDefault(contract, defs)
	if raw, err := sonic.MarshalString(defs); err == nil {
		if err := e.repo.GetRDB().Set(ctx, key, raw, time.Hour).Err(); err != nil {
			e.logger.Warn("failed to cache royalty definitions", zap.Error(err))
		}
	}
	return defs, nil
}

// collectPayments 汇总调用树里每个地址收到的原生币（只算成功的CALL）
func collectPayments(trace *evmclient.CallTrace) map[common.Address]*big.Int {
	payments := make(map[common.Address]*big.Int)
	var walk func(t *evmclient.CallTrace)
	walk = func(t *evmclient.CallTrace) {
		if t.Error == "" && strings.EqualFold(t.Type, "CALL") && t.Value != nil {
			v := t.Value.ToInt()
			if v.Sign() > 0 {
				if acc, ok := payments[t.To]; ok {
					acc.Add(acc, v)
				} else {
					payments[t.To] = new(big.Int).Set(v)
				}
			}
		}
		for i := range t.Calls {
			walk(&t.Calls[i])
		}
	}
	if trace != nil {
		walk(trace)
	}
	return payments
}

// bpsOf paid占total的万分比，向下取整
func bpsOf(paid, total *big.Int) int {
	n := new(big.Int).Mul(paid, big.NewInt(bpsDenominator))
	n.Div(n, total)
	return int(n.Int64())
}

// netAmount 扣除全部费用后的卖家实收
func netAmount(price *big.Int, totalFeeBps int) *big.Int {
	fee := new(big.Int).Mul(price, big.NewInt(int64(totalFeeBps)))
	fee.Div(fee, big.NewInt(bpsDenominator))
	return new(big.Int).Sub(price, fee)
}
