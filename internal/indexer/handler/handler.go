package handler

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"nft-indexer/internal/indexer/attribution"
	"nft-indexer/internal/indexer/eventdata"
	"nft-indexer/internal/indexer/events"
	"nft-indexer/internal/indexer/model"
	"nft-indexer/internal/indexer/prices"
	"nft-indexer/internal/indexer/repository"
	"nft-indexer/pkg/evmclient"
	"nft-indexer/pkg/utils"
)

// OnChainData 一个批次解析出的全部规范化结果，按入库变体分桶
type OnChainData struct {
	Fills        []*model.FillEvent // 全量成交
	FillsPartial []*model.FillEvent // 部分成交
	FillsOnChain []*model.FillEvent // 链上撮合成交
	MintFills    []*model.FillEvent // 铸造成交，定价在批次后处理补齐
	PoolOrders   []*events.PoolOrder
	Cancels      []*model.CancelEvent
	BulkCancels  []*model.BulkCancelEvent
	Mints        []*model.MintInfo
	OrderInfos   []*model.OrderInfo
}

// Handler 单协议日志处理器。实现必须幂等：同一日志重复进入
// 只会产出相同的事件，去重交给持久化层
type Handler interface {
	Kind() eventdata.Kind
	Handle(ctx context.Context, env *Env, log *model.RawLogWithBlock, ed eventdata.EventData, out *OnChainData) error
}

// Registry kind到处理器的派发表
type Registry map[eventdata.Kind]Handler

func NewRegistry() Registry {
	transfers := &nftTransferHandler{}
	return Registry{
		eventdata.KindLooksRare: &looksRareHandler{},
		eventdata.KindSeaport:   &seaportHandler{},
		eventdata.KindSudoswap:  &sudoswapHandler{},
		eventdata.KindZora:      &zoraHandler{},
		eventdata.KindERC721:    transfers,
		eventdata.KindERC1155:   transfers,
	}
}

// PriceSource 成交定价入口，生产实现为prices.Oracle
type PriceSource interface {
	GetUSDAndNativePrice(ctx context.Context, currency string, amount *big.Int, timestamp int64) prices.Price
}

// AttributionSource 成交归因入口，生产实现为attribution.Extractor
type AttributionSource interface {
	Extract(ctx context.Context, txHash, orderKind string) attribution.Data
}

// Env 一个批次共享的解析环境。trace与出现次序计数器以批次为生命周期，
// 保证同一交易内多条同类日志按出现顺序对应到第N次内部调用
type Env struct {
	Repo          repository.Repository
	Oracle        PriceSource
	Attribution   AttributionSource
	Logger        *zap.Logger
	NativeAddress string

	mu       sync.Mutex
	traces   map[string]*evmclient.CallTrace
	traceErr map[string]error
	ranks    map[string]int
}

func NewEnv(repo repository.Repository, oracle PriceSource, attr AttributionSource, nativeAddress string, logger *zap.Logger) *Env {
	return &Env{
		Repo:          repo,
		Oracle:        oracle,
		Attribution:   attr,
		Logger:        logger,
		NativeAddress: nativeAddress,
		traces:        make(map[string]*evmclient.CallTrace),
		traceErr:      make(map[string]error),
		ranks:         make(map[string]int),
	}
}

// Trace 批内记忆化 + redis缓存的交易trace
func (e *Env) Trace(ctx context.Context, txHash string) (*evmclient.CallTrace, error) {
	e.mu.Lock()
	if t, ok := e.traces[txHash]; ok {
		e.mu.Unlock()
		return t, nil
	}
	if err, ok := e.traceErr[txHash]; ok {
		e.mu.Unlock()
		return nil, err
	}
	e.mu.Unlock()

	trace, err := e.fetchTrace(ctx, txHash)

	e.mu.Lock()
	if err != nil {
		e.traceErr[txHash] = err
	} else {
		e.traces[txHash] = trace
	}
	e.mu.Unlock()
	return trace, err
}

func (e *Env) fetchTrace(ctx context.Context, txHash string) (*evmclient.CallTrace, error) {
	key := utils.TxTraceKey(txHash)
	if raw, err := e.Repo.GetRDB().Get(ctx, key).Result(); err == nil {
		var trace evmclient.CallTrace
		if err := sonic.UnmarshalString(raw, &trace); err == nil {
			return &trace, nil
		}
	} else if err != redis.Nil {
		e.Logger.Warn("failed to read trace cache", zap.Error(err))
	}

	trace, err := e.Repo.GetTraceClient().FetchTransactionTrace(ctx, txHash)
	if err != nil {
		return nil, err
	}
	if raw, err := sonic.MarshalString(trace); err == nil {
		if err := e.Repo.GetRDB().Set(ctx, key, raw, 10*time.Minute).Err(); err != nil {
			e.Logger.Warn("failed to cache trace", zap.Error(err))
		}
	}
	return trace, nil
}

// NextRank 返回(交易,合约)对下一次出现的序号，从0开始
func (e *Env) NextRank(txHash, address string) int {
	key := fmt.Sprintf("%s:%s", txHash, address)
	e.mu.Lock()
	defer e.mu.Unlock()
	rank := e.ranks[key]
	e.ranks[key] = rank + 1
	return rank
}
