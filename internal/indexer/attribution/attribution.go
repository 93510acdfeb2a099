package attribution

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"nft-indexer/internal/indexer/repository"
	"nft-indexer/pkg/utils"
)

// Data 成交归因：订单来源由协议决定，聚合器/成交来源由交易入口决定
type Data struct {
	OrderSource      string `json:"orderSource"`
	FillSource       string `json:"fillSource"`
	AggregatorSource string `json:"aggregatorSource"`
}

// 协议 -> 订单来源域名
var orderSourceByKind = map[string]string{
	"seaport":    "opensea.io",
	"looks-rare": "looksrare.org",
	"sudoswap":   "sudoswap.xyz",
	"zora":       "zora.co",
}

// 已知聚合器路由合约（tx.to 命中即判定为聚合成交）
var aggregatorByRouter = map[common.Address]string{
	common.HexToAddress("0x83c8f28c26bf6aaca652df1dbbe0e1b56f8baba2"): "gem.xyz",
	common.HexToAddress("0x0a267cf51ef038fc00e71801f5a524aec06e4f07"): "genie.xyz",
	common.HexToAddress("0x178a86d36d89c7fdebea90b739605da7b131ff6a"): "reservoir.tools",
}

const cacheTTL = time.Hour

type Extractor struct {
	repo   repository.Repository
	logger *zap.Logger
}

func NewExtractor(repo repository.Repository, logger *zap.Logger) *Extractor {
	return &Extractor{repo: repo, logger: logger}
}

// Extract 解析一笔交易在指定协议下的归因。
// 同一交易会被同批次内多条成交重复查询，结果进redis缓存。
// 链上查询失败时退化为仅协议归因，不缓存退化结果
func (e *Extractor) Extract(ctx context.Context, txHash, orderKind string) Data {
	base := Data{
		OrderSource: orderSourceByKind[orderKind],
		FillSource:  orderSourceByKind[orderKind],
	}

	key := utils.AttributionKey(txHash, orderKind)
	if raw, err := e.repo.GetRDB().Get(ctx, key).Result(); err == nil {
		var cached Data
		if err := sonic.UnmarshalString(raw, &cached); err == nil {
			return cached
		}
	} else if err != redis.Nil {
		e.logger.Warn("failed to read attribution cache", zap.String("txHash", txHash), zap.Error(err))
	}

	tx, _, err := e.repo.GetEthClient().TransactionByHash(ctx, common.HexToHash(txHash))
	if err != nil {
		e.logger.Warn("failed to fetch tx for attribution",
			zap.String("txHash", txHash), zap.Error(err))
		return base
	}

	result := base
	if to := tx.To(); to != nil {
		if aggregator, ok := aggregatorByRouter[*to]; ok {
			result.AggregatorSource = aggregator
			result.FillSource = aggregator
		}
	}

	if raw, err := sonic.MarshalString(result); err == nil {
		if err := e.repo.GetRDB().Set(ctx, key, raw, cacheTTL).Err(); err != nil {
			e.logger.Warn("failed to cache attribution", zap.String("txHash", txHash), zap.Error(err))
		}
	}
	return result
}
