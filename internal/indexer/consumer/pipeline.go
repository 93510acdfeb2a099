package consumer

import (
	"context"
	"math/big"

	"github.com/bytedance/sonic"
	"github.com/ethereum/go-ethereum/common"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"nft-indexer/internal/indexer/attribution"
	"nft-indexer/internal/indexer/config"
	"nft-indexer/internal/indexer/eventdata"
	"nft-indexer/internal/indexer/events"
	"nft-indexer/internal/indexer/handler"
	"nft-indexer/internal/indexer/model"
	"nft-indexer/internal/indexer/monitor"
	"nft-indexer/internal/indexer/orders"
	"nft-indexer/internal/indexer/prices"
	"nft-indexer/internal/indexer/repository"
	"nft-indexer/internal/indexer/royalty"
	"nft-indexer/pkg/coingecko"
)

// Pipeline 日志批次的完整处理链：匹配 -> 派发解析 -> 落库 -> 广播 -> 版税补全。
// 整条链幂等，同一批次重放产出完全相同的写入
type Pipeline struct {
	cfg      config.Config
	repo     repository.Repository
	logger   *zap.Logger
	registry handler.Registry
	oracle   *prices.Oracle
	attr     *attribution.Extractor
	store    *events.Store
	royalty  *royalty.Engine
	checker  *orders.Checker
}

func NewPipeline(cfg config.Config, repo repository.Repository, logger *zap.Logger) *Pipeline {
	cg := coingecko.NewCoingeckoClient(coingecko.Config{
		BaseURL:   cfg.Coingecko.BaseURL,
		APIKey:    cfg.Coingecko.APIKey,
		RateLimit: cfg.Coingecko.RateLimit,
		Timeout:   cfg.Coingecko.Timeout,
	}, logger)

	store := events.NewStore(repo, logger)
	return &Pipeline{
		cfg:      cfg,
		repo:     repo,
		logger:   logger,
		registry: handler.NewRegistry(),
		oracle:   prices.NewOracle(repo, cg, cfg.Chain.NativeAddress, cfg.Chain.WNativeAddress, logger),
		attr:     attribution.NewExtractor(repo, logger),
		store:    store,
		royalty:  royalty.NewEngine(repo, store, cfg.Royalty.MaxConcurrency, logger),
		checker:  orders.NewChecker(repo, logger),
	}
}

// Process 处理一个日志批次
func (p *Pipeline) Process(ctx context.Context, batch *model.LogBatch) error {
	if err := p.saveBlocks(ctx, batch); err != nil {
		return err
	}

	env := handler.NewEnv(p.repo, p.oracle, p.attr, p.cfg.Chain.NativeAddress, p.logger)
	out := &handler.OnChainData{}

	for i := range batch.Logs {
		log := &batch.Logs[i]
		if log.Removed {
			continue
		}

		matches := eventdata.MatchAll(&log.RawLog)
		if len(matches) == 0 {
			monitor.LogsUnmatched.Inc()
			continue
		}

		// 歧义匹配全部派发，由各处理器自行甄别
		for _, ed := range matches {
			monitor.LogsMatched.WithLabelValues(string(ed.Kind)).Inc()
			h, ok := p.registry[ed.Kind]
			if !ok {
				continue
			}
			if err := h.Handle(ctx, env, log, ed, out); err != nil {
				p.logger.Error("handler failed",
					zap.String("kind", string(ed.Kind)),
					zap.String("subKind", string(ed.SubKind)),
					zap.String("txHash", log.TxHash),
					zap.Error(err))
			}
		}
	}

	p.priceMints(ctx, out)

	if err := p.persist(ctx, out); err != nil {
		return err
	}
	p.publish(ctx, out)

	// 版税补全走trace，不阻塞主链路的事务窗口，但在批次内同步完成
	p.enrichRoyalties(ctx, out)
	return nil
}

func (p *Pipeline) saveBlocks(ctx context.Context, batch *model.LogBatch) error {
	blocks := make([]model.Block, 0, len(batch.BlockHashes))
	for number, hash := range batch.BlockHashes {
		blocks = append(blocks, model.Block{
			Number:    number,
			Hash:      hash,
			Timestamp: batch.BlockTimestamps[number],
		})
	}
	return p.store.SaveBlocks(ctx, blocks)
}

// priceMints 铸造成交定价：同笔交易的铸造均摊该交易的原生币入金，
// 免费铸造价格记0。定价后并入链上成交桶落库
func (p *Pipeline) priceMints(ctx context.Context, out *handler.OnChainData) {
	if len(out.MintFills) == 0 {
		return
	}

	byTx := make(map[string][]*model.FillEvent)
	for _, f := range out.MintFills {
		byTx[f.BaseEventParams.TxHash] = append(byTx[f.BaseEventParams.TxHash], f)
	}

	for txHash, fills := range byTx {
		units := new(big.Int)
		for _, f := range fills {
			if n, ok := new(big.Int).SetString(f.Amount, 10); ok {
				units.Add(units, n)
			}
		}

		var value *big.Int
		tx, _, err := p.repo.GetEthClient().TransactionByHash(ctx, common.HexToHash(txHash))
		if err != nil {
			p.logger.Warn("failed to fetch mint transaction, price falls back to zero",
				zap.String("txHash", txHash), zap.Error(err))
		} else {
			value = tx.Value()
		}
		unitPrice := mintUnitPrice(value, units)

		usd := ""
		if unitPrice.Sign() > 0 {
			pr := p.oracle.GetUSDAndNativePrice(ctx, p.cfg.Chain.NativeAddress, unitPrice, fills[0].BaseEventParams.Timestamp)
			if pr.UsdPrice != nil {
				usd = pr.UsdPrice.String()
			}
		}

		for _, f := range fills {
			f.Currency = p.cfg.Chain.NativeAddress
			f.CurrencyPrice = unitPrice.String()
			f.Price = unitPrice.String()
			f.UsdPrice = usd
			out.FillsOnChain = append(out.FillsOnChain, f)
		}
	}
}

// mintUnitPrice 交易入金均摊到每个铸造单位，向下取整
func mintUnitPrice(value, units *big.Int) *big.Int {
	if value == nil || value.Sign() == 0 || units == nil || units.Sign() == 0 {
		return big.NewInt(0)
	}
	return new(big.Int).Div(value, units)
}

func (p *Pipeline) persist(ctx context.Context, out *handler.OnChainData) error {
	if err := p.store.AddFills(ctx, out.Fills); err != nil {
		return err
	}
	if err := p.store.AddFillsPartial(ctx, out.FillsPartial); err != nil {
		return err
	}
	if err := p.store.AddFillsOnChain(ctx, out.FillsOnChain, out.PoolOrders); err != nil {
		return err
	}
	if err := p.store.AddCancels(ctx, out.Cancels); err != nil {
		return err
	}
	if err := p.store.AddBulkCancels(ctx, out.BulkCancels); err != nil {
		return err
	}

	for _, bc := range out.BulkCancels {
		p.checker.RecordMinNonce(ctx, bc.OrderKind, bc.Maker, bc.MinNonce)
	}
	return nil
}

// publish 把订单提示和铸造提示广播给下游
func (p *Pipeline) publish(ctx context.Context, out *handler.OnChainData) {
	msgs := make([]kafka.Message, 0, len(out.OrderInfos)+len(out.Mints))
	for _, info := range out.OrderInfos {
		if payload, err := sonic.Marshal(map[string]any{"type": "order-info", "data": info}); err == nil {
			msgs = append(msgs, kafka.Message{Key: []byte(info.ID), Value: payload})
		}
	}
	for _, mint := range out.Mints {
		if payload, err := sonic.Marshal(map[string]any{"type": "mint", "data": mint}); err == nil {
			msgs = append(msgs, kafka.Message{Key: []byte(mint.Contract), Value: payload})
		}
	}
	if len(msgs) == 0 {
		return
	}
	if err := p.repo.GetMQ().WriteMessages(ctx, msgs...); err != nil {
		p.logger.Error("failed to publish downstream notifications", zap.Error(err))
	}
}

func (p *Pipeline) enrichRoyalties(ctx context.Context, out *handler.OnChainData) {
	var txHashes []string
	for _, fills := range [][]*model.FillEvent{out.Fills, out.FillsPartial, out.FillsOnChain} {
		for _, f := range fills {
			txHashes = append(txHashes, f.BaseEventParams.TxHash)
		}
	}
	if len(txHashes) == 0 {
		return
	}
	p.royalty.EnrichBatch(ctx, txHashes)
}
