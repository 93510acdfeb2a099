package handler

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"nft-indexer/internal/indexer/eventdata"
	"nft-indexer/internal/indexer/events"
	"nft-indexer/internal/indexer/model"
	"nft-indexer/internal/indexer/monitor"
	"nft-indexer/pkg/evmclient"
)

func sigHashOf(signature string) string {
	return "0x" + common.Bytes2Hex(crypto.Keccak256([]byte(signature))[:4])
}

var (
	sigSwapTokenForSpecificNFTs = sigHashOf("swapTokenForSpecificNFTs(uint256[],uint256,address,bool,address)")
	sigSwapTokenForAnyNFTs      = sigHashOf("swapTokenForAnyNFTs(uint256,uint256,address,bool,address)")
	sigSwapNFTsForToken         = sigHashOf("swapNFTsForToken(uint256[],uint256,address,bool,address)")
)

// sudoswapHandler AMM池交易所。事件无参数，成交细节从交易trace还原：
// 日志在交易内第N次出现就对应池子的第N次swap内部调用
type sudoswapHandler struct{}

func (h *sudoswapHandler) Kind() eventdata.Kind {
	return eventdata.KindSudoswap
}

func (h *sudoswapHandler) Handle(ctx context.Context, env *Env, log *model.RawLogWithBlock, ed eventdata.EventData, out *OnChainData) error {
	pool := strings.ToLower(log.Address)
	rank := env.NextRank(log.TxHash, pool)

	trace, err := env.Trace(ctx, log.TxHash)
	if err != nil {
		monitor.TraceFetchErrors.Inc()
		return fmt.Errorf("fetch trace for %s failed: %w", log.TxHash, err)
	}

	switch ed.SubKind {
	case eventdata.SubKindSudoswapBuy:
		return h.handleBuy(ctx, env, log, pool, trace, rank, out)
	case eventdata.SubKindSudoswapSell:
		return h.handleSell(ctx, env, log, pool, trace, rank, out)
	}
	return nil
}

// handleBuy 用户从池子买NFT，池子侧等价于一张随成交刷新价格的卖单
func (h *sudoswapHandler) handleBuy(ctx context.Context, env *Env, log *model.RawLogWithBlock, pool string, trace *evmclient.CallTrace, rank int, out *OnChainData) error {
	call := evmclient.SearchForCall(trace, common.HexToAddress(pool),
		[]string{sigSwapTokenForSpecificNFTs, sigSwapTokenForAnyNFTs}, rank)
	if call == nil {
		env.Logger.Warn("no matching swap call in trace",
			zap.String("txHash", log.TxHash), zap.String("pool", pool), zap.Int("rank", rank))
		return nil
	}
	if strings.EqualFold(call.Sighash(), sigSwapTokenForAnyNFTs) {
		// any变体的tokenId不在calldata里，放弃该笔
		env.Logger.Debug("skip swapTokenForAnyNFTs, token ids unavailable",
			zap.String("txHash", log.TxHash), zap.String("pool", pool))
		return nil
	}

	words, err := inputWords(call.Input)
	if err != nil {
		return err
	}
	nftIDs, err := wordArray(words, 0)
	if err != nil {
		return err
	}
	taker, err := wordAddress(words, 2)
	if err != nil {
		return err
	}
	if len(nftIDs) == 0 {
		return nil
	}

	// 返回值是整笔实付金额
	amountIn, err := callOutputBig(call)
	if err != nil {
		return err
	}
	unitPrice := new(big.Int).Div(amountIn, big.NewInt(int64(len(nftIDs))))

	return h.emit(ctx, env, log, pool, model.OrderSideSell, taker, nftIDs, unitPrice, out)
}

// handleSell 用户把NFT卖进池子，池子侧等价于一张买单
func (h *sudoswapHandler) handleSell(ctx context.Context, env *Env, log *model.RawLogWithBlock, pool string, trace *evmclient.CallTrace, rank int, out *OnChainData) error {
	call := evmclient.SearchForCall(trace, common.HexToAddress(pool),
		[]string{sigSwapNFTsForToken}, rank)
	if call == nil {
		env.Logger.Warn("no matching swap call in trace",
			zap.String("txHash", log.TxHash), zap.String("pool", pool), zap.Int("rank", rank))
		return nil
	}

	words, err := inputWords(call.Input)
	if err != nil {
		return err
	}
	nftIDs, err := wordArray(words, 0)
	if err != nil {
		return err
	}
	taker, err := wordAddress(words, 2)
	if err != nil {
		return err
	}
	if len(nftIDs) == 0 {
		return nil
	}

	amountOut, err := callOutputBig(call)
	if err != nil {
		return err
	}
	unitPrice := new(big.Int).Div(amountOut, big.NewInt(int64(len(nftIDs))))

	return h.emit(ctx, env, log, pool, model.OrderSideBuy, taker, nftIDs, unitPrice, out)
}

func (h *sudoswapHandler) emit(ctx context.Context, env *Env, log *model.RawLogWithBlock, pool string, side model.OrderSide, taker string, nftIDs []*big.Int, unitPrice *big.Int, out *OnChainData) error {
	client := env.Repo.GetEthClient()
	nft, err := evmclient.PairNFT(ctx, client, common.HexToAddress(pool))
	if err != nil {
		return err
	}
	contract := strings.ToLower(nft.Hex())

	currency := env.NativeAddress
	if token, err := evmclient.PairToken(ctx, client, common.HexToAddress(pool)); err == nil && token != (common.Address{}) {
		currency = strings.ToLower(token.Hex())
	}

	price := env.Oracle.GetUSDAndNativePrice(ctx, currency, unitPrice, log.Timestamp)
	if price.NativePrice == nil {
		monitor.FillEventsSkippedNoPrice.Inc()
		env.Logger.Warn("skip fill without native price",
			zap.String("txHash", log.TxHash), zap.String("currency", currency))
		return nil
	}

	attr := env.Attribution.Extract(ctx, log.TxHash, string(eventdata.KindSudoswap))
	usd := ""
	if price.UsdPrice != nil {
		usd = price.UsdPrice.String()
	}

	orderID := fmt.Sprintf("sudoswap:%s:%s", pool, side)
	for i, id := range nftIDs {
		out.FillsOnChain = append(out.FillsOnChain, &model.FillEvent{
			OrderKind:        string(eventdata.KindSudoswap),
			OrderID:          orderID,
			OrderSide:        side,
			Maker:            pool,
			Taker:            taker,
			Contract:         contract,
			TokenID:          id.String(),
			Amount:           "1",
			Currency:         currency,
			CurrencyPrice:    unitPrice.String(),
			Price:            price.NativePrice.String(),
			UsdPrice:         usd,
			OrderSource:      attr.OrderSource,
			AggregatorSource: attr.AggregatorSource,
			FillSource:       attr.FillSource,
			BaseEventParams:  log.BaseParams().WithBatchIndex(i + 1),
		})
	}

	// 池子影子订单按本次成交刷新现价，因果序由入库侧裁决
	out.PoolOrders = append(out.PoolOrders, &events.PoolOrder{
		ID:          orderID,
		Kind:        string(eventdata.KindSudoswap),
		Side:        string(side),
		Maker:       pool,
		Contract:    contract,
		Currency:    currency,
		Price:       unitPrice.String(),
		ValidFrom:   log.Timestamp,
		BlockNumber: log.Block,
		LogIndex:    log.LogIndex,
	})
	return nil
}

func inputWords(input []byte) ([][]byte, error) {
	if len(input) < 4 {
		return nil, fmt.Errorf("calldata too short: %d bytes", len(input))
	}
	body := input[4:]
	if len(body)%32 != 0 {
		return nil, fmt.Errorf("calldata length %d not word aligned", len(body))
	}
	words := make([][]byte, 0, len(body)/32)
	for i := 0; i < len(body); i += 32 {
		words = append(words, body[i:i+32])
	}
	return words, nil
}

func callOutputBig(call *evmclient.CallTrace) (*big.Int, error) {
	if len(call.Output) < 32 {
		return nil, fmt.Errorf("call output too short: %d bytes", len(call.Output))
	}
	return new(big.Int).SetBytes(call.Output[:32]), nil
}
