package handler

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"nft-indexer/internal/indexer/eventdata"
	"nft-indexer/internal/indexer/model"
	"nft-indexer/internal/indexer/monitor"
)

// looksRareHandler 订单簿交易所，订单一次吃满，nonce批量取消
type looksRareHandler struct{}

func (h *looksRareHandler) Kind() eventdata.Kind {
	return eventdata.KindLooksRare
}

func (h *looksRareHandler) Handle(ctx context.Context, env *Env, log *model.RawLogWithBlock, ed eventdata.EventData, out *OnChainData) error {
	switch ed.SubKind {
	case eventdata.SubKindLooksRareTakerAsk:
		return h.handleTaker(ctx, env, log, out, model.OrderSideBuy)
	case eventdata.SubKindLooksRareTakerBid:
		return h.handleTaker(ctx, env, log, out, model.OrderSideSell)
	case eventdata.SubKindLooksRareCancelAllOrders:
		return h.handleCancelAll(log, out)
	case eventdata.SubKindLooksRareCancelMultipleOrders:
		return h.handleCancelMultiple(log, out)
	}
	return nil
}

// handleTaker TakerBid是taker吃卖单(side=sell)，TakerAsk是taker吃买单(side=buy)
func (h *looksRareHandler) handleTaker(ctx context.Context, env *Env, log *model.RawLogWithBlock, out *OnChainData, side model.OrderSide) error {
	taker, err := topicAddress(log.Topics, 1)
	if err != nil {
		return err
	}
	maker, err := topicAddress(log.Topics, 2)
	if err != nil {
		return err
	}

	words, err := dataWords(log.Data)
	if err != nil {
		return err
	}
	orderHash, err := wordHash(words, 0)
	if err != nil {
		return err
	}
	currency, err := wordAddress(words, 2)
	if err != nil {
		return err
	}
	collection, err := wordAddress(words, 3)
	if err != nil {
		return err
	}
	tokenID, err := wordBig(words, 4)
	if err != nil {
		return err
	}
	amount, err := wordBig(words, 5)
	if err != nil {
		return err
	}
	totalPrice, err := wordBig(words, 6)
	if err != nil {
		return err
	}
	if amount.Sign() == 0 {
		return fmt.Errorf("taker event with zero amount, tx %s", log.TxHash)
	}

	// 事件价是整笔总价，换算成单价再定价
	unitPrice := new(big.Int).Div(totalPrice, amount)
	price := env.Oracle.GetUSDAndNativePrice(ctx, currency, unitPrice, log.Timestamp)
	if price.NativePrice == nil {
		// 原生价不可得的成交宁可丢弃也不落价格为0的脏数据
		monitor.FillEventsSkippedNoPrice.Inc()
		env.Logger.Warn("skip fill without native price",
			zap.String("txHash", log.TxHash), zap.String("currency", currency))
		return nil
	}

	attr := env.Attribution.Extract(ctx, log.TxHash, string(eventdata.KindLooksRare))

	usd := ""
	if price.UsdPrice != nil {
		usd = price.UsdPrice.String()
	}
	out.Fills = append(out.Fills, &model.FillEvent{
		OrderKind:        string(eventdata.KindLooksRare),
		OrderID:          orderHash,
		OrderSide:        side,
		Maker:            maker,
		Taker:            taker,
		Contract:         collection,
		TokenID:          tokenID.String(),
		Amount:           amount.String(),
		Currency:         currency,
		CurrencyPrice:    unitPrice.String(),
		Price:            price.NativePrice.String(),
		UsdPrice:         usd,
		OrderSource:      attr.OrderSource,
		AggregatorSource: attr.AggregatorSource,
		FillSource:       attr.FillSource,
		BaseEventParams:  log.BaseParams(),
	})
	out.OrderInfos = append(out.OrderInfos, &model.OrderInfo{
		Context: "fill",
		ID:      orderHash,
		TxHash:  log.TxHash,
		TxTime:  log.Timestamp,
	})
	return nil
}

func (h *looksRareHandler) handleCancelAll(log *model.RawLogWithBlock, out *OnChainData) error {
	maker, err := topicAddress(log.Topics, 1)
	if err != nil {
		return err
	}
	words, err := dataWords(log.Data)
	if err != nil {
		return err
	}
	minNonce, err := wordBig(words, 0)
	if err != nil {
		return err
	}

	out.BulkCancels = append(out.BulkCancels, &model.BulkCancelEvent{
		OrderKind:       string(eventdata.KindLooksRare),
		Maker:           maker,
		MinNonce:        minNonce.String(),
		BaseEventParams: log.BaseParams(),
	})
	return nil
}

// handleCancelMultiple 逐nonce取消。订单id用maker+nonce合成，
// 与订单簿摄入侧的同一约定对齐
func (h *looksRareHandler) handleCancelMultiple(log *model.RawLogWithBlock, out *OnChainData) error {
	maker, err := topicAddress(log.Topics, 1)
	if err != nil {
		return err
	}
	words, err := dataWords(log.Data)
	if err != nil {
		return err
	}
	nonces, err := wordArray(words, 0)
	if err != nil {
		return err
	}

	for i, nonce := range nonces {
		out.Cancels = append(out.Cancels, &model.CancelEvent{
			OrderKind:       string(eventdata.KindLooksRare),
			OrderID:         fmt.Sprintf("looks-rare:%s:%s", maker, nonce),
			Maker:           maker,
			BaseEventParams: log.BaseParams().WithBatchIndex(i + 1),
		})
	}
	return nil
}
