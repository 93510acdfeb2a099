package handler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"nft-indexer/internal/indexer/eventdata"
	"nft-indexer/internal/indexer/model"
	"nft-indexer/internal/indexer/monitor"
)

// zoraHandler 挂价式市场（asks模块），一口价全量成交
type zoraHandler struct{}

func (h *zoraHandler) Kind() eventdata.Kind {
	return eventdata.KindZora
}

func (h *zoraHandler) Handle(ctx context.Context, env *Env, log *model.RawLogWithBlock, ed eventdata.EventData, out *OnChainData) error {
	switch ed.SubKind {
	case eventdata.SubKindZoraAskFilled:
		return h.handleAskFilled(ctx, env, log, out)
	case eventdata.SubKindZoraAskCanceled:
		return h.handleAskCanceled(log, out)
	}
	return nil
}

// ask的订单id由(合约,tokenId)合成：同一token同时至多一张ask
func zoraAskID(contract, tokenID string) string {
	return fmt.Sprintf("zora:%s:%s", contract, tokenID)
}

// handleAskFilled topics: [sig, tokenContract, tokenId, buyer]
// data: finder + ask元组(seller, sellerFundsRecipient, askCurrency, findersFeeBps, askPrice)
func (h *zoraHandler) handleAskFilled(ctx context.Context, env *Env, log *model.RawLogWithBlock, out *OnChainData) error {
	contract, err := topicAddress(log.Topics, 1)
	if err != nil {
		return err
	}
	tokenID, err := topicBig(log.Topics, 2)
	if err != nil {
		return err
	}
	taker, err := topicAddress(log.Topics, 3)
	if err != nil {
		return err
	}

	words, err := dataWords(log.Data)
	if err != nil {
		return err
	}
	maker, err := wordAddress(words, 1)
	if err != nil {
		return err
	}
	currency, err := wordAddress(words, 3)
	if err != nil {
		return err
	}
	askPrice, err := wordBig(words, 5)
	if err != nil {
		return err
	}
	if isZeroAddress(currency) {
		currency = env.NativeAddress
	}

	price := env.Oracle.GetUSDAndNativePrice(ctx, currency, askPrice, log.Timestamp)
	if price.NativePrice == nil {
		monitor.FillEventsSkippedNoPrice.Inc()
		env.Logger.Warn("skip fill without native price",
			zap.String("txHash", log.TxHash), zap.String("currency", currency))
		return nil
	}

	attr := env.Attribution.Extract(ctx, log.TxHash, string(eventdata.KindZora))
	usd := ""
	if price.UsdPrice != nil {
		usd = price.UsdPrice.String()
	}

	orderID := zoraAskID(contract, tokenID.String())
	out.Fills = append(out.Fills, &model.FillEvent{
		OrderKind:        string(eventdata.KindZora),
		OrderID:          orderID,
		OrderSide:        model.OrderSideSell,
		Maker:            maker,
		Taker:            taker,
		Contract:         contract,
		TokenID:          tokenID.String(),
		Amount:           "1",
		Currency:         currency,
		CurrencyPrice:    askPrice.String(),
		Price:            price.NativePrice.String(),
		UsdPrice:         usd,
		OrderSource:      attr.OrderSource,
		AggregatorSource: attr.AggregatorSource,
		FillSource:       attr.FillSource,
		BaseEventParams:  log.BaseParams(),
	})
	out.OrderInfos = append(out.OrderInfos, &model.OrderInfo{
		Context: "fill",
		ID:      orderID,
		TxHash:  log.TxHash,
		TxTime:  log.Timestamp,
	})
	return nil
}

// handleAskCanceled topics: [sig, tokenContract, tokenId]，data: ask元组(seller在首字)
func (h *zoraHandler) handleAskCanceled(log *model.RawLogWithBlock, out *OnChainData) error {
	contract, err := topicAddress(log.Topics, 1)
	if err != nil {
		return err
	}
	tokenID, err := topicBig(log.Topics, 2)
	if err != nil {
		return err
	}
	words, err := dataWords(log.Data)
	if err != nil {
		return err
	}
	maker, err := wordAddress(words, 0)
	if err != nil {
		return err
	}

	out.Cancels = append(out.Cancels, &model.CancelEvent{
		OrderKind:       string(eventdata.KindZora),
		OrderID:         zoraAskID(contract, tokenID.String()),
		Maker:           maker,
		BaseEventParams: log.BaseParams(),
	})
	return nil
}
