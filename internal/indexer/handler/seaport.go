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

// seaport item类型
const (
	itemTypeNative  = 0
	itemTypeERC20   = 1
	itemTypeERC721  = 2
	itemTypeERC1155 = 3
)

type seaportItem struct {
	ItemType   int
	Token      string
	Identifier *big.Int
	Amount     *big.Int
	Recipient  string // 仅consideration有
}

// seaportHandler 订单簿交易所，支持部分成交
type seaportHandler struct{}

func (h *seaportHandler) Kind() eventdata.Kind {
	return eventdata.KindSeaport
}

func (h *seaportHandler) Handle(ctx context.Context, env *Env, log *model.RawLogWithBlock, ed eventdata.EventData, out *OnChainData) error {
	switch ed.SubKind {
	case eventdata.SubKindSeaportOrderFulfilled:
		return h.handleFulfilled(ctx, env, log, out)
	case eventdata.SubKindSeaportOrderCancelled:
		return h.handleCancelled(log, out)
	case eventdata.SubKindSeaportCounterIncremented:
		return h.handleCounterIncremented(log, out)
	}
	return nil
}

// handleFulfilled data布局：orderHash, recipient, offer数组偏移, consideration数组偏移。
// offer元素4个字(itemType,token,identifier,amount)，consideration元素5个字(多recipient)
func (h *seaportHandler) handleFulfilled(ctx context.Context, env *Env, log *model.RawLogWithBlock, out *OnChainData) error {
	maker, err := topicAddress(log.Topics, 1)
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
	taker, err := wordAddress(words, 1)
	if err != nil {
		return err
	}
	offer, err := decodeItems(words, 2, 4)
	if err != nil {
		return err
	}
	consideration, err := decodeItems(words, 3, 5)
	if err != nil {
		return err
	}

	// offer侧是NFT则为卖单，否则为买单（offer是报价币、NFT在consideration侧）
	var side model.OrderSide
	var nfts []seaportItem
	var payments []seaportItem
	if hasNFT(offer) {
		side = model.OrderSideSell
		nfts = filterNFT(offer)
		payments = filterPayment(consideration)
	} else {
		side = model.OrderSideBuy
		nfts = filterNFT(consideration)
		payments = filterPayment(offer)
	}
	if len(nfts) == 0 || len(payments) == 0 {
		env.Logger.Debug("seaport fulfillment without nft or payment side, skip",
			zap.String("txHash", log.TxHash), zap.String("orderHash", orderHash))
		return nil
	}

	// 报价币取支付项里金额最大的一种，总价只聚合该币种
	currency := dominantCurrency(payments)
	totalPrice := new(big.Int)
	for _, p := range payments {
		if p.Token == currency {
			totalPrice.Add(totalPrice, p.Amount)
		}
	}
	if isZeroAddress(currency) {
		currency = env.NativeAddress
	}

	totalQuantity := new(big.Int)
	for _, n := range nfts {
		totalQuantity.Add(totalQuantity, n.Amount)
	}
	if totalQuantity.Sign() == 0 {
		return fmt.Errorf("seaport fulfillment with zero quantity, tx %s", log.TxHash)
	}

	// 聚合金额除以成交量得到单价
	unitPrice := new(big.Int).Div(totalPrice, totalQuantity)
	price := env.Oracle.GetUSDAndNativePrice(ctx, currency, unitPrice, log.Timestamp)
	if price.NativePrice == nil {
		monitor.FillEventsSkippedNoPrice.Inc()
		env.Logger.Warn("skip fill without native price",
			zap.String("txHash", log.TxHash), zap.String("currency", currency))
		return nil
	}

	attr := env.Attribution.Extract(ctx, log.TxHash, string(eventdata.KindSeaport))
	usd := ""
	if price.UsdPrice != nil {
		usd = price.UsdPrice.String()
	}

	for i, nft := range nfts {
		out.FillsPartial = append(out.FillsPartial, &model.FillEvent{
			OrderKind:        string(eventdata.KindSeaport),
			OrderID:          orderHash,
			OrderSide:        side,
			Maker:            maker,
			Taker:            taker,
			Contract:         nft.Token,
			TokenID:          nft.Identifier.String(),
			Amount:           nft.Amount.String(),
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
	out.OrderInfos = append(out.OrderInfos, &model.OrderInfo{
		Context: "fill",
		ID:      orderHash,
		TxHash:  log.TxHash,
		TxTime:  log.Timestamp,
	})
	return nil
}

func (h *seaportHandler) handleCancelled(log *model.RawLogWithBlock, out *OnChainData) error {
	maker, err := topicAddress(log.Topics, 1)
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

	out.Cancels = append(out.Cancels, &model.CancelEvent{
		OrderKind:       string(eventdata.KindSeaport),
		OrderID:         orderHash,
		Maker:           maker,
		BaseEventParams: log.BaseParams(),
	})
	return nil
}

// handleCounterIncremented counter自增等价于撤掉maker全部挂单
func (h *seaportHandler) handleCounterIncremented(log *model.RawLogWithBlock, out *OnChainData) error {
	maker, err := topicAddress(log.Topics, 1)
	if err != nil {
		return err
	}
	words, err := dataWords(log.Data)
	if err != nil {
		return err
	}
	counter, err := wordBig(words, 0)
	if err != nil {
		return err
	}

	out.BulkCancels = append(out.BulkCancels, &model.BulkCancelEvent{
		OrderKind:       string(eventdata.KindSeaport),
		Maker:           maker,
		MinNonce:        counter.String(),
		BaseEventParams: log.BaseParams(),
	})
	return nil
}

func decodeItems(words [][]byte, offsetWord, stride int) ([]seaportItem, error) {
	off, err := wordBig(words, offsetWord)
	if err != nil {
		return nil, err
	}
	if !off.IsInt64() || off.Int64()%32 != 0 {
		return nil, fmt.Errorf("bad items offset %s", off)
	}
	idx := int(off.Int64() / 32)
	length, err := wordBig(words, idx)
	if err != nil {
		return nil, err
	}
	if !length.IsInt64() || int(length.Int64())*stride > len(words)-idx-1 {
		return nil, fmt.Errorf("bad items length %s", length)
	}

	items := make([]seaportItem, 0, length.Int64())
	for i := 0; i < int(length.Int64()); i++ {
		base := idx + 1 + i*stride
		itemType, err := wordBig(words, base)
		if err != nil {
			return nil, err
		}
		token, err := wordAddress(words, base+1)
		if err != nil {
			return nil, err
		}
		identifier, err := wordBig(words, base+2)
		if err != nil {
			return nil, err
		}
		amount, err := wordBig(words, base+3)
		if err != nil {
			return nil, err
		}
		item := seaportItem{
			ItemType:   int(itemType.Int64()),
			Token:      token,
			Identifier: identifier,
			Amount:     amount,
		}
		if stride == 5 {
			recipient, err := wordAddress(words, base+4)
			if err != nil {
				return nil, err
			}
			item.Recipient = recipient
		}
		items = append(items, item)
	}
	return items, nil
}

func hasNFT(items []seaportItem) bool {
	return len(filterNFT(items)) > 0
}

func filterNFT(items []seaportItem) []seaportItem {
	var out []seaportItem
	for _, it := range items {
		if it.ItemType == itemTypeERC721 || it.ItemType == itemTypeERC1155 {
			out = append(out, it)
		}
	}
	return out
}

func filterPayment(items []seaportItem) []seaportItem {
	var out []seaportItem
	for _, it := range items {
		if it.ItemType == itemTypeNative || it.ItemType == itemTypeERC20 {
			out = append(out, it)
		}
	}
	return out
}

// dominantCurrency 金额最大的支付币种
func dominantCurrency(payments []seaportItem) string {
	totals := make(map[string]*big.Int)
	for _, p := range payments {
		if acc, ok := totals[p.Token]; ok {
			acc.Add(acc, p.Amount)
		} else {
			totals[p.Token] = new(big.Int).Set(p.Amount)
		}
	}
	best := ""
	var bestAmount *big.Int
	for token, amount := range totals {
		if bestAmount == nil || amount.Cmp(bestAmount) > 0 {
			best = token
			bestAmount = amount
		}
	}
	return best
}
