package royalty

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"nft-indexer/internal/indexer/model"
)

// TxPayments 一笔交易的支付归因上下文：调用树里各地址收到的原生币，
// 以及同交易全部成交价之和（bps折算的分母）
type TxPayments struct {
	TotalPrice *big.Int
	Payments   map[common.Address]*big.Int
}

// Breakdown 单笔成交的费用拆分
type Breakdown struct {
	RoyaltyItems []model.FeeItem
	MarketItems  []model.FeeItem
	RoyaltyBps   int
	MarketBps    int
	DefTotalBps  int
}

func (b *Breakdown) TotalBps() int {
	return b.RoyaltyBps + b.MarketBps
}

// Valid 费用之和不应吃掉全部成交额，超界说明归因错误
func (b *Breakdown) Valid() bool {
	return b.TotalBps() < bpsDenominator
}

// Adapter 按协议提取费用拆分
type Adapter interface {
	Kind() string
	Extract(tp *TxPayments, defs []model.RoyaltyDefinition) *Breakdown
}

// adapterRegistry order_kind到Adapter的派发表，未注册的协议走fallback
type adapterRegistry struct {
	byKind   map[string]Adapter
	fallback Adapter
}

func newAdapterRegistry(fallback Adapter, adapters ...Adapter) *adapterRegistry {
	r := &adapterRegistry{
		byKind:   make(map[string]Adapter, len(adapters)),
		fallback: fallback,
	}
	for _, a := range adapters {
		r.byKind[a.Kind()] = a
	}
	return r
}

func (r *adapterRegistry) For(orderKind string) Adapter {
	if a, ok := r.byKind[orderKind]; ok {
		return a
	}
	return r.fallback
}

// fallbackAdapter 通用路径：版税按合约定义表的接收人匹配支付，
// 市场费按已知协议金库地址匹配。需要协议特化拆分时在注册表登记专用Adapter
type fallbackAdapter struct{}

func (fallbackAdapter) Kind() string {
	return "fallback"
}

func (fallbackAdapter) Extract(tp *TxPayments, defs []model.RoyaltyDefinition) *Breakdown {
	b := &Breakdown{}
	for _, def := range defs {
		b.DefTotalBps += def.Bps
		paid, ok := tp.Payments[common.HexToAddress(def.Recipient)]
		if !ok || paid.Sign() == 0 {
			continue
		}
		bps := bpsOf(paid, tp.TotalPrice)
		b.RoyaltyBps += bps
		b.RoyaltyItems = append(b.RoyaltyItems, model.FeeItem{Recipient: strings.ToLower(def.Recipient), Bps: bps})
	}
	for recipient := range marketplaceFeeRecipients {
		paid, ok := tp.Payments[recipient]
		if !ok || paid.Sign() == 0 {
			continue
		}
		bps := bpsOf(paid, tp.TotalPrice)
		b.MarketBps += bps
		b.MarketItems = append(b.MarketItems, model.FeeItem{Recipient: strings.ToLower(recipient.Hex()), Bps: bps})
	}
	return b
}
