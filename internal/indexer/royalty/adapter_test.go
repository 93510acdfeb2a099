package royalty

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nft-indexer/internal/indexer/model"
)

const (
	creatorAddr  = "0x0000000000000000000000000000000000000c0e"
	openseaVault = "0x0000a26b00c1f0df003000390027140000faa719"
)

func paymentsOf(pairs map[string]int64) map[common.Address]*big.Int {
	out := make(map[common.Address]*big.Int, len(pairs))
	for addr, v := range pairs {
		out[common.HexToAddress(addr)] = big.NewInt(v)
	}
	return out
}

func TestFallbackAdapter_Extract(t *testing.T) {
	tp := &TxPayments{
		TotalPrice: big.NewInt(10000),
		Payments: paymentsOf(map[string]int64{
			creatorAddr:  500,
			openseaVault: 250,
		}),
	}
	defs := []model.RoyaltyDefinition{{Recipient: creatorAddr, Bps: 500}}

	b := fallbackAdapter{}.Extract(tp, defs)
	assert.Equal(t, 500, b.RoyaltyBps)
	assert.Equal(t, 250, b.MarketBps)
	assert.Equal(t, 500, b.DefTotalBps)
	assert.Equal(t, 750, b.TotalBps())
	assert.True(t, b.Valid())

	require.Len(t, b.RoyaltyItems, 1)
	assert.Equal(t, creatorAddr, b.RoyaltyItems[0].Recipient)
	require.Len(t, b.MarketItems, 1)
	assert.Equal(t, openseaVault, b.MarketItems[0].Recipient)
}

func TestFallbackAdapter_UnpaidDefinition(t *testing.T) {
	// 定义了版税但trace里没有对应支付：bps为0，DefTotalBps照记
	tp := &TxPayments{TotalPrice: big.NewInt(10000), Payments: paymentsOf(nil)}
	defs := []model.RoyaltyDefinition{{Recipient: creatorAddr, Bps: 250}}

	b := fallbackAdapter{}.Extract(tp, defs)
	assert.Equal(t, 0, b.RoyaltyBps)
	assert.Equal(t, 250, b.DefTotalBps)
	assert.Empty(t, b.RoyaltyItems)
	assert.True(t, b.Valid())
}

func TestBreakdown_FeeOverflow(t *testing.T) {
	// 版税+市场费吃掉全部成交额：归因必然有误，拆分判为不可用
	tp := &TxPayments{
		TotalPrice: big.NewInt(10000),
		Payments: paymentsOf(map[string]int64{
			creatorAddr:  6000,
			openseaVault: 4000,
		}),
	}
	defs := []model.RoyaltyDefinition{{Recipient: creatorAddr, Bps: 500}}

	b := fallbackAdapter{}.Extract(tp, defs)
	assert.Equal(t, 10000, b.TotalBps())
	assert.False(t, b.Valid())

	// 压线但未越界仍可用
	tp.Payments = paymentsOf(map[string]int64{
		creatorAddr:  5999,
		openseaVault: 4000,
	})
	assert.True(t, fallbackAdapter{}.Extract(tp, defs).Valid())
}

type stubAdapter struct{ kind string }

func (s stubAdapter) Kind() string { return s.kind }
func (s stubAdapter) Extract(tp *TxPayments, defs []model.RoyaltyDefinition) *Breakdown {
	return &Breakdown{}
}

func TestAdapterRegistry_FallbackDispatch(t *testing.T) {
	special := stubAdapter{kind: "sudoswap"}
	reg := newAdapterRegistry(fallbackAdapter{}, special)

	assert.Equal(t, special, reg.For("sudoswap"))
	// 未登记的协议回落到通用路径
	assert.Equal(t, fallbackAdapter{}, reg.For("seaport"))
	assert.Equal(t, fallbackAdapter{}, reg.For("looks-rare"))
}

func TestNewEngine_ResolvesAdapters(t *testing.T) {
	e := NewEngine(nil, nil, 10, nil)
	require.NotNil(t, e.adapters)
	assert.NotNil(t, e.adapters.For("seaport"))
}
