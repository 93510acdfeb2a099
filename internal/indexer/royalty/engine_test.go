package royalty

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nft-indexer/pkg/evmclient"
)

func hexBig(v int64) *hexutil.Big {
	return (*hexutil.Big)(big.NewInt(v))
}

func TestCollectPayments(t *testing.T) {
	creator := common.HexToAddress("0x0000000000000000000000000000000000000c0e")
	seller := common.HexToAddress("0x0000000000000000000000000000000000005e11")

	trace := &evmclient.CallTrace{
		Type:  "CALL",
		To:    common.HexToAddress("0x00000000000000000000000000000000000000e1"),
		Value: hexBig(0),
		Calls: []evmclient.CallTrace{
			{Type: "CALL", To: seller, Value: hexBig(9500)},
			{Type: "CALL", To: creator, Value: hexBig(250)},
			{Type: "CALL", To: creator, Value: hexBig(250)}, // 同一接收人多笔累加
			{Type: "STATICCALL", To: creator, Value: hexBig(999)},           // 非CALL不计
			{Type: "CALL", To: creator, Value: hexBig(100), Error: "revert"}, // 失败调用不计
		},
	}

	payments := collectPayments(trace)
	require.Len(t, payments, 2)
	assert.Equal(t, "9500", payments[seller].String())
	assert.Equal(t, "500", payments[creator].String())
}

func TestCollectPayments_NilTrace(t *testing.T) {
	assert.Empty(t, collectPayments(nil))
}

func TestBpsOf(t *testing.T) {
	assert.Equal(t, 500, bpsOf(big.NewInt(500), big.NewInt(10000)))
	assert.Equal(t, 250, bpsOf(big.NewInt(25), big.NewInt(1000)))
	// 向下取整
	assert.Equal(t, 333, bpsOf(big.NewInt(1), big.NewInt(3)))
	assert.Equal(t, 0, bpsOf(big.NewInt(0), big.NewInt(10000)))
}

func TestNetAmount(t *testing.T) {
	price := big.NewInt(1_000_000)
	// 2.5%版税 + 2.5%市场费
	assert.Equal(t, "950000", netAmount(price, 500).String())
	assert.Equal(t, "1000000", netAmount(price, 0).String())
}

func TestNewEngine_ConcurrencyCap(t *testing.T) {
	assert.Equal(t, maxPoolSize, NewEngine(nil, nil, 0, nil).maxConcurrency)
	assert.Equal(t, maxPoolSize, NewEngine(nil, nil, 500, nil).maxConcurrency)
	assert.Equal(t, 10, NewEngine(nil, nil, 10, nil).maxConcurrency)
}
