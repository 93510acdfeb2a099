package events

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nft-indexer/internal/indexer/model"
)

func TestFillArgs_MatchesInsertColumns(t *testing.T) {
	e := &model.FillEvent{
		OrderKind:     "looks-rare",
		OrderID:       "0xorder",
		OrderSide:     model.OrderSideSell,
		Maker:         "0xmaker",
		Taker:         "0xtaker",
		Contract:      "0xcontract",
		TokenID:       "42",
		Amount:        "1",
		Currency:      "0xcurrency",
		CurrencyPrice: "1000",
		Price:         "1000",
		UsdPrice:      "",
		OrderSource:   "looksrare.org",
		FillSource:    "looksrare.org",
		BaseEventParams: model.BaseEventParams{
			TxHash:     "0xtx",
			LogIndex:   7,
			BatchIndex: 1,
			BlockHash:  "0xblock",
			Address:    "0xexchange",
			Block:      100,
			TxIndex:    3,
			Timestamp:  1700000000,
		},
	}

	args := fillArgs(e, 1700000001)

	// 占位符数量与参数数量必须一致
	placeholders := strings.Count(insertFillSQL, "?")
	require.Equal(t, placeholders, len(args))

	// 主键四元组在最前
	assert.Equal(t, "0xtx", args[0])
	assert.Equal(t, uint(7), args[1])
	assert.Equal(t, 1, args[2])
	assert.Equal(t, "0xblock", args[3])

	// usd_price为空串，由SQL侧NULLIF转NULL
	assert.Equal(t, "", args[19])
	assert.Equal(t, int64(1700000001), args[24])
}

func testFill() *model.FillEvent {
	return &model.FillEvent{
		OrderKind: "looks-rare",
		OrderID:   "0xorder",
		OrderSide: model.OrderSideSell,
		Amount:    "2",
		BaseEventParams: model.BaseEventParams{
			TxHash:    "0xtx",
			LogIndex:  7,
			BlockHash: "0xblock",
			Timestamp: 1700000000,
		},
	}
}

func TestFullFillArgs_MatchPlaceholders(t *testing.T) {
	e := testFill()
	args := fullFillArgs(e, 1700000001)

	require.Equal(t, strings.Count(fullFillSQL, "?"), len(args))

	// 吃满的订单过期点压到成交时刻，而不是留在原valid_until
	require.Contains(t, fullFillSQL, "valid_until = ?")

	// 末四个参数依次为quantity_filled增量、valid_until(成交时刻)、updated_at、订单id
	n := len(args)
	assert.Equal(t, "2", args[n-4])
	assert.Equal(t, int64(1700000000), args[n-3])
	assert.Equal(t, int64(1700000001), args[n-2])
	assert.Equal(t, "0xorder", args[n-1])
}

func TestPartialFillArgs_MatchPlaceholders(t *testing.T) {
	e := testFill()
	args := partialFillArgs(e, 1700000001)

	require.Equal(t, strings.Count(partialFillSQL, "?"), len(args))
	n := len(args)
	assert.Equal(t, "0xorder", args[n-1])
	assert.Equal(t, int64(1700000001), args[n-2])
}

func TestAddFills_EmptyBatchNoop(t *testing.T) {
	s := NewStore(nil, nil)
	assert.NoError(t, s.AddFills(context.Background(), nil))
	assert.NoError(t, s.AddFillsPartial(context.Background(), nil))
	assert.NoError(t, s.AddFillsOnChain(context.Background(), nil, nil))
}
