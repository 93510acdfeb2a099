package handler

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nft-indexer/internal/indexer/attribution"
	"nft-indexer/internal/indexer/eventdata"
	"nft-indexer/internal/indexer/model"
	"nft-indexer/internal/indexer/prices"
)

type stubOracle struct{ price prices.Price }

func (s stubOracle) GetUSDAndNativePrice(ctx context.Context, currency string, amount *big.Int, timestamp int64) prices.Price {
	return s.price
}

type stubAttribution struct{ data attribution.Data }

func (s stubAttribution) Extract(ctx context.Context, txHash, orderKind string) attribution.Data {
	return s.data
}

func newTestEnv(price prices.Price) *Env {
	return NewEnv(nil, stubOracle{price: price}, stubAttribution{}, "0x000000000000000000000000000000000000eeee", zap.NewNop())
}

// hexWords 拼接若干32字节字成0x前缀的data
func hexWords(vals ...*big.Int) string {
	var sb strings.Builder
	sb.WriteString("0x")
	for _, v := range vals {
		sb.WriteString(fmt.Sprintf("%064x", v))
	}
	return sb.String()
}

func addrBig(hexAddr string) *big.Int {
	return new(big.Int).SetBytes(common.HexToAddress(hexAddr).Bytes())
}

func topicHash(v *big.Int) string {
	return "0x" + fmt.Sprintf("%064x", v)
}

func TestDataWords(t *testing.T) {
	words, err := dataWords(hexWords(big.NewInt(1), big.NewInt(2)))
	require.NoError(t, err)
	require.Len(t, words, 2)

	v, err := wordBig(words, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v.Int64())

	_, err = wordBig(words, 2)
	assert.Error(t, err)

	_, err = dataWords("0xabcd") // 未对齐
	assert.Error(t, err)
}

func TestWordArray(t *testing.T) {
	// [offset=0x20, len=3, 10, 20, 30]
	data := hexWords(big.NewInt(32), big.NewInt(3), big.NewInt(10), big.NewInt(20), big.NewInt(30))
	words, err := dataWords(data)
	require.NoError(t, err)

	arr, err := wordArray(words, 0)
	require.NoError(t, err)
	require.Len(t, arr, 3)
	assert.Equal(t, int64(30), arr[2].Int64())

	// 长度越界
	bad := hexWords(big.NewInt(32), big.NewInt(99))
	words, err = dataWords(bad)
	require.NoError(t, err)
	_, err = wordArray(words, 0)
	assert.Error(t, err)
}

func newTestLog(topics []string, data string) *model.RawLogWithBlock {
	return &model.RawLogWithBlock{
		RawLog: model.RawLog{
			Address:  "0x59728544b08ab483533076417fbbb2fd0b17ce3a",
			Topics:   topics,
			Data:     data,
			TxHash:   "0xtx",
			LogIndex: 5,
		},
		Block:     100,
		BlockHash: "0xblock",
		Timestamp: 1700000000,
	}
}

func TestLooksRare_CancelAllOrders(t *testing.T) {
	h := &looksRareHandler{}
	maker := "0x00000000000000000000000000000000000000aa"
	log := newTestLog(
		[]string{"0xsig", topicHash(addrBig(maker))},
		hexWords(big.NewInt(77)),
	)

	var out OnChainData
	require.NoError(t, h.handleCancelAll(log, &out))
	require.Len(t, out.BulkCancels, 1)
	assert.Equal(t, maker, out.BulkCancels[0].Maker)
	assert.Equal(t, "77", out.BulkCancels[0].MinNonce)
	assert.Equal(t, "looks-rare", out.BulkCancels[0].OrderKind)
}

func TestLooksRare_CancelMultipleOrders(t *testing.T) {
	h := &looksRareHandler{}
	maker := "0x00000000000000000000000000000000000000aa"
	log := newTestLog(
		[]string{"0xsig", topicHash(addrBig(maker))},
		hexWords(big.NewInt(32), big.NewInt(2), big.NewInt(5), big.NewInt(9)),
	)

	var out OnChainData
	require.NoError(t, h.handleCancelMultiple(log, &out))
	require.Len(t, out.Cancels, 2)
	// 同一日志展开多笔取消时batchIndex递增去重
	assert.Equal(t, 1, out.Cancels[0].BaseEventParams.BatchIndex)
	assert.Equal(t, 2, out.Cancels[1].BaseEventParams.BatchIndex)
	assert.Contains(t, out.Cancels[1].OrderID, ":9")
}

func TestLooksRare_TakerBid_PriceGate(t *testing.T) {
	h := &looksRareHandler{}
	taker := "0x00000000000000000000000000000000000000aa"
	maker := "0x00000000000000000000000000000000000000bb"
	collection := "0x00000000000000000000000000000000000000cc"
	currency := "0x000000000000000000000000000000000000beef"
	// data: orderHash, nonce, currency, collection, tokenId, amount=2, 总价2000
	data := hexWords(
		big.NewInt(0xabc), big.NewInt(1), addrBig(currency), addrBig(collection),
		big.NewInt(7), big.NewInt(2), big.NewInt(2000),
	)
	log := newTestLog([]string{"0xsig", topicHash(addrBig(taker)), topicHash(addrBig(maker))}, data)

	// 原生价换算不出来：宁可丢成交也不落0价
	env := newTestEnv(prices.Price{})
	var out OnChainData
	require.NoError(t, h.handleTaker(context.Background(), env, log, &out, model.OrderSideSell))
	assert.Empty(t, out.Fills)
	assert.Empty(t, out.OrderInfos)

	// 价格可得时正常产出
	env = newTestEnv(prices.Price{NativePrice: big.NewInt(900), UsdPrice: big.NewInt(3_000_000)})
	out = OnChainData{}
	require.NoError(t, h.handleTaker(context.Background(), env, log, &out, model.OrderSideSell))
	require.Len(t, out.Fills, 1)
	f := out.Fills[0]
	assert.Equal(t, "1000", f.CurrencyPrice) // 总价2000摊到2件
	assert.Equal(t, "900", f.Price)
	assert.Equal(t, "3000000", f.UsdPrice)
	assert.Equal(t, maker, f.Maker)
	assert.Equal(t, taker, f.Taker)
	require.Len(t, out.OrderInfos, 1)
}

func TestZora_AskFilled_PriceGate(t *testing.T) {
	h := &zoraHandler{}
	contract := "0x00000000000000000000000000000000000000cc"
	buyer := "0x00000000000000000000000000000000000000aa"
	seller := "0x00000000000000000000000000000000000000ee"
	log := newTestLog(
		[]string{"0xsig", topicHash(addrBig(contract)), topicHash(big.NewInt(42)), topicHash(addrBig(buyer))},
		hexWords(big.NewInt(0), addrBig(seller), big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(1000)),
	)

	env := newTestEnv(prices.Price{})
	var out OnChainData
	require.NoError(t, h.handleAskFilled(context.Background(), env, log, &out))
	assert.Empty(t, out.Fills)

	env = newTestEnv(prices.Price{NativePrice: big.NewInt(1000)})
	out = OnChainData{}
	require.NoError(t, h.handleAskFilled(context.Background(), env, log, &out))
	require.Len(t, out.Fills, 1)
	// ask币种为零地址时按原生币定价
	assert.Equal(t, env.NativeAddress, out.Fills[0].Currency)
	assert.Equal(t, "", out.Fills[0].UsdPrice)
}

func TestSeaport_DecodeItems(t *testing.T) {
	token := "0x00000000000000000000000000000000000000cc"
	recipient := "0x00000000000000000000000000000000000000dd"
	// 布局：orderHash, recipient, offerOffset(0x80), considerationOffset(0x100),
	// offer: len=1, (2, token, id=7, amount=1)
	// consideration: len=1, (0, 0x0, 0, 9500, recipient)
	data := hexWords(
		big.NewInt(111),           // w0 orderHash
		addrBig(recipient),        // w1 recipient
		big.NewInt(4*32),          // w2 offer offset
		big.NewInt(9*32),          // w3 consideration offset
		big.NewInt(1),             // offer len
		big.NewInt(itemTypeERC721), addrBig(token), big.NewInt(7), big.NewInt(1),
		big.NewInt(1), // consideration len
		big.NewInt(itemTypeNative), big.NewInt(0), big.NewInt(0), big.NewInt(9500), addrBig(recipient),
	)
	words, err := dataWords(data)
	require.NoError(t, err)

	offer, err := decodeItems(words, 2, 4)
	require.NoError(t, err)
	require.Len(t, offer, 1)
	assert.Equal(t, itemTypeERC721, offer[0].ItemType)
	assert.Equal(t, token, offer[0].Token)
	assert.Equal(t, "7", offer[0].Identifier.String())

	consideration, err := decodeItems(words, 3, 5)
	require.NoError(t, err)
	require.Len(t, consideration, 1)
	assert.Equal(t, "9500", consideration[0].Amount.String())
	assert.Equal(t, recipient, consideration[0].Recipient)

	assert.True(t, hasNFT(offer))
	assert.False(t, hasNFT(consideration))
}

func TestSeaport_DominantCurrency(t *testing.T) {
	weth := "0x000000000000000000000000000000000000beef"
	payments := []seaportItem{
		{ItemType: itemTypeNative, Token: "0x0000000000000000000000000000000000000000", Amount: big.NewInt(100)},
		{ItemType: itemTypeERC20, Token: weth, Amount: big.NewInt(60)},
		{ItemType: itemTypeERC20, Token: weth, Amount: big.NewInt(70)},
	}
	assert.Equal(t, weth, dominantCurrency(payments))
}

func TestZora_AskCanceled(t *testing.T) {
	h := &zoraHandler{}
	contract := "0x00000000000000000000000000000000000000cc"
	seller := "0x00000000000000000000000000000000000000ee"
	log := newTestLog(
		[]string{"0xsig", topicHash(addrBig(contract)), topicHash(big.NewInt(42))},
		hexWords(addrBig(seller), addrBig(seller), big.NewInt(0), big.NewInt(0), big.NewInt(1000)),
	)

	var out OnChainData
	require.NoError(t, h.handleAskCanceled(log, &out))
	require.Len(t, out.Cancels, 1)
	assert.Equal(t, zoraAskID(contract, "42"), out.Cancels[0].OrderID)
	assert.Equal(t, seller, out.Cancels[0].Maker)
}

func TestNFTTransfers_MintOnly(t *testing.T) {
	h := &nftTransferHandler{}
	zero := topicHash(big.NewInt(0))
	owner := topicHash(addrBig("0x00000000000000000000000000000000000000aa"))

	// 铸造
	var out OnChainData
	log := newTestLog([]string{"0xsig", zero, owner, topicHash(big.NewInt(7))}, "0x")
	ed := eventdata.EventData{SubKind: eventdata.SubKindERC721Transfer}
	require.NoError(t, h.Handle(nil, nil, log, ed, &out))
	require.Len(t, out.Mints, 1)
	assert.Equal(t, "7", out.Mints[0].TokenID)

	// 铸造同时产出待定价的铸造成交
	require.Len(t, out.MintFills, 1)
	mf := out.MintFills[0]
	assert.True(t, mf.IsMint)
	assert.Equal(t, "mint", mf.OrderKind)
	assert.Equal(t, "7", mf.TokenID)
	assert.Equal(t, "1", mf.Amount)
	assert.Equal(t, "0x00000000000000000000000000000000000000aa", mf.Taker)

	// 普通转移不产出
	out = OnChainData{}
	log = newTestLog([]string{"0xsig", owner, zero, topicHash(big.NewInt(7))}, "0x")
	require.NoError(t, h.Handle(nil, nil, log, ed, &out))
	assert.Empty(t, out.Mints)
	assert.Empty(t, out.MintFills)
}

func TestNFTTransfers_ERC1155Batch(t *testing.T) {
	h := &nftTransferHandler{}
	zero := topicHash(big.NewInt(0))
	operator := topicHash(addrBig("0x00000000000000000000000000000000000000aa"))

	// data: ids偏移, amounts偏移, ids[len=2, 3, 4], amounts[len=2, 10, 20]
	data := hexWords(
		big.NewInt(2*32), big.NewInt(5*32),
		big.NewInt(2), big.NewInt(3), big.NewInt(4),
		big.NewInt(2), big.NewInt(10), big.NewInt(20),
	)
	log := newTestLog([]string{"0xsig", operator, zero, operator}, data)

	var out OnChainData
	ed := eventdata.EventData{SubKind: eventdata.SubKindERC1155TransferBatch}
	require.NoError(t, h.Handle(nil, nil, log, ed, &out))
	require.Len(t, out.Mints, 2)
	assert.Equal(t, "3", out.Mints[0].TokenID)
	assert.Equal(t, "4", out.Mints[1].TokenID)

	// 批量铸造逐token展开，batchIndex递增去重，数量取amounts数组
	require.Len(t, out.MintFills, 2)
	assert.Equal(t, "10", out.MintFills[0].Amount)
	assert.Equal(t, "20", out.MintFills[1].Amount)
	assert.Equal(t, 1, out.MintFills[0].BaseEventParams.BatchIndex)
	assert.Equal(t, 2, out.MintFills[1].BaseEventParams.BatchIndex)
}

func TestRegistry_CoversAllDescriptorKinds(t *testing.T) {
	reg := NewRegistry()
	for _, ed := range eventdata.All() {
		assert.Contains(t, reg, ed.Kind, "no handler for kind %s", ed.Kind)
	}
}

func TestEnv_NextRank(t *testing.T) {
	env := NewEnv(nil, nil, nil, "0xeee", nil)
	assert.Equal(t, 0, env.NextRank("0xtx", "0xpool"))
	assert.Equal(t, 1, env.NextRank("0xtx", "0xpool"))
	assert.Equal(t, 0, env.NextRank("0xtx", "0xother"))
	assert.Equal(t, 0, env.NextRank("0xtx2", "0xpool"))
}

func TestInputWords(t *testing.T) {
	data := append([]byte{0xde, 0xad, 0xbe, 0xef}, make([]byte, 64)...)
	words, err := inputWords(data)
	require.NoError(t, err)
	assert.Len(t, words, 2)

	_, err = inputWords([]byte{0x01})
	assert.Error(t, err)
}
