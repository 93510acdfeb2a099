package handler

import (
	"context"
	"math/big"
	"strings"

	"nft-indexer/internal/indexer/eventdata"
	"nft-indexer/internal/indexer/model"
)

// nftTransferHandler 只关心铸造：from为零地址的转移产出mint提示与铸造成交。
// 铸造成交此处只定形不定价，价格由管线按交易入金均摊补齐。
// 普通转移由余额索引侧处理，这里不重复落库
type nftTransferHandler struct{}

func (h *nftTransferHandler) Kind() eventdata.Kind {
	return eventdata.KindERC721
}

func (h *nftTransferHandler) Handle(ctx context.Context, env *Env, log *model.RawLogWithBlock, ed eventdata.EventData, out *OnChainData) error {
	contract := strings.ToLower(log.Address)

	switch ed.SubKind {
	case eventdata.SubKindERC721Transfer:
		from, err := topicAddress(log.Topics, 1)
		if err != nil {
			return err
		}
		if !isZeroAddress(from) {
			return nil
		}
		to, err := topicAddress(log.Topics, 2)
		if err != nil {
			return err
		}
		tokenID, err := topicBig(log.Topics, 3)
		if err != nil {
			return err
		}
		emitMint(out, log.BaseParams(), contract, from, to, tokenID, big.NewInt(1))

	case eventdata.SubKindERC1155TransferSingle:
		from, err := topicAddress(log.Topics, 2)
		if err != nil {
			return err
		}
		if !isZeroAddress(from) {
			return nil
		}
		to, err := topicAddress(log.Topics, 3)
		if err != nil {
			return err
		}
		words, err := dataWords(log.Data)
		if err != nil {
			return err
		}
		tokenID, err := wordBig(words, 0)
		if err != nil {
			return err
		}
		amount, err := wordBig(words, 1)
		if err != nil {
			return err
		}
		emitMint(out, log.BaseParams(), contract, from, to, tokenID, amount)

	case eventdata.SubKindERC1155TransferBatch:
		from, err := topicAddress(log.Topics, 2)
		if err != nil {
			return err
		}
		if !isZeroAddress(from) {
			return nil
		}
		to, err := topicAddress(log.Topics, 3)
		if err != nil {
			return err
		}
		words, err := dataWords(log.Data)
		if err != nil {
			return err
		}
		ids, err := wordArray(words, 0)
		if err != nil {
			return err
		}
		amounts, err := wordArray(words, 1)
		if err != nil {
			return err
		}
		if len(amounts) != len(ids) {
			return nil
		}
		for i, id := range ids {
			emitMint(out, log.BaseParams().WithBatchIndex(i+1), contract, from, to, id, amounts[i])
		}
	}
	return nil
}

func emitMint(out *OnChainData, params model.BaseEventParams, contract, from, to string, tokenID, amount *big.Int) {
	out.Mints = append(out.Mints, &model.MintInfo{Contract: contract, TokenID: tokenID.String()})
	out.MintFills = append(out.MintFills, &model.FillEvent{
		OrderKind:       "mint",
		OrderSide:       model.OrderSideSell,
		Maker:           from,
		Taker:           to,
		Contract:        contract,
		TokenID:         tokenID.String(),
		Amount:          amount.String(),
		IsMint:          true,
		BaseEventParams: params,
	})
}
