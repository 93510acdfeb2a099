package orders

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"nft-indexer/internal/indexer/model"
)

func TestStatusForError(t *testing.T) {
	assert.Equal(t, model.StatusFillable, StatusForError(nil))
	assert.Equal(t, model.StatusCancelled, StatusForError(ErrCancelled))
	assert.Equal(t, model.StatusFilled, StatusForError(ErrFilled))
	assert.Equal(t, model.StatusExpired, StatusForError(ErrExpired))
	assert.Equal(t, model.StatusNoBalance, StatusForError(ErrNoBalance))
	assert.Equal(t, model.StatusNoBalance, StatusForError(ErrNoApproval))
	assert.Equal(t, model.StatusNoBalance, StatusForError(ErrNoBalanceNoApproval))
}

func TestCombine(t *testing.T) {
	assert.NoError(t, combine(true, true))
	assert.ErrorIs(t, combine(false, true), ErrNoBalance)
	assert.ErrorIs(t, combine(true, false), ErrNoApproval)
	assert.ErrorIs(t, combine(false, false), ErrNoBalanceNoApproval)
}

func TestOperatorFor(t *testing.T) {
	// looks-rare按token标准区分transfer manager
	erc721 := operatorFor("looks-rare", model.TokenKindERC721)
	erc1155 := operatorFor("looks-rare", model.TokenKindERC1155)
	assert.NotEqual(t, common.Address{}, erc721)
	assert.NotEqual(t, common.Address{}, erc1155)
	assert.NotEqual(t, erc721, erc1155)

	// seaport统一走conduit
	assert.Equal(t,
		operatorFor("seaport", model.TokenKindERC721),
		operatorFor("seaport", model.TokenKindERC1155))

	// 未知协议没有operator
	assert.Equal(t, common.Address{}, operatorFor("wyvern", model.TokenKindERC721))
}

func TestErc20SpenderByKind(t *testing.T) {
	// 买单划扣报价币的是交易所/conduit，不是NFT transfer manager
	assert.Equal(t, "0x59728544b08ab483533076417fbbb2fd0b17ce3a", erc20SpenderByKind["looks-rare"])
	assert.NotEqual(t,
		operatorByKind["looks-rare"][model.TokenKindERC721],
		erc20SpenderByKind["looks-rare"])

	// 有NFT operator登记的协议都要能校验买单
	for kind := range operatorByKind {
		assert.Contains(t, erc20SpenderByKind, kind)
	}
}

func TestCheck_UnknownFormat(t *testing.T) {
	c := &Checker{}
	assert.ErrorIs(t, c.Check(nil, &model.Order{}, CheckOptions{}), ErrUnknownFormat)
	assert.ErrorIs(t, c.Check(nil, &model.Order{ID: "0x01"}, CheckOptions{}), ErrUnknownFormat)
}
