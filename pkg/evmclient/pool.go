package evmclient

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

var (
	selPairNFT   = crypto.Keccak256([]byte("nft()"))[:4]
	selPairToken = crypto.Keccak256([]byte("token()"))[:4]
)

// PairNFT AMM池绑定的NFT合约
func PairNFT(ctx context.Context, client *ethclient.Client, pair common.Address) (common.Address, error) {
	out, err := callContract(ctx, client, pair, selPairNFT)
	if err != nil {
		return common.Address{}, fmt.Errorf("pair nft() failed: %w", err)
	}
	return common.BytesToAddress(out), nil
}

// PairToken AMM池的报价ERC20。原生币计价的池子没有该方法，调用会revert，
// 调用方以错误作为"原生币池"的判定依据
func PairToken(ctx context.Context, client *ethclient.Client, pair common.Address) (common.Address, error) {
	out, err := callContract(ctx, client, pair, selPairToken)
	if err != nil {
		return common.Address{}, fmt.Errorf("pair token() failed: %w", err)
	}
	return common.BytesToAddress(out), nil
}
