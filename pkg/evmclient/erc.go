package evmclient

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// 链上只读查询封装，给订单有效性校验用。
// 手工编码 calldata，避免为几个只读方法引入整套合约绑定。

var (
	selBalanceOfERC20    = crypto.Keccak256([]byte("balanceOf(address)"))[:4]
	selBalanceOfERC1155  = crypto.Keccak256([]byte("balanceOf(address,uint256)"))[:4]
	selIsApprovedForAll  = crypto.Keccak256([]byte("isApprovedForAll(address,address)"))[:4]
	selGetApproved       = crypto.Keccak256([]byte("getApproved(uint256)"))[:4]
	selOwnerOf           = crypto.Keccak256([]byte("ownerOf(uint256)"))[:4]
	selAllowance         = crypto.Keccak256([]byte("allowance(address,address)"))[:4]
)

func leftPadAddress(addr common.Address) []byte {
	return common.LeftPadBytes(addr.Bytes(), 32)
}

func leftPadBig(v *big.Int) []byte {
	return common.LeftPadBytes(v.Bytes(), 32)
}

func callContract(ctx context.Context, client *ethclient.Client, to common.Address, data []byte) ([]byte, error) {
	msg := ethereum.CallMsg{To: &to, Data: data}
	return client.CallContract(ctx, msg, nil)
}

// Erc20BalanceOf 查询ERC20余额
func Erc20BalanceOf(ctx context.Context, client *ethclient.Client, token, owner common.Address) (*big.Int, error) {
	data := append(append([]byte{}, selBalanceOfERC20...), leftPadAddress(owner)...)
	out, err := callContract(ctx, client, token, data)
	if err != nil {
		return nil, fmt.Errorf("erc20 balanceOf failed: %w", err)
	}
	return new(big.Int).SetBytes(out), nil
}

// Erc20Allowance 查询ERC20授权额度
func Erc20Allowance(ctx context.Context, client *ethclient.Client, token, owner, spender common.Address) (*big.Int, error) {
	data := append(append(append([]byte{}, selAllowance...), leftPadAddress(owner)...), leftPadAddress(spender)...)
	out, err := callContract(ctx, client, token, data)
	if err != nil {
		return nil, fmt.Errorf("erc20 allowance failed: %w", err)
	}
	return new(big.Int).SetBytes(out), nil
}

// Erc1155BalanceOf 查询ERC1155指定tokenId余额
func Erc1155BalanceOf(ctx context.Context, client *ethclient.Client, contract, owner common.Address, tokenID *big.Int) (*big.Int, error) {
	data := append(append(append([]byte{}, selBalanceOfERC1155...), leftPadAddress(owner)...), leftPadBig(tokenID)...)
	out, err := callContract(ctx, client, contract, data)
	if err != nil {
		return nil, fmt.Errorf("erc1155 balanceOf failed: %w", err)
	}
	return new(big.Int).SetBytes(out), nil
}

// IsApprovedForAll 查询全量授权
func IsApprovedForAll(ctx context.Context, client *ethclient.Client, contract, owner, operator common.Address) (bool, error) {
	data := append(append(append([]byte{}, selIsApprovedForAll...), leftPadAddress(owner)...), leftPadAddress(operator)...)
	out, err := callContract(ctx, client, contract, data)
	if err != nil {
		return false, fmt.Errorf("isApprovedForAll failed: %w", err)
	}
	return len(out) == 32 && out[31] == 1, nil
}

// Erc721GetApproved 查询单token授权（ERC721独有）
func Erc721GetApproved(ctx context.Context, client *ethclient.Client, contract common.Address, tokenID *big.Int) (common.Address, error) {
	data := append(append([]byte{}, selGetApproved...), leftPadBig(tokenID)...)
	out, err := callContract(ctx, client, contract, data)
	if err != nil {
		return common.Address{}, fmt.Errorf("erc721 getApproved failed: %w", err)
	}
	return common.BytesToAddress(out), nil
}

// Erc721OwnerOf 查询token持有人
func Erc721OwnerOf(ctx context.Context, client *ethclient.Client, contract common.Address, tokenID *big.Int) (common.Address, error) {
	data := append(append([]byte{}, selOwnerOf...), leftPadBig(tokenID)...)
	out, err := callContract(ctx, client, contract, data)
	if err != nil {
		return common.Address{}, fmt.Errorf("erc721 ownerOf failed: %w", err)
	}
	return common.BytesToAddress(out), nil
}
