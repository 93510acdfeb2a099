package evmclient

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Init evm client
func Init(rawurl string) *ethclient.Client {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := ethclient.DialContext(ctx, rawurl)
	if err != nil {
		panic(fmt.Sprintf("Init evm client error: %v", err))
	}

	return client
}

// InitRPC raw rpc client，用于 debug_traceTransaction 等非标准接口
func InitRPC(rawurl string) *rpc.Client {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := rpc.DialContext(ctx, rawurl)
	if err != nil {
		panic(fmt.Sprintf("Init rpc client error: %v", err))
	}

	return client
}
