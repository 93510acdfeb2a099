package evmclient

import (
	"bytes"
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// CallTrace debug_traceTransaction(callTracer) 返回的调用树节点
type CallTrace struct {
	Type   string         `json:"type"`
	From   common.Address `json:"from"`
	To     common.Address `json:"to"`
	Input  hexutil.Bytes  `json:"input"`
	Output hexutil.Bytes  `json:"output"`
	Value  *hexutil.Big   `json:"value"`
	Error  string         `json:"error"`
	Calls  []CallTrace    `json:"calls"`
}

// Sighash 返回调用输入的前4字节签名（0x开头），不足4字节返回空串
func (c *CallTrace) Sighash() string {
	if len(c.Input) < 4 {
		return ""
	}
	return "0x" + common.Bytes2Hex(c.Input[:4])
}

type TraceClient struct {
	rpc *rpc.Client
}

func NewTraceClient(rpcClient *rpc.Client) *TraceClient {
	return &TraceClient{rpc: rpcClient}
}

// FetchTransactionTrace 抓取整笔交易的调用树
func (t *TraceClient) FetchTransactionTrace(ctx context.Context, txHash string) (*CallTrace, error) {
	var trace CallTrace
	err := t.rpc.CallContext(ctx, &trace, "debug_traceTransaction", txHash, map[string]any{
		"tracer": "callTracer",
	})
	if err != nil {
		return nil, err
	}
	return &trace, nil
}

// SearchForCall 在调用树中按 (目标地址, 方法签名) 深度优先查找第 rank 个匹配的子调用。
// 同一笔交易里可能出现多次相同的内部调用，调用方通过 rank 区分第几次出现。
func SearchForCall(trace *CallTrace, to common.Address, sigHashes []string, rank int) *CallTrace {
	found, _ := searchForCall(trace, to, sigHashes, rank, 0)
	return found
}

func searchForCall(trace *CallTrace, to common.Address, sigHashes []string, rank, seen int) (*CallTrace, int) {
	if matchesCall(trace, to, sigHashes) {
		if seen == rank {
			return trace, seen
		}
		seen++
	}
	for i := range trace.Calls {
		var found *CallTrace
		found, seen = searchForCall(&trace.Calls[i], to, sigHashes, rank, seen)
		if found != nil {
			return found, seen
		}
	}
	return nil, seen
}

func matchesCall(trace *CallTrace, to common.Address, sigHashes []string) bool {
	if !strings.EqualFold(trace.Type, "CALL") {
		return false
	}
	if !bytes.Equal(trace.To.Bytes(), to.Bytes()) {
		return false
	}
	if len(sigHashes) == 0 {
		return true
	}
	sighash := trace.Sighash()
	for _, s := range sigHashes {
		if strings.EqualFold(s, sighash) {
			return true
		}
	}
	return false
}
