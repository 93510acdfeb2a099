package evmclient

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

func mustBytes(s string) hexutil.Bytes {
	b, err := hexutil.Decode(s)
	if err != nil {
		panic(err)
	}
	return b
}

func TestSearchForCallOccurrenceRank(t *testing.T) {
	pool := common.HexToAddress("0x1000000000000000000000000000000000000001")
	other := common.HexToAddress("0x2000000000000000000000000000000000000002")

	// 同一交易内对同一pool发起两次相同签名的调用
	trace := &CallTrace{
		Type: "CALL",
		To:   other,
		Calls: []CallTrace{
			{Type: "CALL", To: pool, Input: mustBytes("0x6d8b99f7aabb")},
			{Type: "STATICCALL", To: pool, Input: mustBytes("0x6d8b99f7ccdd")},
			{
				Type: "CALL",
				To:   other,
				Calls: []CallTrace{
					{Type: "CALL", To: pool, Input: mustBytes("0x6d8b99f7eeff")},
				},
			},
		},
	}

	first := SearchForCall(trace, pool, []string{"0x6d8b99f7"}, 0)
	if first == nil {
		t.Fatal("expected first call to be found")
	}
	if got := common.Bytes2Hex(first.Input); got != "6d8b99f7aabb" {
		t.Errorf("first call input = %s", got)
	}

	second := SearchForCall(trace, pool, []string{"0x6d8b99f7"}, 1)
	if second == nil {
		t.Fatal("expected second call to be found")
	}
	// STATICCALL 不参与计数，第二个匹配应是嵌套的那个CALL
	if got := common.Bytes2Hex(second.Input); got != "6d8b99f7eeff" {
		t.Errorf("second call input = %s", got)
	}

	if SearchForCall(trace, pool, []string{"0x6d8b99f7"}, 2) != nil {
		t.Error("expected no third call")
	}
}

func TestSearchForCallNoSigFilter(t *testing.T) {
	pool := common.HexToAddress("0x1000000000000000000000000000000000000001")
	trace := &CallTrace{
		Type:  "CALL",
		To:    pool,
		Input: mustBytes("0x12345678"),
	}
	if SearchForCall(trace, pool, nil, 0) == nil {
		t.Error("expected match without sighash filter")
	}
}

func TestCallTraceSighash(t *testing.T) {
	c := &CallTrace{Input: mustBytes("0xb1d3f1c1ffff")}
	if got := c.Sighash(); got != "0xb1d3f1c1" {
		t.Errorf("sighash = %s", got)
	}
	empty := &CallTrace{Input: mustBytes("0x0102")}
	if got := empty.Sighash(); got != "" {
		t.Errorf("short input sighash = %q", got)
	}
}
