package handler

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// 手工按32字节字解码日志data/调用input，
// 与描述符里手算topic的做法配套，不引合约绑定

func dataWords(data string) ([][]byte, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(data, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid log data: %w", err)
	}
	if len(raw)%32 != 0 {
		return nil, fmt.Errorf("log data length %d not word aligned", len(raw))
	}
	words := make([][]byte, 0, len(raw)/32)
	for i := 0; i < len(raw); i += 32 {
		words = append(words, raw[i:i+32])
	}
	return words, nil
}

func wordBig(words [][]byte, i int) (*big.Int, error) {
	if i >= len(words) {
		return nil, fmt.Errorf("word index %d out of range (%d words)", i, len(words))
	}
	return new(big.Int).SetBytes(words[i]), nil
}

func wordAddress(words [][]byte, i int) (string, error) {
	if i >= len(words) {
		return "", fmt.Errorf("word index %d out of range (%d words)", i, len(words))
	}
	return strings.ToLower(common.BytesToAddress(words[i]).Hex()), nil
}

func wordHash(words [][]byte, i int) (string, error) {
	if i >= len(words) {
		return "", fmt.Errorf("word index %d out of range (%d words)", i, len(words))
	}
	return strings.ToLower(common.BytesToHash(words[i]).Hex()), nil
}

func topicAddress(topics []string, i int) (string, error) {
	if i >= len(topics) {
		return "", fmt.Errorf("topic index %d out of range (%d topics)", i, len(topics))
	}
	return strings.ToLower(common.HexToAddress(topics[i]).Hex()), nil
}

func topicBig(topics []string, i int) (*big.Int, error) {
	if i >= len(topics) {
		return nil, fmt.Errorf("topic index %d out of range (%d topics)", i, len(topics))
	}
	return new(big.Int).SetBytes(common.HexToHash(topics[i]).Bytes()), nil
}

// wordArray 解偏移定位的uint256[]：words[offsetWord]给出字节偏移，
// 目标位置第一个字是长度，后跟元素
func wordArray(words [][]byte, offsetWord int) ([]*big.Int, error) {
	off, err := wordBig(words, offsetWord)
	if err != nil {
		return nil, err
	}
	if !off.IsInt64() || off.Int64()%32 != 0 {
		return nil, fmt.Errorf("bad array offset %s", off)
	}
	idx := int(off.Int64() / 32)
	length, err := wordBig(words, idx)
	if err != nil {
		return nil, err
	}
	if !length.IsInt64() || int(length.Int64()) > len(words)-idx-1 {
		return nil, fmt.Errorf("bad array length %s", length)
	}
	out := make([]*big.Int, 0, length.Int64())
	for i := 0; i < int(length.Int64()); i++ {
		v, err := wordBig(words, idx+1+i)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func isZeroAddress(addr string) bool {
	return common.HexToAddress(addr) == (common.Address{})
}
