package utils

import (
	"math/big"
	"strings"
)

// HexToLower 地址/哈希统一小写，保证作为主键和缓存key时一致
func HexToLower(s string) string {
	return strings.ToLower(s)
}

// BigFromString 解析十进制大整数，解析失败返回nil
func BigFromString(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil
	}
	return v
}

// DivFloor 整数除法（向下取整），除零返回nil
func DivFloor(a, b *big.Int) *big.Int {
	if b == nil || b.Sign() == 0 {
		return nil
	}
	return new(big.Int).Div(a, b)
}

// DayTruncate 把unix时间戳截断到当天零点
func DayTruncate(ts int64) int64 {
	const day = 24 * 3600
	return ts - ts%day
}
