package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDayTruncate(t *testing.T) {
	// 2023-11-14 22:13:20 UTC -> 当天零点
	assert.Equal(t, int64(1699920000), DayTruncate(1700000000))
	// 零点自身不变
	assert.Equal(t, int64(1699920000), DayTruncate(1699920000))
	assert.Equal(t, int64(0), DayTruncate(0))
}

func TestKeyPrefixes(t *testing.T) {
	assert.Equal(t, "nft_indexer:usd_price:0xabc:1699920000", PriceSampleKey("0xabc", 1699920000))
	assert.Equal(t, "nft_indexer:attribution:0xtx:seaport", AttributionKey("0xtx", "seaport"))
	assert.Equal(t, "nft_indexer:block_check_lease:100", BlockCheckLeaseKey(100))
}
