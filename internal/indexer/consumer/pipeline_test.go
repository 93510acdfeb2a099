package consumer

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMintUnitPrice(t *testing.T) {
	// 取不到入金或没有铸造单位时价格记0
	assert.Equal(t, "0", mintUnitPrice(nil, big.NewInt(3)).String())
	assert.Equal(t, "0", mintUnitPrice(big.NewInt(0), big.NewInt(3)).String())
	assert.Equal(t, "0", mintUnitPrice(big.NewInt(100), nil).String())
	assert.Equal(t, "0", mintUnitPrice(big.NewInt(100), big.NewInt(0)).String())

	// 均摊向下取整
	assert.Equal(t, "33", mintUnitPrice(big.NewInt(100), big.NewInt(3)).String())
	assert.Equal(t, "50", mintUnitPrice(big.NewInt(100), big.NewInt(2)).String())
}
