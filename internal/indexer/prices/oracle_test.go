package prices

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsdFromAmount(t *testing.T) {
	// 1 ETH @ 2000 USD -> 2000.000000 (6位定点)
	oneEth := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	usd := usdFromAmount(oneEth, 2000_000000, 18)
	assert.Equal(t, "2000000000", usd.String())

	// 1500 USDC (6位精度代币) @ 1 USD
	amount := big.NewInt(1500_000000)
	usd = usdFromAmount(amount, 1_000000, 6)
	assert.Equal(t, "1500000000", usd.String())

	// 0.5 ETH @ 1234.56 USD -> 617.28
	halfEth := new(big.Int).Div(oneEth, big.NewInt(2))
	usd = usdFromAmount(halfEth, 1234_560000, 18)
	assert.Equal(t, "617280000", usd.String())
}

func TestNativeFromAmount(t *testing.T) {
	oneEth := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

	// 3000 USDC，ETH=2000 USD -> 1.5 ETH
	amount := big.NewInt(3000_000000)
	native := nativeFromAmount(amount, 1_000000, 2000_000000, 6)
	expected := new(big.Int).Mul(oneEth, big.NewInt(3))
	expected.Div(expected, big.NewInt(2))
	assert.Equal(t, expected.String(), native.String())

	// 1个18位精度代币，价格与原生币相同 -> 恰好1个原生币
	native = nativeFromAmount(oneEth, 2000_000000, 2000_000000, 18)
	assert.Equal(t, oneEth.String(), native.String())

	// 代币价远低于原生币时向下取整
	native = nativeFromAmount(big.NewInt(1), 1, 2000_000000, 0)
	assert.Equal(t, "500000000", native.String())
}

func TestGetUSDAndNativePrice_NilAmount(t *testing.T) {
	o := &Oracle{native: "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"}
	p := o.GetUSDAndNativePrice(nil, "0xabc", nil, 0)
	assert.Nil(t, p.UsdPrice)
	assert.Nil(t, p.NativePrice)
}
