package prices

import (
	"context"
	"errors"
	"math/big"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nft-indexer/internal/indexer/model"
	"nft-indexer/internal/indexer/monitor"
	"nft-indexer/internal/indexer/repository"
	"nft-indexer/pkg/coingecko"
	"nft-indexer/pkg/utils"
)

// NativeDecimals 原生币精度
const NativeDecimals = 18

// Price 换算结果。任一价格不可得时对应字段为nil，调用方必须区分nil与0
type Price struct {
	Currency    string
	UsdPrice    *big.Int // 6位小数定点
	NativePrice *big.Int // 原生币最小单位(18位小数)
}

type Oracle struct {
	repo     repository.Repository
	cg       *coingecko.CoingeckoClient
	logger   *zap.Logger
	memCache *gocache.Cache

	native  string
	wnative string
}

func NewOracle(repo repository.Repository, cg *coingecko.CoingeckoClient, native, wnative string, logger *zap.Logger) *Oracle {
	return &Oracle{
		repo:     repo,
		cg:       cg,
		logger:   logger,
		memCache: gocache.New(30*time.Minute, 10*time.Minute),
		native:   strings.ToLower(native),
		wnative:  strings.ToLower(wnative),
	}
}

// GetUSDAndNativePrice 把一笔currency计价的金额换算成USD与原生币计价。
// 样本按天取：内存 -> usd_prices表 -> 上游 -> 过期样本兜底。
// 原生币/包装原生币计价时原生价直接等于金额本身，不依赖任何样本
func (o *Oracle) GetUSDAndNativePrice(ctx context.Context, currency string, amount *big.Int, timestamp int64) Price {
	currency = strings.ToLower(currency)
	day := utils.DayTruncate(timestamp)
	out := Price{Currency: currency}

	if amount == nil {
		return out
	}

	isNative := currency == o.native || currency == o.wnative
	sampleCurrency := currency
	decimals := NativeDecimals
	coingeckoID := ""
	if isNative {
		// 包装币与原生币共用一份价格样本
		sampleCurrency = o.native
	} else {
		meta, err := o.getCurrency(ctx, currency)
		if err != nil {
			o.logger.Warn("failed to load currency metadata",
				zap.String("currency", currency), zap.Error(err))
			return out
		}
		if meta.Decimals != nil {
			decimals = *meta.Decimals
		}
		coingeckoID = meta.CoingeckoID
	}

	sample, ok := o.getSample(ctx, sampleCurrency, coingeckoID, day)
	if ok {
		out.UsdPrice = usdFromAmount(amount, sample, decimals)
	}

	if isNative {
		out.NativePrice = new(big.Int).Set(amount)
		return out
	}
	if !ok {
		return out
	}

	nativeSample, nativeOK := o.getSample(ctx, o.native, "", day)
	if !nativeOK || nativeSample <= 0 {
		return out
	}
	out.NativePrice = nativeFromAmount(amount, sample, nativeSample, decimals)
	return out
}

// getSample 取currency在day当天的USD样本(6位小数定点)
func (o *Oracle) getSample(ctx context.Context, currency, coingeckoID string, day int64) (int64, bool) {
	key := utils.PriceSampleKey(currency, day)
	if v, found := o.memCache.Get(key); found {
		monitor.PriceOracleLookups.WithLabelValues("memory").Inc()
		return v.(int64), true
	}

	var row model.UsdPrice
	err := o.repo.GetDB().WithContext(ctx).
		Where("currency = ? AND timestamp = ?", currency, day).
		Take(&row).Error
	if err == nil {
		if v, perr := strconv.ParseInt(row.Value, 10, 64); perr == nil {
			o.memCache.SetDefault(key, v)
			monitor.PriceOracleLookups.WithLabelValues("db").Inc()
			return v, true
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		o.logger.Warn("failed to query usd price sample",
			zap.String("currency", currency), zap.Int64("day", day), zap.Error(err))
	}

	if coingeckoID == "" && currency == o.native {
		coingeckoID = "ethereum"
	}
	if coingeckoID != "" {
		value, uerr := o.cg.GetHistoricalUSDPrice(ctx, coingeckoID, time.Unix(day, 0))
		if uerr == nil && value > 0 {
			// 同一天并发抓取时先写赢，后写静默跳过
			o.repo.GetDB().WithContext(ctx).
				Clauses(clause.OnConflict{DoNothing: true}).
				Create(&model.UsdPrice{
					Currency:  currency,
					Timestamp: day,
					Value:     strconv.FormatInt(value, 10),
				})
			o.memCache.SetDefault(key, value)
			monitor.PriceOracleLookups.WithLabelValues("upstream").Inc()
			return value, true
		}
		o.logger.Warn("failed to fetch upstream price",
			zap.String("currency", currency), zap.String("coingeckoId", coingeckoID), zap.Error(uerr))
	}

	// 兜底：最近一条不晚于目标日的样本，宁可旧也不丢成交
	var stale model.UsdPrice
	err = o.repo.GetDB().WithContext(ctx).
		Where("currency = ? AND timestamp <= ?", currency, day).
		Order("timestamp DESC").
		Take(&stale).Error
	if err == nil {
		if v, perr := strconv.ParseInt(stale.Value, 10, 64); perr == nil {
			o.logger.Warn("using stale price sample",
				zap.String("currency", currency),
				zap.Int64("wantDay", day), zap.Int64("sampleDay", stale.Timestamp))
			monitor.PriceOracleLookups.WithLabelValues("stale").Inc()
			return v, true
		}
	}

	monitor.PriceOracleLookups.WithLabelValues("miss").Inc()
	return 0, false
}

func (o *Oracle) getCurrency(ctx context.Context, contract string) (model.Currency, error) {
	key := "currency_meta:" + contract
	if v, found := o.memCache.Get(key); found {
		return v.(model.Currency), nil
	}

	var meta model.Currency
	err := o.repo.GetDB().WithContext(ctx).
		Where("contract = ?", contract).
		Take(&meta).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 未登记的币种按18位精度处理，USD价自然不可得
		meta = model.Currency{Contract: contract}
		err = nil
	}
	if err != nil {
		return model.Currency{}, err
	}
	o.memCache.SetDefault(key, meta)
	return meta, nil
}

// usdFromAmount usd = amount * sample / 10^decimals，结果保留6位小数定点
func usdFromAmount(amount *big.Int, sample int64, decimals int) *big.Int {
	usd := new(big.Int).Mul(amount, big.NewInt(sample))
	return usd.Div(usd, pow10(decimals))
}

// nativeFromAmount native = amount * currencySample * 10^18 / (nativeSample * 10^decimals)
func nativeFromAmount(amount *big.Int, currencySample, nativeSample int64, decimals int) *big.Int {
	num := new(big.Int).Mul(amount, big.NewInt(currencySample))
	num.Mul(num, pow10(NativeDecimals))
	den := new(big.Int).Mul(big.NewInt(nativeSample), pow10(decimals))
	return num.Div(num, den)
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
