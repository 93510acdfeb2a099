package coingecko

import (
	"context"
	"fmt"
	"time"

	"nft-indexer/pkg/httpclient"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// USD 價格統一使用 6 位小數定點表示
const USDDecimals = 6

type Config struct {
	BaseURL   string
	APIKey    string
	RateLimit int
	Timeout   int
}

type CoingeckoClient struct {
	baseURL    string
	httpClient *httpclient.HTTPClient
	logger     *zap.Logger
}

func NewCoingeckoClient(cfg Config, logger *zap.Logger) *CoingeckoClient {
	httpCfg := httpclient.HTTPClientConfig{
		Timeout:    time.Duration(cfg.Timeout) * time.Second,
		RateLimit:  cfg.RateLimit,
		MaxRetries: 3,
		XApiKey:    cfg.APIKey,
	}

	httpClient := httpclient.NewHTTPClient(httpCfg, logger)

	return &CoingeckoClient{
		baseURL:    cfg.BaseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// GetHistoricalUSDPrice 抓取某币种在指定日期的USD价格，返回6位小数定点值
// (例如 1.23 USD -> 1230000)
func (c *CoingeckoClient) GetHistoricalUSDPrice(ctx context.Context, coinID string, ts time.Time) (int64, error) {
	var err error
	var resp HistoryResp

	date := ts.UTC().Format("02-01-2006")
	url := fmt.Sprintf("%s/api/v3/coins/%s/history?date=%s", c.baseURL, coinID, date)
	for range 3 {
		err = c.httpClient.Get(ctx, url, nil, nil, &resp)
		if err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if err != nil {
		return 0, fmt.Errorf("fetch coingecko history failed, url: %s, error: %v", url, err)
	}

	usd, ok := resp.MarketData.CurrentPrice["usd"]
	if !ok || usd <= 0 {
		return 0, fmt.Errorf("no usd price for coin %s at %s", coinID, date)
	}

	// float 轉定點，避免精度丟失
	value := decimal.NewFromFloat(usd).Shift(USDDecimals).IntPart()
	return value, nil
}
