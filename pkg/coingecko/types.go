package coingecko

// HistoryResp /coins/{id}/history 回應
type HistoryResp struct {
	ID         string     `json:"id"`
	Symbol     string     `json:"symbol"`
	MarketData MarketData `json:"market_data"`
}

type MarketData struct {
	CurrentPrice map[string]float64 `json:"current_price"`
}
