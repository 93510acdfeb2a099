package utils

import "fmt"

func PriceSampleKey(currency string, day int64) string {
	return fmt.Sprintf("nft_indexer:usd_price:%s:%d", currency, day)
}

func TxTraceKey(txHash string) string {
	return fmt.Sprintf("nft_indexer:tx_trace:%s", txHash)
}

func TxFillEventsKey(txHash string) string {
	return fmt.Sprintf("nft_indexer:tx_fills:%s", txHash)
}

func AttributionKey(txHash, orderKind string) string {
	return fmt.Sprintf("nft_indexer:attribution:%s:%s", txHash, orderKind)
}

func RoyaltyDefKey(contract, tokenID string) string {
	return fmt.Sprintf("nft_indexer:royalty_def:%s:%s", contract, tokenID)
}

func MinNonceKey(orderKind, maker string) string {
	return fmt.Sprintf("nft_indexer:min_nonce:%s:%s", orderKind, maker)
}

func ContractKindKey(contract string) string {
	return fmt.Sprintf("nft_indexer:contract_kind:%s", contract)
}

func BlockCheckLeaseKey(blockNumber uint64) string {
	return fmt.Sprintf("nft_indexer:block_check_lease:%d", blockNumber)
}
