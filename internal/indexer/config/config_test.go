package config

import (
	"testing"
)

func TestInitConfig(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Skipf("no config file available: %v", r)
		}
	}()
	cfg := InitConfig()
	t.Logf("cfg redis: %+v", cfg.Redis)
	t.Logf("cfg pg: %+v", cfg.Postgres)
	t.Logf("cfg chain: %+v", cfg.Chain)
	t.Logf("cfg coingecko: %+v", cfg.Coingecko)
}
