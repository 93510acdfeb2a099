package monitor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"nft-indexer/internal/indexer/config"
)

func TestMetricsServer_Disabled(t *testing.T) {
	// 未启用时Run/Stop都是空操作
	s := NewMetricsServer(config.MonitorConfig{Enable: false}, zap.NewNop())
	assert.Nil(t, s.server)
	s.Run()
	assert.NoError(t, s.Stop(context.Background()))

	// 启用但没配地址同样视为关闭
	s = NewMetricsServer(config.MonitorConfig{Enable: true}, zap.NewNop())
	assert.Nil(t, s.server)
}

func TestMetricsServer_Enabled(t *testing.T) {
	s := NewMetricsServer(config.MonitorConfig{Enable: true, PrometheusAddr: ":9090"}, zap.NewNop())
	assert.NotNil(t, s.server)
	assert.Equal(t, ":9090", s.server.Addr)
}
