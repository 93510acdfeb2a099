package blockcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"nft-indexer/internal/indexer/config"
)

func TestNewChecker_Defaults(t *testing.T) {
	c := NewChecker(nil, nil, config.BlockCheckConfig{}, nil)
	assert.Equal(t, defaultDepth, c.cfg.Depth)
	assert.Equal(t, defaultLeaseSec, c.cfg.LeaseSec)

	c = NewChecker(nil, nil, config.BlockCheckConfig{Depth: 10, LeaseSec: 30}, nil)
	assert.Equal(t, 10, c.cfg.Depth)
	assert.Equal(t, 30, c.cfg.LeaseSec)
}
