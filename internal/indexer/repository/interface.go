package repository

import (
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"

	"nft-indexer/pkg/evmclient"
)

type RedisClient = *redis.Client
type DBClient = *gorm.DB
type MQClient = *kafka.Writer

type Repository interface {
	GetDB() DBClient
	GetRDB() RedisClient
	GetMQ() MQClient
	GetEthClient() *ethclient.Client
	GetTraceClient() *evmclient.TraceClient
	Close() error
}
