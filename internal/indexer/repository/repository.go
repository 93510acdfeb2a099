package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"nft-indexer/internal/indexer/config"
	"nft-indexer/pkg/database"
	"nft-indexer/pkg/evmclient"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var once sync.Once
var r *repositoryImpl

func New(cfg config.Config, logger *zap.Logger) Repository {
	once.Do(func() {
		r = &repositoryImpl{
			cfg:    cfg,
			logger: logger,
		}
		r.init()
	})
	return r
}

type repositoryImpl struct {
	cfg         config.Config
	logger      *zap.Logger
	db          *gorm.DB
	rdb         *redis.Client
	mq          *kafka.Writer
	ethClient   *ethclient.Client
	traceClient *evmclient.TraceClient
}

func (r *repositoryImpl) init() {
	var err error
	r.db, err = database.InitPG(r.cfg.Postgres.DSN)
	if err != nil {
		panic(err)
	}

	r.rdb = redis.NewClient(&redis.Options{
		Addr:     r.cfg.Redis.Address,
		Password: r.cfg.Redis.Password,
		DB:       r.cfg.Redis.DB,
		PoolSize: 20,
	})

	if err := r.rdb.Ping(context.Background()).Err(); err != nil {
		r.logger.Warn("failed to connect to redis, continue", zap.Error(err))
	}

	brokers := strings.Split(r.cfg.Kafka.Brokers, ",")
	r.mq = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        r.cfg.Kafka.TopicEvents,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    1000,
		BatchBytes:   1024 * 1024, // 1MB
		Async:        true,
		RequiredAcks: kafka.RequireNone,
		Compression:  kafka.Snappy,
		MaxAttempts:  5,
		WriteTimeout: 500 * time.Millisecond,
	}

	// 初始化rpc client
	r.ethClient = evmclient.Init(r.cfg.Chain.RPCRawURL)
	r.traceClient = evmclient.NewTraceClient(evmclient.InitRPC(r.cfg.Chain.RPCRawURL))
}

func (r *repositoryImpl) GetDB() *gorm.DB {
	return r.db
}

func (r *repositoryImpl) GetRDB() *redis.Client {
	return r.rdb
}

func (r *repositoryImpl) GetMQ() MQClient {
	return r.mq
}

func (r *repositoryImpl) GetEthClient() *ethclient.Client {
	return r.ethClient
}

func (r *repositoryImpl) GetTraceClient() *evmclient.TraceClient {
	return r.traceClient
}

func (r *repositoryImpl) Close() error {
	if r.db != nil {
		sqlDB, _ := r.db.DB()
		sqlDB.Close()
	}
	if r.rdb != nil {
		r.rdb.Close()
	}
	if r.mq != nil {
		r.mq.Close()
	}
	return nil
}
