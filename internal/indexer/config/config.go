package config

import (
	"fmt"

	"nft-indexer/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config 定义整个配置的结构
type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	Chain      ChainConfig      `mapstructure:"chain"`
	Coingecko  CoingeckoConfig  `mapstructure:"coingecko"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Monitor    MonitorConfig    `mapstructure:"monitor"`
	Royalty    RoyaltyConfig    `mapstructure:"royalty"`
	BlockCheck BlockCheckConfig `mapstructure:"block_check"`
}

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	Brokers      string `mapstructure:"brokers"`
	TopicRawLogs string `mapstructure:"topic_raw_logs"`
	TopicEvents  string `mapstructure:"topic_events"`
	GroupID      string `mapstructure:"group_id"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// PostgresConfig PostgreSQL 配置
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// ChainConfig 链接入配置
type ChainConfig struct {
	ChainID        uint64 `mapstructure:"chain_id"`
	RPCRawURL      string `mapstructure:"rpc_rawurl"`
	NativeAddress  string `mapstructure:"native_address"`
	WNativeAddress string `mapstructure:"wnative_address"`
}

// CoingeckoConfig 上游价格源配置
type CoingeckoConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	RateLimit int    `mapstructure:"rate_limit"`
	Timeout   int    `mapstructure:"timeout"`
}

// LogConfig Log 日志配置
type LogConfig struct {
	Level string `mapstructure:"level"`
}

type WorkerConfig struct {
	WorkerNum int `mapstructure:"worker_num"`
}

type MonitorConfig struct {
	Enable         bool   `mapstructure:"enable"`
	PrometheusAddr string `mapstructure:"prometheus_addr"`
}

// RoyaltyConfig 版税补全配置
type RoyaltyConfig struct {
	MaxConcurrency int `mapstructure:"max_concurrency"`
}

// BlockCheckConfig 区块一致性检查配置
type BlockCheckConfig struct {
	IntervalSec int `mapstructure:"interval_sec"`
	Depth       int `mapstructure:"depth"`
	LeaseSec    int `mapstructure:"lease_sec"`
}

func InitConfig() Config {
	var config Config

	viper.SetConfigName("config.indexer")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config/")

	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}

	if err := mapstructure.Decode(viper.AllSettings(), &config); err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}

	return config
}

func WatchConfig(config *Config) {
	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		newConfig := InitConfig()
		*config = newConfig
		logger.SetLogLevel(config.Log.Level)
	})
}
