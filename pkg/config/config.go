package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database     DatabaseConfig     `mapstructure:"database"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Log          LogConfig          `mapstructure:"log"`
	Realtime     RealtimeConfig     `mapstructure:"realtime"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Notification NotificationConfig `mapstructure:"notification"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

type LogConfig struct {
	Level          string `mapstructure:"level"`
	ProductionMode bool   `mapstructure:"production_mode"`
}

// 变更事件分发相关配置
type RealtimeConfig struct {
	// "channel" 或 "kafka"
	Provider string `mapstructure:"provider"`

	SubscriberBufferSize int `mapstructure:"subscriber_buffer_size"`
	PublishBufferSize    int `mapstructure:"publish_buffer_size"`
	// 慢订阅者重试相关配置
	DeliverRetryCount      int `mapstructure:"deliver_retry_count"`
	DeliverRetryIntervalMs int `mapstructure:"deliver_retry_interval_ms"`

	Kafka KafkaConfig `mapstructure:"kafka"`
}

type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	Topic         string   `mapstructure:"topic"`
	ConsumerGroup string   `mapstructure:"consumer_group"`
}

type StorageConfig struct {
	Path string `mapstructure:"path"`
	// 对外可访问的URL前缀
	BaseURL string `mapstructure:"base_url"`
	// 附件大小上限（字节），默认10MB
	MaxAttachmentBytes int64 `mapstructure:"max_attachment_bytes"`
}

type NotificationConfig struct {
	// 未读计数器全量刷新的周期
	RefreshIntervalSeconds int `mapstructure:"refresh_interval_seconds"`
}

var GlobalConfig Config

func Init() error {
	return load("config")
}

// 测试用的配置文件
func InitTest() error {
	return load("config.test")
}

func load(name string) error {
	// 获取项目根目录
	_, b, _, _ := runtime.Caller(0)
	basepath := filepath.Dir(filepath.Dir(filepath.Dir(b)))

	viper.SetConfigName(name)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(filepath.Join(basepath, "config"))

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := viper.Unmarshal(&GlobalConfig); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return nil
}
