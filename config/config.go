package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Emby    Emby    `json:"emby" yaml:"emby" mapstructure:"emby"`
	Queue   Queue   `json:"queue" yaml:"queue" mapstructure:"queue"`
	Storage Storage `json:"storage" yaml:"storage" mapstructure:"storage"`
	Server  Server  `json:"server" yaml:"server" mapstructure:"server"`
}

// Emby configures the callback to the media server that sent the webhook. An
// empty URI disables metadata enrichment entirely.
type Emby struct {
	URI         string        `json:"uri" yaml:"uri" mapstructure:"uri"`
	APIKey      string        `json:"apiKey" yaml:"apiKey" mapstructure:"apiKey"`
	BaseBackoff time.Duration `json:"backoff" yaml:"backoff" mapstructure:"backoff"`
	MaxRetries  int           `json:"maxRetries" yaml:"maxRetries" mapstructure:"maxRetries"`
}

// Queue configures the redis-backed task queue search dispatches land on
type Queue struct {
	RedisAddr string `json:"redisAddr" yaml:"redisAddr" mapstructure:"redisAddr"`
	Name      string `json:"name" yaml:"name" mapstructure:"name"`
}

// Storage configuration is assumed to be for the sqlite delivery log only
type Storage struct {
	FilePath string `json:"filePath" yaml:"filePath" mapstructure:"filePath"`
}

type Server struct {
	Port int `json:"port" yaml:"port" mapstructure:"port"`
}

type ConfigUnmarshaler interface {
	ReadInConfig() error
	Unmarshal(any, ...viper.DecoderConfigOption) error
	ConfigFileUsed() string
}

// New reads a new configuration
func New(cu ConfigUnmarshaler) (Config, error) {
	var c Config

	if cu.ConfigFileUsed() != "" {
		err := cu.ReadInConfig()
		if err != nil {
			return c, err
		}
	}

	err := cu.Unmarshal(&c)
	return c, err
}
