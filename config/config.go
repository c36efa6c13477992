package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Provider ProviderConfig `mapstructure:"provider"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Cleanup  CleanupConfig  `mapstructure:"cleanup"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type ProviderConfig struct {
	// Name 远端修补提供方：replicate 或 fal
	Name string `mapstructure:"name"`
	// DilationRadius 掩码外扩像素数
	DilationRadius int `mapstructure:"dilation_radius"`
	// MaxDimension 提交前最长边上限，0 不限制
	MaxDimension int `mapstructure:"max_dimension"`
}

type UploadConfig struct {
	MaxSize      int64    `mapstructure:"max_size"`
	UploadDir    string   `mapstructure:"upload_dir"`
	AllowedTypes []string `mapstructure:"allowed_types"`
}

type CleanupConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Schedule string        `mapstructure:"schedule"`
	MaxAge   time.Duration `mapstructure:"max_age"`
}

// Load 从 YAML 文件加载配置，缺省项用内置默认值补齐
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", configPath, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// New 纯默认配置
func New() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}

func (c *Config) Validate() error {
	switch c.Provider.Name {
	case "replicate", "fal":
	default:
		return fmt.Errorf("unknown provider %q, want replicate or fal", c.Provider.Name)
	}
	if c.Provider.DilationRadius < 0 {
		return fmt.Errorf("dilation_radius must be >= 0, got %d", c.Provider.DilationRadius)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "5m")

	v.SetDefault("provider.name", "replicate")
	v.SetDefault("provider.dilation_radius", 30)
	v.SetDefault("provider.max_dimension", 0)

	v.SetDefault("upload.max_size", 20*1024*1024)
	v.SetDefault("upload.upload_dir", "./uploads")
	v.SetDefault("upload.allowed_types", []string{"image/jpeg", "image/png"})

	v.SetDefault("cleanup.enabled", true)
	v.SetDefault("cleanup.schedule", "@hourly")
	v.SetDefault("cleanup.max_age", "24h")
}
