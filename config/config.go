package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "BGSWAP"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Remover  RemoverConfig  `mapstructure:"remover"`
	RemoveBG RemoveBGConfig `mapstructure:"removebg"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Export   ExportConfig   `mapstructure:"export"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	StaticDir    string        `mapstructure:"static_dir"`
}

// RemoverConfig 客户端调用的去背景服务
type RemoverConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// RemoveBGConfig /remove-bg 代理转发的上游
type RemoveBGConfig struct {
	APIURL  string        `mapstructure:"api_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type UploadConfig struct {
	MaxSize      int64 `mapstructure:"max_size"`
	MaxDimension int   `mapstructure:"max_dimension"`
}

type ExportConfig struct {
	OutputDir     string        `mapstructure:"output_dir"`
	KeepFiles     bool          `mapstructure:"keep_files"`
	Retention     time.Duration `mapstructure:"retention"`
	SweepSchedule string        `mapstructure:"sweep_schedule"`
}

// Load 从 YAML 文件加载配置，环境变量 BGSWAP_* 覆盖文件中的值
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

// New 加载 configPath，文件不存在时使用默认值（仍然读取环境变量）
// 文件存在但无法解析、或取值非法时返回错误
func New(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := Load(configPath)
	if err == nil {
		return cfg, nil
	}

	var notFound viper.ConfigFileNotFoundError
	if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
		return nil, err
	}
	return unmarshal(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// 与 gin.DebugMode / gin.ReleaseMode / gin.TestMode 一致
var serverModes = map[string]bool{
	"debug":   true,
	"release": true,
	"test":    true,
}

func (c *Config) validate() error {
	if !serverModes[c.Server.Mode] {
		return fmt.Errorf("invalid server.mode %q: want debug, release or test", c.Server.Mode)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mode", d.Server.Mode)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.static_dir", d.Server.StaticDir)

	v.SetDefault("remover.endpoint", d.Remover.Endpoint)
	v.SetDefault("remover.timeout", d.Remover.Timeout)

	v.SetDefault("removebg.api_url", d.RemoveBG.APIURL)
	v.SetDefault("removebg.api_key", d.RemoveBG.APIKey)
	v.SetDefault("removebg.timeout", d.RemoveBG.Timeout)

	v.SetDefault("redis.enabled", d.Redis.Enabled)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.ttl", d.Redis.TTL)

	v.SetDefault("upload.max_size", d.Upload.MaxSize)
	v.SetDefault("upload.max_dimension", d.Upload.MaxDimension)

	v.SetDefault("export.output_dir", d.Export.OutputDir)
	v.SetDefault("export.keep_files", d.Export.KeepFiles)
	v.SetDefault("export.retention", d.Export.Retention)
	v.SetDefault("export.sweep_schedule", d.Export.SweepSchedule)
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         ":5000",
			Mode:         "debug",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			StaticDir:    "./static",
		},
		Remover: RemoverConfig{
			Endpoint: "http://127.0.0.1:5000/remove-bg",
			Timeout:  60 * time.Second,
		},
		RemoveBG: RemoveBGConfig{
			APIURL:  "https://api.remove.bg/v1.0/removebg",
			APIKey:  "",
			Timeout: 30 * time.Second,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
			TTL:     24 * time.Hour,
		},
		Upload: UploadConfig{
			MaxSize:      12 * 1024 * 1024,
			MaxDimension: 0,
		},
		Export: ExportConfig{
			OutputDir:     "./output",
			KeepFiles:     false,
			Retention:     24 * time.Hour,
			SweepSchedule: "@every 1h",
		},
	}
}
