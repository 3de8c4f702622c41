package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 CROWN_SERVER_PORT
const EnvPrefix = "CROWN"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Inference InferenceConfig `mapstructure:"inference"`
	Measure   MeasureConfig   `mapstructure:"measure"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type UploadConfig struct {
	MaxSize int64 `mapstructure:"max_size"`
}

type InferenceConfig struct {
	ModelPath     string        `mapstructure:"model_path"`
	Confidence    float64       `mapstructure:"confidence"`
	IoU           float64       `mapstructure:"iou"`
	ImageSize     int           `mapstructure:"image_size"`
	MaxDetections int           `mapstructure:"max_detections"`
	Workers       int           `mapstructure:"workers"`
	QueueTimeout  time.Duration `mapstructure:"queue_timeout"`
	Backend       string        `mapstructure:"backend"`
	Target        string        `mapstructure:"target"`
	OutputNames   []string      `mapstructure:"output_names"`
}

type MeasureConfig struct {
	DefaultGSD float64 `mapstructure:"default_gsd"`
}

// Load 从 YAML 文件加载配置，path 为空或文件不存在时只使用默认值和环境变量
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// New 加载 .env 后使用默认配置路径加载配置
func New() *Config {
	_ = godotenv.Load()

	path := os.Getenv(EnvPrefix + "_CONFIG")
	if path == "" {
		path = "config.yaml"
	}

	cfg, err := Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config, using defaults: %v\n", err)
		cfg, _ = Load("")
	}
	return cfg
}

// Validate 检查推理与测量参数
func (c *Config) Validate() error {
	if c.Measure.DefaultGSD <= 0 {
		return fmt.Errorf("measure.default_gsd must be positive, got %v", c.Measure.DefaultGSD)
	}
	if c.Inference.ImageSize <= 0 {
		return fmt.Errorf("inference.image_size must be positive, got %d", c.Inference.ImageSize)
	}
	if c.Inference.Confidence < 0 || c.Inference.Confidence > 1 {
		return fmt.Errorf("inference.confidence must be within [0, 1], got %v", c.Inference.Confidence)
	}
	if c.Inference.IoU <= 0 || c.Inference.IoU > 1 {
		return fmt.Errorf("inference.iou must be within (0, 1], got %v", c.Inference.IoU)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":5000")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 24*time.Hour)

	v.SetDefault("upload.max_size", 32*1024*1024)

	v.SetDefault("inference.model_path", "weights/tree_crowns.onnx")
	v.SetDefault("inference.confidence", 0.25)
	v.SetDefault("inference.iou", 0.7)
	v.SetDefault("inference.image_size", 1024)
	v.SetDefault("inference.max_detections", 300)
	v.SetDefault("inference.workers", 1)
	v.SetDefault("inference.queue_timeout", 60*time.Second)
	v.SetDefault("inference.backend", "default")
	v.SetDefault("inference.target", "cpu")
	v.SetDefault("inference.output_names", []string{"output0", "output1"})

	v.SetDefault("measure.default_gsd", 0.45)
}
