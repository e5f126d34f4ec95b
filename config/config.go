package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Storage      StorageConfig      `mapstructure:"storage"`
	LLM          LLMConfig          `mapstructure:"llm"`
	CORS         CORSConfig         `mapstructure:"cors"`
	Subscription SubscriptionConfig `mapstructure:"subscription"`
	Upload       UploadConfig       `mapstructure:"upload"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Log          LogConfig          `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // mysql, sqlite
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	SQLitePath   string `mapstructure:"sqlite_path"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	Tracing      bool   `mapstructure:"tracing"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// StorageConfig 合同文件存储，driver 为 local、oss 或 minio
type StorageConfig struct {
	Driver    string      `mapstructure:"driver"`
	LocalRoot string      `mapstructure:"local_root"`
	OSS       OSSConfig   `mapstructure:"oss"`
	Minio     MinioConfig `mapstructure:"minio"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
	CDNDomain       string `mapstructure:"cdn_domain"`
}

type MinioConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// LLMConfig 大模型调用配置，api_key 只从环境变量注入（LLM_API_KEY）
type LLMConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	PremiumModel   string        `mapstructure:"premium_model"`
	EconomyModel   string        `mapstructure:"economy_model"`
	LowerThreshold int           `mapstructure:"lower_threshold"` // 字符数
	UpperThreshold int           `mapstructure:"upper_threshold"` // 字符数
	MaxTokens      int           `mapstructure:"max_tokens"`
	Temperature    float32       `mapstructure:"temperature"`
	Timeout        time.Duration `mapstructure:"timeout"`
	SiteTitle      string        `mapstructure:"site_title"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type SubscriptionConfig struct {
	Levels map[string]SubscriptionLevel `mapstructure:"levels"`
}

type SubscriptionLevel struct {
	DailyQuota int     `mapstructure:"daily_quota"`
	Price      float64 `mapstructure:"price"`
}

type UploadConfig struct {
	MaxSize           int64    `mapstructure:"max_size"`           // 最大文件大小（字节）
	AllowedExtensions []string `mapstructure:"allowed_extensions"` // 允许的扩展名
	OrphanExpireHours int      `mapstructure:"orphan_expire_hours"`
}

type RateLimitConfig struct {
	AnalyzePerWindow int           `mapstructure:"analyze_per_window"`
	Window           time.Duration `mapstructure:"window"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, text
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.mode", "debug")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.sqlite_path", "contract_critic.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)

	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("jwt.expire_hours", 72)

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local_root", "./data/uploads")

	v.SetDefault("llm.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("llm.premium_model", "google/gemini-2.5-flash")
	v.SetDefault("llm.economy_model", "google/gemini-2.5-flash-lite")
	v.SetDefault("llm.lower_threshold", 16000)
	v.SetDefault("llm.upper_threshold", 64000)
	v.SetDefault("llm.max_tokens", 4000)
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.timeout", 120*time.Second)
	v.SetDefault("llm.site_title", "ContractCritic")

	v.SetDefault("upload.max_size", 10*1024*1024)
	v.SetDefault("upload.allowed_extensions", []string{".pdf", ".docx", ".doc", ".txt"})
	v.SetDefault("upload.orphan_expire_hours", 24)

	v.SetDefault("subscription.levels", map[string]interface{}{
		"free":  map[string]interface{}{"daily_quota": 5},
		"basic": map[string]interface{}{"daily_quota": 30},
		"pro":   map[string]interface{}{"daily_quota": 100},
	})

	v.SetDefault("rate_limit.analyze_per_window", 10)
	v.SetDefault("rate_limit.window", time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

func Load(configPath string) (*Config, error) {
	// .env 中的变量不会覆盖已存在的环境变量
	_ = godotenv.Load()

	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// 环境变量覆盖
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// 密钥不落配置文件
	if key := os.Getenv("LLM_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}

	return &cfg, nil
}
