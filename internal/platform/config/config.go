package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 结构体定义了应用程序的所有配置项
// 它与 config.yaml 文件的结构完全对应
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Ranking   RankingConfig   `mapstructure:"ranking"`
	Review    ReviewConfig    `mapstructure:"review"`
	Backup    BackupConfig    `mapstructure:"backup"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Broadcast BroadcastConfig `mapstructure:"broadcast"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Token     TokenConfig     `mapstructure:"token"`
}

// ServerConfig 定义了TCP协议服务器的配置
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// HTTPConfig 定义了HTTP服务器相关的配置
type HTTPConfig struct {
	Address        string   `mapstructure:"address"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// RankingConfig 定义了排名引擎的配置
type RankingConfig struct {
	Interval   time.Duration `mapstructure:"interval"`
	UpvoteTerm string        `mapstructure:"upvoteTerm"`
}

// ReviewConfig 定义了评论冷却
type ReviewConfig struct {
	Cooldown time.Duration `mapstructure:"cooldown"`
}

// 快照后端
const (
	BackendFile = "file"
	BackendDB   = "db"
)

// BackupConfig 定义了定时快照的配置
type BackupConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	Backend   string        `mapstructure:"backend"`
	Directory string        `mapstructure:"directory"`
	BaseFile  string        `mapstructure:"baseFile"`
}

// DatabaseConfig 定义了快照数据库的配置
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// RedisConfig 定义了Redis的配置
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// 广播方式
const (
	BroadcastMulticast = "multicast"
	BroadcastRedis     = "redis"
	BroadcastFanout    = "fanout"
	BroadcastNone      = "none"
)

// BroadcastConfig 定义了领先者变化广播的配置
type BroadcastConfig struct {
	Mode         string `mapstructure:"mode"`
	Address      string `mapstructure:"address"`
	Port         int    `mapstructure:"port"`
	RedisChannel string `mapstructure:"redisChannel"`
}

// GroupAddress 返回组播目标地址，例如 "239.255.32.32:4400"。
func (b BroadcastConfig) GroupAddress() string {
	return fmt.Sprintf("%s:%d", b.Address, b.Port)
}

// NotifyConfig 定义了订阅推送的配置
type NotifyConfig struct {
	MaxFailures int `mapstructure:"maxFailures"`
	MailboxSize int `mapstructure:"mailboxSize"`
}

// TokenConfig 定义了订阅句柄签名密钥，为空时每次启动随机生成
type TokenConfig struct {
	Secret string `mapstructure:"secret"`
}

// setDefaults 为每个配置项设置默认值，使没有配置文件时也能启动
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":7070")
	v.SetDefault("http.address", ":8080")
	v.SetDefault("http.mode", "release")
	v.SetDefault("http.allowedOrigins", []string{"http://localhost:3000"})
	v.SetDefault("ranking.interval", "10s")
	v.SetDefault("ranking.upvoteTerm", "log2-plus-one")
	v.SetDefault("review.cooldown", "10s")
	v.SetDefault("backup.interval", "1m")
	v.SetDefault("backup.backend", BackendFile)
	v.SetDefault("backup.directory", "data")
	v.SetDefault("backup.baseFile", "snapshot")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "hotelier.db")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("broadcast.mode", BroadcastMulticast)
	v.SetDefault("broadcast.address", "239.255.32.32")
	v.SetDefault("broadcast.port", 4400)
	v.SetDefault("broadcast.redisChannel", "hotelier:leaders")
	v.SetDefault("notify.maxFailures", 3)
	v.SetDefault("notify.mailboxSize", 64)
	v.SetDefault("token.secret", "")
}

// LoadConfig 函数负责查找、加载和解析配置文件
// 它会在指定的路径中查找名为 config.yaml 的文件，没有指定路径时查找 ./config 与当前目录。
// 配置文件不存在时只使用默认值与环境变量。
func LoadConfig(paths ...string) (*Config, error) {
	// 1. 先加载 .env，使其中的变量可以被下面的 AutomaticEnv 读取
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("无法加载 .env: %w", err)
	}

	v := viper.New()

	// 2. 设置配置文件名和类型
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// 3. 添加配置文件搜索路径
	if len(paths) == 0 {
		paths = []string{"./config", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// 4. 允许通过环境变量覆盖配置，例如 SERVER_ADDRESS=:9000
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// 5. 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("无法读取配置文件: %w", err)
		}
	}

	// 6. 将配置反序列化到结构体中
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("无法解析配置: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查取值之间的约束。
func (c *Config) Validate() error {
	if c.Ranking.Interval <= 0 {
		return errors.New("ranking.interval 必须为正数")
	}
	if c.Review.Cooldown < 0 {
		return errors.New("review.cooldown 不能为负数")
	}
	if c.Backup.Interval <= 0 {
		return errors.New("backup.interval 必须为正数")
	}
	switch c.Backup.Backend {
	case BackendFile, BackendDB:
	default:
		return fmt.Errorf("未知的 backup.backend: %q", c.Backup.Backend)
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("未知的 database.driver: %q", c.Database.Driver)
	}
	switch c.Broadcast.Mode {
	case BroadcastMulticast, BroadcastRedis, BroadcastFanout, BroadcastNone:
	default:
		return fmt.Errorf("未知的 broadcast.mode: %q", c.Broadcast.Mode)
	}
	return nil
}
