package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	WebSocket   WebSocketConfig   `mapstructure:"websocket"`
	Matchmaking MatchmakingConfig `mapstructure:"matchmaking"`
	Match       MatchConfig       `mapstructure:"match"`
	Store       StoreConfig       `mapstructure:"store"`
	AI          AIConfig          `mapstructure:"ai"`
	Log         LogConfig         `mapstructure:"log"`
	Security    SecurityConfig    `mapstructure:"security"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// WebSocketConfig WebSocket配置
type WebSocketConfig struct {
	Path              string        `mapstructure:"path"`
	ReadBufferSize    int           `mapstructure:"read_buffer_size"`
	WriteBufferSize   int           `mapstructure:"write_buffer_size"`
	MaxMessageSize    int64         `mapstructure:"max_message_size"`
	PingInterval      time.Duration `mapstructure:"ping_interval"`
	PongTimeout       time.Duration `mapstructure:"pong_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	EnableCompression bool          `mapstructure:"enable_compression"`
}

// 匹配策略
const (
	MatchmakingRating   = "rating"
	MatchmakingUnranked = "unranked"
)

// MatchmakingConfig 匹配队列配置
type MatchmakingConfig struct {
	// Mode 匹配策略：rating（等级分区间匹配）或 unranked（先到先配）
	Mode string `mapstructure:"mode"`
	// RatingThreshold 等级分差上限（rating模式）
	RatingThreshold int `mapstructure:"rating_threshold"`
	// ContractTTL 匹配契约的接受时限
	ContractTTL time.Duration `mapstructure:"contract_ttl"`
}

// MatchConfig 对局配置
type MatchConfig struct {
	// TotalTime 每方总时限
	TotalTime time.Duration `mapstructure:"total_time"`
	// TurnTime 单步时限
	TurnTime time.Duration `mapstructure:"turn_time"`
	// RatingDelta 胜负双方的等级分增减
	RatingDelta int `mapstructure:"rating_delta"`
}

// StoreConfig 共享存储配置
type StoreConfig struct {
	// LockTTL 分布式锁的自动过期时间
	LockTTL time.Duration `mapstructure:"lock_ttl"`
	// LockRetryDelay 锁竞争失败后的重试间隔
	LockRetryDelay time.Duration `mapstructure:"lock_retry_delay"`
}

// AIConfig AI引擎配置
type AIConfig struct {
	// EasyURL 简单AI的走子接口
	EasyURL string `mapstructure:"easy_url"`
	// HardURL 困难AI（Pikafish）的走子接口
	HardURL string `mapstructure:"hard_url"`
	// RequestTimeout 调用AI引擎的超时时间
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level   string            `mapstructure:"level"`
	Format  string            `mapstructure:"format"`
	Output  string            `mapstructure:"output"`
	File    LogFileConfig     `mapstructure:"file"`
	Modules map[string]string `mapstructure:"modules"`
}

// LogFileConfig 日志文件配置
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	JWT JWTConfig `mapstructure:"jwt"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret       string `mapstructure:"secret"`
	ExpireHours  int    `mapstructure:"expire_hours"`
	RefreshHours int    `mapstructure:"refresh_hours"`
}

var (
	cfg  *Config
	once sync.Once
	mu   sync.RWMutex
	v    *viper.Viper
)

// Init 初始化配置
func Init(configPath string) error {
	var err error
	once.Do(func() {
		v = viper.New()

		// 设置配置文件路径
		if configPath != "" {
			v.SetConfigFile(configPath)
		} else {
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath("./config")
			v.AddConfigPath(".")
		}

		// 设置环境变量前缀
		v.SetEnvPrefix("XIANGQI")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		// 设置默认值
		setDefaults(v)

		// 读取配置文件
		if err = v.ReadInConfig(); err != nil {
			// 如果配置文件不存在，使用默认配置
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return
			}
			err = nil
		}

		// 解析配置到结构体
		cfg = &Config{}
		err = v.Unmarshal(cfg)
	})

	return err
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 服务器默认配置
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "development")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// 数据库默认配置
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/xiangqi.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.auto_migrate", true)

	// WebSocket默认配置
	v.SetDefault("websocket.path", "/ws")
	v.SetDefault("websocket.read_buffer_size", 1024)
	v.SetDefault("websocket.write_buffer_size", 1024)
	v.SetDefault("websocket.max_message_size", 8192)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_timeout", "60s")
	v.SetDefault("websocket.write_timeout", "10s")
	v.SetDefault("websocket.enable_compression", false)

	// 匹配队列默认配置
	v.SetDefault("matchmaking.mode", "rating")
	v.SetDefault("matchmaking.rating_threshold", 100)
	v.SetDefault("matchmaking.contract_ttl", "5s")

	// 对局默认配置
	v.SetDefault("match.total_time", "15m")
	v.SetDefault("match.turn_time", "1m")
	v.SetDefault("match.rating_delta", 10)

	// 共享存储默认配置
	v.SetDefault("store.lock_ttl", "10s")
	v.SetDefault("store.lock_retry_delay", "100ms")

	// AI默认配置
	v.SetDefault("ai.easy_url", "http://127.0.0.1:8000/next-move")
	v.SetDefault("ai.hard_url", "http://127.0.0.1:8000/next-move-pikafish")
	v.SetDefault("ai.request_timeout", "10s")

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file.path", "./logs")
	v.SetDefault("log.file.filename", "xiangqi.log")
	v.SetDefault("log.file.max_size", 100)
	v.SetDefault("log.file.max_age", 30)
	v.SetDefault("log.file.max_backups", 7)
	v.SetDefault("log.file.compress", true)

	// 安全默认配置
	v.SetDefault("security.jwt.secret", "dev-secret-change-me")
	v.SetDefault("security.jwt.expire_hours", 24)
	v.SetDefault("security.jwt.refresh_hours", 168)
}

// Get 获取配置实例
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Watch 监听配置文件变更
func Watch(onChange func(*Config)) {
	if v == nil {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		newCfg := &Config{}
		if err := v.Unmarshal(newCfg); err != nil {
			return
		}

		mu.Lock()
		cfg = newCfg
		mu.Unlock()

		if onChange != nil {
			onChange(newCfg)
		}
	})
	v.WatchConfig()
}

// Validate 校验配置合法性
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("无效的服务器端口: %d", c.Server.Port)
	}
	if c.Matchmaking.Mode != MatchmakingRating && c.Matchmaking.Mode != MatchmakingUnranked {
		return fmt.Errorf("无效的匹配策略: %s", c.Matchmaking.Mode)
	}
	if c.Matchmaking.RatingThreshold < 0 {
		return fmt.Errorf("等级分差上限不能为负: %d", c.Matchmaking.RatingThreshold)
	}
	if c.Match.TotalTime <= 0 || c.Match.TurnTime <= 0 {
		return fmt.Errorf("对局时限必须为正")
	}
	return nil
}
