package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Realtime  RealtimeConfig  `mapstructure:"realtime"`
	Redis     RedisConfig     `mapstructure:"redis"`
	MySQL     MySQLConfig     `mapstructure:"mysql"`
	Leader    LeaderConfig    `mapstructure:"leader"`
	Instance  InstanceConfig  `mapstructure:"instance"`
	Bidding   BiddingConfig   `mapstructure:"bidding"`
	Clock     ClockConfig     `mapstructure:"clock"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Fees      FeeConfig       `mapstructure:"fees"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

// RealtimeConfig is the WebSocket listener; it runs on its own port so
// the realtime fan-out can be scaled apart from the bid API.
type RealtimeConfig struct {
	Port int `mapstructure:"port"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MySQLConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type LeaderConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type InstanceConfig struct {
	ID string `mapstructure:"id"`
}

// BiddingConfig carries the increment ladder and bid policies. Ladder
// tiers are configuration rather than code so jurisdiction variants can
// ship without a rebuild. Tiers must be sorted by ascending UpTo; the
// final tier uses UpTo = 0 meaning unbounded.
type BiddingConfig struct {
	AllowSellerBids bool          `mapstructure:"allow_seller_bids"`
	LockTimeout     time.Duration `mapstructure:"lock_timeout"`
	Ladder          []LadderTier  `mapstructure:"ladder"`
}

type LadderTier struct {
	UpTo      float64 `mapstructure:"up_to"`
	Increment float64 `mapstructure:"increment"`
}

// ClockConfig holds the soft-close parameters: a qualifying bid inside
// the extension window pushes end_at to now + extension duration.
type ClockConfig struct {
	ExtensionWindow   time.Duration `mapstructure:"extension_window"`
	ExtensionDuration time.Duration `mapstructure:"extension_duration"`
}

type SchedulerConfig struct {
	TickSpec string `mapstructure:"tick_spec"`
}

type FeeConfig struct {
	DocumentationFee float64   `mapstructure:"documentation_fee"`
	Tiers            []FeeTier `mapstructure:"tiers"`
}

type FeeTier struct {
	UpTo    float64 `mapstructure:"up_to"`
	Percent float64 `mapstructure:"percent"`
}

func Load() (*Config, error) {
	// Set default values
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("realtime.port", 8081)
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("mysql.dsn", "auction_user:auction_pass@tcp(localhost:3306)/vehicle_auction?parseTime=true")
	viper.SetDefault("mysql.max_open_conns", 25)
	viper.SetDefault("mysql.max_idle_conns", 10)
	viper.SetDefault("mysql.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("leader.ttl", 30*time.Second)
	viper.SetDefault("instance.id", "bidding-service-1")
	viper.SetDefault("bidding.allow_seller_bids", false)
	viper.SetDefault("bidding.lock_timeout", 3*time.Second)
	viper.SetDefault("clock.extension_window", 2*time.Minute)
	viper.SetDefault("clock.extension_duration", 2*time.Minute)
	viper.SetDefault("scheduler.tick_spec", "@every 15s")
	viper.SetDefault("fees.documentation_fee", 250.0)

	// Configuration file settings
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/vehicle-auction/")

	// Environment variable support
	viper.AutomaticEnv()

	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("realtime.port", "REALTIME_PORT")
	viper.BindEnv("redis.address", "REDIS_ADDRESS")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")
	viper.BindEnv("mysql.dsn", "MYSQL_DSN")
	viper.BindEnv("mysql.max_open_conns", "MYSQL_MAX_OPEN_CONNS")
	viper.BindEnv("mysql.max_idle_conns", "MYSQL_MAX_IDLE_CONNS")
	viper.BindEnv("mysql.conn_max_lifetime", "MYSQL_CONN_MAX_LIFETIME")
	viper.BindEnv("leader.ttl", "LEADER_TTL")
	viper.BindEnv("instance.id", "INSTANCE_ID")
	viper.BindEnv("bidding.allow_seller_bids", "ALLOW_SELLER_BIDS")
	viper.BindEnv("bidding.lock_timeout", "BID_LOCK_TIMEOUT")
	viper.BindEnv("clock.extension_window", "CLOCK_EXTENSION_WINDOW")
	viper.BindEnv("clock.extension_duration", "CLOCK_EXTENSION_DURATION")
	viper.BindEnv("scheduler.tick_spec", "SCHEDULER_TICK_SPEC")

	// Read configuration file (optional - will use defaults/env vars if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if len(config.Bidding.Ladder) == 0 {
		config.Bidding.Ladder = DefaultLadder()
	}
	if len(config.Fees.Tiers) == 0 {
		config.Fees.Tiers = DefaultFeeTiers()
	}

	return &config, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if len(config.Bidding.Ladder) == 0 {
		config.Bidding.Ladder = DefaultLadder()
	}
	if len(config.Fees.Tiers) == 0 {
		config.Fees.Tiers = DefaultFeeTiers()
	}

	return &config, nil
}

// DefaultLadder is the standard increment schedule. UpTo bounds are
// inclusive; the zero bound terminates the table as the unbounded tier.
func DefaultLadder() []LadderTier {
	return []LadderTier{
		{UpTo: 1_000, Increment: 10},
		{UpTo: 5_000, Increment: 100},
		{UpTo: 10_000, Increment: 250},
		{UpTo: 50_000, Increment: 500},
		{UpTo: 100_000, Increment: 1_000},
		{UpTo: 1_000_000, Increment: 5_000},
		{UpTo: 5_000_000, Increment: 10_000},
		{UpTo: 0, Increment: 50_000},
	}
}

// DefaultFeeTiers is the buyer fee percentage schedule.
func DefaultFeeTiers() []FeeTier {
	return []FeeTier{
		{UpTo: 10_000, Percent: 10},
		{UpTo: 100_000, Percent: 5},
		{UpTo: 0, Percent: 2},
	}
}

// GetConfigString returns a formatted string representation of the config
func (c *Config) GetConfigString() string {
	return fmt.Sprintf(
		"Server: %s:%d, Realtime: :%d, Redis: %s, MySQL: %s, Instance: %s",
		c.Server.Host,
		c.Server.Port,
		c.Realtime.Port,
		c.Redis.Address,
		c.MySQL.DSN,
		c.Instance.ID,
	)
}
