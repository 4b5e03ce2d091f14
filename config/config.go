package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Exchange ExchangeConfig
	Custody  CustodyConfig
	Rates    RatesConfig
	Polling  PollingConfig
	Database DatabaseConfig
	Redis    RedisConfig
	AMQP     AMQPConfig
	Security SecurityConfig
	Log      LogConfig
}

// ExchangeConfig configures the FixedFloat API client.
type ExchangeConfig struct {
	APIKey    string
	APISecret string
	BaseURL   string
	OrderURL  string
	Timeout   time.Duration
	Source    string // custody asset funding swaps, e.g. USDTPOL
}

type CustodyConfig struct {
	EVM    EVMConfig
	Solana SolanaConfig
}

type EVMConfig struct {
	RPCURL         string
	ChainID        int64
	TokenContract  string
	TokenDecimals  int32
	GasLimit       uint64
	ReceiptTimeout time.Duration
}

type SolanaConfig struct {
	RPCURL         string
	TokenMint      string
	TokenDecimals  int32
	ReceiptTimeout time.Duration
}

type RatesConfig struct {
	BinanceURL string
	UpbitURL   string
	KBURL      string
	Timeout    time.Duration
}

type PollingConfig struct {
	Interval    time.Duration
	MaxAttempts int
	Deadline    time.Duration
}

type DatabaseConfig struct {
	URL      string
	MaxConns int32
}

type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	CheckpointTTL time.Duration
	LockTTL       time.Duration
}

type AMQPConfig struct {
	URL   string
	Queue string
}

type SecurityConfig struct {
	EncryptionKey string // hex-encoded 32 bytes
}

type LogConfig struct {
	Level  string
	Pretty bool
}

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".pay")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME")
	v.AddConfigPath(".")

	setDefaults(v)

	// PAY_EXCHANGE_API_KEY -> exchange.api_key
	v.SetEnvPrefix("PAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional
	_ = v.ReadInConfig()

	cfg := &Config{
		Exchange: ExchangeConfig{
			APIKey:    v.GetString("exchange.api_key"),
			APISecret: v.GetString("exchange.api_secret"),
			BaseURL:   v.GetString("exchange.base_url"),
			OrderURL:  v.GetString("exchange.order_url"),
			Timeout:   v.GetDuration("exchange.timeout"),
			Source:    v.GetString("exchange.source"),
		},
		Custody: CustodyConfig{
			EVM: EVMConfig{
				RPCURL:         v.GetString("custody.evm.rpc_url"),
				ChainID:        v.GetInt64("custody.evm.chain_id"),
				TokenContract:  v.GetString("custody.evm.token_contract"),
				TokenDecimals:  v.GetInt32("custody.evm.token_decimals"),
				GasLimit:       v.GetUint64("custody.evm.gas_limit"),
				ReceiptTimeout: v.GetDuration("custody.evm.receipt_timeout"),
			},
			Solana: SolanaConfig{
				RPCURL:         v.GetString("custody.solana.rpc_url"),
				TokenMint:      v.GetString("custody.solana.token_mint"),
				TokenDecimals:  v.GetInt32("custody.solana.token_decimals"),
				ReceiptTimeout: v.GetDuration("custody.solana.receipt_timeout"),
			},
		},
		Rates: RatesConfig{
			BinanceURL: v.GetString("rates.binance_url"),
			UpbitURL:   v.GetString("rates.upbit_url"),
			KBURL:      v.GetString("rates.kb_url"),
			Timeout:    v.GetDuration("rates.timeout"),
		},
		Polling: PollingConfig{
			Interval:    v.GetDuration("polling.interval"),
			MaxAttempts: v.GetInt("polling.max_attempts"),
			Deadline:    v.GetDuration("polling.deadline"),
		},
		Database: DatabaseConfig{
			URL:      v.GetString("database.url"),
			MaxConns: v.GetInt32("database.max_conns"),
		},
		Redis: RedisConfig{
			Addr:          v.GetString("redis.addr"),
			Password:      v.GetString("redis.password"),
			DB:            v.GetInt("redis.db"),
			CheckpointTTL: v.GetDuration("redis.checkpoint_ttl"),
			LockTTL:       v.GetDuration("redis.lock_ttl"),
		},
		AMQP: AMQPConfig{
			URL:   v.GetString("amqp.url"),
			Queue: v.GetString("amqp.queue"),
		},
		Security: SecurityConfig{
			EncryptionKey: v.GetString("security.encryption_key"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Pretty: v.GetBool("log.pretty"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfig = cfg
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("exchange.base_url", "https://ff.io")
	v.SetDefault("exchange.order_url", "https://ff.io/order/")
	v.SetDefault("exchange.timeout", 15*time.Second)
	v.SetDefault("exchange.source", "USDTPOL")

	v.SetDefault("custody.evm.rpc_url", "https://polygon-rpc.com/")
	v.SetDefault("custody.evm.chain_id", 137)
	v.SetDefault("custody.evm.token_contract", "0xc2132D05D31c914a87C6611C10748AEb04B58e8F")
	v.SetDefault("custody.evm.token_decimals", 6)
	v.SetDefault("custody.evm.gas_limit", 70000)
	v.SetDefault("custody.evm.receipt_timeout", 2*time.Minute)

	v.SetDefault("custody.solana.rpc_url", "https://api.mainnet-beta.solana.com")
	v.SetDefault("custody.solana.token_mint", "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB")
	v.SetDefault("custody.solana.token_decimals", 6)
	v.SetDefault("custody.solana.receipt_timeout", 2*time.Minute)

	v.SetDefault("rates.binance_url", "https://api.binance.com")
	v.SetDefault("rates.upbit_url", "https://api.upbit.com")
	v.SetDefault("rates.kb_url", "https://obiz.kbstar.com/quics?chgCompId=b101828&baseCompId=b101828&page=C101598&cc=b101828:b101828")
	v.SetDefault("rates.timeout", 10*time.Second)

	v.SetDefault("polling.interval", time.Second)
	v.SetDefault("polling.max_attempts", 300)
	v.SetDefault("polling.deadline", 10*time.Minute)

	v.SetDefault("database.max_conns", 10)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.checkpoint_ttl", 24*time.Hour)
	v.SetDefault("redis.lock_ttl", 3*time.Minute)

	v.SetDefault("amqp.queue", "swap.projections")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	if c.Exchange.APIKey == "" || c.Exchange.APISecret == "" {
		return fmt.Errorf("exchange credentials not found. Please set PAY_EXCHANGE_API_KEY and PAY_EXCHANGE_API_SECRET or create a .pay.yaml config file")
	}
	if c.Polling.Interval <= 0 {
		return fmt.Errorf("polling.interval must be positive")
	}
	if c.Polling.MaxAttempts <= 0 {
		return fmt.Errorf("polling.max_attempts must be positive")
	}
	if c.Custody.EVM.TokenDecimals < 0 || c.Custody.Solana.TokenDecimals < 0 {
		return fmt.Errorf("token decimals must not be negative")
	}
	// The wallet lock has to outlive a transfer waiting for its receipt.
	if c.Redis.LockTTL <= c.Custody.EVM.ReceiptTimeout || c.Redis.LockTTL <= c.Custody.Solana.ReceiptTimeout {
		return fmt.Errorf("redis.lock_ttl (%s) must exceed custody.evm.receipt_timeout (%s) and custody.solana.receipt_timeout (%s)",
			c.Redis.LockTTL, c.Custody.EVM.ReceiptTimeout, c.Custody.Solana.ReceiptTimeout)
	}
	return nil
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}
