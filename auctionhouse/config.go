package auctionhouse

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type Config struct {
	Log    LogConfig    `toml:"log"`
	DB     DBConfig     `toml:"db"`
	Chain  ChainConfig  `toml:"chain"`
	Engine EngineConfig `toml:"engine"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type DBConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	PoolSize int    `toml:"pool_size"`
}

// ChainConfig drives the block clock: the engine measures auction windows in
// block heights, and the service advances the height once per interval.
type ChainConfig struct {
	StartBlock    int64    `toml:"start_block"`
	BlockInterval Duration `toml:"block_interval"`
}

type EngineConfig struct {
	// EscrowAccount is the custody identity that holds escrowed items
	// while their auction is running.
	EscrowAccount  string   `toml:"escrow_account"`
	SettleInterval Duration `toml:"settle_interval"`
}

// Duration decodes TOML strings like "15s" into a time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalText(data []byte) error {
	parsed, err := time.ParseDuration(string(data))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(data), err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
