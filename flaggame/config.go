package flaggame

import (
	"fmt"
	"log/slog"
	"os"

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
	Game   GameConfig   `toml:"game"`
	Admin  AdminConfig  `toml:"admin"`
	Legacy LegacyConfig `toml:"legacy"`
	Spaces struct {
		Key      string `toml:"key"`
		Secret   string `toml:"secret"`
		Region   string `toml:"region"`
		Bucket   string `toml:"bucket"`
		FlagRoot string `toml:"flagroot"`
	} `toml:"spaces"`
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

type GameConfig struct {
	// PairRule selects how pair completeness is derived: "same-owner"
	// (default) or "both-owned".
	PairRule string `toml:"pair_rule"`

	// AllowPairCompletionBids permits bidding on the mate of a flag the
	// bidder already owns.
	AllowPairCompletionBids bool `toml:"allow_pair_completion_bids"`

	// SweepIntervalSeconds is how often the scheduler opens and settles due
	// auctions. Zero falls back to the scheduler default.
	SweepIntervalSeconds int `toml:"sweep_interval_seconds"`
}

type AdminConfig struct {
	Key string `toml:"key"`
}

// LegacyConfig points at the first-generation Mongo catalog for one-shot
// imports.
type LegacyConfig struct {
	MongoURI string `toml:"mongo_uri"`
	Database string `toml:"database"`
}
