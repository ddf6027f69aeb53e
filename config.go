package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the resolved server configuration
type Config struct {
	Addr          string        `mapstructure:"addr"`
	ClientDir     string        `mapstructure:"client"`
	ArenaFile     string        `mapstructure:"arena"`
	TickRate      int           `mapstructure:"tick_rate"`
	BroadcastRate int           `mapstructure:"broadcast_rate"`
	PlayerTimeout time.Duration `mapstructure:"player_timeout"`
	RespawnDelay  time.Duration `mapstructure:"respawn_delay"`
	MaxSessions   int           `mapstructure:"max_sessions"`
	MaxPlayers    int           `mapstructure:"max_players"`
	MaxConns      int           `mapstructure:"max_conns"`
	MaxConnsPerIP int           `mapstructure:"max_conns_per_ip"`
	TicketSecret  string        `mapstructure:"ticket_secret"`
	TicketTTL     time.Duration `mapstructure:"ticket_ttl"`
	PublicURL     string        `mapstructure:"public_url"`
	Log           LogConfig     `mapstructure:"log"`
}

// LogConfig controls zerolog output
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("client", "")
	v.SetDefault("arena", "")
	v.SetDefault("tick_rate", 60)
	v.SetDefault("broadcast_rate", 30)
	v.SetDefault("player_timeout", 10*time.Second)
	v.SetDefault("respawn_delay", 3*time.Second)
	v.SetDefault("max_sessions", 100)
	v.SetDefault("max_players", 16)
	v.SetDefault("max_conns", 1000)
	v.SetDefault("max_conns_per_ip", 5)
	v.SetDefault("ticket_secret", "")
	v.SetDefault("ticket_ttl", 10*time.Minute)
	v.SetDefault("public_url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// LoadConfig resolves configuration from defaults, an optional config file,
// ARENA_* environment variables and command line flags, in rising priority.
func LoadConfig(args []string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	fs := pflag.NewFlagSet("arena-server", pflag.ContinueOnError)
	configFile := fs.String("config", "", "path to a config file (yaml, json or toml)")
	fs.String("addr", ":8080", "HTTP listen address")
	fs.String("client", "", "path to the static client directory")
	fs.String("arena", "", "path to an arena YAML file (default: built-in arena)")
	fs.Int("tick-rate", 60, "simulation ticks per second")
	fs.Int("max-players", 16, "players per session")
	fs.String("log-level", "info", "zerolog level")
	fs.Bool("log-pretty", false, "human readable console logs")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}
	for key, flag := range map[string]string{
		"addr":        "addr",
		"client":      "client",
		"arena":       "arena",
		"tick_rate":   "tick-rate",
		"max_players": "max-players",
		"log.level":   "log-level",
		"log.pretty":  "log-pretty",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	v.SetEnvPrefix("ARENA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if *configFile != "" {
		v.SetConfigFile(*configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.TicketSecret == "" {
		cfg.TicketSecret = randomSecret()
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("tick_rate must be positive, got %d", c.TickRate))
	}
	if c.BroadcastRate <= 0 || c.BroadcastRate > c.TickRate {
		errs = append(errs, fmt.Errorf("broadcast_rate must be in [1, tick_rate], got %d", c.BroadcastRate))
	}
	if c.MaxPlayers <= 0 {
		errs = append(errs, fmt.Errorf("max_players must be positive, got %d", c.MaxPlayers))
	}
	if c.MaxConns <= 0 || c.MaxConnsPerIP <= 0 {
		errs = append(errs, fmt.Errorf("max_conns and max_conns_per_ip must be positive, got %d/%d", c.MaxConns, c.MaxConnsPerIP))
	}
	if c.MaxSessions <= 0 {
		errs = append(errs, fmt.Errorf("max_sessions must be positive, got %d", c.MaxSessions))
	}
	return errors.Join(errs...)
}

// TickDuration is the wall time of one simulation step
func (c *Config) TickDuration() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// BroadcastEvery is the number of ticks between state snapshots
func (c *Config) BroadcastEvery() uint64 {
	return uint64(max(1, c.TickRate/c.BroadcastRate))
}

// DefaultConfig returns the built-in defaults, used by tests
func DefaultConfig() *Config {
	return &Config{
		Addr:          ":8080",
		TickRate:      60,
		BroadcastRate: 30,
		PlayerTimeout: 10 * time.Second,
		RespawnDelay:  3 * time.Second,
		MaxSessions:   100,
		MaxPlayers:    16,
		MaxConns:      1000,
		MaxConnsPerIP: 5,
		TicketSecret:  randomSecret(),
		TicketTTL:     10 * time.Minute,
		Log:           LogConfig{Level: "info"},
	}
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("failed to generate ticket secret: " + err.Error())
	}
	return hex.EncodeToString(b)
}
