package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mcdev12/voteroom/go/internal/room"
	"github.com/mcdev12/voteroom/go/internal/voteclock"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration read from YAML as "1s", "300ms" and so on.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the full server configuration. Values come from defaults, then
// the optional YAML file, then the environment.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	NATS struct {
		URL           string `yaml:"url"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"nats"`

	Vote struct {
		// TotalSpan of zero means unlimited.
		TotalSpan    Duration `yaml:"total_span"`
		PushInterval Duration `yaml:"push_interval"`
		TimerPoll    Duration `yaml:"timer_poll"`
		MaxRooms     int      `yaml:"max_rooms"`
	} `yaml:"vote"`

	Clock struct {
		Offset Duration `yaml:"offset"`
	} `yaml:"clock"`

	WebSocket struct {
		PingInterval   Duration `yaml:"ping_interval"`
		ReadTimeout    Duration `yaml:"read_timeout"`
		WriteTimeout   Duration `yaml:"write_timeout"`
		MaxMessageSize int      `yaml:"max_message_size"`
		SendBuffer     int      `yaml:"send_buffer"`
		// AllowedOrigins restricts browser upgrades; empty allows any origin.
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"websocket"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":8080"
	cfg.Log.Level = "info"
	cfg.Log.Format = "console"
	cfg.NATS.SubjectPrefix = "voteroom"
	cfg.Vote.PushInterval = Duration(time.Second)
	cfg.Vote.TimerPoll = Duration(voteclock.DefaultPollInterval)
	cfg.Vote.MaxRooms = 1000
	cfg.WebSocket.PingInterval = Duration(30 * time.Second)
	cfg.WebSocket.ReadTimeout = Duration(60 * time.Second)
	cfg.WebSocket.WriteTimeout = Duration(10 * time.Second)
	cfg.WebSocket.MaxMessageSize = 64 * 1024
	cfg.WebSocket.SendBuffer = 256
	return cfg
}

// Load reads .env (if present), then path (if non-empty), then environment overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to load .env file")
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Server.Addr = getEnv("VOTEROOM_ADDR", c.Server.Addr)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.NATS.SubjectPrefix = getEnv("NATS_SUBJECT_PREFIX", c.NATS.SubjectPrefix)
	if origins := getEnv("WS_ALLOWED_ORIGINS", ""); origins != "" {
		c.WebSocket.AllowedOrigins = splitList(origins)
	}

	durations := []struct {
		key string
		dst *Duration
	}{
		{"VOTE_TOTAL_SPAN", &c.Vote.TotalSpan},
		{"VOTE_PUSH_INTERVAL", &c.Vote.PushInterval},
		{"VOTE_TIMER_POLL", &c.Vote.TimerPoll},
		{"CLOCK_OFFSET", &c.Clock.Offset},
		{"WS_PING_INTERVAL", &c.WebSocket.PingInterval},
		{"WS_READ_TIMEOUT", &c.WebSocket.ReadTimeout},
		{"WS_WRITE_TIMEOUT", &c.WebSocket.WriteTimeout},
	}
	for _, d := range durations {
		v, err := getEnvAsDuration(d.key, time.Duration(*d.dst))
		if err != nil {
			return err
		}
		*d.dst = Duration(v)
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"VOTE_MAX_ROOMS", &c.Vote.MaxRooms},
		{"WS_MAX_MESSAGE_SIZE", &c.WebSocket.MaxMessageSize},
		{"WS_SEND_BUFFER", &c.WebSocket.SendBuffer},
	}
	for _, i := range ints {
		v, err := getEnvAsInt(i.key, *i.dst)
		if err != nil {
			return err
		}
		*i.dst = v
	}
	return nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Server.Addr == "":
		return errors.New("server address is required")
	case c.Vote.TotalSpan < 0:
		return fmt.Errorf("vote total span %s is negative", time.Duration(c.Vote.TotalSpan))
	case c.Vote.PushInterval <= 0:
		return fmt.Errorf("vote push interval %s must be positive", time.Duration(c.Vote.PushInterval))
	case c.Vote.TimerPoll <= 0:
		return fmt.Errorf("vote timer poll %s must be positive", time.Duration(c.Vote.TimerPoll))
	case c.WebSocket.SendBuffer <= 0:
		return fmt.Errorf("websocket send buffer %d must be positive", c.WebSocket.SendBuffer)
	case c.WebSocket.MaxMessageSize <= 0:
		return fmt.Errorf("websocket max message size %d must be positive", c.WebSocket.MaxMessageSize)
	}
	return nil
}

// Room converts the vote settings for the room registry.
func (c *Config) Room() room.Config {
	total := time.Duration(c.Vote.TotalSpan)
	if total == 0 {
		total = voteclock.Unlimited
	}
	return room.Config{
		TotalVoteSpan:     total,
		PushInterval:      time.Duration(c.Vote.PushInterval),
		TimerPollInterval: time.Duration(c.Vote.TimerPoll),
		MaxRooms:          c.Vote.MaxRooms,
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
