package config

import (
	"errors"
	"log/slog"

	"github.com/spf13/viper"
)

type Config struct {
	Server     Server
	Store      StoreConfig
	Chat       Chat
	Moderation Moderation
	RateLimit  RateLimit
	LoggerMode LoggerMode
}

type Server struct {
	Port        string
	Environment string
}

type StoreConfig struct {
	// Backend selects the document store: memory | redis | postgres
	Backend   string
	RedisAddr string
	DSN       string
	TimeoutMS int
}

type Chat struct {
	// AdminNick is the single privileged moderator account.
	AdminNick string
	// EchoSelf controls whether plain chat broadcasts include the sender.
	// When false the sender receives a message_sent confirmation instead.
	EchoSelf     bool
	HistoryLimit int
}

type Moderation struct {
	SpamWindowSeconds  int
	SpamMaxMessages    int
	AutoMuteViolations int
	AutoMuteMinutes    int
	OnlineWindowSecs   int
}

type RateLimit struct {
	LoginAttempts      int
	LoginWindowSeconds int
}

type LoggerMode struct {
	Development bool
	Prod        bool
	Level       string
}

func LoadConfig(filename string) (*viper.Viper, error) {
	v := viper.New()

	v.SetConfigName(filename)
	v.SetConfigType("yaml")
	v.AddConfigPath("config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	err := v.Unmarshal(&c)
	if err != nil {
		slog.Error("Unable to unmarshal config", "err", err)
		return nil, err
	}
	applyDefaults(&c)
	return &c, nil
}

func applyDefaults(c *Config) {
	if c.Server.Port == "" {
		c.Server.Port = "6570"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	if c.Store.TimeoutMS == 0 {
		c.Store.TimeoutMS = 2000
	}
	if c.Chat.HistoryLimit == 0 {
		c.Chat.HistoryLimit = 1000
	}
	if c.Moderation.SpamWindowSeconds == 0 {
		c.Moderation.SpamWindowSeconds = 60
	}
	if c.Moderation.SpamMaxMessages == 0 {
		c.Moderation.SpamMaxMessages = 10
	}
	if c.Moderation.AutoMuteViolations == 0 {
		c.Moderation.AutoMuteViolations = 5
	}
	if c.Moderation.AutoMuteMinutes == 0 {
		c.Moderation.AutoMuteMinutes = 60
	}
	if c.Moderation.OnlineWindowSecs == 0 {
		c.Moderation.OnlineWindowSecs = 300
	}
	if c.RateLimit.LoginAttempts == 0 {
		c.RateLimit.LoginAttempts = 10
	}
	if c.RateLimit.LoginWindowSeconds == 0 {
		c.RateLimit.LoginWindowSeconds = 300
	}
}

// Default returns a config suitable for tests, without reading any file.
func Default() *Config {
	c := &Config{}
	applyDefaults(c)
	c.Chat.AdminNick = "Wixxy"
	c.LoggerMode.Development = true
	return c
}
