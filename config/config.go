package config

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// current is replaced whole on every reload
var current atomic.Pointer[ServerConfig]

func init() {
	current.Store(new(ServerConfig))
}

// Get returns the configuration loaded last. Callers that care about hot
// reload call Get on every use instead of keeping the pointer.
func Get() *ServerConfig {
	return current.Load()
}

// ServerConfig wheel server configuration
type ServerConfig struct {
	Bind        string        `mapstructure:"bind"`
	Port        int           `mapstructure:"port"`
	MaxClients  int           `mapstructure:"max_clients"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	Wheel       *WheelConfig  `mapstructure:"wheel"`
	LogConfig   *LogConfig    `mapstructure:"logger"`
}

// WheelConfig sizes the timer: Slots buckets, one per Interval.
type WheelConfig struct {
	Slots    int           `mapstructure:"slots"`
	Interval time.Duration `mapstructure:"interval"`
}

// LogConfig zap logger configuration
type LogConfig struct {
	Mode       string `mapstructure:"mode"`
	Level      string `mapstructure:"level"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bind", "0.0.0.0")
	v.SetDefault("port", 6399)
	v.SetDefault("max_clients", 0)
	v.SetDefault("idle_timeout", "5m")
	v.SetDefault("wheel.slots", 3600)
	v.SetDefault("wheel.interval", "1s")
	v.SetDefault("logger.mode", "release")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.max_size", 200)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.max_backups", 7)
}

// Init loads filename and reloads it whenever the file changes.
// An empty filename means config.yaml in the working directory.
func Init(filename string) error {
	if filename == "" {
		filename = "config.yaml"
	}
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(filename)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("ReadInConfig failed, err: %w", err)
	}
	conf := new(ServerConfig)
	if err := v.Unmarshal(conf); err != nil {
		return fmt.Errorf("unmarshal config failed, err: %w", err)
	}
	if err := conf.validate(); err != nil {
		return err
	}
	current.Store(conf)

	// register before WatchConfig starts the watcher goroutine
	v.OnConfigChange(func(in fsnotify.Event) {
		reloaded := new(ServerConfig)
		if err := v.Unmarshal(reloaded); err != nil {
			zap.L().Warn("config reload failed", zap.String("file", in.Name), zap.Error(err))
			return
		}
		if err := reloaded.validate(); err != nil {
			zap.L().Warn("config reload rejected", zap.String("file", in.Name), zap.Error(err))
			return
		}
		current.Store(reloaded)
		zap.L().Info("config reloaded", zap.String("file", in.Name))
	})
	v.WatchConfig()
	return nil
}

func (c *ServerConfig) validate() error {
	if c.Wheel == nil || c.Wheel.Slots <= 0 {
		return fmt.Errorf("wheel.slots must be greater than 0")
	}
	if c.Wheel.Interval <= 0 {
		return fmt.Errorf("wheel.interval must be greater than 0")
	}
	if c.MaxClients < 0 {
		return fmt.Errorf("max_clients must not be negative")
	}
	if c.LogConfig == nil {
		c.LogConfig = &LogConfig{Mode: "release", Level: "info"}
	}
	return nil
}

// Address is the listen address built from Bind and Port.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}
