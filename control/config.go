// File: control/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Configuration loading: a YAML file shaped like the media server's settings
// tree, overlaid with MEDIAGATE_* environment variables, then resolved into
// validated WebSocket settings with documented defaults.

package control

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/momentics/mediagate/api"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MEDIAGATE_"

// WebSocketConfig is kept as raw text so an unparsable value can be told apart
// from an absent one: absent falls back silently to the default with a warning,
// unparsable is reported as a ConfigurationError before falling back.
type WebSocketConfig struct {
	Port         *string `yaml:"port" env:"PORT"`
	Path         *string `yaml:"path" env:"PATH"`
	Threads      *string `yaml:"threads" env:"THREADS"`
	WriteTimeout *string `yaml:"writeTimeout" env:"WRITE_TIMEOUT"`
	ReadLimit    *string `yaml:"readLimit" env:"READ_LIMIT"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

type MetricsConfig struct {
	Address string `yaml:"address" env:"ADDR"`
}

// Config mirrors mediaServer.net.websocket.* plus the front-end's own sections.
type Config struct {
	MediaServer struct {
		Net struct {
			WebSocket WebSocketConfig `yaml:"websocket" envPrefix:"WS_"`
		} `yaml:"net"`
	} `yaml:"mediaServer"`
	Log     LogConfig     `yaml:"log" envPrefix:"LOG_"`
	Metrics MetricsConfig `yaml:"metrics" envPrefix:"METRICS_"`
}

// WebSocket is a shortcut to the nested websocket section.
func (c *Config) WebSocket() *WebSocketConfig {
	return &c.MediaServer.Net.WebSocket
}

// LoadFile reads path as YAML. An empty path yields an empty Config.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays MEDIAGATE_* variables onto cfg.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads the optional file and applies environment overrides. A missing
// file is not an error when optional is true.
func Load(path string, optional bool) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		if !(optional && errors.Is(err, fs.ErrNotExist)) {
			return nil, err
		}
		cfg = &Config{}
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolved holds the final WebSocket front-end settings.
type Resolved struct {
	Port         int
	Path         string
	Threads      int
	WriteTimeout time.Duration
	ReadLimit    int64
}

// Resolve validates the websocket section. Absent or invalid values are replaced
// by their defaults and reported through log; the returned errors list every
// invalid value so callers can surface them.
func Resolve(cfg *Config, log *slog.Logger) (Resolved, []error) {
	if log == nil {
		log = slog.Default()
	}
	ws := cfg.WebSocket()
	var problems []error
	res := Resolved{
		Port:         api.DefaultPort,
		Path:         api.DefaultPath,
		Threads:      api.DefaultThreads,
		WriteTimeout: api.DefaultWriteTimeout,
		ReadLimit:    api.DefaultReadLimit,
	}

	if port, err := resolveInt(ws.Port, "port", api.ValidatePort); err != nil {
		problems = append(problems, err)
		log.Warn("Setting default port to websocket", "port", api.DefaultPort, "error", err)
	} else if port == nil {
		log.Warn("Setting default port to websocket", "port", api.DefaultPort)
	} else {
		res.Port = *port
	}

	if ws.Path == nil {
		log.Warn("Setting default path to websocket", "path", api.DefaultPath)
	} else if err := api.ValidatePath(*ws.Path); err != nil {
		problems = append(problems, err)
		log.Warn("Setting default path to websocket", "path", api.DefaultPath, "error", err)
	} else {
		res.Path = *ws.Path
	}

	if threads, err := resolveInt(ws.Threads, "threads", api.ValidateThreads); err != nil {
		problems = append(problems, err)
		log.Warn("Setting default listener threads to websocket", "threads", api.DefaultThreads, "error", err)
	} else if threads == nil {
		log.Warn("Setting default listener threads to websocket", "threads", api.DefaultThreads)
	} else {
		res.Threads = *threads
	}

	// The write and read bounds are optional; only invalid values are reported.
	if ws.WriteTimeout != nil {
		d, err := time.ParseDuration(strings.TrimSpace(*ws.WriteTimeout))
		if err != nil {
			err = &api.ConfigurationError{Key: "writeTimeout", Value: *ws.WriteTimeout, Reason: "not a duration"}
		} else {
			err = api.ValidateWriteTimeout(d)
		}
		if err != nil {
			problems = append(problems, err)
			log.Warn("Setting default write timeout to websocket", "writeTimeout", api.DefaultWriteTimeout, "error", err)
		} else {
			res.WriteTimeout = d
		}
	}
	if ws.ReadLimit != nil {
		n, err := strconv.ParseInt(strings.TrimSpace(*ws.ReadLimit), 10, 64)
		if err != nil {
			err = &api.ConfigurationError{Key: "readLimit", Value: *ws.ReadLimit, Reason: "not an integer"}
		} else {
			err = api.ValidateReadLimit(n)
		}
		if err != nil {
			problems = append(problems, err)
			log.Warn("Setting default read limit to websocket", "readLimit", api.DefaultReadLimit, "error", err)
		} else {
			res.ReadLimit = n
		}
	}
	return res, problems
}

func resolveInt(raw *string, key string, validate func(int) error) (*int, error) {
	if raw == nil {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(*raw))
	if err != nil {
		return nil, &api.ConfigurationError{Key: key, Value: *raw, Reason: "not an integer"}
	}
	if err := validate(n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ConfigStore holds the current Config and notifies listeners when it changes.
type ConfigStore struct {
	mu        sync.RWMutex
	config    *Config
	listeners []func(old, cur *Config)
}

// NewConfigStore initializes a store with cfg as the current value.
func NewConfigStore(cfg *Config) *ConfigStore {
	if cfg == nil {
		cfg = &Config{}
	}
	return &ConfigStore{config: cfg}
}

// Current returns the active configuration. Callers must not mutate it.
func (cs *ConfigStore) Current() *Config {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.config
}

// Update swaps in cfg and runs every listener synchronously, in registration order.
func (cs *ConfigStore) Update(cfg *Config) {
	cs.mu.Lock()
	old := cs.config
	cs.config = cfg
	listeners := append([]func(old, cur *Config){}, cs.listeners...)
	cs.mu.Unlock()

	for _, fn := range listeners {
		fn(old, cfg)
	}
}

// OnReload registers a listener called after each Update.
func (cs *ConfigStore) OnReload(fn func(old, cur *Config)) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}
