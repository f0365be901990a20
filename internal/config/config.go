// Package config loads the agent and server process configuration. It
// follows the teacher's UserConfig/Config split (server/conf.go): a
// TOML-serializable user-facing struct with environment-variable overrides
// for the values most often set by a process supervisor, converted to the
// concrete config a component needs.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml"
)

// ServerConfig is the fully-resolved configuration for cmd/mapcarta-server.
type ServerConfig struct {
	Host      string
	Port      int
	AuthToken string
	DataDir   string
	LogLevel  slog.Level
}

// AgentConfig is the fully-resolved configuration for cmd/mapcarta-agent.
type AgentConfig struct {
	ServerURL string
	AuthToken string
	LogLevel  slog.Level
}

// ServerUserConfig is the on-disk TOML shape for the server process,
// matching the teacher's UserConfig-to-Config pattern.
type ServerUserConfig struct {
	Network struct {
		Host string
		Port int
	}
	Auth struct {
		Token string
	}
	Storage struct {
		DataDir string
	}
	Logging struct {
		Level string
	}
}

// AgentUserConfig is the on-disk TOML shape for the agent process.
type AgentUserConfig struct {
	Server struct {
		URL   string
		Token string
	}
	Logging struct {
		Level string
	}
}

// DefaultServerUserConfig returns a ServerUserConfig with default values
// filled out, mirroring the teacher's DefaultConfig.
func DefaultServerUserConfig() ServerUserConfig {
	c := ServerUserConfig{}
	c.Network.Host = "0.0.0.0"
	c.Network.Port = 8080
	c.Storage.DataDir = "data"
	c.Logging.Level = "info"
	return c
}

// DefaultAgentUserConfig returns an AgentUserConfig with default values
// filled out.
func DefaultAgentUserConfig() AgentUserConfig {
	c := AgentUserConfig{}
	c.Server.URL = "http://127.0.0.1:8080"
	c.Logging.Level = "info"
	return c
}

// LoadServerConfig reads a TOML file at path (creating it with defaults if
// absent, as the teacher's whitelist loader does), then applies
// PORT/HOST/AUTH_TOKEN/DATA_DIR/LOG_LEVEL environment overrides.
func LoadServerConfig(path string) (ServerConfig, error) {
	uc, err := loadOrCreateTOML(path, DefaultServerUserConfig())
	if err != nil {
		return ServerConfig{}, fmt.Errorf("config: load server config: %w", err)
	}

	if v := os.Getenv("HOST"); v != "" {
		uc.Network.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("config: invalid PORT %q: %w", v, err)
		}
		uc.Network.Port = p
	}
	if v := os.Getenv("AUTH_TOKEN"); v != "" {
		uc.Auth.Token = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		uc.Storage.DataDir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		uc.Logging.Level = v
	}

	level, err := parseLevel(uc.Logging.Level)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("config: %w", err)
	}
	if uc.Storage.DataDir == "" {
		return ServerConfig{}, fmt.Errorf("config: storage.data_dir must not be empty")
	}

	return ServerConfig{
		Host:      uc.Network.Host,
		Port:      uc.Network.Port,
		AuthToken: uc.Auth.Token,
		DataDir:   uc.Storage.DataDir,
		LogLevel:  level,
	}, nil
}

// LoadAgentConfig reads a TOML file at path (creating it with defaults if
// absent), then applies SERVER_URL/AUTH_TOKEN/LOG_LEVEL environment
// overrides.
func LoadAgentConfig(path string) (AgentConfig, error) {
	uc, err := loadOrCreateTOML(path, DefaultAgentUserConfig())
	if err != nil {
		return AgentConfig{}, fmt.Errorf("config: load agent config: %w", err)
	}

	if v := os.Getenv("SERVER_URL"); v != "" {
		uc.Server.URL = v
	}
	if v := os.Getenv("AUTH_TOKEN"); v != "" {
		uc.Server.Token = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		uc.Logging.Level = v
	}

	level, err := parseLevel(uc.Logging.Level)
	if err != nil {
		return AgentConfig{}, fmt.Errorf("config: %w", err)
	}
	if strings.TrimSpace(uc.Server.URL) == "" {
		return AgentConfig{}, fmt.Errorf("config: server.url must not be empty")
	}

	return AgentConfig{
		ServerURL: uc.Server.URL,
		AuthToken: uc.Server.Token,
		LogLevel:  level,
	}, nil
}

// loadOrCreateTOML decodes the TOML file at path into a copy of def. If the
// file does not exist, it writes def out as the new file and returns def
// unchanged, matching the teacher's whitelist reload-or-create behavior
// (server/whitelist.go's reloadLocked/writeLocked): toml.Marshal is always
// called on a plain value, never a pointer, exactly as the teacher calls it.
func loadOrCreateTOML[T any](path string, def T) (T, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			encoded, merr := toml.Marshal(def)
			if merr != nil {
				return def, fmt.Errorf("encode default config: %w", merr)
			}
			if werr := os.WriteFile(path, encoded, 0644); werr != nil {
				return def, fmt.Errorf("write default config: %w", werr)
			}
			return def, nil
		}
		return def, fmt.Errorf("read config: %w", err)
	}
	if len(contents) == 0 {
		return def, nil
	}
	if err := toml.Unmarshal(contents, &def); err != nil {
		return def, fmt.Errorf("decode config: %w", err)
	}
	return def, nil
}

// levelTrace and levelFatal extend slog's four standard levels to cover
// spec.md §6's full LOG_LEVEL enum, following slog's convention of
// offsetting by 4 per step (slog.LevelDebug-4 is one step more verbose than
// Debug; slog.LevelError+4 is one step more severe than Error).
const (
	levelTrace = slog.LevelDebug - 4
	levelFatal = slog.LevelError + 4
)

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return levelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	case "fatal":
		return levelFatal, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}
