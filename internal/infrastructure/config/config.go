package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Containment models understood by the item store.
const (
	ContainmentSemantic = "semantic"
	ContainmentGroup    = "group"
	ContainmentAlias    = "alias"
)

// Config is the root configuration structure for Gray Logic Voice.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	OpenHAB  OpenHABConfig  `yaml:"openhab"`
	Voice    VoiceConfig    `yaml:"voice"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	API      APIConfig      `yaml:"api"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// OpenHABConfig describes the backing home-automation server and how its
// item graph is interpreted.
type OpenHABConfig struct {
	URL string `yaml:"url"`

	// Language selects the tag synonym resource (tags_<language>.properties).
	Language string `yaml:"language"`

	// DefaultRoom is the spoken room name used when a request carries no room
	// and the satellite has no room of its own.
	DefaultRoom string `yaml:"default_room"`

	// Containment selects the containment model: semantic, group or alias.
	Containment string `yaml:"containment"`

	// AttributesURL points at the external alias/location attribute document.
	// Only read when Containment is "alias".
	AttributesURL string `yaml:"attributes_url,omitempty"`

	// TagsDir overrides the embedded tag synonym resources when set.
	TagsDir string `yaml:"tags_dir,omitempty"`

	// Timeout is the per-request HTTP timeout in seconds.
	Timeout int `yaml:"timeout"`
}

// VoiceConfig contains settings for the voice assistant session layer.
type VoiceConfig struct {
	Enabled bool `yaml:"enabled"`

	// IntentPrefix is the user namespace of the assistant's intents
	// (e.g. "Alpha200" for "Alpha200:switchDeviceOn").
	IntentPrefix string `yaml:"intent_prefix"`

	// SoundFeedback plays a success sound instead of speaking a sentence.
	SoundFeedback bool `yaml:"sound_feedback"`

	// SuccessSound is the WAV file registered as the success sound.
	SuccessSound string `yaml:"success_sound,omitempty"`

	// SiteRooms maps satellite site IDs to spoken room names.
	SiteRooms map[string]string `yaml:"site_rooms,omitempty"`

	// SnipsConfig is the optional platform file holding broker settings
	// (usually /etc/snips.toml). Values found there override the mqtt section.
	SnipsConfig string `yaml:"snips_config,omitempty"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// snipsPlatform mirrors the parts of snips.toml we care about.
type snipsPlatform struct {
	Common struct {
		MQTT         string `toml:"mqtt"`
		MQTTUsername string `toml:"mqtt_username"`
		MQTTPassword string `toml:"mqtt_password"`
	} `toml:"snips-common"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Snips platform file, if voice.snips_config is set
//  4. Environment variables (override everything above)
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If a file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.Voice.SnipsConfig != "" {
		if err := applySnipsPlatform(cfg, cfg.Voice.SnipsConfig); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		OpenHAB: OpenHABConfig{
			URL:         "http://localhost:8080",
			Language:    "de",
			Containment: ContainmentSemantic,
			Timeout:     10,
		},
		Voice: VoiceConfig{
			Enabled:      true,
			IntentPrefix: "Alpha200",
		},
		Database: DatabaseConfig{
			Path:        "./data/graylogic-voice.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graylogic-voice",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8090,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applySnipsPlatform copies broker settings from the Snips platform file.
// A missing file is not an error: the assistant may run without the platform.
func applySnipsPlatform(cfg *Config, path string) error {
	var platform snipsPlatform
	if _, err := toml.DecodeFile(path, &platform); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("parsing snips platform file: %w", err)
	}

	if addr := platform.Common.MQTT; addr != "" {
		host, port, err := splitHostPort(addr)
		if err != nil {
			return fmt.Errorf("snips-common.mqtt: %w", err)
		}
		cfg.MQTT.Broker.Host = host
		cfg.MQTT.Broker.Port = port
	}
	if platform.Common.MQTTUsername != "" {
		cfg.MQTT.Auth.Username = platform.Common.MQTTUsername
		cfg.MQTT.Auth.Password = platform.Common.MQTTPassword
	}
	return nil
}

// splitHostPort parses "host:port" with a default MQTT port when omitted.
func splitHostPort(addr string) (string, int, error) {
	host, portStr, found := strings.Cut(addr, ":")
	if !found {
		return host, 1883, nil
	}
	var port int
	if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil {
		return "", 0, fmt.Errorf("invalid port %q", portStr)
	}
	return host, port, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GRAYLOGIC_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// openHAB
	if v := os.Getenv("GRAYLOGIC_OPENHAB_URL"); v != "" {
		cfg.OpenHAB.URL = v
	}
	if v := os.Getenv("GRAYLOGIC_DEFAULT_ROOM"); v != "" {
		cfg.OpenHAB.DefaultRoom = v
	}

	// Voice
	if v := os.Getenv("GRAYLOGIC_SOUND_FEEDBACK"); v != "" {
		cfg.Voice.SoundFeedback = v == "on" || v == "true"
	}

	// Database
	if v := os.Getenv("GRAYLOGIC_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("GRAYLOGIC_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GRAYLOGIC_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GRAYLOGIC_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("GRAYLOGIC_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.OpenHAB.URL == "" {
		errs = append(errs, "openhab.url is required")
	} else if u, err := url.Parse(c.OpenHAB.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, "openhab.url must be an absolute URL")
	}

	if c.OpenHAB.Language == "" {
		errs = append(errs, "openhab.language is required")
	}

	switch c.OpenHAB.Containment {
	case ContainmentSemantic, ContainmentGroup:
	case ContainmentAlias:
		if c.OpenHAB.AttributesURL == "" {
			errs = append(errs, "openhab.attributes_url is required for the alias containment model")
		}
	default:
		errs = append(errs, "openhab.containment must be semantic, group, or alias")
	}

	if c.OpenHAB.Timeout < 0 {
		errs = append(errs, "openhab.timeout must not be negative")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.Voice.Enabled && c.Voice.IntentPrefix == "" {
		errs = append(errs, "voice.intent_prefix is required when voice is enabled")
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// RequestTimeout returns the openHAB request timeout as a Duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.OpenHAB.Timeout) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
