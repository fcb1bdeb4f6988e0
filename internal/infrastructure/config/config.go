package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/gray-logic-codec/internal/codec/bitbuf"
)

// Config is the root configuration structure for the codec service.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Codec     CodecConfig     `yaml:"codec"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
}

// CodecConfig tunes decoding.
type CodecConfig struct {
	// ByteOrder applies to Modbus multi-register values: big-endian,
	// little-endian, big-endian-byte-swap, little-endian-byte-swap (or ABCD,
	// DCBA, BADC, CDAB).
	ByteOrder string `yaml:"byte_order"`

	// Workers bounds concurrent decodes in a batch.
	Workers int `yaml:"workers"`

	// MaxBatch bounds the fields in one batch request.
	MaxBatch int `yaml:"max_batch"`
}

// CatalogConfig locates the datapoint seed file.
type CatalogConfig struct {
	// Path is a YAML seed upserted into the catalog at startup. Optional.
	Path string `yaml:"path"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
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

// MQTTReconnectConfig contains MQTT reconnection settings, in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// PipelineConfig controls the MQTT decode pipeline.
type PipelineConfig struct {
	// TopicPrefix is the first level of every pipeline topic.
	TopicPrefix string `yaml:"topic_prefix"`

	// KNXD enables ingest of knxd-framed group packets on
	// {prefix}/knxd.
	KNXD bool `yaml:"knxd"`

	// KNXDURL attaches directly to a knxd group socket
	// ("unix:///run/knxd", "tcp://host:6720") and decodes every telegram
	// for a catalogued group address. Empty disables it.
	KNXDURL string `yaml:"knxd_url"`

	// CBOR also publishes each value as a CBOR envelope.
	CBOR bool `yaml:"cbor"`
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

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings, in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig contains settings for the live value stream.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string            `yaml:"level"`
	Format string            `yaml:"format"`
	Output string            `yaml:"output"`
	File   FileLoggingConfig `yaml:"file"`
}

// FileLoggingConfig contains rotated log file settings. Sizes are in
// megabytes, ages in days.
type FileLoggingConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// SecurityConfig contains API authentication settings.
type SecurityConfig struct {
	// Enabled requires a bearer token on catalog writes and encode requests.
	Enabled bool        `yaml:"enabled"`
	JWT     JWTConfig   `yaml:"jwt"`
	Clients []APIClient `yaml:"clients"`
}

// JWTConfig contains JWT token settings.
type JWTConfig struct {
	Secret         string `yaml:"secret"`
	AccessTokenTTL int    `yaml:"access_token_ttl"` // minutes
}

// APIClient is a machine client allowed to request tokens.
type APIClient struct {
	ID string `yaml:"id"`

	// SecretHash is an Argon2id PHC string produced by auth.HashSecret.
	SecretHash string `yaml:"secret_hash"`

	// Scopes granted to the client's tokens: "read", "write".
	Scopes []string `yaml:"scopes"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values
//  2. YAML file values
//  3. Environment variables (PLCCODEC_SECTION_KEY)
//
// An empty path skips step 2.
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // path comes from the command line
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Codec: CodecConfig{
			ByteOrder: "big-endian",
			Workers:   8,
			MaxBatch:  1000,
		},
		Database: DatabaseConfig{
			Path:        "./data/plccodec.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "plccodec",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Pipeline: PipelineConfig{
			TopicPrefix: "plccodec",
			CBOR:        true,
		},
		InfluxDB: InfluxDBConfig{
			Org:           "plccodec",
			Bucket:        "datapoints",
			BatchSize:     100,
			FlushInterval: 10,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
			File: FileLoggingConfig{
				MaxSize:    100,
				MaxBackups: 5,
				MaxAge:     30,
			},
		},
		Security: SecurityConfig{
			JWT: JWTConfig{AccessTokenTTL: 15},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	envString("PLCCODEC_CODEC_BYTE_ORDER", &cfg.Codec.ByteOrder)
	envInt("PLCCODEC_CODEC_WORKERS", &cfg.Codec.Workers)
	envString("PLCCODEC_CATALOG_PATH", &cfg.Catalog.Path)
	envString("PLCCODEC_DATABASE_PATH", &cfg.Database.Path)

	envBool("PLCCODEC_MQTT_ENABLED", &cfg.MQTT.Enabled)
	envString("PLCCODEC_MQTT_HOST", &cfg.MQTT.Broker.Host)
	envInt("PLCCODEC_MQTT_PORT", &cfg.MQTT.Broker.Port)
	envString("PLCCODEC_MQTT_USERNAME", &cfg.MQTT.Auth.Username)
	envString("PLCCODEC_MQTT_PASSWORD", &cfg.MQTT.Auth.Password)

	envString("PLCCODEC_PIPELINE_KNXD_URL", &cfg.Pipeline.KNXDURL)

	envBool("PLCCODEC_INFLUXDB_ENABLED", &cfg.InfluxDB.Enabled)
	envString("PLCCODEC_INFLUXDB_URL", &cfg.InfluxDB.URL)
	envString("PLCCODEC_INFLUXDB_TOKEN", &cfg.InfluxDB.Token)

	envString("PLCCODEC_API_HOST", &cfg.API.Host)
	envInt("PLCCODEC_API_PORT", &cfg.API.Port)

	envString("PLCCODEC_LOGGING_LEVEL", &cfg.Logging.Level)
	envString("PLCCODEC_LOGGING_FILE", &cfg.Logging.File.Path)

	envString("PLCCODEC_JWT_SECRET", &cfg.Security.JWT.Secret)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if _, err := bitbuf.ParseByteOrder(c.Codec.ByteOrder); err != nil {
		errs = append(errs, fmt.Sprintf("codec.byte_order: %v", err))
	}
	if c.Codec.Workers < 1 {
		errs = append(errs, "codec.workers must be at least 1")
	}
	if c.Codec.MaxBatch < 1 {
		errs = append(errs, "codec.max_batch must be at least 1")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
	}
	if c.Pipeline.TopicPrefix == "" || strings.ContainsAny(c.Pipeline.TopicPrefix, "+#") {
		errs = append(errs, "pipeline.topic_prefix must be non-empty and free of wildcards")
	}
	if c.Pipeline.KNXDURL != "" && !c.MQTT.Enabled {
		errs = append(errs, "pipeline.knxd_url requires mqtt to be enabled")
	}

	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url and influxdb.bucket are required when influxdb is enabled")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}
	if c.API.TLS.Enabled && (c.API.TLS.CertFile == "" || c.API.TLS.KeyFile == "") {
		errs = append(errs, "api.tls.cert_file and api.tls.key_file are required when tls is enabled")
	}

	switch strings.ToLower(c.Logging.Output) {
	case "stdout", "stderr":
	case "file":
		if c.Logging.File.Path == "" {
			errs = append(errs, "logging.file.path is required when logging.output is file")
		}
	default:
		errs = append(errs, "logging.output must be stdout, stderr, or file")
	}

	if c.Security.Enabled {
		const minJWTSecretLength = 32
		if len(c.Security.JWT.Secret) < minJWTSecretLength {
			errs = append(errs, "security.jwt.secret must be at least 32 characters (set PLCCODEC_JWT_SECRET)")
		}
		for i, client := range c.Security.Clients {
			if client.ID == "" || client.SecretHash == "" {
				errs = append(errs, fmt.Sprintf("security.clients[%d] needs id and secret_hash", i))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ByteOrder returns the parsed codec byte order. Validate has already
// rejected unknown names.
func (c *Config) ByteOrder() bitbuf.ByteOrder {
	order, _ := bitbuf.ParseByteOrder(c.Codec.ByteOrder) //nolint:errcheck // validated in Validate
	return order
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
