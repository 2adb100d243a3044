// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig               `mapstructure:"app"`
	Camunda   CamundaConfig           `mapstructure:"camunda"`
	Database  DatabaseConfig          `mapstructure:"database"`
	Workers   map[string]WorkerConfig `mapstructure:"workers"`
	Logging   LoggingConfig           `mapstructure:"logging"`
	Push      PushConfig              `mapstructure:"push"`
	Directory DirectoryConfig         `mapstructure:"directory"`
	Dedupe    DedupeConfig            `mapstructure:"dedupe"`
	Audit     AuditConfig             `mapstructure:"audit"`
	Server    ServerConfig            `mapstructure:"server"`
	Tracing   TracingConfig           `mapstructure:"tracing"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress          string `mapstructure:"broker_address"`
	UsePlaintextConnection bool   `mapstructure:"use_plaintext"`
	ConnectionTimeout      int    `mapstructure:"connection_timeout"` // milliseconds
	RequestTimeout         int    `mapstructure:"request_timeout"`    // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // job retries handed back to the engine
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// PushConfig holds settings for the Firebase Cloud Messaging gateway.
type PushConfig struct {
	Firebase struct {
		ProjectID       string `mapstructure:"project_id"`
		CredentialsFile string `mapstructure:"credentials_file"`
	} `mapstructure:"firebase"`
	DispatchTimeout int `mapstructure:"dispatch_timeout"` // milliseconds
}

// DirectoryConfig holds settings for the supervisor directory.
type DirectoryConfig struct {
	Table          string `mapstructure:"table"`
	ReadTimeout    int    `mapstructure:"read_timeout"`    // milliseconds
	CleanupTimeout int    `mapstructure:"cleanup_timeout"` // milliseconds
}

// DedupeConfig holds settings for the redelivery guard.
type DedupeConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	KeyPrefix string `mapstructure:"key_prefix"`
	TTL       int    `mapstructure:"ttl"` // seconds
}

// AuditConfig holds settings for the dispatch audit index.
type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Index   string `mapstructure:"index"`
}

// ServerConfig holds the health/metrics listener.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// TracingConfig holds the OTLP span exporter. An empty endpoint keeps spans in-process.
type TracingConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	Insecure     bool   `mapstructure:"insecure"`
}
