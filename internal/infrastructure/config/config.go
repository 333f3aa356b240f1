package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. VENTAS_DATABASE_DRIVER
const EnvPrefix = "VENTAS"

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Offline   OfflineConfig
	Ledger    LedgerConfig
	Printing  PrintingConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	HeartbeatInterval time.Duration // SSE keep-alive
	MaxStreams        int
	TrustedProxies    []string
	CORSOrigins       []string
	// Per-client limit on worker message posts; zero disables it
	MessageRatePerMinute int
	MessageRateBurst     int
	// API docs under /swagger; an empty list admits every client
	SwaggerEnabled    bool
	SwaggerAllowedIPs []string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // sqlite, postgres
	Path            string // sqlite file, ":memory:" allowed
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// StorageConfig holds S3-compatible object storage settings
type StorageConfig struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	KeyPrefix       string
}

// OfflineConfig holds the offline cache gateway settings
type OfflineConfig struct {
	CachePrefix       string
	CacheBackend      string // memory, sqlite, redis, s3, file
	CacheDir          string // file backend root
	UpstreamURL       string
	Manifest          []string
	UpdatePolicy      string // eager, deferred
	Version           string // overrides the build tag
	BackgroundTimeout time.Duration
	MaxCacheableBytes int64
	FetchConcurrency  int
	Relay             string // none, redis
	RelayChannel      string
	RecordPath        string // ventasctl watch version record
}

// LedgerConfig holds ledger policy settings
type LedgerConfig struct {
	ResetPaidOnRevert bool
	CurrencyLocale    string
	TimeZone          string
}

// PrintingConfig holds PDF rendering settings
type PrintingConfig struct {
	Enabled   bool
	RemoteURL string
	Timeout   time.Duration
	NoSandbox bool
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	ServiceName       string
	CollectorEndpoint string
	Insecure          bool
	SamplingRatio     float64
	MetricsInterval   time.Duration
	LogsEnabled       bool
	DBTraceEnabled    bool
	Profiling         ProfilingConfig
}

// ProfilingConfig holds Pyroscope continuous profiling settings
type ProfilingConfig struct {
	Enabled           bool
	ServerAddress     string
	ApplicationName   string
	BasicAuthUser     string
	BasicAuthPassword string
	ProfileTypes      []string // cpu, alloc_objects, alloc_space, inuse_objects, inuse_space, goroutines, mutex, block
	SpanProfiles      bool     // link CPU samples to trace spans
}

var (
	validDrivers  = []string{"sqlite", "postgres"}
	validBackends = []string{"memory", "sqlite", "redis", "s3", "file"}
	validPolicies = []string{"eager", "deferred"}
	validRelays   = []string{"none", "redis"}
)

// Load loads configuration from config.toml and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with VENTAS_ prefix (e.g., VENTAS_OFFLINE_UPSTREAM_URL)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path searches
// the working directory and /etc/ventas.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/ventas")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			ShutdownTimeout:   v.GetDuration("http.shutdown_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			HeartbeatInterval: v.GetDuration("http.heartbeat_interval"),
			MaxStreams:        v.GetInt("http.max_streams"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
			CORSOrigins:       v.GetStringSlice("http.cors_origins"),

			MessageRatePerMinute: intOr(v, "http.message_rate_per_minute", 120),
			MessageRateBurst:     v.GetInt("http.message_rate_burst"),
			SwaggerEnabled:       v.GetBool("http.swagger_enabled"),
			SwaggerAllowedIPs:    v.GetStringSlice("http.swagger_allowed_ips"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Path:            v.GetString("database.path"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Storage: StorageConfig{
			Endpoint:        v.GetString("storage.endpoint"),
			Region:          v.GetString("storage.region"),
			Bucket:          v.GetString("storage.bucket"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
			KeyPrefix:       v.GetString("storage.key_prefix"),
		},
		Offline: OfflineConfig{
			CachePrefix:       v.GetString("offline.cache_prefix"),
			CacheBackend:      v.GetString("offline.cache_backend"),
			CacheDir:          v.GetString("offline.cache_dir"),
			UpstreamURL:       v.GetString("offline.upstream_url"),
			Manifest:          v.GetStringSlice("offline.manifest"),
			UpdatePolicy:      v.GetString("offline.update_policy"),
			Version:           v.GetString("offline.version"),
			BackgroundTimeout: v.GetDuration("offline.background_timeout"),
			MaxCacheableBytes: v.GetInt64("offline.max_cacheable_bytes"),
			FetchConcurrency:  v.GetInt("offline.fetch_concurrency"),
			Relay:             v.GetString("offline.relay"),
			RelayChannel:      v.GetString("offline.relay_channel"),
			RecordPath:        v.GetString("offline.record_path"),
		},
		Ledger: LedgerConfig{
			ResetPaidOnRevert: v.GetBool("ledger.reset_paid_on_revert"),
			CurrencyLocale:    v.GetString("ledger.currency_locale"),
			TimeZone:          v.GetString("ledger.time_zone"),
		},
		Printing: PrintingConfig{
			Enabled:   v.GetBool("printing.enabled"),
			RemoteURL: v.GetString("printing.remote_url"),
			Timeout:   v.GetDuration("printing.timeout"),
			NoSandbox: v.GetBool("printing.no_sandbox"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			ServiceName:       v.GetString("telemetry.service_name"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			Insecure:          v.GetBool("telemetry.insecure"),
			SamplingRatio:     floatOr(v, "telemetry.sampling_ratio", 1.0),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			Profiling: ProfilingConfig{
				Enabled:           v.GetBool("telemetry.profiling.enabled"),
				ServerAddress:     v.GetString("telemetry.profiling.server_address"),
				ApplicationName:   v.GetString("telemetry.profiling.application_name"),
				BasicAuthUser:     v.GetString("telemetry.profiling.basic_auth_user"),
				BasicAuthPassword: v.GetString("telemetry.profiling.basic_auth_password"),
				ProfileTypes:      v.GetStringSlice("telemetry.profiling.profile_types"),
				SpanProfiles:      v.GetBool("telemetry.profiling.span_profiles"),
			},
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "ventas"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	// SSE streams stay open, so no write deadline by default
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20
	}
	if cfg.HTTP.HeartbeatInterval == 0 {
		cfg.HTTP.HeartbeatInterval = 25 * time.Second
	}
	if cfg.HTTP.MaxStreams == 0 {
		cfg.HTTP.MaxStreams = 1000
	}
	if cfg.HTTP.MessageRateBurst == 0 {
		cfg.HTTP.MessageRateBurst = 20
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "ventas.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "ventas"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.KeyPrefix == "" {
		cfg.Storage.KeyPrefix = "offline-cache"
	}
	if cfg.Offline.CachePrefix == "" {
		cfg.Offline.CachePrefix = "ventas"
	}
	if cfg.Offline.CacheBackend == "" {
		cfg.Offline.CacheBackend = "memory"
	}
	if cfg.Offline.CacheDir == "" {
		cfg.Offline.CacheDir = "cache"
	}
	if cfg.Offline.UpdatePolicy == "" {
		cfg.Offline.UpdatePolicy = "eager"
	}
	if cfg.Offline.BackgroundTimeout == 0 {
		cfg.Offline.BackgroundTimeout = 30 * time.Second
	}
	if cfg.Offline.MaxCacheableBytes == 0 {
		cfg.Offline.MaxCacheableBytes = 8 << 20
	}
	if cfg.Offline.FetchConcurrency == 0 {
		cfg.Offline.FetchConcurrency = 4
	}
	if cfg.Offline.Relay == "" {
		cfg.Offline.Relay = "none"
	}
	if cfg.Offline.RelayChannel == "" {
		cfg.Offline.RelayChannel = "ventas:sw:messages"
	}
	if cfg.Offline.RecordPath == "" {
		cfg.Offline.RecordPath = ".ventas-version"
	}
	if cfg.Ledger.CurrencyLocale == "" {
		cfg.Ledger.CurrencyLocale = "es-US"
	}
	if cfg.Ledger.TimeZone == "" {
		cfg.Ledger.TimeZone = "Local"
	}
	if cfg.Printing.Timeout == 0 {
		cfg.Printing.Timeout = 30 * time.Second
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
	if cfg.Telemetry.Profiling.ApplicationName == "" {
		cfg.Telemetry.Profiling.ApplicationName = cfg.Telemetry.ServiceName
	}
	if len(cfg.Telemetry.Profiling.ProfileTypes) == 0 {
		cfg.Telemetry.Profiling.ProfileTypes = []string{"cpu", "alloc_space", "inuse_space"}
	}
}

// floatOr distinguishes an explicit zero from an unset key
func floatOr(v *viper.Viper, key string, def float64) float64 {
	if !v.IsSet(key) {
		return def
	}
	return v.GetFloat64(key)
}

func intOr(v *viper.Viper, key string, def int) int {
	if !v.IsSet(key) {
		return def
	}
	return v.GetInt(key)
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if err := oneOf("database.driver", c.Database.Driver, validDrivers); err != nil {
		return err
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if err := oneOf("offline.cache_backend", c.Offline.CacheBackend, validBackends); err != nil {
		return err
	}
	if err := oneOf("offline.update_policy", c.Offline.UpdatePolicy, validPolicies); err != nil {
		return err
	}
	if err := oneOf("offline.relay", c.Offline.Relay, validRelays); err != nil {
		return err
	}
	if strings.ContainsAny(c.Offline.CachePrefix, " /") {
		return fmt.Errorf("offline.cache_prefix %q must not contain spaces or slashes", c.Offline.CachePrefix)
	}
	if c.Offline.UpstreamURL != "" {
		u, err := url.Parse(c.Offline.UpstreamURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("offline.upstream_url must be an absolute URL, got %q", c.Offline.UpstreamURL)
		}
	}
	if c.Offline.CacheBackend == "s3" && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required for the s3 cache backend")
	}
	if c.Offline.MaxCacheableBytes < 0 {
		return fmt.Errorf("offline.max_cacheable_bytes cannot be negative")
	}

	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0 and 1")
	}
	if c.Telemetry.Profiling.Enabled && c.Telemetry.Profiling.ServerAddress == "" {
		return fmt.Errorf("telemetry.profiling.server_address is required when profiling is enabled")
	}
	for _, ip := range c.HTTP.SwaggerAllowedIPs {
		if !validIPOrCIDR(ip) {
			return fmt.Errorf("http.swagger_allowed_ips: %q is neither an IP nor a CIDR", ip)
		}
	}

	if _, err := c.Ledger.Location(); err != nil {
		return fmt.Errorf("ledger.time_zone: %w", err)
	}

	if c.App.Env == "production" {
		if c.Database.Driver == "postgres" && c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Offline.UpstreamURL == "" {
			return fmt.Errorf("offline.upstream_url is required in production")
		}
	}
	return nil
}

func validIPOrCIDR(s string) bool {
	if net.ParseIP(s) != nil {
		return true
	}
	_, _, err := net.ParseCIDR(s)
	return err == nil
}

func oneOf(key, value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s, got %q", key, strings.Join(allowed, ", "), value)
}

// IsProduction reports whether the app runs in production mode
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// Location returns the report time zone
func (l LedgerConfig) Location() (*time.Location, error) {
	if l.TimeZone == "" || l.TimeZone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(l.TimeZone)
}

// DSN returns the connection string for the configured driver
func (d *DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
