// Package config provides configuration loading and management for the posting sync service.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/posting-sync/internal/telemetry"
)

// EnvPrefix is the prefix for all environment variables read by the service
const EnvPrefix = "POSTING_SYNC"

const (
	// LockBackendPostgres stores leases in the distributed_locks table
	LockBackendPostgres = "postgres"

	// LockBackendRedis stores leases as Redis keys with a TTL
	LockBackendRedis = "redis"

	// LockBackendFile uses OS file locks, only suitable for a single host
	LockBackendFile = "file"
)

const (
	// StalePolicyIgnore only logs postings that were not returned by the provider
	StalePolicyIgnore = "ignore"

	// StalePolicyMarkStale flags postings that were not returned by the provider
	StalePolicyMarkStale = "mark-stale"
)

const (
	defaultSchedule          = "0 3 * * *"
	defaultLockWaitTimeout   = 5 * time.Second
	defaultLockLeaseTimeout  = 10 * time.Minute
	defaultConcurrency       = 1
	defaultHeartbeatInterval = 3 * time.Second
	defaultPushWriteTimeout  = 5 * time.Second
	defaultBatchSize         = 200
	defaultProviderTimeout   = 10 * time.Second
	defaultMaxAttempts       = 3
	defaultGeoKeyPrefix      = "geo:location:"
	defaultLockDir           = "./data/locks"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) && !filepath.IsLocal(realPath) {
			return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Provider      ProviderConfig      `yaml:"provider"`
	Sync          SyncConfig          `yaml:"sync"`
	Lock          LockConfig          `yaml:"lock"`
	Database      *DatabaseConfig     `yaml:"database,omitempty"`
	Redis         *RedisConfig        `yaml:"redis,omitempty"`
	Push          PushConfig          `yaml:"push"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Geo           GeoConfig           `yaml:"geo"`
	Telemetry     *telemetry.Config   `yaml:"telemetry,omitempty"`
}

// ProviderConfig describes how to query the recruiting provider
type ProviderConfig struct {
	// BaseURL is the provider API root, e.g. "https://api.example-jobs.com"
	BaseURL string `yaml:"baseURL"`

	// SearchPath is appended to BaseURL for keyword searches
	SearchPath string `yaml:"searchPath,omitempty"`

	// KeywordParam is the query parameter carrying the keyword
	KeywordParam string `yaml:"keywordParam,omitempty"`

	// APIKeyFile is the path to a file holding a bearer token
	APIKeyFile string `yaml:"apiKeyFile,omitempty"`

	// Timeout bounds a single request attempt (e.g. "10s")
	Timeout string `yaml:"timeout,omitempty"`

	// MaxAttempts is the total number of attempts for transient failures
	MaxAttempts int `yaml:"maxAttempts,omitempty"`

	// RequestsPerSecond limits outbound calls. 0 disables limiting.
	RequestsPerSecond float64 `yaml:"requestsPerSecond,omitempty"`

	// Fields maps response JSON to posting fields using gjson paths
	Fields FieldPaths `yaml:"fields,omitempty"`
}

// FieldPaths are gjson paths into the provider response
type FieldPaths struct {
	Results    string `yaml:"results,omitempty"`
	ExternalID string `yaml:"externalID,omitempty"`
	CompanyID  string `yaml:"companyID,omitempty"`
	Title      string `yaml:"title,omitempty"`
	URL        string `yaml:"url,omitempty"`
	ValidFrom  string `yaml:"validFrom,omitempty"`
	ValidUntil string `yaml:"validUntil,omitempty"`
	LocationID string `yaml:"locationID,omitempty"`
}

// SyncConfig controls the scheduled synchronization
type SyncConfig struct {
	// Keywords are searched once per cycle, each under its own lock
	Keywords []string `yaml:"keywords"`

	// Schedule is a standard five field cron expression evaluated in UTC
	Schedule string `yaml:"schedule,omitempty"`

	// RunOnStart triggers a cycle as soon as the coordinator starts
	RunOnStart bool `yaml:"runOnStart,omitempty"`

	// LockWaitTimeout is how long to wait for a keyword lock (e.g. "5s")
	LockWaitTimeout string `yaml:"lockWaitTimeout,omitempty"`

	// LockLeaseTimeout is how long a keyword lock is held before it expires (e.g. "10m")
	LockLeaseTimeout string `yaml:"lockLeaseTimeout,omitempty"`

	// Concurrency is the number of keywords processed in parallel
	Concurrency int `yaml:"concurrency,omitempty"`

	// StalePolicy decides what happens to postings the provider stopped returning
	StalePolicy string `yaml:"stalePolicy,omitempty"`

	// Operators receive processing-error notifications
	Operators []string `yaml:"operators,omitempty"`
}

// LockConfig selects the distributed lock backend
type LockConfig struct {
	Backend string `yaml:"backend,omitempty"`

	// Dir holds lock files for the file backend
	Dir string `yaml:"dir,omitempty"`

	// KeyPrefix namespaces keys for the redis backend
	KeyPrefix string `yaml:"keyPrefix,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password
	// The file should contain only the password with optional trailing whitespace
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`

	// MaxIdleConns is the minimum number of connections kept in the pool
	MaxIdleConns int32 `yaml:"maxIdleConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`
}

// RedisConfig defines the Redis connection used by the cache and the redis lock backend
type RedisConfig struct {
	Addr         string `yaml:"addr"`
	PasswordFile string `yaml:"passwordFile,omitempty"`
	DB           int    `yaml:"db,omitempty"`
}

// PushConfig controls server-sent event delivery
type PushConfig struct {
	HeartbeatInterval string `yaml:"heartbeatInterval,omitempty"`
	WriteTimeout      string `yaml:"writeTimeout,omitempty"`
}

// NotificationsConfig controls notification persistence
type NotificationsConfig struct {
	BatchSize int `yaml:"batchSize,omitempty"`
}

// GeoConfig controls the location cache warm-up
type GeoConfig struct {
	Enabled   bool   `yaml:"enabled"`
	KeyPrefix string `yaml:"keyPrefix,omitempty"`
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from POSTING_SYNC_DATABASE_PASSWORD environment variable
func (d *DatabaseConfig) GetPassword() (string, error) {
	password, ok, err := readSecret(d.PasswordFile, EnvPrefix+"_DATABASE_PASSWORD")
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf(
			"no database password configured: set passwordFile or %s_DATABASE_PASSWORD environment variable",
			EnvPrefix,
		)
	}
	return password, nil
}

// GetConnectionString builds a PostgreSQL connection URL.
// User and password are escaped as URL userinfo.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Database,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String(), nil
}

// GetPassword returns the Redis password from PasswordFile or POSTING_SYNC_REDIS_PASSWORD.
// An empty password is valid for Redis.
func (r *RedisConfig) GetPassword() (string, error) {
	password, _, err := readSecret(r.PasswordFile, EnvPrefix+"_REDIS_PASSWORD")
	return password, err
}

// GetAPIKey returns the provider API key from APIKeyFile or POSTING_SYNC_PROVIDER_API_KEY.
// An empty key means requests are sent without an Authorization header.
func (p *ProviderConfig) GetAPIKey() (string, error) {
	key, _, err := readSecret(p.APIKeyFile, EnvPrefix+"_PROVIDER_API_KEY")
	return key, err
}

// GetTimeout returns the per-attempt request timeout
func (p *ProviderConfig) GetTimeout() time.Duration {
	return parseDurationOr(p.Timeout, defaultProviderTimeout)
}

// GetMaxAttempts returns the total attempt bound for transient failures
func (p *ProviderConfig) GetMaxAttempts() int {
	if p.MaxAttempts <= 0 {
		return defaultMaxAttempts
	}
	return p.MaxAttempts
}

// GetSchedule returns the cron expression for sync cycles
func (s *SyncConfig) GetSchedule() string {
	if s.Schedule == "" {
		return defaultSchedule
	}
	return s.Schedule
}

// GetLockWaitTimeout returns how long a keyword lock acquisition may block
func (s *SyncConfig) GetLockWaitTimeout() time.Duration {
	return parseDurationOr(s.LockWaitTimeout, defaultLockWaitTimeout)
}

// GetLockLeaseTimeout returns the lease granted for a keyword lock
func (s *SyncConfig) GetLockLeaseTimeout() time.Duration {
	return parseDurationOr(s.LockLeaseTimeout, defaultLockLeaseTimeout)
}

// GetConcurrency returns the number of keywords processed in parallel
func (s *SyncConfig) GetConcurrency() int {
	if s.Concurrency <= 0 {
		return defaultConcurrency
	}
	return s.Concurrency
}

// GetStalePolicy returns the stale policy name, defaulting to mark-stale
func (s *SyncConfig) GetStalePolicy() string {
	if s.StalePolicy == "" {
		return StalePolicyMarkStale
	}
	return s.StalePolicy
}

// GetBackend returns the lock backend, defaulting to postgres
func (l *LockConfig) GetBackend() string {
	if l.Backend == "" {
		return LockBackendPostgres
	}
	return l.Backend
}

// GetDir returns the lock directory for the file backend
func (l *LockConfig) GetDir() string {
	if l.Dir == "" {
		return defaultLockDir
	}
	return l.Dir
}

// GetHeartbeatInterval returns the keep-alive period for push channels
func (p *PushConfig) GetHeartbeatInterval() time.Duration {
	return parseDurationOr(p.HeartbeatInterval, defaultHeartbeatInterval)
}

// GetWriteTimeout returns the deadline for a single push write
func (p *PushConfig) GetWriteTimeout() time.Duration {
	return parseDurationOr(p.WriteTimeout, defaultPushWriteTimeout)
}

// GetBatchSize returns the notification chunk size
func (n *NotificationsConfig) GetBatchSize() int {
	if n.BatchSize <= 0 {
		return defaultBatchSize
	}
	return n.BatchSize
}

// GetKeyPrefix returns the cache key prefix for location records
func (g *GeoConfig) GetKeyPrefix() string {
	if g.KeyPrefix == "" {
		return defaultGeoKeyPrefix
	}
	return g.KeyPrefix
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateProvider(&c.Provider); err != nil {
		return err
	}
	if err := validateSync(&c.Sync); err != nil {
		return err
	}
	if err := c.validateLock(); err != nil {
		return err
	}
	if err := validatePush(&c.Push); err != nil {
		return err
	}
	if c.Geo.Enabled && c.Database == nil {
		return fmt.Errorf("geo: database configuration is required when geo is enabled")
	}
	if c.Database != nil {
		if err := validateDatabase(c.Database); err != nil {
			return err
		}
	}
	if c.Redis != nil && c.Redis.Addr == "" {
		return fmt.Errorf("redis: addr is required")
	}

	return c.Telemetry.Validate()
}

func validateProvider(p *ProviderConfig) error {
	if p.BaseURL == "" {
		return fmt.Errorf("provider: baseURL is required")
	}
	u, err := url.Parse(p.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("provider: baseURL must be an absolute URL, got %q", p.BaseURL)
	}
	if err := validateDuration(p.Timeout, "provider: timeout"); err != nil {
		return err
	}
	if p.RequestsPerSecond < 0 {
		return fmt.Errorf("provider: requestsPerSecond cannot be negative")
	}
	return nil
}

func validateSync(s *SyncConfig) error {
	if len(s.Keywords) == 0 {
		return fmt.Errorf("sync: at least one keyword must be configured")
	}

	seen := make(map[string]bool, len(s.Keywords))
	for i, kw := range s.Keywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("sync: keywords[%d] cannot be empty", i)
		}
		if seen[kw] {
			return fmt.Errorf("sync: keywords[%d]: duplicate keyword '%s'", i, kw)
		}
		seen[kw] = true
	}

	if _, err := cron.ParseStandard(s.GetSchedule()); err != nil {
		return fmt.Errorf("sync: schedule must be a valid cron expression: %w", err)
	}
	if err := validateDuration(s.LockWaitTimeout, "sync: lockWaitTimeout"); err != nil {
		return err
	}
	if err := validateDuration(s.LockLeaseTimeout, "sync: lockLeaseTimeout"); err != nil {
		return err
	}

	switch s.GetStalePolicy() {
	case StalePolicyIgnore, StalePolicyMarkStale:
	default:
		return fmt.Errorf("sync: stalePolicy must be one of %s or %s, got %s",
			StalePolicyIgnore, StalePolicyMarkStale, s.StalePolicy)
	}

	return nil
}

func (c *Config) validateLock() error {
	switch c.Lock.GetBackend() {
	case LockBackendPostgres:
		if c.Database == nil {
			return fmt.Errorf("lock: database configuration is required for the postgres backend")
		}
	case LockBackendRedis:
		if c.Redis == nil {
			return fmt.Errorf("lock: redis configuration is required for the redis backend")
		}
	case LockBackendFile:
	default:
		return fmt.Errorf("lock: unknown backend %s", c.Lock.Backend)
	}
	return nil
}

func validatePush(p *PushConfig) error {
	if err := validateDuration(p.HeartbeatInterval, "push: heartbeatInterval"); err != nil {
		return err
	}
	return validateDuration(p.WriteTimeout, "push: writeTimeout")
}

func validateDatabase(d *DatabaseConfig) error {
	if d.Host == "" {
		return fmt.Errorf("database: host is required")
	}
	if d.Port == 0 {
		return fmt.Errorf("database: port is required")
	}
	if d.User == "" {
		return fmt.Errorf("database: user is required")
	}
	if d.Database == "" {
		return fmt.Errorf("database: database is required")
	}
	return validateDuration(d.ConnMaxLifetime, "database: connMaxLifetime")
}

func validateDuration(value, field string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s must be a valid duration (e.g., '5s', '10m'): %w", field, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive", field)
	}
	return nil
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// readSecret reads a secret from a file if one is configured, then from the environment.
// The boolean reports whether any source supplied a value.
func readSecret(path, envVar string) (string, bool, error) {
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return "", false, fmt.Errorf("failed to read secret from file %s: %w", path, err)
		}
		return strings.TrimSpace(string(data)), true, nil
	}

	if v := os.Getenv(envVar); v != "" {
		return v, true, nil
	}

	return "", false, nil
}
