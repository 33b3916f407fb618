package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int
	Env            string // "development" | "production"
	Timezone       string
	JWTSecret      string
	AllowedOrigins []string
	Database       DatabaseConfig
	Mongo          MongoConfig
	Redis          RedisConfig
	Stats          StatsConfig
	Paths          PathsConfig
}

type DatabaseConfig struct {
	Driver    string
	DSN       string
	Host      string
	Port      int
	User      string
	Password  string
	Name      string
	Path      string // SQLite database file
	Charset   string
	Loc       string
	Params    map[string]string
	OpTimeout time.Duration

	baseDir string
}

type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// RedisConfig is optional; without a URL or host the statistics cache, the
// rate limiter and idempotence guard are disabled.
type RedisConfig struct {
	URL      string
	Host     string
	Port     int
	Password string
	DB       int
}

type StatsConfig struct {
	CacheTTL        time.Duration
	PrewarmInterval time.Duration
}

type PathsConfig struct {
	Logs string
	// Base anchors relative paths; Load sets it to the config file's directory.
	Base string
}

type rawAppConfig struct {
	Port               int               `yaml:"port"`
	Env                string            `yaml:"env"`
	NodeEnv            string            `yaml:"node_env"`
	Timezone           string            `yaml:"timezone"`
	TimeZone           string            `yaml:"time_zone"`
	TZ                 string            `yaml:"tz"`
	JWTSecret          string            `yaml:"jwt_secret"`
	JWTSecretLegacy    string            `yaml:"jwtsecret"`
	AllowedOrigins     []string          `yaml:"allowed_origins"`
	CORSAllowedOrigins []string          `yaml:"cors_allowed_origins"`
	DSN                string            `yaml:"dsn"`
	DatabaseURL        string            `yaml:"database_url"`
	Database           rawDatabaseConfig `yaml:"database"`
	Mongo              rawMongoConfig    `yaml:"mongo"`
	MongoURI           string            `yaml:"mongo_uri"`
	Redis              rawRedisConfig    `yaml:"redis"`
	RedisURL           string            `yaml:"redis_url"`
	Stats              rawStatsConfig    `yaml:"stats"`
	Paths              rawPathsConfig    `yaml:"paths"`
	LogDir             string            `yaml:"log_dir"`
	LogsDir            string            `yaml:"logs_dir"`
}

type rawDatabaseConfig struct {
	Driver    string            `yaml:"driver"`
	DSN       string            `yaml:"dsn"`
	URL       string            `yaml:"url"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Username  string            `yaml:"username"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	DBName    string            `yaml:"db_name"`
	Path      string            `yaml:"path"`
	Charset   string            `yaml:"charset"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
	OpTimeout string            `yaml:"op_timeout"`
}

type rawMongoConfig struct {
	URI      string `yaml:"uri"`
	URL      string `yaml:"url"`
	Database string `yaml:"database"`
	Timeout  string `yaml:"timeout"`
}

type rawRedisConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       *int   `yaml:"db"`
}

type rawStatsConfig struct {
	CacheTTL        string `yaml:"cache_ttl"`
	PrewarmInterval string `yaml:"prewarm_interval"`
}

type rawPathsConfig struct {
	Logs string `yaml:"logs"`
}

// Load reads and validates the YAML file at configPath.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("config file %q: %w", path, err)
	}
	if abs, err := filepath.Abs(path); err == nil {
		cfg.Paths.Base = filepath.Dir(abs)
		cfg.Database.baseDir = cfg.Paths.Base
	}
	return cfg, nil
}

// Parse decodes and validates YAML content. Unknown keys are rejected.
func Parse(content []byte) (*AppConfig, error) {
	raw := rawAppConfig{}
	if len(bytes.TrimSpace(content)) > 0 {
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if err := decoder.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parse: %w", err)
		}
	}

	cfg := defaultAppConfig()
	if err := applyRawAppConfig(&cfg, raw); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port:     defaultPort,
		Env:      defaultEnv,
		Timezone: defaultTimezone,
		Database: DatabaseConfig{
			Driver:    defaultDriver,
			Host:      defaultDBHost,
			Port:      defaultDBPort,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			Loc:       defaultDBLoc,
			OpTimeout: defaultOpTimeout,
		},
		Mongo: MongoConfig{
			Database: defaultMongoDatabase,
			Timeout:  defaultMongoTimeout,
		},
		Redis: RedisConfig{Port: defaultRedisPort},
		Stats: StatsConfig{
			CacheTTL:        defaultStatsCacheTTL,
			PrewarmInterval: defaultStatsPrewarmInterval,
		},
	}
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) error {
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	cfg.Env = firstNonEmpty(raw.NodeEnv, raw.Env, cfg.Env)
	cfg.Timezone = firstNonEmpty(raw.TZ, raw.TimeZone, raw.Timezone, cfg.Timezone)
	cfg.JWTSecret = firstNonEmpty(raw.JWTSecretLegacy, raw.JWTSecret, cfg.JWTSecret)
	cfg.Paths.Logs = firstNonEmpty(raw.LogsDir, raw.LogDir, raw.Paths.Logs, cfg.Paths.Logs)

	switch {
	case raw.AllowedOrigins != nil:
		cfg.AllowedOrigins = normalizeOrigins(raw.AllowedOrigins)
	case raw.CORSAllowedOrigins != nil:
		cfg.AllowedOrigins = normalizeOrigins(raw.CORSAllowedOrigins)
	}

	var err error
	if cfg.Database, err = applyRawDatabaseConfig(cfg.Database, raw); err != nil {
		return err
	}
	if cfg.Mongo, err = applyRawMongoConfig(cfg.Mongo, raw); err != nil {
		return err
	}
	cfg.Redis = applyRawRedisConfig(cfg.Redis, raw)
	if cfg.Stats, err = applyRawStatsConfig(cfg.Stats, raw.Stats); err != nil {
		return err
	}

	cfg.Env = normalizeEnv(cfg.Env)
	cfg.Database = normalizeDatabaseConfig(cfg.Database)
	cfg.Redis = normalizeRedisConfig(cfg.Redis)
	return nil
}

func applyRawDatabaseConfig(cfg DatabaseConfig, raw rawAppConfig) (DatabaseConfig, error) {
	db := raw.Database
	cfg.Driver = firstNonEmpty(db.Driver, cfg.Driver)
	cfg.DSN = firstNonEmpty(db.DSN, db.URL, raw.DSN, raw.DatabaseURL, cfg.DSN)
	cfg.Host = firstNonEmpty(db.Host, cfg.Host)
	if db.Port != 0 {
		cfg.Port = db.Port
	}
	cfg.User = firstNonEmpty(db.User, db.Username, cfg.User)
	cfg.Password = firstNonEmpty(db.Password, cfg.Password)
	cfg.Name = firstNonEmpty(db.Name, db.DBName, cfg.Name)
	cfg.Path = firstNonEmpty(db.Path, cfg.Path)
	cfg.Charset = firstNonEmpty(db.Charset, cfg.Charset)
	cfg.Loc = firstNonEmpty(db.Loc, cfg.Loc)
	if db.Params != nil {
		cfg.Params = copyStringMap(db.Params)
	}
	if v := strings.TrimSpace(db.OpTimeout); v != "" {
		d, err := parseDuration("database.op_timeout", v)
		if err != nil {
			return cfg, err
		}
		cfg.OpTimeout = d
	}
	return cfg, nil
}

func applyRawMongoConfig(cfg MongoConfig, raw rawAppConfig) (MongoConfig, error) {
	cfg.URI = firstNonEmpty(raw.Mongo.URI, raw.Mongo.URL, raw.MongoURI, cfg.URI)
	cfg.Database = firstNonEmpty(raw.Mongo.Database, cfg.Database)
	if v := strings.TrimSpace(raw.Mongo.Timeout); v != "" {
		d, err := parseDuration("mongo.timeout", v)
		if err != nil {
			return cfg, err
		}
		cfg.Timeout = d
	}
	return cfg, nil
}

func applyRawRedisConfig(cfg RedisConfig, raw rawAppConfig) RedisConfig {
	cfg.URL = firstNonEmpty(raw.Redis.URL, raw.RedisURL, cfg.URL)
	cfg.Host = firstNonEmpty(raw.Redis.Host, cfg.Host)
	if raw.Redis.Port != 0 {
		cfg.Port = raw.Redis.Port
	}
	cfg.Password = firstNonEmpty(raw.Redis.Password, cfg.Password)
	if raw.Redis.DB != nil {
		cfg.DB = *raw.Redis.DB
	}
	return cfg
}

func applyRawStatsConfig(cfg StatsConfig, raw rawStatsConfig) (StatsConfig, error) {
	if v := strings.TrimSpace(raw.CacheTTL); v != "" {
		d, err := parseDuration("stats.cache_ttl", v)
		if err != nil {
			return cfg, err
		}
		cfg.CacheTTL = d
	}
	if v := strings.TrimSpace(raw.PrewarmInterval); v != "" {
		d, err := parseDuration("stats.prewarm_interval", v)
		if err != nil {
			return cfg, err
		}
		cfg.PrewarmInterval = d
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", c.Port)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}

	switch c.Database.Driver {
	case DriverMySQL:
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("invalid database.port %d, expected 1-65535", c.Database.Port)
		}
		if err := validateMySQLDSN(c.Database.DSNValue()); err != nil {
			return err
		}
	case DriverSQLite:
	case DriverMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("mongo.uri is required when database.driver is %q", DriverMongo)
		}
	default:
		return fmt.Errorf("invalid database.driver %q, expected %s, %s or %s",
			c.Database.Driver, DriverMySQL, DriverSQLite, DriverMongo)
	}

	if c.Redis.Enabled() {
		if c.Redis.Port < 1 || c.Redis.Port > 65535 {
			return fmt.Errorf("invalid redis.port %d, expected 1-65535", c.Redis.Port)
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("invalid redis.db %d, expected >= 0", c.Redis.DB)
		}
	}
	return nil
}

func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, defaultEnv)
}

// Location returns the configured timezone, UTC if it cannot be loaded.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *AppConfig) LogDir() string {
	if c == nil {
		return resolvePath("", "", "logs")
	}
	return resolvePath(c.Paths.Base, c.Paths.Logs, "logs")
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q, expected a positive duration", key, raw)
	}
	return d, nil
}
