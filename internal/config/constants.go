package config

import "time"

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 2333
	defaultEnv        = "development"
	defaultTimezone   = "UTC"

	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"

	defaultDriver     = DriverMySQL
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "engagement"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "UTC"
	defaultSQLitePath = "engagement.db"

	defaultMongoDatabase = "engagement"
	defaultMongoTimeout  = 10 * time.Second

	defaultRedisPort = 6379

	defaultStatsCacheTTL        = 5 * time.Minute
	defaultStatsPrewarmInterval = 4 * time.Minute
	defaultOpTimeout            = 10 * time.Second
)
