package config

import (
	"fmt"
	"net"
	neturl "net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// DSNValue returns the connection string for the configured SQL driver.
// An explicit dsn wins; otherwise MySQL DSNs are assembled from the
// host/user/name fields and SQLite DSNs from the database path.
func (c DatabaseConfig) DSNValue() string {
	if v := strings.TrimSpace(c.DSN); v != "" {
		return v
	}
	if c.Driver == DriverSQLite {
		return c.sqliteDSN()
	}

	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(firstNonEmpty(c.Host, defaultDBHost), strconv.Itoa(c.portOrDefault()))
	mc.User = firstNonEmpty(c.User, defaultDBUser)
	mc.Passwd = firstNonEmpty(c.Password, defaultDBPassword)
	mc.DBName = firstNonEmpty(c.Name, defaultDBName)
	mc.ParseTime = true
	mc.Params = map[string]string{"charset": firstNonEmpty(c.Charset, defaultDBCharset)}
	for key, value := range c.Params {
		k := strings.TrimSpace(key)
		v := strings.TrimSpace(value)
		if k != "" && v != "" {
			mc.Params[k] = v
		}
	}
	// loc is a typed field on mysql.Config, not a free-form param.
	delete(mc.Params, "loc")
	if loc, err := time.LoadLocation(firstNonEmpty(c.Loc, defaultDBLoc)); err == nil {
		mc.Loc = loc
	}
	return mc.FormatDSN()
}

func (c DatabaseConfig) sqliteDSN() string {
	path := firstNonEmpty(c.Path, defaultSQLitePath)
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path
	}
	return resolvePath(c.baseDir, path, defaultSQLitePath)
}

func (c DatabaseConfig) portOrDefault() int {
	if c.Port == 0 {
		return defaultDBPort
	}
	return c.Port
}

func validateMySQLDSN(dsn string) error {
	if _, err := mysql.ParseDSN(dsn); err != nil {
		return fmt.Errorf("invalid mysql dsn: %w", err)
	}
	return nil
}

// Enabled reports whether a Redis endpoint was configured.
func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.URL) != "" || strings.TrimSpace(c.Host) != ""
}

// URLValue returns a redis:// URL for go-redis ParseURL.
func (c RedisConfig) URLValue() string {
	if u := normalizeRedisRawURL(c.URL); u != "" {
		return u
	}

	port := c.Port
	if port == 0 {
		port = defaultRedisPort
	}
	u := &neturl.URL{
		Scheme: "redis",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(port)),
		Path:   "/" + strconv.Itoa(c.DB),
	}
	if c.Password != "" {
		u.User = neturl.UserPassword("", c.Password)
	}
	return u.String()
}
