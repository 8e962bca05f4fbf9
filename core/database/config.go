package database

// Config holds configuration for the target database connection.
type Config struct {
	// Host is the database host.
	Host string `mapstructure:"host" default:"localhost"`
	// Port is the database port. Zero selects the driver's default.
	Port int `mapstructure:"port" default:"0"`
	// User is the database user.
	User string `mapstructure:"user" default:"postgres"`
	// Password is the database password.
	Password string `mapstructure:"password" default:""`
	// Name is the database name. For the sqlite driver this is the file path.
	Name string `mapstructure:"name" default:"postgres"`
	// Driver is the database driver (postgres, mysql, sqlite).
	Driver string `mapstructure:"driver" default:"postgres"`
	// SSLMode is the postgres sslmode (disable, allow, prefer, require,
	// verify-ca, verify-full). Ignored by other drivers.
	SSLMode string `mapstructure:"ssl_mode" default:"prefer"`
	// TimeoutSeconds is the connection and I/O timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

// DefaultPort returns the configured port, falling back to the driver's
// well-known default.
func (c Config) DefaultPort() int {
	if c.Port > 0 {
		return c.Port
	}
	switch c.Driver {
	case DriverMySQL:
		return 3306
	default:
		return 5432
	}
}

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)
