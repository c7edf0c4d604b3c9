package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"      validate:"required"`
	Mail      MailConfig      `mapstructure:"mail"      validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port"                     validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level"                validate:"required,oneof=debug info warn error"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
}

// Storage backends selectable through database.driver.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// DatabaseConfig selects and configures the storage backend.
type DatabaseConfig struct {
	Driver        string `mapstructure:"driver"         validate:"required,oneof=postgres mongo memory"`
	URL           string `mapstructure:"url"            validate:"required_unless=Driver memory"`
	MongoDatabase string `mapstructure:"mongo_database" validate:"required_if=Driver mongo"`
	MaxOpenConns  int    `mapstructure:"max_open_conns" validate:"gte=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret"                     validate:"required,min=32"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes"         validate:"required,gt=0"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0"`
	BcryptCost                  int    `mapstructure:"bcrypt_cost"                    validate:"required,min=4,max=31"`
	PasswordResetTTLMinutes     int    `mapstructure:"password_reset_ttl_minutes"     validate:"required,gt=0"`
	PasswordResetURL            string `mapstructure:"password_reset_url"             validate:"required,url"`
}

// Mail transports selectable through mail.transport.
const (
	MailTransportSMTP = "smtp"
	MailTransportLog  = "log"
)

// MailConfig configures outgoing email. The log transport writes messages
// to the application log instead of delivering them.
type MailConfig struct {
	Transport string `mapstructure:"transport"  validate:"required,oneof=smtp log"`
	Host      string `mapstructure:"host"       validate:"required_if=Transport smtp"`
	Port      int    `mapstructure:"port"       validate:"gt=0,lt=65536"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	From      string `mapstructure:"from"       validate:"required,email"`
	TLSPolicy string `mapstructure:"tls_policy" validate:"required,oneof=mandatory opportunistic none"`
}

// SchedulerConfig controls the periodic reminder and overdue scan.
type SchedulerConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalMinutes int  `mapstructure:"interval_minutes" validate:"gt=0"`
	RunOnStart      bool `mapstructure:"run_on_start"`
	TimeoutSeconds  int  `mapstructure:"timeout_seconds"  validate:"gt=0"`
}
