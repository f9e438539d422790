package config

import "time"

// DBSettings holds the Postgres connection and pool configuration.
type DBSettings struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// RedisSettings holds the Redis connection configuration.
type RedisSettings struct {
	Host     string
	Port     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// FeeSettings holds the rates used by the fee calculator.
type FeeSettings struct {
	GSTRate         float64
	PlatformFeeRate float64
}

// RetrySettings configures the deferred ledger retry worker.
type RetrySettings struct {
	Delay        time.Duration
	MaxAttempts  int
	PollInterval time.Duration
	RatePerSec   float64
	BatchSize    int
	Lease        time.Duration
}

// NotificationSettings configures the outbound notifiers.
type NotificationSettings struct {
	Channel        string
	FCMCredentials string
	QueueSize      int
}

// PayoutSettings configures the payout gateway.
type PayoutSettings struct {
	StripeKey string
	Currency  string
}

// Settings is the full service configuration.
type Settings struct {
	Env               string
	Port              string
	AllowedOrigins    string
	JWTSecret         string
	WithdrawalMinimum float64
	DB                DBSettings
	Redis             RedisSettings
	Fees              FeeSettings
	Retry             RetrySettings
	Notifications     NotificationSettings
	Payout            PayoutSettings
}

// Load reads Settings from the environment, applying defaults.
func Load() Settings {
	return Settings{
		Env:               GetEnv("ENV", "development"),
		Port:              GetEnv("PORT", "3000"),
		AllowedOrigins:    GetEnv("ALLOWED_ORIGINS", "http://localhost:5173"),
		JWTSecret:         GetEnv("JWT_SECRET", "borewell"),
		WithdrawalMinimum: GetFloatEnv("WITHDRAWAL_MINIMUM", 1000),
		DB: DBSettings{
			Host:            GetEnv("DB_HOST", "localhost"),
			Port:            GetEnv("DB_PORT", "5432"),
			User:            GetEnv("DB_USER", "postgres"),
			Password:        GetEnv("DB_PASSWORD", "postgres"),
			Name:            GetEnv("DB_NAME", "borewell"),
			SSLMode:         GetEnv("DB_SSLMODE", "disable"),
			MaxIdleConns:    GetIntEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    GetIntEnv("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		},
		Redis: RedisSettings{
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetIntEnv("REDIS_DB", 0),
			CacheTTL: GetDurationEnv("REDIS_CACHE_TTL", 5*time.Minute),
		},
		Fees: FeeSettings{
			GSTRate:         GetFloatEnv("FEE_GST_RATE", 0.18),
			PlatformFeeRate: GetFloatEnv("FEE_PLATFORM_RATE", 0.15),
		},
		Retry: RetrySettings{
			Delay:        GetDurationEnv("LEDGER_RETRY_DELAY", 5*time.Minute),
			MaxAttempts:  GetIntEnv("LEDGER_RETRY_MAX_ATTEMPTS", 3),
			PollInterval: GetDurationEnv("LEDGER_RETRY_POLL_INTERVAL", 30*time.Second),
			RatePerSec:   GetFloatEnv("LEDGER_RETRY_RATE", 5),
			BatchSize:    GetIntEnv("LEDGER_RETRY_BATCH", 20),
			Lease:        GetDurationEnv("LEDGER_RETRY_LEASE", 10*time.Minute),
		},
		Notifications: NotificationSettings{
			Channel:        GetEnv("NOTIFICATION_CHANNEL", "booking_events"),
			FCMCredentials: GetEnv("FCM_CREDENTIALS_FILE", ""),
			QueueSize:      GetIntEnv("NOTIFICATION_QUEUE_SIZE", 256),
		},
		Payout: PayoutSettings{
			StripeKey: GetEnv("STRIPE_SECRET_KEY", ""),
			Currency:  GetEnv("PAYOUT_CURRENCY", "inr"),
		},
	}
}

// IsProduction reports whether the settings were loaded for production.
func (s Settings) IsProduction() bool {
	return s.Env == "production"
}
