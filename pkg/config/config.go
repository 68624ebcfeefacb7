package config

import (
	"time"
)

type DB struct {
	Url string `envconfig:"URL" default:"sqlite://gastos.db"`
}

type Auth struct {
	SessionLifetime time.Duration `envconfig:"SESSION_LIFETIME" default:"2h"`
	TwoFactorTTL    time.Duration `envconfig:"TWO_FACTOR_TTL" default:"5m"`
	TwoFactorDigits int           `envconfig:"TWO_FACTOR_DIGITS" default:"6"`
	ResetTokenTTL   time.Duration `envconfig:"RESET_TOKEN_TTL" default:"1h"`
	// ChallengeSecret signs the short-lived 2FA login challenge.
	ChallengeSecret string `envconfig:"CHALLENGE_SECRET" default:"change-me"`
	BcryptCost      int    `envconfig:"BCRYPT_COST" default:"12"`
}

type Ledger struct {
	// OverdraftKinds lists the account kinds allowed to hold a negative balance.
	OverdraftKinds []string `envconfig:"OVERDRAFT_KINDS"`
}

type Storage struct {
	UploadsPath string `envconfig:"UPLOADS_PATH" default:"./uploads"`
	MaxFileSize int64  `envconfig:"MAX_FILE_SIZE" default:"5242880"`
}

type Redis struct {
	URL       string `envconfig:"URL"`
	KeyPrefix string `envconfig:"KEY_PREFIX" default:"gastos:"`
}

type RateLimit struct {
	MaxRequests     int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window          time.Duration `envconfig:"WINDOW" default:"1m"`
	AuthMaxRequests int           `envconfig:"AUTH_MAX_REQUESTS" default:"10"`
}

type Mail struct {
	From    string `envconfig:"FROM" default:"no-reply@gastos.local"`
	BaseURL string `envconfig:"BASE_URL" default:"http://localhost:3000"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"text"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[gastos]"`
}

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
}

type App struct {
	Env       string     `envconfig:"APP_ENV" default:"development"`
	Server    *Server    `envconfig:"SERVER"`
	Log       *Log       `envconfig:"LOG"`
	DB        *DB        `envconfig:"DATABASE"`
	Auth      *Auth      `envconfig:"AUTH"`
	Ledger    *Ledger    `envconfig:"LEDGER"`
	Storage   *Storage   `envconfig:"STORAGE"`
	Redis     *Redis     `envconfig:"REDIS"`
	RateLimit *RateLimit `envconfig:"RATE_LIMIT"`
	Mail      *Mail      `envconfig:"MAIL"`
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (a *App) IsProduction() bool {
	return a.Env == "production"
}
