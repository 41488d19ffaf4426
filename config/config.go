package config

import (
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-todos/auth"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Setting keys as they appear in the environment or the .env file
const (
	KeyDatabaseURL               = "DATABASE_URL"
	KeySecretKey                 = "SECRET_KEY"
	KeyAlgorithm                 = "ALGORITHM"
	KeyAccessTokenExpiresMinutes = "ACCESS_TOKEN_EXPIRES_MINUTES"
	KeyHTTPAddr                  = "HTTP_ADDR"
	KeyLogLevel                  = "LOG_LEVEL"
	KeyPasswordHashCost          = "PASSWORD_HASH_COST"
	KeyLoginRateLimit            = "LOGIN_RATE_LIMIT"
	KeyLoginRateBurst            = "LOGIN_RATE_BURST"
	KeyTokenLookup               = "TOKEN_LOOKUP"
)

// DefaultTokenLookup reads the bearer token from the Authorization header
const DefaultTokenLookup = "header:Authorization"

// DefaultEnvFile is read when present
const DefaultEnvFile = ".env"

// Settings is the process configuration. It is loaded once and never mutated.
type Settings struct {
	DatabaseURL               string
	SecretKey                 string
	Algorithm                 string
	AccessTokenExpiresMinutes int
	HTTPAddr                  string
	LogLevel                  string
	PasswordHashCost          int
	LoginRateLimit            float64
	LoginRateBurst            int
	// TokenLookup lists where protected routes look for the access token,
	// e.g. "header:Authorization,cookie:access_token".
	TokenLookup               string
}

var _ auth.Config = Settings{}

type options struct {
	envFile string
}

// Option configures Load
type Option func(*options)

// WithEnvFile reads settings from path instead of .env. An empty path
// disables file loading.
func WithEnvFile(path string) Option {
	return func(o *options) {
		o.envFile = path
	}
}

// Load reads settings from the env file, when it exists, and the
// environment. Environment variables win over the file.
func Load(opts ...Option) (Settings, error) {
	o := &options{envFile: DefaultEnvFile}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	v := viper.New()
	v.SetDefault(KeyHTTPAddr, ":8000")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyPasswordHashCost, bcrypt.DefaultCost)
	v.SetDefault(KeyLoginRateLimit, 5)
	v.SetDefault(KeyLoginRateBurst, 10)
	v.SetDefault(KeyTokenLookup, DefaultTokenLookup)

	for _, key := range []string{
		KeyDatabaseURL, KeySecretKey, KeyAlgorithm, KeyAccessTokenExpiresMinutes,
		KeyHTTPAddr, KeyLogLevel, KeyPasswordHashCost, KeyLoginRateLimit, KeyLoginRateBurst,
		KeyTokenLookup,
	} {
		if err := v.BindEnv(key); err != nil {
			return Settings{}, errors.Wrap(err, errors.CategoryInternal, "failed to bind environment variable")
		}
	}

	if o.envFile != "" {
		if _, err := os.Stat(o.envFile); err == nil {
			v.SetConfigFile(o.envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return Settings{}, errors.Wrap(err, errors.CategoryBadInput, "failed to read env file").
					WithMetadata(map[string]any{"path": o.envFile})
			}
		}
	}

	s := Settings{
		DatabaseURL:               strings.TrimSpace(v.GetString(KeyDatabaseURL)),
		SecretKey:                 v.GetString(KeySecretKey),
		Algorithm:                 strings.ToUpper(strings.TrimSpace(v.GetString(KeyAlgorithm))),
		AccessTokenExpiresMinutes: v.GetInt(KeyAccessTokenExpiresMinutes),
		HTTPAddr:                  v.GetString(KeyHTTPAddr),
		LogLevel:                  strings.ToLower(v.GetString(KeyLogLevel)),
		PasswordHashCost:          v.GetInt(KeyPasswordHashCost),
		LoginRateLimit:            v.GetFloat64(KeyLoginRateLimit),
		LoginRateBurst:            v.GetInt(KeyLoginRateBurst),
		TokenLookup:               strings.TrimSpace(v.GetString(KeyTokenLookup)),
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}

	return s, nil
}

// Validate checks required keys and ranges
func (s Settings) Validate() *errors.Error {
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&s,
			validation.Field(&s.DatabaseURL, validation.Required),
			validation.Field(&s.SecretKey, validation.Required),
			validation.Field(&s.Algorithm, validation.Required, validation.In("HS256", "HS384", "HS512")),
			validation.Field(&s.AccessTokenExpiresMinutes, validation.Required, validation.Min(1)),
			validation.Field(&s.PasswordHashCost, validation.Min(bcrypt.MinCost), validation.Max(bcrypt.MaxCost)),
			validation.Field(&s.LoginRateLimit, validation.Min(0.0)),
			validation.Field(&s.LoginRateBurst, validation.Required, validation.Min(1)),
			validation.Field(&s.LogLevel, validation.In("trace", "debug", "info", "warn", "error")),
			validation.Field(&s.TokenLookup, validation.Required),
		)
	}, "invalid configuration")
}

func (s Settings) GetSigningKey() string {
	return s.SecretKey
}

func (s Settings) GetSigningMethod() string {
	return s.Algorithm
}

func (s Settings) GetTokenExpiration() int {
	return s.AccessTokenExpiresMinutes
}

func (s Settings) GetPasswordHashCost() int {
	return s.PasswordHashCost
}

// IsDebug reports whether the log level includes debug output
func (s Settings) IsDebug() bool {
	return s.LogLevel == "debug" || s.LogLevel == "trace"
}
