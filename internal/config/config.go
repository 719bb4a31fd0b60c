package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Link policies for a federated sign-in whose email already belongs to a local account.
const (
	LinkPolicyReject = "reject"
	LinkPolicyLink   = "link"
)

type Config struct {
	Port        string
	Env         string
	DatabaseURL string
	LogLevel    string

	// SecretKey signs issued access and refresh tokens.
	SecretKey          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration

	// AdminSecret gates administrator provisioning. Empty disables it.
	AdminSecret string
	BcryptCost  int

	Google OAuthConfig
	GitHub OAuthConfig

	OAuthLinkPolicy      string
	OAuthProviderTimeout time.Duration

	Redis RedisConfig
}

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	accessMinutes := getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	refreshDays := getEnvInt("REFRESH_TOKEN_EXPIRE_DAYS", 7)

	providerTimeout, err := time.ParseDuration(getEnv("OAUTH_PROVIDER_TIMEOUT", "10s"))
	if err != nil {
		providerTimeout = 10 * time.Second
	}

	linkPolicy := getEnv("OAUTH_LINK_POLICY", LinkPolicyReject)
	if linkPolicy != LinkPolicyLink {
		linkPolicy = LinkPolicyReject
	}

	return &Config{
		Port:        getEnv("PORT", "8000"),
		Env:         getEnv("ENV", "development"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		SecretKey:          getEnvOrPanic("SECRET_KEY"),
		AccessTokenExpiry:  time.Duration(accessMinutes) * time.Minute,
		RefreshTokenExpiry: time.Duration(refreshDays) * 24 * time.Hour,

		AdminSecret: getEnv("ADMIN_SECRET", ""),
		BcryptCost:  getEnvInt("BCRYPT_COST", 10),

		Google: OAuthConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GOOGLE_REDIRECT_URI", ""),
		},
		GitHub: OAuthConfig{
			ClientID:     getEnv("GITHUB_CLIENT_ID", ""),
			ClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GITHUB_REDIRECT_URI", ""),
		},

		OAuthLinkPolicy:      linkPolicy,
		OAuthProviderTimeout: providerTimeout,

		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// AdminCreationEnabled reports whether an admin secret was configured.
func (c *Config) AdminCreationEnabled() bool {
	return c.AdminSecret != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getEnvOrPanic(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		panic("required environment variable not set: " + key)
	}
	return value
}
