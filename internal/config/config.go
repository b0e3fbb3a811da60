package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"cashdesk-backend/internal/money"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	ToleranceFromSettings = "settings"
	ToleranceFromRedis    = "redis"

	defaultDSN = "host=localhost user=postgres password=postgres dbname=cashdesk port=5432 sslmode=disable"
)

// Exclusivity dimensions: an operator, a register or a whole branch can hold
// at most one open shift, depending on which ones are enabled.
const (
	ScopeOperator = "operator"
	ScopeRegister = "register"
	ScopeBranch   = "branch"
)

type Config struct {
	HTTPPort       string
	DatabaseDriver string
	DatabaseDSN    string
	DBDebug        bool
	JWTSecret      string
	CORSOrigins    string

	CashTolerance    money.Money // used when a branch has no tolerance of its own
	ToleranceSource  string
	RedisAddr        string
	RedisPassword    string
	ShiftExclusivity []string

	LogLevel  string
	LogFormat string
}

// Load reads the environment (and an optional .env file) into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		DatabaseDriver:  strings.ToLower(getEnv("DATABASE_DRIVER", DriverPostgres)),
		DatabaseDSN:     getEnv("DATABASE_DSN", defaultDSN),
		DBDebug:         getEnv("DB_DEBUG", "false") == "true",
		JWTSecret:       getEnv("JWT_SECRET", ""),
		CORSOrigins:     getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		ToleranceSource: strings.ToLower(getEnv("TOLERANCE_SOURCE", ToleranceFromSettings)),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET must be at least 32 characters")
	}

	switch cfg.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("DATABASE_DRIVER %q is not supported (postgres|sqlite)", cfg.DatabaseDriver)
	}

	switch cfg.ToleranceSource {
	case ToleranceFromSettings, ToleranceFromRedis:
	default:
		return nil, fmt.Errorf("TOLERANCE_SOURCE %q is not supported (settings|redis)", cfg.ToleranceSource)
	}

	tol, err := money.Parse(getEnv("CASH_TOLERANCE", "5.00"))
	if err != nil || tol.IsNegative() || !tol.InRange() {
		return nil, fmt.Errorf("CASH_TOLERANCE must be a non-negative amount")
	}
	cfg.CashTolerance = tol

	scopes, err := ParseExclusivity(getEnv("SHIFT_EXCLUSIVITY", ScopeOperator+","+ScopeRegister))
	if err != nil {
		return nil, err
	}
	cfg.ShiftExclusivity = scopes

	return cfg, nil
}

// ParseExclusivity turns "operator, register" into a de-duplicated list of
// known dimensions. An empty list is rejected: something has to be exclusive.
func ParseExclusivity(raw string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		p := strings.ToLower(strings.TrimSpace(part))
		if p == "" {
			continue
		}
		switch p {
		case ScopeOperator, ScopeRegister, ScopeBranch:
		default:
			return nil, fmt.Errorf("SHIFT_EXCLUSIVITY: unknown scope %q", p)
		}
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("SHIFT_EXCLUSIVITY must name at least one scope")
	}
	return out, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
