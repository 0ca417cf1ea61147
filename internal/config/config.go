package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/oops"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks for the yaml file.
const DefaultPath = "config/config.yml"

type AppConfig struct {
	Port            int    `yaml:"port"`
	GinMode         string `yaml:"gin_mode"`
	BaseURL         string `yaml:"base_url"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	DSN             string `yaml:"dsn"`
	LogLevel        string `yaml:"log_level"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

type TokensConfig struct {
	AccessTTL       string `yaml:"access_ttl"`
	RefreshTTL      string `yaml:"refresh_ttl"`
	VerificationTTL string `yaml:"verification_ttl"`
	PendingTTL      string `yaml:"pending_ttl"`
	CodeTTL         string `yaml:"code_ttl"`
	ResetThrottle   string `yaml:"reset_throttle"`
}

type PasswordConfig struct {
	Algorithm  string `yaml:"algorithm"`
	BcryptCost int    `yaml:"bcrypt_cost"`
}

type EmailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	StartTLS bool   `yaml:"starttls"`
}

type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

type CasbinConfig struct {
	ModelPath  string `yaml:"model_path"`
	PolicyPath string `yaml:"policy_path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type CleanupConfig struct {
	Interval         string `yaml:"interval"`
	SessionRetention string `yaml:"session_retention"`
}

type ConfigFile struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Tokens   TokensConfig   `yaml:"tokens"`
	Password PasswordConfig `yaml:"password"`
	Email    EmailConfig    `yaml:"email"`
	NATS     NATSConfig     `yaml:"nats"`
	Casbin   CasbinConfig   `yaml:"casbin"`
	Log      LogConfig      `yaml:"log"`
	Cleanup  CleanupConfig  `yaml:"cleanup"`
}

// Config is the flattened runtime configuration. Every field can be
// overridden from the environment.
type Config struct {
	Port            int           `env:"ACCOUNTSVC_PORT,overwrite"`
	GinMode         string        `env:"ACCOUNTSVC_GIN_MODE,overwrite"`
	BaseURL         string        `env:"ACCOUNTSVC_BASE_URL,overwrite"`
	ShutdownTimeout time.Duration `env:"ACCOUNTSVC_SHUTDOWN_TIMEOUT,overwrite"`

	DSN               string        `env:"ACCOUNTSVC_DATABASE_DSN,overwrite"`
	DBLogLevel        string        `env:"ACCOUNTSVC_DATABASE_LOG_LEVEL,overwrite"`
	DBMaxOpenConns    int           `env:"ACCOUNTSVC_DATABASE_MAX_OPEN_CONNS,overwrite"`
	DBMaxIdleConns    int           `env:"ACCOUNTSVC_DATABASE_MAX_IDLE_CONNS,overwrite"`
	DBConnMaxLifetime time.Duration `env:"ACCOUNTSVC_DATABASE_CONN_MAX_LIFETIME,overwrite"`

	RedisAddr      string `env:"ACCOUNTSVC_REDIS_ADDR,overwrite"`
	RedisPassword  string `env:"ACCOUNTSVC_REDIS_PASSWORD,overwrite"`
	RedisDB        int    `env:"ACCOUNTSVC_REDIS_DB,overwrite"`
	RedisKeyPrefix string `env:"ACCOUNTSVC_REDIS_KEY_PREFIX,overwrite"`

	AccessTTL       time.Duration `env:"ACCOUNTSVC_ACCESS_TTL,overwrite"`
	RefreshTTL      time.Duration `env:"ACCOUNTSVC_REFRESH_TTL,overwrite"`
	VerificationTTL time.Duration `env:"ACCOUNTSVC_VERIFICATION_TTL,overwrite"`
	PendingTTL      time.Duration `env:"ACCOUNTSVC_PENDING_TTL,overwrite"`
	CodeTTL         time.Duration `env:"ACCOUNTSVC_CODE_TTL,overwrite"`
	ResetThrottle   time.Duration `env:"ACCOUNTSVC_RESET_THROTTLE,overwrite"`

	PasswordAlgorithm string `env:"ACCOUNTSVC_PASSWORD_ALGORITHM,overwrite"`
	BcryptCost        int    `env:"ACCOUNTSVC_BCRYPT_COST,overwrite"`

	SMTPHost     string `env:"ACCOUNTSVC_SMTP_HOST,overwrite"`
	SMTPPort     int    `env:"ACCOUNTSVC_SMTP_PORT,overwrite"`
	SMTPUsername string `env:"ACCOUNTSVC_SMTP_USERNAME,overwrite"`
	SMTPPassword string `env:"ACCOUNTSVC_SMTP_PASSWORD,overwrite"`
	SMTPFrom     string `env:"ACCOUNTSVC_SMTP_FROM,overwrite"`
	SMTPStartTLS bool   `env:"ACCOUNTSVC_SMTP_STARTTLS,overwrite"`

	NATSURL           string `env:"ACCOUNTSVC_NATS_URL,overwrite"`
	NATSSubjectPrefix string `env:"ACCOUNTSVC_NATS_SUBJECT_PREFIX,overwrite"`

	CasbinModelPath  string `env:"ACCOUNTSVC_CASBIN_MODEL_PATH,overwrite"`
	CasbinPolicyPath string `env:"ACCOUNTSVC_CASBIN_POLICY_PATH,overwrite"`

	LogLevel  string `env:"ACCOUNTSVC_LOG_LEVEL,overwrite"`
	LogFormat string `env:"ACCOUNTSVC_LOG_FORMAT,overwrite"`

	CleanupInterval  time.Duration `env:"ACCOUNTSVC_CLEANUP_INTERVAL,overwrite"`
	SessionRetention time.Duration `env:"ACCOUNTSVC_SESSION_RETENTION,overwrite"`
}

// Defaults returns the configuration used when neither the file nor the
// environment set a value.
func Defaults() Config {
	return Config{
		Port:              8080,
		GinMode:           "release",
		BaseURL:           "http://localhost:8080",
		ShutdownTimeout:   10 * time.Second,
		DBLogLevel:        "warn",
		DBMaxOpenConns:    25,
		DBMaxIdleConns:    5,
		DBConnMaxLifetime: 5 * time.Minute,
		RedisKeyPrefix:    "accountsvc:",
		AccessTTL:         time.Hour,
		RefreshTTL:        720 * time.Hour,
		VerificationTTL:   5 * time.Minute,
		PendingTTL:        24 * time.Hour,
		CodeTTL:           5 * time.Minute,
		ResetThrottle:     60 * time.Second,
		PasswordAlgorithm: "bcrypt",
		SMTPPort:          587,
		SMTPFrom:          "no-reply@localhost",
		NATSSubjectPrefix: "accounts",
		CasbinModelPath:   "config/rbac_model.conf",
		CasbinPolicyPath:  "config/policies.yml",
		LogLevel:          "info",
		LogFormat:         "json",
		CleanupInterval:   15 * time.Minute,
		SessionRetention:  24 * time.Hour,
	}
}

// Load reads .env, the yaml file at path and the process environment, in
// increasing order of precedence. A missing .env or yaml file is not an error.
func Load(ctx context.Context, path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, oops.Code("CONFIG_ENV_FILE_INVALID").Wrap(err)
	}
	return LoadWithLookuper(ctx, path, envconfig.OsLookuper())
}

// LoadWithLookuper is Load without .env handling, resolving variables through l.
func LoadWithLookuper(ctx context.Context, path string, l envconfig.Lookuper) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		file, err := loadConfigFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := file.apply(&cfg); err != nil {
				return nil, oops.Code("CONFIG_INVALID").With("path", path).Wrap(err)
			}
		}
	}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, oops.Code("CONFIG_ENV_INVALID").Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	var problems []error
	if c.DSN == "" {
		problems = append(problems, errors.New("database dsn is required"))
	}
	if c.Port <= 0 {
		problems = append(problems, fmt.Errorf("port must be positive, got %d", c.Port))
	}
	for name, ttl := range map[string]time.Duration{
		"access_ttl":       c.AccessTTL,
		"refresh_ttl":      c.RefreshTTL,
		"verification_ttl": c.VerificationTTL,
		"pending_ttl":      c.PendingTTL,
		"code_ttl":         c.CodeTTL,
	} {
		if ttl <= 0 {
			problems = append(problems, fmt.Errorf("%s must be positive, got %s", name, ttl))
		}
	}
	switch c.PasswordAlgorithm {
	case "bcrypt", "argon2id":
	default:
		problems = append(problems, fmt.Errorf("unknown password algorithm %q", c.PasswordAlgorithm))
	}
	if len(problems) > 0 {
		return oops.Code("CONFIG_INVALID").Wrap(errors.Join(problems...))
	}
	return nil
}

func loadConfigFile(path string) (*ConfigFile, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, oops.Code("CONFIG_UNREADABLE").With("path", path).Wrap(err)
	}

	var file ConfigFile
	if err := yaml.Unmarshal(bytes, &file); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("path", path).Wrap(err)
	}
	return &file, nil
}

// apply copies every value set in the file over cfg.
func (f *ConfigFile) apply(cfg *Config) error {
	setInt(&cfg.Port, f.App.Port)
	setString(&cfg.GinMode, f.App.GinMode)
	setString(&cfg.BaseURL, f.App.BaseURL)

	setString(&cfg.DSN, f.Database.DSN)
	setString(&cfg.DBLogLevel, f.Database.LogLevel)
	setInt(&cfg.DBMaxOpenConns, f.Database.MaxOpenConns)
	setInt(&cfg.DBMaxIdleConns, f.Database.MaxIdleConns)

	setString(&cfg.RedisAddr, f.Redis.Addr)
	setString(&cfg.RedisPassword, f.Redis.Password)
	setInt(&cfg.RedisDB, f.Redis.DB)
	setString(&cfg.RedisKeyPrefix, f.Redis.KeyPrefix)

	setString(&cfg.PasswordAlgorithm, f.Password.Algorithm)
	setInt(&cfg.BcryptCost, f.Password.BcryptCost)

	setString(&cfg.SMTPHost, f.Email.Host)
	setInt(&cfg.SMTPPort, f.Email.Port)
	setString(&cfg.SMTPUsername, f.Email.Username)
	setString(&cfg.SMTPPassword, f.Email.Password)
	setString(&cfg.SMTPFrom, f.Email.From)
	cfg.SMTPStartTLS = cfg.SMTPStartTLS || f.Email.StartTLS

	setString(&cfg.NATSURL, f.NATS.URL)
	setString(&cfg.NATSSubjectPrefix, f.NATS.SubjectPrefix)

	setString(&cfg.CasbinModelPath, f.Casbin.ModelPath)
	setString(&cfg.CasbinPolicyPath, f.Casbin.PolicyPath)

	setString(&cfg.LogLevel, f.Log.Level)
	setString(&cfg.LogFormat, f.Log.Format)

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"app.shutdown_timeout", f.App.ShutdownTimeout, &cfg.ShutdownTimeout},
		{"database.conn_max_lifetime", f.Database.ConnMaxLifetime, &cfg.DBConnMaxLifetime},
		{"tokens.access_ttl", f.Tokens.AccessTTL, &cfg.AccessTTL},
		{"tokens.refresh_ttl", f.Tokens.RefreshTTL, &cfg.RefreshTTL},
		{"tokens.verification_ttl", f.Tokens.VerificationTTL, &cfg.VerificationTTL},
		{"tokens.pending_ttl", f.Tokens.PendingTTL, &cfg.PendingTTL},
		{"tokens.code_ttl", f.Tokens.CodeTTL, &cfg.CodeTTL},
		{"tokens.reset_throttle", f.Tokens.ResetThrottle, &cfg.ResetThrottle},
		{"cleanup.interval", f.Cleanup.Interval, &cfg.CleanupInterval},
		{"cleanup.session_retention", f.Cleanup.SessionRetention, &cfg.SessionRetention},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.name, err)
		}
		*d.dst = v
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
