package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/you/accountsvc/domain"
	"github.com/you/accountsvc/internal/config"
	httpx "github.com/you/accountsvc/internal/http"
	"github.com/you/accountsvc/internal/http/handlers"
	"github.com/you/accountsvc/internal/http/middleware"
	"github.com/you/accountsvc/internal/infrastructure/auth"
	"github.com/you/accountsvc/internal/infrastructure/database"
	"github.com/you/accountsvc/internal/infrastructure/events"
	"github.com/you/accountsvc/internal/infrastructure/notifications"
	"github.com/you/accountsvc/internal/infrastructure/repositories"
	"github.com/you/accountsvc/internal/infrastructure/throttle"
	"github.com/you/accountsvc/internal/observability"
	"github.com/you/accountsvc/internal/services"
)

// Container holds all dependencies
type Container struct {
	Config *config.Config
	Log    zerolog.Logger

	// Infrastructure
	DB          *gorm.DB
	RedisClient *redis.Client
	Casbin      *auth.CasbinService
	Metrics     *observability.Metrics

	// Repositories
	UserRepo    domain.UserRepository
	ProfileRepo domain.ProfileRepository
	PendingRepo domain.PendingUserRepository
	TokenRepo   domain.TokenRepository
	CodeRepo    domain.CodeRepository
	SessionRepo domain.SessionRepository
	Tx          *repositories.Transactor

	// Collaborators
	Clock           domain.Clock
	Generator       domain.ValueGenerator
	PasswordSvc     domain.PasswordService
	NotificationSvc domain.NotificationService
	Audit           domain.AuditLogger
	Throttle        domain.Throttle

	// Services
	Issuer          *services.Issuer
	Sessions        domain.SessionManager
	AuthSvc         domain.AuthService
	RegistrationSvc domain.RegistrationService
	ResetSvc        domain.PasswordResetService
	AdminSvc        domain.AccountAdminService
	PolicySvc       domain.PolicyService
	Janitor         *services.Janitor

	closers []func()
}

// NewContainer connects to the backing services and wires everything.
func NewContainer(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Log: log}

	if err := c.initInfrastructure(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	if err := c.wire(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) initInfrastructure(ctx context.Context) error {
	db, err := database.Open(c.Config.DSN, database.Options{
		LogLevel:        c.Config.DBLogLevel,
		MaxOpenConns:    c.Config.DBMaxOpenConns,
		MaxIdleConns:    c.Config.DBMaxIdleConns,
		ConnMaxLifetime: c.Config.DBConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	c.DB = db

	c.RedisClient, err = database.NewRedis(ctx, c.Config.RedisAddr, c.Config.RedisPassword, c.Config.RedisDB)
	if err != nil {
		return err
	}
	if c.RedisClient == nil {
		c.Log.Warn().Msg("redis not configured, password reset requests are not throttled")
	}
	return nil
}

// wire builds repositories, services and observers on top of c.DB and the
// optional c.RedisClient.
func (c *Container) wire() error {
	cfg := c.Config

	cas, err := auth.NewCasbinService(c.DB, cfg.CasbinModelPath)
	if err != nil {
		return err
	}
	c.Casbin = cas

	if c.Metrics == nil {
		c.Metrics = observability.NewMetrics()
	}

	c.initRepositories()

	if c.Clock == nil {
		c.Clock = auth.SystemClock{}
	}
	if c.Generator == nil {
		c.Generator = auth.NewRandomGenerator()
	}
	c.PasswordSvc, err = auth.NewPasswordService(cfg.PasswordAlgorithm, cfg.BcryptCost)
	if err != nil {
		return err
	}
	if c.NotificationSvc == nil {
		c.NotificationSvc = notifications.NewEmailService(notifications.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			StartTLS: cfg.SMTPStartTLS,
		}, c.Log)
	}
	if err := c.initAudit(); err != nil {
		return err
	}
	if c.RedisClient != nil {
		c.Throttle = throttle.NewRedisThrottle(c.RedisClient, cfg.RedisKeyPrefix)
	}

	c.initServices()
	return nil
}

func (c *Container) initRepositories() {
	c.UserRepo = repositories.NewUserRepository(c.DB)
	c.ProfileRepo = repositories.NewProfileRepository(c.DB)
	c.PendingRepo = repositories.NewPendingUserRepository(c.DB)
	c.TokenRepo = repositories.NewTokenRepository(c.DB)
	c.CodeRepo = repositories.NewCodeRepository(c.DB)
	c.SessionRepo = repositories.NewSessionRepository(c.DB)
	c.Tx = repositories.NewTransactor(c.DB)
}

// initAudit always logs audit events and also publishes them when NATS is configured.
func (c *Container) initAudit() error {
	sinks := events.MultiAuditor{events.NewLogAuditor(c.Log)}

	if c.Config.NATSURL != "" {
		pub, closeFn, err := events.NewNATSPublisher(c.Config.NATSURL, c.Config.NATSSubjectPrefix, nats.Name("accountsvc"))
		if err != nil {
			return err
		}
		c.closers = append(c.closers, closeFn)
		sinks = append(sinks, pub)
	}
	c.Audit = sinks
	return nil
}

func (c *Container) initServices() {
	cfg := c.Config
	obs := services.Observers{Audit: c.Audit, Metrics: c.Metrics, Log: c.Log}

	c.Issuer = services.NewIssuer(c.Generator, c.Clock, services.IssuerConfig{
		AccessTTL:       cfg.AccessTTL,
		RefreshTTL:      cfg.RefreshTTL,
		VerificationTTL: cfg.VerificationTTL,
		CodeTTL:         cfg.CodeTTL,
	})
	c.Sessions = services.NewSessionManager(c.SessionRepo, c.Tx, c.Issuer)
	c.AuthSvc = services.NewAuthService(c.UserRepo, c.PendingRepo, c.Sessions, c.PasswordSvc, c.Clock, obs)
	c.RegistrationSvc = services.NewRegistrationService(
		c.UserRepo, c.PendingRepo, c.ProfileRepo, c.Tx, c.PasswordSvc, c.NotificationSvc, c.Issuer,
		services.RegistrationConfig{PendingTTL: cfg.PendingTTL, VerifyBaseURL: cfg.BaseURL},
		obs,
	)

	c.ResetSvc = services.NewPasswordResetService(
		c.UserRepo, c.CodeRepo, c.TokenRepo, c.Tx, c.PasswordSvc, c.NotificationSvc, c.Throttle, c.Issuer,
		services.PasswordResetConfig{ThrottleWindow: cfg.ResetThrottle},
		obs,
	)
	c.AdminSvc = services.NewAccountAdminService(c.UserRepo, c.SessionRepo, c.Tx, c.Clock, obs)
	c.PolicySvc = services.NewPolicyService(c.Casbin.E)
	c.Janitor = services.NewJanitor(c.CodeRepo, c.TokenRepo, c.SessionRepo, c.Clock, services.JanitorConfig{
		Interval:         cfg.CleanupInterval,
		SessionRetention: cfg.SessionRetention,
	}, c.Log)
}

// Router builds the gin engine serving every endpoint.
func (c *Container) Router() *gin.Engine {
	h := httpx.Handlers{
		Auth:     handlers.NewAuthHandlers(c.AuthSvc, c.RegistrationSvc),
		Password: handlers.NewPasswordHandlers(c.ResetSvc),
		Admin:    handlers.NewAdminHandlers(c.AdminSvc),
		Policy:   handlers.NewPolicyHandlers(c.PolicySvc),
	}
	return httpx.BuildRouter(
		h,
		middleware.NewAuthMW(c.AuthSvc),
		middleware.NewCasbinMW(c.PolicySvc, c.Audit),
		c.Metrics,
		c.Log,
	)
}

// Close closes all connections
func (c *Container) Close() error {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil

	if c.RedisClient != nil {
		_ = c.RedisClient.Close()
	}
	return database.Close(c.DB)
}
