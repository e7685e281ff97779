// Package httpapi is the public HTTP edge of the server, built on fiber.
package httpapi

import (
	"context"
	"time"

	"github.com/dmitrijs2005/userembed/internal/logging"
	"github.com/dmitrijs2005/userembed/internal/server/models"
	"github.com/dmitrijs2005/userembed/internal/server/services"
	"github.com/gofiber/fiber/v2"
)

// UserAPI is the account surface the edge needs.
type UserAPI interface {
	Register(ctx context.Context, cmd services.RegisterCommand) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	ListUsers(ctx context.Context, limit int, prev int64) ([]*models.User, error)
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

// FeatureAPI is the embedding lifecycle surface the edge needs.
type FeatureAPI interface {
	Create(ctx context.Context, userID int64, cmd services.FeatureCommand) (*services.FeatureVector, error)
	Update(ctx context.Context, userID int64, cmd services.FeatureCommand) (*services.FeatureVector, error)
	Get(ctx context.Context, userID int64) (*services.FeatureVector, error)
	GetBinary(ctx context.Context, userID int64) (*services.FeatureBinary, error)
	Delete(ctx context.Context, userID int64) (*services.DeletedFeature, error)
}

type Options struct {
	Address      string
	SecretKey    string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Server struct {
	address   string
	app       *fiber.App
	users     UserAPI
	features  FeatureAPI
	logger    logging.Logger
	jwtSecret []byte
}

func NewServer(opts Options, l logging.Logger, us UserAPI, fs FeatureAPI) *Server {
	s := &Server{
		address:   opts.Address,
		users:     us,
		features:  fs,
		logger:    l.With("module", "http_server"),
		jwtSecret: []byte(opts.SecretKey),
	}

	s.app = fiber.New(fiber.Config{
		ReadTimeout:           opts.ReadTimeout,
		WriteTimeout:          opts.WriteTimeout,
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})
	s.routes()

	return s
}

func (s *Server) routes() {
	s.app.Use(s.requestLogger)

	NewHealthHandler().Register(s.app)

	v1 := s.app.Group("/api/v1")
	NewUserHandler(s.users).Register(v1, s.requireAuth, s.requireAdmin)
	NewFeatureHandler(s.features).Register(v1, s.requireAuth, s.requireAdmin)
}

// App exposes the fiber application, mainly for app.Test.
func (s *Server) App() *fiber.App { return s.app }

// Run serves until ctx is done, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	return s.app.Listen(s.address)
}
