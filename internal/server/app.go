// Package server wires the userembed application together: storage, cache,
// embedding gateway, services and the HTTP edge. It also owns graceful
// shutdown of the process-wide resources.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/userembed/internal/logging"
	"github.com/dmitrijs2005/userembed/internal/server/cache"
	"github.com/dmitrijs2005/userembed/internal/server/config"
	"github.com/dmitrijs2005/userembed/internal/server/embedding"
	"github.com/dmitrijs2005/userembed/internal/server/embedding/embeddingpb"
	"github.com/dmitrijs2005/userembed/internal/server/httpapi"
	"github.com/dmitrijs2005/userembed/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/userembed/internal/server/services"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	redis    *redis.Client
	grpcConn *grpc.ClientConn
	server   *httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	app := &App{config: c, logger: logger}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.db = db
	if err := db.PingContext(ctx); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	userCache, rc := newCache(ctx, c.RedisAddr, logger)
	app.redis = rc

	fetchers, conn, err := newFetchers(c)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.grpcConn = conn

	gateway := embedding.NewGateway(fetchers, c.EmbeddingTimeout, logger)
	us := services.NewUserService(db, rm, c, userCache, logger)
	fs := services.NewFeatureService(db, rm, us, gateway, logger)

	app.server = httpapi.NewServer(httpapi.Options{
		Address:      c.EndpointAddrHTTP,
		SecretKey:    c.SecretKey,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
	}, logger, us, fs)

	return app, nil
}

// newCache connects to redis at addr. An empty addr, or a redis that does
// not answer, selects the in-process cache; the returned client is nil then.
func newCache(ctx context.Context, addr string, logger logging.Logger) (cache.Cache, *redis.Client) {
	if addr == "" {
		logger.Info(ctx, "redis disabled, using in-process cache")
		return cache.NewMemoryCache(), nil
	}

	client, err := cache.NewRedisClient(ctx, addr)
	if err != nil {
		logger.Warn(ctx, "redis unavailable, using in-process cache", "address", addr, "error", err)
		return cache.NewMemoryCache(), nil
	}
	return cache.NewRedisCache(client), client
}

// newFetchers builds one fetcher per configured protocol. gRPC is only
// available when an address is configured; the connection is shared by all
// requests and closed with the app.
func newFetchers(c *config.Config) (map[embedding.Protocol]embedding.Fetcher, *grpc.ClientConn, error) {
	client := &http.Client{}
	fetchers := map[embedding.Protocol]embedding.Fetcher{
		embedding.ProtocolHTTP:      embedding.NewHTTPFetcher(c.EmbeddingURL, client),
		embedding.ProtocolHTTPOctet: embedding.NewOctetFetcher(c.EmbeddingURL, client),
	}

	if c.EmbeddingGRPCAddr == "" {
		return fetchers, nil, nil
	}

	conn, err := grpc.NewClient(c.EmbeddingGRPCAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("grpc client error: %w", err)
	}
	fetchers[embedding.ProtocolGRPC] = embedding.NewGRPCFetcher(embeddingpb.NewEmbeddingServiceClient(conn))
	return fetchers, conn, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, "HTTP server failed", "error", err)
		cancelFunc()
	}
}

// Run serves until a termination signal arrives or ctx is done, then
// releases the database pool, the redis client and the gRPC connection.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.Close(); err != nil {
		app.logger.Error(context.Background(), "shutdown error", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}

// Close releases every shared resource that was opened.
func (app *App) Close() error {
	var errs []error
	if app.grpcConn != nil {
		errs = append(errs, app.grpcConn.Close())
	}
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	return errors.Join(errs...)
}
