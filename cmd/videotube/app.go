package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nkiryanov/videotube/internal/db"
	"github.com/nkiryanov/videotube/internal/handlers"
	"github.com/nkiryanov/videotube/internal/handlers/middleware"
	"github.com/nkiryanov/videotube/internal/logger"
	"github.com/nkiryanov/videotube/internal/media"
	"github.com/nkiryanov/videotube/internal/metrics"
	"github.com/nkiryanov/videotube/internal/repository/postgres"
	"github.com/nkiryanov/videotube/internal/service/auth"
	"github.com/nkiryanov/videotube/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/videotube/internal/service/channel"
	"github.com/nkiryanov/videotube/internal/service/comment"
	"github.com/nkiryanov/videotube/internal/service/like"
	"github.com/nkiryanov/videotube/internal/service/subscription"
	"github.com/nkiryanov/videotube/internal/service/tweet"
	"github.com/nkiryanov/videotube/internal/service/user"
	"github.com/nkiryanov/videotube/internal/service/video"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second

	// Idle login limiter buckets are dropped after that
	loginLimiterTTL = 10 * time.Minute
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger logger.Logger
	close  func()
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Token manager first: misconfigured secrets should fail before touching the database
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		AccessSecret:  c.AccessSecret,
		RefreshSecret: c.RefreshSecret,
		AccessTTL:     c.AccessTTL,
		RefreshTTL:    c.RefreshTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Media storage; uploads are disabled if no bucket configured
	var store media.Store = media.DisabledStore{}
	if c.S3Bucket != "" {
		store, err = media.NewS3Store(ctx, media.S3Config{
			Bucket:        c.S3Bucket,
			Region:        c.S3Region,
			Endpoint:      c.S3Endpoint,
			PublicBaseURL: c.S3PublicBaseURL,
		})
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("error while creating media storage. Err: %w", err)
		}
	} else {
		l.Warn("S3 bucket not configured, media uploads are disabled")
	}

	// Initialize services
	authService, err := auth.NewService(auth.Config{
		SecureCookies: c.Environment == logger.EnvProduction,
	}, tokenManager, storage.User())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	services := handlers.Services{
		Auth:          authService,
		Users:         user.NewService(storage.User(), store, l),
		Videos:        video.NewService(storage, store, l),
		Comments:      comment.NewService(storage),
		Tweets:        tweet.NewService(storage),
		Likes:         like.NewService(storage),
		Subscriptions: subscription.NewService(storage),
		Channels:      channel.NewService(storage),
	}

	cfg := handlers.Config{CORSOrigins: c.CORSOrigins}
	if c.LoginRateLimit > 0 {
		cfg.LoginLimiter = middleware.NewIPRateLimiter(c.LoginRateLimit, time.Minute, loginLimiterTTL)
	}

	router, err := handlers.NewRouter(services, cfg, metrics.New(), l)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while creating router. Err: %w", err)
	}

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    router,
		logger:     l,
		close:      pool.Close,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	defer s.close()

	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
