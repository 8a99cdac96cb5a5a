package main

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/Sternrassler/git-notes/internal/config"
	"github.com/Sternrassler/git-notes/pkg/cache"
	"github.com/Sternrassler/git-notes/pkg/client"
	"github.com/Sternrassler/git-notes/pkg/gist"
	"github.com/Sternrassler/git-notes/pkg/identity"
	"github.com/Sternrassler/git-notes/pkg/logging"
	"github.com/Sternrassler/git-notes/pkg/queries"
	"github.com/Sternrassler/git-notes/pkg/session"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// app is the wired stack shared by all commands.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	session *session.Session
	client  *client.Client
	svc     *queries.Service
	redis   *redis.Client
}

// newApp loads configuration and builds the client, cache and query layer.
func newApp(ctx context.Context, v *viper.Viper, configFile string, stderr io.Writer) (*app, error) {
	cfg, err := config.Load(v, configFile)
	if err != nil {
		return nil, err
	}

	logging.Setup(logging.Config{
		Level:   logging.LogLevel(cfg.Log.Level),
		Pretty:  cfg.Log.Pretty,
		Output:  stderr,
		Service: "git-notes",
	})
	logger := logging.NewLogger(logging.ComponentCLI)

	a := &app{
		cfg:     cfg,
		logger:  logger,
		session: session.New(logging.NewLogger(logging.ComponentSession)),
	}

	var store cache.Store = cache.NewMemoryStore()
	if cfg.Cache.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.redis.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Cache.RedisAddr, err)
		}
		logger.Debug().Str("addr", cfg.Cache.RedisAddr).Msg("Connected to Redis")
		store = cache.NewRedisStore(a.redis, cfg.Cache.Retention)
	}

	clientCfg := client.DefaultConfig(cfg.GitHub.UserAgent)
	clientCfg.BaseURL = cfg.GitHub.BaseURL
	clientCfg.Timeout = cfg.GitHub.Timeout
	clientCfg.Tokens = a.session
	a.client, err = client.New(clientCfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create github client: %w", err)
	}

	manager := cache.NewManager(store, logging.NewLogger(logging.ComponentCache))
	a.svc = queries.NewService(gist.NewAPI(a.client), manager, a.session, logging.NewLogger(logging.ComponentQueries))
	return a, nil
}

// authenticate signs in with the configured token. Without a token the
// session stays anonymous unless required is set.
func (a *app) authenticate(ctx context.Context, required bool) error {
	if a.cfg.GitHub.Token == "" {
		if required {
			return fmt.Errorf("%w: set github.token or run `git-notes login`", session.ErrNotLoggedIn)
		}
		return nil
	}
	return a.login(ctx, a.staticProvider())
}

func (a *app) login(ctx context.Context, provider identity.Provider) error {
	cred, err := provider.Login(ctx)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if err := a.session.Login(cred.Token, cred.User); err != nil {
		return err
	}
	a.logger.Debug().Str("login", cred.User.Login).Msg("Signed in")
	return nil
}

func (a *app) staticProvider() identity.StaticTokenProvider {
	return identity.StaticTokenProvider{
		Token:      a.cfg.GitHub.Token,
		APIBaseURL: a.cfg.GitHub.BaseURL,
		HTTPClient: a.httpClient(),
	}
}

func (a *app) httpClient() *http.Client {
	return &http.Client{Timeout: a.cfg.GitHub.Timeout}
}

// ready reports cache store health for the readiness probe.
func (a *app) ready(ctx context.Context) error {
	if a.redis == nil {
		return nil
	}
	return a.redis.Ping(ctx).Err()
}

// Close releases the Redis connection. The session is not logged out: that
// would clear a shared cache on every invocation.
func (a *app) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
