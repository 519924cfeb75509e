package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ccelrecreo/recreo/internal/client/biometric"
	"github.com/ccelrecreo/recreo/internal/client/client"
	"github.com/ccelrecreo/recreo/internal/client/config"
	"github.com/ccelrecreo/recreo/internal/client/models"
	"github.com/ccelrecreo/recreo/internal/client/securestore"
	"github.com/ccelrecreo/recreo/internal/client/services"
	"github.com/ccelrecreo/recreo/internal/client/session"
	"github.com/ccelrecreo/recreo/internal/cryptox"
	"github.com/ccelrecreo/recreo/internal/logging"
	"go.uber.org/multierr"
)

// passcodeEnroller manages the passcode that stands in for device biometrics.
type passcodeEnroller interface {
	Enroll(ctx context.Context, passcode []byte) error
	Unenroll(ctx context.Context) error
}

type App struct {
	config      *config.Config
	authService services.AuthService
	enroller    passcodeEnroller
	logger      logging.Logger
	reader      *bufio.Reader
	out         io.Writer

	// session is the current session, persisted or not.
	session *models.Session
	closers []io.Closer
}

// NewApp wires the secure store, session store, API client, biometric gate
// and auth service described by c.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	policy, err := services.ParseStaleCredentialPolicy(c.StaleCredentialPolicy)
	if err != nil {
		return nil, err
	}

	var key []byte
	if c.DeviceKeyFile != "" {
		key, err = cryptox.LoadOrCreateKeyFile(c.DeviceKeyFile)
		if err != nil {
			return nil, err
		}
	}

	kv, closer, err := securestore.Open(ctx, securestore.Options{
		Backend:   c.StoreBackend,
		DSN:       c.StoreDSN,
		RedisAddr: c.RedisAddr,
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("open secure store: %w", err)
	}
	logger.Info(ctx, "secure store opened", "backend", c.StoreBackend, "encrypted", len(key) > 0)

	store := session.NewStore(kv, logger)
	api := client.NewHTTPClient(c.APIBaseURL, c.RequestTimeout, logger)
	platform := biometric.NewPasscodePlatform(kv, int(os.Stdin.Fd()), os.Stdout)
	gate := biometric.NewGate(platform, logger)

	return &App{
		config:      c,
		authService: services.NewAuthService(api, store, gate, logger, services.WithStaleCredentialPolicy(policy)),
		enroller:    platform,
		logger:      logger,
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
		closers:     []io.Closer{closer},
	}, nil
}

// Run starts the REPL and releases resources when it returns.
func (a *App) Run(ctx context.Context) {
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.Error(ctx, "close failed", "error", err)
		}
	}()
	a.Root(ctx)
}

func (a *App) Close() error {
	var errs error
	for _, c := range a.closers {
		errs = multierr.Append(errs, c.Close())
	}
	a.closers = nil
	return errs
}

func (a *App) isLoggedIn() bool {
	return a.session != nil
}
