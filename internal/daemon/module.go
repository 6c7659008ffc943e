package daemon

import (
	"context"
	"path/filepath"
	"time"

	"github.com/vialibre/opchat/internal/attendance"
	"github.com/vialibre/opchat/internal/bus"
	"github.com/vialibre/opchat/internal/config"
	"github.com/vialibre/opchat/internal/gateway"
	"github.com/vialibre/opchat/internal/lock"
	"github.com/vialibre/opchat/internal/logging"
	"github.com/vialibre/opchat/internal/profile"
	"github.com/vialibre/opchat/internal/sched"
	"github.com/vialibre/opchat/internal/store"
	intsync "github.com/vialibre/opchat/internal/sync"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved operator configuration passed to the fx module.
type Params struct {
	OperatorCode string
	DataDir      string // optional override for testing; empty = use profile dir
}

func (p Params) profileDir() string {
	if p.DataDir != "" {
		return p.DataDir
	}
	return profile.Dir(p.OperatorCode)
}

// Module returns the fx module for the daemon, composing all providers and
// lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideLock,
			provideStore,
			provideGateway,
			func(c *gateway.Client) gateway.Gateway { return c },
			provideCoordinator,
			provideRecorder,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig() *config.Config {
	cfg, err := config.Load(profile.ConfigPath())
	if err != nil {
		return config.Default()
	}
	return cfg
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(profile.LogDir(p.OperatorCode), p.OperatorCode)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	logger.Info("acquiring profile lock", zap.String("operator", p.OperatorCode))
	l, err := lock.Acquire(p.profileDir())
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

func provideStore(p Params, logger *zap.Logger) (*store.DB, error) {
	dbPath := filepath.Join(p.profileDir(), "opchat.db")
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideGateway(cfg *config.Config, logger *zap.Logger) *gateway.Client {
	return gateway.NewClient(cfg.API.BaseURL, cfg.Timeout(), logger)
}

func provideCoordinator(db *store.DB, gw gateway.Gateway, b *bus.Bus, logger *zap.Logger) *intsync.Coordinator {
	return intsync.NewCoordinator(db, gw, b, logger)
}

func provideRecorder(db *store.DB, gw gateway.Gateway, logger *zap.Logger) *attendance.Recorder {
	return attendance.NewRecorder(db, gw, logger)
}

func registerLifecycle(lc fx.Lifecycle, p Params, cfg *config.Config, client *gateway.Client, coord *intsync.Coordinator, rec *attendance.Recorder, lk *lock.Lock, logger *zap.Logger) {
	syncRunner := sched.New("sync", cfg.SyncInterval(), func(ctx context.Context) error {
		return coord.RunCycle(ctx, p.OperatorCode)
	}, logger)
	attendanceRunner := sched.New("attendance", cfg.AttendanceInterval(), func(ctx context.Context) error {
		_, err := rec.UploadPending(ctx, p.OperatorCode)
		return err
	}, logger)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := profile.EnsureDir(p.OperatorCode); err != nil {
				return err
			}

			sess, err := ensureSession(ctx, p, client, logger)
			if err != nil {
				return err
			}
			client.SetToken(sess.Token)

			if n, err := coord.RefreshPredefinedResponses(ctx); err != nil {
				logger.Warn("predefined responses refresh failed", zap.Error(err))
			} else {
				logger.Info("predefined responses refreshed", zap.Int("count", n))
			}

			syncRunner.Start(context.Background())
			attendanceRunner.Start(context.Background())
			logger.Info("daemon started", zap.String("operator", p.OperatorCode))
			return nil
		},
		OnStop: func(_ context.Context) error {
			syncRunner.Stop()
			attendanceRunner.Stop()
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}

// ensureSession loads the saved session, re-authenticating when it is missing
// or expired.
func ensureSession(ctx context.Context, p Params, client *gateway.Client, logger *zap.Logger) (*profile.Session, error) {
	sessionPath := profile.SessionPath(p.OperatorCode)

	sess, err := profile.LoadSession(sessionPath)
	if err == nil && sess.Valid(time.Now()) {
		logger.Info("reusing saved session", zap.Time("expires_at", sess.ExpiresAt))
		return sess, nil
	}

	logger.Info("authenticating", zap.String("operator", p.OperatorCode))
	remote, err := client.Authenticate(ctx, p.OperatorCode)
	if err != nil {
		return nil, err
	}
	sess = &profile.Session{
		Token:       remote.Token,
		OperatorID:  remote.OperatorID,
		DisplayName: remote.DisplayName,
		ExpiresAt:   remote.ExpiresAt,
	}
	if err := profile.SaveSession(sessionPath, sess); err != nil {
		logger.Warn("could not save session", zap.Error(err))
	}
	return sess, nil
}
