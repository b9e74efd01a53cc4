package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/nhle/focus/internal/credential"
	"github.com/nhle/focus/internal/logging"
	"github.com/nhle/focus/internal/model"
	"github.com/nhle/focus/internal/settings"
	"github.com/nhle/focus/internal/stats"
	"github.com/nhle/focus/internal/store"
	"github.com/nhle/focus/internal/store/remote"
	appsync "github.com/nhle/focus/internal/sync"
	"github.com/nhle/focus/internal/tasks"
)

// session wires the services of one command run to a backend.
type session struct {
	cfg      *model.AppConfig
	log      *logrus.Logger
	store    store.Store
	writer   *appsync.Writer
	tasks    *tasks.Manager
	stats    *stats.Tracker
	settings *settings.Service
	backend  string
	closers  []io.Closer
}

// loadConfig reads the config file, applies flag overrides and makes
// sure the device has an id.
func loadConfig(flags *globalFlags) (*model.AppConfig, error) {
	cfg, err := model.LoadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.backend != "" {
		cfg.Storage.Backend = flags.backend
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if cfg.EnsureDeviceID() {
		if err := model.SaveConfig(flags.configPath, cfg); err != nil {
			return nil, fmt.Errorf("saving device id: %w", err)
		}
	}
	return cfg, nil
}

// openSession loads config, opens the backend and loads every service.
// When logFile is true logs go to focus.log in the data directory so they
// do not draw over the terminal UI.
func openSession(ctx context.Context, flags *globalFlags, logFile bool) (*session, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, backend: cfg.Storage.Backend}
	if logFile {
		log, closer, err := logging.NewFile(cfg.Log.Level, filepath.Join(model.DefaultDataDir(), "focus.log"))
		if err != nil {
			return nil, err
		}
		s.log = log
		s.closers = append(s.closers, closer)
	} else {
		s.log = logging.New(cfg.Log.Level, os.Stderr)
	}

	owner, err := s.openStore()
	if err != nil {
		s.closeAll()
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"backend": s.backend, "owner": owner}).Debug("store opened")

	s.writer = appsync.NewWriter(s.log)
	s.stats = stats.NewTracker(s.store, owner,
		stats.WithWriter(s.writer),
		stats.WithLogger(s.log),
	)
	s.tasks = tasks.NewManager(s.store, owner,
		tasks.WithWriter(s.writer),
		tasks.WithLogger(s.log),
		tasks.OnCompleted(func(t model.Task) {
			if ms, ok := s.stats.RecordCompletion(); ok {
				s.log.WithFields(logrus.Fields{"task": t.ID, "milestone": ms}).Info("milestone reached")
			}
		}),
	)
	s.settings = settings.NewService(s.store, owner,
		settings.WithWriter(s.writer),
		settings.WithLogger(s.log),
		settings.WithTasks(s.tasks),
		settings.WithDefaultTheme(cfg.Display.Theme),
	)
	s.writer.OnReconcile(s.tasks.Reload)
	s.writer.OnReconcile(s.stats.Reload)
	s.writer.OnReconcile(s.settings.Reload)

	if err := errors.Join(
		s.tasks.Load(ctx),
		s.stats.Load(ctx),
		s.settings.Load(ctx),
	); err != nil {
		s.Close()
		return nil, fmt.Errorf("loading state: %w", err)
	}
	return s, nil
}

// openStore opens the configured backend and returns the owner id that
// scopes every row.
func (s *session) openStore() (string, error) {
	switch s.cfg.Storage.Backend {
	case model.BackendRemote:
		token := s.cfg.Remote.AccessToken
		if token == "" {
			vault, err := credential.Open(model.DefaultDataDir())
			if err != nil {
				return "", err
			}
			if token, err = vault.AccessToken(); err != nil {
				return "", err
			}
		}
		owner, err := remote.OwnerFromToken(token)
		if err != nil {
			return "", err
		}
		st, err := remote.New(s.cfg.Remote.URL, s.cfg.Remote.Key, token)
		if err != nil {
			return "", err
		}
		s.store = st
		return owner, nil

	default:
		st, err := store.NewSQLiteStore(s.cfg.Storage.Path)
		if err != nil {
			return "", fmt.Errorf("opening database: %w", err)
		}
		s.store = st
		return s.cfg.Device.ID, nil
	}
}

// ping reads the owner's settings row to check the backend answers.
func (s *session) ping(ctx context.Context) error {
	_, err := s.store.GetSettings(ctx, s.tasks.Owner())
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// Close waits for pending writes, then releases the backend and log file.
func (s *session) Close() {
	if s.writer != nil {
		s.writer.Wait()
		s.writer.Close()
		if st := s.writer.Status(); st.LastError != nil {
			fmt.Fprintf(os.Stderr, "warning: %s failed: %v\n", st.LastOp, st.LastError)
		}
	}
	s.closeAll()
}

func (s *session) closeAll() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.log.WithError(err).Warn("closing store")
		}
	}
	for _, c := range s.closers {
		_ = c.Close()
	}
}
