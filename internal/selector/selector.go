// Package selector resolves, once per process, which backend implements the
// four domain services: the store-backed local services or the HTTP-backed
// remote ones.
package selector

import (
	"sync"

	"complaints/backend/internal/analysis"
	"complaints/backend/internal/complaint"
	"complaints/backend/internal/config"
	"complaints/backend/internal/gamification"
	"complaints/backend/internal/kv"
	"complaints/backend/internal/logging"
	"complaints/backend/internal/notification"
	"complaints/backend/internal/remote"
	"complaints/backend/internal/session"
	"complaints/backend/internal/storage"

	"github.com/sirupsen/logrus"
)

// Mode names a backend.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

// Deps are the collaborators handed to the services. Missing ones are built
// from the config on first use.
type Deps struct {
	Store     storage.Storage
	Publisher notification.Publisher
	Client    *remote.Client
	Logger    *logrus.Logger
}

var (
	mu     sync.Mutex
	cfg    *config.Config
	deps   Deps
	forced Mode

	resolveOnce sync.Once
	resolved    *services
)

// services is the set every accessor hands out. All four are built together
// so they always share one backend.
type services struct {
	mode          Mode
	complaints    complaint.Service
	analytics     analysis.Service
	gamification  gamification.Service
	notifications notification.Service
}

// Init supplies the configuration and dependencies. It must run before the
// first service is requested to have any effect.
func Init(c *config.Config, d Deps) {
	mu.Lock()
	defer mu.Unlock()
	cfg = c
	deps = d
}

// ForceMode overrides the configured backend. Like Init, it has no effect once
// the services are resolved.
func ForceMode(m Mode) {
	mu.Lock()
	defer mu.Unlock()
	forced = m
}

// CurrentMode reports the backend the services resolve to.
func CurrentMode() Mode {
	mu.Lock()
	defer mu.Unlock()
	if resolved != nil {
		return resolved.mode
	}
	return modeLocked()
}

func modeLocked() Mode {
	if forced != "" {
		return forced
	}
	if cfg != nil && !cfg.UseLocalBackend {
		return ModeRemote
	}
	return ModeLocal
}

// Reset forgets the resolved services. Only for tests: it is not safe to call
// while services are in use.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cfg = nil
	deps = Deps{}
	forced = ""
	resolveOnce = sync.Once{}
	resolved = nil
}

// Complaints returns the process-wide complaints service.
func Complaints() complaint.Service {
	return resolve().complaints
}

// Analytics returns the process-wide analytics service.
func Analytics() analysis.Service {
	return resolve().analytics
}

// Gamification returns the process-wide gamification service.
func Gamification() gamification.Service {
	return resolve().gamification
}

// Notifications returns the process-wide notification service.
func Notifications() notification.Service {
	return resolve().notifications
}

// resolve builds all four services from one reading of the mode, config and
// deps on the first call and returns the same set afterwards.
func resolve() *services {
	resolveOnce.Do(func() {
		mu.Lock()
		defer mu.Unlock()

		c := settingsLocked()
		set := &services{mode: modeLocked()}
		if set.mode == ModeRemote {
			client := clientLocked(c)
			set.complaints = remote.NewComplaints(client)
			set.analytics = remote.NewAnalytics(client)
			set.gamification = remote.NewGamification(client)
			set.notifications = remote.NewNotifications(client)
		} else {
			store := storeLocked(c)
			set.complaints = complaint.NewLocal(store, deps.Publisher, deps.Logger)
			set.analytics = analysis.NewLocal(store, deps.Logger)
			set.gamification = gamification.NewLocal(store, deps.Publisher, deps.Logger)
			set.notifications = notification.NewLocal(store, deps.Publisher, deps.Logger)
		}
		resolved = set
		logging.Component(deps.Logger, "selector").WithField("mode", set.mode).Debug("Services resolved")
	})

	mu.Lock()
	defer mu.Unlock()
	return resolved
}

func settingsLocked() *config.Config {
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			logging.Component(deps.Logger, "selector").WithError(err).Warn("Falling back to default settings")
			loaded = &config.Config{UseLocalBackend: true}
		}
		cfg = loaded
	}
	return cfg
}

// storeLocked returns the shared store. Without one in Deps, a store over an
// in-memory KV is opened lazily on first use.
func storeLocked(c *config.Config) storage.Storage {
	if deps.Store == nil {
		deps.Store = storage.New(kv.NewMemory(), storage.Options{
			Driver:      c.DBDriver,
			DSN:         c.DBDSN,
			WorkDir:     c.WorkDir,
			SnapshotKey: c.SnapshotKey,
			Logger:      deps.Logger,
		})
	}
	return deps.Store
}

func clientLocked(c *config.Config) *remote.Client {
	if deps.Client == nil {
		deps.Client = remote.NewClient(remote.ClientConfig{
			BaseURL:    c.APIBaseURL,
			Timeout:    c.APITimeout,
			MaxRetries: c.APIMaxRetries,
			Tokens:     session.NewTokens(c.JWTSecret, c.JWTTTL),
			Logger:     deps.Logger,
		})
	}
	return deps.Client
}
