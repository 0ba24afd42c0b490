// Package session owns the per-login state of the console: the user, the
// tenant schema every gateway call uses, the menu and the tab shell.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/bcnelson/erp-console/internal/card"
	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/bcnelson/erp-console/internal/entity"
	"github.com/bcnelson/erp-console/internal/export"
	"github.com/bcnelson/erp-console/internal/gateway"
	"github.com/bcnelson/erp-console/internal/menu"
	"github.com/bcnelson/erp-console/internal/permission"
	"github.com/bcnelson/erp-console/internal/service"
	"github.com/bcnelson/erp-console/internal/shell"
	"github.com/bcnelson/erp-console/internal/storage"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Session is one logged-in user.
type Session struct {
	ID           string
	UserID       string
	UserName     string
	TenantSchema string
	Locale       string
	CreatedAt    time.Time
	ExpiresAt    time.Time

	Menu  *menu.Tree
	Shell *shell.Orchestrator

	flashMu sync.Mutex
	flash   *domain.Notice
}

// Config wires a Manager.
type Config struct {
	Client   gateway.Client
	Registry *entity.Registry
	Resolver permission.Resolver
	Persist  *service.PersistService
	Metrics  *shell.Metrics
	Export   export.Options
	Duration time.Duration
	Logger   *logrus.Logger
}

// Manager creates, finds and tears down sessions.
type Manager struct {
	client   gateway.Client
	loader   *menu.Loader
	registry *entity.Registry
	resolver permission.Resolver
	persist  *service.PersistService
	metrics  *shell.Metrics
	export   export.Options
	duration time.Duration
	logger   *logrus.Logger
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a Manager.
func NewManager(cfg Config) *Manager {
	return &Manager{
		client:   cfg.Client,
		loader:   menu.NewLoader(cfg.Client, cfg.Logger),
		registry: cfg.Registry,
		resolver: cfg.Resolver,
		persist:  cfg.Persist,
		metrics:  cfg.Metrics,
		export:   cfg.Export,
		duration: cfg.Duration,
		logger:   cfg.Logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Login authenticates against the gateway, loads the tenant's menu and
// builds the session's shell. The login result is stored durably under
// the user's scope.
func (m *Manager) Login(ctx context.Context, userID, password, locale string) (*Session, error) {
	res, err := m.client.Login(ctx, userID, password)
	if err != nil {
		return nil, errors.Wrapf(err, "login %s", userID)
	}

	now := m.now()
	s := &Session{
		ID:           uuid.New().String(),
		UserID:       res.UserID,
		UserName:     res.UserName,
		TenantSchema: res.TenantSchema,
		Locale:       locale,
		CreatedAt:    now,
		ExpiresAt:    now.Add(m.duration),
	}
	if s.UserID == "" {
		s.UserID = userID
	}
	if s.UserName == "" {
		s.UserName = s.UserID
	}
	s.Menu = m.loader.Load(ctx, s.TenantSchema)
	s.Shell = shell.New(context.Background(), shell.Config{
		Registry: m.registry,
		Menu:     s.Menu,
		Mount:    m.mountFunc(s),
		Metrics:  m.metrics,
		Logger:   m.logger,
	})

	if err := storage.PutJSON(ctx, m.persist.Store(), s.UserID, storage.LoginResultsKey, res); err != nil {
		s.Shell.Close()
		return nil, errors.Wrap(err, "storing login results")
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"session": s.ID,
		"user":    s.UserID,
		"tenant":  s.TenantSchema,
	}).Info("Session started")
	return s, nil
}

func (m *Manager) mountFunc(s *Session) shell.MountFunc {
	return func(ctx context.Context, schema *entity.Schema, r card.Reporter, mirror *card.Cache) card.Handle {
		return card.Mount(ctx, card.Config{
			Schema:   schema,
			Client:   m.client,
			Resolver: m.resolver,
			Persist:  m.persist,
			Reporter: r,
			Subject:  permission.Subject{UserID: s.UserID, TenantSchema: s.TenantSchema},
			Scope:    s.UserID,
			Table:    s.TenantSchema,
			Codes:    s.Menu.Codes,
			Export:   m.export,
			Mirror:   mirror,
			Logger:   m.logger,
		})
	}
}

// Get returns a live session. Expired sessions are torn down and reported
// as unauthorized.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, errors.Wrap(domain.ErrUnauthorized, "unknown session")
	}
	if m.now().After(s.ExpiresAt) {
		if err := m.Logout(ctx, id); err != nil {
			m.logger.WithError(err).Warn("Tearing down expired session failed")
		}
		return nil, errors.Wrap(domain.ErrUnauthorized, "session expired")
	}
	return s, nil
}

// Logout closes the session's shell, clears the user's durable state and
// forgets the session. Logging out an unknown session is a no-op.
func (m *Manager) Logout(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return nil
	}

	s.Shell.Close()
	m.persist.DropScope(s.UserID)
	if err := m.persist.Store().ClearScope(ctx, s.UserID); err != nil {
		return errors.Wrap(err, "clearing user state")
	}
	m.logger.WithField("session", id).Info("Session ended")
	return nil
}

// Sweep tears down expired sessions and returns how many it removed.
func (m *Manager) Sweep(ctx context.Context) int {
	now := m.now()
	var expired []string
	m.mu.RLock()
	for id, s := range m.sessions {
		if now.After(s.ExpiresAt) {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range expired {
		if err := m.Logout(ctx, id); err != nil {
			m.logger.WithError(err).WithField("session", id).Warn("Sweeping session failed")
		}
	}
	return len(expired)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close ends every session without clearing durable state, so a restart
// restores the users' conditions and results.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Shell.Close()
	}
}
