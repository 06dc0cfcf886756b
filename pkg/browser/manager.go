package browser

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/entrhq/pwgen-e2e/pkg/logging"
)

// SessionManager owns the driver and every session opened through it.
// Names being launched are held in starting so they count against
// maxSessions while the browser opens outside the lock.
type SessionManager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	starting    map[string]struct{}
	driver      Driver
	maxSessions int
	initialized bool
	logger      *logging.Logger
}

// NewSessionManager creates a new session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions:    make(map[string]*Session),
		starting:    make(map[string]struct{}),
		maxSessions: DefaultMaxSessions,
		logger:      logging.Discard("browser"),
	}
}

// SetLogger routes session lifecycle logs to logger.
func (m *SessionManager) SetLogger(logger *logging.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if logger != nil {
		m.logger = logger
	}
}

// Initialize starts the driver of the given kind.
// This must be called before creating any sessions.
func (m *SessionManager) Initialize(kind DriverKind, opts InitOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	driver, err := NewDriver(kind, opts)
	if err != nil {
		return fmt.Errorf("failed to start %s driver: %w", kind, err)
	}

	m.driver = driver
	m.initialized = true
	m.logger.Infof("driver %s started", driver.Kind())
	return nil
}

// UseDriver initializes the manager with an already started driver.
func (m *SessionManager) UseDriver(driver Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.driver = driver
	m.initialized = driver != nil
}

// StartSession creates a new browser session with the given name and options.
// The name and its slot are reserved before the browser launches, so
// concurrent calls launch in parallel while still honouring maxSessions.
func (m *SessionManager) StartSession(name string, opts SessionOptions) (*Session, error) {
	m.mu.Lock()
	if !m.initialized {
		m.mu.Unlock()
		return nil, fmt.Errorf("session manager not initialized")
	}
	_, open := m.sessions[name]
	_, launching := m.starting[name]
	if open || launching {
		m.mu.Unlock()
		return nil, fmt.Errorf("session %q already exists", name)
	}
	if len(m.sessions)+len(m.starting) >= m.maxSessions {
		m.mu.Unlock()
		return nil, fmt.Errorf("maximum number of sessions (%d) reached", m.maxSessions)
	}
	m.starting[name] = struct{}{}
	driver := m.driver
	m.mu.Unlock()

	opts = opts.withDefaults()
	start := time.Now()
	page, err := driver.Open(opts)

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.starting, name)

	if err != nil {
		m.logger.Errorf("session %s: open failed: %v", name, err)
		return nil, err
	}
	if m.driver != driver {
		_ = page.Close()
		return nil, fmt.Errorf("session %q: driver stopped while the browser was starting", name)
	}

	session := newSession(name, driver.Kind(), opts.Headless, page)
	m.sessions[name] = session
	m.logger.Debugf("session %s: %s/%s opened in %s (headless=%t, permissions=%v)",
		name, driver.Kind(), opts.Browser, time.Since(start).Round(time.Millisecond), opts.Headless, opts.Permissions)
	return session, nil
}

// CloseSession closes and removes a browser session.
func (m *SessionManager) CloseSession(name string) error {
	m.mu.Lock()
	session, exists := m.sessions[name]
	delete(m.sessions, name)
	m.mu.Unlock()

	if !exists {
		return fmt.Errorf("session %q not found", name)
	}

	if err := session.Close(); err != nil {
		m.logger.Warnf("session %s: close: %v", name, err)
		return fmt.Errorf("failed to close session %q: %w", name, err)
	}
	m.logger.Debugf("session %s: closed after %s", name, time.Since(session.CreatedAt).Round(time.Millisecond))
	return nil
}

// ListSessions returns information about all open sessions, oldest first.
func (m *SessionManager) ListSessions() []SessionInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(m.sessions))
	for _, session := range m.sessions {
		infos = append(infos, SessionInfo{
			Name:       session.Name,
			Driver:     session.Driver,
			CurrentURL: session.CurrentURL(),
			Headless:   session.Headless,
			CreatedAt:  session.CreatedAt,
			LastUsedAt: session.LastUsedAt(),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].CreatedAt.Before(infos[j].CreatedAt) })
	return infos
}

// HasSessions returns true if there are any active sessions.
func (m *SessionManager) HasSessions() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions) > 0
}

// CloseAll closes all active sessions.
func (m *SessionManager) CloseAll() error {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var errs []error
	for name, session := range sessions {
		if err := session.Close(); err != nil {
			errs = append(errs, fmt.Errorf("session %q: %w", name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing sessions: %w", errors.Join(errs...))
	}
	return nil
}

// Shutdown closes all sessions and stops the driver.
func (m *SessionManager) Shutdown() error {
	closeErr := m.CloseAll()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized && m.driver != nil {
		if err := m.driver.Stop(); err != nil {
			return fmt.Errorf("failed to stop driver: %w", err)
		}
		m.logger.Infof("driver %s stopped", m.driver.Kind())
	}
	m.initialized = false
	m.driver = nil

	return closeErr
}

// SetMaxSessions sets the maximum number of concurrent sessions.
func (m *SessionManager) SetMaxSessions(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxSessions = n
}

// SessionInfo contains metadata about a browser session.
type SessionInfo struct {
	Name       string
	Driver     DriverKind
	CurrentURL string
	Headless   bool
	CreatedAt  time.Time
	LastUsedAt time.Time
}
