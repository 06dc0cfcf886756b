package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/entrhq/pwgen-e2e/pkg/browser"
	"github.com/entrhq/pwgen-e2e/pkg/logging"
)

// Provider hands out one page per scenario and takes it back afterwards.
type Provider interface {
	Open(ctx context.Context, name string) (browser.Page, error)
	Release(name string) error
}

// Auditor is implemented by providers that can list pages still open. The
// runner checks it once every scenario has finished.
type Auditor interface {
	Outstanding() []browser.SessionInfo
}

// ProvisionerConfig configures how scenario sessions are prepared.
type ProvisionerConfig struct {
	// TargetURL is loaded into every new session
	TargetURL string

	// Session holds the browser options; clipboard permissions are always added
	Session browser.SessionOptions

	// ReadyTimeout bounds the wait for document.readyState to become complete
	ReadyTimeout time.Duration
}

const readyScript = `() => document.readyState === "complete"`

// Provisioner prepares a fresh browser session per scenario: launch, clipboard
// permissions, navigation and readiness. Sessions are never reused.
type Provisioner struct {
	manager *browser.SessionManager
	cfg     ProvisionerConfig
	logger  *logging.Logger
}

var (
	_ Provider = (*Provisioner)(nil)
	_ Auditor  = (*Provisioner)(nil)
)

// NewProvisioner creates a provisioner backed by an initialized manager.
func NewProvisioner(manager *browser.SessionManager, cfg ProvisionerConfig, logger *logging.Logger) *Provisioner {
	if logger == nil {
		logger = logging.Discard("provisioner")
	}
	cfg.Session.Permissions = withClipboard(cfg.Session.Permissions)
	return &Provisioner{manager: manager, cfg: cfg, logger: logger}
}

func withClipboard(perms []string) []string {
	out := append([]string(nil), perms...)
	for _, required := range browser.ClipboardPermissions {
		found := false
		for _, p := range out {
			if p == required {
				found = true
				break
			}
		}
		if !found {
			out = append(out, required)
		}
	}
	return out
}

// Acquire starts a session named name and loads the target page into it.
// Any failure tears the session down and is reported as an environment
// Failure.
func (p *Provisioner) Acquire(ctx context.Context, name string) (*browser.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, Environment("run cancelled before session start", err)
	}

	start := time.Now()
	session, err := p.manager.StartSession(name, p.cfg.Session)
	if err != nil {
		return nil, Environment("failed to start browser session", err)
	}

	fail := func(message string, err error) (*browser.Session, error) {
		if releaseErr := p.Release(name); releaseErr != nil {
			p.logger.Warnf("session %s: teardown after failed setup: %v", name, releaseErr)
		}
		return nil, Environment(message, err).WithDetail("url", p.cfg.TargetURL)
	}

	if err := session.Navigate(p.cfg.TargetURL, browser.NavigateOptions{WaitUntil: "load"}); err != nil {
		return fail("failed to load target page", err)
	}

	if err := session.WaitForFunction(readyScript, p.cfg.ReadyTimeout); err != nil {
		return fail("target page never finished loading", err)
	}

	p.logger.Debugf("session %s: %s ready in %s", name, session.CurrentURL(), time.Since(start).Round(time.Millisecond))
	return session, nil
}

// Open implements Provider.
func (p *Provisioner) Open(ctx context.Context, name string) (browser.Page, error) {
	session, err := p.Acquire(ctx, name)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Outstanding lists the sessions that were acquired and never released.
func (p *Provisioner) Outstanding() []browser.SessionInfo {
	return p.manager.ListSessions()
}

// Release closes the session's page, context and browser.
func (p *Provisioner) Release(name string) error {
	if err := p.manager.CloseSession(name); err != nil {
		return fmt.Errorf("release %s: %w", name, err)
	}
	return nil
}
