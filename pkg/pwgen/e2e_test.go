//go:build e2e

package pwgen_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/entrhq/pwgen-e2e/pkg/browser"
	"github.com/entrhq/pwgen-e2e/pkg/config"
	"github.com/entrhq/pwgen-e2e/pkg/fixture"
	"github.com/entrhq/pwgen-e2e/pkg/harness"
	"github.com/entrhq/pwgen-e2e/pkg/logging"
	"github.com/entrhq/pwgen-e2e/pkg/pwgen"
)

// TestPasswordGenerator runs every scenario against a real browser. The
// target is the configured URL, or the built-in fixture page when
// PWGEN_USE_FIXTURE=1.
//
//	go test -tags e2e ./pkg/pwgen -run TestPasswordGenerator
func TestPasswordGenerator(t *testing.T) {
	cfg, err := config.Load(os.Getenv("PWGEN_CONFIG"))
	require.NoError(t, err)

	if os.Getenv("PWGEN_USE_FIXTURE") == "1" {
		srv, err := fixture.Start("127.0.0.1:0", nil)
		require.NoError(t, err)
		t.Cleanup(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		})
		cfg.TargetURL = srv.URL()
	}

	settings, err := cfg.Settings()
	require.NoError(t, err)
	runnerCfg, err := cfg.RunnerConfig()
	require.NoError(t, err)

	logger := logging.Discard("e2e")
	manager := browser.NewSessionManager()
	manager.SetLogger(logger)
	manager.SetMaxSessions(cfg.Run.Parallel)
	if err := manager.Initialize(cfg.DriverKind(), cfg.InitOptions()); err != nil {
		t.Skipf("browser driver unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := manager.Shutdown(); err != nil {
			t.Logf("browser shutdown: %v", err)
		}
	})

	provisioner := harness.NewProvisioner(manager, cfg.ProvisionerConfig(), logger)
	t.Logf("target %s via %s/%s", cfg.TargetURL, cfg.Browser.Driver, cfg.Browser.Name)

	harness.RunT(t, provisioner, pwgen.Scenarios(settings), runnerCfg)
}
