package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/entrhq/pwgen-e2e/pkg/browser"
	"github.com/entrhq/pwgen-e2e/pkg/config"
	"github.com/entrhq/pwgen-e2e/pkg/fixture"
	"github.com/entrhq/pwgen-e2e/pkg/harness"
	"github.com/entrhq/pwgen-e2e/pkg/logging"
	"github.com/entrhq/pwgen-e2e/pkg/pwgen"
	"github.com/entrhq/pwgen-e2e/pkg/report"
)

var (
	configFlag      string
	targetURLFlag   string
	driverFlag      string
	browserFlag     string
	headedFlag      bool
	parallelFlag    int
	tagsFlag        []string
	excludeTagsFlag []string
	artifactsFlag   string
	verbosityFlag   string
	useFixtureFlag  bool
	fixtureAddrFlag string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scenarios and write reports",
	Long: `Run executes every selected scenario on its own browser session and
exits with status 1 when any scenario failed, broke or was skipped.`,
	RunE: runScenarios,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the selected scenarios without running them",
	RunE:  listScenarios,
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Download the playwright driver and the configured browser",
	RunE:  installBrowsers,
}

var fixtureCmd = &cobra.Command{
	Use:   "fixture",
	Short: "Serve the offline replica of the generator page",
	RunE:  serveFixture,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFlag, "config", os.Getenv("PWGEN_CONFIG"), "Path to configuration file (YAML)")
	flags.StringVar(&targetURLFlag, "target-url", "", "URL of the generator page")
	flags.StringVar(&driverFlag, "driver", "", "Browser driver: playwright or chromedp")
	flags.StringVar(&browserFlag, "browser", "", "Browser engine: chromium, firefox or webkit")
	flags.BoolVar(&headedFlag, "headed", false, "Show the browser window")
	flags.IntVar(&parallelFlag, "parallel", 0, "Scenarios run concurrently")
	flags.StringSliceVar(&tagsFlag, "tags", nil, "Run only scenarios with a tag matching one of these globs")
	flags.StringSliceVar(&excludeTagsFlag, "exclude-tags", nil, "Skip scenarios with a tag matching one of these globs")
	flags.StringVar(&artifactsFlag, "artifacts", "", "Directory for reports and screenshots")
	flags.StringVar(&verbosityFlag, "verbosity", "", "Console verbosity: quiet, normal, verbose or debug")

	runCmd.Flags().BoolVar(&useFixtureFlag, "fixture", false, "Run against the built-in fixture page instead of the target URL")
	fixtureCmd.Flags().StringVar(&fixtureAddrFlag, "addr", "127.0.0.1:8080", "Listen address")

	rootCmd.AddCommand(runCmd, listCmd, installCmd, fixtureCmd)
}

// loadConfig reads the configuration and applies the flags that were set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("target-url") {
		cfg.TargetURL = targetURLFlag
	}
	if flags.Changed("driver") {
		cfg.Browser.Driver = driverFlag
	}
	if flags.Changed("browser") {
		cfg.Browser.Name = browserFlag
	}
	if flags.Changed("headed") {
		cfg.Browser.Headless = !headedFlag
	}
	if flags.Changed("parallel") {
		cfg.Run.Parallel = parallelFlag
	}
	if flags.Changed("tags") {
		cfg.Run.Tags = tagsFlag
	}
	if flags.Changed("exclude-tags") {
		cfg.Run.ExcludeTags = excludeTagsFlag
	}
	if flags.Changed("artifacts") {
		cfg.Artifacts.Enabled = true
		cfg.Artifacts.OutputDir = artifactsFlag
	}
	if flags.Changed("verbosity") {
		cfg.Logging.Verbosity = verbosityFlag
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newConsole(cfg *config.Config) *report.Console {
	return report.NewConsole(os.Stdout, report.ParseLevel(cfg.Logging.Verbosity))
}

func newLogger(console *report.Console, component string) *logging.Logger {
	logger, err := logging.NewLogger(component)
	if err != nil {
		console.Warningf("file logging unavailable: %v", err)
	}
	return logger
}

func runScenarios(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	console := newConsole(cfg)
	logging.SetDebug(cfg.Logging.Verbosity == "debug")
	logger := newLogger(console, "pwgen")
	defer logger.Close()

	if useFixtureFlag {
		srv, err := fixture.Start("127.0.0.1:0", logger.With("fixture"))
		if err != nil {
			return err
		}
		defer shutdownFixture(srv)
		cfg.TargetURL = srv.URL()
	}

	console.Header("Password Generator E2E")
	console.Infof("Target: %s", cfg.TargetURL)
	console.Infof("Browser: %s via %s (headless=%v)", cfg.Browser.Name, cfg.Browser.Driver, cfg.Browser.Headless)
	console.Verbosef("Log file: %s", logger.LogPath())

	settings, err := cfg.Settings()
	if err != nil {
		return err
	}
	runnerCfg, err := cfg.RunnerConfig()
	if err != nil {
		return err
	}

	manager := browser.NewSessionManager()
	manager.SetLogger(logger.With("browser"))
	manager.SetMaxSessions(cfg.Run.Parallel)
	if err := manager.Initialize(cfg.DriverKind(), cfg.InitOptions()); err != nil {
		return harness.Environment("failed to start browser driver", err)
	}
	defer func() {
		if err := manager.Shutdown(); err != nil {
			console.Warningf("browser shutdown: %v", err)
		}
	}()

	provisioner := harness.NewProvisioner(manager, cfg.ProvisionerConfig(), logger.With("provisioner"))
	runner := harness.NewRunner(provisioner, runnerCfg, logger.With("runner"), console)

	summary, err := runner.Run(ctx, pwgen.Scenarios(settings))
	if err != nil {
		return err
	}
	console.Summary(summary)

	if cfg.Artifacts.Enabled {
		writer := report.NewArtifactWriter(cfg.Artifacts.OutputDir, report.ArtifactOptions{
			JSON:     cfg.Artifacts.JSON,
			Markdown: cfg.Artifacts.Markdown,
			Allure:   cfg.Artifacts.Allure,
		})
		if err := writer.WriteAll(summary); err != nil {
			console.Errorf("%v", err)
		} else {
			console.Infof("Artifacts written to %s", cfg.Artifacts.OutputDir)
		}
	}

	if !summary.OK() {
		return errNotPassed
	}
	return nil
}

func listScenarios(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	settings, err := cfg.Settings()
	if err != nil {
		return err
	}
	selector, err := cfg.Selector()
	if err != nil {
		return err
	}

	newConsole(cfg).List(selector.Filter(pwgen.Scenarios(settings)))
	return nil
}

func installBrowsers(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.DriverKind() != browser.DriverPlaywright {
		return fmt.Errorf("install only applies to the playwright driver, configured driver is %s", cfg.Browser.Driver)
	}
	console := newConsole(cfg)

	opts := cfg.InitOptions()
	opts.Install = true

	manager := browser.NewSessionManager()
	manager.SetLogger(newLogger(console, "install"))
	if err := manager.Initialize(browser.DriverPlaywright, opts); err != nil {
		return fmt.Errorf("failed to install browsers: %w", err)
	}
	console.Infof("Installed playwright driver and %v", opts.Browsers)
	return manager.Shutdown()
}

func serveFixture(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	console := newConsole(cfg)

	srv, err := fixture.Start(fixtureAddrFlag, newLogger(console, "fixture"))
	if err != nil {
		return err
	}
	console.Infof("Serving the generator fixture at %s (Ctrl+C to stop)", srv.URL())

	select {
	case <-cmd.Context().Done():
		shutdownFixture(srv)
		return nil
	case err := <-waitFixture(srv):
		return err
	}
}

func waitFixture(srv *fixture.Server) <-chan error {
	ch := make(chan error, 1)
	go func() { ch <- srv.Wait() }()
	return ch
}

func shutdownFixture(srv *fixture.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
