// Package config loads the suite configuration: defaults, then an optional
// YAML file, then environment overrides, then validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/entrhq/pwgen-e2e/pkg/browser"
	"github.com/entrhq/pwgen-e2e/pkg/harness"
	"github.com/entrhq/pwgen-e2e/pkg/pwgen"
)

// DefaultTargetURL is the live password generator.
const DefaultTargetURL = "https://www.security.org/password-generator/"

// Config represents the configuration of a suite run
type Config struct {
	// Page under test
	TargetURL string `yaml:"target_url" json:"target_url" validate:"required,url"`

	// Browser and driver settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Scheduling and selection
	Run RunConfig `yaml:"run" json:"run"`

	// Bounded waits used by the scenarios
	Waits WaitConfig `yaml:"waits" json:"waits"`

	// Clipboard source: browser (navigator.clipboard) or system (OS clipboard)
	Clipboard string `yaml:"clipboard" json:"clipboard" validate:"oneof=browser system"`

	// Selector overrides keyed by element name (e.g. generate_button)
	Selectors map[string]SelectorConfig `yaml:"selectors" json:"selectors"`

	// Artifacts configuration
	Artifacts ArtifactConfig `yaml:"artifacts" json:"artifacts"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// BrowserConfig selects and tunes the browser backend
type BrowserConfig struct {
	Driver   string         `yaml:"driver" json:"driver" validate:"oneof=playwright chromedp"`
	Name     string         `yaml:"name" json:"name" validate:"oneof=chromium firefox webkit"`
	Headless bool           `yaml:"headless" json:"headless"`
	SlowMo   time.Duration  `yaml:"slow_mo" json:"slow_mo" validate:"gte=0"`
	Timeout  time.Duration  `yaml:"timeout" json:"timeout" validate:"gt=0"`
	Viewport ViewportConfig `yaml:"viewport" json:"viewport"`

	// Install downloads the playwright driver and browser before the run
	Install bool `yaml:"install" json:"install"`

	// ExecPath overrides the Chrome binary used by chromedp
	ExecPath string `yaml:"exec_path" json:"exec_path"`
}

// ViewportConfig is the initial page size
type ViewportConfig struct {
	Width  int `yaml:"width" json:"width" validate:"gt=0"`
	Height int `yaml:"height" json:"height" validate:"gt=0"`
}

// RunConfig controls scheduling and tag selection
type RunConfig struct {
	Parallel        int           `yaml:"parallel" json:"parallel" validate:"min=1,max=32"`
	ScenarioTimeout time.Duration `yaml:"scenario_timeout" json:"scenario_timeout" validate:"gt=0"`
	ReadyTimeout    time.Duration `yaml:"ready_timeout" json:"ready_timeout" validate:"gte=0"`
	Tags            []string      `yaml:"tags" json:"tags"`
	ExcludeTags     []string      `yaml:"exclude_tags" json:"exclude_tags"`
}

// WaitConfig bounds the polling waits of the scenarios
type WaitConfig struct {
	Timeout           time.Duration `yaml:"timeout" json:"timeout" validate:"gt=0"`
	PollInterval      time.Duration `yaml:"poll_interval" json:"poll_interval" validate:"gt=0"`
	ClipboardTimeout  time.Duration `yaml:"clipboard_timeout" json:"clipboard_timeout" validate:"min=500ms,max=1s"`
	ClipboardInterval time.Duration `yaml:"clipboard_interval" json:"clipboard_interval" validate:"gt=0"`
}

// SelectorConfig overrides the selectors of one page element
type SelectorConfig struct {
	Target string `yaml:"target" json:"target"`
	State  string `yaml:"state" json:"state"`
}

// ArtifactConfig defines artifact generation configuration
type ArtifactConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	OutputDir string `yaml:"output_dir" json:"output_dir" validate:"required_if=Enabled true"`

	// Individual format flags
	JSON        bool `yaml:"json" json:"json"`
	Markdown    bool `yaml:"markdown" json:"markdown"`
	Allure      bool `yaml:"allure" json:"allure"`
	Screenshots bool `yaml:"screenshots" json:"screenshots"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls console output: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity" validate:"oneof=quiet normal verbose debug"`
}

// DefaultConfig returns the configuration of a headless chromium run
// against the live page.
func DefaultConfig() *Config {
	return &Config{
		TargetURL: DefaultTargetURL,
		Browser: BrowserConfig{
			Driver:   string(browser.DriverPlaywright),
			Name:     browser.BrowserChromium,
			Headless: true,
			Timeout:  browser.DefaultTimeout,
			Viewport: ViewportConfig{Width: browser.DefaultViewportWidth, Height: browser.DefaultViewportHeight},
			Install:  true,
		},
		Run: RunConfig{
			Parallel:        1,
			ScenarioTimeout: harness.DefaultScenarioTimeout,
			ReadyTimeout:    10 * time.Second,
		},
		Waits: WaitConfig{
			Timeout:           harness.DefaultWaitTimeout,
			PollInterval:      harness.DefaultPollInterval,
			ClipboardTimeout:  pwgen.DefaultClipboardTimeout,
			ClipboardInterval: pwgen.DefaultClipboardInterval,
		},
		Clipboard: string(pwgen.ClipboardBrowser),
		Artifacts: ArtifactConfig{
			Enabled:     true,
			OutputDir:   "artifacts",
			JSON:        true,
			Markdown:    true,
			Allure:      true,
			Screenshots: true,
		},
		Logging: LoggingConfig{Verbosity: "normal"},
	}
}

// Load builds the configuration from defaults, the YAML file at path (when
// path is not empty) and the process environment, and validates it.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok {
			*dst = splitList(v)
		}
	}

	str("PWGEN_TARGET_URL", &c.TargetURL)
	str("PWGEN_DRIVER", &c.Browser.Driver)
	str("PWGEN_BROWSER", &c.Browser.Name)
	str("CHROME_BIN", &c.Browser.ExecPath)
	boolean("HEADLESS", &c.Browser.Headless)
	str("PWGEN_CLIPBOARD", &c.Clipboard)
	list("PWGEN_TAGS", &c.Run.Tags)
	list("PWGEN_EXCLUDE_TAGS", &c.Run.ExcludeTags)
	str("PWGEN_VERBOSITY", &c.Logging.Verbosity)

	if v, ok := lookup("SLOW_MO"); ok && v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("SLOW_MO: %w", err))
		} else {
			c.Browser.SlowMo = time.Duration(ms) * time.Millisecond
		}
	}
	if v, ok := lookup("PWGEN_PARALLEL"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("PWGEN_PARALLEL: %w", err))
		} else {
			c.Run.Parallel = n
		}
	}
	if v, ok := lookup("PWGEN_ARTIFACTS_DIR"); ok && v != "" {
		c.Artifacts.Enabled = true
		c.Artifacts.OutputDir = v
	}

	var preinstalled bool
	boolean("PLAYWRIGHT_PREINSTALLED", &preinstalled)
	if preinstalled {
		c.Browser.Install = false
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %w", errors.Join(errs...))
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Browser.Driver == string(browser.DriverChromedp) && c.Browser.Name != browser.BrowserChromium {
		return fmt.Errorf("invalid configuration: chromedp driver only supports chromium, got %s", c.Browser.Name)
	}
	if _, err := c.Locators(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := c.Selector(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// DriverKind returns the configured backend.
func (c *Config) DriverKind() browser.DriverKind {
	return browser.DriverKind(c.Browser.Driver)
}

// InitOptions returns the driver start-up options.
func (c *Config) InitOptions() browser.InitOptions {
	return browser.InitOptions{
		Install:  c.Browser.Install,
		Browsers: []string{c.Browser.Name},
		ExecPath: c.Browser.ExecPath,
	}
}

// SessionOptions returns the options every scenario session is opened with.
func (c *Config) SessionOptions() browser.SessionOptions {
	return browser.SessionOptions{
		Browser:  c.Browser.Name,
		Headless: c.Browser.Headless,
		SlowMo:   c.Browser.SlowMo,
		Timeout:  c.Browser.Timeout,
		Viewport: &browser.Viewport{Width: c.Browser.Viewport.Width, Height: c.Browser.Viewport.Height},
	}
}

// ProvisionerConfig returns the page provisioning settings.
func (c *Config) ProvisionerConfig() harness.ProvisionerConfig {
	return harness.ProvisionerConfig{
		TargetURL:    c.TargetURL,
		Session:      c.SessionOptions(),
		ReadyTimeout: c.Run.ReadyTimeout,
	}
}

// Locators returns the default locators with the configured overrides.
func (c *Config) Locators() (pwgen.LocatorMap, error) {
	overrides := make(map[string]pwgen.Locator, len(c.Selectors))
	for name, s := range c.Selectors {
		overrides[name] = pwgen.Locator{Target: s.Target, State: s.State}
	}
	return pwgen.DefaultLocators().Override(overrides)
}

// Selector returns the tag selector of the run.
func (c *Config) Selector() (*harness.Selector, error) {
	return harness.NewSelector(c.Run.Tags, c.Run.ExcludeTags)
}

// Settings returns the scenario settings.
func (c *Config) Settings() (pwgen.Settings, error) {
	locators, err := c.Locators()
	if err != nil {
		return pwgen.Settings{}, err
	}
	return pwgen.Settings{
		Locators:          locators,
		Clipboard:         pwgen.ClipboardSource(c.Clipboard),
		WaitTimeout:       c.Waits.Timeout,
		PollInterval:      c.Waits.PollInterval,
		ClipboardTimeout:  c.Waits.ClipboardTimeout,
		ClipboardInterval: c.Waits.ClipboardInterval,
	}, nil
}

// RunnerConfig returns the runner settings; screenshots land under the
// artifacts directory when enabled.
func (c *Config) RunnerConfig() (harness.RunnerConfig, error) {
	selector, err := c.Selector()
	if err != nil {
		return harness.RunnerConfig{}, err
	}
	cfg := harness.RunnerConfig{
		Parallel:        c.Run.Parallel,
		ScenarioTimeout: c.Run.ScenarioTimeout,
		Selector:        selector,
		TargetURL:       c.TargetURL,
		Driver:          c.Browser.Driver,
		Browser:         c.Browser.Name,
	}
	if c.Artifacts.Enabled && c.Artifacts.Screenshots {
		cfg.ScreenshotDir = ScreenshotDir(c.Artifacts.OutputDir)
	}
	return cfg, nil
}

// ScreenshotDir is where failure screenshots are written inside dir.
func ScreenshotDir(dir string) string {
	return filepath.Join(dir, "screenshots")
}
