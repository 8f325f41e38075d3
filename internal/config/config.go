// Package config loads scout.yaml and the credentials it refers to.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/scout"
	"github.com/aretw0/scout/pkg/adapters/llm"
	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/persistence/middleware"
	"github.com/aretw0/scout/pkg/workflow"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "scout.yaml"

// Config mirrors scout.yaml.
type Config struct {
	Sites       map[string]string `yaml:"sites"`
	Model       Model             `yaml:"model"`
	Sandbox     Sandbox           `yaml:"sandbox"`
	Workflow    Workflow          `yaml:"workflow"`
	Tools       string            `yaml:"tools"`
	Redis       Redis             `yaml:"redis"`
	Runs        Runs              `yaml:"runs"`
	HTTP        HTTP              `yaml:"http"`
	Concurrency int               `yaml:"concurrency"`
	LockWait    time.Duration     `yaml:"lock_wait"`

	// dir is the directory of the loaded file; relative paths resolve against it.
	dir string
}

// Model selects the default backend and optional per-role overrides.
type Model struct {
	Provider    string  `yaml:"provider"`
	Name        string  `yaml:"name"`
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`

	// Roles overrides the backend for individual call sites (planner, writer...).
	Roles map[string]RoleModel `yaml:"roles"`
}

// RoleModel overrides a subset of Model for one role. Empty fields inherit.
type RoleModel struct {
	Provider  string `yaml:"provider"`
	Name      string `yaml:"name"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// Sandbox configures where and how synthesized scripts run.
type Sandbox struct {
	ScratchDir  string        `yaml:"scratch_dir"`
	Interpreter []string      `yaml:"interpreter"`
	Timeout     time.Duration `yaml:"timeout"`
	GracePeriod time.Duration `yaml:"grace_period"`
	KeepScratch bool          `yaml:"keep_scratch"`

	// Env adds KEY=VALUE pairs to the script environment. Scripts otherwise see
	// only PATH, HOME, locale and temp-dir variables.
	Env []string `yaml:"env"`
	// InheritEnv passes the whole scout environment, credentials included.
	InheritEnv bool `yaml:"inherit_env"`
}

// Workflow tunes the graph.
type Workflow struct {
	MaxRetries      int      `yaml:"max_retries"`
	MaxSteps        int      `yaml:"max_steps"`
	IncludeTopics   []string `yaml:"include_topics"`
	ExcludeTopics   []string `yaml:"exclude_topics"`
	ScriptLanguage  string   `yaml:"script_language"`
	ScriptLibraries []string `yaml:"script_libraries"`
}

// Redis enables the shared run store and site locks. Empty Addr keeps runs
// under Runs.Dir and locks in-process.
type Redis struct {
	Addr        string        `yaml:"addr"`
	PasswordEnv string        `yaml:"password_env"`
	DB          int           `yaml:"db"`
	Prefix      string        `yaml:"prefix"`
	TTL         time.Duration `yaml:"ttl"`
}

// Runs configures how final states are persisted.
type Runs struct {
	// Dir holds one JSON file per run when redis is not configured.
	// "-" keeps runs in memory only.
	Dir string `yaml:"dir"`

	// KeyEnv names a variable holding a base64 AES-256 key. When set, runs
	// are encrypted at rest.
	KeyEnv string `yaml:"key_env"`

	// PreviousKeyEnvs name retired keys still accepted for reading.
	PreviousKeyEnvs []string `yaml:"previous_key_envs"`

	// Redact lists regular expressions masked in persisted transcripts.
	Redact []string `yaml:"redact"`
}

// HTTP configures `scout serve`.
type HTTP struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used for absent keys.
func Default() Config {
	wf := workflow.DefaultConfig()
	return Config{
		Sites: map[string]string{},
		Model: Model{Provider: llm.ProviderOpenAI},
		Sandbox: Sandbox{
			ScratchDir: filepath.Join(".scout", "scratch"),
		},
		Workflow: Workflow{
			MaxRetries:      wf.MaxRetries,
			IncludeTopics:   wf.IncludeTopics,
			ExcludeTopics:   wf.ExcludeTopics,
			ScriptLanguage:  wf.ScriptLanguage,
			ScriptLibraries: wf.ScriptLibraries,
		},
		Tools: "tools.yaml",
		Runs:  Runs{Dir: filepath.Join(".scout", "runs")},
		HTTP:  HTTP{Addr: ":8080"},
		dir:   ".",
	}
}

// Load reads path over the defaults. A .env file next to it, when present, is
// loaded first without overriding variables already set.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}
	cfg.dir = filepath.Dir(path)

	envFile := filepath.Join(cfg.dir, ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return cfg, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate reports every missing or inconsistent field.
func (c Config) Validate() error {
	var errs []error
	if len(c.Sites) == 0 {
		errs = append(errs, errors.New("sites: at least one site is required"))
	}
	for site, url := range c.Sites {
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			errs = append(errs, fmt.Errorf("sites.%s: career page must be an http(s) url", site))
		}
	}
	if !knownProvider(c.Model.Provider) {
		errs = append(errs, fmt.Errorf("model.provider: unsupported provider %q", c.Model.Provider))
	}
	valid := make(map[string]bool)
	for _, r := range workflow.Roles() {
		valid[string(r)] = true
	}
	for role, m := range c.Model.Roles {
		if !valid[role] {
			errs = append(errs, fmt.Errorf("model.roles: unknown role %q", role))
		}
		if m.Provider != "" && !knownProvider(m.Provider) {
			errs = append(errs, fmt.Errorf("model.roles.%s: unsupported provider %q", role, m.Provider))
		}
	}
	if c.Sandbox.ScratchDir == "" {
		errs = append(errs, errors.New("sandbox.scratch_dir is required"))
	}
	for _, kv := range c.Sandbox.Env {
		if k, _, ok := strings.Cut(kv, "="); !ok || k == "" {
			errs = append(errs, fmt.Errorf("sandbox.env: %q is not KEY=VALUE", kv))
		}
	}
	if c.Sandbox.Timeout < 0 || c.Sandbox.GracePeriod < 0 {
		errs = append(errs, errors.New("sandbox: durations must not be negative"))
	}
	if c.Workflow.MaxRetries < 0 || c.Workflow.MaxSteps < 0 {
		errs = append(errs, errors.New("workflow: limits must not be negative"))
	} else if need := workflow.MinSteps(c.Workflow.MaxRetries); c.Workflow.MaxSteps > 0 && c.Workflow.MaxSteps < need {
		errs = append(errs, fmt.Errorf("workflow.max_steps: %d retries need at least %d steps, got %d", c.Workflow.MaxRetries, need, c.Workflow.MaxSteps))
	}
	for _, p := range c.Runs.Redact {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("runs.redact: %w", err))
		}
	}
	if c.Runs.KeyEnv == "" && len(c.Runs.PreviousKeyEnvs) > 0 {
		errs = append(errs, errors.New("runs.previous_key_envs requires runs.key_env"))
	}
	if c.Concurrency < 0 {
		errs = append(errs, errors.New("concurrency must not be negative"))
	}
	return errors.Join(errs...)
}

func knownProvider(p string) bool {
	switch strings.ToLower(p) {
	case "", llm.ProviderOpenAI, llm.ProviderAnthropic, llm.ProviderGoogleAI, "gemini", llm.ProviderOllama:
		return true
	}
	return false
}

// ModelConfig resolves the backend for role (empty for the default model),
// reading the API key from the environment.
func (c Config) ModelConfig(role workflow.Role) (llm.ModelConfig, error) {
	m := llm.ModelConfig{
		Provider: c.Model.Provider,
		Model:    c.Model.Name,
		BaseURL:  c.Model.BaseURL,
	}
	keyEnv := c.Model.APIKeyEnv
	if r, ok := c.Model.Roles[string(role)]; ok && role != "" {
		if r.Provider != "" && r.Provider != m.Provider {
			m.Provider = r.Provider
			// A different provider never inherits the default credential.
			keyEnv = ""
			m.BaseURL = ""
		}
		if r.Name != "" {
			m.Model = r.Name
		}
		if r.BaseURL != "" {
			m.BaseURL = r.BaseURL
		}
		if r.APIKeyEnv != "" {
			keyEnv = r.APIKeyEnv
		}
	}
	if keyEnv == "" {
		keyEnv = llm.APIKeyEnv(m.Provider)
	}
	if keyEnv != "" {
		m.APIKey = os.Getenv(keyEnv)
		if m.APIKey == "" {
			label := "model"
			if role != "" {
				label = "model.roles." + string(role)
			}
			return m, fmt.Errorf("%s: %s is not set", label, keyEnv)
		}
	}
	return m, nil
}

// RedisPassword reads the redis password from the configured variable.
func (c Config) RedisPassword() string {
	if c.Redis.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(c.Redis.PasswordEnv)
}

// RunKeys reads the encryption keys. A nil active key disables encryption.
func (c Config) RunKeys() (active []byte, previous [][]byte, err error) {
	if c.Runs.KeyEnv == "" {
		return nil, nil, nil
	}
	read := func(env string) ([]byte, error) {
		v := os.Getenv(env)
		if v == "" {
			return nil, fmt.Errorf("runs: %s is not set", env)
		}
		k, err := middleware.DecodeKey(v)
		if err != nil {
			return nil, fmt.Errorf("runs: %s: %w", env, err)
		}
		return k, nil
	}
	if active, err = read(c.Runs.KeyEnv); err != nil {
		return nil, nil, err
	}
	for _, env := range c.Runs.PreviousKeyEnvs {
		k, err := read(env)
		if err != nil {
			return nil, nil, err
		}
		previous = append(previous, k)
	}
	return active, previous, nil
}

// Resolve anchors a relative path at the directory of the loaded file.
func (c Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.dir, p)
}

// Engine converts the file into the engine configuration.
func (c Config) Engine() scout.Config {
	return scout.Config{
		Sites: domain.SiteRegistry(c.Sites),
		Workflow: workflow.Config{
			MaxRetries:      c.Workflow.MaxRetries,
			IncludeTopics:   c.Workflow.IncludeTopics,
			ExcludeTopics:   c.Workflow.ExcludeTopics,
			ScriptLanguage:  c.Workflow.ScriptLanguage,
			ScriptLibraries: c.Workflow.ScriptLibraries,
		},
		MaxSteps:    c.Workflow.MaxSteps,
		LockWait:    c.LockWait,
		Concurrency: c.Concurrency,
		KeepScratch: c.Sandbox.KeepScratch,
	}
}
