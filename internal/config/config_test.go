package config_test

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/scout/internal/config"
	"github.com/aretw0/scout/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scout.yaml", `
sites:
  acme: https://acme.test/careers
model:
  provider: anthropic
  name: claude-test
  roles:
    writer:
      name: claude-writer
sandbox:
  timeout: 90s
  interpreter: [python3, -I]
workflow:
  max_retries: 3
  include_topics: []
redis:
  addr: localhost:6379
  ttl: 24h
concurrency: 2
lock_wait: 1m
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://acme.test/careers", cfg.Sites["acme"])
	assert.Equal(t, 90*time.Second, cfg.Sandbox.Timeout)
	assert.Equal(t, []string{"python3", "-I"}, cfg.Sandbox.Interpreter)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
	assert.Equal(t, ":8080", cfg.HTTP.Addr, "default kept")
	assert.Equal(t, filepath.Join(dir, "tools.yaml"), cfg.Resolve(cfg.Tools))

	eng := cfg.Engine()
	assert.Equal(t, 3, eng.Workflow.MaxRetries)
	assert.Empty(t, eng.Workflow.IncludeTopics, "explicit empty list disables topic filtering")
	assert.NotEmpty(t, eng.Workflow.ExcludeTopics, "absent key keeps defaults")
	assert.Equal(t, "python", eng.Workflow.ScriptLanguage)
	assert.Equal(t, 2, eng.Concurrency)
	assert.Equal(t, time.Minute, eng.LockWait)
	require.NoError(t, eng.Validate())
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scout.yaml", "sites:\n  acme: https://acme.test\nmodel:\n  provider: googleai\n")
	writeFile(t, dir, ".env", "GEMINI_API_KEY=from-dotenv\n")
	t.Setenv("GEMINI_API_KEY", "")
	os.Unsetenv("GEMINI_API_KEY")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	m, err := cfg.ModelConfig("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", m.APIKey)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := config.Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	path := writeFile(t, dir, "bad.yaml", "sites: [")
	_, err = config.Load(path)
	assert.Error(t, err)

	path = writeFile(t, dir, "invalid.yaml", `
sites:
  acme: ftp://acme.test
model:
  provider: mystery
  roles:
    critic: {}
`)
	_, err = config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sites.acme")
	assert.Contains(t, err.Error(), "unsupported provider")
	assert.Contains(t, err.Error(), `unknown role "critic"`)
}

func TestValidate_RequiresSites(t *testing.T) {
	err := config.Default().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one site")
}

func TestModelConfig(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-default")
	t.Setenv("WRITER_KEY", "sk-writer")
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg := config.Default()
	cfg.Model.Name = "gpt-test"
	cfg.Model.BaseURL = "http://proxy.test"
	cfg.Model.Roles = map[string]config.RoleModel{
		"writer":    {Name: "gpt-writer", APIKeyEnv: "WRITER_KEY"},
		"evaluator": {Provider: "anthropic"},
		"planner":   {Provider: "ollama", Name: "llama3"},
	}

	m, err := cfg.ModelConfig("")
	require.NoError(t, err)
	assert.Equal(t, "sk-default", m.APIKey)
	assert.Equal(t, "gpt-test", m.Model)

	m, err = cfg.ModelConfig(workflow.RoleWriter)
	require.NoError(t, err)
	assert.Equal(t, "gpt-writer", m.Model)
	assert.Equal(t, "sk-writer", m.APIKey)
	assert.Equal(t, "http://proxy.test", m.BaseURL)

	m, err = cfg.ModelConfig(workflow.RolePlanner)
	require.NoError(t, err, "ollama needs no key")
	assert.Empty(t, m.BaseURL, "another provider does not inherit the base url")

	_, err = cfg.ModelConfig(workflow.RoleEvaluator)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")

	m, err = cfg.ModelConfig(workflow.RoleFilter)
	require.NoError(t, err)
	assert.Equal(t, "gpt-test", m.Model, "roles without overrides use the default model")
}

func TestRedisPassword(t *testing.T) {
	cfg := config.Default()
	assert.Empty(t, cfg.RedisPassword())

	t.Setenv("REDIS_PW", "hunter2")
	cfg.Redis.PasswordEnv = "REDIS_PW"
	assert.Equal(t, "hunter2", cfg.RedisPassword())
}

func TestRunKeys(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(make([]byte, 32))

	cfg := config.Default()
	active, previous, err := cfg.RunKeys()
	require.NoError(t, err)
	assert.Nil(t, active)
	assert.Nil(t, previous)

	cfg.Runs.KeyEnv = "SCOUT_RUN_KEY"
	cfg.Runs.PreviousKeyEnvs = []string{"SCOUT_OLD_KEY"}
	t.Setenv("SCOUT_RUN_KEY", key)
	t.Setenv("SCOUT_OLD_KEY", "")
	_, _, err = cfg.RunKeys()
	assert.EqualError(t, err, "runs: SCOUT_OLD_KEY is not set")

	t.Setenv("SCOUT_OLD_KEY", key)
	active, previous, err = cfg.RunKeys()
	require.NoError(t, err)
	assert.Len(t, active, 32)
	assert.Len(t, previous, 1)

	t.Setenv("SCOUT_RUN_KEY", "c2hvcnQ=")
	_, _, err = cfg.RunKeys()
	assert.ErrorContains(t, err, "SCOUT_RUN_KEY")
}

func TestValidate_Runs(t *testing.T) {
	cfg := config.Default()
	cfg.Sites = map[string]string{"acme": "https://acme.test/careers"}
	cfg.Runs.Redact = []string{"("}
	cfg.Runs.PreviousKeyEnvs = []string{"OLD"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runs.redact")
	assert.Contains(t, err.Error(), "runs.previous_key_envs requires runs.key_env")
}

func TestValidate_StepCeilingCoversRetries(t *testing.T) {
	cfg := config.Default()
	cfg.Sites = map[string]string{"acme": "https://acme.test/careers"}
	cfg.Workflow.MaxRetries = 40

	// Zero steps lets the workflow size the ceiling itself.
	require.NoError(t, cfg.Validate())

	cfg.Workflow.MaxSteps = 64
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workflow.max_steps: 40 retries need at least 86 steps")

	cfg.Workflow.MaxSteps = 86
	assert.NoError(t, cfg.Validate())
}

func TestValidate_SandboxEnv(t *testing.T) {
	cfg := config.Default()
	cfg.Sites = map[string]string{"acme": "https://acme.test/careers"}
	cfg.Sandbox.Env = []string{"PYTHONPATH=/opt/lib", "BROKEN", "=x"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `sandbox.env: "BROKEN" is not KEY=VALUE`)
	assert.Contains(t, err.Error(), `sandbox.env: "=x" is not KEY=VALUE`)
	assert.NotContains(t, err.Error(), "PYTHONPATH")
}
