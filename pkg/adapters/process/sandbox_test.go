package process

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShellSandbox(t *testing.T, opts ...SandboxOption) *Sandbox {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("sandbox tests use sh scripts")
	}
	opts = append([]SandboxOption{WithInterpreter("sh"), WithScriptName("extract.sh")}, opts...)
	sb, err := NewSandbox(t.TempDir(), opts...)
	require.NoError(t, err)
	return sb
}

func TestSandbox_Execute(t *testing.T) {
	t.Run("Captures Stdout On Success", func(t *testing.T) {
		sb := newShellSandbox(t)

		run, err := sb.Execute(context.Background(), "run-1", "echo 'Engineer - https://acme.io/jobs/1'\n")
		require.NoError(t, err)

		assert.Equal(t, 0, run.ExitCode)
		assert.False(t, run.TimedOut)
		assert.Equal(t, "Engineer - https://acme.io/jobs/1\n", run.Stdout)
		assert.Empty(t, run.Stderr)
		assert.FileExists(t, run.Path)
	})

	t.Run("Non Zero Exit Is Data", func(t *testing.T) {
		sb := newShellSandbox(t)

		run, err := sb.Execute(context.Background(), "run-1", "echo boom >&2\nexit 3\n")
		require.NoError(t, err)

		assert.Equal(t, 3, run.ExitCode)
		assert.Equal(t, "boom\n", run.Stderr)
	})

	t.Run("Timeout Stops Script", func(t *testing.T) {
		sb := newShellSandbox(t,
			WithTimeout(100*time.Millisecond),
			WithGracePeriod(100*time.Millisecond),
		)

		start := time.Now()
		run, err := sb.Execute(context.Background(), "run-1", "sleep 5\n")
		require.NoError(t, err)

		assert.True(t, run.TimedOut)
		assert.Equal(t, -1, run.ExitCode)
		assert.Contains(t, run.Stderr, "timeout")
		assert.Less(t, time.Since(start), 4*time.Second)
	})

	t.Run("Parent Cancellation Is An Error", func(t *testing.T) {
		sb := newShellSandbox(t, WithGracePeriod(100*time.Millisecond))

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(50 * time.Millisecond)
			cancel()
		}()

		_, err := sb.Execute(ctx, "run-1", "sleep 5\n")
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("Output Is Capped", func(t *testing.T) {
		sb := newShellSandbox(t, WithOutputLimit(8))

		run, err := sb.Execute(context.Background(), "run-1", "echo 0123456789abcdef\n")
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(run.Stdout, "01234567"))
		assert.Contains(t, run.Stdout, "[output truncated]")
	})

	t.Run("Environment Is Forwarded", func(t *testing.T) {
		sb := newShellSandbox(t, WithEnv("SCOUT_TARGET=acme"))

		run, err := sb.Execute(context.Background(), "run-1", "echo $SCOUT_TARGET\n")
		require.NoError(t, err)
		assert.Equal(t, "acme\n", run.Stdout)
	})

	t.Run("Parent Secrets Are Not Visible", func(t *testing.T) {
		t.Setenv("SCOUT_RUN_KEY", "secret-key-material")
		t.Setenv("OPENAI_API_KEY", "sk-test")
		sb := newShellSandbox(t)

		run, err := sb.Execute(context.Background(), "run-1", "echo \"[$SCOUT_RUN_KEY][$OPENAI_API_KEY]\"\necho \"$PATH\" >&2\n")
		require.NoError(t, err)
		assert.Equal(t, "[][]\n", run.Stdout)
		assert.Equal(t, os.Getenv("PATH")+"\n", run.Stderr)
	})

	t.Run("Inherit Env Opts In", func(t *testing.T) {
		t.Setenv("SCOUT_SHARED", "visible")
		sb := newShellSandbox(t, WithInheritEnv())

		run, err := sb.Execute(context.Background(), "run-1", "echo $SCOUT_SHARED\n")
		require.NoError(t, err)
		assert.Equal(t, "visible\n", run.Stdout)
	})
}

func TestSandbox_Isolation(t *testing.T) {
	sb := newShellSandbox(t)
	ctx := context.Background()

	// 1. Two runs write to distinct paths
	a, err := sb.Execute(ctx, "run-a", "echo a\n")
	require.NoError(t, err)
	b, err := sb.Execute(ctx, "run-b", "echo b\n")
	require.NoError(t, err)
	assert.NotEqual(t, a.Path, b.Path)

	// 2. A second attempt in the same run overwrites the script
	again, err := sb.Execute(ctx, "run-a", "echo again\n")
	require.NoError(t, err)
	assert.Equal(t, a.Path, again.Path)
	content, err := os.ReadFile(again.Path)
	require.NoError(t, err)
	assert.Equal(t, "echo again\n", string(content))

	// 3. Cleanup removes only the run's directory
	require.NoError(t, sb.Cleanup("run-a"))
	assert.NoDirExists(t, filepath.Dir(a.Path))
	assert.FileExists(t, b.Path)
}

func TestSandbox_RejectsInvalidRunID(t *testing.T) {
	sb := newShellSandbox(t)

	for _, id := range []string{"", ".", "..", "../escape", "a/b", `a\b`} {
		_, err := sb.Execute(context.Background(), id, "echo x\n")
		assert.Error(t, err, "run id %q", id)
		assert.Error(t, sb.Cleanup(id), "run id %q", id)
	}
}

func TestNewSandbox_RequiresScratchDir(t *testing.T) {
	_, err := NewSandbox("")
	assert.Error(t, err)
}
