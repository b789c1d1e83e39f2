package cmdutil

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jongio/amqp-core/security"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestExecLocal(t *testing.T) {
	skipOnWindows(t)

	out, err := ExecLocal(context.Background(), "echo hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)
}

func TestExecLocal_Env(t *testing.T) {
	skipOnWindows(t)
	t.Setenv("AMQP_TEST_PARENT_ONLY", "inherited")
	t.Setenv("AMQP_TEST_OVERRIDDEN", "parent")

	out, err := ExecLocal(context.Background(),
		`printf '%s|%s|%s' "$AMQP_HOST" "$AMQP_TEST_PARENT_ONLY" "$AMQP_TEST_OVERRIDDEN"`,
		map[string]string{
			"AMQP_HOST":            "rabbit-1",
			"AMQP_TEST_OVERRIDDEN": "child",
		})
	require.NoError(t, err)
	assert.Equal(t, "rabbit-1|inherited|child", out)
}

func TestExecLocal_NonZeroExit(t *testing.T) {
	skipOnWindows(t)

	out, err := ExecLocal(context.Background(), "echo partial; echo 'queue not found' >&2; exit 3", nil)
	require.Error(t, err)
	assert.Equal(t, "partial\n", out)

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 3, cmdErr.ExitCode)
	assert.Equal(t, "queue not found\n", cmdErr.Stderr)
	assert.Equal(t, "partial\n", cmdErr.Stdout)
	assert.Contains(t, err.Error(), "exit code 3")
	assert.Contains(t, err.Error(), "queue not found")
}

func TestExecLocal_CommandNotFound(t *testing.T) {
	skipOnWindows(t)

	_, err := ExecLocal(context.Background(), "nonexistent-command-xyz-123", nil)
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 127, cmdErr.ExitCode)
}

func TestRun_EmptyCommand(t *testing.T) {
	for _, command := range []string{"", "   ", "\n\t"} {
		res, err := Run(context.Background(), Options{Command: command})
		assert.ErrorIs(t, err, ErrEmptyCommand)
		assert.Equal(t, -1, res.ExitCode)
	}
}

func TestRun_InvalidEnvKey(t *testing.T) {
	_, err := Run(context.Background(), Options{
		Command: "true",
		Env:     map[string]string{"NOT-VALID": "x"},
	})
	assert.ErrorIs(t, err, security.ErrInvalidEnvKey)
}

func TestRun_Dir(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()

	res, err := Run(context.Background(), Options{Command: "pwd -P", Dir: dir})
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, want, strings.TrimSpace(res.Stdout))
	assert.Equal(t, 0, res.ExitCode)
}

func TestRun_Stdin(t *testing.T) {
	skipOnWindows(t)

	res, err := Run(context.Background(), Options{
		Command: "tr a-z A-Z",
		Stdin:   strings.NewReader("amqp"),
	})
	require.NoError(t, err)
	assert.Equal(t, "AMQP", res.Stdout)
}

func TestRun_OnLine(t *testing.T) {
	skipOnWindows(t)

	var (
		mu    sync.Mutex
		lines []string
	)
	res, err := Run(context.Background(), Options{
		Command: "echo first; echo second >&2; printf last",
		OnLine: func(line string) {
			mu.Lock()
			defer mu.Unlock()
			lines = append(lines, line)
		},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"first", "second", "last"}, lines)
	assert.Equal(t, "first\nlast", res.Stdout)
	assert.Equal(t, "second\n", res.Stderr)
}

func TestRun_Timeout(t *testing.T) {
	skipOnWindows(t)

	start := time.Now()
	res, err := Run(context.Background(), Options{
		Command: "sleep 10",
		Timeout: 100 * time.Millisecond,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, -1, res.ExitCode)
	assert.Less(t, time.Since(start), 8*time.Second)
}

func TestRun_CanceledContext(t *testing.T) {
	skipOnWindows(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, Options{Command: "sleep 10"})
	assert.True(t, errors.Is(err, context.Canceled), "err = %v", err)

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Contains(t, cmdErr.Error(), "sleep 10")
}

func TestCommandError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *CommandError
		want string
	}{
		{
			name: "exit with stderr",
			err:  &CommandError{Command: "false", ExitCode: 1, Stderr: " boom \n", Err: errors.New("exit status 1")},
			want: `command "false" failed with exit code 1: boom`,
		},
		{
			name: "exit without stderr",
			err:  &CommandError{Command: "false", ExitCode: 1, Err: errors.New("exit status 1")},
			want: `command "false" failed: exit status 1`,
		},
		{
			name: "no exit status",
			err:  &CommandError{Command: "sleep 10", ExitCode: -1, Stderr: "ignored", Err: context.Canceled},
			want: `command "sleep 10" failed: context canceled`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}
