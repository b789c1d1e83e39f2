package cmdutil

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Shell names understood by Run.
const (
	ShellSh         = "sh"
	ShellBash       = "bash"
	ShellZsh        = "zsh"
	ShellPwsh       = "pwsh"
	ShellPowerShell = "powershell"
	ShellCmd        = "cmd"
)

// DefaultShell returns sh everywhere except Windows, where it prefers
// PowerShell 7 and falls back to cmd.
func DefaultShell() string {
	if runtime.GOOS != "windows" {
		return ShellSh
	}
	if _, err := exec.LookPath(ShellPwsh); err == nil {
		return ShellPwsh
	}
	return ShellCmd
}

// shellCommand builds the invocation of script under shell.
func shellCommand(ctx context.Context, shell, script string) *exec.Cmd {
	name := strings.ToLower(strings.TrimSuffix(filepath.Base(shell), filepath.Ext(shell)))

	switch name {
	case ShellPwsh, ShellPowerShell:
		wrapped := fmt.Sprintf("[Console]::OutputEncoding = [System.Text.Encoding]::UTF8; %s", script)
		return exec.CommandContext(ctx, shell, "-NoProfile", "-Command", wrapped)
	case ShellCmd:
		return exec.CommandContext(ctx, shell, "/c", script)
	default:
		return exec.CommandContext(ctx, shell, "-c", script)
	}
}
