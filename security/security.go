// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
)

var (
	// ErrInvalidPath indicates a path contains invalid characters or patterns.
	ErrInvalidPath = errors.New("invalid path")
	// ErrPathTraversal indicates a path traversal attack attempt.
	ErrPathTraversal = errors.New("path traversal detected")
	// ErrInsecureFilePermissions indicates a file is writable by group or others.
	ErrInsecureFilePermissions = errors.New("insecure file permissions")
	// ErrInvalidEnvKey indicates an environment variable name a shell cannot export.
	ErrInvalidEnvKey = errors.New("invalid environment variable name")

	// envKeyPattern matches POSIX shell variable names.
	envKeyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// ValidatePath checks if a path is safe to use.
// It prevents path traversal attacks and symbolic link attacks.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	// Check for path traversal attempts before resolving
	if strings.Contains(path, "..") {
		return fmt.Errorf("%w: path contains parent directory reference", ErrPathTraversal)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: cannot resolve path: %w", ErrInvalidPath, err)
	}
	cleanPath := filepath.Clean(absPath)

	// Resolve symbolic links to detect link-based escapes
	resolvedPath, err := filepath.EvalSymlinks(cleanPath)
	if err != nil {
		// A path that does not exist yet is still structurally valid
		if !os.IsNotExist(err) {
			return fmt.Errorf("%w: cannot resolve symbolic links: %w", ErrInvalidPath, err)
		}
		resolvedPath = cleanPath
	}

	if strings.Contains(resolvedPath, "..") {
		return fmt.Errorf("%w: resolved path contains parent directory reference", ErrPathTraversal)
	}

	return nil
}

// ValidateFilePermissions checks that a file is not writable by group or others.
// On Windows, this check is skipped as Windows uses ACLs.
func ValidateFilePermissions(path string) error {
	if runtime.GOOS == "windows" {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	if info.Mode().Perm()&0o022 != 0 {
		return fmt.Errorf("%w: %s has mode %o", ErrInsecureFilePermissions, path, info.Mode().Perm())
	}

	return nil
}

// ValidateEnvKey checks that key can be exported to a POSIX shell.
func ValidateEnvKey(key string) error {
	if !envKeyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidEnvKey, key)
	}
	return nil
}
