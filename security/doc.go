// Package security provides validation for the files and environment
// variables that carry broker credentials.
//
// # Key Features
//
//   - Path validation (prevents directory traversal attacks)
//   - Symbolic link resolution and validation
//   - File permission validation (detects world-writable credential files)
//   - Environment variable name validation
//
// # Example Usage
//
//	if err := security.ValidatePath(configPath); err != nil {
//	    return fmt.Errorf("invalid config path: %w", err)
//	}
//
//	if err := security.ValidateFilePermissions(envFile); errors.Is(err, security.ErrInsecureFilePermissions) {
//	    logutil.Warn("env file is world-writable", "path", envFile)
//	}
//
//	if err := security.ValidateEnvKey(key); err != nil {
//	    return err
//	}
package security
