// Package testutil provides common testing helpers for the amqp-core packages.
//
// This package includes helpers for:
//   - Capturing stdout during test execution (CaptureOutput)
//   - Creating temporary directories with automatic cleanup (TempDir)
//   - Writing fixture files (WriteFile)
//   - Isolating tests from AMQP_* variables in the environment (ClearEnv)
//
// All functions use t.Helper() for proper test line reporting.
//
// Example usage:
//
//	func TestLoad(t *testing.T) {
//	    testutil.ClearEnv(t, "AMQP_")
//	    dir := testutil.TempDir(t)
//	    path := testutil.WriteFile(t, dir, "amqp.yaml", "addresses: amqp://rabbit-1\n")
//
//	    output := testutil.CaptureOutput(t, func() error {
//	        return run(path)
//	    })
//	}
package testutil
