// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package logutil provides the structured logging used across amqp-core, built on slog.
//
// Only the supporting packages log (cmdutil, failover, cli). Address parsing in
// amqpaddr is pure and never logs.
//
// # Basic Usage
//
//	// Initialize logging (typically in main.go)
//	logutil.SetupLogger(debug, structured)
//
//	// Log messages at different levels
//	logutil.Debug("parsed broker list", "count", brokers.Len())
//	logutil.Info("command finished", "duration", elapsed)
//	logutil.Warn("breaker open", "endpoint", addr.String())
//	logutil.Error("command failed", "error", err)
//
// # Debug Mode
//
// Debug logging can be enabled in two ways:
//   - Pass debug=true to SetupLogger
//   - Set AMQP_DEBUG=true environment variable
//
// # Structured Logging
//
// When structured=true is passed to SetupLogger, logs are output as JSON:
//
//	{"time":"2024-01-15T10:30:00Z","level":"INFO","msg":"command finished","component":"cmdutil"}
//
// Otherwise, logs use a human-readable text format:
//
//	time=2024-01-15T10:30:00Z level=INFO msg="command finished" component=cmdutil
//
// Never log Address.URI(); it carries credentials. Address.String() is safe.
package logutil
