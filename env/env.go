package env

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// MapToSlice converts an env map into KEY=VALUE entries sorted by key.
func MapToSlice(env map[string]string) []string {
	result := make([]string, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		result = append(result, fmt.Sprintf("%s=%s", k, env[k]))
	}
	return result
}

// SliceToMap converts KEY=VALUE entries into a map, skipping malformed rows.
// Later entries win over earlier ones with the same key.
func SliceToMap(envSlice []string) map[string]string {
	result := make(map[string]string, len(envSlice))
	for _, envVar := range envSlice {
		key, value, ok := strings.Cut(envVar, "=")
		if !ok || key == "" {
			continue
		}
		result[key] = value
	}
	return result
}

// Merge returns base with overrides applied. Entries of base whose key is
// overridden are dropped, so every key appears once. base is not modified.
func Merge(base []string, overrides map[string]string) []string {
	result := make([]string, 0, len(base)+len(overrides))
	for _, envVar := range base {
		key, _, ok := strings.Cut(envVar, "=")
		if ok {
			if _, overridden := overrides[key]; overridden {
				continue
			}
		}
		result = append(result, envVar)
	}
	return append(result, MapToSlice(overrides)...)
}

// FilterByPrefix returns the entries whose key starts with prefix.
// The prefix matching is case-insensitive for keys.
//
// Example:
//
//	amqpVars := env.FilterByPrefix(vars, "AMQP_")
func FilterByPrefix(envVars map[string]string, prefix string) map[string]string {
	result := make(map[string]string)
	prefixUpper := strings.ToUpper(prefix)

	for k, v := range envVars {
		if strings.HasPrefix(strings.ToUpper(k), prefixUpper) {
			result[k] = v
		}
	}

	return result
}

// Keys returns the sorted keys of envVars. Useful for logging which variables
// are set without logging their values.
func Keys(envVars map[string]string) []string {
	return slices.Sorted(maps.Keys(envVars))
}
