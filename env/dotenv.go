package env

import (
	"fmt"

	"github.com/joho/godotenv"

	"github.com/jongio/amqp-core/security"
)

// ReadFile parses a .env file without touching the process environment.
func ReadFile(path string) (map[string]string, error) {
	if err := security.ValidatePath(path); err != nil {
		return nil, fmt.Errorf("invalid env file path: %w", err)
	}

	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return values, nil
}

// ReadFiles reads several .env files in order. Later files win.
func ReadFiles(paths ...string) (map[string]string, error) {
	result := make(map[string]string)
	for _, path := range paths {
		values, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		for k, v := range values {
			result[k] = v
		}
	}
	return result, nil
}
