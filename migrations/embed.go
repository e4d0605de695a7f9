// Package migrations holds the SQL schema applied by cmd/migrate.
package migrations

import (
	"embed"
	"fmt"
)

//go:embed *.sql
var files embed.FS

// Load returns the script for the given direction ("up" or "down").
func Load(direction string) (string, error) {
	if direction != "up" && direction != "down" {
		return "", fmt.Errorf("unknown migration direction %q", direction)
	}
	content, err := files.ReadFile(fmt.Sprintf("001_create_schema.%s.sql", direction))
	if err != nil {
		return "", fmt.Errorf("failed to read migration: %w", err)
	}
	return string(content), nil
}
