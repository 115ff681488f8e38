package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// loadEnvFiles loads .env/.env.local from the project directory. It stops at
// the first file that parses. Existing process variables are never overwritten.
func loadEnvFiles(projectDir string) (string, error) {
	for _, name := range []string{".env", ".env.local"} {
		path := filepath.Join(projectDir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return "", fmt.Errorf("load %s: %w", path, err)
		}
		return path, nil
	}
	return "", fmt.Errorf("no .env file found in %s", projectDir)
}
