package config

import (
	"os"

	"github.com/joho/godotenv"
)

// envFileCandidates lists env files in load order. The first one found wins;
// values already present in the process environment are never overridden.
var envFileCandidates = []string{".env.local", ".env"}

// loadEnvFile loads environment variables from the first env file found in
// the current directory. Missing files are reported as an error so callers
// can log it, but loading is always best-effort.
func loadEnvFile() error {
	for _, name := range envFileCandidates {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		return godotenv.Load(name)
	}
	return os.ErrNotExist
}
