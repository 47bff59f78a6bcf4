package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Credentials are the two opaque push notification tokens.
// Missing values are not rejected here; the provider refuses them at dispatch time.
type Credentials struct {
	UserKey  string `env:"PUSHOVER_USER_KEY"`
	AppToken string `env:"PUSHOVER_APP_TOKEN"`
}

// LoadCredentials reads credentials from the environment after loading
// any of the given dotenv files that exist (".env" when none are given).
// Variables already set in the environment win over dotenv values.
func LoadCredentials(ctx context.Context, envFiles ...string) (Credentials, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Credentials{}, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	var creds Credentials
	if err := envconfig.Process(ctx, &creds); err != nil {
		return Credentials{}, fmt.Errorf("failed to read credentials from environment: %w", err)
	}
	return creds, nil
}

// Masked returns a value safe to print: the last four characters only
func Masked(secret string) string {
	if secret == "" {
		return "<unset>"
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}
