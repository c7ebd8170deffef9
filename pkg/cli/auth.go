package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/zalando/go-keyring"
)

const (
	apiKeyEnvVar   = "NCBI_API_KEY"
	apiKeyFileName = "ncbi_api_key"
	keyringService = "varsig"
	keyringUser    = "ncbi_api_key"
)

var (
	keyFlag = &cli.StringFlag{
		Name:     "key",
		Usage:    "NCBI E-utilities API key",
		Required: true,
	}

	authCmd = &cli.Command{
		Name:            "auth",
		HideHelpCommand: true,
		Usage:           "Store the NCBI API key used to raise the E-utilities rate limit",
		Flags:           []cli.Flag{keyFlag},
		Action:          cmdSaveAPIKey,
	}
)

func cmdSaveAPIKey(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(ctx)
	key := strings.TrimSpace(cmd.String(keyFlag.Name))
	if key == "" {
		return errors.New("key is required")
	}

	if err := saveAPIKey(cfg.HomeDir, key); err != nil {
		return fmt.Errorf("saving key: %w", err)
	}

	fmt.Fprintln(cfg.Out, "API key saved")
	return nil
}

func saveAPIKey(dir, key string) error {
	if err := keyring.Set(keyringService, keyringUser, key); err != nil {
		slog.Warn("keychain unavailable, falling back to file", "error", err)
		return saveAPIKeyFile(dir, key)
	}

	// Clean up legacy file if it exists
	os.Remove(filepath.Join(dir, apiKeyFileName))

	return nil
}

// getAPIKey resolves the key from the environment, the keychain or the
// fallback file. The key is optional so a missing one is not an error.
func getAPIKey(dir string) string {
	if key := strings.TrimSpace(os.Getenv(apiKeyEnvVar)); key != "" {
		return key
	}

	key, err := keyring.Get(keyringService, keyringUser)
	if err == nil && key != "" {
		return key
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		slog.Debug("keychain unavailable", "error", err)
	}

	key, err = getAPIKeyFile(dir)
	if err != nil {
		slog.Debug("no API key configured, using anonymous rate limit")
		return ""
	}

	// Migrate to keychain
	if migrateErr := keyring.Set(keyringService, keyringUser, key); migrateErr == nil {
		slog.Info("migrated API key from file to OS keychain")
		os.Remove(filepath.Join(dir, apiKeyFileName))
	}

	return key
}

func saveAPIKeyFile(dir, key string) error {
	return os.WriteFile(filepath.Join(dir, apiKeyFileName), []byte(key), 0600)
}

func getAPIKeyFile(dir string) (string, error) {
	p := filepath.Join(dir, apiKeyFileName)
	b, err := os.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("reading key file %s: %w", p, err)
	}
	key := strings.TrimSpace(string(b))
	if key == "" {
		return "", fmt.Errorf("empty key file %s", p)
	}
	return key, nil
}
