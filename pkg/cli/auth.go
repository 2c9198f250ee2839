package cli

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"
	"github.com/zalando/go-keyring"
)

const (
	keyringService = "ecopipe"
	keyringUser    = "archive-token"

	tokenEnvVar   = "ZENODO_TOKEN"
	tokenHomeDir  = ".ecopipe"
	tokenFileName = "token"
	fileMode      = 0600
)

var tokenFlag = &cli.StringFlag{
	Name:  "token",
	Usage: "Archive deposit token (prompted for when not provided)",
}

var authCmd = &cli.Command{
	Name:   "auth",
	Usage:  "Store the archive deposit token in the OS keyring",
	Flags:  []cli.Flag{tokenFlag},
	Action: cmdAuth,
}

func cmdAuth(c *cli.Context) error {
	token := strings.TrimSpace(c.String(tokenFlag.Name))
	if token == "" {
		fmt.Print("archive token: ")
		s := bufio.NewScanner(os.Stdin)
		if s.Scan() {
			token = strings.TrimSpace(s.Text())
		}
	}
	if token == "" {
		return errors.New("no token provided")
	}

	if err := saveArchiveToken(token); err != nil {
		return err
	}
	return encode(map[string]string{"status": "token stored"})
}

// saveArchiveToken stores the token in the OS keyring, falling back to a
// file in the user's home directory on headless systems.
func saveArchiveToken(token string) error {
	if err := keyring.Set(keyringService, keyringUser, token); err == nil {
		slog.Debug("token stored in keyring", "service", keyringService)
		return nil
	}

	path, err := tokenFilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return fmt.Errorf("failed to create token dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(token), fileMode); err != nil {
		return fmt.Errorf("failed to write token file %s: %w", path, err)
	}
	slog.Debug("keyring unavailable, token stored in file", "path", path)
	return nil
}

// getArchiveToken resolves the deposit token: environment variable first,
// then the OS keyring, then the home-directory file.
func getArchiveToken() (string, error) {
	if t := strings.TrimSpace(os.Getenv(tokenEnvVar)); t != "" {
		return t, nil
	}

	if t, err := keyring.Get(keyringService, keyringUser); err == nil && t != "" {
		return t, nil
	}

	path, err := tokenFilePath()
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("no archive token found: set %s or run auth", tokenEnvVar)
	}
	t := strings.TrimSpace(string(b))
	if t == "" {
		return "", fmt.Errorf("token file %s is empty: set %s or run auth", path, tokenEnvVar)
	}
	return t, nil
}

func tokenFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home dir: %w", err)
	}
	return filepath.Join(home, tokenHomeDir, tokenFileName), nil
}
