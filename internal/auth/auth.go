// Package auth locates provider API keys and checks them before a run.
package auth

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fpang/slide-digest/internal/chat"
)

const credentialDir = ".slide-digest"

// envVars maps a provider to the environment variable holding its key.
var envVars = map[string]string{
	chat.ProviderOpenAI: "OPENAI_API_KEY",
	chat.ProviderGemini: "GEMINI_API_KEY",
}

// EnvVar returns the environment variable that holds the provider's key,
// or "" for providers that need none.
func EnvVar(provider string) string {
	return envVars[provider]
}

// GetAPIKey retrieves the API key for provider.
// Priority order:
//  1. OPENAI_API_KEY / GEMINI_API_KEY environment variable
//  2. GPG-encrypted file at ~/.slide-digest/<provider>-credentials.gpg
//
// The stub provider needs no key and gets "".
func GetAPIKey(provider string) (string, error) {
	envVar, ok := envVars[provider]
	if !ok {
		return "", nil
	}

	if key := os.Getenv(envVar); key != "" {
		log.Debug().Str("provider", provider).Msg("Using API key from environment variable")
		return key, nil
	}

	key, err := getFromGPG(provider)
	if err == nil && key != "" {
		log.Debug().Str("provider", provider).Msg("Using API key from GPG encrypted file")
		return key, nil
	}

	log.Error().Err(err).Str("provider", provider).Msg("Failed to retrieve API key")
	return "", fmt.Errorf("API key not found. Set %s or store it encrypted at ~/%s/%s-credentials.gpg",
		envVar, credentialDir, provider)
}

// getFromGPG decrypts the API key from the provider's GPG-encrypted credentials file.
func getFromGPG(provider string) (string, error) {
	credPath, err := getCredentialPath(provider)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(credPath); os.IsNotExist(err) {
		return "", fmt.Errorf("GPG credentials file not found at %s", credPath)
	}

	log.Debug().Str("file", credPath).Msg("Decrypting GPG credentials")

	args := []string{"--decrypt", "--quiet"}
	if passphrasePath, ok := passphraseFile(); ok {
		args = append(args, "--pinentry-mode", "loopback", "--passphrase-file", passphrasePath)
	}
	args = append(args, credPath)

	output, err := exec.Command("gpg", args...).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("GPG decryption failed: %s", string(exitErr.Stderr))
		}
		return "", fmt.Errorf("GPG decryption failed: %w", err)
	}

	return strings.TrimSpace(string(output)), nil
}

// getCredentialPath returns the full path to the provider's credentials file.
func getCredentialPath(provider string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, credentialDir, provider+"-credentials.gpg"), nil
}

// passphraseFile finds .gpg-passphrase next to the executable or in the
// working directory. Files readable by group or others are ignored.
func passphraseFile() (string, bool) {
	var candidates []string
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), ".gpg-passphrase"))
	}
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, ".gpg-passphrase"))
	}

	for _, path := range candidates {
		fi, err := os.Stat(path)
		if err != nil {
			continue
		}
		if mode := fi.Mode().Perm(); mode&0o077 != 0 {
			log.Warn().
				Str("passphrase_file", path).
				Str("permissions", fmt.Sprintf("%04o", mode)).
				Msg("Passphrase file has insecure permissions (should be 0600); skipping")
			continue
		}
		log.Debug().Str("passphrase_file", path).Msg("Using passphrase file for GPG decryption")
		return path, true
	}
	return "", false
}
