// Package twitchauth resolves the Twitch OAuth token the chat client
// authenticates with, from the environment or from a token file.
package twitchauth

import (
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Normalize returns the token in the "oauth:..." form the IRC login
// expects, tolerating tokens stored with or without the prefix.
func Normalize(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(token, "oauth:") {
		return token
	}
	return "oauth:" + token
}

// ReadTokenFile reads a single-line token file, trimming whitespace.
func ReadTokenFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, "read token file")
	}
	token := strings.TrimSpace(string(b))
	if token == "" {
		return "", errors.Errorf("token file %s is empty", path)
	}
	return token, nil
}

// Resolve prefers the inline token and falls back to the token file.
// Returns "" with no error when neither is configured, which selects
// anonymous chat access.
func Resolve(token, tokenFile string) (string, error) {
	if strings.TrimSpace(token) != "" {
		return Normalize(token), nil
	}
	if strings.TrimSpace(tokenFile) == "" {
		return "", nil
	}
	fromFile, err := ReadTokenFile(tokenFile)
	if err != nil {
		return "", err
	}
	return Normalize(fromFile), nil
}
