package main

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService  = "raport-cli"
	keyringTokenKey = "api_token"
)

// SaveTokenToKeyring securely stores the backend API token in the OS keyring
func SaveTokenToKeyring(token string) error {
	if err := keyring.Set(keyringService, keyringTokenKey, token); err != nil {
		return fmt.Errorf("failed to store token in keyring: %w", err)
	}
	return nil
}

// GetTokenFromKeyring retrieves the backend API token. A missing token is
// reported as an empty string, not an error.
func GetTokenFromKeyring() (string, error) {
	token, err := keyring.Get(keyringService, keyringTokenKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to retrieve token from keyring: %w", err)
	}
	return token, nil
}

// DeleteTokenFromKeyring removes the backend API token from the OS keyring
func DeleteTokenFromKeyring() error {
	err := keyring.Delete(keyringService, keyringTokenKey)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete token from keyring: %w", err)
	}
	return nil
}
