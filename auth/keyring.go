// Package auth stores per-module secrets in the system keyring.
package auth

import (
	"errors"
	"fmt"

	"github.com/anisan-cli/modhost/constant"
	"github.com/anisan-cli/modhost/module"
	"github.com/zalando/go-keyring"
)

const service = constant.Modhost

// ErrNotFound is returned when a module has no secret with the requested name.
var ErrNotFound = errors.New("secret not found")

func account(moduleID, name string) string {
	return moduleID + "/" + name
}

// SetSecret persists a secret for a module.
func SetSecret(moduleID, name, value string) error {
	return keyring.Set(service, account(moduleID, name), value)
}

// Secret retrieves a secret of a module.
func Secret(moduleID, name string) (string, error) {
	v, err := keyring.Get(service, account(moduleID, name))
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("%w: %s/%s", ErrNotFound, moduleID, name)
	}
	return v, err
}

// DeleteSecret removes a secret of a module.
func DeleteSecret(moduleID, name string) error {
	err := keyring.Delete(service, account(moduleID, name))
	if errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, moduleID, name)
	}
	return err
}

// Lookup returns the secret lookup used when resolving a module's request headers.
func Lookup(moduleID string) module.SecretFunc {
	return func(name string) (string, error) {
		return Secret(moduleID, name)
	}
}
