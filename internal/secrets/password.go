package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// “Service” groups the app’s secrets in the OS keychain.
	KeyringService = "jobmirror"
)

var ErrNoPassword = errors.New("store password not found (set it in the keychain or via POSTGRES_PWD)")

// StoreAccount names the keychain entry for a postgres login.
func StoreAccount(user, host, dbname string) string {
	return fmt.Sprintf("jobmirror:postgres:%s@%s/%s", user, host, dbname)
}

// StorePassword returns envValue when set, otherwise the keychain entry.
func StorePassword(envValue, account string) (string, error) {
	if envValue != "" {
		return envValue, nil
	}
	if strings.TrimSpace(account) != "" {
		pw, err := keyring.Get(KeyringService, account)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}
	return "", ErrNoPassword
}

func SetStorePassword(account, password string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, account, password)
}

func DeleteStorePassword(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, account)
}
