package auth

import (
	"os"
)

// EnvironmentStore offers the login in KIGAROO_USERNAME / KIGAROO_PASSWORD.
// When KIGAROO_BASE_URL is set the login belongs to that site only.
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (e *EnvironmentStore) Name() string { return "environment" }

func (e *EnvironmentStore) Save(*Account) error { return ErrReadOnly }

func (e *EnvironmentStore) Remove(Login) error { return ErrReadOnly }

func (e *EnvironmentStore) Load(login Login) (*Account, error) {
	account := e.account()
	if account == nil || account.Username != login.Username {
		return nil, ErrNotFound
	}
	if account.Site != "" && login.Site != "" && normalizeSite(account.Site) != normalizeSite(login.Site) {
		return nil, ErrNotFound
	}
	return account, nil
}

func (e *EnvironmentStore) Accounts() ([]*Account, error) {
	if account := e.account(); account != nil {
		return []*Account{account}, nil
	}
	return nil, nil
}

func (e *EnvironmentStore) account() *Account {
	username, password := os.Getenv("KIGAROO_USERNAME"), os.Getenv("KIGAROO_PASSWORD")
	if username == "" || password == "" {
		return nil
	}
	return &Account{
		Login:    Login{Site: os.Getenv("KIGAROO_BASE_URL"), Username: username},
		Password: password,
	}
}
