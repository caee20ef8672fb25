package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "kigaroo"
	// the keychain cannot be enumerated, so the saved logins are
	// listed under their own entry
	keyringIndex = "logins"
)

// KeyringStore keeps one keychain entry per login holding just the
// password
type KeyringStore struct {
	mu sync.Mutex
}

// NewKeyringStore checks that the system keychain answers
func NewKeyringStore() (*KeyringStore, error) {
	if _, err := keyring.Get(keyringService, keyringIndex); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	return &KeyringStore{}, nil
}

func (k *KeyringStore) Name() string { return "system keychain" }

func (k *KeyringStore) Save(account *Account) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if err := keyring.Set(keyringService, account.Key(), account.Password); err != nil {
		return err
	}

	index, err := k.index()
	if err != nil {
		return err
	}
	index[account.Key()] = account.Login
	return k.writeIndex(index)
}

func (k *KeyringStore) Load(login Login) (*Account, error) {
	password, err := keyring.Get(keyringService, login.Key())
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &Account{Login: login, Password: password}, nil
}

func (k *KeyringStore) Remove(login Login) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	err := keyring.Delete(keyringService, login.Key())
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	index, err := k.index()
	if err != nil {
		return err
	}
	delete(index, login.Key())
	return k.writeIndex(index)
}

// Accounts lists the indexed logins. Saved times are not kept in the
// keychain and stay zero.
func (k *KeyringStore) Accounts() ([]*Account, error) {
	k.mu.Lock()
	index, err := k.index()
	k.mu.Unlock()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(index))
	for key := range index {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var out []*Account
	for _, key := range keys {
		account, err := k.Load(index[key])
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, account)
	}
	return out, nil
}

func (k *KeyringStore) index() (map[string]Login, error) {
	raw, err := keyring.Get(keyringService, keyringIndex)
	if errors.Is(err, keyring.ErrNotFound) {
		return map[string]Login{}, nil
	}
	if err != nil {
		return nil, err
	}
	var logins []Login
	if err := json.Unmarshal([]byte(raw), &logins); err != nil {
		return nil, fmt.Errorf("corrupt keychain index: %w", err)
	}
	index := make(map[string]Login, len(logins))
	for _, l := range logins {
		index[l.Key()] = l
	}
	return index, nil
}

func (k *KeyringStore) writeIndex(index map[string]Login) error {
	if len(index) == 0 {
		err := keyring.Delete(keyringService, keyringIndex)
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return err
	}
	logins := make([]Login, 0, len(index))
	for _, l := range index {
		logins = append(logins, l)
	}
	sort.Slice(logins, func(i, j int) bool { return logins[i].Key() < logins[j].Key() })
	raw, err := json.Marshal(logins)
	if err != nil {
		return err
	}
	return keyring.Set(keyringService, keyringIndex, string(raw))
}
