package auth

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("no stored password")
	ErrReadOnly = errors.New("credential store is read-only")
)

// Login identifies one gallery account. Site may be empty for a password
// saved before any site was configured; it then serves every site.
type Login struct {
	Site     string `json:"site,omitempty"`
	Username string `json:"username"`
}

// Key is the lookup key of the login: the lowercased site host and the
// username, or just the username when no site is set
func (l Login) Key() string {
	site := normalizeSite(l.Site)
	if site == "" {
		return l.Username
	}
	return site + "/" + l.Username
}

func (l Login) String() string {
	if l.Site == "" {
		return l.Username
	}
	return l.Username + " @ " + normalizeSite(l.Site)
}

func normalizeSite(site string) string {
	site = strings.TrimSpace(site)
	if u, err := url.Parse(site); err == nil && u.Host != "" {
		return strings.ToLower(u.Host)
	}
	return strings.TrimRight(strings.ToLower(site), "/")
}

// Account is a stored gallery password
type Account struct {
	Login
	Password string    `json:"password"`
	Saved    time.Time `json:"saved"`
}

// Store keeps passwords keyed by Login
type Store interface {
	Name() string
	Save(account *Account) error
	Load(login Login) (*Account, error)
	Remove(login Login) error
	Accounts() ([]*Account, error)
}

// Manager tries its stores in order: the first that accepts a save keeps
// the password, the first that knows a login answers a lookup
type Manager struct {
	stores []Store
}

// NewManager opens the system keychain when it is reachable, the encrypted
// credential file and the environment, in that order
func NewManager() (*Manager, error) {
	var stores []Store

	if ks, err := NewKeyringStore(); err == nil {
		stores = append(stores, ks)
	}

	dir, err := ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	fs, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to open credential file: %w", err)
	}
	stores = append(stores, fs, NewEnvironmentStore())

	return NewManagerWithStores(stores...), nil
}

// NewManagerWithStores builds a Manager over an explicit store chain
func NewManagerWithStores(stores ...Store) *Manager {
	return &Manager{stores: stores}
}

// Save stores the password in the first store that accepts it and returns
// that store's name
func (m *Manager) Save(account *Account) (string, error) {
	if account == nil || account.Username == "" {
		return "", errors.New("username is required")
	}
	if account.Password == "" {
		return "", errors.New("password is required")
	}
	account.Saved = time.Now()

	var errs []error
	for _, store := range m.stores {
		err := store.Save(account)
		if err == nil {
			return store.Name(), nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", store.Name(), err))
	}
	if len(errs) == 0 {
		return "", errors.New("no credential store available")
	}
	return "", fmt.Errorf("failed to save password: %w", errors.Join(errs...))
}

// Lookup finds the account for login. A password saved without a site is
// used when none was saved for the login's site.
func (m *Manager) Lookup(login Login) (*Account, error) {
	candidates := []Login{login}
	if login.Site != "" {
		candidates = append(candidates, Login{Username: login.Username})
	}

	for _, candidate := range candidates {
		for _, store := range m.stores {
			account, err := store.Load(candidate)
			if err == nil {
				return account, nil
			}
		}
	}
	return nil, fmt.Errorf("%w for %s", ErrNotFound, login)
}

// Password returns the password for login
func (m *Manager) Password(login Login) (string, error) {
	account, err := m.Lookup(login)
	if err != nil {
		return "", err
	}
	return account.Password, nil
}

// Accounts lists every stored login once, sorted by site and username.
// When several stores know a login the most recently saved copy wins.
func (m *Manager) Accounts() ([]*Account, error) {
	byKey := make(map[string]*Account)
	var errs []error
	for _, store := range m.stores {
		accounts, err := store.Accounts()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", store.Name(), err))
			continue
		}
		for _, a := range accounts {
			if prev, ok := byKey[a.Key()]; !ok || a.Saved.After(prev.Saved) {
				byKey[a.Key()] = a
			}
		}
	}
	if len(byKey) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	out := make([]*Account, 0, len(byKey))
	for _, a := range byKey {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out, nil
}

// Remove deletes login from every writable store
func (m *Manager) Remove(login Login) error {
	removed := false
	for _, store := range m.stores {
		err := store.Remove(login)
		switch {
		case err == nil:
			removed = true
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrReadOnly):
		default:
			return fmt.Errorf("%s: %w", store.Name(), err)
		}
	}
	if !removed {
		return fmt.Errorf("%w for %s", ErrNotFound, login)
	}
	return nil
}

// RemoveAll deletes every login the writable stores know
func (m *Manager) RemoveAll() error {
	accounts, err := m.Accounts()
	if err != nil {
		return err
	}
	for _, a := range accounts {
		if err := m.Remove(a.Login); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return nil
}

// ConfigDir returns the per-user kigaroo directory, creating it with
// owner-only permissions
func ConfigDir() (string, error) {
	var dir string
	switch runtime.GOOS {
	case "windows":
		dir = filepath.Join(os.Getenv("APPDATA"), "kigaroo")
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, "Library", "Application Support", "kigaroo")
	default:
		base := os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			base = filepath.Join(home, ".config")
		}
		dir = filepath.Join(base, "kigaroo")
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// SanitizeAccount returns a copy of account with the password masked
func SanitizeAccount(account *Account) *Account {
	if account == nil {
		return nil
	}
	masked := *account
	if masked.Password != "" {
		masked.Password = "********"
	}
	return &masked
}
