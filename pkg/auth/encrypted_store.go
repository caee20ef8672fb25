package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 32
	keySize    = 32
	iterations = 100000

	fileVersion = 2
)

// EncryptedFileStore keeps all logins in one AES-GCM sealed file. The key
// is derived with PBKDF2 from a passphrase taken from KIGAROO_PASSPHRASE or
// generated once into the config directory.
type EncryptedFileStore struct {
	path       string
	passphrase string
	mu         sync.Mutex
}

// sealedFile is the on-disk form; Data is nonce || ciphertext of the
// JSON-encoded account map
type sealedFile struct {
	Version int    `json:"version"`
	Salt    string `json:"salt"`
	Data    string `json:"data"`
}

// NewEncryptedFileStore opens the store at path with the user's passphrase
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	passphrase := os.Getenv("KIGAROO_PASSPHRASE")
	if passphrase == "" {
		var err error
		if passphrase, err = generatedPassphrase(filepath.Join(filepath.Dir(path), ".passphrase")); err != nil {
			return nil, err
		}
	}
	return NewEncryptedFileStoreWithPassphrase(path, passphrase)
}

// NewEncryptedFileStoreWithPassphrase opens the store at path with an
// explicit passphrase
func NewEncryptedFileStoreWithPassphrase(path, passphrase string) (*EncryptedFileStore, error) {
	if passphrase == "" {
		return nil, errors.New("passphrase is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &EncryptedFileStore{path: path, passphrase: passphrase}, nil
}

func (e *EncryptedFileStore) Name() string { return "encrypted file " + e.path }

func (e *EncryptedFileStore) Save(account *Account) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	accounts, err := e.read()
	if err != nil {
		return err
	}
	stored := *account
	accounts[account.Key()] = &stored
	return e.write(accounts)
}

func (e *EncryptedFileStore) Load(login Login) (*Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	accounts, err := e.read()
	if err != nil {
		return nil, err
	}
	account, ok := accounts[login.Key()]
	if !ok {
		return nil, ErrNotFound
	}
	return account, nil
}

func (e *EncryptedFileStore) Remove(login Login) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	accounts, err := e.read()
	if err != nil {
		return err
	}
	if _, ok := accounts[login.Key()]; !ok {
		return ErrNotFound
	}
	delete(accounts, login.Key())

	if len(accounts) == 0 {
		return os.Remove(e.path)
	}
	return e.write(accounts)
}

func (e *EncryptedFileStore) Accounts() ([]*Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	accounts, err := e.read()
	if err != nil {
		return nil, err
	}
	out := make([]*Account, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out, nil
}

// read returns the decrypted account map; a missing file is an empty map
func (e *EncryptedFileStore) read() (map[string]*Account, error) {
	content, err := os.ReadFile(e.path)
	if os.IsNotExist(err) {
		return map[string]*Account{}, nil
	}
	if err != nil {
		return nil, err
	}

	var sealed sealedFile
	if err := json.Unmarshal(content, &sealed); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", e.path, err)
	}
	if sealed.Version != fileVersion {
		return nil, fmt.Errorf("%s has unsupported version %d", e.path, sealed.Version)
	}
	salt, err := base64.StdEncoding.DecodeString(sealed.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(sealed.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data: %w", err)
	}

	gcm, err := e.cipher(salt)
	if err != nil {
		return nil, err
	}
	if len(data) < gcm.NonceSize() {
		return nil, errors.New("credential file is truncated")
	}
	plain, err := gcm.Open(nil, data[:gcm.NonceSize()], data[gcm.NonceSize():], nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt %s (wrong passphrase?): %w", e.path, err)
	}

	accounts := make(map[string]*Account)
	if err := json.Unmarshal(plain, &accounts); err != nil {
		return nil, fmt.Errorf("failed to parse accounts: %w", err)
	}
	return accounts, nil
}

// write seals accounts under a fresh salt and nonce and replaces the file
func (e *EncryptedFileStore) write(accounts map[string]*Account) error {
	plain, err := json.Marshal(accounts)
	if err != nil {
		return err
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	gcm, err := e.cipher(salt)
	if err != nil {
		return err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	content, err := json.MarshalIndent(sealedFile{
		Version: fileVersion,
		Salt:    base64.StdEncoding.EncodeToString(salt),
		Data:    base64.StdEncoding.EncodeToString(gcm.Seal(nonce, nonce, plain, nil)),
	}, "", "  ")
	if err != nil {
		return err
	}

	tmp := e.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	return os.Rename(tmp, e.path)
}

func (e *EncryptedFileStore) cipher(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(e.passphrase), salt, iterations, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// generatedPassphrase reads the passphrase file, creating it with random
// content on first use
func generatedPassphrase(path string) (string, error) {
	if content, err := os.ReadFile(path); err == nil && len(content) > 0 {
		return string(content), nil
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	passphrase := base64.URLEncoding.EncodeToString(b)

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(passphrase), 0600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}
	return passphrase, nil
}
