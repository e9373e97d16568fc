package encryption

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

var (
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")
	ErrDecryptionFailed  = errors.New("decryption failed")
	ErrKeyNotFound       = errors.New("encryption key not found")
	ErrInvalidKeyLength  = errors.New("encryption key must be 32 bytes for AES-256")
)

const (
	ciphertextPrefix = "$enc$"
	maskPrefix       = "****"
)

// AccountEncryptor encrypts bank account numbers at rest with AES-256-GCM.
type AccountEncryptor struct {
	key        []byte
	keyVersion string
	mu         sync.RWMutex
	gcpClient  *secretmanager.Client
}

// Config holds configuration for the account encryptor
type Config struct {
	// GCP Secret Manager configuration
	GCPProjectID string
	SecretName   string

	// Base64 or hex encoded 32 byte key
	LocalKey string

	// Passphrase used to derive a key when nothing else is configured.
	// Only honoured when AllowDerivedKey is set.
	DerivedFrom     string
	AllowDerivedKey bool
}

// NewAccountEncryptor resolves the key from Secret Manager, then the local key,
// then (outside production) a key derived from the application secret.
func NewAccountEncryptor(ctx context.Context, cfg Config) (*AccountEncryptor, error) {
	encryptor := &AccountEncryptor{}

	if cfg.GCPProjectID != "" && cfg.SecretName != "" {
		client, err := secretmanager.NewClient(ctx)
		if err == nil {
			encryptor.gcpClient = client
			if err := encryptor.loadKeyFromSecretManager(ctx, cfg.GCPProjectID, cfg.SecretName); err == nil {
				return encryptor, nil
			}
		}
	}

	if cfg.LocalKey != "" {
		key, err := decodeKey(cfg.LocalKey)
		if err != nil {
			return nil, err
		}
		encryptor.key = key
		encryptor.keyVersion = "local"
		return encryptor, nil
	}

	if cfg.AllowDerivedKey && cfg.DerivedFrom != "" {
		sum := sha256.Sum256([]byte(cfg.DerivedFrom))
		encryptor.key = sum[:]
		encryptor.keyVersion = "derived"
		return encryptor, nil
	}

	return nil, ErrKeyNotFound
}

// NewAccountEncryptorWithKey builds an encryptor around a raw 32 byte key.
func NewAccountEncryptorWithKey(key []byte, version string) (*AccountEncryptor, error) {
	if len(key) != 32 {
		return nil, ErrInvalidKeyLength
	}
	return &AccountEncryptor{key: key, keyVersion: version}, nil
}

func decodeKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		key, err = hex.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("invalid local key format: %w", err)
		}
	}
	if len(key) != 32 {
		return nil, ErrInvalidKeyLength
	}
	return key, nil
}

func (e *AccountEncryptor) loadKeyFromSecretManager(ctx context.Context, projectID, secretName string) error {
	name := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, secretName)

	result, err := e.gcpClient.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: name,
	})
	if err != nil {
		return fmt.Errorf("failed to access secret: %w", err)
	}

	key := result.Payload.Data
	if len(key) != 32 {
		return ErrInvalidKeyLength
	}

	// Secret version names contain slashes, never the "$" separator
	version := result.Name
	if idx := strings.LastIndex(version, "/"); idx >= 0 {
		version = version[idx+1:]
	}

	e.mu.Lock()
	e.key = key
	e.keyVersion = "gcp-" + version
	e.mu.Unlock()

	return nil
}

// KeyVersion identifies the key used for new ciphertexts
func (e *AccountEncryptor) KeyVersion() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.keyVersion
}

// Encrypt encrypts plaintext. Format: $enc$v1$keyVersion$base64(nonce|ciphertext)
func (e *AccountEncryptor) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	e.mu.RLock()
	key := e.key
	version := e.keyVersion
	e.mu.RUnlock()

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return fmt.Sprintf("$enc$v1$%s$%s", version, base64.StdEncoding.EncodeToString(sealed)), nil
}

// Decrypt reverses Encrypt. Values without the $enc$ prefix are returned as-is.
func (e *AccountEncryptor) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	if !strings.HasPrefix(ciphertext, ciphertextPrefix) {
		return ciphertext, nil
	}

	// "", "enc", "v1", keyVersion, payload
	parts := strings.Split(ciphertext, "$")
	if len(parts) != 5 {
		return "", ErrInvalidCiphertext
	}

	data, err := base64.StdEncoding.DecodeString(parts[4])
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	e.mu.RLock()
	key := e.key
	e.mu.RUnlock()

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", ErrInvalidCiphertext
	}

	nonce, sealed := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}

// DecryptOrMask decrypts for display, falling back to "****" on any failure.
func (e *AccountEncryptor) DecryptOrMask(ciphertext string) string {
	plain, err := e.Decrypt(ciphertext)
	if err != nil {
		return maskPrefix
	}
	return plain
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// MaskAccountNumber shows only the last four digits, e.g. "****3456".
func MaskAccountNumber(account string) string {
	account = strings.TrimSpace(account)
	if account == "" {
		return ""
	}
	if len(account) <= 4 {
		return maskPrefix
	}
	return maskPrefix + account[len(account)-4:]
}

// IsMasked reports whether a submitted account number is the masked value
// echoed back from a settings form.
func IsMasked(account string) bool {
	return strings.HasPrefix(strings.TrimSpace(account), maskPrefix)
}

// Close closes the GCP client
func (e *AccountEncryptor) Close() error {
	if e.gcpClient != nil {
		return e.gcpClient.Close()
	}
	return nil
}
