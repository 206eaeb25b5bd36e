package storage

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

var sealInfo = []byte("semicolon/session-storage/v1")

// SealedStorage encrypts values with XChaCha20-Poly1305 before handing them
// to the wrapped storage. The entry name is authenticated as additional data,
// so ciphertexts cannot be moved between entries.
type SealedStorage struct {
	inner Storage
	aead  cipher.AEAD
}

// NewSealedStorage derives an encryption key from secret with HKDF-SHA256.
func NewSealedStorage(inner Storage, secret []byte) (*SealedStorage, error) {
	if inner == nil {
		return nil, errors.New("sealed storage requires an inner storage")
	}
	if len(secret) == 0 {
		return nil, errors.New("sealed storage requires a secret")
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, sealInfo), key); err != nil {
		return nil, fmt.Errorf("derive storage key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return &SealedStorage{inner: inner, aead: aead}, nil
}

// Get returns the decrypted value stored under key.
func (s *SealedStorage) Get(key string) (string, bool, error) {
	sealed, ok, err := s.inner.Get(key)
	if err != nil || !ok {
		return "", ok, err
	}
	blob, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", false, fmt.Errorf("decode sealed value %q: %w", key, err)
	}
	if len(blob) < s.aead.NonceSize() {
		return "", false, fmt.Errorf("sealed value %q too short", key)
	}
	nonce, ciphertext := blob[:s.aead.NonceSize()], blob[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return "", false, fmt.Errorf("open sealed value %q: %w", key, err)
	}
	return string(plain), true, nil
}

// Put encrypts every item and writes them atomically.
func (s *SealedStorage) Put(items map[string]string) error {
	sealed := make(map[string]string, len(items))
	for k, v := range items {
		nonce := make([]byte, s.aead.NonceSize())
		if _, err := rand.Read(nonce); err != nil {
			return err
		}
		blob := append(nonce, s.aead.Seal(nil, nonce, []byte(v), []byte(k))...)
		sealed[k] = base64.StdEncoding.EncodeToString(blob)
	}
	return s.inner.Put(sealed)
}

// Delete removes keys from the wrapped storage.
func (s *SealedStorage) Delete(keys ...string) error {
	return s.inner.Delete(keys...)
}
