package backup

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const sealMagic = "xb1:"

// ErrSealed is returned when a sealed snapshot cannot be opened.
var ErrSealed = errors.New("backup cannot be opened")

// Sealer encrypts snapshots at rest. Kiosk disks are shared between students,
// so answers are not left readable on them.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives an XChaCha20-Poly1305 key from secret with HKDF-SHA256.
// An empty secret returns a nil Sealer, and a nil Sealer stores plaintext.
func NewSealer(secret string) (*Sealer, error) {
	if secret == "" {
		return nil, nil
	}
	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("exstem-attempt-backup"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext and binds it to key as additional data, so a snapshot
// copied under another student's key fails to open.
func (s *Sealer) Seal(key string, plaintext []byte) ([]byte, error) {
	if s == nil {
		return plaintext, nil
	}
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	out := append([]byte(sealMagic), s.aead.Seal(nonce, nonce, plaintext, []byte(key))...)
	return out, nil
}

// Open reverses Seal.
func (s *Sealer) Open(key string, data []byte) ([]byte, error) {
	if s == nil {
		return data, nil
	}
	if len(data) < len(sealMagic) || string(data[:len(sealMagic)]) != sealMagic {
		return nil, ErrSealed
	}
	data = data[len(sealMagic):]
	ns := s.aead.NonceSize()
	if len(data) < ns+s.aead.Overhead() {
		return nil, ErrSealed
	}
	plain, err := s.aead.Open(nil, data[:ns], data[ns:], []byte(key))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSealed, err)
	}
	return plain, nil
}
