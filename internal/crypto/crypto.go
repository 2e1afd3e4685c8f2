// Package crypto seals clipboard history at rest with NaCl secretbox.
//
// The 32-byte key is derived from the daemon's shared token with
// HKDF-SHA256, so a history file written under one token cannot be read
// under another. Sealed values are laid out as
//
//	[ 24-byte nonce ][ secretbox ciphertext ]
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
)

var (
	hkdfSalt = []byte("clipmgr-history-v1")
	hkdfInfo = []byte("entry-key")
)

// ErrOpen is returned when a sealed value fails authentication, which in
// practice means it was written under a different token.
var ErrOpen = errors.New("crypto: cannot open sealed value (wrong token?)")

// Box seals and opens values under one derived key. A nil *Box is valid and
// passes values through unchanged.
type Box struct {
	key [keySize]byte
}

// NewBox derives a Box from token. An empty token yields a nil Box.
func NewBox(token string) (*Box, error) {
	if token == "" {
		return nil, nil
	}
	b := &Box{}
	r := hkdf.New(sha256.New, []byte(token), hkdfSalt, hkdfInfo)
	if _, err := io.ReadFull(r, b.key[:]); err != nil {
		return nil, fmt.Errorf("crypto: key derivation: %w", err)
	}
	return b, nil
}

// Enabled reports whether b actually encrypts.
func (b *Box) Enabled() bool { return b != nil }

// Seal encrypts plaintext under a fresh random nonce.
func (b *Box) Seal(plaintext []byte) ([]byte, error) {
	if b == nil {
		return plaintext, nil
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("crypto: nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, &b.key), nil
}

// Open reverses Seal.
func (b *Box) Open(sealed []byte) ([]byte, error) {
	if b == nil {
		return sealed, nil
	}
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, ErrOpen
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &b.key)
	if !ok {
		return nil, ErrOpen
	}
	return plain, nil
}
