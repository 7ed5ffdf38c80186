package filerepo

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const (
	keySize   = 32
	nonceSize = 24
	saltSize  = 16

	// scrypt cost parameters for interactive use.
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

var errUnseal = errors.New("sealed token could not be opened")

// deriveKey stretches passphrase with scrypt under salt.
func deriveKey(passphrase []byte, salt []byte) (*[keySize]byte, error) {
	derived, err := scrypt.Key(passphrase, salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, err
	}
	var key [keySize]byte
	copy(key[:], derived)
	return &key, nil
}

// seal encrypts plaintext under a key derived from passphrase and a fresh
// salt. The encoded result is salt, nonce and box in that order.
func seal(passphrase []byte, plaintext string) (string, error) {
	var header [saltSize + nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, header[:]); err != nil {
		return "", err
	}
	key, err := deriveKey(passphrase, header[:saltSize])
	if err != nil {
		return "", err
	}

	var nonce [nonceSize]byte
	copy(nonce[:], header[saltSize:])
	box := secretbox.Seal(header[:], []byte(plaintext), &nonce, key)
	return base64.RawURLEncoding.EncodeToString(box), nil
}

func open(passphrase []byte, encoded string) (string, error) {
	box, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	if len(box) < saltSize+nonceSize+secretbox.Overhead {
		return "", errUnseal
	}

	key, err := deriveKey(passphrase, box[:saltSize])
	if err != nil {
		return "", err
	}
	var nonce [nonceSize]byte
	copy(nonce[:], box[saltSize:saltSize+nonceSize])
	plaintext, ok := secretbox.Open(nil, box[saltSize+nonceSize:], &nonce, key)
	if !ok {
		return "", errUnseal
	}
	return string(plaintext), nil
}
