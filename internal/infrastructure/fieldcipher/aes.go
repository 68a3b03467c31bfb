// Package fieldcipher encrypts individual product attributes with
// AES-256-CBC. Every call draws a fresh IV, so equal plaintexts never
// produce equal ciphertexts.
package fieldcipher

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/supplytrace/provenance/internal/core/domain"
)

// KeySize is the required key length in bytes (AES-256).
const KeySize = 32

var errMalformed = errors.New("malformed encrypted field")

// AESCipher is safe for concurrent use; the key is read-only after New.
type AESCipher struct {
	block cipher.Block
	rand  io.Reader
}

// New builds a cipher from a raw 32-byte key.
func New(key []byte) (*AESCipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", domain.ErrCipherConfig, KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCipherConfig, err)
	}
	return &AESCipher{block: block, rand: rand.Reader}, nil
}

// NewFromBase64 builds a cipher from the base64 form used in configuration.
func NewFromBase64(encoded string) (*AESCipher, error) {
	if encoded == "" {
		return nil, fmt.Errorf("%w: key is not set", domain.ErrCipherConfig)
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: key is not valid base64: %v", domain.ErrCipherConfig, err)
	}
	return New(key)
}

// GenerateKey returns a fresh random key in its base64 configuration form.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// Encrypt returns "ivBase64:ciphertextBase64".
func (c *AESCipher) Encrypt(plaintext string) (domain.EncryptedField, error) {
	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(c.rand, iv); err != nil {
		return "", fmt.Errorf("encrypt: read iv: %w", err)
	}

	padded := pad([]byte(plaintext))
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(out, padded)

	return domain.EncryptedField(
		base64.StdEncoding.EncodeToString(iv) + ":" + base64.StdEncoding.EncodeToString(out),
	), nil
}

// Decrypt reverses Encrypt.
func (c *AESCipher) Decrypt(field domain.EncryptedField) (string, error) {
	ivPart, ctPart, ok := field.Split()
	if !ok {
		return "", errMalformed
	}
	iv, err := base64.StdEncoding.DecodeString(ivPart)
	if err != nil || len(iv) != aes.BlockSize {
		return "", fmt.Errorf("%w: bad iv", errMalformed)
	}
	ct, err := base64.StdEncoding.DecodeString(ctPart)
	if err != nil || len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: bad ciphertext", errMalformed)
	}

	out := make([]byte, len(ct))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(out, ct)

	plain, err := unpad(out)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// pad applies PKCS#7 padding.
func pad(b []byte) []byte {
	n := aes.BlockSize - len(b)%aes.BlockSize
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty block", errMalformed)
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, fmt.Errorf("%w: bad padding", errMalformed)
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, fmt.Errorf("%w: bad padding", errMalformed)
		}
	}
	return b[:len(b)-n], nil
}
