// Package cryptox implements the content encryption used for stored secrets
// and share payloads: AES-256-CBC with a random 16-byte IV and PKCS#7
// padding, serialized as base64(IV || ciphertext).
//
// CBC without authentication matches the storage format of earlier
// deployments; blobs written by them stay readable. Tampering is detected
// only as far as padding checks allow, so decryption failures are reported
// through common.ErrDecryption without detail.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/mdemidovs/secretbin/internal/common"
)

// Encrypt encrypts plaintext under key and returns the blob
// base64(IV || ciphertext). The key must be 16, 24, or 32 bytes.
func Encrypt(plaintext, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("cipher init: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("iv generation: %w", err)
	}

	padded := pad(plaintext, aes.BlockSize)
	out := make([]byte, aes.BlockSize+len(padded))
	copy(out, iv)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[aes.BlockSize:], padded)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. Wrong keys, truncated blobs, and tampered IVs all
// surface as common.ErrDecryption; the message never carries blob or key bytes.
func Decrypt(blob string, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init: %w", err)
	}

	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid encoding", common.ErrDecryption)
	}
	if len(data) < aes.BlockSize || (len(data)-aes.BlockSize)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: malformed blob", common.ErrDecryption)
	}

	iv, ct := data[:aes.BlockSize], data[aes.BlockSize:]
	if len(ct) == 0 {
		return nil, fmt.Errorf("%w: empty ciphertext", common.ErrDecryption)
	}

	pt := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(pt, ct)

	unpadded, err := unpad(pt, aes.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	return unpadded, nil
}

// KeySource is one entry of an ordered key-resolution chain: a label for
// logging plus the key material itself.
type KeySource struct {
	Name string
	Key  []byte
}

// DecryptWithSources tries each key source in order and returns the first
// successful plaintext together with the name of the source that produced it.
// When every source fails, the last failure is returned; it still matches
// common.ErrDecryption via errors.Is.
func DecryptWithSources(blob string, sources []KeySource) ([]byte, string, error) {
	var lastErr error
	for _, src := range sources {
		if len(src.Key) == 0 {
			continue
		}
		pt, err := Decrypt(blob, src.Key)
		if err == nil {
			return pt, src.Name, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no usable key source", common.ErrDecryption)
	}
	return nil, "", lastErr
}

func pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	padded := make([]byte, len(b)+n)
	copy(padded, b)
	for i := len(b); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

func unpad(b []byte, blockSize int) ([]byte, error) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded length %d", len(b))
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize || n > len(b) {
		return nil, fmt.Errorf("invalid padding")
	}
	for _, v := range b[len(b)-n:] {
		if int(v) != n {
			return nil, fmt.Errorf("invalid padding")
		}
	}
	return b[:len(b)-n], nil
}
