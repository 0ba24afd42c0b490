package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"

	"github.com/go-faster/errors"
)

// sealer encrypts JSON values into cookie-safe strings with AES-256-GCM.
type sealer struct {
	aead cipher.AEAD
}

func newSealer(key []byte) (*sealer, error) {
	if len(key) != 32 {
		return nil, errors.Errorf("key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "creating AES cipher")
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "creating GCM")
	}
	return &sealer{aead: aead}, nil
}

func (s *sealer) seal(v any) (string, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "marshaling")
	}

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", errors.Wrap(err, "generating nonce")
	}

	ciphertext := s.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

func (s *sealer) open(encoded string, v any) error {
	ciphertext, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return errors.Wrap(err, "decoding")
	}
	if len(ciphertext) < s.aead.NonceSize() {
		return errors.New("invalid sealed data")
	}

	nonce := ciphertext[:s.aead.NonceSize()]
	ciphertext = ciphertext[s.aead.NonceSize():]

	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return errors.Wrap(err, "decrypting")
	}
	if err := json.Unmarshal(plaintext, v); err != nil {
		return errors.Wrap(err, "unmarshaling")
	}
	return nil
}

// GenerateSecureString returns a random URL-safe string built from n bytes.
func GenerateSecureString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ConstantTimeCompare performs a constant-time comparison of two strings.
func ConstantTimeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
