package services

import (
	"fmt"

	"reflections/internal/crypto"
	"reflections/internal/models"
)

// EncryptionService wraps the cipher with reflection-specific methods.
// A nil *EncryptionService leaves text untouched.
type EncryptionService struct {
	cipher *crypto.Cipher
}

// NewEncryptionService derives the key from passphrase. An empty passphrase
// disables encryption and returns nil.
func NewEncryptionService(passphrase string) (*EncryptionService, error) {
	if passphrase == "" {
		return nil, nil
	}
	key, err := crypto.DeriveKey(passphrase)
	if err != nil {
		return nil, err
	}
	c, err := crypto.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &EncryptionService{cipher: c}, nil
}

// EncryptText encrypts a reflection body before storing it in the DB
func (s *EncryptionService) EncryptText(text string) (string, error) {
	if s == nil {
		return text, nil
	}
	sealed, err := s.cipher.Encrypt(text)
	if err != nil {
		return "", fmt.Errorf("encrypt reflection text: %w", err)
	}
	return sealed, nil
}

// DecryptReflection decrypts the body after retrieving it from the DB
func (s *EncryptionService) DecryptReflection(r *models.Reflection) error {
	if s == nil {
		return nil
	}
	text, err := s.cipher.Decrypt(r.Text)
	if err != nil {
		return fmt.Errorf("decrypt reflection %d: %w", r.ID, err)
	}
	r.Text = text
	return nil
}
