package auth

import "golang.org/x/crypto/bcrypt"

// bcrypt silently ignores input past 72 bytes, so longer passwords are
// rejected up front instead of being truncated behind the user's back.
const maxPasswordBytes = 72

// HashPassword hashes a password for storage.
func HashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", ErrValidation
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
