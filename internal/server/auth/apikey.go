package auth

import "golang.org/x/crypto/bcrypt"

// HashServiceKey produces a bcrypt hash of the service API key, suitable for
// storing in configuration.
func HashServiceKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckServiceKey reports whether the presented key matches the configured
// bcrypt hash.
func CheckServiceKey(hash, key string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}
