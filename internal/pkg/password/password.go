package password

import "golang.org/x/crypto/bcrypt"

// bcrypt cost; raising it invalidates no existing hashes, new ones just
// take longer to compute.
const cost = 12

// Hash derives a bcrypt hash for storage
func Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether plain matches the stored hash
func Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
