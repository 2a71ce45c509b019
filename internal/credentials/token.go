package credentials

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	tokenPrefix       = "sk-"
	tokenSecretLength = 48
	alphabet          = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateToken returns a freshly generated credential token in the
// familiar "sk-..." shape. The random portion carries ~285 bits of entropy.
func GenerateToken() (string, error) {
	secret, err := randomString(tokenSecretLength)
	if err != nil {
		return "", err
	}
	return tokenPrefix + secret, nil
}

func randomString(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	out := make([]byte, length)
	max := big.NewInt(int64(len(alphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}
