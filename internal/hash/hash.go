package hash

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

var (
	ErrEmptyPassword   = errors.New("password is empty")
	ErrPasswordTooLong = errors.New("password is longer than 72 bytes")
)

// Cost is lowered by tests.
var Cost = bcrypt.DefaultCost

var (
	decoyOnce sync.Once
	decoyHash []byte
)

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hashbytes, err := bcrypt.GenerateFromPassword([]byte(password), Cost)
	if err != nil {
		return "", err
	}
	return string(hashbytes), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// CheckMissing spends the same bcrypt work as CheckPassword when there is no
// stored digest to compare against, so unknown accounts answer as slowly as
// known ones.
func CheckMissing(password string) {
	decoyOnce.Do(func() {
		decoyHash, _ = bcrypt.GenerateFromPassword([]byte("toptunez-unknown-account"), Cost)
	})
	_ = bcrypt.CompareHashAndPassword(decoyHash, []byte(password))
}
